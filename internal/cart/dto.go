package cart

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// CartDTO is the wire shape of a cart with its items.
type CartDTO struct {
	ID        uuid.UUID     `json:"id"`
	UserID    uuid.UUID     `json:"user_id"`
	Items     []CartItemDTO `json:"items"`
	ItemCount int           `json:"item_count"`
	Subtotal  int64         `json:"subtotal"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// CartItemDTO is the wire shape of a cart line.
type CartItemDTO struct {
	ID        uuid.UUID `json:"id"`
	CartID    uuid.UUID `json:"cart_id"`
	ProductID uuid.UUID `json:"product_id"`
	Price     int64     `json:"price"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewCartDTO maps a cart model; a nil cart maps to nil.
func NewCartDTO(cart *models.Cart) *CartDTO {
	if cart == nil {
		return nil
	}
	items := make([]CartItemDTO, 0, len(cart.Items))
	for _, item := range cart.Items {
		items = append(items, NewCartItemDTO(item))
	}
	return &CartDTO{
		ID:        cart.ID,
		UserID:    cart.UserID,
		Items:     items,
		ItemCount: ItemCount(cart),
		Subtotal:  Subtotal(cart),
		CreatedAt: cart.CreatedAt,
		UpdatedAt: cart.UpdatedAt,
	}
}

func NewCartItemDTO(item models.CartItem) CartItemDTO {
	return CartItemDTO{
		ID:        item.ID,
		CartID:    item.CartID,
		ProductID: item.ProductID,
		Price:     item.Price,
		Quantity:  item.Quantity,
		CreatedAt: item.CreatedAt,
		UpdatedAt: item.UpdatedAt,
	}
}

func (d *CartDTO) toModel() *models.Cart {
	if d == nil {
		return nil
	}
	cart := &models.Cart{
		ID:        d.ID,
		UserID:    d.UserID,
		Items:     make([]models.CartItem, 0, len(d.Items)),
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
	for _, item := range d.Items {
		cart.Items = append(cart.Items, models.CartItem{
			ID:        item.ID,
			CartID:    item.CartID,
			ProductID: item.ProductID,
			Price:     item.Price,
			Quantity:  item.Quantity,
			CreatedAt: item.CreatedAt,
			UpdatedAt: item.UpdatedAt,
		})
	}
	return cart
}

// ItemCount sums line quantities. An absent cart counts as zero.
func ItemCount(cart *models.Cart) int {
	if cart == nil {
		return 0
	}
	total := 0
	for _, item := range cart.Items {
		total += item.Quantity
	}
	return total
}

// Subtotal sums price × quantity over the cart lines.
func Subtotal(cart *models.Cart) int64 {
	if cart == nil {
		return 0
	}
	var total int64
	for _, item := range cart.Items {
		total += item.LineTotal()
	}
	return total
}
