package cart

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// CartRepository defines the persistence surface required by the cart service.
// Every item-level query is scoped by the owning user id.
type CartRepository interface {
	WithTx(tx *gorm.DB) CartRepository
	FindByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	Create(ctx context.Context, cart *models.Cart) error
	Touch(ctx context.Context, cartID uuid.UUID) error
	FindItemByProduct(ctx context.Context, cartID, productID uuid.UUID) (*models.CartItem, error)
	FindItemForUser(ctx context.Context, userID, itemID uuid.UUID) (*models.CartItem, error)
	CreateItem(ctx context.Context, item *models.CartItem) error
	IncrementItemQuantity(ctx context.Context, itemID uuid.UUID, delta int) error
	UpdateItemQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (int64, error)
	DeleteItem(ctx context.Context, userID, itemID uuid.UUID) (int64, error)
	DeleteItemsByCart(ctx context.Context, cartID uuid.UUID) (int64, error)
	DeleteStale(ctx context.Context, before time.Time, limit int) ([]models.Cart, error)
}

// Cache stores the cart-with-items read per user. A cached nil cart means the
// user has no cart yet.
type Cache interface {
	Get(ctx context.Context, userID uuid.UUID) (cart *models.Cart, found bool, err error)
	Set(ctx context.Context, userID uuid.UUID, cart *models.Cart) error
	Invalidate(ctx context.Context, userID uuid.UUID) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}
