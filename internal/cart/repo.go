package cart

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/repo"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// Repository exposes persistence operations for carts and their items.
type Repository struct {
	repo.Base
}

// NewRepository constructs a cart repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) CartRepository {
	if tx == nil {
		return r
	}
	return &Repository{Base: repo.NewBase(tx)}
}

// FindByUser loads the user's cart with items in insertion order.
func (r *Repository) FindByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	err := r.OwnedBy(ctx, &models.Cart{}, userID).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC, id ASC")
		}).
		First(&cart).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *Repository) Create(ctx context.Context, cart *models.Cart) error {
	return r.DB(ctx).Omit("Items").Create(cart).Error
}

// Touch bumps updated_at so stale cleanup follows cart activity.
func (r *Repository) Touch(ctx context.Context, cartID uuid.UUID) error {
	return r.DB(ctx).
		Model(&models.Cart{}).
		Where("id = ?", cartID).
		Update("updated_at", time.Now().UTC()).Error
}

func (r *Repository) FindItemByProduct(ctx context.Context, cartID, productID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	err := r.DB(ctx).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// FindItemForUser returns the item only when it belongs to the user's cart.
func (r *Repository) FindItemForUser(ctx context.Context, userID, itemID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	err := r.DB(ctx).
		Where("id = ? AND cart_id IN (?)", itemID, r.userCartIDs(ctx, userID)).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *Repository) CreateItem(ctx context.Context, item *models.CartItem) error {
	return r.DB(ctx).Create(item).Error
}

func (r *Repository) IncrementItemQuantity(ctx context.Context, itemID uuid.UUID, delta int) error {
	return r.DB(ctx).
		Model(&models.CartItem{}).
		Where("id = ?", itemID).
		Updates(map[string]any{
			"quantity":   gorm.Expr("quantity + ?", delta),
			"updated_at": time.Now().UTC(),
		}).Error
}

// UpdateItemQuantity returns the number of rows touched; zero means the item
// is gone or owned by someone else.
func (r *Repository) UpdateItemQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (int64, error) {
	res := r.DB(ctx).
		Model(&models.CartItem{}).
		Where("id = ? AND cart_id IN (?)", itemID, r.userCartIDs(ctx, userID)).
		Updates(map[string]any{
			"quantity":   quantity,
			"updated_at": time.Now().UTC(),
		})
	return res.RowsAffected, res.Error
}

func (r *Repository) DeleteItem(ctx context.Context, userID, itemID uuid.UUID) (int64, error) {
	res := r.DB(ctx).
		Where("id = ? AND cart_id IN (?)", itemID, r.userCartIDs(ctx, userID)).
		Delete(&models.CartItem{})
	return res.RowsAffected, res.Error
}

func (r *Repository) DeleteItemsByCart(ctx context.Context, cartID uuid.UUID) (int64, error) {
	res := r.DB(ctx).
		Where("cart_id = ?", cartID).
		Delete(&models.CartItem{})
	return res.RowsAffected, res.Error
}

// DeleteStale removes up to limit carts untouched since before, items first,
// and returns the deleted carts.
func (r *Repository) DeleteStale(ctx context.Context, before time.Time, limit int) ([]models.Cart, error) {
	var carts []models.Cart
	err := r.DB(ctx).
		Where("updated_at < ?", before).
		Order("updated_at ASC").
		Limit(limit).
		Find(&carts).Error
	if err != nil || len(carts) == 0 {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(carts))
	for _, c := range carts {
		ids = append(ids, c.ID)
	}
	if err := r.DB(ctx).Where("cart_id IN ?", ids).Delete(&models.CartItem{}).Error; err != nil {
		return nil, err
	}
	if err := r.DB(ctx).Where("id IN ?", ids).Delete(&models.Cart{}).Error; err != nil {
		return nil, err
	}
	return carts, nil
}

func (r *Repository) userCartIDs(ctx context.Context, userID uuid.UUID) *gorm.DB {
	return r.OwnedBy(ctx, &models.Cart{}, userID).Select("id")
}
