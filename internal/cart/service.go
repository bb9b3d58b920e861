package cart

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/repo"
	pkgdb "github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
)

// Service exposes the user-scoped cart operations.
type Service interface {
	GetCartWithItems(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (*models.CartItem, error)
	UpdateItem(ctx context.Context, userID, itemID uuid.UUID, input UpdateItemInput) (*models.CartItem, error)
	DeleteItem(ctx context.Context, userID, itemID uuid.UUID) error
	ClearCart(ctx context.Context, userID uuid.UUID) error
	Invalidate(ctx context.Context, userID uuid.UUID)
}

// AddItemInput describes a product being put in the cart.
type AddItemInput struct {
	ProductID uuid.UUID
	Price     int64
	Quantity  int
}

// UpdateItemInput carries the mutable fields of a cart line.
type UpdateItemInput struct {
	Quantity int
}

// ServiceParams wires the cart service.
type ServiceParams struct {
	Repo    CartRepository
	Tx      txRunner
	Cache   Cache
	Metrics *metrics.CartMetrics
	Logger  *logger.Logger
}

type service struct {
	repo    CartRepository
	tx      txRunner
	cache   Cache
	metrics *metrics.CartMetrics
	logg    *logger.Logger
	reads   singleflight.Group
}

// NewService builds a cart service backed by the provided stack.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	cache := params.Cache
	if cache == nil {
		cache = NoopCache{}
	}
	return &service{
		repo:    params.Repo,
		tx:      params.Tx,
		cache:   cache,
		metrics: params.Metrics,
		logg:    params.Logger,
	}, nil
}

// GetCartWithItems returns the user's cart or nil when none exists yet.
func (s *service) GetCartWithItems(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	if cached, found, err := s.cache.Get(ctx, userID); err != nil {
		s.warn(ctx, "cart cache read failed", err)
	} else if found {
		s.metrics.CacheHit()
		return cached, nil
	}
	s.metrics.CacheMiss()

	v, err, _ := s.reads.Do(userID.String(), func() (any, error) {
		cart, err := s.repo.FindByUser(ctx, userID)
		if err != nil {
			if repo.IsNotFound(err) {
				cart = nil
			} else {
				return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "load cart")
			}
		}
		if err := s.cache.Set(ctx, userID, cart); err != nil {
			s.warn(ctx, "cart cache write failed", err)
		}
		return cart, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.Cart), nil
}

// AddItem creates the cart on first use and merges repeated products into
// one line.
func (s *service) AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (item *models.CartItem, err error) {
	if err := validateAddItem(userID, input); err != nil {
		return nil, err
	}
	defer func() { s.finishMutation(ctx, "add_item", userID, err) }()

	item, err = s.addItemTx(ctx, userID, input)
	if err != nil && pkgdb.IsUniqueViolation(err, "") {
		// A concurrent add created the cart or line first; the retry merges into it.
		item, err = s.addItemTx(ctx, userID, input)
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "add cart item")
	}
	return item, nil
}

func (s *service) addItemTx(ctx context.Context, userID uuid.UUID, input AddItemInput) (*models.CartItem, error) {
	var out *models.CartItem
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		carts := s.repo.WithTx(tx)

		cart, err := carts.FindByUser(ctx, userID)
		switch {
		case repo.IsNotFound(err):
			cart = &models.Cart{UserID: userID}
			if err := carts.Create(ctx, cart); err != nil {
				return err
			}
		case err != nil:
			return err
		default:
			if err := carts.Touch(ctx, cart.ID); err != nil {
				return err
			}
		}

		existing, err := carts.FindItemByProduct(ctx, cart.ID, input.ProductID)
		switch {
		case repo.IsNotFound(err):
			item := &models.CartItem{
				CartID:    cart.ID,
				ProductID: input.ProductID,
				Price:     input.Price,
				Quantity:  input.Quantity,
			}
			if err := carts.CreateItem(ctx, item); err != nil {
				return err
			}
			out = item
			return nil
		case err != nil:
			return err
		}

		if err := carts.IncrementItemQuantity(ctx, existing.ID, input.Quantity); err != nil {
			return err
		}
		existing.Quantity += input.Quantity
		out = existing
		return nil
	})
	return out, err
}

// UpdateItem sets the quantity of a line owned by the user.
func (s *service) UpdateItem(ctx context.Context, userID, itemID uuid.UUID, input UpdateItemInput) (item *models.CartItem, err error) {
	if err := validateItemRef(userID, itemID); err != nil {
		return nil, err
	}
	if input.Quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1").
			WithDetails(map[string]string{"quantity": "must be at least 1"})
	}
	defer func() { s.finishMutation(ctx, "update_item", userID, err) }()

	rows, err := s.repo.UpdateItemQuantity(ctx, userID, itemID, input.Quantity)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "update cart item")
	}
	if rows == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}
	item, err = s.repo.FindItemForUser(ctx, userID, itemID)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "reload cart item")
	}
	return item, nil
}

// DeleteItem removes a line owned by the user.
func (s *service) DeleteItem(ctx context.Context, userID, itemID uuid.UUID) (err error) {
	if err := validateItemRef(userID, itemID); err != nil {
		return err
	}
	defer func() { s.finishMutation(ctx, "delete_item", userID, err) }()

	rows, err := s.repo.DeleteItem(ctx, userID, itemID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "delete cart item")
	}
	if rows == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}
	return nil
}

// ClearCart removes every line of the user's cart atomically. A user without
// a cart is left as is.
func (s *service) ClearCart(ctx context.Context, userID uuid.UUID) (err error) {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	defer func() { s.finishMutation(ctx, "clear_cart", userID, err) }()

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		carts := s.repo.WithTx(tx)
		cart, err := carts.FindByUser(ctx, userID)
		if err != nil {
			if repo.IsNotFound(err) {
				return nil
			}
			return err
		}
		if _, err := carts.DeleteItemsByCart(ctx, cart.ID); err != nil {
			return err
		}
		return carts.Touch(ctx, cart.ID)
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "clear cart")
	}
	return nil
}

// Invalidate drops the cached read so the next fetch goes to the database.
func (s *service) Invalidate(ctx context.Context, userID uuid.UUID) {
	s.reads.Forget(userID.String())
	if err := s.cache.Invalidate(ctx, userID); err != nil {
		s.warn(ctx, "cart cache invalidation failed", err)
	}
}

func (s *service) finishMutation(ctx context.Context, op string, userID uuid.UUID, err error) {
	s.Invalidate(ctx, userID)
	s.metrics.ObserveMutation(op, err)
	if err != nil && s.logg != nil && !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		logCtx := s.logg.WithFields(ctx, map[string]any{"operation": op, "user_id": userID.String()})
		s.logg.Error(logCtx, "cart mutation failed", err)
	}
}

func (s *service) warn(ctx context.Context, msg string, err error) {
	if s.logg == nil {
		return
	}
	s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), msg)
}

func validateAddItem(userID uuid.UUID, input AddItemInput) error {
	details := map[string]string{}
	if userID == uuid.Nil {
		details["user_id"] = "is required"
	}
	if input.ProductID == uuid.Nil {
		details["product_id"] = "is required"
	}
	if input.Price < 0 {
		details["price"] = "must be at least 0"
	}
	if input.Quantity < 1 {
		details["quantity"] = "must be at least 1"
	}
	if len(details) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid cart item").WithDetails(details)
	}
	return nil
}

func validateItemRef(userID, itemID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if itemID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "item id is required")
	}
	return nil
}
