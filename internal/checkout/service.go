package checkout

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"

	"github.com/angelmondragon/storefront-backend/internal/uistate"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

const defaultCheckoutPath = "/checkout"

type cartReader interface {
	GetCartWithItems(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	ClearCart(ctx context.Context, userID uuid.UUID) error
}

type stateProvider interface {
	Get(ctx context.Context, userID string) (*uistate.Store, error)
}

// Handoff tells the client where to continue once the drawer is closed.
// No payment is submitted here.
type Handoff struct {
	Path    string  `json:"path"`
	Summary Summary `json:"summary"`
}

// Service aggregates prices across both item sources and drives checkout.
type Service interface {
	Summary(ctx context.Context, userID uuid.UUID) (Summary, error)
	Checkout(ctx context.Context, userID uuid.UUID) (Handoff, error)
	ClearAll(ctx context.Context, userID uuid.UUID) error
}

// ServiceParams wires the checkout service.
type ServiceParams struct {
	Carts        cartReader
	State        stateProvider
	TaxRate      decimal.Decimal
	CheckoutPath string
	Logger       *logger.Logger
}

type service struct {
	carts        cartReader
	state        stateProvider
	taxRate      decimal.Decimal
	checkoutPath string
	logg         *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.Carts == nil {
		return nil, fmt.Errorf("cart service required")
	}
	if params.State == nil {
		return nil, fmt.Errorf("cart state registry required")
	}
	taxRate := params.TaxRate
	if taxRate.IsZero() {
		taxRate = DefaultTaxRate
	}
	if taxRate.IsNegative() {
		return nil, fmt.Errorf("tax rate must not be negative")
	}
	path := params.CheckoutPath
	if path == "" {
		path = defaultCheckoutPath
	}
	return &service{
		carts:        params.Carts,
		state:        params.State,
		taxRate:      taxRate,
		checkoutPath: path,
		logg:         params.Logger,
	}, nil
}

// Summary reads both sources and keeps the badge count in step with the
// server cart.
func (s *service) Summary(ctx context.Context, userID uuid.UUID) (Summary, error) {
	summary, _, err := s.load(ctx, userID)
	return summary, err
}

// Checkout closes the drawer and hands off to the checkout route.
func (s *service) Checkout(ctx context.Context, userID uuid.UUID) (Handoff, error) {
	summary, store, err := s.load(ctx, userID)
	if err != nil {
		return Handoff{}, err
	}
	if summary.IsEmpty {
		return Handoff{}, pkgerrors.New(pkgerrors.CodeStateConflict, "cart is empty")
	}
	store.CloseCart()
	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"user_id": userID.String(),
			"total":   summary.Total,
		})
		s.logg.Info(logCtx, "checkout handoff")
	}
	return Handoff{Path: s.checkoutPath, Summary: summary}, nil
}

// ClearAll empties the server cart and the service items. The two clears are
// independent: the local one always runs and neither is rolled back when the
// other fails. The badge count is reset only once the server cart is empty.
func (s *service) ClearAll(ctx context.Context, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	remoteErr := s.carts.ClearCart(ctx, userID)

	store, localErr := s.state.Get(ctx, userID.String())
	if localErr == nil {
		localErr = store.ClearServiceItems(ctx)
		if remoteErr == nil {
			_ = store.SetItemCount(0)
		}
	}

	err := multierr.Combine(remoteErr, localErr)
	if err != nil && s.logg != nil {
		s.logg.Error(s.logg.WithUserID(ctx, userID.String()), "clear all partially failed", err)
	}
	return err
}

func (s *service) load(ctx context.Context, userID uuid.UUID) (Summary, *uistate.Store, error) {
	if userID == uuid.Nil {
		return Summary{}, nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	c, err := s.carts.GetCartWithItems(ctx, userID)
	if err != nil {
		return Summary{}, nil, err
	}
	store, err := s.state.Get(ctx, userID.String())
	if err != nil {
		return Summary{}, nil, err
	}
	summary := Compute(c, store.ServiceItems(), s.taxRate)
	_ = store.SetItemCount(summary.ItemCount)
	return summary, store, nil
}
