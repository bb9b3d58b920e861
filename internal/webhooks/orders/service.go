package orderswebhook

import (
	"context"
	"strings"

	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// EventTypeOrderPaid is emitted by the order service once payment settles.
const EventTypeOrderPaid = "order.paid"

// OrderEvent is the payload posted by the order service.
type OrderEvent struct {
	ID   string         `json:"id"`
	Type string         `json:"type"`
	Data OrderEventData `json:"data"`
}

type OrderEventData struct {
	OrderID string `json:"order_id"`
	UserID  string `json:"user_id"`
}

type cartClearer interface {
	ClearAll(ctx context.Context, userID uuid.UUID) error
}

// Service reacts to order lifecycle events.
type Service struct {
	carts cartClearer
	logg  *logger.Logger
}

func NewService(carts cartClearer, logg *logger.Logger) (*Service, error) {
	if carts == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "cart clearer required")
	}
	return &Service{carts: carts, logg: logg}, nil
}

// HandleEvent empties the buyer's cart and service items once an order is
// paid. Other event types are acknowledged and ignored.
func (s *Service) HandleEvent(ctx context.Context, event *OrderEvent) error {
	if event == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "event is required")
	}
	if strings.TrimSpace(event.Type) != EventTypeOrderPaid {
		if s.logg != nil {
			s.logg.Debug(s.logg.WithField(ctx, "event_type", event.Type), "order event ignored")
		}
		return nil
	}

	userID, err := uuid.Parse(strings.TrimSpace(event.Data.UserID))
	if err != nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order event user_id is invalid")
	}

	if s.logg != nil {
		ctx = s.logg.WithFields(ctx, map[string]any{
			"user_id":  userID.String(),
			"order_id": event.Data.OrderID,
		})
	}
	if err := s.carts.ClearAll(ctx, userID); err != nil {
		return err
	}
	if s.logg != nil {
		s.logg.Info(ctx, "cart cleared after paid order")
	}
	return nil
}
