package orderswebhook

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

type stubClearer struct {
	cleared []uuid.UUID
	err     error
}

func (s *stubClearer) ClearAll(_ context.Context, userID uuid.UUID) error {
	s.cleared = append(s.cleared, userID)
	return s.err
}

func TestHandleEventClearsCartOnPaidOrder(t *testing.T) {
	clearer := &stubClearer{}
	svc, err := NewService(clearer, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	userID := uuid.New()

	event := &OrderEvent{ID: "evt_1", Type: EventTypeOrderPaid, Data: OrderEventData{OrderID: "ord_1", UserID: userID.String()}}
	if err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("handle event: %v", err)
	}
	if len(clearer.cleared) != 1 || clearer.cleared[0] != userID {
		t.Fatalf("expected cart cleared for %s, got %v", userID, clearer.cleared)
	}
}

func TestHandleEventIgnoresOtherTypes(t *testing.T) {
	clearer := &stubClearer{}
	svc, _ := NewService(clearer, nil)

	if err := svc.HandleEvent(context.Background(), &OrderEvent{ID: "evt_2", Type: "order.created"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(clearer.cleared) != 0 {
		t.Fatalf("expected no clear")
	}
}

func TestHandleEventRejectsBadUser(t *testing.T) {
	svc, _ := NewService(&stubClearer{}, nil)

	err := svc.HandleEvent(context.Background(), &OrderEvent{ID: "evt_3", Type: EventTypeOrderPaid, Data: OrderEventData{UserID: "nope"}})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestHandleEventPropagatesClearFailure(t *testing.T) {
	boom := errors.New("db down")
	svc, _ := NewService(&stubClearer{err: boom}, nil)

	err := svc.HandleEvent(context.Background(), &OrderEvent{ID: "evt_4", Type: EventTypeOrderPaid, Data: OrderEventData{UserID: uuid.NewString()}})
	if !errors.Is(err, boom) {
		t.Fatalf("expected clear failure, got %v", err)
	}
}

type stubIdempotencyStore struct {
	keys map[string]bool
}

func (s *stubIdempotencyStore) Get(context.Context, string) (string, error) { return "", nil }

func (s *stubIdempotencyStore) SetNX(_ context.Context, key string, _ any, _ time.Duration) (bool, error) {
	if s.keys[key] {
		return false, nil
	}
	s.keys[key] = true
	return true, nil
}

func (s *stubIdempotencyStore) IdempotencyKey(scope, id string) string { return scope + ":" + id }

func (s *stubIdempotencyStore) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(s.keys, k)
	}
	return nil
}

func TestIdempotencyGuard(t *testing.T) {
	store := &stubIdempotencyStore{keys: map[string]bool{}}
	guard, err := NewIdempotencyGuard(store, time.Hour, "orders_webhook")
	if err != nil {
		t.Fatalf("new guard: %v", err)
	}
	ctx := context.Background()

	seen, err := guard.CheckAndMark(ctx, "evt_1")
	if err != nil || seen {
		t.Fatalf("expected first delivery unseen, seen=%v err=%v", seen, err)
	}
	if seen, _ = guard.CheckAndMark(ctx, "evt_1"); !seen {
		t.Fatalf("expected replay detected")
	}
	if err := guard.Delete(ctx, "evt_1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if seen, _ = guard.CheckAndMark(ctx, "evt_1"); seen {
		t.Fatalf("expected released event to be processed again")
	}
	if _, err := guard.CheckAndMark(ctx, ""); err == nil {
		t.Fatalf("expected error for empty event id")
	}
	if _, err := NewIdempotencyGuard(nil, time.Hour, "x"); err == nil {
		t.Fatalf("expected error without store")
	}
}
