package uistate

import (
	"context"
	"errors"
	"sync"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// Snapshot is the read model of a drawer.
type Snapshot struct {
	IsOpen       bool              `json:"isOpen"`
	ItemCount    int               `json:"itemCount"`
	ServiceItems []ServiceCartItem `json:"serviceItems"`
}

// Store holds the drawer state of one user. Only service items are persisted;
// the open flag and item count start fresh on every load.
type Store struct {
	mu        sync.Mutex
	storage   Storage
	key       string
	logg      *logger.Logger
	items     *orderedItems
	isOpen    bool
	itemCount int
}

// Load builds a store for key and hydrates service items from storage.
// An unreadable payload is logged and replaced by an empty list.
func Load(ctx context.Context, storage Storage, key string, logg *logger.Logger) (*Store, error) {
	if storage == nil {
		return nil, errors.New("cart state storage required")
	}
	s := &Store{
		storage: storage,
		key:     key,
		logg:    logg,
		items:   newOrderedItems(),
	}
	if err := s.hydrate(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) hydrate(ctx context.Context) error {
	payload, found, err := s.storage.Load(ctx, s.key)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart state")
	}
	items := newOrderedItems()
	if found {
		decoded, decodeErr := decodeState(payload)
		if decodeErr != nil {
			if s.logg != nil {
				warnCtx := s.logg.WithFields(ctx, map[string]any{"key": s.key, "error": decodeErr.Error()})
				s.logg.Warn(warnCtx, "discarding unreadable cart state")
			}
		} else {
			for _, item := range decoded {
				if _, dup := items.get(item.ID); dup {
					continue
				}
				items.append(item.clone())
			}
		}
	}
	s.items = items
	return nil
}

// reload re-reads service items from storage and keeps the ephemeral fields.
func (s *Store) reload(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hydrate(ctx)
}

func (s *Store) OpenCart() {
	s.mu.Lock()
	s.isOpen = true
	s.mu.Unlock()
}

func (s *Store) CloseCart() {
	s.mu.Lock()
	s.isOpen = false
	s.mu.Unlock()
}

// ToggleCart flips the drawer flag and returns the new value.
func (s *Store) ToggleCart() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.isOpen = !s.isOpen
	return s.isOpen
}

// SetItemCount overwrites the regular-item count shown on the badge.
func (s *Store) SetItemCount(count int) error {
	if count < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "item count must not be negative").
			WithDetails(map[string]string{"count": "must be at least 0"})
	}
	s.mu.Lock()
	s.itemCount = count
	s.mu.Unlock()
	return nil
}

// AddServiceItem appends a new item. A plan already present is left untouched;
// a package already present has its quantity increased.
func (s *Store) AddServiceItem(ctx context.Context, item ServiceCartItem) error {
	if err := item.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.items.get(item.ID)
	switch {
	case !ok:
		s.items.append(item.clone())
	case existing.Type == enums.ServiceItemTypePlan:
		return nil
	default:
		existing.Quantity += item.Quantity
		s.items.replace(existing)
	}
	return s.persistLocked(ctx)
}

// RemoveServiceItem drops the item with id. Unknown ids are ignored.
func (s *Store) RemoveServiceItem(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.items.remove(id) {
		return nil
	}
	return s.persistLocked(ctx)
}

func (s *Store) ClearServiceItems(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items.clear()
	return s.persistLocked(ctx)
}

func (s *Store) ServiceItems() []ServiceCartItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items.values()
}

func (s *Store) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isOpen
}

func (s *Store) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.itemCount
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		IsOpen:       s.isOpen,
		ItemCount:    s.itemCount,
		ServiceItems: s.items.values(),
	}
}

// ServiceSubtotal sums price × quantity over the service items.
func (s *Store) ServiceSubtotal() int64 {
	return SumServiceItems(s.ServiceItems())
}

// SumServiceItems sums price × quantity over items.
func SumServiceItems(items []ServiceCartItem) int64 {
	var total int64
	for _, item := range items {
		total += item.LineTotal()
	}
	return total
}

// persistLocked writes the service items. The in-memory change is kept when
// the write fails.
func (s *Store) persistLocked(ctx context.Context) error {
	payload, err := encodeState(s.items.values())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode cart state")
	}
	if err := s.storage.Save(ctx, s.key, payload); err != nil {
		if s.logg != nil {
			s.logg.Error(s.logg.WithField(ctx, "key", s.key), "persist cart state", err)
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist cart state")
	}
	return nil
}
