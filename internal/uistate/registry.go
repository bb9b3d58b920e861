package uistate

import (
	"context"
	"errors"
	"sync"

	lru "github.com/hashicorp/golang-lru"

	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

const defaultRegistrySize = 4096

// KeyFunc maps a user id to its storage key.
type KeyFunc func(userID string) string

// Registry hands out one Store per user. Stores are kept in a bounded LRU;
// an evicted user is simply loaded again from storage on the next request.
type Registry struct {
	mu      sync.Mutex
	stores  *lru.Cache
	storage Storage
	keyFor  KeyFunc
	logg    *logger.Logger
}

// RegistryParams configures a Registry.
type RegistryParams struct {
	Storage Storage
	KeyFunc KeyFunc
	Logger  *logger.Logger
	Size    int
}

func NewRegistry(params RegistryParams) (*Registry, error) {
	if params.Storage == nil {
		return nil, errors.New("cart state storage required")
	}
	if params.KeyFunc == nil {
		return nil, errors.New("cart state key func required")
	}
	size := params.Size
	if size <= 0 {
		size = defaultRegistrySize
	}
	cache, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &Registry{
		stores:  cache,
		storage: params.Storage,
		keyFor:  params.KeyFunc,
		logg:    params.Logger,
	}, nil
}

// Get returns the user's store. Service items are re-read from storage on
// every call so instances sharing the storage see each other's writes.
func (r *Registry) Get(ctx context.Context, userID string) (*Store, error) {
	if userID == "" {
		return nil, errors.New("user id required")
	}

	r.mu.Lock()
	if cached, ok := r.stores.Get(userID); ok {
		r.mu.Unlock()
		store := cached.(*Store)
		if err := store.reload(ctx); err != nil {
			return nil, err
		}
		return store, nil
	}
	defer r.mu.Unlock()

	store, err := Load(ctx, r.storage, r.keyFor(userID), r.logg)
	if err != nil {
		return nil, err
	}
	r.stores.Add(userID, store)
	return store, nil
}

// Forget drops the in-process store so the next Get starts from storage only.
func (r *Registry) Forget(userID string) {
	r.mu.Lock()
	r.stores.Remove(userID)
	r.mu.Unlock()
}

// Len reports how many stores are resident.
func (r *Registry) Len() int {
	return r.stores.Len()
}
