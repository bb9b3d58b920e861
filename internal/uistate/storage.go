package uistate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	pkgredis "github.com/angelmondragon/storefront-backend/pkg/redis"
)

// Storage is the durable key-value surface the drawer state persists into.
type Storage interface {
	// Load returns the stored payload; found is false when the key is absent.
	Load(ctx context.Context, key string) (payload []byte, found bool, err error)
	Save(ctx context.Context, key string, payload []byte) error
}

// stateVersion tags the persisted payload so its shape can evolve.
const stateVersion = 1

// ErrCorruptState is returned when a persisted payload cannot be decoded.
var ErrCorruptState = errors.New("persisted cart state is unreadable")

type persistedState struct {
	Version      int               `json:"version"`
	ServiceItems []ServiceCartItem `json:"serviceItems"`
}

func encodeState(items []ServiceCartItem) ([]byte, error) {
	if items == nil {
		items = []ServiceCartItem{}
	}
	return json.Marshal(persistedState{Version: stateVersion, ServiceItems: items})
}

// decodeState accepts the current version and legacy payloads written before
// versioning existed (no version field).
func decodeState(payload []byte) ([]ServiceCartItem, error) {
	var state persistedState
	if err := json.Unmarshal(payload, &state); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptState, err)
	}
	switch state.Version {
	case 0, stateVersion:
	default:
		return nil, fmt.Errorf("%w: unsupported version %d", ErrCorruptState, state.Version)
	}
	return state.ServiceItems, nil
}

type redisKV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

// RedisStorage persists drawer state in Redis.
type RedisStorage struct {
	client redisKV
	ttl    time.Duration
}

// NewRedisStorage binds storage to the Redis client. A zero ttl keeps keys forever.
func NewRedisStorage(client redisKV, ttl time.Duration) (*RedisStorage, error) {
	if client == nil {
		return nil, errors.New("redis client required for cart state storage")
	}
	return &RedisStorage{client: client, ttl: ttl}, nil
}

func (s *RedisStorage) Load(ctx context.Context, key string) ([]byte, bool, error) {
	raw, err := s.client.Get(ctx, key)
	if err != nil {
		if errors.Is(err, pkgredis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return []byte(raw), true, nil
}

func (s *RedisStorage) Save(ctx context.Context, key string, payload []byte) error {
	return s.client.Set(ctx, key, string(payload), s.ttl)
}

// MemoryStorage keeps payloads in process memory. Used for local runs and tests.
type MemoryStorage struct {
	mu   sync.Mutex
	data map[string][]byte
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{data: make(map[string][]byte)}
}

func (s *MemoryStorage) Load(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	payload, ok := s.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), payload...), true, nil
}

func (s *MemoryStorage) Save(_ context.Context, key string, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = append([]byte(nil), payload...)
	return nil
}
