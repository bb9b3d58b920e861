package cart

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgredis "github.com/angelmondragon/storefront-backend/pkg/redis"
)

type cacheBackend interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	CartCacheKey(userID string) string
}

// RedisCache keeps cart reads in Redis as JSON.
type RedisCache struct {
	client cacheBackend
	ttl    time.Duration
}

func NewRedisCache(client cacheBackend, ttl time.Duration) (*RedisCache, error) {
	if client == nil {
		return nil, errors.New("redis client required for cart cache")
	}
	if ttl <= 0 {
		return nil, errors.New("cart cache ttl must be positive")
	}
	return &RedisCache{client: client, ttl: ttl}, nil
}

type cachedCart struct {
	Cart *CartDTO `json:"cart"`
}

func (c *RedisCache) Get(ctx context.Context, userID uuid.UUID) (*models.Cart, bool, error) {
	raw, err := c.client.Get(ctx, c.client.CartCacheKey(userID.String()))
	if err != nil {
		if errors.Is(err, pkgredis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	var entry cachedCart
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		return nil, false, err
	}
	return entry.Cart.toModel(), true, nil
}

func (c *RedisCache) Set(ctx context.Context, userID uuid.UUID, cart *models.Cart) error {
	payload, err := json.Marshal(cachedCart{Cart: NewCartDTO(cart)})
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.client.CartCacheKey(userID.String()), string(payload), c.ttl)
}

func (c *RedisCache) Invalidate(ctx context.Context, userID uuid.UUID) error {
	return c.client.Del(ctx, c.client.CartCacheKey(userID.String()))
}

// NoopCache disables caching; every read goes to the database.
type NoopCache struct{}

func (NoopCache) Get(context.Context, uuid.UUID) (*models.Cart, bool, error) { return nil, false, nil }
func (NoopCache) Set(context.Context, uuid.UUID, *models.Cart) error         { return nil }
func (NoopCache) Invalidate(context.Context, uuid.UUID) error                { return nil }
