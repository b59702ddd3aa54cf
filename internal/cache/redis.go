package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"tapandbuy/internal/model"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type redisProductCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// NewRedisProductCache creates a product cache backed by Redis.
func NewRedisProductCache(rdb *redis.Client, ttl time.Duration, logger zerolog.Logger) ProductCache {
	if ttl <= 0 {
		ttl = DefaultProductTTL
	}
	return &redisProductCache{
		rdb:    rdb,
		ttl:    ttl,
		logger: logger.With().Str("component", "product-cache").Logger(),
	}
}

func (c *redisProductCache) Get(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	raw, err := c.rdb.Get(ctx, productKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read product from cache: %w", err)
	}

	var product model.Product
	if err := json.Unmarshal(raw, &product); err != nil {
		// A corrupt entry is dropped and treated as a miss.
		c.logger.Warn().Err(err).Str("product_id", id.String()).Msg("discarding unreadable cache entry")
		_ = c.rdb.Del(ctx, productKey(id)).Err()
		return nil, nil
	}
	return &product, nil
}

func (c *redisProductCache) Set(ctx context.Context, product *model.Product) error {
	raw, err := json.Marshal(product)
	if err != nil {
		return fmt.Errorf("failed to encode product: %w", err)
	}
	if err := c.rdb.Set(ctx, productKey(product.ID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write product to cache: %w", err)
	}
	return nil
}

func (c *redisProductCache) Invalidate(ctx context.Context, id uuid.UUID) error {
	if err := c.rdb.Del(ctx, productKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate product: %w", err)
	}
	return nil
}
