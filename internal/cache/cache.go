// Package cache holds read-through caches in front of the catalogue tables.
package cache

import (
	"context"
	"time"

	"tapandbuy/internal/model"

	"github.com/google/uuid"
)

// DefaultProductTTL is how long a product stays cached when no TTL is configured.
const DefaultProductTTL = 5 * time.Minute

// ProductCache caches single products by id.
// A miss is reported as (nil, nil).
type ProductCache interface {
	Get(ctx context.Context, id uuid.UUID) (*model.Product, error)
	Set(ctx context.Context, product *model.Product) error
	Invalidate(ctx context.Context, id uuid.UUID) error
}

func productKey(id uuid.UUID) string {
	return "product:" + id.String()
}
