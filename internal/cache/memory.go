package cache

import (
	"context"
	"sync"
	"time"

	"tapandbuy/internal/model"

	"github.com/google/uuid"
)

type memoryEntry struct {
	product   model.Product
	expiresAt time.Time
}

// MemoryProductCache is an in-process ProductCache used when Redis is disabled.
type MemoryProductCache struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryProductCache creates an in-process product cache.
func NewMemoryProductCache(ttl time.Duration) *MemoryProductCache {
	if ttl <= 0 {
		ttl = DefaultProductTTL
	}
	return &MemoryProductCache{
		entries: make(map[uuid.UUID]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (c *MemoryProductCache) Get(_ context.Context, id uuid.UUID) (*model.Product, error) {
	c.mu.RLock()
	entry, ok := c.entries[id]
	c.mu.RUnlock()

	if !ok {
		return nil, nil
	}
	if !c.now().Before(entry.expiresAt) {
		c.evictExpired(id)
		return nil, nil
	}
	product := entry.product
	return &product, nil
}

// evictExpired removes id only if the entry stored now is still expired, so a
// Set that lands between the read and this call survives.
func (c *MemoryProductCache) evictExpired(id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if entry, ok := c.entries[id]; ok && !c.now().Before(entry.expiresAt) {
		delete(c.entries, id)
	}
}

func (c *MemoryProductCache) Set(_ context.Context, product *model.Product) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[product.ID] = memoryEntry{product: *product, expiresAt: c.now().Add(c.ttl)}
	return nil
}

func (c *MemoryProductCache) Invalidate(_ context.Context, id uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, id)
	return nil
}
