// Package tiered puts an in-process LRU in front of an optional shared store.
package tiered

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/mohammed-shakir/seamfix/internal/cache"
	"github.com/mohammed-shakir/seamfix/internal/core/observability"
)

const tierLRU = "lru"

type Options struct {
	Size      int
	TTL       time.Duration
	OpTimeout time.Duration
}

// Cache answers from the LRU first and falls back to the shared store. Store
// errors are returned but never poison the LRU.
type Cache struct {
	local     *expirable.LRU[string, []byte]
	shared    cache.Interface
	opTimeout time.Duration
}

var _ cache.Interface = (*Cache)(nil)

// New builds the cache. shared may be nil for an LRU-only cache.
func New(shared cache.Interface, opts Options) *Cache {
	if opts.Size <= 0 {
		opts.Size = 1024
	}
	if opts.TTL <= 0 {
		opts.TTL = 10 * time.Minute
	}
	return &Cache{
		local:     expirable.NewLRU[string, []byte](opts.Size, nil, opts.TTL),
		shared:    shared,
		opTimeout: opts.OpTimeout,
	}
}

func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if v, ok := c.local.Get(key); ok {
		observability.IncCacheHit(tierLRU)
		return v, true, nil
	}
	observability.IncCacheMiss(tierLRU)
	if c.shared == nil {
		return nil, false, nil
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	v, ok, err := c.shared.Get(ctx, key)
	if err != nil || !ok {
		return nil, false, err
	}
	c.local.Add(key, v)
	return v, true, nil
}

func (c *Cache) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	c.local.Add(key, val)
	if c.shared == nil {
		return nil
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	return c.shared.Set(ctx, key, val, ttl)
}

func (c *Cache) Del(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		c.local.Remove(k)
	}
	if c.shared == nil {
		return nil
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	return c.shared.Del(ctx, keys...)
}

// Len is the number of entries held in process.
func (c *Cache) Len() int { return c.local.Len() }

func (c *Cache) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.opTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.opTimeout)
}
