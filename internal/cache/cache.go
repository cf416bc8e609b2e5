// Package cache defines the result cache used by the seam service.
package cache

import (
	"context"
	"time"
)

// Interface stores encoded operation results by key. A miss is reported as
// ok=false with a nil error.
type Interface interface {
	Get(ctx context.Context, key string) (val []byte, ok bool, err error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// Noop never stores anything. It stands in when caching is disabled.
type Noop struct{}

func (Noop) Get(context.Context, string) ([]byte, bool, error)        { return nil, false, nil }
func (Noop) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (Noop) Del(context.Context, ...string) error                     { return nil }
