package cache

import (
	"context"
	"time"

	"github.com/matzehuels/nodecanvas/pkg/observability"
)

// Instrument wraps c so every lookup and write is reported to the
// registered observability cache hooks.
func Instrument(c Cache) Cache {
	if c == nil {
		return NewNullCache()
	}
	if _, ok := c.(instrumented); ok {
		return c
	}
	return instrumented{c}
}

type instrumented struct {
	Cache
}

func (c instrumented) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, ok, err := c.Cache.Get(ctx, key)
	if err == nil {
		if ok {
			observability.Cache().OnCacheHit(ctx, KeyType(key))
		} else {
			observability.Cache().OnCacheMiss(ctx, KeyType(key))
		}
	}
	return data, ok, err
}

func (c instrumented) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	err := c.Cache.Set(ctx, key, data, ttl)
	if err == nil {
		observability.Cache().OnCacheSet(ctx, KeyType(key), len(data))
	}
	return err
}

// Unwrap returns the wrapped backend.
func (c instrumented) Unwrap() Cache { return c.Cache }
