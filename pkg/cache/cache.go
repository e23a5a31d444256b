// Package cache stores pipeline results keyed by content hashes.
//
// The pipeline caches three kinds of values: decoded documents (import),
// organized documents (layout) and encoded outputs (artifact). Keys come
// from a [Keyer]; values are opaque bytes.
//
// # Backends
//
//   - [FileCache]: one file per entry below a directory (CLI default)
//   - [MemoryCache]: bounded in-process LRU (serve command)
//   - [RedisCache]: shared cache for several serve instances
//   - [NullCache]: caching disabled
//
// [Instrument] wraps any backend so hits, misses and writes reach the
// observability cache hooks.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with optional expiry.
//
// Get reports a miss with ok=false and a nil error. Implementations must be
// safe for concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// TTLs per key type. Zero means no expiry.
const (
	TTLImport   = 24 * time.Hour
	TTLLayout   = 7 * 24 * time.Hour
	TTLArtifact = 7 * 24 * time.Hour
)
