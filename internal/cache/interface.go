// Package cache provides caching infrastructure: a byte-value Cache
// interface with memory and Redis backends, and a manager that keeps
// the serialized section catalogs warm.
package cache

import (
	"context"
	"time"
)

// Cache is the contract both backends implement. Implementations must
// be safe for concurrent use.
type Cache interface {
	// Get retrieves a value. Returns nil and ErrCacheMiss when the key
	// is absent or expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value with the specified TTL. A zero TTL uses the
	// backend's default.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a key.
	Delete(ctx context.Context, key string) error

	// Clear removes every entry.
	Clear(ctx context.Context) error

	// Has reports whether a key exists and has not expired.
	Has(ctx context.Context, key string) (bool, error)

	// Close releases any resources held by the cache.
	Close() error
}

// Stats holds cache hit/miss counters.
type Stats struct {
	Hits    int64
	Misses  int64
	Sets    int64
	Items   int
	HitRate float64
	Size    int64
}

// StatsProvider is implemented by caches that track counters.
type StatsProvider interface {
	Stats() Stats
	ResetStats()
}

// Error is a sentinel error for cache operations.
type Error string

func (e Error) Error() string { return string(e) }

const (
	// ErrCacheMiss indicates the key was not found or has expired.
	ErrCacheMiss Error = "cache miss"

	// ErrCacheClosed indicates the cache has been closed.
	ErrCacheClosed Error = "cache closed"
)
