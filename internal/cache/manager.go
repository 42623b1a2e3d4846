package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/traceofthetides/tides-go/internal/catalog"
	"github.com/traceofthetides/tides-go/internal/config"
)

const sectionKeyPrefix = "catalog:"

// Manager owns the cache backend and keeps serialized section
// catalogs warm so listing endpoints can serve bytes directly.
type Manager struct {
	backend Cache
	cat     *catalog.Catalog
	ttl     time.Duration
}

// NewManager selects the backend from configuration: Redis when a URL
// is configured and reachable, otherwise in-process memory. Redis
// being down degrades to memory rather than failing startup.
func NewManager(cfg config.Config, cat *catalog.Catalog) *Manager {
	ttl := time.Duration(cfg.CacheTTL) * time.Second

	var backend Cache
	if cfg.UseRedisCache() {
		opts := DefaultRedisCacheOptions()
		opts.URL = cfg.RedisURL
		opts.Prefix = cfg.CachePrefix
		opts.DefaultTTL = ttl
		rc, err := NewRedisCache(opts)
		if err != nil {
			slog.Warn("redis cache unavailable, falling back to memory", "error", err)
		} else {
			slog.Info("cache backend: redis", "prefix", cfg.CachePrefix)
			backend = rc
		}
	}
	if backend == nil {
		backend = NewMemoryCache(MemoryCacheOptions{
			DefaultTTL:      ttl,
			MaxSize:         cfg.CacheMaxSize,
			CleanupInterval: time.Minute,
		})
	}

	return &Manager{backend: backend, cat: cat, ttl: ttl}
}

// NewManagerWithBackend wires an explicit backend. Used by tests.
func NewManagerWithBackend(backend Cache, cat *catalog.Catalog, ttl time.Duration) *Manager {
	return &Manager{backend: backend, cat: cat, ttl: ttl}
}

// Preload serializes every section catalog into the cache.
func (m *Manager) Preload(ctx context.Context) error {
	for _, section := range m.cat.Sections() {
		items, _ := m.cat.Section(section)
		raw, err := json.Marshal(items)
		if err != nil {
			return fmt.Errorf("serializing section %s: %w", section, err)
		}
		if err := m.backend.Set(ctx, sectionKeyPrefix+section, raw, m.ttl); err != nil {
			return fmt.Errorf("caching section %s: %w", section, err)
		}
	}
	slog.Info("section catalogs preloaded", "sections", len(m.cat.Sections()))
	return nil
}

// Section returns the cached serialized catalog for a section,
// refilling from the in-memory catalog on a miss.
func (m *Manager) Section(ctx context.Context, section string) ([]byte, error) {
	raw, err := m.backend.Get(ctx, sectionKeyPrefix+section)
	if err == nil {
		return raw, nil
	}
	if err != ErrCacheMiss && err != ErrCacheClosed {
		slog.Warn("cache read failed", "section", section, "error", err)
	}

	items, ok := m.cat.Section(section)
	if !ok {
		return nil, fmt.Errorf("unknown section %q", section)
	}
	raw, err = json.Marshal(items)
	if err != nil {
		return nil, err
	}
	if err := m.backend.Set(ctx, sectionKeyPrefix+section, raw, m.ttl); err != nil {
		slog.Warn("cache refill failed", "section", section, "error", err)
	}
	return raw, nil
}

// Get exposes the backend for miscellaneous cached data.
func (m *Manager) Get(ctx context.Context, key string) ([]byte, error) {
	return m.backend.Get(ctx, key)
}

// Set exposes the backend for miscellaneous cached data.
func (m *Manager) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return m.backend.Set(ctx, key, value, ttl)
}

// Invalidate clears the cache.
func (m *Manager) Invalidate(ctx context.Context) error {
	return m.backend.Clear(ctx)
}

// Stats reports backend statistics when available.
func (m *Manager) Stats() (Stats, bool) {
	if sp, ok := m.backend.(StatsProvider); ok {
		return sp.Stats(), true
	}
	return Stats{}, false
}

// Close releases the backend.
func (m *Manager) Close() error {
	return m.backend.Close()
}
