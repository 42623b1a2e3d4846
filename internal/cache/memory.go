package cache

import (
	"context"
	"strings"
	"sync"
	"time"
)

// memoryEntry is one cached value. deadline is UnixNano; a zero
// deadline never expires.
type memoryEntry struct {
	value    []byte
	deadline int64
}

func (e memoryEntry) expired(now int64) bool {
	return e.deadline != 0 && now > e.deadline
}

// MemoryCache is an in-process Cache backed by a mutex-guarded map.
// Values are copied on both Set and Get so callers cannot alias the
// stored bytes.
type MemoryCache struct {
	mu         sync.RWMutex
	entries    map[string]memoryEntry
	bytes      int64
	defaultTTL time.Duration
	maxEntries int
	closed     bool
	stop       chan struct{}

	statsMu sync.Mutex
	hits    int64
	misses  int64
	sets    int64
}

// MemoryCacheOptions configures the memory cache.
type MemoryCacheOptions struct {
	DefaultTTL      time.Duration
	MaxSize         int           // Maximum number of entries (0 = unlimited)
	CleanupInterval time.Duration // Interval for expired entry sweeps (0 = no sweeps)
}

// NewMemoryCache creates a memory cache with the given options.
func NewMemoryCache(opts MemoryCacheOptions) *MemoryCache {
	c := &MemoryCache{
		entries:    make(map[string]memoryEntry),
		defaultTTL: opts.DefaultTTL,
		maxEntries: opts.MaxSize,
		stop:       make(chan struct{}),
	}
	if opts.CleanupInterval > 0 {
		go c.sweepLoop(opts.CleanupInterval)
	}
	return c
}

// NewSimpleMemoryCache creates a memory cache with just a TTL.
func NewSimpleMemoryCache(ttl time.Duration) *MemoryCache {
	return NewMemoryCache(MemoryCacheOptions{
		DefaultTTL:      ttl,
		CleanupInterval: time.Minute,
	})
}

// Get returns a copy of the stored value, or ErrCacheMiss.
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		return nil, ErrCacheClosed
	}
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || entry.expired(time.Now().UnixNano()) {
		if ok {
			c.mu.Lock()
			c.removeLocked(key)
			c.mu.Unlock()
		}
		c.countMiss()
		return nil, ErrCacheMiss
	}

	c.countHit()
	out := make([]byte, len(entry.value))
	copy(out, entry.value)
	return out, nil
}

// Set stores a copy of value under key. A zero ttl uses the default.
func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl == 0 {
		ttl = c.defaultTTL
	}
	var deadline int64
	if ttl > 0 {
		deadline = time.Now().Add(ttl).UnixNano()
	}

	stored := make([]byte, len(value))
	copy(stored, value)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrCacheClosed
	}

	// At capacity, reclaim expired entries before overwriting.
	if c.maxEntries > 0 && len(c.entries) >= c.maxEntries {
		c.sweepLocked(time.Now().UnixNano())
	}

	if old, ok := c.entries[key]; ok {
		c.bytes -= int64(len(old.value))
	}
	c.entries[key] = memoryEntry{value: stored, deadline: deadline}
	c.bytes += int64(len(stored))

	c.statsMu.Lock()
	c.sets++
	c.statsMu.Unlock()
	return nil
}

// Delete removes key.
func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrCacheClosed
	}
	c.removeLocked(key)
	return nil
}

// Clear drops every entry.
func (c *MemoryCache) Clear(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrCacheClosed
	}
	c.entries = make(map[string]memoryEntry)
	c.bytes = 0
	return nil
}

// Has reports whether key holds an unexpired value.
func (c *MemoryCache) Has(_ context.Context, key string) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return false, ErrCacheClosed
	}
	entry, ok := c.entries[key]
	return ok && !entry.expired(time.Now().UnixNano()), nil
}

// DeleteByPrefix removes every key starting with prefix.
func (c *MemoryCache) DeleteByPrefix(_ context.Context, prefix string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrCacheClosed
	}
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			c.removeLocked(key)
		}
	}
	return nil
}

// Close stops the sweep goroutine. Further calls return ErrCacheClosed.
func (c *MemoryCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.stop)
	}
	return nil
}

// Stats returns current counters.
func (c *MemoryCache) Stats() Stats {
	c.statsMu.Lock()
	hits, misses, sets := c.hits, c.misses, c.sets
	c.statsMu.Unlock()

	c.mu.RLock()
	items := len(c.entries)
	size := c.bytes
	c.mu.RUnlock()

	var hitRate float64
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}
	return Stats{
		Hits:    hits,
		Misses:  misses,
		Sets:    sets,
		Items:   items,
		HitRate: hitRate,
		Size:    size,
	}
}

// ResetStats zeroes the counters.
func (c *MemoryCache) ResetStats() {
	c.statsMu.Lock()
	c.hits, c.misses, c.sets = 0, 0, 0
	c.statsMu.Unlock()
}

func (c *MemoryCache) countHit() {
	c.statsMu.Lock()
	c.hits++
	c.statsMu.Unlock()
}

func (c *MemoryCache) countMiss() {
	c.statsMu.Lock()
	c.misses++
	c.statsMu.Unlock()
}

// removeLocked deletes key and adjusts the byte counter. Caller holds mu.
func (c *MemoryCache) removeLocked(key string) {
	if entry, ok := c.entries[key]; ok {
		c.bytes -= int64(len(entry.value))
		delete(c.entries, key)
	}
}

// sweepLocked drops expired entries. Caller holds mu.
func (c *MemoryCache) sweepLocked(now int64) {
	for key, entry := range c.entries {
		if entry.expired(now) {
			c.bytes -= int64(len(entry.value))
			delete(c.entries, key)
		}
	}
}

func (c *MemoryCache) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.mu.Lock()
			c.sweepLocked(time.Now().UnixNano())
			c.mu.Unlock()
		case <-c.stop:
			return
		}
	}
}

var (
	_ Cache         = (*MemoryCache)(nil)
	_ StatsProvider = (*MemoryCache)(nil)
)
