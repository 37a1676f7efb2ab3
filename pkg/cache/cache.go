package cache

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/gtex-link/gtex-link/pkg/logging"
)

// Stats is a point-in-time snapshot of one cache's accounting. Hits and
// misses are monotonic; Clear resets entries, never counters.
type Stats struct {
	Hits        int64   `json:"hits"`
	Misses      int64   `json:"misses"`
	HitRate     float64 `json:"hit_rate"`
	CurrentSize int     `json:"current_size"`
	MaxSize     int     `json:"max_size"`
}

// entry is one cached value with its insertion time and LRU position.
type entry[V any] struct {
	value      V
	insertedAt time.Time
	elem       *list.Element
}

// Cache is a bounded TTL+LRU memoization cache. Entries are visible while
// younger than the TTL passed to GetOrCompute; whenever the size exceeds
// capacity the least-recently-used entry is evicted. Concurrent misses on
// the same key are collapsed to a single compute via singleflight.
type Cache[V any] struct {
	name    string
	maxSize int
	ttl     time.Duration

	mu      sync.Mutex
	entries map[string]*entry[V]
	order   *list.List // front = most recently used, element value = key
	hits    int64
	misses  int64

	group  singleflight.Group
	logger zerolog.Logger

	// now is replaceable for tests.
	now func() time.Time
}

// New creates a named cache with the given capacity and default TTL.
func New[V any](name string, maxSize int, ttl time.Duration) *Cache[V] {
	if maxSize < 1 {
		maxSize = 1
	}
	return &Cache[V]{
		name:    name,
		maxSize: maxSize,
		ttl:     ttl,
		entries: make(map[string]*entry[V]),
		order:   list.New(),
		logger:  logging.NewLogger("cache").With().Str("cache", name).Logger(),
		now:     time.Now,
	}
}

// GetOrCompute returns the cached value for key when present and younger
// than ttl, otherwise computes, stores, and returns a fresh value. Expired
// entries are recomputed and their timestamp refreshed.
func (c *Cache[V]) GetOrCompute(ctx context.Context, key string, ttl time.Duration, compute func(ctx context.Context) (V, error)) (V, error) {
	if v, ok := c.lookup(key, ttl, true); ok {
		return v, nil
	}

	result, err, _ := c.group.Do(key, func() (any, error) {
		// Another flight may have stored the value while this caller
		// was waiting on the group.
		if v, ok := c.lookup(key, ttl, false); ok {
			return v, nil
		}

		value, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		c.store(key, value)
		return value, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return result.(V), nil
}

// lookup returns a live entry and touches its LRU position. When counted is
// true the outcome is recorded in the hit/miss statistics.
func (c *Cache[V]) lookup(key string, ttl time.Duration, counted bool) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if ok && c.now().Sub(e.insertedAt) < ttl {
		c.order.MoveToFront(e.elem)
		if counted {
			c.hits++
			CacheHits.WithLabelValues(c.name).Inc()
			c.logger.Debug().Str("cache_key", key).Msg("Cache hit")
		}
		return e.value, true
	}

	if ok {
		// Expired: drop it so the recompute refreshes the timestamp.
		c.removeLocked(key, e)
	}
	if counted {
		c.misses++
		CacheMisses.WithLabelValues(c.name).Inc()
		c.logger.Debug().Str("cache_key", key).Msg("Cache miss")
	}

	var zero V
	return zero, false
}

// store inserts a value and evicts least-recently-used entries until the
// cache is back at capacity.
func (c *Cache[V]) store(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		e.insertedAt = c.now()
		c.order.MoveToFront(e.elem)
		return
	}

	c.entries[key] = &entry[V]{
		value:      value,
		insertedAt: c.now(),
		elem:       c.order.PushFront(key),
	}

	for len(c.entries) > c.maxSize {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}
		oldKey := oldest.Value.(string)
		c.removeLocked(oldKey, c.entries[oldKey])
		CacheEvictions.WithLabelValues(c.name).Inc()
		c.logger.Debug().Str("cache_key", oldKey).Msg("Evicted LRU entry")
	}

	CacheEntries.WithLabelValues(c.name).Set(float64(len(c.entries)))
}

// removeLocked deletes an entry. Callers must hold the mutex.
func (c *Cache[V]) removeLocked(key string, e *entry[V]) {
	if e == nil {
		return
	}
	c.order.Remove(e.elem)
	delete(c.entries, key)
	CacheEntries.WithLabelValues(c.name).Set(float64(len(c.entries)))
}

// Clear removes every entry and returns how many were dropped. Hit and miss
// counters are untouched.
func (c *Cache[V]) Clear() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	cleared := len(c.entries)
	c.entries = make(map[string]*entry[V])
	c.order.Init()
	CacheEntries.WithLabelValues(c.name).Set(0)

	return cleared
}

// Len returns the current number of entries.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Name returns the cache name.
func (c *Cache[V]) Name() string {
	return c.name
}

// TTL returns the default TTL the cache was created with.
func (c *Cache[V]) TTL() time.Duration {
	return c.ttl
}

// Stats returns a snapshot of the cache accounting.
func (c *Cache[V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := c.hits + c.misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(c.hits) / float64(total)
	}

	return Stats{
		Hits:        c.hits,
		Misses:      c.misses,
		HitRate:     hitRate,
		CurrentSize: len(c.entries),
		MaxSize:     c.maxSize,
	}
}
