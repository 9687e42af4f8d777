package objects

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// entry is one cached value and when it was built.
type entry struct {
	value any
	built time.Time
}

// Cache memoizes expensive catalog reads for a TTL. Concurrent misses on the same key
// share one load.
type Cache struct {
	ttl     time.Duration
	mu      sync.RWMutex
	entries map[string]entry
	sf      singleflight.Group
}

// NewCache creates a cache. A zero TTL disables caching; every call loads.
func NewCache(ttl time.Duration) *Cache {
	return &Cache{ttl: ttl, entries: make(map[string]entry)}
}

func (c *Cache) fresh(e entry) bool {
	if c.ttl == 0 {
		return false
	}
	return time.Since(e.built) <= c.ttl
}

// GetOrLoad returns the cached value of key, or loads and stores it.
func (c *Cache) GetOrLoad(ctx context.Context, key string, load func(context.Context) (any, error)) (any, error) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if ok && c.fresh(e) {
		return e.value, nil
	}

	v, err, _ := c.sf.Do(key, func() (any, error) {
		c.mu.RLock()
		e, ok := c.entries[key]
		c.mu.RUnlock()
		if ok && c.fresh(e) {
			return e.value, nil
		}

		value, err := load(ctx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.entries[key] = entry{value: value, built: time.Now()}
		c.mu.Unlock()
		return value, nil
	})
	return v, err
}

// Invalidate drops key, or everything when key is empty.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if key == "" {
		c.entries = make(map[string]entry)
		return
	}
	delete(c.entries, key)
}
