package market

import (
	"sync"
	"time"
)

// cacheEntry is a cached value with an expiry.
type cacheEntry[V any] struct {
	value     V
	expiresAt time.Time
}

// ttlCache is a small mutex-guarded cache with per-entry TTL.
type ttlCache[K comparable, V any] struct {
	mu         sync.RWMutex
	entries    map[K]cacheEntry[V]
	defaultTTL time.Duration
}

func newTTLCache[K comparable, V any](defaultTTL time.Duration) *ttlCache[K, V] {
	return &ttlCache[K, V]{
		entries:    make(map[K]cacheEntry[V]),
		defaultTTL: defaultTTL,
	}
}

// get returns the cached value when present and not expired.
func (c *ttlCache[K, V]) get(key K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok || time.Now().After(entry.expiresAt) {
		var zero V
		return zero, false
	}
	return entry.value, true
}

// set stores a value with the default TTL.
func (c *ttlCache[K, V]) set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry[V]{
		value:     value,
		expiresAt: time.Now().Add(c.defaultTTL),
	}
}
