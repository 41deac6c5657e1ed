package main

import (
	"sync"
	"time"
)

type cacheEntry[V any] struct {
	value    V
	storedAt time.Time
}

// minSweepSize is the entry count below which Set never sweeps
const minSweepSize = 1024

// ttlCache is a mutex guarded map whose entries expire a fixed duration after insertion.
// Expired entries are evicted on read, and Set sweeps them out whenever the map
// has doubled since the last sweep, so keys that are never read again do not pile up.
type ttlCache[V any] struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]cacheEntry[V]
	sweepAt int
}

func newTTLCache[V any](ttl time.Duration) *ttlCache[V] {
	return &ttlCache[V]{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cacheEntry[V]),
		sweepAt: minSweepSize,
	}
}

// Get returns the value for key if it was stored less than ttl ago
func (c *ttlCache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	entry, ok := c.entries[key]
	if !ok {
		return zero, false
	}
	if c.now().Sub(entry.storedAt) >= c.ttl {
		delete(c.entries, key)
		return zero, false
	}
	return entry.value, true
}

func (c *ttlCache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry[V]{value: value, storedAt: c.now()}
	if len(c.entries) >= c.sweepAt {
		c.sweepLocked()
	}
}

func (c *ttlCache[V]) sweepLocked() {
	now := c.now()
	for key, entry := range c.entries {
		if now.Sub(entry.storedAt) >= c.ttl {
			delete(c.entries, key)
		}
	}
	c.sweepAt = max(2*len(c.entries), minSweepSize)
}

func (c *ttlCache[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

func (c *ttlCache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry[V])
	c.sweepAt = minSweepSize
}

// Len counts entries including ones that have expired but not been read yet
func (c *ttlCache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
