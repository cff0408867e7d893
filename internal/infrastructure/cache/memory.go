package cache

import (
	"sync"
	"time"
)

const defaultCleanupInterval = 10 * time.Minute

// cacheItem represents a single item in the cache with expiration
type cacheItem struct {
	Value      interface{}
	Expiration time.Time
}

// MemoryCache is a thread-safe in-memory TTL store. The gateway keeps one
// rate limiter per client IP in it; idle visitors expire and are swept.
type MemoryCache struct {
	data  map[string]cacheItem
	mutex sync.Mutex
	now   func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

// NewMemoryCache creates a new in-memory cache that sweeps expired entries every 10 minutes
func NewMemoryCache() *MemoryCache {
	return NewMemoryCacheWithInterval(defaultCleanupInterval)
}

// NewMemoryCacheWithInterval creates a cache with a custom sweep interval
func NewMemoryCacheWithInterval(interval time.Duration) *MemoryCache {
	cache := &MemoryCache{
		data: make(map[string]cacheItem),
		now:  time.Now,
		stop: make(chan struct{}),
	}

	go cache.cleanupExpired(interval)

	return cache
}

// GetOrCreate returns the live value under key, or stores the result of create.
// Either way the entry's expiration is pushed out to now+ttl.
func (c *MemoryCache) GetOrCreate(key string, ttl time.Duration, create func() interface{}) interface{} {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	now := c.now()
	item, exists := c.data[key]
	if !exists || now.After(item.Expiration) {
		item = cacheItem{Value: create()}
	}
	item.Expiration = now.Add(ttl)
	c.data[key] = item

	return item.Value
}

// Close stops the cleanup goroutine
func (c *MemoryCache) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
}

// cleanupExpired removes expired entries from the cache periodically
func (c *MemoryCache) cleanupExpired(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.sweep()
		}
	}
}

func (c *MemoryCache) sweep() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	now := c.now()
	for key, item := range c.data {
		if now.After(item.Expiration) {
			delete(c.data, key)
		}
	}
}
