package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryCache keeps lookup responses in process memory with TTL
// eviction. Good enough for a single cleanse run; the disk layer covers
// reuse across runs.
type MemoryCache struct {
	store *gocache.Cache
}

// NewMemoryCache creates a memory cache with the given default TTL and
// eviction sweep interval.
func NewMemoryCache(defaultTTL, cleanupInterval time.Duration) *MemoryCache {
	return &MemoryCache{
		store: gocache.New(defaultTTL, cleanupInterval),
	}
}

// Get returns the payload for key, if present and not yet expired.
func (c *MemoryCache) Get(key string) ([]byte, bool) {
	if v, ok := c.store.Get(key); ok {
		return v.([]byte), true
	}
	return nil, false
}

// Set stores a payload under key; a zero TTL uses the cache default.
func (c *MemoryCache) Set(key string, value []byte, ttl time.Duration) error {
	c.store.Set(key, value, ttl)
	return nil
}

// Delete drops a single key.
func (c *MemoryCache) Delete(key string) error {
	c.store.Delete(key)
	return nil
}

// Clear drops every cached entry.
func (c *MemoryCache) Clear() error {
	c.store.Flush()
	return nil
}
