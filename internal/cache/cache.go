// Package cache stores enrichment lookup responses so repeated cleanse
// runs over overlapping batches do not re-query the enrichment API.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/datakith/cleanse/internal/model"
)

// Cache is the storage interface shared by the memory, disk, and
// layered implementations.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// LookupKey builds the cache key for an enrichment lookup. Emails are
// hashed so cache filenames never contain addresses.
func LookupKey(email string) string {
	sum := sha256.Sum256([]byte(email))
	return "cleanse:v1:" + hex.EncodeToString(sum[:])
}

// New builds a cache from config: memory-only by default, memory+disk
// when a cache directory is configured. Returns nil when caching is
// disabled.
func New(cfg model.CacheConfig) Cache {
	if !cfg.Enabled {
		return nil
	}
	if cfg.Dir != "" {
		return NewLayeredCache(cfg.TTL, cfg.Dir, cfg.TTL)
	}
	return NewMemoryCache(cfg.TTL, 10*time.Minute)
}
