package storage

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// LocalCache is the in-process CacheStore used when Redis is not configured
// or not reachable.
type LocalCache struct {
	cache *gocache.Cache
}

// ------------------------------------------------------------------------------------------------------
func NewLocalCache(defaultTTL, cleanupInterval time.Duration) *LocalCache {
	return &LocalCache{cache: gocache.New(defaultTTL, cleanupInterval)}
}

// ------------------------------------------------------------------------------------------------------
func (c *LocalCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := c.cache.Get(key)
	if !ok {
		return nil, false, nil
	}
	b, ok := v.([]byte)
	return b, ok, nil
}

// ------------------------------------------------------------------------------------------------------
func (c *LocalCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.cache.Set(key, value, ttl)
	return nil
}

// ------------------------------------------------------------------------------------------------------
func (c *LocalCache) Close() error {
	c.cache.Flush()
	return nil
}
