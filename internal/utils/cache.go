package utils

import (
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// cacheItem pairs a cached value with its expiry.
type cacheItem struct {
	Data      any
	ExpiresAt time.Time
}

// Cache is a size-bounded LRU whose entries also expire after a TTL.
type Cache struct {
	lruCache *lru.Cache[string, cacheItem]
	now      func() time.Time
}

// NewCache creates a cache holding at most size entries.
func NewCache(size int) (*Cache, error) {
	l, err := lru.New[string, cacheItem](size)
	if err != nil {
		return nil, fmt.Errorf("create lru cache: %w", err)
	}
	return &Cache{lruCache: l, now: time.Now}, nil
}

// Set stores data under key for ttl.
func (c *Cache) Set(key string, data any, ttl time.Duration) {
	c.lruCache.Add(key, cacheItem{
		Data:      data,
		ExpiresAt: c.now().Add(ttl),
	})
}

// Get returns the cached value, or nil when missing or expired.
func (c *Cache) Get(key string) any {
	val, ok := c.lruCache.Get(key)
	if !ok {
		return nil
	}
	if c.now().After(val.ExpiresAt) {
		c.lruCache.Remove(key)
		return nil
	}
	return val.Data
}

// Delete drops key.
func (c *Cache) Delete(keys ...string) {
	for _, key := range keys {
		c.lruCache.Remove(key)
	}
}

// Cache keys shared by handlers and services.
func PostKey(postID string) string   { return "post:" + postID }
func ThreadKey(postID string) string { return "thread:" + postID }
