package cache

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// MemoryCache is a process-local LRU with per-entry expiry
type MemoryCache struct {
	lru *expirable.LRU[string, []byte]

	mu  sync.Mutex
	gen int64
}

// NewMemoryCache creates a memory cache holding at most size entries for ttl each
func NewMemoryCache(size int, ttl time.Duration) *MemoryCache {
	if size <= 0 {
		size = 128
	}
	c := &MemoryCache{
		lru: expirable.NewLRU[string, []byte](size, nil, ttl),
	}
	slog.Info("Initialized in-memory dashboard cache", "size", size, "ttl", ttl)
	return c
}

// Get returns the cached value
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := c.lru.Get(key)
	return v, ok, nil
}

// Generation returns the number of invalidations so far
func (c *MemoryCache) Generation(context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen, nil
}

// Set stores a value unless the cache was invalidated since gen was read
func (c *MemoryCache) Set(_ context.Context, gen int64, key string, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return nil
	}
	c.lru.Add(key, value)
	return nil
}

// Invalidate purges all entries
func (c *MemoryCache) Invalidate(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.lru.Purge()
	return nil
}

// Close is a no-op for the memory cache
func (c *MemoryCache) Close() error {
	return nil
}
