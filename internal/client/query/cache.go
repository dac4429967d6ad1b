// Package query implements the offline-aware read path: a cache-first
// helper backed by a small in-memory TTL cache in front of the durable
// SQLite repositories.
package query

import (
	"context"
	"sync"
	"time"
)

// Cache is a byte-value cache with per-entry TTL.
type Cache interface {
	// Get returns the cached value, or nil when absent or expired.
	Get(ctx context.Context, key string) []byte

	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
	Delete(ctx context.Context, key string)
	Clear(ctx context.Context)
}

type cacheEntry struct {
	value     []byte
	expiresAt time.Time
}

func (e *cacheEntry) expired() bool {
	return time.Now().After(e.expiresAt)
}

// MemoryCache is an in-process Cache with background expiry sweeping.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]*cacheEntry

	sweepInterval time.Duration
	stopSweep     chan struct{}
	stopOnce      sync.Once
}

func NewMemoryCache() *MemoryCache {
	c := &MemoryCache{
		entries:       make(map[string]*cacheEntry),
		sweepInterval: time.Minute,
		stopSweep:     make(chan struct{}),
	}
	go c.sweep()
	return c
}

func (c *MemoryCache) Get(ctx context.Context, key string) []byte {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok || entry.expired() {
		return nil
	}

	out := make([]byte, len(entry.value))
	copy(out, entry.value)
	return out
}

func (c *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	cp := make([]byte, len(value))
	copy(cp, value)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = &cacheEntry{value: cp, expiresAt: time.Now().Add(ttl)}
}

func (c *MemoryCache) Delete(ctx context.Context, key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

func (c *MemoryCache) Clear(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*cacheEntry)
}

// Close stops the sweeper goroutine.
func (c *MemoryCache) Close() {
	c.stopOnce.Do(func() { close(c.stopSweep) })
}

func (c *MemoryCache) sweep() {
	ticker := time.NewTicker(c.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.removeExpired()
		case <-c.stopSweep:
			return
		}
	}
}

func (c *MemoryCache) removeExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, entry := range c.entries {
		if entry.expired() {
			delete(c.entries, key)
		}
	}
}
