package memory

import (
	"context"
	"path"
	"sync"
	"time"
)

type cacheEntry struct {
	value     []byte
	expiresAt time.Time
}

// Cache is a process-local key/value cache with per-entry expiry.
// Patterns use the same glob syntax as Redis SCAN MATCH for '*' and '?'.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	now     func() time.Time
}

func NewCache() *Cache {
	return &Cache{entries: make(map[string]cacheEntry), now: time.Now}
}

func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	_ = ctx
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if !e.expiresAt.IsZero() && !c.now().Before(e.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, false, nil
	}
	return append([]byte(nil), e.value...), true, nil
}

// Set stores value; a non-positive ttl keeps it until removed.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	_ = ctx
	e := cacheEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expiresAt = c.now().Add(ttl)
	}
	c.mu.Lock()
	c.entries[key] = e
	c.mu.Unlock()
	return nil
}

func (c *Cache) Remove(ctx context.Context, key string) error {
	_ = ctx
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	return nil
}

func (c *Cache) RemoveByPattern(ctx context.Context, pattern string) error {
	_ = ctx
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.entries {
		if ok, err := path.Match(pattern, key); err != nil {
			return err
		} else if ok {
			delete(c.entries, key)
		}
	}
	return nil
}
