package cache

import (
	"context"
	"sync"
	"time"

	"places/internal/domain/service"
)

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// memorySecretCache is an in-process SecretCache. Expiry is passive:
// dead entries are treated as absent and overwritten or dropped on the
// next touch, nothing sweeps them.
type memorySecretCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemorySecretCache builds an in-process SecretCache.
func NewMemorySecretCache() service.SecretCache {
	return &memorySecretCache{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (c *memorySecretCache) live(key string) (memoryEntry, bool) {
	entry, ok := c.entries[key]
	if !ok {
		return memoryEntry{}, false
	}
	if c.now().After(entry.expiresAt) {
		delete(c.entries, key)

		return memoryEntry{}, false
	}

	return entry, true
}

func (c *memorySecretCache) Add(_ context.Context, key, value string, ttl time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.live(key); ok {
		return false, nil
	}
	c.entries[key] = memoryEntry{value: value, expiresAt: c.now().Add(ttl)}

	return true, nil
}

func (c *memorySecretCache) Get(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.live(key)
	if !ok {
		return "", service.ErrCacheMiss
	}

	return entry.value, nil
}

func (c *memorySecretCache) CompareAndDelete(_ context.Context, key, candidate string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.live(key)
	if !ok || entry.value != candidate {
		return false, nil
	}
	delete(c.entries, key)

	return true, nil
}
