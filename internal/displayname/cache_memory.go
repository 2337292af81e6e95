package displayname

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// MemoryCache is the in-process cache backend, used when no Redis URL is
// configured. Expired entries are overwritten on the next Set; the hub's
// working set (active chatters) is small enough that periodic eviction
// is not worth a goroutine.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
	clock   clockwork.Clock
}

type memoryEntry struct {
	name      string
	expiresAt time.Time
}

func NewMemoryCache(ttl time.Duration, clock clockwork.Clock) *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		clock:   clock,
	}
}

func (c *MemoryCache) Get(_ context.Context, userID string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[userID]
	if !ok {
		return "", false
	}
	if c.clock.Now().After(entry.expiresAt) {
		return "", false
	}
	return entry.name, true
}

func (c *MemoryCache) Set(_ context.Context, userID, name string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[userID] = memoryEntry{
		name:      name,
		expiresAt: c.clock.Now().Add(c.ttl),
	}
}
