package cache

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/pelyams/sneaker_house_service/internal/domain"
)

type memoryEntry struct {
	data     []byte
	storedAt time.Time
	ttl      time.Duration
}

// valid reports whether the entry is still fresh at now. An entry is fresh up
// to and including storedAt+ttl.
func (e memoryEntry) valid(now time.Time) bool {
	return now.Sub(e.storedAt) <= e.ttl
}

// MemoryCache is the in-process store. Expired entries are dropped lazily when
// they are next read; there is no background sweep.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

type MemoryOption func(*MemoryCache)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) MemoryOption {
	return func(c *MemoryCache) {
		c.now = now
	}
}

func NewMemoryCache(opts ...MemoryOption) *MemoryCache {
	c := &MemoryCache{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ent, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !ent.valid(c.now()) {
		delete(c.entries, key)
		return nil, false, nil
	}
	return ent.data, true, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, data []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = memoryEntry{data: data, storedAt: c.now(), ttl: ttl}
	return nil
}

func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
	return nil
}

func (c *MemoryCache) Clear(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]memoryEntry)
	return nil
}

// Stats lists every stored entry, stale ones included, since reading stats
// must not evict.
func (c *MemoryCache) Stats(_ context.Context) (domain.CacheStats, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	stats := domain.CacheStats{
		Size:    len(c.entries),
		Entries: make([]domain.CacheEntryStats, 0, len(c.entries)),
	}
	for key, ent := range c.entries {
		stats.Entries = append(stats.Entries, domain.CacheEntryStats{
			Key:      key,
			DataSize: len(ent.data),
			Age:      now.Sub(ent.storedAt),
			TTL:      ent.ttl,
		})
	}
	sort.Slice(stats.Entries, func(i, j int) bool {
		return stats.Entries[i].Key < stats.Entries[j].Key
	})
	return stats, nil
}
