package cache

import (
	"context"
	"sort"
	"sync"
	"time"
)

type memEntry struct {
	value     []byte
	set       map[string]struct{}
	expiresAt time.Time
}

func (e memEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// MemoryCache is a process-local Cache used when REDIS_ADDR is unset and in
// tests. Expired entries are dropped lazily on access.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memEntry
	now     func() time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: map[string]memEntry{}, now: time.Now}
}

// WithClock swaps the time source; tests use it to step past TTLs.
func (c *MemoryCache) WithClock(now func() time.Time) *MemoryCache {
	c.mu.Lock()
	c.now = now
	c.mu.Unlock()
	return c
}

func (c *MemoryCache) expiry(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return c.now().Add(ttl)
}

// live returns the entry for key, evicting it when expired. Caller holds mu.
func (c *MemoryCache) live(key string) (memEntry, bool) {
	e, ok := c.entries[key]
	if !ok {
		return memEntry{}, false
	}
	if e.expired(c.now()) {
		delete(c.entries, key)
		return memEntry{}, false
	}
	return e, true
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.live(key)
	if !ok || e.set != nil {
		return nil, false, nil
	}
	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, true, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	v := make([]byte, len(value))
	copy(v, value)
	c.entries[key] = memEntry{value: v, expiresAt: c.expiry(ttl)}
	return nil
}

func (c *MemoryCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.entries, k)
	}
	return nil
}

func (c *MemoryCache) Exists(_ context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.live(key)
	return ok, nil
}

func (c *MemoryCache) AddToSet(_ context.Context, key string, ttl time.Duration, members ...string) (int64, error) {
	if len(members) == 0 {
		return 0, nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.live(key)
	if !ok || e.set == nil {
		e = memEntry{set: map[string]struct{}{}}
	}
	var added int64
	for _, m := range members {
		if _, present := e.set[m]; !present {
			e.set[m] = struct{}{}
			added++
		}
	}
	if ttl > 0 {
		e.expiresAt = c.expiry(ttl)
	}
	c.entries[key] = e
	return added, nil
}

func (c *MemoryCache) SeedSet(_ context.Context, key string, members []string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(members) == 0 {
		delete(c.entries, key)
		return nil
	}
	set := make(map[string]struct{}, len(members))
	for _, m := range members {
		set[m] = struct{}{}
	}
	c.entries[key] = memEntry{set: set, expiresAt: c.expiry(ttl)}
	return nil
}

func (c *MemoryCache) SetMembers(_ context.Context, key string) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.live(key)
	if !ok {
		return nil, nil
	}
	out := make([]string, 0, len(e.set))
	for m := range e.set {
		out = append(out, m)
	}
	sort.Strings(out)
	return out, nil
}

func (c *MemoryCache) SetCard(_ context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.live(key)
	if !ok {
		return 0, nil
	}
	return int64(len(e.set)), nil
}
