// Package cache holds the in-process description to SQL cache.
package cache

import (
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/guillermoBallester/sqlgate/internal/core/domain"
	"github.com/guillermoBallester/sqlgate/internal/core/port"
)

var _ port.SQLCache = (*MemoryCache)(nil)

// MemoryCache is an unbounded map guarded by a RWMutex. Entries live for the
// lifetime of the process unless cleared.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]domain.CachedEntry
	now     func() time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]domain.CachedEntry),
		now:     time.Now,
	}
}

// Put stores sql under the normalized form of description, replacing any
// previous entry. A description that normalizes to "" is stored under the
// empty key like any other; callers decide whether blank input is cached.
func (c *MemoryCache) Put(description, sql string) domain.CachedEntry {
	entry := domain.CachedEntry{
		Key:         domain.NormalizeKey(description),
		Description: description,
		SQL:         sql,
		CachedAt:    c.now(),
	}

	c.mu.Lock()
	c.entries[entry.Key] = entry
	c.mu.Unlock()
	return entry
}

func (c *MemoryCache) Get(description string) (domain.CachedEntry, bool) {
	key := domain.NormalizeKey(description)

	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	return e, ok
}

// List returns a snapshot ordered by insertion time, oldest first.
func (c *MemoryCache) List() []domain.CachedEntry {
	c.mu.RLock()
	out := make([]domain.CachedEntry, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e)
	}
	c.mu.RUnlock()

	slices.SortFunc(out, func(a, b domain.CachedEntry) int {
		if n := a.CachedAt.Compare(b.CachedAt); n != 0 {
			return n
		}
		return strings.Compare(a.Key, b.Key)
	})
	return out
}

// Clear drops every entry and reports how many were removed.
func (c *MemoryCache) Clear() int {
	fresh := make(map[string]domain.CachedEntry)

	c.mu.Lock()
	n := len(c.entries)
	c.entries = fresh
	c.mu.Unlock()
	return n
}

func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
