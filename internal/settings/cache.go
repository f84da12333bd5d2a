package settings

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Cache is the TTL-bounded per-community settings cache.
//
// Semantics:
// - A fresh entry (age < TTL) is served without touching the backend.
// - On miss or expiry the backend is consulted; a successful fetch
//   overwrites the entry with the current timestamp regardless of its age.
// - A failed fetch leaves the previous entry untouched: the last known-good
//   record is served indefinitely through a backend outage. With no prior
//   entry the community is reported absent.
//
// Get never returns an error; degraded states collapse to ok=false.
type Cache struct {
	store Store
	ttl   time.Duration
	now   func() time.Time

	mu      sync.Mutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	rec       Record
	fetchedAt time.Time
}

func NewCache(store Store, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	return &Cache{
		store:   store,
		ttl:     ttl,
		now:     time.Now,
		entries: map[string]cacheEntry{},
	}
}

func (c *Cache) Get(ctx context.Context, communityID string) (Record, bool) {
	if communityID == "" || c.store == nil {
		return Record{}, false
	}

	c.mu.Lock()
	e, have := c.entries[communityID]
	fresh := have && c.now().Sub(e.fetchedAt) < c.ttl
	c.mu.Unlock()

	if fresh {
		return e.rec, true
	}

	// Backend fetch happens outside the lock; concurrent fetches for the
	// same community are redundant but harmless (last write wins).
	rec, err := c.store.Fetch(ctx, communityID)
	if err != nil {
		if have && !errors.Is(err, ErrNotFound) {
			// Live outage: serve the last known-good record.
			return e.rec, true
		}
		return Record{}, false
	}

	c.mu.Lock()
	c.entries[communityID] = cacheEntry{rec: rec, fetchedAt: c.now()}
	c.mu.Unlock()
	return rec, true
}

// Invalidate drops the entry for a community so the next Get refetches.
// Used by the administrative surface after a settings change.
func (c *Cache) Invalidate(communityID string) {
	c.mu.Lock()
	delete(c.entries, communityID)
	c.mu.Unlock()
}
