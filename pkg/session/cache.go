// Package session holds ephemeral pagination state between the stateless
// request/callback round-trips of a search. Nothing here is persisted;
// process restart invalidates every open session by design.
package session

import (
	"sync"

	"mediadex/pkg/logger"
	"mediadex/pkg/models"
)

// Session is the state kept for one in-progress paginated search.
type Session struct {
	// Query is the original user text, re-compiled on every navigation so
	// shard switches and page turns rerun the same predicate.
	Query string
	// LastPage is the most recently materialized page, kept only to serve
	// immediate secondary reads cheaply. Not authoritative.
	LastPage []models.FileRecord
}

// Cache is a capacity-guarded session table. When the number of live
// sessions exceeds the ceiling the whole table is cleared: a coarse,
// cheap-to-reason-about backpressure valve rather than per-entry recency
// tracking.
type Cache struct {
	mu       sync.Mutex
	capacity int
	entries  map[string]Session
	onReset  func(evicted int)
}

// DefaultCapacity mirrors the historical ceiling of the session table.
const DefaultCapacity = 1000

// NewCache returns a cache with the given ceiling (DefaultCapacity when
// non-positive). onReset, if non-nil, observes whole-table evictions.
func NewCache(capacity int, onReset func(evicted int)) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Cache{
		capacity: capacity,
		entries:  make(map[string]Session),
		onReset:  onReset,
	}
}

// Put stores or overwrites a session, running the size guard first so the
// entry being written survives a reset.
func (c *Cache) Put(key string, s Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.entries) > c.capacity {
		n := len(c.entries)
		c.entries = make(map[string]Session)
		logger.Info("session_table_reset", "evicted", n, "capacity", c.capacity)
		if c.onReset != nil {
			c.onReset(n)
		}
	}
	c.entries[key] = s
}

// Get returns the session for key. A missing entry means expired; callers
// treat absent and evicted identically.
func (c *Cache) Get(key string) (Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.entries[key]
	return s, ok
}

// Len reports the number of live sessions.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
