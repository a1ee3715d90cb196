package subscription

import (
	"container/list"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/upb/access-control-plane/models"
)

// Scope identifies whose subscription a cache entry belongs to: the actor
// and, when one is selected, the tenant. Results are tagged with their scope
// so a fetch that raced a tenant switch can never overwrite another scope's
// snapshot.
type Scope struct {
	ActorID   uuid.UUID
	CompanyID *uuid.UUID
}

// Key returns the cache key for the scope
func (s Scope) Key() string {
	if s.CompanyID != nil {
		return s.ActorID.String() + ":" + s.CompanyID.String()
	}
	return s.ActorID.String()
}

// cacheEntry is a single cached subscription result. The identity is kept so
// the refresh worker can re-resolve the entry without a live request.
type cacheEntry struct {
	scope      Scope
	identity   models.ActorIdentity
	access     models.SubscriptionAccess
	insertedAt time.Time
	element    *list.Element
}

func (e *cacheEntry) isExpired(ttl time.Duration) bool {
	return time.Since(e.insertedAt) > ttl
}

// Cache is an in-memory LRU cache with TTL for subscription access results.
// Expired entries are retained until evicted: they are the last-known-good
// values handed out when a refresh fails.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*cacheEntry
	lruList *list.List
	maxSize int
	ttl     time.Duration
	hits    uint64
	misses  uint64
}

// NewCache creates a Cache with the given max size and TTL
func NewCache(maxSize int, ttl time.Duration) *Cache {
	return &Cache{
		entries: make(map[string]*cacheEntry),
		lruList: list.New(),
		maxSize: maxSize,
		ttl:     ttl,
	}
}

// Get returns a fresh cached result, or false when absent or expired
func (c *Cache) Get(scope Scope) (models.SubscriptionAccess, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, exists := c.entries[scope.Key()]
	if !exists || entry.isExpired(c.ttl) {
		c.misses++
		return models.SubscriptionAccess{}, false
	}

	c.lruList.MoveToFront(entry.element)
	c.hits++
	return entry.access, true
}

// GetAny returns the cached result even when expired. Used as the
// last-known-good fallback after a failed refresh.
func (c *Cache) GetAny(scope Scope) (models.SubscriptionAccess, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.entries[scope.Key()]
	if !exists {
		return models.SubscriptionAccess{}, false
	}
	return entry.access, true
}

// Set stores a result for the scope, replacing the previous value atomically
func (c *Cache) Set(scope Scope, identity models.ActorIdentity, acc models.SubscriptionAccess) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := scope.Key()
	if entry, exists := c.entries[key]; exists {
		entry.identity = identity
		entry.access = acc
		entry.insertedAt = time.Now()
		c.lruList.MoveToFront(entry.element)
		return
	}

	if c.lruList.Len() >= c.maxSize {
		c.evictLRU()
	}

	entry := &cacheEntry{
		scope:      scope,
		identity:   identity,
		access:     acc,
		insertedAt: time.Now(),
	}
	entry.element = c.lruList.PushFront(key)
	c.entries[key] = entry
}

// Invalidate removes the entry for a scope
func (c *Cache) Invalidate(scope Scope) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removeEntry(scope.Key())
}

// InvalidateActor removes all entries for an actor, across tenants
func (c *Cache) InvalidateActor(actorID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key, entry := range c.entries {
		if entry.scope.ActorID == actorID {
			c.removeEntry(key)
		}
	}
}

// staleEntries returns the scope and identity of every entry older than age.
// The refresh worker re-resolves these in the background.
func (c *Cache) staleEntries(age time.Duration) []cacheEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []cacheEntry
	for _, entry := range c.entries {
		if time.Since(entry.insertedAt) > age {
			out = append(out, cacheEntry{scope: entry.scope, identity: entry.identity})
		}
	}
	return out
}

// Stats returns hit/miss counters and the current size
func (c *Cache) Stats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return CacheStats{
		Size:    c.lruList.Len(),
		MaxSize: c.maxSize,
		Hits:    c.hits,
		Misses:  c.misses,
	}
}

// CacheStats represents cache statistics
type CacheStats struct {
	Size    int
	MaxSize int
	Hits    uint64
	Misses  uint64
}

// removeEntry removes an entry (lock must be held)
func (c *Cache) removeEntry(key string) {
	if entry, exists := c.entries[key]; exists {
		c.lruList.Remove(entry.element)
		delete(c.entries, key)
	}
}

// evictLRU evicts the least recently used entry (lock must be held)
func (c *Cache) evictLRU() {
	back := c.lruList.Back()
	if back == nil {
		return
	}
	key := back.Value.(string)
	c.lruList.Remove(back)
	delete(c.entries, key)
}
