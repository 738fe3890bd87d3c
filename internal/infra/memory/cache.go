// Package memory implements the in-process effective-set cache: a TTL'd
// LRU keyed by dealership and user, with a generation counter so a full
// invalidation is one atomic increment instead of a sweep.
package memory

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/mydetailarea/access/internal/metrics"
	"github.com/mydetailarea/access/pkg/domain/access"
	"github.com/mydetailarea/access/pkg/domain/shared"
)

type entry struct {
	set        access.EffectiveSet
	generation uint64
	version    string
}

// Cache is a bounded in-process cache of effective permission sets.
// Safe for concurrent use; entries expire after the configured TTL, fall
// out under LRU pressure, and read as misses after InvalidateAll bumps
// the generation or a deploy changes the schema version.
type Cache struct {
	lru        *expirable.LRU[string, entry]
	generation atomic.Uint64
	version    string
}

// NewCache creates a cache holding at most size entries for at most ttl.
// version tags entries with the cached model's schema version.
func NewCache(size int, ttl time.Duration, version string) *Cache {
	return &Cache{
		lru:     expirable.NewLRU[string, entry](size, nil, ttl),
		version: version,
	}
}

func key(dealershipID, userID shared.ID) string {
	return fmt.Sprintf("%s:%s", dealershipID, userID)
}

// Get returns the cached set for the user within the dealership.
func (c *Cache) Get(dealershipID, userID shared.ID) (access.EffectiveSet, bool) {
	e, ok := c.lru.Get(key(dealershipID, userID))
	if !ok || e.generation != c.generation.Load() || e.version != c.version {
		metrics.CacheMissesTotal.WithLabelValues("memory").Inc()
		return access.EffectiveSet{}, false
	}
	metrics.CacheHitsTotal.WithLabelValues("memory").Inc()
	return e.set, true
}

// Put stores the set for the user within the dealership.
func (c *Cache) Put(dealershipID, userID shared.ID, set access.EffectiveSet) {
	c.lru.Add(key(dealershipID, userID), entry{
		set:        set,
		generation: c.generation.Load(),
		version:    c.version,
	})
}

// Invalidate drops the entry for one user within one dealership.
func (c *Cache) Invalidate(dealershipID, userID shared.ID) {
	c.lru.Remove(key(dealershipID, userID))
}

// InvalidateDealership drops every entry for a dealership.
func (c *Cache) InvalidateDealership(dealershipID shared.ID) {
	prefix := dealershipID.String() + ":"
	for _, k := range c.lru.Keys() {
		if len(k) > len(prefix) && k[:len(prefix)] == prefix {
			c.lru.Remove(k)
		}
	}
}

// InvalidateAll makes every current entry unreadable by bumping the
// generation. Stale entries age out of the LRU on their own.
func (c *Cache) InvalidateAll() {
	c.generation.Add(1)
}

// Generation returns the current generation counter.
func (c *Cache) Generation() uint64 {
	return c.generation.Load()
}

// Len returns the number of resident entries, including ones that would
// read as misses after a generation bump.
func (c *Cache) Len() int {
	return c.lru.Len()
}
