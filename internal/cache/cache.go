// Package cache provides the TTL-bounded, compare-and-set caches described
// in §5: the article cache (keyed by identifier, DOI preferred) and the
// entity cache used by the semantic enhancer. Both share the same
// discipline and are built on the same generic implementation.
package cache

import (
	"time"

	"github.com/Tangerg/biosearch/pkg/maps"
)

type entry[T any] struct {
	value     T
	expiresAt time.Time
}

// Cache is an instance-scoped (never process-global, per §9), TTL-bounded
// cache with compare-and-set write semantics: the last writer for a given
// key always wins, and concurrent readers never block each other past the
// underlying SyncMap's read lock.
//
// A miss is a pure latency optimization: callers are expected to fall
// through to the owning adapter/service call on a miss and then Set the
// result. A hit returns a clone when cloneFn is supplied, so callers never
// observe mutation of a cached value through an alias.
type Cache[T any] struct {
	inner   maps.Map[string, entry[T]]
	ttl     time.Duration
	cloneFn func(T) T
}

// New constructs a Cache with the given TTL. cloneFn may be nil if T is
// already copy-safe (e.g. a small value type).
func New[T any](ttl time.Duration, cloneFn func(T) T) *Cache[T] {
	return &Cache[T]{
		inner:   maps.NewSyncMap[string, entry[T]](),
		ttl:     ttl,
		cloneFn: cloneFn,
	}
}

// DefaultArticleTTL is the 7-day default named in §5 for the article cache.
const DefaultArticleTTL = 7 * 24 * time.Hour

// Get returns the cached value for key if present and not expired.
func (c *Cache[T]) Get(key string) (T, bool) {
	e, ok := c.inner.Get(key)
	if !ok || time.Now().After(e.expiresAt) {
		var zero T
		return zero, false
	}
	if c.cloneFn != nil {
		return c.cloneFn(e.value), true
	}
	return e.value, true
}

// Set writes value for key with the cache's configured TTL. Compare-and-set
// in the sense required by §5: concurrent writers for the same key race,
// and the last Put wins — no read-modify-write cycle is exposed.
func (c *Cache[T]) Set(key string, value T) {
	c.inner.Put(key, entry[T]{value: value, expiresAt: time.Now().Add(c.ttl)})
}

// Delete removes key unconditionally.
func (c *Cache[T]) Delete(key string) {
	c.inner.Remove(key)
}

// Sweep removes every expired entry. It is intended to be invoked
// periodically by a scheduler (see Scheduler in sweep.go); it never
// blocks on the caller's behalf and is safe to call concurrently with
// Get/Set.
func (c *Cache[T]) Sweep() int {
	removed := 0
	now := time.Now()
	for _, key := range c.inner.Keys() {
		e, ok := c.inner.Get(key)
		if ok && now.After(e.expiresAt) {
			c.inner.Remove(key)
			removed++
		}
	}
	return removed
}

// Size reports the number of entries currently stored, expired or not.
func (c *Cache[T]) Size() int {
	return c.inner.Size()
}

// ArticleKey returns the preferred cache key for an identifier pair,
// DOI preferred over PMID, matching §5's "keyed by identifier (DOI
// preferred, else PMID)".
func ArticleKey(doi, pmid string) string {
	if doi != "" {
		return "doi:" + doi
	}
	return "pmid:" + pmid
}
