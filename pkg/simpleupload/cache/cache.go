// Package cache provides the result cache for list/search queries: a
// TTL-bounded LRU keyed by the canonical encoding of the search filter.
//
// The cache is a pure optimization. Entries expire by time only; uploads and
// deletes do not invalidate them, so a hit may serve membership that is stale
// by at most one TTL window.
package cache

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Default sizing for the result cache.
const (
	DefaultSize = 512
	DefaultTTL  = 2 * time.Minute
)

// ResultCache memoizes serialized list-query payloads for a bounded time.
type ResultCache struct {
	lru *expirable.LRU[string, []byte]
}

// New creates a result cache holding at most size entries, each expiring ttl
// after insertion. Non-positive arguments fall back to the defaults.
func New(size int, ttl time.Duration) *ResultCache {
	if size <= 0 {
		size = DefaultSize
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &ResultCache{
		lru: expirable.NewLRU[string, []byte](size, nil, ttl),
	}
}

// Get returns the cached payload for key, or (nil, false) on a miss.
func (c *ResultCache) Get(key string) ([]byte, bool) {
	return c.lru.Get(key)
}

// Put stores a payload under key. Later Puts with the same key overwrite.
func (c *ResultCache) Put(key string, payload []byte) {
	c.lru.Add(key, payload)
}

// Len returns the number of live entries.
func (c *ResultCache) Len() int {
	return c.lru.Len()
}
