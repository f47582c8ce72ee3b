package saringan

import (
	"container/list"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Cache is the storage contract used by the Coordinator on the read path.
type Cache interface {
	Get(key string) (any, bool)
	Put(key string, value any)
	EvictExpired(now time.Time) int
	Clear()
	Len() int
	RecordFetchLatency(d time.Duration)
	Stats() CacheStats
}

// cacheEntry is the value stored in the LRU list elements. The key lives
// here because eviction starts from list nodes.
type cacheEntry struct {
	key        string
	value      any
	insertedAt time.Time
	expiresAt  time.Time
}

// LRUCache is a fixed-capacity in-memory cache with least-recently-used
// eviction and a fixed per-entry TTL. A map gives O(1) lookup and a
// doubly-linked list maintains recency ordering (front = most recently
// used). Hits refresh recency only, never the TTL. It is safe for
// concurrent use.
type LRUCache struct {
	mu sync.Mutex

	capacity int
	ttl      time.Duration
	clock    clockwork.Clock

	items map[string]*list.Element
	order *list.List

	hits           uint64
	misses         uint64
	totalLatency   time.Duration
	latencySamples uint64
}

// NewLRUCache creates a cache with the given capacity and TTL.
// capacity must be positive; entries expire ttl after insertion.
func NewLRUCache(capacity int, ttl time.Duration, clock clockwork.Clock) *LRUCache {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &LRUCache{
		capacity: capacity,
		ttl:      ttl,
		clock:    clock,
		items:    make(map[string]*list.Element),
		order:    list.New(),
	}
}

// Get returns the value for key if present and fresh, moving the entry to
// the most-recently-used position. An expired entry is removed and counted
// as a miss.
func (c *LRUCache) Get(key string) (any, bool) {
	now := c.clock.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		c.misses++
		return nil, false
	}

	e := el.Value.(*cacheEntry)
	if !e.expiresAt.After(now) {
		c.removeLocked(el)
		c.misses++
		return nil, false
	}

	c.hits++
	c.order.MoveToFront(el)
	return e.value, true
}

// Put stores a value under key. An existing entry is overwritten with a
// refreshed expiry and moved to the most-recently-used position. Inserting
// at capacity first evicts the least-recently-used entry, so size never
// exceeds capacity.
func (c *LRUCache) Put(key string, value any) {
	now := c.clock.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		e := el.Value.(*cacheEntry)
		e.value = value
		e.insertedAt = now
		e.expiresAt = now.Add(c.ttl)
		c.order.MoveToFront(el)
		return
	}

	if c.order.Len() >= c.capacity {
		if back := c.order.Back(); back != nil {
			c.removeLocked(back)
		}
	}

	e := &cacheEntry{
		key:        key,
		value:      value,
		insertedAt: now,
		expiresAt:  now.Add(c.ttl),
	}
	c.items[key] = c.order.PushFront(e)
}

// EvictExpired removes every entry whose expiry is at or before now and
// returns the number removed. Survivors keep their LRU order. Invoked
// periodically by the Coordinator so low-traffic keys do not pin memory.
func (c *LRUCache) EvictExpired(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for _, el := range c.items {
		e := el.Value.(*cacheEntry)
		if !e.expiresAt.After(now) {
			c.removeLocked(el)
			removed++
		}
	}
	return removed
}

// Clear removes all entries and resets hit, miss and latency counters.
func (c *LRUCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*list.Element)
	c.order.Init()
	c.hits = 0
	c.misses = 0
	c.totalLatency = 0
	c.latencySamples = 0
}

// Len returns the number of stored entries, including any that have expired
// but not yet been swept.
func (c *LRUCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// RecordFetchLatency accumulates one backing-store fetch latency sample.
// Samples are reset together with the hit/miss counters by Clear.
func (c *LRUCache) RecordFetchLatency(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.totalLatency += d
	c.latencySamples++
}

// Stats returns a snapshot of the cache counters. HitRate is 0, not NaN,
// before any request has been recorded.
func (c *LRUCache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := CacheStats{
		Size:    len(c.items),
		MaxSize: c.capacity,
		Hits:    c.hits,
		Misses:  c.misses,
	}
	if total := c.hits + c.misses; total > 0 {
		stats.HitRate = float64(c.hits) / float64(total)
	}
	if c.latencySamples > 0 {
		avg := c.totalLatency / time.Duration(c.latencySamples)
		stats.AvgLatencyMs = float64(avg) / float64(time.Millisecond)
	}
	return stats
}

func (c *LRUCache) removeLocked(el *list.Element) {
	e := el.Value.(*cacheEntry)
	delete(c.items, e.key)
	c.order.Remove(el)
}
