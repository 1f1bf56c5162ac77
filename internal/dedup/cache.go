// Package dedup provides a bounded LRU idempotency cache shared by agents to
// reject envelopes they have already processed. Immediate-mode recursion and
// retry paths can redeliver the same logical message; a bounded cache with
// explicit eviction replaces the per-agent hash sets of earlier designs.
package dedup

import (
	"container/list"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"sync"
)

// DefaultCapacity is the cache size used when none is configured.
const DefaultCapacity = 256

// Cache is a fixed-capacity LRU set of message fingerprints.
// It is safe for concurrent use.
type Cache struct {
	mu       sync.Mutex
	capacity int
	order    *list.List               // front = most recently seen
	entries  map[uint64]*list.Element // fingerprint -> order element
}

// NewCache creates a Cache holding at most capacity fingerprints.
// Non-positive capacities fall back to DefaultCapacity.
func NewCache(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Cache{
		capacity: capacity,
		order:    list.New(),
		entries:  make(map[uint64]*list.Element, capacity),
	}
}

// Seen records the (sender, type, content) tuple and reports whether it was
// already present. A repeated tuple refreshes its recency; a new tuple evicts
// the least recently seen entry once the cache is full.
func (c *Cache) Seen(sender, envelopeType string, content map[string]any) bool {
	key := fingerprint(sender, envelopeType, content)

	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		c.order.MoveToFront(el)
		return true
	}

	c.entries[key] = c.order.PushFront(key)
	if c.order.Len() > c.capacity {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(uint64))
	}
	return false
}

// Len returns the number of fingerprints currently cached.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Clear empties the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order.Init()
	c.entries = make(map[uint64]*list.Element, c.capacity)
}

// fingerprint hashes the tuple into a single key. Content is serialized with
// encoding/json, which sorts map keys, so logically equal content hashes
// equally regardless of construction order.
func fingerprint(sender, envelopeType string, content map[string]any) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(sender))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(envelopeType))
	_, _ = h.Write([]byte{0})
	if data, err := json.Marshal(content); err == nil {
		_, _ = h.Write(data)
	} else {
		_, _ = fmt.Fprintf(h, "%v", content)
	}
	return h.Sum64()
}
