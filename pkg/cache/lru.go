package cache

import (
	"container/list"
	"sync"

	"github.com/gqlwire/gqlwire/pkg/graphql"
)

// DefaultCapacity is the cache capacity used when none is specified.
const DefaultCapacity = 128

// LRU is a bounded fingerprint-to-envelope store with least-recently-used
// eviction. It is safe for concurrent use; insertion and eviction are atomic
// with respect to lookups.
type LRU struct {
	mu       sync.Mutex
	capacity int
	ll       *list.List
	items    map[string]*list.Element
}

type lruEntry struct {
	key   string
	value *graphql.Response
}

// NewLRU creates a store holding at most capacity entries.
// A capacity of zero or less falls back to DefaultCapacity.
func NewLRU(capacity int) *LRU {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &LRU{
		capacity: capacity,
		ll:       list.New(),
		items:    make(map[string]*list.Element, capacity),
	}
}

// Get returns the envelope stored under key, marking it most recently used.
func (c *LRU) Get(key string) (*graphql.Response, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		return nil, false
	}
	c.ll.MoveToFront(el)
	return el.Value.(*lruEntry).value, true
}

// Put stores the envelope under key, evicting the least-recently-used entry
// when the store is at capacity. Storing an existing key updates its value
// and marks it most recently used.
func (c *LRU) Put(key string, value *graphql.Response) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		c.ll.MoveToFront(el)
		el.Value.(*lruEntry).value = value
		return
	}

	if c.ll.Len() >= c.capacity {
		oldest := c.ll.Back()
		if oldest != nil {
			c.ll.Remove(oldest)
			delete(c.items, oldest.Value.(*lruEntry).key)
		}
	}
	c.items[key] = c.ll.PushFront(&lruEntry{key: key, value: value})
}

// Len returns the number of stored entries.
func (c *LRU) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

// Capacity returns the maximum number of entries the store holds.
func (c *LRU) Capacity() int { return c.capacity }

// Purge removes all entries.
func (c *LRU) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ll.Init()
	c.items = make(map[string]*list.Element, c.capacity)
}
