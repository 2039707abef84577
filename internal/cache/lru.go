package cache

import (
	"container/list"
	"sync"
	"sync/atomic"

	"photo-pipeline/internal/pixel"
)

// entry is a single cache slot: key, value, and its byte cost at insert.
type entry struct {
	key   string
	value *pixel.Buffer
	cost  int64
}

// LRU is a cost-bounded least-recently-used cache. The recency list front
// holds the most recently used entry; eviction pops from the back.
//
// All methods are safe for concurrent use. Critical sections are bounded:
// no allocation-heavy or blocking work happens under the lock.
type LRU struct {
	mu         sync.Mutex
	maxBytes   int64
	maxEntries int
	ll         *list.List
	items      map[string]*list.Element
	bytes      int64

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

// Stats is a point-in-time view of LRU counters and occupancy.
type Stats struct {
	Entries   int
	Bytes     int64
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// NewLRU creates a cache bounded by maxBytes total cost and maxEntries
// entries. Non-positive budgets disable the respective bound.
func NewLRU(maxBytes int64, maxEntries int) *LRU {
	return &LRU{
		maxBytes:   maxBytes,
		maxEntries: maxEntries,
		ll:         list.New(),
		items:      make(map[string]*list.Element),
	}
}

// Get returns the cached buffer for key, marking it most recently used.
// Non-blocking: memory only, never triggers a load.
func (c *LRU) Get(key string) (*pixel.Buffer, bool) {
	c.mu.Lock()
	elem, ok := c.items[key]
	if !ok {
		c.mu.Unlock()
		c.misses.Add(1)
		return nil, false
	}
	c.ll.MoveToFront(elem)
	value := elem.Value.(*entry).value
	c.mu.Unlock()

	c.hits.Add(1)
	return value, true
}

// Contains reports whether key is cached, without touching recency.
func (c *LRU) Contains(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.items[key]
	return ok
}

// Put inserts or overwrites the buffer for key, then evicts least-recently
// used entries until both budgets are satisfied. Values are replaced
// wholesale, never mutated.
func (c *LRU) Put(key string, value *pixel.Buffer) {
	if value == nil {
		return
	}
	cost := value.ByteCost()

	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		ent := elem.Value.(*entry)
		c.bytes += cost - ent.cost
		ent.value = value
		ent.cost = cost
		c.ll.MoveToFront(elem)
		c.evictLocked()
		return
	}

	elem := c.ll.PushFront(&entry{key: key, value: value, cost: cost})
	c.items[key] = elem
	c.bytes += cost
	c.evictLocked()
}

// evictLocked drops least-recently-used entries until the cache fits both
// budgets. Caller holds mu.
func (c *LRU) evictLocked() {
	for c.overBudgetLocked() {
		oldest := c.ll.Back()
		if oldest == nil {
			return
		}
		ent := oldest.Value.(*entry)
		delete(c.items, ent.key)
		c.ll.Remove(oldest)
		c.bytes -= ent.cost
		c.evictions.Add(1)
	}
}

func (c *LRU) overBudgetLocked() bool {
	if c.maxBytes > 0 && c.bytes > c.maxBytes {
		return true
	}
	if c.maxEntries > 0 && c.ll.Len() > c.maxEntries {
		return true
	}
	return false
}

// Remove deletes the entry for key, reporting whether it existed.
func (c *LRU) Remove(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		return false
	}
	ent := elem.Value.(*entry)
	delete(c.items, ent.key)
	c.ll.Remove(elem)
	c.bytes -= ent.cost
	return true
}

// Clear drops all entries and resets cost accounting.
// Hit/miss statistics survive a clear.
func (c *LRU) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*list.Element)
	c.ll = list.New()
	c.bytes = 0
}

// Len returns the current entry count.
func (c *LRU) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

// Cost returns the current resident byte cost.
func (c *LRU) Cost() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bytes
}

// Stats returns current counters and occupancy.
func (c *LRU) Stats() Stats {
	c.mu.Lock()
	entries := c.ll.Len()
	bytes := c.bytes
	c.mu.Unlock()

	return Stats{
		Entries:   entries,
		Bytes:     bytes,
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
	}
}
