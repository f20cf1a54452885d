// ABOUTME: Thread-safe TTL cache remembering the item id created for an idempotency key.
// ABOUTME: Used by the HTTP API so a retried create returns the first result instead of a new row.

package dedupe

import (
	"container/list"
	"sync"
	"time"
)

// cacheEntry stores the created id, its timestamp and list element.
type cacheEntry struct {
	id        int64
	timestamp time.Time
	element   *list.Element
}

// Cache provides a thread-safe, TTL-based, size-limited map from
// idempotency keys to created item ids.
// Uses a doubly-linked list to maintain insertion order for O(1) eviction.
type Cache struct {
	mu      sync.RWMutex
	flight  sync.Mutex // serializes Do
	seen    map[string]*cacheEntry
	order   *list.List // List of keys in insertion order (oldest at front)
	ttl     time.Duration
	maxSize int
	done    chan struct{}
	closed  bool
}

// New creates a new cache with the specified TTL and maximum size.
// A background goroutine periodically cleans up expired entries.
func New(ttl time.Duration, maxSize int) *Cache {
	if maxSize < 1 {
		maxSize = 1
	}
	c := &Cache{
		seen:    make(map[string]*cacheEntry),
		order:   list.New(),
		ttl:     ttl,
		maxSize: maxSize,
		done:    make(chan struct{}),
	}
	go c.cleanup()
	return c
}

// Lookup returns the id remembered for key if it is present and not expired.
func (c *Cache) Lookup(key string) (int64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.seen[key]
	if !ok || time.Since(entry.timestamp) >= c.ttl {
		return 0, false
	}
	return entry.id, true
}

// Remember records id for key. If the cache is at capacity, the oldest
// entry is evicted to make room.
func (c *Cache) Remember(key string, id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rememberLocked(key, id)
}

// Do returns the id remembered for key, or runs create and remembers its
// result. replayed reports whether the id came from the cache. Failed
// creates are not remembered. Calls are serialized so two requests with the
// same key cannot both create.
func (c *Cache) Do(key string, create func() (int64, error)) (id int64, replayed bool, err error) {
	c.flight.Lock()
	defer c.flight.Unlock()

	if id, ok := c.Lookup(key); ok {
		return id, true, nil
	}

	id, err = create()
	if err != nil {
		return 0, false, err
	}
	c.Remember(key, id)
	return id, false, nil
}

// Len returns the number of entries, including expired ones not yet cleaned up.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.seen)
}

// rememberLocked is the internal implementation. Must be called with mu held.
func (c *Cache) rememberLocked(key string, id int64) {
	now := time.Now()

	// If key already exists, update it and move to back
	if entry, exists := c.seen[key]; exists {
		entry.id = id
		entry.timestamp = now
		c.order.MoveToBack(entry.element)
		return
	}

	// Evict oldest if at capacity
	if len(c.seen) >= c.maxSize {
		c.evictOldest()
	}

	elem := c.order.PushBack(key)
	c.seen[key] = &cacheEntry{
		id:        id,
		timestamp: now,
		element:   elem,
	}
}

// evictOldest removes the oldest entry from the cache.
// Must be called with mu held. O(1) operation using linked list.
func (c *Cache) evictOldest() {
	front := c.order.Front()
	if front == nil {
		return
	}

	key, _ := front.Value.(string)
	c.order.Remove(front)
	delete(c.seen, key)
}

// cleanup runs in a background goroutine, periodically removing expired entries.
func (c *Cache) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.runCleanup()
		case <-c.done:
			return
		}
	}
}

// runCleanup removes all expired entries from the cache.
func (c *Cache) runCleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for key, entry := range c.seen {
		if now.Sub(entry.timestamp) > c.ttl {
			c.order.Remove(entry.element)
			delete(c.seen, key)
		}
	}
}

// Close stops the background cleanup goroutine. It is safe to call multiple times.
func (c *Cache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		close(c.done)
		c.closed = true
	}
}
