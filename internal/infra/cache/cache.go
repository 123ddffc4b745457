// Package cache provides a simple in-memory TTL cache.
package cache

import (
	"sync"
	"time"
)

type entry[T any] struct {
	value     T
	expiresAt time.Time
}

// InMemory is a thread-safe in-memory cache with TTL. Expired entries
// are evicted lazily on access and in bulk on Set.
type InMemory[T any] struct {
	mu    sync.RWMutex
	items map[string]entry[T]
	ttl   time.Duration
}

// New creates an in-memory cache with the given TTL.
func New[T any](ttl time.Duration) *InMemory[T] {
	return &InMemory[T]{
		items: make(map[string]entry[T]),
		ttl:   ttl,
	}
}

// Get retrieves a value. Returns false if not found or expired.
func (c *InMemory[T]) Get(key string) (T, bool) {
	c.mu.RLock()
	e, ok := c.items[key]
	c.mu.RUnlock()

	if !ok {
		var zero T
		return zero, false
	}
	if time.Now().After(e.expiresAt) {
		c.mu.Lock()
		delete(c.items, key)
		c.mu.Unlock()
		var zero T
		return zero, false
	}
	return e.value, true
}

// Set stores a value with the configured TTL, sweeping any entries
// that have expired in the meantime.
func (c *InMemory[T]) Set(key string, value T) {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	for k, e := range c.items {
		if now.After(e.expiresAt) {
			delete(c.items, k)
		}
	}
	c.items[key] = entry[T]{value: value, expiresAt: now.Add(c.ttl)}
}

// Delete removes a value.
func (c *InMemory[T]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.items, key)
}

// Len returns the number of stored entries, expired or not.
func (c *InMemory[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.items)
}
