package cache

import (
	"sync"
	"time"
)

// Clock abstracts time so TTL expiry is testable.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// TTL is a small in-memory cache with per-entry expiry. Expired entries are
// evicted lazily on read and in bulk via Prune.
type TTL[V any] struct {
	mu      sync.Mutex
	clock   Clock
	entries map[string]entry[V]
}

// NewTTL builds a TTL cache around the provided clock. A nil clock falls back
// to the system clock.
func NewTTL[V any](clock Clock) *TTL[V] {
	if clock == nil {
		clock = SystemClock{}
	}
	return &TTL[V]{
		clock:   clock,
		entries: make(map[string]entry[V]),
	}
}

// Get returns the live value for key, evicting it first if expired.
func (c *TTL[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	item, ok := c.entries[key]
	if !ok {
		return zero, false
	}
	if !c.clock.Now().Before(item.expiresAt) {
		delete(c.entries, key)
		return zero, false
	}
	return item.value, true
}

// Set stores value under key for the given lifetime. Non-positive lifetimes
// are treated as an immediate delete.
func (c *TTL[V]) Set(key string, value V, lifetime time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if lifetime <= 0 {
		delete(c.entries, key)
		return
	}
	c.entries[key] = entry[V]{
		value:     value,
		expiresAt: c.clock.Now().Add(lifetime),
	}
}

// Delete removes the entry for key if present.
func (c *TTL[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Clear drops every entry.
func (c *TTL[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry[V])
}

// Len counts live entries without extending their lifetime.
func (c *TTL[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	count := 0
	for _, item := range c.entries {
		if now.Before(item.expiresAt) {
			count++
		}
	}
	return count
}

// Prune evicts every expired entry and reports how many were removed.
func (c *TTL[V]) Prune() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	removed := 0
	for key, item := range c.entries {
		if !now.Before(item.expiresAt) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}
