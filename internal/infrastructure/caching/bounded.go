// Package caching provides the bounded correlation stores shared by the
// rewriting engine. Entries are evicted in insertion order: the structures
// remember short-lived correlation data (product ids, resale listings,
// rendered composites) without growing for the life of the process.
package caching

import (
	"encoding/json"
	"fmt"
)

// BoundedCache is a fixed-capacity, insertion-ordered key/value store with
// FIFO eviction. Re-setting an existing key updates its value but does not
// move its position in the eviction order. Get has no side effects.
type BoundedCache[V any] struct {
	capacity int
	order    []string
	values   map[string]V
}

// NewBoundedCache creates an empty cache that holds at most capacity entries.
func NewBoundedCache[V any](capacity int) *BoundedCache[V] {
	if capacity < 1 {
		capacity = 1
	}
	return &BoundedCache[V]{
		capacity: capacity,
		values:   make(map[string]V, capacity),
	}
}

// Set stores value under key, evicting the oldest surviving key when a new
// key would push the cache past capacity.
func (c *BoundedCache[V]) Set(key string, value V) {
	if _, exists := c.values[key]; !exists {
		c.order = append(c.order, key)
		if len(c.order) > c.capacity {
			oldest := c.order[0]
			c.order = c.order[1:]
			delete(c.values, oldest)
		}
	}
	c.values[key] = value
}

// Get returns the value stored under key, if any.
func (c *BoundedCache[V]) Get(key string) (V, bool) {
	v, ok := c.values[key]
	return v, ok
}

// Has reports whether key is present.
func (c *BoundedCache[V]) Has(key string) bool {
	_, ok := c.values[key]
	return ok
}

// PopOldest removes and returns the least-recently-inserted entry.
func (c *BoundedCache[V]) PopOldest() (string, V, bool) {
	var zero V
	if len(c.order) == 0 {
		return "", zero, false
	}
	key := c.order[0]
	c.order = c.order[1:]
	v := c.values[key]
	delete(c.values, key)
	return key, v, true
}

// PopNewest removes and returns the most-recently-inserted entry.
func (c *BoundedCache[V]) PopNewest() (string, V, bool) {
	var zero V
	if len(c.order) == 0 {
		return "", zero, false
	}
	key := c.order[len(c.order)-1]
	c.order = c.order[:len(c.order)-1]
	v := c.values[key]
	delete(c.values, key)
	return key, v, true
}

// Len returns the number of stored entries.
func (c *BoundedCache[V]) Len() int { return len(c.values) }

// Capacity returns the maximum number of entries.
func (c *BoundedCache[V]) Capacity() int { return c.capacity }

// Keys returns all keys in insertion order.
func (c *BoundedCache[V]) Keys() []string {
	keys := make([]string, len(c.order))
	copy(keys, c.order)
	return keys
}

// Clear drops every entry but keeps the capacity.
func (c *BoundedCache[V]) Clear() {
	c.order = nil
	c.values = make(map[string]V, c.capacity)
}

type boundedCacheJSON[V any] struct {
	Type     string       `json:"_type"`
	Capacity int          `json:"capacity"`
	Order    []string     `json:"order"`
	Values   map[string]V `json:"values"`
}

// MarshalJSON serializes the cache with its capacity and insertion order so
// the loader can reconstruct eviction behavior exactly.
func (c *BoundedCache[V]) MarshalJSON() ([]byte, error) {
	return json.Marshal(boundedCacheJSON[V]{
		Type:     "boundedCache",
		Capacity: c.capacity,
		Order:    c.order,
		Values:   c.values,
	})
}

// UnmarshalJSON restores a cache serialized by MarshalJSON.
func (c *BoundedCache[V]) UnmarshalJSON(data []byte) error {
	var raw boundedCacheJSON[V]
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Type != "" && raw.Type != "boundedCache" {
		return fmt.Errorf("unexpected cache discriminator %q", raw.Type)
	}
	if raw.Capacity < 1 {
		raw.Capacity = 1
	}
	c.capacity = raw.Capacity
	c.order = nil
	c.values = make(map[string]V, raw.Capacity)
	for _, key := range raw.Order {
		if v, ok := raw.Values[key]; ok {
			c.Set(key, v)
		}
	}
	return nil
}
