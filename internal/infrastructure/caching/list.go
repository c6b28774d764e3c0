package caching

import (
	"encoding/json"
	"fmt"
)

// BoundedList is a fixed-capacity append-only list that drops its oldest
// element when full. Used for the recently observed render URL history.
type BoundedList[T comparable] struct {
	capacity int
	items    []T
}

// NewBoundedList creates an empty list that holds at most capacity items.
func NewBoundedList[T comparable](capacity int) *BoundedList[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &BoundedList[T]{capacity: capacity}
}

// Append adds item at the end, evicting the oldest item when at capacity.
func (l *BoundedList[T]) Append(item T) {
	l.items = append(l.items, item)
	if len(l.items) > l.capacity {
		l.items = l.items[1:]
	}
}

// Contains reports whether item is present.
func (l *BoundedList[T]) Contains(item T) bool {
	for _, existing := range l.items {
		if existing == item {
			return true
		}
	}
	return false
}

// Items returns a copy of the stored items, oldest first.
func (l *BoundedList[T]) Items() []T {
	out := make([]T, len(l.items))
	copy(out, l.items)
	return out
}

// Len returns the number of stored items.
func (l *BoundedList[T]) Len() int { return len(l.items) }

// Capacity returns the maximum number of items.
func (l *BoundedList[T]) Capacity() int { return l.capacity }

type boundedListJSON[T any] struct {
	Type     string `json:"_type"`
	Capacity int    `json:"capacity"`
	Items    []T    `json:"items"`
}

// MarshalJSON serializes the list with its capacity.
func (l *BoundedList[T]) MarshalJSON() ([]byte, error) {
	items := l.items
	if items == nil {
		items = []T{}
	}
	return json.Marshal(boundedListJSON[T]{
		Type:     "boundedList",
		Capacity: l.capacity,
		Items:    items,
	})
}

// UnmarshalJSON restores a list serialized by MarshalJSON.
func (l *BoundedList[T]) UnmarshalJSON(data []byte) error {
	var raw boundedListJSON[T]
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Type != "" && raw.Type != "boundedList" {
		return fmt.Errorf("unexpected list discriminator %q", raw.Type)
	}
	if raw.Capacity < 1 {
		raw.Capacity = 1
	}
	l.capacity = raw.Capacity
	l.items = nil
	for _, item := range raw.Items {
		l.Append(item)
	}
	return nil
}

// SeenSet is an unbounded deduplication set of string ids. It serializes as
// a plain array.
type SeenSet struct {
	members map[string]struct{}
}

// NewSeenSet creates an empty set.
func NewSeenSet() *SeenSet {
	return &SeenSet{members: make(map[string]struct{})}
}

// Add inserts id and reports whether it was newly added.
func (s *SeenSet) Add(id string) bool {
	if _, exists := s.members[id]; exists {
		return false
	}
	s.members[id] = struct{}{}
	return true
}

// Has reports whether id is present.
func (s *SeenSet) Has(id string) bool {
	_, exists := s.members[id]
	return exists
}

// Len returns the number of members.
func (s *SeenSet) Len() int { return len(s.members) }

// MarshalJSON serializes the set as an array of ids.
func (s *SeenSet) MarshalJSON() ([]byte, error) {
	ids := make([]string, 0, len(s.members))
	for id := range s.members {
		ids = append(ids, id)
	}
	return json.Marshal(ids)
}

// UnmarshalJSON restores a set serialized by MarshalJSON.
func (s *SeenSet) UnmarshalJSON(data []byte) error {
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	s.members = make(map[string]struct{}, len(ids))
	for _, id := range ids {
		s.members[id] = struct{}{}
	}
	return nil
}
