package caching

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoundedCache_EvictsOldestOnOverflow(t *testing.T) {
	c := NewBoundedCache[int](2)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3)

	_, ok := c.Get("a")
	assert.False(t, ok, "oldest key should be evicted")

	b, ok := c.Get("b")
	require.True(t, ok)
	assert.Equal(t, 2, b)

	cv, ok := c.Get("c")
	require.True(t, ok)
	assert.Equal(t, 3, cv)

	assert.Equal(t, []string{"b", "c"}, c.Keys())
}

func TestBoundedCache_SizeNeverExceedsCapacity(t *testing.T) {
	c := NewBoundedCache[int](5)
	for i := 0; i < 100; i++ {
		c.Set(string(rune('a'+i%26))+string(rune('0'+i%10)), i)
		assert.LessOrEqual(t, c.Len(), 5)
	}
}

func TestBoundedCache_ResetKeepsPosition(t *testing.T) {
	c := NewBoundedCache[int](2)

	c.Set("a", 1)
	c.Set("b", 2)
	// Updating "a" must not refresh its position in the eviction order.
	c.Set("a", 10)
	c.Set("c", 3)

	_, ok := c.Get("a")
	assert.False(t, ok, "re-set key keeps its original insertion slot")
	assert.True(t, c.Has("b"))
	assert.True(t, c.Has("c"))
}

func TestBoundedCache_PopOldestAndNewest(t *testing.T) {
	c := NewBoundedCache[string](3)
	c.Set("x", "1")
	c.Set("y", "2")
	c.Set("z", "3")

	k, v, ok := c.PopOldest()
	require.True(t, ok)
	assert.Equal(t, "x", k)
	assert.Equal(t, "1", v)

	k, v, ok = c.PopNewest()
	require.True(t, ok)
	assert.Equal(t, "z", k)
	assert.Equal(t, "3", v)

	assert.Equal(t, 1, c.Len())

	c.Clear()
	_, _, ok = c.PopOldest()
	assert.False(t, ok)
}

func TestBoundedCache_JSONRoundTrip(t *testing.T) {
	c := NewBoundedCache[map[string]any](3)
	c.Set("first", map[string]any{"id": float64(1)})
	c.Set("second", map[string]any{"id": float64(2)})

	raw, err := json.Marshal(c)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"_type":"boundedCache"`)

	restored := NewBoundedCache[map[string]any](1)
	require.NoError(t, json.Unmarshal(raw, restored))

	assert.Equal(t, 3, restored.Capacity())
	assert.Equal(t, []string{"first", "second"}, restored.Keys())

	v, ok := restored.Get("second")
	require.True(t, ok)
	assert.Equal(t, float64(2), v["id"])

	// Eviction order survives the round trip.
	restored.Set("third", map[string]any{"id": float64(3)})
	restored.Set("fourth", map[string]any{"id": float64(4)})
	assert.False(t, restored.Has("first"))
	assert.True(t, restored.Has("fourth"))
}

func TestBoundedList_EvictsOldest(t *testing.T) {
	l := NewBoundedList[string](2)
	l.Append("a")
	l.Append("b")
	l.Append("c")

	assert.Equal(t, []string{"b", "c"}, l.Items())
	assert.False(t, l.Contains("a"))
	assert.True(t, l.Contains("c"))
}

func TestBoundedList_JSONRoundTrip(t *testing.T) {
	l := NewBoundedList[string](4)
	l.Append("u1")
	l.Append("u2")

	raw, err := json.Marshal(l)
	require.NoError(t, err)

	restored := NewBoundedList[string](1)
	require.NoError(t, json.Unmarshal(raw, restored))
	assert.Equal(t, 4, restored.Capacity())
	assert.Equal(t, []string{"u1", "u2"}, restored.Items())
}

func TestSeenSet_AddDeduplicates(t *testing.T) {
	s := NewSeenSet()
	assert.True(t, s.Add("id-1"))
	assert.False(t, s.Add("id-1"))
	assert.True(t, s.Has("id-1"))
	assert.False(t, s.Has("id-2"))
	assert.Equal(t, 1, s.Len())
}

func TestSeenSet_JSONRoundTrip(t *testing.T) {
	s := NewSeenSet()
	s.Add("a")
	s.Add("b")

	raw, err := json.Marshal(s)
	require.NoError(t, err)

	restored := NewSeenSet()
	require.NoError(t, json.Unmarshal(raw, restored))
	assert.True(t, restored.Has("a"))
	assert.True(t, restored.Has("b"))
	assert.Equal(t, 2, restored.Len())
}
