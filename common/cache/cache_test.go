package cache

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache(t *testing.T) {
	t.Parallel()
	c := NewLRU[string, string](5)
	c.Add("hello", "world")
	assert.True(t, c.Contains("hello"))

	v, ok := c.Get("hello")
	require.True(t, ok)
	assert.Equal(t, "world", v)

	assert.True(t, c.Remove("hello"))
	assert.False(t, c.Remove("hello"))
	_, ok = c.Get("hello")
	assert.False(t, ok)
}

func TestEviction(t *testing.T) {
	t.Parallel()
	c := NewLRU[int, int](2)
	c.Add(1, 1)
	c.Add(2, 2)
	c.Add(3, 3)
	assert.Equal(t, 2, c.Len())
	assert.False(t, c.Contains(1), "oldest entry is evicted")

	k, ok := c.oldest()
	require.True(t, ok)
	assert.Equal(t, 2, k)

	_, ok = c.Get(2)
	require.True(t, ok)
	k, _ = c.oldest()
	assert.Equal(t, 3, k, "get marks an entry as recently used")

	c.Add(3, 30)
	v, _ := c.Get(3)
	assert.Equal(t, 30, v, "add replaces existing values")
	k, _ = c.oldest()
	assert.Equal(t, 2, k)
}

func TestClear(t *testing.T) {
	t.Parallel()
	c := NewLRU[int, int](0)
	c.Add(1, 1)
	c.Add(2, 2)
	assert.Equal(t, 1, c.Len(), "capacity is at least one")
	c.Clear()
	assert.Zero(t, c.Len())
	_, ok := c.oldest()
	assert.False(t, ok)
}

func TestConcurrentAccess(t *testing.T) {
	t.Parallel()
	c := NewLRU[int, int](10)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.Add(i*100+j, j)
				c.Get(j)
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 10, c.Len())
}
