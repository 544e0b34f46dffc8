package vlist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRangeCacheInsert(t *testing.T) {
	c, err := NewRangeCache[string](10, 0)
	require.NoError(t, err)

	c.Insert(20, []string{"a", "b", "c"})
	assert.Equal(t, 3, c.Len())
	assert.Equal(t, -1, c.Pages())

	v, ok := c.Get(21)
	assert.True(t, ok)
	assert.Equal(t, "b", v)
	assert.False(t, c.Has(19))
	assert.False(t, c.Has(23))

	c.Insert(21, []string{"B"})
	v, _ = c.Get(21)
	assert.Equal(t, "B", v)
	assert.Equal(t, 3, c.Len())

	c.Clear()
	assert.Equal(t, 0, c.Len())
	assert.False(t, c.Has(20))
}

func TestRangeCacheInvalidPageSize(t *testing.T) {
	_, err := NewRangeCache[int](0, 0)
	assert.ErrorIs(t, err, ErrInvalidPageSize)
}

func TestRangeCacheEvictsPages(t *testing.T) {
	c, err := NewRangeCache[int](10, 2)
	require.NoError(t, err)

	for p := 0; p < 4; p++ {
		c.Insert(p*10, seq(p*10, 10))
	}

	assert.Equal(t, 2, c.Pages())
	assert.Equal(t, 20, c.Len())
	assert.False(t, c.Has(0))
	assert.False(t, c.Has(19))
	assert.True(t, c.Has(20))
	assert.True(t, c.Has(39))
}

func TestRangeCachePin(t *testing.T) {
	c, err := NewRangeCache[int](10, 2)
	require.NoError(t, err)
	c.Insert(0, seq(0, 10))
	c.Insert(10, seq(10, 10))

	c.Pin(Range{Start: 0, End: 9})
	c.Insert(20, seq(20, 10))
	assert.True(t, c.Has(0), "pinned page must survive")
	assert.False(t, c.Has(10))

	c.Pin(Range{Start: 0, End: 39})
	c.Insert(10, seq(10, 10))
	c.Insert(30, seq(30, 10))
	assert.Equal(t, 4, c.Pages())
	for i := 0; i < 40; i++ {
		assert.True(t, c.Has(i), "index %d", i)
	}

	c.Clear()
	assert.Equal(t, 0, c.Pages())
	assert.Equal(t, 0, c.Len())
}

func TestRangeCacheNeverEvictsPinned(t *testing.T) {
	c, err := NewRangeCache[int](10, 1)
	require.NoError(t, err)
	c.Insert(0, seq(0, 10))

	c.Pin(Range{Start: 500, End: 515})
	c.Insert(500, seq(500, 10))
	c.Insert(510, seq(510, 10))
	assert.False(t, c.Has(0), "unpinned page makes room")

	c.Insert(10, seq(10, 10))
	assert.False(t, c.Has(10), "no room for a page outside the window")
	assert.True(t, c.Has(500))
	assert.True(t, c.Has(519))
	assert.Equal(t, 2, c.Pages())

	c.Pin(Range{Start: 10, End: 19})
	c.Insert(10, seq(10, 10))
	assert.True(t, c.Has(10))
	assert.Equal(t, 1, c.Pages())
}

func TestActiveRequests(t *testing.T) {
	a := NewActiveRequests()

	assert.True(t, a.TryReserve(3))
	assert.False(t, a.TryReserve(3))
	assert.True(t, a.TryReserve(1))
	assert.True(t, a.Has(3))
	assert.Equal(t, []int{1, 3}, a.Pages())

	a.Release(3)
	assert.False(t, a.Has(3))
	assert.True(t, a.TryReserve(3))

	a.Clear()
	assert.Equal(t, 0, a.Len())
}

func TestSchedulerMissing(t *testing.T) {
	s := NewScheduler(200)
	cached := map[int]bool{}
	has := func(i int) bool { return cached[i] }

	assert.Equal(t, []int{0}, s.Missing(Range{Start: 0, End: 23}, has, NewActiveRequests()))
	assert.Equal(t, []int{2}, s.Missing(Range{Start: 490, End: 523}, has, NewActiveRequests()))
	assert.Equal(t, []int{0, 1}, s.Missing(Range{Start: 190, End: 210}, has, NewActiveRequests()))
	assert.Empty(t, s.Missing(EmptyRange, has, NewActiveRequests()))

	for i := 190; i < 200; i++ {
		cached[i] = true
	}
	assert.Equal(t, []int{1}, s.Missing(Range{Start: 190, End: 210}, has, NewActiveRequests()))

	inflight := NewActiveRequests()
	inflight.TryReserve(1)
	assert.Empty(t, s.Missing(Range{Start: 190, End: 210}, has, inflight))
}

func TestSchedulerPages(t *testing.T) {
	s := NewScheduler(200)

	assert.Equal(t, 2, s.PageOf(490))
	assert.Equal(t, 400, s.Offset(2))
	assert.Equal(t, []int{0, 1, 2}, s.PagesFor(Range{Start: 199, End: 400}))
	assert.Nil(t, s.PagesFor(EmptyRange))
}

func TestRangeWiden(t *testing.T) {
	assert.Equal(t, Range{Start: 480, End: 533}, Range{Start: 490, End: 523}.Widen(10, 1000))
	assert.Equal(t, Range{Start: 0, End: 999}, Range{Start: 3, End: 995}.Widen(10, 1000))
	assert.Equal(t, EmptyRange, EmptyRange.Widen(10, 1000))
	assert.Equal(t, EmptyRange, Range{Start: 0, End: 3}.Widen(10, 0))
	assert.Equal(t, 34, Range{Start: 490, End: 523}.Len())
	assert.True(t, Range{Start: 1, End: 2}.Contains(2))
	assert.False(t, EmptyRange.Contains(0))
}

func seq(from, n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = from + i
	}
	return out
}
