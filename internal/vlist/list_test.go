package vlist

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListInitialFetch(t *testing.T) {
	h := newHarness(t, Options[string]{PageSize: 200, RowHeight: 40, Height: 520, Overscan: 10})
	src := newSource("a", 1000)

	h.l.SetQuery("q1", src)
	assert.Equal(t, []int{0}, h.l.InFlight())
	assert.Equal(t, EmptyRange, h.l.Range())

	h.flush()
	assert.Equal(t, Range{Start: 0, End: 23}, h.l.Range())
	assert.Equal(t, []int{0}, src.offsets())
	assert.Equal(t, Counts{Total: 1000, Filtered: 1000}, h.l.Counts())
	assert.Equal(t, 1000*40, h.l.ContentHeight())
	assert.True(t, h.l.Loaded())

	v, ok := h.l.Row(23)
	assert.True(t, ok)
	assert.Equal(t, "a-23", v)
}

func TestListScrollFetchesPage(t *testing.T) {
	h := newHarness(t, Options[string]{PageSize: 200, RowHeight: 40, Height: 520, Overscan: 10})
	src := newSource("a", 1000)
	h.l.SetQuery("q1", src)
	h.flush()

	h.l.ScrollTo(20000)
	assert.Equal(t, 490, h.l.Range().Start)
	assert.Equal(t, []int{2}, h.l.InFlight())

	h.flush()
	assert.Equal(t, []int{0, 400}, src.offsets())
	assert.True(t, h.l.Loaded())
	assert.Equal(t, 500, h.l.TopIndex())
}

func TestListDedupsInFlightPages(t *testing.T) {
	h := newHarness(t, Options[string]{PageSize: 200, RowHeight: 40, Height: 520, Overscan: 10})
	src := newSource("a", 1000)
	h.l.SetQuery("q1", src)
	h.flush()

	for top := 20000; top < 20400; top += 40 {
		h.l.ScrollTo(top)
	}
	assert.Equal(t, []int{2}, h.l.InFlight())
	assert.Len(t, h.queue, 1)

	h.flush()
	assert.Equal(t, []int{0, 400}, src.offsets())
}

func TestListQueryChangeResets(t *testing.T) {
	var counts []Counts
	h := newHarness(t, Options[string]{
		PageSize: 200, RowHeight: 40, Height: 520,
		OnCountsChange: func(c Counts) { counts = append(counts, c) },
	})
	h.l.SetQuery("q1", newSource("a", 1000))
	h.flush()
	h.l.ScrollTo(20000)
	h.flush()

	q2 := newSource("b", 300)
	h.l.SetQuery("q2", q2)
	assert.Equal(t, 0, h.l.ScrollTop())
	assert.Equal(t, Counts{}, h.l.Counts())
	assert.False(t, h.l.CountsKnown())
	assert.Equal(t, []int{0}, h.l.InFlight())
	_, ok := h.l.Row(0)
	assert.False(t, ok)

	h.flush()
	v, ok := h.l.Row(0)
	assert.True(t, ok)
	assert.Equal(t, "b-0", v)
	_, ok = h.l.Row(490)
	assert.False(t, ok)
	assert.Equal(t, []int{0}, q2.offsets())
	assert.Equal(t, []Counts{{}, {1000, 1000}, {}, {300, 300}}, counts)
}

func TestListSameQueryKeepsState(t *testing.T) {
	h := newHarness(t, Options[string]{PageSize: 200, RowHeight: 40, Height: 520})
	src := newSource("a", 1000)
	h.l.SetQuery("q1", src)
	h.flush()
	h.l.ScrollTo(20000)
	h.flush()

	h.l.SetQuery("q1", src)
	assert.Equal(t, 20000, h.l.ScrollTop())
	assert.Empty(t, h.l.InFlight())
	assert.Equal(t, []int{0, 400}, src.offsets())
}

func TestListStaleResponsesDropped(t *testing.T) {
	h := newHarness(t, Options[string]{PageSize: 200, RowHeight: 40, Height: 520})
	q1, q2 := newSource("a", 1000), newSource("b", 50)

	h.l.SetQuery("q1", q1)
	h.l.SetQuery("q2", q2)
	require.Len(t, h.queue, 2)

	// Land the newest request first, then the stale one.
	h.run(1)
	h.run(0)

	assert.Equal(t, Counts{Total: 50, Filtered: 50}, h.l.Counts())
	assert.Equal(t, Range{Start: 0, End: 23}, h.l.Range())
	v, _ := h.l.Row(10)
	assert.Equal(t, "b-10", v)
	_, ok := h.l.Row(60)
	assert.False(t, ok)
	assert.Empty(t, h.l.InFlight())
}

func TestListStaleResponseKeepsReservation(t *testing.T) {
	h := newHarness(t, Options[string]{PageSize: 200, RowHeight: 40, Height: 520})

	h.l.SetQuery("q1", newSource("a", 1000))
	h.l.SetQuery("q2", newSource("b", 1000))
	h.l.SetQuery("q3", newSource("c", 1000))
	require.Len(t, h.queue, 3)

	h.run(0)
	h.run(0)
	assert.Equal(t, []int{0}, h.l.InFlight())
	assert.False(t, h.l.CountsKnown())

	h.run(0)
	assert.Empty(t, h.l.InFlight())
	v, _ := h.l.Row(0)
	assert.Equal(t, "c-0", v)
}

func TestListReloadKeepsScrollAndCache(t *testing.T) {
	var replaced int
	h := newHarness(t, Options[string]{
		PageSize: 200, RowHeight: 40, Height: 520, Overscan: 10,
		OnReplace: func(int, string, string) { replaced++ },
	})
	src := newSource("a", 1000)
	h.l.SetQuery("q1", src)
	h.l.SetReloadToken("t0")
	h.flush()
	h.l.ScrollTo(20000)
	h.flush()
	require.Equal(t, []int{0, 400}, src.offsets())

	src.tag = "b"
	h.l.SetReloadToken("t1")
	assert.Equal(t, []int{2}, h.l.InFlight())
	assert.Equal(t, 20000, h.l.ScrollTop())

	v, ok := h.l.Row(490)
	assert.True(t, ok, "rows stay visible while refreshing")
	assert.Equal(t, "a-490", v)

	h.flush()
	assert.Equal(t, []int{0, 400, 400}, src.offsets())
	assert.Equal(t, 20000, h.l.ScrollTop())
	v, _ = h.l.Row(490)
	assert.Equal(t, "b-490", v)
	v, ok = h.l.Row(5)
	assert.True(t, ok)
	assert.Equal(t, "a-5", v, "pages outside the refresh window are untouched")
	assert.Equal(t, 200, replaced)
}

func TestListReloadSameTokenIsNoop(t *testing.T) {
	h := newHarness(t, Options[string]{PageSize: 200, RowHeight: 40, Height: 520})
	src := newSource("a", 1000)
	h.l.SetQuery("q1", src)
	h.l.SetReloadToken("t0")
	h.flush()

	h.l.SetReloadToken("t0")
	assert.Empty(t, h.queue)
}

func TestListReloadWhileInFlight(t *testing.T) {
	h := newHarness(t, Options[string]{PageSize: 200, RowHeight: 40, Height: 520})
	src := newSource("a", 1000)
	h.l.SetQuery("q1", src)
	h.l.SetReloadToken("t0")

	h.l.SetReloadToken("t1")
	assert.Len(t, h.queue, 1, "a page is never requested twice concurrently")

	h.flush()
	assert.Equal(t, []int{0, 0}, src.offsets())
	assert.Empty(t, h.l.InFlight())
}

func TestListReloadWidensWindow(t *testing.T) {
	h := newHarness(t, Options[string]{PageSize: 100, RowHeight: 1, Height: 20, Overscan: 5})
	src := newSource("a", 1000)
	h.l.SetQuery("q1", src)
	h.l.SetReloadToken("t0")
	h.flush()
	h.l.ScrollTo(190)
	h.flush()
	require.Equal(t, Range{Start: 185, End: 215}, h.l.Range())
	require.Equal(t, []int{0, 100, 200}, src.offsets())

	h.l.SetReloadToken("t1")
	h.flush()
	assert.Equal(t, []int{0, 100, 200, 100, 200}, src.offsets())
}

func TestListEmptyResult(t *testing.T) {
	h := newHarness(t, Options[string]{PageSize: 200, RowHeight: 40, Height: 520, HeaderHeight: 32})
	src := newSource("a", 0)
	src.total = 12
	h.l.SetQuery("q1", src)
	h.flush()

	assert.Equal(t, EmptyRange, h.l.Range())
	assert.Equal(t, Counts{Total: 12, Filtered: 0}, h.l.Counts())
	assert.Equal(t, 32, h.l.ContentHeight())
	assert.Equal(t, []int{0}, src.offsets())
	assert.True(t, h.l.Loaded())

	h.l.ScrollBy(400)
	assert.Equal(t, 0, h.l.ScrollTop())
	assert.Empty(t, h.queue)

	h.l.SetReloadToken("t0")
	h.l.SetReloadToken("t1")
	h.flush()
	assert.Equal(t, []int{0, 0}, src.offsets(), "empty window probes the first page")
}

func TestListNeverRequestsPastFilteredCount(t *testing.T) {
	h := newHarness(t, Options[string]{PageSize: 200, RowHeight: 40, Height: 520})
	src := newSource("a", 250)
	h.l.SetQuery("q1", src)
	h.flush()

	for top := 0; top < 1<<16; top += 333 {
		h.l.ScrollTo(top)
		h.flush()
	}
	h.l.ScrollToIndex(10_000)
	h.flush()

	assert.Equal(t, 249, h.l.Range().End)
	assert.Equal(t, []int{0, 200}, src.offsets())
	for _, off := range src.offsets() {
		assert.Less(t, off, 250)
	}
}

func TestListFetchFailureReleases(t *testing.T) {
	h := newHarness(t, Options[string]{PageSize: 200, RowHeight: 40, Height: 520})
	src := newSource("a", 1000)
	src.fail = map[int]error{400: errors.New("boom")}
	h.l.SetQuery("q1", src)
	h.flush()

	h.l.ScrollTo(20000)
	h.flush()
	assert.Empty(t, h.l.InFlight())
	_, ok := h.l.Row(490)
	assert.False(t, ok)
	assert.False(t, h.l.Loaded())

	delete(src.fail, 400)
	h.l.ScrollBy(40)
	h.flush()
	assert.Equal(t, []int{0, 400, 400}, src.offsets())
	assert.True(t, h.l.Loaded())
}

func TestListMalformedResponse(t *testing.T) {
	h := newHarness(t, Options[string]{PageSize: 200, RowHeight: 40, Height: 520})
	bad := FetcherFunc[string](func(_ context.Context, offset, limit int) (Page[string], error) {
		return Page[string]{Offset: offset, Limit: limit, Items: []string{"x"}, TotalCount: -1, FilteredCount: -1}, nil
	})
	h.l.SetQuery("q1", bad)
	h.flush()

	assert.False(t, h.l.CountsKnown())
	assert.Empty(t, h.l.InFlight())
	_, ok := h.l.Row(0)
	assert.False(t, ok)
}

func TestListShortPageNotRefetchedInLoop(t *testing.T) {
	h := newHarness(t, Options[string]{PageSize: 200, RowHeight: 40, Height: 520})
	short := FetcherFunc[string](func(_ context.Context, offset, limit int) (Page[string], error) {
		return Page[string]{Offset: offset, Limit: limit, Items: []string{"x"}, TotalCount: 1000, FilteredCount: 1000}, nil
	})
	h.l.SetQuery("q1", short)
	h.flush()

	assert.Empty(t, h.l.InFlight())
	assert.False(t, h.l.Loaded())
}

func TestListVersionAndChanges(t *testing.T) {
	var versions []uint64
	var ranges []Range
	h := newHarness(t, Options[string]{
		PageSize: 200, RowHeight: 40, Height: 520,
		OnChange:      func(v uint64) { versions = append(versions, v) },
		OnRangeChange: func(r Range) { ranges = append(ranges, r) },
	})
	h.l.SetQuery("q1", newSource("a", 1000))
	h.flush()
	h.l.ScrollTo(20000)
	h.flush()

	assert.Equal(t, []uint64{1, 2, 3}, versions)
	assert.Equal(t, uint64(3), h.l.Version())
	assert.Equal(t, []Range{{0, 23}, {490, 523}}, ranges)
}

func TestListResize(t *testing.T) {
	h := newHarness(t, Options[string]{PageSize: 50, RowHeight: 1, Overscan: NoOverscan})
	src := newSource("a", 1000)
	h.l.SetQuery("q1", src)
	h.flush()
	assert.Equal(t, Range{Start: 0, End: 0}, h.l.Range())

	h.l.Resize(120)
	h.flush()
	assert.Equal(t, Range{Start: 0, End: 120}, h.l.Range())
	assert.Equal(t, []int{0, 50, 100}, src.offsets())

	h.l.SetHeaderHeight(1)
	assert.Equal(t, Range{Start: 0, End: 119}, h.l.Range())
	assert.Equal(t, 119, h.l.VisibleRows())
}

func TestListCloseDropsLateResponses(t *testing.T) {
	h := newHarness(t, Options[string]{PageSize: 200, RowHeight: 40, Height: 520})
	src := newSource("a", 1000)
	h.l.SetQuery("q1", src)
	h.l.Close()
	h.flush()

	assert.False(t, h.l.CountsKnown())
	_, ok := h.l.Row(0)
	assert.False(t, ok)

	h.l.SetQuery("q2", src)
	assert.Empty(t, h.queue)
}

func TestListRender(t *testing.T) {
	h := newHarness(t, Options[string]{PageSize: 10, RowHeight: 2, Height: 10, HeaderHeight: 2, Overscan: NoOverscan})
	src := newSource("a", 100)
	h.l.SetQuery("q1", src)
	h.flush()

	h.l.ScrollTo(h.l.scroll.ScrollTopFor(8))
	views := Window(h.l, func(i int, row string, loaded bool, layout RowLayout) string {
		if !loaded {
			return fmt.Sprintf("%d:loading@%d", i, layout.Top)
		}
		return fmt.Sprintf("%s@%d", row, layout.Top)
	})
	assert.Equal(t, []string{"a-8@18", "a-9@20", "10:loading@22", "11:loading@24", "12:loading@26"}, views)

	h.flush()
	views = Window(h.l, func(_ int, row string, _ bool, _ RowLayout) string { return row })
	assert.Equal(t, []string{"a-8", "a-9", "a-10", "a-11", "a-12"}, views)
}

func TestListBoundedCache(t *testing.T) {
	h := newHarness(t, Options[string]{PageSize: 10, RowHeight: 1, Height: 10, Overscan: NoOverscan, MaxCachedPages: 2})
	src := newSource("a", 1000)
	h.l.SetQuery("q1", src)
	h.flush()

	for top := 0; top <= 100; top += 10 {
		h.l.ScrollTo(top)
		h.flush()
		assert.True(t, h.l.Loaded(), "top=%d", top)
	}
	assert.LessOrEqual(t, h.l.cache.Pages(), 2)

	h.l.ScrollTo(0)
	h.flush()
	offs := src.offsets()
	assert.Equal(t, []int{0, 10}, offs[len(offs)-2:], "evicted pages are fetched again")
	assert.True(t, h.l.Loaded())
}

func TestListBoundedCacheKeepsWindowOnLatePage(t *testing.T) {
	h := newHarness(t, Options[string]{PageSize: 10, RowHeight: 1, Height: 15, Overscan: NoOverscan, MaxCachedPages: 1})
	h.l.SetQuery("q1", newSource("a", 1000))
	h.run(0)
	require.Len(t, h.queue, 1, "page 1 pending")

	h.l.ScrollTo(500)
	require.Len(t, h.queue, 3)
	h.run(1)
	h.run(1)
	require.True(t, h.l.Loaded())

	// Page 1 lands after the user moved on.
	h.run(0)
	assert.True(t, h.l.Loaded())
	assert.True(t, h.l.Idle())
	for i := 500; i <= 515; i++ {
		assert.True(t, h.l.cache.Has(i), "index %d", i)
	}
	assert.False(t, h.l.cache.Has(10))
	assert.LessOrEqual(t, h.l.cache.Pages(), 2)
}

func TestNewValidation(t *testing.T) {
	_, err := New(Options[int]{})
	assert.ErrorIs(t, err, ErrNoDispatcher)

	_, err = New(Options[int]{Dispatch: func(f func()) { f() }, PageSize: -1})
	assert.ErrorIs(t, err, ErrInvalidPageSize)

	l, err := New(Options[int]{Dispatch: func(f func()) { f() }})
	require.NoError(t, err)
	assert.Equal(t, DefaultPageSize, l.PageSize())
	assert.Equal(t, DefaultOverscan, l.scroll.Overscan())
}

// Helpers...

// harness runs fetches on demand and delivers completions inline so tests
// control arrival order.
type harness struct {
	t     *testing.T
	l     *List[string]
	queue []func()
}

func newHarness(t *testing.T, opts Options[string]) *harness {
	h := harness{t: t}
	opts.Go = func(f func()) { h.queue = append(h.queue, f) }
	opts.Dispatch = func(f func()) { f() }
	l, err := New(opts)
	require.NoError(t, err)
	h.l = l

	return &h
}

func (h *harness) run(i int) {
	require.Less(h.t, i, len(h.queue))
	f := h.queue[i]
	h.queue = append(h.queue[:i], h.queue[i+1:]...)
	f()
}

func (h *harness) flush() {
	for n := 0; len(h.queue) > 0; n++ {
		require.Less(h.t, n, 10_000, "fetch loop")
		h.run(0)
	}
}

type source struct {
	tag             string
	total, filtered int
	calls           []int
	fail            map[int]error
}

func newSource(tag string, n int) *source {
	return &source{tag: tag, total: n, filtered: n}
}

func (s *source) offsets() []int {
	return s.calls
}

func (s *source) LoadRange(_ context.Context, offset, limit int) (Page[string], error) {
	s.calls = append(s.calls, offset)
	if err := s.fail[offset]; err != nil {
		return Page[string]{}, err
	}
	items := make([]string, max(0, min(limit, s.filtered-offset)))
	for i := range items {
		items[i] = fmt.Sprintf("%s-%d", s.tag, offset+i)
	}

	return Page[string]{
		Offset:        offset,
		Limit:         limit,
		Items:         items,
		TotalCount:    s.total,
		FilteredCount: s.filtered,
	}, nil
}
