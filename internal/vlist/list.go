package vlist

import (
	"context"
	"log/slog"
)

const (
	// DefaultPageSize is the number of rows requested per fetch.
	DefaultPageSize = 200

	// DefaultOverscan is the number of rows kept beyond each viewport edge.
	DefaultOverscan = 10

	// NoOverscan disables overscan.
	NoOverscan = -1
)

// Options configures a List.
type Options[T any] struct {
	// PageSize is the fetch granularity. Defaults to DefaultPageSize.
	PageSize int

	// Overscan rows beyond the viewport. Zero means DefaultOverscan, use
	// NoOverscan to disable.
	Overscan int

	// RowHeight, Height and HeaderHeight describe the layout in one unit.
	RowHeight    int
	Height       int
	HeaderHeight int

	// MaxCachedPages bounds the row cache. Zero keeps every page until the
	// query changes.
	MaxCachedPages int

	// Dispatch posts fetch completions back onto the goroutine owning the list.
	Dispatch func(func())

	// Go runs a fetch. Defaults to a new goroutine.
	Go func(func())

	Logger *slog.Logger

	OnCountsChange func(Counts)
	OnRangeChange  func(Range)
	OnChange       func(version uint64)
	OnReplace      func(index int, prev, next T)
}

// List drives a remote backed virtual list. It owns the row cache, the
// in-flight page set and the scroll window for one query at a time.
//
// A List is not safe for concurrent use: every method must be called from the
// goroutine Options.Dispatch delivers to.
type List[T any] struct {
	opts     Options[T]
	log      *slog.Logger
	cache    *RangeCache[T]
	inflight *ActiveRequests
	scroll   *ScrollTracker
	sched    Scheduler
	fetcher  Fetcher[T]

	key         string
	keyed       bool
	token       string
	tokenSet    bool
	gen         uint64
	ctx         context.Context
	cancel      context.CancelFunc
	counts      Counts
	countsKnown bool
	rng         Range
	version     uint64
	refresh     map[int]struct{}
	closed      bool
}

// New returns a list with no query.
func New[T any](opts Options[T]) (*List[T], error) {
	if opts.Dispatch == nil {
		return nil, ErrNoDispatcher
	}
	if opts.PageSize == 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.PageSize < 0 {
		return nil, ErrInvalidPageSize
	}
	switch {
	case opts.Overscan == 0:
		opts.Overscan = DefaultOverscan
	case opts.Overscan < 0:
		opts.Overscan = 0
	}
	if opts.Go == nil {
		opts.Go = func(f func()) { go f() }
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	cache, err := NewRangeCache[T](opts.PageSize, opts.MaxCachedPages)
	if err != nil {
		return nil, err
	}

	return &List[T]{
		opts:     opts,
		log:      opts.Logger,
		cache:    cache,
		inflight: NewActiveRequests(),
		scroll:   NewScrollTracker(opts.RowHeight, opts.Height, opts.HeaderHeight, opts.Overscan),
		sched:    NewScheduler(opts.PageSize),
		rng:      EmptyRange,
		refresh:  make(map[int]struct{}),
	}, nil
}

// SetQuery binds the list to a query identity. A new key drops every cached
// row, resets the scroll offset and requests the first page. The same key
// only swaps the fetcher used for subsequent requests.
func (l *List[T]) SetQuery(key string, f Fetcher[T]) {
	if l.closed {
		return
	}
	l.fetcher = f
	if l.keyed && key == l.key {
		return
	}
	l.key, l.keyed = key, true
	l.reset()
}

// SetReloadToken signals the data behind the current query may have
// changed. A new token re-requests the pages around the visible window while
// keeping the scroll offset and the cached rows.
func (l *List[T]) SetReloadToken(tok string) {
	if l.closed {
		return
	}
	if !l.tokenSet {
		l.token, l.tokenSet = tok, true
		return
	}
	if tok == l.token {
		return
	}
	l.token = tok
	l.softRefresh()
}

// ScrollTo sets the scroll offset.
func (l *List[T]) ScrollTo(top int) {
	l.scroll.SetScrollTop(top)
	if l.countsKnown {
		l.scroll.ClampScrollTop(l.counts.Filtered)
	}
	l.recompute()
}

// ScrollBy moves the scroll offset by delta.
func (l *List[T]) ScrollBy(delta int) {
	l.ScrollTo(l.scroll.ScrollTop() + delta)
}

// ScrollToIndex scrolls so row i sits at the top of the body.
func (l *List[T]) ScrollToIndex(i int) {
	if l.countsKnown {
		i = min(i, l.counts.Filtered-1)
	}
	l.ScrollTo(l.scroll.ScrollTopFor(max(0, i)))
}

// Resize records a new viewport height.
func (l *List[T]) Resize(height int) {
	if height == l.scroll.Viewport() {
		return
	}
	l.scroll.SetViewport(height)
	l.recompute()
}

// SetHeaderHeight records a new sticky header height.
func (l *List[T]) SetHeaderHeight(h int) {
	if h == l.scroll.HeaderHeight() {
		return
	}
	l.scroll.SetHeaderHeight(h)
	l.recompute()
}

// Close cancels outstanding fetches. Late completions are dropped.
func (l *List[T]) Close() {
	if l.closed {
		return
	}
	l.closed = true
	l.gen++
	if l.cancel != nil {
		l.cancel()
	}
	l.inflight.Clear()
}

// Key returns the active query identity.
func (l *List[T]) Key() string { return l.key }

// ReloadToken returns the last observed reload token.
func (l *List[T]) ReloadToken() string { return l.token }

// Generation returns the query generation stamped on outgoing requests.
func (l *List[T]) Generation() uint64 { return l.gen }

// Version increments on every cache mutation.
func (l *List[T]) Version() uint64 { return l.version }

// Counts returns the last reported counts.
func (l *List[T]) Counts() Counts { return l.counts }

// CountsKnown returns true once a page of the current query landed.
func (l *List[T]) CountsKnown() bool { return l.countsKnown }

// Range returns the materialized window.
func (l *List[T]) Range() Range { return l.rng }

// InFlight returns the pages awaiting a response.
func (l *List[T]) InFlight() []int { return l.inflight.Pages() }

// Idle returns true when no request is outstanding.
func (l *List[T]) Idle() bool { return l.inflight.Len() == 0 }

// PageSize returns the fetch granularity.
func (l *List[T]) PageSize() int { return l.sched.PageSize() }

// ScrollTop returns the scroll offset.
func (l *List[T]) ScrollTop() int { return l.scroll.ScrollTop() }

// ContentHeight returns the scrollable height for the current counts.
func (l *List[T]) ContentHeight() int { return l.scroll.ContentHeight(l.counts.Filtered) }

// TopIndex returns the first row intersecting the viewport body.
func (l *List[T]) TopIndex() int { return l.scroll.TopIndex() }

// VisibleRows returns the number of rows fitting the viewport body.
func (l *List[T]) VisibleRows() int { return l.scroll.VisibleRows() }

// Row returns the cached row at index i.
func (l *List[T]) Row(i int) (T, bool) {
	return l.cache.Get(i)
}

// Loaded returns true when every row of the window is cached.
func (l *List[T]) Loaded() bool {
	for i := l.rng.Start; i <= l.rng.End; i++ {
		if !l.cache.Has(i) {
			return false
		}
	}
	return l.countsKnown
}

func (l *List[T]) reset() {
	l.gen++
	if l.cancel != nil {
		l.cancel()
	}
	l.ctx, l.cancel = context.WithCancel(context.Background())
	l.cache.Clear()
	l.inflight.Clear()
	clear(l.refresh)
	l.counts, l.countsKnown = Counts{}, false
	l.scroll.SetScrollTop(0)
	l.log.Debug("query reset", "key", l.key, "gen", l.gen)

	l.setRange(EmptyRange)
	l.notifyCounts()
	l.touch()
	l.request(0)
}

func (l *List[T]) softRefresh() {
	if !l.keyed || l.fetcher == nil {
		return
	}
	w := l.scroll.Range(l.counts.Filtered).Widen(l.scroll.Overscan(), l.counts.Filtered)
	pages := l.sched.PagesFor(w)
	if len(pages) == 0 {
		pages = []int{0}
	}
	l.log.Debug("soft refresh", "key", l.key, "window", w.String(), "pages", len(pages))
	for _, p := range pages {
		if !l.request(p) {
			l.refresh[p] = struct{}{}
		}
	}
}

func (l *List[T]) recompute() {
	l.recomputeExcept(-1)
}

// recomputeExcept refreshes the window and requests missing pages other than
// skip. A page that just landed short is left for the next scroll to retry.
func (l *List[T]) recomputeExcept(skip int) {
	r := l.scroll.Range(l.counts.Filtered)
	l.cache.Pin(r)
	l.setRange(r)
	for _, p := range l.sched.Missing(r, l.cache.Has, l.inflight) {
		if p != skip {
			l.request(p)
		}
	}
}

// request issues a fetch for page p unless one is already outstanding.
func (l *List[T]) request(p int) bool {
	if l.fetcher == nil || !l.inflight.TryReserve(p) {
		return false
	}
	gen, ctx, f := l.gen, l.ctx, l.fetcher
	offset, limit := l.sched.Offset(p), l.sched.PageSize()
	l.log.Debug("fetch page", "key", l.key, "page", p, "offset", offset, "limit", limit, "gen", gen)
	l.opts.Go(func() {
		page, err := f.LoadRange(ctx, offset, limit)
		l.opts.Dispatch(func() {
			l.complete(gen, p, offset, limit, page, err)
		})
	})

	return true
}

func (l *List[T]) complete(gen uint64, p, offset, limit int, page Page[T], err error) {
	if gen != l.gen {
		l.log.Debug("stale page dropped", "page", p, "gen", gen, "current", l.gen)
		return
	}
	l.inflight.Release(p)
	if err == nil {
		err = page.Validate(offset, limit)
	}
	if err != nil {
		delete(l.refresh, p)
		l.log.Warn("page load failed", "key", l.key, "page", p, "offset", offset, "error", err)
		return
	}

	l.store(offset, page.Items)
	if c := page.Counts(); !l.countsKnown || c != l.counts {
		l.counts, l.countsKnown = c, true
		l.scroll.ClampScrollTop(c.Filtered)
		l.notifyCounts()
	}
	l.touch()
	l.recomputeExcept(p)

	if _, ok := l.refresh[p]; ok {
		delete(l.refresh, p)
		if p == 0 || l.sched.Offset(p) < l.counts.Filtered {
			l.request(p)
		}
	}
}

func (l *List[T]) store(offset int, items []T) {
	if l.opts.OnReplace == nil {
		l.cache.Insert(offset, items)
		return
	}
	type replaced struct {
		i          int
		prev, next T
	}
	var rr []replaced
	for i, it := range items {
		if prev, ok := l.cache.Get(offset + i); ok {
			rr = append(rr, replaced{i: offset + i, prev: prev, next: it})
		}
	}
	l.cache.Insert(offset, items)
	for _, r := range rr {
		l.opts.OnReplace(r.i, r.prev, r.next)
	}
}

func (l *List[T]) setRange(r Range) {
	if r == l.rng {
		return
	}
	l.rng = r
	if l.opts.OnRangeChange != nil {
		l.opts.OnRangeChange(r)
	}
}

func (l *List[T]) touch() {
	l.version++
	if l.opts.OnChange != nil {
		l.opts.OnChange(l.version)
	}
}

func (l *List[T]) notifyCounts() {
	if l.opts.OnCountsChange != nil {
		l.opts.OnCountsChange(l.counts)
	}
}
