package model

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
	gojson "github.com/goccy/go-json"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/inventiv/ivs/internal/client"
	"github.com/inventiv/ivs/internal/dao"
	"github.com/inventiv/ivs/internal/model1"
	"github.com/inventiv/ivs/internal/render"
	"github.com/inventiv/ivs/internal/vlist"
	"github.com/wI2L/jsondiff"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultRefreshRate is the reload cadence when none is configured.
	DefaultRefreshRate = 5 * time.Second

	maxPatches = 256
)

// TableOptions configures a Table.
type TableOptions struct {
	PageSize int

	// Overscan rows kept beyond each viewport edge. Zero disables overscan.
	Overscan int

	MaxCachedPages int
	RefreshRate    time.Duration

	// Dispatch posts work onto the goroutine owning the table.
	Dispatch func(func())

	// Go runs page fetches, defaults to a goroutine per fetch.
	Go func(func())

	Logger *slog.Logger
}

// Table binds a resource to a virtual list: the accessor loads pages for the
// current query, the renderer turns the visible rows into table rows and the
// watch loop reloads the window on a cadence and on change events.
//
// Apart from Watch and Stop, methods must be called from the goroutine
// Dispatch delivers to.
type Table struct {
	rid      *dao.ResourceID
	factory  dao.Factory
	accessor dao.Accessor
	renderer model1.Renderer
	header   model1.Header
	opts     TableOptions
	log      *slog.Logger
	list     *vlist.List[dao.Object]
	query    dao.Query

	reloads   uint64
	pending   atomic.Bool
	marks     map[string]model1.RowEvent
	patches   *lru.Cache[string, jsondiff.Patch]
	listeners []TableListener
	lastErr   error
	stats     *client.StatusCounts

	cancelFn context.CancelFunc
	mx       sync.Mutex
}

// NewTable creates a new table model.
func NewTable(rid *dao.ResourceID, f dao.Factory, opts TableOptions) *Table {
	if opts.RefreshRate <= 0 {
		opts.RefreshRate = DefaultRefreshRate
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}

	return &Table{
		rid:     rid,
		factory: f,
		opts:    opts,
		log:     opts.Logger.With("resource", rid.String()),
		marks:   make(map[string]model1.RowEvent),
	}
}

// Init resolves the accessor and renderer and creates the virtual list.
func (t *Table) Init() error {
	acc, err := dao.AccessorFor(t.factory, t.rid)
	if err != nil {
		return err
	}
	r, err := render.RendererFor(t.rid)
	if err != nil {
		return err
	}
	patches, err := lru.New[string, jsondiff.Patch](maxPatches)
	if err != nil {
		return err
	}
	list, err := vlist.New(vlist.Options[dao.Object]{
		PageSize:       t.opts.PageSize,
		Overscan:       overscan(t.opts.Overscan),
		RowHeight:      1,
		HeaderHeight:   1,
		MaxCachedPages: t.opts.MaxCachedPages,
		Dispatch:       t.opts.Dispatch,
		Go:             t.opts.Go,
		Logger:         t.log,
		OnCountsChange: t.countsChanged,
		OnChange:       t.dataChanged,
		OnReplace:      t.replaced,
	})
	if err != nil {
		return err
	}

	t.accessor, t.renderer, t.header = acc, r, r.Header()
	t.patches, t.list = patches, list
	if s, ok := acc.(dao.Sorter); ok && t.query.SortBy == "" {
		if ff := s.SortFields(); len(ff) > 0 {
			t.query.SortBy, t.query.SortDir = ff[0], defaultSortDir(t.header, ff[0])
		}
	}

	return nil
}

// ResourceID returns the table resource.
func (t *Table) ResourceID() *dao.ResourceID {
	return t.rid
}

// Accessor returns the resource accessor.
func (t *Table) Accessor() dao.Accessor {
	return t.accessor
}

// Header returns the table header.
func (t *Table) Header() model1.Header {
	return t.header
}

// Renderer returns the resource renderer.
func (t *Table) Renderer() model1.Renderer {
	return t.renderer
}

// List returns the underlying virtual list.
func (t *Table) List() *vlist.List[dao.Object] {
	return t.list
}

// Query returns the active query.
func (t *Table) Query() dao.Query {
	return t.query
}

// Key returns the active query identity.
func (t *Table) Key() string {
	return t.query.Key(t.rid)
}

// Counts returns the last reported counts.
func (t *Table) Counts() vlist.Counts {
	return t.list.Counts()
}

// LastError returns the last page load error, nil once a page loads.
func (t *Table) LastError() error {
	return t.lastErr
}

// SetQuery applies a query. A query with a new identity restarts the list.
func (t *Table) SetQuery(q dao.Query) {
	key := q.Key(t.rid)
	if key != t.list.Key() {
		clear(t.marks)
		t.lastErr, t.stats = nil, nil
	}
	t.query = q
	gen := new(uint64)
	t.list.SetQuery(key, t.fetcher(gen, t.accessor.Fetcher(q)))
	*gen = t.list.Generation()
	t.list.SetReloadToken(t.token())
}

// Start loads the current query.
func (t *Table) Start() {
	t.SetQuery(t.query)
}

// SetFilter changes the free text filter.
func (t *Table) SetFilter(f string) {
	q := t.query
	q.Filter = f
	t.SetQuery(q)
}

// CycleSort moves the sort to the next sortable column. Returns false when
// the resource has a fixed order.
func (t *Table) CycleSort() bool {
	keys := t.header.SortKeys()
	if len(keys) == 0 {
		return false
	}
	q := t.query
	i := slices.Index(keys, q.SortBy)
	q.SortBy = keys[(i+1)%len(keys)]
	if q.SortDir == "" {
		q.SortDir = client.SortAsc
	}
	t.SetQuery(q)

	return true
}

// SetSort sorts by the given server key.
func (t *Table) SetSort(key, dir string) error {
	if !slices.Contains(t.header.SortKeys(), key) {
		return fmt.Errorf("%s cannot be sorted by %q", t.rid, key)
	}
	q := t.query
	q.SortBy, q.SortDir = key, dir
	t.SetQuery(q)

	return nil
}

// ToggleSortDir flips the sort direction.
func (t *Table) ToggleSortDir() bool {
	if len(t.header.SortKeys()) == 0 {
		return false
	}
	t.SetQuery(t.query.ToggleDir())
	return true
}

// ToggleArchived includes or excludes archived rows.
func (t *Table) ToggleArchived() {
	q := t.query
	q.Archived = !q.Archived
	t.SetQuery(q)
}

// Reload re-requests the visible window keeping rows and scroll position.
func (t *Table) Reload() {
	t.reloads++
	clear(t.marks)
	t.list.SetReloadToken(t.token())
}

// Resize records the table body height and header rows.
func (t *Table) Resize(height, header int) {
	t.list.SetHeaderHeight(header)
	t.list.Resize(height)
}

// ScrollBy scrolls the table by delta rows.
func (t *Table) ScrollBy(delta int) {
	t.list.ScrollBy(delta)
}

// ScrollToIndex brings row i to the top of the body.
func (t *Table) ScrollToIndex(i int) {
	t.list.ScrollToIndex(i)
}

// ScrollToEnd scrolls to the last known row.
func (t *Table) ScrollToEnd() {
	t.list.ScrollToIndex(t.list.Counts().Filtered - 1)
}

func (t *Table) token() string {
	return strconv.FormatUint(t.reloads, 10)
}

// Watch reloads the table every refresh rate and whenever the change stream
// reports an update for this resource. It returns immediately.
func (t *Table) Watch(ctx context.Context) {
	t.mx.Lock()
	if t.cancelFn != nil {
		t.cancelFn()
	}
	ctx, t.cancelFn = context.WithCancel(ctx)
	t.mx.Unlock()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ticker := time.NewTicker(t.opts.RefreshRate)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				t.requestReload()
			}
		}
	})
	if topic := topicFor(t.rid); topic != "" && t.factory != nil && t.factory.Client() != nil {
		g.Go(func() error {
			return client.Watch(ctx, t.factory.Client(), []string{topic}, t.log, func(e client.Event) {
				if e.Name != client.EventHello {
					t.requestReload()
				}
			})
		})
	}
	go func() {
		if err := g.Wait(); err != nil {
			t.log.Warn("watch stopped", "error", err)
		}
	}()
}

// Stop terminates the watch loop and cancels outstanding fetches.
func (t *Table) Stop() {
	t.mx.Lock()
	if t.cancelFn != nil {
		t.cancelFn()
		t.cancelFn = nil
	}
	t.mx.Unlock()
}

// Close stops the table for good.
func (t *Table) Close() {
	t.Stop()
	if t.list != nil {
		t.list.Close()
	}
}

// requestReload coalesces reload requests from watch goroutines.
func (t *Table) requestReload() {
	if !t.pending.CompareAndSwap(false, true) {
		return
	}
	t.opts.Dispatch(func() {
		t.pending.Store(false)
		t.Reload()
	})
}

// Rows renders the materialized window. Rows whose page has not landed yet
// come back as pending placeholders.
func (t *Table) Rows() []IndexedRow {
	return vlist.Window(t.list, func(i int, o dao.Object, loaded bool, _ vlist.RowLayout) IndexedRow {
		if !loaded {
			return IndexedRow{Index: i, Event: model1.NewRowEvent(model1.EventPending, model1.NewPendingRow(len(t.header)))}
		}
		row := model1.NewRow(len(t.header))
		if err := t.renderer.Render(o, &row); err != nil {
			t.log.Warn("render failed", "index", i, "error", err)
			row = model1.NewRow(len(t.header))
			row.ID = o.GetID()
		}
		re := model1.NewRowEvent(model1.EventUnchanged, row)
		if m, ok := t.marks[row.ID]; ok {
			re.Kind, re.Deltas = m.Kind, m.Deltas
		}

		return IndexedRow{Index: i, Loaded: true, Event: re}
	})
}

// RowAt returns the cached object at index i.
func (t *Table) RowAt(i int) (dao.Object, bool) {
	return t.list.Row(i)
}

// Describe renders the object as YAML, or JSON when asJSON is set.
func (t *Table) Describe(o dao.Object, asJSON bool) (string, error) {
	d, ok := t.accessor.(dao.Describer)
	if !ok {
		return "", fmt.Errorf("%s cannot be described", t.rid)
	}
	if asJSON {
		return d.ToJSON(o)
	}
	return d.Describe(o)
}

// LastChange returns the JSON patch of the last observed update of a row.
func (t *Table) LastChange(id string) (string, bool) {
	p, ok := t.patches.Get(id)
	if !ok {
		return "", false
	}
	raw, err := gojson.MarshalIndent(p, "", "  ")
	if err != nil {
		return "", false
	}
	return string(raw), true
}

// AddListener registers a table listener.
func (t *Table) AddListener(l TableListener) {
	t.listeners = append(t.listeners, l)
}

// RemoveListener unregisters a table listener.
func (t *Table) RemoveListener(l TableListener) {
	t.listeners = slices.DeleteFunc(t.listeners, func(x TableListener) bool { return x == l })
}

// StatusCounts returns the per status counts of the last page that carried
// them, nil when the endpoint reports none.
func (t *Table) StatusCounts() *client.StatusCounts {
	return t.stats
}

// fetcher reports failures and status counts to the listeners while the list
// is still on the generation gen was stamped with. gen is only read on the
// dispatch goroutine.
func (t *Table) fetcher(gen *uint64, f vlist.Fetcher[dao.Object]) vlist.Fetcher[dao.Object] {
	return vlist.FetcherFunc[dao.Object](func(ctx context.Context, offset, limit int) (vlist.Page[dao.Object], error) {
		p, err := f.LoadRange(ctx, offset, limit)
		switch {
		case err != nil && !errors.Is(err, context.Canceled):
			t.opts.Dispatch(func() {
				if t.list.Generation() == *gen {
					t.loadFailed(err)
				}
			})
		case err == nil:
			if st, ok := p.Stats.(client.StatusCounts); ok {
				t.opts.Dispatch(func() {
					if t.list.Generation() == *gen {
						t.statsChanged(st)
					}
				})
			}
		}
		return p, err
	})
}

func (t *Table) statsChanged(st client.StatusCounts) {
	if t.stats != nil && *t.stats == st {
		return
	}
	t.stats = &st
	for _, l := range t.listeners {
		l.TableDataChanged(t.list.Version())
	}
}

func (t *Table) countsChanged(c vlist.Counts) {
	for _, l := range t.listeners {
		l.TableCountsChanged(c)
	}
	if t.list != nil && t.list.CountsKnown() && c.Filtered == 0 {
		for _, l := range t.listeners {
			l.TableNoData(t.query)
		}
	}
}

func (t *Table) dataChanged(v uint64) {
	if t.list != nil && t.list.CountsKnown() {
		t.lastErr = nil
	}
	for _, l := range t.listeners {
		l.TableDataChanged(v)
	}
}

func (t *Table) loadFailed(err error) {
	t.lastErr = err
	for _, l := range t.listeners {
		l.TableLoadFailed(err)
	}
}

// replaced records how a reloaded row differs from its cached version.
func (t *Table) replaced(_ int, prev, next dao.Object) {
	if prev.GetID() != next.GetID() {
		row := model1.NewRow(len(t.header))
		row.ID = next.GetID()
		t.marks[next.GetID()] = model1.NewRowEvent(model1.EventAdd, row)
		return
	}
	if fingerprint(prev) == fingerprint(next) {
		return
	}
	patch, err := jsondiff.Compare(prev.GetRaw(), next.GetRaw())
	if err != nil || len(patch) == 0 {
		return
	}
	t.patches.Add(next.GetID(), patch)

	o, n := model1.NewRow(len(t.header)), model1.NewRow(len(t.header))
	if t.renderer.Render(prev, &o) != nil || t.renderer.Render(next, &n) != nil {
		return
	}
	t.marks[next.GetID()] = model1.NewRowEventWithDeltas(n, model1.NewDeltaRow(o, n, t.header))
}

func overscan(n int) int {
	if n <= 0 {
		return vlist.NoOverscan
	}
	return n
}

// defaultSortDir lists time columns newest first and everything else in
// ascending order.
func defaultSortDir(h model1.Header, key string) string {
	if i, ok := h.SortIndex(key); ok && h.IsTimeCol(i) {
		return client.SortDesc
	}

	return client.SortAsc
}

func fingerprint(o dao.Object) uint64 {
	raw, err := gojson.Marshal(o.GetRaw())
	if err != nil {
		return 0
	}
	return xxhash.Sum64(raw)
}

func topicFor(rid *dao.ResourceID) string {
	switch *rid {
	case dao.InstanceRID:
		return client.TopicInstances
	case dao.ActionLogRID:
		return client.TopicActions
	default:
		return ""
	}
}
