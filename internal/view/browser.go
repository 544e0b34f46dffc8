// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of ivs

package view

import (
	"context"
	"slices"

	"github.com/derailed/tcell/v2"
	"github.com/inventiv/ivs/internal/config/data"
	"github.com/inventiv/ivs/internal/dao"
	"github.com/inventiv/ivs/internal/model"
	"github.com/inventiv/ivs/internal/ui"
	"github.com/inventiv/ivs/internal/vlist"
)

// Browser browses a remote resource through a virtual table.
type Browser struct {
	*ui.VirtualTable

	app     *App
	rid     *dao.ResourceID
	model   *model.Table
	filter  *string
	started bool
}

// NewBrowser returns a new resource browser.
func NewBrowser(app *App, rid *dao.ResourceID) *Browser {
	return &Browser{
		app: app,
		rid: rid,
	}
}

// WithFilter starts the browser on the given filter instead of the saved one.
func (b *Browser) WithFilter(f string) *Browser {
	b.filter = &f
	return b
}

// Init initializes the browser component.
func (b *Browser) Init(context.Context) error {
	cfg := b.app.Config().Ivs
	b.model = model.NewTable(b.rid, b.app.GetFactory(), model.TableOptions{
		PageSize:       cfg.List.PageSize,
		Overscan:       cfg.List.Overscan,
		MaxCachedPages: cfg.List.MaxCachedPages,
		RefreshRate:    cfg.GetRefreshRate(),
		Dispatch:       b.app.dispatch,
		Logger:         b.app.Logger(),
	})
	if err := b.model.Init(); err != nil {
		return err
	}

	b.VirtualTable = ui.NewVirtualTable(b.model)
	b.VirtualTable.Init()
	b.model.AddListener(b)
	b.SetSelectFn(func(_ int, o dao.Object) {
		b.describe(o)
	})
	b.bindKeys(b.Actions())

	return nil
}

// Name returns the component name.
func (b *Browser) Name() string {
	return b.rid.Resource
}

// Model returns the table model.
func (b *Browser) Model() *model.Table {
	return b.model
}

// Start loads the saved query the first time, then reloads on resume.
func (b *Browser) Start() {
	if b.started {
		b.model.Reload()
	} else {
		b.started = true
		b.model.SetQuery(b.initialQuery())
	}
	b.model.Watch(b.app.Context())
}

// Stop pauses updates and remembers the query.
func (b *Browser) Stop() {
	b.model.Stop()
	b.saveQuery()
}

// Close releases the model.
func (b *Browser) Close() {
	b.model.RemoveListener(b)
	b.model.Close()
}

// Filter returns the active filter.
func (b *Browser) Filter() string {
	return b.model.Query().Filter
}

// SetFilter changes the active filter.
func (b *Browser) SetFilter(f string) {
	if f == b.Filter() {
		return
	}
	b.model.SetFilter(f)
	b.SelectIndex(0)
}

func (b *Browser) initialQuery() dao.Query {
	q := b.model.Query()
	if ctx := b.profileContext(); ctx != nil {
		if s, ok := ctx.Query(b.rid.String()); ok {
			q.Filter, q.Archived = s.Filter, s.Archived
			if slices.Contains(b.model.Header().SortKeys(), s.SortBy) {
				q.SortBy, q.SortDir = s.SortBy, s.SortDir
			}
		}
	}
	if b.filter != nil {
		q.Filter = *b.filter
	}

	return q
}

func (b *Browser) saveQuery() {
	ctx := b.profileContext()
	if ctx == nil || !b.started {
		return
	}
	q := b.model.Query()
	ctx.SetQuery(b.rid.String(), data.SavedQuery{
		Filter:   q.Filter,
		SortBy:   q.SortBy,
		SortDir:  q.SortDir,
		Archived: q.Archived,
	})
}

func (b *Browser) profileContext() *data.ProfileContext {
	return b.app.Config().Ivs.ActiveConfig()
}

func (b *Browser) bindKeys(aa *ui.KeyActions) {
	aa.Bulk(ui.KeyMap{
		tcell.KeyCtrlR: ui.NewKeyAction("Reload", b.reloadCmd, true),
		ui.KeyD:        ui.NewKeyAction("Describe", b.describeCmd, true),
	})
	if len(b.model.Header().SortKeys()) > 0 {
		aa.Bulk(ui.KeyMap{
			tcell.KeyCtrlS: ui.NewKeyAction("Sort", b.sortCmd, true),
			tcell.KeyCtrlD: ui.NewKeyAction("Sort Dir", b.sortDirCmd, true),
		})
	}
}

func (b *Browser) reloadCmd(*tcell.EventKey) *tcell.EventKey {
	b.model.Reload()
	b.app.Flash().Infof("Reloading %s...", b.rid)
	return nil
}

func (b *Browser) sortCmd(*tcell.EventKey) *tcell.EventKey {
	if b.model.CycleSort() {
		b.SelectIndex(0)
	}
	return nil
}

func (b *Browser) sortDirCmd(*tcell.EventKey) *tcell.EventKey {
	if b.model.ToggleSortDir() {
		b.SelectIndex(0)
	}
	return nil
}

func (b *Browser) describeCmd(*tcell.EventKey) *tcell.EventKey {
	if o, ok := b.SelectedObject(); ok {
		b.describe(o)
	}
	return nil
}

func (b *Browser) describe(o dao.Object) {
	if err := b.app.Inject(NewDescribe(b.app, b.model, o)); err != nil {
		b.app.Flash().Err(err)
	}
}

// TableNoData is a no-op, the table shows its own message.
func (*Browser) TableNoData(dao.Query) {}

// TableCountsChanged is a no-op.
func (*Browser) TableCountsChanged(vlist.Counts) {}

// TableDataChanged is a no-op.
func (*Browser) TableDataChanged(uint64) {}

// TableLoadFailed flashes the page failure.
func (b *Browser) TableLoadFailed(err error) {
	b.app.Flash().Err(err)
}
