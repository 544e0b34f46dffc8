// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of ivs

package ui

import (
	"fmt"

	"github.com/derailed/tcell/v2"
	"github.com/derailed/tview"
	"github.com/inventiv/ivs/internal/client"
	"github.com/inventiv/ivs/internal/dao"
	"github.com/inventiv/ivs/internal/model"
	"github.com/inventiv/ivs/internal/model1"
	"github.com/inventiv/ivs/internal/render"
	"github.com/inventiv/ivs/internal/vlist"
)

const (
	// TitleFmt formats the table title with resource, scope and count.
	TitleFmt = " [aqua::b]%s[-::-](%s)[[white::b]%s[-::-]] "

	// FilterTitleFmt formats the table title of a filtered table.
	FilterTitleFmt = " [aqua::b]%s[-::-](%s)</[fuchsia::b]%s[-::-]>[[white::b]%s[-::-]] "

	noDataMsg   = "No resources found"
	maxErrWidth = 60
)

// SelectFunc is called when a row is picked.
type SelectFunc func(index int, o dao.Object)

// VirtualTable shows the visible slice of a remote row set. Only the rows in
// the viewport are materialized as cells; scrolling and resizing drive the
// underlying virtual list which fetches the pages it needs.
type VirtualTable struct {
	*tview.Table

	model    *model.Table
	actions  *KeyActions
	selected int
	height   int
	wide     bool
	selectFn SelectFunc
}

// NewVirtualTable returns a new table bound to a model.
func NewVirtualTable(m *model.Table) *VirtualTable {
	return &VirtualTable{
		Table:   tview.NewTable(),
		model:   m,
		actions: NewKeyActions(),
	}
}

// Init initializes the table component.
func (t *VirtualTable) Init() {
	t.SetFixed(1, 0)
	t.SetBorder(true)
	t.SetBorderAttributes(tcell.AttrBold)
	t.SetBorderPadding(0, 0, 1, 1)
	t.SetSelectable(true, false)
	t.SetBackgroundColor(tcell.ColorDefault)
	t.SetBorderColor(tcell.ColorDarkCyan)
	t.SetInputCapture(t.keyboard)

	t.model.AddListener(t)
	t.bindKeys()
	t.refresh()
}

// Model returns the table model.
func (t *VirtualTable) Model() *model.Table {
	return t.model
}

// Actions returns the key actions.
func (t *VirtualTable) Actions() *KeyActions {
	return t.actions
}

// Hints returns menu hints for key bindings.
func (t *VirtualTable) Hints() MenuHints {
	return t.actions.Hints()
}

// SetSelectFn sets the callback invoked on Enter.
func (t *VirtualTable) SetSelectFn(fn SelectFunc) {
	t.selectFn = fn
}

// ToggleWide shows or hides the wide columns.
func (t *VirtualTable) ToggleWide() {
	t.wide = !t.wide
	t.refresh()
}

// Selected returns the absolute index of the selected row.
func (t *VirtualTable) Selected() int {
	return t.selected
}

// SelectedObject returns the selected row if its page is loaded.
func (t *VirtualTable) SelectedObject() (dao.Object, bool) {
	return t.model.RowAt(t.selected)
}

// Draw lays out the viewport then draws the materialized rows.
func (t *VirtualTable) Draw(screen tcell.Screen) {
	t.layout()
	t.Table.Draw(screen)
}

// layout feeds the measured body height to the model. The header row is
// fixed by the table and never scrolls, so the list sees a headerless body.
func (t *VirtualTable) layout() {
	_, _, _, h := t.GetInnerRect()
	if h == t.height {
		return
	}
	t.height = h
	t.model.Resize(max(h-1, 0), 0)
	t.SelectIndex(t.selected)
}

// MoveSelection moves the selection by delta rows.
func (t *VirtualTable) MoveSelection(delta int) {
	t.SelectIndex(t.selected + delta)
}

// SelectIndex selects row i, scrolling it into view.
func (t *VirtualTable) SelectIndex(i int) {
	list := t.model.List()
	last := max(list.Counts().Filtered-1, 0)
	t.selected = min(max(i, 0), last)

	top, n := list.TopIndex(), max(list.VisibleRows(), 1)
	switch {
	case t.selected < top:
		t.model.ScrollToIndex(t.selected)
	case t.selected >= top+n:
		t.model.ScrollToIndex(t.selected - n + 1)
	}
	t.refresh()
}

func (t *VirtualTable) pageSize() int {
	return max(t.model.List().VisibleRows()-1, 1)
}

func (t *VirtualTable) keyboard(evt *tcell.EventKey) *tcell.EventKey {
	switch AsKey(evt) {
	case tcell.KeyDown, KeyJ:
		t.MoveSelection(1)
	case tcell.KeyUp, KeyK:
		t.MoveSelection(-1)
	case tcell.KeyPgDn, tcell.KeyCtrlF:
		t.MoveSelection(t.pageSize())
	case tcell.KeyPgUp, tcell.KeyCtrlB:
		t.MoveSelection(-t.pageSize())
	case tcell.KeyHome, KeyG:
		t.SelectIndex(0)
	case tcell.KeyEnd, KeyShiftG:
		t.SelectIndex(t.model.List().Counts().Filtered - 1)
	default:
		if a, ok := t.actions.Get(AsKey(evt)); ok {
			return a.Action(evt)
		}
		return evt
	}

	return nil
}

func (t *VirtualTable) bindKeys() {
	t.actions.Bulk(KeyMap{
		tcell.KeyEnter: NewKeyAction("Select", t.selectCmd, true),
		tcell.KeyCtrlW: NewKeyAction("Toggle Wide", t.wideCmd, false),
	})
}

func (t *VirtualTable) selectCmd(*tcell.EventKey) *tcell.EventKey {
	if t.selectFn == nil {
		return nil
	}
	if o, ok := t.SelectedObject(); ok {
		t.selectFn(t.selected, o)
	}
	return nil
}

func (t *VirtualTable) wideCmd(*tcell.EventKey) *tcell.EventKey {
	t.ToggleWide()
	return nil
}

// refresh rebuilds the cells of the viewport.
func (t *VirtualTable) refresh() {
	t.Clear()
	t.SetTitle(t.buildTitle())

	h := t.model.Header()
	if h == nil {
		return
	}
	cols := h.Columns(t.wide)
	t.buildHeader(h, cols)

	list := t.model.List()
	if list.CountsKnown() && list.Counts().Filtered == 0 {
		t.showNoData(noDataMsg)
		return
	}

	top, n := list.TopIndex(), list.VisibleRows()
	colorer := t.model.Renderer().ColorerFunc()
	for _, r := range t.model.Rows() {
		if r.Index < top || r.Index >= top+n {
			continue
		}
		t.buildRow(1+r.Index-top, h, cols, r, colorer(h, &r.Event))
	}
	if t.selected >= top && t.selected < top+n {
		t.Select(1+t.selected-top, 0)
	}
}

func (t *VirtualTable) showNoData(msg string) {
	cell := tview.NewTableCell(msg)
	cell.SetTextColor(tcell.ColorGray)
	cell.SetSelectable(false)
	t.SetCell(1, 0, cell)
}

func (t *VirtualTable) buildHeader(h model1.Header, cols []int) {
	q := t.model.Query()
	for i, idx := range cols {
		c := h[idx]
		name := c.Name
		if c.Sort != "" && c.Sort == q.SortBy {
			name += sortIndicator(q.SortDir)
		}
		cell := tview.NewTableCell(name)
		cell.SetTextColor(tcell.ColorYellow)
		cell.SetAttributes(tcell.AttrBold)
		cell.SetBackgroundColor(tcell.ColorDefault)
		cell.SetAlign(align(c))
		cell.SetExpansion(1)
		cell.SetSelectable(false)
		t.SetCell(0, i, cell)
	}
}

func (t *VirtualTable) buildRow(row int, h model1.Header, cols []int, r model.IndexedRow, color tcell.Color) {
	re := r.Event
	for i, idx := range cols {
		var field string
		if idx < len(re.Row.Fields) {
			field = re.Row.Fields[idx]
		}
		if d := h[idx].Decorator; d != nil && r.Loaded {
			field = d(field)
		}
		cell := tview.NewTableCell(tview.Escape(field))
		cell.SetTextColor(color)
		cell.SetBackgroundColor(tcell.ColorDefault)
		cell.SetAlign(align(h[idx]))
		cell.SetExpansion(1)
		if re.Changed(idx) {
			cell.SetAttributes(tcell.AttrBold)
		}
		if i == 0 {
			cell.SetReference(r.Index)
		}
		t.SetCell(row, i, cell)
	}
}

func (t *VirtualTable) buildTitle() string {
	if t.model.ResourceID() == nil {
		return ""
	}
	name := t.model.ResourceID().Resource
	list, q := t.model.List(), t.model.Query()

	scope := "live"
	if q.Archived {
		scope = "archived"
	}
	count := "?"
	if list != nil && list.CountsKnown() {
		c := list.Counts()
		count = render.FormatCount(c.Filtered)
		if c.Filtered != c.Total {
			count += "/" + render.FormatCount(c.Total)
		}
	}

	title := fmt.Sprintf(TitleFmt, name, scope, count)
	if q.Filter != "" {
		title = fmt.Sprintf(FilterTitleFmt, name, scope, tview.Escape(q.Filter), count)
	}
	if st := t.model.StatusCounts(); st != nil {
		title += statusCountsTitle(*st)
	}
	if err := t.model.LastError(); err != nil {
		title += fmt.Sprintf("[red::b]%s[-::-] ", tview.Escape(render.Truncate(err.Error(), maxErrWidth)))
	}

	return title
}

func statusCountsTitle(st client.StatusCounts) string {
	return fmt.Sprintf("[green::b]✓%s[-::-] [red::b]✗%s[-::-] [yellow::b]…%s[-::-] ",
		render.FormatCount(st.Success), render.FormatCount(st.Failed), render.FormatCount(st.InProgress))
}

func sortIndicator(dir string) string {
	if dir == client.SortAsc {
		return "↑"
	}
	return "↓"
}

func align(c model1.HeaderColumn) int {
	if c.Capacity {
		return tview.AlignRight
	}
	return c.Align
}

// TableNoData implements model.TableListener.
func (t *VirtualTable) TableNoData(dao.Query) {
	t.selected = 0
	t.refresh()
}

// TableCountsChanged implements model.TableListener.
func (t *VirtualTable) TableCountsChanged(c vlist.Counts) {
	if t.selected >= c.Filtered {
		t.selected = max(c.Filtered-1, 0)
	}
	t.refresh()
}

// TableDataChanged implements model.TableListener.
func (t *VirtualTable) TableDataChanged(uint64) {
	t.refresh()
}

// TableLoadFailed implements model.TableListener.
func (t *VirtualTable) TableLoadFailed(error) {
	t.SetTitle(t.buildTitle())
}
