// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of ivs

package view

import (
	"context"

	"github.com/derailed/tcell/v2"
	"github.com/derailed/tview"
	"github.com/inventiv/ivs/internal/ui"
)

// HelpBind represents a single keybinding.
type HelpBind struct {
	Key  string
	Desc string
}

// Help displays the key bindings of the app and of the view it was opened
// from.
type Help struct {
	*tview.Table

	app  *App
	view ui.MenuHints
}

// NewHelp creates a new help view.
func NewHelp(app *App, view ui.MenuHints) *Help {
	return &Help{
		Table: tview.NewTable(),
		app:   app,
		view:  view,
	}
}

// Init builds the help table.
func (h *Help) Init(context.Context) error {
	h.SetBorder(true)
	h.SetTitle(" Help ")
	h.SetTitleAlign(tview.AlignCenter)
	h.SetBorderColor(tcell.ColorYellow)
	h.SetBackgroundColor(tcell.ColorDefault)
	h.SetSelectable(false, false)
	h.populate()

	return nil
}

// Start is a no-op.
func (*Help) Start() {}

// Stop is a no-op.
func (*Help) Stop() {}

// Name returns the component name.
func (*Help) Name() string {
	return "help"
}

// Hints returns the menu hints.
func (*Help) Hints() ui.MenuHints {
	return ui.MenuHints{
		{Mnemonic: "esc", Description: "Back", Visible: true},
	}
}

func (h *Help) columns() ([]string, [][]HelpBind) {
	resources := []HelpBind{
		{":instances", "Instances"},
		{":users", "Users"},
		{":actions", "Action Logs"},
		{":archive", "Archived Traces"},
		{":profile", "Profiles"},
	}
	for _, name := range h.app.hotKeys.Names() {
		if hk := h.app.hotKeys.Get(name); hk != nil {
			resources = append(resources, HelpBind{"<" + hk.ShortCut + ">", hk.Description})
		}
	}

	general := []HelpBind{
		{"<:>", "Command"},
		{"</>", "Filter"},
		{"<?>", "Help"},
		{"<esc>", "Back/Clear"},
		{"<q>", "Quit"},
		{"<ctrl-c>", "Quit"},
	}
	navigation := []HelpBind{
		{"<j>", "Down"},
		{"<k>", "Up"},
		{"<ctrl-f>", "Page Down"},
		{"<ctrl-b>", "Page Up"},
		{"<g>", "Top"},
		{"<G>", "Bottom"},
	}
	var view []HelpBind
	for _, hint := range h.view {
		if hint.Visible {
			view = append(view, HelpBind{"<" + hint.Mnemonic + ">", hint.Description})
		}
	}

	return []string{"RESOURCES", "GENERAL", "NAVIGATION", "VIEW"},
		[][]HelpBind{resources, general, navigation, view}
}

// populate fills the table with keybindings in a 4-column layout.
func (h *Help) populate() {
	headers, columns := h.columns()

	var maxRows int
	for _, col := range columns {
		maxRows = max(maxRows, len(col))
	}

	// key, desc and a spacer per logical column.
	const colWidth = 3
	for colIdx, col := range columns {
		baseCol := colIdx * colWidth
		h.SetCell(0, baseCol, tview.NewTableCell(headers[colIdx]).
			SetTextColor(tcell.ColorAqua).
			SetAttributes(tcell.AttrBold).
			SetSelectable(false))

		for rowIdx, bind := range col {
			row := rowIdx + 1
			h.SetCell(row, baseCol, tview.NewTableCell(bind.Key).
				SetTextColor(tcell.ColorYellow).
				SetSelectable(false))
			h.SetCell(row, baseCol+1, tview.NewTableCell(bind.Desc).
				SetTextColor(tcell.ColorWhite).
				SetSelectable(false).
				SetExpansion(1))
		}

		if colIdx < len(columns)-1 {
			for row := 0; row <= maxRows; row++ {
				h.SetCell(row, baseCol+2, tview.NewTableCell("").
					SetSelectable(false).
					SetExpansion(1))
			}
		}
	}

	h.SetCell(maxRows+2, 0, tview.NewTableCell("<esc> to close").
		SetTextColor(tcell.ColorGray).
		SetSelectable(false))
}
