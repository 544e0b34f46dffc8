// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of ivs

package ui

import (
	"fmt"
	"strings"

	"github.com/derailed/tcell/v2"
	"github.com/derailed/tview"
)

// menuRows is the height of the menu area.
const menuRows = 6

// Menu shows the key bindings of the top view in columns.
type Menu struct {
	*tview.Table
}

// NewMenu returns an empty menu.
func NewMenu() *Menu {
	m := Menu{Table: tview.NewTable()}
	m.SetBackgroundColor(tcell.ColorDefault)
	m.SetBorderPadding(0, 0, 1, 1)

	return &m
}

// HydrateMenu lays hh out column by column.
func (m *Menu) HydrateMenu(hh MenuHints) {
	m.Clear()
	for col, hints := range menuColumns(hh, menuRows) {
		width := 0
		for _, h := range hints {
			width = max(width, len(h.Mnemonic))
		}
		for row, h := range hints {
			cell := tview.NewTableCell(formatHint(h, width))
			cell.SetBackgroundColor(tcell.ColorDefault)
			m.SetCell(row, col, cell)
		}
	}
}

// menuColumns splits the sorted visible hints into columns of rows hints.
func menuColumns(hh MenuHints, rows int) []MenuHints {
	sorted := hh.Sorted()
	cols := make([]MenuHints, 0, len(sorted)/rows+1)
	for len(sorted) > 0 {
		n := min(rows, len(sorted))
		cols = append(cols, sorted[:n])
		sorted = sorted[n:]
	}

	return cols
}

func formatHint(h MenuHint, width int) string {
	key := "<" + h.Mnemonic + ">"
	pad := strings.Repeat(" ", max(0, width-len(h.Mnemonic)))

	return fmt.Sprintf(" [yellow::b]%s[white::-]%s %s ", tview.Escape(key), pad, h.Description)
}

// StackPushed shows the hints of the new top.
func (m *Menu) StackPushed(c Component) {
	m.StackTop(c)
}

// StackPopped shows the hints of the new top.
func (m *Menu) StackPopped(_, top Component) {
	if top == nil {
		m.Clear()
		return
	}
	m.StackTop(top)
}

// StackTop shows the hints of c.
func (m *Menu) StackTop(c Component) {
	if h, ok := c.(Hinter); ok {
		m.HydrateMenu(h.Hints())
	}
}
