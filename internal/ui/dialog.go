// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of ivs

package ui

import (
	"strings"

	"github.com/derailed/tcell/v2"
	"github.com/derailed/tview"
)

const dialogKey = "dialog-"

// IsDialog checks if a page name designates a dialog.
func IsDialog(name string) bool {
	return strings.HasPrefix(name, dialogKey)
}

// Severity picks the dialog palette.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarn
	SeverityError
)

type palette struct {
	text, button, label tcell.Color
}

var palettes = map[Severity]palette{
	SeverityInfo:  {text: tcell.ColorWhite, button: tcell.ColorDodgerBlue, label: tcell.ColorWhite},
	SeverityWarn:  {text: tcell.ColorYellow, button: tcell.ColorYellow, label: tcell.ColorBlack},
	SeverityError: {text: tcell.ColorOrangeRed, button: tcell.ColorOrangeRed, label: tcell.ColorWhite},
}

// Dialog is a modal overlay on a page stack. Any button dismisses it.
type Dialog struct {
	*tview.Modal

	pages   *Pages
	id      string
	actions []func()
}

// NewDialog returns a dialog without buttons.
func NewDialog(pages *Pages, id, title, msg string, sev Severity) *Dialog {
	d := Dialog{
		Modal: tview.NewModal(),
		pages: pages,
		id:    dialogKey + id,
	}
	p := palettes[sev]
	d.SetBackgroundColor(tcell.ColorDefault)
	d.SetTextColor(p.text)
	d.SetButtonBackgroundColor(p.button)
	d.SetButtonTextColor(p.label)
	d.SetBorder(true)
	d.Modal.SetTitle(" " + title + " ")
	d.SetText(msg)
	d.SetDoneFunc(d.press)

	return &d
}

// ErrorDialog returns an acknowledge only error dialog.
func ErrorDialog(pages *Pages, title, msg string) *Dialog {
	return NewDialog(pages, "error", title, msg, SeverityError).Button("OK", nil)
}

// NewConfirm returns a Yes/No dialog running onYes when confirmed.
func NewConfirm(pages *Pages, title, msg string, onYes func()) *Dialog {
	return NewDialog(pages, "confirm", title, msg, SeverityWarn).
		Button("Yes", onYes).
		Button("No", nil)
}

// Button appends a button running fn once the dialog is dismissed.
func (d *Dialog) Button(label string, fn func()) *Dialog {
	d.AddButtons([]string{label})
	d.actions = append(d.actions, fn)

	return d
}

// PageID returns the dialog page name.
func (d *Dialog) PageID() string {
	return d.id
}

// Show displays the dialog in front of the stack.
func (d *Dialog) Show() {
	if d.pages != nil {
		d.pages.AddPage(d.id, d, true, true)
	}
}

// Dismiss removes the dialog.
func (d *Dialog) Dismiss() {
	if d.pages != nil {
		d.pages.RemovePage(d.id)
	}
}

func (d *Dialog) press(i int, _ string) {
	d.Dismiss()
	if i >= 0 && i < len(d.actions) && d.actions[i] != nil {
		d.actions[i]()
	}
}
