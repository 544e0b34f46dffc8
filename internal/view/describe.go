// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of ivs

package view

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/derailed/tcell/v2"
	"github.com/derailed/tview"
	"github.com/inventiv/ivs/internal/dao"
	"github.com/inventiv/ivs/internal/model"
	"github.com/inventiv/ivs/internal/render"
	"github.com/inventiv/ivs/internal/ui"
)

const (
	modeYAML    = "yaml"
	modeJSON    = "json"
	modeChanges = "changes"
	modePreview = "preview"

	previewBytes   = 64 << 10
	previewTimeout = 30 * time.Second
	scrollPage     = 20
)

// Describe shows a single row in detail.
type Describe struct {
	*tview.TextView

	app     *App
	table   *model.Table
	obj     dao.Object
	mode    string
	preview string
	actions *ui.KeyActions
	wrapOn  bool
	cancel  context.CancelFunc
}

// NewDescribe returns a detail view of a table row.
func NewDescribe(app *App, t *model.Table, o dao.Object) *Describe {
	d := Describe{
		TextView: tview.NewTextView(),
		app:      app,
		table:    t,
		obj:      o,
		mode:     modeYAML,
		actions:  ui.NewKeyActions(),
	}

	d.SetDynamicColors(true)
	d.SetWrap(false)
	d.SetWordWrap(false)
	d.SetScrollable(true)
	d.SetBorder(true)
	d.SetBorderPadding(0, 0, 1, 1)
	d.SetBorderColor(tcell.ColorAqua)

	return &d
}

// Init initializes the view.
func (d *Describe) Init(context.Context) error {
	d.bindKeys()
	d.SetInputCapture(d.keyboard)
	return nil
}

// Start renders the current mode.
func (d *Describe) Start() {
	d.Refresh()
}

// Stop cancels a pending preview.
func (d *Describe) Stop() {
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
}

// Name returns the component name.
func (*Describe) Name() string {
	return "describe"
}

// Hints returns the menu hints.
func (d *Describe) Hints() ui.MenuHints {
	return d.actions.Hints()
}

// Refresh redraws the content for the current mode.
func (d *Describe) Refresh() {
	d.updateTitle()
	if d.mode == modePreview && d.preview == "" {
		d.SetText("[gray::]Loading preview...[-::]")
		d.loadPreview()
		return
	}
	d.SetText(d.content())
	d.ScrollToBeginning()
}

func (d *Describe) updateTitle() {
	d.SetTitle(fmt.Sprintf(" [aqua::b]%s[-::-]/%s [%s] ", d.table.ResourceID().Resource, d.obj.GetName(), strings.ToUpper(d.mode)))
}

func (d *Describe) content() string {
	switch d.mode {
	case modeChanges:
		patch, ok := d.table.LastChange(d.obj.GetID())
		if !ok {
			return "[gray::]No changes observed since this view was opened[-::]"
		}
		return tview.Escape(patch)
	case modePreview:
		return tview.Escape(d.preview)
	}

	s, err := d.table.Describe(d.obj, d.mode == modeJSON)
	if err != nil {
		return fmt.Sprintf("[red::]%s[-::]", tview.Escape(err.Error()))
	}
	if d.mode == modeJSON {
		return tview.Escape(s)
	}
	return highlightYAML(s)
}

// rawContent returns the undecorated text of the current mode.
func (d *Describe) rawContent() (string, error) {
	switch d.mode {
	case modeChanges:
		p, _ := d.table.LastChange(d.obj.GetID())
		return p, nil
	case modePreview:
		return d.preview, nil
	}
	return d.table.Describe(d.obj, d.mode == modeJSON)
}

func (d *Describe) loadPreview() {
	p, ok := d.table.Accessor().(dao.Previewer)
	if !ok {
		d.SetText("[red::]Preview not supported[-::]")
		return
	}
	ctx, cancel := context.WithTimeout(d.app.Context(), previewTimeout)
	d.cancel = cancel
	o := d.obj

	go func() {
		defer cancel()
		s, err := p.Preview(ctx, o, previewBytes)
		d.app.QueueUpdateDraw(func() {
			if err != nil {
				d.SetText(fmt.Sprintf("[red::]Preview failed: %s[-::]", tview.Escape(err.Error())))
				return
			}
			d.preview = s
			if d.mode == modePreview {
				d.SetText(d.content())
				d.ScrollToBeginning()
			}
		})
	}()
}

func (d *Describe) bindKeys() {
	d.actions.Bulk(ui.KeyMap{
		ui.KeyY:      ui.NewKeyAction("YAML", d.modeCmd(modeYAML), true),
		ui.KeyShiftJ: ui.NewKeyAction("JSON", d.modeCmd(modeJSON), true),
		ui.KeyC:      ui.NewKeyAction("Changes", d.modeCmd(modeChanges), true),
		ui.KeyW:      ui.NewKeyAction("Wrap", d.toggleWrap, true),
		ui.KeyE:      ui.NewKeyAction("Open in Editor", d.editCmd, true),
		tcell.KeyEsc: ui.NewKeyAction("Back", nil, true),
	})
	if _, ok := d.table.Accessor().(dao.Previewer); ok {
		d.actions.Add(ui.KeyP, ui.NewKeyAction("Preview", d.modeCmd(modePreview), true))
	}
}

func (d *Describe) modeCmd(mode string) ui.ActionHandler {
	return func(*tcell.EventKey) *tcell.EventKey {
		d.mode = mode
		d.Refresh()
		return nil
	}
}

func (d *Describe) toggleWrap(*tcell.EventKey) *tcell.EventKey {
	d.wrapOn = !d.wrapOn
	d.SetWrap(d.wrapOn)
	d.SetWordWrap(d.wrapOn)
	return nil
}

func (d *Describe) editCmd(*tcell.EventKey) *tcell.EventKey {
	s, err := d.rawContent()
	if err != nil {
		d.app.Flash().Err(err)
		return nil
	}
	ext := "." + d.mode
	if d.mode == modeChanges {
		ext = ".json"
	} else if d.mode == modePreview {
		ext = ".txt"
	}
	if err := OpenInEditor(d.app, d.obj.GetID()+ext, s); err != nil {
		d.app.Flash().Err(err)
	}
	return nil
}

func (d *Describe) keyboard(evt *tcell.EventKey) *tcell.EventKey {
	row, _ := d.GetScrollOffset()
	switch evt.Key() {
	case tcell.KeyPgDn, tcell.KeyCtrlF:
		d.ScrollTo(row+scrollPage, 0)
		return nil
	case tcell.KeyPgUp, tcell.KeyCtrlB:
		d.ScrollTo(max(row-scrollPage, 0), 0)
		return nil
	case tcell.KeyHome:
		d.ScrollToBeginning()
		return nil
	case tcell.KeyEnd:
		d.ScrollToEnd()
		return nil
	}

	if a, ok := d.actions.Get(ui.AsKey(evt)); ok && a.Action != nil {
		return a.Action(evt)
	}

	return evt
}

// highlightYAML colors keys and well known values.
func highlightYAML(content string) string {
	var b strings.Builder
	for _, line := range strings.Split(strings.TrimRight(content, "\n"), "\n") {
		line = tview.Escape(line)
		idx := strings.Index(line, ":")
		if idx <= 0 {
			b.WriteString(line + "\n")
			continue
		}
		key, value := line[:idx+1], strings.TrimSpace(line[idx+1:])
		indent := len(key) - len(strings.TrimLeft(key, " -"))
		if value == "" {
			fmt.Fprintf(&b, "%s[aqua::]%s[-::]\n", key[:indent], key[indent:])
			continue
		}
		fmt.Fprintf(&b, "%s[aqua::]%s[-::] %s\n", key[:indent], key[indent:], colorizeValue(value))
	}

	return b.String()
}

func colorizeValue(value string) string {
	trimmed := strings.Trim(value, `"'`)
	switch strings.ToLower(trimmed) {
	case "true", render.StateReady, render.ActionSuccess:
		return "[green::]" + value + "[-::]"
	case "false", render.StateTerminated, render.StateUnavailable, render.ActionFailed, "error":
		return "[red::]" + value + "[-::]"
	case "null", "~":
		return "[gray::]" + value + "[-::]"
	case render.StateProvisioning, render.StateBooting, render.StateInstalling, render.StateStarting,
		render.StateDraining, render.StateTerminating, render.ActionInProgress:
		return "[yellow::]" + value + "[-::]"
	}
	if _, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return "[fuchsia::]" + value + "[-::]"
	}

	return value
}
