// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of ivs

package view

import (
	"context"
	"fmt"

	"github.com/derailed/tcell/v2"
	"github.com/derailed/tview"
	"github.com/inventiv/ivs/internal/ui"
)

// ProfileSwitcher displays and allows switching between API profiles.
type ProfileSwitcher struct {
	*tview.Table

	app      *App
	actions  *ui.KeyActions
	profiles []string
	current  string
}

// NewProfileSwitcher creates a new profile switcher view.
func NewProfileSwitcher(app *App) *ProfileSwitcher {
	p := ProfileSwitcher{
		Table:   tview.NewTable(),
		app:     app,
		actions: ui.NewKeyActions(),
	}

	p.SetBorder(true)
	p.SetTitle(" Profiles ")
	p.SetTitleAlign(tview.AlignCenter)
	p.SetBorderColor(tcell.ColorAqua)
	p.SetBackgroundColor(tcell.ColorDefault)
	p.SetSelectable(true, false)
	p.SetFixed(1, 0)

	return &p
}

// Init initializes the profile switcher.
func (p *ProfileSwitcher) Init(context.Context) error {
	p.actions.Bulk(ui.KeyMap{
		tcell.KeyEnter: ui.NewKeyAction("Switch", p.selectCmd, true),
		tcell.KeyEsc:   ui.NewKeyAction("Back", nil, true),
	})
	p.SetInputCapture(p.keyboard)
	return nil
}

// Start loads the profiles.
func (p *ProfileSwitcher) Start() {
	p.loadProfiles()
}

// Stop ends the view lifecycle.
func (*ProfileSwitcher) Stop() {}

// Name returns the view name.
func (*ProfileSwitcher) Name() string {
	return "profile"
}

// Hints returns menu hints.
func (p *ProfileSwitcher) Hints() ui.MenuHints {
	return p.actions.Hints()
}

func (p *ProfileSwitcher) keyboard(evt *tcell.EventKey) *tcell.EventKey {
	row, col := p.GetSelection()
	last := p.GetRowCount() - 1

	switch ui.AsKey(evt) {
	case ui.KeyJ, tcell.KeyDown:
		p.Select(min(row+1, last), col)
		return nil
	case ui.KeyK, tcell.KeyUp:
		p.Select(max(row-1, 1), col)
		return nil
	case ui.KeyG:
		p.Select(1, col)
		return nil
	case ui.KeyShiftG:
		p.Select(last, col)
		return nil
	}
	if a, ok := p.actions.Get(ui.AsKey(evt)); ok && a.Action != nil {
		return a.Action(evt)
	}

	return evt
}

func (p *ProfileSwitcher) loadProfiles() {
	p.Clear()
	for col, h := range []string{"", "PROFILE", "ENDPOINT", "STATUS"} {
		p.SetCell(0, col, tview.NewTableCell(h).
			SetTextColor(tcell.ColorYellow).
			SetSelectable(false).
			SetExpansion(1))
	}

	settings := p.app.Config().Settings()
	if settings == nil {
		p.showNoData("No API profiles")
		return
	}
	p.current = p.app.Config().Ivs.ActiveProfile()
	p.profiles = settings.ProfileNames()
	if len(p.profiles) == 0 {
		p.showNoData("No profiles found")
		return
	}

	for i, name := range p.profiles {
		row := i + 1
		color, marker, status := tcell.ColorWhite, "", ""
		if name == p.current {
			color, marker, status = tcell.ColorGreen, "●", "active"
		}
		endpoint := "(default)"
		if pr, err := settings.GetProfile(name); err == nil && pr.Endpoint != "" {
			endpoint = pr.Endpoint
		}

		p.SetCell(row, 0, tview.NewTableCell(marker).SetTextColor(tcell.ColorGreen).SetAlign(tview.AlignCenter))
		p.SetCell(row, 1, tview.NewTableCell(name).SetTextColor(color).SetExpansion(1).SetReference(name))
		p.SetCell(row, 2, tview.NewTableCell(endpoint).SetTextColor(color).SetExpansion(1))
		p.SetCell(row, 3, tview.NewTableCell(status).SetTextColor(tcell.ColorGreen).SetExpansion(1))
	}
	p.SetTitle(fmt.Sprintf(" Profiles [%d] ", len(p.profiles)))
	p.Select(1, 0)
}

func (p *ProfileSwitcher) showNoData(msg string) {
	p.SetCell(1, 1, tview.NewTableCell(msg).
		SetTextColor(tcell.ColorGray).
		SetSelectable(false))
}

func (p *ProfileSwitcher) selectCmd(*tcell.EventKey) *tcell.EventKey {
	row, _ := p.GetSelection()
	if row < 1 || row > len(p.profiles) {
		return nil
	}
	name := p.profiles[row-1]
	if name == p.current {
		p.app.Flash().Infof("Already using profile: %s", name)
		return nil
	}
	if err := p.app.command.switchProfile(name); err != nil {
		p.app.Flash().Err(err)
	}

	return nil
}
