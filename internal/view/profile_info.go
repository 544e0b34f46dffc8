// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of ivs

package view

import (
	"net/url"

	"github.com/derailed/tcell/v2"
	"github.com/derailed/tview"
)

// ProfileInfo shows the active profile, its endpoint and reachability.
type ProfileInfo struct {
	*tview.Table

	app    *App
	status string
}

// NewProfileInfo creates a new profile info display component.
func NewProfileInfo(app *App) *ProfileInfo {
	p := ProfileInfo{
		Table:  tview.NewTable(),
		app:    app,
		status: "[gray::]●[-::]",
	}

	p.SetBorder(true)
	p.SetBorderColor(tcell.ColorDarkCyan)
	p.SetBorderPadding(0, 0, 1, 1)
	p.SetSelectable(false, false)

	return &p
}

func (p *ProfileInfo) setStatus(ok bool) {
	if ok {
		p.status = "[green::]●[-::]"
	} else {
		p.status = "[red::]●[-::]"
	}
	p.refresh()
}

// refresh rebuilds the display.
func (p *ProfileInfo) refresh() {
	p.Clear()

	profile := p.app.Config().Ivs.ActiveProfile()
	if profile == "" {
		profile = "default"
	}
	host := "?"
	if f := p.app.GetFactory(); f != nil && f.Client() != nil {
		host = f.Client().Endpoint()
		if u, err := url.Parse(host); err == nil && u.Host != "" {
			host = u.Host
		}
	}

	p.SetCell(0, 0, tview.NewTableCell(p.status+" [::b]"+tview.Escape(profile)+"[::-]@"+tview.Escape(host)+" [gray::](v"+p.app.Version()+")[-::]").
		SetTextColor(tcell.ColorDarkCyan).
		SetSelectable(false))
}
