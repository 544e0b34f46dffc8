// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of ivs

package view

import (
	"context"

	"github.com/derailed/tcell/v2"
	"github.com/inventiv/ivs/internal/dao"
	"github.com/inventiv/ivs/internal/ui"
)

// Instance browses GPU instances.
type Instance struct {
	*Browser
}

// NewInstance returns a new instance browser.
func NewInstance(app *App) *Instance {
	return &Instance{
		Browser: NewBrowser(app, &dao.InstanceRID),
	}
}

// Init initializes the view.
func (i *Instance) Init(ctx context.Context) error {
	if err := i.Browser.Init(ctx); err != nil {
		return err
	}
	i.Actions().Bulk(ui.KeyMap{
		ui.KeyA: ui.NewKeyAction("Toggle Archived", i.archivedCmd, true),
		ui.KeyL: ui.NewKeyAction("Actions", i.actionsCmd, true),
	})

	return nil
}

func (i *Instance) archivedCmd(*tcell.EventKey) *tcell.EventKey {
	i.Model().ToggleArchived()
	i.SelectIndex(0)
	if i.Model().Query().Archived {
		i.app.Flash().Info("Showing archived instances")
	} else {
		i.app.Flash().Info("Showing live instances")
	}
	return nil
}

// actionsCmd shows the action log of the selected instance.
func (i *Instance) actionsCmd(*tcell.EventKey) *tcell.EventKey {
	o, ok := i.SelectedObject()
	if !ok {
		return nil
	}
	v := NewBrowser(i.app, &dao.ActionLogRID).WithFilter("instance_id=" + o.GetID())
	if err := i.app.Inject(v); err != nil {
		i.app.Flash().Err(err)
	}
	return nil
}
