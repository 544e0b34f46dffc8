// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of ivs

package view

import (
	"context"

	"github.com/derailed/tcell/v2"
	"github.com/inventiv/ivs/internal/aws"
	"github.com/inventiv/ivs/internal/dao"
	"github.com/inventiv/ivs/internal/ui"
)

// Archive browses archived traces.
type Archive struct {
	*Browser
}

// NewArchive returns a new archive browser.
func NewArchive(app *App) *Archive {
	return &Archive{
		Browser: NewBrowser(app, &dao.ArchiveRID),
	}
}

// Init initializes the view.
func (a *Archive) Init(ctx context.Context) error {
	if a.app.GetFactory().Archive() == nil {
		return aws.ErrNoBucket
	}
	if err := a.Browser.Init(ctx); err != nil {
		return err
	}
	a.Actions().Add(ui.KeyP, ui.NewKeyAction("Preview", a.previewCmd, true))

	return nil
}

func (a *Archive) previewCmd(*tcell.EventKey) *tcell.EventKey {
	o, ok := a.SelectedObject()
	if !ok {
		return nil
	}
	d := NewDescribe(a.app, a.Model(), o)
	d.mode = modePreview
	if err := a.app.Inject(d); err != nil {
		a.app.Flash().Err(err)
	}
	return nil
}
