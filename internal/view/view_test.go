// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of ivs

package view

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inventiv/ivs/internal/config"
	"github.com/inventiv/ivs/internal/ui"
)

func TestHighlightYAML(t *testing.T) {
	in := strings.Join([]string{
		"id: i-1",
		"status: ready",
		"isArchived: false",
		"costPerHour: 2.5",
		"gpu:",
		"  - name: H100",
		"note: [x]",
	}, "\n")

	lines := strings.Split(strings.TrimSuffix(highlightYAML(in), "\n"), "\n")
	require.Len(t, lines, 7)

	assert.Equal(t, "[aqua::]id:[-::] i-1", lines[0])
	assert.Equal(t, "[aqua::]status:[-::] [green::]ready[-::]", lines[1])
	assert.Equal(t, "[aqua::]isArchived:[-::] [red::]false[-::]", lines[2])
	assert.Equal(t, "[aqua::]costPerHour:[-::] [fuchsia::]2.5[-::]", lines[3])
	assert.Equal(t, "[aqua::]gpu:[-::]", lines[4])
	assert.Equal(t, "  - [aqua::]name:[-::] H100", lines[5])
	assert.Equal(t, "[aqua::]note:[-::] [x[]", lines[6], "tview tags are escaped")
}

func TestColorizeValue(t *testing.T) {
	uu := map[string]string{
		"installing": "[yellow::]installing[-::]",
		`"failed"`:   `[red::]"failed"[-::]`,
		"null":       "[gray::]null[-::]",
		"gpu-1":      "gpu-1",
	}
	for in, e := range uu {
		assert.Equal(t, e, colorizeValue(in), in)
	}
}

func TestEditorCommand(t *testing.T) {
	t.Setenv("VISUAL", "")
	t.Setenv("EDITOR", "code -w")

	argv, err := editorCommand()
	require.NoError(t, err)
	assert.Equal(t, []string{"code", "-w"}, argv)

	t.Setenv("EDITOR", "  ")
	t.Setenv("VISUAL", "hx")
	argv, err = editorCommand()
	require.NoError(t, err)
	assert.Equal(t, []string{"hx"}, argv)
}

func TestParseCommand(t *testing.T) {
	uu := map[string]struct {
		cmd  string
		name string
		args []string
	}{
		"empty":  {},
		"bare":   {cmd: "instances", name: "instances", args: []string{}},
		"filter": {cmd: "i  h100 ready", name: "i", args: []string{"h100", "ready"}},
	}

	for k := range uu {
		u := uu[k]
		t.Run(k, func(t *testing.T) {
			name, args := parseCommand(u.cmd)
			assert.Equal(t, u.name, name)
			assert.Equal(t, u.args, args)
		})
	}
}

func TestHelpColumns(t *testing.T) {
	hk := config.NewHotKeys()
	hk.Set("failures", config.HotKey{ShortCut: "Shift-F", Description: "Failed actions", Command: "logs status=failed"})
	h := NewHelp(&App{hotKeys: hk}, ui.MenuHints{
		{Mnemonic: "d", Description: "Describe", Visible: true},
		{Mnemonic: "x", Description: "Hidden"},
	})

	titles, cols := h.columns()
	require.Len(t, cols, len(titles))
	assert.Equal(t, []string{"RESOURCES", "GENERAL", "NAVIGATION", "VIEW"}, titles)
	assert.Contains(t, cols[0], HelpBind{"<Shift-F>", "Failed actions"})
	assert.Equal(t, []HelpBind{{"<d>", "Describe"}}, cols[3])
}
