package ui

import (
	"context"
	"testing"

	"github.com/derailed/tcell/v2"
	"github.com/derailed/tview"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKey(t *testing.T) {
	uu := map[string]struct {
		s   string
		key tcell.Key
		err bool
	}{
		"rune":  {s: "x", key: KeyX},
		"shift": {s: "Shift-U", key: KeyShiftU},
		"ctrl":  {s: "Ctrl-R", key: tcell.KeyCtrlR},
		"fn":    {s: "f2", key: tcell.KeyF2},
		"bad":   {s: "Hyper-Q", err: true},
	}

	for k := range uu {
		u := uu[k]
		t.Run(k, func(t *testing.T) {
			key, err := ParseKey(u.s)
			if u.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, u.key, key)
		})
	}
}

func TestKeyActionsHints(t *testing.T) {
	noop := func(*tcell.EventKey) *tcell.EventKey { return nil }
	a := NewKeyActions()
	a.Bulk(KeyMap{
		KeySlash:       NewKeyAction("Filter", noop, true),
		KeyShiftA:      NewKeyAction("Archived", noop, true),
		tcell.KeyCtrlR: NewKeyAction("Reload", noop, false),
	})
	assert.Equal(t, 3, a.Len())

	hh := a.Hints()
	require.Len(t, hh, 3)
	assert.Equal(t, MenuHint{Mnemonic: "Ctrl-R", Description: "Reload"}, hh[0])
	assert.Equal(t, MenuHint{Mnemonic: "/", Description: "Filter", Visible: true}, hh[1])
	assert.Equal(t, MenuHint{Mnemonic: "Shift-A", Description: "Archived", Visible: true}, hh[2])

	a.Delete(KeySlash)
	_, ok := a.Get(KeySlash)
	assert.False(t, ok)
	assert.Equal(t, KeyQ, AsKey(tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone)))
}

func TestPagesStack(t *testing.T) {
	p := NewPages()
	crumbs := NewCrumbs()
	p.AddListener(crumbs)

	a, b := newComponent("instances"), newComponent("describe")
	p.Push(a)
	p.Push(b)
	assert.Equal(t, 1, a.stops)
	assert.Equal(t, b, p.Current())
	assert.Equal(t, []string{"instances", "describe"}, crumbs.Crumbs())
	assert.False(t, p.IsTopDialog())

	c, ok := p.Pop()
	require.True(t, ok)
	assert.Equal(t, b, c)
	assert.Equal(t, 1, b.stops)
	assert.Equal(t, a, p.Current())
	assert.Equal(t, []string{"instances"}, crumbs.Crumbs())

	var quit bool
	d := NewConfirm(p, "Quit", "Exit?", func() { quit = true })
	d.Show()
	assert.True(t, p.IsTopDialog())
	d.press(1, "No")
	assert.False(t, quit)
	assert.False(t, p.IsTopDialog())

	d.Show()
	d.press(0, "Yes")
	assert.True(t, quit)
	assert.False(t, p.IsTopDialog())

	p.Clear()
	assert.True(t, p.Empty())
	assert.Empty(t, crumbs.Crumbs())
}

func TestCmdBarCommand(t *testing.T) {
	c := NewCmdBar()
	c.SetCommands([]string{"users", "instances", "actions"})
	c.SetSuggestFn(func(string) []string { return []string{"instances"} })

	var ran string
	c.SetCommandFn(func(s string) { ran = s })
	c.Activate(ModeCommand)
	typeText(c, "in")
	assert.Equal(t, "instances", c.suggest.current())

	c.keyboard(tcell.NewEventKey(tcell.KeyTab, 0, tcell.ModNone))
	assert.Equal(t, "instances", c.GetText())
	c.keyboard(tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModNone))
	assert.Equal(t, ":instances", ran)
	assert.False(t, c.IsActive())

	c.Activate(ModeCommand)
	typeText(c, "instnces")
	assert.Equal(t, "instances", c.suggest.current())
	c.keyboard(tcell.NewEventKey(tcell.KeyEsc, 0, tcell.ModNone))
	assert.Equal(t, ModeNormal, c.Mode())
}

func TestCmdBarFilter(t *testing.T) {
	c := NewCmdBar()
	var seen []string
	c.SetFilterFn(func(s string) { seen = append(seen, s) })
	cancelled := false
	c.SetCancelFn(func() { cancelled = true })

	c.Activate(ModeFilter)
	typeText(c, "gp")
	c.keyboard(tcell.NewEventKey(tcell.KeyBackspace2, 0, tcell.ModNone))
	assert.Equal(t, []string{"g", "gp", "g"}, seen)
	c.keyboard(tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModNone))
	assert.Equal(t, "g", c.GetFilterText())

	c.Activate(ModeFilter)
	assert.Equal(t, "g", c.GetText())
	c.keyboard(tcell.NewEventKey(tcell.KeyEsc, 0, tcell.ModNone))
	assert.True(t, cancelled)
	assert.Empty(t, c.GetFilterText())
}

func TestSuggesterCycle(t *testing.T) {
	s := suggester{commands: []string{"actions", "archive", "instances"}}
	s.update("A")
	assert.Equal(t, []string{"actions", "archive"}, s.items)
	assert.Equal(t, "actions", s.current())
	s.cycle(-1)
	assert.Equal(t, "archive", s.current())
	s.cycle(1)
	assert.Equal(t, "actions", s.current())

	s.update("zz")
	assert.Empty(t, s.current())
}

func typeText(c *CmdBar, s string) {
	for _, r := range s {
		c.keyboard(tcell.NewEventKey(tcell.KeyRune, r, tcell.ModNone))
	}
}

type component struct {
	*tview.Box
	name  string
	stops int
}

func newComponent(n string) *component {
	return &component{Box: tview.NewBox(), name: n}
}

func (c *component) Name() string             { return c.name }
func (*component) Init(context.Context) error { return nil }
func (*component) Start()                     {}
func (c *component) Stop()                    { c.stops++ }
func (*component) Hints() MenuHints           { return nil }

func TestMenuColumns(t *testing.T) {
	hh := MenuHints{
		{Mnemonic: "d", Description: "Describe", Visible: true},
		{Mnemonic: "1", Description: "Live", Visible: true},
		{Mnemonic: "a", Description: "Archived", Visible: true},
		{Mnemonic: "x", Description: "Hidden"},
		{Mnemonic: "d", Description: "Duplicate", Visible: true},
		{Mnemonic: "Ctrl-R", Description: "Reload", Visible: true},
	}

	cols := menuColumns(hh, 2)
	require.Len(t, cols, 2)
	assert.Equal(t, MenuHints{
		{Mnemonic: "1", Description: "Live", Visible: true},
		{Mnemonic: "a", Description: "Archived", Visible: true},
	}, cols[0])
	assert.Equal(t, "d", cols[1][0].Mnemonic)
	assert.Equal(t, "Ctrl-R", cols[1][1].Mnemonic)

	assert.Empty(t, menuColumns(nil, menuRows))
	assert.Equal(t, " [yellow::b]<a>[white::-]      Archived ", formatHint(cols[0][1], 6))
}
