// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of ivs

package ui

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/derailed/tcell/v2"
	"github.com/derailed/tview"
)

// IndicatorMode tracks what the command bar input is used for.
type IndicatorMode int

const (
	// ModeNormal means the bar is idle.
	ModeNormal IndicatorMode = iota
	// ModeCommand reads a `:` command.
	ModeCommand
	// ModeFilter edits the server side filter of the current list.
	ModeFilter
)

type modeStyle struct {
	icon, prompt string
}

var modeStyles = map[IndicatorMode]modeStyle{
	ModeNormal:  {icon: "🚀", prompt: ">"},
	ModeCommand: {icon: "🚀", prompt: ":"},
	ModeFilter:  {icon: "🔍", prompt: "/"},
}

// SuggestFunc proposes commands close to an unknown input.
type SuggestFunc func(text string) []string

// suggester completes command names. Prefix matches win; the fallback
// func only runs when nothing matches.
type suggester struct {
	commands []string
	fallback SuggestFunc
	items    []string
	idx      int
}

func (s *suggester) update(text string) {
	s.reset()
	if text == "" {
		return
	}
	text = strings.ToLower(text)
	for _, c := range s.commands {
		if strings.HasPrefix(c, text) {
			s.items = append(s.items, c)
		}
	}
	if len(s.items) == 0 && s.fallback != nil {
		s.items = s.fallback(text)
	}
}

func (s *suggester) cycle(step int) {
	if n := len(s.items); n > 0 {
		s.idx = (s.idx + step + n) % n
	}
}

func (s *suggester) current() string {
	if len(s.items) == 0 {
		return ""
	}
	return s.items[s.idx]
}

func (s *suggester) reset() {
	s.items, s.idx = nil, 0
}

// CmdBar is the bordered prompt above the content area. It shows the pending
// completion as ghost text.
type CmdBar struct {
	*tview.TextView

	mode       IndicatorMode
	active     bool
	text       []rune
	filterText string
	suggest    suggester
	cmdFn      func(string)
	filterFn   func(string)
	cancelFn   func()
	activeFn   func(bool)
	mx         sync.RWMutex
}

func NewCmdBar() *CmdBar {
	c := CmdBar{TextView: tview.NewTextView()}
	c.SetBorder(true)
	c.SetBorderColor(tcell.ColorDarkCyan)
	c.SetBackgroundColor(tcell.ColorDefault)
	c.SetTextColor(tcell.ColorWhite)
	c.SetDynamicColors(true)
	c.SetWrap(false)
	c.SetInputCapture(c.keyboard)
	c.render()

	return &c
}

func (c *CmdBar) keyboard(evt *tcell.EventKey) *tcell.EventKey {
	if !c.active {
		return evt
	}

	switch evt.Key() {
	case tcell.KeyEnter:
		c.execute()
	case tcell.KeyEsc:
		c.cancel()
	case tcell.KeyTab, tcell.KeyRight:
		c.mx.Lock()
		if s := c.suggest.current(); s != "" {
			c.text = []rune(s)
			c.suggest.reset()
		}
		c.mx.Unlock()
	case tcell.KeyUp:
		c.mx.Lock()
		c.suggest.cycle(-1)
		c.mx.Unlock()
	case tcell.KeyDown:
		c.mx.Lock()
		c.suggest.cycle(1)
		c.mx.Unlock()
	case tcell.KeyBackspace, tcell.KeyBackspace2, tcell.KeyDelete:
		c.edit(func(t []rune) []rune {
			if len(t) == 0 {
				return t
			}
			return t[:len(t)-1]
		})
	case tcell.KeyCtrlU, tcell.KeyCtrlW:
		c.edit(func(t []rune) []rune { return t[:0] })
	case tcell.KeyRune:
		c.edit(func(t []rune) []rune { return append(t, evt.Rune()) })
	default:
		return evt
	}
	c.render()

	return nil
}

// edit applies fn to the input, refreshes completions and, in filter mode,
// pushes the new filter out.
func (c *CmdBar) edit(fn func([]rune) []rune) {
	c.mx.Lock()
	c.text = fn(c.text)
	text := string(c.text)
	if c.mode == ModeCommand {
		c.suggest.update(text)
	} else {
		c.suggest.reset()
	}
	mode, filterFn := c.mode, c.filterFn
	c.mx.Unlock()

	if mode == ModeFilter && filterFn != nil {
		filterFn(text)
	}
}

func (c *CmdBar) render() {
	c.mx.RLock()
	text, ghost, st := string(c.text), c.suggest.current(), modeStyles[c.mode]
	c.mx.RUnlock()

	c.Clear()
	line := st.icon + st.prompt + " [::b]" + text
	switch {
	case ghost == "":
	case strings.HasPrefix(ghost, text):
		line += "[gray::]" + ghost[len(text):] + "[-::]"
	default:
		line += "[gray::] (" + ghost + "?)[-::]"
	}
	fmt.Fprint(c.TextView, line)
}

// SetSuggestFn sets the fallback used when no command matches the input.
func (c *CmdBar) SetSuggestFn(fn SuggestFunc) {
	c.mx.Lock()
	defer c.mx.Unlock()

	c.suggest.fallback = fn
}

// SetCommands replaces the completion candidates.
func (c *CmdBar) SetCommands(cmds []string) {
	c.mx.Lock()
	defer c.mx.Unlock()

	c.suggest.commands = slices.Sorted(slices.Values(cmds))
}

func (c *CmdBar) GetText() string {
	c.mx.RLock()
	defer c.mx.RUnlock()

	return string(c.text)
}

// Activate opens the prompt in the given mode. Filter mode starts from the
// filter currently applied.
func (c *CmdBar) Activate(mode IndicatorMode) {
	c.setState(mode, true)
}

// Deactivate closes the prompt.
func (c *CmdBar) Deactivate() {
	c.setState(ModeNormal, false)
}

func (c *CmdBar) setState(mode IndicatorMode, active bool) {
	c.mx.Lock()
	c.mode, c.active = mode, active
	c.text = c.text[:0]
	if mode == ModeFilter {
		c.text = append(c.text, []rune(c.filterText)...)
	}
	c.suggest.reset()
	fn := c.activeFn
	c.mx.Unlock()

	c.render()
	if fn != nil {
		fn(active)
	}
}

func (c *CmdBar) execute() {
	text := c.GetText()
	switch c.mode {
	case ModeCommand:
		if c.cmdFn != nil && text != "" {
			c.cmdFn(":" + text)
		}
	case ModeFilter:
		c.filterText = text
	}
	c.Deactivate()
}

func (c *CmdBar) cancel() {
	if c.mode == ModeFilter {
		c.filterText = ""
		if c.cancelFn != nil {
			c.cancelFn()
		}
	}
	c.Deactivate()
}

func (c *CmdBar) IsActive() bool {
	return c.active
}

func (c *CmdBar) Mode() IndicatorMode {
	return c.mode
}

// SetCommandFn sets the callback receiving `:` commands.
func (c *CmdBar) SetCommandFn(fn func(string)) {
	c.cmdFn = fn
}

// SetFilterFn sets the callback receiving every filter edit.
func (c *CmdBar) SetFilterFn(fn func(string)) {
	c.filterFn = fn
}

// SetCancelFn sets the callback run when a filter edit is abandoned.
func (c *CmdBar) SetCancelFn(fn func()) {
	c.cancelFn = fn
}

func (c *CmdBar) SetActiveFn(fn func(bool)) {
	c.activeFn = fn
}

// GetFilterText returns the last confirmed filter.
func (c *CmdBar) GetFilterText() string {
	return c.filterText
}

// SetFilterText records a filter applied outside the bar.
func (c *CmdBar) SetFilterText(s string) {
	c.filterText = s
}

// ClearFilter drops the confirmed filter and notifies the filter callback.
func (c *CmdBar) ClearFilter() {
	c.filterText = ""
	if c.filterFn != nil {
		c.filterFn("")
	}
}
