// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of ivs

package ui

import (
	"strings"

	"github.com/derailed/tcell/v2"
	"github.com/derailed/tview"
)

const (
	crumbStyle    = "[gray::-]"
	topCrumbStyle = "[black:aqua:b]"
)

// Crumbs shows the trail of views pushed on the page stack.
type Crumbs struct {
	*tview.TextView

	names []string
}

func NewCrumbs() *Crumbs {
	c := Crumbs{TextView: tview.NewTextView()}
	c.SetBackgroundColor(tcell.ColorDefault)
	c.SetTextAlign(tview.AlignLeft)
	c.SetBorderPadding(0, 0, 1, 1)
	c.SetDynamicColors(true)

	return &c
}

func (c *Crumbs) StackPushed(comp Component) {
	c.names = append(c.names, crumbName(comp.Name()))
	c.draw()
}

func (c *Crumbs) StackPopped(_, _ Component) {
	if n := len(c.names); n > 0 {
		c.names = c.names[:n-1]
	}
	c.draw()
}

func (*Crumbs) StackTop(Component) {}

// Crumbs returns the trail, oldest first.
func (c *Crumbs) Crumbs() []string {
	return c.names
}

func (c *Crumbs) draw() {
	var b strings.Builder
	for i, n := range c.names {
		style := crumbStyle
		if i == len(c.names)-1 {
			style = topCrumbStyle
		}
		b.WriteString(style + " <" + n + "> [-:-:-] ")
	}
	c.SetText(b.String())
}

func crumbName(s string) string {
	return strings.ReplaceAll(strings.ToLower(s), " ", "")
}
