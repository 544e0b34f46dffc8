package ui

import (
	"fmt"

	"github.com/derailed/tview"
)

// Pages shows the component on top of its stack.
type Pages struct {
	*tview.Pages
	*Stack
}

// NewPages returns a new pages manager.
func NewPages() *Pages {
	p := Pages{
		Pages: tview.NewPages(),
		Stack: NewStack(),
	}
	p.Stack.AddListener(&p)

	return &p
}

// Current returns the component on top.
func (p *Pages) Current() Component {
	return p.Top()
}

// IsTopDialog checks if a dialog page is in front.
func (p *Pages) IsTopDialog() bool {
	name, _ := p.GetFrontPage()
	return IsDialog(name)
}

// Show brings a component to the front.
func (p *Pages) Show(c Component) {
	p.SwitchToPage(componentID(c))
}

// StackPushed notifies a new component was pushed.
func (p *Pages) StackPushed(c Component) {
	p.AddPage(componentID(c), c, true, true)
	p.Show(c)
}

// StackPopped notifies a component was removed.
func (p *Pages) StackPopped(o, top Component) {
	p.RemovePage(componentID(o))
	if top != nil {
		p.Show(top)
	}
}

// StackTop notifies the top component.
func (*Pages) StackTop(Component) {}

func componentID(c Component) string {
	return fmt.Sprintf("%s-%p", c.Name(), c)
}
