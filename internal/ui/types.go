package ui

import (
	"cmp"
	"context"
	"slices"
	"strconv"
	"sync"

	"github.com/derailed/tview"
)

// MenuHint is a key binding shown in the menu.
type MenuHint struct {
	Mnemonic    string
	Description string
	Visible     bool
}

// MenuHints is a set of key bindings.
type MenuHints []MenuHint

// Sorted returns the visible hints, numeric mnemonics first in numeric
// order, the others by description. Duplicate mnemonics keep the first.
func (h MenuHints) Sorted() MenuHints {
	out := make(MenuHints, 0, len(h))
	seen := make(map[string]struct{}, len(h))
	for _, m := range h {
		if _, ok := seen[m.Mnemonic]; ok || !m.Visible || m.Mnemonic == "" {
			continue
		}
		seen[m.Mnemonic] = struct{}{}
		out = append(out, m)
	}
	slices.SortStableFunc(out, func(a, b MenuHint) int {
		n, errA := strconv.Atoi(a.Mnemonic)
		m, errB := strconv.Atoi(b.Mnemonic)
		switch {
		case errA == nil && errB == nil:
			return cmp.Compare(n, m)
		case errA == nil:
			return -1
		case errB == nil:
			return 1
		}
		return cmp.Compare(a.Description, b.Description)
	})

	return out
}

// Hinter provides menu hints.
type Hinter interface {
	Hints() MenuHints
}

// Primitive is a named tview primitive.
type Primitive interface {
	tview.Primitive
	Name() string
}

// Igniter is a view with a lifecycle.
type Igniter interface {
	Init(ctx context.Context) error
	Start()
	Stop()
}

// Component is a stackable view.
type Component interface {
	Primitive
	Igniter
	Hinter
}

// StackListener observes a component stack.
type StackListener interface {
	// StackPushed is called once c is on top.
	StackPushed(c Component)

	// StackPopped is called once old left the stack, top is the new top or nil.
	StackPopped(old, top Component)

	// StackTop is called with the current top on registration.
	StackTop(Component)
}

// Stack is the navigation history of views. The view below the top is
// stopped while covered.
type Stack struct {
	mx         sync.RWMutex
	components []Component
	listeners  []StackListener
}

// NewStack returns an empty stack.
func NewStack() *Stack {
	return &Stack{}
}

// AddListener registers l and tells it the current top.
func (s *Stack) AddListener(l StackListener) {
	s.listeners = append(s.listeners, l)
	if top := s.Top(); top != nil {
		l.StackTop(top)
	}
}

// Push stops the current top and pushes c.
func (s *Stack) Push(c Component) {
	if top := s.Top(); top != nil {
		top.Stop()
	}
	s.mx.Lock()
	s.components = append(s.components, c)
	s.mx.Unlock()

	for _, l := range s.listeners {
		l.StackPushed(c)
	}
}

// Pop stops and removes the top.
func (s *Stack) Pop() (Component, bool) {
	s.mx.Lock()
	n := len(s.components)
	if n == 0 {
		s.mx.Unlock()
		return nil, false
	}
	c := s.components[n-1]
	s.components = s.components[:n-1]
	s.mx.Unlock()

	c.Stop()
	top := s.Top()
	for _, l := range s.listeners {
		l.StackPopped(c, top)
	}

	return c, true
}

// Clear pops every component.
func (s *Stack) Clear() {
	for {
		if _, ok := s.Pop(); !ok {
			return
		}
	}
}

// Len returns the stack depth.
func (s *Stack) Len() int {
	s.mx.RLock()
	defer s.mx.RUnlock()

	return len(s.components)
}

// Empty returns true when nothing is stacked.
func (s *Stack) Empty() bool {
	return s.Len() == 0
}

// Top returns the top component or nil.
func (s *Stack) Top() Component {
	s.mx.RLock()
	defer s.mx.RUnlock()

	if len(s.components) == 0 {
		return nil
	}
	return s.components[len(s.components)-1]
}
