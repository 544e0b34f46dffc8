package model1

import (
	"github.com/derailed/tcell/v2"
)

const (
	// NAValue marks a field without a value.
	NAValue = "n/a"

	// LoadingValue fills the fields of rows whose page is not loaded yet.
	LoadingValue = "..."
)

// ResEvent represents a row event type
type ResEvent int

const (
	EventUnchanged ResEvent = 1 << iota
	EventAdd
	EventUpdate
	EventDelete
	EventPending
)

// DecoratorFunc decorates a string
type DecoratorFunc func(string) string

// ColorerFunc represents a resource row colorer
type ColorerFunc func(h Header, re *RowEvent) tcell.Color

// Renderer represents a resource renderer
type Renderer interface {
	Render(o any, row *Row) error
	Header() Header
	ColorerFunc() ColorerFunc
}
