package model1

import "github.com/derailed/tcell/v2"

// Row palette.
var (
	StdColor       tcell.Color = tcell.ColorWhite
	AddColor       tcell.Color = tcell.ColorDodgerBlue
	ModColor       tcell.Color = tcell.ColorYellow
	ErrColor       tcell.Color = tcell.ColorOrangeRed
	KillColor      tcell.Color = tcell.ColorGray
	CompletedColor tcell.Color = tcell.ColorLimeGreen

	// PendingColor marks rows in a transitional state.
	PendingColor tcell.Color = tcell.ColorDarkCyan

	// HighlightColor marks rows worth noticing, admins for instance.
	HighlightColor tcell.Color = tcell.ColorAqua

	// LoadingColor marks placeholder rows whose page has not landed.
	LoadingColor tcell.Color = tcell.ColorDimGray
)

var eventColors = map[ResEvent]tcell.Color{
	EventPending: LoadingColor,
	EventAdd:     AddColor,
	EventUpdate:  ModColor,
	EventDelete:  KillColor,
}

// DefaultColorer colors a row by its error column, then by its last event.
func DefaultColorer(h Header, re *RowEvent) tcell.Color {
	if re.Kind != EventPending && !IsValid(h, re.Row) {
		return ErrColor
	}
	if c, ok := eventColors[re.Kind]; ok {
		return c
	}

	return StdColor
}
