package model1

// RowEvent is a rendered row together with what the last refresh did to it.
type RowEvent struct {
	Kind   ResEvent
	Row    Row
	Deltas DeltaRow
}

func NewRowEvent(kind ResEvent, row Row) RowEvent {
	return RowEvent{Kind: kind, Row: row}
}

// NewRowEventWithDeltas marks a row updated by a refresh.
func NewRowEventWithDeltas(row Row, delta DeltaRow) RowEvent {
	return RowEvent{Kind: EventUpdate, Row: row, Deltas: delta}
}

// Changed reports whether column col was updated by the last refresh.
func (r RowEvent) Changed(col int) bool {
	return r.Kind == EventUpdate && r.Deltas.Changed(col)
}

// Customize projects the row and its deltas onto the given columns.
func (r RowEvent) Customize(cols []int) RowEvent {
	out := RowEvent{Kind: r.Kind, Row: r.Row.Customize(cols)}
	if !r.Deltas.IsBlank() {
		out.Deltas = make(DeltaRow, len(cols))
		r.Deltas.Customize(cols, out.Deltas)
	}

	return out
}
