package model1

// DeltaRow holds, per column, the value a refreshed row had before the
// refresh. Unchanged columns are blank.
type DeltaRow []string

// NewDeltaRow compares two renditions of the same row. Time columns and
// placeholder values never count as changes.
func NewDeltaRow(o, n Row, h Header) DeltaRow {
	deltas := make(DeltaRow, len(o.Fields))
	for i, old := range o.Fields {
		if i >= len(n.Fields) || h.IsTimeCol(i) || isPlaceholder(old) {
			continue
		}
		if old != n.Fields[i] {
			deltas[i] = old
		}
	}

	return deltas
}

// Changed reports whether column col changed.
func (d DeltaRow) Changed(col int) bool {
	return col >= 0 && col < len(d) && d[col] != ""
}

// Count returns the number of changed columns.
func (d DeltaRow) Count() int {
	var n int
	for _, v := range d {
		if v != "" {
			n++
		}
	}
	return n
}

// IsBlank returns true when no column changed.
func (d DeltaRow) IsBlank() bool {
	return d.Count() == 0
}

// Customize projects the deltas onto the given columns.
func (d DeltaRow) Customize(cols []int, out DeltaRow) {
	if d.IsBlank() {
		return
	}
	for i, c := range cols {
		if i < len(out) && d.Changed(c) {
			out[i] = d[c]
		}
	}
}

func isPlaceholder(v string) bool {
	return v == "" || v == NAValue || v == LoadingValue
}
