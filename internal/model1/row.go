package model1

// Fields represents the rendered columns of a row
type Fields []string

func (f Fields) Customize(cols []int, out Fields) {
	for i, c := range cols {
		if c < 0 || c >= len(f) || i >= len(out) {
			continue
		}
		out[i] = f[c]
	}
}

// Row represents a collection of columns
type Row struct {
	ID     string
	Fields Fields
}

func NewRow(size int) Row {
	return Row{Fields: make([]string, size)}
}

// NewPendingRow returns a placeholder for a row that is not loaded yet.
func NewPendingRow(size int) Row {
	r := NewRow(size)
	for i := range r.Fields {
		r.Fields[i] = LoadingValue
	}
	return r
}

func (r Row) Customize(cols []int) Row {
	out := NewRow(len(cols))
	r.Fields.Customize(cols, out.Fields)
	out.ID = r.ID
	return out
}
