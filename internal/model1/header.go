package model1

// Attrs represents column attributes
type Attrs struct {
	Align     int           // tview alignment
	Wide      bool          // Hidden in narrow view
	Time      bool          // Age column
	Capacity  bool          // Numeric (right-align)
	Hide      bool          // Always hidden
	Sort      string        // Server side sort key, empty when not sortable
	Decorator DecoratorFunc
}

// HeaderColumn represents a table header column
type HeaderColumn struct {
	Name string
	Attrs
}

// Header represents a table header (slice of columns)
type Header []HeaderColumn

func (h Header) IndexOf(colName string, includeWide bool) (int, bool) {
	for i, c := range h {
		if c.Wide && !includeWide {
			continue
		}
		if c.Name == colName {
			return i, true
		}
	}
	return -1, false
}

// SortIndex returns the column sorted by the given server key.
func (h Header) SortIndex(key string) (int, bool) {
	if key == "" {
		return -1, false
	}
	for i, c := range h {
		if c.Sort == key {
			return i, true
		}
	}
	return -1, false
}

// SortKeys returns the server sort keys in column order.
func (h Header) SortKeys() []string {
	var kk []string
	for _, c := range h {
		if c.Sort != "" {
			kk = append(kk, c.Sort)
		}
	}
	return kk
}

func (h Header) IsTimeCol(col int) bool {
	if col < 0 || col >= len(h) {
		return false
	}
	return h[col].Time
}

// Columns returns the indices of the visible columns.
func (h Header) Columns(wide bool) []int {
	cc := make([]int, 0, len(h))
	for i, c := range h {
		if c.Hide || (!wide && c.Wide) {
			continue
		}
		cc = append(cc, i)
	}
	return cc
}

func (h Header) ColumnNames(wide bool) []string {
	if len(h) == 0 {
		return nil
	}
	cc := make([]string, 0, len(h))
	for _, i := range h.Columns(wide) {
		cc = append(cc, h[i].Name)
	}
	return cc
}
