package vlist

import "fmt"

// Range represents an inclusive window of row indices.
type Range struct {
	Start, End int
}

// EmptyRange is the window reported when there is nothing to show.
var EmptyRange = Range{Start: 0, End: -1}

// Empty returns true if the range holds no index.
func (r Range) Empty() bool {
	return r.End < r.Start
}

// Len returns the number of indices in the range.
func (r Range) Len() int {
	if r.Empty() {
		return 0
	}
	return r.End - r.Start + 1
}

// Contains returns true if i falls within the range.
func (r Range) Contains(i int) bool {
	return !r.Empty() && i >= r.Start && i <= r.End
}

// Widen grows the range by n on both sides, clamped to [0, count-1].
func (r Range) Widen(n, count int) Range {
	if r.Empty() || count <= 0 {
		return EmptyRange
	}
	out := Range{Start: r.Start - n, End: r.End + n}
	if out.Start < 0 {
		out.Start = 0
	}
	if out.End > count-1 {
		out.End = count - 1
	}
	if out.Empty() {
		return EmptyRange
	}
	return out
}

func (r Range) String() string {
	if r.Empty() {
		return "[]"
	}
	return fmt.Sprintf("[%d..%d]", r.Start, r.End)
}

// Counts tracks the server reported row counts for the active query.
type Counts struct {
	Total    int
	Filtered int
}

func (c Counts) String() string {
	return fmt.Sprintf("%d/%d", c.Filtered, c.Total)
}
