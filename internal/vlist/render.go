package vlist

// RowLayout positions a row in content coordinates.
type RowLayout struct {
	Top    int
	Height int
}

// RenderFunc draws one row of the window. Rows not fetched yet are passed
// with loaded false and a zero value row.
type RenderFunc[T any] func(index int, row T, loaded bool, layout RowLayout)

// Render invokes fn for every index of the current window in order.
func (l *List[T]) Render(fn RenderFunc[T]) {
	rh, hh := l.scroll.RowHeight(), l.scroll.HeaderHeight()
	for i := l.rng.Start; i <= l.rng.End; i++ {
		row, ok := l.cache.Get(i)
		fn(i, row, ok, RowLayout{Top: hh + i*rh, Height: rh})
	}
}

// Window maps the current window of l to views.
func Window[T, V any](l *List[T], fn func(index int, row T, loaded bool, layout RowLayout) V) []V {
	out := make([]V, 0, l.rng.Len())
	l.Render(func(i int, row T, loaded bool, layout RowLayout) {
		out = append(out, fn(i, row, loaded, layout))
	})

	return out
}
