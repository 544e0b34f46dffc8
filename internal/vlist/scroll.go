package vlist

// ScrollTracker maps a scroll offset and viewport geometry to the window of
// row indices that must be materialized. All measures share one unit, pixels
// or terminal lines.
type ScrollTracker struct {
	scrollTop    int
	viewport     int
	headerHeight int
	rowHeight    int
	overscan     int
}

// NewScrollTracker returns a tracker. Row height is forced to at least 1.
func NewScrollTracker(rowHeight, viewport, headerHeight, overscan int) *ScrollTracker {
	return &ScrollTracker{
		rowHeight:    max(1, rowHeight),
		viewport:     max(0, viewport),
		headerHeight: max(0, headerHeight),
		overscan:     max(0, overscan),
	}
}

// ScrollTop returns the current scroll offset.
func (s *ScrollTracker) ScrollTop() int { return s.scrollTop }

// Viewport returns the viewport height.
func (s *ScrollTracker) Viewport() int { return s.viewport }

// HeaderHeight returns the header height.
func (s *ScrollTracker) HeaderHeight() int { return s.headerHeight }

// RowHeight returns the row height.
func (s *ScrollTracker) RowHeight() int { return s.rowHeight }

// Overscan returns the number of extra rows kept on each side.
func (s *ScrollTracker) Overscan() int { return s.overscan }

// SetScrollTop records the scroll offset. Negative offsets clamp to zero.
func (s *ScrollTracker) SetScrollTop(top int) {
	s.scrollTop = max(0, top)
}

// SetViewport records the viewport height.
func (s *ScrollTracker) SetViewport(h int) {
	s.viewport = max(0, h)
}

// SetHeaderHeight records the sticky header height.
func (s *ScrollTracker) SetHeaderHeight(h int) {
	s.headerHeight = max(0, h)
}

// ContentHeight returns the full scrollable height for count rows.
func (s *ScrollTracker) ContentHeight(count int) int {
	return max(0, count)*s.rowHeight + s.headerHeight
}

// MaxScrollTop returns the largest meaningful scroll offset for count rows.
func (s *ScrollTracker) MaxScrollTop(count int) int {
	return max(0, s.ContentHeight(count)-s.viewport)
}

// ClampScrollTop clamps the scroll offset to the content for count rows.
func (s *ScrollTracker) ClampScrollTop(count int) {
	s.scrollTop = min(s.scrollTop, s.MaxScrollTop(count))
}

// ScrollTopFor returns the scroll offset placing row i at the top of the
// body area.
func (s *ScrollTracker) ScrollTopFor(i int) int {
	if i <= 0 {
		return 0
	}
	return i*s.rowHeight + s.headerHeight
}

func (s *ScrollTracker) effective() (top, vp int) {
	return max(0, s.scrollTop-s.headerHeight), max(0, s.viewport-s.headerHeight)
}

// TopIndex returns the first row index intersecting the body area.
func (s *ScrollTracker) TopIndex() int {
	top, _ := s.effective()
	return top / s.rowHeight
}

// VisibleRows returns how many rows fit in the body area.
func (s *ScrollTracker) VisibleRows() int {
	_, vp := s.effective()
	return vp / s.rowHeight
}

// Range returns the window to materialize for count filtered rows,
// overscan included.
func (s *ScrollTracker) Range(count int) Range {
	if count <= 0 {
		return EmptyRange
	}
	top, vp := s.effective()
	start := max(0, top/s.rowHeight-s.overscan)
	end := min(count-1, (top+vp)/s.rowHeight+s.overscan)
	if start > end {
		return EmptyRange
	}

	return Range{Start: start, End: end}
}
