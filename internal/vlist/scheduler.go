package vlist

// Scheduler maps row windows to page requests.
type Scheduler struct {
	pageSize int
}

// NewScheduler returns a scheduler for the given page size.
func NewScheduler(pageSize int) Scheduler {
	return Scheduler{pageSize: max(1, pageSize)}
}

// PageSize returns the request granularity.
func (s Scheduler) PageSize() int {
	return s.pageSize
}

// PageOf returns the page holding index i.
func (s Scheduler) PageOf(i int) int {
	return i / s.pageSize
}

// Offset returns the first index of page p.
func (s Scheduler) Offset(p int) int {
	return p * s.pageSize
}

// PagesFor returns the pages overlapping r in ascending order.
func (s Scheduler) PagesFor(r Range) []int {
	if r.Empty() {
		return nil
	}
	first, last := s.PageOf(r.Start), s.PageOf(r.End)
	pp := make([]int, 0, last-first+1)
	for p := first; p <= last; p++ {
		pp = append(pp, p)
	}
	return pp
}

// Missing returns the pages overlapping r that have at least one uncached
// index within r and are not already in flight.
func (s Scheduler) Missing(r Range, has func(int) bool, inflight *ActiveRequests) []int {
	var pp []int
	for _, p := range s.PagesFor(r) {
		if inflight.Has(p) {
			continue
		}
		lo, hi := max(r.Start, s.Offset(p)), min(r.End, s.Offset(p+1)-1)
		for i := lo; i <= hi; i++ {
			if !has(i) {
				pp = append(pp, p)
				break
			}
		}
	}

	return pp
}
