package vlist

import "sort"

// ActiveRequests tracks the pages awaiting a response for the current query.
// A page can be reserved only once until released.
type ActiveRequests struct {
	pages map[int]struct{}
}

// NewActiveRequests returns an empty in-flight set.
func NewActiveRequests() *ActiveRequests {
	return &ActiveRequests{pages: make(map[int]struct{})}
}

// TryReserve marks the page in flight. It returns false if it already was.
func (a *ActiveRequests) TryReserve(page int) bool {
	if _, ok := a.pages[page]; ok {
		return false
	}
	a.pages[page] = struct{}{}
	return true
}

// Release clears the page reservation.
func (a *ActiveRequests) Release(page int) {
	delete(a.pages, page)
}

// Has returns true if the page is in flight.
func (a *ActiveRequests) Has(page int) bool {
	_, ok := a.pages[page]
	return ok
}

// Len returns the number of pages in flight.
func (a *ActiveRequests) Len() int {
	return len(a.pages)
}

// Pages returns the in-flight pages in ascending order.
func (a *ActiveRequests) Pages() []int {
	pp := make([]int, 0, len(a.pages))
	for p := range a.pages {
		pp = append(pp, p)
	}
	sort.Ints(pp)
	return pp
}

// Clear drops all reservations.
func (a *ActiveRequests) Clear() {
	clear(a.pages)
}
