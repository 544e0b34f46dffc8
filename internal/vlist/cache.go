package vlist

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// RangeCache is a sparse index to row store for a single query.
// Rows are grouped in pages of pageSize so that an optional LRU bound can
// evict whole pages at a time. With no bound the cache only grows until
// cleared.
type RangeCache[T any] struct {
	rows     map[int]T
	pageSize int
	maxPages int
	pages    *lru.Cache[int, struct{}]
	capacity int
	pinned   map[int]struct{}
}

// NewRangeCache returns a cache for the given page size. A positive maxPages
// bounds the number of resident pages.
func NewRangeCache[T any](pageSize, maxPages int) (*RangeCache[T], error) {
	if pageSize <= 0 {
		return nil, ErrInvalidPageSize
	}
	c := RangeCache[T]{
		rows:     make(map[int]T),
		pageSize: pageSize,
		maxPages: maxPages,
		pinned:   make(map[int]struct{}),
	}
	if maxPages > 0 {
		pages, err := lru.NewWithEvict[int, struct{}](maxPages, c.evict)
		if err != nil {
			return nil, err
		}
		c.pages, c.capacity = pages, maxPages
	}

	return &c, nil
}

// Insert stores items at consecutive indices starting at offset, replacing
// whatever was cached there. When the cache is bounded and full, a page
// outside the pinned window only lands if an older unpinned page can make
// room for it; pinned pages are never evicted.
func (c *RangeCache[T]) Insert(offset int, items []T) {
	if c.pages == nil {
		for i, it := range items {
			c.rows[offset+i] = it
		}
		return
	}
	for i := 0; i < len(items); {
		p := (offset + i) / c.pageSize
		end := min(len(items), (p+1)*c.pageSize-offset)
		if c.admit(p) {
			for j := i; j < end; j++ {
				c.rows[offset+j] = items[j]
			}
			c.pages.Add(p, struct{}{})
		}
		i = end
	}
}

// admit reports whether page p may become resident, evicting the least
// recently used unpinned page when the cache is full.
func (c *RangeCache[T]) admit(p int) bool {
	if c.pages.Contains(p) || c.pages.Len() < c.capacity {
		return true
	}
	for _, k := range c.pages.Keys() {
		if _, ok := c.pinned[k]; !ok {
			c.pages.Remove(k)
			return true
		}
	}
	if _, ok := c.pinned[p]; !ok {
		return false
	}
	c.capacity++
	c.pages.Resize(c.capacity)

	return true
}

// Get returns the row at index i if cached.
func (c *RangeCache[T]) Get(i int) (T, bool) {
	it, ok := c.rows[i]
	return it, ok
}

// Has returns true if index i is cached.
func (c *RangeCache[T]) Has(i int) bool {
	_, ok := c.rows[i]
	return ok
}

// Len returns the number of cached rows.
func (c *RangeCache[T]) Len() int {
	return len(c.rows)
}

// Pages returns the number of resident pages when the cache is bounded.
func (c *RangeCache[T]) Pages() int {
	if c.pages == nil {
		return -1
	}
	return c.pages.Len()
}

// Clear drops every cached row.
func (c *RangeCache[T]) Clear() {
	if c.pages != nil {
		c.pages.Purge()
	}
	clear(c.rows)
	clear(c.pinned)
}

// Pin protects the pages covering r from eviction until the next Pin, and
// grows the LRU bound if needed so that all of them fit.
func (c *RangeCache[T]) Pin(r Range) {
	if c.pages == nil {
		return
	}
	clear(c.pinned)
	if r.Empty() {
		return
	}
	first, last := r.Start/c.pageSize, r.End/c.pageSize
	for p := first; p <= last; p++ {
		c.pinned[p] = struct{}{}
		c.pages.Get(p)
	}
	if want := max(c.maxPages, last-first+1); want != c.capacity {
		c.pages.Resize(want)
		c.capacity = want
	}
}

func (c *RangeCache[T]) evict(page int, _ struct{}) {
	start := page * c.pageSize
	for i := start; i < start+c.pageSize; i++ {
		delete(c.rows, i)
	}
}
