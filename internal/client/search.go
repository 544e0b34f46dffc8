package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/inventiv/ivs/internal/vlist"
)

const (
	// MaxSearchLimit is the largest page the control plane serves.
	MaxSearchLimit = 500

	SortAsc  = "asc"
	SortDesc = "desc"

	// IncludeStatsParam asks a search endpoint for per status counts.
	IncludeStatsParam = "include_stats"
)

// StatusCounts tallies the filtered rows by outcome.
type StatusCounts struct {
	Success    int `json:"success"`
	Failed     int `json:"failed"`
	InProgress int `json:"in_progress"`
}

// SearchResponse is the envelope returned by the */search endpoints.
// Pointers distinguish absent fields from zero values.
type SearchResponse[T any] struct {
	Offset        *int `json:"offset"`
	Limit         *int `json:"limit"`
	TotalCount    *int `json:"total_count"`
	FilteredCount *int `json:"filtered_count"`
	Rows          []T  `json:"rows"`

	StatusCounts *StatusCounts `json:"status_counts,omitempty"`
}

// Page validates the envelope and converts it to an engine page.
func (r SearchResponse[T]) Page(offset, limit int) (vlist.Page[T], error) {
	if r.TotalCount == nil || r.FilteredCount == nil {
		return vlist.Page[T]{}, fmt.Errorf("%w: missing counts", vlist.ErrMalformedResponse)
	}
	if r.Rows == nil {
		return vlist.Page[T]{}, fmt.Errorf("%w: missing rows", vlist.ErrMalformedResponse)
	}
	p := vlist.Page[T]{
		Offset:        offset,
		Limit:         limit,
		Items:         r.Rows,
		TotalCount:    *r.TotalCount,
		FilteredCount: *r.FilteredCount,
	}
	if r.Offset != nil {
		p.Offset = *r.Offset
	}
	if r.StatusCounts != nil {
		p.Stats = *r.StatusCounts
	}

	return p, nil
}

// Search fetches one page of a search endpoint. Params carry the opaque
// sort and filter parameters of the query.
func Search[T any](ctx context.Context, c Connection, path string, params url.Values, offset, limit int) (vlist.Page[T], error) {
	if c == nil {
		return vlist.Page[T]{}, ErrNoConnection
	}
	limit = min(max(1, limit), MaxSearchLimit)

	q := make(url.Values, len(params)+2)
	for k, vv := range params {
		q[k] = append([]string(nil), vv...)
	}
	q.Set("offset", strconv.Itoa(offset))
	q.Set("limit", strconv.Itoa(limit))

	var resp SearchResponse[T]
	if err := c.GetJSON(ctx, path, q, &resp); err != nil {
		return vlist.Page[T]{}, err
	}

	return resp.Page(offset, limit)
}

// SearchFetcher binds a search endpoint and query params to an engine fetcher.
func SearchFetcher[T any](c Connection, path string, params url.Values) vlist.Fetcher[T] {
	return vlist.FetcherFunc[T](func(ctx context.Context, offset, limit int) (vlist.Page[T], error) {
		return Search[T](ctx, c, path, params, offset, limit)
	})
}
