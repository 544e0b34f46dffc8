package vlist

import (
	"context"
	"fmt"
)

// Error represents an engine error.
type Error string

const (
	// ErrMalformedResponse flags a range response missing counts or rows.
	ErrMalformedResponse = Error("malformed range response")

	// ErrInvalidPageSize flags a non positive page size.
	ErrInvalidPageSize = Error("page size must be positive")

	// ErrNoDispatcher flags a list created without a host dispatcher.
	ErrNoDispatcher = Error("a dispatcher is required")
)

func (e Error) Error() string {
	return string(e)
}

// Page is one random access slice of the remote row set.
type Page[T any] struct {
	Offset        int
	Limit         int
	Items         []T
	TotalCount    int
	FilteredCount int

	// Stats carries endpoint aggregates the list does not interpret.
	Stats any
}

// Counts returns the row counts carried by the page.
func (p Page[T]) Counts() Counts {
	return Counts{Total: p.TotalCount, Filtered: p.FilteredCount}
}

// Validate checks the page answers a request for offset/limit.
func (p Page[T]) Validate(offset, limit int) error {
	switch {
	case p.Offset != offset:
		return fmt.Errorf("%w: offset %d, expected %d", ErrMalformedResponse, p.Offset, offset)
	case p.TotalCount < 0 || p.FilteredCount < 0:
		return fmt.Errorf("%w: negative counts %d/%d", ErrMalformedResponse, p.FilteredCount, p.TotalCount)
	case len(p.Items) > limit:
		return fmt.Errorf("%w: %d rows for limit %d", ErrMalformedResponse, len(p.Items), limit)
	}

	return nil
}

// Fetcher loads an arbitrary slice of the remote row set.
type Fetcher[T any] interface {
	LoadRange(ctx context.Context, offset, limit int) (Page[T], error)
}

// FetcherFunc adapts a function to a Fetcher.
type FetcherFunc[T any] func(ctx context.Context, offset, limit int) (Page[T], error)

// LoadRange calls f.
func (f FetcherFunc[T]) LoadRange(ctx context.Context, offset, limit int) (Page[T], error) {
	return f(ctx, offset, limit)
}
