package dao

import (
	"context"
	"net/url"

	"github.com/inventiv/ivs/internal/client"
	"github.com/inventiv/ivs/internal/vlist"
)

// searchFetcher adapts a typed search endpoint to a fetcher of Objects.
func searchFetcher[T any](c client.Connection, path string, params url.Values, conv func(*T) Object) vlist.Fetcher[Object] {
	typed := client.SearchFetcher[T](c, path, params)

	return vlist.FetcherFunc[Object](func(ctx context.Context, offset, limit int) (vlist.Page[Object], error) {
		p, err := typed.LoadRange(ctx, offset, limit)
		if err != nil {
			return vlist.Page[Object]{}, err
		}
		oo := make([]Object, 0, len(p.Items))
		for i := range p.Items {
			oo = append(oo, conv(&p.Items[i]))
		}

		return vlist.Page[Object]{
			Offset:        p.Offset,
			Limit:         p.Limit,
			Items:         oo,
			TotalCount:    p.TotalCount,
			FilteredCount: p.FilteredCount,
			Stats:         p.Stats,
		}, nil
	})
}
