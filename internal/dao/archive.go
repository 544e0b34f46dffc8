package dao

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fvbommel/sortorder"
	"github.com/inventiv/ivs/internal/aws"
	"github.com/inventiv/ivs/internal/client"
	"github.com/inventiv/ivs/internal/vlist"
)

func init() {
	RegisterAccessor(ArchiveRID, func() Accessor { return new(ArchiveDAO) })
}

// ArchiveStore reads archived traces.
type ArchiveStore interface {
	Bucket() string
	Prefix() string
	List(ctx context.Context) ([]aws.ObjectInfo, error)
	Preview(ctx context.Context, key string, n int) (string, error)
}

// ArchiveDAO pages over archived traces. The store has no server side
// paging, so the listing is materialized once per query and sliced.
type ArchiveDAO struct {
	Resource
}

// SortFields returns the local sort keys of the archive listing.
func (*ArchiveDAO) SortFields() []string {
	return []string{"key", "size", "modified"}
}

// Fetcher returns a page loader for the query.
func (d *ArchiveDAO) Fetcher(q Query) vlist.Fetcher[Object] {
	key := d.cacheKey(q)

	return vlist.FetcherFunc[Object](func(ctx context.Context, offset, limit int) (vlist.Page[Object], error) {
		store := d.getFactory().Archive()
		if store == nil {
			return vlist.Page[Object]{}, aws.ErrNoBucket
		}

		l, ok := d.getCache().Get(key)
		if !ok || offset == 0 {
			oo, err := store.List(ctx)
			if err != nil {
				return vlist.Page[Object]{}, err
			}
			l = Listing{Objects: filterArchive(oo, store.Prefix(), q), Total: len(oo)}
			d.getCache().Set(key, l)
		}

		return slicePage(l, offset, limit), nil
	})
}

// Preview returns the head of an archived trace.
func (d *ArchiveDAO) Preview(ctx context.Context, o Object, n int) (string, error) {
	store := d.getFactory().Archive()
	if store == nil {
		return "", aws.ErrNoBucket
	}
	info, ok := o.GetRaw().(*aws.ObjectInfo)
	if !ok {
		return "", fmt.Errorf("expected archive object but got %T", o.GetRaw())
	}

	return store.Preview(ctx, info.Key, n)
}

// MatchArchive reports whether name matches the filter. Filters carrying glob
// meta characters are matched as doublestar patterns, others as substrings.
func MatchArchive(filter, name string) bool {
	filter = strings.TrimSpace(filter)
	if filter == "" {
		return true
	}
	if strings.ContainsAny(filter, "*?[{") {
		ok, err := doublestar.Match(filter, name)
		return err == nil && ok
	}

	return strings.Contains(strings.ToLower(name), strings.ToLower(filter))
}

func filterArchive(oo []aws.ObjectInfo, prefix string, q Query) []Object {
	rows := make([]aws.ObjectInfo, 0, len(oo))
	for _, o := range oo {
		if MatchArchive(q.Filter, o.Name(prefix)) {
			rows = append(rows, o)
		}
	}

	desc := q.SortDir == client.SortDesc
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if desc {
			a, b = b, a
		}
		switch q.SortBy {
		case "size":
			if a.Size != b.Size {
				return a.Size < b.Size
			}
		case "modified":
			if !a.LastModified.Equal(b.LastModified) {
				return a.LastModified.Before(b.LastModified)
			}
		}
		return sortorder.NaturalLess(a.Key, b.Key)
	})

	objs := make([]Object, 0, len(rows))
	for i := range rows {
		objs = append(objs, archiveObject(&rows[i], prefix))
	}

	return objs
}

func slicePage(l Listing, offset, limit int) vlist.Page[Object] {
	start := min(max(0, offset), len(l.Objects))
	end := min(start+max(0, limit), len(l.Objects))

	return vlist.Page[Object]{
		Offset:        offset,
		Limit:         limit,
		Items:         l.Objects[start:end],
		TotalCount:    l.Total,
		FilteredCount: len(l.Objects),
	}
}

func archiveObject(o *aws.ObjectInfo, prefix string) Object {
	var created *time.Time
	if !o.LastModified.IsZero() {
		ts := o.LastModified
		created = &ts
	}
	return &BaseObject{
		ID:        o.Key,
		Name:      o.Name(prefix),
		CreatedAt: created,
		Raw:       o,
	}
}
