package dao

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/inventiv/ivs/internal/client"
	"github.com/inventiv/ivs/internal/vlist"
)

// ResourceID identifies a control plane resource type.
type ResourceID struct {
	Group    string // e.g., "compute", "iam", "audit", "archive"
	Resource string // e.g., "instances", "users", "actions", "traces"
}

// String returns a string representation in the form "group/resource".
func (r ResourceID) String() string {
	return fmt.Sprintf("%s/%s", r.Group, r.Resource)
}

// Parse parses a string in the form "group/resource" into a ResourceID.
func (r *ResourceID) Parse(s string) error {
	group, resource, ok := strings.Cut(s, "/")
	if !ok || group == "" || resource == "" || strings.Contains(resource, "/") {
		return fmt.Errorf("invalid resource ID format: %s (expected group/resource)", s)
	}
	r.Group, r.Resource = group, resource
	return nil
}

// Predefined ResourceID variables for the control plane resources.
var (
	InstanceRID  = ResourceID{Group: "compute", Resource: "instances"}
	UserRID      = ResourceID{Group: "iam", Resource: "users"}
	ActionLogRID = ResourceID{Group: "audit", Resource: "actions"}
	ArchiveRID   = ResourceID{Group: "archive", Resource: "traces"}
)

// Object represents a control plane row with common metadata.
type Object interface {
	GetID() string
	GetName() string
	GetCreatedAt() *time.Time
	GetRaw() any
}

// Factory provides API client configuration and management.
type Factory interface {
	Client() client.Connection
	Archive() ArchiveStore
	Profile() string
	SetProfile(profile string) error
}

// Query is the server side view of a table: filter, ordering and scope.
type Query struct {
	Filter   string
	SortBy   string
	SortDir  string
	Archived bool
	Extra    url.Values
}

// Key returns the query identity. Two queries with the same key designate
// the same row set.
func (q Query) Key(rid *ResourceID) string {
	return rid.String() + "?" + q.Params("q").Encode()
}

// Params encodes the query for a search endpoint, using filterParam for the
// free text filter.
func (q Query) Params(filterParam string) url.Values {
	v := make(url.Values, len(q.Extra)+4)
	for k, vv := range q.Extra {
		v[k] = append([]string(nil), vv...)
	}
	if f := strings.TrimSpace(q.Filter); f != "" && filterParam != "" {
		v.Set(filterParam, f)
	}
	if q.SortBy != "" {
		v.Set("sort_by", q.SortBy)
	}
	if q.SortDir != "" {
		v.Set("sort_dir", q.SortDir)
	}
	if q.Archived {
		v.Set("archived", strconv.FormatBool(q.Archived))
	}

	return v
}

// ToggleDir flips the sort direction.
func (q Query) ToggleDir() Query {
	if q.SortDir == client.SortAsc {
		q.SortDir = client.SortDesc
	} else {
		q.SortDir = client.SortAsc
	}
	return q
}

// Lister fetches pages of a resource for a query.
type Lister interface {
	Fetcher(q Query) vlist.Fetcher[Object]
}

// Accessor combines listing capabilities with initialization.
type Accessor interface {
	Lister
	Init(Factory, *ResourceID)
	ResourceID() *ResourceID
}

// Sorter exposes the server side sort keys of a resource.
type Sorter interface {
	SortFields() []string
}

// Describer provides formatted descriptions of control plane rows.
type Describer interface {
	Describe(o Object) (string, error)
	ToJSON(o Object) (string, error)
}

// Previewer fetches the content of an object.
type Previewer interface {
	Preview(ctx context.Context, o Object, n int) (string, error)
}
