package mockapi

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/inventiv/ivs/internal/client"
	"github.com/inventiv/ivs/internal/dao"
)

// DefaultLimit is the page size used when a request carries no limit.
const DefaultLimit = 200

// Search holds the parameters of a */search request.
type Search struct {
	Offset   int
	Limit    int
	Query    string
	SortBy   string
	SortDir  string
	Archived bool
	Filters  map[string]string

	// IncludeStats requests per status counts of the filtered rows.
	IncludeStats bool
}

// ParseSearch reads search parameters from a query string. Offsets below zero
// are raised to zero and limits are clamped to [1, client.MaxSearchLimit].
func ParseSearch(v url.Values) (Search, error) {
	q := Search{
		Limit:   DefaultLimit,
		Query:   strings.TrimSpace(v.Get("q")),
		SortBy:  v.Get("sort_by"),
		SortDir: v.Get("sort_dir"),
		Filters: make(map[string]string),
	}

	if s := v.Get("offset"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return q, fmt.Errorf("invalid offset %q", s)
		}
		q.Offset = max(0, n)
	}
	if s := v.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return q, fmt.Errorf("invalid limit %q", s)
		}
		q.Limit = min(max(1, n), client.MaxSearchLimit)
	}
	if s := v.Get("archived"); s != "" {
		b, err := strconv.ParseBool(s)
		if err != nil {
			return q, fmt.Errorf("invalid archived flag %q", s)
		}
		q.Archived = b
	}
	if s := v.Get(client.IncludeStatsParam); s != "" {
		b, err := strconv.ParseBool(s)
		if err != nil {
			return q, fmt.Errorf("invalid %s flag %q", client.IncludeStatsParam, s)
		}
		q.IncludeStats = b
	}
	for _, k := range dao.ActionFilterKeys {
		if s := v.Get(k); s != "" {
			q.Filters[k] = s
		}
	}

	return q, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// like returns the free text filter as a LIKE pattern.
func (q Search) like() (string, bool) {
	if q.Query == "" {
		return "", false
	}
	return "%" + likeEscaper.Replace(q.Query) + "%", true
}
