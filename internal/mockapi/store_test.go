package mockapi_test

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/inventiv/ivs/internal/client"
	"github.com/inventiv/ivs/internal/dao"
	"github.com/inventiv/ivs/internal/mockapi"
	"github.com/inventiv/ivs/internal/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2026, time.March, 2, 9, 30, 0, 0, time.UTC)

func testDataset() mockapi.Dataset {
	return mockapi.Dataset{
		Instances:  300,
		Users:      30,
		ActionLogs: 500,
		Seed:       7,
		Now:        func() time.Time { return epoch },
	}
}

func openStore(t *testing.T) *mockapi.Store {
	t.Helper()
	s, err := mockapi.OpenStore(context.Background(), testDataset())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	return s
}

func TestSearchInstancesScopes(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	live, err := s.SearchInstances(ctx, mockapi.Search{Limit: 50})
	require.NoError(t, err)
	archived, err := s.SearchInstances(ctx, mockapi.Search{Limit: 50, Archived: true})
	require.NoError(t, err)

	assert.Equal(t, 300, live.Total)
	assert.Equal(t, 300, archived.Total)
	assert.Equal(t, 300, live.Filtered+archived.Filtered)
	assert.Positive(t, archived.Filtered)
	assert.Len(t, live.Rows, 50)

	for i := 1; i < len(live.Rows); i++ {
		assert.False(t, live.Rows[i].CreatedAt.After(live.Rows[i-1].CreatedAt), "newest first")
	}
	for _, r := range archived.Rows {
		assert.True(t, r.IsArchived)
		assert.Equal(t, render.StateTerminated, r.Status)
	}
}

func TestSearchInstancesPaging(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	q := mockapi.Search{SortBy: "status", SortDir: "asc"}

	q.Offset, q.Limit = 0, 200
	all, err := s.SearchInstances(ctx, q)
	require.NoError(t, err)

	q.Offset, q.Limit = 0, 100
	p1, err := s.SearchInstances(ctx, q)
	require.NoError(t, err)
	q.Offset = 100
	p2, err := s.SearchInstances(ctx, q)
	require.NoError(t, err)

	assert.Equal(t, ids(all.Rows), append(ids(p1.Rows), ids(p2.Rows)...))
	for i := 1; i < len(all.Rows); i++ {
		assert.LessOrEqual(t, all.Rows[i-1].Status, all.Rows[i].Status)
	}

	q.Offset = all.Filtered
	past, err := s.SearchInstances(ctx, q)
	require.NoError(t, err)
	assert.Empty(t, past.Rows)
	assert.NotNil(t, past.Rows)
}

func TestSearchInstancesTotalCost(t *testing.T) {
	s := openStore(t)

	res, err := s.SearchInstances(context.Background(), mockapi.Search{Limit: 100, SortBy: "total_cost", SortDir: "desc"})
	require.NoError(t, err)
	require.NotEmpty(t, res.Rows)

	for i, r := range res.Rows {
		require.NotNil(t, r.TotalCost)
		if i > 0 {
			assert.LessOrEqual(t, *r.TotalCost, *res.Rows[i-1].TotalCost)
		}
	}
}

func TestSearchInstancesFilter(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	res, err := s.SearchInstances(ctx, mockapi.Search{Limit: 500, Query: "h100"})
	require.NoError(t, err)
	assert.Less(t, res.Filtered, res.Total)
	assert.Positive(t, res.Filtered)
	assert.Len(t, res.Rows, res.Filtered)
	for _, r := range res.Rows {
		assert.Contains(t, r.InstanceType, "H100")
	}

	res, err = s.SearchInstances(ctx, mockapi.Search{Limit: 500, Query: "%"})
	require.NoError(t, err)
	assert.Zero(t, res.Filtered, "like wildcards are literal")
	assert.Equal(t, 300, res.Total)
}

func TestSearchUsers(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	res, err := s.SearchUsers(ctx, mockapi.Search{Limit: 500})
	require.NoError(t, err)
	assert.Equal(t, 30, res.Total)
	assert.Equal(t, 30, res.Filtered)
	for i := 1; i < len(res.Rows); i++ {
		assert.LessOrEqual(t, res.Rows[i-1].Username, res.Rows[i].Username)
	}

	res, err = s.SearchUsers(ctx, mockapi.Search{Limit: 500, Query: "ALICE"})
	require.NoError(t, err)
	assert.Equal(t, 30, res.Total)
	require.NotEmpty(t, res.Rows)
	for _, u := range res.Rows {
		assert.Contains(t, u.Email, "alice")
	}
}

func TestSearchActionLogs(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	res, err := s.SearchActionLogs(ctx, mockapi.Search{Limit: 500})
	require.NoError(t, err)
	assert.Equal(t, 500, res.Total)
	for i := 1; i < len(res.Rows); i++ {
		assert.False(t, res.Rows[i].CreatedAt.After(res.Rows[i-1].CreatedAt), "newest first")
	}

	res, err = s.SearchActionLogs(ctx, mockapi.Search{Limit: 500, Filters: map[string]string{"component": "api"}})
	require.NoError(t, err)
	require.NotEmpty(t, res.Rows)
	for _, a := range res.Rows {
		assert.Contains(t, []string{"api", "backend"}, a.Component)
	}

	res, err = s.SearchActionLogs(ctx, mockapi.Search{Limit: 500, Filters: map[string]string{"status": render.ActionFailed}})
	require.NoError(t, err)
	require.NotEmpty(t, res.Rows)
	assert.Less(t, res.Filtered, res.Total)
	for _, a := range res.Rows {
		assert.Equal(t, render.ActionFailed, a.Status)
		assert.NotNil(t, a.ErrorCode)
	}
}

func TestSearchActionLogsStatusCounts(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	res, err := s.SearchActionLogs(ctx, mockapi.Search{Limit: 10})
	require.NoError(t, err)
	assert.Nil(t, res.Stats)

	res, err = s.SearchActionLogs(ctx, mockapi.Search{Limit: 10, IncludeStats: true})
	require.NoError(t, err)
	require.NotNil(t, res.Stats)
	assert.Equal(t, res.Filtered, res.Stats.Success+res.Stats.Failed+res.Stats.InProgress)
	assert.Positive(t, res.Stats.Success)
	assert.Positive(t, res.Stats.Failed)

	res, err = s.SearchActionLogs(ctx, mockapi.Search{
		Limit:        10,
		IncludeStats: true,
		Filters:      map[string]string{"status": render.ActionFailed},
	})
	require.NoError(t, err)
	require.NotNil(t, res.Stats)
	assert.Equal(t, client.StatusCounts{Failed: res.Filtered}, *res.Stats)
}

func TestStoreDeterministic(t *testing.T) {
	a, b := openStore(t), openStore(t)
	q := mockapi.Search{Limit: 20}

	ra, err := a.SearchInstances(context.Background(), q)
	require.NoError(t, err)
	rb, err := b.SearchInstances(context.Background(), q)
	require.NoError(t, err)

	assert.Equal(t, ids(ra.Rows), ids(rb.Rows))
}

func TestMutate(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	var seen int
	for range 20 {
		m, err := s.Mutate(ctx, 3)
		require.NoError(t, err)
		if m.Empty() {
			continue
		}
		seen++

		mutated := make(map[string]dao.Instance, len(m.Instances))
		for _, i := range m.Instances {
			mutated[i.ID] = i
			got, err := s.Instance(ctx, i.ID)
			require.NoError(t, err)
			assert.Equal(t, i.Status, got.Status)
			assert.Equal(t, i.IsArchived, got.IsArchived)
		}
		for _, a := range m.ActionLogs {
			require.NotNil(t, a.InstanceID)
			assert.Contains(t, mutated, *a.InstanceID)
			require.NotNil(t, a.InstanceStatusAfter)
		}

		cc := m.Changes(epoch)
		require.Len(t, cc, 2)
		assert.Equal(t, "instance.updated", cc[0].Name)
		assert.Len(t, cc[0].Payload.IDs, len(m.Instances))
		assert.Equal(t, "action_log.created", cc[1].Name)
		assert.Len(t, cc[1].Payload.IDs, len(m.ActionLogs))
		assert.Len(t, cc[1].Payload.InstanceIDs, len(m.Instances))
	}
	assert.Positive(t, seen)

	res, err := s.SearchActionLogs(ctx, mockapi.Search{Limit: 1})
	require.NoError(t, err)
	assert.Greater(t, res.Total, 500)
}

func TestParseSearch(t *testing.T) {
	uu := map[string]struct {
		query string
		e     mockapi.Search
		err   string
	}{
		"defaults": {
			query: "",
			e:     mockapi.Search{Limit: mockapi.DefaultLimit, Filters: map[string]string{}},
		},
		"clamped": {
			query: "offset=-5&limit=9000&archived=true&q=+gpu+",
			e:     mockapi.Search{Limit: 500, Archived: true, Query: "gpu", Filters: map[string]string{}},
		},
		"filters": {
			query: "component=api&status=failed&instance_id=i1&sort_by=x",
			e: mockapi.Search{
				Limit:   mockapi.DefaultLimit,
				SortBy:  "x",
				Filters: map[string]string{"component": "api", "status": "failed", "instance_id": "i1"},
			},
		},
		"bad-offset": {query: "offset=abc", err: `invalid offset "abc"`},
		"bad-limit":  {query: "limit=1.5", err: `invalid limit "1.5"`},
		"stats": {
			query: "include_stats=true",
			e:     mockapi.Search{Limit: mockapi.DefaultLimit, IncludeStats: true, Filters: map[string]string{}},
		},
		"bad-flag":  {query: "archived=maybe", err: `invalid archived flag "maybe"`},
		"bad-stats": {query: "include_stats=1x", err: `invalid include_stats flag "1x"`},
	}

	for k := range uu {
		u := uu[k]
		t.Run(k, func(t *testing.T) {
			v, err := url.ParseQuery(u.query)
			require.NoError(t, err)
			q, err := mockapi.ParseSearch(v)
			if u.err != "" {
				assert.EqualError(t, err, u.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, u.e, q)
		})
	}
}

func ids(ii []dao.Instance) []string {
	out := make([]string, 0, len(ii))
	for _, i := range ii {
		out = append(out, i.ID)
	}
	return out
}
