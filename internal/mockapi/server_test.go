package mockapi_test

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/inventiv/ivs/internal/client"
	"github.com/inventiv/ivs/internal/dao"
	"github.com/inventiv/ivs/internal/mockapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreAnyFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreAnyFunction("net/http.(*persistConn).writeLoop"),
	)
}

func newServer(t *testing.T, token string) (*mockapi.Server, *httptest.Server) {
	t.Helper()
	s, err := mockapi.NewServer(context.Background(), mockapi.Config{
		Token:       token,
		Dataset:     testDataset(),
		MutateEvery: -1,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)

	return s, ts
}

func newClient(t *testing.T, endpoint, token string) *client.APIClient {
	t.Helper()
	m, err := client.NewProfileManager("")
	require.NoError(t, err)
	c, err := client.NewAPIClient(m, &client.ClientConfig{Endpoint: endpoint, Token: token, Timeout: 5 * time.Second})
	require.NoError(t, err)

	return c
}

func TestServerSearch(t *testing.T) {
	_, ts := newServer(t, "")
	c := newClient(t, ts.URL, "any")
	ctx := context.Background()

	assert.True(t, c.CheckConnectivity(ctx))

	p, err := client.Search[dao.Instance](ctx, c, dao.InstancesPath, url.Values{"sort_by": {"region"}, "sort_dir": {"asc"}}, 40, 25)
	require.NoError(t, err)
	assert.Equal(t, 40, p.Offset)
	assert.Len(t, p.Items, 25)
	assert.Equal(t, 300, p.TotalCount)
	for i := 1; i < len(p.Items); i++ {
		assert.LessOrEqual(t, p.Items[i-1].Region, p.Items[i].Region)
	}

	u, err := client.Search[dao.User](ctx, c, dao.UsersPath, url.Values{"q": {"bruno"}}, 0, 500)
	require.NoError(t, err)
	assert.Equal(t, 30, u.TotalCount)
	assert.Len(t, u.Items, u.FilteredCount)

	a, err := client.Search[dao.ActionLog](ctx, c, dao.ActionLogsPath, dao.ParseActionFilter("status=failed"), 0, 10)
	require.NoError(t, err)
	assert.Equal(t, 500, a.TotalCount)
	assert.Less(t, a.FilteredCount, a.TotalCount)
	assert.Nil(t, a.Stats)

	params := dao.ParseActionFilter("component=api")
	params.Set(client.IncludeStatsParam, "true")
	a, err = client.Search[dao.ActionLog](ctx, c, dao.ActionLogsPath, params, 0, 10)
	require.NoError(t, err)
	st, ok := a.Stats.(client.StatusCounts)
	require.True(t, ok)
	assert.Equal(t, a.FilteredCount, st.Success+st.Failed+st.InProgress)
}

func TestServerAuth(t *testing.T) {
	_, ts := newServer(t, "secret")
	ctx := context.Background()

	_, err := client.Search[dao.User](ctx, newClient(t, ts.URL, "nope"), dao.UsersPath, nil, 0, 10)
	assert.ErrorIs(t, err, client.ErrUnauthorized)

	_, err = client.Search[dao.User](ctx, newClient(t, ts.URL, "secret"), dao.UsersPath, nil, 0, 10)
	assert.NoError(t, err)
}

func TestServerBadRequest(t *testing.T) {
	_, ts := newServer(t, "")

	resp, err := http.Get(ts.URL + dao.InstancesPath + "?offset=abc")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
}

func TestServerEvents(t *testing.T) {
	s, ts := newServer(t, "")
	c := newClient(t, ts.URL, "any")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	body, err := c.Stream(ctx, client.EventsPath, url.Values{"topics": {client.TopicInstances}})
	require.NoError(t, err)
	defer func() { _ = body.Close() }()

	events := make(chan client.Event, 16)
	go func() {
		_ = client.ReadEvents(ctx, body, func(e client.Event) { events <- e })
		close(events)
	}()

	hello := <-events
	require.Equal(t, client.EventHello, hello.Name)
	require.Equal(t, 1, s.Hub().Len())

	var m *mockapi.Mutation
	for m == nil || len(m.Instances) == 0 {
		m, err = s.Tick(ctx)
		require.NoError(t, err)
	}

	e := <-events
	require.Equal(t, client.EventInstanceUpdated, e.Name, "action topics are not subscribed")
	p, err := e.Decode()
	require.NoError(t, err)
	for _, i := range m.Instances {
		assert.Contains(t, p.IDs, i.ID)
	}

	cancel()
	_ = body.Close()
	for range events {
	}
}

func TestServeListenerShutdown(t *testing.T) {
	s, err := mockapi.NewServer(context.Background(), mockapi.Config{
		Dataset:     mockapi.Dataset{Instances: 10, Users: 2, ActionLogs: 10, Seed: 1},
		MutateEvery: 10 * time.Millisecond,
	})
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.ServeListener(ctx, ln) }()

	c := newClient(t, "http://"+ln.Addr().String(), "any")
	require.Eventually(t, func() bool {
		return c.CheckConnectivity(context.Background())
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
