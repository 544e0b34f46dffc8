package client_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/inventiv/ivs/internal/client"
	"github.com/inventiv/ivs/internal/vlist"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type row struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func TestProfileManager(t *testing.T) {
	t.Setenv(client.EnvProfile, "")
	t.Setenv(client.EnvToken, "")

	path := filepath.Join(t.TempDir(), "credentials")
	require.NoError(t, os.WriteFile(path, []byte(`
[default]
endpoint = http://localhost:9999
token = t0

[prod]
endpoint = https://api.example.com
token = t1
`), 0o600))

	m, err := client.NewProfileManager(path)
	require.NoError(t, err)
	assert.Equal(t, "default", m.CurrentProfileName())
	assert.Equal(t, []string{"default", "prod"}, m.ProfileNames())

	p, err := m.GetProfile("prod")
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com", p.Endpoint)
	assert.Equal(t, "t1", p.Token)

	require.NoError(t, m.SetActiveProfile("prod"))
	assert.Equal(t, "prod", m.CurrentProfileName())
	assert.ErrorIs(t, m.SetActiveProfile("nope"), client.ErrInvalidProfile)
}

func TestProfileManagerMissingFile(t *testing.T) {
	t.Setenv(client.EnvProfile, "")
	t.Setenv(client.EnvToken, "secret")

	m, err := client.NewProfileManager(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)

	p, err := m.GetProfile(client.DefaultProfile)
	require.NoError(t, err)
	assert.Equal(t, client.DefaultEndpoint, p.Endpoint)
	assert.Equal(t, "secret", p.Token)
}

func TestSearch(t *testing.T) {
	var (
		mx   sync.Mutex
		got  url.Values
		auth string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mx.Lock()
		defer mx.Unlock()
		got, auth = r.URL.Query(), r.Header.Get("Authorization")
		fmt.Fprint(w, `{"offset":400,"limit":200,"total_count":1200,"filtered_count":1000,"rows":[{"id":"a","name":"n"}]}`)
	}))
	defer srv.Close()

	c := newClient(t, srv.URL)
	params := url.Values{"sort_by": {"status"}, "sort_dir": {"asc"}}
	p, err := client.Search[row](context.Background(), c, "/instances/search", params, 400, 200)
	require.NoError(t, err)

	mx.Lock()
	defer mx.Unlock()
	assert.Equal(t, "400", got.Get("offset"))
	assert.Equal(t, "200", got.Get("limit"))
	assert.Equal(t, "status", got.Get("sort_by"))
	assert.Equal(t, "Bearer tok", auth)
	assert.Empty(t, params.Get("offset"), "caller params are not mutated")

	assert.Equal(t, 400, p.Offset)
	assert.Equal(t, vlist.Counts{Total: 1200, Filtered: 1000}, p.Counts())
	assert.Equal(t, []row{{ID: "a", Name: "n"}}, p.Items)
	assert.Nil(t, p.Stats)
}

func TestSearchStatusCounts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "true", r.URL.Query().Get(client.IncludeStatsParam))
		fmt.Fprint(w, `{"offset":0,"limit":10,"total_count":9,"filtered_count":9,"rows":[],
			"status_counts":{"success":5,"failed":3,"in_progress":1}}`)
	}))
	defer srv.Close()

	params := url.Values{client.IncludeStatsParam: {"true"}}
	p, err := client.Search[row](context.Background(), newClient(t, srv.URL), "/action_logs/search", params, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, client.StatusCounts{Success: 5, Failed: 3, InProgress: 1}, p.Stats)
}

func TestSearchClampsLimit(t *testing.T) {
	limits := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		limits <- r.URL.Query().Get("limit")
		fmt.Fprint(w, `{"total_count":0,"filtered_count":0,"rows":[]}`)
	}))
	defer srv.Close()

	p, err := client.Search[row](context.Background(), newClient(t, srv.URL), "/users/search", nil, 0, 5000)
	require.NoError(t, err)
	assert.Equal(t, "500", <-limits)
	assert.Equal(t, 0, p.Offset)
	assert.Empty(t, p.Items)
}

func TestSearchMalformed(t *testing.T) {
	uu := map[string]string{
		"no-counts": `{"offset":0,"limit":200,"rows":[]}`,
		"no-rows":   `{"offset":0,"limit":200,"total_count":1,"filtered_count":1}`,
		"null-rows": `{"offset":0,"limit":200,"total_count":1,"filtered_count":1,"rows":null}`,
	}

	for k := range uu {
		body := uu[k]
		t.Run(k, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				fmt.Fprint(w, body)
			}))
			defer srv.Close()

			_, err := client.Search[row](context.Background(), newClient(t, srv.URL), "/x", nil, 0, 200)
			assert.ErrorIs(t, err, vlist.ErrMalformedResponse)
		})
	}
}

func TestSearchErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/denied":
			w.WriteHeader(http.StatusUnauthorized)
		case "/broken":
			http.Error(w, "db down", http.StatusInternalServerError)
		default:
			fmt.Fprint(w, `{not json`)
		}
	}))
	defer srv.Close()
	c := newClient(t, srv.URL)

	_, err := client.Search[row](context.Background(), c, "/denied", nil, 0, 10)
	assert.ErrorIs(t, err, client.ErrUnauthorized)

	_, err = client.Search[row](context.Background(), c, "/broken", nil, 0, 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")

	_, err = client.Search[row](context.Background(), c, "/garbage", nil, 0, 10)
	assert.Error(t, err)
}

func TestSearchFetcherWithCap(t *testing.T) {
	var (
		mx           sync.Mutex
		active, peak int
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		mx.Lock()
		active++
		peak = max(peak, active)
		mx.Unlock()
		time.Sleep(10 * time.Millisecond)
		mx.Lock()
		active--
		mx.Unlock()
		fmt.Fprint(w, `{"total_count":1,"filtered_count":1,"rows":[]}`)
	}))
	defer srv.Close()

	m, err := client.NewProfileManager("")
	require.NoError(t, err)
	c, err := client.NewAPIClient(m, &client.ClientConfig{Endpoint: srv.URL, Token: "tok", MaxInFlight: 2})
	require.NoError(t, err)

	f := client.SearchFetcher[row](c, "/x", nil)
	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.LoadRange(context.Background(), i*10, 10)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()
	mx.Lock()
	defer mx.Unlock()
	assert.LessOrEqual(t, peak, 2)
}

func TestCheckConnectivity(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "ok")
	}))
	c := newClient(t, srv.URL)
	assert.True(t, c.CheckConnectivity(context.Background()))
	assert.True(t, c.ConnectionOK())

	srv.Close()
	assert.False(t, c.CheckConnectivity(context.Background()))
	assert.False(t, c.ConnectionOK())
}

func TestReadEvents(t *testing.T) {
	stream := strings.Join([]string{
		"event: hello",
		`data: {"ok":true}`,
		"",
		": keepalive",
		"",
		"event: instance.updated",
		`data: {"ids":["i1","i2"],"emitted_at":"2026-01-02T03:04:05Z"}`,
		"",
		"data: line1",
		"data: line2",
		"",
	}, "\n")

	var ee []client.Event
	err := client.ReadEvents(context.Background(), strings.NewReader(stream), func(e client.Event) {
		ee = append(ee, e)
	})
	assert.Error(t, err)
	require.Len(t, ee, 3)
	assert.Equal(t, client.EventHello, ee[0].Name)
	assert.Equal(t, client.EventInstanceUpdated, ee[1].Name)
	assert.Equal(t, client.Event{Name: "message", Data: "line1\nline2"}, ee[2])

	p, err := ee[1].Decode()
	require.NoError(t, err)
	assert.Equal(t, []string{"i1", "i2"}, p.IDs)
}

func TestWatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, client.EventsPath, r.URL.Path)
		assert.Equal(t, "instances,actions", r.URL.Query().Get("topics"))
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "event: hello\ndata: {}\n\nevent: action_log.created\ndata: {\"ids\":[\"a\"]}\n\n")
		w.(http.Flusher).Flush()
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	events := make(chan client.Event, 4)
	done := make(chan error, 1)
	go func() {
		done <- client.Watch(ctx, newClient(t, srv.URL), []string{client.TopicInstances, client.TopicActions}, nil, func(e client.Event) {
			events <- e
		})
	}()

	assert.Equal(t, client.EventHello, (<-events).Name)
	assert.Equal(t, client.EventActionLog, (<-events).Name)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}

func newClient(t *testing.T, endpoint string) *client.APIClient {
	t.Helper()
	m, err := client.NewProfileManager("")
	require.NoError(t, err)
	c, err := client.NewAPIClient(m, &client.ClientConfig{Endpoint: endpoint, Token: "tok", Timeout: time.Second})
	require.NoError(t, err)

	return c
}
