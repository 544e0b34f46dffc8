package main

import (
	"bytes"
	"context"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gojson "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/inventiv/ivs/internal/client"
	"github.com/inventiv/ivs/internal/config"
	"github.com/inventiv/ivs/internal/config/data"
	"github.com/inventiv/ivs/internal/dao"
	"github.com/inventiv/ivs/internal/mockapi"
	"github.com/inventiv/ivs/internal/render"
)

func newFactory(t *testing.T) dao.Factory {
	t.Helper()
	s, err := mockapi.NewServer(context.Background(), mockapi.Config{
		Dataset:     mockapi.Dataset{Instances: 120, Users: 12, ActionLogs: 300, Seed: 3},
		MutateEvery: -1,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)

	m, err := client.NewProfileManager("")
	require.NoError(t, err)
	c, err := client.NewAPIClient(m, &client.ClientConfig{Endpoint: ts.URL, Timeout: 5 * time.Second})
	require.NoError(t, err)

	return dao.NewFactory(c, nil)
}

func list(t *testing.T, f dao.Factory, name string, o listOptions) (string, error) {
	t.Helper()
	if o.output == "" {
		o.output = outputTable
	}
	if o.rows == 0 {
		o.rows = 5
	}
	o.list = data.List{PageSize: 25, Overscan: 2, MaxCachedPages: 8}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var out bytes.Buffer
	err := listResource(ctx, &out, f, config.NewAliases(), name, o, slog.New(slog.DiscardHandler))

	return out.String(), err
}

func TestListTable(t *testing.T) {
	out, err := list(t, newFactory(t), "i", listOptions{scroll: 40})
	require.NoError(t, err)

	assert.Contains(t, out, "STATUS")
	assert.NotContains(t, out, "REGION", "wide columns are hidden")
	assert.Contains(t, out, "5 of 120 matching (120 total)")
	for _, i := range []string{"40", "44"} {
		assert.Contains(t, out, "│ "+i+" ")
	}
	assert.NotContains(t, out, "│ 45 ")
}

func TestListJSONSorted(t *testing.T) {
	f := newFactory(t)
	out, err := list(t, f, "instances", listOptions{
		rows:   8,
		scroll: 30,
		sort:   "cost_per_hour",
		desc:   true,
		output: outputJSON,
	})
	require.NoError(t, err)

	var ii []dao.Instance
	require.NoError(t, gojson.Unmarshal([]byte(out), &ii))
	require.Len(t, ii, 8)
	for k := 1; k < len(ii); k++ {
		require.NotNil(t, ii[k].CostPerHour)
		assert.LessOrEqual(t, *ii[k].CostPerHour, *ii[k-1].CostPerHour)
	}
}

func TestListScrollPastEnd(t *testing.T) {
	out, err := list(t, newFactory(t), "users", listOptions{scroll: 500, output: outputYAML})
	require.NoError(t, err)

	var uu []map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &uu))
	assert.Len(t, uu, 5, "scroll clamps to the last full window")
}

func TestListActionFilter(t *testing.T) {
	out, err := list(t, newFactory(t), "logs", listOptions{
		rows:   10,
		filter: "status=" + render.ActionFailed,
		output: outputJSON,
	})
	require.NoError(t, err)

	var aa []dao.ActionLog
	require.NoError(t, gojson.Unmarshal([]byte(out), &aa))
	require.NotEmpty(t, aa)
	for _, a := range aa {
		assert.Equal(t, render.ActionFailed, a.Status)
	}
}

func TestListErrors(t *testing.T) {
	f := newFactory(t)

	uu := map[string]struct {
		name string
		o    listOptions
		err  string
	}{
		"suggest": {
			name: "instnces",
			err:  `unknown resource "instnces", did you mean "instances"?`,
		},
		"sort": {
			name: "users",
			o:    listOptions{sort: "zone"},
			err:  `iam/users cannot be sorted by "zone"`,
		},
		"output": {
			name: "users",
			o:    listOptions{output: "xml"},
			err:  `unknown output format "xml"`,
		},
		"rows": {
			name: "users",
			o:    listOptions{rows: -1},
			err:  "rows must be positive, got -1",
		},
	}

	for k := range uu {
		u := uu[k]
		t.Run(k, func(t *testing.T) {
			_, err := list(t, f, u.name, u.o)
			require.Error(t, err)
			assert.True(t, strings.HasPrefix(err.Error(), u.err), err.Error())
		})
	}
}

func TestTerminalRows(t *testing.T) {
	assert.Equal(t, defaultListRows, terminalRows(&bytes.Buffer{}))
}
