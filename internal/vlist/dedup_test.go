package vlist

import (
	"context"
	"fmt"
	"math/rand/v2"
	"slices"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fetchCall is an issued request whose completion has not been delivered.
type fetchCall struct {
	ctx    context.Context
	offset int
	done   func()
}

func TestListDedupAnyInterleaving(t *testing.T) {
	const pageSize, rows = 50, 5_000

	for seed := uint64(1); seed <= 25; seed++ {
		t.Run(fmt.Sprintf("seed-%d", seed), func(t *testing.T) {
			rnd := rand.New(rand.NewPCG(seed, 0x5eed))
			src := newSource("a", rows)
			var (
				pending []fetchCall
				issued  fetchCall
			)
			fetcher := FetcherFunc[string](func(ctx context.Context, offset, limit int) (Page[string], error) {
				for _, c := range pending {
					require.False(t, c.ctx == ctx && c.offset == offset, "page %d issued twice", offset/pageSize)
				}
				issued = fetchCall{ctx: ctx, offset: offset}
				return src.LoadRange(ctx, offset, limit)
			})
			l, err := New(Options[string]{
				PageSize:  pageSize,
				RowHeight: 1,
				Height:    30,
				Overscan:  5,
				Go:        func(f func()) { f() },
				Dispatch: func(f func()) {
					issued.done = f
					pending = append(pending, issued)
				},
			})
			require.NoError(t, err)
			l.SetQuery("q", fetcher)
			l.SetReloadToken("0")

			for step := range 400 {
				switch rnd.IntN(5) {
				case 0:
					l.ScrollTo(rnd.IntN(rows))
				case 1:
					l.ScrollBy(rnd.IntN(120) - 60)
				case 2:
					l.SetReloadToken(strconv.Itoa(step))
				default:
					if len(pending) == 0 {
						continue
					}
					i := rnd.IntN(len(pending))
					c := pending[i]
					pending = slices.Delete(pending, i, i+1)
					c.done()
				}
				assert.Equal(t, outstandingPages(pending, pageSize), l.InFlight(), "step %d", step)
			}

			for len(pending) > 0 {
				c := pending[0]
				pending = pending[1:]
				c.done()
			}
			assert.True(t, l.Idle())
			assert.True(t, l.Loaded())
		})
	}
}

func outstandingPages(cc []fetchCall, pageSize int) []int {
	pp := make([]int, 0, len(cc))
	for _, c := range cc {
		pp = append(pp, c.offset/pageSize)
	}
	slices.Sort(pp)

	return pp
}
