package voronoi

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/worldgraph/internal/geom"
)

func TestGridShape(t *testing.T) {
	d := Grid(7, 7, 10)
	assert.Len(t, d.Sites, 49)
	assert.Len(t, d.Corners, 64)
	assert.Len(t, d.Edges, 112)

	border := 0
	for _, e := range d.Edges {
		require.NotEqual(t, None, e.Site0)
		if e.Site1 == None {
			border++
		}
	}
	assert.Equal(t, 28, border)
	assert.Equal(t, 70.0, d.Bounds.Width())
}

func TestBuildClosesEveryCell(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	bounds := geom.Rect{Max: geom.Vec{X: 400, Y: 300}}
	d, err := Generate(rng, 300, bounds, 1)
	require.NoError(t, err)

	// In a closed polygon every corner of a cell is shared by exactly two of its edges.
	cornerUse := make([]map[int]int, len(d.Sites))
	for _, e := range d.Edges {
		require.True(t, e.Corner0 >= 0 && e.Corner0 < len(d.Corners))
		require.True(t, e.Corner1 >= 0 && e.Corner1 < len(d.Corners))
		for _, s := range []int{e.Site0, e.Site1} {
			if s == None {
				continue
			}
			if cornerUse[s] == nil {
				cornerUse[s] = make(map[int]int)
			}
			cornerUse[s][e.Corner0]++
			cornerUse[s][e.Corner1]++
		}
	}
	for s, uses := range cornerUse {
		require.NotEmpty(t, uses, "site %d has no edges", s)
		for c, n := range uses {
			assert.Equal(t, 2, n, "site %d corner %d", s, c)
		}
	}

	for _, c := range d.Corners {
		assert.True(t, c.X >= -1e-9 && c.X <= 400+1e-9 && c.Y >= -1e-9 && c.Y <= 300+1e-9)
	}
}

func TestBuildRejectsTooFewSites(t *testing.T) {
	_, err := Build([]geom.Vec{{X: 1}, {X: 2}}, geom.Rect{})
	require.ErrorIs(t, err, ErrTooFewSites)
}
