package world

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/worldgraph/internal/geom"
)

func jaggedWorld(t *testing.T) *Graph {
	t.Helper()
	cfg := SmallTestConfig()
	cfg.RegionCount = 4
	cfg.LineStyle = Jagged
	g, err := Generate(cfg)
	require.NoError(t, err)
	return g
}

func TestNoisyEdgesJoinTheirCorners(t *testing.T) {
	for _, style := range []LineStyle{Jagged, Splines, SplinesWithSmoothedCoastlines} {
		t.Run(style.String(), func(t *testing.T) {
			cfg := SmallTestConfig()
			cfg.RegionCount = 4
			cfg.LineStyle = style
			g, err := Generate(cfg)
			require.NoError(t, err)

			for i, e := range g.Edges {
				if e.V0 == None || e.V1 == None {
					continue
				}
				path := g.EdgePath(i)
				require.GreaterOrEqual(t, len(path), 2, "edge %d", i)
				assert.InDelta(t, 0, path[0].DistanceTo(g.Corners[e.V0].Loc), 1e-9, "edge %d start", i)
				assert.InDelta(t, 0, path[len(path)-1].DistanceTo(g.Corners[e.V1].Loc), 1e-9, "edge %d end", i)
			}
		})
	}
}

func TestJaggedCoastsAreSubdivided(t *testing.T) {
	g := jaggedWorld(t)
	longer := 0
	for i := range g.Edges {
		if g.DrawType(i) == EdgeCoast && len(g.EdgePath(i)) > 3 {
			longer++
		}
	}
	assert.Positive(t, longer)
}

func TestSubdivideShrinksIntoItsQuad(t *testing.T) {
	v0, v1 := geom.Vec{X: 0, Y: 0}, geom.Vec{X: 10, Y: 0}
	d0, d1 := geom.Vec{X: 5, Y: 5}, geom.Vec{X: 5, Y: -5}
	mid := geom.Midpoint(v0, v1)

	for seed := int64(1); seed <= 200; seed++ {
		rng := rand.New(rand.NewSource(seed))
		path := subdivide(rng, v0, geom.Midpoint(v0, d0), mid, geom.Midpoint(v0, d1), 0.5, nil)
		path = subdivide(rng, v1, geom.Midpoint(v1, d1), mid, geom.Midpoint(v1, d0), 0.5, path)

		require.NotEmpty(t, path, "seed %d", seed)
		require.Less(t, len(path), 200, "seed %d", seed)
		for _, p := range path {
			// the quad is the rhombus |x-5| + |y| <= 5
			assert.LessOrEqual(t, math.Abs(p.X-5)+math.Abs(p.Y), 5.5, "seed %d point %v", seed, p)
		}
	}
}

func TestJaggedPathsStayNearTheirQuad(t *testing.T) {
	g := jaggedWorld(t)
	checked := 0
	for i, e := range g.Edges {
		if g.noisy[i] == nil {
			continue
		}
		v0, v1 := g.Corners[e.V0].Loc, g.Corners[e.V1].Loc
		box := geom.BoundsOf([]geom.Vec{v0, v1, g.Centers[e.D0].Loc, g.Centers[e.D1].Loc})
		slack := 0.5 * v0.DistanceTo(v1)
		for _, p := range g.noisy[i] {
			require.True(t,
				p.X >= box.Min.X-slack && p.X <= box.Max.X+slack && p.Y >= box.Min.Y-slack && p.Y <= box.Max.Y+slack,
				"edge %d point %v outside %v", i, p, box)
		}
		checked++
	}
	assert.Positive(t, checked)
}

func TestNoisyEdgesAreDeterministic(t *testing.T) {
	g := jaggedWorld(t)
	for i := range g.Edges {
		if g.noisy[i] == nil {
			continue
		}
		assert.Equal(t, g.noisy[i], g.buildNoisyEdge(i), "edge %d", i)
	}
}

func TestCenterOutlineClosesAroundCell(t *testing.T) {
	g := jaggedWorld(t)
	for i, c := range g.Centers {
		if c.IsBorder || len(c.Corners) == 0 {
			continue
		}
		outline := g.CenterOutline(i)
		require.GreaterOrEqual(t, len(outline), 3, "center %d", i)
		assert.True(t, g.Index().CellContains(i, c.Loc))
	}
}

func TestParseLineStyle(t *testing.T) {
	for _, s := range []LineStyle{Jagged, Splines, SplinesWithSmoothedCoastlines} {
		got, err := ParseLineStyle(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}
	_, err := ParseLineStyle("wobbly")
	assert.Error(t, err)
}
