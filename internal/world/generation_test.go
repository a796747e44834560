package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/worldgraph/internal/voronoi"
)

func TestGenerateSmallWorld(t *testing.T) {
	g := smallWorld(t, 0)

	assert.Len(t, g.Centers, SmallTestConfig().NumSites)
	assert.NotEmpty(t, g.Corners)
	assert.NotEmpty(t, g.Edges)
	assert.Equal(t, int64(42), g.Seed())
	require.NoError(t, g.ValidatePlates())
	require.NoError(t, g.ValidateRegions())

	for i, c := range g.Centers {
		for _, nb := range c.Neighbors {
			assert.Contains(t, g.Centers[nb].Neighbors, i, "neighbors are symmetric")
		}
		for _, e := range c.Borders {
			edge := g.Edges[e]
			assert.True(t, edge.D0 == i || edge.D1 == i, "center %d border %d", i, e)
		}
	}
}

func TestGenerateIsDeterministic(t *testing.T) {
	cfg := SmallTestConfig()
	cfg.RegionCount = 3
	a, err := Generate(cfg)
	require.NoError(t, err)
	b, err := Generate(cfg)
	require.NoError(t, err)

	for i := range a.Centers {
		require.Equal(t, a.Centers[i].Plate, b.Centers[i].Plate)
		require.Equal(t, a.Centers[i].Region, b.Centers[i].Region)
		require.Equal(t, a.Centers[i].IsWater, b.Centers[i].IsWater)
	}
	for i := range a.Corners {
		require.Equal(t, a.Corners[i].Loc, b.Corners[i].Loc)
		require.Equal(t, a.Corners[i].River, b.Corners[i].River)
	}
}

func TestGenerateFromGrid(t *testing.T) {
	d := voronoi.Grid(12, 12, 10)
	cfg := SmallTestConfig()
	cfg.Width, cfg.Height = d.Bounds.Width(), d.Bounds.Height()
	cfg.NumSites = 144

	g, err := GenerateFromDiagram(d, cfg)
	require.NoError(t, err)
	require.NoError(t, g.ValidatePlates())
	require.NoError(t, g.ValidateRegions())
	assert.Len(t, g.Centers, 144)
}

func TestRiversFollowEdges(t *testing.T) {
	g := smallWorld(t, 4)
	rivers := 0
	for i, c := range g.Corners {
		if c.River == 0 {
			continue
		}
		rivers++
		wet := false
		for _, e := range c.Protrudes {
			wet = wet || g.Edges[e].River > 0
		}
		assert.True(t, wet, "corner %d carries a river but none of its edges do", i)
	}
	assert.Positive(t, rivers)
}

func TestParseLandShape(t *testing.T) {
	for _, s := range []LandShape{Continents, InlandSea, Scattered} {
		got, err := ParseLandShape(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}
	_, err := ParseLandShape("pangaea")
	assert.Error(t, err)
}
