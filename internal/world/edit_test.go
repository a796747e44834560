package world

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/worldgraph/internal/geom"
	"github.com/talgya/worldgraph/internal/lookup"
)

// coastalLand returns a non-border land cell with a water neighbor.
func coastalLand(t *testing.T, g *Graph) int {
	t.Helper()
	for i, c := range g.Centers {
		if c.IsWater || c.IsBorder {
			continue
		}
		for _, nb := range c.Neighbors {
			if g.Centers[nb].IsWater {
				return i
			}
		}
	}
	t.Fatal("no coastal land cell")
	return None
}

func TestApplyEditsValidatesFirst(t *testing.T) {
	g := smallWorld(t, 4)
	c := coastalLand(t, g)
	region := g.Centers[c].Region

	_, err := g.ApplyEdits(map[int]CenterEdit{len(g.Centers): {IsWater: true}}, nil)
	assert.ErrorIs(t, err, ErrUnknownCenter)

	_, err = g.ApplyEdits(map[int]CenterEdit{c: {IsWater: true}}, map[int]EdgeEdit{-1: {RiverLevel: 4}})
	assert.ErrorIs(t, err, ErrUnknownEdge)
	assert.False(t, g.Centers[c].IsWater, "a rejected batch changes nothing")

	_, err = g.ApplyEdits(map[int]CenterEdit{c: {RegionID: 999}}, nil)
	assert.ErrorIs(t, err, ErrUnknownRegion)
	assert.Equal(t, region, g.Centers[c].Region)
}

func TestApplyEditsKeepsRegionsConsistent(t *testing.T) {
	g := smallWorld(t, 4)
	c := coastalLand(t, g)
	region := g.Centers[c].Region

	changed, err := g.ApplyEdits(map[int]CenterEdit{c: {IsWater: true}}, nil)
	require.NoError(t, err)
	assert.True(t, changed.Contains(c))
	assert.True(t, g.Centers[c].IsWater)
	assert.Equal(t, None, g.Centers[c].Region)
	require.NoError(t, g.ValidateRegions())

	_, err = g.ApplyEdits(map[int]CenterEdit{c: {RegionID: region}}, nil)
	require.NoError(t, err)
	assert.False(t, g.Centers[c].IsWater)
	r, ok := g.Region(region)
	require.True(t, ok)
	assert.True(t, r.Contains(c))
	require.NoError(t, g.ValidateRegions())
}

func TestApplyEditsRaisesRivers(t *testing.T) {
	g := smallWorld(t, 4)
	e := None
	for i, edge := range g.Edges {
		if edge.D1 != None && !g.Centers[edge.D0].IsWater && !g.Centers[edge.D1].IsWater && !g.IsRiver(i) {
			e = i
			break
		}
	}
	require.NotEqual(t, None, e)

	changed, err := g.ApplyEdits(nil, map[int]EdgeEdit{e: {RiverLevel: MaxRiverLevelNotDrawn + 3}})
	require.NoError(t, err)
	assert.True(t, g.IsRiver(e))
	assert.True(t, changed.Contains(g.Edges[e].D0))
	assert.True(t, changed.Contains(g.Edges[e].D1))
}

func TestRegionEdits(t *testing.T) {
	g := smallWorld(t, 4)
	red := color.NRGBA{R: 255, A: 255}
	require.NoError(t, g.ApplyRegionEdits(map[int]RegionEdit{0: {Color: red}}))
	r, _ := g.Region(0)
	assert.Equal(t, red, r.Color)
	assert.ErrorIs(t, g.SetRegionColor(42, red), ErrUnknownRegion)
}

// Editing through the incremental hooks must leave the same geometry and
// lookup results as setting the flag and rebuilding everything.
func TestIncrementalEditsMatchFullRebuild(t *testing.T) {
	for _, mode := range []lookup.Mode{lookup.PieSlices, lookup.Raster} {
		t.Run(mode.String(), func(t *testing.T) {
			cfg := SmallTestConfig()
			cfg.RegionCount = 4
			cfg.LookupMode = mode
			incremental, err := Generate(cfg)
			require.NoError(t, err)
			full, err := Generate(cfg)
			require.NoError(t, err)

			incremental.Index().EnsureBuilt()
			full.Index().EnsureBuilt()

			c := coastalLand(t, incremental)
			region := incremental.Centers[c].Region
			require.Equal(t, c, coastalLand(t, full))

			steps := []struct {
				edit  CenterEdit
				apply func(g *Graph) error
			}{
				{CenterEdit{IsWater: true}, func(g *Graph) error { return g.SetCenterWater(c, true, false) }},
				{CenterEdit{RegionID: region}, func(g *Graph) error {
					if err := g.SetCenterWater(c, false, false); err != nil {
						return err
					}
					return g.SetCenterRegion(c, region)
				}},
			}
			for _, step := range steps {
				_, err := incremental.ApplyEdits(map[int]CenterEdit{c: step.edit}, nil)
				require.NoError(t, err)
				require.NoError(t, step.apply(full))
				full.RebuildAll()

				for i := range full.Corners {
					require.Equal(t, full.Corners[i].Loc, incremental.Corners[i].Loc, "corner %d", i)
				}
				for i := range full.Edges {
					require.Equal(t, full.EdgePath(i), incremental.EdgePath(i), "edge %d", i)
				}
				for i := range full.Centers {
					require.Equal(t, full.Centers[i].IsCoast, incremental.Centers[i].IsCoast, "center %d", i)
				}
				for _, p := range randomPoints(full, 1000, 11) {
					require.Equal(t, full.FindCenter(p), incremental.FindCenter(p), "point %v", p)
				}
				for y := 0.5; y < full.Bounds.Height(); y += 2 {
					for x := 0.5; x < full.Bounds.Width(); x += 2 {
						p := geom.Vec{X: x, Y: y}
						require.Equal(t, full.FindCenter(p), incremental.FindCenter(p), "pixel %v", p)
					}
				}
			}
		})
	}
}
