package world

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/talgya/worldgraph/internal/collections"
	"github.com/talgya/worldgraph/internal/geom"
	"github.com/talgya/worldgraph/internal/voronoi"
)

// gridGraph builds an n x n world of 10-unit squares with no generation run.
func gridGraph(t *testing.T, n int) *Graph {
	t.Helper()
	d := voronoi.Grid(n, n, 10)
	cfg := SmallTestConfig()
	cfg.Width, cfg.Height = d.Bounds.Width(), d.Bounds.Height()
	cfg.NumSites = n * n
	cfg.LineStyle = Jagged
	g := NewGraph(d, cfg, 1)
	require.Len(t, g.Centers, n*n)
	return g
}

// assignPlates replaces the plates with the given kinds, placing each cell
// on the plate owner returns. Oceanic cells become water.
func assignPlates(g *Graph, kinds []PlateKind, owner func(c int) int) {
	g.Plates = nil
	for i, k := range kinds {
		g.Plates = append(g.Plates, &Plate{ID: i, Kind: k, centers: collections.NewBitset(len(g.Centers))})
	}
	for c := range g.Centers {
		p := owner(c)
		g.Centers[c].Plate = p
		g.Plates[p].centers.Add(c)
		g.Centers[c].IsWater = kinds[p] == Oceanic
	}
}

func smallWorld(t *testing.T, regions int) *Graph {
	t.Helper()
	cfg := SmallTestConfig()
	cfg.RegionCount = regions
	g, err := Generate(cfg)
	require.NoError(t, err)
	return g
}

func geomVec(x, y float64) geom.Vec {
	return geom.Vec{X: x, Y: y}
}
