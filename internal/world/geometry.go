package world

import "github.com/talgya/worldgraph/internal/geom"

// The methods below let the lookup index read cell geometry.

func (g *Graph) MapBounds() geom.Rect {
	return g.Bounds
}

func (g *Graph) NumCenters() int {
	return len(g.Centers)
}

func (g *Graph) CenterLoc(c int) geom.Vec {
	return g.Centers[c].Loc
}

func (g *Graph) CenterNeighbors(c int) []int {
	return g.Centers[c].Neighbors
}

func (g *Graph) CenterBorders(c int) []int {
	return g.Centers[c].Borders
}

// UpdateLookup refreshes the point-location index for the changed cells and
// their neighbors.
func (g *Graph) UpdateLookup(changed []int) {
	g.index.Invalidate(changed)
}
