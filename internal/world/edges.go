package world

import "github.com/talgya/worldgraph/internal/geom"

// IsRiver reports whether the edge carries a river large enough to draw.
func (g *Graph) IsRiver(e int) bool {
	return g.Edges[e].River > MaxRiverLevelNotDrawn
}

// sides returns the two cells of an interior edge, or ok=false on the border.
func (g *Graph) sides(e int) (a, b *Center, ok bool) {
	edge := &g.Edges[e]
	if edge.D0 == None || edge.D1 == None {
		return nil, nil, false
	}
	return &g.Centers[edge.D0], &g.Centers[edge.D1], true
}

// IsCoastOrLakeShore reports whether the edge separates land from any water.
func (g *Graph) IsCoastOrLakeShore(e int) bool {
	a, b, ok := g.sides(e)
	return ok && a.IsWater != b.IsWater
}

// IsCoast reports whether the edge separates land from ocean.
func (g *Graph) IsCoast(e int) bool {
	a, b, ok := g.sides(e)
	if !ok || a.IsWater == b.IsWater {
		return false
	}
	if a.IsWater {
		return !a.IsLake
	}
	return !b.IsLake
}

// IsLakeShore reports whether the edge separates land from a lake.
func (g *Graph) IsLakeShore(e int) bool {
	a, b, ok := g.sides(e)
	if !ok || a.IsWater == b.IsWater {
		return false
	}
	if a.IsWater {
		return a.IsLake
	}
	return b.IsLake
}

// IsOceanOrLakeOrShore reports whether either side of the edge is water.
func (g *Graph) IsOceanOrLakeOrShore(e int) bool {
	a, b, ok := g.sides(e)
	return ok && (a.IsWater || b.IsWater)
}

// IsRegionBoundary reports whether the edge separates two different regions.
func (g *Graph) IsRegionBoundary(e int) bool {
	a, b, ok := g.sides(e)
	return ok && a.Region != None && b.Region != None && a.Region != b.Region
}

// EdgeType is how an edge is drawn.
type EdgeType uint8

const (
	EdgeNone EdgeType = iota
	EdgeRegion
	EdgeCoast
	EdgeRiver
)

// DrawType classifies an edge for drawing; coast wins over river, river over region.
func (g *Graph) DrawType(e int) EdgeType {
	a, b, ok := g.sides(e)
	if !ok {
		return EdgeNone
	}
	if a.IsWater != b.IsWater {
		return EdgeCoast
	}
	if g.IsRiver(e) && !g.IsOceanOrLakeOrShore(e) {
		return EdgeRiver
	}
	if a.Region != b.Region {
		return EdgeRegion
	}
	return EdgeNone
}

// followEdge picks the edge that continues a drawn line of e's type through
// corner, skipping prev and anything touching prev. Rivers follow their
// largest tributary. It returns None at the end of the line.
func (g *Graph) followEdge(corner, e, prev int) int {
	kind := g.DrawType(e)
	if kind == EdgeNone {
		return None
	}
	var prevEdge *Edge
	if prev != None {
		prevEdge = &g.Edges[prev]
	}
	best := None
	for _, other := range g.Corners[corner].Protrudes {
		if other == e || other == prev || g.Edges[other].SharesCornerWith(prevEdge) || g.DrawType(other) != kind {
			continue
		}
		if kind != EdgeRiver {
			return other
		}
		if best == None || g.Edges[other].River > g.Edges[best].River {
			best = other
		}
	}
	return best
}

// EdgeChains groups the edges accepted by include into connected polylines.
// Each chain lists edges in walking order; chains meeting at a fork are split.
func (g *Graph) EdgeChains(include func(e int) bool) [][]int {
	used := make([]bool, len(g.Edges))
	degree := func(corner int) int {
		n := 0
		for _, e := range g.Corners[corner].Protrudes {
			if include(e) {
				n++
			}
		}
		return n
	}
	next := func(corner, from int) int {
		if degree(corner) != 2 {
			return None
		}
		for _, e := range g.Corners[corner].Protrudes {
			if e != from && include(e) && !used[e] {
				return e
			}
		}
		return None
	}
	walk := func(start, corner int) []int {
		chain := []int{start}
		used[start] = true
		for cur := start; ; {
			corner = g.Edges[cur].OtherCorner(corner)
			if corner == None {
				return chain
			}
			n := next(corner, cur)
			if n == None {
				return chain
			}
			used[n] = true
			chain = append(chain, n)
			cur = n
		}
	}

	var chains [][]int
	// Open chains first, from corners where a line ends or forks.
	for i := range g.Edges {
		e := &g.Edges[i]
		if used[i] || !include(i) || e.V0 == None || e.V1 == None {
			continue
		}
		switch {
		case degree(e.V0) != 2:
			chains = append(chains, walk(i, e.V0))
		case degree(e.V1) != 2:
			chains = append(chains, walk(i, e.V1))
		}
	}
	// Whatever is left forms closed loops.
	for i := range g.Edges {
		e := &g.Edges[i]
		if used[i] || !include(i) || e.V0 == None || e.V1 == None {
			continue
		}
		chains = append(chains, walk(i, e.V0))
	}
	return chains
}

// ChainPoints joins the drawn paths of a chain into one polyline.
func (g *Graph) ChainPoints(chain []int) []geom.Vec {
	var out []geom.Vec
	for i, e := range chain {
		path := g.EdgePath(e)
		if len(path) == 0 {
			continue
		}
		edge := &g.Edges[e]
		reverse := false
		switch {
		case i+1 < len(chain):
			// End at the corner shared with the next edge.
			nextEdge := &g.Edges[chain[i+1]]
			reverse = edge.V0 == nextEdge.V0 || edge.V0 == nextEdge.V1
		case i > 0:
			prevEdge := &g.Edges[chain[i-1]]
			reverse = edge.V1 == prevEdge.V0 || edge.V1 == prevEdge.V1
		}
		if reverse {
			path = reversed(path)
		}
		if len(out) > 0 {
			path = path[1:]
		}
		out = append(out, path...)
	}
	return out
}

func reversed(path []geom.Vec) []geom.Vec {
	out := make([]geom.Vec, len(path))
	for i, p := range path {
		out[len(path)-1-i] = p
	}
	return out
}
