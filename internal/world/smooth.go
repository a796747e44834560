package world

import (
	"github.com/talgya/worldgraph/internal/collections"
	"github.com/talgya/worldgraph/internal/geom"
)

func (g *Graph) smoothingEnabled() bool {
	return g.cfg.LineStyle == SplinesWithSmoothedCoastlines
}

// smoothable picks the edges whose corners get pulled into curves.
func (g *Graph) smoothable(e int) bool {
	return g.IsCoast(e) || (g.IsRegionBoundary(e) && !g.IsRiver(e))
}

// wholeCellBoundary reports whether every border of a cell on either side
// of the edges is smoothable. Smoothing such a cell would shrink a one-cell
// island or region to a sliver.
func (g *Graph) wholeCellBoundary(edges []int) bool {
	for _, e := range edges {
		for _, ci := range []int{g.Edges[e].D0, g.Edges[e].D1} {
			if ci == None {
				continue
			}
			all := true
			for _, b := range g.Centers[ci].Borders {
				if !g.smoothable(b) {
					all = false
					break
				}
			}
			if all {
				return true
			}
		}
	}
	return false
}

// smoothCorner places a corner and reports whether it moved. A corner on
// exactly two smoothable edges sits halfway between their far ends; any
// other corner stays at its original location.
func (g *Graph) smoothCorner(vi int) bool {
	v := &g.Corners[vi]
	target := v.OriginalLoc
	if g.smoothingEnabled() {
		var matches []int
		for _, e := range v.Protrudes {
			if g.smoothable(e) {
				matches = append(matches, e)
			}
		}
		if len(matches) == 2 && !g.wholeCellBoundary(matches) {
			a := g.Edges[matches[0]].OtherCorner(vi)
			b := g.Edges[matches[1]].OtherCorner(vi)
			if a != None && b != None {
				target = geom.Midpoint(g.Corners[a].OriginalLoc, g.Corners[b].OriginalLoc)
			}
		}
	}
	if target == v.Loc {
		return false
	}
	v.Loc = target
	g.updateMidpoints(v.Protrudes)
	return true
}

// smoothCorners runs smoothCorner over the given corners and returns the
// cells touching any corner that moved.
func (g *Graph) smoothCorners(corners *collections.Bitset) *collections.Bitset {
	changed := collections.NewBitset(len(g.Centers))
	for v := range corners.All() {
		if g.smoothCorner(v) {
			for _, c := range g.Corners[v].Touches {
				changed.Add(c)
			}
		}
	}
	return changed
}

// smoothAll smooths every corner in the graph.
func (g *Graph) smoothAll() *collections.Bitset {
	all := collections.NewBitset(len(g.Corners))
	for i := range g.Corners {
		all.Add(i)
	}
	return g.smoothCorners(all)
}

// Resmooth re-evaluates corners of the changed cells and their neighbors.
// It returns the changed cells plus every cell touching a corner that moved.
func (g *Graph) Resmooth(changed *collections.Bitset) *collections.Bitset {
	corners := collections.NewBitset(len(g.Corners))
	for c := range changed.All() {
		for _, v := range g.Centers[c].Corners {
			corners.Add(v)
		}
		for _, nb := range g.Centers[c].Neighbors {
			for _, v := range g.Centers[nb].Corners {
				corners.Add(v)
			}
		}
	}
	result := g.smoothCorners(corners)
	result.AddAll(changed)
	return result
}
