package world

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/talgya/worldgraph/internal/collections"
	"github.com/talgya/worldgraph/internal/geom"
)

// LineStyle selects how boundaries between cells are drawn.
type LineStyle uint8

const (
	Jagged                        LineStyle = iota // recursive midpoint displacement
	Splines                                        // Catmull-Rom curves through corners
	SplinesWithSmoothedCoastlines                  // curves plus corner smoothing
)

var lineStyleNames = map[LineStyle]string{
	Jagged:                        "jagged",
	Splines:                       "splines",
	SplinesWithSmoothedCoastlines: "smooth",
}

func (s LineStyle) String() string {
	if n, ok := lineStyleNames[s]; ok {
		return n
	}
	return fmt.Sprintf("LineStyle(%d)", uint8(s))
}

// IsCurved reports whether edges are drawn as splines, which depend on
// neighboring edges as well.
func (s LineStyle) IsCurved() bool {
	return s == Splines || s == SplinesWithSmoothedCoastlines
}

// ParseLineStyle accepts the names printed by LineStyle.String.
func ParseLineStyle(name string) (LineStyle, error) {
	for s, n := range lineStyleNames {
		if n == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown line style %q", name)
}

const (
	noisyLineTradeoff      = 0.5
	curvePointSpacing      = 4.0
	minSegmentCoastRegion  = 3.0
	minSegmentRiver        = 2.0
	minSegmentUndrawnEdges = 1000.0
)

func (g *Graph) minSegmentLength(e int) float64 {
	switch g.DrawType(e) {
	case EdgeCoast, EdgeRegion:
		return minSegmentCoastRegion
	case EdgeRiver:
		return minSegmentRiver
	}
	return minSegmentUndrawnEdges
}

func (g *Graph) resolutionScale() float64 {
	if g.cfg.ResolutionScale <= 0 {
		return 1
	}
	return g.cfg.ResolutionScale
}

// buildNoisyEdges builds paths for every edge. Existing paths are kept
// unless force is set.
func (g *Graph) buildNoisyEdges(force bool) {
	for i := range g.Centers {
		g.buildNoisyEdgesForCenter(i, force)
	}
}

func (g *Graph) buildNoisyEdgesForCenter(ci int, force bool) {
	for _, e := range g.Centers[ci].Borders {
		if g.noisy[e] != nil && !force {
			continue
		}
		g.noisy[e] = g.buildNoisyEdge(e)
	}
}

// RebuildNoisyEdgesForCenter rebuilds the paths around a cell. Curved styles
// also rebuild its neighbors, whose curves bend toward this cell's edges.
func (g *Graph) RebuildNoisyEdgesForCenter(ci int) {
	g.buildNoisyEdgesForCenter(ci, true)
	if g.cfg.LineStyle.IsCurved() {
		for _, nb := range g.Centers[ci].Neighbors {
			g.buildNoisyEdgesForCenter(nb, true)
		}
	}
}

func (g *Graph) buildNoisyEdge(e int) []geom.Vec {
	edge := &g.Edges[e]
	if edge.D0 == None || edge.D1 == None || edge.V0 == None || edge.V1 == None {
		return nil
	}
	if g.cfg.LineStyle.IsCurved() {
		return g.buildCurve(e)
	}

	v0, v1 := g.Corners[edge.V0].Loc, g.Corners[edge.V1].Loc
	d0, d1 := g.Centers[edge.D0].Loc, g.Centers[edge.D1].Loc
	t := geom.LerpVec(v0, d0, noisyLineTradeoff)
	q := geom.LerpVec(v0, d1, noisyLineTradeoff)
	r := geom.LerpVec(v1, d0, noisyLineTradeoff)
	s := geom.LerpVec(v1, d1, noisyLineTradeoff)

	rng := rand.New(rand.NewSource(edge.noiseSeed))
	minLength := g.minSegmentLength(e) * g.resolutionScale()

	path := []geom.Vec{v0}
	path = subdivide(rng, v0, t, edge.Midpoint, q, minLength, path)
	path = append(path, edge.Midpoint)
	tail := []geom.Vec{v1}
	tail = subdivide(rng, v1, s, edge.Midpoint, r, minLength, tail)
	for i := len(tail) - 1; i >= 0; i-- {
		path = append(path, tail[i])
	}
	return path
}

// subdivide displaces the line a-c inside the quadrilateral a, b, c, d,
// appending interior points in order from a toward c.
func subdivide(rng *rand.Rand, a, b, c, d geom.Vec, minLength float64, out []geom.Vec) []geom.Vec {
	if a.DistanceTo(c) < minLength || b.DistanceTo(d) < minLength {
		return out
	}

	p := 0.2 + rng.Float64()*0.6
	q := 0.2 + rng.Float64()*0.6

	e := geom.LerpVec(a, d, p)
	f := geom.LerpVec(b, c, p)
	gg := geom.LerpVec(a, b, q)
	i := geom.LerpVec(d, c, q)
	h := geom.LerpVec(e, f, q)

	s := 1 - (rng.Float64()*0.8 - 0.4)
	t := 1 - (rng.Float64()*0.8 - 0.4)

	// s and t near 1 keep the side points near gg, e, f and i, so each
	// sub-quad is a shrunken corner of this one.
	out = subdivide(rng, a, geom.LerpVec(b, gg, s), h, geom.LerpVec(d, e, t), minLength, out)
	out = append(out, h)
	return subdivide(rng, h, geom.LerpVec(c, f, s), c, geom.LerpVec(d, i, t), minLength, out)
}

// buildCurve draws a Catmull-Rom curve from V0 to V1 for drawn edges, using
// the continuing edges at each corner as control points. Undrawn edges stay
// straight.
func (g *Graph) buildCurve(e int) []geom.Vec {
	edge := &g.Edges[e]
	p1, p2 := g.Corners[edge.V0].Loc, g.Corners[edge.V1].Loc
	if g.DrawType(e) == EdgeNone {
		return []geom.Vec{p1, p2}
	}

	control := func(corner int) geom.Vec {
		next := g.followEdge(corner, e, None)
		if next == None {
			return g.Corners[corner].Loc
		}
		if far := g.Edges[next].OtherCorner(corner); far != None {
			return g.Corners[far].Loc
		}
		return g.Corners[corner].Loc
	}
	p0, p3 := control(edge.V0), control(edge.V1)

	spacing := curvePointSpacing * g.resolutionScale()
	steps := max(1, int(math.Ceil(p1.DistanceTo(p2)/spacing)))
	return geom.CatmullRom(p0, p1, p2, p3, steps)
}

// EdgePath is the drawn polyline of an edge from V0 to V1: its noisy path
// when one is built, otherwise the straight chord. Edges missing a corner
// have no path.
func (g *Graph) EdgePath(e int) []geom.Vec {
	if path := g.noisy[e]; path != nil {
		return path
	}
	edge := &g.Edges[e]
	if edge.V0 == None || edge.V1 == None {
		return nil
	}
	return []geom.Vec{g.Corners[edge.V0].Loc, g.Corners[edge.V1].Loc}
}

// CenterOutline is the cell's polygon traced counter-clockwise along its
// drawn edges. A cell without borders yields just its location.
func (g *Graph) CenterOutline(ci int) []geom.Vec {
	c := &g.Centers[ci]
	var out []geom.Vec
	for _, e := range c.Borders {
		path := g.EdgePath(e)
		if len(path) < 2 {
			continue
		}
		if geom.Cross3(c.Loc, path[0], path[len(path)-1]) < 0 {
			path = reversed(path)
		}
		out = append(out, path[:len(path)-1]...)
	}
	if len(out) == 0 {
		return []geom.Vec{c.Loc}
	}
	return out
}

// RebuildAll recomputes every derived structure from the current flags:
// coast flags, corner smoothing, noisy edges and the lookup index.
func (g *Graph) RebuildAll() {
	g.updateAllFlags()
	g.smoothAll()
	g.buildNoisyEdges(true)
	g.index.Reset()
}

// rebuildNoisyEdgesFor rebuilds around every changed cell and returns the
// cells whose borders were rebuilt.
func (g *Graph) rebuildNoisyEdgesFor(changed *collections.Bitset) *collections.Bitset {
	rebuilt := changed.Clone()
	for c := range changed.All() {
		g.RebuildNoisyEdgesForCenter(c)
		if g.cfg.LineStyle.IsCurved() {
			for _, nb := range g.Centers[c].Neighbors {
				rebuilt.Add(nb)
			}
		}
	}
	return rebuilt
}
