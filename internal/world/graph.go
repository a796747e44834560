// Package world builds and maintains the planar world graph: Voronoi cells,
// their corners and edges, tectonic plates, political regions and the
// derived geometry used for drawing and point lookup.
//
// Every entity lives in a flat slice on Graph and refers to others by index.
// Plates and regions own sets of cell indices.
package world

import (
	"cmp"
	"fmt"
	"math/rand"
	"slices"

	"github.com/talgya/worldgraph/internal/geom"
	"github.com/talgya/worldgraph/internal/lookup"
	"github.com/talgya/worldgraph/internal/voronoi"
)

// None marks a missing index: a border edge's absent cell, a water cell's region.
const None = -1

// Center is one Voronoi cell.
type Center struct {
	Index     int
	Loc       geom.Vec
	Neighbors []int
	Borders   []int // ordered counter-clockwise around Loc
	Corners   []int

	IsBorder bool
	IsWater  bool
	IsLake   bool
	IsCoast  bool

	Elevation float64
	Moisture  float64
	Biome     Biome

	Plate  int
	Region int // None for water
}

// Corner is a vertex of the Voronoi diagram.
type Corner struct {
	Index       int
	Loc         geom.Vec // smoothed
	OriginalLoc geom.Vec
	Elevation   float64
	Moisture    float64
	River       int

	Touches   []int // centers
	Protrudes []int // edges
	Adjacent  []int // corners

	IsBorder bool
	IsWater  bool
	IsOcean  bool
	IsCoast  bool

	downslope int
}

// Edge pairs a Delaunay edge (D0-D1) with its dual Voronoi edge (V0-V1).
type Edge struct {
	Index    int
	D0, D1   int
	V0, V1   int
	Midpoint geom.Vec
	River    int

	noiseSeed int64
}

// OtherCorner returns the end of e that is not corner, or None.
func (e *Edge) OtherCorner(corner int) int {
	switch corner {
	case e.V0:
		return e.V1
	case e.V1:
		return e.V0
	}
	return None
}

// OtherCenter returns the side of e that is not center, or None.
func (e *Edge) OtherCenter(center int) int {
	switch center {
	case e.D0:
		return e.D1
	case e.D1:
		return e.D0
	}
	return None
}

// SharesCornerWith reports whether e and other meet at a corner.
func (e *Edge) SharesCornerWith(other *Edge) bool {
	if other == nil {
		return false
	}
	return (e.V0 != None && (e.V0 == other.V0 || e.V0 == other.V1)) ||
		(e.V1 != None && (e.V1 == other.V0 || e.V1 == other.V1))
}

// Graph is the world model.
type Graph struct {
	Bounds  geom.Rect
	Centers []Center
	Corners []Corner
	Edges   []Edge
	Plates  []*Plate

	cfg          GenConfig
	seed         int64
	regions      map[int]*Region
	nextRegionID int
	maxElevation float64

	noisy [][]geom.Vec // per edge; nil means a straight chord
	index *lookup.Index
}

// NewGraph wires the diagram into cell, corner and edge arenas. Corners are
// relaxed toward the cells they touch and every cell is moved to the mean of
// its corners.
func NewGraph(d *voronoi.Diagram, cfg GenConfig, seed int64) *Graph {
	g := &Graph{
		Bounds:  d.Bounds,
		cfg:     cfg,
		seed:    seed,
		regions: make(map[int]*Region),
	}

	g.Centers = make([]Center, len(d.Sites))
	for i, s := range d.Sites {
		g.Centers[i] = Center{Index: i, Loc: s, Plate: None, Region: None}
	}

	eps := 1e-6 * max(d.Bounds.Width(), d.Bounds.Height(), 1)
	g.Corners = make([]Corner, len(d.Corners))
	for i, p := range d.Corners {
		g.Corners[i] = Corner{Index: i, Loc: p, IsBorder: onBoundary(d.Bounds, p, eps), downslope: None}
	}

	seeds := rand.New(rand.NewSource(seed))
	for _, de := range d.Edges {
		if de.Corner0 == de.Corner1 {
			continue
		}
		d0, d1 := de.Site0, de.Site1
		if d0 == voronoi.None {
			d0, d1 = d1, d0
		}
		if d0 == voronoi.None {
			continue
		}
		g.addEdge(d0, d1, de.Corner0, de.Corner1, seeds.Int63())
	}

	g.improveCorners()
	for i := range g.Corners {
		g.Corners[i].OriginalLoc = g.Corners[i].Loc
	}
	g.updateMidpoints(nil)

	for i := range g.Centers {
		c := &g.Centers[i]
		if len(c.Corners) > 0 {
			locs := make([]geom.Vec, len(c.Corners))
			for k, ci := range c.Corners {
				locs[k] = g.Corners[ci].Loc
				c.IsBorder = c.IsBorder || g.Corners[ci].IsBorder
			}
			c.Loc = geom.Mean(locs)
		}
		g.orderBorders(i)
	}

	g.noisy = make([][]geom.Vec, len(g.Edges))
	g.index = lookup.New(g, cfg.LookupMode)
	return g
}

func (g *Graph) addEdge(d0, d1, v0, v1 int, noiseSeed int64) {
	e := Edge{Index: len(g.Edges), D0: d0, D1: d1, V0: v0, V1: v1, noiseSeed: noiseSeed}
	g.Edges = append(g.Edges, e)

	for _, ci := range []int{d0, d1} {
		if ci == None {
			continue
		}
		c := &g.Centers[ci]
		c.Borders = append(c.Borders, e.Index)
		c.Corners = appendUnique(c.Corners, v0)
		c.Corners = appendUnique(c.Corners, v1)
	}
	if d1 != None {
		g.Centers[d0].Neighbors = appendUnique(g.Centers[d0].Neighbors, d1)
		g.Centers[d1].Neighbors = appendUnique(g.Centers[d1].Neighbors, d0)
	}

	for _, pair := range [][2]int{{v0, v1}, {v1, v0}} {
		c := &g.Corners[pair[0]]
		c.Protrudes = append(c.Protrudes, e.Index)
		c.Adjacent = appendUnique(c.Adjacent, pair[1])
		c.Touches = appendUnique(c.Touches, d0)
		if d1 != None {
			c.Touches = appendUnique(c.Touches, d1)
		}
	}
}

func appendUnique(s []int, v int) []int {
	if slices.Contains(s, v) {
		return s
	}
	return append(s, v)
}

func onBoundary(r geom.Rect, p geom.Vec, eps float64) bool {
	return p.X-r.Min.X <= eps || r.Max.X-p.X <= eps || p.Y-r.Min.Y <= eps || r.Max.Y-p.Y <= eps
}

// improveCorners moves each interior corner to the mean of the cells it touches.
func (g *Graph) improveCorners() {
	next := make([]geom.Vec, len(g.Corners))
	for i := range g.Corners {
		c := &g.Corners[i]
		if c.IsBorder || len(c.Touches) == 0 {
			next[i] = c.Loc
			continue
		}
		locs := make([]geom.Vec, len(c.Touches))
		for k, ci := range c.Touches {
			locs[k] = g.Centers[ci].Loc
		}
		next[i] = geom.Mean(locs)
	}
	for i := range g.Corners {
		g.Corners[i].Loc = next[i]
	}
}

// updateMidpoints refreshes edge midpoints, for every edge when edges is nil.
func (g *Graph) updateMidpoints(edges []int) {
	update := func(i int) {
		e := &g.Edges[i]
		if e.V0 != None && e.V1 != None {
			e.Midpoint = geom.Midpoint(g.Corners[e.V0].Loc, g.Corners[e.V1].Loc)
		}
	}
	if edges == nil {
		for i := range g.Edges {
			update(i)
		}
		return
	}
	for _, i := range edges {
		update(i)
	}
}

func (g *Graph) orderBorders(ci int) {
	c := &g.Centers[ci]
	slices.SortStableFunc(c.Borders, func(a, b int) int {
		return cmp.Compare(geom.Angle(g.Edges[a].Midpoint.Sub(c.Loc)), geom.Angle(g.Edges[b].Midpoint.Sub(c.Loc)))
	})
}

// Seed is the seed the graph was generated from.
func (g *Graph) Seed() int64 {
	return g.seed
}

// Config returns the generation parameters.
func (g *Graph) Config() GenConfig {
	return g.cfg
}

// Index returns the point-location index.
func (g *Graph) Index() *lookup.Index {
	return g.index
}

// FindCenter returns the cell containing p, clamping points off the map to the nearest cell.
func (g *Graph) FindCenter(p geom.Vec) int {
	return g.index.Find(p)
}

// EdgeBetween returns the edge joining two corners, or None.
func (g *Graph) EdgeBetween(a, b int) int {
	for _, e := range g.Corners[a].Protrudes {
		if g.Edges[e].OtherCorner(a) == b {
			return e
		}
	}
	return None
}

// CenterCentroid is the mean of the cell's corner locations, or its Loc for a
// cell without corners.
func (g *Graph) CenterCentroid(ci int) geom.Vec {
	c := &g.Centers[ci]
	if len(c.Corners) == 0 {
		return c.Loc
	}
	locs := make([]geom.Vec, len(c.Corners))
	for k, corner := range c.Corners {
		locs[k] = g.Corners[corner].Loc
	}
	return geom.Mean(locs)
}

// IsSinglePolygonIsland reports whether a land cell has no land neighbors.
func (g *Graph) IsSinglePolygonIsland(ci int) bool {
	if g.Centers[ci].IsWater {
		return false
	}
	for _, n := range g.Centers[ci].Neighbors {
		if !g.Centers[n].IsWater {
			return false
		}
	}
	return true
}

// IsSinglePolygonWater reports whether a water cell has no water neighbors.
func (g *Graph) IsSinglePolygonWater(ci int) bool {
	if !g.Centers[ci].IsWater {
		return false
	}
	for _, n := range g.Centers[ci].Neighbors {
		if g.Centers[n].IsWater {
			return false
		}
	}
	return true
}

func (g *Graph) String() string {
	return fmt.Sprintf("Graph(centers=%d, corners=%d, edges=%d, plates=%d, regions=%d)",
		len(g.Centers), len(g.Corners), len(g.Edges), len(g.Plates), len(g.regions))
}

func (g *Graph) checkCenter(ci int) error {
	if ci < 0 || ci >= len(g.Centers) {
		return fmt.Errorf("center %d: %w", ci, ErrUnknownCenter)
	}
	return nil
}
