// Package voronoi builds the planar dual diagram the world graph is made from.
// Sites come from a Delaunay triangulation; each triangle contributes one
// corner at its centroid, and the convex hull is closed with corners at hull
// edge midpoints and at the hull sites themselves, so every cell is a closed
// polygon and the cells tile the hull exactly.
package voronoi

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/fogleman/delaunay"

	"github.com/talgya/worldgraph/internal/geom"
)

// ErrTooFewSites is returned when the sites cannot be triangulated.
var ErrTooFewSites = errors.New("voronoi: too few sites")

// None marks a missing site on a border edge.
const None = -1

// Edge is a Voronoi edge between two corners, separating Site0 from Site1.
// Site1 is None along the map border.
type Edge struct {
	Site0, Site1     int
	Corner0, Corner1 int
}

// Diagram is the raw substrate handed to the world graph.
type Diagram struct {
	Bounds  geom.Rect
	Sites   []geom.Vec
	Corners []geom.Vec
	Edges   []Edge
}

func nextHalfedge(e int) int {
	if e%3 == 2 {
		return e - 2
	}
	return e + 1
}

// Build triangulates sites and returns the dual diagram.
func Build(sites []geom.Vec, bounds geom.Rect) (*Diagram, error) {
	if len(sites) < 3 {
		return nil, fmt.Errorf("build diagram with %d sites: %w", len(sites), ErrTooFewSites)
	}

	points := make([]delaunay.Point, len(sites))
	for i, s := range sites {
		points[i] = delaunay.Point{X: s.X, Y: s.Y}
	}
	tri, err := delaunay.Triangulate(points)
	if err != nil {
		return nil, fmt.Errorf("triangulate: %w: %w", ErrTooFewSites, err)
	}

	d := &Diagram{Bounds: bounds, Sites: sites}

	numTriangles := len(tri.Triangles) / 3
	for t := 0; t < numTriangles; t++ {
		a := sites[tri.Triangles[3*t]]
		b := sites[tri.Triangles[3*t+1]]
		c := sites[tri.Triangles[3*t+2]]
		d.Corners = append(d.Corners, geom.Mean([]geom.Vec{a, b, c}))
	}

	hullSiteCorner := make(map[int]int)
	siteCorner := func(s int) int {
		if c, ok := hullSiteCorner[s]; ok {
			return c
		}
		d.Corners = append(d.Corners, sites[s])
		hullSiteCorner[s] = len(d.Corners) - 1
		return len(d.Corners) - 1
	}

	for e, opposite := range tri.Halfedges {
		s0 := tri.Triangles[e]
		s1 := tri.Triangles[nextHalfedge(e)]
		if opposite >= 0 {
			if opposite < e {
				continue
			}
			d.Edges = append(d.Edges, Edge{Site0: s0, Site1: s1, Corner0: e / 3, Corner1: opposite / 3})
			continue
		}

		d.Corners = append(d.Corners, geom.Midpoint(sites[s0], sites[s1]))
		mid := len(d.Corners) - 1
		d.Edges = append(d.Edges,
			Edge{Site0: s0, Site1: s1, Corner0: e / 3, Corner1: mid},
			Edge{Site0: s0, Site1: None, Corner0: siteCorner(s0), Corner1: mid},
			Edge{Site0: s1, Site1: None, Corner0: mid, Corner1: siteCorner(s1)},
		)
	}

	return d, nil
}

// RandomSites scatters n sites over bounds. The rectangle's corners and evenly
// spaced points along its sides come first so the hull is the rectangle.
func RandomSites(rng *rand.Rand, n int, bounds geom.Rect) (sites []geom.Vec, fixed int) {
	w, h := bounds.Width(), bounds.Height()
	spacing := 1.0
	if n > 0 {
		spacing = max(1, math.Sqrt(w*h/float64(n)))
	}

	perSide := func(length float64) int { return max(1, int(length/spacing)) }
	nx, ny := perSide(w), perSide(h)
	for i := 0; i < nx; i++ {
		x := bounds.Min.X + w*float64(i)/float64(nx)
		sites = append(sites, geom.Vec{X: x, Y: bounds.Min.Y})
		sites = append(sites, geom.Vec{X: bounds.Max.X - (x - bounds.Min.X), Y: bounds.Max.Y})
	}
	for j := 0; j < ny; j++ {
		y := bounds.Min.Y + h*float64(j)/float64(ny)
		sites = append(sites, geom.Vec{X: bounds.Max.X, Y: y})
		sites = append(sites, geom.Vec{X: bounds.Min.X, Y: bounds.Max.Y - (y - bounds.Min.Y)})
	}
	fixed = len(sites)

	margin := spacing * 0.25
	for len(sites) < max(n, fixed+3) {
		sites = append(sites, geom.Vec{
			X: bounds.Min.X + margin + rng.Float64()*(w-2*margin),
			Y: bounds.Min.Y + margin + rng.Float64()*(h-2*margin),
		})
	}
	return sites, fixed
}

// Relax moves every site after the first fixed ones to the centroid of its
// cell's corners and rebuilds the diagram, iterations times.
func Relax(d *Diagram, fixed, iterations int) (*Diagram, error) {
	for i := 0; i < iterations; i++ {
		sums := make([]geom.Vec, len(d.Sites))
		counts := make([]int, len(d.Sites))
		seen := make([]map[int]bool, len(d.Sites))
		addCorner := func(s, c int) {
			if s == None {
				return
			}
			if seen[s] == nil {
				seen[s] = make(map[int]bool)
			}
			if seen[s][c] {
				return
			}
			seen[s][c] = true
			sums[s] = sums[s].Add(d.Corners[c])
			counts[s]++
		}
		for _, e := range d.Edges {
			for _, s := range []int{e.Site0, e.Site1} {
				addCorner(s, e.Corner0)
				addCorner(s, e.Corner1)
			}
		}

		sites := append([]geom.Vec(nil), d.Sites...)
		for s := fixed; s < len(sites); s++ {
			if counts[s] > 0 {
				sites[s] = geom.Vec{X: sums[s].X / float64(counts[s]), Y: sums[s].Y / float64(counts[s])}
			}
		}

		next, err := Build(sites, d.Bounds)
		if err != nil {
			return nil, fmt.Errorf("relax iteration %d: %w", i, err)
		}
		d = next
	}
	return d, nil
}

// Generate scatters numSites sites in bounds and returns the relaxed diagram.
func Generate(rng *rand.Rand, numSites int, bounds geom.Rect, relaxations int) (*Diagram, error) {
	sites, fixed := RandomSites(rng, numSites, bounds)
	d, err := Build(sites, bounds)
	if err != nil {
		return nil, err
	}
	return Relax(d, fixed, relaxations)
}
