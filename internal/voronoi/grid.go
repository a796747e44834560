package voronoi

import "github.com/talgya/worldgraph/internal/geom"

// Grid returns a diagram of cols x rows square cells of the given size.
// Cell (i, j) has index j*cols + i. It has no Delaunay step and is meant for
// small deterministic worlds.
func Grid(cols, rows int, size float64) *Diagram {
	d := &Diagram{
		Bounds: geom.Rect{Max: geom.Vec{X: float64(cols) * size, Y: float64(rows) * size}},
	}

	for j := 0; j < rows; j++ {
		for i := 0; i < cols; i++ {
			d.Sites = append(d.Sites, geom.Vec{X: (float64(i) + 0.5) * size, Y: (float64(j) + 0.5) * size})
		}
	}
	for j := 0; j <= rows; j++ {
		for i := 0; i <= cols; i++ {
			d.Corners = append(d.Corners, geom.Vec{X: float64(i) * size, Y: float64(j) * size})
		}
	}

	cell := func(i, j int) int {
		if i < 0 || j < 0 || i >= cols || j >= rows {
			return None
		}
		return j*cols + i
	}
	corner := func(i, j int) int { return j*(cols+1) + i }

	// Vertical edges sit between (i-1, j) and (i, j).
	for j := 0; j < rows; j++ {
		for i := 0; i <= cols; i++ {
			d0, d1 := cell(i-1, j), cell(i, j)
			if d0 == None {
				d0, d1 = d1, None
			}
			d.Edges = append(d.Edges, Edge{Site0: d0, Site1: d1, Corner0: corner(i, j), Corner1: corner(i, j+1)})
		}
	}
	// Horizontal edges sit between (i, j-1) and (i, j).
	for j := 0; j <= rows; j++ {
		for i := 0; i < cols; i++ {
			d0, d1 := cell(i, j-1), cell(i, j)
			if d0 == None {
				d0, d1 = d1, None
			}
			d.Edges = append(d.Edges, Edge{Site0: d0, Site1: d1, Corner0: corner(i, j), Corner1: corner(i+1, j)})
		}
	}
	return d
}
