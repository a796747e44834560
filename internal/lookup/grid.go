package lookup

import (
	"math"

	"github.com/talgya/worldgraph/internal/geom"
)

// cellsPerBucket is the average number of polygons each grid square covers.
const cellsPerBucket = 4

// grid stores, for every square of a uniform grid over the map, the cell
// whose center is nearest the square's middle. Queries start there.
type grid struct {
	origin     geom.Vec
	size       float64
	cols, rows int
	rep        []int
}

func newGrid(src Source) *grid {
	bounds := src.MapBounds()
	n := src.NumCenters()
	area := max(bounds.Width()*bounds.Height(), 1)
	size := math.Sqrt(area * cellsPerBucket / float64(max(n, 1)))
	if size <= 0 || math.IsNaN(size) {
		size = 1
	}
	g := &grid{
		origin: bounds.Min,
		size:   size,
		cols:   max(1, int(math.Ceil(bounds.Width()/size))),
		rows:   max(1, int(math.Ceil(bounds.Height()/size))),
	}
	g.rep = make([]int, g.cols*g.rows)
	if n == 0 {
		for i := range g.rep {
			g.rep[i] = None
		}
		return g
	}

	buckets := make([][]int, len(g.rep))
	for c := 0; c < n; c++ {
		i, j := g.square(src.CenterLoc(c))
		buckets[j*g.cols+i] = append(buckets[j*g.cols+i], c)
	}

	for j := 0; j < g.rows; j++ {
		for i := 0; i < g.cols; i++ {
			mid := geom.Vec{
				X: g.origin.X + (float64(i)+0.5)*size,
				Y: g.origin.Y + (float64(j)+0.5)*size,
			}
			g.rep[j*g.cols+i] = g.nearest(src, buckets, i, j, mid)
		}
	}
	return g
}

// nearest searches rings of squares around (i, j) until no farther ring can
// hold a closer center.
func (g *grid) nearest(src Source, buckets [][]int, i, j int, p geom.Vec) int {
	best, bestDist := None, math.Inf(1)
	for r := 0; r <= max(g.cols, g.rows); r++ {
		for y := j - r; y <= j+r; y++ {
			if y < 0 || y >= g.rows {
				continue
			}
			for x := i - r; x <= i+r; x++ {
				if x < 0 || x >= g.cols || (max(abs(x-i), abs(y-j)) != r) {
					continue
				}
				for _, c := range buckets[y*g.cols+x] {
					if d := src.CenterLoc(c).DistanceTo(p); d < bestDist {
						best, bestDist = c, d
					}
				}
			}
		}
		if best != None && bestDist <= (float64(r)+0.5)*g.size {
			break
		}
	}
	return best
}

func (g *grid) square(p geom.Vec) (int, int) {
	i := int(math.Floor((p.X - g.origin.X) / g.size))
	j := int(math.Floor((p.Y - g.origin.Y) / g.size))
	return geom.Clamp(i, 0, g.cols-1), geom.Clamp(j, 0, g.rows-1)
}

// at returns the representative cell for p's square.
func (g *grid) at(p geom.Vec) int {
	i, j := g.square(p)
	return g.rep[j*g.cols+i]
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
