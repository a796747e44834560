package lookup

import (
	"cmp"
	"math"
	"math/rand"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/worldgraph/internal/geom"
	"github.com/talgya/worldgraph/internal/voronoi"
)

// diagramSource serves a voronoi diagram directly, with optional
// replacement paths for individual edges.
type diagramSource struct {
	d         *voronoi.Diagram
	borders   [][]int
	neighbors [][]int
	paths     map[int][]geom.Vec
}

func newDiagramSource(d *voronoi.Diagram) *diagramSource {
	s := &diagramSource{
		d:         d,
		borders:   make([][]int, len(d.Sites)),
		neighbors: make([][]int, len(d.Sites)),
		paths:     make(map[int][]geom.Vec),
	}
	for i, e := range d.Edges {
		s.borders[e.Site0] = append(s.borders[e.Site0], i)
		if e.Site1 != voronoi.None {
			s.borders[e.Site1] = append(s.borders[e.Site1], i)
			s.neighbors[e.Site0] = append(s.neighbors[e.Site0], e.Site1)
			s.neighbors[e.Site1] = append(s.neighbors[e.Site1], e.Site0)
		}
	}
	return s
}

func (s *diagramSource) MapBounds() geom.Rect { return s.d.Bounds }
func (s *diagramSource) NumCenters() int { return len(s.d.Sites) }
func (s *diagramSource) CenterLoc(c int) geom.Vec { return s.d.Sites[c] }
func (s *diagramSource) CenterNeighbors(c int) []int { return s.neighbors[c] }
func (s *diagramSource) CenterBorders(c int) []int { return s.borders[c] }

func (s *diagramSource) chord(e int) (geom.Vec, geom.Vec) {
	edge := s.d.Edges[e]
	return s.d.Corners[edge.Corner0], s.d.Corners[edge.Corner1]
}

func (s *diagramSource) EdgePath(e int) []geom.Vec {
	if p, ok := s.paths[e]; ok {
		return p
	}
	a, b := s.chord(e)
	return []geom.Vec{a, b}
}

func (s *diagramSource) CenterOutline(c int) []geom.Vec {
	center := s.CenterLoc(c)
	borders := slices.Clone(s.borders[c])
	slices.SortFunc(borders, func(x, y int) int {
		ax, bx := s.chord(x)
		ay, by := s.chord(y)
		return cmp.Compare(geom.Angle(geom.Midpoint(ax, bx).Sub(center)), geom.Angle(geom.Midpoint(ay, by).Sub(center)))
	})
	var out []geom.Vec
	for _, e := range borders {
		path := slices.Clone(s.EdgePath(e))
		if geom.Cross3(center, path[0], path[len(path)-1]) < 0 {
			slices.Reverse(path)
		}
		out = append(out, path[:len(path)-1]...)
	}
	return out
}

// edgeBetween finds the diagram edge separating two cells.
func (s *diagramSource) edgeBetween(a, b int) int {
	for _, e := range s.borders[a] {
		edge := s.d.Edges[e]
		if (edge.Site0 == a && edge.Site1 == b) || (edge.Site0 == b && edge.Site1 == a) {
			return e
		}
	}
	return None
}

var allModes = []Mode{PieSlices, Raster, NearestWalk}

func TestFindOnGrid(t *testing.T) {
	const cols, rows, size = 6, 4, 10.0
	src := newDiagramSource(voronoi.Grid(cols, rows, size))
	rng := rand.New(rand.NewSource(3))

	for _, mode := range allModes {
		t.Run(mode.String(), func(t *testing.T) {
			idx := New(src, mode)
			for n := 0; n < 500; n++ {
				p := geom.Vec{X: rng.Float64() * cols * size, Y: rng.Float64() * rows * size}
				want := int(math.Floor(p.Y/size))*cols + int(math.Floor(p.X/size))
				require.Equal(t, want, idx.Find(p), "point %v", p)
			}
			for c, site := range src.d.Sites {
				assert.Equal(t, c, idx.Find(site))
			}
		})
	}
}

func TestFindClampsOffMapPoints(t *testing.T) {
	src := newDiagramSource(voronoi.Grid(3, 3, 10))
	idx := New(src, PieSlices)

	assert.Equal(t, 0, idx.Find(geom.Vec{X: -50, Y: -50}))
	assert.Equal(t, 8, idx.Find(geom.Vec{X: 100, Y: 100}))

	_, ok := idx.FindOnMap(geom.Vec{X: -1, Y: 5})
	assert.False(t, ok)
	c, ok := idx.FindOnMap(geom.Vec{X: 15, Y: 15})
	assert.True(t, ok)
	assert.Equal(t, 4, c)
}

func TestInvalidatePicksUpMovedEdges(t *testing.T) {
	src := newDiagramSource(voronoi.Grid(6, 4, 10))
	shared := src.edgeBetween(0, 1)
	require.NotEqual(t, None, shared)
	p := geom.Vec{X: 12, Y: 5}

	for _, mode := range []Mode{PieSlices, Raster} {
		t.Run(mode.String(), func(t *testing.T) {
			delete(src.paths, shared)
			idx := New(src, mode)
			idx.EnsureBuilt()
			require.Equal(t, 1, idx.Find(p))

			// Bulge the shared edge into cell 1.
			src.paths[shared] = []geom.Vec{{X: 10, Y: 0}, {X: 13, Y: 5}, {X: 10, Y: 10}}
			idx.Invalidate([]int{0})

			assert.Equal(t, 0, idx.Find(p))
			assert.True(t, idx.CellContains(0, p))
			assert.Equal(t, 1, idx.Find(geom.Vec{X: 15, Y: 5}))
		})
	}
}

// latticePoints covers the source's bounds with points that never sit on a
// fixture vertex's row or on a diagonal through a cell center.
func latticePoints(src *diagramSource) []geom.Vec {
	var pts []geom.Vec
	b := src.MapBounds()
	for y := b.Min.Y + 0.11; y < b.Max.Y; y += 0.5 {
		for x := b.Min.X + 0.37; x < b.Max.X; x += 0.5 {
			pts = append(pts, geom.Vec{X: x, Y: y})
		}
	}
	return pts
}

func TestSlicesAgreeWithOutlines(t *testing.T) {
	src := newDiagramSource(voronoi.Grid(6, 4, 10))
	shared := src.edgeBetween(7, 8)
	require.NotEqual(t, None, shared)
	// Zigzags out of the chord's sector and back across it.
	src.paths[shared] = []geom.Vec{{X: 20, Y: 10}, {X: 18, Y: 8}, {X: 27, Y: 9}, {X: 22, Y: 14}, {X: 29, Y: 17}, {X: 20, Y: 20}}

	idx := New(src, PieSlices)
	for _, c := range []int{1, 2, 7, 8, 13} {
		outline := flatten(nil, src.CenterOutline(c))
		for _, p := range latticePoints(src) {
			require.Equal(t, geom.InPolygon(outline, p.X, p.Y), idx.CellContains(c, p), "cell %d point %v", c, p)
		}
	}
}

func TestRasterInvalidateMatchesFreshBuild(t *testing.T) {
	src := newDiagramSource(voronoi.Grid(6, 4, 10))
	shared := src.edgeBetween(7, 8)
	require.NotEqual(t, None, shared)

	sameImage := func(t *testing.T, got *Index) {
		t.Helper()
		fresh := New(src, Raster)
		fresh.EnsureBuilt()
		for _, p := range latticePoints(src) {
			require.Equal(t, fresh.raster.At(p), got.raster.At(p), "point %v", p)
			require.Equal(t, fresh.Find(p), got.Find(p), "point %v", p)
		}
	}

	idx := New(src, Raster)
	idx.EnsureBuilt()

	// Reaches across cell 8 into cell 9, so cells 7 and 9 overlap there.
	src.paths[shared] = []geom.Vec{{X: 20, Y: 10}, {X: 33, Y: 14}, {X: 33, Y: 16}, {X: 20, Y: 20}}
	idx.Invalidate([]int{8, 7})
	sameImage(t, idx)

	delete(src.paths, shared)
	idx.Invalidate([]int{7})
	sameImage(t, idx)
}

func TestResetRebuildsFromScratch(t *testing.T) {
	src := newDiagramSource(voronoi.Grid(4, 4, 10))
	shared := src.edgeBetween(5, 6)
	require.NotEqual(t, None, shared)
	p := geom.Vec{X: 22, Y: 15}

	idx := New(src, Raster)
	require.Equal(t, 6, idx.Find(p))

	src.paths[shared] = []geom.Vec{{X: 20, Y: 10}, {X: 24, Y: 15}, {X: 20, Y: 20}}
	idx.Reset()
	assert.Equal(t, 5, idx.Find(p))
}

func TestParseMode(t *testing.T) {
	for _, mode := range allModes {
		got, err := ParseMode(mode.String())
		require.NoError(t, err)
		assert.Equal(t, mode, got)
	}
	_, err := ParseMode("quadtree")
	assert.Error(t, err)
}
