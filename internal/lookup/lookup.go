// Package lookup locates the cell containing a point. The index is owned by
// the graph, built lazily on first use and partially rebuilt when cell
// geometry changes. Reads are safe from many goroutines as long as no
// Invalidate runs at the same time.
package lookup

import (
	"fmt"
	"image"
	"maps"
	"slices"
	"sync"

	"github.com/talgya/worldgraph/internal/geom"
	"github.com/talgya/worldgraph/internal/raster"
)

// None is returned when no cell can be found.
const None = -1

// Mode selects the point-location strategy.
type Mode uint8

const (
	PieSlices   Mode = iota // point-in-polygon against per-edge slices
	Raster                  // read back a rasterized cell-id image
	NearestWalk             // greedy walk to the nearest cell center
)

var modeNames = map[Mode]string{
	PieSlices:   "slices",
	Raster:      "raster",
	NearestWalk: "walk",
}

func (m Mode) String() string {
	if n, ok := modeNames[m]; ok {
		return n
	}
	return fmt.Sprintf("Mode(%d)", uint8(m))
}

// ParseMode accepts the names printed by Mode.String.
func ParseMode(name string) (Mode, error) {
	for m, n := range modeNames {
		if n == name {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown lookup mode %q", name)
}

// Source is the cell geometry the index is built from.
type Source interface {
	MapBounds() geom.Rect
	NumCenters() int
	CenterLoc(c int) geom.Vec
	CenterNeighbors(c int) []int
	CenterBorders(c int) []int
	// EdgePath returns the drawn polyline of an edge, nil if it has none.
	EdgePath(e int) []geom.Vec
	// CenterOutline returns the drawn polygon of a cell.
	CenterOutline(c int) []geom.Vec
}

// Index answers point-to-cell queries.
type Index struct {
	src  Source
	mode Mode

	once     sync.Once
	grid     *grid
	pies     [][]slice // per cell
	raster   *raster.IDImage
	boxes    []image.Rectangle // raster pixels each cell may hold
	outlines [][]float64       // flattened cell outlines, raster mode
}

// New creates an index over src. Nothing is computed until the first query
// or EnsureBuilt.
func New(src Source, mode Mode) *Index {
	return &Index{src: src, mode: mode}
}

// Mode is the strategy the index was created with.
func (x *Index) Mode() Mode {
	return x.mode
}

// EnsureBuilt builds the index if it has not been built yet.
func (x *Index) EnsureBuilt() {
	x.once.Do(x.build)
}

func (x *Index) build() {
	x.grid = newGrid(x.src)
	n := x.src.NumCenters()
	switch x.mode {
	case PieSlices:
		x.pies = make([][]slice, n)
		for c := range x.pies {
			x.pies[c] = buildSlices(x.src, c)
		}
	case Raster:
		x.raster = raster.NewIDImage(x.src.MapBounds(), 1)
		x.boxes = make([]image.Rectangle, n)
		x.outlines = make([][]float64, n)
		for c := 0; c < n; c++ {
			outline := x.src.CenterOutline(c)
			x.outlines[c] = flatten(nil, outline)
			x.boxes[c] = x.raster.PixelBounds(outline)
			x.raster.Fill(c, outline)
		}
	}
}

// Reset drops everything built so far; the next query rebuilds from
// scratch. It must not run concurrently with queries.
func (x *Index) Reset() {
	x.once = sync.Once{}
	x.grid, x.pies, x.raster, x.boxes, x.outlines = nil, nil, nil, nil, nil
}

// Invalidate rebuilds the cached geometry of the given cells and their
// neighbors. It must not run concurrently with queries.
func (x *Index) Invalidate(centers []int) {
	x.EnsureBuilt()
	if x.mode == NearestWalk {
		return
	}

	set := make(map[int]struct{}, len(centers)*7)
	for _, c := range centers {
		set[c] = struct{}{}
		for _, nb := range x.src.CenterNeighbors(c) {
			set[nb] = struct{}{}
		}
	}
	affected := slices.Sorted(maps.Keys(set))

	switch x.mode {
	case PieSlices:
		for _, c := range affected {
			x.pies[c] = buildSlices(x.src, c)
		}
	case Raster:
		x.repaint(affected)
	}
}

// repaint redraws the pixels the affected cells held before and after their
// outlines changed. Every cell reaching into that area is refilled in index
// order, the same order build uses, so overlapping outlines resolve the same
// way as in a fresh build.
func (x *Index) repaint(affected []int) {
	var dirty image.Rectangle
	for _, c := range affected {
		dirty = dirty.Union(x.boxes[c])
		outline := x.src.CenterOutline(c)
		x.outlines[c] = flatten(nil, outline)
		x.boxes[c] = x.raster.PixelBounds(outline)
		dirty = dirty.Union(x.boxes[c])
	}
	if dirty.Empty() {
		return
	}
	x.raster.Reset(dirty)
	for c, box := range x.boxes {
		if box.Overlaps(dirty) {
			x.raster.FillWithin(c, x.src.CenterOutline(c), dirty)
		}
	}
}

// Find returns the cell containing p. Points off the map are clamped to its
// bounds, so Find always returns a cell when the source has any.
func (x *Index) Find(p geom.Vec) int {
	x.EnsureBuilt()
	if x.src.NumCenters() == 0 {
		return None
	}
	p = clampToRect(x.src.MapBounds(), p)

	switch x.mode {
	case Raster:
		return x.findInRaster(p)
	case NearestWalk:
		return x.walk(x.grid.at(p), p)
	}
	return x.findInSlices(p)
}

// findInRaster reads a candidate off the pixel under p and confirms it
// against the exact outlines of the candidate and its neighbors, since
// pixels along a boundary belong to whichever cell covers their center.
func (x *Index) findInRaster(p geom.Vec) int {
	c := x.raster.At(p)
	if c == raster.Empty {
		c = x.walk(x.grid.at(p), p)
	}
	if x.CellContains(c, p) {
		return c
	}
	for _, nb := range x.src.CenterNeighbors(c) {
		if x.CellContains(nb, p) {
			return nb
		}
	}
	return c
}

// FindOnMap is Find for points inside the map bounds only.
func (x *Index) FindOnMap(p geom.Vec) (int, bool) {
	if !geom.InRect(x.src.MapBounds(), p) {
		return None, false
	}
	c := x.Find(p)
	return c, c != None
}

func (x *Index) findInSlices(p geom.Vec) int {
	start := x.grid.at(p)
	tried := make([]int, 0, 32)
	try := func(c int) bool {
		for _, t := range tried {
			if t == c {
				return false
			}
		}
		tried = append(tried, c)
		return x.CellContains(c, p)
	}

	if try(start) {
		return start
	}
	for _, nb := range x.src.CenterNeighbors(start) {
		if try(nb) {
			return nb
		}
	}
	for _, nb := range x.src.CenterNeighbors(start) {
		for _, nb2 := range x.src.CenterNeighbors(nb) {
			if try(nb2) {
				return nb2
			}
		}
	}

	end := x.walk(start, p)
	if try(end) {
		return end
	}
	for _, nb := range x.src.CenterNeighbors(end) {
		if try(nb) {
			return nb
		}
	}

	// Linear fallback: slow, but finds any cell that holds p.
	for c := 0; c < x.src.NumCenters(); c++ {
		if !slices.Contains(tried, c) && x.CellContains(c, p) {
			return c
		}
	}
	return end
}

// walk hops to whichever neighbor's center is closer to p until none is.
func (x *Index) walk(c int, p geom.Vec) int {
	best := x.src.CenterLoc(c).DistanceSquaredTo(p)
	for {
		next := None
		for _, nb := range x.src.CenterNeighbors(c) {
			if d := x.src.CenterLoc(nb).DistanceSquaredTo(p); d < best {
				best, next = d, nb
			}
		}
		if next == None {
			return c
		}
		c = next
	}
}

// CellContains reports whether p lies in cell c's drawn polygon.
func (x *Index) CellContains(c int, p geom.Vec) bool {
	x.EnsureBuilt()
	if x.src.CenterLoc(c) == p {
		return true
	}
	switch {
	case x.pies != nil:
		return slicesContain(x.pies[c], p)
	case x.outlines != nil:
		return geom.InPolygon(x.outlines[c], p.X, p.Y)
	}
	return geom.InPolygon(flatten(nil, x.src.CenterOutline(c)), p.X, p.Y)
}

func clampToRect(r geom.Rect, p geom.Vec) geom.Vec {
	return geom.Vec{
		X: geom.Clamp(p.X, r.Min.X, r.Max.X),
		Y: geom.Clamp(p.Y, r.Min.Y, r.Max.Y),
	}
}

func flatten(dst []float64, pts []geom.Vec) []float64 {
	for _, p := range pts {
		dst = append(dst, p.X, p.Y)
	}
	return dst
}
