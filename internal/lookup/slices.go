package lookup

import "github.com/talgya/worldgraph/internal/geom"

// slice is the wedge of a cell between its center and one bordering edge's
// drawn path.
type slice struct {
	bounds geom.Rect
	coords []float64 // center followed by the edge path
}

func buildSlices(src Source, c int) []slice {
	center := src.CenterLoc(c)
	var out []slice
	for _, e := range src.CenterBorders(c) {
		path := src.EdgePath(e)
		if len(path) < 2 {
			continue
		}
		coords := make([]float64, 0, 2*(len(path)+1))
		coords = append(coords, center.X, center.Y)
		coords = flatten(coords, path)
		bounds := geom.Extend(geom.BoundsOf(path), center)
		out = append(out, slice{bounds: bounds, coords: coords})
	}
	return out
}

func (s *slice) contains(p geom.Vec) bool {
	return geom.InRect(s.bounds, p) && geom.InPolygon(s.coords, p.X, p.Y)
}

// slicesContain reports whether p is inside the cell the slices fan out.
// Consecutive slices share the spoke from the center to their common
// corner, so spoke crossings cancel in pairs and the parity over all slices
// equals the even-odd test against the cell outline. This holds even where
// a noisy path folds back past the center's line of sight, which a single
// wedge cannot represent.
func slicesContain(slices []slice, p geom.Vec) bool {
	inside := false
	for i := range slices {
		if slices[i].contains(p) {
			inside = !inside
		}
	}
	return inside
}
