// Package geom holds planar helpers over gmath vectors: orientation tests,
// point-in-polygon, interpolation and curve sampling.
package geom

import (
	"math"

	"github.com/quasilyte/gmath"
	"golang.org/x/exp/constraints"
)

type Vec = gmath.Vec
type Rect = gmath.Rect

// Cross3 is the z component of OA x OB. Positive when o, a, b turn counter-clockwise.
func Cross3(o, a, b Vec) float64 {
	return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
}

func Clamp[T constraints.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func Lerp[T constraints.Float](a, b, t T) T {
	return a + (b-a)*t
}

// LerpVec returns a + (b-a)*t.
func LerpVec(a, b Vec, t float64) Vec {
	return Vec{X: Lerp(a.X, b.X, t), Y: Lerp(a.Y, b.Y, t)}
}

func Midpoint(a, b Vec) Vec {
	return LerpVec(a, b, 0.5)
}

// Mean averages points. An empty input yields the zero vector.
func Mean(points []Vec) Vec {
	if len(points) == 0 {
		return Vec{}
	}
	var sum Vec
	for _, p := range points {
		sum = sum.Add(p)
	}
	n := float64(len(points))
	return Vec{X: sum.X / n, Y: sum.Y / n}
}

// Angle is the direction of v in [0, 2π).
func Angle(v Vec) float64 {
	a := math.Atan2(v.Y, v.X)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a
}

// AngleDiff is the unsigned difference of two directions, in [0, π].
func AngleDiff(a, b float64) float64 {
	d := math.Mod(math.Abs(a-b), 2*math.Pi)
	if d > math.Pi {
		d = 2*math.Pi - d
	}
	return d
}

// BoundsOf returns the smallest rect holding every point.
func BoundsOf(points []Vec) Rect {
	if len(points) == 0 {
		return Rect{}
	}
	r := Rect{Min: points[0], Max: points[0]}
	for _, p := range points[1:] {
		r = Extend(r, p)
	}
	return r
}

// Extend grows r to include p.
func Extend(r Rect, p Vec) Rect {
	r.Min.X = min(r.Min.X, p.X)
	r.Min.Y = min(r.Min.Y, p.Y)
	r.Max.X = max(r.Max.X, p.X)
	r.Max.Y = max(r.Max.Y, p.Y)
	return r
}

// Overlaps reports whether two rects share any area or edge.
func Overlaps(a, b Rect) bool {
	return a.Min.X <= b.Max.X && b.Min.X <= a.Max.X && a.Min.Y <= b.Max.Y && b.Min.Y <= a.Max.Y
}

// InRect reports whether p lies in r, edges included.
func InRect(r Rect, p Vec) bool {
	return p.X >= r.Min.X && p.X <= r.Max.X && p.Y >= r.Min.Y && p.Y <= r.Max.Y
}

// DistanceToRectEdge is the distance from p to the nearest side of r, zero outside.
func DistanceToRectEdge(r Rect, p Vec) float64 {
	d := min(p.X-r.Min.X, r.Max.X-p.X, p.Y-r.Min.Y, r.Max.Y-p.Y)
	return max(d, 0)
}

// InPolygon tests p against a closed polygon given as flat x,y pairs using
// the even-odd rule. Fewer than three vertices never contain anything.
func InPolygon(coords []float64, x, y float64) bool {
	n := len(coords) / 2
	if n < 3 {
		return false
	}
	inside := false
	j := n - 1
	for i := 0; i < n; i++ {
		xi, yi := coords[2*i], coords[2*i+1]
		xj, yj := coords[2*j], coords[2*j+1]
		if (yi > y) != (yj > y) && x < (xj-xi)*(y-yi)/(yj-yi)+xi {
			inside = !inside
		}
		j = i
	}
	return inside
}
