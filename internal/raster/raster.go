// Package raster fills polygons into pixel grids. It backs the raster
// point-location mode and the land and region masks.
package raster

import (
	"image"
	"math"

	"golang.org/x/image/vector"

	"github.com/talgya/worldgraph/internal/geom"
)

// Empty is the id of a pixel no polygon covers.
const Empty = -1

// coverageThreshold is the alpha at which a pixel counts as inside.
const coverageThreshold = 128

// IDImage maps each pixel of a world rectangle to the id of the polygon
// covering the pixel's center.
type IDImage struct {
	bounds geom.Rect
	scale  float64
	w, h   int
	ids    []int32
}

// NewIDImage creates an empty image covering bounds at scale pixels per
// world unit.
func NewIDImage(bounds geom.Rect, scale float64) *IDImage {
	if scale <= 0 {
		scale = 1
	}
	w := max(1, int(math.Ceil(bounds.Width()*scale)))
	h := max(1, int(math.Ceil(bounds.Height()*scale)))
	m := &IDImage{bounds: bounds, scale: scale, w: w, h: h, ids: make([]int32, w*h)}
	for i := range m.ids {
		m.ids[i] = Empty
	}
	return m
}

// Size is the image size in pixels.
func (m *IDImage) Size() (w, h int) {
	return m.w, m.h
}

func (m *IDImage) toPixel(p geom.Vec) (float64, float64) {
	return (p.X - m.bounds.Min.X) * m.scale, (p.Y - m.bounds.Min.Y) * m.scale
}

// Fill paints id over every pixel the polygon covers. Polygons with fewer
// than three points are ignored.
func (m *IDImage) Fill(id int, poly []geom.Vec) {
	m.FillWithin(id, poly, image.Rect(0, 0, m.w, m.h))
}

// FillWithin is Fill restricted to the pixels in clip. A pixel's coverage
// does not depend on clip, so filling a polygon in pieces matches filling
// it whole.
func (m *IDImage) FillWithin(id int, poly []geom.Vec, clip image.Rectangle) {
	if len(poly) < 3 {
		return
	}
	mask, origin := coverage(poly, m.toPixel)
	if mask == nil {
		return
	}
	r := mask.Rect.Add(origin).Intersect(clip).Intersect(image.Rect(0, 0, m.w, m.h))
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if mask.AlphaAt(x-origin.X, y-origin.Y).A >= coverageThreshold {
				m.ids[y*m.w+x] = int32(id)
			}
		}
	}
}

// PixelBounds is the pixel rectangle Fill may paint for poly, empty for
// polygons Fill ignores.
func (m *IDImage) PixelBounds(poly []geom.Vec) image.Rectangle {
	if len(poly) < 3 {
		return image.Rectangle{}
	}
	b := geom.BoundsOf(poly)
	x0, y0 := m.toPixel(b.Min)
	x1, y1 := m.toPixel(b.Max)
	return image.Rect(int(math.Floor(x0)), int(math.Floor(y0)), int(math.Ceil(x1))+1, int(math.Ceil(y1))+1).
		Intersect(image.Rect(0, 0, m.w, m.h))
}

// Reset empties every pixel in r.
func (m *IDImage) Reset(r image.Rectangle) {
	r = r.Intersect(image.Rect(0, 0, m.w, m.h))
	for y := r.Min.Y; y < r.Max.Y; y++ {
		row := m.ids[y*m.w+r.Min.X : y*m.w+r.Max.X]
		for i := range row {
			row[i] = Empty
		}
	}
}

// At returns the id under p, or Empty outside the image.
func (m *IDImage) At(p geom.Vec) int {
	fx, fy := m.toPixel(p)
	x, y := int(math.Floor(fx)), int(math.Floor(fy))
	if x < 0 || y < 0 || x >= m.w || y >= m.h {
		return Empty
	}
	return int(m.ids[y*m.w+x])
}

// Gray renders the image through value; Empty pixels stay black.
func (m *IDImage) Gray(value func(id int) uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, m.w, m.h))
	for i, id := range m.ids {
		if id == Empty {
			continue
		}
		img.Pix[(i/m.w)*img.Stride+i%m.w] = value(int(id))
	}
	return img
}

// coverage rasterizes poly into an alpha mask over its pixel bounding box
// and returns the mask with the box origin.
func coverage(poly []geom.Vec, toPixel func(geom.Vec) (float64, float64)) (*image.Alpha, image.Point) {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	pts := make([][2]float64, len(poly))
	for i, p := range poly {
		x, y := toPixel(p)
		pts[i] = [2]float64{x, y}
		minX, minY = math.Min(minX, x), math.Min(minY, y)
		maxX, maxY = math.Max(maxX, x), math.Max(maxY, y)
	}
	origin := image.Pt(int(math.Floor(minX)), int(math.Floor(minY)))
	w := int(math.Ceil(maxX)) - origin.X + 1
	h := int(math.Ceil(maxY)) - origin.Y + 1
	if w <= 0 || h <= 0 {
		return nil, origin
	}

	z := vector.NewRasterizer(w, h)
	ox, oy := float64(origin.X), float64(origin.Y)
	z.MoveTo(float32(pts[0][0]-ox), float32(pts[0][1]-oy))
	for _, p := range pts[1:] {
		z.LineTo(float32(p[0]-ox), float32(p[1]-oy))
	}
	z.ClosePath()

	mask := image.NewAlpha(image.Rect(0, 0, w, h))
	z.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})
	return mask, origin
}
