package geom

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInPolygon(t *testing.T) {
	square := []float64{0, 0, 10, 0, 10, 10, 0, 10}

	tests := []struct {
		name string
		x, y float64
		want bool
	}{
		{"center", 5, 5, true},
		{"outside right", 11, 5, false},
		{"outside below", 5, -1, false},
		{"near corner", 0.1, 9.9, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InPolygon(square, tt.x, tt.y))
		})
	}

	assert.False(t, InPolygon([]float64{0, 0, 1, 1}, 0.5, 0.5), "degenerate polygon")
}

func TestAngleDiff(t *testing.T) {
	assert.InDelta(t, 0, AngleDiff(0, 2*math.Pi), 1e-9)
	assert.InDelta(t, math.Pi/2, AngleDiff(0.25, 0.25+math.Pi/2), 1e-9)
	assert.InDelta(t, math.Pi/2, AngleDiff(0.1, 2*math.Pi-math.Pi/2+0.1), 1e-9)
	assert.InDelta(t, math.Pi, AngleDiff(0, math.Pi), 1e-9)
}

func TestCross3Orientation(t *testing.T) {
	o := Vec{}
	assert.Greater(t, Cross3(o, Vec{X: 1}, Vec{Y: 1}), 0.0)
	assert.Less(t, Cross3(o, Vec{Y: 1}, Vec{X: 1}), 0.0)
}

func TestCatmullRomEndpoints(t *testing.T) {
	p0, p1, p2, p3 := Vec{X: -1}, Vec{X: 0}, Vec{X: 1}, Vec{X: 2}
	pts := CatmullRom(p0, p1, p2, p3, 8)
	assert.Len(t, pts, 9)
	assert.Equal(t, p1, pts[0])
	assert.Equal(t, p2, pts[len(pts)-1])
	for _, p := range pts {
		assert.InDelta(t, 0, p.Y, 1e-9)
		assert.True(t, p.X >= 0 && p.X <= 1)
	}
}

func TestMeanAndBounds(t *testing.T) {
	pts := []Vec{{X: 0, Y: 0}, {X: 4, Y: 2}, {X: 2, Y: 4}}
	assert.Equal(t, Vec{X: 2, Y: 2}, Mean(pts))
	assert.Equal(t, Vec{}, Mean(nil))

	r := BoundsOf(pts)
	assert.Equal(t, Vec{X: 0, Y: 0}, r.Min)
	assert.Equal(t, Vec{X: 4, Y: 4}, r.Max)
	assert.InDelta(t, 1.0, DistanceToRectEdge(r, Vec{X: 1, Y: 2}), 1e-9)
	assert.Equal(t, 0.0, DistanceToRectEdge(r, Vec{X: 9, Y: 2}))
}
