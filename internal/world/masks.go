package world

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/talgya/worldgraph/internal/raster"
)

// CellImage rasterizes every cell outline into an id image at scale pixels
// per world unit.
func (g *Graph) CellImage(scale float64) *raster.IDImage {
	img := raster.NewIDImage(g.Bounds, scale)
	for i := range g.Centers {
		img.Fill(i, g.CenterOutline(i))
	}
	return img
}

// LandMask is white over land and black over water.
func (g *Graph) LandMask(scale float64) *image.Gray {
	return g.CellImage(scale).Gray(func(c int) uint8 {
		if g.Centers[c].IsWater {
			return 0
		}
		return 255
	})
}

// ErrMaskLevels is returned when a region id has no 8-bit gray level.
var ErrMaskLevels = errors.New("region id does not fit an 8-bit mask")

// RegionMask encodes region ids as gray levels, id+1 so that black means
// no region, which limits it to ids below 255. Water takes the region of
// the closest land within a few hops and stays black otherwise.
func (g *Graph) RegionMask(scale float64) (*image.Gray, error) {
	levels := make([]uint8, len(g.Centers))
	for i := range g.Centers {
		c := i
		if g.Centers[c].IsWater {
			c = g.FindClosestLand(c, MaxHopsToSearchForLand)
		}
		if c == None || g.Centers[c].Region == None {
			continue
		}
		id := g.Centers[c].Region
		if id+1 > math.MaxUint8 {
			return nil, fmt.Errorf("region %d: %w", id, ErrMaskLevels)
		}
		levels[i] = uint8(id + 1)
	}
	return g.CellImage(scale).Gray(func(c int) uint8 { return levels[c] }), nil
}
