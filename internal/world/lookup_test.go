package world

import (
	"math/rand"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/worldgraph/internal/geom"
	"github.com/talgya/worldgraph/internal/lookup"
)

func randomPoints(g *Graph, n int, seed int64) []geom.Vec {
	rng := rand.New(rand.NewSource(seed))
	pts := make([]geom.Vec, n)
	for i := range pts {
		pts[i] = geom.Vec{
			X: g.Bounds.Min.X + rng.Float64()*g.Bounds.Width(),
			Y: g.Bounds.Min.Y + rng.Float64()*g.Bounds.Height(),
		}
	}
	return pts
}

// outlineOracle answers containment by brute force over every cell's drawn
// outline, independently of the lookup index.
type outlineOracle struct {
	coords [][]float64
	boxes  []geom.Rect
}

func newOutlineOracle(g *Graph) *outlineOracle {
	o := &outlineOracle{
		coords: make([][]float64, len(g.Centers)),
		boxes:  make([]geom.Rect, len(g.Centers)),
	}
	for i := range g.Centers {
		outline := g.CenterOutline(i)
		for _, p := range outline {
			o.coords[i] = append(o.coords[i], p.X, p.Y)
		}
		o.boxes[i] = geom.BoundsOf(outline)
	}
	return o
}

// claimants lists every cell whose outline holds p.
func (o *outlineOracle) claimants(p geom.Vec) []int {
	var out []int
	for c, coords := range o.coords {
		if geom.InRect(o.boxes[c], p) && geom.InPolygon(coords, p.X, p.Y) {
			out = append(out, c)
		}
	}
	return out
}

// checkFind compares FindCenter with the oracle over random points and
// every cell location, and returns the wrong answers and the random points
// no outline claims.
func checkFind(t *testing.T, g *Graph, n int) (wrong, unclaimed int) {
	t.Helper()
	oracle := newOutlineOracle(g)
	for _, p := range randomPoints(g, n, 5) {
		want := oracle.claimants(p)
		if len(want) == 0 {
			unclaimed++
			continue
		}
		if !slices.Contains(want, g.FindCenter(p)) {
			wrong++
		}
	}
	for i, c := range g.Centers {
		want := append(oracle.claimants(c.Loc), i)
		if !slices.Contains(want, g.FindCenter(c.Loc)) {
			wrong++
		}
	}
	return wrong, unclaimed
}

func TestFindMatchesOutlines(t *testing.T) {
	g := jaggedWorld(t)
	require.Equal(t, lookup.PieSlices, g.Index().Mode())

	wrong, unclaimed := checkFind(t, g, 3000)
	assert.Zero(t, wrong)
	assert.Zero(t, unclaimed, "jagged outlines tile the map")
}

func TestFindMatchesOutlinesOnSmoothedWorld(t *testing.T) {
	g := smallWorld(t, 4)
	require.Equal(t, SplinesWithSmoothedCoastlines, g.Config().LineStyle)

	wrong, unclaimed := checkFind(t, g, 3000)
	assert.Zero(t, wrong)
	assert.LessOrEqual(t, unclaimed, 30, "curves may leave slivers where they cross straight edges")
}

func TestRasterLookupMatchesOutlines(t *testing.T) {
	cfg := SmallTestConfig()
	cfg.RegionCount = 4
	cfg.LineStyle = Jagged
	cfg.LookupMode = lookup.Raster
	g, err := Generate(cfg)
	require.NoError(t, err)

	wrong, _ := checkFind(t, g, 3000)
	assert.LessOrEqual(t, wrong, 15)
}

func TestNearestWalkFindsCenters(t *testing.T) {
	cfg := SmallTestConfig()
	cfg.RegionCount = 4
	cfg.LineStyle = Jagged
	cfg.LookupMode = lookup.NearestWalk
	g, err := Generate(cfg)
	require.NoError(t, err)

	misses := 0
	for i, c := range g.Centers {
		if g.FindCenter(c.Loc) != i {
			misses++
		}
	}
	assert.LessOrEqual(t, misses, len(g.Centers)/100)
}

func TestFindOnMapRejectsOutsidePoints(t *testing.T) {
	g := jaggedWorld(t)
	_, ok := g.Index().FindOnMap(geom.Vec{X: -5, Y: 10})
	assert.False(t, ok)
	c, ok := g.Index().FindOnMap(g.Centers[0].Loc)
	assert.True(t, ok)
	assert.NotEqual(t, None, c)
	assert.NotEqual(t, None, g.FindCenter(geom.Vec{X: 1e6, Y: -1e6}))
}
