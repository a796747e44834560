package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// diagonalWorld is the 7x7 grid split by distance to cells 8 and 40, with
// the first half continental land and the rest ocean.
func diagonalWorld(t *testing.T) *Graph {
	g := gridGraph(t, 7)
	g.growPlatesFromSeeds([]plateSeed{
		{Center: 8, Kind: Continental, Weight: 1},
		{Center: 40, Kind: Oceanic, Weight: 1},
	}, Scattered)
	for i := range g.Centers {
		g.Centers[i].IsWater = g.Centers[i].Plate == 1
	}
	return g
}

func TestFormRegionsGolden(t *testing.T) {
	g := diagonalWorld(t)
	require.NoError(t, g.formRegions(0))
	require.NoError(t, g.ValidateRegions())

	require.Equal(t, 1, g.RegionCount())
	r, ok := g.Region(0)
	require.True(t, ok)
	for i := range g.Centers {
		assert.Equal(t, g.Centers[i].Plate == 0, r.Contains(i), "center %d", i)
	}
}

func TestFormRegionsExactCountOnGrid(t *testing.T) {
	for _, k := range []int{1, 2, 3, 7} {
		g := diagonalWorld(t)
		require.NoError(t, g.formRegions(k))
		require.NoError(t, g.ValidateRegions())
		assert.Equal(t, k, g.RegionCount())
		for id := 0; id < k; id++ {
			_, ok := g.Region(id)
			assert.True(t, ok, "region ids are dense")
		}
	}
}

func TestFormRegionsRejectsImpossibleCount(t *testing.T) {
	g := diagonalWorld(t)
	err := g.formRegions(100)
	assert.ErrorIs(t, err, ErrTooManyRegions)
}

func TestFormRegionsWithoutLand(t *testing.T) {
	g := gridGraph(t, 5)
	assignPlates(g, []PlateKind{Oceanic}, func(int) int { return 0 })
	assert.ErrorIs(t, g.formRegions(2), ErrNoLand)
	require.NoError(t, g.formRegions(0))
	assert.Zero(t, g.RegionCount())
}

func TestSingleCellIslandJoinsNearestRegion(t *testing.T) {
	const island = 27 // column 6, row 3
	g := gridGraph(t, 7)
	assignPlates(g, []PlateKind{Continental, Oceanic, Continental}, func(c int) int {
		switch {
		case c == island:
			return 2
		case c%7 <= 2:
			return 0
		}
		return 1
	})

	require.NoError(t, g.formRegions(0))
	require.NoError(t, g.ValidateRegions())
	assert.Equal(t, 1, g.RegionCount())
	assert.Equal(t, g.Centers[0].Region, g.Centers[island].Region)
}

func TestDetachedPieceMovesToTouchingRegion(t *testing.T) {
	// Plate 0 owns columns 0-2 plus cell 6 in the far corner, which only
	// touches plate 2's land.
	g := gridGraph(t, 7)
	assignPlates(g, []PlateKind{Continental, Oceanic, Continental}, func(c int) int {
		x := c % 7
		switch {
		case c == 6 || x <= 2:
			return 0
		case x >= 5:
			return 2
		}
		return 1
	})

	require.NoError(t, g.formRegions(0))
	require.NoError(t, g.ValidateRegions())
	require.Equal(t, 2, g.RegionCount())
	assert.Equal(t, g.Centers[13].Region, g.Centers[6].Region)
	assert.NotEqual(t, g.Centers[0].Region, g.Centers[6].Region)
}

func TestGeneratedRegionsPartitionLand(t *testing.T) {
	for _, regions := range []int{0, 5} {
		g := smallWorld(t, regions)
		require.NoError(t, g.ValidateRegions())

		seen := make(map[int]int)
		for _, r := range g.Regions() {
			for c := range r.Centers() {
				seen[c]++
			}
		}
		for i, c := range g.Centers {
			if c.IsWater {
				assert.Zero(t, seen[i], "water center %d in a region", i)
				continue
			}
			assert.Equal(t, 1, seen[i], "land center %d", i)
		}
	}
}

func TestGeneratedExactRegionCount(t *testing.T) {
	for _, k := range []int{3, 5, 9} {
		g := smallWorld(t, k)
		assert.Equal(t, k, g.RegionCount())
	}
}

func TestRegionColorsAreDistinct(t *testing.T) {
	seen := make(map[[3]uint8]bool)
	for id := 0; id < 12; id++ {
		c := regionColor(id)
		key := [3]uint8{c.R, c.G, c.B}
		assert.False(t, seen[key], "id %d", id)
		seen[key] = true
		assert.Equal(t, uint8(255), c.A)
	}
}
