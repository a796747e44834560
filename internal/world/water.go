package world

import "github.com/talgya/worldgraph/internal/collections"

// assignCenterElevations averages corner elevations onto cells and marks
// cells below sea level as water.
func (g *Graph) assignCenterElevations() {
	g.maxElevation = 0
	for i := range g.Centers {
		c := &g.Centers[i]
		if len(c.Corners) == 0 {
			c.IsWater = true
			continue
		}
		total := 0.0
		for _, v := range c.Corners {
			total += g.Corners[v].Elevation
		}
		c.Elevation = total / float64(len(c.Corners))
		g.maxElevation = max(g.maxElevation, c.Elevation)
		c.IsWater = c.Elevation < SeaLevel
	}
}

// markLakes flags small enclosed bodies of water. Water touching the map
// border is never a lake since it may continue past the edge.
func (g *Graph) markLakes() [][]int {
	explored := collections.NewBitset(len(g.Centers))
	var lakes [][]int
	for i := range g.Centers {
		if !g.Centers[i].IsWater || explored.Contains(i) {
			continue
		}
		body := g.BreadthFirstSearch(i, func(c int) bool { return g.Centers[c].IsWater })
		explored.AddAll(body)

		if body.Len() > MaxLakeSize {
			continue
		}
		touchesBorder := false
		for c := range body.All() {
			if g.Centers[c].IsBorder {
				touchesBorder = true
				break
			}
		}
		if touchesBorder {
			continue
		}
		lake := body.Slice()
		for _, c := range lake {
			g.Centers[c].IsLake = true
		}
		lakes = append(lakes, lake)
	}
	return lakes
}

// updateCenterFlags recomputes a cell's coast flag and biome.
func (g *Graph) updateCenterFlags(ci int) {
	c := &g.Centers[ci]
	water, land := 0, 0
	for _, nb := range c.Neighbors {
		if g.Centers[nb].IsWater {
			water++
		} else {
			land++
		}
	}
	c.IsCoast = water > 0 && land > 0
	c.Biome = g.biomeOf(ci)
}

// updateCornerFlags derives ocean, coast and water from the touching cells.
func (g *Graph) updateCornerFlags(vi int) {
	v := &g.Corners[vi]
	ocean, land := 0, 0
	for _, ci := range v.Touches {
		c := &g.Centers[ci]
		if c.IsWater && !c.IsLake {
			ocean++
		}
		if !c.IsWater {
			land++
		}
	}
	n := len(v.Touches)
	v.IsOcean = n > 0 && ocean == n
	v.IsCoast = ocean > 0 && land > 0
	v.IsWater = land != n && !v.IsCoast
}

func (g *Graph) updateAllFlags() {
	for i := range g.Centers {
		g.updateCenterFlags(i)
	}
	for i := range g.Corners {
		g.updateCornerFlags(i)
	}
}

// updateFlagsAround refreshes flags for the given cells, their neighbors
// and all of their corners.
func (g *Graph) updateFlagsAround(centers *collections.Bitset) {
	cells := centers.Clone()
	for c := range centers.All() {
		for _, nb := range g.Centers[c].Neighbors {
			cells.Add(nb)
		}
	}
	corners := collections.NewBitset(len(g.Corners))
	for c := range cells.All() {
		g.updateCenterFlags(c)
		for _, v := range g.Centers[c].Corners {
			corners.Add(v)
		}
	}
	for v := range corners.All() {
		g.updateCornerFlags(v)
	}
}

// LandCount is the number of non-water cells.
func (g *Graph) LandCount() int {
	n := 0
	for i := range g.Centers {
		if !g.Centers[i].IsWater {
			n++
		}
	}
	return n
}
