package world

import (
	"math/rand"
	"sort"

	"github.com/talgya/worldgraph/internal/collections"
)

// createRivers starts rivers at random corners and runs each downhill to
// the sea.
func (g *Graph) createRivers(rng *rand.Rand) {
	if len(g.Corners) == 0 {
		return
	}
	sources := int(float64(len(g.Corners))*g.cfg.RiverDensity + 0.999999)
	for i := 0; i < sources; i++ {
		g.flowRiver(rng.Intn(len(g.Corners)))
	}
}

// flowRiver follows the steepest descent from start. When the walk reaches
// the ocean or coast every corner and edge on the path gains one river level;
// a walk that loops back on itself or dead-ends leaves nothing behind.
// Corners that are not lower than their predecessor are lowered just enough
// to keep the river running downhill.
func (g *Graph) flowRiver(start int) {
	path := []int{start}
	onPath := collections.BitsetOf(start)
	cur := start
	for {
		c := &g.Corners[cur]
		if c.IsOcean || c.IsCoast {
			break
		}
		if c.downslope == None {
			for _, a := range c.Adjacent {
				if a != cur && (c.downslope == None || g.Corners[a].Elevation < g.Corners[c.downslope].Elevation) {
					c.downslope = a
				}
			}
		}
		next := c.downslope
		if next == None || onPath.Contains(next) {
			return
		}
		if g.Corners[next].Elevation >= c.Elevation {
			g.Corners[next].Elevation = c.Elevation * 0.9999
		}
		path = append(path, next)
		onPath.Add(next)
		cur = next
	}

	for i := 0; i+1 < len(path); i++ {
		g.Corners[path[i]].River++
		if e := g.EdgeBetween(path[i], path[i+1]); e != None {
			g.Edges[e].River++
		}
	}
}

// assignMoisture spreads fresh water moisture outward from lakes and rivers,
// saturates salt water, then spreads land moisture evenly over [0, 1).
func (g *Graph) assignMoisture() {
	var queue []int
	for i := range g.Corners {
		c := &g.Corners[i]
		if (c.IsWater || c.River > MaxRiverLevelNotDrawn) && !c.IsOcean {
			if c.River > MaxRiverLevelNotDrawn {
				c.Moisture = min(3.0, 0.05*float64(c.River))
			} else {
				c.Moisture = 1
			}
			queue = append(queue, i)
		} else {
			c.Moisture = 0
		}
	}
	for len(queue) > 0 {
		ci := queue[0]
		queue = queue[1:]
		m := 0.9 * g.Corners[ci].Moisture
		for _, a := range g.Corners[ci].Adjacent {
			if m > g.Corners[a].Moisture {
				g.Corners[a].Moisture = m
				queue = append(queue, a)
			}
		}
	}

	var land []int
	for i := range g.Corners {
		c := &g.Corners[i]
		if c.IsOcean || c.IsCoast {
			c.Moisture = 1
		} else {
			land = append(land, i)
		}
	}
	sort.SliceStable(land, func(a, b int) bool {
		return g.Corners[land[a]].Moisture < g.Corners[land[b]].Moisture
	})
	for rank, ci := range land {
		g.Corners[ci].Moisture = float64(rank) / float64(len(land))
	}

	for i := range g.Centers {
		c := &g.Centers[i]
		if len(c.Corners) == 0 {
			continue
		}
		total := 0.0
		for _, v := range c.Corners {
			total += g.Corners[v].Moisture
		}
		c.Moisture = total / float64(len(c.Corners))
	}
}

func (g *Graph) assignBiomes() {
	for i := range g.Centers {
		g.Centers[i].Biome = g.biomeOf(i)
	}
}
