package world

import (
	"cmp"
	"fmt"
	"iter"
	"math"
	"math/rand"
	"slices"

	"github.com/talgya/worldgraph/internal/collections"
	"github.com/talgya/worldgraph/internal/geom"
)

// PlateKind is oceanic or continental.
type PlateKind uint8

const (
	Oceanic PlateKind = iota
	Continental
)

func (k PlateKind) String() string {
	if k == Continental {
		return "continental"
	}
	return "oceanic"
}

// Velocity is a plate's drift in polar form. Magnitude is at most 1.
type Velocity struct {
	Angle     float64
	Magnitude float64
}

// Plate is a tectonic plate: a set of cells that drift together.
type Plate struct {
	ID           int
	Kind         PlateKind
	Velocity     Velocity
	GrowthWeight float64

	centers *collections.Bitset
}

// Centers yields member cells in ascending order.
func (p *Plate) Centers() iter.Seq[int] {
	return p.centers.All()
}

func (p *Plate) Len() int {
	return p.centers.Len()
}

func (p *Plate) Contains(c int) bool {
	return p.centers.Contains(c)
}

// sampleGrowthWeight draws from Beta(1,3) by inverting its CDF 1-(1-x)^3,
// giving a few fast-growing plates and many slow ones.
func sampleGrowthWeight(rng *rand.Rand) float64 {
	return 1 - math.Cbrt(1-rng.Float64())
}

// ── Free growth ──────────────────────────────────────────────────────

// growFreePlates starts every cell as its own plate and repeatedly lets a
// plate absorb a neighboring cell, favoring cells whose boundary is already
// smooth.
func (g *Graph) growFreePlates(rng *rand.Rand) {
	n := len(g.Centers)
	if n == 0 {
		return
	}

	weights := make([]float64, n)
	counts := make([]int, n)
	for i := range g.Centers {
		g.Centers[i].Plate = i
		weights[i] = sampleGrowthWeight(rng)
		counts[i] = 1
	}
	alive := n

	ratio := make([]float64, n)
	update := func(ci int) {
		same, other := 0, 0
		for _, nb := range g.Centers[ci].Neighbors {
			if g.Centers[nb].Plate == g.Centers[ci].Plate {
				same++
			} else {
				other++
			}
		}
		switch {
		case other == 0:
			ratio[ci] = 0
		case same == 0:
			ratio[ci] = math.Inf(1)
		default:
			ratio[ci] = float64(other) / float64(same)
		}
	}
	for i := range g.Centers {
		update(i)
	}

	var survivors []int
	survivorsAt := -1

	iterations := PlateIterationMultiplier * n
	for it := 0; it < iterations; it++ {
		least := None
		for k := 0; k < PlateBoundarySmoothness; k++ {
			c := rng.Intn(n)
			if ratio[c] == 0 {
				continue
			}
			if least == None || ratio[c] < ratio[least] {
				least = c
			}
		}
		if least == None {
			continue
		}

		plate := g.Centers[least].Plate
		if rng.Float64() >= weights[plate] {
			continue
		}

		var candidates []int
		for _, nb := range g.Centers[least].Neighbors {
			if g.Centers[nb].Plate != plate {
				candidates = append(candidates, nb)
			}
		}
		nb := candidates[rng.Intn(len(candidates))]
		old := g.Centers[nb].Plate

		counts[plate]++
		counts[old]--
		if counts[old] == 0 {
			alive--
		}
		g.Centers[nb].Plate = plate

		update(least)
		for _, x := range g.Centers[least].Neighbors {
			update(x)
		}
		update(nb)
		for _, x := range g.Centers[nb].Neighbors {
			update(x)
		}

		// Stopping at nine plates with one nearly gone keeps a map from
		// collapsing into a few huge plates that may all be oceanic.
		if alive == 9 {
			if survivorsAt != alive {
				survivors = survivors[:0]
				for p, count := range counts {
					if count > 0 {
						survivors = append(survivors, p)
					}
				}
				survivorsAt = alive
			}
			smallest := math.MaxInt
			for _, p := range survivors {
				smallest = min(smallest, counts[p])
			}
			if smallest <= MinNinthToLastPlateSize {
				break
			}
		}
	}

	g.compactPlates(weights)
}

// compactPlates turns the per-cell plate labels into dense Plate records,
// numbered in order of each plate's lowest cell index.
func (g *Graph) compactPlates(weights []float64) {
	remap := make(map[int]int)
	g.Plates = g.Plates[:0]
	for i := range g.Centers {
		old := g.Centers[i].Plate
		id, ok := remap[old]
		if !ok {
			id = len(g.Plates)
			remap[old] = id
			g.Plates = append(g.Plates, &Plate{
				ID:           id,
				GrowthWeight: weights[old],
				centers:      collections.NewBitset(len(g.Centers)),
			})
		}
		g.Centers[i].Plate = id
		g.Plates[id].centers.Add(i)
	}
}

// classifyPlates rolls each plate's kind, then rerolls plates touching the
// map border with their own probability.
func (g *Graph) classifyPlates(rng *rand.Rand) {
	for _, p := range g.Plates {
		if rng.Float64() > g.cfg.NonBorderPlateContinentalProbability {
			p.Kind = Oceanic
		} else {
			p.Kind = Continental
		}
	}

	border := collections.NewBitset(len(g.Plates))
	for i := range g.Centers {
		if g.Centers[i].IsBorder {
			border.Add(g.Centers[i].Plate)
		}
	}
	for id := range border.All() {
		if rng.Float64() < g.cfg.BorderPlateContinentalProbability {
			g.Plates[id].Kind = Continental
		} else {
			g.Plates[id].Kind = Oceanic
		}
	}
}

func (g *Graph) assignVelocities(rng *rand.Rand) {
	for _, p := range g.Plates {
		p.Velocity = Velocity{Angle: rng.Float64() * 2 * math.Pi, Magnitude: rng.Float64()}
	}
}

// ── Constrained growth ───────────────────────────────────────────────

type plateSeed struct {
	Center int
	Kind   PlateKind
	Weight float64
}

// seedConstrainedPlates places max(regionCount, 4) oceanic and regionCount
// continental seeds with best-candidate sampling. The land shape decides
// which seeds are continental.
func (g *Graph) seedConstrainedPlates(rng *rand.Rand, regionCount int, shape LandShape) []plateSeed {
	numOceanic := max(regionCount, 4)
	points := bestCandidateSample(rng, g.Bounds, numOceanic+regionCount, 10)

	used := collections.NewBitset(len(g.Centers))
	var centers []int
	for _, p := range points {
		c := g.nearestCenter(p, used)
		if c == None {
			break
		}
		used.Add(c)
		centers = append(centers, c)
	}

	edgeDistance := func(c int) float64 { return geom.DistanceToRectEdge(g.Bounds, g.Centers[c].Loc) }
	switch shape {
	case Continents:
		slices.SortStableFunc(centers, func(a, b int) int { return cmp.Compare(edgeDistance(b), edgeDistance(a)) })
	case InlandSea:
		slices.SortStableFunc(centers, func(a, b int) int { return cmp.Compare(edgeDistance(a), edgeDistance(b)) })
	default:
		rng.Shuffle(len(centers), func(i, j int) { centers[i], centers[j] = centers[j], centers[i] })
	}

	seeds := make([]plateSeed, len(centers))
	for i, c := range centers {
		kind := Oceanic
		if i < regionCount {
			kind = Continental
		}
		seeds[i] = plateSeed{Center: c, Kind: kind, Weight: sampleGrowthWeight(rng)}
	}
	return seeds
}

// bestCandidateSample is Mitchell's best-candidate blue noise: each point is
// the candidate farthest from every point placed so far.
func bestCandidateSample(rng *rand.Rand, bounds geom.Rect, n, candidates int) []geom.Vec {
	random := func() geom.Vec {
		return geom.Vec{
			X: bounds.Min.X + rng.Float64()*bounds.Width(),
			Y: bounds.Min.Y + rng.Float64()*bounds.Height(),
		}
	}

	points := make([]geom.Vec, 0, n)
	for len(points) < n {
		if len(points) == 0 {
			points = append(points, random())
			continue
		}
		var best geom.Vec
		bestDist := -1.0
		for k := 0; k < candidates; k++ {
			cand := random()
			nearest := math.Inf(1)
			for _, p := range points {
				nearest = min(nearest, cand.DistanceSquaredTo(p))
			}
			if nearest > bestDist {
				best, bestDist = cand, nearest
			}
		}
		points = append(points, best)
	}
	return points
}

// nearestCenter returns the cell whose location is closest to p, skipping
// cells in exclude.
func (g *Graph) nearestCenter(p geom.Vec, exclude *collections.Bitset) int {
	best := None
	bestDist := math.Inf(1)
	for i := range g.Centers {
		if exclude != nil && exclude.Contains(i) {
			continue
		}
		if d := g.Centers[i].Loc.DistanceSquaredTo(p); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

type growthEntry struct {
	cost   float64
	plate  int
	center int
}

// growPlatesFromSeeds grows one plate per seed with a multi-source Dijkstra
// expansion. Stepping into a cell costs 1/weight; continental plates pay up to
// continentEdgeCostMax times more near the map edge under the Continents shape.
func (g *Graph) growPlatesFromSeeds(seeds []plateSeed, shape LandShape) {
	g.Plates = g.Plates[:0]
	for i := range g.Centers {
		g.Centers[i].Plate = None
	}

	h := collections.MakeHeap(func(a, b growthEntry) bool {
		if a.cost != b.cost {
			return a.cost < b.cost
		}
		if a.plate != b.plate {
			return a.plate < b.plate
		}
		return a.center < b.center
	})
	for i, s := range seeds {
		g.Plates = append(g.Plates, &Plate{
			ID:           i,
			Kind:         s.Kind,
			GrowthWeight: s.Weight,
			centers:      collections.NewBitset(len(g.Centers)),
		})
		h.Push(growthEntry{cost: 0, plate: i, center: s.Center})
	}

	zone := continentEdgeZoneFraction * min(g.Bounds.Width(), g.Bounds.Height())
	stepCost := func(p *Plate, into int) float64 {
		cost := 1 / max(p.GrowthWeight, 1e-6)
		if shape == Continents && p.Kind == Continental && zone > 0 {
			d := geom.DistanceToRectEdge(g.Bounds, g.Centers[into].Loc)
			closeness := geom.Clamp(1-d/zone, 0, 1)
			cost *= 1 + (continentEdgeCostMax-1)*closeness
		}
		return cost
	}

	for !h.IsEmpty() {
		e := h.Pop()
		c := &g.Centers[e.center]
		if c.Plate != None {
			continue
		}
		c.Plate = e.plate
		p := g.Plates[e.plate]
		p.centers.Add(e.center)
		for _, nb := range c.Neighbors {
			if g.Centers[nb].Plate == None {
				h.Push(growthEntry{cost: e.cost + stepCost(p, nb), plate: e.plate, center: nb})
			}
		}
	}

	// Cells cut off from every seed join the plate of the nearest seed.
	for i := range g.Centers {
		if g.Centers[i].Plate != None || len(seeds) == 0 {
			continue
		}
		best, bestDist := 0, math.Inf(1)
		for k, s := range seeds {
			if d := g.Centers[s.Center].Loc.DistanceSquaredTo(g.Centers[i].Loc); d < bestDist {
				best, bestDist = k, d
			}
		}
		g.Centers[i].Plate = best
		g.Plates[best].centers.Add(i)
	}
}

// ── Elevation ────────────────────────────────────────────────────────

// lowerOceanPlates sets each corner's base elevation by the share of its
// cells that sit on oceanic plates.
func (g *Graph) lowerOceanPlates() {
	for i := range g.Corners {
		c := &g.Corners[i]
		if len(c.Touches) == 0 {
			continue
		}
		oceanic := 0
		for _, ci := range c.Touches {
			if g.Plates[g.Centers[ci].Plate].Kind == Oceanic {
				oceanic++
			}
		}
		r := float64(oceanic) / float64(len(c.Touches))
		c.Elevation = r*OceanPlateLevel + (1-r)*ContinentalPlateLevel
	}
}

func (g *Graph) plateCentroid(p *Plate) geom.Vec {
	var locs []geom.Vec
	for c := range p.Centers() {
		locs = append(locs, g.Centers[c].Loc)
	}
	return geom.Mean(locs)
}

// convergence is how fast two points on different plates approach each
// other, in [-1, 1].
func convergence(p1 geom.Vec, v1 Velocity, p2 geom.Vec, v2 Velocity) float64 {
	return 0.5*unilateralConvergence(p1, v1, p2) + 0.5*unilateralConvergence(p2, v2, p1)
}

// unilateralConvergence is how fast p1 moves toward p2, ignoring p2's motion.
func unilateralConvergence(p1 geom.Vec, v Velocity, p2 geom.Vec) float64 {
	toward := geom.Angle(p2.Sub(p1))
	return v.Magnitude * math.Cos(geom.AngleDiff(v.Angle, toward))
}

// collidePlates raises corners where plates converge, sinks oceanic plates
// that dive under continents, then spreads each plate's boundary elevation
// inward by neighbor averaging.
func (g *Graph) collidePlates() {
	centroids := make([]geom.Vec, len(g.Plates))
	for i, p := range g.Plates {
		centroids[i] = g.plateCentroid(p)
	}

	for _, plate := range g.Plates {
		isBoundary := func(e *Edge) bool {
			return e.D1 != None && e.V0 != None && e.V1 != None &&
				g.Centers[e.D0].Plate == plate.ID && g.Centers[e.D1].Plate != plate.ID
		}

		boundary := collections.NewBitset(len(g.Corners))
		for i := range g.Edges {
			if e := &g.Edges[i]; isBoundary(e) {
				boundary.Add(e.V0)
				boundary.Add(e.V1)
			}
		}

		explored := collections.NewBitset(len(g.Corners))
		for i := range g.Edges {
			e := &g.Edges[i]
			if !isBoundary(e) {
				continue
			}
			other := g.Plates[g.Centers[e.D1].Plate]

			level := convergence(centroids[plate.ID], plate.Velocity, centroids[other.ID], other.Velocity)
			if level > 0 {
				// Measuring at the cells themselves roughens long convergent
				// boundaries that would otherwise make snake-like islands.
				level = convergence(g.Centers[e.D0].Loc, plate.Velocity, g.Centers[e.D1].Loc, other.Velocity)
			}

			for _, v := range []int{e.V0, e.V1} {
				g.Corners[v].Elevation = geom.Clamp(g.Corners[v].Elevation+level*CollisionScale, 0, 1)
				explored.Add(v)
			}

			if level > 0 && plate.Kind == Oceanic && other.Kind == Continental {
				for _, v := range g.Centers[e.D0].Corners {
					if boundary.Contains(v) {
						continue
					}
					g.Corners[v].Elevation = geom.Clamp(g.Corners[v].Elevation-level*CollisionScale, 0, 1)
					explored.Add(v)
				}
			}
		}

		g.diffuseElevation(plate.ID, explored)
	}
}

// diffuseElevation walks outward from the explored corners, one ring at a
// time, setting each newly reached corner of the plate to the mean of itself
// and its already explored neighbors.
func (g *Graph) diffuseElevation(plate int, explored *collections.Bitset) {
	touchesPlate := func(v int) bool {
		for _, ci := range g.Corners[v].Touches {
			if g.Centers[ci].Plate == plate {
				return true
			}
		}
		return false
	}

	frontier := explored.Slice()
	for len(frontier) > 0 {
		var next []int
		for _, ex := range frontier {
			for _, v := range g.Corners[ex].Adjacent {
				if explored.Contains(v) || !touchesPlate(v) {
					continue
				}
				sum, count := g.Corners[v].Elevation, 1.0
				for _, a := range g.Corners[v].Adjacent {
					if explored.Contains(a) {
						sum += g.Corners[a].Elevation
						count++
					}
				}
				g.Corners[v].Elevation = sum / count
				explored.Add(v)
				next = append(next, v)
			}
		}
		frontier = next
	}
}

// ValidatePlates checks that every cell belongs to exactly one plate and
// that plate membership agrees with each cell's plate index.
func (g *Graph) ValidatePlates() error {
	owned := 0
	for _, p := range g.Plates {
		for c := range p.Centers() {
			if g.Centers[c].Plate != p.ID {
				return fmt.Errorf("center %d listed in plate %d but points at plate %d", c, p.ID, g.Centers[c].Plate)
			}
			owned++
		}
	}
	if owned != len(g.Centers) {
		return fmt.Errorf("plates own %d cells, graph has %d", owned, len(g.Centers))
	}
	return nil
}

// PlateCounts returns the number of oceanic and continental plates.
func (g *Graph) PlateCounts() (oceanic, continental int) {
	for _, p := range g.Plates {
		if p.Kind == Continental {
			continental++
		} else {
			oceanic++
		}
	}
	return oceanic, continental
}
