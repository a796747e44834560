package world

import (
	"fmt"
	"image/color"
	"iter"
	"log/slog"
	"math"
	"slices"

	"github.com/talgya/worldgraph/internal/collections"
	"github.com/talgya/worldgraph/internal/geom"
)

// Region is a political area: a set of land cells under one id.
type Region struct {
	ID    int
	Color color.NRGBA

	centers *collections.Bitset
}

// Centers yields member cells in ascending order.
func (r *Region) Centers() iter.Seq[int] {
	return r.centers.All()
}

func (r *Region) Len() int {
	return r.centers.Len()
}

func (r *Region) Contains(c int) bool {
	return r.centers.Contains(c)
}

// Region returns the region with the given id.
func (g *Graph) Region(id int) (*Region, bool) {
	r, ok := g.regions[id]
	return r, ok
}

// Regions returns all regions ordered by id.
func (g *Graph) Regions() []*Region {
	out := make([]*Region, 0, len(g.regions))
	for _, r := range g.regions {
		out = append(out, r)
	}
	slices.SortFunc(out, func(a, b *Region) int { return a.ID - b.ID })
	return out
}

func (g *Graph) RegionCount() int {
	return len(g.regions)
}

func (g *Graph) newRegion() *Region {
	r := &Region{ID: g.nextRegionID, centers: collections.NewBitset(len(g.Centers))}
	g.nextRegionID++
	g.regions[r.ID] = r
	return r
}

// setRegion moves a cell into r, or out of any region when r is nil, keeping
// the cell's back reference in step.
func (g *Graph) setRegion(ci int, r *Region) {
	c := &g.Centers[ci]
	if c.Region != None {
		if old, ok := g.regions[c.Region]; ok {
			old.centers.Remove(ci)
		}
	}
	if r == nil {
		c.Region = None
		return
	}
	c.Region = r.ID
	r.centers.Add(ci)
}

// deleteRegion drops r and detaches its cells.
func (g *Graph) deleteRegion(r *Region) {
	for _, c := range r.centers.Slice() {
		g.Centers[c].Region = None
	}
	r.centers.Clear()
	delete(g.regions, r.ID)
}

func (g *Graph) moveAll(cells []int, r *Region) {
	for _, c := range cells {
		g.setRegion(c, r)
	}
}

func (g *Graph) centroidOf(cells iter.Seq[int]) geom.Vec {
	var locs []geom.Vec
	for c := range cells {
		locs = append(locs, g.Centers[c].Loc)
	}
	return geom.Mean(locs)
}

// ── Forming ──────────────────────────────────────────────────────────

// formRegions builds one region per continental plate from its land, keeps
// each region's largest connected piece, folds small pieces and stray land
// into nearby regions and, when target > 0, merges or splits regions until
// exactly target remain. Region ids end up dense.
func (g *Graph) formRegions(target int) error {
	for _, r := range g.Regions() {
		g.deleteRegion(r)
	}
	g.nextRegionID = 0

	var regionList []*Region
	for _, p := range g.Plates {
		if p.Kind != Continental {
			continue
		}
		r := g.newRegion()
		for c := range p.Centers() {
			if !g.Centers[c].IsWater {
				g.setRegion(c, r)
			}
		}
		regionList = append(regionList, r)
	}

	for _, r := range regionList {
		parts := g.landComponents(r)
		if len(parts) < 2 {
			continue
		}
		biggest := 0
		for i, part := range parts {
			if len(part) > len(parts[biggest]) {
				biggest = i
			}
		}
		for i, part := range parts {
			if i == biggest {
				continue
			}
			if touching := g.regionTouching(part, r.ID); touching != nil {
				g.moveAll(part, touching)
			} else {
				g.moveAll(part, nil)
			}
		}
	}

	var orphans [][]int
	gathered := collections.NewBitset(len(g.Centers))
	for i := range g.Centers {
		c := &g.Centers[i]
		if c.IsWater || c.Region != None || gathered.Contains(i) {
			continue
		}
		mass := g.BreadthFirstSearch(i, func(x int) bool {
			return !g.Centers[x].IsWater && g.Centers[x].Region == None
		})
		gathered.AddAll(mass)
		orphans = append(orphans, mass.Slice())
	}

	for _, r := range regionList {
		if r.Len() < MinPoliticalRegionSize {
			orphans = append(orphans, r.centers.Slice())
			g.deleteRegion(r)
		}
	}

	for _, mass := range orphans {
		centroid := g.centroidOf(slices.Values(mass))
		if nearest := g.nearestRegionCenter(centroid, None); nearest != None {
			g.moveAll(mass, g.regions[g.Centers[nearest].Region])
			continue
		}
		g.moveAll(mass, g.newRegion())
	}

	if target > 0 {
		if err := g.rebalanceRegions(target); err != nil {
			return err
		}
	}

	g.renumberRegions()
	return nil
}

// landComponents splits a region into pieces connected through its own cells.
func (g *Graph) landComponents(r *Region) [][]int {
	seen := collections.NewBitset(len(g.Centers))
	var parts [][]int
	for c := range r.Centers() {
		if seen.Contains(c) {
			continue
		}
		part := g.BreadthFirstSearch(c, func(x int) bool {
			return !g.Centers[x].IsWater && r.Contains(x)
		})
		seen.AddAll(part)
		parts = append(parts, part.Slice())
	}
	return parts
}

// regionTouching returns a region other than exclude that borders the given
// land by land, or nil.
func (g *Graph) regionTouching(cells []int, exclude int) *Region {
	for _, c := range cells {
		for _, nb := range g.Centers[c].Neighbors {
			id := g.Centers[nb].Region
			if id == None || id == exclude || g.Centers[nb].IsWater {
				continue
			}
			if r, ok := g.regions[id]; ok {
				return r
			}
		}
	}
	return nil
}

// rebalanceRegions merges the smallest or bisects the largest region until
// exactly target regions exist.
func (g *Graph) rebalanceRegions(target int) error {
	land := g.LandCount()
	if land == 0 {
		return fmt.Errorf("want %d regions: %w", target, ErrNoLand)
	}
	if land < target {
		return fmt.Errorf("want %d regions, have %d land cells: %w", target, land, ErrTooManyRegions)
	}

	for len(g.regions) > target {
		g.mergeSmallestRegion()
	}
	for len(g.regions) < target {
		if !g.bisectLargestRegion() {
			return fmt.Errorf("want %d regions, stuck at %d: %w", target, len(g.regions), ErrTooManyRegions)
		}
	}
	return nil
}

func (g *Graph) mergeSmallestRegion() {
	var smallest *Region
	for _, r := range g.Regions() {
		if smallest == nil || r.Len() < smallest.Len() {
			smallest = r
		}
	}

	var into *Region
	for c := range smallest.Centers() {
		for _, nb := range g.Centers[c].Neighbors {
			id := g.Centers[nb].Region
			if id == None || id == smallest.ID {
				continue
			}
			r := g.regions[id]
			if into == nil || r.Len() < into.Len() || (r.Len() == into.Len() && r.ID < into.ID) {
				into = r
			}
		}
	}
	if into == nil {
		centroid := g.centroidOf(smallest.Centers())
		best := math.Inf(1)
		for _, r := range g.Regions() {
			if r == smallest || r.Len() == 0 {
				continue
			}
			if d := g.centroidOf(r.Centers()).DistanceSquaredTo(centroid); d < best {
				into, best = r, d
			}
		}
	}
	if into == nil {
		return
	}

	slog.Debug("merging region", "from", smallest.ID, "size", smallest.Len(), "into", into.ID)
	g.moveAll(smallest.centers.Slice(), into)
	g.deleteRegion(smallest)
}

// bisectLargestRegion splits the largest region in two by growing two
// frontiers from its mutually farthest cells. It reports false when no
// region has two cells to split.
func (g *Graph) bisectLargestRegion() bool {
	var largest *Region
	for _, r := range g.Regions() {
		if largest == nil || r.Len() > largest.Len() {
			largest = r
		}
	}
	if largest == nil || largest.Len() < 2 {
		return false
	}

	cells := largest.centers.Slice()
	farthestFrom := func(from int) int {
		best, bestDist := None, -1.0
		for _, c := range cells {
			if c == from {
				continue
			}
			if d := g.Centers[c].Loc.DistanceSquaredTo(g.Centers[from].Loc); d > bestDist {
				best, bestDist = c, d
			}
		}
		return best
	}
	poleA := farthestFrom(cells[0])
	poleB := farthestFrom(poleA)

	owner := make(map[int]int, len(cells))
	owner[poleA], owner[poleB] = 0, 1
	frontiers := [2][]int{{poleA}, {poleB}}
	for len(frontiers[0]) > 0 || len(frontiers[1]) > 0 {
		for side := range frontiers {
			var next []int
			for _, c := range frontiers[side] {
				for _, nb := range g.Centers[c].Neighbors {
					if _, taken := owner[nb]; taken || !largest.Contains(nb) {
						continue
					}
					owner[nb] = side
					next = append(next, nb)
				}
			}
			frontiers[side] = next
		}
	}

	halves := [2][]int{}
	for _, c := range cells {
		side, ok := owner[c]
		if !ok {
			// Unreachable pieces go to the nearer pole.
			side = 0
			loc := g.Centers[c].Loc
			if loc.DistanceSquaredTo(g.Centers[poleB].Loc) < loc.DistanceSquaredTo(g.Centers[poleA].Loc) {
				side = 1
			}
		}
		halves[side] = append(halves[side], c)
	}

	slog.Debug("bisecting region", "id", largest.ID, "halves", []int{len(halves[0]), len(halves[1])})
	g.deleteRegion(largest)
	g.moveAll(halves[0], g.newRegion())
	g.moveAll(halves[1], g.newRegion())
	return true
}

// renumberRegions makes region ids dense, preserving their order.
func (g *Graph) renumberRegions() {
	ordered := g.Regions()
	g.regions = make(map[int]*Region, len(ordered))
	for id, r := range ordered {
		r.ID = id
		if r.Color == (color.NRGBA{}) {
			r.Color = regionColor(id)
		}
		g.regions[id] = r
		for c := range r.Centers() {
			g.Centers[c].Region = id
		}
	}
	g.nextRegionID = len(ordered)
}

// regionColor spreads hues around the wheel by the golden angle so
// neighboring ids rarely look alike.
func regionColor(id int) color.NRGBA {
	h := math.Mod(float64(id)*137.508, 360) / 60
	const s, v = 0.55, 0.85
	c := v * s
	x := c * (1 - math.Abs(math.Mod(h, 2)-1))
	var r, g, b float64
	switch int(h) {
	case 0:
		r, g = c, x
	case 1:
		r, g = x, c
	case 2:
		g, b = c, x
	case 3:
		g, b = x, c
	case 4:
		r, b = x, c
	default:
		r, b = c, x
	}
	m := v - c
	return color.NRGBA{R: uint8((r + m) * 255), G: uint8((g + m) * 255), B: uint8((b + m) * 255), A: 255}
}

// ValidateRegions checks that every land cell is in exactly one region,
// that water cells are in none and that back references agree.
func (g *Graph) ValidateRegions() error {
	owned := 0
	for id, r := range g.regions {
		if r.ID != id {
			return fmt.Errorf("region keyed %d has id %d", id, r.ID)
		}
		for c := range r.Centers() {
			if g.Centers[c].Region != id {
				return fmt.Errorf("center %d listed in region %d but points at %d", c, id, g.Centers[c].Region)
			}
			if g.Centers[c].IsWater {
				return fmt.Errorf("water center %d in region %d", c, id)
			}
			owned++
		}
	}
	for i := range g.Centers {
		c := &g.Centers[i]
		if c.IsWater && c.Region != None {
			return fmt.Errorf("water center %d has region %d", i, c.Region)
		}
		if !c.IsWater && c.Region == None {
			return fmt.Errorf("land center %d has no region", i)
		}
	}
	if land := g.LandCount(); owned != land {
		return fmt.Errorf("regions own %d cells, %d are land", owned, land)
	}
	return nil
}
