package world

import (
	"math"

	"github.com/talgya/worldgraph/internal/collections"
	"github.com/talgya/worldgraph/internal/geom"
)

// BreadthFirstSearch returns start plus every cell reachable from it through
// cells accepted by accept. start itself is not tested.
func (g *Graph) BreadthFirstSearch(start int, accept func(c int) bool) *collections.Bitset {
	explored := collections.NewBitset(len(g.Centers))
	explored.Add(start)
	frontier := []int{start}
	for len(frontier) > 0 {
		var next []int
		for _, c := range frontier {
			for _, nb := range g.Centers[c].Neighbors {
				if explored.Contains(nb) || !accept(nb) {
					continue
				}
				explored.Add(nb)
				next = append(next, nb)
			}
		}
		frontier = next
	}
	return explored
}

// BreadthFirstSearchForGoal searches outward from start, one ring at a time,
// and returns the first cell satisfying isGoal, or None. accept sees each
// candidate with its hop distance from start and can bound the search.
func (g *Graph) BreadthFirstSearchForGoal(start int, accept func(c, distance int) bool, isGoal func(c int) bool) int {
	if isGoal(start) {
		return start
	}
	explored := collections.BitsetOf(start)
	frontier := []int{start}
	for distance := 1; len(frontier) > 0; distance++ {
		var next []int
		for _, c := range frontier {
			if isGoal(c) {
				return c
			}
			for _, nb := range g.Centers[c].Neighbors {
				if explored.Contains(nb) || !accept(nb, distance) {
					continue
				}
				explored.Add(nb)
				next = append(next, nb)
			}
		}
		frontier = next
	}
	return None
}

// FindClosestLand returns the nearest land cell within maxHops of c, or None.
func (g *Graph) FindClosestLand(c, maxHops int) int {
	return g.BreadthFirstSearchForGoal(c,
		func(_, distance int) bool { return distance <= maxHops },
		func(x int) bool { return !g.Centers[x].IsWater })
}

// CenterBounds is the bounding box of a cell's corners.
func (g *Graph) CenterBounds(ci int) geom.Rect {
	c := &g.Centers[ci]
	r := geom.Rect{Min: c.Loc, Max: c.Loc}
	for _, v := range c.Corners {
		r = geom.Extend(r, g.Corners[v].Loc)
	}
	return r
}

// BoundingBox covers the given cells and the centers of their neighbors, so
// that redrawing it also covers any geometry the cells share with neighbors.
// It reports false for an empty set.
func (g *Graph) BoundingBox(centers *collections.Bitset) (geom.Rect, bool) {
	var r geom.Rect
	found := false
	add := func(p geom.Vec) {
		if !found {
			r = geom.Rect{Min: p, Max: p}
			found = true
			return
		}
		r = geom.Extend(r, p)
	}
	for c := range centers.All() {
		add(g.Centers[c].Loc)
		for _, nb := range g.Centers[c].Neighbors {
			add(g.Centers[nb].Loc)
		}
		for _, v := range g.Centers[c].Corners {
			add(g.Corners[v].Loc)
		}
	}
	return r, found
}

// CentersInBounds returns every cell whose corner bounding box overlaps r.
func (g *Graph) CentersInBounds(r geom.Rect) *collections.Bitset {
	if len(g.Centers) == 0 {
		return collections.NewBitset(0)
	}
	start := g.FindCenter(r.Center())
	return g.BreadthFirstSearch(start, func(c int) bool {
		return geom.Overlaps(g.CenterBounds(c), r)
	})
}

type pathEntry struct {
	estimate float64
	center   int
}

// FindShortestPath runs A* between two cells over cells accepted by
// passable, with Euclidean step costs. It returns the cells from start to
// goal inclusive, or nil when goal is unreachable.
func (g *Graph) FindShortestPath(start, goal int, passable func(c int) bool) []int {
	if start == goal {
		return []int{start}
	}
	loc := func(c int) geom.Vec { return g.Centers[c].Loc }

	cost := make(map[int]float64, 64)
	from := make(map[int]int, 64)
	cost[start] = 0

	h := collections.MakeHeap(func(a, b pathEntry) bool {
		if a.estimate != b.estimate {
			return a.estimate < b.estimate
		}
		return a.center < b.center
	})
	h.Push(pathEntry{estimate: loc(start).DistanceTo(loc(goal)), center: start})
	closed := collections.NewBitset(len(g.Centers))

	for !h.IsEmpty() {
		cur := h.Pop().center
		if cur == goal {
			path := []int{goal}
			for c := goal; c != start; {
				c = from[c]
				path = append(path, c)
			}
			for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
				path[i], path[j] = path[j], path[i]
			}
			return path
		}
		if !closed.Add(cur) {
			continue
		}
		for _, nb := range g.Centers[cur].Neighbors {
			if closed.Contains(nb) || (nb != goal && !passable(nb)) {
				continue
			}
			c := cost[cur] + loc(cur).DistanceTo(loc(nb))
			if old, ok := cost[nb]; ok && old <= c {
				continue
			}
			cost[nb] = c
			from[nb] = cur
			h.Push(pathEntry{estimate: c + loc(nb).DistanceTo(loc(goal)), center: nb})
		}
	}
	return nil
}

// FindPathGreedy hops to whichever neighbor is closest to goal until it
// arrives or gets stuck. It returns the visited cells.
func (g *Graph) FindPathGreedy(start, goal int) []int {
	path := []int{start}
	target := g.Centers[goal].Loc
	cur := start
	for cur != goal {
		best, bestDist := cur, g.Centers[cur].Loc.DistanceSquaredTo(target)
		for _, nb := range g.Centers[cur].Neighbors {
			if d := g.Centers[nb].Loc.DistanceSquaredTo(target); d < bestDist {
				best, bestDist = nb, d
			}
		}
		if best == cur {
			break
		}
		cur = best
		path = append(path, cur)
	}
	return path
}

// nearestRegionCenter returns the region cell closest to p, or None.
func (g *Graph) nearestRegionCenter(p geom.Vec, exclude int) int {
	best := None
	bestDist := math.Inf(1)
	for i := range g.Centers {
		c := &g.Centers[i]
		if c.Region == None || c.Region == exclude {
			continue
		}
		if d := c.Loc.DistanceSquaredTo(p); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}
