package world

import (
	"fmt"
	"image/color"
	"log/slog"
	"maps"
	"slices"

	"github.com/talgya/worldgraph/internal/collections"
)

// CenterEdit overrides a cell's water state and region. RegionID is ignored
// for water cells.
type CenterEdit struct {
	IsWater  bool
	IsLake   bool
	RegionID int
}

// EdgeEdit overrides an edge's river level.
type EdgeEdit struct {
	RiverLevel int
}

// RegionEdit overrides a region's display color.
type RegionEdit struct {
	Color color.NRGBA
}

// SetCenterWater changes a cell's water flags and drops it from its region
// when it becomes water. Derived geometry is left stale; use ApplyEdits or
// RebuildAll afterwards.
func (g *Graph) SetCenterWater(ci int, water, lake bool) error {
	if err := g.checkCenter(ci); err != nil {
		return err
	}
	g.setCenterWater(ci, water, lake)
	return nil
}

func (g *Graph) setCenterWater(ci int, water, lake bool) {
	c := &g.Centers[ci]
	c.IsWater = water
	c.IsLake = water && lake
	if water {
		g.setRegion(ci, nil)
	}
}

// SetCenterRegion moves a land cell into the region with the given id.
func (g *Graph) SetCenterRegion(ci, regionID int) error {
	if err := g.checkCenter(ci); err != nil {
		return err
	}
	r, ok := g.regions[regionID]
	if !ok {
		return fmt.Errorf("region %d: %w", regionID, ErrUnknownRegion)
	}
	if g.Centers[ci].IsWater {
		return fmt.Errorf("center %d is water and cannot join region %d", ci, regionID)
	}
	g.setRegion(ci, r)
	return nil
}

// SetEdgeRiver sets an edge's river level.
func (g *Graph) SetEdgeRiver(e, level int) error {
	if e < 0 || e >= len(g.Edges) {
		return fmt.Errorf("edge %d: %w", e, ErrUnknownEdge)
	}
	g.setEdgeRiver(e, level)
	return nil
}

func (g *Graph) setEdgeRiver(e, level int) {
	g.Edges[e].River = max(level, 0)
}

// SetRegionColor changes a region's display color.
func (g *Graph) SetRegionColor(id int, c color.NRGBA) error {
	r, ok := g.regions[id]
	if !ok {
		return fmt.Errorf("region %d: %w", id, ErrUnknownRegion)
	}
	r.Color = c
	return nil
}

// ApplyEdits applies cell and edge edits in index order, then brings flags,
// smoothing, noisy edges and the lookup index up to date for the affected
// area only. It returns the cells whose geometry changed.
//
// Edits are validated before anything is modified, so an error leaves the
// graph untouched.
func (g *Graph) ApplyEdits(centers map[int]CenterEdit, edges map[int]EdgeEdit) (*collections.Bitset, error) {
	regions := make(map[int]*Region, len(centers))
	for ci, edit := range centers {
		if err := g.checkCenter(ci); err != nil {
			return nil, err
		}
		if edit.IsWater {
			continue
		}
		r, ok := g.regions[edit.RegionID]
		if !ok {
			return nil, fmt.Errorf("center %d: region %d: %w", ci, edit.RegionID, ErrUnknownRegion)
		}
		regions[ci] = r
	}
	for e := range edges {
		if e < 0 || e >= len(g.Edges) {
			return nil, fmt.Errorf("edge %d: %w", e, ErrUnknownEdge)
		}
	}

	touched := collections.NewBitset(len(g.Centers))
	for _, ci := range slices.Sorted(maps.Keys(centers)) {
		edit := centers[ci]
		g.setCenterWater(ci, edit.IsWater, edit.IsLake)
		if r := regions[ci]; r != nil {
			g.setRegion(ci, r)
		}
		touched.Add(ci)
	}
	for _, e := range slices.Sorted(maps.Keys(edges)) {
		g.setEdgeRiver(e, edges[e].RiverLevel)
		for _, c := range []int{g.Edges[e].D0, g.Edges[e].D1} {
			if c != None {
				touched.Add(c)
			}
		}
	}
	if touched.IsEmpty() {
		return touched, nil
	}

	g.updateFlagsAround(touched)
	changed := g.Resmooth(touched)
	rebuilt := g.rebuildNoisyEdgesFor(changed)
	g.UpdateLookup(rebuilt.Slice())

	slog.Debug("edits applied", "centers", len(centers), "edges", len(edges), "changed", changed.Len())
	return changed, nil
}

// ApplyRegionEdits sets region colors.
func (g *Graph) ApplyRegionEdits(regions map[int]RegionEdit) error {
	for id, edit := range regions {
		if err := g.SetRegionColor(id, edit.Color); err != nil {
			return err
		}
	}
	return nil
}
