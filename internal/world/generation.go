// World generation: a relaxed Voronoi substrate, tectonic plates and their
// collisions for elevation, then water, rivers, moisture, biomes, political
// regions and the smoothed, noisy boundary geometry.
package world

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"time"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/talgya/worldgraph/internal/geom"
	"github.com/talgya/worldgraph/internal/lookup"
	"github.com/talgya/worldgraph/internal/voronoi"
)

const (
	SeaLevel              = 0.39
	OceanPlateLevel       = 0.2
	ContinentalPlateLevel = 0.45
	CollisionScale        = 0.4

	PlateBoundarySmoothness   = 26
	PlateIterationMultiplier  = 30
	MinNinthToLastPlateSize   = 100
	MinPoliticalRegionSize    = 10
	MaxLakeSize               = 120
	MaxRiverLevelNotDrawn     = 2
	MaxHopsToSearchForLand    = 5
	DefaultRiverDensity       = 1.0 / 14.0
	continentEdgeCostMax      = 5.0
	continentEdgeZoneFraction = 0.15
)

var (
	ErrTooManyRegions = errors.New("more regions requested than the land can hold")
	ErrNoLand         = errors.New("no land to form regions from")
	ErrUnknownCenter  = errors.New("unknown center")
	ErrUnknownEdge    = errors.New("unknown edge")
	ErrUnknownRegion  = errors.New("unknown region")
)

// LandShape decides which seeded plates become continents in constrained mode.
type LandShape uint8

const (
	Continents LandShape = iota // continental seeds farthest from the map edge
	InlandSea                   // continental seeds nearest the map edge
	Scattered                   // continental seeds chosen at random
)

var landShapeNames = map[LandShape]string{
	Continents: "continents",
	InlandSea:  "inland-sea",
	Scattered:  "scattered",
}

func (s LandShape) String() string {
	if n, ok := landShapeNames[s]; ok {
		return n
	}
	return fmt.Sprintf("LandShape(%d)", uint8(s))
}

// ParseLandShape accepts the names printed by LandShape.String.
func ParseLandShape(name string) (LandShape, error) {
	for s, n := range landShapeNames {
		if n == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown land shape %q", name)
}

// GenConfig holds world generation parameters.
type GenConfig struct {
	Width, Height    float64
	NumSites         int
	Seed             int64 // 0 = random
	LloydRelaxations int

	NonBorderPlateContinentalProbability float64
	BorderPlateContinentalProbability    float64

	RegionCount int // 0 = free plate growth, no exact count
	LandShape   LandShape

	LineStyle       LineStyle
	ResolutionScale float64 // scales noisy-edge segment lengths
	RiverDensity    float64 // river sources per corner
	ElevationNoise  float64 // amplitude of simplex roughness added to corners

	LookupMode lookup.Mode
	Debug      bool // panic on broken invariants after each phase
}

// DefaultGenConfig returns a reasonable starting configuration.
func DefaultGenConfig() GenConfig {
	return GenConfig{
		Width:                                1024,
		Height:                               768,
		NumSites:                             6000,
		LloydRelaxations:                     1,
		NonBorderPlateContinentalProbability: 0.5,
		BorderPlateContinentalProbability:    0.25,
		LandShape:                            Continents,
		LineStyle:                            SplinesWithSmoothedCoastlines,
		ResolutionScale:                      1,
		RiverDensity:                         DefaultRiverDensity,
		ElevationNoise:                       0.03,
		LookupMode:                           lookup.PieSlices,
	}
}

// SmallTestConfig returns a tiny world for rapid iteration.
func SmallTestConfig() GenConfig {
	cfg := DefaultGenConfig()
	cfg.Width = 400
	cfg.Height = 300
	cfg.NumSites = 600
	cfg.Seed = 42
	cfg.Debug = true
	return cfg
}

// Generate creates a complete world graph.
func Generate(cfg GenConfig) (*Graph, error) {
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Int63()
	}
	rng := rand.New(rand.NewSource(seed))

	start := time.Now()
	bounds := geom.Rect{Max: geom.Vec{X: cfg.Width, Y: cfg.Height}}
	diagram, err := voronoi.Generate(rng, cfg.NumSites, bounds, cfg.LloydRelaxations)
	if err != nil {
		return nil, fmt.Errorf("voronoi diagram: %w", err)
	}
	slog.Debug("voronoi diagram built", "sites", len(diagram.Sites), "elapsed", time.Since(start))

	g := NewGraph(diagram, cfg, seed)
	if err := g.build(rng); err != nil {
		return nil, err
	}
	return g, nil
}

// GenerateFromDiagram runs the full pipeline over a caller-supplied diagram.
func GenerateFromDiagram(d *voronoi.Diagram, cfg GenConfig) (*Graph, error) {
	rng := rand.New(rand.NewSource(cfg.Seed))
	g := NewGraph(d, cfg, cfg.Seed)
	if err := g.build(rng); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *Graph) build(rng *rand.Rand) error {
	start := time.Now()

	if g.cfg.RegionCount > 0 {
		seeds := g.seedConstrainedPlates(rng, g.cfg.RegionCount, g.cfg.LandShape)
		g.growPlatesFromSeeds(seeds, g.cfg.LandShape)
	} else {
		g.growFreePlates(rng)
		g.classifyPlates(rng)
	}
	g.assignVelocities(rng)
	g.lowerOceanPlates()
	g.collidePlates()
	g.roughenElevation()
	g.assertPlates()
	slog.Debug("plates simulated", "plates", len(g.Plates), "elapsed", time.Since(start))

	g.assignCenterElevations()
	g.markLakes()
	g.updateAllFlags()
	g.createRivers(rng)
	g.assignMoisture()
	g.assignBiomes()

	if err := g.formRegions(g.cfg.RegionCount); err != nil {
		return fmt.Errorf("form regions: %w", err)
	}
	g.assertRegions()

	g.smoothAll()
	g.buildNoisyEdges(false)
	slog.Debug("world graph built", "regions", len(g.regions), "elapsed", time.Since(start))
	return nil
}

// roughenElevation adds simplex noise to corner elevations so plate interiors
// are not perfectly flat.
func (g *Graph) roughenElevation() {
	if g.cfg.ElevationNoise <= 0 {
		return
	}
	noise := opensimplex.NewNormalized(g.seed)
	size := max(g.Bounds.Width(), g.Bounds.Height(), 1)
	for i := range g.Corners {
		c := &g.Corners[i]
		n := octaveNoise(noise, c.OriginalLoc.X/size, c.OriginalLoc.Y/size, 4, 6, 0.5)
		c.Elevation = geom.Clamp(c.Elevation+(n-0.5)*2*g.cfg.ElevationNoise, 0, 1)
	}
}

// octaveNoise sums several octaves of normalized noise into [0, 1].
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxAmp := 0.0
	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxAmp += amplitude
		amplitude *= persistence
		frequency *= 2
	}
	return math.Max(0, math.Min(1, total/maxAmp))
}

func (g *Graph) assertPlates() {
	if !g.cfg.Debug {
		return
	}
	if err := g.ValidatePlates(); err != nil {
		panic(err)
	}
}

func (g *Graph) assertRegions() {
	if !g.cfg.Debug {
		return
	}
	if err := g.ValidateRegions(); err != nil {
		panic(err)
	}
}
