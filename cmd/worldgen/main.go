// Command worldgen generates a world graph, reports what it built and
// optionally stores it, replays stored edits and writes raster masks.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/pkg/profile"
	"golang.org/x/sync/errgroup"

	"github.com/talgya/worldgraph/internal/geom"
	"github.com/talgya/worldgraph/internal/lookup"
	"github.com/talgya/worldgraph/internal/persistence"
	"github.com/talgya/worldgraph/internal/world"
)

type options struct {
	cfg     world.GenConfig
	dbPath  string
	name    string
	mapID   string
	probe   string
	maskDir string
	scale   float64
	profile string
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	setupLogging(opts.cfg.Debug)

	if err := run(opts); err != nil {
		slog.Error("worldgen failed", "error", err)
		os.Exit(1)
	}
}

func parseFlags(args []string) (options, error) {
	cfg := world.DefaultGenConfig()
	opts := options{}
	fs := flag.NewFlagSet("worldgen", flag.ContinueOnError)

	fs.Int64Var(&cfg.Seed, "seed", 0, "random seed (0 picks one)")
	fs.IntVar(&cfg.NumSites, "sites", cfg.NumSites, "number of Voronoi cells")
	fs.Float64Var(&cfg.Width, "width", cfg.Width, "map width")
	fs.Float64Var(&cfg.Height, "height", cfg.Height, "map height")
	fs.IntVar(&cfg.LloydRelaxations, "relax", cfg.LloydRelaxations, "Lloyd relaxation passes")
	fs.IntVar(&cfg.RegionCount, "regions", 0, "exact region count (0 grows plates freely)")
	fs.Float64Var(&cfg.NonBorderPlateContinentalProbability, "land", cfg.NonBorderPlateContinentalProbability, "chance an inland plate is continental")
	fs.Float64Var(&cfg.BorderPlateContinentalProbability, "border-land", cfg.BorderPlateContinentalProbability, "chance a border plate is continental")
	fs.Float64Var(&cfg.ResolutionScale, "resolution", cfg.ResolutionScale, "noisy edge resolution scale")
	fs.BoolVar(&cfg.Debug, "debug", false, "validate invariants after each phase and log debug output")
	shape := fs.String("shape", cfg.LandShape.String(), "land shape: continents, inland-sea or scattered")
	style := fs.String("style", cfg.LineStyle.String(), "line style: jagged, splines or smooth")
	mode := fs.String("lookup", cfg.LookupMode.String(), "point lookup: slices, raster or walk")

	fs.StringVar(&opts.dbPath, "db", "", "SQLite database for map records and edits")
	fs.StringVar(&opts.name, "name", "", "name to store the generated map under")
	fs.StringVar(&opts.mapID, "map", "", "id of a stored map to regenerate and replay edits onto")
	fs.StringVar(&opts.probe, "probe", "", "report the cell at x,y")
	fs.StringVar(&opts.maskDir, "masks", "", "directory to write land and region mask PNGs to")
	fs.Float64Var(&opts.scale, "mask-scale", 1, "mask pixels per world unit")
	fs.StringVar(&opts.profile, "cpuprofile", "", "directory to write a CPU profile to")

	if err := fs.Parse(args); err != nil {
		return opts, err
	}

	var err error
	if cfg.LandShape, err = world.ParseLandShape(*shape); err != nil {
		return opts, err
	}
	if cfg.LineStyle, err = world.ParseLineStyle(*style); err != nil {
		return opts, err
	}
	if cfg.LookupMode, err = lookup.ParseMode(*mode); err != nil {
		return opts, err
	}
	if opts.mapID != "" && opts.dbPath == "" {
		return opts, fmt.Errorf("-map needs -db")
	}
	opts.cfg = cfg
	return opts, nil
}

// setupLogging writes text logs to a terminal and JSON otherwise.
func setupLogging(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	handlerOpts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		handler = slog.NewTextHandler(os.Stdout, handlerOpts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, handlerOpts)
	}
	slog.SetDefault(slog.New(handler))
}

func run(opts options) error {
	if opts.profile != "" {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(opts.profile), profile.Quiet).Stop()
	}

	var db *persistence.DB
	if opts.dbPath != "" {
		if dir := filepath.Dir(opts.dbPath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create data dir: %w", err)
			}
		}
		var err error
		db, err = persistence.Open(opts.dbPath)
		if err != nil {
			return err
		}
		defer db.Close()
		slog.Info("database opened", "path", opts.dbPath)
	}

	// ── Stored map: regenerate, then replay edits ───────────────────
	if opts.mapID != "" {
		id, err := uuid.Parse(opts.mapID)
		if err != nil {
			return fmt.Errorf("parse map id: %w", err)
		}
		rec, err := db.GetMap(id)
		if err != nil {
			return err
		}
		cfg, err := configFromRecord(opts.cfg, rec)
		if err != nil {
			return err
		}
		g, err := world.Generate(cfg)
		if err != nil {
			return fmt.Errorf("generate: %w", err)
		}
		if err := replayEdits(db, rec.ID, g); err != nil {
			return err
		}
		report(g)
		return finish(opts, g)
	}

	// ── Fresh map ───────────────────────────────────────────────────
	g, err := world.Generate(opts.cfg)
	if err != nil {
		return fmt.Errorf("generate: %w", err)
	}
	report(g)

	if db != nil {
		cfg := g.Config()
		name := opts.name
		if name == "" {
			name = fmt.Sprintf("world-%d", g.Seed())
		}
		rec, err := db.CreateMap(persistence.MapRecord{
			Name:           name,
			Seed:           g.Seed(),
			Width:          cfg.Width,
			Height:         cfg.Height,
			NumSites:       cfg.NumSites,
			RegionCount:    cfg.RegionCount,
			LandShape:      cfg.LandShape.String(),
			LineStyle:      cfg.LineStyle.String(),
			Relaxations:    cfg.LloydRelaxations,
			InlandLand:     cfg.NonBorderPlateContinentalProbability,
			BorderLand:     cfg.BorderPlateContinentalProbability,
			Resolution:     cfg.ResolutionScale,
			RiverDensity:   cfg.RiverDensity,
			ElevationNoise: cfg.ElevationNoise,
			LookupMode:     cfg.LookupMode.String(),
		})
		if err != nil {
			return err
		}
		if err := db.SaveMeta("last_map", rec.ID.String()); err != nil {
			return fmt.Errorf("save meta: %w", err)
		}
	}
	return finish(opts, g)
}

func configFromRecord(base world.GenConfig, rec persistence.MapRecord) (world.GenConfig, error) {
	cfg := base
	cfg.Seed = rec.Seed
	cfg.Width = rec.Width
	cfg.Height = rec.Height
	cfg.NumSites = rec.NumSites
	cfg.RegionCount = rec.RegionCount
	cfg.LloydRelaxations = rec.Relaxations
	cfg.NonBorderPlateContinentalProbability = rec.InlandLand
	cfg.BorderPlateContinentalProbability = rec.BorderLand
	cfg.ResolutionScale = rec.Resolution
	cfg.RiverDensity = rec.RiverDensity
	cfg.ElevationNoise = rec.ElevationNoise

	var err error
	if cfg.LandShape, err = world.ParseLandShape(rec.LandShape); err != nil {
		return cfg, err
	}
	if cfg.LineStyle, err = world.ParseLineStyle(rec.LineStyle); err != nil {
		return cfg, err
	}
	if cfg.LookupMode, err = lookup.ParseMode(rec.LookupMode); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func replayEdits(db *persistence.DB, id uuid.UUID, g *world.Graph) error {
	centerRows, err := db.CenterEdits(id)
	if err != nil {
		return fmt.Errorf("load center edits: %w", err)
	}
	edgeRows, err := db.EdgeEdits(id)
	if err != nil {
		return fmt.Errorf("load edge edits: %w", err)
	}
	regionRows, err := db.RegionEdits(id)
	if err != nil {
		return fmt.Errorf("load region edits: %w", err)
	}

	centers := make(map[int]world.CenterEdit, len(centerRows))
	for _, r := range centerRows {
		centers[r.Center] = world.CenterEdit{IsWater: r.IsWater, IsLake: r.IsLake, RegionID: r.RegionID}
	}
	edges := make(map[int]world.EdgeEdit, len(edgeRows))
	for _, r := range edgeRows {
		edges[r.Edge] = world.EdgeEdit{RiverLevel: r.RiverLevel}
	}
	changed, err := g.ApplyEdits(centers, edges)
	if err != nil {
		return fmt.Errorf("replay edits: %w", err)
	}

	regions := make(map[int]world.RegionEdit, len(regionRows))
	for _, r := range regionRows {
		regions[r.RegionID] = world.RegionEdit{Color: unpackColor(r.Color)}
	}
	if err := g.ApplyRegionEdits(regions); err != nil {
		return fmt.Errorf("replay region edits: %w", err)
	}

	slog.Info("edits replayed",
		"centers", len(centerRows), "edges", len(edgeRows), "regions", len(regionRows),
		"changed cells", changed.Len())
	return nil
}

func unpackColor(v uint32) color.NRGBA {
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}
}

func report(g *world.Graph) {
	oceanic, continental := g.PlateCounts()
	rivers := 0
	for e := range g.Edges {
		if g.IsRiver(e) {
			rivers++
		}
	}
	land := g.LandCount()
	slog.Info("world generated",
		"seed", g.Seed(),
		"cells", humanize.Comma(int64(len(g.Centers))),
		"corners", humanize.Comma(int64(len(g.Corners))),
		"edges", humanize.Comma(int64(len(g.Edges))),
		"land", fmt.Sprintf("%s (%.0f%%)", humanize.Comma(int64(land)), 100*float64(land)/float64(max(len(g.Centers), 1))),
		"plates", fmt.Sprintf("%d oceanic, %d continental", oceanic, continental),
		"regions", g.RegionCount(),
		"river edges", humanize.Comma(int64(rivers)),
	)
	for _, r := range g.Regions() {
		slog.Debug("region", "id", r.ID, "cells", r.Len(), "color", fmt.Sprintf("#%02x%02x%02x", r.Color.R, r.Color.G, r.Color.B))
	}
}

func finish(opts options, g *world.Graph) error {
	if opts.probe != "" {
		p, err := parsePoint(opts.probe)
		if err != nil {
			return err
		}
		c, ok := g.Index().FindOnMap(p)
		if !ok {
			slog.Info("probe outside map", "x", p.X, "y", p.Y)
		} else {
			center := &g.Centers[c]
			slog.Info("probe",
				"cell", c,
				"biome", world.BiomeName(center.Biome),
				"elevation", fmt.Sprintf("%.3f", center.Elevation),
				"moisture", fmt.Sprintf("%.3f", center.Moisture),
				"water", center.IsWater,
				"region", center.Region,
			)
		}
	}

	if opts.maskDir != "" {
		if err := os.MkdirAll(opts.maskDir, 0o755); err != nil {
			return fmt.Errorf("create mask dir: %w", err)
		}
		masks := map[string]func(float64) (*image.Gray, error){
			"land.png": func(scale float64) (*image.Gray, error) {
				return g.LandMask(scale), nil
			},
			"regions.png": g.RegionMask,
		}
		var eg errgroup.Group
		for name, render := range masks {
			eg.Go(func() error {
				img, err := render(opts.scale)
				if err != nil {
					return fmt.Errorf("render %s: %w", name, err)
				}
				return writePNG(filepath.Join(opts.maskDir, name), img)
			})
		}
		if err := eg.Wait(); err != nil {
			return err
		}
		slog.Info("masks written", "dir", opts.maskDir)
	}
	return nil
}

func parsePoint(s string) (geom.Vec, error) {
	xs, ys, ok := strings.Cut(s, ",")
	if !ok {
		return geom.Vec{}, fmt.Errorf("probe %q: want x,y", s)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(xs), 64)
	if err != nil {
		return geom.Vec{}, fmt.Errorf("probe x: %w", err)
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(ys), 64)
	if err != nil {
		return geom.Vec{}, fmt.Errorf("probe y: %w", err)
	}
	return geom.Vec{X: x, Y: y}, nil
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}
