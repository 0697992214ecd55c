// Package pipeline wires rasters, tracing, tiling and output into one run.
package pipeline

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hauke96/sigolo/v2"
	"github.com/paulmach/orb"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/pavletto/isoliner/internal/area"
	"github.com/pavletto/isoliner/internal/contour"
	"github.com/pavletto/isoliner/internal/hgt"
	"github.com/pavletto/isoliner/internal/osmout"
	"github.com/pavletto/isoliner/internal/scheduler"
	"github.com/pavletto/isoliner/internal/tiling"
)

// Config is everything one run needs.
type Config struct {
	Inputs []string // .hgt/.hgt.zip files or directories holding them

	Step    int
	Epsilon float64
	NoZero  bool
	Feet    bool
	VoidMax int16 // samples <= VoidMax are no-data, hgt.VoidValue for plain SRTM

	// Smooth resamples every raster by this ratio before tracing; 0 and 1
	// keep the rasters as they are.
	Smooth float64
	// CorrX and CorrY move every raster by this many degrees of longitude
	// and latitude.
	CorrX, CorrY float64
	// PlotPrefix, when set, writes each raster's samples to a
	// <prefix>_<bbox>.xyz text file instead of tracing contours.
	PlotPrefix string

	// Region limits the output. A zero Region covers every loaded raster.
	Region area.Region
	Tiling tiling.Options

	Workers int

	OutputDir  string
	Prefix     string
	Source     string
	Format     osmout.Format
	Gzip       int
	Classifier osmout.Classifier
	Timestamp  time.Time
}

// Summary describes a finished run.
type Summary struct {
	RunID    string
	Rasters  int
	Skipped  []error
	Segments int
	Lines    int
	Problems int
	Tiles    int
	Written  []string
	Failed   []scheduler.Result
	Elapsed  time.Duration
}

func (c Config) validate() error {
	switch {
	case c.Step <= 0:
		return errors.Errorf("step must be positive, got %d", c.Step)
	case c.Smooth < 0 || math.IsNaN(c.Smooth):
		return errors.Errorf("smooth ratio must not be negative, got %g", c.Smooth)
	case math.Abs(c.CorrX) >= 1 || math.Abs(c.CorrY) >= 1:
		return errors.Errorf("coordinate corrections must stay below one degree, got %g, %g", c.CorrX, c.CorrY)
	case c.Epsilon < 0:
		return errors.Errorf("epsilon must not be negative, got %g", c.Epsilon)
	case c.Workers < 0:
		return errors.Errorf("workers must not be negative, got %d", c.Workers)
	case c.Tiling.MaxNodesPerWay == 1 || c.Tiling.MaxNodesPerWay < 0:
		return errors.Errorf("max nodes per way must be 0 or at least 2, got %d", c.Tiling.MaxNodesPerWay)
	case c.Gzip < 0 || c.Gzip > 9:
		return errors.Errorf("gzip level must be within 0-9, got %d", c.Gzip)
	case c.Gzip > 0 && c.Format != osmout.XML:
		return errors.Errorf("gzip only applies to osm output, not %s", c.Format)
	case len(c.Inputs) == 0:
		return errors.New("no input rasters given")
	}
	return nil
}

// raster is the traced result of one input file.
type raster struct {
	path  string
	bound orb.Bound
	lines []contour.Line
	stats contour.Stats
	err   error
}

// Run traces every input raster, cuts the contours into tiles and writes one
// file per tile. Configuration errors fail before any work starts. Raster
// and tile failures are collected: the returned error lists failed tiles,
// and the Summary is valid either way.
func Run(ctx context.Context, cfg Config) (Summary, error) {
	sum := Summary{RunID: uuid.NewString()}
	start := time.Now()
	if err := cfg.validate(); err != nil {
		return sum, err
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "."
	}
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return sum, &osmout.IOError{Op: "mkdir", Path: cfg.OutputDir, Err: err}
	}

	paths, err := expandInputs(cfg.Inputs)
	if err != nil {
		return sum, err
	}
	if cfg.PlotPrefix != "" {
		return runPlot(ctx, paths, cfg, sum, start)
	}
	sigolo.Infof("Run %s: %d raster(s), step %d, format %s", sum.RunID, len(paths), cfg.Step, cfg.Format)

	rasters, err := traceAll(ctx, paths, cfg)
	if err != nil {
		return sum, err
	}

	var (
		lines      []contour.Line
		unreadable []raster
		covered    orb.Bound
		haveBound  bool
	)
	for _, r := range rasters {
		if r.err != nil {
			sum.Skipped = append(sum.Skipped, r.err)
			var fe *hgt.FormatError
			if !errors.As(r.err, &fe) {
				unreadable = append(unreadable, r)
			}
			continue
		}
		sum.Rasters++
		sum.Segments += r.stats.Segments
		sum.Problems += len(r.stats.Problems)
		for _, p := range r.stats.Problems {
			sigolo.Debugf("%s: %v", r.path, p)
		}
		lines = append(lines, r.lines...)
		if !haveBound {
			covered, haveBound = r.bound, true
		} else {
			covered = covered.Union(r.bound)
		}
	}
	lines = contour.Stitch(lines)
	sum.Lines = len(lines)
	sigolo.Infof("Traced %d segments into %d lines from %d raster(s), %d skipped", sum.Segments, sum.Lines, sum.Rasters, len(sum.Skipped))

	region := cfg.Region
	if region.Bound.IsZero() && !region.IsPolygon() {
		if !haveBound {
			sum.Elapsed = time.Since(start)
			return sum, errors.New("no raster could be loaded and no area was given")
		}
		region = area.Region{Bound: covered}
	}

	tiles, err := tiling.Partition(lines, region, cfg.Tiling)
	if err != nil {
		return sum, err
	}
	sum.Tiles = len(tiles)
	sigolo.Infof("Partitioned %s into %d tile(s)", region, len(tiles))

	w := &tileWriter{cfg: cfg, unreadable: unreadable}
	rep := scheduler.Run(ctx, tiles, cfg.Workers, w.process)
	for _, t := range rep.Written {
		sum.Written = append(sum.Written, w.path(t))
	}
	sort.Strings(sum.Written)
	sum.Failed = rep.Failed
	sum.Elapsed = time.Since(start)

	sigolo.Infof("Wrote %d of %d tile(s) in %s", len(rep.Written), len(tiles), sum.Elapsed)
	return sum, rep.Err()
}

// expandInputs resolves directories to the rasters they hold, sorted by
// name so runs are reproducible.
func expandInputs(inputs []string) ([]string, error) {
	var out []string
	for _, in := range inputs {
		fi, err := os.Stat(in)
		if err != nil {
			return nil, &osmout.IOError{Op: "stat", Path: in, Err: err}
		}
		if !fi.IsDir() {
			out = append(out, in)
			continue
		}
		entries, err := os.ReadDir(in)
		if err != nil {
			return nil, &osmout.IOError{Op: "read", Path: in, Err: err}
		}
		var found []string
		for _, e := range entries {
			name := strings.ToLower(e.Name())
			if !e.IsDir() && (strings.HasSuffix(name, ".hgt") || strings.HasSuffix(name, ".hgt.zip")) {
				found = append(found, filepath.Join(in, e.Name()))
			}
		}
		sort.Strings(found)
		out = append(out, found...)
	}
	if len(out) == 0 {
		return nil, errors.New("no .hgt rasters found in inputs")
	}
	return out, nil
}

// traceAll loads and traces rasters concurrently. A raster that fails is
// recorded in its slot and the run goes on without it.
func traceAll(ctx context.Context, paths []string, cfg Config) ([]raster, error) {
	out := make([]raster, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	g.SetLimit(workers)
	opts := contour.TraceOptions{Step: cfg.Step, NoZero: cfg.NoZero, Feet: cfg.Feet}

	for i, p := range paths {
		i, p := i, p
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out[i] = traceOne(p, cfg, opts)
			return nil
		})
	}
	return out, g.Wait()
}

func traceOne(path string, cfg Config, opts contour.TraceOptions) raster {
	r := raster{path: path, bound: rasterBound(path, cfg)}
	g, err := loadRaster(path, cfg)
	if err != nil {
		sigolo.Errorf("Skipping raster %s: %v", path, err)
		r.err = err
		return r
	}
	segs, err := contour.Trace(g, opts)
	if err != nil {
		r.err = errors.Wrapf(err, "tracing %s", path)
		sigolo.Errorf("Skipping raster %s: %v", path, r.err)
		return r
	}
	r.lines, r.stats = contour.Assemble(segs)
	sigolo.Debugf("Raster %s: %d segments, %d closed and %d open lines", g.Name, r.stats.Segments, r.stats.Closed, r.stats.Open)
	return r
}

// rasterBound is the corrected cell a raster covers, taken from its name so
// it is known even when the file cannot be read.
func rasterBound(path string, cfg Config) orb.Bound {
	name, err := hgt.ParseTileName(path)
	if err != nil {
		return orb.Bound{}
	}
	lat, lon := name.Origin()
	minLon, minLat := float64(lon)+cfg.CorrX, float64(lat)+cfg.CorrY
	return orb.Bound{Min: orb.Point{minLon, minLat}, Max: orb.Point{minLon + 1, minLat + 1}}
}

// loadRaster reads a raster and applies the resampling and offset options.
func loadRaster(path string, cfg Config) (*hgt.Grid, error) {
	g, err := hgt.Load(path, hgt.LoadOptions{VoidMax: cfg.VoidMax})
	if err != nil {
		return nil, err
	}
	if cfg.Smooth > 0 && cfg.Smooth != 1 {
		if g, err = g.Smooth(cfg.Smooth); err != nil {
			return nil, errors.Wrapf(err, "smoothing %s", path)
		}
		sigolo.Debugf("Raster %s resampled to %dx%d", g.Name, g.Size, g.Size)
	}
	return g.Shifted(cfg.CorrX, cfg.CorrY), nil
}
