package pipeline

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"runtime"
	"sort"
	"time"

	"github.com/hauke96/sigolo/v2"
	"golang.org/x/sync/errgroup"

	"github.com/pavletto/isoliner/internal/contour"
	"github.com/pavletto/isoliner/internal/osmout"
)

// plotName builds "<prefix>_lon<min>_<max>lat<min>_<max>.xyz" for one raster.
func plotName(prefix string, minLon, minLat, maxLon, maxLat float64) string {
	return fmt.Sprintf("%s_lon%.2f_%.2flat%.2f_%.2f.xyz", prefix, minLon, maxLon, minLat, maxLat)
}

// runPlot dumps every raster as lon lat height text instead of tracing it.
// Unreadable rasters are skipped like in a contour run; a failed write fails
// the run.
func runPlot(ctx context.Context, paths []string, cfg Config, sum Summary, start time.Time) (Summary, error) {
	scale := 1.0
	if cfg.Feet {
		scale = contour.FeetPerMeter
	}
	sigolo.Infof("Run %s: plotting %d raster(s)", sum.RunID, len(paths))

	written := make([]string, len(paths))
	skipped := make([]error, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	g.SetLimit(workers)

	for i, p := range paths {
		i, p := i, p
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			grid, err := loadRaster(p, cfg)
			if err != nil {
				sigolo.Errorf("Skipping raster %s: %v", p, err)
				skipped[i] = err
				return nil
			}
			minLon, minLat, maxLon, maxLat := grid.Bounds()
			path := filepath.Join(cfg.OutputDir, plotName(cfg.PlotPrefix, minLon, minLat, maxLon, maxLat))
			err = osmout.WriteAtomic(ctx, path, func(w io.Writer) error {
				return grid.WriteXYZ(w, scale)
			})
			if err != nil {
				return err
			}
			sigolo.Debugf("Raster %s plotted to %s", grid.Name, path)
			written[i] = path
			return nil
		})
	}
	err := g.Wait()

	for i := range paths {
		if skipped[i] != nil {
			sum.Skipped = append(sum.Skipped, skipped[i])
		}
		if written[i] != "" {
			sum.Rasters++
			sum.Written = append(sum.Written, written[i])
		}
	}
	sort.Strings(sum.Written)
	sum.Elapsed = time.Since(start)
	sigolo.Infof("Plotted %d of %d raster(s) in %s", len(sum.Written), len(paths), sum.Elapsed)
	return sum, err
}
