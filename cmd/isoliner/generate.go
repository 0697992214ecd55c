package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/hauke96/sigolo/v2"
	"github.com/spf13/cobra"

	"github.com/pavletto/isoliner/internal/pipeline"
)

// generateCmd represents the generate command
var generateCmd = &cobra.Command{
	Use:   "generate [raster or directory]...",
	Short: "Trace contours and write OSM tiles",
	Long: `Trace contour lines from .hgt rasters and write one OSM file per tile.

Without arguments every raster in --hgt-dir is used. The output area is the
union of the rasters unless --area or --polygon limits it.

Examples:
  isoliner generate --hgt-dir ./srtm --step 20 --format pbf
  isoliner generate N45E006.hgt N45E007.hgt --tile-size 0.5 --epsilon 0.00005
  isoliner generate --area 6.5:45.5:7.5:46.5 --format osm --gzip 6 --output-dir out
  isoliner generate N45E006.hgt --smooth 3 --corrx 0.0005 --corry 0.0005
  isoliner generate N45E006.hgt --plot heights

The exit status is non-zero when any tile failed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := LoadConfig(cmd)
		if err != nil {
			return err
		}
		pcfg, err := cfg.Pipeline(args)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		sum, err := pipeline.Run(ctx, pcfg)
		for _, skipped := range sum.Skipped {
			sigolo.Errorf("Skipped: %v", skipped)
		}
		sigolo.Infof("Run %s: %d raster(s), %d lines, %d tile(s), %d written, %d failed, %d geometry problem(s), took %s",
			sum.RunID, sum.Rasters, sum.Lines, sum.Tiles, len(sum.Written), len(sum.Failed), sum.Problems, sum.Elapsed)
		for _, path := range sum.Written {
			fmt.Println(path)
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)
	generateFlags(generateCmd)
}

func generateFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.IntP("step", "s", 20, "Contour interval")
	f.Float64P("epsilon", "e", 0, "Simplification tolerance in degrees, 0 keeps every point")
	f.IntP("workers", "j", runtime.NumCPU(), "Concurrent tile workers")
	f.StringP("format", "f", "osm", "Output format: osm, o5m or pbf")
	f.Int("gzip", 0, "Gzip level 1-9 for osm output, 0 for plain text")
	f.Float64("tile-size", 1, "Tile edge in degrees")
	f.Int64("max-nodes-per-tile", 1000000, "Halve tiles holding more nodes, 0 disables")
	f.Int("max-nodes-per-way", 2000, "Split longer ways, 0 disables")
	f.Int64("start-node-id", 10000000, "First node id")
	f.Int64("start-way-id", 10000000, "First way id")
	f.Bool("no-zero", false, "Skip the zero level, e.g. coastlines")
	f.Bool("feet", false, "Trace levels in feet")
	f.String("line-cats", "200,100", "Major and medium level divisors for contour_ext")
	f.String("area", "", "Output area as minlon:minlat:maxlon:maxlat")
	f.String("polygon", "", "Output area as .poly or GeoJSON file")
	f.StringP("output-dir", "o", ".", "Output directory")
	f.String("prefix", "", "Output file name prefix")
	f.String("source", "", "Elevation source name used in file names")
	f.Bool("write-timestamp", false, "Stamp elements with the current time")
	f.Float64("smooth", 1, "Resample rasters by this ratio before tracing, 1 keeps them")
	f.Float64("corrx", 0, "Shift rasters east by this many degrees, e.g. 0.0005")
	f.Float64("corry", 0, "Shift rasters north by this many degrees, e.g. 0.0005")
	f.StringP("plot", "p", "", "Write lon lat height .xyz files with this prefix instead of contours")
}
