package main

import (
	"os"
	"strings"

	"github.com/hauke96/sigolo/v2"
	"github.com/spf13/cobra"

	"github.com/pavletto/isoliner/internal/hgt"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "isoliner",
	Short: "Contour lines from SRTM rasters as OSM tiles",
	Long: `Isoliner traces elevation contours from SRTM .hgt rasters and writes them
as OpenStreetMap data, one file per tile, in osm, o5m or pbf format.

It also answers point height queries from the same rasters, on the command
line or over HTTP.

Every option can be given as a flag, as an ISOLINER_* environment variable
or in a YAML/TOML file passed with --config, in that order of precedence.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSettings(cmd)
		if err != nil {
			return err
		}
		return setLogLevel(s.String("log-level"))
	},
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()

	if err != nil {
		os.Exit(1)
	}
}

func setLogLevel(level string) error {
	switch strings.ToLower(level) {
	case "trace":
		sigolo.SetDefaultLogLevel(sigolo.LOG_TRACE)
	case "debug":
		sigolo.SetDefaultLogLevel(sigolo.LOG_DEBUG)
	case "info", "":
		sigolo.SetDefaultLogLevel(sigolo.LOG_INFO)
	case "error":
		sigolo.SetDefaultLogLevel(sigolo.LOG_ERROR)
	default:
		return errUsage("unknown log level %q", level)
	}
	return nil
}

func init() {
	globalFlags(rootCmd)
}

func globalFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().String("config", "", "YAML or TOML config file")
	cmd.PersistentFlags().String("log-level", "info", "Log level: trace, debug, info or error")
	cmd.PersistentFlags().String("hgt-dir", ".", "Directory holding .hgt rasters")
	cmd.PersistentFlags().Int("void-max", int(hgt.VoidValue), "Samples at or below this height are no-data")
}
