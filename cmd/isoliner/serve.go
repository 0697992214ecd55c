package main

import (
	"net/http"
	"time"

	"github.com/hauke96/sigolo/v2"
	"github.com/spf13/cobra"

	"github.com/pavletto/isoliner/elevation"
)

const (
	readTimeout  = 5 * time.Second
	writeTimeout = 10 * time.Second
	idleTimeout  = 120 * time.Second
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start HTTP API server",
	Long: `Start an HTTP server answering height queries from local rasters:
  - /height?lat=..&lon=.. - terrain elevation at a location
  - /health - health check endpoint`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := LoadConfig(cmd)
		if err != nil {
			return err
		}
		store, err := cfg.CreateStore()
		if err != nil {
			return err
		}
		s := &elevation.Server{Store: store}

		opts, err := newSettings(cmd)
		if err != nil {
			return err
		}
		addr := opts.String("addr")

		srv := &http.Server{
			Addr:         addr,
			Handler:      s.Routes(),
			ReadTimeout:  readTimeout,
			WriteTimeout: writeTimeout,
			IdleTimeout:  idleTimeout,
		}
		sigolo.Infof("Starting server on %s", addr)
		sigolo.Infof("  Raster dir: %s", cfg.HgtDir)
		return srv.ListenAndServe()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("addr", "a", ":8080", "Address to listen on")
}
