package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pavletto/isoliner/elevation"
)

// heightCmd represents the height command
var heightCmd = &cobra.Command{
	Use:   "height",
	Short: "Get terrain elevation at a location",
	Long: `Get terrain elevation at a specific geographic coordinate from local
.hgt rasters, interpolated between the surrounding samples.

Examples:
  isoliner height --lat 45.83 --lon 6.86
  isoliner height --lat 45.83 --lon 6.86 --hgt-dir /data/srtm

The height is printed above mean sea level and above the WGS84 ellipsoid.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		lat, _ := cmd.Flags().GetFloat64("lat")
		lon, _ := cmd.Flags().GetFloat64("lon")

		cfg, err := LoadConfig(cmd)
		if err != nil {
			return err
		}
		store, err := cfg.CreateStore()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		result, err := elevation.PickHeight(ctx, store, elevation.HeightRequest{Lat: lat, Lon: lon})
		if err != nil {
			return err
		}

		fmt.Printf("Location: %.6f, %.6f\n", result.Lat, result.Lon)
		fmt.Printf("Elevation: %.2f meters (MSL)\n", result.Height)
		fmt.Printf("Ellipsoidal: %.2f meters (WGS84)\n", result.Ellipsoidal)
		fmt.Printf("Tile: %s\n", result.Meta.Tile)
		fmt.Printf("Grid Size: %d\n", result.Meta.GridSize)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(heightCmd)

	heightCmd.Flags().Float64("lat", 0, "Latitude (required)")
	heightCmd.Flags().Float64("lon", 0, "Longitude (required)")
	heightCmd.MarkFlagRequired("lat")
	heightCmd.MarkFlagRequired("lon")
}
