package elevation_test

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/pavletto/isoliner/elevation"
)

// ExamplePickHeight looks up a height outside of the HTTP handlers, as a
// batch job or another service would.
func ExamplePickHeight() {
	store, err := elevation.NewStore(elevation.StoreConfig{Dir: "./srtm", VoidMax: -32768})
	if err != nil {
		log.Printf("Failed to create store: %v", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for _, p := range [][2]float64{{45.8326, 6.8652}, {46.5586, 7.9848}} {
		result, err := elevation.PickHeight(ctx, store, elevation.HeightRequest{Lat: p[0], Lon: p[1]})
		if err != nil {
			log.Printf("Height lookup failed: %v", err)
			continue
		}
		fmt.Printf("Height at (%.6f, %.6f): %.2f meters, tile %s\n", result.Lat, result.Lon, result.Height, result.Meta.Tile)
	}
}
