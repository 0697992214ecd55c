package elevation

import (
	"context"
	"fmt"

	"github.com/westphae/geomag/pkg/egm96"
)

// HeightRequest contains parameters for height lookup
type HeightRequest struct {
	Lat float64
	Lon float64
}

// HeightResult contains the result of height lookup
type HeightResult struct {
	Lat         float64
	Lon         float64
	Height      float64 // above mean sea level, as sampled
	Ellipsoidal float64 // above the WGS84 ellipsoid via EGM96
	Meta        Meta
}

// PickHeight retrieves elevation at a specific location. It is shared by the
// HTTP handlers and the CLI.
func PickHeight(ctx context.Context, store *Store, req HeightRequest) (HeightResult, error) {
	if store == nil {
		return HeightResult{}, fmt.Errorf("store is nil")
	}
	if req.Lat < -90 || req.Lat > 90 || req.Lon < -180 || req.Lon > 180 {
		return HeightResult{}, fmt.Errorf("coordinate %.6f,%.6f out of range", req.Lat, req.Lon)
	}

	h, meta, err := store.Height(ctx, req.Lat, req.Lon)
	if err != nil {
		return HeightResult{}, fmt.Errorf("height lookup failed: %w", err)
	}

	return HeightResult{
		Lat:         req.Lat,
		Lon:         req.Lon,
		Height:      h,
		Ellipsoidal: h + undulation(req.Lat, req.Lon),
		Meta:        meta,
	}, nil
}

// undulation is the geoid height N above the ellipsoid. A point on the
// ellipsoid sits -N above mean sea level.
func undulation(lat, lon float64) float64 {
	loc := egm96.NewLocationGeodetic(lat, lon, 0)
	hMSL, err := loc.HeightAboveMSL()
	if err != nil {
		return 0
	}
	return -hMSL
}
