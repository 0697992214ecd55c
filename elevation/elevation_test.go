package elevation_test

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/pavletto/isoliner/elevation"
)

const size = 1201

// writeRamp writes N45E006.hgt whose height is row+col, with a void
// sample at row 0, col 0.
func writeRamp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	buf := make([]byte, 2*size*size)
	for r := 0; r < size; r++ {
		for c := 0; c < size; c++ {
			h := int16(r + c)
			if r == 0 && c == 0 {
				h = -32768
			}
			binary.BigEndian.PutUint16(buf[2*(r*size+c):], uint16(h))
		}
	}
	if err := os.WriteFile(filepath.Join(dir, "N45E006.hgt"), buf, 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func newStore(t *testing.T) *elevation.Store {
	t.Helper()
	store, err := elevation.NewStore(elevation.StoreConfig{Dir: writeRamp(t), VoidMax: -32768})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return store
}

func TestPickHeight(t *testing.T) {
	store := newStore(t)

	tests := []struct {
		name     string
		lat, lon float64
		want     float64
	}{
		{"south west corner", 45, 6, 1200},
		{"north east corner", 46, 7, 1200},
		{"north edge", 46, 6.5, 600},
		{"east edge", 45.5, 7, 1800},
		{"center", 45.5, 6.5, 1200},
		{"between samples", 45 + 1199.5/1200, 6 + 10.25/1200, 0.5 + 10.25},
		{"next to void", 46 - 0.5/1200, 6 + 0.5/1200, (1 + 1 + 2) / 3.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := elevation.PickHeight(context.Background(), store, elevation.HeightRequest{Lat: tt.lat, Lon: tt.lon})
			if err != nil {
				t.Fatalf("PickHeight: %v", err)
			}
			if math.Abs(res.Height-tt.want) > 1e-6 {
				t.Errorf("height %v, want %v", res.Height, tt.want)
			}
			if n := res.Ellipsoidal - res.Height; n == 0 || math.Abs(n) > 110 {
				t.Errorf("geoid undulation %v out of range", n)
			}
			if res.Meta.Tile != "N45E006" || res.Meta.GridSize != size {
				t.Errorf("meta %+v", res.Meta)
			}
		})
	}
}

func TestStore_Cache(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	_, meta, err := store.Height(ctx, 45.2, 6.2)
	if err != nil {
		t.Fatalf("Height: %v", err)
	}
	if meta.Source != "disk" {
		t.Errorf("first lookup from %s", meta.Source)
	}
	_, meta, err = store.Height(ctx, 45.3, 6.3)
	if err != nil {
		t.Fatalf("Height: %v", err)
	}
	if meta.Source != "mem-cache" {
		t.Errorf("second lookup from %s", meta.Source)
	}
}

func TestPickHeight_Errors(t *testing.T) {
	store := newStore(t)
	for _, req := range []elevation.HeightRequest{
		{Lat: 10, Lon: 10},  // no raster
		{Lat: 91, Lon: 6},   // out of range
		{Lat: 45, Lon: 181}, // out of range
	} {
		if _, err := elevation.PickHeight(context.Background(), store, req); err == nil {
			t.Errorf("PickHeight(%+v) succeeded", req)
		}
	}
	if _, err := elevation.PickHeight(context.Background(), nil, elevation.HeightRequest{}); err == nil {
		t.Error("nil store accepted")
	}
	if _, err := elevation.NewStore(elevation.StoreConfig{Dir: filepath.Join(t.TempDir(), "missing")}); err == nil {
		t.Error("missing directory accepted")
	}
}

func TestServer(t *testing.T) {
	srv := httptest.NewServer((&elevation.Server{Store: newStore(t)}).Routes())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/height?lat=45.5&lon=6.5")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	var body elevation.HeightResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Height != 1200 || body.Tile != "N45E006" || body.TileSource != "disk" {
		t.Errorf("body %+v", body)
	}

	for _, q := range []string{"lat=x&lon=6", "lat=45&lon="} {
		r, err := http.Get(srv.URL + "/height?" + q)
		if err != nil {
			t.Fatal(err)
		}
		r.Body.Close()
		if r.StatusCode != http.StatusBadRequest {
			t.Errorf("%s: status %d", q, r.StatusCode)
		}
	}

	r, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	r.Body.Close()
	if r.StatusCode != http.StatusOK {
		t.Errorf("health status %d", r.StatusCode)
	}
}
