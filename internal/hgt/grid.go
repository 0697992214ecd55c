// Package hgt decodes SRTM-style height rasters into addressable grids.
package hgt

import (
	"fmt"
	"math"
)

const (
	// VoidValue is the SRTM sentinel for missing samples.
	VoidValue = int16(-32768)

	size3 = 1201 // SRTM3, 3 arc-seconds
	size1 = 3601 // SRTM1, 1 arc-second
)

// FormatError reports a raster whose size or name does not match a known layout.
type FormatError struct {
	Path   string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("hgt: %s: %s", e.Path, e.Reason)
}

// Grid is one decoded raster: a square matrix of height samples covering a
// one-degree cell. Row 0 is the northern edge, column 0 the western edge.
// A Grid is never mutated after construction.
type Grid struct {
	Name    string
	MinLat  float64
	MinLon  float64
	Size    int     // samples per side
	Samples []int16 // Size*Size, row major
	VoidMax int16   // samples <= VoidMax are no-data
}

// New builds a grid from raw samples. size must be at least 2 and
// len(samples) must equal size*size.
func New(name string, minLat, minLon float64, size int, samples []int16, voidMax int16) (*Grid, error) {
	if size < 2 {
		return nil, &FormatError{Path: name, Reason: fmt.Sprintf("grid size %d too small", size)}
	}
	if len(samples) != size*size {
		return nil, &FormatError{Path: name, Reason: fmt.Sprintf("got %d samples, want %d", len(samples), size*size)}
	}
	return &Grid{
		Name:    name,
		MinLat:  minLat,
		MinLon:  minLon,
		Size:    size,
		Samples: samples,
		VoidMax: voidMax,
	}, nil
}

// Resolution returns the sample spacing in arc-seconds.
func (g *Grid) Resolution() float64 {
	return 3600 / float64(g.Size-1)
}

// HeightAt returns the sample at (row, col) and false when the sample is
// no-data or the index is outside the grid.
func (g *Grid) HeightAt(row, col int) (int16, bool) {
	if row < 0 || col < 0 || row >= g.Size || col >= g.Size {
		return VoidValue, false
	}
	h := g.Samples[row*g.Size+col]
	if h <= g.VoidMax {
		return h, false
	}
	return h, true
}

// GeoOf maps a (fractional) matrix index to longitude and latitude.
// Integral indexes on the last row or column land exactly on the cell edge.
func (g *Grid) GeoOf(row, col float64) (lon, lat float64) {
	n := float64(g.Size - 1)
	lon = g.MinLon + col/n
	lat = g.MinLat + (n-row)/n
	return lon, lat
}

// Range returns the lowest and highest valid samples. ok is false when the
// grid holds no valid sample at all.
func (g *Grid) Range() (lo, hi int16, ok bool) {
	lo, hi = math.MaxInt16, math.MinInt16
	for _, h := range g.Samples {
		if h <= g.VoidMax {
			continue
		}
		ok = true
		if h < lo {
			lo = h
		}
		if h > hi {
			hi = h
		}
	}
	return lo, hi, ok
}

// Bounds returns minLon, minLat, maxLon, maxLat of the raster.
func (g *Grid) Bounds() (minLon, minLat, maxLon, maxLat float64) {
	return g.MinLon, g.MinLat, g.MinLon + 1, g.MinLat + 1
}
