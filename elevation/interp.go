package elevation

import (
	"math"

	"github.com/pavletto/isoliner/internal/hgt"
)

// Pixel position inside a raster:
//   - columns west to east:  col = (lon - lon0) * (size-1)
//   - rows north to south:   row = (lat0+1 - lat) * (size-1)
func pixelCoords(g *hgt.Grid, lat, lon float64) (row0, col0 int, fy, fx float64) {
	n := float64(g.Size - 1)
	col := (lon - g.MinLon) * n
	row := (g.MinLat + 1 - lat) * n

	col0 = clamp(int(math.Floor(col)), 0, g.Size-2)
	row0 = clamp(int(math.Floor(row)), 0, g.Size-2)
	return row0, col0, row - float64(row0), col - float64(col0)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// heightAt interpolates bilinearly between the four surrounding samples.
// With void samples among them it falls back to the mean of the valid ones.
func heightAt(g *hgt.Grid, lat, lon float64) (float64, bool) {
	r, c, fy, fx := pixelCoords(g, lat, lon)

	var vals [4]float64
	var sum float64
	cnt := 0
	for i, rc := range [4][2]int{{r, c}, {r, c + 1}, {r + 1, c}, {r + 1, c + 1}} {
		h, ok := g.HeightAt(rc[0], rc[1])
		if !ok {
			continue
		}
		vals[i] = float64(h)
		sum += vals[i]
		cnt++
	}
	switch cnt {
	case 0:
		return 0, false
	case 4:
		return bilinear(vals[0], vals[1], vals[2], vals[3], fx, fy), true
	}
	return sum / float64(cnt), true
}

func bilinear(p00, p10, p01, p11 float64, fx, fy float64) float64 {
	// p00 = (row0,col0), p10 = (row0,col1), p01 = (row1,col0), p11 = (row1,col1)
	a := p00*(1-fx) + p10*fx
	b := p01*(1-fx) + p11*fx
	return a*(1-fy) + b*fy
}
