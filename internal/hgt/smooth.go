package hgt

import (
	"bufio"
	"fmt"
	"io"
	"math"

	"golang.org/x/image/draw"
)

// MaxSmoothSize bounds the samples per side a resampled grid may have.
const MaxSmoothSize = 10*(size1-1) + 1

// Smooth resamples the grid by ratio with a Catmull-Rom kernel and rounds the
// result to whole meters. The corner samples stay on the raster corners, so
// neighbouring rasters resampled by the same ratio still share their edges.
// A new sample is void when its nearest source sample is void; void source
// samples never contribute to a valid one.
func (g *Grid) Smooth(ratio float64) (*Grid, error) {
	if ratio <= 0 || math.IsNaN(ratio) || math.IsInf(ratio, 0) {
		return nil, fmt.Errorf("smooth ratio must be positive, got %g", ratio)
	}
	if ratio == 1 {
		return g, nil
	}
	size := int(math.Round(float64(g.Size-1)*ratio)) + 1
	if size < 2 || size > MaxSmoothSize {
		return nil, fmt.Errorf("smooth ratio %g gives %d samples per side, want 2 to %d", ratio, size, MaxSmoothSize)
	}

	taps := kernelTaps(g.Size, size)
	out := make([]int16, size*size)
	for r := 0; r < size; r++ {
		tr := taps[r]
		for c := 0; c < size; c++ {
			tc := taps[c]
			near, ok := g.HeightAt(tr.nearest, tc.nearest)
			if !ok {
				out[r*size+c] = g.VoidMax
				continue
			}
			var sum, wsum float64
			for i, sr := range tr.idx {
				for j, sc := range tc.idx {
					w := tr.w[i] * tc.w[j]
					if w == 0 {
						continue
					}
					h, ok := g.HeightAt(sr, sc)
					if !ok {
						continue
					}
					sum += w * float64(h)
					wsum += w
				}
			}
			if wsum <= 0 {
				out[r*size+c] = near
				continue
			}
			out[r*size+c] = g.sample(sum / wsum)
		}
	}
	return New(g.Name, g.MinLat, g.MinLon, size, out, g.VoidMax)
}

// sample rounds an interpolated height into a valid int16 sample.
func (g *Grid) sample(v float64) int16 {
	v = math.Round(v)
	if v > math.MaxInt16 {
		v = math.MaxInt16
	}
	if lo := float64(g.VoidMax) + 1; v < lo {
		v = lo
	}
	return int16(v)
}

// tap lists the source samples contributing to one resampled index.
type tap struct {
	idx     [4]int
	w       [4]float64
	nearest int
}

// kernelTaps maps every index of a size m axis onto a size n axis with the
// end points aligned. Indices beyond the edge repeat the edge sample.
func kernelTaps(n, m int) []tap {
	k := draw.CatmullRom
	out := make([]tap, m)
	scale := float64(n-1) / float64(m-1)
	for i := range out {
		x := float64(i) * scale
		if i == m-1 {
			x = float64(n - 1)
		}
		base := int(math.Floor(x)) - 1
		t := &out[i]
		t.nearest = clampIndex(int(math.Round(x)), n)
		for j := range t.idx {
			src := base + j
			d := math.Abs(x - float64(src))
			t.idx[j] = clampIndex(src, n)
			if d < k.Support {
				t.w[j] = k.At(d)
			}
		}
	}
	return out
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// Shifted returns the grid moved by dLon, dLat degrees. Samples are shared.
func (g *Grid) Shifted(dLon, dLat float64) *Grid {
	if dLon == 0 && dLat == 0 {
		return g
	}
	s := *g
	s.MinLon += dLon
	s.MinLat += dLat
	return &s
}

// WriteXYZ writes one "lon lat height" line per valid sample, north to south
// and west to east. Heights are multiplied by scale and truncated.
func (g *Grid) WriteXYZ(w io.Writer, scale float64) error {
	bw := bufio.NewWriter(w)
	for r := 0; r < g.Size; r++ {
		for c := 0; c < g.Size; c++ {
			h, ok := g.HeightAt(r, c)
			if !ok {
				continue
			}
			lon, lat := g.GeoOf(float64(r), float64(c))
			if _, err := fmt.Fprintf(bw, "%.7f %.7f %d\n", lon, lat, int(float64(h)*scale)); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}
