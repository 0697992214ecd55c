package contour

import (
	"math"
	"sort"

	"github.com/paulmach/orb"
	"github.com/pkg/errors"

	"github.com/pavletto/isoliner/internal/hgt"
)

// FeetPerMeter converts heights for feet levels.
const FeetPerMeter = 1.0 / 0.3048

// TraceOptions select the levels to trace.
type TraceOptions struct {
	Step   int  // level spacing, > 0
	NoZero bool // skip level 0
	Feet   bool // trace in feet instead of meters
}

// Levels returns the multiples of step strictly between lo and hi. A level
// equal to the extreme height would only outline single samples.
func Levels(lo, hi float64, step int, noZero bool) []int {
	if step <= 0 || hi <= lo {
		return nil
	}
	s := float64(step)
	var out []int
	for k := math.Floor(lo/s) + 1; k*s < hi; k++ {
		l := int(k) * step
		if noZero && l == 0 {
			continue
		}
		out = append(out, l)
	}
	return out
}

// cell corners, clockwise from north-west
const (
	cTL = iota
	cTR
	cBR
	cBL
)

// cell edges
const (
	eT = iota // TL -> TR
	eR        // TR -> BR
	eB        // BL -> BR
	eL        // TL -> BL
)

var edgeEnds = [4][2]int{
	eT: {cTL, cTR},
	eR: {cTR, cBR},
	eB: {cBL, cBR},
	eL: {cTL, cBL},
}

// rule connects two crossed edges; ref is a corner strictly below the level
// that must end up on the right of the oriented segment.
type rule struct {
	e1, e2, ref int
}

// cases are indexed by corner bits TL=8, TR=4, BR=2, BL=1 (set = above).
// Saddles (5, 10) are resolved separately.
var cases = [16][]rule{
	1:  {{eL, eB, cTL}},
	2:  {{eB, eR, cTL}},
	3:  {{eL, eR, cTL}},
	4:  {{eT, eR, cTL}},
	6:  {{eT, eB, cTL}},
	7:  {{eT, eL, cTL}},
	8:  {{eT, eL, cBR}},
	9:  {{eT, eB, cTR}},
	11: {{eT, eR, cTR}},
	12: {{eL, eR, cBL}},
	13: {{eB, eR, cBR}},
	14: {{eL, eB, cBL}},
}

// saddles[case][0] applies when the cell center is below the level and the
// two below corners are joined through the center; [1] applies when it is
// above and the two above corners are joined instead.
var saddles = map[int][2][]rule{
	5: {
		{{eT, eR, cTL}, {eL, eB, cTL}},
		{{eT, eL, cTL}, {eB, eR, cBR}},
	},
	10: {
		{{eT, eL, cTR}, {eB, eR, cTR}},
		{{eT, eR, cTR}, {eL, eB, cBL}},
	},
}

// Trace produces the raw segments of every level in Levels of the grid's
// height range. Cells
// touching a no-data sample are skipped. Segments come out grouped by
// ascending level, cells in row-major order within a level.
func Trace(g *hgt.Grid, opts TraceOptions) ([]Segment, error) {
	if opts.Step <= 0 {
		return nil, errors.Errorf("contour step must be positive, got %d", opts.Step)
	}
	scale := 1.0
	if opts.Feet {
		scale = FeetPerMeter
	}
	step := float64(opts.Step)
	lo16, hi16, ok := g.Range()
	if !ok {
		return nil, nil
	}
	gLo, gHi := float64(lo16)*scale, float64(hi16)*scale

	byLevel := make(map[int][]Segment)
	var h [4]float64
	var geo [4]orb.Point

	for r := 0; r < g.Size-1; r++ {
		for c := 0; c < g.Size-1; c++ {
			if !cellHeights(g, r, c, scale, &h) {
				continue
			}
			lo, hi := h[0], h[0]
			for _, v := range h[1:] {
				lo = math.Min(lo, v)
				hi = math.Max(hi, v)
			}
			first := math.Floor(lo/step) + 1
			if first*step > hi {
				continue
			}
			cellGeo(g, r, c, &geo)
			for k := first; k*step <= hi; k++ {
				level := int(k) * opts.Step
				if l := float64(level); l <= gLo || l >= gHi {
					continue
				}
				if opts.NoZero && level == 0 {
					continue
				}
				byLevel[level] = traceCell(byLevel[level], level, &h, &geo)
			}
		}
	}

	levels := make([]int, 0, len(byLevel))
	for l := range byLevel {
		levels = append(levels, l)
	}
	sort.Ints(levels)

	var out []Segment
	for _, l := range levels {
		out = append(out, byLevel[l]...)
	}
	return out, nil
}

func cellHeights(g *hgt.Grid, r, c int, scale float64, h *[4]float64) bool {
	idx := [4][2]int{cTL: {r, c}, cTR: {r, c + 1}, cBR: {r + 1, c + 1}, cBL: {r + 1, c}}
	for i, rc := range idx {
		v, ok := g.HeightAt(rc[0], rc[1])
		if !ok {
			return false
		}
		h[i] = float64(v) * scale
	}
	return true
}

func cellGeo(g *hgt.Grid, r, c int, geo *[4]orb.Point) {
	rf, cf := float64(r), float64(c)
	idx := [4][2]float64{cTL: {rf, cf}, cTR: {rf, cf + 1}, cBR: {rf + 1, cf + 1}, cBL: {rf + 1, cf}}
	for i, rc := range idx {
		lon, lat := g.GeoOf(rc[0], rc[1])
		geo[i] = orb.Point{lon, lat}
	}
}

// traceCell emits the segments of one level inside one cell. A sample lying
// exactly on the level counts as above it, so a crossing next to it lands on
// the sample itself and neighbouring cells agree on that point bit for bit.
func traceCell(out []Segment, level int, h *[4]float64, geo *[4]orb.Point) []Segment {
	l := float64(level)
	idx := 0
	for i, v := range h {
		if v >= l {
			idx |= 8 >> i
		}
	}

	rules := cases[idx]
	if pair, ok := saddles[idx]; ok {
		center := (h[0] + h[1] + h[2] + h[3]) / 4
		rules = pair[0]
		if center >= l {
			rules = pair[1]
		}
	}

	for _, ru := range rules {
		a := crossing(ru.e1, l, h, geo)
		b := crossing(ru.e2, l, h, geo)
		if a == b {
			continue
		}
		ref := geo[ru.ref]
		if cross(a, b, ref) > 0 {
			a, b = b, a
		}
		out = append(out, Segment{Level: level, A: a, B: b})
	}
	return out
}

// crossing interpolates the level position along an edge whose ends lie on
// opposite sides of it. An end on the level is returned as is.
func crossing(edge int, l float64, h *[4]float64, geo *[4]orb.Point) orb.Point {
	i0, i1 := edgeEnds[edge][0], edgeEnds[edge][1]
	h0, h1 := h[i0], h[i1]
	p0, p1 := geo[i0], geo[i1]
	switch {
	case h0 == l:
		return p0
	case h1 == l:
		return p1
	}
	t := (l - h0) / (h1 - h0)
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return orb.Point{p0[0] + t*(p1[0]-p0[0]), p0[1] + t*(p1[1]-p0[1])}
}

// cross is the z component of (b-a) x (c-a); positive when c is left of a->b.
func cross(a, b, c orb.Point) float64 {
	return (b[0]-a[0])*(c[1]-a[1]) - (b[1]-a[1])*(c[0]-a[0])
}
