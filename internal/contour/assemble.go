package contour

import (
	"math"
	"sort"

	"github.com/paulmach/orb"
)

// Stats summarises one assembly run.
type Stats struct {
	Segments int
	Closed   int
	Open     int
	Problems []*GeometryError
}

// Assemble links the raw segments of one grid into polylines. Segments are
// joined end to start by quantized endpoints within the same level. A chain
// returning to its first point is closed; anything else is emitted open.
func Assemble(segs []Segment) ([]Line, Stats) {
	st := Stats{Segments: len(segs)}

	var levels []int
	groups := make(map[int][]Segment)
	for _, s := range segs {
		if _, ok := groups[s.Level]; !ok {
			levels = append(levels, s.Level)
		}
		groups[s.Level] = append(groups[s.Level], s)
	}
	sort.Ints(levels)

	var lines []Line
	for _, l := range levels {
		lines = assembleLevel(lines, l, groups[l], &st)
	}
	return lines, st
}

type chainer struct {
	level  int
	segs   []Segment
	used   []bool
	starts map[pointKey][]int
	ends   map[pointKey][]int
	st     *Stats
}

func assembleLevel(out []Line, level int, segs []Segment, st *Stats) []Line {
	ch := &chainer{
		level:  level,
		segs:   segs,
		used:   make([]bool, len(segs)),
		starts: make(map[pointKey][]int, len(segs)),
		ends:   make(map[pointKey][]int, len(segs)),
		st:     st,
	}
	for i, s := range segs {
		ch.starts[keyOf(s.A)] = append(ch.starts[keyOf(s.A)], i)
		ch.ends[keyOf(s.B)] = append(ch.ends[keyOf(s.B)], i)
	}

	for i := range segs {
		if ch.used[i] {
			continue
		}
		ch.used[i] = true
		pts := orb.LineString{segs[i].A, segs[i].B}
		closed := false

		for {
			last := pts[len(pts)-1]
			j := ch.next(ch.starts[keyOf(last)], pts[len(pts)-2], last, false)
			if j < 0 {
				break
			}
			ch.used[j] = true
			if keyOf(segs[j].B) == keyOf(pts[0]) {
				pts = append(pts, pts[0])
				closed = true
				break
			}
			pts = append(pts, segs[j].B)
		}

		if !closed {
			var head []orb.Point
			first, second := pts[0], pts[1]
			for {
				j := ch.next(ch.ends[keyOf(first)], second, first, true)
				if j < 0 {
					break
				}
				ch.used[j] = true
				head = append(head, segs[j].A)
				second, first = first, segs[j].A
			}
			if len(head) > 0 {
				rev := make(orb.LineString, 0, len(head)+len(pts))
				for k := len(head) - 1; k >= 0; k-- {
					rev = append(rev, head[k])
				}
				pts = append(rev, pts...)
			}
			if len(pts) > 2 && keyOf(pts[0]) == keyOf(pts[len(pts)-1]) {
				pts[len(pts)-1] = pts[0]
				closed = true
			}
		}

		if closed && distinct(pts) < 3 {
			st.Problems = append(st.Problems, &GeometryError{Level: level, At: pts[0], Reason: "degenerate ring emitted open"})
			pts, closed = pts[:len(pts)-1], false
		}
		if closed {
			st.Closed++
		} else {
			st.Open++
		}
		out = append(out, Line{Level: level, Points: pts, Closed: closed})
	}
	return out
}

// next picks the unused segment continuing the chain at `at`. With several
// candidates the one turning least from the heading prev->at wins.
func (ch *chainer) next(cands []int, prev, at orb.Point, backward bool) int {
	best, bestCos, n := -1, math.Inf(-1), 0
	for _, j := range cands {
		if ch.used[j] {
			continue
		}
		n++
		s := ch.segs[j]
		d := orb.Point{s.B[0] - s.A[0], s.B[1] - s.A[1]}
		if backward {
			d = orb.Point{-d[0], -d[1]}
		}
		c := cosAngle(orb.Point{at[0] - prev[0], at[1] - prev[1]}, d)
		if c > bestCos {
			best, bestCos = j, c
		}
	}
	if n > 1 {
		ch.st.Problems = append(ch.st.Problems, &GeometryError{Level: ch.level, At: at, Reason: "ambiguous junction"})
	}
	return best
}

func cosAngle(u, v orb.Point) float64 {
	nu := math.Hypot(u[0], u[1])
	nv := math.Hypot(v[0], v[1])
	if nu == 0 || nv == 0 {
		return -1
	}
	return (u[0]*v[0] + u[1]*v[1]) / (nu * nv)
}
