package contour

import "github.com/paulmach/orb"

// Stitch joins open lines of adjacent grids whose endpoints coincide. Lines
// keep their uphill-left orientation across grid seams, so an end is only
// ever joined to the start of another line of the same level. Closed lines
// pass through unchanged; lines that meet themselves become closed.
func Stitch(lines []Line) []Line {
	type endKey struct {
		level int
		p     pointKey
	}

	starts := make(map[endKey][]int)
	for i, l := range lines {
		if !l.Closed {
			k := endKey{l.Level, keyOf(l.Points[0])}
			starts[k] = append(starts[k], i)
		}
	}
	ends := make(map[endKey][]int)
	for i, l := range lines {
		if !l.Closed {
			k := endKey{l.Level, keyOf(l.Points[len(l.Points)-1])}
			ends[k] = append(ends[k], i)
		}
	}

	used := make([]bool, len(lines))
	pick := func(idx []int) int {
		for _, j := range idx {
			if !used[j] {
				return j
			}
		}
		return -1
	}

	out := make([]Line, 0, len(lines))
	for i, l := range lines {
		if used[i] {
			continue
		}
		used[i] = true
		if l.Closed {
			out = append(out, l)
			continue
		}

		pts := append(orb.LineString(nil), l.Points...)
		closed := false
		for {
			tail := pts[len(pts)-1]
			j := pick(starts[endKey{l.Level, keyOf(tail)}])
			if j < 0 {
				break
			}
			used[j] = true
			pts = append(pts, lines[j].Points[1:]...)
			if keyOf(pts[len(pts)-1]) == keyOf(pts[0]) {
				closed = true
				break
			}
		}
		for !closed {
			j := pick(ends[endKey{l.Level, keyOf(pts[0])}])
			if j < 0 {
				break
			}
			used[j] = true
			prev := lines[j].Points
			pts = append(append(orb.LineString(nil), prev[:len(prev)-1]...), pts...)
		}
		if !closed && len(pts) > 2 && keyOf(pts[len(pts)-1]) == keyOf(pts[0]) {
			closed = true
		}
		if closed {
			pts[len(pts)-1] = pts[0]
			if distinct(pts) < 3 {
				continue
			}
		}
		out = append(out, Line{Level: l.Level, Points: pts, Closed: closed})
	}
	return out
}
