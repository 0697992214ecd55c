package contour

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/simplify"
)

// Simplify reduces points with Douglas-Peucker at tolerance eps (degrees).
// The endpoints of the line are always kept. A zero tolerance returns the
// line untouched. ok is false when a closed line collapses below three
// distinct points and should be discarded.
func Simplify(l Line, eps float64) (Line, bool) {
	if eps <= 0 || len(l.Points) <= 2 {
		return l, true
	}
	pts := simplify.DouglasPeucker(eps).LineString(l.Points.Clone())
	if l.Closed {
		if len(pts) < 4 || distinct(pts) < 3 {
			return l, false
		}
		pts[len(pts)-1] = pts[0]
	}
	return Line{Level: l.Level, Points: pts, Closed: l.Closed}, true
}

// Split cuts a line into runs of at most maxNodes points. Consecutive runs
// share their boundary point, so the pieces still join up. maxNodes below
// two disables splitting.
func Split(ls orb.LineString, maxNodes int) []orb.LineString {
	if maxNodes < 2 || len(ls) <= maxNodes {
		return []orb.LineString{ls}
	}
	var out []orb.LineString
	for i := 0; i < len(ls)-1; i += maxNodes - 1 {
		end := i + maxNodes
		if end > len(ls) {
			end = len(ls)
		}
		out = append(out, ls[i:end])
	}
	return out
}
