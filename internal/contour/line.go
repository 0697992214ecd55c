// Package contour traces iso-elevation lines on height grids and assembles
// them into polylines.
package contour

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// Segment is one raw piece of contour inside a single grid cell. Segments
// are oriented so that higher ground lies on the left of A->B.
type Segment struct {
	Level int
	A, B  orb.Point
}

// Line is an assembled contour polyline in lon/lat. A closed line repeats
// its first point as last point.
type Line struct {
	Level  int
	Points orb.LineString
	Closed bool
}

// GeometryError describes a chain that could not be assembled cleanly. It is
// informational: the chain is still emitted as an open line.
type GeometryError struct {
	Level  int
	At     orb.Point
	Reason string
}

func (e *GeometryError) Error() string {
	return fmt.Sprintf("contour %d at (%.7f, %.7f): %s", e.Level, e.At[0], e.At[1], e.Reason)
}

// quantum is the coordinate snapping used for endpoint matching (nanodegrees).
const quantum = 1e9

type pointKey struct {
	x, y int64
}

func keyOf(p orb.Point) pointKey {
	return pointKey{int64(math.Round(p[0] * quantum)), int64(math.Round(p[1] * quantum))}
}

// distinct counts points of a line ignoring the closing repetition.
func distinct(ls orb.LineString) int {
	seen := make(map[pointKey]struct{}, len(ls))
	for _, p := range ls {
		seen[keyOf(p)] = struct{}{}
	}
	return len(seen)
}
