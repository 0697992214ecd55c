// Package area describes the geographic region a run covers: either a plain
// lon/lat rectangle or a boundary polygon read from a file.
package area

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/pkg/errors"
)

// Region is the requested output area. Polygon is nil for rectangles.
type Region struct {
	Bound   orb.Bound
	Polygon orb.MultiPolygon
}

// ParseBBox reads "minlon:minlat:maxlon:maxlat".
func ParseBBox(s string) (Region, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 4 {
		return Region{}, errors.Errorf("area %q: want minlon:minlat:maxlon:maxlat", s)
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return Region{}, errors.Wrapf(err, "area %q", s)
		}
		v[i] = f
	}
	r := Region{Bound: orb.Bound{Min: orb.Point{v[0], v[1]}, Max: orb.Point{v[2], v[3]}}}
	return r, r.validate()
}

// FromPolygon builds a polygon region.
func FromPolygon(mp orb.MultiPolygon) (Region, error) {
	if len(mp) == 0 {
		return Region{}, errors.New("area: empty polygon")
	}
	r := Region{Bound: mp.Bound(), Polygon: mp}
	return r, r.validate()
}

func (r Region) validate() error {
	b := r.Bound
	switch {
	case b.Min[0] >= b.Max[0] || b.Min[1] >= b.Max[1]:
		return errors.Errorf("area %s is empty", r)
	case b.Min[0] < -180 || b.Max[0] > 180 || b.Min[1] < -90 || b.Max[1] > 90:
		return errors.Errorf("area %s outside lon/lat range", r)
	}
	return nil
}

// IsPolygon reports whether the region has a boundary polygon.
func (r Region) IsPolygon() bool { return r.Polygon != nil }

// Intersects reports whether b overlaps the region. For polygons this is a
// conservative test: any ring vertex inside b, any corner of b inside the
// polygon, or any crossing edges.
func (r Region) Intersects(b orb.Bound) bool {
	if !r.Bound.Intersects(b) {
		return false
	}
	if r.Polygon == nil {
		return true
	}
	for _, c := range b.ToRing() {
		if planar.MultiPolygonContains(r.Polygon, c) {
			return true
		}
	}
	box := b.ToRing()
	for _, poly := range r.Polygon {
		for _, ring := range poly {
			for i := 1; i < len(ring); i++ {
				if b.Contains(ring[i]) {
					return true
				}
				for j := 1; j < len(box); j++ {
					if _, ok := SegmentIntersection(ring[i-1], ring[i], box[j-1], box[j]); ok {
						return true
					}
				}
			}
		}
	}
	return false
}

// Contains reports whether p lies in the region.
func (r Region) Contains(p orb.Point) bool {
	if r.Polygon == nil {
		return r.Bound.Contains(p)
	}
	return planar.MultiPolygonContains(r.Polygon, p)
}

func (r Region) String() string {
	b := r.Bound
	return fmt.Sprintf("%.7f:%.7f:%.7f:%.7f", b.Min[0], b.Min[1], b.Max[0], b.Max[1])
}

// SegmentIntersection returns the parameter t along p1->p2 at which it
// crosses q1->q2. Parallel segments never intersect.
func SegmentIntersection(p1, p2, q1, q2 orb.Point) (float64, bool) {
	rx, ry := p2[0]-p1[0], p2[1]-p1[1]
	sx, sy := q2[0]-q1[0], q2[1]-q1[1]
	den := rx*sy - ry*sx
	if den == 0 {
		return 0, false
	}
	qpx, qpy := q1[0]-p1[0], q1[1]-p1[1]
	t := (qpx*sy - qpy*sx) / den
	u := (qpx*ry - qpy*rx) / den
	if t < 0 || t > 1 || u < 0 || u > 1 {
		return 0, false
	}
	return t, true
}
