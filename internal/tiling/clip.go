package tiling

import (
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/pavletto/isoliner/internal/area"
	"github.com/pavletto/isoliner/internal/contour"
)

// clipToBound cuts l, whose bound is lb, to b. Edge crossings are inserted first, computed from
// the unclipped segment, so a tile and its neighbour produce the same seam
// vertex bit for bit. After that every segment lies wholly inside or wholly
// outside b and clipping reduces to keeping the inside runs.
func clipToBound(l contour.Line, lb, b orb.Bound) []contour.Line {
	if !lb.Intersects(b) {
		return nil
	}
	if b.Contains(lb.Min) && b.Contains(lb.Max) {
		return []contour.Line{l}
	}
	pts := splitAtEdges(l.Points, b)
	return pieces(l, insideRuns(pts, b.Contains))
}

type cut struct {
	t float64
	p orb.Point
}

// splitAtEdges inserts a vertex wherever a segment strictly crosses one of
// the four lines carrying the edges of b.
func splitAtEdges(ls orb.LineString, b orb.Bound) orb.LineString {
	out := make(orb.LineString, 0, len(ls)+8)
	out = append(out, ls[0])
	var cuts []cut
	for i := 1; i < len(ls); i++ {
		a, c := ls[i-1], ls[i]
		cuts = cuts[:0]
		for _, x := range [2]float64{b.Min[0], b.Max[0]} {
			if (a[0] < x && x < c[0]) || (c[0] < x && x < a[0]) {
				t := (x - a[0]) / (c[0] - a[0])
				cuts = append(cuts, cut{t, orb.Point{x, a[1] + t*(c[1]-a[1])}})
			}
		}
		for _, y := range [2]float64{b.Min[1], b.Max[1]} {
			if (a[1] < y && y < c[1]) || (c[1] < y && y < a[1]) {
				t := (y - a[1]) / (c[1] - a[1])
				cuts = append(cuts, cut{t, orb.Point{a[0] + t*(c[0]-a[0]), y}})
			}
		}
		out = appendCuts(out, cuts)
		out = append(out, c)
	}
	return out
}

func appendCuts(out orb.LineString, cuts []cut) orb.LineString {
	sort.Slice(cuts, func(i, j int) bool { return cuts[i].t < cuts[j].t })
	for _, k := range cuts {
		if k.p != out[len(out)-1] {
			out = append(out, k.p)
		}
	}
	return out
}

// insideRuns keeps maximal runs of segments whose midpoint is inside.
func insideRuns(pts orb.LineString, inside func(orb.Point) bool) orb.MultiLineString {
	var (
		runs orb.MultiLineString
		cur  orb.LineString
	)
	for i := 1; i < len(pts); i++ {
		a, c := pts[i-1], pts[i]
		if a == c {
			continue
		}
		if inside(orb.Point{(a[0] + c[0]) / 2, (a[1] + c[1]) / 2}) {
			if len(cur) == 0 {
				cur = append(cur, a)
			}
			cur = append(cur, c)
			continue
		}
		if len(cur) > 0 {
			runs = append(runs, cur)
			cur = nil
		}
	}
	if len(cur) > 0 {
		runs = append(runs, cur)
	}
	return runs
}

// pieces turns runs into lines. When a ring was cut, the runs before and
// after its start point are rejoined into one.
func pieces(l contour.Line, runs orb.MultiLineString) []contour.Line {
	if len(runs) == 0 {
		return nil
	}
	if len(runs) == 1 && len(runs[0]) == len(l.Points) {
		return []contour.Line{l}
	}
	if l.Closed && len(runs) > 1 {
		first, last := runs[0], runs[len(runs)-1]
		if first[0] == l.Points[0] && last[len(last)-1] == l.Points[len(l.Points)-1] {
			joined := append(last, first[1:]...)
			runs = append(orb.MultiLineString{joined}, runs[1:len(runs)-1]...)
		}
	}
	out := make([]contour.Line, 0, len(runs))
	for _, ls := range runs {
		out = append(out, contour.Line{Level: l.Level, Points: ls})
	}
	return out
}

// polyEdge is one boundary edge of the clip polygon.
type polyEdge struct {
	a, b  orb.Point
	bound orb.Bound
}

// polygonClipper keeps the parts of lines inside a multipolygon. Only the
// boundary edges near the current tile are tested.
type polygonClipper struct {
	mp    orb.MultiPolygon
	edges []polyEdge
}

func newPolygonClipper(r area.Region, b orb.Bound) *polygonClipper {
	pc := &polygonClipper{mp: r.Polygon}
	for _, poly := range r.Polygon {
		for _, ring := range poly {
			for i := 1; i < len(ring); i++ {
				eb := orb.MultiPoint{ring[i-1], ring[i]}.Bound()
				if eb.Intersects(b) {
					pc.edges = append(pc.edges, polyEdge{ring[i-1], ring[i], eb})
				}
			}
		}
	}
	return pc
}

func (pc *polygonClipper) inside(p orb.Point) bool {
	return planar.MultiPolygonContains(pc.mp, p)
}

// clip returns the runs of l lying inside the polygon.
func (pc *polygonClipper) clip(l contour.Line) []contour.Line {
	if len(pc.edges) == 0 {
		// no boundary near this tile: all in or all out
		if pc.inside(l.Points[0]) {
			return []contour.Line{l}
		}
		return nil
	}
	pts := make(orb.LineString, 0, len(l.Points))
	pts = append(pts, l.Points[0])
	var cuts []cut
	for i := 1; i < len(l.Points); i++ {
		a, c := l.Points[i-1], l.Points[i]
		cuts = pc.crossings(cuts[:0], a, c)
		pts = appendCuts(pts, cuts)
		if c != pts[len(pts)-1] {
			pts = append(pts, c)
		}
	}
	return pieces(l, insideRuns(pts, pc.inside))
}

func (pc *polygonClipper) crossings(cuts []cut, a, c orb.Point) []cut {
	sb := orb.MultiPoint{a, c}.Bound()
	for _, e := range pc.edges {
		if !e.bound.Intersects(sb) {
			continue
		}
		if t, ok := area.SegmentIntersection(a, c, e.a, e.b); ok && t > 0 && t < 1 {
			cuts = append(cuts, cut{t, orb.Point{a[0] + t*(c[0]-a[0]), a[1] + t*(c[1]-a[1])}})
		}
	}
	return cuts
}
