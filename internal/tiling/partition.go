package tiling

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/osm"
	"github.com/pkg/errors"

	"github.com/pavletto/isoliner/internal/area"
	"github.com/pavletto/isoliner/internal/contour"
)

// MinSpan is the smallest tile height adaptive splitting produces, one
// 3 arc second sample row.
const MinSpan = 1.0 / 1200

// Options control how an area is cut into tiles.
type Options struct {
	TileSize        float64 // tile edge in degrees; <= 0 means 1
	MaxNodesPerTile int64   // split tiles above this many nodes; 0 disables
	MaxNodesPerWay  int     // used to size way reservations; 0 disables splitting
	StartNodeID     osm.NodeID
	StartWayID      osm.WayID
}

// Partition cuts lines into tiles covering region, in south-to-north then
// west-to-east order. Tiles with no contour are omitted. Every returned tile
// carries a disjoint id reservation large enough for its lines, so workers
// never share a counter.
func Partition(lines []contour.Line, region area.Region, opts Options) ([]*Tile, error) {
	b := region.Bound
	if b.Min[0] >= b.Max[0] || b.Min[1] >= b.Max[1] {
		return nil, errors.Errorf("empty area %s", region)
	}
	if opts.MaxNodesPerWay == 1 {
		return nil, errors.New("max nodes per way must be 0 or at least 2")
	}
	ts := opts.TileSize
	if ts <= 0 {
		ts = 1
	}

	bounds := make([]orb.Bound, len(lines))
	for i, l := range lines {
		bounds[i] = l.Points.Bound()
	}

	i0, i1 := int(math.Floor(b.Min[0]/ts)), int(math.Ceil(b.Max[0]/ts))
	j0, j1 := int(math.Floor(b.Min[1]/ts)), int(math.Ceil(b.Max[1]/ts))

	var tiles []*Tile
	for j := j0; j < j1; j++ {
		for i := i0; i < i1; i++ {
			cell := orb.Bound{
				Min: orb.Point{math.Max(float64(i)*ts, b.Min[0]), math.Max(float64(j)*ts, b.Min[1])},
				Max: orb.Point{math.Min(float64(i+1)*ts, b.Max[0]), math.Min(float64(j+1)*ts, b.Max[1])},
			}
			if cell.Min[0] >= cell.Max[0] || cell.Min[1] >= cell.Max[1] || !region.Intersects(cell) {
				continue
			}

			var pc *polygonClipper
			if region.IsPolygon() {
				pc = newPolygonClipper(region, cell)
			}
			var sub []contour.Line
			for k, l := range lines {
				for _, p := range clipToBound(l, bounds[k], cell) {
					if pc == nil {
						sub = append(sub, p)
						continue
					}
					sub = append(sub, pc.clip(p)...)
				}
			}
			tiles = appendAdaptive(tiles, cell, sub, opts.MaxNodesPerTile)
		}
	}

	Reserve(tiles, opts)
	return tiles, nil
}

// appendAdaptive appends the tile for b, halving it by latitude while it
// holds more than maxNodes nodes.
func appendAdaptive(tiles []*Tile, b orb.Bound, lines []contour.Line, maxNodes int64) []*Tile {
	if len(lines) == 0 {
		return tiles
	}
	t := &Tile{Bound: b, Lines: lines}
	if maxNodes <= 0 || t.Nodes() <= maxNodes || b.Max[1]-b.Min[1] < 2*MinSpan {
		return append(tiles, t)
	}

	mid := (b.Min[1] + b.Max[1]) / 2
	halves := [2]orb.Bound{
		{Min: b.Min, Max: orb.Point{b.Max[0], mid}},
		{Min: orb.Point{b.Min[0], mid}, Max: b.Max},
	}
	for _, h := range halves {
		var sub []contour.Line
		for _, l := range lines {
			sub = append(sub, clipToBound(l, l.Points.Bound(), h)...)
		}
		tiles = appendAdaptive(tiles, h, sub, maxNodes)
	}
	return tiles
}

// Reserve numbers tiles in order and gives each a contiguous id range sized
// from its unsimplified lines. Simplification only removes points, so the
// reservation is an upper bound of what the tile will use.
func Reserve(tiles []*Tile, opts Options) {
	node, way := opts.StartNodeID, opts.StartWayID
	for i, t := range tiles {
		var ways int64
		for _, l := range t.Lines {
			ways += int64(len(contour.Split(l.Points, opts.MaxNodesPerWay)))
		}
		nodes := t.Nodes()
		t.Index = i
		t.IDs = IDRange{FirstNode: node, Nodes: nodes, FirstWay: way, Ways: ways}
		node += osm.NodeID(nodes)
		way += osm.WayID(ways)
	}
}
