package osmout

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/osm"

	"github.com/pavletto/isoliner/internal/contour"
)

// IDSource hands out element ids.
type IDSource interface {
	Node() (osm.NodeID, error)
	Way() (osm.WayID, error)
}

// Document is the OSM content of one tile.
type Document struct {
	Bounds osm.Bounds
	Nodes  osm.Nodes
	Ways   osm.Ways
}

// BuildOptions control how lines become ways.
type BuildOptions struct {
	MaxNodesPerWay int
	Classifier     Classifier
}

// Build turns lines into nodes and ways. Node ids are drawn in point order,
// way ids in line order. A closed line reuses its first node as last ref,
// and a line longer than MaxNodesPerWay becomes consecutive ways sharing
// their junction node.
func Build(b orb.Bound, lines []contour.Line, ids IDSource, opts BuildOptions) (*Document, error) {
	cls := opts.Classifier
	if cls.Major == 0 || cls.Medium == 0 {
		cls = DefaultClassifier
	}
	doc := &Document{Bounds: osm.Bounds{
		MinLat: b.Min[1], MaxLat: b.Max[1],
		MinLon: b.Min[0], MaxLon: b.Max[0],
	}}

	for _, l := range lines {
		if len(l.Points) < 2 {
			continue
		}
		n := len(l.Points)
		unique := n
		if l.Closed {
			unique = n - 1
		}
		refs := make([]osm.NodeID, n)
		for i := 0; i < unique; i++ {
			id, err := ids.Node()
			if err != nil {
				return nil, err
			}
			p := l.Points[i]
			doc.Nodes = append(doc.Nodes, &osm.Node{ID: id, Lat: p[1], Lon: p[0], Version: 1})
			refs[i] = id
		}
		if l.Closed {
			refs[n-1] = refs[0]
		}

		tags := cls.Tags(l.Level)
		off := 0
		for _, part := range contour.Split(l.Points, opts.MaxNodesPerWay) {
			id, err := ids.Way()
			if err != nil {
				return nil, err
			}
			wn := make(osm.WayNodes, len(part))
			for i := range part {
				wn[i] = osm.WayNode{ID: refs[off+i]}
			}
			off += len(part) - 1
			doc.Ways = append(doc.Ways, &osm.Way{ID: id, Version: 1, Nodes: wn, Tags: tags})
		}
	}
	return doc, nil
}
