// Package tiling cuts the assembled contour set into bounded output tiles
// and reserves each tile's slice of the node and way id space.
package tiling

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/osm"
	"github.com/pkg/errors"

	"github.com/pavletto/isoliner/internal/contour"
)

// State tracks a tile through processing.
type State int

const (
	Pending State = iota
	TracingComplete
	Simplifying
	Encoding
	Written
	Failed
)

var stateNames = [...]string{"pending", "tracing-complete", "simplifying", "encoding", "written", "failed"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool { return s == Written || s == Failed }

// Tile is one output file's worth of contours.
type Tile struct {
	Index int
	Bound orb.Bound
	Lines []contour.Line
	IDs   IDRange

	state State
	err   error
}

// State returns the current processing state.
func (t *Tile) State() State { return t.state }

// Err returns the failure cause of a Failed tile.
func (t *Tile) Err() error { return t.err }

// Advance moves the tile forward to s. States only move forward; a
// terminal tile cannot change.
func (t *Tile) Advance(s State) error {
	if t.state.Terminal() {
		return errors.Errorf("tile %d: %s is terminal", t.Index, t.state)
	}
	if s <= t.state || s == Failed {
		return errors.Errorf("tile %d: cannot move from %s to %s", t.Index, t.state, s)
	}
	t.state = s
	return nil
}

// Fail marks the tile Failed with cause err.
func (t *Tile) Fail(err error) {
	if t.state.Terminal() {
		return
	}
	t.state = Failed
	t.err = err
}

// Nodes is the upper bound of node ids the tile's lines can use.
func (t *Tile) Nodes() int64 {
	var n int64
	for _, l := range t.Lines {
		n += int64(len(l.Points))
	}
	return n
}

// IDRange is a contiguous block of node ids and way ids owned by one tile.
type IDRange struct {
	FirstNode osm.NodeID
	Nodes     int64
	FirstWay  osm.WayID
	Ways      int64
}

// CapacityError reports a tile using more ids than it reserved.
type CapacityError struct {
	Tile     int
	Kind     string
	Reserved int64
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("tile %d: more than %d %s ids used", e.Tile, e.Reserved, e.Kind)
}

// Allocator hands out the ids of one IDRange in order. It is not safe for
// concurrent use; each tile is encoded by a single worker.
type Allocator struct {
	tile       int
	r          IDRange
	nodes, way int64
}

// NewAllocator returns an allocator over the tile's reservation.
func NewAllocator(t *Tile) *Allocator {
	return &Allocator{tile: t.Index, r: t.IDs}
}

// Node returns the next node id.
func (a *Allocator) Node() (osm.NodeID, error) {
	if a.nodes >= a.r.Nodes {
		return 0, &CapacityError{Tile: a.tile, Kind: "node", Reserved: a.r.Nodes}
	}
	id := a.r.FirstNode + osm.NodeID(a.nodes)
	a.nodes++
	return id, nil
}

// Way returns the next way id.
func (a *Allocator) Way() (osm.WayID, error) {
	if a.way >= a.r.Ways {
		return 0, &CapacityError{Tile: a.tile, Kind: "way", Reserved: a.r.Ways}
	}
	id := a.r.FirstWay + osm.WayID(a.way)
	a.way++
	return id, nil
}

// Used returns how many node and way ids were handed out.
func (a *Allocator) Used() (nodes, ways int64) { return a.nodes, a.way }
