package pipeline

import (
	"context"
	"path/filepath"

	"github.com/hauke96/sigolo/v2"
	"github.com/paulmach/orb"

	"github.com/pavletto/isoliner/internal/contour"
	"github.com/pavletto/isoliner/internal/osmout"
	"github.com/pavletto/isoliner/internal/tiling"
)

// tileWriter runs one tile from traced geometry to a written file. It holds
// no mutable state, so one value serves every worker.
type tileWriter struct {
	cfg        Config
	unreadable []raster
}

func (w *tileWriter) path(t *tiling.Tile) string {
	ext := w.cfg.Format.Ext(w.cfg.Gzip > 0)
	return filepath.Join(w.cfg.OutputDir, osmout.FileName(w.cfg.Prefix, t.Bound, w.cfg.Source, ext))
}

func (w *tileWriter) process(ctx context.Context, t *tiling.Tile) error {
	for _, r := range w.unreadable {
		if overlaps(t.Bound, r.bound) {
			return &osmout.IOError{Op: "read", Path: r.path, Err: r.err}
		}
	}
	if err := t.Advance(tiling.TracingComplete); err != nil {
		return err
	}

	if err := t.Advance(tiling.Simplifying); err != nil {
		return err
	}
	lines := t.Lines
	if w.cfg.Epsilon > 0 {
		lines = make([]contour.Line, 0, len(t.Lines))
		for _, l := range t.Lines {
			if s, ok := contour.Simplify(l, w.cfg.Epsilon); ok {
				lines = append(lines, s)
			}
		}
	}

	if err := t.Advance(tiling.Encoding); err != nil {
		return err
	}
	ids := tiling.NewAllocator(t)
	doc, err := osmout.Build(t.Bound, lines, ids, osmout.BuildOptions{
		MaxNodesPerWay: w.cfg.Tiling.MaxNodesPerWay,
		Classifier:     w.cfg.Classifier,
	})
	if err != nil {
		return err
	}

	path := w.path(t)
	err = osmout.WriteFile(ctx, path, doc, osmout.WriteOptions{
		Format:    w.cfg.Format,
		Gzip:      w.cfg.Gzip,
		Timestamp: w.cfg.Timestamp,
	})
	if err != nil {
		return err
	}
	nodes, ways := ids.Used()
	sigolo.Debugf("Tile %d: %d nodes, %d ways to %s", t.Index, nodes, ways, path)
	return t.Advance(tiling.Written)
}

// overlaps is true when a and b share interior area, not only an edge.
func overlaps(a, b orb.Bound) bool {
	return a.Min[0] < b.Max[0] && b.Min[0] < a.Max[0] &&
		a.Min[1] < b.Max[1] && b.Min[1] < a.Max[1]
}
