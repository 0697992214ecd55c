// Package scheduler runs tile jobs on a bounded pool of workers.
package scheduler

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/hauke96/sigolo/v2"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/pavletto/isoliner/internal/tiling"
)

// Func processes one tile to completion. A returned error fails that tile
// only.
type Func func(ctx context.Context, t *tiling.Tile) error

// Result is the message a worker sends back for every tile it was handed.
type Result struct {
	Tile    *tiling.Tile
	Err     error
	Elapsed time.Duration
}

// Report accounts for every submitted tile exactly once.
type Report struct {
	Written []*tiling.Tile
	Failed  []Result
	Elapsed time.Duration
}

// OK reports whether every tile was written.
func (r Report) OK() bool { return len(r.Failed) == 0 }

// Err summarises the failed tiles, or returns nil.
func (r Report) Err() error {
	if r.OK() {
		return nil
	}
	msgs := make([]string, 0, len(r.Failed))
	for _, f := range r.Failed {
		msgs = append(msgs, fmt.Sprintf("tile %d %s: %v", f.Tile.Index, bound(f.Tile), f.Err))
	}
	return errors.Errorf("%d of %d tiles failed:\n  %s",
		len(r.Failed), len(r.Failed)+len(r.Written), strings.Join(msgs, "\n  "))
}

// Run hands tiles to at most workers concurrent jobs, in the given order,
// and returns once every tile is Written or Failed. workers <= 0 uses one
// worker per CPU. After ctx is cancelled, tiles not yet started fail with
// the context error; running jobs see the cancelled ctx.
func Run(ctx context.Context, tiles []*tiling.Tile, workers int, fn Func) Report {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	start := time.Now()
	results := make(chan Result, workers)

	var g errgroup.Group
	g.SetLimit(workers)

	go func() {
		for _, t := range tiles {
			t := t
			if err := ctx.Err(); err != nil {
				results <- Result{Tile: t, Err: err}
				continue
			}
			g.Go(func() error {
				results <- runOne(ctx, t, fn)
				return nil
			})
		}
		_ = g.Wait()
		close(results)
	}()

	var rep Report
	for res := range results {
		if res.Err != nil {
			res.Tile.Fail(res.Err)
			sigolo.Errorf("Tile %d %s failed after %s: %v", res.Tile.Index, bound(res.Tile), res.Elapsed, res.Err)
			rep.Failed = append(rep.Failed, res)
			continue
		}
		sigolo.Debugf("Tile %d %s written in %s", res.Tile.Index, bound(res.Tile), res.Elapsed)
		rep.Written = append(rep.Written, res.Tile)
	}
	rep.Elapsed = time.Since(start)
	return rep
}

func runOne(ctx context.Context, t *tiling.Tile, fn Func) (res Result) {
	start := time.Now()
	res.Tile = t
	defer func() {
		if r := recover(); r != nil {
			res.Err = errors.Errorf("panic: %v", r)
		}
		res.Elapsed = time.Since(start)
	}()

	if err := fn(ctx, t); err != nil {
		res.Err = err
		return res
	}
	if t.State() != tiling.Written {
		if err := t.Advance(tiling.Written); err != nil {
			res.Err = err
		}
	}
	return res
}

func bound(t *tiling.Tile) string {
	b := t.Bound
	return fmt.Sprintf("[%.2f,%.2f %.2f,%.2f]", b.Min[0], b.Min[1], b.Max[0], b.Max[1])
}
