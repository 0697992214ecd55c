package elevation

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/hauke96/sigolo/v2"
	"github.com/pkg/errors"

	"github.com/pavletto/isoliner/internal/hgt"
)

// ErrNoData is returned when every sample around a point is void.
var ErrNoData = errors.New("nodata around point")

type StoreConfig struct {
	Dir         string // directory holding N45E006.hgt style rasters
	VoidMax     int16
	MaxMemTiles int
}

type Meta struct {
	Tile     string
	Source   string // mem-cache | disk
	GridSize int
}

// Store serves heights from local rasters, keeping recently used grids in
// memory.
type Store struct {
	cfg   StoreConfig
	memMu sync.Mutex
	mem   *lru
}

func NewStore(cfg StoreConfig) (*Store, error) {
	if cfg.Dir == "" {
		return nil, errors.New("raster directory required")
	}
	fi, err := os.Stat(cfg.Dir)
	if err != nil {
		return nil, errors.Wrap(err, "raster directory")
	}
	if !fi.IsDir() {
		return nil, errors.Errorf("%s is not a directory", cfg.Dir)
	}
	if cfg.MaxMemTiles <= 0 {
		cfg.MaxMemTiles = 16
	}
	return &Store{cfg: cfg, mem: newLRU(cfg.MaxMemTiles)}, nil
}

func (s *Store) Config() StoreConfig { return s.cfg }

// errMissing marks a raster that is not present in the directory.
var errMissing = errors.New("raster not found")

// Height returns the interpolated height above mean sea level at lat, lon.
// A point on the north or east edge of a raster whose own cell is missing is
// served by the raster to the south or west, which holds the same samples.
func (s *Store) Height(ctx context.Context, lat, lon float64) (float64, Meta, error) {
	var meta Meta
	var g *hgt.Grid
	var err error
	for _, stem := range candidateStems(lat, lon) {
		meta = Meta{Tile: stem}
		if g, meta.Source, err = s.grid(ctx, stem); !errors.Is(err, errMissing) {
			break
		}
	}
	if err != nil {
		return 0, meta, err
	}
	meta.GridSize = g.Size

	h, ok := heightAt(g, lat, lon)
	if !ok {
		return 0, meta, ErrNoData
	}
	return h, meta, nil
}

// candidateStems lists the rasters holding lat, lon: its own cell first,
// then the neighbours sharing the edge or corner it lies on.
func candidateStems(lat, lon float64) []string {
	lats, lons := []float64{lat}, []float64{lon}
	if lat == math.Floor(lat) {
		lats = append(lats, lat-1)
	}
	if lon == math.Floor(lon) {
		lons = append(lons, lon-1)
	}
	var out []string
	for _, la := range lats {
		for _, lo := range lons {
			out = append(out, hgt.TileNameFor(la, lo).FileStem())
		}
	}
	return out
}

func (s *Store) grid(ctx context.Context, stem string) (*hgt.Grid, string, error) {
	if g, ok := s.getMem(stem); ok {
		return g, "mem-cache", nil
	}
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}
	g, err := s.loadFromDisk(stem)
	if err != nil {
		return nil, "", err
	}
	s.putMem(stem, g)
	return g, "disk", nil
}

func (s *Store) loadFromDisk(stem string) (*hgt.Grid, error) {
	for _, name := range []string{stem + ".hgt", stem + ".hgt.zip", strings.ToLower(stem) + ".hgt", strings.ToLower(stem) + ".hgt.zip"} {
		path := filepath.Join(s.cfg.Dir, name)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		sigolo.Debugf("Loading raster %s", path)
		return hgt.Load(path, hgt.LoadOptions{VoidMax: s.cfg.VoidMax})
	}
	return nil, errors.Wrapf(errMissing, "%s in %s", stem, s.cfg.Dir)
}

// lru keeps the most recently used grids, newest first.
type lru struct {
	cap int
	ll  []string
	m   map[string]*hgt.Grid
}

func newLRU(cap int) *lru {
	if cap <= 0 {
		cap = 1
	}
	return &lru{cap: cap, ll: make([]string, 0, cap), m: make(map[string]*hgt.Grid)}
}

func (l *lru) get(k string) (*hgt.Grid, bool) {
	if v, ok := l.m[k]; ok {
		l.touch(k)
		return v, true
	}
	return nil, false
}

func (l *lru) put(k string, v *hgt.Grid) {
	if _, ok := l.m[k]; ok {
		l.m[k] = v
		l.touch(k)
		return
	}
	if len(l.ll) == l.cap {
		evict := l.ll[len(l.ll)-1]
		delete(l.m, evict)
		l.ll = l.ll[:len(l.ll)-1]
	}
	l.ll = append([]string{k}, l.ll...)
	l.m[k] = v
}

func (l *lru) touch(k string) {
	idx := -1
	for i, s := range l.ll {
		if s == k {
			idx = i
			break
		}
	}
	if idx <= 0 {
		return
	}
	copy(l.ll[1:idx+1], l.ll[0:idx])
	l.ll[0] = k
}

func (s *Store) getMem(key string) (*hgt.Grid, bool) {
	s.memMu.Lock()
	defer s.memMu.Unlock()
	return s.mem.get(key)
}

func (s *Store) putMem(key string, g *hgt.Grid) {
	s.memMu.Lock()
	defer s.memMu.Unlock()
	s.mem.put(key, g)
}
