package area

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/pkg/errors"
)

// LoadPolygon reads a boundary polygon from an osmosis .poly file or a
// GeoJSON file (.geojson, .json) holding Polygon or MultiPolygon geometries.
func LoadPolygon(path string) (Region, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Region{}, errors.Wrapf(err, "read polygon %s", path)
	}
	var mp orb.MultiPolygon
	switch strings.ToLower(filepath.Ext(path)) {
	case ".geojson", ".json":
		mp, err = parseGeoJSON(data)
	default:
		mp, err = ParsePoly(data)
	}
	if err != nil {
		return Region{}, errors.Wrapf(err, "polygon %s", path)
	}
	return FromPolygon(mp)
}

// ParsePoly decodes the osmosis polygon format: a name line, then sections
// of "lon lat" lines each closed by END, then a final END. Sections whose
// name starts with '!' are holes of the preceding outer ring.
func ParsePoly(data []byte) (orb.MultiPolygon, error) {
	sc := bufio.NewScanner(bytes.NewReader(data))
	var (
		mp      orb.MultiPolygon
		ring    orb.Ring
		inRing  bool
		hole    bool
		lineNo  int
		started bool
	)
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if !started {
			// first line is the polygon name
			started = true
			continue
		}
		if !inRing {
			if strings.EqualFold(line, "END") {
				break
			}
			inRing = true
			hole = strings.HasPrefix(line, "!")
			ring = nil
			continue
		}
		if strings.EqualFold(line, "END") {
			inRing = false
			if len(ring) < 3 {
				return nil, errors.Errorf("line %d: ring with %d points", lineNo, len(ring))
			}
			if ring[0] != ring[len(ring)-1] {
				ring = append(ring, ring[0])
			}
			if hole {
				if len(mp) == 0 {
					return nil, errors.Errorf("line %d: hole before any outer ring", lineNo)
				}
				mp[len(mp)-1] = append(mp[len(mp)-1], ring)
			} else {
				mp = append(mp, orb.Polygon{ring})
			}
			continue
		}
		f := strings.Fields(line)
		if len(f) != 2 {
			return nil, errors.Errorf("line %d: want \"lon lat\", got %q", lineNo, line)
		}
		lon, err := strconv.ParseFloat(f[0], 64)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", lineNo)
		}
		lat, err := strconv.ParseFloat(f[1], 64)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", lineNo)
		}
		ring = append(ring, orb.Point{lon, lat})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if inRing {
		return nil, errors.New("unterminated ring")
	}
	if len(mp) == 0 {
		return nil, errors.New("no rings")
	}
	return mp, nil
}

func parseGeoJSON(data []byte) (orb.MultiPolygon, error) {
	var geoms []orb.Geometry
	if fc, err := geojson.UnmarshalFeatureCollection(data); err == nil {
		for _, f := range fc.Features {
			geoms = append(geoms, f.Geometry)
		}
	} else if f, err := geojson.UnmarshalFeature(data); err == nil && f.Type == "Feature" {
		geoms = append(geoms, f.Geometry)
	} else {
		g, err := geojson.UnmarshalGeometry(data)
		if err != nil {
			return nil, err
		}
		geoms = append(geoms, g.Geometry())
	}

	var mp orb.MultiPolygon
	for _, g := range geoms {
		switch g := g.(type) {
		case orb.Polygon:
			mp = append(mp, g)
		case orb.MultiPolygon:
			mp = append(mp, g...)
		}
	}
	if len(mp) == 0 {
		return nil, errors.New("no Polygon or MultiPolygon geometry")
	}
	return mp, nil
}
