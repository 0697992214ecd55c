// Package osmout encodes contour tiles as OSM data: line-oriented XML,
// o5m, or PBF blocks.
package osmout

import (
	"fmt"
	"strings"

	"github.com/paulmach/orb"
	"github.com/pkg/errors"
)

// Format selects the output encoding.
type Format int

const (
	XML Format = iota
	O5M
	PBF
)

// ParseFormat accepts "osm" (or "xml"), "o5m" and "pbf".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "osm", "xml", "":
		return XML, nil
	case "o5m":
		return O5M, nil
	case "pbf":
		return PBF, nil
	}
	return 0, errors.Errorf("unknown output format %q", s)
}

func (f Format) String() string {
	switch f {
	case XML:
		return "osm"
	case O5M:
		return "o5m"
	case PBF:
		return "pbf"
	}
	return fmt.Sprintf("format(%d)", int(f))
}

// Ext is the file extension, without dot.
func (f Format) Ext(gzip bool) string {
	switch f {
	case O5M:
		return "o5m"
	case PBF:
		return "osm.pbf"
	}
	if gzip {
		return "osm.gz"
	}
	return "osm"
}

// FileName builds "[prefix_]lon<min>_<max>lat<min>_<max>_<source>.<ext>".
// An empty source becomes "local-source".
func FileName(prefix string, b orb.Bound, source, ext string) string {
	if prefix != "" {
		prefix += "_"
	}
	if source == "" {
		source = "local-source"
	}
	return fmt.Sprintf("%slon%.2f_%.2flat%.2f_%.2f_%s.%s",
		prefix, b.Min[0], b.Max[0], b.Min[1], b.Max[1], source, ext)
}
