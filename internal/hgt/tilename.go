package hgt

import (
	"fmt"
	"path/filepath"
	"strings"
)

// TileName identifies a one-degree raster by its south-west corner.
type TileName struct {
	LatDeg int // absolute latitude of the southern edge
	LonDeg int // absolute longitude of the western edge
	NS     byte
	EW     byte
}

// TileNameFor returns the name of the raster containing lat, lon.
func TileNameFor(lat, lon float64) TileName {
	baseLat := floor(lat)
	baseLon := floor(lon)

	name := TileName{
		LatDeg: abs(baseLat),
		LonDeg: abs(baseLon),
		NS:     'N',
		EW:     'E',
	}
	if baseLat < 0 {
		name.NS = 'S'
	}
	if baseLon < 0 {
		name.EW = 'W'
	}
	return name
}

// FileStem renders N/S + 2 latitude digits, E/W + 3 longitude digits.
func (t TileName) FileStem() string {
	return fmt.Sprintf("%c%02d%c%03d", t.NS, t.LatDeg, t.EW, t.LonDeg)
}

// Origin returns the signed south-west corner.
func (t TileName) Origin() (lat, lon int) {
	lat, lon = t.LatDeg, t.LonDeg
	if t.NS == 'S' {
		lat = -lat
	}
	if t.EW == 'W' {
		lon = -lon
	}
	return lat, lon
}

// ParseTileName extracts the tile origin from names like "N45E006.hgt" or
// "s12w077.hgt.zip".
func ParseTileName(path string) (TileName, error) {
	base := strings.ToUpper(filepath.Base(path))
	if len(base) < 7 {
		return TileName{}, &FormatError{Path: path, Reason: "file name too short for a tile name"}
	}
	var t TileName
	t.NS, t.EW = base[0], base[3]
	if t.NS != 'N' && t.NS != 'S' {
		return TileName{}, &FormatError{Path: path, Reason: "something wrong with latitude coding in file name"}
	}
	if t.EW != 'E' && t.EW != 'W' {
		return TileName{}, &FormatError{Path: path, Reason: "something wrong with longitude coding in file name"}
	}
	if _, err := fmt.Sscanf(base[1:3], "%02d", &t.LatDeg); err != nil {
		return TileName{}, &FormatError{Path: path, Reason: "latitude digits: " + err.Error()}
	}
	if _, err := fmt.Sscanf(base[4:7], "%03d", &t.LonDeg); err != nil {
		return TileName{}, &FormatError{Path: path, Reason: "longitude digits: " + err.Error()}
	}
	return t, nil
}
