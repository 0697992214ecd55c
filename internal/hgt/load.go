package hgt

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"
	"github.com/pkg/errors"
)

// LoadOptions tune how raw samples are interpreted.
type LoadOptions struct {
	VoidMax int16 // samples <= VoidMax are no-data
}

// DefaultLoadOptions treats only the SRTM sentinel as no-data.
var DefaultLoadOptions = LoadOptions{VoidMax: VoidValue}

// Load reads a .hgt or single-member .hgt.zip file. Size mismatches are
// reported as *FormatError, read failures as wrapped I/O errors.
func Load(path string, opts LoadOptions) (*Grid, error) {
	name, err := ParseTileName(path)
	if err != nil {
		return nil, err
	}

	var raw []byte
	if strings.HasSuffix(strings.ToLower(path), ".zip") {
		raw, err = readZipped(path)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "reading raster %s", path)
	}
	return Parse(filepath.Base(path), name, raw, opts)
}

// Parse decodes big-endian int16 samples for the given tile.
func Parse(path string, name TileName, raw []byte, opts LoadOptions) (*Grid, error) {
	size, err := sizeFor(len(raw))
	if err != nil {
		return nil, &FormatError{Path: path, Reason: err.Error()}
	}

	samples := make([]int16, size*size)
	for i := range samples {
		samples[i] = int16(binary.BigEndian.Uint16(raw[2*i:]))
	}
	lat, lon := name.Origin()
	return New(name.FileStem(), float64(lat), float64(lon), size, samples, opts.VoidMax)
}

func sizeFor(n int) (int, error) {
	if n%2 != 0 {
		return 0, fmt.Errorf("payload of %d bytes is not a multiple of int16", n)
	}
	size := int(math.Round(math.Sqrt(float64(n / 2))))
	if size*size*2 != n {
		return 0, fmt.Errorf("non-square grid: %d samples", n/2)
	}
	if size != size3 && size != size1 {
		return 0, fmt.Errorf("unsupported resolution: %dx%d samples", size, size)
	}
	return size, nil
}

func readZipped(path string) ([]byte, error) {
	z, err := zip.OpenReader(path)
	if err != nil {
		return nil, err
	}
	defer z.Close()

	for _, f := range z.File {
		if strings.HasPrefix(filepath.Base(f.Name), ".") {
			continue
		}
		if !strings.HasSuffix(strings.ToLower(f.Name), ".hgt") {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		b, err := io.ReadAll(rc)
		rc.Close()
		return b, err
	}
	return nil, &FormatError{Path: path, Reason: "zip archive holds no .hgt member"}
}
