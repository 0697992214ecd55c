package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/paulmach/osm"
	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/pavletto/isoliner/elevation"
	"github.com/pavletto/isoliner/internal/area"
	"github.com/pavletto/isoliner/internal/osmout"
	"github.com/pavletto/isoliner/internal/pipeline"
	"github.com/pavletto/isoliner/internal/tiling"
)

const envPrefix = "ISOLINER_"

func errUsage(format string, args ...interface{}) error {
	return errors.Errorf(format, args...)
}

// Config holds application configuration
type Config struct {
	HgtDir  string
	VoidMax int

	Step           int
	Epsilon        float64
	Workers        int
	Format         string
	Gzip           int
	TileSize       float64
	MaxNodesTile   int64
	MaxNodesWay    int
	StartNodeID    int64
	StartWayID     int64
	NoZero         bool
	Feet           bool
	LineCats       string
	Area           string
	Polygon        string
	OutputDir      string
	Prefix         string
	Source         string
	WriteTimestamp bool
	Smooth         float64
	CorrX          float64
	CorrY          float64
	Plot           string
}

// settings resolves one option from, in order: an explicitly set flag, an
// ISOLINER_* environment variable, the config file, the flag default.
type settings struct {
	cmd  *cobra.Command
	file map[string]interface{}
	err  error
}

func newSettings(cmd *cobra.Command) (*settings, error) {
	s := &settings{cmd: cmd}
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = os.Getenv(envPrefix + "CONFIG")
	}
	if path == "" {
		return s, nil
	}
	file, err := readConfigFile(path)
	if err != nil {
		return nil, err
	}
	s.file = file
	return s, nil
}

func readConfigFile(path string) (map[string]interface{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading config file")
	}
	out := make(map[string]interface{})
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &out)
	case ".toml":
		err = toml.Unmarshal(data, &out)
	default:
		return nil, errors.Errorf("config file %s: want .yaml, .yml or .toml", path)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "parsing config file %s", path)
	}
	return out, nil
}

func envName(flag string) string {
	return envPrefix + strings.ToUpper(strings.ReplaceAll(flag, "-", "_"))
}

// lookup returns the raw text of an option and where it came from.
func (s *settings) lookup(flag string) (string, string) {
	f := s.cmd.Flags().Lookup(flag)
	if f != nil && f.Changed {
		return f.Value.String(), "flag --" + flag
	}
	if v := os.Getenv(envName(flag)); v != "" {
		return v, envName(flag)
	}
	if v, ok := s.file[flag]; ok {
		return fmt.Sprint(v), "config key " + flag
	}
	if f != nil {
		return f.DefValue, "default of --" + flag
	}
	return "", ""
}

func (s *settings) fail(from string, err error) {
	if s.err == nil {
		s.err = errors.Wrapf(err, "%s", from)
	}
}

func (s *settings) String(flag string) string {
	v, _ := s.lookup(flag)
	return v
}

func (s *settings) Int(flag string) int {
	return int(s.Int64(flag))
}

func (s *settings) Int64(flag string) int64 {
	v, from := s.lookup(flag)
	n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil {
		s.fail(from, err)
	}
	return n
}

func (s *settings) Float(flag string) float64 {
	v, from := s.lookup(flag)
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		s.fail(from, err)
	}
	return f
}

func (s *settings) Bool(flag string) bool {
	v, from := s.lookup(flag)
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		s.fail(from, err)
	}
	return b
}

// LoadConfig loads configuration from flags, environment and config file.
// Options whose flag the command does not define keep their zero value.
func LoadConfig(cmd *cobra.Command) (Config, error) {
	s, err := newSettings(cmd)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		HgtDir:  s.String("hgt-dir"),
		VoidMax: s.Int("void-max"),
	}
	if cmd.Flags().Lookup("step") != nil {
		cfg.Step = s.Int("step")
		cfg.Epsilon = s.Float("epsilon")
		cfg.Workers = s.Int("workers")
		cfg.Format = s.String("format")
		cfg.Gzip = s.Int("gzip")
		cfg.TileSize = s.Float("tile-size")
		cfg.MaxNodesTile = s.Int64("max-nodes-per-tile")
		cfg.MaxNodesWay = s.Int("max-nodes-per-way")
		cfg.StartNodeID = s.Int64("start-node-id")
		cfg.StartWayID = s.Int64("start-way-id")
		cfg.NoZero = s.Bool("no-zero")
		cfg.Feet = s.Bool("feet")
		cfg.LineCats = s.String("line-cats")
		cfg.Area = s.String("area")
		cfg.Polygon = s.String("polygon")
		cfg.OutputDir = s.String("output-dir")
		cfg.Prefix = s.String("prefix")
		cfg.Source = s.String("source")
		cfg.WriteTimestamp = s.Bool("write-timestamp")
		cfg.Smooth = s.Float("smooth")
		cfg.CorrX = s.Float("corrx")
		cfg.CorrY = s.Float("corry")
		cfg.Plot = s.String("plot")
	}
	if s.err != nil {
		return Config{}, s.err
	}
	if cfg.VoidMax < -32768 || cfg.VoidMax > 32767 {
		return Config{}, errUsage("void-max %d is not a 16 bit height", cfg.VoidMax)
	}
	return cfg, nil
}

// Pipeline turns the generate options into a run configuration. inputs
// default to the hgt directory.
func (c *Config) Pipeline(inputs []string) (pipeline.Config, error) {
	if len(inputs) == 0 {
		inputs = []string{c.HgtDir}
	}
	format, err := osmout.ParseFormat(c.Format)
	if err != nil {
		return pipeline.Config{}, err
	}
	cls, err := osmout.ParseLineCats(c.LineCats)
	if err != nil {
		return pipeline.Config{}, err
	}

	var region area.Region
	switch {
	case c.Area != "" && c.Polygon != "":
		return pipeline.Config{}, errUsage("--area and --polygon are mutually exclusive")
	case c.Area != "":
		if region, err = area.ParseBBox(c.Area); err != nil {
			return pipeline.Config{}, err
		}
	case c.Polygon != "":
		if region, err = area.LoadPolygon(c.Polygon); err != nil {
			return pipeline.Config{}, err
		}
	}

	workers := c.Workers
	if workers == 0 {
		workers = runtime.NumCPU()
	}
	var ts time.Time
	if c.WriteTimestamp {
		ts = time.Now().UTC().Truncate(time.Second)
	}

	return pipeline.Config{
		Inputs:  inputs,
		Step:    c.Step,
		Epsilon: c.Epsilon,
		NoZero:  c.NoZero,
		Feet:    c.Feet,
		VoidMax: int16(c.VoidMax),
		Smooth:  c.Smooth,
		CorrX:   c.CorrX,
		CorrY:   c.CorrY,
		Region:  region,
		Tiling: tiling.Options{
			TileSize:        c.TileSize,
			MaxNodesPerTile: c.MaxNodesTile,
			MaxNodesPerWay:  c.MaxNodesWay,
			StartNodeID:     osm.NodeID(c.StartNodeID),
			StartWayID:      osm.WayID(c.StartWayID),
		},
		Workers:    workers,
		OutputDir:  c.OutputDir,
		Prefix:     c.Prefix,
		Source:     c.Source,
		Format:     format,
		Gzip:       c.Gzip,
		Classifier: cls,
		Timestamp:  ts,
		PlotPrefix: c.Plot,
	}, nil
}

// CreateStore creates the height store over the hgt directory.
func (c *Config) CreateStore() (*elevation.Store, error) {
	return elevation.NewStore(elevation.StoreConfig{
		Dir:     c.HgtDir,
		VoidMax: int16(c.VoidMax),
	})
}
