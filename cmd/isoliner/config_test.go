package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"

	"github.com/pavletto/isoliner/internal/osmout"
)

func newGenerateCmd(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "generate"}
	globalFlags(cmd)
	generateFlags(cmd)
	if err := cmd.ParseFlags(args); err != nil {
		t.Fatalf("ParseFlags: %v", err)
	}
	return cmd
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(newGenerateCmd(t))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Step != 20 || cfg.Format != "osm" || cfg.MaxNodesWay != 2000 || cfg.LineCats != "200,100" {
		t.Errorf("defaults %+v", cfg)
	}
	if cfg.VoidMax != -32768 || cfg.StartNodeID != 10000000 {
		t.Errorf("defaults %+v", cfg)
	}
}

func TestLoadConfig_Precedence(t *testing.T) {
	yml := writeFile(t, "isoliner.yaml", "step: 50\nformat: pbf\nepsilon: 0.001\nno-zero: true\n")

	tests := []struct {
		name   string
		env    map[string]string
		args   []string
		step   int
		format string
	}{
		{"file", nil, []string{"--config", yml}, 50, "pbf"},
		{"env over file", map[string]string{"ISOLINER_STEP": "25"}, []string{"--config", yml}, 25, "pbf"},
		{"flag over env", map[string]string{"ISOLINER_STEP": "25", "ISOLINER_FORMAT": "o5m"}, []string{"--config", yml, "--step", "10"}, 10, "o5m"},
		{"config from env", map[string]string{"ISOLINER_CONFIG": yml}, nil, 50, "pbf"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			cfg, err := LoadConfig(newGenerateCmd(t, tt.args...))
			if err != nil {
				t.Fatalf("LoadConfig: %v", err)
			}
			if cfg.Step != tt.step || cfg.Format != tt.format {
				t.Errorf("step %d format %s, want %d %s", cfg.Step, cfg.Format, tt.step, tt.format)
			}
			if cfg.Epsilon != 0.001 || !cfg.NoZero {
				t.Errorf("file values lost: %+v", cfg)
			}
		})
	}
}

func TestLoadConfig_TOML(t *testing.T) {
	path := writeFile(t, "isoliner.toml", "step = 5\ntile-size = 0.25\narea = \"6:45:7:46\"\nwrite-timestamp = true\n")
	cfg, err := LoadConfig(newGenerateCmd(t, "--config", path))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Step != 5 || cfg.TileSize != 0.25 || cfg.Area != "6:45:7:46" || !cfg.WriteTimestamp {
		t.Errorf("got %+v", cfg)
	}

	pc, err := cfg.Pipeline(nil)
	if err != nil {
		t.Fatalf("Pipeline: %v", err)
	}
	if pc.Region.Bound.Min[0] != 6 || pc.Region.Bound.Max[1] != 46 {
		t.Errorf("region %s", pc.Region)
	}
	if pc.Timestamp.IsZero() || pc.Format != osmout.XML || len(pc.Inputs) != 1 || pc.Inputs[0] != "." {
		t.Errorf("pipeline config %+v", pc)
	}
}

func TestLoadConfig_RasterOptions(t *testing.T) {
	t.Setenv("ISOLINER_CORRY", "0.0005")
	cfg, err := LoadConfig(newGenerateCmd(t, "--smooth", "3", "--corrx", "0.0005", "-p", "heights"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	pc, err := cfg.Pipeline([]string{"N45E006.hgt"})
	if err != nil {
		t.Fatalf("Pipeline: %v", err)
	}
	if pc.Smooth != 3 || pc.CorrX != 0.0005 || pc.CorrY != 0.0005 || pc.PlotPrefix != "heights" {
		t.Errorf("pipeline config %+v", pc)
	}

	cfg, err = LoadConfig(newGenerateCmd(t))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Smooth != 1 || cfg.CorrX != 0 || cfg.Plot != "" {
		t.Errorf("defaults %+v", cfg)
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	t.Run("bad env value", func(t *testing.T) {
		t.Setenv("ISOLINER_STEP", "twenty")
		if _, err := LoadConfig(newGenerateCmd(t)); err == nil {
			t.Error("bad integer accepted")
		}
	})
	t.Run("unknown file type", func(t *testing.T) {
		path := writeFile(t, "isoliner.ini", "step=1")
		if _, err := LoadConfig(newGenerateCmd(t, "--config", path)); err == nil {
			t.Error("ini file accepted")
		}
	})
	t.Run("void max range", func(t *testing.T) {
		if _, err := LoadConfig(newGenerateCmd(t, "--void-max", "40000")); err == nil {
			t.Error("void-max beyond int16 accepted")
		}
	})

	for _, args := range [][]string{
		{"--format", "shp"},
		{"--line-cats", "100"},
		{"--area", "1:2:3"},
		{"--area", "0:0:1:1", "--polygon", "x.poly"},
	} {
		cfg, err := LoadConfig(newGenerateCmd(t, args...))
		if err != nil {
			t.Fatalf("LoadConfig(%v): %v", args, err)
		}
		if _, err := cfg.Pipeline(nil); err == nil {
			t.Errorf("Pipeline accepted %v", args)
		}
	}
}

func TestSetLogLevel(t *testing.T) {
	for _, l := range []string{"trace", "debug", "INFO", "error", ""} {
		if err := setLogLevel(l); err != nil {
			t.Errorf("setLogLevel(%q): %v", l, err)
		}
	}
	if err := setLogLevel("loud"); err == nil {
		t.Error("unknown level accepted")
	}
	_ = setLogLevel("info")
}
