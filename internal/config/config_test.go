package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/woozymasta/atlas/internal/geo"

	"github.com/google/go-cmp/cmp"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
title: Freiburg
locale: de_DE.UTF-8
bbox: {south: 48.05, west: 7.90, north: 47.95, east: 7.75}
index:
  source: streets.geojson
regions:
  - name: Altstadt
    area: [[7.84, 47.99], [7.86, 47.99], [7.86, 48.00], [7.84, 47.99]]
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff(geo.BoundingBox{South: 47.95, West: 7.75, North: 48.05, East: 7.90}, cfg.BBox); diff != "" {
		t.Errorf("bbox not normalized (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(Paper{WidthMM: 210, HeightMM: 297, BleedMM: 2}, cfg.Paper); diff != "" {
		t.Errorf("paper mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(Scale{Default: 11000, Coarsest: 70000, MaxPages: 5000, Step: 1.41}, cfg.Scale); diff != "" {
		t.Errorf("scale mismatch (-want +got):\n%s", diff)
	}
	if cfg.Pages.FirstMapPage != 4 {
		t.Errorf("first map page = %d, want 4", cfg.Pages.FirstMapPage)
	}
	if cfg.Index.Source != "streets.geojson" || cfg.Index.GridCellMM != 30 {
		t.Errorf("index = %+v", cfg.Index)
	}
	if len(cfg.Regions) != 1 || len(cfg.Regions[0].Area) != 4 {
		t.Errorf("regions = %+v", cfg.Regions)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		c := &Config{BBox: geo.BoundingBox{South: 48, West: 7, North: 48.1, East: 7.1}}
		c.ApplyDefaults()
		return c
	}

	tests := []struct {
		name   string
		modify func(c *Config)
		want   string
	}{
		{"valid", func(*Config) {}, ""},
		{"empty bbox", func(c *Config) { c.BBox = geo.BoundingBox{} }, "bbox"},
		{"first map page", func(c *Config) { c.Pages.FirstMapPage = 2 }, "first_map_page"},
		{"scale range", func(c *Config) { c.Scale.Coarsest = 5000 }, "scale range"},
		{"step", func(c *Config) { c.Scale.Step = 1 }, "scale step"},
		{"margins", func(c *Config) { c.Margins.InsideMM = 200 }, "no room"},
		{"area twice", func(c *Config) {
			c.Area = [][]float64{{7, 48}}
			c.AreaFile = "area.geojson"
		}, "mutually exclusive"},
		{"region without area", func(c *Config) { c.Regions = []Region{{Name: "North"}} }, "has no area"},
		{"duplicate region", func(c *Config) {
			c.Regions = []Region{{Name: "North", AreaFile: "a"}, {Name: "North", AreaFile: "b"}}
		}, "defined twice"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.modify(c)

			err := c.Validate()
			if tt.want == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("Validate() = %v, want error containing %q", err, tt.want)
			}
		})
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := Load(writeConfig(t, "bbox: [1, 2")); err == nil {
		t.Error("expected error for broken yaml")
	}
	if _, err := Load(writeConfig(t, "title: no bbox\n")); err == nil {
		t.Error("expected error for missing bbox")
	}
}

func TestRing(t *testing.T) {
	got, err := Ring([][]float64{{7, 48}, {7.1, 48}, {7.1, 48.1}})
	if err != nil {
		t.Fatal(err)
	}
	want := [][2]float64{{7, 48}, {7.1, 48}, {7.1, 48.1}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Ring() mismatch (-want +got):\n%s", diff)
	}

	if _, err := Ring([][]float64{{7}}); err == nil {
		t.Error("expected error for short coordinate")
	}
}
