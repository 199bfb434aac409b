// Package config handles atlas configuration loading, defaults and validation.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/woozymasta/atlas/internal/geo"

	"gopkg.in/yaml.v3"
)

// Config represents the root configuration file structure.
type Config struct {
	Title  string          `yaml:"title" json:"title"`
	Locale string          `yaml:"locale,omitempty" json:"locale,omitempty"`
	BBox   geo.BoundingBox `yaml:"bbox" json:"bbox"`

	// Area of interest as [lon, lat] pairs or a GeoJSON file. The bounding
	// box is used when neither is set.
	Area     [][]float64 `yaml:"area,omitempty" json:"-"`
	AreaFile string      `yaml:"area_file,omitempty" json:"-"`

	// Regions split the index; every region gets its own index pages.
	Regions []Region `yaml:"regions,omitempty" json:"regions,omitempty"`

	Paper   Paper   `yaml:"paper" json:"paper"`
	Margins Margins `yaml:"margins" json:"margins"`
	Scale   Scale   `yaml:"scale" json:"scale"`
	Pages   Pages   `yaml:"pages" json:"pages"`
	Index   Index   `yaml:"index" json:"index"`
	Tiles   Tiles   `yaml:"tiles" json:"-"`
	Output  Output  `yaml:"output" json:"-"`
}

// Region is a named part of the area with its own index.
type Region struct {
	Name     string      `yaml:"name" json:"name"`
	Area     [][]float64 `yaml:"area,omitempty" json:"-"`
	AreaFile string      `yaml:"area_file,omitempty" json:"-"`
}

// Paper is the trimmed sheet size.
type Paper struct {
	WidthMM      float64 `yaml:"width_mm" json:"width_mm"`
	HeightMM     float64 `yaml:"height_mm" json:"height_mm"`
	BleedMM      float64 `yaml:"bleed_mm" json:"bleed_mm"`
	SafeMarginPt float64 `yaml:"safe_margin_pt,omitempty" json:"safe_margin_pt,omitempty"`
}

// Margins are the gutters around the map on each page.
type Margins struct {
	InsideMM    float64 `yaml:"inside_mm" json:"inside_mm"`
	OutsideMM   float64 `yaml:"outside_mm" json:"outside_mm"`
	TopBottomMM float64 `yaml:"top_bottom_mm" json:"top_bottom_mm"`
}

// Scale limits the scale search.
type Scale struct {
	Default  float64 `yaml:"default" json:"default"`
	Coarsest float64 `yaml:"coarsest" json:"coarsest"`
	MaxPages int     `yaml:"max_pages" json:"max_pages"`
	Step     float64 `yaml:"step,omitempty" json:"step,omitempty"`
}

// Pages controls physical page numbering.
type Pages struct {
	FirstMapPage      int `yaml:"first_map_page" json:"first_map_page"`
	InsertBeforeIndex int `yaml:"insert_before_index,omitempty" json:"insert_before_index,omitempty"`
}

// Index configures the street index.
type Index struct {
	// Source is a GeoJSON or Overpass JSON file or URL.
	Source string `yaml:"source" json:"-"`

	Columns            int     `yaml:"columns,omitempty" json:"columns,omitempty"`
	GridCellMM         float64 `yaml:"grid_cell_mm" json:"grid_cell_mm"`
	FontSize           float64 `yaml:"font_size" json:"font_size"`
	HeaderFontSize     float64 `yaml:"header_font_size" json:"header_font_size"`
	PageNumberMarginMM float64 `yaml:"page_number_margin_mm,omitempty" json:"-"`
}

// Tiles configures the map imagery.
type Tiles struct {
	URL         string  `yaml:"url,omitempty"`
	UserAgent   string  `yaml:"user_agent,omitempty"`
	CacheDir    string  `yaml:"cache_dir,omitempty"`
	Concurrency int     `yaml:"concurrency,omitempty"`
	DPI         float64 `yaml:"dpi,omitempty"`
	MaxZoom     int     `yaml:"max_zoom,omitempty"`
}

// Output names the generated files.
type Output struct {
	Dir string `yaml:"dir"`
	PDF string `yaml:"pdf"`
}

// Load reads and parses the YAML configuration file from the specified path,
// fills in defaults and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return &cfg, nil
}

// ApplyDefaults fills every unset value. The paper defaults to A4.
func (c *Config) ApplyDefaults() {
	if c.Title == "" {
		c.Title = "Atlas"
	}
	c.BBox = c.BBox.Normalize()

	setF(&c.Paper.WidthMM, 210)
	setF(&c.Paper.HeightMM, 297)
	setF(&c.Paper.BleedMM, 2)

	setF(&c.Margins.InsideMM, 18.3)
	setF(&c.Margins.OutsideMM, 10)
	setF(&c.Margins.TopBottomMM, 10)

	setF(&c.Scale.Default, 11000)
	setF(&c.Scale.Coarsest, 70000)
	setF(&c.Scale.Step, 1.41)
	if c.Scale.MaxPages == 0 {
		c.Scale.MaxPages = 5000
	}

	if c.Pages.FirstMapPage == 0 {
		c.Pages.FirstMapPage = 4
	}

	setF(&c.Index.GridCellMM, 30)
	setF(&c.Index.FontSize, 6)
	setF(&c.Index.HeaderFontSize, 12)
	setF(&c.Index.PageNumberMarginMM, 10)

	setF(&c.Tiles.DPI, 150)
	if c.Tiles.Concurrency == 0 {
		c.Tiles.Concurrency = 4
	}
	if c.Tiles.UserAgent == "" {
		c.Tiles.UserAgent = "atlas/1.0"
	}

	if c.Output.Dir == "" {
		c.Output.Dir = filepath.Join("out", "atlas")
	}
	if c.Output.PDF == "" {
		c.Output.PDF = "atlas.pdf"
	}
}

// Validate checks the configuration for values no atlas can be built from.
func (c *Config) Validate() error {
	var errs []error

	if !c.BBox.Valid() {
		errs = append(errs, fmt.Errorf("bbox %s is empty or outside the Mercator range", c.BBox))
	}
	if c.Paper.WidthMM <= 0 || c.Paper.HeightMM <= 0 || c.Paper.BleedMM < 0 {
		errs = append(errs, fmt.Errorf("invalid paper %gx%g mm, bleed %g mm", c.Paper.WidthMM, c.Paper.HeightMM, c.Paper.BleedMM))
	}
	if c.Margins.InsideMM < 0 || c.Margins.OutsideMM < 0 || c.Margins.TopBottomMM < 0 {
		errs = append(errs, errors.New("margins must not be negative"))
	}
	if c.Margins.InsideMM+c.Margins.OutsideMM >= c.Paper.WidthMM || 2*c.Margins.TopBottomMM >= c.Paper.HeightMM {
		errs = append(errs, errors.New("margins leave no room for the map"))
	}
	if c.Scale.Default <= 0 || c.Scale.Coarsest < c.Scale.Default {
		errs = append(errs, fmt.Errorf("scale range 1:%g to 1:%g is invalid", c.Scale.Default, c.Scale.Coarsest))
	}
	if c.Scale.Step <= 1 {
		errs = append(errs, fmt.Errorf("scale step %g must be greater than 1", c.Scale.Step))
	}
	if c.Scale.MaxPages < 1 {
		errs = append(errs, errors.New("scale.max_pages must be positive"))
	}
	if c.Pages.FirstMapPage < 3 {
		errs = append(errs, fmt.Errorf("pages.first_map_page %d must leave room for the front page and the overview", c.Pages.FirstMapPage))
	}
	if c.Pages.InsertBeforeIndex < 0 {
		errs = append(errs, errors.New("pages.insert_before_index must not be negative"))
	}
	if c.Index.Columns < 0 {
		errs = append(errs, errors.New("index.columns must not be negative"))
	}
	if c.Index.GridCellMM <= 0 {
		errs = append(errs, errors.New("index.grid_cell_mm must be positive"))
	}
	if c.Area != nil && c.AreaFile != "" {
		errs = append(errs, errors.New("area and area_file are mutually exclusive"))
	}

	seen := make(map[string]bool, len(c.Regions))
	for i, r := range c.Regions {
		switch {
		case r.Name == "":
			errs = append(errs, fmt.Errorf("region %d has no name", i))
		case seen[r.Name]:
			errs = append(errs, fmt.Errorf("region %q is defined twice", r.Name))
		case r.Area == nil && r.AreaFile == "":
			errs = append(errs, fmt.Errorf("region %q has no area", r.Name))
		}
		seen[r.Name] = true
	}

	return errors.Join(errs...)
}

// Ring converts inline [lon, lat] pairs into a polygon ring.
func Ring(coords [][]float64) ([][2]float64, error) {
	ring := make([][2]float64, 0, len(coords))
	for i, c := range coords {
		if len(c) != 2 {
			return nil, fmt.Errorf("coordinate %d has %d values, want [lon, lat]", i, len(c))
		}
		ring = append(ring, [2]float64{c[0], c[1]})
	}
	return ring, nil
}

func setF(v *float64, def float64) {
	if *v == 0 {
		*v = def
	}
}
