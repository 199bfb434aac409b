package atlas

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/woozymasta/atlas/internal/config"
	"github.com/woozymasta/atlas/internal/geo"
	"github.com/woozymasta/atlas/internal/layout"
	"github.com/woozymasta/atlas/internal/preview"
)

// Names of the files written next to the PDF.
const (
	ManifestName   = "manifest.json"
	OverviewWebP   = "overview.webp"
	OverviewSVG    = "overview.svg"
	previewWidth   = 1024
	previewQuality = 85
)

// Manifest describes a generated atlas for browsing tools.
type Manifest struct {
	Title  string `json:"title"`
	PDF    string `json:"pdf"`
	Locale string `json:"locale,omitempty"`
	RTL    bool   `json:"rtl,omitempty"`

	Fit        layout.Fit      `json:"fit"`
	BBox       geo.BoundingBox `json:"bbox"`
	GridCellMM float64         `json:"grid_cell_mm"`

	OverviewPage int            `json:"overview_page"`
	Pages        []ManifestPage `json:"pages"`
	IndexPages   []int          `json:"index_pages,omitempty"`
	Regions      []string       `json:"regions,omitempty"`

	Previews []string `json:"previews"`
}

// ManifestPage is one map page of the manifest.
type ManifestPage struct {
	Number    int              `json:"page"`
	Row       int              `json:"row"`
	Column    int              `json:"column"`
	BBox      geo.BoundingBox  `json:"bbox"`
	Neighbors layout.Neighbors `json:"neighbors"`
}

// NewManifest summarizes a build.
func NewManifest(cfg *config.Config, res *Result) *Manifest {
	m := &Manifest{
		Title:        cfg.Title,
		PDF:          cfg.Output.PDF,
		Locale:       cfg.Locale,
		RTL:          res.RTL,
		Fit:          res.Plan.Fit,
		BBox:         cfg.BBox,
		GridCellMM:   cfg.Index.GridCellMM,
		OverviewPage: res.Plan.FirstPageNumber - 1,
		Previews:     []string{OverviewWebP, OverviewSVG},
	}

	for _, t := range res.Plan.Kept() {
		m.Pages = append(m.Pages, ManifestPage{
			Number:    *t.PageNumber,
			Row:       t.Row,
			Column:    t.Column,
			BBox:      t.Inner,
			Neighbors: res.Plan.Disposition.Neighbors(*t.PageNumber),
		})
	}
	for _, p := range res.Index {
		m.IndexPages = append(m.IndexPages, p.Number)
	}
	for _, r := range res.Regions {
		if r.Name != "" {
			m.Regions = append(m.Regions, r.Name)
		}
	}

	return m
}

// WriteManifest stores m as indented JSON.
func WriteManifest(path string, m *Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ReadManifest loads a manifest written by WriteManifest.
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &m, nil
}

func (b *Builder) writePreviews(ctx context.Context, res *Result, dir string) error {
	img, err := preview.Overview(ctx, b.Maps, b.Measurer, res.Overview, previewWidth)
	if err != nil {
		return err
	}
	if err := writeFile(filepath.Join(dir, OverviewWebP), func(f *os.File) error {
		return preview.WriteWebP(f, img, previewQuality)
	}); err != nil {
		return err
	}

	svg, err := preview.SVG(res.Overview, previewWidth)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, OverviewSVG), svg, 0644)
}
