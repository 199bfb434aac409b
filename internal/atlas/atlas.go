// Package atlas runs the whole pipeline: it fits the scale, plans the page
// grid, collects and paginates the index and writes the document with its
// previews and manifest.
package atlas

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/woozymasta/atlas/internal/config"
	"github.com/woozymasta/atlas/internal/fonts"
	"github.com/woozymasta/atlas/internal/geo"
	"github.com/woozymasta/atlas/internal/index"
	"github.com/woozymasta/atlas/internal/layout"
	"github.com/woozymasta/atlas/internal/render"
	"github.com/woozymasta/atlas/internal/streets"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Indexer collects the partial index of one map page. *streets.Source
// implements it.
type Indexer interface {
	Collect(ctx context.Context, tile layout.PageTile, grid layout.LocationGrid, region streets.PointFilter) ([]index.Category, error)
}

// Builder holds the collaborators of a build.
type Builder struct {
	Config   *config.Config
	Measurer *fonts.Measurer

	// Indexer may be nil for an atlas without index.
	Indexer Indexer
	// Maps may be nil for pages without imagery.
	Maps render.MapRenderer
}

// Result is a laid out atlas, ready to be written.
type Result struct {
	Page     layout.Page
	Plan     *layout.Plan
	Overview layout.OverviewGrid
	RTL      bool

	// Area is the area of interest the plan was clipped to.
	Area *geo.Area

	Regions []index.Region
	Index   []index.Page
}

type region struct {
	name   string
	filter streets.PointFilter
}

// Build lays out the atlas.
func (b *Builder) Build(ctx context.Context) (*Result, error) {
	cfg := b.Config
	rtl := index.IsRTL(cfg.Locale)

	area, err := loadArea(cfg.Area, cfg.AreaFile)
	if err != nil {
		return nil, fmt.Errorf("area of interest: %w", err)
	}
	if area == nil {
		if area, err = geo.AreaFromBBox(cfg.BBox); err != nil {
			return nil, fmt.Errorf("area of interest: %w", err)
		}
	}

	page := layout.NewPage(cfg.Paper.WidthMM, cfg.Paper.HeightMM, cfg.Paper.BleedMM, cfg.Paper.SafeMarginPt,
		cfg.Margins.InsideMM, cfg.Margins.OutsideMM, cfg.Margins.TopBottomMM)

	env, err := geo.ProjectBBox(cfg.BBox)
	if err != nil {
		return nil, err
	}

	fit, err := layout.FitScale(layout.FitParams{
		Envelope:            env,
		VisibleWidthPt:      page.VisibleWidth(),
		VisibleHeightPt:     page.VisibleHeight(),
		MaxPages:            cfg.Scale.MaxPages,
		FinestDenominator:   cfg.Scale.Default,
		CoarsestDenominator: cfg.Scale.Coarsest,
		Step:                cfg.Scale.Step,
	})
	if err != nil {
		return nil, err
	}

	plan, err := layout.PlanGrid(layout.PlanParams{
		Envelope:        env,
		Fit:             fit,
		Page:            page,
		FirstPageNumber: cfg.Pages.FirstMapPage,
		Area:            area,
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("title", cfg.Title).
		Float64("scale", fit.Denominator).
		Int("pages_wide", fit.PagesWide).
		Int("pages_tall", fit.PagesTall).
		Int("map_pages", len(plan.Kept())).
		Msg("Page grid planned")

	res := &Result{
		Page:     page,
		Plan:     plan,
		Overview: layout.ComposeOverview(plan.BBox, page, plan.Tiles, rtl),
		RTL:      rtl,
		Area:     area,
	}

	if b.Indexer == nil {
		return res, nil
	}

	regions, err := b.regions(area)
	if err != nil {
		return nil, err
	}
	for _, r := range regions {
		partials, err := b.collect(ctx, plan, r.filter, rtl)
		if err != nil {
			return nil, fmt.Errorf("index %q: %w", r.name, err)
		}
		cats, err := index.Merge(partials, cfg.Locale)
		if err != nil {
			return nil, fmt.Errorf("index %q: %w", r.name, err)
		}
		res.Regions = append(res.Regions, index.Region{Name: r.name, Categories: cats})
	}

	res.Index, err = b.paginate(res)
	if errors.Is(err, index.ErrEmptyIndex) {
		log.Warn().Msg("Index is empty, the atlas is printed without index pages")
		return res, nil
	}
	if err != nil {
		return nil, err
	}

	return res, nil
}

// regions returns the configured regions in collation order, or the whole
// area when none are configured.
func (b *Builder) regions(area *geo.Area) ([]region, error) {
	cfg := b.Config
	if len(cfg.Regions) == 0 {
		return []region{{filter: area}}, nil
	}

	names := make([]string, 0, len(cfg.Regions))
	byName := make(map[string]region, len(cfg.Regions))
	for _, r := range cfg.Regions {
		a, err := loadArea(r.Area, r.AreaFile)
		if err != nil {
			return nil, fmt.Errorf("region %q: %w", r.Name, err)
		}
		if a == nil {
			return nil, fmt.Errorf("region %q has no area", r.Name)
		}
		names = append(names, r.Name)
		byName[r.Name] = region{name: r.Name, filter: a}
	}

	index.SortNames(names, cfg.Locale)

	out := make([]region, len(names))
	for i, n := range names {
		out[i] = byName[n]
	}
	return out, nil
}

// collect gathers the partial index of every map page in parallel. The
// partials keep page order.
func (b *Builder) collect(ctx context.Context, plan *layout.Plan, filter streets.PointFilter, rtl bool) ([][]index.Category, error) {
	kept := plan.Kept()
	partials := make([][]index.Category, len(kept))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, tile := range kept {
		g.Go(func() error {
			grid := layout.NewLocationGrid(tile.InnerEnvelope, b.Config.Index.GridCellMM, plan.Denominator, rtl)
			cats, err := b.Indexer.Collect(ctx, tile, grid, filter)
			if err != nil {
				return fmt.Errorf("page %d: %w", *tile.PageNumber, err)
			}
			partials[i] = cats
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return partials, nil
}

func (b *Builder) paginate(res *Result) ([]index.Page, error) {
	cfg := b.Config
	styles := b.styles()
	area := render.IndexArea(res.Page)

	p := &index.Paginator{
		Measurer:           b.Measurer,
		Width:              area.W,
		Height:             area.H,
		Columns:            cfg.Index.Columns,
		PageNumberMarginPt: geo.MMToPt(cfg.Index.PageNumberMarginMM),
		RTL:                res.RTL,
		RegionStyle:        styles.Region,
		HeaderStyle:        styles.Header,
		LabelStyle:         styles.Label,
		FirstPageNumber:    res.Plan.LastPageNumber() + 1 + cfg.Pages.InsertBeforeIndex,
	}

	return p.Paginate(res.Regions)
}

func (b *Builder) styles() render.Styles {
	st := render.DefaultStyles()
	st.Label.Size = b.Config.Index.FontSize
	st.Header.Size = b.Config.Index.HeaderFontSize
	return st
}

// Write renders the PDF, the overview previews and the manifest into dir.
func (b *Builder) Write(ctx context.Context, res *Result, dir string) error {
	cfg := b.Config
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	doc := &render.Atlas{
		Title:             cfg.Title,
		Area:              cfg.BBox,
		Rings:             res.Area.Rings(),
		RTL:               res.RTL,
		Plan:              res.Plan,
		Overview:          res.Overview,
		GridCellMM:        cfg.Index.GridCellMM,
		InsertBeforeIndex: cfg.Pages.InsertBeforeIndex,
		Index:             res.Index,
		DPI:               cfg.Tiles.DPI,
		Styles:            b.styles(),
	}

	pdfPath := filepath.Join(dir, cfg.Output.PDF)
	if err := writeFile(pdfPath, func(f *os.File) error {
		return doc.Render(ctx, f, b.Maps, b.Measurer)
	}); err != nil {
		return err
	}

	if err := b.writePreviews(ctx, res, dir); err != nil {
		return err
	}

	m := NewManifest(cfg, res)
	if err := WriteManifest(filepath.Join(dir, ManifestName), m); err != nil {
		return err
	}

	log.Info().Str("dir", dir).Str("pdf", cfg.Output.PDF).Msg("Atlas written")
	return nil
}

// writeFile creates path and removes it again when fn fails.
func writeFile(path string, fn func(f *os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	if err := fn(f); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return fmt.Errorf("write %s: %w", path, err)
	}

	return f.Close()
}
