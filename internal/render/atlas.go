package render

import (
	"context"
	"fmt"
	"io"

	"github.com/woozymasta/atlas/internal/fonts"
	"github.com/woozymasta/atlas/internal/geo"
	"github.com/woozymasta/atlas/internal/index"
	"github.com/woozymasta/atlas/internal/layout"

	"github.com/rs/zerolog/log"
)

// FrontPageMarginDeg widens the area shown on the front page.
const FrontPageMarginDeg = 0.03

// Atlas is everything that goes into the printed document.
type Atlas struct {
	Title string
	Area  geo.BoundingBox
	RTL   bool

	// Rings outline the area of interest as [lon, lat] pairs. Everything
	// outside them is shaded on the front page, the overview and map pages.
	Rings [][][2]float64

	Plan       *layout.Plan
	Overview   layout.OverviewGrid
	GridCellMM float64

	// Blank pages between the last map page and the index.
	InsertBeforeIndex int
	Index             []index.Page

	DPI    float64
	Styles Styles
}

// Render writes the document in page order: front page, blank fill pages,
// overview, map pages, blank pages before the index and the index.
// Map pages are printed on their own page numbers, so the plan must start
// numbering at 3 or later.
func (a *Atlas) Render(ctx context.Context, w io.Writer, maps MapRenderer, m *fonts.Measurer) error {
	if a.Plan == nil {
		return fmt.Errorf("render %q: no page plan", a.Title)
	}
	first := a.Plan.FirstPageNumber
	if first < 3 {
		return fmt.Errorf("render %q: first map page %d leaves no room for the front page and overview", a.Title, first)
	}
	if maps == nil {
		maps = Blank{}
	}

	doc, err := NewDocument(a.Plan.Page, a.Title, m, a.Styles)
	if err != nil {
		return err
	}

	doc.area = a.Rings

	if err := doc.FrontPage(ctx, maps, a.DPI, frontPageBox(a.Area), a.Title); err != nil {
		return err
	}
	for n := 2; n < first-1; n++ {
		if err := doc.BlankPage(n); err != nil {
			return err
		}
	}
	if err := doc.OverviewPage(ctx, maps, a.DPI, first-1, a.Overview); err != nil {
		return err
	}

	for i, tile := range a.Plan.Kept() {
		if err := ctx.Err(); err != nil {
			return err
		}

		n := *tile.PageNumber
		grid := layout.NewLocationGrid(tile.InnerEnvelope, a.GridCellMM, a.Plan.Denominator, a.RTL)
		if err := doc.MapPage(ctx, maps, a.DPI, tile, grid, a.Plan.Denominator, a.Plan.Disposition.Neighbors(n)); err != nil {
			return err
		}
		if i == 0 {
			doc.Bookmark("Maps", 0)
		}
		doc.Bookmark(fmt.Sprintf("Page %d", n), 1)

		log.Debug().Int("page", n).Int("row", tile.Row).Int("column", tile.Column).Msg("Map page rendered")
	}

	last := a.Plan.LastPageNumber()
	for n := last + 1; n <= last+a.InsertBeforeIndex; n++ {
		if err := doc.BlankPage(n); err != nil {
			return err
		}
	}

	region := ""
	for i, pg := range a.Index {
		if err := doc.IndexPage(pg, a.RTL); err != nil {
			return err
		}
		if i == 0 {
			doc.Bookmark("Index", 0)
		}
		if pg.Region != "" && (i == 0 || pg.Region != region) {
			doc.Bookmark(pg.Region, 1)
		}
		region = pg.Region
	}

	log.Info().
		Str("title", a.Title).
		Int("pages", doc.Pages()).
		Int("map_pages", len(a.Plan.Kept())).
		Int("index_pages", len(a.Index)).
		Msg("Atlas document complete")

	return doc.Write(w)
}

// frontPageBox widens the area by FrontPageMarginDeg on every side,
// staying inside the Mercator domain.
func frontPageBox(area geo.BoundingBox) geo.BoundingBox {
	m := FrontPageMarginDeg
	return area.Expand(m, m, m, m).Clamp()
}
