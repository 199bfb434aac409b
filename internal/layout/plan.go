package layout

import (
	"fmt"

	"github.com/woozymasta/atlas/internal/geo"
)

// AreaFilter decides whether a page touches the area of interest.
type AreaFilter interface {
	Intersects(b geo.BoundingBox) bool
}

// PageTile is one cell of the page grid.
type PageTile struct {
	Row    int `json:"row"`
	Column int `json:"column"`

	// PageNumber is nil when the tile does not touch the area of interest.
	PageNumber *int `json:"page,omitempty"`

	// Outer covers the usable sheet including bleed and gutters,
	// Inner only the visible map.
	Outer geo.BoundingBox `json:"outer"`
	Inner geo.BoundingBox `json:"inner"`

	OuterEnvelope geo.Envelope `json:"-"`
	InnerEnvelope geo.Envelope `json:"-"`
}

// Kept reports whether the tile got a page number.
func (t PageTile) Kept() bool { return t.PageNumber != nil }

// PlanParams are the inputs of the grid planner.
type PlanParams struct {
	Envelope        geo.Envelope
	Fit             Fit
	Page            Page
	FirstPageNumber int

	// Area drops tiles whose inner box is disjoint from it. Nil keeps every tile.
	Area AreaFilter
}

// Plan is the page grid of an atlas.
type Plan struct {
	Fit
	Page            Page `json:"page"`
	FirstPageNumber int  `json:"first_page"`

	// Envelope is the input envelope grown evenly to fill the grid.
	Envelope geo.Envelope    `json:"envelope"`
	BBox     geo.BoundingBox `json:"bbox"`

	// Tiles holds every grid cell, top row first, left to right.
	Tiles       []PageTile  `json:"tiles"`
	Disposition Disposition `json:"disposition"`
}

// PlanGrid expands the envelope to the fitted grid and computes the
// geographic extent and page number of every tile.
func PlanGrid(p PlanParams) (*Plan, error) {
	if p.Fit.PagesWide < 1 || p.Fit.PagesTall < 1 || p.Fit.Denominator <= 0 {
		return nil, fmt.Errorf("invalid page grid %dx%d at 1:%g", p.Fit.PagesWide, p.Fit.PagesTall, p.Fit.Denominator)
	}

	denom := p.Fit.Denominator
	page := p.Page
	visibleW := page.VisibleWidth()
	visibleH := page.VisibleHeight()
	if visibleW <= 0 || visibleH <= 0 {
		return nil, fmt.Errorf("margins leave no visible map area (%.1fx%.1fpt)", visibleW, visibleH)
	}

	// Grow the envelope evenly on all sides so its center stays put.
	totalW := geo.PaperToMetric(visibleW*float64(p.Fit.PagesWide), denom)
	totalH := geo.PaperToMetric(visibleH*float64(p.Fit.PagesTall), denom)
	expanded := p.Envelope.Expand((totalW-p.Envelope.Width())/2, (totalH-p.Envelope.Height())/2)

	bbox, err := geo.InverseEnvelope(expanded)
	if err != nil {
		return nil, fmt.Errorf("expanded envelope: %w", err)
	}

	usableW := geo.PaperToMetric(page.UsableWidth(), denom)
	usableH := geo.PaperToMetric(page.UsableHeight(), denom)
	bleed := geo.PaperToMetric(page.BleedPt, denom)
	topBottom := geo.PaperToMetric(page.TopBottomPt, denom)
	stepX := geo.PaperToMetric(visibleW, denom)
	stepY := geo.PaperToMetric(visibleH, denom)

	plan := &Plan{
		Fit:             p.Fit,
		Page:            page,
		FirstPageNumber: p.FirstPageNumber,
		Envelope:        expanded,
		BBox:            bbox,
		Tiles:           make([]PageTile, 0, p.Fit.Pages()),
		Disposition:     Disposition{Rows: make([][]*int, p.Fit.PagesTall)},
	}

	kept := 0
	for row := 0; row < p.Fit.PagesTall; row++ {
		// Rows are counted from the top of the envelope.
		j := p.Fit.PagesTall - row - 1
		plan.Disposition.Rows[row] = make([]*int, p.Fit.PagesWide)

		for col := 0; col < p.Fit.PagesWide; col++ {
			number := p.FirstPageNumber + kept
			left := geo.PaperToMetric(page.LeftMargin(number), denom)

			innerEnv := geo.Envelope{
				MinX: expanded.MinX + float64(col)*stepX,
				MinY: expanded.MinY + float64(j)*stepY,
			}
			innerEnv.MaxX = innerEnv.MinX + stepX
			innerEnv.MaxY = innerEnv.MinY + stepY

			outerEnv := geo.Envelope{
				MinX: innerEnv.MinX - bleed - left,
				MinY: innerEnv.MinY - bleed - topBottom,
			}
			outerEnv.MaxX = outerEnv.MinX + usableW
			outerEnv.MaxY = outerEnv.MinY + usableH

			inner, err := geo.InverseEnvelope(innerEnv)
			if err != nil {
				return nil, fmt.Errorf("tile %d/%d inner box: %w", row, col, err)
			}
			outer, err := geo.InverseEnvelope(outerEnv)
			if err != nil {
				return nil, fmt.Errorf("tile %d/%d outer box: %w", row, col, err)
			}

			tile := PageTile{
				Row:           row,
				Column:        col,
				Outer:         outer,
				Inner:         inner,
				OuterEnvelope: outerEnv,
				InnerEnvelope: innerEnv,
			}
			if p.Area == nil || p.Area.Intersects(inner) {
				n := number
				tile.PageNumber = &n
				plan.Disposition.Rows[row][col] = &n
				kept++
			}

			plan.Tiles = append(plan.Tiles, tile)
		}
	}

	return plan, nil
}

// Kept returns the numbered tiles in page order.
func (p *Plan) Kept() []PageTile {
	out := make([]PageTile, 0, len(p.Tiles))
	for _, t := range p.Tiles {
		if t.Kept() {
			out = append(out, t)
		}
	}
	return out
}

// LastPageNumber returns the number of the last map page, or
// FirstPageNumber-1 when no tile was kept.
func (p *Plan) LastPageNumber() int {
	return p.FirstPageNumber + len(p.Kept()) - 1
}
