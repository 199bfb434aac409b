// Package layout tiles an area of interest across printed pages.
//
// It picks a scale, splits the projected envelope into a page grid with
// alternating gutters, numbers the pages that touch the area and derives the
// overview and neighbour information the renderer needs.
package layout

import "github.com/woozymasta/atlas/internal/geo"

// Page describes the physical page in points.
type Page struct {
	// Full sheet size, bleed included on every side.
	WidthPt  float64 `json:"width_pt"`
	HeightPt float64 `json:"height_pt"`

	SafeMarginPt float64 `json:"safe_margin_pt"`
	BleedPt      float64 `json:"bleed_pt"`

	// Gutters. Inside is the binding edge.
	InsidePt    float64 `json:"inside_pt"`
	OutsidePt   float64 `json:"outside_pt"`
	TopBottomPt float64 `json:"top_bottom_pt"`
}

// NewPage builds a page from trimmed paper size and margins in millimetres.
// The bleed is added on every side of the trimmed paper.
func NewPage(widthMM, heightMM, bleedMM, safeMarginPt, insideMM, outsideMM, topBottomMM float64) Page {
	return Page{
		WidthPt:      geo.MMToPt(widthMM + 2*bleedMM),
		HeightPt:     geo.MMToPt(heightMM + 2*bleedMM),
		SafeMarginPt: safeMarginPt,
		BleedPt:      geo.MMToPt(bleedMM),
		InsidePt:     geo.MMToPt(insideMM),
		OutsidePt:    geo.MMToPt(outsideMM),
		TopBottomPt:  geo.MMToPt(topBottomMM),
	}
}

// UsableWidth is the sheet width minus the print-safe margin.
func (p Page) UsableWidth() float64 { return p.WidthPt - 2*p.SafeMarginPt }

// UsableHeight is the sheet height minus the print-safe margin.
func (p Page) UsableHeight() float64 { return p.HeightPt - 2*p.SafeMarginPt }

// VisibleWidth is the map width left after bleed and both gutters.
func (p Page) VisibleWidth() float64 {
	return p.UsableWidth() - 2*p.BleedPt - p.InsidePt - p.OutsidePt
}

// VisibleHeight is the map height left after bleed and top/bottom margins.
func (p Page) VisibleHeight() float64 {
	return p.UsableHeight() - 2*p.BleedPt - 2*p.TopBottomPt
}

// LeftMargin returns the gutter on the left edge of page number n.
// Odd pages are right-hand pages, bound on their left.
func (p Page) LeftMargin(n int) float64 {
	if n%2 != 0 {
		return p.InsidePt
	}
	return p.OutsidePt
}

// RightMargin returns the gutter on the right edge of page number n.
func (p Page) RightMargin(n int) float64 {
	if n%2 != 0 {
		return p.OutsidePt
	}
	return p.InsidePt
}
