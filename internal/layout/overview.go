package layout

import (
	"fmt"

	"github.com/woozymasta/atlas/internal/geo"
)

// OverviewPage is one numbered tile drawn on the overview map.
type OverviewPage struct {
	PageNumber int             `json:"page"`
	BBox       geo.BoundingBox `json:"bbox"`
}

// OverviewGrid is the cross-reference map of all map pages.
type OverviewGrid struct {
	BBox  geo.BoundingBox `json:"bbox"`
	Pages []OverviewPage  `json:"pages"`
	RTL   bool            `json:"rtl,omitempty"`
}

// LabelBox is the drawing rectangle of one page on the overview, with the
// origin in the top-left corner.
type LabelBox struct {
	PageNumber int
	X, Y, W, H float64
}

// ComposeOverview pads the expanded grid box so the overview keeps the same
// margins as a detail page and records the kept tiles for labelling.
func ComposeOverview(expanded geo.BoundingBox, page Page, tiles []PageTile, rtl bool) OverviewGrid {
	lonSpan := expanded.East - expanded.West
	latSpan := expanded.North - expanded.South

	left := lonSpan / page.UsableWidth() * (page.InsidePt + page.BleedPt)
	right := lonSpan / page.UsableWidth() * (page.OutsidePt + page.BleedPt)
	topBottom := latSpan / page.UsableHeight() * (page.TopBottomPt + page.BleedPt)

	grid := OverviewGrid{
		BBox: expanded.Expand(topBottom, left, topBottom, right),
		RTL:  rtl,
	}
	for _, t := range tiles {
		if !t.Kept() {
			continue
		}
		grid.Pages = append(grid.Pages, OverviewPage{PageNumber: *t.PageNumber, BBox: t.Inner})
	}

	return grid
}

// LabelBoxes places every page of the overview on a drawing area of the
// given size. Positions are linear in projected metres.
func (g OverviewGrid) LabelBoxes(width, height float64) ([]LabelBox, error) {
	area, err := geo.ProjectBBox(g.BBox)
	if err != nil {
		return nil, fmt.Errorf("overview box: %w", err)
	}

	sx := width / area.Width()
	sy := height / area.Height()

	boxes := make([]LabelBox, 0, len(g.Pages))
	for _, p := range g.Pages {
		env, err := geo.ProjectBBox(p.BBox)
		if err != nil {
			return nil, fmt.Errorf("overview page %d: %w", p.PageNumber, err)
		}
		boxes = append(boxes, LabelBox{
			PageNumber: p.PageNumber,
			X:          (env.MinX - area.MinX) * sx,
			Y:          (area.MaxY - env.MaxY) * sy,
			W:          env.Width() * sx,
			H:          env.Height() * sy,
		})
	}

	return boxes, nil
}
