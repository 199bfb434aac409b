package layout

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/woozymasta/atlas/internal/geo"
)

type areaFunc func(geo.BoundingBox) bool

func (f areaFunc) Intersects(b geo.BoundingBox) bool { return f(b) }

func intp(n int) *int { return &n }

// squarePage has a 100x100mm visible area and no margins.
var squarePage = NewPage(100, 100, 0, 0, 0, 0, 0)

// km returns an envelope of w x h kilometres around a point in Germany.
func km(w, h float64) geo.Envelope {
	const cx, cy = 870000.0, 6100000.0
	return geo.Envelope{
		MinX: cx - w*500, MinY: cy - h*500,
		MaxX: cx + w*500, MaxY: cy + h*500,
	}
}

func TestFitScale(t *testing.T) {
	tests := []struct {
		name      string
		params    FitParams
		want      Fit
		wantError bool
	}{
		{
			name: "fits at the finest scale",
			params: FitParams{
				Envelope: km(1, 1), VisibleWidthPt: squarePage.VisibleWidth(), VisibleHeightPt: squarePage.VisibleHeight(),
				MaxPages: 1, FinestDenominator: 10000, CoarsestDenominator: 70000,
			},
			want: Fit{Denominator: 10000, PagesWide: 1, PagesTall: 1},
		},
		{
			name: "grid without coarsening",
			params: FitParams{
				Envelope: km(1, 1.5), VisibleWidthPt: squarePage.VisibleWidth(), VisibleHeightPt: squarePage.VisibleHeight(),
				MaxPages: 100, FinestDenominator: 5000, CoarsestDenominator: 70000,
			},
			want: Fit{Denominator: 5000, PagesWide: 2, PagesTall: 3},
		},
		{
			name: "coarsens until the budget is met",
			params: FitParams{
				Envelope: km(1, 1), VisibleWidthPt: squarePage.VisibleWidth(), VisibleHeightPt: squarePage.VisibleHeight(),
				MaxPages: 1, FinestDenominator: 5000, CoarsestDenominator: 20000, Step: 2,
			},
			want: Fit{Denominator: 10000, PagesWide: 1, PagesTall: 1},
		},
		{
			name: "budget cannot be met",
			params: FitParams{
				Envelope: km(1, 1), VisibleWidthPt: squarePage.VisibleWidth(), VisibleHeightPt: squarePage.VisibleHeight(),
				MaxPages: 1, FinestDenominator: 5000, CoarsestDenominator: 8000, Step: 2,
			},
			wantError: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FitScale(tt.params)
			if tt.wantError {
				var sbe *ScaleBudgetExceededError
				if !errors.As(err, &sbe) {
					t.Fatalf("err = %v, want ScaleBudgetExceededError", err)
				}
				if sbe.Denominator != 5000 || sbe.PagesWide != 2 || sbe.PagesTall != 2 {
					t.Errorf("error details = %+v", sbe)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("FitScale() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFitScaleNeverFinerThanStart(t *testing.T) {
	for _, maxPages := range []int{1, 2, 5, 20, 500} {
		params := FitParams{
			Envelope: km(12, 7), VisibleWidthPt: 500, VisibleHeightPt: 700,
			MaxPages: maxPages, FinestDenominator: 11000, CoarsestDenominator: 1e9,
		}
		fit, err := FitScale(params)
		if err != nil {
			t.Fatalf("maxPages %d: %v", maxPages, err)
		}
		if fit.Denominator < params.FinestDenominator {
			t.Errorf("maxPages %d: scale 1:%v finer than start", maxPages, fit.Denominator)
		}
		if fit.Pages() > maxPages {
			t.Errorf("maxPages %d: got %d pages", maxPages, fit.Pages())
		}
	}
}

func TestFitScaleValidation(t *testing.T) {
	base := FitParams{
		Envelope: km(1, 1), VisibleWidthPt: 100, VisibleHeightPt: 100,
		MaxPages: 1, FinestDenominator: 10000, CoarsestDenominator: 20000,
	}

	bad := []func(p *FitParams){
		func(p *FitParams) { p.Envelope = geo.Envelope{} },
		func(p *FitParams) { p.VisibleWidthPt = -1 },
		func(p *FitParams) { p.MaxPages = 0 },
		func(p *FitParams) { p.CoarsestDenominator = 5000 },
		func(p *FitParams) { p.Step = 0.5 },
	}
	for i, mutate := range bad {
		p := base
		mutate(&p)
		if _, err := FitScale(p); err == nil {
			t.Errorf("case %d: expected validation error", i)
		}
	}
}

// planEnvelope plans a 3x3 grid on A4 at 1:11000.
var planEnvelope = km(5, 7)

func planFixture(t *testing.T, area AreaFilter) *Plan {
	t.Helper()

	page := NewPage(210, 297, 2, 0, 18.3, 10, 10)
	env := planEnvelope
	fit, err := FitScale(FitParams{
		Envelope: env, VisibleWidthPt: page.VisibleWidth(), VisibleHeightPt: page.VisibleHeight(),
		MaxPages: 5000, FinestDenominator: 11000, CoarsestDenominator: 70000,
	})
	if err != nil {
		t.Fatal(err)
	}

	plan, err := PlanGrid(PlanParams{Envelope: env, Fit: fit, Page: page, FirstPageNumber: 4, Area: area})
	if err != nil {
		t.Fatal(err)
	}
	return plan
}

func TestPlanGridCoverage(t *testing.T) {
	plan := planFixture(t, nil)
	const eps = 1e-6

	if plan.PagesWide < 2 || plan.PagesTall < 2 {
		t.Fatalf("fixture should produce a real grid, got %dx%d", plan.PagesWide, plan.PagesTall)
	}

	ocx, ocy := planEnvelope.Center()
	ecx, ecy := plan.Envelope.Center()
	if math.Abs(ocx-ecx) > eps || math.Abs(ocy-ecy) > eps {
		t.Errorf("expanded envelope moved its center: (%v,%v) -> (%v,%v)", ocx, ocy, ecx, ecy)
	}
	if !plan.Envelope.Contains(planEnvelope, eps) {
		t.Error("expanded envelope must contain the input envelope")
	}

	denom := plan.Denominator
	usableW := geo.PaperToMetric(plan.Page.UsableWidth(), denom)
	usableH := geo.PaperToMetric(plan.Page.UsableHeight(), denom)

	var area float64
	for _, tile := range plan.Tiles {
		in, out := tile.InnerEnvelope, tile.OuterEnvelope
		area += in.Width() * in.Height()

		if !plan.Envelope.Contains(in, eps) {
			t.Errorf("tile %d/%d inner box leaves the grid", tile.Row, tile.Column)
		}
		if !out.Contains(in, eps) {
			t.Errorf("tile %d/%d inner box leaves its page", tile.Row, tile.Column)
		}
		if math.Abs(out.Width()-usableW) > eps || math.Abs(out.Height()-usableH) > eps {
			t.Errorf("tile %d/%d outer box is not one page", tile.Row, tile.Column)
		}

		// Neighbouring inner boxes share their edges.
		if tile.Column > 0 {
			prev := plan.Tiles[tile.Row*plan.PagesWide+tile.Column-1].InnerEnvelope
			if math.Abs(prev.MaxX-in.MinX) > eps {
				t.Errorf("gap between columns %d and %d", tile.Column-1, tile.Column)
			}
		}
		if tile.Row > 0 {
			above := plan.Tiles[(tile.Row-1)*plan.PagesWide+tile.Column].InnerEnvelope
			if math.Abs(above.MinY-in.MaxY) > eps {
				t.Errorf("gap between rows %d and %d", tile.Row-1, tile.Row)
			}
		}
	}

	total := plan.Envelope.Width() * plan.Envelope.Height()
	if math.Abs(area-total)/total > 1e-9 {
		t.Errorf("inner boxes cover %v of %v square metres", area, total)
	}
}

func TestPlanGridGutters(t *testing.T) {
	plan := planFixture(t, nil)
	denom := plan.Denominator
	bleed := geo.PaperToMetric(plan.Page.BleedPt, denom)
	inside := geo.PaperToMetric(plan.Page.InsidePt, denom)
	outside := geo.PaperToMetric(plan.Page.OutsidePt, denom)

	for _, tile := range plan.Tiles {
		left := tile.InnerEnvelope.MinX - tile.OuterEnvelope.MinX
		right := tile.OuterEnvelope.MaxX - tile.InnerEnvelope.MaxX

		wantLeft, wantRight := bleed+outside, bleed+inside
		if *tile.PageNumber%2 != 0 {
			wantLeft, wantRight = bleed+inside, bleed+outside
		}
		if math.Abs(left-wantLeft) > 1e-6 || math.Abs(right-wantRight) > 1e-6 {
			t.Errorf("page %d: gutters %v/%v, want %v/%v", *tile.PageNumber, left, right, wantLeft, wantRight)
		}
	}
}

func TestPlanGridPageNumbersAreContiguous(t *testing.T) {
	full := planFixture(t, nil)
	secondColumn := full.Tiles[1].Inner.West

	// Drop every tile of the first column.
	plan := planFixture(t, areaFunc(func(b geo.BoundingBox) bool {
		return b.West >= secondColumn-1e-9
	}))

	if plan.PagesTall < 2 {
		t.Fatalf("fixture should produce several rows, got %d", plan.PagesTall)
	}

	next := plan.FirstPageNumber
	for _, tile := range plan.Tiles {
		if tile.Column == 0 {
			if tile.Kept() {
				t.Errorf("tile %d/0 should have been dropped", tile.Row)
			}
			if _, ok := plan.Disposition.At(tile.Row, 0); ok {
				t.Errorf("disposition keeps dropped tile %d/0", tile.Row)
			}
			continue
		}
		if !tile.Kept() {
			t.Fatalf("tile %d/%d dropped", tile.Row, tile.Column)
		}
		if *tile.PageNumber != next {
			t.Errorf("tile %d/%d page = %d, want %d", tile.Row, tile.Column, *tile.PageNumber, next)
		}
		next++
	}

	if got, want := plan.LastPageNumber(), next-1; got != want {
		t.Errorf("LastPageNumber = %d, want %d", got, want)
	}
	if len(plan.Kept()) != plan.Pages()-plan.PagesTall {
		t.Errorf("kept %d tiles", len(plan.Kept()))
	}
}

func TestPlanGridRowsStartAtTheTop(t *testing.T) {
	plan := planFixture(t, nil)
	if plan.PagesTall < 2 {
		t.Fatalf("fixture should produce several rows, got %d", plan.PagesTall)
	}
	first, last := plan.Tiles[0], plan.Tiles[len(plan.Tiles)-1]
	if first.Inner.North <= last.Inner.North {
		t.Errorf("first tile (%v) should be north of the last one (%v)", first.Inner, last.Inner)
	}
	if first.Inner.West >= last.Inner.West {
		t.Errorf("first tile (%v) should be west of the last one (%v)", first.Inner, last.Inner)
	}
}

func TestNeighbors(t *testing.T) {
	grid := Disposition{Rows: [][]*int{
		{intp(0), intp(1)},
		{intp(2), intp(3)},
	}}

	got := grid.Neighbors(0)
	want := Neighbors{South: intp(2), East: intp(1)}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Neighbors(0) mismatch (-want +got):\n%s", diff)
	}

	got = grid.Neighbors(3)
	want = Neighbors{North: intp(1), West: intp(2)}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Neighbors(3) mismatch (-want +got):\n%s", diff)
	}
}

func TestNeighborsSkipGaps(t *testing.T) {
	grid := Disposition{Rows: [][]*int{
		{intp(4), nil, intp(5)},
		{nil, nil, nil},
		{intp(6), intp(7), nil},
	}}

	got := grid.Neighbors(4)
	want := Neighbors{South: intp(6), East: intp(5)}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Neighbors(4) mismatch (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff(Neighbors{}, grid.Neighbors(1)); diff != "" {
		t.Errorf("page outside the grid must have no neighbours:\n%s", diff)
	}
}

func TestComposeOverview(t *testing.T) {
	plan := planFixture(t, nil)
	ov := ComposeOverview(plan.BBox, plan.Page, plan.Tiles, false)

	if len(ov.Pages) != len(plan.Kept()) {
		t.Fatalf("overview has %d pages, want %d", len(ov.Pages), len(plan.Kept()))
	}
	if ov.BBox.West >= plan.BBox.West || ov.BBox.East <= plan.BBox.East ||
		ov.BBox.South >= plan.BBox.South || ov.BBox.North <= plan.BBox.North {
		t.Errorf("overview box %v must pad %v on every side", ov.BBox, plan.BBox)
	}
	// The gutter side is wider than the outside margin.
	if left, right := plan.BBox.West-ov.BBox.West, ov.BBox.East-plan.BBox.East; left <= right {
		t.Errorf("left pad %v should exceed right pad %v", left, right)
	}

	const w, h = 500.0, 700.0
	boxes, err := ov.LabelBoxes(w, h)
	if err != nil {
		t.Fatal(err)
	}
	for _, b := range boxes {
		if b.X < 0 || b.Y < 0 || b.X+b.W > w+1e-6 || b.Y+b.H > h+1e-6 {
			t.Errorf("label box %+v outside the drawing area", b)
		}
	}
	if boxes[0].PageNumber != 4 || boxes[0].X > boxes[len(boxes)-1].X || boxes[0].Y > boxes[len(boxes)-1].Y {
		t.Errorf("first page should be drawn top-left: %+v", boxes[0])
	}
}

func TestColumnLabel(t *testing.T) {
	for i, want := range map[int]string{0: "A", 1: "B", 25: "Z", 26: "AA", 27: "AB", 701: "ZZ", 702: "AAA"} {
		if got := columnLabel(i); got != want {
			t.Errorf("columnLabel(%d) = %q, want %q", i, got, want)
		}
	}
}

func TestLocationGrid(t *testing.T) {
	// A 3x2 km area with 1 km cells at 1:10000 (100 mm on paper).
	env := km(3, 2)
	grid := NewLocationGrid(env, 100, 10000, false)

	if grid.Columns() != 3 || grid.Rows() != 2 {
		t.Fatalf("grid is %dx%d, want 3x2", grid.Columns(), grid.Rows())
	}
	if diff := cmp.Diff([]string{"A", "B", "C"}, grid.ColumnLabels()); diff != "" {
		t.Errorf("ColumnLabels mismatch:\n%s", diff)
	}

	at := func(x, y float64) [2]float64 {
		lon, lat, err := geo.Inverse(x, y)
		if err != nil {
			t.Fatal(err)
		}
		return [2]float64{lon, lat}
	}
	topLeft := at(env.MinX+500, env.MaxY-500)
	bottomRight := at(env.MaxX-500, env.MinY+500)
	outside := at(env.MaxX+5000, env.MinY)

	if got, ok := grid.Label(topLeft[1], topLeft[0]); !ok || got != "A1" {
		t.Errorf("Label(top left) = %q, %v", got, ok)
	}
	if got, ok := grid.Describe([][2]float64{bottomRight, outside, topLeft}); !ok || got != "A1-C2" {
		t.Errorf("Describe = %q, %v", got, ok)
	}
	if _, ok := grid.Describe([][2]float64{outside}); ok {
		t.Error("Describe of a point outside the grid must fail")
	}

	rtl := NewLocationGrid(env, 100, 10000, true)
	if got, ok := rtl.Describe([][2]float64{topLeft, bottomRight}); !ok || got != "C2-A1" {
		t.Errorf("RTL Describe = %q, %v", got, ok)
	}
}
