package layout

import (
	"errors"
	"fmt"
	"math"

	"github.com/woozymasta/atlas/internal/geo"
)

// DefaultScaleStep grows the scale denominator so that each step roughly
// doubles the area covered by one page.
const DefaultScaleStep = 1.41

// FitParams are the inputs of the scale search.
type FitParams struct {
	Envelope        geo.Envelope
	VisibleWidthPt  float64
	VisibleHeightPt float64
	MaxPages        int

	// FinestDenominator is where the search starts: the most detailed scale
	// the atlas may use. CoarsestDenominator is the least detailed one.
	FinestDenominator   float64
	CoarsestDenominator float64
	Step                float64
}

// Fit is the result of the scale search.
type Fit struct {
	Denominator float64 `json:"scale_denominator"`
	PagesWide   int     `json:"pages_wide"`
	PagesTall   int     `json:"pages_tall"`
}

// Pages returns the number of grid cells.
func (f Fit) Pages() int { return f.PagesWide * f.PagesTall }

// ScaleBudgetExceededError is returned when no scale up to the coarsest
// allowed one keeps the grid within the page budget.
type ScaleBudgetExceededError struct {
	Denominator float64
	Coarsest    float64
	PagesWide   int
	PagesTall   int
	MaxPages    int
}

func (e *ScaleBudgetExceededError) Error() string {
	return fmt.Sprintf("%dx%d pages at 1:%.0f exceed the budget of %d pages and 1:%.0f is the coarsest allowed scale",
		e.PagesWide, e.PagesTall, e.Denominator, e.MaxPages, e.Coarsest)
}

// FitScale searches for the most detailed scale, starting at the finest
// denominator, whose page grid stays within MaxPages.
func FitScale(p FitParams) (Fit, error) {
	if err := p.validate(); err != nil {
		return Fit{}, err
	}

	step := p.Step
	if step == 0 {
		step = DefaultScaleStep
	}

	denom := p.FinestDenominator
	for {
		fit := Fit{
			Denominator: denom,
			PagesWide:   pagesFor(p.Envelope.Width(), p.VisibleWidthPt, denom),
			PagesTall:   pagesFor(p.Envelope.Height(), p.VisibleHeightPt, denom),
		}
		if fit.Pages() <= p.MaxPages {
			return fit, nil
		}

		next := denom * step
		if next > p.CoarsestDenominator {
			return Fit{}, &ScaleBudgetExceededError{
				Denominator: denom,
				Coarsest:    p.CoarsestDenominator,
				PagesWide:   fit.PagesWide,
				PagesTall:   fit.PagesTall,
				MaxPages:    p.MaxPages,
			}
		}
		denom = next
	}
}

func (p FitParams) validate() error {
	switch {
	case p.Envelope.Width() <= 0 || p.Envelope.Height() <= 0:
		return errors.New("envelope is empty")
	case p.VisibleWidthPt <= 0 || p.VisibleHeightPt <= 0:
		return fmt.Errorf("margins leave no visible map area (%.1fx%.1fpt)", p.VisibleWidthPt, p.VisibleHeightPt)
	case p.MaxPages < 1:
		return fmt.Errorf("page budget %d must be positive", p.MaxPages)
	case p.FinestDenominator <= 0:
		return fmt.Errorf("scale denominator %g must be positive", p.FinestDenominator)
	case p.CoarsestDenominator < p.FinestDenominator:
		return fmt.Errorf("coarsest scale 1:%g is finer than 1:%g", p.CoarsestDenominator, p.FinestDenominator)
	case p.Step != 0 && p.Step <= 1:
		return fmt.Errorf("scale step %g must be greater than 1", p.Step)
	}
	return nil
}

// pagesFor returns how many visible areas are needed to cover metres at
// the given scale.
func pagesFor(metres, visiblePt, denom float64) int {
	total := geo.MetricToPaper(metres, denom)
	if total <= visiblePt {
		return 1
	}
	// Absorb rounding noise so an exact fit does not spill onto another page.
	return int(math.Ceil(total/visiblePt - 1e-9))
}
