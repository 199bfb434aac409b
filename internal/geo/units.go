package geo

// Length units in PDF points (1/72 inch).
const (
	PtPerInch = 72.0
	MMPerInch = 25.4
)

// MMToPt converts millimetres to points.
func MMToPt(mm float64) float64 { return mm * PtPerInch / MMPerInch }

// PtToMM converts points to millimetres.
func PtToMM(pt float64) float64 { return pt * MMPerInch / PtPerInch }

// PaperToMetric converts a length on paper (points) to projected metres at
// the scale 1:denominator.
func PaperToMetric(pt, denominator float64) float64 {
	return PtToMM(pt) * denominator / 1000
}

// MetricToPaper converts projected metres to points on paper at the scale
// 1:denominator.
func MetricToPaper(m, denominator float64) float64 {
	return MMToPt(m * 1000 / denominator)
}
