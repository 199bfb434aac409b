package layout

import (
	"math"
	"strconv"

	"github.com/woozymasta/atlas/internal/geo"
)

// LocationGrid divides the visible area of a map page into lettered
// columns and numbered rows, used as index references like "B3".
type LocationGrid struct {
	Envelope geo.Envelope
	Cell     float64 // cell edge in metres
	RTL      bool
}

// NewLocationGrid builds a grid over the inner envelope of a tile with
// square cells of cellMM millimetres on paper.
func NewLocationGrid(inner geo.Envelope, cellMM, denominator float64, rtl bool) LocationGrid {
	return LocationGrid{
		Envelope: inner,
		Cell:     geo.PaperToMetric(geo.MMToPt(cellMM), denominator),
		RTL:      rtl,
	}
}

// HorizontalCount is the number of columns, the last one possibly partial.
func (g LocationGrid) HorizontalCount() float64 { return g.Envelope.Width() / g.Cell }

// VerticalCount is the number of rows, the last one possibly partial.
func (g LocationGrid) VerticalCount() float64 { return g.Envelope.Height() / g.Cell }

// Columns returns the number of column labels.
func (g LocationGrid) Columns() int { return int(math.Ceil(g.HorizontalCount() - 1e-9)) }

// Rows returns the number of row labels.
func (g LocationGrid) Rows() int { return int(math.Ceil(g.VerticalCount() - 1e-9)) }

// ColumnLabels returns the column labels from left to right.
func (g LocationGrid) ColumnLabels() []string {
	n := g.Columns()
	labels := make([]string, n)
	for i := range labels {
		idx := i
		if g.RTL {
			idx = n - 1 - i
		}
		labels[i] = columnLabel(idx)
	}
	return labels
}

// RowLabels returns the row labels from top to bottom.
func (g LocationGrid) RowLabels() []string {
	labels := make([]string, g.Rows())
	for i := range labels {
		labels[i] = strconv.Itoa(i + 1)
	}
	return labels
}

// CellOf returns the zero-based column and row of a geographic point.
func (g LocationGrid) CellOf(lat, lon float64) (col, row int, ok bool) {
	x, y, err := geo.Forward(lon, lat)
	if err != nil {
		return 0, 0, false
	}
	if x < g.Envelope.MinX || x > g.Envelope.MaxX || y < g.Envelope.MinY || y > g.Envelope.MaxY {
		return 0, 0, false
	}

	col = min(int((x-g.Envelope.MinX)/g.Cell), g.Columns()-1)
	row = min(int((g.Envelope.MaxY-y)/g.Cell), g.Rows()-1)
	if g.RTL {
		col = g.Columns() - 1 - col
	}

	return col, row, true
}

// Label returns the square label of a point, like "C4".
func (g LocationGrid) Label(lat, lon float64) (string, bool) {
	col, row, ok := g.CellOf(lat, lon)
	if !ok {
		return "", false
	}
	return columnLabel(col) + strconv.Itoa(row+1), true
}

// Describe returns the squares covered by the [lon, lat] points that fall
// inside the grid: "B3" for one square, otherwise the top-left and
// bottom-right squares of their extent like "A1-C2".
func (g LocationGrid) Describe(points [][2]float64) (string, bool) {
	minCol, minRow, maxCol, maxRow := -1, -1, -1, -1
	for _, p := range points {
		c, r, ok := g.CellOf(p[1], p[0])
		if !ok {
			continue
		}
		if minCol < 0 {
			minCol, minRow, maxCol, maxRow = c, r, c, r
			continue
		}
		minCol, maxCol = min(minCol, c), max(maxCol, c)
		minRow, maxRow = min(minRow, r), max(maxRow, r)
	}
	if minCol < 0 {
		return "", false
	}

	lo := columnLabel(minCol) + strconv.Itoa(minRow+1)
	if minCol == maxCol && minRow == maxRow {
		return lo, true
	}
	hi := columnLabel(maxCol) + strconv.Itoa(maxRow+1)
	if g.RTL {
		return hi + "-" + lo, true
	}
	return lo + "-" + hi, true
}

// columnLabel turns 0, 1, ..., 25, 26 into A, B, ..., Z, AA.
func columnLabel(i int) string {
	var b []byte
	for i++; i > 0; i = (i - 1) / 26 {
		b = append([]byte{byte('A' + (i-1)%26)}, b...)
	}
	return string(b)
}
