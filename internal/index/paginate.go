package index

import (
	"errors"
	"fmt"
	"math"

	"github.com/rs/zerolog/log"
)

// ErrEmptyIndex is returned when there is no labelled entry to lay out.
var ErrEmptyIndex = errors.New("index is empty")

// LayoutDoesNotFitError is returned when an entry cannot be placed even in
// an empty single column.
type LayoutDoesNotFitError struct {
	Region string
	// Entry is the label that does not fit, empty when the columns are too
	// narrow for any label.
	Entry string
	Need  float64
	Have  float64
}

func (e *LayoutDoesNotFitError) Error() string {
	if e.Entry == "" {
		return fmt.Sprintf("index of %q needs %.1fpt wide columns, %.1fpt available", e.Region, e.Need, e.Have)
	}
	return fmt.Sprintf("index entry %q of %q is %.1fpt tall, a column holds %.1fpt", e.Entry, e.Region, e.Need, e.Have)
}

// Style selects a font for measuring and drawing.
type Style struct {
	Size float64 `json:"size"`
	Bold bool    `json:"bold,omitempty"`
}

// Measurer measures text in points.
type Measurer interface {
	// Width of s on a single line.
	Width(s string, st Style) float64
	// Height of s wrapped to the given width.
	Height(s string, st Style, width float64) float64
	LineHeight(st Style) float64
	// Em is the average character width.
	Em(st Style) float64
}

// Region is a named part of the index that starts on its own page.
type Region struct {
	Name       string     `json:"name,omitempty" yaml:"name,omitempty"`
	Categories []Category `json:"categories" yaml:"categories"`
}

// PlacementKind tells what a placement draws.
type PlacementKind int

const (
	PlaceRegion PlacementKind = iota
	PlaceHeader
	PlaceItem
)

// Placement is one box on an index page. Coordinates are relative to the
// top-left corner of the drawing area.
type Placement struct {
	Kind   PlacementKind
	Column int
	X, Y   float64
	W, H   float64

	Text      string
	Reference string
	// Leader is false for blanked duplicates.
	Leader bool
}

// Page is one laid out index page.
type Page struct {
	Number  int
	Region  string
	Columns int

	ColumnWidth   float64
	LabelWidth    float64
	LocationWidth float64
	Margin        float64

	Placements []Placement
}

// Paginator flows index categories into columns.
type Paginator struct {
	Measurer Measurer

	// Drawing area of one page.
	Width  float64
	Height float64

	// Columns per page. Zero fits as many as the widest entry allows.
	Columns int

	// Space kept free at the bottom for the page number.
	PageNumberMarginPt float64

	RTL bool

	RegionStyle Style
	HeaderStyle Style
	LabelStyle  Style

	FirstPageNumber int
}

// Paginate lays out every region, each starting on a new page. Regions
// without entries are skipped; ErrEmptyIndex is returned when none is left.
func (p *Paginator) Paginate(regions []Region) ([]Page, error) {
	var pages []Page

	for _, r := range regions {
		rp, err := p.region(r, len(regions) > 1, p.FirstPageNumber+len(pages))
		if errors.Is(err, ErrEmptyIndex) {
			log.Debug().Str("region", r.Name).Msg("No index entries, skipping region")
			continue
		}
		if err != nil {
			return nil, err
		}
		pages = append(pages, rp...)
	}

	if len(pages) == 0 {
		return nil, ErrEmptyIndex
	}
	return pages, nil
}

func (p *Paginator) region(r Region, showRegion bool, firstNumber int) ([]Page, error) {
	m := p.Measurer
	margin := m.Em(p.LabelStyle)

	var maxLabel, maxLoc float64
	for _, cat := range r.Categories {
		for _, it := range cat.Items {
			maxLabel = math.Max(maxLabel, m.Width(it.Label, p.LabelStyle))
			maxLoc = math.Max(maxLoc, m.Width(it.Reference(p.RTL), p.LabelStyle))
		}
	}
	if maxLabel == 0 {
		return nil, ErrEmptyIndex
	}

	var regionH float64
	if showRegion {
		regionH = m.LineHeight(p.RegionStyle)
	}
	top := margin/2 + regionH
	maxH := p.Height - p.PageNumberMarginPt

	columns := p.Columns
	if columns < 1 {
		columns = max(int(p.Width/(maxLabel+maxLoc+2*margin)), 1)
	}

	var colW, labelW float64
	for ; ; columns-- {
		colW = p.Width / float64(columns)
		labelW = colW - margin - maxLoc - 2*margin
		if labelW > 0 {
			break
		}
		if columns == 1 {
			return nil, &LayoutDoesNotFitError{Region: r.Name, Need: margin + maxLoc + 2*margin, Have: colW}
		}
	}
	if p.Columns > 0 && columns != p.Columns {
		log.Warn().
			Str("region", r.Name).
			Int("columns", columns).
			Int("configured", p.Columns).
			Msg("Index columns too narrow, using fewer")
	}

	lineH := m.LineHeight(p.LabelStyle)
	headerW := colW - margin

	// Reject entries that would not fit an empty column before laying out.
	for _, cat := range r.Categories {
		if h := m.Height(cat.Name, p.HeaderStyle, headerW); top+h+lineH+margin/2 > maxH {
			return nil, &LayoutDoesNotFitError{Region: r.Name, Entry: cat.Name, Need: h + lineH, Have: maxH - top - margin/2}
		}
		for _, it := range cat.Items {
			if h := m.Height(it.Label, p.LabelStyle, labelW); top+h+margin/2 > maxH {
				return nil, &LayoutDoesNotFitError{Region: r.Name, Entry: it.Label, Need: h, Have: maxH - top - margin/2}
			}
		}
	}

	originX, deltaX := margin/2, colW
	if p.RTL {
		originX, deltaX = p.Width-colW+margin/2, -colW
	}

	var pages []Page
	newPage := func() *Page {
		pages = append(pages, Page{
			Number:        firstNumber + len(pages),
			Region:        r.Name,
			Columns:       columns,
			ColumnWidth:   colW,
			LabelWidth:    labelW,
			LocationWidth: maxLoc,
			Margin:        margin,
		})
		pg := &pages[len(pages)-1]
		if showRegion {
			pg.Placements = append(pg.Placements, Placement{
				Kind: PlaceRegion, X: margin / 2, Y: margin / 2,
				W: p.Width - margin, H: regionH, Text: r.Name,
			})
		}
		return pg
	}

	page := newPage()
	col, offsetY := 0, top
	advance := func() {
		offsetY = top
		col++
		if col == columns {
			col = 0
			page = newPage()
		}
	}

	for _, cat := range r.Categories {
		headerH := m.Height(cat.Name, p.HeaderStyle, headerW)
		if offsetY+headerH+lineH+margin/2 > maxH {
			advance()
		}
		page.Placements = append(page.Placements, Placement{
			Kind: PlaceHeader, Column: col,
			X: originX + float64(col)*deltaX, Y: offsetY,
			W: headerW, H: headerH, Text: cat.Name,
		})
		offsetY += headerH

		for _, it := range cat.Items {
			h := m.Height(it.Label, p.LabelStyle, labelW)
			if offsetY+h+margin/2 > maxH {
				advance()
			}
			page.Placements = append(page.Placements, Placement{
				Kind: PlaceItem, Column: col,
				X: originX + float64(col)*deltaX, Y: offsetY,
				W: headerW, H: h,
				Text:      it.Label,
				Reference: it.Reference(p.RTL),
				Leader:    !it.Blank(),
			})
			offsetY += h
		}
	}

	return pages, nil
}
