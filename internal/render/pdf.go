// Package render writes the atlas as a PDF document.
package render

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"io"
	"strconv"

	"github.com/woozymasta/atlas/internal/fonts"
	"github.com/woozymasta/atlas/internal/geo"
	"github.com/woozymasta/atlas/internal/index"
	"github.com/woozymasta/atlas/internal/layout"

	"github.com/jung-kurt/gofpdf"
)

// Styles are the fonts of the printed text.
type Styles struct {
	Title  index.Style
	Region index.Style
	Header index.Style
	Label  index.Style
	Page   index.Style
}

// DefaultStyles matches the index sizes of a printed city atlas.
func DefaultStyles() Styles {
	return Styles{
		Title:  index.Style{Size: 24, Bold: true},
		Region: index.Style{Size: 24, Bold: true},
		Header: index.Style{Size: 12, Bold: true},
		Label:  index.Style{Size: 6},
		Page:   index.Style{Size: 10, Bold: true},
	}
}

// Rect is a rectangle on a page in points, origin top-left.
type Rect struct {
	X, Y, W, H float64
}

// Document is a PDF under construction. Pages must be added in reading
// order; page numbers are the physical page index.
type Document struct {
	pdf      *gofpdf.Fpdf
	page     layout.Page
	measurer *fonts.Measurer
	styles   Styles
	images   int

	// area is the outline of the area of interest as [lon, lat] rings.
	area [][][2]float64

	// links holds the internal link of every page that can be jumped to.
	links map[int]int
}

// NewDocument starts a document with pages of the given size.
func NewDocument(page layout.Page, title string, m *fonts.Measurer, styles Styles) (*Document, error) {
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "pt",
		Size:    gofpdf.SizeType{Wd: page.WidthPt, Ht: page.HeightPt},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle(title, true)
	pdf.SetCreator("atlas", true)

	pdf.AddUTF8FontFromBytes(fonts.Family, "", fonts.Regular())
	pdf.AddUTF8FontFromBytes(fonts.Family, "B", fonts.Bold())
	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("register fonts: %w", err)
	}

	return &Document{
		pdf:      pdf,
		page:     page,
		measurer: m,
		styles:   styles,
		links:    make(map[int]int),
	}, nil
}

// Pages returns the number of pages added so far.
func (d *Document) Pages() int { return d.pdf.PageCount() }

// LinkTo returns an internal link to a page, which may not exist yet.
func (d *Document) LinkTo(number int) int {
	if id, ok := d.links[number]; ok {
		return id
	}
	id := d.pdf.AddLink()
	d.pdf.SetLink(id, 0, number)
	d.links[number] = id
	return id
}

// AddPage starts a new page and checks that it gets the expected number.
func (d *Document) AddPage(number int) error {
	d.pdf.AddPage()
	if got := d.pdf.PageNo(); got != number {
		return fmt.Errorf("page %d would be printed as page %d", number, got)
	}
	return nil
}

// Bookmark adds an outline entry pointing at the top of the current page.
func (d *Document) Bookmark(title string, level int) {
	d.pdf.Bookmark(title, level, 0)
}

// Image places img stretched over r. A nil image is skipped.
func (d *Document) Image(img image.Image, r Rect) error {
	if img == nil {
		return nil
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("encode image: %w", err)
	}

	d.images++
	name := "img" + strconv.Itoa(d.images)
	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	d.pdf.RegisterImageOptionsReader(name, opts, &buf)
	d.pdf.ImageOptions(name, r.X, r.Y, r.W, r.H, false, opts, 0, "")

	return d.pdf.Error()
}

// Frame draws the outline of r.
func (d *Document) Frame(r Rect, width float64) {
	d.pdf.SetDrawColor(0, 0, 0)
	d.pdf.SetLineWidth(width)
	d.pdf.Rect(r.X, r.Y, r.W, r.H, "D")
}

// Shade fills r with translucent grey.
func (d *Document) Shade(r Rect) {
	if r.W <= 0 || r.H <= 0 {
		return
	}
	d.pdf.SetAlpha(0.5, "Normal")
	d.pdf.SetFillColor(128, 128, 128)
	d.pdf.Rect(r.X, r.Y, r.W, r.H, "F")
	d.pdf.SetAlpha(1, "Normal")
}

// maskArea shades the part of r outside the area of interest and outlines
// the area. env is the projected extent drawn over r.
func (d *Document) maskArea(r Rect, env geo.Envelope) error {
	if len(d.area) == 0 || env.Width() <= 0 || env.Height() <= 0 {
		return nil
	}

	sx, sy := r.W/env.Width(), r.H/env.Height()
	paths := make([][]gofpdf.PointType, 0, len(d.area))
	for i, ring := range d.area {
		pts := make([]gofpdf.PointType, 0, len(ring))
		for _, c := range ring {
			lat := min(max(c[1], -geo.MaxLatitude), geo.MaxLatitude)
			x, y, err := geo.Forward(c[0], lat)
			if err != nil {
				return fmt.Errorf("area ring %d: %w", i, err)
			}
			pts = append(pts, gofpdf.PointType{X: r.X + (x-env.MinX)*sx, Y: r.Y + (env.MaxY-y)*sy})
		}
		paths = append(paths, pts)
	}

	d.pdf.ClipRect(r.X, r.Y, r.W, r.H, false)

	// Even-odd fill of the page rectangle with the rings cut out.
	d.pdf.SetAlpha(0.5, "Normal")
	d.pdf.SetFillColor(128, 128, 128)
	d.pdf.MoveTo(r.X, r.Y)
	d.pdf.LineTo(r.X+r.W, r.Y)
	d.pdf.LineTo(r.X+r.W, r.Y+r.H)
	d.pdf.LineTo(r.X, r.Y+r.H)
	d.pdf.ClosePath()
	for _, pts := range paths {
		d.pdf.MoveTo(pts[0].X, pts[0].Y)
		for _, p := range pts[1:] {
			d.pdf.LineTo(p.X, p.Y)
		}
		d.pdf.ClosePath()
	}
	d.pdf.DrawPath("F*")
	d.pdf.SetAlpha(1, "Normal")

	d.pdf.SetDrawColor(90, 90, 90)
	d.pdf.SetLineWidth(1)
	for _, pts := range paths {
		d.pdf.Polygon(pts, "D")
	}

	d.pdf.ClipEnd()
	return d.pdf.Error()
}

// Text writes s inside r. align is a gofpdf alignment like "CM".
func (d *Document) Text(s string, st index.Style, r Rect, align string) {
	d.setFont(st)
	d.pdf.SetTextColor(0, 0, 0)
	d.pdf.SetXY(r.X, r.Y)
	d.pdf.CellFormat(r.W, r.H, s, "", 0, align, false, 0, "")
}

// Link makes r jump to the given page.
func (d *Document) Link(r Rect, number int) {
	d.pdf.Link(r.X, r.Y, r.W, r.H, d.LinkTo(number))
}

// PageNumber prints n in the bottom margin on the outside edge.
func (d *Document) PageNumber(n int) {
	st := d.styles.Page
	w := d.measurer.Width(strconv.Itoa(n), st) + 2*d.measurer.Em(st)
	h := d.measurer.LineHeight(st)

	inner := d.Visible(n)
	r := Rect{X: inner.X + inner.W - w, Y: inner.Y + inner.H + (d.page.TopBottomPt-h)/2, W: w, H: h}
	if n%2 == 0 {
		r.X = inner.X
	}

	d.pdf.SetFillColor(255, 255, 255)
	d.pdf.Rect(r.X, r.Y, r.W, r.H, "F")
	d.Text(strconv.Itoa(n), st, r, "CM")
}

// Union returns the smallest rectangle covering r and o.
func (r Rect) Union(o Rect) Rect {
	x0, y0 := min(r.X, o.X), min(r.Y, o.Y)
	x1, y1 := max(r.X+r.W, o.X+o.W), max(r.Y+r.H, o.Y+o.H)
	return Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// Usable returns the printable part of the sheet.
func (d *Document) Usable() Rect {
	p := d.page
	return Rect{X: p.SafeMarginPt, Y: p.SafeMarginPt, W: p.UsableWidth(), H: p.UsableHeight()}
}

// Visible returns the map area of page n, inside bleed and gutters.
func (d *Document) Visible(n int) Rect {
	p := d.page
	u := d.Usable()
	return Rect{
		X: u.X + p.BleedPt + p.LeftMargin(n),
		Y: u.Y + p.BleedPt + p.TopBottomPt,
		W: p.VisibleWidth(),
		H: p.VisibleHeight(),
	}
}

// Write finishes the document.
func (d *Document) Write(w io.Writer) error {
	if err := d.pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func (d *Document) setFont(st index.Style) {
	style := ""
	if st.Bold {
		style = "B"
	}
	d.pdf.SetFont(fonts.Family, style, st.Size)
}
