package render

import (
	"context"
	"fmt"
	"strconv"

	"github.com/woozymasta/atlas/internal/geo"
	"github.com/woozymasta/atlas/internal/index"
	"github.com/woozymasta/atlas/internal/layout"

	"github.com/jung-kurt/gofpdf"
)

// FrontPage draws the whole area with the atlas title on top.
func (d *Document) FrontPage(ctx context.Context, maps MapRenderer, dpi float64, area geo.BoundingBox, title string) error {
	if err := d.AddPage(1); err != nil {
		return err
	}
	d.Bookmark(title, 0)

	env, err := geo.ProjectBBox(area)
	if err != nil {
		return fmt.Errorf("front page: %w", err)
	}

	u := d.Usable()
	x, y, w, h := fitRect(env, u.W, u.H)
	r := Rect{X: u.X + x, Y: u.Y + y, W: w, H: h}

	img, err := maps.RenderMap(ctx, env, pixels(w, dpi), pixels(h, dpi))
	if err != nil {
		return fmt.Errorf("front page: %w", err)
	}
	if err := d.Image(img, r); err != nil {
		return err
	}
	if err := d.maskArea(r, env); err != nil {
		return fmt.Errorf("front page: %w", err)
	}
	d.Frame(r, 1)

	st := d.styles.Title
	band := Rect{X: u.X, Y: u.Y + u.H/8, W: u.W, H: 2 * d.measurer.LineHeight(st)}
	d.pdf.SetAlpha(0.8, "Normal")
	d.pdf.SetFillColor(255, 255, 255)
	d.pdf.Rect(band.X, band.Y, band.W, band.H, "F")
	d.pdf.SetAlpha(1, "Normal")
	d.Text(title, st, band, "CM")

	return nil
}

// BlankPage adds an empty numbered page.
func (d *Document) BlankPage(number int) error {
	if err := d.AddPage(number); err != nil {
		return err
	}
	d.PageNumber(number)
	return nil
}

// OverviewPage draws the overview map with every map page outlined,
// numbered and linked.
func (d *Document) OverviewPage(ctx context.Context, maps MapRenderer, dpi float64, number int, ov layout.OverviewGrid) error {
	if err := d.AddPage(number); err != nil {
		return err
	}
	d.Bookmark("Overview", 0)

	env, err := geo.ProjectBBox(ov.BBox)
	if err != nil {
		return fmt.Errorf("overview: %w", err)
	}

	u := d.Usable()
	x, y, w, h := fitRect(env, u.W, u.H)
	origin := Rect{X: u.X + x, Y: u.Y + y, W: w, H: h}

	img, err := maps.RenderMap(ctx, env, pixels(w, dpi), pixels(h, dpi))
	if err != nil {
		return fmt.Errorf("overview: %w", err)
	}
	if err := d.Image(img, origin); err != nil {
		return err
	}
	if err := d.maskArea(origin, env); err != nil {
		return fmt.Errorf("overview: %w", err)
	}

	boxes, err := ov.LabelBoxes(w, h)
	if err != nil {
		return err
	}

	st := d.styles.Page
	for _, b := range boxes {
		r := Rect{X: origin.X + b.X, Y: origin.Y + b.Y, W: b.W, H: b.H}
		d.Frame(r, 0.5)
		d.Text(strconv.Itoa(b.PageNumber), st, r, "CM")
		d.Link(r, b.PageNumber)
	}
	d.PageNumber(number)

	return nil
}

// MapPage draws one map tile with its gutters and everything outside the
// area shaded, the location grid, the page number and arrows to the
// neighbouring pages.
func (d *Document) MapPage(ctx context.Context, maps MapRenderer, dpi float64, tile layout.PageTile, grid layout.LocationGrid, denominator float64, nb layout.Neighbors) error {
	n := *tile.PageNumber
	if err := d.AddPage(n); err != nil {
		return err
	}

	u := d.Usable()
	img, err := maps.RenderMap(ctx, tile.OuterEnvelope, pixels(u.W, dpi), pixels(u.H, dpi))
	if err != nil {
		return fmt.Errorf("map page %d: %w", n, err)
	}
	if err := d.Image(img, u); err != nil {
		return err
	}

	v := d.Visible(n)
	if err := d.maskArea(v, tile.InnerEnvelope); err != nil {
		return fmt.Errorf("map page %d: %w", n, err)
	}
	d.Shade(Rect{X: u.X, Y: u.Y, W: u.W, H: v.Y - u.Y})
	d.Shade(Rect{X: u.X, Y: v.Y + v.H, W: u.W, H: u.Y + u.H - v.Y - v.H})
	d.Shade(Rect{X: u.X, Y: v.Y, W: v.X - u.X, H: v.H})
	d.Shade(Rect{X: v.X + v.W, Y: v.Y, W: u.X + u.W - v.X - v.W, H: v.H})

	d.grid(v, grid, denominator)
	d.Frame(v, 0.5)
	d.arrows(v, nb)
	d.PageNumber(n)

	return nil
}

// grid draws the location squares over the visible area with their labels
// just outside it.
func (d *Document) grid(v Rect, g layout.LocationGrid, denominator float64) {
	cell := geo.MetricToPaper(g.Cell, denominator)
	st := d.styles.Label
	lh := d.measurer.LineHeight(st)

	d.pdf.SetDrawColor(60, 60, 60)
	d.pdf.SetLineWidth(0.3)
	d.pdf.SetAlpha(0.6, "Normal")
	for x := v.X + cell; x < v.X+v.W-0.01; x += cell {
		d.pdf.Line(x, v.Y, x, v.Y+v.H)
	}
	for y := v.Y + cell; y < v.Y+v.H-0.01; y += cell {
		d.pdf.Line(v.X, y, v.X+v.W, y)
	}
	d.pdf.SetAlpha(1, "Normal")

	for i, label := range g.ColumnLabels() {
		x := v.X + float64(i)*cell
		d.Text(label, st, Rect{X: x, Y: v.Y - lh, W: min(cell, v.X+v.W-x), H: lh}, "CB")
	}
	for i, label := range g.RowLabels() {
		y := v.Y + float64(i)*cell
		w := d.measurer.Width(label, st) + d.measurer.Em(st)
		d.Text(label, st, Rect{X: v.X - w, Y: y, W: w, H: min(cell, v.Y+v.H-y)}, "RM")
	}
}

// arrows draws a triangle pointing to every neighbour in the gutter, with
// the target page number next to it, linked to that page.
func (d *Document) arrows(v Rect, nb layout.Neighbors) {
	st := d.styles.Page
	s := d.measurer.LineHeight(st)
	gap := 2 * d.measurer.LineHeight(d.styles.Label)
	cx, cy := v.X+v.W/2, v.Y+v.H/2

	d.pdf.SetFillColor(0, 0, 0)
	draw := func(page *int, tri []gofpdf.PointType, label func(w float64) Rect) {
		if page == nil {
			return
		}
		d.pdf.Polygon(tri, "F")

		text := strconv.Itoa(*page)
		lr := label(d.measurer.Width(text, st) + d.measurer.Em(st))
		d.Text(text, st, lr, "CM")

		bounds := Rect{X: tri[0].X, Y: tri[0].Y}
		for _, p := range tri[1:] {
			bounds = bounds.Union(Rect{X: p.X, Y: p.Y})
		}
		d.Link(bounds.Union(lr), *page)
	}

	top, bottom := v.Y-gap, v.Y+v.H+gap/2
	draw(nb.North,
		[]gofpdf.PointType{{X: cx, Y: top - s}, {X: cx - s/2, Y: top}, {X: cx + s/2, Y: top}},
		func(w float64) Rect { return Rect{X: cx + s/2, Y: top - s, W: w, H: s} })
	draw(nb.South,
		[]gofpdf.PointType{{X: cx, Y: bottom + s}, {X: cx - s/2, Y: bottom}, {X: cx + s/2, Y: bottom}},
		func(w float64) Rect { return Rect{X: cx + s/2, Y: bottom, W: w, H: s} })

	left, right := v.X-gap, v.X+v.W+gap/2
	draw(nb.West,
		[]gofpdf.PointType{{X: left - s, Y: cy}, {X: left, Y: cy - s/2}, {X: left, Y: cy + s/2}},
		func(w float64) Rect { return Rect{X: left - s/2 - w/2, Y: cy + s/2, W: w, H: s} })
	draw(nb.East,
		[]gofpdf.PointType{{X: right + s, Y: cy}, {X: right, Y: cy - s/2}, {X: right, Y: cy + s/2}},
		func(w float64) Rect { return Rect{X: right + s/2 - w/2, Y: cy + s/2, W: w, H: s} })
}

// IndexArea returns the part of an index page the paginator fills.
func IndexArea(p layout.Page) Rect {
	x := p.SafeMarginPt + p.BleedPt + p.OutsidePt
	y := p.SafeMarginPt + p.BleedPt + p.TopBottomPt
	return Rect{X: x, Y: y, W: p.WidthPt - 2*x, H: p.HeightPt - 2*y}
}

// IndexPage draws one paginated index page.
func (d *Document) IndexPage(pg index.Page, rtl bool) error {
	if err := d.AddPage(pg.Number); err != nil {
		return err
	}

	area := IndexArea(d.page)
	for _, pl := range pg.Placements {
		r := Rect{X: area.X + pl.X, Y: area.Y + pl.Y, W: pl.W, H: pl.H}
		switch pl.Kind {
		case index.PlaceRegion:
			d.pdf.SetFillColor(230, 230, 230)
			d.pdf.Rect(r.X, r.Y, r.W, r.H, "F")
			d.Text(pl.Text, d.styles.Region, r, "CM")
		case index.PlaceHeader:
			d.pdf.SetFillColor(230, 230, 230)
			d.pdf.Rect(r.X, r.Y, r.W, r.H, "F")
			d.Text(pl.Text, d.styles.Header, r, "CM")
		case index.PlaceItem:
			d.indexItem(pg, pl, r, rtl)
		}
	}
	d.PageNumber(pg.Number)

	return nil
}

// indexItem writes the wrapped label and the reference of one entry,
// joined by a dotted leader on the last label line.
func (d *Document) indexItem(pg index.Page, pl index.Placement, r Rect, rtl bool) {
	st := d.styles.Label
	lh := d.measurer.LineHeight(st)
	lines := d.measurer.Wrap(pl.Text, st, pg.LabelWidth)
	refW := d.measurer.Width(pl.Reference, st)

	labelX, align := r.X, "LM"
	ref := Rect{X: r.X + r.W - refW, Y: r.Y, W: refW, H: lh}
	if rtl {
		labelX, align = r.X+r.W-pg.LabelWidth, "RM"
		ref.X = r.X
	}

	for i, line := range lines {
		d.Text(line, st, Rect{X: labelX, Y: r.Y + float64(i)*lh, W: pg.LabelWidth, H: lh}, align)
	}
	d.Text(pl.Reference, st, ref, "LM")

	if !pl.Leader {
		return
	}

	lastW := d.measurer.Width(lines[len(lines)-1], st)
	baseline := r.Y + float64(len(lines)-1)*lh + lh*0.75

	from, to := labelX+lastW+lh/4, ref.X-lh/4
	if rtl {
		from, to = ref.X+refW+lh/4, r.X+r.W-lastW-lh/4
	}
	if to-from <= lh/2 {
		return
	}

	d.pdf.SetDrawColor(0, 0, 0)
	d.pdf.SetLineWidth(lh / 12)
	d.pdf.SetDashPattern([]float64{lh / 12, lh / 4}, 0)
	d.pdf.Line(from, baseline, to, baseline)
	d.pdf.SetDashPattern([]float64{}, 0)
}
