// Package preview exports the overview map of an atlas as images for quick
// browsing outside the PDF.
package preview

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"io"
	"math"
	"strconv"

	"github.com/woozymasta/atlas/internal/fonts"
	"github.com/woozymasta/atlas/internal/geo"
	"github.com/woozymasta/atlas/internal/index"
	"github.com/woozymasta/atlas/internal/layout"
	"github.com/woozymasta/atlas/internal/render"

	"github.com/chai2010/webp"
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/svg"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

const svgMime = "image/svg+xml"

var (
	frameColor = color.RGBA{R: 200, G: 30, B: 30, A: 255}
	labelColor = color.RGBA{A: 255}
	paperColor = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

// Size returns the pixel size of an overview preview width pixels wide.
func Size(ov layout.OverviewGrid, width int) (w, h int, err error) {
	env, err := geo.ProjectBBox(ov.BBox)
	if err != nil {
		return 0, 0, fmt.Errorf("overview preview: %w", err)
	}
	if width <= 0 {
		return 0, 0, fmt.Errorf("overview preview: invalid width %d", width)
	}
	return width, max(int(math.Round(float64(width)*env.Height()/env.Width())), 1), nil
}

// Overview draws the overview map with every page framed and numbered.
func Overview(ctx context.Context, maps render.MapRenderer, m *fonts.Measurer, ov layout.OverviewGrid, width int) (*image.RGBA, error) {
	w, h, err := Size(ov, width)
	if err != nil {
		return nil, err
	}
	env, err := geo.ProjectBBox(ov.BBox)
	if err != nil {
		return nil, err
	}

	out := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(out, out.Bounds(), image.NewUniform(paperColor), image.Point{}, draw.Src)

	if maps != nil {
		base, err := maps.RenderMap(ctx, env, w, h)
		if err != nil {
			return nil, fmt.Errorf("overview preview: %w", err)
		}
		if base != nil {
			draw.Draw(out, out.Bounds(), base, base.Bounds().Min, draw.Over)
		}
	}

	boxes, err := ov.LabelBoxes(float64(w), float64(h))
	if err != nil {
		return nil, err
	}

	size := max(math.Round(float64(w)/60), 8)
	face, err := m.Face(index.Style{Size: size, Bold: true})
	if err != nil {
		return nil, err
	}

	for _, b := range boxes {
		r := image.Rect(int(b.X), int(b.Y), int(math.Round(b.X+b.W)), int(math.Round(b.Y+b.H)))
		strokeRect(out, r, frameColor)
		drawLabel(out, face, strconv.Itoa(b.PageNumber), r)
	}

	return out, nil
}

// WriteWebP encodes img as lossy WebP.
func WriteWebP(w io.Writer, img image.Image, quality float32) error {
	if err := webp.Encode(w, img, &webp.Options{Quality: quality}); err != nil {
		return fmt.Errorf("encode webp: %w", err)
	}
	return nil
}

// SVG returns a minified vector outline of the overview pages, width units
// wide, for embedding in web pages.
func SVG(ov layout.OverviewGrid, width int) ([]byte, error) {
	w, h, err := Size(ov, width)
	if err != nil {
		return nil, err
	}
	boxes, err := ov.LabelBoxes(float64(w), float64(h))
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
  <rect x="0" y="0" width="%d" height="%d" fill="#ffffff" />
`, w, h, w, h, w, h)

	for _, b := range boxes {
		fmt.Fprintf(&buf, `  <a href="#page=%d">
    <rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="none" stroke="#c81e1e" stroke-width="1.00" />
    <text x="%.2f" y="%.2f" font-family="sans-serif" font-weight="bold" font-size="%.2f" text-anchor="middle" dominant-baseline="central">`,
			b.PageNumber, b.X, b.Y, b.W, b.H, b.X+b.W/2, b.Y+b.H/2, math.Min(b.W, b.H)/3)
		if err := xml.EscapeText(&buf, []byte(strconv.Itoa(b.PageNumber))); err != nil {
			return nil, err
		}
		buf.WriteString("</text>\n  </a>\n")
	}
	buf.WriteString("</svg>\n")

	m := minify.New()
	m.AddFunc(svgMime, svg.Minify)

	out, err := m.Bytes(svgMime, buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("minify svg: %w", err)
	}
	return out, nil
}

func strokeRect(img draw.Image, r image.Rectangle, c color.Color) {
	src := image.NewUniform(c)
	edges := []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+1),
		image.Rect(r.Min.X, r.Max.Y-1, r.Max.X, r.Max.Y),
		image.Rect(r.Min.X, r.Min.Y, r.Min.X+1, r.Max.Y),
		image.Rect(r.Max.X-1, r.Min.Y, r.Max.X, r.Max.Y),
	}
	for _, e := range edges {
		draw.Draw(img, e.Intersect(img.Bounds()), src, image.Point{}, draw.Src)
	}
}

// drawLabel centres text in r.
func drawLabel(img draw.Image, face font.Face, text string, r image.Rectangle) {
	metrics := face.Metrics()
	tw := font.MeasureString(face, text)
	th := metrics.Ascent + metrics.Descent

	x := fixed.I(r.Min.X) + (fixed.I(r.Dx())-tw)/2
	y := fixed.I(r.Min.Y) + (fixed.I(r.Dy())-th)/2 + metrics.Ascent

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(labelColor),
		Face: face,
		Dot:  fixed.Point26_6{X: x, Y: y},
	}
	d.DrawString(text)
}
