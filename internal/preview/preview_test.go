package preview

import (
	"bytes"
	"context"
	"image/color"
	"strings"
	"testing"

	"github.com/woozymasta/atlas/internal/fonts"
	"github.com/woozymasta/atlas/internal/geo"
	"github.com/woozymasta/atlas/internal/layout"
	"github.com/woozymasta/atlas/internal/render"

	"github.com/chai2010/webp"
)

func testOverview() layout.OverviewGrid {
	return layout.OverviewGrid{
		BBox: geo.BoundingBox{South: 48, West: 11, North: 48.1, East: 11.2},
		Pages: []layout.OverviewPage{
			{PageNumber: 4, BBox: geo.BoundingBox{South: 48, West: 11, North: 48.1, East: 11.1}},
			{PageNumber: 5, BBox: geo.BoundingBox{South: 48, West: 11.1, North: 48.1, East: 11.2}},
		},
	}
}

func TestSize(t *testing.T) {
	w, h, err := Size(testOverview(), 200)
	if err != nil {
		t.Fatal(err)
	}
	if w != 200 || h < 140 || h > 160 {
		t.Errorf("Size() = %dx%d, want 200x~150", w, h)
	}

	if _, _, err := Size(testOverview(), 0); err == nil {
		t.Error("expected error for zero width")
	}
}

func TestOverview(t *testing.T) {
	m, err := fonts.NewMeasurer()
	if err != nil {
		t.Fatal(err)
	}

	img, err := Overview(context.Background(), render.Blank{}, m, testOverview(), 200)
	if err != nil {
		t.Fatal(err)
	}

	h := img.Bounds().Dy()
	if got := img.RGBAAt(0, h/2); got != frameColor {
		t.Errorf("left frame pixel = %v, want %v", got, frameColor)
	}
	if got := img.RGBAAt(25, h/4); got != (color.RGBA{R: 255, G: 255, B: 255, A: 255}) {
		t.Errorf("background pixel = %v, want white", got)
	}

	var buf bytes.Buffer
	if err := WriteWebP(&buf, img, 80); err != nil {
		t.Fatal(err)
	}
	cfg, err := webp.DecodeConfig(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Width != 200 || cfg.Height != h {
		t.Errorf("webp is %dx%d, want 200x%d", cfg.Width, cfg.Height, h)
	}
}

func TestSVG(t *testing.T) {
	out, err := SVG(testOverview(), 200)
	if err != nil {
		t.Fatal(err)
	}

	s := string(out)
	for _, want := range []string{"<svg", `href="#page=4"`, ">5</text>"} {
		if !strings.Contains(s, want) {
			t.Errorf("svg lacks %q:\n%s", want, s)
		}
	}
	if strings.Contains(s, "\n  ") {
		t.Errorf("svg is not minified:\n%s", s)
	}
}
