package render

import (
	"context"
	"image"
	"math"

	"github.com/woozymasta/atlas/internal/geo"
)

// MapRenderer draws map imagery for a projected area. *tiles.Source
// implements it.
type MapRenderer interface {
	RenderMap(ctx context.Context, area geo.Envelope, width, height int) (image.Image, error)
}

// Blank is a MapRenderer without imagery. Pages keep their frames, grids
// and labels.
type Blank struct{}

// RenderMap returns nil.
func (Blank) RenderMap(context.Context, geo.Envelope, int, int) (image.Image, error) {
	return nil, nil
}

// pixels converts a length in points to pixels at dpi.
func pixels(pt, dpi float64) int {
	return max(int(math.Round(pt*dpi/geo.PtPerInch)), 1)
}

// fitRect returns the largest rectangle with the aspect ratio of env that
// fits w x h, centred.
func fitRect(env geo.Envelope, w, h float64) (x, y, fw, fh float64) {
	scale := math.Min(w/env.Width(), h/env.Height())
	fw, fh = env.Width()*scale, env.Height()*scale
	return (w - fw) / 2, (h - fh) / 2, fw, fh
}
