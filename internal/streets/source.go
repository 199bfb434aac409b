// Package streets collects the street and POI index of each map page from a
// GeoJSON or Overpass JSON feature source.
package streets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"strings"

	"github.com/woozymasta/atlas/internal/geo"

	"github.com/rs/zerolog/log"
)

// Properties that mark a feature as a point of interest, in order of
// precedence. The value becomes the category name.
var poiKeys = []string{"amenity", "shop", "tourism", "leisure", "type", "category"}

type feature struct {
	name     string
	category string
	street   bool
	points   [][2]float64
	bound    geo.BoundingBox
}

// Source holds the named features an atlas index is built from.
type Source struct {
	features []feature
}

// Load reads a feature source from a local file or an http(s) URL.
func Load(ctx context.Context, client *http.Client, src string) (*Source, error) {
	var body []byte

	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		log.Info().Str("url", src).Msg("Downloading index source")

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
		if err != nil {
			return nil, err
		}
		resp, err := client.Do(req)
		if err != nil {
			return nil, err
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("download %s: status %d", src, resp.StatusCode)
		}
		if body, err = io.ReadAll(resp.Body); err != nil {
			return nil, err
		}
	} else {
		var err error
		if body, err = os.ReadFile(src); err != nil {
			return nil, err
		}
	}

	s, err := Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", src, err)
	}

	log.Debug().Str("source", src).Int("features", len(s.features)).Msg("Index source loaded")
	return s, nil
}

// Parse detects the format of r, GeoJSON or Overpass JSON, and decodes it.
func Parse(r io.Reader) (*Source, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var probe struct {
		Type     string          `json:"type"`
		Elements json.RawMessage `json:"elements"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("decode index source: %w", err)
	}

	var fc geo.GeoJSONFeatureCollection
	switch {
	case probe.Type == "FeatureCollection":
		fc, err = geo.ReadFeatureCollection(bytes.NewReader(data))
	case probe.Elements != nil:
		fc, err = fromOverpass(data)
	default:
		return nil, fmt.Errorf("unknown index source format")
	}
	if err != nil {
		return nil, err
	}

	return FromFeatureCollection(fc)
}

// FromFeatureCollection keeps the named streets and points of interest of fc.
func FromFeatureCollection(fc geo.GeoJSONFeatureCollection) (*Source, error) {
	s := &Source{features: make([]feature, 0, len(fc.Features))}

	for i, f := range fc.Features {
		name := strings.TrimSpace(f.String("name"))
		if name == "" {
			continue
		}

		ft := feature{name: name}
		line := f.Geometry.Type == "LineString" || f.Geometry.Type == "MultiLineString"
		switch {
		case line && f.String("highway") != "":
			ft.street = true
		case poiCategory(f) != "":
			ft.category = poiCategory(f)
		case line:
			ft.street = true
		default:
			continue
		}
		if ft.street {
			ft.category = streetCategory(name)
		}

		pts, err := f.Geometry.Points()
		if err != nil {
			return nil, fmt.Errorf("feature %d (%s): %w", i, name, err)
		}
		if len(pts) == 0 {
			continue
		}
		ft.points = pts
		ft.bound = boundOf(pts)

		s.features = append(s.features, ft)
	}

	return s, nil
}

// Len returns the number of indexable features.
func (s *Source) Len() int { return len(s.features) }

func poiCategory(f geo.GeoJSONFeature) string {
	for _, k := range poiKeys {
		if v := f.String(k); v != "" {
			return humanize(v)
		}
	}
	return ""
}

func boundOf(pts [][2]float64) geo.BoundingBox {
	b := geo.BoundingBox{South: math.Inf(1), West: math.Inf(1), North: math.Inf(-1), East: math.Inf(-1)}
	for _, p := range pts {
		b.West = math.Min(b.West, p[0])
		b.East = math.Max(b.East, p[0])
		b.South = math.Min(b.South, p[1])
		b.North = math.Max(b.North, p[1])
	}
	return b
}
