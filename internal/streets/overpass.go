package streets

import (
	"encoding/json"
	"fmt"

	"github.com/woozymasta/atlas/internal/geo"

	"github.com/rs/zerolog/log"
)

// Internal structures for Overpass API JSON ("out geom;" or "out center;").
type overpassRoot struct {
	Elements []overpassElement `json:"elements"`
}

type overpassElement struct {
	Type     string            `json:"type"`
	ID       int64             `json:"id"`
	Lat      float64           `json:"lat"`
	Lon      float64           `json:"lon"`
	Center   *overpassPoint    `json:"center"`
	Geometry []overpassPoint   `json:"geometry"`
	Tags     map[string]string `json:"tags"`
}

type overpassPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// fromOverpass converts nodes and ways of an Overpass response into a
// feature collection. Ways without geometry fall back to their center.
func fromOverpass(data []byte) (geo.GeoJSONFeatureCollection, error) {
	var root overpassRoot
	if err := json.Unmarshal(data, &root); err != nil {
		return geo.GeoJSONFeatureCollection{}, fmt.Errorf("decode overpass json: %w", err)
	}

	fc := geo.GeoJSONFeatureCollection{Type: "FeatureCollection", Features: []geo.GeoJSONFeature{}}
	var skipped int

	for _, el := range root.Elements {
		if el.Tags["name"] == "" {
			continue
		}

		props := make(map[string]interface{}, len(el.Tags))
		for k, v := range el.Tags {
			props[k] = v
		}

		var (
			f   geo.GeoJSONFeature
			err error
		)
		switch {
		case el.Type == "node":
			f, err = geo.NewFeature("Point", [2]float64{el.Lon, el.Lat}, props)
		case len(el.Geometry) > 1:
			line := make([][2]float64, len(el.Geometry))
			for i, p := range el.Geometry {
				line[i] = [2]float64{p.Lon, p.Lat}
			}
			f, err = geo.NewFeature("LineString", line, props)
		case el.Center != nil:
			f, err = geo.NewFeature("Point", [2]float64{el.Center.Lon, el.Center.Lat}, props)
		default:
			skipped++
			continue
		}
		if err != nil {
			return geo.GeoJSONFeatureCollection{}, fmt.Errorf("%s %d: %w", el.Type, el.ID, err)
		}

		fc.Features = append(fc.Features, f)
	}

	if skipped > 0 {
		log.Debug().Int("count", skipped).Msg("Skipped Overpass elements without geometry")
	}

	return fc, nil
}
