package geo

import (
	"encoding/json"
	"fmt"
	"io"
)

// GeoJSONFeatureCollection represents a collection of geographic features.
// It follows the standard GeoJSON structure.
type GeoJSONFeatureCollection struct {
	Type     string           `json:"type"`
	Features []GeoJSONFeature `json:"features"`
}

// GeoJSONFeature represents a single geographic feature with geometry and properties.
type GeoJSONFeature struct {
	Properties map[string]interface{} `json:"properties"`
	Type       string                 `json:"type"`
	Geometry   GeoJSONGeometry        `json:"geometry"`
}

// GeoJSONGeometry represents the geometry of a feature (Point, LineString, Polygon, ...).
// Coordinates are kept raw and decoded by the typed accessors.
type GeoJSONGeometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// ReadFeatureCollection decodes a GeoJSON FeatureCollection.
func ReadFeatureCollection(r io.Reader) (GeoJSONFeatureCollection, error) {
	var fc GeoJSONFeatureCollection
	if err := json.NewDecoder(r).Decode(&fc); err != nil {
		return GeoJSONFeatureCollection{}, fmt.Errorf("decode geojson: %w", err)
	}
	if fc.Type != "FeatureCollection" {
		return GeoJSONFeatureCollection{}, fmt.Errorf("unexpected geojson type %q", fc.Type)
	}

	return fc, nil
}

// String returns a string property or an empty string.
func (f GeoJSONFeature) String(key string) string {
	if v, ok := f.Properties[key].(string); ok {
		return v
	}
	return ""
}

// Points returns every vertex of a Point, MultiPoint or LineString geometry
// as [lon, lat] pairs. Polygon geometries return their outer rings.
func (g GeoJSONGeometry) Points() ([][2]float64, error) {
	switch g.Type {
	case "Point":
		var p [2]float64
		if err := json.Unmarshal(g.Coordinates, &p); err != nil {
			return nil, fmt.Errorf("point: %w", err)
		}
		return [][2]float64{p}, nil

	case "MultiPoint", "LineString":
		var line [][2]float64
		if err := json.Unmarshal(g.Coordinates, &line); err != nil {
			return nil, fmt.Errorf("%s: %w", g.Type, err)
		}
		return line, nil

	case "MultiLineString":
		var lines [][][2]float64
		if err := json.Unmarshal(g.Coordinates, &lines); err != nil {
			return nil, fmt.Errorf("multilinestring: %w", err)
		}
		var out [][2]float64
		for _, l := range lines {
			out = append(out, l...)
		}
		return out, nil

	case "Polygon", "MultiPolygon":
		rings, err := g.Rings()
		if err != nil {
			return nil, err
		}
		var out [][2]float64
		for _, r := range rings {
			out = append(out, r...)
		}
		return out, nil
	}

	return nil, fmt.Errorf("unsupported geometry type %q", g.Type)
}

// Rings returns the outer rings of a Polygon or MultiPolygon geometry.
// Holes are ignored.
func (g GeoJSONGeometry) Rings() ([][][2]float64, error) {
	switch g.Type {
	case "Polygon":
		var poly [][][2]float64
		if err := json.Unmarshal(g.Coordinates, &poly); err != nil {
			return nil, fmt.Errorf("polygon: %w", err)
		}
		if len(poly) == 0 {
			return nil, nil
		}
		return poly[:1], nil

	case "MultiPolygon":
		var multi [][][][2]float64
		if err := json.Unmarshal(g.Coordinates, &multi); err != nil {
			return nil, fmt.Errorf("multipolygon: %w", err)
		}
		rings := make([][][2]float64, 0, len(multi))
		for _, poly := range multi {
			if len(poly) > 0 {
				rings = append(rings, poly[0])
			}
		}
		return rings, nil
	}

	return nil, fmt.Errorf("geometry %q has no rings", g.Type)
}

// NewFeature builds a feature from a geometry type and its coordinates.
func NewFeature(geometryType string, coordinates any, properties map[string]interface{}) (GeoJSONFeature, error) {
	raw, err := json.Marshal(coordinates)
	if err != nil {
		return GeoJSONFeature{}, fmt.Errorf("encode %s coordinates: %w", geometryType, err)
	}

	return GeoJSONFeature{
		Type:       "Feature",
		Properties: properties,
		Geometry:   GeoJSONGeometry{Type: geometryType, Coordinates: raw},
	}, nil
}
