package atlas

import (
	"fmt"
	"os"

	"github.com/woozymasta/atlas/internal/config"
	"github.com/woozymasta/atlas/internal/geo"
)

// loadArea builds an area from inline [lon, lat] pairs or the polygons of a
// GeoJSON file. It returns nil when neither is given.
func loadArea(inline [][]float64, file string) (*geo.Area, error) {
	switch {
	case inline != nil:
		ring, err := config.Ring(inline)
		if err != nil {
			return nil, err
		}
		return geo.NewArea([][][2]float64{ring})

	case file != "":
		f, err := os.Open(file)
		if err != nil {
			return nil, err
		}
		defer func() { _ = f.Close() }()

		fc, err := geo.ReadFeatureCollection(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", file, err)
		}
		return geo.AreaFromGeoJSON(fc)
	}

	return nil, nil
}
