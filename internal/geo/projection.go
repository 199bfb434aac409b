package geo

import (
	"fmt"
	"math"
)

const (
	// EarthRadius is the sphere radius of the EPSG:3857 projection.
	EarthRadius = 6378137.0

	// MaxLatitude is the Web Mercator latitude limit.
	MaxLatitude = 85.05112878

	// MaxMercator is the largest projected coordinate on both axes.
	MaxMercator = math.Pi * EarthRadius
)

// InversionError reports a coordinate that cannot be carried across the projection.
type InversionError struct {
	Op   string // "forward" or "inverse"
	A, B float64
}

func (e *InversionError) Error() string {
	return fmt.Sprintf("projection %s failed for (%g, %g)", e.Op, e.A, e.B)
}

// Forward projects longitude and latitude in degrees to Mercator metres.
func Forward(lon, lat float64) (x, y float64, err error) {
	if math.IsNaN(lon) || math.IsNaN(lat) || math.Abs(lon) > 180 || math.Abs(lat) > MaxLatitude {
		return 0, 0, &InversionError{Op: "forward", A: lon, B: lat}
	}

	x = EarthRadius * lon * math.Pi / 180
	y = EarthRadius * math.Log(math.Tan(math.Pi/4+lat*math.Pi/360))

	return x, y, nil
}

// Inverse converts Mercator metres back to longitude and latitude in degrees.
func Inverse(x, y float64) (lon, lat float64, err error) {
	if math.IsNaN(x) || math.IsNaN(y) || math.IsInf(x, 0) || math.IsInf(y, 0) {
		return 0, 0, &InversionError{Op: "inverse", A: x, B: y}
	}

	lon = x / EarthRadius * 180 / math.Pi
	lat = (2*math.Atan(math.Exp(y/EarthRadius)) - math.Pi/2) * 180 / math.Pi

	if math.Abs(lon) > 180 || math.Abs(lat) > MaxLatitude+1e-9 {
		return 0, 0, &InversionError{Op: "inverse", A: x, B: y}
	}

	return lon, lat, nil
}

// ProjectBBox converts a geographic box into a metric envelope.
func ProjectBBox(b BoundingBox) (Envelope, error) {
	b = b.Normalize()

	x0, y0, err := Forward(b.West, b.South)
	if err != nil {
		return Envelope{}, err
	}
	x1, y1, err := Forward(b.East, b.North)
	if err != nil {
		return Envelope{}, err
	}

	return Envelope{MinX: x0, MinY: y0, MaxX: x1, MaxY: y1}, nil
}

// InverseEnvelope converts a metric envelope back to a geographic box.
func InverseEnvelope(e Envelope) (BoundingBox, error) {
	w, s, err := Inverse(e.MinX, e.MinY)
	if err != nil {
		return BoundingBox{}, err
	}
	east, n, err := Inverse(e.MaxX, e.MaxY)
	if err != nil {
		return BoundingBox{}, err
	}

	return BoundingBox{South: s, West: w, North: n, East: east}, nil
}
