// Package geo handles geographic data structures, projection and coordinate conversions.
package geo

import (
	"fmt"
	"math"
)

// BoundingBox is a geographic rectangle in degrees (EPSG:4326).
type BoundingBox struct {
	South float64 `yaml:"south" json:"south"`
	West  float64 `yaml:"west"  json:"west"`
	North float64 `yaml:"north" json:"north"`
	East  float64 `yaml:"east"  json:"east"`
}

// Normalize returns the box with swapped edges put back in order.
func (b BoundingBox) Normalize() BoundingBox {
	if b.South > b.North {
		b.South, b.North = b.North, b.South
	}
	if b.West > b.East {
		b.West, b.East = b.East, b.West
	}
	return b
}

// Valid reports whether the box is non-empty and inside the Mercator domain.
func (b BoundingBox) Valid() bool {
	for _, v := range []float64{b.South, b.West, b.North, b.East} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}

	return b.South < b.North && b.West < b.East &&
		b.South >= -MaxLatitude && b.North <= MaxLatitude &&
		b.West >= -180 && b.East <= 180
}

// Center returns the center latitude and longitude.
func (b BoundingBox) Center() (lat, lon float64) {
	return (b.South + b.North) / 2, (b.West + b.East) / 2
}

// Expand grows each side by the given amount of degrees.
func (b BoundingBox) Expand(top, left, bottom, right float64) BoundingBox {
	return BoundingBox{
		South: b.South - bottom,
		West:  b.West - left,
		North: b.North + top,
		East:  b.East + right,
	}
}

// Clamp limits the box to the Mercator domain.
func (b BoundingBox) Clamp() BoundingBox {
	return BoundingBox{
		South: max(b.South, -MaxLatitude),
		West:  max(b.West, -180),
		North: min(b.North, MaxLatitude),
		East:  min(b.East, 180),
	}
}

// Contains reports whether the point lies inside the box, edges included.
func (b BoundingBox) Contains(lat, lon float64) bool {
	return lat >= b.South && lat <= b.North && lon >= b.West && lon <= b.East
}

// Ring returns the closed outline as [lon, lat] pairs, counter-clockwise.
func (b BoundingBox) Ring() [][2]float64 {
	return [][2]float64{
		{b.West, b.South},
		{b.East, b.South},
		{b.East, b.North},
		{b.West, b.North},
		{b.West, b.South},
	}
}

func (b BoundingBox) String() string {
	return fmt.Sprintf("[%.6f,%.6f %.6f,%.6f]", b.South, b.West, b.North, b.East)
}

// Envelope is an axis-aligned rectangle in projected metres (EPSG:3857).
type Envelope struct {
	MinX float64 `json:"min_x"`
	MinY float64 `json:"min_y"`
	MaxX float64 `json:"max_x"`
	MaxY float64 `json:"max_y"`
}

// Width returns the horizontal extent in metres.
func (e Envelope) Width() float64 { return e.MaxX - e.MinX }

// Height returns the vertical extent in metres.
func (e Envelope) Height() float64 { return e.MaxY - e.MinY }

// Center returns the envelope center.
func (e Envelope) Center() (x, y float64) {
	return (e.MinX + e.MaxX) / 2, (e.MinY + e.MaxY) / 2
}

// Expand grows the envelope by dx on the left and right and dy on top and bottom.
func (e Envelope) Expand(dx, dy float64) Envelope {
	return Envelope{MinX: e.MinX - dx, MinY: e.MinY - dy, MaxX: e.MaxX + dx, MaxY: e.MaxY + dy}
}

// Contains reports whether o lies completely inside e, within tolerance eps.
func (e Envelope) Contains(o Envelope, eps float64) bool {
	return o.MinX >= e.MinX-eps && o.MinY >= e.MinY-eps &&
		o.MaxX <= e.MaxX+eps && o.MaxY <= e.MaxY+eps
}
