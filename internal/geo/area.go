package geo

import (
	"errors"
	"fmt"
	"math"

	"github.com/golang/geo/s2"
)

// Area is an area of interest made of one or more polygons.
type Area struct {
	polygons []*s2.Polygon
	rings    [][][2]float64
	bound    BoundingBox
}

// densifyStepDeg is the longest edge along a parallel before it is split.
const densifyStepDeg = 0.01

// NewArea builds an area from outer rings given as [lon, lat] pairs.
// Rings may be open or closed and in either orientation.
func NewArea(rings [][][2]float64) (*Area, error) {
	if len(rings) == 0 {
		return nil, errors.New("area has no rings")
	}

	a := &Area{
		bound: BoundingBox{South: math.Inf(1), West: math.Inf(1), North: math.Inf(-1), East: math.Inf(-1)},
	}

	for i, ring := range rings {
		points := make([]s2.Point, 0, len(ring))
		coords := make([][2]float64, 0, len(ring))
		for _, c := range ring {
			lon, lat := c[0], c[1]
			if math.IsNaN(lon) || math.IsNaN(lat) || math.Abs(lat) > 90 || math.Abs(lon) > 180 {
				return nil, fmt.Errorf("ring %d: invalid coordinate (%g, %g)", i, lon, lat)
			}

			p := s2.PointFromLatLng(s2.LatLngFromDegrees(lat, lon))
			if n := len(points); n > 0 && points[n-1].ApproxEqual(p) {
				continue
			}
			points = append(points, p)
			coords = append(coords, [2]float64{lon, lat})

			a.bound.South = math.Min(a.bound.South, lat)
			a.bound.North = math.Max(a.bound.North, lat)
			a.bound.West = math.Min(a.bound.West, lon)
			a.bound.East = math.Max(a.bound.East, lon)
		}

		// GeoJSON rings repeat the first vertex at the end; s2 loops must not.
		if n := len(points); n > 1 && points[0].ApproxEqual(points[n-1]) {
			points = points[:n-1]
			coords = coords[:n-1]
		}
		if len(points) < 3 {
			return nil, fmt.Errorf("ring %d: need at least 3 distinct vertices, got %d", i, len(points))
		}

		loop := s2.LoopFromPoints(points)
		loop.Normalize()
		a.polygons = append(a.polygons, s2.PolygonFromLoops([]*s2.Loop{loop}))
		a.rings = append(a.rings, coords)
	}

	return a, nil
}

// AreaFromBBox returns an area covering exactly the given box.
func AreaFromBBox(b BoundingBox) (*Area, error) {
	return NewArea([][][2]float64{b.Normalize().Ring()})
}

// AreaFromGeoJSON collects every Polygon and MultiPolygon of the collection.
func AreaFromGeoJSON(fc GeoJSONFeatureCollection) (*Area, error) {
	var rings [][][2]float64
	for _, f := range fc.Features {
		if f.Geometry.Type != "Polygon" && f.Geometry.Type != "MultiPolygon" {
			continue
		}
		r, err := f.Geometry.Rings()
		if err != nil {
			return nil, err
		}
		rings = append(rings, r...)
	}

	return NewArea(rings)
}

// Bound returns the bounding box of all rings.
func (a *Area) Bound() BoundingBox {
	return a.bound
}

// Rings returns the open outer rings as [lon, lat] pairs.
func (a *Area) Rings() [][][2]float64 {
	if a == nil {
		return nil
	}
	return a.rings
}

// Intersects reports whether the box and the area are not disjoint.
// Area edges are great circles; the north and south edges of the box are
// split into short pieces so they follow their parallels.
func (a *Area) Intersects(b BoundingBox) bool {
	b = b.Normalize()
	if b.North < a.bound.South || b.South > a.bound.North || b.East < a.bound.West || b.West > a.bound.East {
		return false
	}

	loop := s2.LoopFromPoints(boxPoints(b))
	loop.Normalize()
	box := s2.PolygonFromLoops([]*s2.Loop{loop})

	for _, p := range a.polygons {
		if p.Intersects(box) {
			return true
		}
	}

	return false
}

// boxPoints walks the box counter-clockwise: east along the south edge,
// then west along the north edge.
func boxPoints(b BoundingBox) []s2.Point {
	n := int(math.Ceil((b.East - b.West) / densifyStepDeg))
	n = min(max(n, 1), 4096)

	points := make([]s2.Point, 0, 2*n+2)
	for i := 0; i <= n; i++ {
		lon := b.West + (b.East-b.West)*float64(i)/float64(n)
		points = append(points, s2.PointFromLatLng(s2.LatLngFromDegrees(b.South, lon)))
	}
	for i := n; i >= 0; i-- {
		lon := b.West + (b.East-b.West)*float64(i)/float64(n)
		points = append(points, s2.PointFromLatLng(s2.LatLngFromDegrees(b.North, lon)))
	}
	return points
}

// Contains reports whether the point lies inside the area.
func (a *Area) Contains(lat, lon float64) bool {
	if !a.bound.Contains(lat, lon) {
		return false
	}

	pt := s2.PointFromLatLng(s2.LatLngFromDegrees(lat, lon))
	for _, p := range a.polygons {
		if p.ContainsPoint(pt) {
			return true
		}
	}

	return false
}
