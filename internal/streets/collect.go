package streets

import (
	"context"
	"sort"

	"github.com/woozymasta/atlas/internal/index"
	"github.com/woozymasta/atlas/internal/layout"
)

// PointFilter restricts collection to a region. *geo.Area implements it.
type PointFilter interface {
	Contains(lat, lon float64) bool
}

// Collect returns the partial index of one map page: every feature with a
// vertex inside the visible box of the tile, and inside region when it is
// not nil. Features sharing a name and category are reported once with the
// squares of all their vertices.
func (s *Source) Collect(ctx context.Context, tile layout.PageTile, grid layout.LocationGrid, region PointFilter) ([]index.Category, error) {
	if !tile.Kept() {
		return nil, nil
	}

	type key struct {
		street   bool
		category string
		name     string
	}
	found := make(map[key][][2]float64)
	box := tile.Inner

	for i, f := range s.features {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if f.bound.North < box.South || f.bound.South > box.North || f.bound.East < box.West || f.bound.West > box.East {
			continue
		}

		k := key{street: f.street, category: f.category, name: f.name}
		for _, p := range f.points {
			if !box.Contains(p[1], p[0]) {
				continue
			}
			if region != nil && !region.Contains(p[1], p[0]) {
				continue
			}
			found[k] = append(found[k], p)
		}
	}

	type catKey struct {
		street bool
		name   string
	}
	byName := make(map[catKey]*index.Category)
	for k, pts := range found {
		loc, ok := grid.Describe(pts)
		if !ok {
			continue
		}

		ck := catKey{street: k.street, name: k.category}
		cat, ok := byName[ck]
		if !ok {
			cat = &index.Category{Name: k.category, IsStreet: k.street}
			byName[ck] = cat
		}

		kind := index.KindPOI
		if k.street {
			kind = index.KindStreet
		}
		page := *tile.PageNumber
		cat.Items = append(cat.Items, &index.Item{Kind: kind, Label: k.name, Location: loc, Page: &page})
	}

	// Merge sorts for the locale; keep the partial result deterministic.
	out := make([]index.Category, 0, len(byName))
	for _, cat := range byName {
		sort.Slice(cat.Items, func(i, j int) bool { return cat.Items[i].Label < cat.Items[j].Label })
		out = append(out, *cat)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].IsStreet != out[j].IsStreet {
			return out[i].IsStreet
		}
		return out[i].Name < out[j].Name
	})

	return out, nil
}
