package index

import (
	"errors"
	"fmt"
	"sort"

	"golang.org/x/text/collate"
)

// ErrCategoryKindMismatch is returned when one category name is used for
// both streets and points of interest.
var ErrCategoryKindMismatch = errors.New("category mixes streets and points of interest")

// Merge combines the partial indexes collected on every map page into one
// index sorted for the given locale.
//
// Categories of the same name are concatenated and their items sorted by
// label. An item whose label repeats the previous label is kept with an
// empty label so its reference still gets a row. Street categories come
// before POI categories.
func Merge(partials [][]Category, locale string) ([]Category, error) {
	type group struct {
		isStreet bool
		items    []*Item
	}

	groups := make(map[string]*group)
	var streets, others []string

	for _, partial := range partials {
		for _, cat := range partial {
			g, ok := groups[cat.Name]
			if !ok {
				g = &group{isStreet: cat.IsStreet}
				groups[cat.Name] = g
				if cat.IsStreet {
					streets = append(streets, cat.Name)
				} else {
					others = append(others, cat.Name)
				}
			} else if g.isStreet != cat.IsStreet {
				return nil, fmt.Errorf("%w: %q", ErrCategoryKindMismatch, cat.Name)
			}

			for _, it := range cat.Items {
				cp := *it
				g.items = append(g.items, &cp)
			}
		}
	}

	merged := make([]Category, 0, len(groups))
	withCollation(locale, func(c *collate.Collator) {
		for _, names := range [][]string{streets, others} {
			sort.SliceStable(names, func(i, j int) bool {
				return c.CompareString(names[i], names[j]) < 0
			})

			for _, name := range names {
				g := groups[name]
				sort.SliceStable(g.items, func(i, j int) bool {
					return c.CompareString(g.items[i].Label, g.items[j].Label) < 0
				})
				blankDuplicates(g.items)
				merged = append(merged, Category{Name: name, IsStreet: g.isStreet, Items: g.items})
			}
		}
	})

	return merged, nil
}

// blankDuplicates clears every label equal to the last label kept.
func blankDuplicates(items []*Item) {
	prev := ""
	for _, it := range items {
		if it.Label == "" {
			continue
		}
		if it.Label == prev {
			it.Label = ""
			continue
		}
		prev = it.Label
	}
}

// SortNames sorts names in place in the collation order of locale.
func SortNames(names []string, locale string) {
	withCollation(locale, func(c *collate.Collator) {
		sort.SliceStable(names, func(i, j int) bool {
			return c.CompareString(names[i], names[j]) < 0
		})
	})
}
