// Package index merges the per-page street and POI indexes of an atlas and
// lays them out in columns over as many pages as needed.
package index

import "strconv"

// Kind tells streets from points of interest.
type Kind int

const (
	// KindStreet is a named way, categorised by its first letter.
	KindStreet Kind = iota
	// KindPOI is an amenity, categorised by its type.
	KindPOI
)

// String returns the manifest name of the kind.
func (k Kind) String() string {
	switch k {
	case KindStreet:
		return "street"
	case KindPOI:
		return "poi"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// Item is one index entry.
type Item struct {
	Kind  Kind   `json:"kind" yaml:"kind"`
	Label string `json:"label" yaml:"label"`

	// Location names the grid squares the item covers, like "B2-C4".
	Location string `json:"location" yaml:"location"`

	// Page is the map page the item was collected on.
	Page *int `json:"page,omitempty" yaml:"page,omitempty"`
}

// Reference returns the text printed in the location column.
func (it *Item) Reference(rtl bool) string {
	loc := it.Location
	if loc == "" {
		loc = "???"
	}
	if it.Page == nil {
		return loc
	}
	if rtl {
		return loc + ", " + strconv.Itoa(*it.Page)
	}
	return strconv.Itoa(*it.Page) + ", " + loc
}

// Blank reports whether the label was removed as a duplicate.
func (it *Item) Blank() bool { return it.Label == "" }

// Category groups items under a header: a letter for streets or an amenity
// type for POIs.
type Category struct {
	Name     string  `json:"name" yaml:"name"`
	IsStreet bool    `json:"is_street" yaml:"is_street"`
	Items    []*Item `json:"items" yaml:"items"`
}
