package layout

// Disposition maps grid positions to page numbers. Row 0 is the top row;
// nil marks a tile that was dropped.
type Disposition struct {
	Rows [][]*int `json:"rows"`
}

// Neighbors holds the nearest page in each direction, nil when there is none.
type Neighbors struct {
	North *int `json:"north,omitempty"`
	South *int `json:"south,omitempty"`
	East  *int `json:"east,omitempty"`
	West  *int `json:"west,omitempty"`
}

// Find returns the grid position of a page number.
func (d Disposition) Find(page int) (row, col int, ok bool) {
	for r, cells := range d.Rows {
		for c, n := range cells {
			if n != nil && *n == page {
				return r, c, true
			}
		}
	}
	return 0, 0, false
}

// At returns the page number at a grid position.
func (d Disposition) At(row, col int) (int, bool) {
	if row < 0 || row >= len(d.Rows) || col < 0 || col >= len(d.Rows[row]) {
		return 0, false
	}
	if n := d.Rows[row][col]; n != nil {
		return *n, true
	}
	return 0, false
}

// Neighbors resolves the pages to link from the map page in each cardinal
// direction. Pages that are not part of the grid have no neighbours.
func (d Disposition) Neighbors(page int) Neighbors {
	row, col, ok := d.Find(page)
	if !ok {
		return Neighbors{}
	}

	var nb Neighbors
	for r := row - 1; r >= 0 && nb.North == nil; r-- {
		nb.North = d.pageAt(r, col)
	}
	for r := row + 1; r < len(d.Rows) && nb.South == nil; r++ {
		nb.South = d.pageAt(r, col)
	}
	for c := col - 1; c >= 0 && nb.West == nil; c-- {
		nb.West = d.pageAt(row, c)
	}
	for c := col + 1; c < len(d.Rows[row]) && nb.East == nil; c++ {
		nb.East = d.pageAt(row, c)
	}

	return nb
}

func (d Disposition) pageAt(row, col int) *int {
	n, ok := d.At(row, col)
	if !ok {
		return nil
	}
	return &n
}
