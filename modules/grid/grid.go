package grid

import (
	"github.com/aukilabs/scanorder/models"
)

// Regular Grid Spatial Partition
//
// An uniformly sub-divided grid bucketing segment ids by the cell holding one
// of their points. The particularities are:
//   - the grid has a resolution that defines how large a cell is. For
//     example, a resolution of 100 makes each cell hold a 100x100 subdivision
//     of the build plate.
//   - cells are kept as slices of segment ids in insertion order, and used
//     ids are compacted away lazily while cells are scanned.

const (
	minCellsPerSide = 1
	maxCellsPerSide = 1024
)

type RegularGrid struct {
	Resolution int64
	Min        models.Point
	Cols       int
	Rows       int
	Count      int
	Cells      [][]int
}

// NewRegularGrid returns an empty grid covering bounds with about
// cellsPerSide cells along its longest side.
func NewRegularGrid(bounds models.Rect, cellsPerSide int) *RegularGrid {
	cellsPerSide = min(max(cellsPerSide, minCellsPerSide), maxCellsPerSide)

	extent := max(bounds.Width(), bounds.Height(), 1)
	resolution := max((extent+int64(cellsPerSide)-1)/int64(cellsPerSide), 1)

	cols := int(max((bounds.Width()+resolution-1)/resolution, 1))
	rows := int(max((bounds.Height()+resolution-1)/resolution, 1))

	return &RegularGrid{
		Resolution: resolution,
		Min:        bounds.Min,
		Cols:       cols,
		Rows:       rows,
		Cells:      make([][]int, cols*rows),
	}
}

// CellOf returns the column and row of the cell containing p. Points outside
// of the grid are clamped to the closest border cell.
func (grid *RegularGrid) CellOf(p models.Point) (int, int) {
	col := floorDiv(p.X-grid.Min.X, grid.Resolution)
	row := floorDiv(p.Y-grid.Min.Y, grid.Resolution)
	return int(min(max(col, 0), int64(grid.Cols-1))),
		int(min(max(row, 0), int64(grid.Rows-1)))
}

// Insert buckets the segment id into the cell containing p.
func (grid *RegularGrid) Insert(p models.Point, segment int) {
	col, row := grid.CellOf(p)
	i := row*grid.Cols + col
	grid.Cells[i] = append(grid.Cells[i], segment)
	grid.Count++
}

// Cell returns the segment ids bucketed in the given cell, or nil when the
// cell is outside of the grid.
func (grid *RegularGrid) Cell(col, row int) []int {
	if col < 0 || row < 0 || col >= grid.Cols || row >= grid.Rows {
		return nil
	}
	return grid.Cells[row*grid.Cols+col]
}

// Compact removes the ids for which used returns true from the given cell
// and returns the remaining ones.
func (grid *RegularGrid) Compact(col, row int, used func(int) bool) []int {
	if col < 0 || row < 0 || col >= grid.Cols || row >= grid.Rows {
		return nil
	}

	i := row*grid.Cols + col
	cell := grid.Cells[i]
	n := 0
	for _, id := range cell {
		if !used(id) {
			cell[n] = id
			n++
		}
	}
	grid.Count -= len(cell) - n
	grid.Cells[i] = cell[:n]
	return grid.Cells[i]
}

// Ring calls fn for every cell of the grid at Chebyshev distance r from the
// given cell, row by row for the top and bottom edges then column by column
// for the sides.
func (grid *RegularGrid) Ring(col, row, r int, fn func(col, row int)) {
	visit := func(c, r int) {
		if c >= 0 && r >= 0 && c < grid.Cols && r < grid.Rows {
			fn(c, r)
		}
	}

	if r == 0 {
		visit(col, row)
		return
	}

	for dc := -r; dc <= r; dc++ {
		visit(col+dc, row-r)
		visit(col+dc, row+r)
	}
	for dr := -r + 1; dr < r; dr++ {
		visit(col-r, row+dr)
		visit(col+r, row+dr)
	}
}

// MaxRing returns the largest ring distance at which cells of the grid can
// be found from the given cell.
func (grid *RegularGrid) MaxRing(col, row int) int {
	return max(col, grid.Cols-1-col, row, grid.Rows-1-row)
}

type DebugInfo struct {
	Resolution int64
	RowCount   int
	ColCount   int
	Count      int
	MinPoint   models.Point
	MaxPoint   models.Point
	Occupancy  []int
}

func (grid *RegularGrid) GetDebugInfo() DebugInfo {
	result := DebugInfo{
		Resolution: grid.Resolution,
		RowCount:   grid.Rows,
		ColCount:   grid.Cols,
		Count:      grid.Count,
		MinPoint:   grid.Min,
		MaxPoint: grid.Min.Add(models.Point{
			X: int64(grid.Cols) * grid.Resolution,
			Y: int64(grid.Rows) * grid.Resolution,
		}),
	}

	result.Occupancy = make([]int, len(grid.Cells))
	for i, cell := range grid.Cells {
		result.Occupancy[i] = len(cell)
	}
	return result
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}
