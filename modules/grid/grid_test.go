package grid

import (
	"testing"

	"github.com/aukilabs/scanorder/models"
	"github.com/stretchr/testify/require"
)

func TestGridCreation(t *testing.T) {
	t.Run("empty bounds", func(t *testing.T) {
		grid := NewRegularGrid(models.Rect{}, 0)
		require.Equal(t, int64(1), grid.Resolution)
		require.Equal(t, 1, grid.Cols)
		require.Equal(t, 1, grid.Rows)
		require.Len(t, grid.Cells, 1)
		require.Zero(t, grid.Count)
	})

	t.Run("resolution from extent", func(t *testing.T) {
		grid := NewRegularGrid(models.Rect{
			Min: models.Point{X: -50, Y: 0},
			Max: models.Point{X: 50, Y: 40},
		}, 10)
		require.Equal(t, int64(10), grid.Resolution)
		require.Equal(t, 10, grid.Cols)
		require.Equal(t, 4, grid.Rows)
	})

	t.Run("cells per side is clamped", func(t *testing.T) {
		grid := NewRegularGrid(models.Rect{Max: models.Point{X: 1 << 20, Y: 1 << 20}}, 1<<20)
		require.Equal(t, maxCellsPerSide, grid.Cols)
		require.Equal(t, maxCellsPerSide, grid.Rows)
	})
}

func TestGridInsertion(t *testing.T) {
	grid := NewRegularGrid(models.Rect{Max: models.Point{X: 100, Y: 100}}, 10)

	grid.Insert(models.Point{X: 0, Y: 0}, 1)
	grid.Insert(models.Point{X: 9, Y: 9}, 2)
	grid.Insert(models.Point{X: 55, Y: 23}, 3)
	grid.Insert(models.Point{X: -500, Y: 1000}, 4)

	require.Equal(t, 4, grid.Count)
	require.Equal(t, []int{1, 2}, grid.Cell(0, 0))
	require.Equal(t, []int{3}, grid.Cell(5, 2))
	require.Equal(t, []int{4}, grid.Cell(0, 9))
	require.Nil(t, grid.Cell(-1, 0))
	require.Nil(t, grid.Cell(0, 10))

	cell := grid.Compact(0, 0, func(i int) bool { return i == 1 })
	require.Equal(t, []int{2}, cell)
	require.Equal(t, 3, grid.Count)

	debug := grid.GetDebugInfo()
	require.Equal(t, int64(10), debug.Resolution)
	require.Equal(t, 10, debug.ColCount)
	require.Equal(t, 10, debug.RowCount)
	require.Equal(t, 3, debug.Count)
	require.Equal(t, models.Point{X: 100, Y: 100}, debug.MaxPoint)
	require.Equal(t, 1, debug.Occupancy[0])
	require.Equal(t, 1, debug.Occupancy[2*10+5])
}

func TestGridCellOf(t *testing.T) {
	grid := NewRegularGrid(models.Rect{
		Min: models.Point{X: -20, Y: -20},
		Max: models.Point{X: 20, Y: 20},
	}, 4)

	col, row := grid.CellOf(models.Point{X: -20, Y: -20})
	require.Equal(t, 0, col)
	require.Equal(t, 0, row)

	col, row = grid.CellOf(models.Point{X: -1, Y: 0})
	require.Equal(t, 1, col)
	require.Equal(t, 2, row)

	col, row = grid.CellOf(models.Point{X: 1000, Y: -1000})
	require.Equal(t, 3, col)
	require.Equal(t, 0, row)
}

func TestGridRing(t *testing.T) {
	grid := NewRegularGrid(models.Rect{Max: models.Point{X: 50, Y: 50}}, 5)

	collect := func(col, row, r int) map[[2]int]int {
		cells := map[[2]int]int{}
		grid.Ring(col, row, r, func(c, rw int) {
			cells[[2]int{c, rw}]++
		})
		return cells
	}

	require.Equal(t, map[[2]int]int{{2, 2}: 1}, collect(2, 2, 0))
	require.Len(t, collect(2, 2, 1), 8)
	require.Len(t, collect(2, 2, 2), 16)
	require.Empty(t, collect(2, 2, 3))

	// Corner rings are clipped to the grid.
	require.Len(t, collect(0, 0, 1), 3)
	require.Len(t, collect(0, 0, 4), 9)

	for cell, n := range collect(1, 3, 2) {
		require.Equal(t, 1, n, "cell %v visited more than once", cell)
		dc, dr := cell[0]-1, cell[1]-3
		require.Equal(t, 2, max(abs(dc), abs(dr)))
	}

	require.Equal(t, 4, grid.MaxRing(0, 0))
	require.Equal(t, 2, grid.MaxRing(2, 2))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
