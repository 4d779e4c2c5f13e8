package quadtree

import (
	"testing"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/scanorder/models"
	"github.com/stretchr/testify/require"
)

func newTestTree(t *testing.T, paths ...models.Polyline) (*Registry, *Tree) {
	r := NewRegistry(len(paths))
	for i, p := range paths {
		_, _, ok, err := r.AddPath(i, p)
		require.NoError(t, err)
		require.True(t, ok)
	}

	tree := New(r)
	for i := 0; i < r.Len(); i += 2 {
		require.NoError(t, tree.Insert(EndpointID(i)))
	}
	return r, tree
}

func line(x0, y0, x1, y1 int64) models.Polyline {
	return models.Polyline{{X: x0, Y: y0}, {X: x1, Y: y1}}
}

func TestRegistryAddPath(t *testing.T) {
	t.Run("creates linked pair", func(t *testing.T) {
		r := NewRegistry(1)
		start, end, ok, err := r.AddPath(7, models.Polyline{{X: 1, Y: 2}, {X: 3, Y: 4}, {X: 5, Y: 6}})
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, 2, r.Len())

		s := r.Get(start)
		e := r.Get(end)
		require.Equal(t, 7, s.PathID)
		require.Equal(t, 7, e.PathID)
		require.Equal(t, Start, s.Role)
		require.Equal(t, End, e.Role)
		require.Equal(t, end, s.Sibling)
		require.Equal(t, start, e.Sibling)
		require.Equal(t, models.Point{X: 1, Y: 2}, s.Coord)
		require.Equal(t, models.Point{X: 5, Y: 6}, e.Coord)
		require.Equal(t, models.Point{X: 5 * SubUnitScale, Y: 6 * SubUnitScale}, e.Scaled)
		require.False(t, s.Live())
	})

	t.Run("rejects degenerate path", func(t *testing.T) {
		r := NewRegistry(2)

		_, _, ok, err := r.AddPath(0, models.Polyline{{X: 1, Y: 1}})
		require.NoError(t, err)
		require.False(t, ok)

		_, _, ok, err = r.AddPath(1, nil)
		require.NoError(t, err)
		require.False(t, ok)
		require.Zero(t, r.Len())
	})

	t.Run("rejects out of range coordinate", func(t *testing.T) {
		r := NewRegistry(1)
		_, _, _, err := r.AddPath(0, line(0, 0, models.MaxCoordinate+1, 0))
		require.Error(t, err)
		require.True(t, errors.IsType(err, models.ErrTypeCoordinateOutOfRange))
		require.Zero(t, r.Len())
	})

	t.Run("rejects out of range interior vertex", func(t *testing.T) {
		r := NewRegistry(1)
		_, _, ok, err := r.AddPath(0, models.Polyline{
			{X: 0, Y: 0},
			{X: 4 * models.MaxCoordinate, Y: 0},
			{X: 1, Y: 0},
		})
		require.False(t, ok)
		require.True(t, errors.IsType(err, models.ErrTypeCoordinateOutOfRange))
		require.Zero(t, r.Len())
	})
}

func TestRootRegion(t *testing.T) {
	t.Run("minimum side", func(t *testing.T) {
		r := RootRegion(models.Bounds(models.Point{X: -3, Y: 5}))
		require.Equal(t, models.Point{X: -3, Y: 5}, r.Min)
		require.Equal(t, int64(1)<<MaxDepth, r.Width())
		require.Equal(t, r.Width(), r.Height())
	})

	t.Run("power of two above extent", func(t *testing.T) {
		side := int64(1)<<MaxDepth + 1
		r := RootRegion(models.Rect{Max: models.Point{X: side, Y: 10}})
		require.Equal(t, int64(1)<<(MaxDepth+1), r.Width())
	})
}

func TestTreeInsert(t *testing.T) {
	r, tree := newTestTree(t,
		line(0, 0, 10, 0),
		line(10, 0, 10, 10),
		line(50, 50, 60, 50),
	)

	require.False(t, tree.IsEmpty())
	require.Equal(t, 6, tree.LiveCount())
	require.NoError(t, tree.Check())

	for i := 0; i < r.Len(); i++ {
		e := r.Get(EndpointID(i))
		require.True(t, e.Live())

		leaf := tree.LeafOf(EndpointID(i))
		require.NotEqual(t, NoNode, leaf)
		require.Equal(t, MaxDepth, tree.Depth(leaf))
	}

	// Endpoints sharing a vertex share a leaf.
	require.Equal(t, tree.LeafOf(1), tree.LeafOf(2))

	counts := tree.LevelCounts()
	for depth, c := range counts {
		require.Equal(t, uint64(6), c, "depth %d", depth)
	}
}

func TestTreeInsertErrors(t *testing.T) {
	t.Run("inserting twice fails", func(t *testing.T) {
		_, tree := newTestTree(t, line(0, 0, 1, 1))

		err := tree.Insert(0)
		require.True(t, errors.IsType(err, models.ErrTypeEndpointLive))

		err = tree.Insert(1)
		require.True(t, errors.IsType(err, models.ErrTypeEndpointLive))
		require.Equal(t, 2, tree.LiveCount())
	})

	t.Run("inserting outside of region fails", func(t *testing.T) {
		r := NewRegistry(2)
		r.AddPath(0, line(0, 0, 1, 1))
		r.AddPath(1, line(0, 0, 1<<20, 0))

		tree := NewWithRegion(r, RootRegion(models.Rect{Max: models.Point{X: 8, Y: 8}}))
		require.NoError(t, tree.Insert(0))

		err := tree.Insert(2)
		require.True(t, errors.IsType(err, models.ErrTypeEndpointOutOfRegion))
		require.Equal(t, 2, tree.LiveCount())
		require.False(t, r.Get(2).Live())
		require.NoError(t, tree.Check())
	})

	t.Run("inserting unknown endpoint fails", func(t *testing.T) {
		_, tree := newTestTree(t, line(0, 0, 1, 1))

		err := tree.Insert(42)
		require.True(t, errors.IsType(err, models.ErrTypeEndpointNotLive))
	})
}

func TestTreeRemove(t *testing.T) {
	t.Run("removes both endpoints", func(t *testing.T) {
		r, tree := newTestTree(t,
			line(0, 0, 10, 0),
			line(10, 0, 10, 10),
		)

		// Removing by the end endpoint retires the start too.
		require.NoError(t, tree.Remove(1))
		require.Equal(t, 2, tree.LiveCount())
		require.False(t, r.Get(0).Live())
		require.False(t, r.Get(1).Live())
		require.Equal(t, NoNode, tree.LeafOf(0))
		require.NoError(t, tree.Check())

		require.NoError(t, tree.Remove(2))
		require.True(t, tree.IsEmpty())
		require.NoError(t, tree.Check())

		for depth, c := range tree.LevelCounts() {
			require.Zero(t, c, "depth %d", depth)
		}
	})

	t.Run("removing twice fails without side effects", func(t *testing.T) {
		_, tree := newTestTree(t,
			line(0, 0, 10, 0),
			line(20, 0, 30, 0),
		)

		require.NoError(t, tree.Remove(0))

		err := tree.Remove(1)
		require.Error(t, err)
		require.True(t, errors.IsType(err, models.ErrTypeEndpointNotLive))
		require.Equal(t, 2, tree.LiveCount())
		require.NoError(t, tree.Check())
	})

	t.Run("removing keeps coincident endpoints", func(t *testing.T) {
		r, tree := newTestTree(t,
			line(0, 0, 5, 0),
			line(5, 0, 0, 0),
		)

		require.NoError(t, tree.Remove(0))
		require.True(t, r.Get(2).Live())
		require.True(t, r.Get(3).Live())
		require.Equal(t, 2, tree.LiveCount())
		require.NoError(t, tree.Check())
	})
}

func TestTreeStats(t *testing.T) {
	_, tree := newTestTree(t,
		line(0, 0, 10, 0),
		line(10, 0, 10, 10),
	)

	s := tree.Stats()
	require.Equal(t, 4, s.Live)
	require.Equal(t, 3, s.Leaves)
	require.Greater(t, s.Nodes, MaxDepth)
}

func TestQuadrant(t *testing.T) {
	region := models.Rect{Max: models.Point{X: 8, Y: 8}}

	require.Equal(t, Left|Down, quadrantOf(region, models.Point{X: 0, Y: 0}))
	require.Equal(t, Right|Down, quadrantOf(region, models.Point{X: 4, Y: 3}))
	require.Equal(t, Left|Up, quadrantOf(region, models.Point{X: 3, Y: 4}))
	require.Equal(t, Right|Up, quadrantOf(region, models.Point{X: 7, Y: 7}))

	require.Equal(t, models.Rect{
		Min: models.Point{X: 4, Y: 4},
		Max: models.Point{X: 8, Y: 8},
	}, childRegion(region, Right|Up))

	require.Equal(t, "left|up", (Left | Up).String())
	require.Equal(t, "none", Quadrant(0).String())

	slots := map[int]bool{}
	for _, q := range []Quadrant{Left | Down, Right | Down, Left | Up, Right | Up} {
		slots[q.slot()] = true
	}
	require.Len(t, slots, 4)
}
