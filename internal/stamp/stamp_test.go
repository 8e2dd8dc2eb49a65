package stamp

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arenaforge/internal/grid"
)

func TestLineStampsLengthByThickness(t *testing.T) {
	g := grid.New(20, 20)
	s := New(g, grid.Vertical, 1)

	require.True(t, s.Line(grid.Wall, grid.Point{X: 2, Y: 3}, East, 5, 2))
	assert.Equal(t, 10, g.Count(grid.Wall))
	assert.Equal(t, grid.Wall, g.At(6, 4))
	assert.Equal(t, grid.Walkable, g.At(7, 3))

	require.True(t, s.Line(grid.Water, grid.Point{X: 2, Y: 10}, South, 4, 1))
	assert.Equal(t, 4, g.Count(grid.Water))
	assert.Equal(t, grid.Water, g.At(2, 13))
}

func TestStampRejectsShapesOutsideSourceHalf(t *testing.T) {
	g := grid.New(20, 20)
	s := New(g, grid.Vertical, 0)

	assert.False(t, s.Rect(grid.Wall, grid.Point{X: 8, Y: 0}, 4, 2))
	assert.False(t, s.Rect(grid.Wall, grid.Point{X: 12, Y: 0}, 2, 2))
	assert.False(t, s.Line(grid.Wall, grid.Point{X: 0, Y: 18}, South, 5, 1))
	assert.Equal(t, 0, g.CountWhere(grid.Tile.Impassable))

	h := New(g, grid.Horizontal, 0)
	assert.True(t, h.Rect(grid.Wall, grid.Point{X: 14, Y: 2}, 3, 3))
	assert.False(t, h.Rect(grid.Wall, grid.Point{X: 14, Y: 9}, 3, 3))
}

func TestClearanceBlocksNeighbouringStructures(t *testing.T) {
	g := grid.New(20, 20)
	s := New(g, grid.Vertical, 2)

	require.True(t, s.Rect(grid.Wall, grid.Point{X: 2, Y: 2}, 2, 2))
	before := g.Clone()

	// Two cells from the block: inside the clearance box.
	assert.False(t, s.Rect(grid.Cover, grid.Point{X: 5, Y: 2}, 1, 1))
	assert.True(t, g.Equal(before))

	// Far enough away.
	assert.True(t, s.Rect(grid.Cover, grid.Point{X: 8, Y: 2}, 1, 1))
}

func TestStampNeverPaintsOverSpawn(t *testing.T) {
	g := grid.New(20, 20)
	g.Set(4, 4, grid.Spawn)
	s := New(g, grid.Vertical, 1)

	assert.False(t, s.Rect(grid.Wall, grid.Point{X: 3, Y: 3}, 3, 3))
	assert.Equal(t, grid.Spawn, g.At(4, 4))

	// A spawn inside the halo is allowed and left alone.
	require.True(t, s.Rect(grid.Wall, grid.Point{X: 5, Y: 4}, 2, 1))
	assert.Equal(t, grid.Spawn, g.At(4, 4))
	assert.Equal(t, grid.Wall, g.At(5, 4))
}

func TestStampRejectsNonEmptyTerrain(t *testing.T) {
	g := grid.New(20, 20)
	g.Set(5, 5, grid.Bush)
	s := New(g, grid.Vertical, 0)

	assert.False(t, s.Rect(grid.Wall, grid.Point{X: 4, Y: 4}, 3, 3))
	assert.Equal(t, 0, g.Count(grid.Wall))
	assert.False(t, s.Cells(grid.Box, nil))
}

func TestBlobIsDeterministicForSeed(t *testing.T) {
	a := grid.New(30, 30)
	b := grid.New(30, 30)
	require.True(t, New(a, grid.Vertical, 1).Blob(grid.Water, grid.Point{X: 7, Y: 12}, 3, rand.New(rand.NewSource(11))))
	require.True(t, New(b, grid.Vertical, 1).Blob(grid.Water, grid.Point{X: 7, Y: 12}, 3, rand.New(rand.NewSource(11))))
	assert.True(t, a.Equal(b))
	assert.Equal(t, grid.Water, a.At(7, 12))
	assert.Greater(t, a.Count(grid.Water), 9)
	for _, p := range a.Positions(grid.Water) {
		assert.LessOrEqual(t, grid.Euclidean(p, grid.Point{X: 7, Y: 12}), 3.5)
	}
}

func TestBushOnlyCoversWalkable(t *testing.T) {
	g := grid.New(20, 20)
	g.Set(5, 5, grid.Wall)
	g.Set(6, 5, grid.Spawn)
	s := New(g, grid.Vertical, 3)

	rng := rand.New(rand.NewSource(3))
	require.True(t, s.Bush(grid.Point{X: 5, Y: 6}, 2, rng))
	assert.Equal(t, grid.Wall, g.At(5, 5))
	assert.Equal(t, grid.Spawn, g.At(6, 5))
	assert.Equal(t, grid.Bush, g.At(5, 6))
	for _, p := range g.Positions(grid.Bush) {
		assert.True(t, g.InSourceHalf(p, grid.Vertical))
	}

	blocked := grid.New(20, 20)
	blocked.Fill(grid.Water)
	assert.False(t, New(blocked, grid.Vertical, 0).Bush(grid.Point{X: 3, Y: 3}, 2, rng))
}
