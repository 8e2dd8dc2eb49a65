package grid

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomGrid(rng *rand.Rand, rows, cols int) *Grid {
	g := New(rows, cols)
	tiles := AllTiles()
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			g.Set(x, y, tiles[rng.Intn(len(tiles))])
		}
	}
	return g
}

func TestTileIDTableMatchesExportContract(t *testing.T) {
	want := map[Tile]int{
		Walkable: 0,
		Wall:     1,
		Bush:     2,
		Spawn:    3,
		Cover:    4,
		Water:    5,
		Box:      6,
	}
	for tile, id := range want {
		assert.Equal(t, id, tile.ID(), tile.String())
		back, err := TileFromID(id)
		require.NoError(t, err)
		assert.Equal(t, tile, back)
	}
	_, err := TileFromID(42)
	assert.True(t, errors.Is(err, ErrUnknownTile))

	legend := Legend()
	assert.Len(t, legend, 7)
	assert.Equal(t, 6, legend["box"])
}

func TestTileCategories(t *testing.T) {
	for _, tile := range AllTiles() {
		assert.NotEqual(t, tile.Impassable(), tile.Traversable(), tile.String())
	}
	assert.True(t, Water.Impassable())
	assert.True(t, Bush.Traversable())
}

func TestIDsRoundTrip(t *testing.T) {
	g := randomGrid(rand.New(rand.NewSource(3)), 6, 9)
	back, err := FromIDs(g.IDs())
	require.NoError(t, err)
	assert.True(t, g.Equal(back))

	_, err = FromIDs([][]int{{0, 1}, {0}})
	assert.ErrorIs(t, err, ErrNonRectangular)
	_, err = FromIDs(nil)
	assert.ErrorIs(t, err, ErrEmptyGrid)
}

func TestValidSize(t *testing.T) {
	assert.True(t, ValidSize(60, 60))
	assert.True(t, ValidSize(64, 64))
	assert.False(t, ValidSize(60, 64))
	assert.False(t, ValidSize(32, 32))
}

func TestCloneDoesNotAlias(t *testing.T) {
	g := New(4, 4)
	c := g.Clone()
	c.Set(1, 1, Wall)
	assert.Equal(t, Walkable, g.At(1, 1))
	assert.False(t, g.Equal(c))
}

func TestPositionsRowMajor(t *testing.T) {
	g := New(3, 3)
	g.Set(2, 0, Spawn)
	g.Set(0, 2, Spawn)
	assert.Equal(t, []Point{{X: 2, Y: 0}, {X: 0, Y: 2}}, g.Positions(Spawn))
	assert.Equal(t, 2, g.Count(Spawn))
}

func TestApplySymmetryIsIdempotent(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for _, axis := range []Axis{Vertical, Horizontal} {
		for _, size := range []Size{{Rows: 60, Cols: 60}, {Rows: 7, Cols: 5}} {
			g := randomGrid(rng, size.Rows, size.Cols)
			g.ApplySymmetry(axis)
			once := g.Clone()
			g.ApplySymmetry(axis)
			assert.True(t, once.Equal(g), "axis=%s size=%v", axis, size)
			assert.True(t, g.IsSymmetric(axis))
			assert.Equal(t, 1.0, g.SymmetryRatio(axis))
		}
	}
}

func TestApplySymmetryKeepsSourceHalf(t *testing.T) {
	g := New(4, 6)
	g.Set(0, 1, Wall)
	g.Set(5, 2, Water)
	g.ApplySymmetry(Vertical)
	assert.Equal(t, Wall, g.At(5, 1))
	assert.Equal(t, Walkable, g.At(5, 2), "mirrored half is overwritten, not merged")
}

func TestMirrorAndSourceHalf(t *testing.T) {
	g := New(60, 60)
	assert.Equal(t, Point{X: 54, Y: 5}, g.Mirror(Point{X: 5, Y: 5}, Vertical))
	assert.Equal(t, Point{X: 5, Y: 54}, g.Mirror(Point{X: 5, Y: 5}, Horizontal))
	assert.True(t, g.InSourceHalf(Point{X: 29, Y: 59}, Vertical))
	assert.False(t, g.InSourceHalf(Point{X: 30, Y: 0}, Vertical))
	assert.False(t, g.InSourceHalf(Point{X: 0, Y: 30}, Horizontal))

	odd := New(5, 5)
	assert.True(t, odd.OnAxis(Point{X: 2, Y: 4}, Vertical))
	assert.True(t, odd.InSourceHalf(Point{X: 2, Y: 4}, Vertical))
}

func TestSymmetryRatioCountsMismatches(t *testing.T) {
	g := New(2, 4)
	g.Set(0, 0, Wall)
	// (0,0) and (3,0) now differ: 2 of 8 cells mismatch.
	assert.InDelta(t, 0.75, g.SymmetryRatio(Vertical), 1e-9)
}

func TestParseAxis(t *testing.T) {
	a, err := ParseAxis("Horizontal")
	require.NoError(t, err)
	assert.Equal(t, Horizontal, a)
	_, err = ParseAxis("diagonal")
	assert.Error(t, err)

	var b Axis
	require.NoError(t, b.UnmarshalText([]byte("h")))
	assert.Equal(t, Horizontal, b)
}

func TestLineIncludesEndpointsAndSteps(t *testing.T) {
	line := Line(Point{X: 0, Y: 0}, Point{X: 5, Y: 2})
	require.Len(t, line, 6)
	assert.Equal(t, Point{X: 0, Y: 0}, line[0])
	assert.Equal(t, Point{X: 5, Y: 2}, line[len(line)-1])

	back := Line(Point{X: 3, Y: 7}, Point{X: 3, Y: 2})
	require.Len(t, back, 6)
	for i, p := range back {
		assert.Equal(t, Point{X: 3, Y: 7 - i}, p)
	}

	assert.Equal(t, []Point{{X: 4, Y: 4}}, Line(Point{X: 4, Y: 4}, Point{X: 4, Y: 4}))
}
