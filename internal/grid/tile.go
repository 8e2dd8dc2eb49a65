package grid

import (
	"errors"
	"fmt"
)

type Tile uint8

const (
	Walkable Tile = iota
	Wall
	Water
	Cover
	Box
	Spawn
	Bush
)

var ErrUnknownTile = errors.New("unknown tile")

var tileNames = [...]string{
	Walkable: "walkable",
	Wall:     "wall",
	Water:    "water",
	Cover:    "cover",
	Box:      "box",
	Spawn:    "spawn",
	Bush:     "bush",
}

// tileIDs is the integer table handed to level importers. It is a wire
// contract and does not follow declaration order.
var tileIDs = [...]int{
	Walkable: 0,
	Wall:     1,
	Bush:     2,
	Spawn:    3,
	Cover:    4,
	Water:    5,
	Box:      6,
}

func (t Tile) String() string {
	if int(t) < len(tileNames) {
		return tileNames[t]
	}
	return fmt.Sprintf("tile(%d)", uint8(t))
}

func (t Tile) ID() int {
	if int(t) < len(tileIDs) {
		return tileIDs[t]
	}
	return -1
}

// Impassable reports whether the tile blocks walking.
func (t Tile) Impassable() bool {
	return t == Wall || t == Water || t == Cover
}

// Traversable is the complement of Impassable over known tiles.
func (t Tile) Traversable() bool {
	return t == Walkable || t == Box || t == Bush || t == Spawn
}

func TileFromID(id int) (Tile, error) {
	for t, tid := range tileIDs {
		if tid == id {
			return Tile(t), nil
		}
	}
	return 0, fmt.Errorf("%w: id=%d", ErrUnknownTile, id)
}

func ParseTile(name string) (Tile, error) {
	for t, n := range tileNames {
		if n == name {
			return Tile(t), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownTile, name)
}

// Legend returns tile name to export id.
func Legend() map[string]int {
	out := make(map[string]int, len(tileNames))
	for t, name := range tileNames {
		out[name] = tileIDs[t]
	}
	return out
}

func AllTiles() []Tile {
	return []Tile{Walkable, Wall, Water, Cover, Box, Spawn, Bush}
}
