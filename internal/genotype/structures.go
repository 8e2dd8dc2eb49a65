package genotype

import (
	"fmt"
	"math/rand"

	"arenaforge/internal/grid"
	"arenaforge/internal/stamp"
)

// Range is an inclusive integer interval.
type Range struct {
	Min int `toml:"min" json:"min"`
	Max int `toml:"max" json:"max"`
}

func (r Range) Sample(rng *rand.Rand) int {
	if r.Max <= r.Min {
		return r.Min
	}
	return r.Min + rng.Intn(r.Max-r.Min+1)
}

func (r Range) Validate(name string) error {
	if r.Min < 0 || r.Max < r.Min {
		return fmt.Errorf("%s range [%d,%d] is invalid", name, r.Min, r.Max)
	}
	return nil
}

type StructureKind string

const (
	WaterLine StructureKind = "water_line"
	Reservoir StructureKind = "reservoir"
	WallBlock StructureKind = "wall_block"
	CoverBlob StructureKind = "cover_blob"
	BushPatch StructureKind = "bush_patch"
	BoxClump  StructureKind = "box_clump"
)

const placeTries = 24

// StructureKinds lists every kind in stamping order.
func StructureKinds() []StructureKind {
	return []StructureKind{WaterLine, Reservoir, WallBlock, CoverBlob, BoxClump, BushPatch}
}

// StructureRanges holds per-kind counts stamped on the source half.
type StructureRanges struct {
	WaterLines  Range `toml:"water_lines" json:"water_lines"`
	Reservoirs  Range `toml:"reservoirs" json:"reservoirs"`
	WallBlocks  Range `toml:"wall_blocks" json:"wall_blocks"`
	CoverBlobs  Range `toml:"cover_blobs" json:"cover_blobs"`
	BushPatches Range `toml:"bush_patches" json:"bush_patches"`
	BoxClumps   Range `toml:"box_clumps" json:"box_clumps"`
}

func DefaultStructureRanges() StructureRanges {
	return StructureRanges{
		WaterLines:  Range{Min: 2, Max: 4},
		Reservoirs:  Range{Min: 0, Max: 2},
		WallBlocks:  Range{Min: 6, Max: 10},
		CoverBlobs:  Range{Min: 4, Max: 8},
		BushPatches: Range{Min: 6, Max: 10},
		BoxClumps:   Range{Min: 1, Max: 3},
	}
}

func (r StructureRanges) For(kind StructureKind) Range {
	switch kind {
	case WaterLine:
		return r.WaterLines
	case Reservoir:
		return r.Reservoirs
	case WallBlock:
		return r.WallBlocks
	case CoverBlob:
		return r.CoverBlobs
	case BushPatch:
		return r.BushPatches
	case BoxClump:
		return r.BoxClumps
	}
	return Range{}
}

func (r StructureRanges) Validate() error {
	for _, kind := range StructureKinds() {
		if err := r.For(kind).Validate(string(kind)); err != nil {
			return err
		}
	}
	return nil
}

// StampStructure places one structure of kind at a random source-half
// position, retrying a bounded number of positions. It reports whether
// anything was stamped.
func StampStructure(st *stamp.Stamper, g *grid.Grid, axis grid.Axis, kind StructureKind, rng *rand.Rand) bool {
	maxX, maxY := g.SourceBounds(axis)
	for try := 0; try < placeTries; try++ {
		at := grid.Point{X: rng.Intn(maxX), Y: rng.Intn(maxY)}
		var ok bool
		switch kind {
		case WaterLine:
			dir := stamp.Direction(rng.Intn(2))
			ok = st.Line(grid.Water, at, dir, 4+rng.Intn(6), 1+rng.Intn(2))
		case Reservoir:
			ok = st.Blob(grid.Water, at, 2+rng.Intn(2), rng)
		case WallBlock:
			ok = st.Rect(grid.Wall, at, 2+rng.Intn(5), 2+rng.Intn(5))
		case CoverBlob:
			ok = st.Blob(grid.Cover, at, 1+rng.Intn(2), rng)
		case BoxClump:
			ok = st.Rect(grid.Box, at, 1+rng.Intn(2), 1+rng.Intn(3))
		case BushPatch:
			ok = st.Bush(at, 2+rng.Intn(3), rng)
		default:
			return false
		}
		if ok {
			return true
		}
	}
	return false
}
