// Package genotype owns the evolving individual (a mirrored arena grid) and
// the procedures that create and repair it.
package genotype

import (
	"crypto/sha1"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"

	"arenaforge/internal/connectivity"
	"arenaforge/internal/grid"
)

var ErrInvariantViolated = errors.New("individual invariant violated")

// Individual is one candidate map. Fitness stays nil until the evaluator has
// scored the current grid.
type Individual struct {
	ID         string
	Grid       *grid.Grid
	Axis       grid.Axis
	Clearance  int
	Fitness    *float64
	ParentIDs  []string
	Operation  string
	Generation int
}

func (ind *Individual) Clone() *Individual {
	out := *ind
	if ind.Grid != nil {
		out.Grid = ind.Grid.Clone()
	}
	if ind.Fitness != nil {
		f := *ind.Fitness
		out.Fitness = &f
	}
	out.ParentIDs = append([]string(nil), ind.ParentIDs...)
	return &out
}

func (ind *Individual) SetFitness(v float64) {
	ind.Fitness = &v
}

// FitnessValue returns the fitness, or 0 when unevaluated.
func (ind *Individual) FitnessValue() float64 {
	if ind.Fitness == nil {
		return 0
	}
	return *ind.Fitness
}

func (ind *Individual) Fingerprint() string {
	return Fingerprint(ind.Grid)
}

// Fingerprint hashes the grid dimensions and cells.
func Fingerprint(g *grid.Grid) string {
	if g == nil {
		return ""
	}
	h := sha1.New()
	var dims [8]byte
	binary.BigEndian.PutUint32(dims[:4], uint32(g.Rows()))
	binary.BigEndian.PutUint32(dims[4:], uint32(g.Cols()))
	_, _ = h.Write(dims[:])
	tiles := g.Tiles()
	buf := make([]byte, len(tiles))
	for i, t := range tiles {
		buf[i] = byte(t)
	}
	_, _ = h.Write(buf)
	return hex.EncodeToString(h.Sum(nil))
}

// CheckInvariants asserts what every operator output must satisfy: the grid
// is mirror symmetric and every spawn reaches every other spawn.
func CheckInvariants(g *grid.Grid, axis grid.Axis) error {
	if g == nil {
		return fmt.Errorf("%w: nil grid", ErrInvariantViolated)
	}
	if !g.IsSymmetric(axis) {
		return fmt.Errorf("%w: grid not symmetric across %s axis", ErrInvariantViolated, axis)
	}
	spawns := g.Positions(grid.Spawn)
	if len(spawns) == 0 {
		return nil
	}
	reached := connectivity.Reachable(g, spawns[0], connectivity.Traversable())
	for _, sp := range spawns[1:] {
		if !reached.Has(sp) {
			return fmt.Errorf("%w: spawn (%d,%d) unreachable from (%d,%d)", ErrInvariantViolated, sp.X, sp.Y, spawns[0].X, spawns[0].Y)
		}
	}
	return nil
}
