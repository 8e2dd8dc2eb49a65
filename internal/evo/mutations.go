package evo

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"arenaforge/internal/connectivity"
	"arenaforge/internal/genotype"
	"arenaforge/internal/grid"
	"arenaforge/internal/stamp"
)

var (
	ErrNoMutationChoice = errors.New("no mutation choice available")
	// ErrInvariantViolated is returned when an operator output breaks the
	// symmetry or spawn reachability invariants.
	ErrInvariantViolated = genotype.ErrInvariantViolated
)

const (
	OpAddStructure   = "add_structure"
	OpRemoveObstacle = "remove_obstacle"
	OpShiftRegion    = "shift_region"
	OpAddBush        = "add_bush"
	OpSwapTiles      = "swap_tiles"
)

// DefaultMutationPolicy returns the four map mutations with their standard
// selection weights.
func DefaultMutationPolicy() []WeightedMutation {
	return []WeightedMutation{
		{Operator: &AddStructure{}, Weight: 0.35},
		{Operator: &RemoveObstacle{}, Weight: 0.25},
		{Operator: &ShiftRegion{}, Weight: 0.20},
		{Operator: &AddBush{}, Weight: 0.20},
	}
}

// AddStructure stamps one random structure on the source half.
type AddStructure struct {
	// Kinds restricts the structures drawn from; empty means every
	// obstacle and box kind.
	Kinds []genotype.StructureKind
}

func (o *AddStructure) Name() string {
	return OpAddStructure
}

func (o *AddStructure) Apply(ctx context.Context, rng *rand.Rand, ind *genotype.Individual) (*genotype.Individual, error) {
	child, err := beginMutation(ctx, rng, ind)
	if err != nil {
		return nil, err
	}
	kinds := o.Kinds
	if len(kinds) == 0 {
		kinds = []genotype.StructureKind{
			genotype.WaterLine,
			genotype.Reservoir,
			genotype.WallBlock,
			genotype.CoverBlob,
			genotype.BoxClump,
		}
	}
	kind := kinds[rng.Intn(len(kinds))]
	st := stamp.New(child.Grid, child.Axis, child.Clearance)
	if !genotype.StampStructure(st, child.Grid, child.Axis, kind, rng) {
		return nil, fmt.Errorf("%w: no room for %s", ErrNoMutationChoice, kind)
	}
	return finishMutation(o.Name(), child)
}

// AddBush overlays a bush patch on walkable source-half cells.
type AddBush struct {
	MinRadius int
	MaxRadius int
}

func (o *AddBush) Name() string {
	return OpAddBush
}

func (o *AddBush) Apply(ctx context.Context, rng *rand.Rand, ind *genotype.Individual) (*genotype.Individual, error) {
	child, err := beginMutation(ctx, rng, ind)
	if err != nil {
		return nil, err
	}
	lo, hi := o.MinRadius, o.MaxRadius
	if lo <= 0 {
		lo = 1
	}
	if hi < lo {
		hi = lo + 2
	}
	radius := genotype.Range{Min: lo, Max: hi}.Sample(rng)
	st := stamp.New(child.Grid, child.Axis, child.Clearance)
	maxX, maxY := child.Grid.SourceBounds(child.Axis)
	for try := 0; try < 24; try++ {
		at := grid.Point{X: rng.Intn(maxX), Y: rng.Intn(maxY)}
		if st.Bush(at, radius, rng) {
			return finishMutation(o.Name(), child)
		}
	}
	return nil, fmt.Errorf("%w: no walkable cell for bush", ErrNoMutationChoice)
}

// RemoveObstacle clears a small obstacle region picked at random from the
// source half.
type RemoveObstacle struct {
	// MaxCells bounds how large a component is removed whole; larger ones
	// lose only the cells around the picked point.
	MaxCells int
}

func (o *RemoveObstacle) Name() string {
	return OpRemoveObstacle
}

func (o *RemoveObstacle) Apply(ctx context.Context, rng *rand.Rand, ind *genotype.Individual) (*genotype.Individual, error) {
	child, err := beginMutation(ctx, rng, ind)
	if err != nil {
		return nil, err
	}
	cells := sourceObstacles(child.Grid, child.Axis)
	if len(cells) == 0 {
		return nil, fmt.Errorf("%w: no obstacles", ErrNoMutationChoice)
	}
	at := cells[rng.Intn(len(cells))]
	removeObstacleAt(child.Grid, child.Axis, at, o.maxCells())
	return finishMutation(o.Name(), child)
}

func (o *RemoveObstacle) maxCells() int {
	if o.MaxCells <= 0 {
		return 12
	}
	return o.MaxCells
}

// RemoveObstacleAt clears the obstacle region containing Point.
type RemoveObstacleAt struct {
	Point    grid.Point
	MaxCells int
}

func (o RemoveObstacleAt) Name() string {
	return "remove_obstacle_at"
}

func (o RemoveObstacleAt) Apply(ctx context.Context, _ *rand.Rand, ind *genotype.Individual) (*genotype.Individual, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if ind == nil || ind.Grid == nil {
		return nil, errors.New("individual with grid is required")
	}
	p := o.Point
	if !ind.Grid.Contains(p) || !ind.Grid.Get(p).Impassable() {
		return nil, fmt.Errorf("%w: (%d,%d) is not an obstacle", ErrNoMutationChoice, p.X, p.Y)
	}
	child := ind.Clone()
	child.Fitness = nil
	if !child.Grid.InSourceHalf(p, child.Axis) {
		p = child.Grid.Mirror(p, child.Axis)
	}
	limit := o.MaxCells
	if limit <= 0 {
		limit = 12
	}
	removeObstacleAt(child.Grid, child.Axis, p, limit)
	return finishMutation(o.Name(), child)
}

// removeObstacleAt clears the same-tile component containing p when it has
// at most limit cells, and the 3x3 block of that component around p
// otherwise. Only source-half cells are touched.
func removeObstacleAt(g *grid.Grid, axis grid.Axis, p grid.Point, limit int) int {
	labels := connectivity.SameTileComponents(g, connectivity.Impassable())
	id := labels.IDs[g.Index(p)]
	if id < 0 {
		return 0
	}
	cleared := 0
	whole := labels.Sizes[id] <= limit
	for i, label := range labels.IDs {
		if label != id {
			continue
		}
		q := g.PointAt(i)
		if !g.InSourceHalf(q, axis) {
			continue
		}
		if !whole && (abs(q.X-p.X) > 1 || abs(q.Y-p.Y) > 1) {
			continue
		}
		g.Put(q, grid.Walkable)
		cleared++
	}
	return cleared
}

// ShiftRegion lifts one small obstacle component off the source half and
// re-stamps it a few cells away. When no offset fits, the component is put
// back where it was and ErrNoMutationChoice is returned.
type ShiftRegion struct {
	MaxShift int
	MaxCells int
}

func (o *ShiftRegion) Name() string {
	return OpShiftRegion
}

func (o *ShiftRegion) Apply(ctx context.Context, rng *rand.Rand, ind *genotype.Individual) (*genotype.Individual, error) {
	child, err := beginMutation(ctx, rng, ind)
	if err != nil {
		return nil, err
	}
	maxShift := o.MaxShift
	if maxShift <= 0 {
		maxShift = 3
	}
	maxCells := o.MaxCells
	if maxCells <= 0 {
		maxCells = 40
	}

	g := child.Grid
	labels := connectivity.SameTileComponents(g, connectivity.Impassable())
	var candidates []int
	for id, size := range labels.Sizes {
		if size <= maxCells {
			candidates = append(candidates, id)
		}
	}
	region := pickSourceRegion(g, child.Axis, labels, candidates, rng)
	if len(region) == 0 {
		return nil, fmt.Errorf("%w: no movable region", ErrNoMutationChoice)
	}

	tile := g.Get(region[0])
	for _, p := range region {
		g.Put(p, grid.Walkable)
	}
	st := stamp.New(g, child.Axis, child.Clearance)
	for try := 0; try < 12; try++ {
		dx := rng.Intn(2*maxShift+1) - maxShift
		dy := rng.Intn(2*maxShift+1) - maxShift
		if dx == 0 && dy == 0 {
			continue
		}
		moved := make([]grid.Point, len(region))
		for i, p := range region {
			moved[i] = p.Add(dx, dy)
		}
		if st.Cells(tile, moved) {
			return finishMutation(o.Name(), child)
		}
	}
	return nil, fmt.Errorf("%w: no free offset for region", ErrNoMutationChoice)
}

// pickSourceRegion returns the source-half cells of a random candidate
// component that lies entirely in the source half.
func pickSourceRegion(g *grid.Grid, axis grid.Axis, labels connectivity.Labels, candidates []int, rng *rand.Rand) []grid.Point {
	members := make(map[int][]grid.Point, len(candidates))
	crosses := make(map[int]bool)
	for _, id := range candidates {
		members[id] = nil
	}
	for i, id := range labels.IDs {
		if _, ok := members[id]; !ok {
			continue
		}
		p := g.PointAt(i)
		if !g.InSourceHalf(p, axis) || g.OnAxis(p, axis) {
			crosses[id] = true
			continue
		}
		members[id] = append(members[id], p)
	}
	var usable []int
	for _, id := range candidates {
		if !crosses[id] {
			usable = append(usable, id)
		}
	}
	if len(usable) == 0 {
		return nil
	}
	return members[usable[rng.Intn(len(usable))]]
}

// SwapTiles exchanges two random non-spawn source-half cells.
type SwapTiles struct{}

func (o *SwapTiles) Name() string {
	return OpSwapTiles
}

func (o *SwapTiles) Apply(ctx context.Context, rng *rand.Rand, ind *genotype.Individual) (*genotype.Individual, error) {
	child, err := beginMutation(ctx, rng, ind)
	if err != nil {
		return nil, err
	}
	g := child.Grid
	maxX, maxY := g.SourceBounds(child.Axis)
	for try := 0; try < 10; try++ {
		a := grid.Point{X: rng.Intn(maxX), Y: rng.Intn(maxY)}
		b := grid.Point{X: rng.Intn(maxX), Y: rng.Intn(maxY)}
		ta, tb := g.Get(a), g.Get(b)
		if ta == grid.Spawn || tb == grid.Spawn || ta == tb {
			continue
		}
		g.Put(a, tb)
		g.Put(b, ta)
		return finishMutation(o.Name(), child)
	}
	return nil, fmt.Errorf("%w: no swappable pair", ErrNoMutationChoice)
}

func beginMutation(ctx context.Context, rng *rand.Rand, ind *genotype.Individual) (*genotype.Individual, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, errors.New("random source is required")
	}
	if ind == nil || ind.Grid == nil {
		return nil, errors.New("individual with grid is required")
	}
	child := ind.Clone()
	child.Fitness = nil
	return child, nil
}

// finishMutation mirrors the edited source half, reconnects the map and
// checks the operator invariants.
func finishMutation(name string, child *genotype.Individual) (*genotype.Individual, error) {
	child.Grid.ApplySymmetry(child.Axis)
	genotype.RepairConnectivity(child.Grid, child.Axis, child.Clearance)
	if err := genotype.CheckInvariants(child.Grid, child.Axis); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return child, nil
}

func sourceObstacles(g *grid.Grid, axis grid.Axis) []grid.Point {
	var out []grid.Point
	for i, t := range g.Tiles() {
		if !t.Impassable() {
			continue
		}
		if p := g.PointAt(i); g.InSourceHalf(p, axis) {
			out = append(out, p)
		}
	}
	return out
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
