package fitness

import (
	"math"

	"arenaforge/internal/connectivity"
	"arenaforge/internal/grid"
)

func scoreSymmetry(s *Snapshot) float64 {
	return s.Grid.SymmetryRatio(s.Axis) * 10
}

func scoreObstacleDensity(s *Snapshot) float64 {
	n := s.Grid.CountWhere(grid.Tile.Impassable)
	return DensityScore(float64(n)/float64(s.Grid.Len()), s.Config.ObstacleTarget)
}

func scoreBushDensity(s *Snapshot) float64 {
	n := s.Grid.Count(grid.Bush)
	return DensityScore(float64(n)/float64(s.Grid.Len()), s.Config.BushTarget)
}

// scoreBoxProximity rewards boxes that sit some walk away from the nearest
// spawn, saturating at ten steps on average.
func scoreBoxProximity(s *Snapshot) float64 {
	if len(s.Boxes) == 0 || len(s.Spawns) == 0 {
		return 0
	}
	dist := connectivity.DistanceField(s.Grid, s.Spawns, connectivity.Traversable())
	total, n := 0, 0
	for _, b := range s.Boxes {
		d := dist[s.Grid.Index(b)]
		if d == connectivity.Unreachable {
			continue
		}
		total += d
		n++
	}
	if n == 0 {
		return 0
	}
	return NormalizeCap(10)(float64(total)/float64(n)) * 5
}

func scorePathingQuality(s *Snapshot) float64 {
	return 5 * (0.5*ChokeScore(s) + 0.5*RouteScore(s))
}

// ChokeScore is 1 for maps without cut cells and falls to 0 once the cut
// cells reach ChokeTolerance of the traversable area.
func ChokeScore(s *Snapshot) float64 {
	traversable := s.Grid.CountWhere(grid.Tile.Traversable)
	if traversable == 0 {
		return 0
	}
	cuts := len(connectivity.ArticulationPoints(s.Grid, connectivity.Traversable()))
	limit := s.Config.ChokeTolerance * float64(traversable)
	if limit <= 0 {
		if cuts == 0 {
			return 1
		}
		return 0
	}
	return 1 - math.Min(1, float64(cuts)/limit)
}

// RouteScore is the fraction of spawns that still reach the center within
// DetourFactor of their shortest distance once the interior of that shortest
// path is walled off.
func RouteScore(s *Snapshot) float64 {
	if len(s.Spawns) == 0 {
		return 0
	}
	center := s.Grid.Center()
	passable := connectivity.Traversable()
	ok := 0
	for _, sp := range s.Spawns {
		path := connectivity.ShortestPath(s.Grid, sp, center, passable)
		if path == nil {
			continue
		}
		base := len(path) - 1
		if len(path) <= 2 {
			ok++
			continue
		}
		blocked := s.Grid.Clone()
		for _, p := range path[1 : len(path)-1] {
			blocked.Put(p, grid.Wall)
		}
		alt := connectivity.ShortestPathCost(blocked, sp, passable, []grid.Point{center})
		if alt != connectivity.Unreachable && float64(alt) <= s.Config.DetourFactor*float64(base) {
			ok++
		}
	}
	return float64(ok) / float64(len(s.Spawns))
}

func scoreSpawnLayout(s *Snapshot) float64 {
	if len(s.Spawns) == 0 {
		return 0
	}
	share := CornerShare(s.Grid, s.Spawns)
	spread := math.Max(s.Config.CornerShareTarget, 1-s.Config.CornerShareTarget)
	return 5 * math.Max(0, 1-math.Abs(share-s.Config.CornerShareTarget)/spread)
}

// CornerShare is the fraction of spawns nearer to some grid corner than to
// the center.
func CornerShare(g *grid.Grid, spawns []grid.Point) float64 {
	if len(spawns) == 0 {
		return 0
	}
	center := g.Center()
	corners := []grid.Point{
		{X: 0, Y: 0},
		{X: g.Cols() - 1, Y: 0},
		{X: 0, Y: g.Rows() - 1},
		{X: g.Cols() - 1, Y: g.Rows() - 1},
	}
	n := 0
	for _, sp := range spawns {
		nearest := math.Inf(1)
		for _, c := range corners {
			nearest = math.Min(nearest, grid.Euclidean(sp, c))
		}
		if nearest < grid.Euclidean(sp, center) {
			n++
		}
	}
	return float64(n) / float64(len(spawns))
}
