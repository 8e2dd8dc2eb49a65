package fitness

import (
	"arenaforge/internal/connectivity"
	"arenaforge/internal/grid"
)

func checkSize(s *Snapshot) bool {
	return grid.ValidSize(s.Grid.Rows(), s.Grid.Cols())
}

func checkSpawnCount(s *Snapshot) bool {
	return len(s.Spawns) == s.Config.SpawnCount
}

func checkBoxCount(s *Snapshot) bool {
	n := len(s.Boxes)
	return n >= s.Config.BoxMin && n <= s.Config.BoxMax
}

// checkClusterShape bounds box clumps by cell count and impassable masses by
// their share of the grid.
func checkClusterShape(s *Snapshot) bool {
	_, largestBox := connectivity.SameTileComponents(s.Grid, connectivity.Tiles(grid.Box)).Largest()
	if largestBox > s.Config.MaxBoxCluster {
		return false
	}
	_, largestObstacle := connectivity.Components(s.Grid, connectivity.Impassable()).Largest()
	return float64(largestObstacle) <= s.Config.MaxObstacleClusterFraction*float64(s.Grid.Len())
}

func checkSpawnBoxReach(s *Snapshot) bool {
	if len(s.Boxes) == 0 {
		return false
	}
	dist := connectivity.DistanceField(s.Grid, s.Boxes, connectivity.Traversable())
	for _, sp := range s.Spawns {
		d := dist[s.Grid.Index(sp)]
		if d == connectivity.Unreachable || d > s.Config.MaxSpawnBoxDistance {
			return false
		}
	}
	return true
}

func checkConnectivity(s *Snapshot) bool {
	return connectivity.Components(s.Grid, connectivity.Traversable()).Count() <= 1
}

func checkCentralBoxes(s *Snapshot) bool {
	return CentralBoxCount(s.Grid, s.Config.CenterRadius) >= s.Config.CenterMinBoxes
}

// CentralBoxCount counts boxes within Euclidean radius of the grid center.
func CentralBoxCount(g *grid.Grid, radius float64) int {
	center := g.Center()
	n := 0
	for _, b := range g.Positions(grid.Box) {
		if grid.Euclidean(b, center) <= radius {
			n++
		}
	}
	return n
}

// checkSpawnBarriers requires every pair of spawns that walk closer than the
// fairness distance to have a barrier across their sight line.
func checkSpawnBarriers(s *Snapshot) bool {
	pairs := ClosePairs(s)
	if len(pairs) == 0 {
		return true
	}
	labels := connectivity.Components(s.Grid, connectivity.Impassable())
	for _, pair := range pairs {
		if !HasBarrier(s.Grid, labels, s.Spawns[pair[0]], s.Spawns[pair[1]], s.Config.BarrierMinLength) {
			return false
		}
	}
	return true
}

// ClosePairs returns index pairs into Spawns whose walking distance is below
// the fairness distance.
func ClosePairs(s *Snapshot) [][2]int {
	dists := s.SpawnDistances()
	var out [][2]int
	for i := 0; i < len(s.Spawns); i++ {
		for j := i + 1; j < len(s.Spawns); j++ {
			d := dists[i][s.Grid.Index(s.Spawns[j])]
			if d != connectivity.Unreachable && d < s.Config.FairnessDistance {
				out = append(out, [2]int{i, j})
			}
		}
	}
	return out
}

// HasBarrier reports whether the straight line a→b crosses an impassable
// cell belonging to an impassable component of at least minLength cells.
func HasBarrier(g *grid.Grid, labels connectivity.Labels, a, b grid.Point, minLength int) bool {
	for _, p := range grid.Line(a, b) {
		id := labels.IDs[g.Index(p)]
		if id >= 0 && labels.Sizes[id] >= minLength {
			return true
		}
	}
	return false
}
