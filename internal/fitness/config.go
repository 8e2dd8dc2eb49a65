package fitness

import (
	"errors"
	"fmt"
)

// Hard constraint names, in evaluation order.
const (
	ConstraintSize          = "size"
	ConstraintSpawnCount    = "spawn_count"
	ConstraintBoxCount      = "box_count"
	ConstraintClusterShape  = "cluster_shape"
	ConstraintSpawnBoxReach = "spawn_box_reach"
	ConstraintConnectivity  = "connectivity"
	ConstraintCentralBoxes  = "central_boxes"
	ConstraintSpawnBarriers = "spawn_barriers"
)

// Soft term names.
const (
	TermSymmetry        = "symmetry"
	TermObstacleDensity = "obstacle_density"
	TermBushDensity     = "bush_density"
	TermBoxProximity    = "box_proximity"
	TermPathingQuality  = "pathing_quality"
	TermSpawnLayout     = "spawn_layout"
)

type Weights struct {
	Symmetry        float64 `toml:"symmetry"`
	ObstacleDensity float64 `toml:"obstacle_density"`
	BushDensity     float64 `toml:"bush_density"`
	BoxProximity    float64 `toml:"box_proximity"`
	PathingQuality  float64 `toml:"pathing_quality"`
	SpawnLayout     float64 `toml:"spawn_layout"`
}

type Config struct {
	SpawnCount int `toml:"spawn_count"`
	BoxMin     int `toml:"box_min"`
	BoxMax     int `toml:"box_max"`

	MaxBoxCluster              int     `toml:"max_box_cluster"`
	MaxObstacleClusterFraction float64 `toml:"max_obstacle_cluster_fraction"`

	MaxSpawnBoxDistance int     `toml:"max_spawn_box_distance"`
	CenterRadius        float64 `toml:"center_radius"`
	CenterMinBoxes      int     `toml:"center_min_boxes"`

	// Spawn pairs that walk closer than FairnessDistance need a barrier of at
	// least BarrierMinLength impassable cells crossing their sight line.
	FairnessDistance int `toml:"fairness_distance"`
	BarrierMinLength int `toml:"barrier_min_length"`
	BarrierMaxLength int `toml:"barrier_max_length"`

	ObstacleTarget float64 `toml:"obstacle_target"`
	BushTarget     float64 `toml:"bush_target"`

	ChokeTolerance    float64 `toml:"choke_tolerance"`
	DetourFactor      float64 `toml:"detour_factor"`
	CornerShareTarget float64 `toml:"corner_share_target"`

	Weights Weights `toml:"weights"`
}

func DefaultConfig() Config {
	return Config{
		SpawnCount:                 10,
		BoxMin:                     20,
		BoxMax:                     35,
		MaxBoxCluster:              6,
		MaxObstacleClusterFraction: 0.08,
		MaxSpawnBoxDistance:        20,
		CenterRadius:               8,
		CenterMinBoxes:             8,
		FairnessDistance:           18,
		BarrierMinLength:           10,
		BarrierMaxLength:           14,
		ObstacleTarget:             0.15,
		BushTarget:                 0.10,
		ChokeTolerance:             0.02,
		DetourFactor:               1.5,
		CornerShareTarget:          0.4,
		Weights: Weights{
			Symmetry:        2,
			ObstacleDensity: 1.5,
			BushDensity:     1.5,
			BoxProximity:    2,
			PathingQuality:  1,
			SpawnLayout:     2,
		},
	}
}

var ErrInvalidConfig = errors.New("invalid fitness config")

func (c Config) Validate() error {
	switch {
	case c.SpawnCount <= 0:
		return fmt.Errorf("%w: spawn count must be > 0", ErrInvalidConfig)
	case c.BoxMin < 0 || c.BoxMax < c.BoxMin:
		return fmt.Errorf("%w: box range [%d,%d]", ErrInvalidConfig, c.BoxMin, c.BoxMax)
	case c.MaxBoxCluster <= 0:
		return fmt.Errorf("%w: max box cluster must be > 0", ErrInvalidConfig)
	case c.MaxObstacleClusterFraction <= 0 || c.MaxObstacleClusterFraction > 1:
		return fmt.Errorf("%w: max obstacle cluster fraction must be in (0,1]", ErrInvalidConfig)
	case c.CenterRadius < 0:
		return fmt.Errorf("%w: center radius must be >= 0", ErrInvalidConfig)
	case c.BarrierMinLength <= 0 || c.BarrierMaxLength < c.BarrierMinLength:
		return fmt.Errorf("%w: barrier length range [%d,%d]", ErrInvalidConfig, c.BarrierMinLength, c.BarrierMaxLength)
	case c.DetourFactor < 1:
		return fmt.Errorf("%w: detour factor must be >= 1", ErrInvalidConfig)
	case c.CornerShareTarget < 0 || c.CornerShareTarget > 1:
		return fmt.Errorf("%w: corner share target must be in [0,1]", ErrInvalidConfig)
	}
	return nil
}
