package model

import "time"

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// RunRecord summarizes one evolution run.
type RunRecord struct {
	VersionedRecord
	ID               string    `json:"id"`
	CreatedAt        time.Time `json:"created_at"`
	Seed             int64     `json:"seed"`
	PopulationSize   int       `json:"population_size"`
	Generations      int       `json:"generations"`
	GenerationsRun   int       `json:"generations_run"`
	Rows             int       `json:"rows"`
	Cols             int       `json:"cols"`
	Axis             string    `json:"axis"`
	Selector         string    `json:"selector"`
	Postprocessor    string    `json:"postprocessor"`
	BestIndividualID string    `json:"best_individual_id"`
	BestFitness      float64   `json:"best_fitness"`
	StopReason       string    `json:"stop_reason"`
	ElapsedMillis    int64     `json:"elapsed_ms"`
}

// MapRecord is a ranked map of a run: its tile-id matrix and the evaluator
// report behind its fitness.
type MapRecord struct {
	VersionedRecord
	Rank             int                `json:"rank"`
	IndividualID     string             `json:"individual_id"`
	Generation       int                `json:"generation"`
	Fitness          float64            `json:"fitness"`
	Passed           bool               `json:"passed"`
	FailedConstraint string             `json:"failed_constraint,omitempty"`
	Terms            map[string]float64 `json:"terms,omitempty"`
	Axis             string             `json:"axis"`
	Fingerprint      string             `json:"fingerprint"`
	Tiles            [][]int            `json:"tiles"`
}

type GenerationDiagnostics struct {
	Generation           int            `json:"generation"`
	BestFitness          float64        `json:"best_fitness"`
	MeanFitness          float64        `json:"mean_fitness"`
	MinFitness           float64        `json:"min_fitness"`
	ValidCount           int            `json:"valid_count"`
	FingerprintDiversity int            `json:"fingerprint_diversity"`
	FailedConstraints    map[string]int `json:"failed_constraints,omitempty"`
	ElapsedMillis        int64          `json:"elapsed_ms"`
}

type LineageRecord struct {
	VersionedRecord
	IndividualID string   `json:"individual_id"`
	ParentIDs    []string `json:"parent_ids,omitempty"`
	Generation   int      `json:"generation"`
	Operation    string   `json:"operation"`
	Fingerprint  string   `json:"fingerprint,omitempty"`
}
