package store

import (
	"fmt"
	"time"
)

// Assignment names how loss functions are assigned to workers.
const (
	// AssignShared gives every worker the same quadratic loss.
	AssignShared = "shared"
	// AssignPerWorker gives every worker its own quadratic loss; the
	// monitoring loss is their explicit average.
	AssignPerWorker = "per-worker"
)

// RunConfig holds the hyperparameters of a PR-SGD run.
// This is the persisted copy; it avoids import cycles with the server package.
type RunConfig struct {
	Dimension    int     `json:"dimension"`
	Workers      int     `json:"workers"`
	Iterations   int     `json:"iterations"`
	LearningRate float64 `json:"learningRate"`

	// LocalSteps holds one local step count per worker.
	LocalSteps []int `json:"localSteps"`

	// Assignment is AssignShared or AssignPerWorker.
	Assignment string `json:"assignment"`

	Noisy   bool    `json:"noisy"`
	Seed    uint64  `json:"seed"`
	InitMin float64 `json:"initMin"`
	InitMax float64 `json:"initMax"`
}

// Validate checks that the config describes a runnable PR-SGD setup.
func (c *RunConfig) Validate() error {
	if c.Dimension <= 0 {
		return &ValidationError{Field: "Dimension", Reason: "must be positive"}
	}
	if c.Workers <= 0 {
		return &ValidationError{Field: "Workers", Reason: "must be positive"}
	}
	if c.Iterations < 0 {
		return &ValidationError{Field: "Iterations", Reason: "cannot be negative"}
	}
	if len(c.LocalSteps) != c.Workers {
		return &ValidationError{
			Field:  "LocalSteps",
			Reason: fmt.Sprintf("length mismatch: %d entries for %d workers", len(c.LocalSteps), c.Workers),
		}
	}
	for i, n := range c.LocalSteps {
		if n < 0 {
			return &ValidationError{
				Field:  "LocalSteps",
				Reason: fmt.Sprintf("entry %d cannot be negative", i),
			}
		}
	}
	switch c.Assignment {
	case AssignShared, AssignPerWorker:
	default:
		return &ValidationError{Field: "Assignment", Reason: "must be shared or per-worker"}
	}
	if c.InitMin >= c.InitMax {
		return &ValidationError{Field: "InitMin", Reason: "init range is empty"}
	}
	return nil
}

// RunRecord represents a finished (or aborted) PR-SGD run.
// All fields are serialized to JSON for persistence.
type RunRecord struct {
	// RunID is the unique identifier for this run.
	RunID string `json:"runId"`

	// Config holds the hyperparameters the run was started with.
	Config RunConfig `json:"config"`

	// LossHistory holds the monitoring loss value per completed round,
	// in round order.
	LossHistory []float64 `json:"lossHistory"`

	// GradNormHistory holds the noise-free gradient norm per completed
	// round, in round order. Always the same length as LossHistory.
	GradNormHistory []float64 `json:"gradNormHistory"`

	// GlobalParams is the final averaged global parameter vector.
	GlobalParams []float64 `json:"globalParams"`

	// Timestamp records when this record was created.
	Timestamp time.Time `json:"timestamp"`
}

// NewRunRecord creates a record from finished run state.
func NewRunRecord(runID string, config RunConfig, lossHistory, gradNormHistory, globalParams []float64) *RunRecord {
	return &RunRecord{
		RunID:           runID,
		Config:          config,
		LossHistory:     lossHistory,
		GradNormHistory: gradNormHistory,
		GlobalParams:    globalParams,
		Timestamp:       time.Now(),
	}
}

// Validate checks if the record has consistent data.
func (r *RunRecord) Validate() error {
	if r.RunID == "" {
		return &ValidationError{Field: "RunID", Reason: "cannot be empty"}
	}
	if err := r.Config.Validate(); err != nil {
		return err
	}
	if len(r.LossHistory) != len(r.GradNormHistory) {
		return &ValidationError{
			Field:  "GradNormHistory",
			Reason: fmt.Sprintf("length %d does not match loss history length %d", len(r.GradNormHistory), len(r.LossHistory)),
		}
	}
	if len(r.GlobalParams) != r.Config.Dimension {
		return &ValidationError{
			Field:  "GlobalParams",
			Reason: fmt.Sprintf("length %d does not match dimension %d", len(r.GlobalParams), r.Config.Dimension),
		}
	}
	if r.Timestamp.IsZero() {
		return &ValidationError{Field: "Timestamp", Reason: "cannot be zero"}
	}
	return nil
}

// ToInfo converts a full RunRecord to RunInfo (metadata only).
func (r *RunRecord) ToInfo() RunInfo {
	info := RunInfo{
		RunID:     r.RunID,
		Workers:   r.Config.Workers,
		Dimension: r.Config.Dimension,
		Rounds:    len(r.LossHistory),
		Timestamp: r.Timestamp,
	}
	if n := len(r.LossHistory); n > 0 {
		info.FinalLoss = r.LossHistory[n-1]
		info.FinalGradNorm = r.GradNormHistory[n-1]
	}
	return info
}

// RunInfo contains metadata about a run without the full histories.
// Used for listing runs efficiently.
type RunInfo struct {
	RunID         string    `json:"runId"`
	Workers       int       `json:"workers"`
	Dimension     int       `json:"dimension"`
	Rounds        int       `json:"rounds"`
	FinalLoss     float64   `json:"finalLoss"`
	FinalGradNorm float64   `json:"finalGradNorm"`
	Timestamp     time.Time `json:"timestamp"`
}

// ValidationError represents a run record validation error.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation error: " + e.Field + " " + e.Reason
}
