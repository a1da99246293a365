package store

import (
	"errors"
	"testing"
	"time"
)

func validRunConfig() RunConfig {
	return RunConfig{
		Dimension:    5,
		Workers:      2,
		Iterations:   10,
		LearningRate: 0.1,
		LocalSteps:   []int{3, 3},
		Assignment:   AssignShared,
		Seed:         1,
		InitMin:      -10,
		InitMax:      10,
	}
}

func TestRunConfigValidate(t *testing.T) {
	cfg := validRunConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
}

func TestRunConfigValidateErrors(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*RunConfig)
		wantField string
	}{
		{"zero dimension", func(c *RunConfig) { c.Dimension = 0 }, "Dimension"},
		{"zero workers", func(c *RunConfig) { c.Workers = 0 }, "Workers"},
		{"negative iterations", func(c *RunConfig) { c.Iterations = -1 }, "Iterations"},
		{"steps length mismatch", func(c *RunConfig) { c.LocalSteps = []int{3} }, "LocalSteps"},
		{"negative step count", func(c *RunConfig) { c.LocalSteps = []int{3, -1} }, "LocalSteps"},
		{"unknown assignment", func(c *RunConfig) { c.Assignment = "round-robin" }, "Assignment"},
		{"empty init range", func(c *RunConfig) { c.InitMin, c.InitMax = 5, 5 }, "InitMin"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validRunConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}

			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected *ValidationError, got %T", err)
			}
			if verr.Field != tt.wantField {
				t.Errorf("field = %q, want %q", verr.Field, tt.wantField)
			}
		})
	}
}

func TestRunRecordValidate(t *testing.T) {
	record := NewRunRecord("run-1", validRunConfig(),
		[]float64{10, 5, 2},
		[]float64{6, 4, 3},
		[]float64{1, 2, 3, 4, 5})

	if err := record.Validate(); err != nil {
		t.Fatalf("valid record rejected: %v", err)
	}

	record.RunID = ""
	if err := record.Validate(); err == nil {
		t.Error("expected error for empty run ID")
	}
	record.RunID = "run-1"

	record.GradNormHistory = []float64{6}
	if err := record.Validate(); err == nil {
		t.Error("expected error for history length mismatch")
	}
	record.GradNormHistory = []float64{6, 4, 3}

	record.GlobalParams = []float64{1, 2}
	if err := record.Validate(); err == nil {
		t.Error("expected error for params/dimension mismatch")
	}
	record.GlobalParams = []float64{1, 2, 3, 4, 5}

	record.Timestamp = time.Time{}
	if err := record.Validate(); err == nil {
		t.Error("expected error for zero timestamp")
	}
}

func TestRunRecordToInfo(t *testing.T) {
	record := NewRunRecord("run-1", validRunConfig(),
		[]float64{10, 5, 2},
		[]float64{6, 4, 3},
		[]float64{1, 2, 3, 4, 5})

	info := record.ToInfo()
	if info.RunID != "run-1" {
		t.Errorf("RunID = %q, want run-1", info.RunID)
	}
	if info.Workers != 2 || info.Dimension != 5 {
		t.Errorf("Workers/Dimension = %d/%d, want 2/5", info.Workers, info.Dimension)
	}
	if info.Rounds != 3 {
		t.Errorf("Rounds = %d, want 3", info.Rounds)
	}
	if info.FinalLoss != 2 || info.FinalGradNorm != 3 {
		t.Errorf("final values = %v/%v, want 2/3", info.FinalLoss, info.FinalGradNorm)
	}
}

func TestRunRecordToInfoEmptyHistories(t *testing.T) {
	record := NewRunRecord("run-1", validRunConfig(), nil, nil, []float64{1, 2, 3, 4, 5})

	info := record.ToInfo()
	if info.Rounds != 0 {
		t.Errorf("Rounds = %d, want 0", info.Rounds)
	}
	if info.FinalLoss != 0 || info.FinalGradNorm != 0 {
		t.Errorf("final values = %v/%v, want zeros", info.FinalLoss, info.FinalGradNorm)
	}
}
