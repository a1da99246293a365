package server

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Ziyad-Benomar/Parallel-Restarted-SGD/internal/store"
)

// RunState represents the current state of a run
type RunState string

const (
	StatePending   RunState = "pending"
	StateRunning   RunState = "running"
	StateCompleted RunState = "completed"
	StateFailed    RunState = "failed"
)

// RunConfig is an alias to avoid duplication with store.RunConfig
type RunConfig = store.RunConfig

// Run represents one PR-SGD run driven by the server
type Run struct {
	ID              string     `json:"id"`
	State           RunState   `json:"state"`
	Config          RunConfig  `json:"config"`
	Rounds          int        `json:"rounds"`
	Loss            float64    `json:"loss"`
	GradNorm        float64    `json:"gradNorm"`
	LossHistory     []float64  `json:"lossHistory,omitempty"`
	GradNormHistory []float64  `json:"gradNormHistory,omitempty"`
	StartTime       time.Time  `json:"startTime"`
	EndTime         *time.Time `json:"endTime,omitempty"`
	Error           string     `json:"error,omitempty"`
}

// RunManager manages the lifecycle of runs
type RunManager struct {
	mu          sync.RWMutex
	runs        map[string]*Run
	broadcaster *EventBroadcaster
}

// NewRunManager creates a new RunManager
func NewRunManager() *RunManager {
	return &RunManager{
		runs:        make(map[string]*Run),
		broadcaster: NewEventBroadcaster(),
	}
}

// CreateRun creates a new run with the given configuration
func (rm *RunManager) CreateRun(config RunConfig) *Run {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	run := &Run{
		ID:        uuid.New().String(),
		State:     StatePending,
		Config:    config,
		StartTime: time.Now(),
	}

	rm.runs[run.ID] = run
	return snapshotRun(run)
}

// GetRun retrieves a snapshot of a run by ID. The snapshot is safe to
// read while UpdateRun mutates the live run.
func (rm *RunManager) GetRun(id string) (*Run, bool) {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	run, exists := rm.runs[id]
	if !exists {
		return nil, false
	}
	return snapshotRun(run), true
}

// ListRuns returns snapshots of all runs
func (rm *RunManager) ListRuns() []*Run {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	runs := make([]*Run, 0, len(rm.runs))
	for _, run := range rm.runs {
		runs = append(runs, snapshotRun(run))
	}
	return runs
}

// snapshotRun copies a run, including its history slices, so callers can
// read it without holding the manager's lock. Must be called with the
// lock held.
func snapshotRun(run *Run) *Run {
	snapshot := *run
	snapshot.LossHistory = append([]float64(nil), run.LossHistory...)
	snapshot.GradNormHistory = append([]float64(nil), run.GradNormHistory...)
	return &snapshot
}

// UpdateRun atomically updates a run using the provided function
func (rm *RunManager) UpdateRun(id string, updateFn func(*Run)) error {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	run, exists := rm.runs[id]
	if !exists {
		return fmt.Errorf("run not found: %s", id)
	}

	updateFn(run)
	return nil
}

// GetRunningRuns returns snapshots of all runs currently in the running state
func (rm *RunManager) GetRunningRuns() []*Run {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	running := make([]*Run, 0)
	for _, run := range rm.runs {
		if run.State == StateRunning {
			running = append(running, snapshotRun(run))
		}
	}
	return running
}
