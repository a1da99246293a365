package server

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/Ziyad-Benomar/Parallel-Restarted-SGD/internal/prsgd"
	"github.com/Ziyad-Benomar/Parallel-Restarted-SGD/internal/report"
	"github.com/Ziyad-Benomar/Parallel-Restarted-SGD/internal/store"
)

// runRun executes a PR-SGD run in the background.
// If runStore is not nil, the finished record, a per-round trace, and a
// convergence chart are persisted under the run's directory.
func runRun(rm *RunManager, runStore store.Store, runID string) error {
	run, exists := rm.GetRun(runID)
	if !exists {
		return fmt.Errorf("run not found: %s", runID)
	}

	err := rm.UpdateRun(runID, func(r *Run) {
		r.State = StateRunning
	})
	if err != nil {
		return err
	}

	slog.Info("Starting run",
		"run_id", runID,
		"workers", run.Config.Workers,
		"dimension", run.Config.Dimension,
		"iterations", run.Config.Iterations,
	)

	// Per-round trace, written as rounds complete so a watcher can tail it.
	var trace *store.TraceWriter
	if fs, ok := runStore.(*store.FSStore); ok {
		trace, err = store.NewTraceWriter(fs.BaseDir(), runID, false)
		if err != nil {
			slog.Warn("Failed to create trace writer", "run_id", runID, "error", err)
			trace = nil
		} else {
			defer trace.Close()
		}
	}

	observer := func(stats prsgd.RoundStats) {
		rm.UpdateRun(runID, func(r *Run) {
			r.Rounds = stats.Round
			r.Loss = stats.Loss
			r.GradNorm = stats.GradNorm
			r.LossHistory = append(r.LossHistory, stats.Loss)
			r.GradNormHistory = append(r.GradNormHistory, stats.GradNorm)
		})

		if trace != nil {
			entry := store.TraceEntry{
				Round:     stats.Round,
				Loss:      stats.Loss,
				GradNorm:  stats.GradNorm,
				Timestamp: time.Now(),
			}
			if err := trace.Write(entry); err != nil {
				slog.Warn("Failed to write trace entry", "run_id", runID, "error", err)
			}
		}

		rm.broadcaster.Broadcast(ProgressEvent{
			RunID:     runID,
			State:     StateRunning,
			Round:     stats.Round,
			Loss:      stats.Loss,
			GradNorm:  stats.GradNorm,
			Timestamp: time.Now(),
		})
	}

	coord, err := prsgd.NewCoordinatorFromRunConfig(run.Config, observer)
	if err != nil {
		markRunFailed(rm, runID, err)
		return err
	}

	start := time.Now()
	err = coord.RunPRSGD(run.Config.Iterations, run.Config.LocalSteps, run.Config.LearningRate)
	if err != nil {
		markRunFailed(rm, runID, err)
		return err
	}
	elapsed := time.Since(start)

	// Update run with results
	endTime := time.Now()
	err = rm.UpdateRun(runID, func(r *Run) {
		r.State = StateCompleted
		r.EndTime = &endTime
	})
	if err != nil {
		return err
	}

	lossHistory := coord.LossHistory()
	gradNormHistory := coord.GradientNormHistory()

	if runStore != nil {
		record := store.NewRunRecord(runID, run.Config, lossHistory, gradNormHistory, coord.GlobalParameters())
		if err := runStore.SaveRun(runID, record); err != nil {
			slog.Warn("Failed to persist run record", "run_id", runID, "error", err)
		}

		// Chart needs a filesystem path; only FSStore exposes one.
		if fs, ok := runStore.(*store.FSStore); ok && len(lossHistory) > 0 {
			chartPath := filepath.Join(fs.RunDir(runID), "convergence.html")
			if err := report.WriteChartFile(chartPath, "Run "+runID[:8], lossHistory, gradNormHistory); err != nil {
				slog.Warn("Failed to write convergence chart", "run_id", runID, "error", err)
			}
		}
	}

	finalLoss := 0.0
	finalGradNorm := 0.0
	if n := len(lossHistory); n > 0 {
		finalLoss = lossHistory[n-1]
		finalGradNorm = gradNormHistory[n-1]
	}

	slog.Info("Run completed",
		"run_id", runID,
		"elapsed", elapsed,
		"rounds", len(lossHistory),
		"final_loss", finalLoss,
		"final_grad_norm", finalGradNorm,
	)

	// Broadcast final completion event
	rm.broadcaster.Broadcast(ProgressEvent{
		RunID:     runID,
		State:     StateCompleted,
		Round:     len(lossHistory),
		Loss:      finalLoss,
		GradNorm:  finalGradNorm,
		Timestamp: time.Now(),
	})

	return nil
}

// markRunFailed marks a run as failed with an error message
func markRunFailed(rm *RunManager, runID string, err error) {
	endTime := time.Now()
	rm.UpdateRun(runID, func(r *Run) {
		r.State = StateFailed
		r.Error = err.Error()
		r.EndTime = &endTime
	})
	slog.Error("Run failed", "run_id", runID, "error", err)
}
