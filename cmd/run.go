package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Ziyad-Benomar/Parallel-Restarted-SGD/internal/prsgd"
	"github.com/Ziyad-Benomar/Parallel-Restarted-SGD/internal/report"
	"github.com/Ziyad-Benomar/Parallel-Restarted-SGD/internal/store"
)

var (
	dimension    int
	workerCount  int
	iterations   int
	learningRate float64
	localSteps   string
	assignment   string
	noisy        bool
	seed         uint64
	initMin      float64
	initMax      float64
	chartPath    string
	runDataDir   string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a single PR-SGD optimization",
	Long: `Runs Parallel Restarted SGD on generated quadratic losses, prints a
convergence summary, and optionally writes an HTML chart and a persisted
run record.`,
	RunE: runOptimization,
}

func init() {
	runCmd.Flags().IntVar(&dimension, "dim", 10, "Parameter vector dimension")
	runCmd.Flags().IntVar(&workerCount, "workers", 4, "Number of concurrent workers")
	runCmd.Flags().IntVar(&iterations, "iters", 50, "Number of rounds")
	runCmd.Flags().Float64Var(&learningRate, "lr", 0.05, "Learning rate for local SGD")
	runCmd.Flags().StringVar(&localSteps, "local-steps", "10", "Local SGD steps per round: one value for all workers, or a comma-separated list sized to --workers")
	runCmd.Flags().StringVar(&assignment, "assignment", store.AssignShared, "Loss assignment: shared or per-worker")
	runCmd.Flags().BoolVar(&noisy, "noise", false, "Enable stochastic gradient noise")
	runCmd.Flags().Uint64Var(&seed, "seed", 42, "Random seed")
	runCmd.Flags().Float64Var(&initMin, "init-min", -10, "Lower bound of the global vector init range")
	runCmd.Flags().Float64Var(&initMax, "init-max", 10, "Upper bound of the global vector init range")
	runCmd.Flags().StringVar(&chartPath, "chart", "convergence.html", "Convergence chart output path (empty disables)")
	runCmd.Flags().StringVar(&runDataDir, "data-dir", "", "Persist the run record under this directory (empty disables)")

	rootCmd.AddCommand(runCmd)
}

func runOptimization(cmd *cobra.Command, args []string) error {
	steps, err := parseLocalSteps(localSteps, workerCount)
	if err != nil {
		return err
	}

	config := store.RunConfig{
		Dimension:    dimension,
		Workers:      workerCount,
		Iterations:   iterations,
		LearningRate: learningRate,
		LocalSteps:   steps,
		Assignment:   assignment,
		Noisy:        noisy,
		Seed:         seed,
		InitMin:      initMin,
		InitMax:      initMax,
	}
	if err := config.Validate(); err != nil {
		return fmt.Errorf("invalid run configuration: %w", err)
	}

	slog.Info("Starting optimization",
		"workers", workerCount,
		"dimension", dimension,
		"iters", iterations,
		"assignment", assignment,
		"noise", noisy,
	)

	coord, err := prsgd.NewCoordinatorFromRunConfig(config, nil)
	if err != nil {
		return fmt.Errorf("failed to build coordinator: %w", err)
	}

	start := time.Now()
	if err := coord.RunPRSGD(config.Iterations, config.LocalSteps, config.LearningRate); err != nil {
		return fmt.Errorf("run aborted: %w", err)
	}
	elapsed := time.Since(start)

	lossHistory := coord.LossHistory()
	gradNormHistory := coord.GradientNormHistory()

	slog.Info("Optimization complete",
		"elapsed", elapsed,
		"rounds", len(lossHistory),
	)

	if err := report.WriteSummary(os.Stdout, lossHistory, gradNormHistory); err != nil {
		return err
	}

	if chartPath != "" && len(lossHistory) > 0 {
		title := fmt.Sprintf("PR-SGD %d workers, d=%d", workerCount, dimension)
		if err := report.WriteChartFile(chartPath, title, lossHistory, gradNormHistory); err != nil {
			return fmt.Errorf("failed to write chart: %w", err)
		}
		fmt.Printf("Wrote %s\n", chartPath)
	}

	if runDataDir != "" {
		runStore, err := store.NewFSStore(runDataDir)
		if err != nil {
			return fmt.Errorf("failed to create run store: %w", err)
		}
		runID := uuid.New().String()
		record := store.NewRunRecord(runID, config, lossHistory, gradNormHistory, coord.GlobalParameters())
		if err := runStore.SaveRun(runID, record); err != nil {
			return fmt.Errorf("failed to persist run: %w", err)
		}
		fmt.Printf("Saved run %s under %s\n", runID, runDataDir)
	}

	return nil
}

// parseLocalSteps expands the --local-steps flag: a single value is
// broadcast to all workers, a comma-separated list must match the worker
// count.
func parseLocalSteps(spec string, workers int) ([]int, error) {
	parts := strings.Split(spec, ",")

	values := make([]int, 0, len(parts))
	for _, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("invalid local step count %q: %w", part, err)
		}
		values = append(values, n)
	}

	if len(values) == 1 && workers > 1 {
		steps := make([]int, workers)
		for i := range steps {
			steps[i] = values[0]
		}
		return steps, nil
	}

	if len(values) != workers {
		return nil, fmt.Errorf("got %d local step counts for %d workers", len(values), workers)
	}
	return values, nil
}
