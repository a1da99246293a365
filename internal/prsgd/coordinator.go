package prsgd

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/Ziyad-Benomar/Parallel-Restarted-SGD/internal/loss"
)

// RoundStats describes one completed round, as passed to a RoundObserver.
type RoundStats struct {
	// Round is the 1-based round index.
	Round int

	// Loss is the monitoring loss value at the freshly averaged global vector.
	Loss float64

	// GradNorm is the Euclidean norm of the noise-free monitoring gradient.
	GradNorm float64

	// Elapsed is the wall-clock time since the run started.
	Elapsed time.Duration
}

// RoundObserver is called after each round's monitoring phase, from the
// coordinator's own goroutine. It must not block for long; round r+1 does
// not start until it returns.
type RoundObserver func(RoundStats)

// Config holds coordinator construction parameters.
type Config struct {
	// InitMin and InitMax bound the uniform distribution the global vector
	// is initialized from, one independent draw per coordinate.
	InitMin float64
	InitMax float64

	// Seed makes the global-vector initialization reproducible.
	Seed uint64

	// Observer, when non-nil, receives one RoundStats per completed round.
	Observer RoundObserver
}

// DefaultConfig returns the default coordinator configuration: global
// initialization over (-10, 10) with a fixed seed.
func DefaultConfig() Config {
	return Config{
		InitMin: -10,
		InitMax: 10,
		Seed:    42,
	}
}

// Coordinator owns the shared global parameter vector, drives synchronous
// PR-SGD rounds across its workers, and records per-round convergence
// diagnostics.
//
// The global vector is mutated only between rounds, never while worker
// goroutines are in flight, so it needs no locking. A Coordinator is not
// safe for concurrent RunPRSGD calls.
type Coordinator struct {
	workers []*Worker
	monitor loss.Function
	global  []float64

	lossHistory     []float64
	gradNormHistory []float64

	observer RoundObserver
}

// NewCoordinator creates a coordinator with workerCount workers all
// optimizing the same shared loss function, which also serves as the
// monitoring loss.
func NewCoordinator(cfg Config, workerCount int, shared loss.Function) (*Coordinator, error) {
	if workerCount < 1 {
		return nil, fmt.Errorf("%w: worker count must be at least 1, got %d", loss.ErrInvalidConstruction, workerCount)
	}

	workers := make([]*Worker, workerCount)
	for i := range workers {
		workers[i] = NewWorker(i, shared)
	}
	return newCoordinator(cfg, workers, shared)
}

// NewCoordinatorPerWorker creates a coordinator with one worker per given
// loss function. All functions must share one input dimension; the
// monitoring loss is their explicit average.
func NewCoordinatorPerWorker(cfg Config, fns []loss.Function) (*Coordinator, error) {
	monitor, err := loss.NewAverage(fns...)
	if err != nil {
		return nil, err
	}

	workers := make([]*Worker, len(fns))
	for i, fn := range fns {
		workers[i] = NewWorker(i, fn)
	}
	return newCoordinator(cfg, workers, monitor)
}

func newCoordinator(cfg Config, workers []*Worker, monitor loss.Function) (*Coordinator, error) {
	if cfg.InitMin >= cfg.InitMax {
		return nil, fmt.Errorf("%w: init range (%v, %v) is empty", loss.ErrInvalidConstruction, cfg.InitMin, cfg.InitMax)
	}

	dim := monitor.InputDimension()
	initDist := distuv.Uniform{
		Min: cfg.InitMin,
		Max: cfg.InitMax,
		Src: rand.NewSource(cfg.Seed),
	}

	global := make([]float64, dim)
	for i := range global {
		global[i] = initDist.Rand()
	}

	return &Coordinator{
		workers:  workers,
		monitor:  monitor,
		global:   global,
		observer: cfg.Observer,
	}, nil
}

// RunPRSGD runs numIterations synchronous rounds. Each round broadcasts the
// global vector to every worker, runs the workers' local SGD concurrently,
// waits for all of them, recomputes the global vector as the coordinatewise
// mean of the workers' final vectors, and appends the monitoring loss value
// and noise-free gradient norm to the histories.
//
// numLocalSteps holds one non-negative local step count per worker. A
// failure inside any worker aborts the run after the round's barrier; the
// histories then hold exactly the rounds completed before the failure.
func (c *Coordinator) RunPRSGD(numIterations int, numLocalSteps []int, learningRate float64) error {
	if numIterations < 0 {
		return fmt.Errorf("%w: negative iteration count %d", loss.ErrInvalidConstruction, numIterations)
	}
	if len(numLocalSteps) != len(c.workers) {
		return fmt.Errorf("%w: %d local step counts for %d workers",
			loss.ErrInvalidConstruction, len(numLocalSteps), len(c.workers))
	}
	for i, n := range numLocalSteps {
		if n < 0 {
			return fmt.Errorf("%w: negative local step count %d for worker %d", loss.ErrInvalidConstruction, n, i)
		}
	}

	slog.Info("Starting PR-SGD run",
		"workers", len(c.workers),
		"dimension", len(c.global),
		"iterations", numIterations,
		"learning_rate", learningRate,
	)

	start := time.Now()
	for r := 1; r <= numIterations; r++ {
		if err := c.runRound(r, numLocalSteps, learningRate, start); err != nil {
			return err
		}
	}

	slog.Info("PR-SGD run complete",
		"rounds", numIterations,
		"elapsed", time.Since(start),
		"final_loss", c.lastOr(c.lossHistory),
		"final_grad_norm", c.lastOr(c.gradNormHistory),
	)
	return nil
}

// runRound executes one broadcast/optimize/barrier/aggregate/monitor cycle.
func (c *Coordinator) runRound(round int, numLocalSteps []int, learningRate float64, start time.Time) error {
	// Broadcast + local optimization, one goroutine per worker. Errors land
	// in per-worker slots so the barrier always joins every goroutine before
	// anything is reported.
	errs := make([]error, len(c.workers))
	var wg sync.WaitGroup
	for i, w := range c.workers {
		wg.Add(1)
		go func(i int, w *Worker) {
			defer wg.Done()
			if err := w.SetParameters(c.global); err != nil {
				errs[i] = err
				return
			}
			errs[i] = w.LocalSGD(learningRate, numLocalSteps[i])
		}(i, w)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return fmt.Errorf("round %d: %w", round, err)
		}
	}

	// Aggregate: coordinatewise mean of the workers' snapshots. Addition is
	// commutative, so the workers' completion order cannot affect the result.
	floats.Scale(0, c.global)
	inv := 1 / float64(len(c.workers))
	for _, w := range c.workers {
		floats.AddScaled(c.global, inv, w.Parameters())
	}

	// Monitor with noise suppressed, so the diagnostic reflects true
	// convergence rather than injected gradient noise.
	value, err := c.monitor.Value(c.global)
	if err != nil {
		return fmt.Errorf("round %d: monitoring value: %w", round, err)
	}
	grad, err := c.monitor.Gradient(c.global, true)
	if err != nil {
		return fmt.Errorf("round %d: monitoring gradient: %w", round, err)
	}
	gradNorm := floats.Norm(grad, 2)

	c.lossHistory = append(c.lossHistory, value)
	c.gradNormHistory = append(c.gradNormHistory, gradNorm)

	slog.Debug("Round complete", "round", round, "loss", value, "grad_norm", gradNorm)

	if c.observer != nil {
		c.observer(RoundStats{
			Round:    round,
			Loss:     value,
			GradNorm: gradNorm,
			Elapsed:  time.Since(start),
		})
	}
	return nil
}

// LossHistory returns a copy of the recorded monitoring loss values,
// one per completed round, in round order.
func (c *Coordinator) LossHistory() []float64 {
	return append([]float64(nil), c.lossHistory...)
}

// GradientNormHistory returns a copy of the recorded noise-free gradient
// norms, one per completed round, in round order.
func (c *Coordinator) GradientNormHistory() []float64 {
	return append([]float64(nil), c.gradNormHistory...)
}

// GlobalParameters returns a copy of the current global parameter vector.
func (c *Coordinator) GlobalParameters() []float64 {
	return append([]float64(nil), c.global...)
}

// SetGlobalParameters overwrites the global vector with a copy of v. It
// must not be called while a run is in flight; it exists for scripted
// starting points and tests.
func (c *Coordinator) SetGlobalParameters(v []float64) error {
	if len(v) != len(c.global) {
		return fmt.Errorf("%w: got %d, want %d", loss.ErrDimensionMismatch, len(v), len(c.global))
	}
	copy(c.global, v)
	return nil
}

// NumWorkers returns the number of workers.
func (c *Coordinator) NumWorkers() int {
	return len(c.workers)
}

// Dimension returns the length of the global vector.
func (c *Coordinator) Dimension() int {
	return len(c.global)
}

func (c *Coordinator) lastOr(history []float64) float64 {
	if len(history) == 0 {
		return 0
	}
	return history[len(history)-1]
}
