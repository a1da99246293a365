// Package prsgd implements Parallel Restarted SGD: K workers run local
// gradient descent concurrently, a coordinator barrier-waits on all of
// them, averages their parameter vectors into a shared global vector, and
// repeats for a fixed number of rounds.
package prsgd

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/Ziyad-Benomar/Parallel-Restarted-SGD/internal/loss"
)

// Worker owns one local parameter vector and optimizes one loss function.
// The loss function is a reference and may be shared across workers; the
// local vector is exclusively owned and mutated in place across rounds.
type Worker struct {
	id     int
	fn     loss.Function
	params []float64
}

// NewWorker creates a worker for the given loss function. The local vector
// is allocated once and reused for the worker's lifetime.
func NewWorker(id int, fn loss.Function) *Worker {
	return &Worker{
		id:     id,
		fn:     fn,
		params: make([]float64, fn.InputDimension()),
	}
}

// ID returns the worker's identity.
func (w *Worker) ID() int {
	return w.id
}

// LossFunction returns the worker's optimization target.
func (w *Worker) LossFunction() loss.Function {
	return w.fn
}

// SetParameters overwrites the local vector with a copy of v.
// Returns ErrDimensionMismatch if v has the wrong length.
func (w *Worker) SetParameters(v []float64) error {
	if len(v) != len(w.params) {
		return fmt.Errorf("%w: got %d, want %d", loss.ErrDimensionMismatch, len(v), len(w.params))
	}
	copy(w.params, v)
	return nil
}

// Parameters returns a snapshot copy of the local vector, so callers never
// alias state a later SetParameters or LocalSGD call would mutate.
func (w *Worker) Parameters() []float64 {
	return append([]float64(nil), w.params...)
}

// LocalSGD performs numSteps sequential gradient-descent steps in place:
// each step evaluates the (possibly noisy) gradient at the current local
// vector and subtracts learningRate times it. numSteps == 0 is a no-op.
func (w *Worker) LocalSGD(learningRate float64, numSteps int) error {
	for step := 0; step < numSteps; step++ {
		g, err := w.fn.Gradient(w.params, false)
		if err != nil {
			return fmt.Errorf("worker %d, local step %d: %w", w.id, step, err)
		}
		floats.AddScaled(w.params, -learningRate, g)
	}
	return nil
}
