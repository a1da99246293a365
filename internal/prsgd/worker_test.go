package prsgd

import (
	"errors"
	"math"
	"testing"

	"github.com/Ziyad-Benomar/Parallel-Restarted-SGD/internal/loss"
)

func newTestQuadratic(t *testing.T, coeffs, centers []float64) loss.Function {
	t.Helper()
	fn, err := loss.NewQuadratic(coeffs, centers, false, 0)
	if err != nil {
		t.Fatalf("NewQuadratic failed: %v", err)
	}
	return fn
}

func TestWorkerSetParametersCopies(t *testing.T) {
	w := NewWorker(0, newTestQuadratic(t, []float64{1, 1}, []float64{0, 0}))

	src := []float64{1, 2}
	if err := w.SetParameters(src); err != nil {
		t.Fatalf("SetParameters failed: %v", err)
	}

	// Mutating the source must not leak into the worker.
	src[0] = 100
	got := w.Parameters()
	if got[0] != 1 || got[1] != 2 {
		t.Errorf("Worker aliases caller's array: got %v", got)
	}

	// Mutating the snapshot must not leak into the worker either.
	got[1] = -50
	again := w.Parameters()
	if again[1] != 2 {
		t.Errorf("Parameters returned a live reference: got %v", again)
	}
}

func TestWorkerSetParametersDimension(t *testing.T) {
	w := NewWorker(0, newTestQuadratic(t, []float64{1}, []float64{0}))

	err := w.SetParameters([]float64{1, 2})
	if !errors.Is(err, loss.ErrDimensionMismatch) {
		t.Errorf("Expected ErrDimensionMismatch, got %v", err)
	}
}

func TestWorkerLocalSGDSingleStep(t *testing.T) {
	// f(x) = x^2, x0 = 5, lr = 0.1: gradient 10, update 5 - 1 = 4.
	w := NewWorker(0, newTestQuadratic(t, []float64{1}, []float64{0}))
	if err := w.SetParameters([]float64{5}); err != nil {
		t.Fatalf("SetParameters failed: %v", err)
	}

	if err := w.LocalSGD(0.1, 1); err != nil {
		t.Fatalf("LocalSGD failed: %v", err)
	}

	got := w.Parameters()
	if got[0] != 4 {
		t.Errorf("Expected parameter 4.0 after one step, got %f", got[0])
	}
}

func TestWorkerLocalSGDMultipleSteps(t *testing.T) {
	// Each step multiplies the distance to the center by (1 - 2*lr) = 0.8.
	w := NewWorker(0, newTestQuadratic(t, []float64{1}, []float64{0}))
	if err := w.SetParameters([]float64{5}); err != nil {
		t.Fatalf("SetParameters failed: %v", err)
	}

	if err := w.LocalSGD(0.1, 3); err != nil {
		t.Fatalf("LocalSGD failed: %v", err)
	}

	want := 5 * 0.8 * 0.8 * 0.8
	got := w.Parameters()
	if math.Abs(got[0]-want) > 1e-12 {
		t.Errorf("Expected parameter %f after 3 steps, got %f", want, got[0])
	}
}

func TestWorkerLocalSGDZeroSteps(t *testing.T) {
	w := NewWorker(0, newTestQuadratic(t, []float64{1}, []float64{0}))
	if err := w.SetParameters([]float64{5}); err != nil {
		t.Fatalf("SetParameters failed: %v", err)
	}

	if err := w.LocalSGD(0.1, 0); err != nil {
		t.Fatalf("LocalSGD failed: %v", err)
	}

	got := w.Parameters()
	if got[0] != 5 {
		t.Errorf("Zero steps should leave parameters unchanged, got %f", got[0])
	}
}

func TestWorkerID(t *testing.T) {
	w := NewWorker(7, newTestQuadratic(t, []float64{1}, []float64{0}))
	if w.ID() != 7 {
		t.Errorf("Expected ID 7, got %d", w.ID())
	}
}
