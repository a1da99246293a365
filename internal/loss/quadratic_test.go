package loss

import (
	"errors"
	"math"
	"sync"
	"testing"
)

func TestQuadraticValue(t *testing.T) {
	q, err := NewQuadratic([]float64{1, 2}, []float64{1, -1}, false, 0)
	if err != nil {
		t.Fatalf("NewQuadratic failed: %v", err)
	}

	// 1*(2-1)^2 + 2*(1-(-1))^2 = 1 + 8 = 9
	v, err := q.Value([]float64{2, 1})
	if err != nil {
		t.Fatalf("Value failed: %v", err)
	}
	if v != 9 {
		t.Errorf("Expected value 9, got %f", v)
	}
}

func TestQuadraticValueAtCenters(t *testing.T) {
	centers := []float64{3, -2, 0.5}
	q, err := NewQuadratic([]float64{1, 0, 2.5}, centers, false, 0)
	if err != nil {
		t.Fatalf("NewQuadratic failed: %v", err)
	}

	v, err := q.Value(centers)
	if err != nil {
		t.Fatalf("Value failed: %v", err)
	}
	if v != 0 {
		t.Errorf("Value at centers should be 0, got %f", v)
	}

	g, err := q.Gradient(centers, true)
	if err != nil {
		t.Fatalf("Gradient failed: %v", err)
	}
	for i, gi := range g {
		if gi != 0 {
			t.Errorf("Gradient at centers should be zero, got %f at index %d", gi, i)
		}
	}
}

func TestQuadraticGradient(t *testing.T) {
	q, err := NewQuadratic([]float64{1, 3}, []float64{0, 2}, false, 0)
	if err != nil {
		t.Fatalf("NewQuadratic failed: %v", err)
	}

	// g[0] = 2*1*(5-0) = 10, g[1] = 2*3*(1-2) = -6
	g, err := q.Gradient([]float64{5, 1}, false)
	if err != nil {
		t.Fatalf("Gradient failed: %v", err)
	}
	if g[0] != 10 || g[1] != -6 {
		t.Errorf("Expected gradient [10 -6], got %v", g)
	}
}

func TestQuadraticDimensionMismatch(t *testing.T) {
	q, err := NewQuadratic([]float64{1, 1}, []float64{0, 0}, false, 0)
	if err != nil {
		t.Fatalf("NewQuadratic failed: %v", err)
	}

	if _, err := q.Value([]float64{1, 2, 3}); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("Value with wrong dimension should fail with ErrDimensionMismatch, got %v", err)
	}
	if _, err := q.Gradient([]float64{1}, false); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("Gradient with wrong dimension should fail with ErrDimensionMismatch, got %v", err)
	}
}

func TestQuadraticInvalidConstruction(t *testing.T) {
	if _, err := NewQuadratic([]float64{1, -0.5}, []float64{0, 0}, false, 0); !errors.Is(err, ErrInvalidConstruction) {
		t.Errorf("Negative coefficient should fail with ErrInvalidConstruction, got %v", err)
	}
	if _, err := NewQuadratic([]float64{1, 1}, []float64{0}, false, 0); !errors.Is(err, ErrInvalidConstruction) {
		t.Errorf("Mismatched centers length should fail with ErrInvalidConstruction, got %v", err)
	}
}

func TestQuadraticDefensiveCopy(t *testing.T) {
	coeffs := []float64{1, 1}
	centers := []float64{0, 0}
	q, err := NewQuadratic(coeffs, centers, false, 0)
	if err != nil {
		t.Fatalf("NewQuadratic failed: %v", err)
	}

	// Mutating the caller's arrays must not affect the function.
	coeffs[0] = 100
	centers[1] = -7

	v, err := q.Value([]float64{1, 1})
	if err != nil {
		t.Fatalf("Value failed: %v", err)
	}
	if v != 2 {
		t.Errorf("Expected value 2 after caller mutation, got %f", v)
	}
}

func TestQuadraticDeleteNoiseSuppressesNoise(t *testing.T) {
	q, err := NewQuadratic([]float64{1}, []float64{0}, true, 7)
	if err != nil {
		t.Fatalf("NewQuadratic failed: %v", err)
	}

	for i := 0; i < 20; i++ {
		g, err := q.Gradient([]float64{3}, true)
		if err != nil {
			t.Fatalf("Gradient failed: %v", err)
		}
		if g[0] != 6 {
			t.Errorf("deleteNoise=true should give exact gradient 6, got %f", g[0])
		}
	}
}

func TestQuadraticNoiseBounded(t *testing.T) {
	q, err := NewQuadratic([]float64{1}, []float64{0}, true, 11)
	if err != nil {
		t.Fatalf("NewQuadratic failed: %v", err)
	}

	x := []float64{4}
	exact := 8.0
	scale := math.Max(1, math.Abs(x[0])) // 4

	sawNoise := false
	for i := 0; i < 200; i++ {
		g, err := q.Gradient(x, false)
		if err != nil {
			t.Fatalf("Gradient failed: %v", err)
		}
		diff := g[0] - exact
		if math.Abs(diff) > scale {
			t.Fatalf("Noise term %f exceeds bound %f", diff, scale)
		}
		if diff != 0 {
			sawNoise = true
		}
	}
	if !sawNoise {
		t.Error("Noisy gradient never differed from the exact gradient")
	}
}

func TestQuadraticNoiseSeedReproducible(t *testing.T) {
	a, err := NewQuadratic([]float64{1}, []float64{0}, true, 99)
	if err != nil {
		t.Fatalf("NewQuadratic failed: %v", err)
	}
	b, err := NewQuadratic([]float64{1}, []float64{0}, true, 99)
	if err != nil {
		t.Fatalf("NewQuadratic failed: %v", err)
	}

	for i := 0; i < 10; i++ {
		ga, _ := a.Gradient([]float64{2}, false)
		gb, _ := b.Gradient([]float64{2}, false)
		if ga[0] != gb[0] {
			t.Fatalf("Same seed should give same draws, got %f vs %f", ga[0], gb[0])
		}
	}
}

func TestQuadraticConcurrentGradient(t *testing.T) {
	// A single noisy instance shared by many goroutines must be safe;
	// run with -race to verify.
	q, err := NewQuadratic([]float64{1, 2}, []float64{0, 1}, true, 3)
	if err != nil {
		t.Fatalf("NewQuadratic failed: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if _, err := q.Gradient([]float64{1, 1}, false); err != nil {
					t.Errorf("Gradient failed: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestQuadraticInputDimension(t *testing.T) {
	q, err := NewQuadratic([]float64{1, 1, 1}, []float64{0, 0, 0}, false, 0)
	if err != nil {
		t.Fatalf("NewQuadratic failed: %v", err)
	}
	if q.InputDimension() != 3 {
		t.Errorf("Expected dimension 3, got %d", q.InputDimension())
	}
}
