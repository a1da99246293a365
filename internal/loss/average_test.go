package loss

import (
	"errors"
	"math"
	"testing"
)

func TestAverageOfIdenticalComponents(t *testing.T) {
	base, err := NewQuadratic([]float64{1, 2}, []float64{1, -1}, false, 0)
	if err != nil {
		t.Fatalf("NewQuadratic failed: %v", err)
	}

	avg, err := NewAverage(base, base, base)
	if err != nil {
		t.Fatalf("NewAverage failed: %v", err)
	}

	inputs := [][]float64{
		{0, 0},
		{2, 1},
		{-3, 5},
		{1, -1},
	}
	for _, x := range inputs {
		want, _ := base.Value(x)
		got, err := avg.Value(x)
		if err != nil {
			t.Fatalf("Value failed: %v", err)
		}
		if math.Abs(got-want) > 1e-12 {
			t.Errorf("Average of identical copies should equal the copy: got %f, want %f at %v", got, want, x)
		}

		wantG, _ := base.Gradient(x, true)
		gotG, err := avg.Gradient(x, true)
		if err != nil {
			t.Fatalf("Gradient failed: %v", err)
		}
		for i := range wantG {
			if math.Abs(gotG[i]-wantG[i]) > 1e-12 {
				t.Errorf("Gradient mismatch at %v index %d: got %f, want %f", x, i, gotG[i], wantG[i])
			}
		}
	}
}

func TestAverageValueAndGradient(t *testing.T) {
	// f1(x) = x^2 (a=1, c=0), f2(x) = 3(x-2)^2
	f1, err := NewQuadratic([]float64{1}, []float64{0}, false, 0)
	if err != nil {
		t.Fatalf("NewQuadratic failed: %v", err)
	}
	f2, err := NewQuadratic([]float64{3}, []float64{2}, false, 0)
	if err != nil {
		t.Fatalf("NewQuadratic failed: %v", err)
	}

	avg, err := NewAverage(f1, f2)
	if err != nil {
		t.Fatalf("NewAverage failed: %v", err)
	}

	// At x=1: f1=1, f2=3, mean=2. Gradients: 2 and -6, mean -2.
	v, err := avg.Value([]float64{1})
	if err != nil {
		t.Fatalf("Value failed: %v", err)
	}
	if v != 2 {
		t.Errorf("Expected mean value 2, got %f", v)
	}

	g, err := avg.Gradient([]float64{1}, true)
	if err != nil {
		t.Fatalf("Gradient failed: %v", err)
	}
	if g[0] != -2 {
		t.Errorf("Expected mean gradient -2, got %f", g[0])
	}
}

func TestAverageForwardsDeleteNoise(t *testing.T) {
	f1, _ := NewQuadratic([]float64{1}, []float64{0}, true, 1)
	f2, _ := NewQuadratic([]float64{1}, []float64{0}, true, 2)

	avg, err := NewAverage(f1, f2)
	if err != nil {
		t.Fatalf("NewAverage failed: %v", err)
	}

	// With deleteNoise=true every component must be noise-free.
	for i := 0; i < 20; i++ {
		g, err := avg.Gradient([]float64{3}, true)
		if err != nil {
			t.Fatalf("Gradient failed: %v", err)
		}
		if g[0] != 6 {
			t.Errorf("deleteNoise=true must suppress component noise, got %f", g[0])
		}
	}
}

func TestAverageInvalidConstruction(t *testing.T) {
	f1, _ := NewQuadratic([]float64{1}, []float64{0}, false, 0)
	f2, _ := NewQuadratic([]float64{1, 1}, []float64{0, 0}, false, 0)

	if _, err := NewAverage(f1, f2); !errors.Is(err, ErrInvalidConstruction) {
		t.Errorf("Differing dimensions should fail with ErrInvalidConstruction, got %v", err)
	}
	if _, err := NewAverage(); !errors.Is(err, ErrInvalidConstruction) {
		t.Errorf("Empty component list should fail with ErrInvalidConstruction, got %v", err)
	}
}

func TestAverageDimensionMismatch(t *testing.T) {
	f1, _ := NewQuadratic([]float64{1, 1}, []float64{0, 0}, false, 0)
	avg, err := NewAverage(f1)
	if err != nil {
		t.Fatalf("NewAverage failed: %v", err)
	}

	if _, err := avg.Value([]float64{1}); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("Value with wrong dimension should fail with ErrDimensionMismatch, got %v", err)
	}
	if _, err := avg.Gradient([]float64{1, 2, 3}, false); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("Gradient with wrong dimension should fail with ErrDimensionMismatch, got %v", err)
	}
}

func TestAverageInputDimension(t *testing.T) {
	f1, _ := NewQuadratic([]float64{1, 1}, []float64{0, 0}, false, 0)
	avg, err := NewAverage(f1, f1)
	if err != nil {
		t.Fatalf("NewAverage failed: %v", err)
	}
	if avg.InputDimension() != 2 {
		t.Errorf("Expected dimension 2, got %d", avg.InputDimension())
	}
}
