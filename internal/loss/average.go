package loss

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// Average is the arithmetic mean of an ordered list of component loss
// functions sharing one input dimension. It makes no assumption about the
// components' concrete types.
type Average struct {
	components []Function
	dim        int
}

// NewAverage creates the mean of the given component functions.
// Returns ErrInvalidConstruction if no components are given or their
// input dimensions differ.
func NewAverage(components ...Function) (*Average, error) {
	if len(components) == 0 {
		return nil, fmt.Errorf("%w: average needs at least one component", ErrInvalidConstruction)
	}

	dim := components[0].InputDimension()
	for i, fn := range components[1:] {
		if fn.InputDimension() != dim {
			return nil, fmt.Errorf("%w: component %d has dimension %d, want %d",
				ErrInvalidConstruction, i+1, fn.InputDimension(), dim)
		}
	}

	return &Average{
		components: append([]Function(nil), components...),
		dim:        dim,
	}, nil
}

// Value returns the mean of the component values at x.
// The dimension is checked once here; components trust the caller.
func (a *Average) Value(x []float64) (float64, error) {
	if err := checkDimension(x, a.dim); err != nil {
		return 0, err
	}

	sum := 0.0
	for _, fn := range a.components {
		v, err := fn.Value(x)
		if err != nil {
			return 0, err
		}
		sum += v
	}
	return sum / float64(len(a.components)), nil
}

// Gradient returns the coordinatewise mean of the component gradients,
// forwarding deleteNoise unchanged to every component. Averaging
// independently-noised gradients dampens the noise but only
// deleteNoise=true eliminates it.
func (a *Average) Gradient(x []float64, deleteNoise bool) ([]float64, error) {
	if err := checkDimension(x, a.dim); err != nil {
		return nil, err
	}

	g := make([]float64, a.dim)
	for _, fn := range a.components {
		cg, err := fn.Gradient(x, deleteNoise)
		if err != nil {
			return nil, err
		}
		floats.Add(g, cg)
	}
	floats.Scale(1/float64(len(a.components)), g)
	return g, nil
}

// InputDimension returns the shared component dimension.
func (a *Average) InputDimension() int {
	return a.dim
}
