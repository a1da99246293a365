// Package loss defines the loss-function contract optimized by PR-SGD
// workers, along with its two concrete variants: a parametrized quadratic
// bowl with optional stochastic gradient noise, and a composite that
// averages several functions of equal dimension.
package loss

import (
	"errors"
	"fmt"
)

// ErrDimensionMismatch is returned by Value and Gradient when the input
// vector length differs from the function's declared input dimension.
// Use errors.Is(err, ErrDimensionMismatch) to check for this error.
var ErrDimensionMismatch = errors.New("input dimension mismatch")

// ErrInvalidConstruction is returned by constructors when the supplied
// parameters cannot form a valid loss function.
// Use errors.Is(err, ErrInvalidConstruction) to check for this error.
var ErrInvalidConstruction = errors.New("invalid loss function construction")

// Function is the contract every loss-function variant implements.
//
// Implementations are immutable after construction apart from any internal
// noise source, and must be safe for concurrent Value/Gradient calls from
// multiple workers sharing one instance.
type Function interface {
	// Value evaluates the loss at x.
	// Returns ErrDimensionMismatch if len(x) differs from InputDimension().
	Value(x []float64) (float64, error)

	// Gradient evaluates the gradient at x. When deleteNoise is true, any
	// stochastic noise term is suppressed regardless of the function's
	// configuration; diagnostics use this to observe true convergence.
	// Returns ErrDimensionMismatch if len(x) differs from InputDimension().
	Gradient(x []float64, deleteNoise bool) ([]float64, error)

	// InputDimension returns the fixed dimension d of the function's domain.
	InputDimension() int
}

// checkDimension validates an input vector length against d.
func checkDimension(x []float64, d int) error {
	if len(x) != d {
		return fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(x), d)
	}
	return nil
}
