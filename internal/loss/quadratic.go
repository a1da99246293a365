package loss

import (
	"fmt"
	"math"
	"sync"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// Quadratic is a coordinatewise quadratic bowl:
//
//	f(x) = Σ a[i]·(x[i]-c[i])²
//
// with gradient 2·a[i]·(x[i]-c[i]). When noise is enabled, each Gradient
// call additionally draws an independent per-coordinate term
// max(1, |x[i]-c[i]|)·U(-1,1), emulating mini-batch sampling noise.
type Quadratic struct {
	coeffs  []float64
	centers []float64
	noisy   bool

	// The uniform source is shared by every Gradient call on this instance;
	// the mutex keeps draws well-defined when one instance backs several
	// workers concurrently.
	mu    sync.Mutex
	noise distuv.Uniform
}

// NewQuadratic creates a quadratic loss from per-coordinate coefficients
// and centers. Both slices are copied, so the caller's arrays may be
// mutated afterwards. The seed makes the noise source reproducible.
//
// Returns ErrInvalidConstruction if any coefficient is negative or the
// slice lengths differ.
func NewQuadratic(coeffs, centers []float64, noisy bool, seed uint64) (*Quadratic, error) {
	if len(coeffs) != len(centers) {
		return nil, fmt.Errorf("%w: %d coefficients but %d centers", ErrInvalidConstruction, len(coeffs), len(centers))
	}
	for i, a := range coeffs {
		if a < 0 {
			return nil, fmt.Errorf("%w: negative coefficient %v at index %d", ErrInvalidConstruction, a, i)
		}
	}

	q := &Quadratic{
		coeffs:  append([]float64(nil), coeffs...),
		centers: append([]float64(nil), centers...),
		noisy:   noisy,
		noise: distuv.Uniform{
			Min: -1,
			Max: 1,
			Src: rand.NewSource(seed),
		},
	}
	return q, nil
}

// Value returns Σ a[i]·(x[i]-c[i])².
func (q *Quadratic) Value(x []float64) (float64, error) {
	if err := checkDimension(x, len(q.coeffs)); err != nil {
		return 0, err
	}

	sum := 0.0
	for i, xi := range x {
		diff := xi - q.centers[i]
		sum += q.coeffs[i] * diff * diff
	}
	return sum, nil
}

// Gradient returns g[i] = 2·a[i]·(x[i]-c[i]), plus the noise term when the
// function was constructed noisy and deleteNoise is false.
func (q *Quadratic) Gradient(x []float64, deleteNoise bool) ([]float64, error) {
	if err := checkDimension(x, len(q.coeffs)); err != nil {
		return nil, err
	}

	g := make([]float64, len(x))
	for i, xi := range x {
		g[i] = 2 * q.coeffs[i] * (xi - q.centers[i])
	}

	if q.noisy && !deleteNoise {
		q.mu.Lock()
		for i, xi := range x {
			scale := math.Max(1, math.Abs(xi-q.centers[i]))
			g[i] += scale * q.noise.Rand()
		}
		q.mu.Unlock()
	}

	return g, nil
}

// InputDimension returns the number of coordinates.
func (q *Quadratic) InputDimension() int {
	return len(q.coeffs)
}
