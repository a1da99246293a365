package prsgd

import (
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/Ziyad-Benomar/Parallel-Restarted-SGD/internal/loss"
	"github.com/Ziyad-Benomar/Parallel-Restarted-SGD/internal/store"
)

// Coefficient range for generated quadratic losses. Strictly positive
// lower bound keeps every generated function strictly convex.
const (
	genCoeffMin = 0.1
	genCoeffMax = 2.0
)

// NewCoordinatorFromRunConfig assembles a coordinator from a persisted run
// config: it generates seeded random quadratic losses (coefficients in
// [0.1, 2), centers inside the init range) and wires them to workers
// according to the config's assignment mode. The CLI run command and the
// HTTP server both start runs through this path.
func NewCoordinatorFromRunConfig(cfg store.RunConfig, observer RoundObserver) (*Coordinator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid run config: %w", err)
	}

	ccfg := Config{
		InitMin:  cfg.InitMin,
		InitMax:  cfg.InitMax,
		Seed:     cfg.Seed,
		Observer: observer,
	}

	// One generator source for all function shapes, so a seed fully
	// determines the generated problem.
	src := rand.NewSource(cfg.Seed)
	coeffDist := distuv.Uniform{Min: genCoeffMin, Max: genCoeffMax, Src: src}
	centerDist := distuv.Uniform{Min: cfg.InitMin, Max: cfg.InitMax, Src: src}

	generate := func(noiseSeed uint64) (loss.Function, error) {
		coeffs := make([]float64, cfg.Dimension)
		centers := make([]float64, cfg.Dimension)
		for i := range coeffs {
			coeffs[i] = coeffDist.Rand()
			centers[i] = centerDist.Rand()
		}
		return loss.NewQuadratic(coeffs, centers, cfg.Noisy, noiseSeed)
	}

	switch cfg.Assignment {
	case store.AssignShared:
		fn, err := generate(cfg.Seed + 1)
		if err != nil {
			return nil, err
		}
		return NewCoordinator(ccfg, cfg.Workers, fn)

	case store.AssignPerWorker:
		fns := make([]loss.Function, cfg.Workers)
		for i := range fns {
			fn, err := generate(cfg.Seed + uint64(i) + 1)
			if err != nil {
				return nil, err
			}
			fns[i] = fn
		}
		return NewCoordinatorPerWorker(ccfg, fns)

	default:
		return nil, fmt.Errorf("%w: unknown assignment %q", loss.ErrInvalidConstruction, cfg.Assignment)
	}
}
