package report

import (
	"fmt"
	"io"
	"math"
	"text/tabwriter"
)

// WriteSummary writes a small convergence table for the two histories:
// first, last, and best value of each, plus the round count.
func WriteSummary(w io.Writer, lossHistory, gradNormHistory []float64) error {
	if len(lossHistory) != len(gradNormHistory) {
		return fmt.Errorf("history length mismatch: %d loss values, %d gradient norms",
			len(lossHistory), len(gradNormHistory))
	}
	if len(lossHistory) == 0 {
		_, err := fmt.Fprintln(w, "no completed rounds")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "rounds\t%d\n", len(lossHistory))
	fmt.Fprintf(tw, "\tfirst\tlast\tbest\n")
	fmt.Fprintf(tw, "loss\t%.6g\t%.6g\t%.6g\n",
		lossHistory[0], lossHistory[len(lossHistory)-1], minOf(lossHistory))
	fmt.Fprintf(tw, "grad norm\t%.6g\t%.6g\t%.6g\n",
		gradNormHistory[0], gradNormHistory[len(gradNormHistory)-1], minOf(gradNormHistory))
	return tw.Flush()
}

func minOf(values []float64) float64 {
	best := math.Inf(1)
	for _, v := range values {
		if v < best {
			best = v
		}
	}
	return best
}
