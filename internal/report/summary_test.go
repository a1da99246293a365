package report

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteSummary(t *testing.T) {
	var buf bytes.Buffer

	err := WriteSummary(&buf,
		[]float64{25, 9, 16},
		[]float64{10, 6, 8})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "rounds")
	assert.Contains(t, out, "3")
	// Best values are minima, not last values.
	assert.Contains(t, out, "9")
	assert.Contains(t, out, "6")
	assert.Contains(t, out, "loss")
	assert.Contains(t, out, "grad norm")
}

func TestWriteSummaryEmpty(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, WriteSummary(&buf, nil, nil))
	assert.Contains(t, buf.String(), "no completed rounds")
}

func TestWriteSummaryLengthMismatch(t *testing.T) {
	var buf bytes.Buffer

	err := WriteSummary(&buf, []float64{1, 2}, []float64{1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "length mismatch")
}
