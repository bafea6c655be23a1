package lpn

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"

	"github.com/phuocchubeo123/volefp/crypto/block"
)

// TestRowColumnDistributionIsApproximatelyUniform is a statistical sanity
// check, not a correctness proof: it confirms the PRG-driven column indices
// drawn across many rows land roughly evenly across [0, k), rather than
// clustering on a narrow subrange the way a poorly domain-separated PRNG
// might. The bound is loose on purpose to avoid flakiness on a single
// sampled session.
func TestRowColumnDistributionIsApproximatelyUniform(t *testing.T) {
	const k = 64
	const numRows = 20000

	e := New(numRows, k, Seeds{
		Index:       block.B16{0x5, 0x9},
		Coefficient: block.B16{0x2, 0x4},
	})

	counts := make([]float64, k)
	total := 0
	for i := 0; i < numRows; i++ {
		cols, _, err := e.Row(i)
		require.NoError(t, err)
		for _, c := range cols {
			counts[c]++
			total++
		}
	}

	expected := float64(total) / float64(k)
	mean := stat.Mean(counts, nil)
	stdDev := stat.StdDev(counts, nil)

	require.InDelta(t, expected, mean, 1e-9)
	// For a roughly uniform draw, the bucket-count standard deviation
	// should stay well under the mean itself; a badly broken expander
	// (e.g. always hitting column 0) would blow this bound wide open.
	require.Less(t, stdDev, mean*0.5)
}
