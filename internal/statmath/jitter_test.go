package statmath

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestComputeIntervalJitterEmptyInput(t *testing.T) {
	j := ComputeIntervalJitter(1_000_000, nil)
	require.Equal(t, 0, j.Samples)
	require.True(t, j.WithinBounds(1000))
}

func TestComputeIntervalJitterTightSamples(t *testing.T) {
	target := 1_000_000.0
	observed := make([]float64, 0, 100)
	for i := 0; i < 100; i++ {
		// alternate +/-1us around the target interval
		if i%2 == 0 {
			observed = append(observed, target+1000)
		} else {
			observed = append(observed, target-1000)
		}
	}

	j := ComputeIntervalJitter(target, observed)
	require.Equal(t, 100, j.Samples)
	require.InDelta(t, target, j.MeanNS, 1)
	require.InDelta(t, 1000, j.P99AbsDevNS, 1)
	require.True(t, j.WithinBounds(5000))
	require.False(t, j.WithinBounds(500))
}

func TestComputeIntervalJitterDetectsWideSpread(t *testing.T) {
	target := 1_000_000.0
	observed := []float64{target, target + 500_000, target - 500_000, target + 400_000}

	j := ComputeIntervalJitter(target, observed)
	require.Greater(t, j.StdDevNS, 0.0)
	require.False(t, j.WithinBounds(1000))
}
