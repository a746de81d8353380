package statmath

import (
	"math"

	"github.com/aclements/go-moremath/stats"
)

// IntervalJitter summarizes how closely a batch of observed
// inter-sample intervals tracked the configured sampling interval
// (spec.md P7: "the actual sampling rate converges to the configured
// rate within jitter bounds"). It is computed off the hot path, over a
// caller-supplied batch of interval observations (no sampler engine in
// this module collects them), using go-moremath/stats rather than
// hand-rolled variance accumulation.
type IntervalJitter struct {
	TargetNS   float64
	MeanNS     float64
	StdDevNS   float64
	P99AbsDevNS float64
	Samples    int
}

// ComputeIntervalJitter builds an IntervalJitter summary from a slice
// of observed inter-sample interval lengths (nanoseconds) against the
// configured target interval.
func ComputeIntervalJitter(targetNS float64, observedNS []float64) IntervalJitter {
	if len(observedNS) == 0 {
		return IntervalJitter{TargetNS: targetNS}
	}

	sample := stats.Sample{Xs: append([]float64(nil), observedNS...)}

	devs := make([]float64, len(observedNS))
	for i, v := range observedNS {
		devs[i] = math.Abs(v - targetNS)
	}
	devSample := stats.Sample{Xs: devs}

	return IntervalJitter{
		TargetNS:    targetNS,
		MeanNS:      sample.Mean(),
		StdDevNS:    sample.StdDev(),
		P99AbsDevNS: devSample.Percentile(0.99),
		Samples:     len(observedNS),
	}
}

// WithinBounds reports whether the jitter summary stays within
// maxAbsDevNS of the target interval at p99, satisfying P7.
func (j IntervalJitter) WithinBounds(maxAbsDevNS float64) bool {
	return j.Samples == 0 || j.P99AbsDevNS <= maxAbsDevNS
}
