// Package statmath provides the small amount of running statistics
// the sampler and resolver need: a P-Square streaming quantile
// estimator for per-thread suspend latency (spec.md §4.6's "< 100µs
// p99" target), and interval-jitter summaries for the rate-accuracy
// property (spec.md P7).
//
// The P-Square estimator is ported from the algorithm behind the
// teacher's pSquareQuantile (github.com/joeycumines/go-eventloop
// eventloop/psquare.go), which exists there to track event-loop task
// latency percentiles without retaining every observation; the same
// O(1)-per-sample, O(1)-query property is exactly what a signal/Mach
// hot path that must never allocate needs here for suspend-duration
// tracking (spec.md's max-suspend-time / suspend-time-total counters).
package statmath

import "math"

// Quantile is a streaming P² quantile estimator for one target
// percentile (e.g. 0.99). It is NOT safe for concurrent use — callers
// serialize access the same way the Darwin sampler already serializes
// its own per-interval suspend loop.
type Quantile struct {
	p     float64
	q     [5]float64
	n     [5]int
	np    [5]float64
	dn    [5]float64
	count int
	init5 [5]float64
	ready bool
}

// NewQuantile creates an estimator for target percentile p, clamped to
// [0, 1].
func NewQuantile(p float64) *Quantile {
	if p < 0 {
		p = 0
	}
	if p > 1 {
		p = 1
	}
	return &Quantile{p: p, dn: [5]float64{0, p / 2, p, (1 + p) / 2, 1}}
}

// Observe records one sample.
func (q *Quantile) Observe(x float64) {
	q.count++
	if q.count <= 5 {
		q.init5[q.count-1] = x
		if q.count == 5 {
			q.initialize()
		}
		return
	}

	k := q.cell(x)
	for i := k + 1; i < 5; i++ {
		q.n[i]++
	}
	for i := range q.np {
		q.np[i] += q.dn[i]
	}
	q.adjust()
}

func (q *Quantile) cell(x float64) int {
	switch {
	case x < q.q[0]:
		q.q[0] = x
		return 0
	case x >= q.q[4]:
		q.q[4] = x
		return 3
	default:
		for k := 0; k < 4; k++ {
			if q.q[k] <= x && x < q.q[k+1] {
				return k
			}
		}
		return 3
	}
}

func (q *Quantile) initialize() {
	// sort the first 5 observations with a fixed insertion sort: the
	// marker array is always length 5, so this is cheaper and more
	// predictable than calling into sort for such a small, fixed N.
	buf := q.init5
	for i := 1; i < 5; i++ {
		v := buf[i]
		j := i - 1
		for j >= 0 && buf[j] > v {
			buf[j+1] = buf[j]
			j--
		}
		buf[j+1] = v
	}
	q.q = buf
	for i := 0; i < 5; i++ {
		q.n[i] = i
	}
	q.np = [5]float64{0, 2 * q.p, 4 * q.p, 2 + 2*q.p, 4}
	q.ready = true
}

func (q *Quantile) adjust() {
	for i := 1; i < 4; i++ {
		d := q.np[i] - float64(q.n[i])
		if (d >= 1 && q.n[i+1]-q.n[i] > 1) || (d <= -1 && q.n[i-1]-q.n[i] < -1) {
			sign := 1
			if d < 0 {
				sign = -1
			}
			qp := q.parabolic(i, sign)
			if q.q[i-1] < qp && qp < q.q[i+1] {
				q.q[i] = qp
			} else {
				q.q[i] = q.linear(i, sign)
			}
			q.n[i] += sign
		}
	}
}

func (q *Quantile) parabolic(i, sign int) float64 {
	d := float64(sign)
	return q.q[i] + d/float64(q.n[i+1]-q.n[i-1])*
		((float64(q.n[i]-q.n[i-1])+d)*(q.q[i+1]-q.q[i])/float64(q.n[i+1]-q.n[i])+
			(float64(q.n[i+1]-q.n[i])-d)*(q.q[i]-q.q[i-1])/float64(q.n[i]-q.n[i-1]))
}

func (q *Quantile) linear(i, sign int) float64 {
	d := float64(sign)
	return q.q[i] + d*(q.q[i+sign]-q.q[i])/float64(q.n[i+sign]-q.n[i])
}

// Value returns the current quantile estimate. For fewer than 5
// observations it falls back to an exact computation over the
// observations seen so far.
func (q *Quantile) Value() float64 {
	if !q.ready {
		if q.count == 0 {
			return 0
		}
		vals := append([]float64(nil), q.init5[:q.count]...)
		for i := 1; i < len(vals); i++ {
			v := vals[i]
			j := i - 1
			for j >= 0 && vals[j] > v {
				vals[j+1] = vals[j]
				j--
			}
			vals[j+1] = v
		}
		idx := int(math.Round(q.p * float64(len(vals)-1)))
		return vals[idx]
	}
	return q.q[2]
}

// Count returns the number of observations seen.
func (q *Quantile) Count() int { return q.count }
