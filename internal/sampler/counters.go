package sampler

import (
	"sync"
	"sync/atomic"

	"github.com/Periecle/spprof/internal/statmath"
)

// Counters is the engine's StatisticsCounters block (spec.md §3.1):
// lock-free atomic tallies for the hot path, plus a mutex-guarded
// P-Square tracker for suspend-duration percentiles. Only Darwin's
// suspend/walk/resume loop records suspend durations; the POSIX and
// Windows loops leave them at zero.
type Counters struct {
	SamplesCaptured   atomic.Uint64
	SamplesDropped    atomic.Uint64
	SamplesDiscarded  atomic.Uint64 // speculative-walk validation failures (P5)
	ThreadsRegistered atomic.Int64
	ThreadsSkipped    atomic.Uint64 // self-thread exclusion (I4) + per-sample suspend failures
	SuspendTimeTotal  atomic.Uint64 // nanoseconds, only meaningful on suspend-based backends

	mu          sync.Mutex
	suspendP99  *statmath.Quantile
	maxSuspend  uint64
}

// NewCounters builds a zeroed counters block.
func NewCounters() *Counters {
	return &Counters{suspendP99: statmath.NewQuantile(0.99)}
}

// RecordSuspend folds one suspend-duration observation (nanoseconds)
// into the running max and p99 tracker. The tracker is guarded by c.mu,
// so concurrent callers are safe; in practice a single dedicated
// sampling thread owns suspend timing on the backends that suspend.
func (c *Counters) RecordSuspend(durationNS uint64) {
	c.SuspendTimeTotal.Add(durationNS)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.suspendP99.Observe(float64(durationNS))
	if durationNS > c.maxSuspend {
		c.maxSuspend = durationNS
	}
}

// SuspendP99NS returns the current p99 suspend-duration estimate.
func (c *Counters) SuspendP99NS() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.suspendP99.Value()
}

// MaxSuspendNS returns the largest single suspend duration observed.
func (c *Counters) MaxSuspendNS() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.maxSuspend
}

// Snapshot is an immutable point-in-time read of the counters, safe to
// hand to callers outside the hot path (Stats() in the façade).
type Snapshot struct {
	SamplesCaptured   uint64
	SamplesDropped    uint64
	SamplesDiscarded  uint64
	ThreadsRegistered int64
	ThreadsSkipped    uint64
	SuspendTimeTotal  uint64
	SuspendP99NS      float64
	MaxSuspendNS      uint64
}

// Snapshot reads all counters. It is not atomic as a whole (P3 only
// requires each individual counter to be consistent, not the group).
func (c *Counters) Snapshot() Snapshot {
	return Snapshot{
		SamplesCaptured:   c.SamplesCaptured.Load(),
		SamplesDropped:    c.SamplesDropped.Load(),
		SamplesDiscarded:  c.SamplesDiscarded.Load(),
		ThreadsRegistered: c.ThreadsRegistered.Load(),
		ThreadsSkipped:    c.ThreadsSkipped.Load(),
		SuspendTimeTotal:  c.SuspendTimeTotal.Load(),
		SuspendP99NS:      c.SuspendP99NS(),
		MaxSuspendNS:      c.MaxSuspendNS(),
	}
}
