// Package sampler implements the profiler's engine: the platform
// timer/signal source that periodically captures a RawSample from
// every registered target thread and pushes it into a ring buffer for
// the resolver to drain.
//
// The package is split the way the teacher splits its poller
// implementations — a shared, platform-independent core (this file,
// counters.go, registry.go, sampler.go) plus one file per OS providing
// the actual interrupt/suspend mechanism (sampler_posix.go,
// sampler_darwin.go, sampler_windows.go), mirroring
// github.com/joeycumines/go-eventloop eventloop's poller.go /
// poller_linux.go split.
package sampler

import "sync/atomic"

// State is the sampler engine's lifecycle state, modeled on the
// teacher's LoopState (eventloop/state.go) but collapsed to the five
// states spec.md's engine actually has: a sampler either doesn't
// exist yet, is mid-startup, is actively firing, is mid-shutdown, or
// is fully stopped.
type State uint32

const (
	StateIdle State = iota
	StateStarting
	StateActive
	StateStopping
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateStarting:
		return "Starting"
	case StateActive:
		return "Active"
	case StateStopping:
		return "Stopping"
	case StateStopped:
		return "Stopped"
	default:
		return "Unknown"
	}
}

// FastState is a lock-free, cache-line-padded state machine, ported
// from eventloop.FastState: pure atomic CAS, no mutex, so it can be
// read from the async-signal-safe hot path without risk of blocking a
// signal handler on a lock held by a preempted thread.
type FastState struct {
	_ [64]byte
	v atomic.Uint32
	_ [60]byte
}

// NewFastState creates a state machine starting at StateIdle.
func NewFastState() *FastState {
	s := &FastState{}
	s.v.Store(uint32(StateIdle))
	return s
}

// Load returns the current state.
func (s *FastState) Load() State { return State(s.v.Load()) }

// Store unconditionally sets the state.
func (s *FastState) Store(state State) { s.v.Store(uint32(state)) }

// TryTransition performs a single CAS from `from` to `to`.
func (s *FastState) TryTransition(from, to State) bool {
	return s.v.CompareAndSwap(uint32(from), uint32(to))
}

// IsActive reports whether sampling is currently armed.
func (s *FastState) IsActive() bool { return s.Load() == StateActive }
