package spprof

import "errors"

// Sentinel errors, checked with errors.Is — the same taxonomy shape as
// the teacher's errors.go (TypeError/RangeError/TimeoutError with
// Unwrap-based cause chains), collapsed to the handful of conditions
// this façade's lifecycle actually has.
var (
	// ErrAlreadyRunning is returned by Start when the profiler is
	// already active.
	ErrAlreadyRunning = errors.New("spprof: already running")

	// ErrNotRunning is returned by Stop, Drain, and Finalize when the
	// profiler has not been started.
	ErrNotRunning = errors.New("spprof: not running")

	// ErrInvalidArgument is returned by Start when Config fails
	// validation.
	ErrInvalidArgument = errors.New("spprof: invalid argument")

	// ErrUnsupported is returned by Start when the platform sampler
	// cannot be armed, and by SetNativeUnwinding, which cannot change
	// native unwinding after Start.
	ErrUnsupported = errors.New("spprof: unsupported")
)
