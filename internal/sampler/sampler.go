package sampler

import (
	"sync"
	"time"

	"github.com/Periecle/spprof/internal/frame"
	"github.com/Periecle/spprof/internal/nativeunwind"
	"github.com/Periecle/spprof/internal/plog"
	"github.com/Periecle/spprof/internal/ring"
	"github.com/Periecle/spprof/internal/rt"
)

// Config carries everything the engine needs to arm itself, supplied
// by the façade (spprof.Config) which in turn is supplied by the host
// embedding the profiler in the target runtime's process.
type Config struct {
	Interval        time.Duration
	NativeUnwinding bool
	SafeMode        bool

	// Suspend/Resume bracket one sampling pass for a single thread on
	// backends that must stop the target thread to read its registers
	// (Darwin's Mach suspend, POSIX's signal-handler rendezvous).
	// Either may be nil on backends that sample without suspension.
	Suspend func(threadID uint64) error
	Resume  func(threadID uint64) error
}

// Engine is the platform-independent sampler core: it owns the thread
// registry, the output ring buffer, the frame walker, and the native
// unwinder, and drives them from a per-platform interval source
// (sampler_posix.go / sampler_darwin.go / sampler_windows.go provide
// the platformLoop whose arm starts the timer that calls Engine.tick).
//
// This mirrors the teacher's poller.go/poller_linux.go split: a small
// platform-neutral file declaring the shape, with the OS-specific
// mechanism living in its own build-tagged file.
type Engine struct {
	cfg      Config
	state    *FastState
	Counters *Counters
	Registry *Registry

	walker   *frame.SpeculativeWalker
	unwinder *nativeunwind.Unwinder
	out      *ring.Buffer[rt.RawSample]

	stopCh chan struct{}
	wg     sync.WaitGroup

	platform platformLoop
}

// platformLoop is the hook each OS-specific file fills in: arm and
// disarm whatever timer/signal mechanism that platform uses to drive
// Engine.tick.
type platformLoop interface {
	arm(e *Engine) error
	disarm(e *Engine) error
}

// New builds an engine. walker and unwinder may be nil if native
// unwinding/interpreter-frame walking is not configured. New always
// creates a fresh thread registry and counters block; out is the ring
// buffer captured samples are written to.
func New(cfg Config, walker *frame.SpeculativeWalker, unwinder *nativeunwind.Unwinder, out *ring.Buffer[rt.RawSample]) *Engine {
	return &Engine{
		cfg:      cfg,
		state:    NewFastState(),
		Counters: NewCounters(),
		Registry: NewRegistry(),
		walker:   walker,
		unwinder: unwinder,
		out:      out,
		stopCh:   make(chan struct{}),
	}
}

// Start arms the platform timer/signal source. Returns false if the
// engine was already active.
func (e *Engine) Start() bool {
	if !e.state.TryTransition(StateIdle, StateStarting) && !e.state.TryTransition(StateStopped, StateStarting) {
		return false
	}
	e.stopCh = make(chan struct{})
	e.platform = newPlatformLoop()
	if err := e.platform.arm(e); err != nil {
		plog.Category(plog.CategorySampler).Error().Err(err).Msg("failed to arm sampler engine")
		e.state.Store(StateIdle)
		return false
	}
	e.state.Store(StateActive)
	registerForkGuard(e)
	return true
}

// Stop disarms the platform source and waits for in-flight ticks to
// finish.
func (e *Engine) Stop() bool {
	if !e.state.TryTransition(StateActive, StateStopping) {
		return false
	}
	close(e.stopCh)
	if e.platform != nil {
		if err := e.platform.disarm(e); err != nil {
			plog.Category(plog.CategorySampler).Warn().Err(err).Msg("error disarming sampler engine")
		}
	}
	e.wg.Wait()
	e.state.Store(StateStopped)
	unregisterForkGuard(e)
	return true
}

// IsActive reports whether the engine is currently sampling.
func (e *Engine) IsActive() bool { return e.state.IsActive() }

// tick performs one sampling pass across every registered thread. It
// is invoked by the platform-specific timer source on every interval.
func (e *Engine) tick(now int64) {
	self, haveSelf := selfThreadID()
	threads := e.Registry.Snapshot()
	for i := range threads {
		if haveSelf && threads[i].ThreadID == self {
			e.Counters.ThreadsSkipped.Add(1)
			continue
		}
		e.captureOne(now, &threads[i])
	}
}

func (e *Engine) captureOne(now int64, t *Thread) {
	if e.cfg.Suspend != nil {
		if err := e.cfg.Suspend(t.ThreadID); err != nil {
			// spec.md §4.6 step 3a: a suspend failure (thread already
			// terminated, or an invalid target) is a skipped thread,
			// not a dropped sample — nothing was ever captured for
			// the ring buffer to reject.
			e.Counters.ThreadsSkipped.Add(1)
			return
		}
		defer func() {
			if e.cfg.Resume != nil {
				_ = e.cfg.Resume(t.ThreadID)
			}
		}()
	}

	var sample rt.RawSample
	sample.TimestampNS = now
	sample.ThreadID = t.ThreadID

	if e.walker != nil && t.TState != 0 {
		n, ok := e.walker.Walk(t.TState, sample.InterpCode[:], sample.InterpInstr[:])
		if !ok {
			e.Counters.SamplesDiscarded.Add(1)
			return
		}
		sample.InterpDepth = int32(n)
	}

	if e.cfg.NativeUnwinding && e.unwinder != nil && t.StackFP != 0 {
		n := e.unwinder.Capture(t.StackFP, t.Bounds, 0, sample.NativePC[:])
		sample.NativeDepth = int32(n)
	}

	if e.out.Write(sample) {
		e.Counters.SamplesCaptured.Add(1)
	} else {
		e.Counters.SamplesDropped.Add(1)
	}
}
