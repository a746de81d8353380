// Package spprof is the façade and lifecycle layer: Start/Stop,
// thread registration, and statistics aggregation over the sampler
// engine, ring buffer, and resolver packages in internal/.
//
// The sampler engine's shutdown is supervised with
// golang.org/x/sync/errgroup, the same dependency the teacher reaches
// for to bound concurrent goroutine lifetimes with a single error
// channel; the resolver drain runs on the caller's goroutine, outside
// the group.
package spprof

import (
	"context"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/Periecle/spprof/internal/coderegistry"
	"github.com/Periecle/spprof/internal/frame"
	"github.com/Periecle/spprof/internal/nativeunwind"
	"github.com/Periecle/spprof/internal/plog"
	"github.com/Periecle/spprof/internal/resolver"
	"github.com/Periecle/spprof/internal/ring"
	"github.com/Periecle/spprof/internal/rt"
	"github.com/Periecle/spprof/internal/sampler"
	"golang.org/x/sync/errgroup"
)

// Stats is the façade's public statistics snapshot, combining the
// sampler engine's counters with the code registry's invalidation
// count (spec.md §3.1).
type Stats struct {
	sampler.Snapshot
	CodeRegistryInvalidations uint64
	ThreadsRegistered         int
}

// Profiler is one profiling session: a sampler engine, a code
// registry, a ring buffer, and a resolver, wired together per Config.
// The zero value is not usable; construct with New.
type Profiler struct {
	mu       sync.Mutex
	cfg      Config
	engine   *sampler.Engine
	registry *coderegistry.Registry
	resolver *resolver.Resolver
	buf      *ring.Buffer[rt.RawSample]

	safeMode atomic.Bool
	group    *errgroup.Group
	cancel   context.CancelFunc
}

// New constructs a Profiler from Config without starting it.
// Validation errors surface on the first Start call.
func New(cfg Config) *Profiler {
	return &Profiler{cfg: cfg}
}

// Start arms the sampler engine. Returns ErrAlreadyRunning if already
// active, or ErrInvalidArgument if Config fails validation.
func (p *Profiler) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.engine != nil && p.engine.IsActive() {
		return ErrAlreadyRunning
	}
	if err := p.cfg.validate(); err != nil {
		return err
	}

	p.registry = coderegistry.New()
	p.registry.SetSafeMode(p.cfg.SafeMode)
	p.safeMode.Store(p.cfg.SafeMode)

	elemSize := int(unsafe.Sizeof(rt.RawSample{}))
	capacity := ring.CapacityForMemoryLimit(p.cfg.memoryLimitMB(), elemSize)
	p.buf = ring.New[rt.RawSample](capacity)

	typeOf := p.cfg.TypeOf
	if typeOf == nil {
		codeTypeAddr := p.cfg.CodeTypeAddr
		typeOf = func(uintptr) uintptr { return codeTypeAddr }
	}
	walker := frame.NewSpeculative(p.cfg.RuntimeABI, p.cfg.ExecutableToCode, p.cfg.CodeTypeAddr, typeOf)

	unwinder := nativeunwind.New(p.cfg.unwindBackend(), p.cfg.stripFunc())

	engineCfg := sampler.Config{
		Interval:        p.cfg.interval(),
		NativeUnwinding: p.cfg.NativeUnwinding,
		SafeMode:        p.cfg.SafeMode,
	}
	if p.cfg.RuntimeLock.enabled() {
		engineCfg.Suspend = func(uint64) error { p.cfg.RuntimeLock.Acquire(); return nil }
		engineCfg.Resume = func(uint64) error { p.cfg.RuntimeLock.Release(); return nil }
	}

	p.engine = sampler.New(engineCfg, walker, unwinder, p.buf)

	gcEpoch := p.cfg.GCEpoch
	if gcEpoch == nil {
		gcEpoch = func() uint64 { return 0 }
	}
	var registryTypeCheck coderegistry.TypeCheck
	if p.cfg.TypeOf != nil {
		codeTypeAddr := p.cfg.CodeTypeAddr
		registryTypeCheck = func(addr uintptr) bool { return p.cfg.TypeOf(addr) == codeTypeAddr }
	}
	p.resolver = resolver.New(resolver.Options{
		In:             p.buf,
		Registry:       p.registry,
		Code:           p.cfg.CodeReader,
		Lines:          p.cfg.LineResolver,
		Native:         p.cfg.NativeSymbolizer,
		RuntimeLibrary: p.cfg.RuntimeLibrary,
		LineAsSmallInt: p.cfg.LineAsSmallInt,
		GCEpoch:        gcEpoch,
		TypeCheck:      registryTypeCheck,
		MinValidAddr:   p.cfg.MinValidAddr,
		Alignment:      p.cfg.Alignment,
	})

	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	group, gctx := errgroup.WithContext(ctx)
	p.group = group

	if !p.engine.Start() {
		cancel()
		return ErrUnsupported
	}

	// Supervises the engine's own lifetime under the façade's errgroup
	// so Stop's group.Wait observes a clean shutdown rather than
	// returning immediately with nothing to synchronize against.
	group.Go(func() error {
		<-gctx.Done()
		if !p.engine.IsActive() {
			return nil
		}
		p.engine.Stop()
		return nil
	})

	plog.Category(plog.CategoryFacade).Info().
		Dur("interval", p.cfg.interval()).
		Int("ring_capacity", capacity).
		Bool("native_unwinding", p.cfg.NativeUnwinding).
		Msg("sampler started")
	return nil
}

// Stop disarms the sampler engine and waits for any in-flight sampling
// pass to finish. It does not drain remaining samples; they stay in the
// ring buffer, and Drain or Finalize can still collect them afterwards.
func (p *Profiler) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.engine == nil || !p.engine.IsActive() {
		return ErrNotRunning
	}
	p.engine.Stop()
	if p.cancel != nil {
		p.cancel()
	}
	if p.group != nil {
		_ = p.group.Wait()
	}
	plog.Category(plog.CategoryFacade).Info().Msg("sampler stopped")
	return nil
}

// IsActive reports whether the sampler engine is currently armed.
func (p *Profiler) IsActive() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.engine != nil && p.engine.IsActive()
}

// RegisterThread adds a thread to the sampling set. It returns
// ErrNotRunning until Start has created an engine; after that it works
// whether or not the engine is currently active.
func (p *Profiler) RegisterThread(t sampler.Thread) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.engine == nil {
		return ErrNotRunning
	}
	p.engine.Registry.Register(t)
	p.engine.Counters.ThreadsRegistered.Add(1)
	return nil
}

// UnregisterThread removes a thread from the sampling set.
func (p *Profiler) UnregisterThread(threadID uint64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.engine == nil {
		return ErrNotRunning
	}
	p.engine.Registry.Unregister(threadID)
	p.engine.Counters.ThreadsRegistered.Add(-1)
	return nil
}

// SetNativeUnwinding is a reserved hook for toggling native unwinding
// after Start; the current engine only reads NativeUnwinding at arm
// time, so this reports ErrUnsupported until a future revision adds
// hot-reconfiguration.
func (p *Profiler) SetNativeUnwinding(bool) error {
	return ErrUnsupported
}

// NativeUnwindingAvailable reports whether this build has a usable
// native-unwinding backend (cgo/libunwind, or the portable
// frame-pointer fallback).
func NativeUnwindingAvailable() bool {
	return true // the frame-pointer backend has no platform prerequisites
}

// SetSafeMode toggles the code registry's strict stale-epoch
// rejection at runtime.
func (p *Profiler) SetSafeMode(on bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.registry == nil {
		return ErrNotRunning
	}
	p.registry.SetSafeMode(on)
	p.safeMode.Store(on)
	return nil
}

// IsSafeMode reports the code registry's current safe-mode setting.
func (p *Profiler) IsSafeMode() bool { return p.safeMode.Load() }

// Stats aggregates the engine's atomic counters with the code
// registry's invalidation count.
func (p *Profiler) Stats() (Stats, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.engine == nil {
		return Stats{}, ErrNotRunning
	}
	return Stats{
		Snapshot:                  p.engine.Counters.Snapshot(),
		CodeRegistryInvalidations: p.registry.Invalidations(),
		ThreadsRegistered:         p.engine.Registry.Len(),
	}, nil
}

// Drain consumes up to maxCount resolved samples, returning whether
// more were available beyond that limit.
func (p *Profiler) Drain(maxCount int) ([]rt.ResolvedSample, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.resolver == nil {
		return nil, false, ErrNotRunning
	}
	samples, more := p.resolver.Drain(maxCount)
	return samples, more, nil
}

// Finalize stops the engine (if still active) and drains every
// remaining sample, returning them all in one batch.
func (p *Profiler) Finalize() ([]rt.ResolvedSample, error) {
	if p.IsActive() {
		if err := p.Stop(); err != nil {
			return nil, err
		}
	}

	var all []rt.ResolvedSample
	for {
		batch, more, err := p.Drain(4096)
		if err != nil {
			return nil, err
		}
		all = append(all, batch...)
		if !more {
			break
		}
	}
	return all, nil
}
