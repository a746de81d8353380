package spprof

import (
	"time"

	"github.com/Periecle/spprof/internal/coderegistry"
	"github.com/Periecle/spprof/internal/frame"
	"github.com/Periecle/spprof/internal/nativeunwind"
	"github.com/Periecle/spprof/internal/resolver"
)

// RuntimeLock is the host's bridge into the target runtime's global
// interpreter lock, if one exists on this build. Acquire/Release must
// both be non-nil, or both nil to mean "lock-disabled build" — in
// which case the frame walker runs in its speculative-capture mode
// (spec.md §1's "speculative-capture path for lock-disabled builds").
type RuntimeLock struct {
	Acquire func()
	Release func()
}

func (l RuntimeLock) enabled() bool { return l.Acquire != nil && l.Release != nil }

// Config configures one profiling session. The host embedding the
// profiler fills this in once at Start time; everything here is a
// plain value or a narrow function pointer, never a live runtime
// object, so Config itself carries none of the async-signal-safety
// constraints that apply once sampling is armed.
type Config struct {
	// Interval is the target time between samples for one thread.
	// Defaults to 10ms if zero.
	Interval time.Duration

	// MemoryLimitMB bounds the ring buffer's backing allocation
	// (internal/ring.CapacityForMemoryLimit). Defaults to 8MB if zero.
	MemoryLimitMB int

	// NativeUnwinding enables native C-stack capture in addition to
	// interpreter frames.
	NativeUnwinding bool

	// SafeMode enables the code registry's stricter rejection
	// (spec.md §4.4): addresses that are not pinned and were either
	// never registered or captured before the current GC epoch are
	// rejected instead of type-checked, trading some resolved frames
	// for a stronger use-after-free guarantee.
	SafeMode bool

	// RuntimeABI describes the target runtime's internal frame-chain
	// layout, supplied by the host after it has identified which of
	// the three historical generations (legacy/middle/tagged) it is
	// embedded in.
	RuntimeABI frame.ABI

	// RuntimeLock is the host's GIL bridge, or the zero value on
	// lock-disabled builds.
	RuntimeLock RuntimeLock

	// ExecutableToCode resolves a tagged "executable" pointer to the
	// underlying code object for KindTagged ABIs; required when
	// RuntimeABI.Kind is frame.KindTagged.
	ExecutableToCode frame.ExecutableToCode

	// CodeTypeAddr and TypeOf enable the frame walker's speculative
	// type-descriptor check (spec.md §1 P5); both are required when
	// RuntimeLock is the zero value.
	CodeTypeAddr uintptr
	TypeOf       frame.TypeDescriptorOf

	// CodePin is a strong-pin hook of the kind coderegistry's AddRef
	// accepts. The façade never calls AddRef, so this field is not
	// read: every captured address is validated the best-effort way
	// (type check, or rejection in safe mode) at resolve time.
	CodePin coderegistry.PinFunc

	// GCEpoch returns the host runtime's current GC epoch/generation
	// counter, used by the code registry to detect addresses captured
	// before the last collection.
	GCEpoch func() uint64

	// MinValidAddr and Alignment are cheap pointer-sanity bounds the
	// code registry applies at resolve time to every captured
	// code-object address. The frame walker uses RuntimeABI's own
	// MinValidAddr and Alignment instead.
	MinValidAddr uintptr
	Alignment    uintptr

	// CodeReader and LineResolver supply the resolver's interpreter
	// symbolization. CodeReader is required for interpreter-frame
	// resolution (native-only configurations may omit it); without a
	// LineResolver each frame reports its code object's first line.
	CodeReader resolver.CodeReader
	LineResolver resolver.LineResolver

	// LineAsSmallInt is the Windows fast-path threshold described in
	// spec.md §4.7: instruction-pointer slots below this value are
	// already-resolved line numbers, not bytecode addresses.
	LineAsSmallInt uintptr

	// NativeSymbolizer resolves native return addresses to
	// library/symbol pairs (dladdr/DbgHelp). Nil disables native
	// symbolization even if NativeUnwinding captured raw addresses.
	NativeSymbolizer resolver.NativeSymbolizer

	// RuntimeLibrary identifies the host runtime's own shared library
	// for the trim-and-sandwich merge's "inside the runtime" test.
	RuntimeLibrary resolver.RuntimeLibrary

	// UnwindBackend selects the native unwinder. When NativeUnwinding
	// is set and this is nativeunwind.BackendNone,
	// nativeunwind.BackendFramePointer is used instead. The zero value
	// is nativeunwind.BackendLibunwind, so leaving this unset selects
	// libunwind.
	UnwindBackend nativeunwind.Backend

	// StripPointerAuth strips architecture-specific signature bits
	// from a captured return address before it is stored or resolved.
	// Defaults to nativeunwind.StripPointerAuth.
	StripPointerAuth func(uintptr) uintptr
}

func (c Config) validate() error {
	if c.Interval < 0 {
		return ErrInvalidArgument
	}
	if c.MemoryLimitMB < 0 {
		return ErrInvalidArgument
	}
	if c.RuntimeABI.Kind == frame.KindTagged && c.ExecutableToCode == nil {
		return ErrInvalidArgument
	}
	if !c.RuntimeLock.enabled() && c.TypeOf == nil {
		return ErrInvalidArgument
	}
	return nil
}

func (c Config) interval() time.Duration {
	if c.Interval <= 0 {
		return 10 * time.Millisecond
	}
	return c.Interval
}

func (c Config) memoryLimitMB() int {
	if c.MemoryLimitMB <= 0 {
		return 8
	}
	return c.MemoryLimitMB
}

func (c Config) unwindBackend() nativeunwind.Backend {
	if !c.NativeUnwinding {
		return nativeunwind.BackendNone
	}
	if c.UnwindBackend == nativeunwind.BackendNone {
		return nativeunwind.BackendFramePointer
	}
	return c.UnwindBackend
}

func (c Config) stripFunc() func(uintptr) uintptr {
	if c.StripPointerAuth != nil {
		return c.StripPointerAuth
	}
	return nativeunwind.StripPointerAuth
}
