// Package rt holds the value types shared by every component of the
// sampler pipeline: raw samples produced by a platform sampler engine,
// and resolved samples consumed by external writers.
//
// Nothing in this package allocates on behalf of a caller and nothing
// here is safe-guarded against concurrent mutation — callers own
// synchronization, same as the teacher's own POD record types.
package rt

// MaxDepth bounds every stack captured by this module, interpreter or
// native. It is a compile-time constant (not configurable) because the
// POSIX sampler must stack-allocate a RawSample inside a signal
// handler, where a runtime-sized allocation is not async-signal-safe.
const MaxDepth = 128

// RawSample is the fixed-size record written by a sampler engine and
// carried, by value, through the ring buffer to the resolver.
//
// It is POD: every field is a scalar or a fixed-size array of
// scalars, so a signal handler (or an equivalent cgo trampoline) can
// populate one on the stack and copy it into a ring buffer slot with
// nothing more than field assignment — no heap allocation, no locking,
// no write barriers.
type RawSample struct {
	TimestampNS int64
	ThreadID    uint64

	InterpDepth int32
	// InterpCode holds the captured code-object addresses, leaf-first.
	InterpCode [MaxDepth]uintptr
	// InterpInstr holds, leaf-first, either the instruction-pointer
	// address for the corresponding InterpCode entry, or — on the
	// Windows sampler, which resolves line numbers during capture
	// rather than afterward — a small integer line number. The
	// resolver tells the two apart by range (see resolver.Options'
	// LineAsSmallInt threshold).
	InterpInstr [MaxDepth]uintptr

	NativeDepth int32
	// NativePC holds native return addresses, leaf-first.
	NativePC [MaxDepth]uintptr
}

// Reset clears a RawSample's timestamp, thread id and both depths in
// place for reuse, avoiding the wholesale zero-value copy a fresh
// composite literal would otherwise need on a hot path where the caller
// already owns the backing memory. The address arrays are left as they
// are; with both depths at zero none of their entries is in use.
func (s *RawSample) Reset() {
	s.TimestampNS = 0
	s.ThreadID = 0
	s.InterpDepth = 0
	s.NativeDepth = 0
}

// ResolvedFrame is one entry of a merged, human-readable stack.
type ResolvedFrame struct {
	FunctionName string
	FileName     string
	LineNumber   int32
	IsNative     bool
}

// ResolvedSample is a RawSample whose pointers have been resolved to
// {function, file, line} tuples, with native and interpreter frames
// merged by the trim-and-sandwich algorithm. Frames are ordered
// leaf-first.
type ResolvedSample struct {
	TimestampNS int64
	ThreadID    uint64
	Frames      []ResolvedFrame
}
