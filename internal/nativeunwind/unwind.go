// Package nativeunwind captures native return addresses for the
// native portion of a RawSample (spec.md §4.3). It never symbolizes —
// that is the resolver's job — and it never calls the target
// runtime's own API.
package nativeunwind

import "unsafe"

// Backend selects which unwinding strategy is active. It is chosen
// once at Start time from the façade's Config; nothing probes what the
// platform/build offers, and a chosen backend that is unavailable
// yields zero frames rather than falling back to the next one.
type Backend int

const (
	// BackendLibunwind uses a cgo binding to libunwind's
	// unw_backtrace; see unwind_libunwind.go (built only with the cgo
	// build tag; without cgo this backend captures nothing).
	BackendLibunwind Backend = iota
	// BackendFramePointer walks [prev_fp, return_addr] pairs validated
	// against the thread's own stack bounds.
	BackendFramePointer
	// BackendNone performs no native unwinding: Capture always returns
	// zero frames. The façade selects it when native unwinding is off.
	BackendNone
)

// StackBounds is the live thread's stack address range, [Low, High),
// used to validate each frame-pointer hop.
type StackBounds struct {
	Low, High uintptr
}

// Unwinder captures native frames for one Backend.
type Unwinder struct {
	backend Backend
	strip   func(uintptr) uintptr
}

// New constructs an Unwinder. strip is applied to every captured
// address before it is returned — on pointer-authentication
// architectures (arm64 Darwin) this masks the authentication bits out
// of the raw return address, per spec.md §4.3; pass nil for an
// identity strip.
func New(backend Backend, strip func(uintptr) uintptr) *Unwinder {
	if strip == nil {
		strip = func(p uintptr) uintptr { return p }
	}
	return &Unwinder{backend: backend, strip: strip}
}

func (u *Unwinder) Backend() Backend { return u.backend }

// Capture fills pcs (leaf-first) with up to len(pcs) native return
// addresses starting skipFrames frames up from the caller, so the
// unwinder's own frames never appear in the result.
func (u *Unwinder) Capture(fp uintptr, bounds StackBounds, skipFrames int, pcs []uintptr) int {
	switch u.backend {
	case BackendFramePointer:
		return u.captureFramePointer(fp, bounds, skipFrames, pcs)
	case BackendLibunwind:
		return u.captureLibunwind(skipFrames, pcs)
	default:
		return 0
	}
}

// captureFramePointer walks the classic [prev_fp, return_addr] chain.
// Each hop is validated against bounds before being dereferenced, so a
// corrupted or omitted frame pointer stops the walk rather than
// following garbage off the end of the stack.
func (u *Unwinder) captureFramePointer(fp uintptr, bounds StackBounds, skipFrames int, pcs []uintptr) int {
	n := 0
	skipped := 0
	for fp != 0 && n < len(pcs) {
		if fp < bounds.Low || fp+16 > bounds.High || fp%8 != 0 {
			break
		}
		prevFP := *(*uintptr)(unsafe.Pointer(fp))
		retAddr := *(*uintptr)(unsafe.Pointer(fp + 8))

		if skipped < skipFrames {
			skipped++
		} else {
			pcs[n] = u.strip(retAddr)
			n++
		}

		if prevFP <= fp { // stacks grow down: a non-increasing chain can't be real
			break
		}
		fp = prevFP
	}
	return n
}
