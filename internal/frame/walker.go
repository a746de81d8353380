// Package frame implements the async-signal-safe walk over the target
// runtime's internal frame chain, producing leaf-first code-object and
// instruction-pointer addresses without ever calling into the target
// runtime's own API (spec.md §4.2).
//
// Because this module is embedded in the same address space as the
// target runtime, "walking the frame chain" is ordinary unsafe.Pointer
// arithmetic over a struct layout the host describes at Start time
// (see ABI below) — there is no IPC and no cgo in this package. The
// three historical CPython frame layouts are modeled as one tagged
// union selected at runtime, per the Design Notes in spec.md §9: a
// uniform read-only {current, previous, code, instr} view, never
// behind a dynamically-dispatched function pointer the handler would
// have to trust.
package frame

import "unsafe"

// Kind selects which of the target runtime's historical frame layouts
// ABI describes.
type Kind int

const (
	// KindLegacy: tstate->frame / frame->f_back / frame->f_code,
	// instruction pointer computed from a bytecode offset field
	// (older interpreter versions).
	KindLegacy Kind = iota
	// KindMiddle: tstate->cframe->current_frame / frame->previous /
	// frame->prev_instr (an interpreter generation with an added
	// indirection and a frame-resident instruction pointer).
	KindMiddle
	// KindTagged: tstate->current_frame / frame->executable (a
	// discriminated, possibly tagged pointer which must be
	// type-checked before being treated as a code object) /
	// frame->instr_ptr. Frames may additionally be C-stack shims that
	// must be filtered out of the interpreter-only walk.
	KindTagged
)

// ABI describes the byte offsets of the fields a Walker needs, for
// exactly one Kind. The host computes these once, from the target
// runtime's own version, and passes the result to Start; nothing in
// this package hard-codes a particular interpreter version.
type ABI struct {
	Kind Kind

	// Offset, within the thread-state struct, of the current-frame
	// pointer (KindLegacy, KindTagged) or of the cframe pointer
	// (KindMiddle, in which case CFrameCurrentOffset is applied next).
	TStateCurrentOffset uintptr
	// KindMiddle only: offset, within *cframe, of current_frame.
	CFrameCurrentOffset uintptr

	FramePreviousOffset uintptr
	// KindLegacy/KindMiddle: offset of the code-object pointer.
	// KindTagged: offset of the "executable" field, which must be
	// passed through ExecutableToCode before use.
	FrameCodeOffset uintptr
	FrameInstrOffset uintptr

	// KindLegacy only: frame's bytecode-offset field is combined with
	// the code object's bytecode base to produce an instruction
	// pointer; FrameInstrOffset in that case names the bytecode-offset
	// field instead of a direct pointer, and CodeBytecodeBaseOffset
	// names the offset, within the code object, of its bytecode base
	// pointer.
	CodeBytecodeBaseOffset uintptr

	// MinValidAddr and Alignment gate every pointer this walker
	// dereferences, exactly like the registry's own cheap sanity
	// check: below MinValidAddr, or misaligned, means "stop, don't
	// crash" rather than "error".
	MinValidAddr uintptr
	Alignment    uintptr
}

// ExecutableToCode resolves a KindTagged frame's "executable" field to
// a code-object address, or returns ok=false if the field is a
// non-code "shim" entry (e.g. marks a native C-stack transition) that
// must be filtered out of the walk. Supplied by the host, since the
// tagging scheme is a target-runtime-version detail this package has
// no business hard-coding.
type ExecutableToCode func(executable uintptr) (code uintptr, ok bool)

// Walker traverses one thread's frame chain.
type Walker struct {
	abi    ABI
	toCode ExecutableToCode
}

// New constructs a Walker for the given ABI. toCode is required for
// KindTagged and ignored for the other kinds.
func New(abi ABI, toCode ExecutableToCode) *Walker {
	return &Walker{abi: abi, toCode: toCode}
}

func (w *Walker) valid(p uintptr) bool {
	if p == 0 || p < w.abi.MinValidAddr {
		return false
	}
	if w.abi.Alignment > 1 && p%w.abi.Alignment != 0 {
		return false
	}
	return true
}

func readPtr(base uintptr, offset uintptr) uintptr {
	return *(*uintptr)(unsafe.Pointer(base + offset))
}

// Walk fills codes and instrs (each len(codes)==len(instrs)==cap,
// typically rt.MaxDepth) leaf-first from tstate, returning the number
// of frames captured. A nil tstate yields zero frames. The walk stops
// silently — never returning an error — the first time it meets a
// pointer that fails the cheap validity check, or detects a frame that
// links to itself (frame->previous == frame), per spec.md §4.2.
func (w *Walker) Walk(tstate uintptr, codes, instrs []uintptr) int {
	if tstate == 0 || !w.valid(tstate) {
		return 0
	}

	current := w.currentFrame(tstate)
	n := 0
	cap := len(codes)
	if len(instrs) < cap {
		cap = len(instrs)
	}

	for current != 0 && n < cap {
		if !w.valid(current) {
			break
		}

		code, instr, kind := w.decodeFrame(current)
		if kind == frameInvalid {
			break
		}
		if kind == frameCode {
			codes[n] = code
			instrs[n] = instr
			n++
		}
		// frameShim: filtered out, but the walk continues to the
		// previous frame (spec.md §4.2 "some frames are marked as
		// C-stack shims and must be filtered").

		prev := readPtr(current, w.abi.FramePreviousOffset)
		if prev == current {
			break // cycle guard
		}
		current = prev
	}
	return n
}

func (w *Walker) currentFrame(tstate uintptr) uintptr {
	switch w.abi.Kind {
	case KindMiddle:
		cframe := readPtr(tstate, w.abi.TStateCurrentOffset)
		if cframe == 0 || !w.valid(cframe) {
			return 0
		}
		return readPtr(cframe, w.abi.CFrameCurrentOffset)
	default:
		return readPtr(tstate, w.abi.TStateCurrentOffset)
	}
}

// frameDecodeKind classifies the outcome of decoding one frame node.
type frameDecodeKind int

const (
	frameCode    frameDecodeKind = iota // a usable (code, instr) pair
	frameShim                           // KindTagged only: filtered, keep walking
	frameInvalid                        // pointer failed validation: abort the walk
)

// decodeFrame extracts (code, instruction-pointer) from one frame node
// according to the ABI kind.
func (w *Walker) decodeFrame(frameAddr uintptr) (code, instr uintptr, kind frameDecodeKind) {
	switch w.abi.Kind {
	case KindLegacy:
		code = readPtr(frameAddr, w.abi.FrameCodeOffset)
		if !w.valid(code) {
			return 0, 0, frameInvalid
		}
		bytecodeBase := readPtr(code, w.abi.CodeBytecodeBaseOffset)
		bytecodeOffset := readPtr(frameAddr, w.abi.FrameInstrOffset)
		return code, bytecodeBase + bytecodeOffset, frameCode

	case KindMiddle:
		code = readPtr(frameAddr, w.abi.FrameCodeOffset)
		if !w.valid(code) {
			return 0, 0, frameInvalid
		}
		instr = readPtr(frameAddr, w.abi.FrameInstrOffset)
		return code, instr, frameCode

	case KindTagged:
		executable := readPtr(frameAddr, w.abi.FrameCodeOffset)
		c, isCode := w.toCode(executable)
		if !isCode {
			return 0, 0, frameShim
		}
		instr = readPtr(frameAddr, w.abi.FrameInstrOffset)
		return c, instr, frameCode

	default:
		return 0, 0, frameInvalid
	}
}
