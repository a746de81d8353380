package frame

// TypeDescriptorOf reads the type-descriptor pointer embedded in the
// object at addr (e.g. CPython's ob_type), supplied by the host. It
// must itself be a pure pointer-arithmetic read with no call into the
// target runtime, so that it remains safe to use from signal context.
type TypeDescriptorOf func(addr uintptr) uintptr

// SpeculativeWalker re-walks a frame chain on lock-disabled ("free
// threading") target-runtime builds, where nothing prevents another
// thread from mutating the very frames being read. Per spec.md §4.2,
// it checks every frame pointer with the cheap address check, and every
// code-object pointer with both that check and a cached type-descriptor
// comparison before reading through it, and — unlike
// Walker.Walk — treats ANY validation failure as reason to discard the
// whole sample, not just to stop early: a partially-walked stack under
// concurrent mutation cannot be trusted to be a real call chain.
type SpeculativeWalker struct {
	inner        *Walker
	codeTypeAddr uintptr
	typeOf       TypeDescriptorOf
}

// NewSpeculative builds a SpeculativeWalker. codeTypeAddr is the
// address of the target runtime's code-object type descriptor,
// cached once during module initialization while the runtime lock is
// still held (spec.md §4.2); typeOf reads an object's own descriptor.
func NewSpeculative(abi ABI, toCode ExecutableToCode, codeTypeAddr uintptr, typeOf TypeDescriptorOf) *SpeculativeWalker {
	return &SpeculativeWalker{
		inner:        New(abi, toCode),
		codeTypeAddr: codeTypeAddr,
		typeOf:       typeOf,
	}
}

// Walk attempts a speculative capture. ok is false if any frame, or
// any code-object pointer, failed validation — callers must then
// increment the validation-drop counter and emit zero frames for the
// whole sample (spec.md §4.2), never a partial stack.
func (w *SpeculativeWalker) Walk(tstate uintptr, codes, instrs []uintptr) (n int, ok bool) {
	if tstate == 0 {
		return 0, true
	}
	if !w.inner.valid(tstate) {
		return 0, false
	}

	current := w.inner.currentFrame(tstate)
	cap := len(codes)
	if len(instrs) < cap {
		cap = len(instrs)
	}

	for current != 0 && n < cap {
		if !w.inner.valid(current) {
			return 0, false
		}
		if w.inner.abi.Kind != KindTagged {
			// decodeFrame reads through the code object (KindLegacy's
			// bytecode base), so type-check it first.
			c := readPtr(current, w.inner.abi.FrameCodeOffset)
			if !w.inner.valid(c) || w.typeOf(c) != w.codeTypeAddr {
				return 0, false
			}
		}

		code, instr, kind := w.inner.decodeFrame(current)
		switch kind {
		case frameInvalid:
			return 0, false
		case frameCode:
			if !w.inner.valid(code) || w.typeOf(code) != w.codeTypeAddr {
				return 0, false
			}
			codes[n] = code
			instrs[n] = instr
			n++
		case frameShim:
			// filtered, keep walking — shim frames carry no code
			// object to type-check.
		}

		prev := readPtr(current, w.inner.abi.FramePreviousOffset)
		if prev == current {
			return n, true // cycle guard: stop, but what we have is trustworthy
		}
		current = prev
	}
	return n, true
}
