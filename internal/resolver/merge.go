package resolver

import "github.com/Periecle/spprof/internal/rt"

// Merge implements spec.md §4.8's "trim-and-sandwich" algorithm: it
// interleaves a leaf-first native stack and a leaf-first interpreter
// stack into one merged, leaf-first frame list.
//
//  1. Walk native frames leaf toward root.
//  2. Emit frames outside the runtime library as-is.
//  3. On the first native frame inside the runtime library, emit ALL
//     interpreter frames as one block, then skip this and every
//     further consecutive in-runtime native frame.
//  4. Continue emitting remaining non-runtime native frames.
//  5. If no in-runtime native frame ever appears, append the
//     interpreter frames at the end.
func Merge(native []rt.ResolvedFrame, nativeInRuntime []bool, interp []rt.ResolvedFrame) []rt.ResolvedFrame {
	merged := make([]rt.ResolvedFrame, 0, len(native)+len(interp))

	sandwiched := false
	for i, f := range native {
		inRuntime := i < len(nativeInRuntime) && nativeInRuntime[i]
		if inRuntime {
			if !sandwiched {
				merged = append(merged, interp...)
				sandwiched = true
			}
			continue
		}
		merged = append(merged, f)
	}

	if !sandwiched {
		merged = append(merged, interp...)
	}

	return merged
}
