//go:build cgo

package nativeunwind

/*
#cgo pkg-config: libunwind
#include <libunwind.h>

// spprof_backtrace is a thin wrapper over unw_backtrace; the
// skip-frame count is applied on the Go side, in captureLibunwind.
static int spprof_backtrace(void **buf, int size) {
	return unw_backtrace(buf, size);
}
*/
import "C"
import "unsafe"

func (u *Unwinder) captureLibunwind(skipFrames int, pcs []uintptr) int {
	if len(pcs) == 0 {
		return 0
	}
	raw := make([]unsafe.Pointer, len(pcs)+skipFrames)
	n := int(C.spprof_backtrace((**C.void)(unsafe.Pointer(&raw[0])), C.int(len(raw))))
	if n <= skipFrames {
		return 0
	}
	out := n - skipFrames
	for i := 0; i < out; i++ {
		pcs[i] = u.strip(uintptr(raw[skipFrames+i]))
	}
	return out
}
