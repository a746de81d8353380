package nativeunwind

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

// frameNode mimics the classic [prev_fp, return_addr] pair the
// frame-pointer backend expects to find at the top of each call
// frame.
type frameNode struct {
	prevFP  uintptr
	retAddr uintptr
}

func TestCaptureFramePointerWalksChainLeafFirst(t *testing.T) {
	root := &frameNode{prevFP: 0, retAddr: 0xAAA1}
	mid := &frameNode{prevFP: uintptr(unsafe.Pointer(root)), retAddr: 0xAAA2}
	leaf := &frameNode{prevFP: uintptr(unsafe.Pointer(mid)), retAddr: 0xAAA3}

	bounds := StackBounds{Low: 0, High: ^uintptr(0)}
	u := New(BackendFramePointer, nil)

	pcs := make([]uintptr, 8)
	n := u.Capture(uintptr(unsafe.Pointer(leaf)), bounds, 0, pcs)

	require.Equal(t, 3, n)
	require.EqualValues(t, 0xAAA3, pcs[0])
	require.EqualValues(t, 0xAAA2, pcs[1])
	require.EqualValues(t, 0xAAA1, pcs[2])
}

func TestCaptureFramePointerHonorsSkipFrames(t *testing.T) {
	root := &frameNode{prevFP: 0, retAddr: 0xBBB1}
	leaf := &frameNode{prevFP: uintptr(unsafe.Pointer(root)), retAddr: 0xBBB2}

	bounds := StackBounds{Low: 0, High: ^uintptr(0)}
	u := New(BackendFramePointer, nil)

	pcs := make([]uintptr, 8)
	n := u.Capture(uintptr(unsafe.Pointer(leaf)), bounds, 1, pcs)

	require.Equal(t, 1, n)
	require.EqualValues(t, 0xBBB1, pcs[0])
}

func TestCaptureFramePointerStopsAtOutOfBounds(t *testing.T) {
	bounds := StackBounds{Low: 0x2000, High: 0x3000}
	u := New(BackendFramePointer, nil)

	pcs := make([]uintptr, 8)
	n := u.Capture(0x1000 /* below Low */, bounds, 0, pcs)
	require.Zero(t, n)
}

func TestCaptureNoneBackendReturnsZero(t *testing.T) {
	u := New(BackendNone, nil)
	pcs := make([]uintptr, 8)
	require.Zero(t, u.Capture(0x1234, StackBounds{}, 0, pcs))
}

func TestCaptureAppliesStripFunction(t *testing.T) {
	root := &frameNode{prevFP: 0, retAddr: 0xFFFF_0000_0000_1234}
	bounds := StackBounds{Low: 0, High: ^uintptr(0)}
	mask := func(p uintptr) uintptr { return p & 0x0000_FFFF_FFFF_FFFF }
	u := New(BackendFramePointer, mask)

	pcs := make([]uintptr, 8)
	n := u.Capture(uintptr(unsafe.Pointer(root)), bounds, 0, pcs)
	require.Equal(t, 1, n)
	require.EqualValues(t, 0x0000_0000_0000_1234, pcs[0])
}
