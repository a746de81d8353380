package coderegistry

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPinnedRoundTrip(t *testing.T) {
	r := New()
	unpinCalls := 0
	pin := func(addr uintptr) func() {
		return func() { unpinCalls++ }
	}

	r.AddRef(0x1000, 1, pin)
	r.AddRef(0x1000, 1, pin) // second ref, same address: no second pin call
	require.Equal(t, 1, r.Len())

	v := r.Validate(0x1000, 0x100, 8, 99, nil)
	require.Equal(t, ValidPinned, v)

	r.ReleaseRef(0x1000)
	require.Equal(t, 1, r.Len(), "still one live ref")
	r.ReleaseRef(0x1000)
	require.Equal(t, 0, r.Len())
	require.Equal(t, 1, unpinCalls)
}

func TestBestEffortStaleEpochSafeMode(t *testing.T) {
	r := New()
	r.SetSafeMode(true)
	r.AddRef(0x2000, 5, nil)

	require.Equal(t, InvalidStaleEpoch, r.Validate(0x2000, 0x100, 8, 6, nil))

	r.SetSafeMode(false)
	require.Equal(t, InvalidWrongType, r.Validate(0x2000, 0x100, 8, 6, func(uintptr) bool { return false }))
	require.Equal(t, ValidTypeChecked, r.Validate(0x2000, 0x100, 8, 6, func(uintptr) bool { return true }))
	require.Equal(t, ValidTypeChecked, r.Validate(0x2000, 0x100, 8, 5, nil), "same epoch needs no re-check")
}

func TestValidateRejectsBadPointers(t *testing.T) {
	r := New()
	require.Equal(t, InvalidNull, r.Validate(0, 0x100, 8, 1, nil))
	require.Equal(t, InvalidNull, r.Validate(0x10, 0x100, 8, 1, nil))
	require.Equal(t, InvalidNull, r.Validate(0x1001, 0x100, 8, 1, nil), "misaligned")
	require.Equal(t, InvalidNotHeld, r.Validate(0x2000, 0x100, 8, 1, nil))
}

func TestReleaseRefBatchBalances(t *testing.T) {
	r := New()
	r.AddRef(0x10, 1, nil)
	r.AddRef(0x20, 1, nil)
	r.ReleaseRefBatch([]uintptr{0x10, 0x20, 0}) // 0 is a no-op
	require.Equal(t, 0, r.Len())
}
