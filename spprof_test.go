package spprof

import (
	"testing"
	"time"
	"unsafe"

	"github.com/Periecle/spprof/internal/frame"
	"github.com/Periecle/spprof/internal/sampler"
	"github.com/stretchr/testify/require"
)

type legacyCode struct{ bytecodeBase uintptr }
type legacyFrame struct {
	back     uintptr
	code     uintptr
	bcOffset uintptr
}
type legacyTState struct{ frame uintptr }

func legacyABI() frame.ABI {
	var f legacyFrame
	var ts legacyTState
	return frame.ABI{
		Kind:                   frame.KindLegacy,
		TStateCurrentOffset:    unsafe.Offsetof(ts.frame),
		FramePreviousOffset:    unsafe.Offsetof(f.back),
		FrameCodeOffset:        unsafe.Offsetof(f.code),
		FrameInstrOffset:       unsafe.Offsetof(f.bcOffset),
		CodeBytecodeBaseOffset: unsafe.Offsetof(legacyCode{}.bytecodeBase),
		MinValidAddr:           0x1000,
		Alignment:              1,
	}
}

func baseConfig() Config {
	return Config{
		Interval:      time.Millisecond,
		MemoryLimitMB: 1,
		RuntimeABI:    legacyABI(),
		TypeOf:        func(uintptr) uintptr { return 0xCAFE },
		CodeTypeAddr:  0xCAFE,
		MinValidAddr:  0x1000,
	}
}

func TestStartStopLifecycleErrors(t *testing.T) {
	p := New(baseConfig())

	_, err := p.Stats()
	require.ErrorIs(t, err, ErrNotRunning)

	require.NoError(t, p.Start())
	require.ErrorIs(t, p.Start(), ErrAlreadyRunning)
	require.True(t, p.IsActive())

	require.NoError(t, p.Stop())
	require.ErrorIs(t, p.Stop(), ErrNotRunning)
}

func TestStartRejectsInvalidConfig(t *testing.T) {
	cfg := baseConfig()
	cfg.Interval = -1
	p := New(cfg)
	require.ErrorIs(t, p.Start(), ErrInvalidArgument)
}

func TestStartRequiresTypeOfWhenLockDisabled(t *testing.T) {
	cfg := baseConfig()
	cfg.TypeOf = nil
	p := New(cfg)
	require.ErrorIs(t, p.Start(), ErrInvalidArgument)
}

func TestRegisterUnregisterThreadTracksCounters(t *testing.T) {
	p := New(baseConfig())
	require.NoError(t, p.Start())
	defer p.Stop()

	require.NoError(t, p.RegisterThread(sampler.Thread{ThreadID: 1}))
	stats, err := p.Stats()
	require.NoError(t, err)
	require.Equal(t, 1, stats.ThreadsRegistered)

	require.NoError(t, p.UnregisterThread(1))
	stats, err = p.Stats()
	require.NoError(t, err)
	require.Equal(t, 0, stats.ThreadsRegistered)
}

func TestSafeModeToggle(t *testing.T) {
	p := New(baseConfig())
	require.NoError(t, p.Start())
	defer p.Stop()

	require.False(t, p.IsSafeMode())
	require.NoError(t, p.SetSafeMode(true))
	require.True(t, p.IsSafeMode())
}

func TestFinalizeDrainsAndStops(t *testing.T) {
	p := New(baseConfig())
	require.NoError(t, p.Start())

	samples, err := p.Finalize()
	require.NoError(t, err)
	require.Empty(t, samples)
	require.False(t, p.IsActive())
}

func TestNativeUnwindingAvailableIsTrue(t *testing.T) {
	require.True(t, NativeUnwindingAvailable())
}
