//go:build linux

package sampler

import (
	"testing"

	"github.com/Periecle/spprof/internal/nativeunwind"
	"github.com/Periecle/spprof/internal/ring"
	"github.com/Periecle/spprof/internal/rt"
	"github.com/stretchr/testify/require"
)

// TestEngineTickSkipsOwnThread exercises I4: a thread registered under
// the calling goroutine's own gettid() must never be captured, even
// though it passes every other registry check.
func TestEngineTickSkipsOwnThread(t *testing.T) {
	self, ok := selfThreadID()
	require.True(t, ok)

	out := ring.New[rt.RawSample](16)
	e := New(Config{}, nil, nativeunwind.New(nativeunwind.BackendNone, nil), out)
	e.Registry.Register(Thread{ThreadID: self})

	e.tick(1)

	require.EqualValues(t, 0, e.Counters.SamplesCaptured.Load())
	require.EqualValues(t, 1, e.Counters.ThreadsSkipped.Load())
	require.False(t, out.HasData())
}
