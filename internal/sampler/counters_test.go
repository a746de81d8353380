package sampler

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCountersRecordSuspendTracksMaxAndTotal(t *testing.T) {
	c := NewCounters()
	c.RecordSuspend(100)
	c.RecordSuspend(500)
	c.RecordSuspend(50)

	require.EqualValues(t, 650, c.SuspendTimeTotal.Load())
	require.EqualValues(t, 500, c.MaxSuspendNS())
}

func TestCountersSnapshotReflectsAtomicFields(t *testing.T) {
	c := NewCounters()
	c.SamplesCaptured.Add(10)
	c.SamplesDropped.Add(2)
	c.SamplesDiscarded.Add(1)
	c.ThreadsRegistered.Add(3)

	snap := c.Snapshot()
	require.EqualValues(t, 10, snap.SamplesCaptured)
	require.EqualValues(t, 2, snap.SamplesDropped)
	require.EqualValues(t, 1, snap.SamplesDiscarded)
	require.EqualValues(t, 3, snap.ThreadsRegistered)
}
