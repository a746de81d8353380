package sampler

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFastStateStartsIdle(t *testing.T) {
	s := NewFastState()
	require.Equal(t, StateIdle, s.Load())
	require.False(t, s.IsActive())
}

func TestFastStateTryTransition(t *testing.T) {
	s := NewFastState()
	require.True(t, s.TryTransition(StateIdle, StateStarting))
	require.False(t, s.TryTransition(StateIdle, StateStarting))
	require.True(t, s.TryTransition(StateStarting, StateActive))
	require.True(t, s.IsActive())
}

func TestStateStringCoversAllValues(t *testing.T) {
	for _, st := range []State{StateIdle, StateStarting, StateActive, StateStopping, StateStopped} {
		require.NotEqual(t, "Unknown", st.String())
	}
	require.Equal(t, "Unknown", State(99).String())
}
