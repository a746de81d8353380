//go:build arm64

package nativeunwind

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStripPointerAuthMasksHighBits(t *testing.T) {
	require.EqualValues(t, 0x0000_7000_0000_1234, StripPointerAuth(0xFFFF_7000_0000_1234))
}
