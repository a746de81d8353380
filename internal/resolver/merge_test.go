package resolver

import (
	"testing"

	"github.com/Periecle/spprof/internal/rt"
	"github.com/stretchr/testify/require"
)

func frame(name string) rt.ResolvedFrame { return rt.ResolvedFrame{FunctionName: name} }

func TestMergeSandwichesInterpreterFramesAtFirstRuntimeFrame(t *testing.T) {
	native := []rt.ResolvedFrame{frame("leaf_native"), frame("pyeval_call"), frame("main")}
	inRuntime := []bool{false, true, false}
	interp := []rt.ResolvedFrame{frame("foo"), frame("bar")}

	got := Merge(native, inRuntime, interp)

	want := []string{"leaf_native", "foo", "bar", "main"}
	require.Len(t, got, len(want))
	for i, w := range want {
		require.Equal(t, w, got[i].FunctionName)
	}
}

func TestMergeSkipsConsecutiveRuntimeFrames(t *testing.T) {
	native := []rt.ResolvedFrame{frame("leaf_native"), frame("pyeval_1"), frame("pyeval_2"), frame("main")}
	inRuntime := []bool{false, true, true, false}
	interp := []rt.ResolvedFrame{frame("foo")}

	got := Merge(native, inRuntime, interp)
	want := []string{"leaf_native", "foo", "main"}
	require.Len(t, got, len(want))
	for i, w := range want {
		require.Equal(t, w, got[i].FunctionName)
	}
}

func TestMergeAppendsInterpreterFramesWhenNoRuntimeFrameFound(t *testing.T) {
	native := []rt.ResolvedFrame{frame("a"), frame("b")}
	inRuntime := []bool{false, false}
	interp := []rt.ResolvedFrame{frame("foo")}

	got := Merge(native, inRuntime, interp)
	want := []string{"a", "b", "foo"}
	require.Len(t, got, len(want))
	for i, w := range want {
		require.Equal(t, w, got[i].FunctionName)
	}
}

func TestMergeHandlesEmptyNativeStack(t *testing.T) {
	interp := []rt.ResolvedFrame{frame("foo"), frame("bar")}
	got := Merge(nil, nil, interp)
	require.Len(t, got, 2)
	require.Equal(t, "foo", got[0].FunctionName)
}

func TestClassifyRuntimeFrameByBaseAddress(t *testing.T) {
	rt2 := RuntimeLibrary{Base: 0x7000, Path: "/usr/lib/libpython3.so"}
	inside := NativeFrame{LibraryBase: 0x7000}
	outside := NativeFrame{LibraryBase: 0x8000, LibraryPath: "/usr/lib/libc.so"}

	require.True(t, classifyRuntimeFrame(inside, rt2))
	require.False(t, classifyRuntimeFrame(outside, rt2))
}

func TestClassifyRuntimeFrameFallsBackToPathSubstring(t *testing.T) {
	rt2 := RuntimeLibrary{Path: "libpython3"}
	f := NativeFrame{LibraryBase: 0x9999, LibraryPath: "/opt/lib/libpython3.11.so"}
	require.True(t, classifyRuntimeFrame(f, rt2))
}

func TestDemanglePassesThroughUnmangledNames(t *testing.T) {
	require.Equal(t, "main", Demangle("main"))
}
