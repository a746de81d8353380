package resolver

import (
	"strings"

	"github.com/ianlancetaylor/demangle"
)

// NativeFrame is one resolved native (non-interpreter) stack frame.
type NativeFrame struct {
	Address      uintptr
	LibraryPath  string
	LibraryBase  uintptr
	SymbolName   string
	SymbolOffset uintptr
	InRuntime    bool
}

// NativeSymbolizer resolves a raw native PC to a (library, symbol)
// pair. Implementations wrap dladdr on POSIX/Darwin or DbgHelp's
// SymFromAddr on Windows; both are platform syscalls this package
// treats as an injected dependency so cache.go and merge.go stay
// platform-neutral and unit-testable.
type NativeSymbolizer interface {
	Symbolize(pc uintptr) (NativeFrame, bool)
}

// RuntimeLibrary identifies the address range of the embedding
// runtime's own shared library, captured once at init by resolving a
// well-known runtime symbol (spec.md §4.8). Frames whose resolved
// library base matches this are "inside the runtime" for the
// trim-and-sandwich merge.
type RuntimeLibrary struct {
	Base uintptr
	Path string
}

// classifyRuntimeFrame decides whether a symbolized native frame lies
// inside the embedding runtime's own library, either because its
// library base address matches RuntimeLibrary.Base exactly, or — as a
// fallback for builds where base-address comparison is unreliable
// (static linking, PIE relocation quirks) — because its library path
// contains the runtime library's path as a substring.
func classifyRuntimeFrame(f NativeFrame, rt RuntimeLibrary) bool {
	if rt.Base != 0 && f.LibraryBase == rt.Base {
		return true
	}
	if rt.Path != "" && f.LibraryPath != "" {
		return strings.Contains(f.LibraryPath, rt.Path)
	}
	return false
}

// Demangle applies C++ name demangling to a native symbol, returning
// the original name unchanged if it is not a mangled C++ symbol.
func Demangle(symbol string) string {
	if symbol == "" {
		return symbol
	}
	out, err := demangle.ToString(symbol, demangle.NoParams)
	if err != nil {
		return symbol
	}
	return out
}
