//go:build !arm64

package nativeunwind

// StripPointerAuth is the identity function on architectures without
// pointer authentication.
func StripPointerAuth(p uintptr) uintptr {
	return p
}
