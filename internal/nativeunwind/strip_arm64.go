//go:build arm64

package nativeunwind

// ptrauthMask clears the pointer-authentication signature bits that
// Darwin/arm64 stores in the high bits of a return address, per
// spec.md §4.3's address-stripping requirement. The toolchain has no
// portable `ptrauth_strip` intrinsic reachable from Go without a
// dedicated assembly trampoline per architecture revision, so this
// applies the same conservative bitmask approach arm64 unwinders use
// when they cannot call the C intrinsic directly.
const ptrauthMask = uintptr(0x0000_7FFF_FFFF_FFFF)

// StripPointerAuth is the default strip function on arm64: it masks
// out bit 47 and everything above it, where AArch64 pointer-authentication
// codes live for the supported virtual address range.
func StripPointerAuth(p uintptr) uintptr {
	return p & ptrauthMask
}
