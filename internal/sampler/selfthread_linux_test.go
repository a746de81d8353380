//go:build linux

package sampler

import "testing"

func TestSelfThreadIDReturnsCurrentGettid(t *testing.T) {
	tid, ok := selfThreadID()
	if !ok {
		t.Fatal("expected ok=true on linux")
	}
	if tid == 0 {
		t.Fatal("expected a nonzero thread id")
	}
}
