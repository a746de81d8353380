//go:build linux

package sampler

import "golang.org/x/sys/unix"

// selfThreadID reads the calling OS thread's id via gettid(2), used
// by Engine.tick to enforce spec.md's invariant I4 ("the sampler
// thread is never itself sampled"). The POSIX variant's tick loop
// runs on an ordinary goroutine rather than inside a real per-thread
// signal handler, so unlike the Darwin dedicated-thread and Windows
// timer-pool-thread variants — where the sampler's own thread simply
// never appears in the target registry — here it is possible for a
// host to accidentally register the same OS thread the ticker
// goroutine happens to be scheduled on, and this check is what keeps
// that thread out of its own sample set.
func selfThreadID() (uint64, bool) {
	return uint64(unix.Gettid()), true
}
