//go:build !linux

package sampler

// selfThreadID has no portable equivalent outside Linux's gettid(2);
// on Darwin and Windows the sampler already runs on a thread distinct
// from any registered target by construction (a dedicated Mach
// sampler thread, a timer-queue pool thread), so I4 holds structurally
// and this check is a no-op there.
func selfThreadID() (uint64, bool) {
	return 0, false
}
