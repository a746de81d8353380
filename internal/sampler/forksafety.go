package sampler

import "sync"

// forkMu serializes Start/Stop against the platform's atfork hook
// (forksafety_cgo.go): the prepare callback takes it before the OS
// actually forks, and the parent/child callbacks release it, so no
// engine can be mid-transition across the fork boundary.
var forkMu sync.Mutex

var forkRegistered []*Engine

// registerForkGuard adds e to the set of engines that get forcibly
// stopped if this process forks. Called from Engine.Start while
// forkMu is not held by the caller (Start doesn't need the fork lock
// itself, only the atfork callbacks do).
func registerForkGuard(e *Engine) {
	forkMu.Lock()
	defer forkMu.Unlock()
	forkRegistered = append(forkRegistered, e)
}

// unregisterForkGuard removes e, e.g. on Stop.
func unregisterForkGuard(e *Engine) {
	forkMu.Lock()
	defer forkMu.Unlock()
	for i, r := range forkRegistered {
		if r == e {
			forkRegistered = append(forkRegistered[:i], forkRegistered[i+1:]...)
			return
		}
	}
}

// disableAfterFork runs in the child immediately after fork (spec.md
// §5's "Fork safety"). A forked child has exactly one thread — the one
// that called fork — so every other goroutine the engine thought it
// had (ticker loop, Darwin sampler thread, wg waiters) is simply gone.
// Waiting on them via the normal Stop/disarm path would hang forever,
// so this forces the state machine straight to Stopped without
// touching any channel or waitgroup. The child must call Start again
// explicitly to resume sampling, per spec.md §5.
func disableAfterFork() {
	forkMu.Lock()
	engines := append([]*Engine(nil), forkRegistered...)
	forkRegistered = nil
	forkMu.Unlock()
	for _, e := range engines {
		e.state.Store(StateStopped)
	}
}
