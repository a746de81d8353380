package sampler

import (
	"sync"

	"github.com/Periecle/spprof/internal/nativeunwind"
)

// Thread describes one interpreter thread registered for sampling:
// its host thread identifier, the address of its interpreter thread
// state (the frame walker's entry point), and the native stack bounds
// the unwinder needs to know when to stop.
type Thread struct {
	ThreadID   uint64
	TState     uintptr
	StackFP    uintptr // current native frame pointer, refreshed by the host before each interval
	Bounds     nativeunwind.StackBounds
}

// Registry tracks the set of threads currently eligible for sampling.
// It is modeled on eventloop's promise registry (registry.go): an
// RWMutex-guarded map, with reads done via a copy-out-under-lock
// Snapshot so the sampling loop never holds the registry lock while
// it suspends/signals a thread or walks its frame chain — matching
// spec.md §4.6's requirement that Darwin's suspend loop copy out the
// thread list before it starts suspending to keep the mach_port calls
// of one thread from being serialized behind the registry lock of
// another.
type Registry struct {
	mu      sync.RWMutex
	threads map[uint64]*Thread
}

// NewRegistry creates an empty thread registry.
func NewRegistry() *Registry {
	return &Registry{threads: make(map[uint64]*Thread)}
}

// Register adds or replaces a thread's entry.
func (r *Registry) Register(t Thread) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := t
	r.threads[t.ThreadID] = &cp
}

// Unregister removes a thread's entry.
func (r *Registry) Unregister(threadID uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.threads, threadID)
}

// UpdateStackPointer refreshes the live frame-pointer/bounds of an
// already-registered thread without touching its other fields. Hosts
// call this right before each sampling interval fires so the unwinder
// has a fresh entry point.
func (r *Registry) UpdateStackPointer(threadID uint64, fp uintptr, bounds nativeunwind.StackBounds) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.threads[threadID]
	if !ok {
		return false
	}
	t.StackFP = fp
	t.Bounds = bounds
	return true
}

// Len reports the number of registered threads.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.threads)
}

// Snapshot copies out the current thread list under a single read
// lock. The sampling loop iterates the returned slice without holding
// the registry lock.
func (r *Registry) Snapshot() []Thread {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Thread, 0, len(r.threads))
	for _, t := range r.threads {
		out = append(out, *t)
	}
	return out
}
