//go:build cgo && !windows

package sampler

/*
#include <pthread.h>

extern void spprofForkPrepare(void);
extern void spprofForkParent(void);
extern void spprofForkChild(void);

static int spprof_install_atfork(void) {
	return pthread_atfork(spprofForkPrepare, spprofForkParent, spprofForkChild);
}
*/
import "C"

// init installs the pthread_atfork triple once per process. Mirrors
// the way internal/nativeunwind's libunwind backend reaches for cgo
// only where the platform genuinely has no portable equivalent —
// there is no pure-Go way to observe a fork() from inside the child.
func init() {
	C.spprof_install_atfork()
}

//export spprofForkPrepare
func spprofForkPrepare() {
	forkMu.Lock()
}

//export spprofForkParent
func spprofForkParent() {
	forkMu.Unlock()
}

//export spprofForkChild
func spprofForkChild() {
	forkMu.Unlock()
	disableAfterFork()
}
