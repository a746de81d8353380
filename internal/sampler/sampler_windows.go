//go:build windows

package sampler

import (
	"sync"
	"time"

	"golang.org/x/sys/windows"
)

// windowsLoop drives the engine from a Win32 timer-queue timer
// (CreateTimerQueueTimer), spec.md §4.7's variant: the OS calls back
// into a dedicated timer-queue worker thread on each interval, which
// this file hands straight to Engine.tick. Symbol resolution on this
// platform additionally needs DbgHelp, which internal/resolver owns;
// this file only owns interval scheduling.
type windowsLoop struct {
	queue   windows.Handle
	timer   windows.Handle
	mu      sync.Mutex
	onTickH uintptr
}

func newPlatformLoop() platformLoop {
	return &windowsLoop{}
}

func (w *windowsLoop) arm(e *Engine) error {
	queue, err := windows.CreateTimerQueue()
	if err != nil {
		return err
	}
	w.queue = queue

	interval := e.cfg.Interval
	if interval <= 0 {
		interval = time.Millisecond
	}
	periodMS := uint32(interval.Milliseconds())
	if periodMS == 0 {
		periodMS = 1
	}

	cb := windows.NewCallback(func(ctx uintptr, _ bool) uintptr {
		e.tick(time.Now().UnixNano())
		return 0
	})
	w.onTickH = cb

	var timer windows.Handle
	err = windows.CreateTimerQueueTimer(&timer, queue, cb, 0, periodMS, periodMS, 0)
	if err != nil {
		return err
	}
	w.timer = timer
	return nil
}

func (w *windowsLoop) disarm(e *Engine) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != 0 {
		_ = windows.DeleteTimerQueueTimer(w.queue, w.timer, windows.Handle(0))
		w.timer = 0
	}
	if w.queue != 0 {
		_ = windows.DeleteTimerQueueEx(w.queue, windows.Handle(0))
		w.queue = 0
	}
	return nil
}
