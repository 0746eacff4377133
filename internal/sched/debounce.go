// Package sched provides the coalescing primitive shared by the render
// sync layer and the persistence writer: a cancellable deferred task
// whose wait window restarts on every trigger.
package sched

import (
	"sync"
	"time"
)

// Debouncer runs fn once after the wait window has elapsed since the most
// recent Trigger. A burst of N triggers inside the window produces exactly
// one run; a trigger arriving mid-window cancels and restarts the timer,
// so two runs never overlap from a single burst.
type Debouncer struct {
	mu       sync.Mutex
	wait     time.Duration
	fn       func()
	timer    *time.Timer
	pending  bool
	deadline time.Time
}

func NewDebouncer(wait time.Duration, fn func()) *Debouncer {
	if wait <= 0 {
		wait = 50 * time.Millisecond
	}
	return &Debouncer{wait: wait, fn: fn}
}

// Trigger schedules (or reschedules) the deferred run.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.pending = true
	d.deadline = time.Now().Add(d.wait)
	d.timer = time.AfterFunc(d.wait, d.expire)
}

// Flush runs the task immediately if one is pending. Tests use this to
// advance the deferred work without waiting on wall-clock time.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	if !d.consumeLocked() {
		d.mu.Unlock()
		return
	}
	d.mu.Unlock()

	d.fn()
}

// Stop cancels any pending run without executing it.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.pending = false
}

// Pending reports whether a run is currently scheduled.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}

// expire is the timer callback. A timer that was stopped too late can
// still reach here after a fresh Trigger has restarted the window; the
// deadline check makes such a stale callback yield to the timer that
// replaced it instead of running fn early.
func (d *Debouncer) expire() {
	d.mu.Lock()
	if time.Now().Before(d.deadline) {
		d.mu.Unlock()
		return
	}
	if !d.consumeLocked() {
		d.mu.Unlock()
		return
	}
	d.mu.Unlock()

	d.fn()
}

// consumeLocked claims the pending run. Callers hold d.mu.
func (d *Debouncer) consumeLocked() bool {
	if !d.pending {
		return false
	}
	d.pending = false
	if d.timer != nil {
		d.timer.Stop()
	}
	return true
}
