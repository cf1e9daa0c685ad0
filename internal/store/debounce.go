package store

import (
	"sync"
	"time"
)

// Debouncer runs a function once after calls to Schedule stop arriving
// for the configured delay. Each Schedule cancels the pending run.
type Debouncer struct {
	mu      sync.Mutex
	delay   time.Duration
	timer   *time.Timer
	pending func()
	gen     uint64
	stopped bool
}

// NewDebouncer returns a debouncer with the given quiet period.
func NewDebouncer(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay}
}

// Schedule replaces any pending run with fn and restarts the timer.
func (d *Debouncer) Schedule(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.pending = fn
	d.gen++
	gen := d.gen
	d.timer = time.AfterFunc(d.delay, func() { d.fire(gen) })
}

// fire runs the pending function unless a newer Schedule superseded the
// timer that triggered it.
func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	if gen != d.gen {
		d.mu.Unlock()
		return
	}
	fn := d.pending
	d.pending = nil
	d.timer = nil
	d.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// Flush runs the pending function now, if any, on the calling goroutine.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
	fn := d.pending
	d.pending = nil
	d.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// Pending reports whether a run is scheduled.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending != nil
}

// Stop cancels the pending run and ignores later schedules.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.pending = nil
}
