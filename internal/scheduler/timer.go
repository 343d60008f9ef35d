package scheduler

import (
	"sync"
	"time"
)

// Cancel stops a pending timer. It reports whether the call stopped it.
type Cancel interface {
	Stop() bool
}

// AfterFunc runs f once after d.
type AfterFunc func(d time.Duration, f func()) Cancel

// RealAfter is AfterFunc backed by time.AfterFunc.
func RealAfter(d time.Duration, f func()) Cancel {
	return time.AfterFunc(d, f)
}

// Debouncer delays a call until no newer call has arrived for the delay.
type Debouncer struct {
	mu    sync.Mutex
	delay time.Duration
	after AfterFunc
	timer Cancel
}

// NewDebouncer creates a Debouncer. A nil after uses RealAfter.
func NewDebouncer(delay time.Duration, after AfterFunc) *Debouncer {
	if after == nil {
		after = RealAfter
	}
	return &Debouncer{delay: delay, after: after}
}

// Call schedules f, replacing any call still waiting.
func (d *Debouncer) Call(f func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = d.after(d.delay, f)
}

// Cancel drops any call still waiting.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
