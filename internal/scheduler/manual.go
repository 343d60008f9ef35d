package scheduler

import (
	"sort"
	"sync"
	"time"
)

// ManualClock is a simulated clock for tests. Tickers and timers created from
// it only fire when Advance moves time past their deadline.
type ManualClock struct {
	mu      sync.Mutex
	now     time.Time
	tickers []*ManualTicker
	timers  []*manualTimer
}

// NewManualClock creates a clock starting at start.
func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

// Now returns the simulated time.
func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// NewTicker implements TickerFactory.
func (c *ManualClock) NewTicker(period time.Duration) Ticker {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &ManualTicker{c: make(chan time.Time, 1), period: period, next: c.now.Add(period)}
	c.tickers = append(c.tickers, t)
	return t
}

// AfterFunc implements AfterFunc. f runs on the goroutine calling Advance.
func (c *ManualClock) AfterFunc(d time.Duration, f func()) Cancel {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTimer{at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

// Active returns the number of tickers that have not been stopped.
func (c *ManualClock) Active() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.tickers {
		if !t.stopped() {
			n++
		}
	}
	return n
}

// Advance moves time forward by d, delivering due ticks and running due
// timers in deadline order.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	now := c.now

	for _, t := range c.tickers {
		if t.stopped() {
			continue
		}
		for !t.next.After(now) {
			select {
			case t.c <- t.next:
			default:
			}
			t.next = t.next.Add(t.period)
		}
	}

	var due []*manualTimer
	pending := c.timers[:0]
	for _, t := range c.timers {
		switch {
		case t.cancelled():
		case !t.at.After(now):
			due = append(due, t)
		default:
			pending = append(pending, t)
		}
	}
	c.timers = pending
	c.mu.Unlock()

	sort.SliceStable(due, func(i, j int) bool { return due[i].at.Before(due[j].at) })
	for _, t := range due {
		if t.fire() {
			t.f()
		}
	}
}

// ManualTicker is a Ticker driven by a ManualClock.
type ManualTicker struct {
	mu     sync.Mutex
	c      chan time.Time
	period time.Duration
	next   time.Time
	done   bool
}

func (t *ManualTicker) C() <-chan time.Time { return t.c }

func (t *ManualTicker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.done = true
}

func (t *ManualTicker) stopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.done
}

type manualTimer struct {
	mu    sync.Mutex
	at    time.Time
	f     func()
	state int // 0 pending, 1 fired, 2 stopped
}

func (t *manualTimer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != 0 {
		return false
	}
	t.state = 2
	return true
}

func (t *manualTimer) cancelled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state == 2
}

func (t *manualTimer) fire() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != 0 {
		return false
	}
	t.state = 1
	return true
}
