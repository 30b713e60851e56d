// Package watchertest provides a manual clock for debounce tests.
package watchertest

import (
	"sort"
	"sync"
	"time"

	"github.com/jmylchreest/shade/internal/watcher"
)

// Clock is a watcher.Clock that only moves when Advance is called.
type Clock struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*timer
}

// NewClock returns a clock at zero.
func NewClock() *Clock {
	return &Clock{}
}

type timer struct {
	clock *Clock
	at    time.Duration
	fn    func()
	done  bool
}

// Stop implements watcher.Timer.
func (t *timer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.done {
		return false
	}
	t.done = true
	return true
}

// AfterFunc implements watcher.Clock.
func (c *Clock) AfterFunc(d time.Duration, f func()) watcher.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &timer{clock: c, at: c.now + d, fn: f}
	c.timers = append(c.timers, t)
	return t
}

// Advance moves time forward and runs every timer that falls due, in
// deadline order, on the calling goroutine.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now += d
	var due []*timer
	kept := c.timers[:0]
	for _, t := range c.timers {
		switch {
		case t.done:
		case t.at <= c.now:
			t.done = true
			due = append(due, t)
		default:
			kept = append(kept, t)
		}
	}
	c.timers = kept
	c.mu.Unlock()

	sort.SliceStable(due, func(i, j int) bool { return due[i].at < due[j].at })
	for _, t := range due {
		t.fn()
	}
}

// Pending returns the number of live timers.
func (c *Clock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.done {
			n++
		}
	}
	return n
}
