// Package watcher re-runs a callback after a document's body stops changing.
package watcher

import (
	"errors"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/shade/internal/dom"
)

// DefaultDelay is the debounce window.
const DefaultDelay = 500 * time.Millisecond

// ErrNoBody is returned by Start when the document has no <body>.
var ErrNoBody = errors.New("document has no body")

// Timer is a pending callback.
type Timer interface {
	Stop() bool
}

// Clock schedules callbacks.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// RealClock schedules with time.AfterFunc.
type RealClock struct{}

// AfterFunc implements Clock.
func (RealClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Options configures a Watcher.
type Options struct {
	Delay time.Duration
	Clock Clock
	// Post runs the callback. The default runs it under the document lock.
	Post   func(func())
	Logger hclog.Logger
}

// Watcher observes the <body> subtree for inserted nodes and style or class
// changes. Each qualifying mutation replaces the pending timer, so only the
// last mutation of a burst triggers the callback.
//
// Start, Stop, Pause and Resume touch the document and must be called with
// access to it serialised (inside Document.Do or on its owning goroutine).
type Watcher struct {
	doc    *dom.Document
	fn     func()
	delay  time.Duration
	clock  Clock
	post   func(func())
	logger hclog.Logger

	mu       sync.Mutex
	observer *dom.Observer
	timer    Timer
	gen      uint64
	paused   int
	stopped  bool
}

// New returns a watcher that calls fn. It does nothing until Start.
func New(doc *dom.Document, opts Options, fn func()) *Watcher {
	if opts.Delay <= 0 {
		opts.Delay = DefaultDelay
	}
	if opts.Clock == nil {
		opts.Clock = RealClock{}
	}
	if opts.Post == nil {
		opts.Post = doc.Do
	}
	if opts.Logger == nil {
		opts.Logger = hclog.NewNullLogger()
	}

	return &Watcher{
		doc:    doc,
		fn:     fn,
		delay:  opts.Delay,
		clock:  opts.Clock,
		post:   opts.Post,
		logger: opts.Logger,
	}
}

// Start begins observing. Starting twice is a no-op.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return errors.New("watcher already stopped")
	}
	if w.observer != nil {
		return nil
	}

	body := w.doc.Body()
	if body == nil {
		return ErrNoBody
	}
	w.observer = w.doc.Observe(body, dom.ObserveOptions{
		ChildList:       true,
		Subtree:         true,
		Attributes:      true,
		AttributeFilter: []string{"style", "class"},
	}, w.handle)
	return nil
}

// Stop disconnects the observer and cancels any pending run. A run that has
// already fired but not yet executed is dropped. Stop is idempotent.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return
	}
	w.stopped = true
	if w.observer != nil {
		w.observer.Disconnect()
		w.observer = nil
	}
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.gen++
}

// Pause ignores mutations until the matching Resume.
func (w *Watcher) Pause() {
	w.mu.Lock()
	w.paused++
	w.mu.Unlock()
}

// Resume undoes one Pause.
func (w *Watcher) Resume() {
	w.mu.Lock()
	if w.paused > 0 {
		w.paused--
	}
	w.mu.Unlock()
}

// Pending reports whether a run is scheduled.
func (w *Watcher) Pending() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.timer != nil
}

// Running reports whether the watcher is started and not stopped.
func (w *Watcher) Running() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.observer != nil && !w.stopped
}

func (w *Watcher) handle(records []dom.Record) {
	if !qualifies(records) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped || w.paused > 0 {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.gen++
	gen := w.gen
	w.timer = w.clock.AfterFunc(w.delay, func() { w.fire(gen) })
}

func qualifies(records []dom.Record) bool {
	for _, r := range records {
		switch r.Type {
		case dom.RecordChildList:
			if len(r.Added) > 0 {
				return true
			}
		case dom.RecordAttributes:
			return true
		}
	}
	return false
}

// fire runs on the clock's goroutine. The lock is released before posting
// since Post may block on the document lock.
func (w *Watcher) fire(gen uint64) {
	w.mu.Lock()
	if w.stopped || gen != w.gen {
		w.mu.Unlock()
		return
	}
	w.timer = nil
	w.mu.Unlock()

	w.post(func() {
		w.mu.Lock()
		live := !w.stopped && gen == w.gen
		w.mu.Unlock()
		if !live {
			w.logger.Trace("dropping stale run")
			return
		}
		w.logger.Debug("document changed, re-walking")
		w.fn()
	})
}
