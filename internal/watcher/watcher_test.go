package watcher_test

import (
	"testing"
	"time"

	"github.com/jmylchreest/shade/internal/dom"
	"github.com/jmylchreest/shade/internal/watcher"
	"github.com/jmylchreest/shade/internal/watcher/watchertest"
)

func setup(t *testing.T, opts watcher.Options) (*dom.Document, *watcher.Watcher, *int) {
	t.Helper()
	doc, err := dom.ParseString(`<body><div id="box"></div></body>`)
	if err != nil {
		t.Fatalf("ParseString() error = %v", err)
	}

	runs := new(int)
	w := watcher.New(doc, opts, func() { *runs++ })
	if err := w.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(w.Stop)
	return doc, w, runs
}

func TestDebounce(t *testing.T) {
	clock := watchertest.NewClock()
	doc, w, runs := setup(t, watcher.Options{Clock: clock})

	doc.Body().AppendChild(doc.CreateElement("img"))
	if !w.Pending() {
		t.Fatal("Pending() = false after insertion")
	}

	clock.Advance(499 * time.Millisecond)
	if *runs != 0 {
		t.Fatalf("ran before the debounce window elapsed")
	}
	clock.Advance(time.Millisecond)
	if *runs != 1 {
		t.Fatalf("runs = %d, want 1", *runs)
	}
	if w.Pending() {
		t.Error("Pending() = true after run")
	}
}

func TestLastMutationWins(t *testing.T) {
	clock := watchertest.NewClock()
	doc, _, runs := setup(t, watcher.Options{Clock: clock})
	box := doc.GetElementByID("box")

	box.SetAttr("class", "a")
	clock.Advance(300 * time.Millisecond)
	box.SetAttr("style", "color: red")
	clock.Advance(300 * time.Millisecond)
	if *runs != 0 {
		t.Fatalf("runs = %d, want 0 while mutations keep arriving", *runs)
	}
	if got := clock.Pending(); got != 1 {
		t.Errorf("clock.Pending() = %d, want exactly one timer", got)
	}

	clock.Advance(200 * time.Millisecond)
	if *runs != 1 {
		t.Errorf("runs = %d, want 1", *runs)
	}
}

func TestIgnoredMutations(t *testing.T) {
	clock := watchertest.NewClock()
	doc, w, _ := setup(t, watcher.Options{Clock: clock})
	box := doc.GetElementByID("box")

	box.SetAttr("title", "x")
	box.Remove()
	if w.Pending() {
		t.Error("title change or removal scheduled a run")
	}

	doc.Head().AppendChild(doc.CreateElement("meta"))
	if w.Pending() {
		t.Error("mutation outside body scheduled a run")
	}
}

func TestStopCancels(t *testing.T) {
	clock := watchertest.NewClock()
	doc, w, runs := setup(t, watcher.Options{Clock: clock})

	doc.Body().AppendChild(doc.CreateElement("video"))
	w.Stop()
	w.Stop()
	clock.Advance(time.Second)

	if *runs != 0 {
		t.Errorf("runs = %d after Stop", *runs)
	}
	if w.Pending() || w.Running() {
		t.Error("watcher still active after Stop")
	}

	doc.Body().AppendChild(doc.CreateElement("video"))
	if clock.Pending() != 0 {
		t.Error("stopped watcher scheduled a timer")
	}
	if err := w.Start(); err == nil {
		t.Error("Start() after Stop should fail")
	}
}

func TestStopDropsPostedRun(t *testing.T) {
	clock := watchertest.NewClock()
	var posted []func()
	doc, w, runs := setup(t, watcher.Options{
		Clock: clock,
		Post:  func(f func()) { posted = append(posted, f) },
	})

	doc.Body().AppendChild(doc.CreateElement("canvas"))
	clock.Advance(watcher.DefaultDelay)
	if len(posted) != 1 {
		t.Fatalf("posted = %d, want 1", len(posted))
	}

	w.Stop()
	posted[0]()
	if *runs != 0 {
		t.Errorf("runs = %d, want stale run dropped", *runs)
	}
}

func TestPause(t *testing.T) {
	clock := watchertest.NewClock()
	doc, w, _ := setup(t, watcher.Options{Clock: clock})

	w.Pause()
	doc.Body().AppendChild(doc.CreateElement("img"))
	w.Resume()
	if w.Pending() {
		t.Error("paused watcher scheduled a run")
	}

	w.Resume()
	doc.Body().AppendChild(doc.CreateElement("img"))
	if !w.Pending() {
		t.Error("extra Resume left the watcher paused")
	}
}

func TestRealClock(t *testing.T) {
	doc, err := dom.ParseString(`<body></body>`)
	if err != nil {
		t.Fatal(err)
	}

	done := make(chan struct{}, 1)
	w := watcher.New(doc, watcher.Options{Delay: 10 * time.Millisecond}, func() {
		done <- struct{}{}
	})

	doc.Do(func() {
		if err := w.Start(); err != nil {
			t.Errorf("Start() error = %v", err)
		}
		doc.Body().AppendChild(doc.CreateElement("img"))
	})
	defer doc.Do(w.Stop)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("callback did not run")
	}
}
