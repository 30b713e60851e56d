// Package filter installs and removes a reversible page inversion and keeps
// media and pre-filtered elements visually unchanged while the document
// mutates.
//
// An Applicator owns the filter state of exactly one document. Its methods
// must be called with access to that document serialised, normally inside
// dom.Document.Do.
package filter

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/shade/internal/colour"
	"github.com/jmylchreest/shade/internal/dom"
	"github.com/jmylchreest/shade/internal/systheme"
	"github.com/jmylchreest/shade/internal/watcher"
)

const (
	// StyleElementID is the id of the injected <style> element.
	StyleElementID = "shade-inversion-styles"
	// ActiveAttr marks <html> while the inversion is installed.
	ActiveAttr = "data-shade-active"
	// TrackingAttr marks elements carrying a counter-filter.
	TrackingAttr = "data-shade-filtered"
	// ExemptAttr opts an element and its subtree out.
	ExemptAttr = "data-shade-exempt"
)

// ErrNoRoot is returned when the document has no <html> element.
var ErrNoRoot = errors.New("document has no root element")

// Stylesheet is the rule installed in ModeStyleSheet.
const Stylesheet = "@media (prefers-color-scheme: light) { html { filter: " + Token + "; } }"

// Mode selects how the page-wide inversion is installed.
type Mode int

const (
	// ModeStyleSheet injects a <style> element scoped to a light preference.
	ModeStyleSheet Mode = iota
	// ModeRootStyle appends Token to the <html> inline filter.
	ModeRootStyle
)

// String returns the mode name used in configuration.
func (m Mode) String() string {
	if m == ModeRootStyle {
		return "root"
	}
	return "stylesheet"
}

// ParseMode accepts "stylesheet" and "root".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "stylesheet":
		return ModeStyleSheet, nil
	case "root":
		return ModeRootStyle, nil
	}
	return ModeStyleSheet, fmt.Errorf("unknown mode %q (want stylesheet|root)", s)
}

// Options configures an Applicator.
type Options struct {
	Mode Mode
	// System gates Apply. Nil is treated as a light system theme.
	System   systheme.Reader
	Debounce time.Duration
	Clock    watcher.Clock
	// Post runs watcher callbacks; the default takes the document lock.
	Post   func(func())
	Logger hclog.Logger
}

// state is what is needed to undo a counter-filter exactly.
type state struct {
	original string
	hadStyle bool
	written  string
}

// Applicator is the per-document filter state.
type Applicator struct {
	doc    *dom.Document
	opts   Options
	logger hclog.Logger

	tracked map[*dom.Element]*state
	order   []*dom.Element
	root    *state
	head    *dom.Element
	watcher *watcher.Watcher
}

// New returns an applicator for doc.
func New(doc *dom.Document, opts Options) *Applicator {
	logger := opts.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Applicator{
		doc:     doc,
		opts:    opts,
		logger:  logger.Named("filter").With("document", doc.ID()),
		tracked: make(map[*dom.Element]*state),
	}
}

// Document returns the document this applicator owns.
func (a *Applicator) Document() *dom.Document {
	return a.doc
}

// Active reports whether the inversion is installed.
func (a *Applicator) Active() bool {
	root := a.doc.DocumentElement()
	return root != nil && root.HasAttr(ActiveAttr)
}

// Tracked returns the elements carrying a counter-filter, in the order they
// were tracked.
func (a *Applicator) Tracked() []*dom.Element {
	out := make([]*dom.Element, len(a.order))
	copy(out, a.order)
	return out
}

// Watching reports whether a change watcher is live.
func (a *Applicator) Watching() bool {
	return a.watcher != nil && a.watcher.Running()
}

// Apply installs the inversion, counter-filters candidates and starts the
// change watcher. It does nothing when already active or when the system
// prefers dark. On failure the partial work is undone.
func (a *Applicator) Apply() error {
	system := colour.ThemeLight
	if a.opts.System != nil {
		system = a.opts.System.Read()
	}
	return a.ApplyFor(system)
}

// ApplyFor is Apply gated on an already known system theme instead of
// Options.System.
func (a *Applicator) ApplyFor(system colour.Theme) error {
	root := a.doc.DocumentElement()
	if root == nil {
		return ErrNoRoot
	}
	if root.HasAttr(ActiveAttr) {
		a.logger.Trace("already active")
		return nil
	}
	if system == colour.ThemeDark {
		a.logger.Debug("system prefers dark, skipping apply")
		return nil
	}

	if err := a.apply(root); err != nil {
		a.Remove()
		return fmt.Errorf("failed to apply inversion: %w", err)
	}
	return nil
}

func (a *Applicator) apply(root *dom.Element) error {
	root.SetAttr(ActiveAttr, "true")

	switch a.opts.Mode {
	case ModeRootStyle:
		a.root = a.addFilter(root, root.StyleProperty("filter"))
	default:
		head := a.doc.Head()
		if head == nil {
			head = a.doc.CreateElement("head")
			root.InsertBefore(head, a.doc.Body())
			a.head = head
		}
		style := a.doc.CreateElement("style")
		style.SetAttr("id", StyleElementID)
		style.SetText(Stylesheet)
		head.AppendChild(style)
	}

	n := a.Walk()
	a.logger.Debug("inversion applied", "mode", a.opts.Mode, "tracked", n)

	return a.watch()
}

// watch replaces any live watcher with a new one.
func (a *Applicator) watch() error {
	if a.watcher != nil {
		a.watcher.Stop()
		a.watcher = nil
	}

	w := watcher.New(a.doc, watcher.Options{
		Delay:  a.opts.Debounce,
		Clock:  a.opts.Clock,
		Post:   a.opts.Post,
		Logger: a.logger,
	}, func() {
		if n := a.Walk(); n > 0 {
			a.logger.Debug("tracked new elements", "count", n)
		}
	})
	if err := w.Start(); err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	a.watcher = w
	return nil
}

// Remove undoes Apply. It also clears marks left in the document by another
// applicator. Calling it on a clean document changes nothing.
func (a *Applicator) Remove() {
	if a.watcher != nil {
		a.watcher.Stop()
		a.watcher = nil
	}

	for _, e := range a.Tracked() {
		a.untrack(e)
	}

	if style := a.doc.GetElementByID(StyleElementID); style != nil {
		style.Remove()
	}
	if a.head != nil {
		if len(a.head.Children()) == 0 {
			a.head.Remove()
		}
		a.head = nil
	}

	root := a.doc.DocumentElement()
	if root == nil {
		return
	}
	if a.root != nil {
		a.restore(root, a.root)
		a.root = nil
	} else if root.HasAttr(ActiveAttr) {
		stripInline(root)
	}

	if stray, err := a.doc.QuerySelectorAll("[" + TrackingAttr + "]"); err == nil {
		for _, e := range stray {
			stripInline(e)
			e.RemoveAttr(TrackingAttr)
		}
	}

	if root.HasAttr(ActiveAttr) {
		root.RemoveAttr(ActiveAttr)
		a.logger.Debug("inversion removed")
	}
}

// addFilter appends Token to e's inline filter, starting from base, and
// returns the state needed to undo it.
func (a *Applicator) addFilter(e *dom.Element, base string) *state {
	original, had := e.Attr("style")
	e.SetStyleProperty("filter", AppendToken(base))
	written, _ := e.Attr("style")
	return &state{original: original, hadStyle: had, written: written}
}

// restore puts the original style attribute back when nobody else changed
// it, otherwise strips only Token.
func (a *Applicator) restore(e *dom.Element, s *state) {
	current, has := e.Attr("style")
	if has && current == s.written {
		if s.hadStyle {
			e.SetAttr("style", s.original)
		} else {
			e.RemoveAttr("style")
		}
		return
	}
	stripInline(e)
}

func stripInline(e *dom.Element) {
	f := e.StyleProperty("filter")
	if !HasToken(f) {
		return
	}
	if rest := StripToken(f); rest != "" {
		e.SetStyleProperty("filter", rest)
	} else {
		e.RemoveStyleProperty("filter")
	}
}
