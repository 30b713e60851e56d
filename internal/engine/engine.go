// Package engine ties sampling, the system preference and the URL lists to
// a decision, and drives a host to inject or remove the inversion.
package engine

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"golang.org/x/sync/errgroup"

	"github.com/jmylchreest/shade/internal/colour"
	"github.com/jmylchreest/shade/internal/decision"
	"github.com/jmylchreest/shade/internal/dom"
	"github.com/jmylchreest/shade/internal/membership"
	"github.com/jmylchreest/shade/internal/sampler"
	"github.com/jmylchreest/shade/internal/systheme"
	"github.com/jmylchreest/shade/internal/urllist"
)

// DefaultCollaboratorTimeout bounds each host call during Evaluate.
const DefaultCollaboratorTimeout = 2 * time.Second

var (
	// ErrInjectionRejected wraps a host refusal to inject or remove.
	ErrInjectionRejected = errors.New("host rejected injection")
	// ErrNoLists is returned by Toggle when the host has no list store.
	ErrNoLists = errors.New("no list store configured")
)

// Behavior is what the injector is asked to do.
type Behavior int

const (
	// Remove undoes the inversion.
	Remove Behavior = iota
	// Apply installs the inversion.
	Apply
)

// String returns "apply" or "remove".
func (b Behavior) String() string {
	if b == Apply {
		return "apply"
	}
	return "remove"
}

// Tab is one page as seen by the host.
type Tab struct {
	ID         string
	URL        string
	Document   *dom.Document
	Foreground bool
}

// NewTab returns a foreground tab with a fresh ID.
func NewTab(rawURL string, doc *dom.Document) Tab {
	return Tab{ID: uuid.NewString(), URL: rawURL, Document: doc, Foreground: true}
}

// Capturer captures the visible area of a tab.
type Capturer interface {
	Capture(ctx context.Context, tab Tab) (image.Image, error)
}

// CaptureProber is optionally implemented by a Capturer that can tell in
// advance whether a tab is capturable.
type CaptureProber interface {
	CanCapture(tab Tab) bool
}

// Injection is one request to an Injector. System is the theme the
// evaluation decided against.
type Injection struct {
	Behavior Behavior
	System   colour.Theme
}

// Injector applies or removes the inversion in a tab and reports whether it
// is active afterwards.
type Injector interface {
	Inject(ctx context.Context, tab Tab, in Injection) (bool, error)
}

// Presenter shows the per-tab indicator.
type Presenter interface {
	SetIndicator(tab Tab, ind decision.Indicator)
}

// Host is the set of collaborators the engine drives. Any may be nil.
type Host struct {
	Capturer  Capturer
	Injector  Injector
	Presenter Presenter
	Lists     urllist.Store
	System    systheme.Reader
}

// Capabilities is what the host can do for a tab.
type Capabilities struct {
	Capture   bool
	Inject    bool
	Indicator bool
	Lists     bool
}

// Outcome is the result of one evaluation.
type Outcome struct {
	Capabilities Capabilities
	Page         sampler.Result
	System       colour.Theme
	Membership   membership.Verdict
	Verdict      decision.Verdict
	// Active is whether the inversion is installed after injection. It can
	// be false for an inject verdict when the system prefers dark.
	Active bool
}

// Options configures an Engine.
type Options struct {
	Policy              decision.Policy
	CollaboratorTimeout time.Duration
	Sampler             *sampler.Chain
	Logger              hclog.Logger
}

// Engine evaluates tabs against a host.
type Engine struct {
	host    Host
	policy  decision.Policy
	timeout time.Duration
	sampler *sampler.Chain
	logger  hclog.Logger
}

// New returns an engine driving host.
func New(host Host, opts Options) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	if opts.CollaboratorTimeout <= 0 {
		opts.CollaboratorTimeout = DefaultCollaboratorTimeout
	}
	if opts.Sampler == nil {
		opts.Sampler = sampler.Default(sampler.Options{Logger: logger})
	}
	return &Engine{
		host:    host,
		policy:  opts.Policy,
		timeout: opts.CollaboratorTimeout,
		sampler: opts.Sampler,
		logger:  logger.Named("engine"),
	}
}

// Probe reports what the host can do for tab.
func (e *Engine) Probe(tab Tab) Capabilities {
	c := Capabilities{
		Capture:   e.host.Capturer != nil,
		Inject:    e.host.Injector != nil,
		Indicator: e.host.Presenter != nil,
		Lists:     e.host.Lists != nil,
	}
	if p, ok := e.host.Capturer.(CaptureProber); ok && c.Capture {
		c.Capture = p.CanCapture(tab)
	}
	return c
}

// Evaluate samples the page, reads the system preference and looks up the
// tab URL concurrently, decides, then injects and updates the indicator.
// Collaborator failures fall back to light page, light system and not
// listed. The indicator reflects what the host actually installed. Only a
// rejected injection is returned as an error, in which case the indicator
// is left untouched.
func (e *Engine) Evaluate(ctx context.Context, tab Tab) (Outcome, error) {
	logger := e.logger.With("tab", tab.ID, "url", tab.URL)
	out := Outcome{Capabilities: e.Probe(tab)}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		out.Page = e.samplePage(gctx, tab, out.Capabilities, logger)
		return nil
	})
	g.Go(func() error {
		out.System = e.readSystem(gctx, logger)
		return nil
	})
	g.Go(func() error {
		out.Membership = e.lookup(gctx, tab, logger)
		return nil
	})
	_ = g.Wait()

	out.Verdict = decision.Decide(e.policy, out.System, out.Page.Theme, out.Membership)
	logger.Debug("evaluated",
		"page", out.Page.Theme, "source", out.Page.Source,
		"system", out.System, "listed", out.Membership.Listed(),
		"inject", out.Verdict.ShouldInject)

	active, err := e.inject(ctx, tab, out.Capabilities, out.Verdict.ShouldInject, out.System, logger)
	if err != nil {
		return out, err
	}
	if out.Verdict.ShouldInject && !active {
		logger.Debug("inversion not installed", "system", out.System)
	}
	out.Active = active
	out.Verdict.Indicator.Active = active
	e.present(tab, out.Capabilities, out.Verdict.Indicator)
	return out, nil
}

// Toggle flips the tab origin in the allow list and immediately applies or
// removes the inversion to match. It returns whether the origin is now
// listed.
func (e *Engine) Toggle(ctx context.Context, tab Tab) (bool, error) {
	logger := e.logger.With("tab", tab.ID, "url", tab.URL)
	if e.host.Lists == nil {
		return false, ErrNoLists
	}

	origin, err := membership.Origin(tab.URL)
	if err != nil {
		return false, fmt.Errorf("failed to resolve origin: %w", err)
	}
	listed, err := urllist.Toggle(ctx, e.host.Lists, urllist.Allow, origin)
	if err != nil {
		return false, fmt.Errorf("failed to toggle %s: %w", origin, err)
	}
	logger.Info("toggled allow list", "origin", origin, "listed", listed)

	caps := e.Probe(tab)
	system := e.readSystem(ctx, logger)
	active, err := e.inject(ctx, tab, caps, listed, system, logger)
	if err != nil {
		return listed, err
	}
	e.present(tab, caps, decision.Indicator{Icon: system.Complement(), Active: active})
	return listed, nil
}

func (e *Engine) samplePage(ctx context.Context, tab Tab, caps Capabilities, logger hclog.Logger) sampler.Result {
	target := sampler.Target{Document: tab.Document, Foreground: tab.Foreground}
	if caps.Capture {
		capturer := e.host.Capturer
		target.Surface = sampler.CaptureFunc(func(ctx context.Context) (image.Image, error) {
			return capturer.Capture(ctx, tab)
		})
	}

	fallback := sampler.Result{Theme: colour.ThemeLight, Source: sampler.SourceFallback}
	res, err := within(ctx, e.timeout, fallback, func(ctx context.Context) (sampler.Result, error) {
		return e.sampler.Sample(ctx, target), nil
	})
	if err != nil {
		logger.Debug("page sampling unavailable, assuming light", "error", err)
	}
	return res
}

func (e *Engine) readSystem(ctx context.Context, logger hclog.Logger) colour.Theme {
	if e.host.System == nil {
		return colour.ThemeLight
	}
	theme, err := within(ctx, e.timeout, colour.ThemeLight, func(context.Context) (colour.Theme, error) {
		return e.host.System.Read(), nil
	})
	if err != nil {
		logger.Debug("system theme unavailable, assuming light", "error", err)
	}
	return theme
}

func (e *Engine) lookup(ctx context.Context, tab Tab, logger hclog.Logger) membership.Verdict {
	if e.host.Lists == nil {
		return membership.Verdict{}
	}
	v, err := within(ctx, e.timeout, membership.Verdict{}, func(ctx context.Context) (membership.Verdict, error) {
		return membership.Lookup(ctx, e.host.Lists, tab.URL)
	})
	if err != nil {
		logger.Debug("list lookup failed, treating as not listed", "error", err)
	}
	return v
}

func (e *Engine) inject(ctx context.Context, tab Tab, caps Capabilities, apply bool, system colour.Theme, logger hclog.Logger) (bool, error) {
	if !caps.Inject {
		logger.Debug("host cannot inject")
		return false, nil
	}
	in := Injection{Behavior: Remove, System: system}
	if apply {
		in.Behavior = Apply
	}
	active, err := e.host.Injector.Inject(ctx, tab, in)
	if err != nil {
		logger.Warn("injection rejected", "behavior", in.Behavior, "error", err)
		return false, fmt.Errorf("%w: %w", ErrInjectionRejected, err)
	}
	return active, nil
}

func (e *Engine) present(tab Tab, caps Capabilities, ind decision.Indicator) {
	if caps.Indicator {
		e.host.Presenter.SetIndicator(tab, ind)
	}
}

type result[T any] struct {
	v   T
	err error
}

// within runs fn bounded by d. On error, timeout or panic it returns
// fallback with the cause.
func within[T any](ctx context.Context, d time.Duration, fallback T, fn func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	ch := make(chan result[T], 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- result[T]{err: fmt.Errorf("collaborator panicked: %v", r)}
			}
		}()
		v, err := fn(ctx)
		ch <- result[T]{v: v, err: err}
	}()

	select {
	case r := <-ch:
		if r.err != nil {
			return fallback, r.err
		}
		return r.v, nil
	case <-ctx.Done():
		return fallback, ctx.Err()
	}
}
