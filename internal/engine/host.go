package engine

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strings"
	"sync"

	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/shade/internal/decision"
	"github.com/jmylchreest/shade/internal/dom"
	"github.com/jmylchreest/shade/internal/filter"
	"github.com/jmylchreest/shade/internal/sampler"
)

var (
	// ErrRestricted is returned for documents the host may not modify.
	ErrRestricted = errors.New("restricted document")
	// ErrNoDocument is returned for a tab without a document.
	ErrNoDocument = errors.New("tab has no document")
)

// restrictedSchemes are never injected into.
var restrictedSchemes = []string{
	"chrome:",
	"chrome-extension:",
	"about:",
	"edge:",
	"view-source:",
	"devtools:",
}

// Restricted reports whether rawURL is a privileged page.
func Restricted(rawURL string) bool {
	u := strings.ToLower(strings.TrimSpace(rawURL))
	for _, s := range restrictedSchemes {
		if strings.HasPrefix(u, s) {
			return true
		}
	}
	return false
}

// LocalHost is an in-process host over parsed documents. It keeps one
// filter.Applicator per document.
type LocalHost struct {
	filter filter.Options
	logger hclog.Logger

	mu          sync.Mutex
	applicators map[*dom.Document]*filter.Applicator
	surfaces    map[string]sampler.Capturer
	indicators  map[string]decision.Indicator
}

// NewLocalHost returns a host whose applicators use opts.
func NewLocalHost(opts filter.Options) *LocalHost {
	logger := opts.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &LocalHost{
		filter:      opts,
		logger:      logger.Named("host"),
		applicators: make(map[*dom.Document]*filter.Applicator),
		surfaces:    make(map[string]sampler.Capturer),
		indicators:  make(map[string]decision.Indicator),
	}
}

// SetSurface registers the render surface for a tab. A nil surface removes
// it.
func (h *LocalHost) SetSurface(tabID string, c sampler.Capturer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c == nil {
		delete(h.surfaces, tabID)
		return
	}
	h.surfaces[tabID] = c
}

// CanCapture implements CaptureProber.
func (h *LocalHost) CanCapture(tab Tab) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.surfaces[tab.ID]
	return ok && !Restricted(tab.URL)
}

// Capture implements Capturer.
func (h *LocalHost) Capture(ctx context.Context, tab Tab) (image.Image, error) {
	h.mu.Lock()
	c, ok := h.surfaces[tab.ID]
	h.mu.Unlock()
	if !ok || Restricted(tab.URL) {
		return nil, sampler.ErrUnavailable
	}
	return c.Capture(ctx)
}

// Inject implements Injector. Apply is gated on in.System, not on the
// applicator's own reader.
func (h *LocalHost) Inject(ctx context.Context, tab Tab, in Injection) (bool, error) {
	if Restricted(tab.URL) {
		return false, fmt.Errorf("%w: %s", ErrRestricted, tab.URL)
	}
	if tab.Document == nil {
		return false, ErrNoDocument
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	a := h.Applicator(tab.Document)
	var (
		active bool
		err    error
	)
	tab.Document.Do(func() {
		if in.Behavior == Apply {
			err = a.ApplyFor(in.System)
		} else {
			a.Remove()
		}
		active = a.Active()
	})
	if err != nil {
		return false, err
	}
	h.logger.Trace("injected", "tab", tab.ID, "behavior", in.Behavior, "active", active)
	return active, nil
}

// SetIndicator implements Presenter.
func (h *LocalHost) SetIndicator(tab Tab, ind decision.Indicator) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.indicators[tab.ID] = ind
}

// Indicator returns the last indicator set for a tab.
func (h *LocalHost) Indicator(tabID string) (decision.Indicator, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	ind, ok := h.indicators[tabID]
	return ind, ok
}

// Applicator returns the applicator for doc, creating it on first use.
func (h *LocalHost) Applicator(doc *dom.Document) *filter.Applicator {
	h.mu.Lock()
	defer h.mu.Unlock()
	a, ok := h.applicators[doc]
	if !ok {
		a = filter.New(doc, h.filter)
		h.applicators[doc] = a
	}
	return a
}

// Release removes the inversion from doc and forgets its applicator.
func (h *LocalHost) Release(doc *dom.Document) {
	h.mu.Lock()
	a, ok := h.applicators[doc]
	delete(h.applicators, doc)
	h.mu.Unlock()
	if ok {
		doc.Do(a.Remove)
	}
}

// Close releases every document.
func (h *LocalHost) Close() {
	h.mu.Lock()
	docs := make([]*dom.Document, 0, len(h.applicators))
	for doc := range h.applicators {
		docs = append(docs, doc)
	}
	h.mu.Unlock()
	for _, doc := range docs {
		h.Release(doc)
	}
}
