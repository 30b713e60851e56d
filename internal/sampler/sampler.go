// Package sampler classifies a page as light or dark, either from a raster
// capture of the visible area or from a weighted sample of its elements.
package sampler

import (
	"context"
	"errors"
	"image"

	"github.com/jmylchreest/shade/internal/colour"
	"github.com/jmylchreest/shade/internal/dom"
)

// ErrUnavailable is returned by a strategy that cannot run for a target.
var ErrUnavailable = errors.New("sampling strategy unavailable")

// Source records how a Result was produced.
type Source int

const (
	// SourceFallback means every strategy failed and the default was used.
	SourceFallback Source = iota
	// SourceRaster means the verdict came from a captured image.
	SourceRaster
	// SourceStructural means the verdict came from computed styles.
	SourceStructural
)

// String returns the source name.
func (s Source) String() string {
	switch s {
	case SourceRaster:
		return "raster"
	case SourceStructural:
		return "structural"
	default:
		return "fallback"
	}
}

// Result is the page theme for one evaluation.
type Result struct {
	Theme  colour.Theme
	Source Source
}

// Capturer captures the visible area of a render surface.
type Capturer interface {
	Capture(ctx context.Context) (image.Image, error)
}

// CaptureFunc adapts a function to Capturer.
type CaptureFunc func(ctx context.Context) (image.Image, error)

// Capture calls f.
func (f CaptureFunc) Capture(ctx context.Context) (image.Image, error) {
	return f(ctx)
}

// Target is what a strategy samples.
type Target struct {
	Document *dom.Document
	// Surface is nil when the host cannot capture.
	Surface Capturer
	// Foreground is true when the target is the visible tab.
	Foreground bool
}

// Strategy produces a page theme for a target.
type Strategy interface {
	Name() string
	Sample(ctx context.Context, t Target) (Result, error)
}
