package sampler

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmylchreest/shade/internal/colour"
	shadeimage "github.com/jmylchreest/shade/internal/image"
)

// ErrEmptyCapture is returned when a capture has no pixels.
var ErrEmptyCapture = errors.New("captured image is empty")

// Raster classifies the mean luminance of a downscaled capture.
type Raster struct {
	// Edge is the longest thumbnail edge in pixels.
	Edge int
}

// NewRaster returns a raster strategy. A non-positive edge uses the default.
func NewRaster(edge int) *Raster {
	if edge <= 0 {
		edge = shadeimage.DefaultThumbnailEdge
	}
	return &Raster{Edge: edge}
}

// Name implements Strategy.
func (r *Raster) Name() string {
	return "raster"
}

// Sample captures the surface. It requires a foreground target with a
// capture-capable surface.
func (r *Raster) Sample(ctx context.Context, t Target) (Result, error) {
	if t.Surface == nil || !t.Foreground {
		return Result{}, ErrUnavailable
	}

	img, err := t.Surface.Capture(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("capture failed: %w", err)
	}
	if img == nil || img.Bounds().Empty() {
		return Result{}, ErrEmptyCapture
	}

	thumb := shadeimage.Thumbnail(img, r.Edge)
	return Result{Theme: colour.ClassifyImage(thumb), Source: SourceRaster}, nil
}
