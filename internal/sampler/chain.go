package sampler

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/shade/internal/colour"
)

// Options configures the default chain.
type Options struct {
	ThumbnailEdge int
	SampleLimit   int
	Logger        hclog.Logger
}

// Chain tries strategies in order and fails open to light.
type Chain struct {
	strategies []Strategy
	logger     hclog.Logger
}

// NewChain returns a chain over strategies.
func NewChain(logger hclog.Logger, strategies ...Strategy) *Chain {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Chain{strategies: strategies, logger: logger}
}

// Default returns Chain(Raster, Structural).
func Default(opts Options) *Chain {
	return NewChain(opts.Logger, NewRaster(opts.ThumbnailEdge), NewStructural(opts.SampleLimit))
}

// Sample returns the first successful strategy result. It never fails.
func (c *Chain) Sample(ctx context.Context, t Target) Result {
	for _, s := range c.strategies {
		res, err := c.try(ctx, s, t)
		if err == nil {
			c.logger.Debug("page theme sampled", "strategy", s.Name(), "theme", res.Theme)
			return res
		}
		c.logger.Debug("sampling strategy failed", "strategy", s.Name(), "error", err)
		if ctx.Err() != nil {
			break
		}
	}
	return Result{Theme: colour.ThemeLight, Source: SourceFallback}
}

func (c *Chain) try(ctx context.Context, s Strategy, t Target) (res Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("strategy %s panicked: %v", s.Name(), r)
		}
	}()
	return s.Sample(ctx, t)
}
