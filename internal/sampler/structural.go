package sampler

import (
	"context"

	"github.com/jmylchreest/shade/internal/colour"
	"github.com/jmylchreest/shade/internal/dom"
)

// ContainerSelector picks the block containers sampled after <body> and
// <html>.
const ContainerSelector = "div, main, header, section, article, nav"

// DefaultSampleLimit bounds how many containers are sampled.
const DefaultSampleLimit = 20

// Structural weighs the effective background of representative elements by
// their rendered area.
type Structural struct {
	Limit int
}

// NewStructural returns a structural strategy. A non-positive limit uses the
// default.
func NewStructural(limit int) *Structural {
	if limit <= 0 {
		limit = DefaultSampleLimit
	}
	return &Structural{Limit: limit}
}

// Name implements Strategy.
func (s *Structural) Name() string {
	return "structural"
}

// Sample walks the document under its lock.
func (s *Structural) Sample(ctx context.Context, t Target) (Result, error) {
	if t.Document == nil {
		return Result{}, ErrUnavailable
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	var (
		res Result
		err error
	)
	t.Document.Do(func() {
		res, err = s.sample(t.Document)
	})
	return res, err
}

func (s *Structural) sample(doc *dom.Document) (Result, error) {
	elements, err := s.elements(doc)
	if err != nil {
		return Result{}, err
	}

	var light, dark float64
	for _, e := range elements {
		area := e.Bounds().Area()
		if area == 0 {
			continue
		}
		if colour.Classify(EffectiveBackground(e)) == colour.ThemeLight {
			light += area
		} else {
			dark += area
		}
	}

	if light+dark == 0 {
		return s.compare(doc)
	}

	theme := colour.ThemeDark
	if light > dark {
		theme = colour.ThemeLight
	}
	return Result{Theme: theme, Source: SourceStructural}, nil
}

func (s *Structural) elements(doc *dom.Document) ([]*dom.Element, error) {
	var out []*dom.Element
	if body := doc.Body(); body != nil {
		out = append(out, body)
	}
	if root := doc.DocumentElement(); root != nil {
		out = append(out, root)
	}

	containers, err := doc.QuerySelectorAll(ContainerSelector)
	if err != nil {
		return nil, err
	}
	if len(containers) > s.Limit {
		containers = containers[:s.Limit]
	}
	return append(out, containers...), nil
}

// compare is the single-element fallback when no sampled element has area.
func (s *Structural) compare(doc *dom.Document) (Result, error) {
	e := doc.Body()
	if e == nil {
		e = doc.DocumentElement()
	}
	if e == nil {
		return Result{}, ErrUnavailable
	}

	bg := EffectiveBackground(e)
	text := colour.MustParseColor(e.ComputedStyle("color"))
	return Result{Theme: colour.Compare(bg, text), Source: SourceStructural}, nil
}

// EffectiveBackground returns the first non-transparent computed
// background-color from e up through its ancestors, or opaque white.
func EffectiveBackground(e *dom.Element) colour.Sample {
	for n := e; n != nil; n = n.Parent() {
		c, ok := colour.ParseColor(n.ComputedStyle("background-color"))
		if ok && !c.IsTransparent() {
			return c
		}
	}
	return colour.White
}
