package dom

import (
	"strings"

	"github.com/andybalholm/cascadia"
	"github.com/aymerick/douceur/css"
	"github.com/aymerick/douceur/parser"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/jmylchreest/shade/internal/colour"
)

// initialValues are used when no rule sets a property.
var initialValues = map[string]string{
	"background-color": "transparent",
	"background-image": "none",
	"color":            "black",
	"filter":           "none",
	"width":            "auto",
	"height":           "auto",
}

// inherited lists the properties that inherit from the parent.
var inherited = map[string]bool{
	"color": true,
}

type styleRule struct {
	sel   cascadia.Sel
	spec  cascadia.Specificity
	order int
	decls []Declaration
}

// candidate is one declaration competing in the cascade.
type candidate struct {
	value     string
	important bool
	inline    bool
	spec      cascadia.Specificity
	order     int
}

func (c candidate) beats(o candidate) bool {
	if c.important != o.important {
		return c.important
	}
	if c.inline != o.inline {
		return c.inline
	}
	if c.spec != o.spec {
		return o.spec.Less(c.spec)
	}
	return c.order > o.order
}

// ComputedStyle resolves a property for the element from the document's
// <style> sheets and its inline style. Only background-color,
// background-image, color, filter, width and height are modelled; other
// properties return their cascaded value or "".
func (e *Element) ComputedStyle(prop string) string {
	prop = strings.ToLower(prop)

	best, ok := e.cascaded(prop)
	if ok {
		switch strings.ToLower(best.value) {
		case "inherit":
			return e.inheritedValue(prop)
		case "initial":
			return initialValues[prop]
		}
		return best.value
	}
	if inherited[prop] {
		return e.inheritedValue(prop)
	}
	return initialValues[prop]
}

func (e *Element) inheritedValue(prop string) string {
	if p := e.Parent(); p != nil {
		return p.ComputedStyle(prop)
	}
	return initialValues[prop]
}

func (e *Element) cascaded(prop string) (candidate, bool) {
	var (
		best  candidate
		found bool
	)
	consider := func(c candidate) {
		if !found || c.beats(best) {
			best = c
			found = true
		}
	}

	for _, r := range e.doc.rules() {
		if !r.sel.Match(e.node) {
			continue
		}
		for _, d := range r.decls {
			if v, ok := longhand(d, prop); ok {
				consider(candidate{value: v, important: d.Important, spec: r.spec, order: r.order})
			}
		}
	}

	for _, d := range e.Style().Declarations() {
		if v, ok := longhand(d, prop); ok {
			consider(candidate{value: v, important: d.Important, inline: true})
		}
	}

	return best, found
}

// longhand returns the value d contributes to prop, expanding the
// background shorthand.
func longhand(d Declaration, prop string) (string, bool) {
	if d.Property == prop {
		return d.Value, true
	}
	if d.Property != "background" {
		return "", false
	}

	switch prop {
	case "background-color", "background-image":
	default:
		return "", false
	}

	value := strings.TrimSpace(d.Value)
	if kw := strings.ToLower(value); kw == "inherit" || kw == "initial" {
		return kw, true
	}

	colourValue, imageValue := "transparent", "none"
	for _, tok := range splitValue(value) {
		lower := strings.ToLower(tok)
		switch {
		case strings.HasPrefix(lower, "url("),
			strings.HasSuffix(strings.SplitN(lower, "(", 2)[0], "gradient"):
			imageValue = tok
		default:
			if _, ok := colour.ParseColor(tok); ok {
				colourValue = tok
			}
		}
	}
	if prop == "background-color" {
		return colourValue, true
	}
	return imageValue, true
}

// splitValue splits a CSS value on whitespace outside parentheses.
func splitValue(v string) []string {
	var (
		out   []string
		depth int
		start = -1
	)
	for i, r := range v {
		switch {
		case r == '(':
			depth++
		case r == ')':
			if depth > 0 {
				depth--
			}
		case (r == ' ' || r == '\t' || r == '\n' || r == ',' || r == '/') && depth == 0:
			if start >= 0 {
				out = append(out, v[start:i])
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		out = append(out, v[start:])
	}
	return out
}

// rules returns the parsed author rules, reparsing when a <style> element
// or the colour scheme changed.
func (d *Document) rules() []styleRule {
	if d.sheetsOK {
		return d.sheets
	}

	d.sheets = d.sheets[:0]
	order := 0
	d.walk(d.root, func(n *html.Node) bool {
		if n.DataAtom != atom.Style {
			return true
		}
		sheet, err := parser.Parse(d.wrap(n).Text())
		if err != nil {
			return true
		}
		d.collectRules(sheet.Rules, &order)
		return true
	})
	d.sheetsOK = true
	return d.sheets
}

func (d *Document) collectRules(rules []*css.Rule, order *int) {
	for _, rule := range rules {
		switch rule.Kind {
		case css.QualifiedRule:
			decls := convertDeclarations(rule.Declarations)
			for _, text := range rule.Selectors {
				sel, err := cascadia.Parse(text)
				if err != nil || sel.PseudoElement() != "" {
					continue
				}
				*order++
				d.sheets = append(d.sheets, styleRule{
					sel:   sel,
					spec:  sel.Specificity(),
					order: *order,
					decls: decls,
				})
			}
		case css.AtRule:
			if strings.EqualFold(rule.Name, "@media") && d.mediaMatches(rule.Prelude) {
				d.collectRules(rule.Rules, order)
			}
		}
	}
}

func convertDeclarations(in []*css.Declaration) []Declaration {
	out := make([]Declaration, 0, len(in))
	for _, d := range in {
		out = append(out, Declaration{
			Property:  strings.ToLower(strings.TrimSpace(d.Property)),
			Value:     strings.TrimSpace(d.Value),
			Important: d.Important,
		})
	}
	return out
}

// mediaMatches evaluates a media query list against the document's
// screen-like environment. Unknown features never match.
func (d *Document) mediaMatches(prelude string) bool {
	for _, query := range strings.Split(prelude, ",") {
		if d.queryMatches(strings.ToLower(strings.TrimSpace(query))) {
			return true
		}
	}
	return false
}

func (d *Document) queryMatches(query string) bool {
	if query == "" {
		return true
	}

	negate := false
	if rest, ok := strings.CutPrefix(query, "not "); ok {
		negate = true
		query = rest
	}
	query = strings.TrimPrefix(query, "only ")

	match := true
	for _, part := range strings.Split(query, " and ") {
		if !d.mediaPartMatches(strings.TrimSpace(part)) {
			match = false
			break
		}
	}
	return match != negate
}

func (d *Document) mediaPartMatches(part string) bool {
	switch part {
	case "all", "screen":
		return true
	case "print", "speech":
		return false
	}
	if !strings.HasPrefix(part, "(") || !strings.HasSuffix(part, ")") {
		return false
	}

	feature, value, _ := strings.Cut(part[1:len(part)-1], ":")
	feature = strings.TrimSpace(feature)
	value = strings.TrimSpace(value)

	switch feature {
	case "prefers-color-scheme":
		return value == d.scheme
	case "min-width":
		px, ok := parsePixels(value)
		return ok && d.viewport.Width >= px
	case "max-width":
		px, ok := parsePixels(value)
		return ok && d.viewport.Width <= px
	case "min-height":
		px, ok := parsePixels(value)
		return ok && d.viewport.Height >= px
	case "max-height":
		px, ok := parsePixels(value)
		return ok && d.viewport.Height <= px
	}
	return false
}
