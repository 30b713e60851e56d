package filter

import (
	"strings"

	"github.com/jmylchreest/shade/internal/dom"
)

// mediaTags always receive a counter-filter.
var mediaTags = map[string]bool{
	"img":    true,
	"video":  true,
	"canvas": true,
	"iframe": true,
	"frame":  true,
	"embed":  true,
	"object": true,
}

// skippedTags are never walked into.
var skippedTags = map[string]bool{
	"script":   true,
	"style":    true,
	"template": true,
	"noscript": true,
}

// Walk brings the counter-filters under <body> up to date and returns how
// many elements were newly tracked. Elements under a tracked ancestor are
// already corrected by it and are left alone.
func (a *Applicator) Walk() int {
	body := a.doc.Body()
	if body == nil {
		return 0
	}
	if a.watcher != nil {
		a.watcher.Pause()
		defer a.watcher.Resume()
	}

	for _, e := range a.Tracked() {
		if !body.Contains(e) || exempt(e) {
			a.untrack(e)
		}
	}

	return a.walk(body, false)
}

func (a *Applicator) walk(parent *dom.Element, covered bool) int {
	added := 0
	for _, e := range parent.Children() {
		tag := e.Tag()
		if skippedTags[tag] || e.HasAttr(ExemptAttr) {
			continue
		}

		_, isTracked := a.tracked[e]
		wants := !covered && tag != "a" && a.qualifies(e)
		switch {
		case isTracked && !wants:
			a.untrack(e)
		case !isTracked && wants:
			a.track(e)
			added++
		case isTracked && !HasToken(e.StyleProperty("filter")):
			// The page rewrote the style attribute and dropped Token.
			a.tracked[e] = a.addFilter(e, e.StyleProperty("filter"))
		}

		_, isTracked = a.tracked[e]
		added += a.walk(e, covered || isTracked)
	}
	return added
}

// qualifies reports whether e needs a counter-filter: it is media, has a
// url() background image, or carries its own filter.
func (a *Applicator) qualifies(e *dom.Element) bool {
	if mediaTags[e.Tag()] {
		return true
	}
	bg := strings.ToLower(strings.TrimSpace(e.ComputedStyle("background-image")))
	if strings.HasPrefix(bg, "url(") {
		return true
	}
	return ownFilter(e.ComputedStyle("filter")) != ""
}

func (a *Applicator) track(e *dom.Element) {
	base := e.StyleProperty("filter")
	if base == "" {
		base = ownFilter(e.ComputedStyle("filter"))
	}

	a.tracked[e] = a.addFilter(e, base)
	a.order = append(a.order, e)
	e.SetAttr(TrackingAttr, "true")
	a.logger.Trace("tracked", "element", e)
}

func (a *Applicator) untrack(e *dom.Element) {
	s, ok := a.tracked[e]
	if !ok {
		return
	}
	delete(a.tracked, e)
	for i, t := range a.order {
		if t == e {
			a.order = append(a.order[:i], a.order[i+1:]...)
			break
		}
	}

	e.RemoveAttr(TrackingAttr)
	a.restore(e, s)
	a.logger.Trace("untracked", "element", e)
}

// exempt reports whether e or an ancestor opts out.
func exempt(e *dom.Element) bool {
	for n := e; n != nil; n = n.Parent() {
		if n.HasAttr(ExemptAttr) {
			return true
		}
	}
	return false
}
