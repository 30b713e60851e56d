package dom

import (
	"strconv"
	"strings"

	"golang.org/x/net/html/atom"
)

// Rect is an element's rendered box in CSS pixels.
type Rect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// Area returns the box area, or zero for a degenerate box.
func (r Rect) Area() float64 {
	if r.Width <= 0 || r.Height <= 0 {
		return 0
	}
	return r.Width * r.Height
}

// SetBounds overrides the box reported for e.
func (d *Document) SetBounds(e *Element, r Rect) {
	d.bounds[e.node] = r
}

// Bounds returns the element's box. Host-supplied bounds win. Otherwise
// <html> and <body> fill the viewport and other elements use pixel
// width/height from their computed style or attributes. Anything else has
// no area.
func (e *Element) Bounds() Rect {
	if r, ok := e.doc.bounds[e.node]; ok {
		return r
	}
	if e.node.DataAtom == atom.Html || e.node.DataAtom == atom.Body {
		return e.doc.viewport
	}

	w, wok := e.dimension("width")
	h, hok := e.dimension("height")
	if !wok || !hok {
		return Rect{}
	}
	return Rect{Width: w, Height: h}
}

func (e *Element) dimension(prop string) (float64, bool) {
	if v, ok := parsePixels(e.ComputedStyle(prop)); ok {
		return v, true
	}
	if attr, ok := e.Attr(prop); ok {
		return parsePixels(attr)
	}
	return 0, false
}

// parsePixels accepts "120", "120px" and "120.5px".
func parsePixels(v string) (float64, bool) {
	v = strings.TrimSpace(strings.ToLower(v))
	v = strings.TrimSuffix(v, "px")
	if v == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 {
		return 0, false
	}
	return f, true
}
