// Package dom provides an in-process HTML document model with inline styles,
// a simplified style cascade, host-supplied geometry and mutation observers.
//
// A Document is not safe for concurrent use. Code that touches a document from
// more than one goroutine (timers, samplers) must serialise through Do.
package dom

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/andybalholm/cascadia"
	"github.com/google/uuid"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// DefaultViewport is the size given to <html> and <body> when the host has
// not supplied explicit geometry.
var DefaultViewport = Rect{Width: 1280, Height: 720}

// Document is a parsed HTML document.
type Document struct {
	mu sync.Mutex

	id       string
	root     *html.Node
	handles  map[*html.Node]*Element
	bounds   map[*html.Node]Rect
	viewport Rect
	scheme   string

	sheets    []styleRule
	sheetsOK  bool
	observers []*Observer
}

// Parse reads an HTML document. The parser always synthesises <html>, <head>
// and <body> when they are absent.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	return newDocument(root), nil
}

// ParseString is Parse over a string.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

func newDocument(root *html.Node) *Document {
	return &Document{
		id:       uuid.NewString(),
		root:     root,
		handles:  make(map[*html.Node]*Element),
		bounds:   make(map[*html.Node]Rect),
		viewport: DefaultViewport,
		scheme:   "light",
	}
}

// ID returns the document's instance identifier.
func (d *Document) ID() string {
	return d.id
}

// Do runs fn while holding the document lock. It is not re-entrant.
func (d *Document) Do(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fn()
}

// SetViewport sets the default size of <html> and <body>.
func (d *Document) SetViewport(r Rect) {
	d.viewport = r
}

// Viewport returns the default size of <html> and <body>.
func (d *Document) Viewport() Rect {
	return d.viewport
}

// SetColorScheme sets the value "prefers-color-scheme" media queries are
// evaluated against ("light" or "dark").
func (d *Document) SetColorScheme(scheme string) {
	scheme = strings.ToLower(scheme)
	if scheme != d.scheme {
		d.scheme = scheme
		d.sheetsOK = false
	}
}

// ColorScheme returns the value used for "prefers-color-scheme" queries.
func (d *Document) ColorScheme() string {
	return d.scheme
}

// wrap returns the stable handle for n.
func (d *Document) wrap(n *html.Node) *Element {
	if n == nil || n.Type != html.ElementNode {
		return nil
	}
	if e, ok := d.handles[n]; ok {
		return e
	}
	e := &Element{doc: d, node: n}
	d.handles[n] = e
	return e
}

// DocumentElement returns the <html> element.
func (d *Document) DocumentElement() *Element {
	for c := d.root.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == atom.Html {
			return d.wrap(c)
		}
	}
	return nil
}

// Head returns the <head> element, or nil.
func (d *Document) Head() *Element {
	return d.childOfRoot(atom.Head)
}

// Body returns the <body> element, or nil.
func (d *Document) Body() *Element {
	return d.childOfRoot(atom.Body)
}

func (d *Document) childOfRoot(a atom.Atom) *Element {
	root := d.DocumentElement()
	if root == nil {
		return nil
	}
	for c := root.node.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == a {
			return d.wrap(c)
		}
	}
	return nil
}

// CreateElement returns a new detached element.
func (d *Document) CreateElement(tag string) *Element {
	tag = strings.ToLower(tag)
	n := &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Lookup([]byte(tag)),
		Data:     tag,
	}
	return d.wrap(n)
}

// GetElementByID returns the first element with the given id.
func (d *Document) GetElementByID(id string) *Element {
	var found *Element
	d.walk(d.root, func(n *html.Node) bool {
		for _, a := range n.Attr {
			if a.Key == "id" && a.Val == id {
				found = d.wrap(n)
				return false
			}
		}
		return true
	})
	return found
}

// QuerySelectorAll returns every element matching a CSS selector group, in
// document order.
func (d *Document) QuerySelectorAll(selector string) ([]*Element, error) {
	group, err := cascadia.ParseGroup(selector)
	if err != nil {
		return nil, fmt.Errorf("invalid selector %q: %w", selector, err)
	}
	return d.wrapAll(cascadia.QueryAll(d.root, group)), nil
}

// QuerySelector returns the first element matching selector, or nil.
func (d *Document) QuerySelector(selector string) (*Element, error) {
	group, err := cascadia.ParseGroup(selector)
	if err != nil {
		return nil, fmt.Errorf("invalid selector %q: %w", selector, err)
	}
	return d.wrap(cascadia.Query(d.root, group)), nil
}

func (d *Document) wrapAll(nodes []*html.Node) []*Element {
	out := make([]*Element, 0, len(nodes))
	for _, n := range nodes {
		if e := d.wrap(n); e != nil {
			out = append(out, e)
		}
	}
	return out
}

// walk visits element nodes under n in document order until fn returns false.
func (d *Document) walk(n *html.Node, fn func(*html.Node) bool) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && !fn(c) {
			return false
		}
		if !d.walk(c, fn) {
			return false
		}
	}
	return true
}

// Render writes the document as HTML.
func (d *Document) Render(w io.Writer) error {
	if err := html.Render(w, d.root); err != nil {
		return fmt.Errorf("failed to render document: %w", err)
	}
	return nil
}

// String renders the document, returning an empty string on failure.
func (d *Document) String() string {
	var buf bytes.Buffer
	if err := d.Render(&buf); err != nil {
		return ""
	}
	return buf.String()
}
