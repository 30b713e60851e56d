package dom

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// Element is a stable handle to an element node. Handles for the same node
// compare equal.
type Element struct {
	doc  *Document
	node *html.Node
}

// Document returns the owning document.
func (e *Element) Document() *Document {
	return e.doc
}

// Tag returns the lower-case tag name.
func (e *Element) Tag() string {
	return strings.ToLower(e.node.Data)
}

// ID returns the id attribute.
func (e *Element) ID() string {
	v, _ := e.Attr("id")
	return v
}

// String returns a short description such as "img#logo".
func (e *Element) String() string {
	if id := e.ID(); id != "" {
		return fmt.Sprintf("%s#%s", e.Tag(), id)
	}
	return e.Tag()
}

// Parent returns the parent element, or nil at the top of the tree.
func (e *Element) Parent() *Element {
	return e.doc.wrap(e.node.Parent)
}

// Children returns the element children in order.
func (e *Element) Children() []*Element {
	var out []*Element
	for c := e.node.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			out = append(out, e.doc.wrap(c))
		}
	}
	return out
}

// Descendants returns every element below e in document order.
func (e *Element) Descendants() []*Element {
	var out []*Element
	e.doc.walk(e.node, func(n *html.Node) bool {
		out = append(out, e.doc.wrap(n))
		return true
	})
	return out
}

// Contains reports whether other is e or one of its descendants.
func (e *Element) Contains(other *Element) bool {
	for n := other.node; n != nil; n = n.Parent {
		if n == e.node {
			return true
		}
	}
	return false
}

// Connected reports whether the element is attached to its document.
func (e *Element) Connected() bool {
	for n := e.node; n != nil; n = n.Parent {
		if n == e.doc.root {
			return true
		}
	}
	return false
}

// Attr returns an attribute value and whether it is present.
func (e *Element) Attr(name string) (string, bool) {
	name = strings.ToLower(name)
	for _, a := range e.node.Attr {
		if a.Namespace == "" && a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

// HasAttr reports whether the attribute is present.
func (e *Element) HasAttr(name string) bool {
	_, ok := e.Attr(name)
	return ok
}

// SetAttr sets an attribute, notifying observers when the value changes.
func (e *Element) SetAttr(name, value string) {
	name = strings.ToLower(name)
	old, had := e.Attr(name)
	if had && old == value {
		return
	}

	if had {
		for i := range e.node.Attr {
			if e.node.Attr[i].Namespace == "" && e.node.Attr[i].Key == name {
				e.node.Attr[i].Val = value
				break
			}
		}
	} else {
		e.node.Attr = append(e.node.Attr, html.Attribute{Key: name, Val: value})
	}

	e.doc.notify(Record{Type: RecordAttributes, Target: e, AttributeName: name, OldValue: old})
}

// RemoveAttr removes an attribute if present.
func (e *Element) RemoveAttr(name string) {
	name = strings.ToLower(name)
	for i, a := range e.node.Attr {
		if a.Namespace == "" && a.Key == name {
			e.node.Attr = append(e.node.Attr[:i], e.node.Attr[i+1:]...)
			e.doc.notify(Record{Type: RecordAttributes, Target: e, AttributeName: name, OldValue: a.Val})
			return
		}
	}
}

// Classes returns the class list.
func (e *Element) Classes() []string {
	v, _ := e.Attr("class")
	return strings.Fields(v)
}

// Text returns the concatenated text content.
func (e *Element) Text() string {
	var b strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.TextNode {
				b.WriteString(c.Data)
			}
			collect(c)
		}
	}
	collect(e.node)
	return b.String()
}

// SetText replaces all children with a single text node.
func (e *Element) SetText(text string) {
	var removed []*Element
	for c := e.node.FirstChild; c != nil; {
		next := c.NextSibling
		if c.Type == html.ElementNode {
			removed = append(removed, e.doc.wrap(c))
		}
		e.node.RemoveChild(c)
		c = next
	}
	e.node.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	e.doc.notify(Record{Type: RecordChildList, Target: e, Removed: removed})
}

// AppendChild appends child, detaching it from any previous parent.
func (e *Element) AppendChild(child *Element) {
	e.InsertBefore(child, nil)
}

// InsertBefore inserts child before ref. A nil ref appends.
func (e *Element) InsertBefore(child, ref *Element) {
	if child.node.Parent != nil {
		child.Remove()
	}
	if ref == nil {
		e.node.AppendChild(child.node)
	} else {
		e.node.InsertBefore(child.node, ref.node)
	}
	e.doc.notify(Record{Type: RecordChildList, Target: e, Added: []*Element{child}})
}

// AppendHTML parses an HTML fragment in the context of e and appends the
// resulting nodes. It returns the appended top-level elements.
func (e *Element) AppendHTML(fragment string) ([]*Element, error) {
	nodes, err := html.ParseFragment(strings.NewReader(fragment), e.node)
	if err != nil {
		return nil, fmt.Errorf("failed to parse fragment: %w", err)
	}

	var added []*Element
	for _, n := range nodes {
		e.node.AppendChild(n)
		if n.Type == html.ElementNode {
			added = append(added, e.doc.wrap(n))
		}
	}
	e.doc.notify(Record{Type: RecordChildList, Target: e, Added: added})
	return added, nil
}

// Remove detaches the element from its parent.
func (e *Element) Remove() {
	parent := e.node.Parent
	if parent == nil {
		return
	}
	target := e.doc.wrap(parent)
	parent.RemoveChild(e.node)
	if target != nil {
		e.doc.notify(Record{Type: RecordChildList, Target: target, Removed: []*Element{e}})
	} else {
		e.doc.sheetsOK = false
	}
}
