package dom

import (
	"strings"

	"github.com/aymerick/douceur/parser"
)

// Declaration is a single CSS property declaration.
type Declaration struct {
	Property  string
	Value     string
	Important bool
}

// String formats the declaration as "property: value".
func (d Declaration) String() string {
	if d.Important {
		return d.Property + ": " + d.Value + " !important"
	}
	return d.Property + ": " + d.Value
}

// Style is an ordered list of inline declarations.
type Style struct {
	decls []Declaration
}

// ParseStyle parses the contents of a style attribute. Unparsable input
// degrades to a simple split on ";" and ":".
func ParseStyle(text string) *Style {
	s := &Style{}
	if strings.TrimSpace(text) == "" {
		return s
	}

	decls, err := parser.ParseDeclarations(text)
	if err != nil {
		return parseStyleLoose(text)
	}
	for _, d := range decls {
		s.set(Declaration{
			Property:  strings.ToLower(strings.TrimSpace(d.Property)),
			Value:     strings.TrimSpace(d.Value),
			Important: d.Important,
		})
	}
	return s
}

func parseStyleLoose(text string) *Style {
	s := &Style{}
	for _, part := range strings.Split(text, ";") {
		prop, value, ok := strings.Cut(part, ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		important := false
		if strings.HasSuffix(strings.ToLower(value), "!important") {
			important = true
			value = strings.TrimSpace(value[:len(value)-len("!important")])
		}
		prop = strings.ToLower(strings.TrimSpace(prop))
		if prop == "" {
			continue
		}
		s.set(Declaration{Property: prop, Value: value, Important: important})
	}
	return s
}

// Get returns a property value, or "" when unset.
func (s *Style) Get(prop string) string {
	if d, ok := s.lookup(prop); ok {
		return d.Value
	}
	return ""
}

// Declarations returns a copy of the declarations in order.
func (s *Style) Declarations() []Declaration {
	out := make([]Declaration, len(s.decls))
	copy(out, s.decls)
	return out
}

// Len returns the number of declarations.
func (s *Style) Len() int {
	return len(s.decls)
}

// Set sets a property, keeping its position and priority when it already
// exists.
func (s *Style) Set(prop, value string) {
	prop = strings.ToLower(prop)
	old, _ := s.lookup(prop)
	s.set(Declaration{Property: prop, Value: value, Important: old.Important})
}

// Remove deletes a property.
func (s *Style) Remove(prop string) {
	prop = strings.ToLower(prop)
	for i, d := range s.decls {
		if d.Property == prop {
			s.decls = append(s.decls[:i], s.decls[i+1:]...)
			return
		}
	}
}

// String serialises the declarations as "a: b; c: d".
func (s *Style) String() string {
	parts := make([]string, len(s.decls))
	for i, d := range s.decls {
		parts[i] = d.String()
	}
	return strings.Join(parts, "; ")
}

func (s *Style) lookup(prop string) (Declaration, bool) {
	prop = strings.ToLower(prop)
	for _, d := range s.decls {
		if d.Property == prop {
			return d, true
		}
	}
	return Declaration{}, false
}

func (s *Style) set(decl Declaration) {
	for i, d := range s.decls {
		if d.Property == decl.Property {
			s.decls[i] = decl
			return
		}
	}
	s.decls = append(s.decls, decl)
}

// Style returns the element's parsed inline style.
func (e *Element) Style() *Style {
	v, _ := e.Attr("style")
	return ParseStyle(v)
}

// SetStyle writes the inline style back to the style attribute. An empty
// style removes the attribute.
func (e *Element) SetStyle(s *Style) {
	if s.Len() == 0 {
		e.RemoveAttr("style")
		return
	}
	e.SetAttr("style", s.String())
}

// StyleProperty returns an inline style property.
func (e *Element) StyleProperty(prop string) string {
	return e.Style().Get(prop)
}

// SetStyleProperty sets a single inline style property.
func (e *Element) SetStyleProperty(prop, value string) {
	s := e.Style()
	s.Set(prop, value)
	e.SetStyle(s)
}

// RemoveStyleProperty removes a single inline style property.
func (e *Element) RemoveStyleProperty(prop string) {
	s := e.Style()
	if _, ok := s.lookup(prop); !ok {
		return
	}
	s.Remove(prop)
	e.SetStyle(s)
}
