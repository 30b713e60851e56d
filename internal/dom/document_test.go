package dom

import (
	"strings"
	"testing"
)

func mustParse(t *testing.T, src string) *Document {
	t.Helper()
	doc, err := ParseString(src)
	if err != nil {
		t.Fatalf("ParseString() error = %v", err)
	}
	return doc
}

func TestParseSynthesisesSkeleton(t *testing.T) {
	doc := mustParse(t, "<p>hello</p>")

	if doc.DocumentElement() == nil {
		t.Fatal("DocumentElement() = nil")
	}
	if doc.Head() == nil || doc.Body() == nil {
		t.Fatal("expected synthesised head and body")
	}
	if doc.ID() == "" {
		t.Error("ID() is empty")
	}
	if got := doc.Body().Text(); got != "hello" {
		t.Errorf("Body().Text() = %q, want %q", got, "hello")
	}
}

func TestHandlesAreStable(t *testing.T) {
	doc := mustParse(t, `<div id="a"><img id="b"></div>`)

	a1 := doc.GetElementByID("a")
	a2, err := doc.QuerySelector("#a")
	if err != nil {
		t.Fatalf("QuerySelector() error = %v", err)
	}
	if a1 != a2 {
		t.Error("handles for the same node differ")
	}
	if b := doc.GetElementByID("b"); b.Parent() != a1 {
		t.Error("Parent() returned a different handle")
	}
}

func TestQuerySelectorAll(t *testing.T) {
	doc := mustParse(t, `<main><div class="x"></div><section></section><div></div></main>`)

	got, err := doc.QuerySelectorAll("div, section")
	if err != nil {
		t.Fatalf("QuerySelectorAll() error = %v", err)
	}
	var tags []string
	for _, e := range got {
		tags = append(tags, e.Tag())
	}
	if want := "div,section,div"; strings.Join(tags, ",") != want {
		t.Errorf("tags = %v, want %s", tags, want)
	}

	if _, err := doc.QuerySelectorAll("div[["); err == nil {
		t.Error("expected error for invalid selector")
	}
}

func TestAttributes(t *testing.T) {
	doc := mustParse(t, `<div id="a" class="one two"></div>`)
	e := doc.GetElementByID("a")

	if got := e.Classes(); len(got) != 2 || got[1] != "two" {
		t.Errorf("Classes() = %v", got)
	}
	e.SetAttr("Data-X", "1")
	if v, ok := e.Attr("data-x"); !ok || v != "1" {
		t.Errorf("Attr(data-x) = %q, %v", v, ok)
	}
	e.RemoveAttr("data-x")
	if e.HasAttr("data-x") {
		t.Error("attribute still present after RemoveAttr")
	}
}

func TestTreeEditing(t *testing.T) {
	doc := mustParse(t, `<div id="a"></div><div id="b"></div>`)
	a := doc.GetElementByID("a")
	b := doc.GetElementByID("b")

	img := doc.CreateElement("IMG")
	if img.Connected() {
		t.Error("new element should be detached")
	}
	a.AppendChild(img)
	if !img.Connected() || img.Parent() != a {
		t.Fatal("AppendChild did not attach")
	}

	b.AppendChild(img)
	if img.Parent() != b || len(a.Children()) != 0 {
		t.Error("AppendChild did not move the element")
	}

	added, err := a.AppendHTML(`<span>x</span><em>y</em>`)
	if err != nil {
		t.Fatalf("AppendHTML() error = %v", err)
	}
	if len(added) != 2 || !a.Contains(added[1]) {
		t.Errorf("AppendHTML() added %d elements", len(added))
	}

	img.Remove()
	if img.Connected() {
		t.Error("Remove() left the element connected")
	}
	if !strings.Contains(doc.String(), "<em>y</em>") {
		t.Errorf("String() = %q", doc.String())
	}
}
