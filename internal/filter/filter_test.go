package filter

import (
	"strings"
	"testing"
	"time"

	"github.com/jmylchreest/shade/internal/colour"
	"github.com/jmylchreest/shade/internal/dom"
	"github.com/jmylchreest/shade/internal/systheme"
	"github.com/jmylchreest/shade/internal/watcher/watchertest"
)

const page = `<!DOCTYPE html><html><head><title>t</title><style>
.hero { background-image: url("hero.png"); }
.soft { filter: blur(1px); }
</style></head><body>
<img id="logo" src="logo.png" style="width: 10px">
<div id="hero" class="hero"><img id="nested" src="n.png"></div>
<div id="fx" style="filter: blur(2px)">x</div>
<div id="soft" class="soft">x</div>
<a id="link" href="/" style="background-image: url(a.png)"><video id="vid"></video></a>
<section data-shade-exempt><img id="exempt" src="e.png"></section>
<script>var x = 1;</script>
<p id="plain">text</p>
</body></html>`

func setup(t *testing.T, src string, opts Options) (*dom.Document, *Applicator, *watchertest.Clock) {
	t.Helper()
	doc, err := dom.ParseString(src)
	if err != nil {
		t.Fatalf("ParseString() error = %v", err)
	}
	clock := watchertest.NewClock()
	if opts.Clock == nil {
		opts.Clock = clock
	}
	a := New(doc, opts)
	t.Cleanup(func() { doc.Do(a.Remove) })
	return doc, a, clock
}

func ids(elements []*dom.Element) string {
	var out []string
	for _, e := range elements {
		out = append(out, e.ID())
	}
	return strings.Join(out, ",")
}

func TestApplyTracksCandidates(t *testing.T) {
	doc, a, _ := setup(t, page, Options{})

	if err := a.Apply(); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if !a.Active() || !a.Watching() {
		t.Fatal("expected active applicator with a live watcher")
	}

	if got, want := ids(a.Tracked()), "logo,hero,fx,soft,vid"; got != want {
		t.Errorf("Tracked() = %s, want %s", got, want)
	}

	style := doc.GetElementByID(StyleElementID)
	if style == nil || style.Parent() != doc.Head() || style.Text() != Stylesheet {
		t.Fatalf("stylesheet not installed: %v", style)
	}

	tests := []struct {
		id   string
		want string
	}{
		{id: "logo", want: "width: 10px; filter: " + Token},
		{id: "hero", want: "filter: " + Token},
		{id: "fx", want: "filter: blur(2px) " + Token},
		{id: "soft", want: "filter: blur(1px) " + Token},
	}
	for _, tt := range tests {
		e := doc.GetElementByID(tt.id)
		if got, _ := e.Attr("style"); got != tt.want {
			t.Errorf("%s style = %q, want %q", tt.id, got, tt.want)
		}
		if !e.HasAttr(TrackingAttr) {
			t.Errorf("%s missing %s", tt.id, TrackingAttr)
		}
	}

	for _, id := range []string{"nested", "exempt", "link", "plain"} {
		if doc.GetElementByID(id).HasAttr(TrackingAttr) {
			t.Errorf("%s should not be tracked", id)
		}
	}
}

func TestApplyRemoveRoundTrip(t *testing.T) {
	for _, mode := range []Mode{ModeStyleSheet, ModeRootStyle} {
		t.Run(mode.String(), func(t *testing.T) {
			doc, a, _ := setup(t, page, Options{Mode: mode})
			before := doc.String()

			if err := a.Apply(); err != nil {
				t.Fatalf("Apply() error = %v", err)
			}
			if doc.String() == before {
				t.Fatal("Apply() changed nothing")
			}

			a.Remove()
			if after := doc.String(); after != before {
				t.Errorf("round trip mismatch\nbefore: %s\nafter:  %s", before, after)
			}
			if a.Active() || a.Watching() || len(a.Tracked()) != 0 {
				t.Error("state left behind after Remove")
			}
		})
	}
}

func TestRootStyleMode(t *testing.T) {
	doc, a, _ := setup(t, `<html style="color: black"><body></body></html>`, Options{Mode: ModeRootStyle})

	if err := a.Apply(); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if got := doc.DocumentElement().StyleProperty("filter"); got != Token {
		t.Errorf("root filter = %q, want %q", got, Token)
	}
	if doc.GetElementByID(StyleElementID) != nil {
		t.Error("root mode should not install a stylesheet")
	}
}

func TestApplyIdempotent(t *testing.T) {
	doc, a, _ := setup(t, page, Options{})

	if err := a.Apply(); err != nil {
		t.Fatal(err)
	}
	once, tracked := doc.String(), ids(a.Tracked())

	if err := a.Apply(); err != nil {
		t.Fatal(err)
	}
	if doc.String() != once || ids(a.Tracked()) != tracked {
		t.Error("second Apply() changed the document")
	}
	if n := a.Walk(); n != 0 {
		t.Errorf("Walk() on converged document tracked %d", n)
	}
	if doc.String() != once {
		t.Error("Walk() on converged document changed it")
	}
}

func TestApplySkippedUnderDarkSystem(t *testing.T) {
	doc, a, _ := setup(t, page, Options{System: systheme.Static(colour.ThemeDark)})
	before := doc.String()

	if err := a.Apply(); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if doc.String() != before || a.Active() {
		t.Error("Apply() changed the document under a dark system theme")
	}
}

func TestApplyForUsesGivenTheme(t *testing.T) {
	doc, a, _ := setup(t, page, Options{System: systheme.Static(colour.ThemeDark)})
	before := doc.String()

	if err := a.ApplyFor(colour.ThemeDark); err != nil {
		t.Fatalf("ApplyFor(dark) error = %v", err)
	}
	if doc.String() != before || a.Active() {
		t.Error("ApplyFor(dark) changed the document")
	}

	// The given theme wins over Options.System.
	if err := a.ApplyFor(colour.ThemeLight); err != nil {
		t.Fatalf("ApplyFor(light) error = %v", err)
	}
	if !a.Active() {
		t.Error("ApplyFor(light) did not apply")
	}
}

func TestRemoveNeverApplied(t *testing.T) {
	doc, a, _ := setup(t, page, Options{})
	before := doc.String()
	a.Remove()
	a.Remove()
	if doc.String() != before {
		t.Error("Remove() on a clean document changed it")
	}
}

func TestRemovePreservesPageFilter(t *testing.T) {
	doc, a, _ := setup(t, page, Options{})
	if err := a.Apply(); err != nil {
		t.Fatal(err)
	}

	logo := doc.GetElementByID("logo")
	logo.SetAttr("style", "height: 4px; filter: sepia(1) "+Token+" contrast(2)")

	a.Remove()
	if got, _ := logo.Attr("style"); got != "height: 4px; filter: sepia(1) contrast(2)" {
		t.Errorf("style = %q", got)
	}
	if logo.HasAttr(TrackingAttr) {
		t.Error("tracking attribute not cleared")
	}
}

func TestRemoveSweepsStrayMarks(t *testing.T) {
	src := `<html><head><style>.hero { background-image: url(h.png) }</style></head><body>
<img id="logo" style="width: 10px"><div class="hero"></div><div style="filter: blur(2px)">x</div>
</body></html>`
	doc, a, _ := setup(t, src, Options{})
	clean := doc.String()
	if err := a.Apply(); err != nil {
		t.Fatal(err)
	}

	// A fresh applicator, as after a restart, still cleans the document.
	reloaded, err := dom.ParseString(doc.String())
	if err != nil {
		t.Fatal(err)
	}
	New(reloaded, Options{}).Remove()

	if got := reloaded.String(); got != clean {
		t.Errorf("stray marks left behind\nwant: %s\ngot:  %s", clean, got)
	}
}

func TestMutationReconvergence(t *testing.T) {
	doc, a, clock := setup(t, `<body><div id="root"></div></body>`, Options{Debounce: 500 * time.Millisecond})

	if err := a.Apply(); err != nil {
		t.Fatal(err)
	}
	if len(a.Tracked()) != 0 {
		t.Fatalf("Tracked() = %d, want 0", len(a.Tracked()))
	}

	var img *dom.Element
	doc.Do(func() {
		added, err := doc.GetElementByID("root").AppendHTML(`<img id="late" style="background-image: url(late.png)">`)
		if err != nil {
			t.Fatal(err)
		}
		img = added[0]
	})

	clock.Advance(499 * time.Millisecond)
	if img.HasAttr(TrackingAttr) {
		t.Fatal("tracked before the debounce window elapsed")
	}
	clock.Advance(time.Millisecond)

	if !img.HasAttr(TrackingAttr) || !HasToken(img.StyleProperty("filter")) {
		t.Errorf("late image not corrected: %s", doc.String())
	}
	if clock.Pending() != 0 {
		t.Error("Walk() re-triggered the watcher")
	}
}

func TestNestedCorrectionIsUntracked(t *testing.T) {
	doc, a, clock := setup(t, `<body><div id="wrap"><img id="inner"></div></body>`, Options{})
	if err := a.Apply(); err != nil {
		t.Fatal(err)
	}
	inner := doc.GetElementByID("inner")
	if !inner.HasAttr(TrackingAttr) {
		t.Fatal("inner image not tracked")
	}

	doc.Do(func() {
		doc.GetElementByID("wrap").SetAttr("style", "background-image: url(bg.png)")
	})
	clock.Advance(time.Second)

	if inner.HasAttr(TrackingAttr) || inner.HasAttr("style") {
		t.Errorf("inner image still corrected under a tracked ancestor: %s", doc.String())
	}
	if got := ids(a.Tracked()); got != "wrap" {
		t.Errorf("Tracked() = %s, want wrap", got)
	}
}

func TestExemptAfterApply(t *testing.T) {
	doc, a, clock := setup(t, `<body><div id="box"><img id="pic"></div></body>`, Options{})
	if err := a.Apply(); err != nil {
		t.Fatal(err)
	}

	doc.Do(func() {
		doc.GetElementByID("box").SetAttr("class", "x")
		doc.GetElementByID("box").SetAttr(ExemptAttr, "")
	})
	clock.Advance(time.Second)

	if pic := doc.GetElementByID("pic"); pic.HasAttr(TrackingAttr) || pic.HasAttr("style") {
		t.Errorf("exempt image still corrected: %s", doc.String())
	}
}

func TestWalkReassertsDroppedToken(t *testing.T) {
	doc, a, clock := setup(t, `<body><img id="pic"></body>`, Options{})
	if err := a.Apply(); err != nil {
		t.Fatal(err)
	}

	pic := doc.GetElementByID("pic")
	doc.Do(func() { pic.SetAttr("style", "opacity: 0.5") })
	clock.Advance(time.Second)

	if got, _ := pic.Attr("style"); got != "opacity: 0.5; filter: "+Token {
		t.Errorf("style = %q", got)
	}

	a.Remove()
	if got, _ := pic.Attr("style"); got != "opacity: 0.5" {
		t.Errorf("style after Remove = %q, want page value", got)
	}
}

func TestTokenHelpers(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: Token, want: ""},
		{in: "blur(2px) " + Token, want: "blur(2px)"},
		{in: "blur(2px)  " + Token + "   sepia(1)", want: "blur(2px) sepia(1)"},
		{in: "blur(2px)", want: "blur(2px)"},
	}
	for _, tt := range tests {
		if got := StripToken(tt.in); got != tt.want {
			t.Errorf("StripToken(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	if AppendToken("none") != Token || AppendToken("") != Token {
		t.Error("AppendToken() should replace none/empty")
	}
	if _, err := ParseMode("sideways"); err == nil {
		t.Error("ParseMode() accepted an unknown mode")
	}
}
