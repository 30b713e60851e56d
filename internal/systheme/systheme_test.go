package systheme

import (
	"errors"
	"testing"

	"github.com/jmylchreest/shade/internal/colour"
)

type fakeDetector struct {
	name      string
	priority  int
	available bool
	dark      bool
	ok        bool
}

func (f *fakeDetector) Name() string         { return f.name }
func (f *fakeDetector) Priority() int        { return f.priority }
func (f *fakeDetector) Available() bool      { return f.available }
func (f *fakeDetector) Detect() (bool, bool) { return f.dark, f.ok }

func env(vars map[string]string) func(string) string {
	return func(k string) string { return vars[k] }
}

func TestResolverOverride(t *testing.T) {
	detector := &fakeDetector{name: "d", priority: 1, available: true, dark: true, ok: true}

	tests := []struct {
		override   string
		want       colour.Theme
		wantSource string
	}{
		{override: "prefer-light", want: colour.ThemeLight, wantSource: SourceConfig},
		{override: "LIGHT", want: colour.ThemeLight, wantSource: SourceConfig},
		{override: "dark", want: colour.ThemeDark, wantSource: SourceConfig},
		{override: "default", want: colour.ThemeDark, wantSource: "d"},
		{override: "", want: colour.ThemeDark, wantSource: "d"},
	}

	for _, tt := range tests {
		t.Run(tt.override, func(t *testing.T) {
			got := NewResolver(tt.override, detector).Probe()
			if got.Theme != tt.want || got.Source != tt.wantSource || !got.Supported {
				t.Errorf("Probe() = %+v, want %v from %s", got, tt.want, tt.wantSource)
			}
		})
	}
}

func TestResolverPriority(t *testing.T) {
	low := &fakeDetector{name: "low", priority: 1, available: true, dark: false, ok: true}
	high := &fakeDetector{name: "high", priority: 9, available: true, dark: true, ok: true}
	unavailable := &fakeDetector{name: "off", priority: 100, available: false, dark: false, ok: true}
	silent := &fakeDetector{name: "silent", priority: 50, available: true, ok: false}

	got := NewResolver("", low, unavailable, silent, high).Probe()
	if got.Source != "high" || got.Theme != colour.ThemeDark {
		t.Errorf("Probe() = %+v, want dark from high", got)
	}
}

func TestResolverFallsBackToLight(t *testing.T) {
	r := NewResolver("", &fakeDetector{name: "off"})
	got := r.Probe()
	if got.Theme != colour.ThemeLight || got.Source != SourceFallback || got.Supported {
		t.Errorf("Probe() = %+v, want unsupported light fallback", got)
	}
	if r.Read() != colour.ThemeLight {
		t.Error("Read() should be light")
	}
}

func TestResolverReadsLive(t *testing.T) {
	d := &fakeDetector{name: "d", available: true, ok: true}
	r := NewResolver("", d)
	if r.Read() != colour.ThemeLight {
		t.Fatal("expected light")
	}
	d.dark = true
	if r.Read() != colour.ThemeDark {
		t.Error("Read() did not pick up the change")
	}
	r.SetOverride("light")
	if r.Read() != colour.ThemeLight {
		t.Error("override not applied")
	}
}

func TestEnvDetectors(t *testing.T) {
	e := &EnvDetector{Getenv: env(map[string]string{EnvVar: "prefer-dark"})}
	if dark, ok := e.Detect(); !e.Available() || !dark || !ok {
		t.Errorf("EnvDetector.Detect() = %v, %v", dark, ok)
	}

	bad := &EnvDetector{Getenv: env(map[string]string{EnvVar: "sepia"})}
	if _, ok := bad.Detect(); ok {
		t.Error("unknown value should not answer")
	}

	g := &GTKThemeDetector{Getenv: env(map[string]string{"GTK_THEME": "Adwaita:Dark"})}
	if dark, ok := g.Detect(); !dark || !ok {
		t.Errorf("GTKThemeDetector.Detect() = %v, %v", dark, ok)
	}
	none := &GTKThemeDetector{Getenv: env(nil)}
	if none.Available() {
		t.Error("GTK detector available without GTK_THEME")
	}
}

func TestGsettingsDetector(t *testing.T) {
	tests := []struct {
		output   string
		err      error
		wantDark bool
		wantOK   bool
	}{
		{output: "'prefer-dark'\n", wantDark: true, wantOK: true},
		{output: "'prefer-light'\n", wantOK: true},
		{output: "'default'\n"},
		{err: errors.New("no schema")},
	}

	for _, tt := range tests {
		d := &GsettingsDetector{
			LookPath: func(string) (string, error) { return "/usr/bin/gsettings", nil },
			Output: func(string, ...string) ([]byte, error) {
				return []byte(tt.output), tt.err
			},
		}
		dark, ok := d.Detect()
		if dark != tt.wantDark || ok != tt.wantOK {
			t.Errorf("Detect(%q) = %v, %v, want %v, %v", tt.output, dark, ok, tt.wantDark, tt.wantOK)
		}
	}

	missing := &GsettingsDetector{LookPath: func(string) (string, error) { return "", errors.New("not found") }}
	if missing.Available() {
		t.Error("Available() = true without binary")
	}
}

func TestStatic(t *testing.T) {
	if Static(colour.ThemeDark).Read() != colour.ThemeDark {
		t.Error("Static.Read() mismatch")
	}
	if p := ProbeReader(Static(colour.ThemeLight)); p.Source != SourceStatic || p.Theme != colour.ThemeLight {
		t.Errorf("ProbeReader() = %+v", p)
	}
}
