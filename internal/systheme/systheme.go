// Package systheme reads the host's preferred colour scheme.
package systheme

import (
	"sort"
	"strings"
	"sync"

	"github.com/jmylchreest/shade/internal/colour"
)

const (
	// SourceFallback means no detector answered.
	SourceFallback = "fallback"
	// SourceConfig means the preference came from configuration.
	SourceConfig = "config"
	// SourceStatic means the preference was fixed by the caller.
	SourceStatic = "static"
)

// Reader returns the current system theme.
type Reader interface {
	Read() colour.Theme
}

// Detector is one way of asking the host for its preference.
type Detector interface {
	Name() string
	Priority() int
	Available() bool
	Detect() (prefersDark, ok bool)
}

// Preference is the outcome of a capability probe.
type Preference struct {
	Theme  colour.Theme
	Source string
	// Supported is false when no detector or override answered.
	Supported bool
}

// Prober reports the preference together with where it came from.
type Prober interface {
	Probe() Preference
}

// Resolver tries a configured override, then detectors by descending
// priority. With nothing available it reports light.
type Resolver struct {
	mu        sync.RWMutex
	override  string
	detectors []Detector
}

// NewResolver returns a resolver. override accepts "dark", "light",
// "prefer-dark", "prefer-light"; "default" or "" defers to detectors.
func NewResolver(override string, detectors ...Detector) *Resolver {
	r := &Resolver{override: override}
	for _, d := range detectors {
		r.RegisterDetector(d)
	}
	return r
}

// DefaultDetectors returns the environment, GTK and gsettings detectors.
func DefaultDetectors() []Detector {
	return []Detector{NewEnvDetector(), NewGTKThemeDetector(), NewGsettingsDetector()}
}

// RegisterDetector adds a detector.
func (r *Resolver) RegisterDetector(d Detector) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.detectors = append(r.detectors, d)
	sort.SliceStable(r.detectors, func(i, j int) bool {
		return r.detectors[i].Priority() > r.detectors[j].Priority()
	})
}

// SetOverride replaces the configured override.
func (r *Resolver) SetOverride(v string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.override = v
}

// Probe queries the host. It is never cached.
func (r *Resolver) Probe() Preference {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if dark, ok := ParseScheme(r.override); ok {
		return Preference{Theme: themeOf(dark), Source: SourceConfig, Supported: true}
	}

	for _, d := range r.detectors {
		if !d.Available() {
			continue
		}
		if dark, ok := d.Detect(); ok {
			return Preference{Theme: themeOf(dark), Source: d.Name(), Supported: true}
		}
	}

	return Preference{Theme: colour.ThemeLight, Source: SourceFallback}
}

// Read implements Reader.
func (r *Resolver) Read() colour.Theme {
	return r.Probe().Theme
}

// ParseScheme interprets a colour-scheme string. ok is false for "default",
// "" and unknown values.
func ParseScheme(v string) (prefersDark, ok bool) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "dark", "prefer-dark":
		return true, true
	case "light", "prefer-light":
		return false, true
	}
	return false, false
}

func themeOf(dark bool) colour.Theme {
	if dark {
		return colour.ThemeDark
	}
	return colour.ThemeLight
}

// Static is a fixed preference.
type Static colour.Theme

// Read implements Reader.
func (s Static) Read() colour.Theme {
	return colour.Theme(s)
}

// Probe implements Prober.
func (s Static) Probe() Preference {
	return Preference{Theme: colour.Theme(s), Source: SourceStatic, Supported: true}
}

// ProbeReader probes r when it can report its source, otherwise wraps Read.
func ProbeReader(r Reader) Preference {
	if p, ok := r.(Prober); ok {
		return p.Probe()
	}
	return Preference{Theme: r.Read(), Source: "reader", Supported: true}
}
