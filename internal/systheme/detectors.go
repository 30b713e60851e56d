package systheme

import (
	"os"
	"os/exec"
	"strings"
)

const (
	// EnvVar overrides every other detector.
	EnvVar = "SHADE_COLOR_SCHEME"

	priorityEnv       = 30
	priorityGTK       = 20
	priorityGsettings = 10
)

// EnvDetector reads SHADE_COLOR_SCHEME.
type EnvDetector struct {
	Getenv func(string) string
}

// NewEnvDetector returns a detector reading the process environment.
func NewEnvDetector() *EnvDetector {
	return &EnvDetector{Getenv: os.Getenv}
}

// Name implements Detector.
func (*EnvDetector) Name() string { return EnvVar }

// Priority implements Detector.
func (*EnvDetector) Priority() int { return priorityEnv }

// Available implements Detector.
func (d *EnvDetector) Available() bool {
	return d.Getenv(EnvVar) != ""
}

// Detect implements Detector.
func (d *EnvDetector) Detect() (prefersDark, ok bool) {
	return ParseScheme(d.Getenv(EnvVar))
}

// GTKThemeDetector treats a GTK_THEME containing "dark" as a dark preference.
type GTKThemeDetector struct {
	Getenv func(string) string
}

// NewGTKThemeDetector returns a detector reading the process environment.
func NewGTKThemeDetector() *GTKThemeDetector {
	return &GTKThemeDetector{Getenv: os.Getenv}
}

// Name implements Detector.
func (*GTKThemeDetector) Name() string { return "GTK_THEME" }

// Priority implements Detector.
func (*GTKThemeDetector) Priority() int { return priorityGTK }

// Available implements Detector.
func (d *GTKThemeDetector) Available() bool {
	return d.Getenv("GTK_THEME") != ""
}

// Detect implements Detector.
func (d *GTKThemeDetector) Detect() (prefersDark, ok bool) {
	theme := d.Getenv("GTK_THEME")
	if theme == "" {
		return false, false
	}
	return strings.Contains(strings.ToLower(theme), "dark"), true
}

// GsettingsDetector asks GNOME for org.gnome.desktop.interface color-scheme.
type GsettingsDetector struct {
	LookPath func(string) (string, error)
	Output   func(name string, args ...string) ([]byte, error)
}

// NewGsettingsDetector returns a detector that runs the gsettings binary.
func NewGsettingsDetector() *GsettingsDetector {
	return &GsettingsDetector{
		LookPath: exec.LookPath,
		Output: func(name string, args ...string) ([]byte, error) {
			return exec.Command(name, args...).Output() // #nosec G204 - fixed command
		},
	}
}

// Name implements Detector.
func (*GsettingsDetector) Name() string { return "gsettings" }

// Priority implements Detector.
func (*GsettingsDetector) Priority() int { return priorityGsettings }

// Available implements Detector.
func (d *GsettingsDetector) Available() bool {
	_, err := d.LookPath("gsettings")
	return err == nil
}

// Detect implements Detector. "default" is not an answer.
func (d *GsettingsDetector) Detect() (prefersDark, ok bool) {
	out, err := d.Output("gsettings", "get", "org.gnome.desktop.interface", "color-scheme")
	if err != nil {
		return false, false
	}

	switch strings.Trim(strings.TrimSpace(string(out)), `'"`) {
	case "prefer-dark":
		return true, true
	case "prefer-light":
		return false, true
	}
	return false, false
}
