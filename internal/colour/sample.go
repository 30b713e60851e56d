package colour

import (
	"fmt"
	"image/color"
	"math"
	"strings"
)

// Theme is a binary light/dark classification.
type Theme int

const (
	// ThemeLight is a light page or preference (dark text on light background).
	ThemeLight Theme = iota
	// ThemeDark is a dark page or preference (light text on dark background).
	ThemeDark
)

// String returns "light" or "dark".
func (t Theme) String() string {
	if t == ThemeDark {
		return "dark"
	}
	return "light"
}

// Complement returns the opposite theme.
func (t Theme) Complement() Theme {
	if t == ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}

// ParseTheme parses "light" or "dark" (case-insensitive).
func ParseTheme(s string) (Theme, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "light":
		return ThemeLight, nil
	case "dark":
		return ThemeDark, nil
	default:
		return ThemeLight, fmt.Errorf("invalid theme: %q (valid: light, dark)", s)
	}
}

// Sample is a single colour with 8-bit channels and a [0,1] alpha.
type Sample struct {
	R uint8   `json:"r"`
	G uint8   `json:"g"`
	B uint8   `json:"b"`
	A float64 `json:"a"`
}

var (
	// White is opaque white, the fallback for unparsable colours.
	White = Sample{R: 255, G: 255, B: 255, A: 1}
	// Black is opaque black.
	Black = Sample{A: 1}
	// Transparent is fully transparent black.
	Transparent = Sample{}
)

// Luminance returns the relative luminance of the sample, ignoring alpha.
func (s Sample) Luminance() float64 {
	return relativeLuminance(s.R, s.G, s.B)
}

// IsTransparent reports whether the sample has zero alpha.
func (s Sample) IsTransparent() bool {
	return s.A <= 0
}

// Color converts the sample to a non-premultiplied color.NRGBA.
func (s Sample) Color() color.NRGBA {
	a := math.Round(math.Max(0, math.Min(1, s.A)) * 255)
	return color.NRGBA{R: s.R, G: s.G, B: s.B, A: uint8(a)}
}

// Hex returns the sample as #rrggbb, ignoring alpha.
func (s Sample) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", s.R, s.G, s.B)
}

// String returns the sample in CSS rgb()/rgba() notation.
func (s Sample) String() string {
	if s.A >= 1 {
		return fmt.Sprintf("rgb(%d, %d, %d)", s.R, s.G, s.B)
	}
	return fmt.Sprintf("rgba(%d, %d, %d, %g)", s.R, s.G, s.B, s.A)
}

// FromColor converts any color.Color to a Sample.
func FromColor(c color.Color) Sample {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return Sample{R: n.R, G: n.G, B: n.B, A: float64(n.A) / 255.0}
}
