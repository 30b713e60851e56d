package colour

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// colourFunc matches rgb(), rgba(), hsl() and hsla() with any argument syntax.
var colourFunc = regexp.MustCompile(`^(rgba?|hsla?)\(\s*([^)]*)\)$`)

// namedColours holds the CSS basic colour keywords.
var namedColours = map[string]Sample{
	"black":   {R: 0, G: 0, B: 0, A: 1},
	"silver":  {R: 192, G: 192, B: 192, A: 1},
	"gray":    {R: 128, G: 128, B: 128, A: 1},
	"grey":    {R: 128, G: 128, B: 128, A: 1},
	"white":   {R: 255, G: 255, B: 255, A: 1},
	"maroon":  {R: 128, G: 0, B: 0, A: 1},
	"red":     {R: 255, G: 0, B: 0, A: 1},
	"purple":  {R: 128, G: 0, B: 128, A: 1},
	"fuchsia": {R: 255, G: 0, B: 255, A: 1},
	"green":   {R: 0, G: 128, B: 0, A: 1},
	"lime":    {R: 0, G: 255, B: 0, A: 1},
	"olive":   {R: 128, G: 128, B: 0, A: 1},
	"yellow":  {R: 255, G: 255, B: 0, A: 1},
	"navy":    {R: 0, G: 0, B: 128, A: 1},
	"blue":    {R: 0, G: 0, B: 255, A: 1},
	"teal":    {R: 0, G: 128, B: 128, A: 1},
	"aqua":    {R: 0, G: 255, B: 255, A: 1},
	"orange":  {R: 255, G: 165, B: 0, A: 1},

	"transparent": Transparent,
}

// ParseColor parses a CSS colour value.
// Supports: hex (#rgb, #rgba, #rrggbb, #rrggbbaa), rgb/rgba, hsl/hsla and the
// basic named colours. Returns false when the value is not a recognised colour.
func ParseColor(value string) (Sample, bool) {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return Sample{}, false
	}

	if s, ok := namedColours[value]; ok {
		return s, true
	}

	if strings.HasPrefix(value, "#") {
		return parseHex(value)
	}

	match := colourFunc.FindStringSubmatch(value)
	if match == nil {
		return Sample{}, false
	}

	args := splitArgs(match[2])
	switch match[1] {
	case "rgb", "rgba":
		return parseRGBArgs(args)
	default:
		return parseHSLArgs(args)
	}
}

// MustParseColor parses a CSS colour value, falling back to opaque white.
func MustParseColor(value string) Sample {
	if s, ok := ParseColor(value); ok {
		return s
	}
	return White
}

// parseHex handles the four hex notations. Alpha digits are split off before
// the colour part is handed to go-colorful.
func parseHex(value string) (Sample, bool) {
	digits := value[1:]
	alpha := 1.0

	switch len(digits) {
	case 4:
		a, err := strconv.ParseUint(strings.Repeat(digits[3:], 2), 16, 8)
		if err != nil {
			return Sample{}, false
		}
		alpha = float64(a) / 255.0
		digits = digits[:3]
	case 8:
		a, err := strconv.ParseUint(digits[6:], 16, 8)
		if err != nil {
			return Sample{}, false
		}
		alpha = float64(a) / 255.0
		digits = digits[:6]
	case 3, 6:
	default:
		return Sample{}, false
	}

	c, err := colorful.Hex("#" + digits)
	if err != nil {
		return Sample{}, false
	}
	r, g, b := c.Clamped().RGB255()
	return Sample{R: r, G: g, B: b, A: alpha}, true
}

// splitArgs splits function arguments in either the legacy comma syntax or
// the space syntax with a "/" alpha separator.
func splitArgs(raw string) []string {
	raw = strings.ReplaceAll(raw, "/", " ")
	raw = strings.ReplaceAll(raw, ",", " ")
	return strings.Fields(raw)
}

func parseRGBArgs(args []string) (Sample, bool) {
	if len(args) != 3 && len(args) != 4 {
		return Sample{}, false
	}

	var channels [3]uint8
	for i := 0; i < 3; i++ {
		v, ok := parseChannel(args[i])
		if !ok {
			return Sample{}, false
		}
		channels[i] = v
	}

	alpha := 1.0
	if len(args) == 4 {
		a, ok := parseAlpha(args[3])
		if !ok {
			return Sample{}, false
		}
		alpha = a
	}

	return Sample{R: channels[0], G: channels[1], B: channels[2], A: alpha}, true
}

func parseHSLArgs(args []string) (Sample, bool) {
	if len(args) != 3 && len(args) != 4 {
		return Sample{}, false
	}

	h, err := strconv.ParseFloat(strings.TrimSuffix(args[0], "deg"), 64)
	if err != nil {
		return Sample{}, false
	}
	s, ok := parsePercent(args[1])
	if !ok {
		return Sample{}, false
	}
	l, ok := parsePercent(args[2])
	if !ok {
		return Sample{}, false
	}

	alpha := 1.0
	if len(args) == 4 {
		a, ok := parseAlpha(args[3])
		if !ok {
			return Sample{}, false
		}
		alpha = a
	}

	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	r, g, b := colorful.Hsl(h, s, l).Clamped().RGB255()
	return Sample{R: r, G: g, B: b, A: alpha}, true
}

// parseChannel parses an rgb() channel given as 0-255 or a percentage.
func parseChannel(arg string) (uint8, bool) {
	if strings.HasSuffix(arg, "%") {
		p, ok := parsePercent(arg)
		if !ok {
			return 0, false
		}
		return uint8(math.Round(p * 255)), true
	}
	v, err := strconv.ParseFloat(arg, 64)
	if err != nil {
		return 0, false
	}
	return uint8(math.Round(math.Max(0, math.Min(255, v)))), true
}

// parsePercent parses "50%" into 0.5, clamped to [0,1].
func parsePercent(arg string) (float64, bool) {
	if !strings.HasSuffix(arg, "%") {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSuffix(arg, "%"), 64)
	if err != nil {
		return 0, false
	}
	return math.Max(0, math.Min(1, v/100)), true
}

// parseAlpha parses an alpha given as a number or a percentage.
func parseAlpha(arg string) (float64, bool) {
	if strings.HasSuffix(arg, "%") {
		return parsePercent(arg)
	}
	v, err := strconv.ParseFloat(arg, 64)
	if err != nil {
		return 0, false
	}
	return math.Max(0, math.Min(1, v)), true
}
