// Package colour classifies colours and images as light or dark.
package colour

import (
	"image"
	"image/color"
	"math"
)

// Threshold is the luminance boundary between dark and light.
// A luminance of exactly Threshold classifies as dark.
const Threshold = 0.5

// Luminance calculates the relative luminance of a colour according to WCAG 2.0.
// Returns a value between 0 (darkest) and 1 (lightest). Alpha is ignored.
// https://www.w3.org/TR/WCAG20/#relativeluminancedef.
func Luminance(c color.Color) float64 {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return relativeLuminance(n.R, n.G, n.B)
}

// relativeLuminance applies per-channel linearisation and the WCAG weights.
func relativeLuminance(r, g, b uint8) float64 {
	rf := linearize(float64(r) / 255.0)
	gf := linearize(float64(g) / 255.0)
	bf := linearize(float64(b) / 255.0)

	return 0.2126*rf + 0.7152*gf + 0.0722*bf
}

// linearize converts an sRGB channel in [0,1] to linear light.
func linearize(v float64) float64 {
	if v <= 0.03928 {
		return v / 12.92
	}
	return math.Pow((v+0.055)/1.055, 2.4)
}

// Classify returns ThemeDark when the sample's luminance is at or below
// Threshold and ThemeLight otherwise.
func Classify(s Sample) Theme {
	return classifyLuminance(s.Luminance())
}

// ClassifyString parses a CSS colour string and classifies it.
// Unparsable strings are treated as opaque white.
func ClassifyString(s string) Theme {
	return Classify(MustParseColor(s))
}

// Compare classifies a background against its text colour. The result is
// dark when the background is darker than the text.
func Compare(background, text Sample) Theme {
	if background.Luminance() < text.Luminance() {
		return ThemeDark
	}
	return ThemeLight
}

// MeanLuminance returns the average luminance over every pixel of img.
// Empty images report 1 (white).
func MeanLuminance(img image.Image) float64 {
	bounds := img.Bounds()
	pixels := bounds.Dx() * bounds.Dy()
	if pixels <= 0 {
		return 1
	}

	var total float64
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			total += Luminance(img.At(x, y))
		}
	}
	return total / float64(pixels)
}

// ClassifyImage classifies img by its mean luminance.
func ClassifyImage(img image.Image) Theme {
	return classifyLuminance(MeanLuminance(img))
}

func classifyLuminance(l float64) Theme {
	if l > Threshold {
		return ThemeLight
	}
	return ThemeDark
}
