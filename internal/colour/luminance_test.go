package colour

import (
	"image"
	"image/color"
	"math"
	"testing"
)

func TestLuminanceExtremes(t *testing.T) {
	if got := White.Luminance(); math.Abs(got-1) > 1e-9 {
		t.Errorf("White.Luminance() = %v, want 1", got)
	}
	if got := Black.Luminance(); got != 0 {
		t.Errorf("Black.Luminance() = %v, want 0", got)
	}
}

// TestLuminanceMonotonic checks that raising every channel strictly raises luminance.
func TestLuminanceMonotonic(t *testing.T) {
	for v := 0; v < 255; v++ {
		lo := Sample{R: uint8(v), G: uint8(v), B: uint8(v), A: 1}
		hi := Sample{R: uint8(v + 1), G: uint8(v + 1), B: uint8(v + 1), A: 1}
		if lo.Luminance() >= hi.Luminance() {
			t.Fatalf("Luminance(%d) = %v is not below Luminance(%d) = %v", v, lo.Luminance(), v+1, hi.Luminance())
		}
	}

	// Mixed channels.
	base := Sample{R: 10, G: 200, B: 90, A: 1}
	bumped := Sample{R: 11, G: 201, B: 91, A: 1}
	if base.Luminance() >= bumped.Luminance() {
		t.Errorf("expected %v < %v", base.Luminance(), bumped.Luminance())
	}
}

func TestLuminanceMatchesColorInterface(t *testing.T) {
	s := Sample{R: 18, G: 120, B: 240, A: 1}
	if got, want := Luminance(s.Color()), s.Luminance(); math.Abs(got-want) > 1e-12 {
		t.Errorf("Luminance(color) = %v, want %v", got, want)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		sample Sample
		want   Theme
	}{
		{name: "white", sample: White, want: ThemeLight},
		{name: "black", sample: Black, want: ThemeDark},
		{name: "mid grey", sample: Sample{R: 128, G: 128, B: 128, A: 1}, want: ThemeDark},
		{name: "near black", sample: Sample{R: 20, G: 20, B: 20, A: 1}, want: ThemeDark},
		{name: "light grey", sample: Sample{R: 230, G: 230, B: 230, A: 1}, want: ThemeLight},
		{name: "yellow", sample: Sample{R: 255, G: 255, B: 0, A: 1}, want: ThemeLight},
		{name: "blue", sample: Sample{R: 0, G: 0, B: 255, A: 1}, want: ThemeDark},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for i := 0; i < 3; i++ {
				if got := Classify(tt.sample); got != tt.want {
					t.Fatalf("Classify(%v) = %v, want %v", tt.sample, got, tt.want)
				}
			}
		})
	}
}

// TestClassifyBoundary documents that exactly Threshold is dark.
func TestClassifyBoundary(t *testing.T) {
	if got := classifyLuminance(Threshold); got != ThemeDark {
		t.Errorf("classifyLuminance(%v) = %v, want dark", Threshold, got)
	}
	if got := classifyLuminance(math.Nextafter(Threshold, 1)); got != ThemeLight {
		t.Errorf("classifyLuminance(just above threshold) = %v, want light", got)
	}
}

func TestCompare(t *testing.T) {
	if got := Compare(White, Black); got != ThemeLight {
		t.Errorf("Compare(white bg, black text) = %v, want light", got)
	}
	if got := Compare(Sample{R: 20, G: 20, B: 20, A: 1}, White); got != ThemeDark {
		t.Errorf("Compare(dark bg, white text) = %v, want dark", got)
	}
}

func TestMeanLuminance(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 2))
	for x := 0; x < 4; x++ {
		img.Set(x, 0, color.White)
		img.Set(x, 1, color.Black)
	}

	if got := MeanLuminance(img); math.Abs(got-0.5) > 1e-9 {
		t.Errorf("MeanLuminance() = %v, want 0.5", got)
	}
	if got := ClassifyImage(img); got != ThemeDark {
		t.Errorf("ClassifyImage(half white) = %v, want dark", got)
	}

	empty := image.NewRGBA(image.Rect(0, 0, 0, 0))
	if got := MeanLuminance(empty); got != 1 {
		t.Errorf("MeanLuminance(empty) = %v, want 1", got)
	}
}

func TestThemeHelpers(t *testing.T) {
	if ThemeLight.Complement() != ThemeDark || ThemeDark.Complement() != ThemeLight {
		t.Error("Complement() does not swap themes")
	}
	if ThemeLight.String() != "light" || ThemeDark.String() != "dark" {
		t.Error("String() returned unexpected names")
	}

	got, err := ParseTheme(" Dark ")
	if err != nil || got != ThemeDark {
		t.Errorf("ParseTheme(Dark) = %v, %v", got, err)
	}
	if _, err := ParseTheme("sepia"); err == nil {
		t.Error("expected error for unknown theme")
	}
}
