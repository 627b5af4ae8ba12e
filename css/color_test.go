package css

import (
	"math"
	"testing"
)

func colorNear(a, b Color) bool {
	const eps = 0.004 // one 8-bit step
	return math.Abs(a.R-b.R) < eps && math.Abs(a.G-b.G) < eps &&
		math.Abs(a.B-b.B) < eps && math.Abs(a.A-b.A) < eps
}

func TestParseColor_Hex(t *testing.T) {
	cases := []struct {
		raw  string
		want Color
	}{
		{"#fff", Color{1, 1, 1, 1}},
		{"#000000", Color{0, 0, 0, 1}},
		{"#ff0000", Color{1, 0, 0, 1}},
		{"#ff000080", Color{1, 0, 0, 128.0 / 255.0}},
		{"#f00a", Color{1, 0, 0, 170.0 / 255.0}},
	}
	for _, c := range cases {
		got, ok := ParseColor(c.raw)
		if !ok || !colorNear(got, c.want) {
			t.Fatalf("ParseColor(%q) = %+v, %v", c.raw, got, ok)
		}
	}
}

func TestParseColor_Functions(t *testing.T) {
	cases := []struct {
		raw  string
		want Color
	}{
		{"rgb(255, 0, 0)", Color{1, 0, 0, 1}},
		{"rgba(0, 0, 255, 0.5)", Color{0, 0, 1, 0.5}},
		{"rgb(0 128 0 / 50%)", Color{0, 128.0 / 255.0, 0, 0.5}},
		{"hsl(0, 100%, 50%)", Color{1, 0, 0, 1}},
		{"hsl(120, 100%, 50%)", Color{0, 1, 0, 1}},
		{"hsla(240, 100%, 50%, 0.25)", Color{0, 0, 1, 0.25}},
	}
	for _, c := range cases {
		got, ok := ParseColor(c.raw)
		if !ok || !colorNear(got, c.want) {
			t.Fatalf("ParseColor(%q) = %+v, %v", c.raw, got, ok)
		}
	}
}

func TestParseColor_Keywords(t *testing.T) {
	if got, ok := ParseColor("transparent"); !ok || got.A != 0 {
		t.Fatalf("transparent: %+v, %v", got, ok)
	}
	if got, ok := ParseColor("Orange"); !ok || got.R != 1 {
		t.Fatalf("keyword case-insensitivity: %+v, %v", got, ok)
	}
	if _, ok := ParseColor("definitely-not-a-color"); ok {
		t.Fatal("expected parse failure")
	}
	if _, ok := ParseColor(""); ok {
		t.Fatal("expected parse failure for empty string")
	}
}
