package css

import (
	"math"
	"strconv"
	"strings"
)

// Color is a dimensionless RGBA color, components in [0,1].
type Color struct {
	R, G, B, A float64
}

// Opaque returns true when alpha is fully opaque.
func (c Color) Opaque() bool {
	return c.A >= 1.0
}

// namedColors covers keywords the capture layer actually produces. Computed
// styles normally arrive as rgb()/rgba(), inline styles may carry keywords.
var namedColors = map[string]Color{
	"black":       {0, 0, 0, 1},
	"white":       {1, 1, 1, 1},
	"red":         {1, 0, 0, 1},
	"green":       {0, 128.0 / 255.0, 0, 1},
	"blue":        {0, 0, 1, 1},
	"gray":        {128.0 / 255.0, 128.0 / 255.0, 128.0 / 255.0, 1},
	"grey":        {128.0 / 255.0, 128.0 / 255.0, 128.0 / 255.0, 1},
	"silver":      {192.0 / 255.0, 192.0 / 255.0, 192.0 / 255.0, 1},
	"maroon":      {128.0 / 255.0, 0, 0, 1},
	"navy":        {0, 0, 128.0 / 255.0, 1},
	"teal":        {0, 128.0 / 255.0, 128.0 / 255.0, 1},
	"olive":       {128.0 / 255.0, 128.0 / 255.0, 0, 1},
	"purple":      {128.0 / 255.0, 0, 128.0 / 255.0, 1},
	"fuchsia":     {1, 0, 1, 1},
	"magenta":     {1, 0, 1, 1},
	"aqua":        {0, 1, 1, 1},
	"cyan":        {0, 1, 1, 1},
	"lime":        {0, 1, 0, 1},
	"yellow":      {1, 1, 0, 1},
	"orange":      {1, 165.0 / 255.0, 0, 1},
	"brown":       {165.0 / 255.0, 42.0 / 255.0, 42.0 / 255.0, 1},
	"pink":        {1, 192.0 / 255.0, 203.0 / 255.0, 1},
	"transparent": {0, 0, 0, 0},
}

// ParseColor parses a CSS color string.
// Supports: #RGB, #RGBA, #RRGGBB, #RRGGBBAA, rgb(), rgba(), hsl(), hsla()
// and common color keywords.
func ParseColor(raw string) (Color, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Color{}, false
	}

	if strings.HasPrefix(raw, "#") {
		return parseHexColor(raw[1:])
	}

	lower := strings.ToLower(raw)
	if c, ok := namedColors[lower]; ok {
		return c, true
	}

	open := strings.IndexByte(lower, '(')
	if open < 0 || !strings.HasSuffix(lower, ")") {
		return Color{}, false
	}
	fn := lower[:open]
	args := splitColorArgs(lower[open+1 : len(lower)-1])

	switch fn {
	case "rgb", "rgba":
		return parseRGBArgs(args)
	case "hsl", "hsla":
		return parseHSLArgs(args)
	}
	return Color{}, false
}

func parseHexColor(hex string) (Color, bool) {
	expand := func(c byte) string { return string(c) + string(c) }

	switch len(hex) {
	case 3:
		hex = expand(hex[0]) + expand(hex[1]) + expand(hex[2])
	case 4:
		hex = expand(hex[0]) + expand(hex[1]) + expand(hex[2]) + expand(hex[3])
	case 6, 8:
	default:
		return Color{}, false
	}

	parse := func(s string) (float64, bool) {
		v, err := strconv.ParseUint(s, 16, 16)
		if err != nil {
			return 0, false
		}
		return float64(v) / 255.0, true
	}

	r, ok1 := parse(hex[0:2])
	g, ok2 := parse(hex[2:4])
	b, ok3 := parse(hex[4:6])
	if !ok1 || !ok2 || !ok3 {
		return Color{}, false
	}
	a := 1.0
	if len(hex) == 8 {
		av, ok := parse(hex[6:8])
		if !ok {
			return Color{}, false
		}
		a = av
	}
	return Color{R: r, G: g, B: b, A: a}, true
}

// splitColorArgs handles both legacy "r, g, b" and modern "r g b / a" syntax.
func splitColorArgs(s string) []string {
	s = strings.ReplaceAll(s, "/", " ")
	if strings.Contains(s, ",") {
		parts := strings.Split(s, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return strings.Fields(s)
}

func parseColorComponent(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, "%") {
		v, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
		if err != nil {
			return 0, false
		}
		return clamp01(v / 100.0), true
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return clamp01(v / 255.0), true
}

func parseAlphaComponent(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, "%") {
		v, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
		if err != nil {
			return 0, false
		}
		return clamp01(v / 100.0), true
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return clamp01(v), true
}

func parseRGBArgs(args []string) (Color, bool) {
	if len(args) < 3 {
		return Color{}, false
	}
	r, ok1 := parseColorComponent(args[0])
	g, ok2 := parseColorComponent(args[1])
	b, ok3 := parseColorComponent(args[2])
	if !ok1 || !ok2 || !ok3 {
		return Color{}, false
	}
	a := 1.0
	if len(args) > 3 {
		av, ok := parseAlphaComponent(args[3])
		if !ok {
			return Color{}, false
		}
		a = av
	}
	return Color{R: r, G: g, B: b, A: a}, true
}

func parseHSLArgs(args []string) (Color, bool) {
	if len(args) < 3 {
		return Color{}, false
	}
	h, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSuffix(args[0], "deg"), "°"), 64)
	if err != nil {
		return Color{}, false
	}
	s, err := strconv.ParseFloat(strings.TrimSuffix(args[1], "%"), 64)
	if err != nil {
		return Color{}, false
	}
	l, err := strconv.ParseFloat(strings.TrimSuffix(args[2], "%"), 64)
	if err != nil {
		return Color{}, false
	}
	a := 1.0
	if len(args) > 3 {
		av, ok := parseAlphaComponent(args[3])
		if !ok {
			return Color{}, false
		}
		a = av
	}
	r, g, b := hslToRGB(math.Mod(math.Mod(h, 360)+360, 360)/360.0, clamp01(s/100.0), clamp01(l/100.0))
	return Color{R: r, G: g, B: b, A: a}, true
}

func hslToRGB(h, s, l float64) (r, g, b float64) {
	if s == 0 {
		return l, l, l
	}
	var q float64
	if l < 0.5 {
		q = l * (1 + s)
	} else {
		q = l + s - l*s
	}
	p := 2*l - q
	return hueToRGB(p, q, h+1.0/3.0), hueToRGB(p, q, h), hueToRGB(p, q, h-1.0/3.0)
}

func hueToRGB(p, q, t float64) float64 {
	if t < 0 {
		t++
	}
	if t > 1 {
		t--
	}
	switch {
	case t < 1.0/6.0:
		return p + (q-p)*6*t
	case t < 1.0/2.0:
		return q
	case t < 2.0/3.0:
		return p + (q-p)*(2.0/3.0-t)*6
	default:
		return p
	}
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
