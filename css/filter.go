package css

import (
	"bytes"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

// FilterKind identifies a recognized CSS filter function.
type FilterKind int

const (
	FilterUnknown FilterKind = iota
	FilterBlur
	FilterDropShadow
	FilterBrightness
	FilterContrast
	FilterSaturate
	FilterGrayscale
	FilterHueRotate
	FilterInvert
	FilterOpacity
	FilterSepia
)

// String returns the CSS function name of the filter kind.
func (k FilterKind) String() string {
	switch k {
	case FilterBlur:
		return "blur"
	case FilterDropShadow:
		return "drop-shadow"
	case FilterBrightness:
		return "brightness"
	case FilterContrast:
		return "contrast"
	case FilterSaturate:
		return "saturate"
	case FilterGrayscale:
		return "grayscale"
	case FilterHueRotate:
		return "hue-rotate"
	case FilterInvert:
		return "invert"
	case FilterOpacity:
		return "opacity"
	case FilterSepia:
		return "sepia"
	default:
		return "unknown"
	}
}

// Filter is one parsed CSS filter function. Amount is normalized so that 1.0
// is the neutral value for scalar filters (brightness, contrast, saturate).
// Radius/offsets are CSS pixels.
type Filter struct {
	Kind     FilterKind
	Name     string // original function name, kept for unknown functions
	Amount   float64
	Radius   float64
	OffsetX  float64
	OffsetY  float64
	Color    Color
	HasColor bool
}

// ParseFilters parses a CSS filter function list ("blur(4px) brightness(1.2)").
// Unrecognized functions are tagged FilterUnknown and kept in place - the
// materializer treats any unknown entry as a reason to rasterize the whole
// chain.
func ParseFilters(raw string) []Filter {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, "none") {
		return nil
	}

	var filters []Filter
	l := css.NewLexer(parse.NewInput(bytes.NewReader([]byte(raw))))
	for {
		tt, data := l.Next()
		switch tt {
		case css.ErrorToken:
			return filters
		case css.FunctionToken:
			name := strings.ToLower(strings.TrimSuffix(string(data), "("))
			args := collectFunctionArgs(l)
			filters = append(filters, parseFilterFunction(name, args))
		case css.WhitespaceToken, css.CommaToken:
			// separators between functions
		case css.IdentToken:
			if strings.EqualFold(string(data), "none") {
				continue
			}
			filters = append(filters, Filter{Kind: FilterUnknown, Name: string(data)})
		}
	}
}

// HasUnknownFilter reports whether any filter in the chain was not recognized.
func HasUnknownFilter(filters []Filter) bool {
	for _, f := range filters {
		if f.Kind == FilterUnknown {
			return true
		}
	}
	return false
}

// collectFunctionArgs reads raw argument text of the current function until
// its closing parenthesis, keeping nested function calls (rgb() inside
// drop-shadow()) intact.
func collectFunctionArgs(l *css.Lexer) string {
	var b strings.Builder
	depth := 1
	for depth > 0 {
		tt, data := l.Next()
		switch tt {
		case css.ErrorToken:
			return b.String()
		case css.FunctionToken:
			depth++
		case css.RightParenthesisToken:
			depth--
			if depth == 0 {
				return b.String()
			}
		}
		b.Write(data)
	}
	return b.String()
}

func parseFilterFunction(name, args string) Filter {
	switch name {
	case "blur":
		return Filter{Kind: FilterBlur, Name: name, Radius: ParseValue(args).Px(16, 0)}
	case "brightness":
		return Filter{Kind: FilterBrightness, Name: name, Amount: parseFilterAmount(args)}
	case "contrast":
		return Filter{Kind: FilterContrast, Name: name, Amount: parseFilterAmount(args)}
	case "saturate":
		return Filter{Kind: FilterSaturate, Name: name, Amount: parseFilterAmount(args)}
	case "grayscale":
		return Filter{Kind: FilterGrayscale, Name: name, Amount: parseFilterAmount(args)}
	case "invert":
		return Filter{Kind: FilterInvert, Name: name, Amount: parseFilterAmount(args)}
	case "opacity":
		return Filter{Kind: FilterOpacity, Name: name, Amount: parseFilterAmount(args)}
	case "sepia":
		return Filter{Kind: FilterSepia, Name: name, Amount: parseFilterAmount(args)}
	case "hue-rotate":
		return Filter{Kind: FilterHueRotate, Name: name, Amount: parseAngleDeg(args)}
	case "drop-shadow":
		return parseDropShadow(args)
	default:
		return Filter{Kind: FilterUnknown, Name: name}
	}
}

// parseFilterAmount normalizes "0.5", "150%" and friends to a scalar where
// 1.0 is neutral.
func parseFilterAmount(args string) float64 {
	v := ParseValue(args)
	if v.Unit == "%" {
		return v.Value / 100.0
	}
	return v.Value
}

func parseAngleDeg(args string) float64 {
	v := ParseValue(args)
	switch v.Unit {
	case "rad":
		return v.Value * 180.0 / 3.141592653589793
	case "turn":
		return v.Value * 360.0
	case "grad":
		return v.Value * 0.9
	default:
		return v.Value
	}
}

// parseDropShadow parses "offset-x offset-y [blur-radius] [color]" where the
// color may appear first or last.
func parseDropShadow(args string) Filter {
	f := Filter{Kind: FilterDropShadow, Name: "drop-shadow"}

	var lengths []float64
	for _, part := range splitTopLevel(args) {
		if c, ok := ParseColor(part); ok && !ParseValue(part).IsNumeric() {
			f.Color, f.HasColor = c, true
			continue
		}
		v := ParseValue(part)
		if v.IsNumeric() {
			lengths = append(lengths, v.Px(16, 0))
		}
	}
	if len(lengths) > 0 {
		f.OffsetX = lengths[0]
	}
	if len(lengths) > 1 {
		f.OffsetY = lengths[1]
	}
	if len(lengths) > 2 {
		f.Radius = lengths[2]
	}
	return f
}

// splitTopLevel splits a value list at whitespace outside parentheses.
func splitTopLevel(s string) []string {
	var parts []string
	var b strings.Builder
	depth := 0
	for _, r := range s {
		switch r {
		case '(':
			depth++
			b.WriteRune(r)
		case ')':
			depth--
			b.WriteRune(r)
		case ' ', '\t', '\n':
			if depth > 0 {
				b.WriteRune(r)
				continue
			}
			if b.Len() > 0 {
				parts = append(parts, b.String())
				b.Reset()
			}
		default:
			b.WriteRune(r)
		}
	}
	if b.Len() > 0 {
		parts = append(parts, b.String())
	}
	return parts
}
