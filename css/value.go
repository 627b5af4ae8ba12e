// Package css implements leaf parsers for computed CSS values captured by the
// extraction layer: scalar values with units, colors, filter function lists
// and transform function lists. Parsers are stateless and never fail hard -
// anything unparseable is reported back to the caller as such, the caller
// decides how to degrade.
package css

import (
	"strconv"
	"strings"
	"unicode"
)

// Value represents a parsed CSS property value.
type Value struct {
	Raw     string  // Original CSS value string (e.g., "1.2em", "bold", "#ff0000")
	Value   float64 // Numeric value if applicable
	Unit    string  // Unit if applicable: "em", "px", "%", "pt", etc.
	Keyword string  // Keyword if applicable: "bold", "italic", "center", etc.
}

// ParseValue parses a single CSS value string into its numeric/keyword parts.
func ParseValue(raw string) Value {
	v := Value{Raw: strings.TrimSpace(raw)}
	if v.Raw == "" {
		return v
	}

	first := rune(v.Raw[0])
	if !unicode.IsDigit(first) && first != '.' && first != '-' && first != '+' {
		v.Keyword = v.Raw
		return v
	}

	// Split numeric prefix from unit suffix. An exponent is only part of the
	// number when followed by a digit, so "1.2em" keeps its unit.
	i := 0
	for i < len(v.Raw) {
		c := v.Raw[i]
		if c >= '0' && c <= '9' || c == '.' || c == '-' || c == '+' {
			i++
			continue
		}
		if (c == 'e' || c == 'E') && i+1 < len(v.Raw) {
			next := v.Raw[i+1]
			if next >= '0' && next <= '9' {
				i += 2
				continue
			}
			if (next == '-' || next == '+') && i+2 < len(v.Raw) && v.Raw[i+2] >= '0' && v.Raw[i+2] <= '9' {
				i += 3
				continue
			}
		}
		break
	}
	num, err := strconv.ParseFloat(v.Raw[:i], 64)
	if err != nil {
		v.Keyword = v.Raw
		return v
	}
	v.Value = num
	v.Unit = strings.TrimSpace(v.Raw[i:])
	return v
}

// IsNumeric returns true if the value has a numeric component.
// This includes explicit zero values like "0" or "0px".
func (v Value) IsNumeric() bool {
	if v.Unit != "" {
		return true
	}
	if v.Value != 0 && v.Keyword == "" {
		return true
	}
	if v.Raw != "" && v.Keyword == "" {
		first := rune(v.Raw[0])
		if unicode.IsDigit(first) || first == '.' || first == '-' || first == '+' {
			return true
		}
	}
	return false
}

// IsKeyword returns true if the value is a keyword (no numeric component).
func (v Value) IsKeyword() bool {
	return v.Keyword != "" && v.Unit == ""
}

// Px converts the value to CSS pixels. Font-relative units resolve against
// fontSize, percentages against percentBase. Unknown units are treated as px
// which keeps captured computed values (always px) working.
func (v Value) Px(fontSize, percentBase float64) float64 {
	switch v.Unit {
	case "", "px":
		return v.Value
	case "pt":
		return v.Value * 96.0 / 72.0
	case "em":
		return v.Value * fontSize
	case "rem":
		return v.Value * 16.0
	case "%":
		return v.Value / 100.0 * percentBase
	default:
		return v.Value
	}
}

// ParsePositiveLength parses raw as a length and reports whether it is an
// author-specified positive dimension (used for FIXED vs AUTO axis sizing).
func ParsePositiveLength(raw string) (float64, bool) {
	v := ParseValue(raw)
	if !v.IsNumeric() || v.Keyword != "" {
		return 0, false
	}
	if v.Unit == "%" || v.Value <= 0 {
		return 0, false
	}
	return v.Px(16, 0), true
}
