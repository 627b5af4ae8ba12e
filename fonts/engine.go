// Package fonts resolves requested (family, style) pairs against a catalog of
// available fonts, walking static fallback chains and compensating for glyph
// metric differences when substitution changes the family.
package fonts

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ErrNoUsableFont is returned when the whole fallback chain, including the
// fixed default, failed. The caller degrades the text node to a placeholder.
var ErrNoUsableFont = errors.New("no usable font")

// Resolution is the outcome of one font request. MetricsRatio is 1.0 when the
// requested family itself resolved; otherwise it is the height-compensation
// factor the materializer multiplies into font size, line height and letter
// spacing.
type Resolution struct {
	Family       string
	Style        string
	MetricsRatio float64
}

// defaultFamily is the last-resort font tried after every chain candidate.
const defaultFamily = "Inter"

// fallbackChains maps a normalized requested family to the ordered candidate
// families tried in its place. The requested family itself is always tried
// first; chains list what comes after.
var fallbackChains = map[string][]string{
	"helvetica neue":  {"Helvetica", "Arial", "Roboto"},
	"helvetica":       {"Helvetica Neue", "Arial", "Roboto"},
	"arial":           {"Helvetica", "Roboto"},
	"segoe ui":        {"Tahoma", "Arial", "Roboto"},
	"san francisco":   {"Helvetica Neue", "Arial", "Inter"},
	"-apple-system":   {"Helvetica Neue", "Arial", "Inter"},
	"roboto":          {"Arial", "Helvetica"},
	"inter":           {"Roboto", "Arial"},
	"times":           {"Times New Roman", "Georgia"},
	"times new roman": {"Georgia", "Garamond"},
	"georgia":         {"Times New Roman", "Garamond"},
	"garamond":        {"Georgia", "Times New Roman"},
	"courier":         {"Courier New"},
	"courier new":     {"Courier New"},
	"menlo":           {"Courier New"},
	"monaco":          {"Courier New"},
	"consolas":        {"Courier New"},
	"verdana":         {"Tahoma", "Arial"},
	"tahoma":          {"Verdana", "Arial"},

	// generic CSS families
	"sans-serif": {"Arial", "Helvetica", "Roboto"},
	"serif":      {"Times New Roman", "Georgia"},
	"monospace":  {"Courier New"},
	"cursive":    {"Georgia"},
	"fantasy":    {"Arial"},
}

// genericChain is used for families with no dedicated chain.
var genericChain = []string{"Arial", "Helvetica", "Roboto"}

// fontAspect is the approximate x-height to em-size ratio per family, the
// same quantity CSS font-size-adjust works with. Substitution scales by the
// ratio of requested to resolved aspect so the substituted text occupies
// roughly the original visual box.
var fontAspect = map[string]float64{
	"helvetica neue":  0.517,
	"helvetica":       0.523,
	"arial":           0.519,
	"verdana":         0.545,
	"tahoma":          0.545,
	"trebuchet ms":    0.524,
	"segoe ui":        0.500,
	"roboto":          0.528,
	"inter":           0.545,
	"times new roman": 0.447,
	"times":           0.447,
	"georgia":         0.481,
	"garamond":        0.383,
	"courier new":     0.423,
	"courier":         0.423,
}

const defaultAspect = 0.519 // families absent from the table behave like Arial

type resolveKey struct {
	family string
	style  string
}

type resolveResult struct {
	res Resolution
	err error
}

// Engine memoizes font resolution for one conversion run. Not safe for
// concurrent use - one engine belongs to one run.
type Engine struct {
	catalog Catalog
	cache   map[resolveKey]resolveResult
	titler  cases.Caser
	log     *zap.Logger
}

// NewEngine creates an engine over the given catalog; a nil catalog gets the
// web-safe default.
func NewEngine(catalog Catalog, log *zap.Logger) *Engine {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		catalog: catalog,
		cache:   make(map[resolveKey]resolveResult),
		titler:  cases.Title(language.English),
		log:     log.Named("fonts"),
	}
}

// Resolve maps a requested family and style to an available font. Results,
// including failures, are cached for the run so a missing font never walks
// the full chain twice.
func (e *Engine) Resolve(family, style string) (Resolution, error) {
	key := resolveKey{Normalize(family), NormalizeStyle(style)}
	if hit, ok := e.cache[key]; ok {
		return hit.res, hit.err
	}
	res, err := e.resolve(family, key.family, style)
	e.cache[key] = resolveResult{res, err}
	if err != nil {
		e.log.Warn("Font resolution failed", zap.String("family", family), zap.String("style", style))
	} else if Normalize(res.Family) != key.family {
		e.log.Debug("Font substituted",
			zap.String("requested", family),
			zap.String("resolved", res.Family),
			zap.Float64("ratio", res.MetricsRatio))
	}
	return res, err
}

func (e *Engine) resolve(requested, normFamily, style string) (Resolution, error) {
	variants := e.styleVariants(style)

	candidates := []string{normFamily}
	if chain, ok := fallbackChains[normFamily]; ok {
		candidates = append(candidates, chain...)
	} else {
		candidates = append(candidates, genericChain...)
	}
	candidates = append(candidates, defaultFamily)

	seen := make(map[string]struct{}, len(candidates))
	for _, family := range candidates {
		nf := Normalize(family)
		if _, dup := seen[nf]; dup {
			continue
		}
		seen[nf] = struct{}{}
		for _, v := range variants {
			if e.catalog.Has(nf, v) {
				name := family
				if nf == normFamily {
					name = displayName(requested, normFamily)
				}
				return Resolution{
					Family:       name,
					Style:        v,
					MetricsRatio: metricsRatio(normFamily, nf),
				}, nil
			}
		}
	}
	return Resolution{}, fmt.Errorf("%w for %q %q", ErrNoUsableFont, normFamily, style)
}

// styleVariants derives the deduplicated candidate styles tried per family:
// the requested style and its common spellings, then Regular.
func (e *Engine) styleVariants(style string) []string {
	style = strings.TrimSpace(style)
	raw := []string{style}

	if mapped := weightName(style); mapped != "" {
		raw = append(raw, mapped)
	}
	raw = append(raw,
		e.titler.String(strings.ToLower(style)), // "bold italic" -> "Bold Italic"
		strings.ReplaceAll(style, " ", ""),      // "Bold Italic" -> "BoldItalic"
		strings.Join(splitCamel(style), " "),    // "BoldItalic" -> "Bold Italic"
		"Regular",
	)

	out := make([]string, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		k := NormalizeStyle(s)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, s)
	}
	return out
}

// weightName maps numeric CSS weights and keyword aliases to style names.
func weightName(style string) string {
	italic := false
	s := NormalizeStyle(style)
	if strings.Contains(s, "italic") || strings.Contains(s, "oblique") {
		italic = true
		s = strings.TrimSpace(strings.NewReplacer("italic", "", "oblique", "").Replace(s))
	}
	var name string
	switch s {
	case "100":
		name = "Thin"
	case "200":
		name = "Extra Light"
	case "300":
		name = "Light"
	case "400", "normal", "":
		name = "Regular"
	case "500":
		name = "Medium"
	case "600":
		name = "Semi Bold"
	case "700", "bold":
		name = "Bold"
	case "800":
		name = "Extra Bold"
	case "900", "black":
		name = "Black"
	default:
		return ""
	}
	if italic {
		if name == "Regular" {
			return "Italic"
		}
		return name + " Italic"
	}
	return name
}

// splitCamel breaks "BoldItalic" into its words.
func splitCamel(s string) []string {
	var words []string
	start := 0
	for i := 1; i < len(s); i++ {
		if s[i] >= 'A' && s[i] <= 'Z' && s[i-1] >= 'a' && s[i-1] <= 'z' {
			words = append(words, s[start:i])
			start = i
		}
	}
	return append(words, s[start:])
}

// metricsRatio returns requested-over-resolved aspect; 1.0 when the family
// did not change.
func metricsRatio(requested, resolved string) float64 {
	if requested == resolved {
		return 1.0
	}
	ra, ok := fontAspect[requested]
	if !ok {
		ra = defaultAspect
	}
	sa, ok := fontAspect[resolved]
	if !ok {
		sa = defaultAspect
	}
	return ra / sa
}

// displayName returns the canonical capitalization for known families, or
// the caller's spelling stripped of quotes for unknown ones.
func displayName(requested, norm string) string {
	for _, known := range []string{
		"Helvetica Neue", "Helvetica", "Arial", "Verdana", "Tahoma",
		"Trebuchet MS", "Segoe UI", "Roboto", "Inter",
		"Times New Roman", "Georgia", "Garamond", "Courier New",
	} {
		if Normalize(known) == norm {
			return known
		}
	}
	return strings.Trim(strings.TrimSpace(requested), `"'`)
}
