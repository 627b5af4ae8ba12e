package fonts

import (
	"strings"
)

// Catalog answers availability questions about fonts the target environment
// can actually load. Implementations receive normalized family names and
// style names as produced by Normalize and NormalizeStyle.
type Catalog interface {
	Has(family, style string) bool
}

// Normalize canonicalizes a CSS font family: quotes stripped, whitespace
// collapsed, lower case.
func Normalize(family string) string {
	family = strings.Trim(strings.TrimSpace(family), `"'`)
	return strings.ToLower(strings.Join(strings.Fields(family), " "))
}

// NormalizeStyle canonicalizes a style name the same way.
func NormalizeStyle(style string) string {
	return strings.ToLower(strings.Join(strings.Fields(style), " "))
}

// StaticCatalog is a fixed in-memory catalog, the usual configuration for
// batch conversion where the available font set is known up front.
type StaticCatalog struct {
	families map[string]map[string]struct{}
}

// NewStaticCatalog builds a catalog from family name to style list.
func NewStaticCatalog(fonts map[string][]string) *StaticCatalog {
	c := &StaticCatalog{families: make(map[string]map[string]struct{}, len(fonts))}
	for family, styles := range fonts {
		set := make(map[string]struct{}, len(styles))
		for _, s := range styles {
			set[NormalizeStyle(s)] = struct{}{}
		}
		c.families[Normalize(family)] = set
	}
	return c
}

// Has reports whether the family carries the style.
func (c *StaticCatalog) Has(family, style string) bool {
	styles, ok := c.families[Normalize(family)]
	if !ok {
		return false
	}
	_, ok = styles[NormalizeStyle(style)]
	return ok
}

var webSafeStyles = []string{"Regular", "Bold", "Italic", "Bold Italic"}

// DefaultCatalog returns the web-safe set every target environment is assumed
// to provide. Used when no catalog is configured.
func DefaultCatalog() *StaticCatalog {
	families := []string{
		"Arial", "Helvetica", "Verdana", "Tahoma", "Trebuchet MS",
		"Times New Roman", "Georgia", "Garamond",
		"Courier New", "Inter", "Roboto",
	}
	fonts := make(map[string][]string, len(families))
	for _, f := range families {
		fonts[f] = webSafeStyles
	}
	return NewStaticCatalog(fonts)
}
