package convert

import (
	"fmt"
	"sort"

	"github.com/maruel/natural"
)

// Diagnostic categories. Closed set so summaries group predictably.
const (
	DiagPaint  = "paint"
	DiagFont   = "font"
	DiagAsset  = "asset"
	DiagFilter = "filter"
	DiagLayout = "layout"
	DiagNode   = "node"
)

// Diagnostic is one recorded degradation: something the materializer could
// not map natively and had to approximate, substitute or drop.
type Diagnostic struct {
	Category string
	Node     string // element id or derived layer name
	Message  string
}

// Diagnostics accumulates degradations over one conversion run. A conversion
// never fails because of a bad node - it degrades and records what happened
// here. Not safe for concurrent use.
type Diagnostics struct {
	entries []Diagnostic
	counts  map[string]int
}

// NewDiagnostics creates an empty accumulator.
func NewDiagnostics() *Diagnostics {
	return &Diagnostics{counts: make(map[string]int)}
}

// Add records one degradation.
func (d *Diagnostics) Add(category, node, format string, args ...any) {
	d.entries = append(d.entries, Diagnostic{
		Category: category,
		Node:     node,
		Message:  fmt.Sprintf(format, args...),
	})
	d.counts[category]++
}

// Len reports how many degradations were recorded.
func (d *Diagnostics) Len() int {
	return len(d.entries)
}

// Counts returns degradation totals by category.
func (d *Diagnostics) Counts() map[string]int {
	out := make(map[string]int, len(d.counts))
	for k, v := range d.counts {
		out[k] = v
	}
	return out
}

// Entries returns recorded diagnostics ordered by category, then naturally by
// node name so "node2" sorts before "node10" in summaries.
func (d *Diagnostics) Entries() []Diagnostic {
	out := make([]Diagnostic, len(d.entries))
	copy(out, d.entries)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return natural.Less(out[i].Node, out[j].Node)
	})
	return out
}
