package scene

import (
	"github.com/gosimple/slug"

	"hfc/css"
)

// Node is one materialized scene-graph node. Position semantics depend on the
// layout decision: flow children carry Flow metadata and no explicit
// coordinates; absolute children carry X/Y plus Constraints. Setting both is
// a contract violation - use PlaceInFlow / PlaceAbsolute.
type Node struct {
	Kind     NodeKind
	ID       string
	Name     string
	Children []*Node

	// Geometry. Width/Height are always set (minimum 1 unit).
	X, Y          float64
	Width, Height float64
	Positioned    bool // explicit coordinates are meaningful

	// Transform: affine matrix relative to the node's own untransformed box.
	Transform *css.Matrix
	Rotation  float64 // degrees, for hosts that only take discrete rotation

	Fills   []Paint
	Stroke  *Stroke
	Effects []Effect

	CornerRadius   float64
	CornerRadii    *[4]float64 // TL, TR, BR, BL when not uniform
	Opacity        float64
	BlendMode      string
	ClipsContent   bool
	Rasterized     bool   // subtree was replaced by a pre-rendered bitmap
	PlaceholderFor string // source ref when the node stands in for a failure

	// Flow vs absolute placement.
	Layout      *FlowLayout  // set on auto-layout containers
	Flow        *FlowChild   // set on flow children
	Constraints *Constraints // set on absolutely placed children

	Text      string
	TextStyle *TextStyle
	Visible   bool

	meta map[string]string
}

// NewNode creates a node of the given kind with safe defaults.
func NewNode(kind NodeKind, name string) *Node {
	return &Node{
		Kind:    kind,
		Name:    name,
		Opacity: 1,
		Visible: true,
		Width:   1,
		Height:  1,
	}
}

// Resize sets node dimensions keeping the 1-unit minimum so nodes never
// become degenerate/invisible.
func (n *Node) Resize(w, h float64) {
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	n.Width, n.Height = w, h
}

// PlaceInFlow marks the node as a flow child. Explicit coordinates are
// cleared - flow children receive flow metadata instead.
func (n *Node) PlaceInFlow(fc FlowChild) {
	n.Flow = &fc
	n.Constraints = nil
	n.Positioned = false
	n.X, n.Y = 0, 0
}

// PlaceAbsolute positions the node at parent-relative coordinates with the
// computed anchoring constraints.
func (n *Node) PlaceAbsolute(x, y float64, c Constraints) {
	n.X, n.Y = x, y
	n.Positioned = true
	n.Constraints = &c
	n.Flow = nil
}

// AppendChild attaches a child preserving input order (z-order follows input
// order). Returns false when the kind cannot hold children.
func (n *Node) AppendChild(child *Node) bool {
	if child == nil || !n.Kind.Caps().Children {
		return false
	}
	n.Children = append(n.Children, child)
	return true
}

// SetMetadata stores a pass-through annotation when the node kind supports
// metadata; unsupported kinds skip the write silently by design.
func (n *Node) SetMetadata(key, value string) bool {
	if !n.Kind.Caps().Metadata || key == "" {
		return false
	}
	if n.meta == nil {
		n.meta = make(map[string]string)
	}
	n.meta[key] = value
	return true
}

// Metadata returns the annotation for key.
func (n *Node) Metadata(key string) (string, bool) {
	v, ok := n.meta[key]
	return v, ok
}

// MetadataLen reports how many annotations the node carries.
func (n *Node) MetadataLen() int {
	return len(n.meta)
}

// SetFills installs the paint list enforcing the ordering invariant: SOLID
// entries precede non-SOLID entries so a background color never occludes an
// image or gradient layered above it.
func (n *Node) SetFills(paints []Paint) bool {
	if !n.Kind.Caps().Fills {
		return false
	}
	n.Fills = OrderPaints(paints)
	return true
}

// AddEffects merges effects with any already present rather than replacing.
func (n *Node) AddEffects(effects ...Effect) bool {
	if !n.Kind.Caps().Effects {
		return false
	}
	n.Effects = append(n.Effects, effects...)
	return true
}

// SlugName derives a deterministic layer name from an element name and its
// class list, the way downstream tooling expects to find it.
func SlugName(name string, classes []string) string {
	if name != "" {
		return name
	}
	for _, c := range classes {
		if s := slug.Make(c); s != "" {
			return s
		}
	}
	return "layer"
}

// OrderPaints returns the list with SOLID entries first, preserving relative
// order within each group (stable partition).
func OrderPaints(paints []Paint) []Paint {
	if len(paints) < 2 {
		return paints
	}
	out := make([]Paint, 0, len(paints))
	for _, p := range paints {
		if p.Type == PaintSolid {
			out = append(out, p)
		}
	}
	for _, p := range paints {
		if p.Type != PaintSolid {
			out = append(out, p)
		}
	}
	return out
}
