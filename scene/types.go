// Package scene models the target design-tool scene graph: node kinds with an
// explicit capability table, paints, strokes, effects, flow (auto layout)
// properties and anchoring constraints. It is the output side of the
// conversion - a populated Document serializes into the scene bundle.
package scene

import (
	"hfc/css"
)

// NodeKind is the closed set of native node variants.
type NodeKind int

const (
	KindFrame NodeKind = iota
	KindRectangle
	KindText
	KindVector
	KindGroup
)

// String returns the wire name of the node kind.
func (k NodeKind) String() string {
	switch k {
	case KindFrame:
		return "FRAME"
	case KindRectangle:
		return "RECTANGLE"
	case KindText:
		return "TEXT"
	case KindVector:
		return "VECTOR"
	case KindGroup:
		return "GROUP"
	default:
		return "FRAME"
	}
}

// Capabilities describes what a node kind supports. Checked once per node
// instead of scattering per-property probing over the materializer.
type Capabilities struct {
	Fills       bool
	Strokes     bool
	Effects     bool
	CornerRadii bool
	AutoLayout  bool
	Constraints bool
	Text        bool
	Children    bool
	Metadata    bool
}

var capabilityTable = map[NodeKind]Capabilities{
	KindFrame:     {Fills: true, Strokes: true, Effects: true, CornerRadii: true, AutoLayout: true, Constraints: true, Children: true, Metadata: true},
	KindRectangle: {Fills: true, Strokes: true, Effects: true, CornerRadii: true, Constraints: true, Metadata: true},
	KindText:      {Fills: true, Effects: true, Constraints: true, Text: true, Metadata: true},
	KindVector:    {Fills: true, Strokes: true, Effects: true, Constraints: true, Metadata: true},
	KindGroup:     {Effects: true, Children: true, Metadata: true},
}

// Caps returns the capability record of the kind.
func (k NodeKind) Caps() Capabilities {
	if c, ok := capabilityTable[k]; ok {
		return c
	}
	return capabilityTable[KindFrame]
}

// PaintType tags the paint union.
type PaintType int

const (
	PaintSolid PaintType = iota
	PaintGradientLinear
	PaintGradientRadial
	PaintImage
)

// String returns the wire name of the paint type.
func (p PaintType) String() string {
	switch p {
	case PaintSolid:
		return "SOLID"
	case PaintGradientLinear:
		return "GRADIENT_LINEAR"
	case PaintGradientRadial:
		return "GRADIENT_RADIAL"
	case PaintImage:
		return "IMAGE"
	default:
		return "SOLID"
	}
}

// ScaleMode describes how an image paint fits its shape.
type ScaleMode int

const (
	ScaleModeFill ScaleMode = iota
	ScaleModeFit
	ScaleModeCrop
	ScaleModeTile
)

// String returns the wire name of the scale mode.
func (s ScaleMode) String() string {
	switch s {
	case ScaleModeFill:
		return "FILL"
	case ScaleModeFit:
		return "FIT"
	case ScaleModeCrop:
		return "CROP"
	case ScaleModeTile:
		return "TILE"
	default:
		return "FILL"
	}
}

// ColorStop is a gradient stop, Position in [0,1].
type ColorStop struct {
	Color    css.Color
	Position float64
}

// Paint is the tagged output paint union. Exactly the fields relevant to Type
// are meaningful.
type Paint struct {
	Type    PaintType
	Visible bool
	Opacity float64

	// SOLID
	Color css.Color

	// GRADIENT_*
	Stops             []ColorStop
	GradientTransform css.Matrix

	// IMAGE
	Image          *ImageRef
	ScaleMode      ScaleMode
	ImageScale     float64     // used with ScaleModeTile
	ImageTransform *css.Matrix // optional sub-transform within the shape

	// Placeholder marks a visible stand-in for an asset that failed to
	// resolve, so downstream tooling can find it.
	Placeholder bool
}

// EffectType tags visual effects.
type EffectType int

const (
	EffectDropShadow EffectType = iota
	EffectInnerShadow
	EffectLayerBlur
	EffectBackgroundBlur
)

// String returns the wire name of the effect type.
func (e EffectType) String() string {
	switch e {
	case EffectDropShadow:
		return "DROP_SHADOW"
	case EffectInnerShadow:
		return "INNER_SHADOW"
	case EffectLayerBlur:
		return "LAYER_BLUR"
	case EffectBackgroundBlur:
		return "BACKGROUND_BLUR"
	default:
		return "DROP_SHADOW"
	}
}

// Effect is one visual effect applied to a node.
type Effect struct {
	Type      EffectType
	Color     css.Color
	OffsetX   float64
	OffsetY   float64
	Radius    float64
	Spread    float64
	BlendMode string
	Visible   bool
}

// LayoutMode is the flow mode of a container.
type LayoutMode int

const (
	LayoutNone LayoutMode = iota
	LayoutHorizontal
	LayoutVertical
	LayoutGrid
)

// String returns the wire name of the layout mode.
func (m LayoutMode) String() string {
	switch m {
	case LayoutHorizontal:
		return "HORIZONTAL"
	case LayoutVertical:
		return "VERTICAL"
	case LayoutGrid:
		return "GRID"
	default:
		return "NONE"
	}
}

// AxisAlign is a primary-axis alignment.
type AxisAlign int

const (
	AlignMin AxisAlign = iota
	AlignCenter
	AlignMax
	AlignSpaceBetween
	AlignBaseline
	AlignStretch
)

// String returns the wire name of the alignment.
func (a AxisAlign) String() string {
	switch a {
	case AlignCenter:
		return "CENTER"
	case AlignMax:
		return "MAX"
	case AlignSpaceBetween:
		return "SPACE_BETWEEN"
	case AlignBaseline:
		return "BASELINE"
	case AlignStretch:
		return "STRETCH"
	default:
		return "MIN"
	}
}

// AxisSizing is per-axis sizing of a flow container.
type AxisSizing int

const (
	SizingAuto AxisSizing = iota
	SizingFixed
)

// String returns the wire name of the sizing mode.
func (s AxisSizing) String() string {
	if s == SizingFixed {
		return "FIXED"
	}
	return "AUTO"
}

// ConstraintType anchors an absolutely placed node to its parent on one axis.
type ConstraintType int

const (
	ConstraintMin ConstraintType = iota
	ConstraintCenter
	ConstraintMax
	ConstraintStretch
	ConstraintScale
)

// String returns the wire name of the constraint.
func (c ConstraintType) String() string {
	switch c {
	case ConstraintCenter:
		return "CENTER"
	case ConstraintMax:
		return "MAX"
	case ConstraintStretch:
		return "STRETCH"
	case ConstraintScale:
		return "SCALE"
	default:
		return "MIN"
	}
}

// Constraints is the per-axis anchoring of an absolutely placed node.
type Constraints struct {
	Horizontal ConstraintType
	Vertical   ConstraintType
}

// FlowLayout is the auto-layout configuration of a container node.
type FlowLayout struct {
	Mode          LayoutMode
	PrimaryAlign  AxisAlign
	CounterAlign  AxisAlign
	PrimarySizing AxisSizing
	CounterSizing AxisSizing
	PaddingTop    float64
	PaddingRight  float64
	PaddingBottom float64
	PaddingLeft   float64
	ItemSpacing   float64
	Wrap          bool
}

// FlowChild is the flow metadata of a child inside an auto-layout container.
type FlowChild struct {
	Align AxisAlign // cross-axis alignment from align-self
	Grow  float64   // flex-grow
}

// TextStyle is the resolved typography of a text node.
type TextStyle struct {
	FontFamily     string
	FontStyle      string
	FontSize       float64
	LineHeightPx   float64
	LetterSpacing  float64
	TextAlign      AxisAlign
	Decoration     string // NONE | UNDERLINE | STRIKETHROUGH
	Case           string // ORIGINAL | UPPER | LOWER | TITLE
	ParagraphGap   float64
	MetricsApplied bool // font substitution compensation was applied
}

// Stroke is the resolved border of a node. Per-side weights allow uneven
// borders; Uniform is set when all active sides agree.
type Stroke struct {
	Color      css.Color
	Top        float64
	Right      float64
	Bottom     float64
	Left       float64
	Uniform    bool
	MixedColor bool // sides disagreed on color; recorded, not averaged away
}

// Weight returns the uniform stroke weight (maximum side when uneven).
func (s Stroke) Weight() float64 {
	w := s.Top
	for _, v := range []float64{s.Right, s.Bottom, s.Left} {
		if v > w {
			w = v
		}
	}
	return w
}
