// Package capture defines the input data contract produced by the browser
// extraction layer: a tree of element records with computed CSS, an asset
// registry keyed by content hash and the recognized import options. The tree
// is read-only to the conversion core - work on a Clone when annotations are
// needed.
package capture

// Kind of a captured element as reported by the extraction layer. Free-form
// on the wire; the materializer maps unrecognized kinds to a generic frame.
const (
	KindFrame = "frame"
	KindText  = "text"
	KindImage = "image"
	KindSVG   = "svg"
	KindRect  = "rect"
)

// ElementNode is one node of the captured layout tree.
type ElementNode struct {
	ID       string         `json:"id,omitempty"`
	Kind     string         `json:"type,omitempty"`
	Name     string         `json:"name,omitempty"`
	Layout   *Layout        `json:"layout,omitempty"`
	Children []*ElementNode `json:"children,omitempty"`

	Fills       []Fill       `json:"fills,omitempty"`
	Backgrounds []Background `json:"backgrounds,omitempty"`
	Border      *Border      `json:"border,omitempty"`
	Corners     *Corners     `json:"corners,omitempty"`
	Effects     []Effect     `json:"effects,omitempty"`
	Filter      string       `json:"filter,omitempty"`
	BlendMode   string       `json:"blendMode,omitempty"`
	Opacity     *float64     `json:"opacity,omitempty"`

	Text      string     `json:"text,omitempty"`
	TextStyle *TextStyle `json:"textStyle,omitempty"`

	ImageHash  string `json:"imageHash,omitempty"`
	SVGContent string `json:"svgContent,omitempty"`
	// SnapshotHash optionally references a pre-rendered bitmap of this
	// subtree supplied by the extraction layer; used by the rasterization
	// fallback when native mapping is impossible.
	SnapshotHash string `json:"snapshotHash,omitempty"`

	// Pass-through metadata - never interpreted by the core.
	Classes []string          `json:"classes,omitempty"`
	Meta    map[string]string `json:"meta,omitempty"`
}

// Layout is the captured box geometry plus the raw computed CSS strings the
// classifier and materializer work from. Geometry is in page coordinates.
type Layout struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`

	Display        string `json:"display,omitempty"`
	Position       string `json:"position,omitempty"`
	FlexDirection  string `json:"flexDirection,omitempty"`
	JustifyContent string `json:"justifyContent,omitempty"`
	AlignItems     string `json:"alignItems,omitempty"`
	AlignSelf      string `json:"alignSelf,omitempty"`
	FlexWrap       string `json:"flexWrap,omitempty"`
	FlexGrow       string `json:"flexGrow,omitempty"`
	Gap            string `json:"gap,omitempty"`

	PaddingTop    string `json:"paddingTop,omitempty"`
	PaddingRight  string `json:"paddingRight,omitempty"`
	PaddingBottom string `json:"paddingBottom,omitempty"`
	PaddingLeft   string `json:"paddingLeft,omitempty"`

	// Author-specified dimensions (empty when not set in CSS). The measured
	// Width/Height above are always present.
	CSSWidth  string `json:"cssWidth,omitempty"`
	CSSHeight string `json:"cssHeight,omitempty"`

	Transform       string `json:"transform,omitempty"`
	TransformOrigin string `json:"transformOrigin,omitempty"`

	ZIndex *int `json:"zIndex,omitempty"`
}

// Fill is a generic paint layer description.
type Fill struct {
	Type      string      `json:"type"` // solid | gradient-linear | gradient-radial | image
	Color     string      `json:"color,omitempty"`
	Opacity   *float64    `json:"opacity,omitempty"`
	Visible   *bool       `json:"visible,omitempty"`
	Stops     []ColorStop `json:"stops,omitempty"`
	Angle     float64     `json:"angle,omitempty"` // degrees, linear gradients
	ImageHash string      `json:"imageHash,omitempty"`
	ScaleMode string      `json:"scaleMode,omitempty"`
}

// ColorStop is one gradient stop; Position in [0,1].
type ColorStop struct {
	Color    string  `json:"color"`
	Position float64 `json:"position"`
}

// Background is one CSS background layer with its placement semantics.
type Background struct {
	Color     string      `json:"color,omitempty"`
	ImageHash string      `json:"imageHash,omitempty"`
	ImageURL  string      `json:"imageUrl,omitempty"`
	Size      string      `json:"size,omitempty"`     // cover | contain | auto | lengths
	Repeat    string      `json:"repeat,omitempty"`   // no-repeat | repeat | repeat-x | repeat-y
	Position  string      `json:"position,omitempty"` // CSS background-position
	Gradient  string      `json:"gradient,omitempty"` // linear | radial
	Stops     []ColorStop `json:"stops,omitempty"`
	Angle     float64     `json:"angle,omitempty"`
}

// Border carries per-side border description.
type Border struct {
	Top    BorderSide `json:"top"`
	Right  BorderSide `json:"right"`
	Bottom BorderSide `json:"bottom"`
	Left   BorderSide `json:"left"`
}

// BorderSide is one side of a CSS border.
type BorderSide struct {
	Width float64 `json:"width"`
	Style string  `json:"style,omitempty"` // none | solid | dashed | ...
	Color string  `json:"color,omitempty"`
}

// Active reports whether the side paints anything.
func (s BorderSide) Active() bool {
	return s.Width > 0 && s.Style != "" && s.Style != "none" && s.Style != "hidden"
}

// Corners carries per-corner border radii in px.
type Corners struct {
	TopLeft     float64 `json:"topLeft"`
	TopRight    float64 `json:"topRight"`
	BottomRight float64 `json:"bottomRight"`
	BottomLeft  float64 `json:"bottomLeft"`
}

// Uniform returns the single radius and true when all corners agree.
func (c Corners) Uniform() (float64, bool) {
	if c.TopLeft == c.TopRight && c.TopRight == c.BottomRight && c.BottomRight == c.BottomLeft {
		return c.TopLeft, true
	}
	return 0, false
}

// Effect is a captured shadow/blur description.
type Effect struct {
	Type      string  `json:"type"` // drop-shadow | inner-shadow | layer-blur | background-blur
	Color     string  `json:"color,omitempty"`
	OffsetX   float64 `json:"offsetX,omitempty"`
	OffsetY   float64 `json:"offsetY,omitempty"`
	Radius    float64 `json:"radius,omitempty"`
	Spread    float64 `json:"spread,omitempty"`
	BlendMode string  `json:"blendMode,omitempty"`
}

// TextStyle is the captured typography of a text element.
type TextStyle struct {
	FontFamily     string  `json:"fontFamily,omitempty"`
	FontStyle      string  `json:"fontStyle,omitempty"` // style name: "Bold", "Italic", ...
	FontSize       float64 `json:"fontSize,omitempty"`
	LineHeight     string  `json:"lineHeight,omitempty"`
	LetterSpacing  string  `json:"letterSpacing,omitempty"`
	TextAlign      string  `json:"textAlign,omitempty"`
	TextDecoration string  `json:"textDecoration,omitempty"`
	TextTransform  string  `json:"textTransform,omitempty"`
	Color          string  `json:"color,omitempty"`
	ParagraphGap   float64 `json:"paragraphGap,omitempty"`
	// Measured rendering metrics when the extraction layer supplied them.
	MeasuredWidth  float64 `json:"measuredWidth,omitempty"`
	MeasuredHeight float64 `json:"measuredHeight,omitempty"`
}

// ImageAsset is one embedded or referenced bitmap in the registry.
type ImageAsset struct {
	Base64           string `json:"base64,omitempty"`
	URL              string `json:"url,omitempty"`
	Mime             string `json:"mime,omitempty"`
	Width            int    `json:"width,omitempty"`
	Height           int    `json:"height,omitempty"`
	PlaceholderColor string `json:"placeholderColor,omitempty"`
}

// SVGAsset is one vector asset in the registry.
type SVGAsset struct {
	SVG string `json:"svg,omitempty"`
	URL string `json:"url,omitempty"`
}

// AssetRegistry maps content hashes to captured payloads.
type AssetRegistry struct {
	Images map[string]ImageAsset `json:"images,omitempty"`
	SVGs   map[string]SVGAsset   `json:"svgs,omitempty"`
}

// ImportOptions is the recognized configuration of one conversion run.
// Unrecognized keys are preserved in Extra and passed through to document
// metadata.
type ImportOptions struct {
	ApplyAutoLayout bool `json:"applyAutoLayout"`
	EnableDebugMode bool `json:"enableDebugMode"`

	Extra map[string]string `json:"-"`
}

// Document is a complete capture payload.
type Document struct {
	Root    *ElementNode  `json:"root"`
	Assets  AssetRegistry `json:"assets"`
	Options ImportOptions `json:"options"`
}
