package scene

import (
	"encoding/json"

	"hfc/css"
)

// Wire representation of a document for the scene bundle. Field names follow
// the target tool's plugin API conventions so downstream consumers can read
// the tree without a mapping layer.

type documentJSON struct {
	Meta   map[string]string `json:"meta,omitempty"`
	Images []imageJSON       `json:"images,omitempty"`
	Root   *nodeJSON         `json:"root"`
}

type imageJSON struct {
	Hash   string `json:"hash"`
	Format string `json:"format"`
	File   string `json:"file"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

type nodeJSON struct {
	Type     string      `json:"type"`
	ID       string      `json:"id,omitempty"`
	Name     string      `json:"name"`
	X        *float64    `json:"x,omitempty"`
	Y        *float64    `json:"y,omitempty"`
	Width    float64     `json:"width"`
	Height   float64     `json:"height"`
	Rotation float64     `json:"rotation,omitempty"`
	Relative *[6]float64 `json:"relativeTransform,omitempty"`

	Fills   []paintJSON  `json:"fills,omitempty"`
	Stroke  *strokeJSON  `json:"stroke,omitempty"`
	Effects []effectJSON `json:"effects,omitempty"`

	CornerRadius float64     `json:"cornerRadius,omitempty"`
	CornerRadii  *[4]float64 `json:"cornerRadii,omitempty"`
	Opacity      float64     `json:"opacity"`
	BlendMode    string      `json:"blendMode,omitempty"`
	Visible      bool        `json:"visible"`
	ClipsContent bool        `json:"clipsContent,omitempty"`
	Rasterized   bool        `json:"rasterized,omitempty"`
	Placeholder  string      `json:"placeholderFor,omitempty"`

	Layout      *layoutJSON      `json:"autoLayout,omitempty"`
	Flow        *flowChildJSON   `json:"flowChild,omitempty"`
	Constraints *constraintsJSON `json:"constraints,omitempty"`

	Text      string         `json:"characters,omitempty"`
	TextStyle *textStyleJSON `json:"textStyle,omitempty"`

	Meta map[string]string `json:"meta,omitempty"`

	Children []*nodeJSON `json:"children,omitempty"`
}

type paintJSON struct {
	Type        string      `json:"type"`
	Visible     bool        `json:"visible"`
	Opacity     float64     `json:"opacity"`
	Color       *colorJSON  `json:"color,omitempty"`
	Stops       []stopJSON  `json:"gradientStops,omitempty"`
	Transform   *[6]float64 `json:"gradientTransform,omitempty"`
	ImageHash   string      `json:"imageHash,omitempty"`
	ScaleMode   string      `json:"scaleMode,omitempty"`
	ImageScale  float64     `json:"scalingFactor,omitempty"`
	Placeholder bool        `json:"placeholder,omitempty"`
}

type colorJSON struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
	A float64 `json:"a"`
}

type stopJSON struct {
	Color    colorJSON `json:"color"`
	Position float64   `json:"position"`
}

type strokeJSON struct {
	Color      colorJSON `json:"color"`
	Weight     float64   `json:"weight"`
	Top        float64   `json:"top"`
	Right      float64   `json:"right"`
	Bottom     float64   `json:"bottom"`
	Left       float64   `json:"left"`
	Uniform    bool      `json:"uniform"`
	MixedColor bool      `json:"mixedColor,omitempty"`
}

type effectJSON struct {
	Type      string    `json:"type"`
	Color     colorJSON `json:"color"`
	OffsetX   float64   `json:"offsetX"`
	OffsetY   float64   `json:"offsetY"`
	Radius    float64   `json:"radius"`
	Spread    float64   `json:"spread,omitempty"`
	BlendMode string    `json:"blendMode,omitempty"`
	Visible   bool      `json:"visible"`
}

type layoutJSON struct {
	Mode          string  `json:"layoutMode"`
	PrimaryAlign  string  `json:"primaryAxisAlignItems"`
	CounterAlign  string  `json:"counterAxisAlignItems"`
	PrimarySizing string  `json:"primaryAxisSizingMode"`
	CounterSizing string  `json:"counterAxisSizingMode"`
	PaddingTop    float64 `json:"paddingTop,omitempty"`
	PaddingRight  float64 `json:"paddingRight,omitempty"`
	PaddingBottom float64 `json:"paddingBottom,omitempty"`
	PaddingLeft   float64 `json:"paddingLeft,omitempty"`
	ItemSpacing   float64 `json:"itemSpacing,omitempty"`
	Wrap          bool    `json:"layoutWrap,omitempty"`
}

type flowChildJSON struct {
	Align string  `json:"layoutAlign"`
	Grow  float64 `json:"layoutGrow,omitempty"`
}

type constraintsJSON struct {
	Horizontal string `json:"horizontal"`
	Vertical   string `json:"vertical"`
}

type textStyleJSON struct {
	FontFamily    string  `json:"fontFamily"`
	FontStyle     string  `json:"fontStyle,omitempty"`
	FontSize      float64 `json:"fontSize"`
	LineHeightPx  float64 `json:"lineHeightPx,omitempty"`
	LetterSpacing float64 `json:"letterSpacing,omitempty"`
	TextAlign     string  `json:"textAlignHorizontal,omitempty"`
	Decoration    string  `json:"textDecoration,omitempty"`
	Case          string  `json:"textCase,omitempty"`
	ParagraphGap  float64 `json:"paragraphSpacing,omitempty"`
	Compensated   bool    `json:"metricsCompensated,omitempty"`
}

// Encode serializes the document to indented JSON for the bundle.
func (d *Document) Encode() ([]byte, error) {
	doc := documentJSON{Meta: d.Meta, Root: encodeNode(d.Root)}
	for _, ref := range d.Images() {
		doc.Images = append(doc.Images, imageJSON{
			Hash: ref.Hash, Format: ref.Format, File: ref.FileName(),
			Width: ref.Width, Height: ref.Height,
		})
	}
	return json.MarshalIndent(doc, "", "  ")
}

func matrixArray(m css.Matrix) *[6]float64 {
	return &[6]float64{m.A, m.B, m.C, m.D, m.Tx, m.Ty}
}

func encodeColor(c css.Color) colorJSON {
	return colorJSON{R: c.R, G: c.G, B: c.B, A: c.A}
}

func encodeNode(n *Node) *nodeJSON {
	if n == nil {
		return nil
	}
	out := &nodeJSON{
		Type:         n.Kind.String(),
		ID:           n.ID,
		Name:         n.Name,
		Width:        n.Width,
		Height:       n.Height,
		Rotation:     n.Rotation,
		CornerRadius: n.CornerRadius,
		CornerRadii:  n.CornerRadii,
		Opacity:      n.Opacity,
		BlendMode:    n.BlendMode,
		Visible:      n.Visible,
		ClipsContent: n.ClipsContent,
		Rasterized:   n.Rasterized,
		Placeholder:  n.PlaceholderFor,
		Text:         n.Text,
		Meta:         n.meta,
	}
	if n.Positioned {
		x, y := n.X, n.Y
		out.X, out.Y = &x, &y
	}
	if n.Transform != nil {
		out.Relative = matrixArray(*n.Transform)
	}
	for _, p := range n.Fills {
		out.Fills = append(out.Fills, encodePaint(p))
	}
	if n.Stroke != nil {
		out.Stroke = &strokeJSON{
			Color:  encodeColor(n.Stroke.Color),
			Weight: n.Stroke.Weight(),
			Top:    n.Stroke.Top, Right: n.Stroke.Right,
			Bottom: n.Stroke.Bottom, Left: n.Stroke.Left,
			Uniform: n.Stroke.Uniform, MixedColor: n.Stroke.MixedColor,
		}
	}
	for _, e := range n.Effects {
		out.Effects = append(out.Effects, effectJSON{
			Type: e.Type.String(), Color: encodeColor(e.Color),
			OffsetX: e.OffsetX, OffsetY: e.OffsetY,
			Radius: e.Radius, Spread: e.Spread,
			BlendMode: e.BlendMode, Visible: e.Visible,
		})
	}
	if n.Layout != nil {
		out.Layout = &layoutJSON{
			Mode:          n.Layout.Mode.String(),
			PrimaryAlign:  n.Layout.PrimaryAlign.String(),
			CounterAlign:  n.Layout.CounterAlign.String(),
			PrimarySizing: n.Layout.PrimarySizing.String(),
			CounterSizing: n.Layout.CounterSizing.String(),
			PaddingTop:    n.Layout.PaddingTop,
			PaddingRight:  n.Layout.PaddingRight,
			PaddingBottom: n.Layout.PaddingBottom,
			PaddingLeft:   n.Layout.PaddingLeft,
			ItemSpacing:   n.Layout.ItemSpacing,
			Wrap:          n.Layout.Wrap,
		}
	}
	if n.Flow != nil {
		out.Flow = &flowChildJSON{Align: n.Flow.Align.String(), Grow: n.Flow.Grow}
	}
	if n.Constraints != nil {
		out.Constraints = &constraintsJSON{
			Horizontal: n.Constraints.Horizontal.String(),
			Vertical:   n.Constraints.Vertical.String(),
		}
	}
	if n.TextStyle != nil {
		out.TextStyle = &textStyleJSON{
			FontFamily:    n.TextStyle.FontFamily,
			FontStyle:     n.TextStyle.FontStyle,
			FontSize:      n.TextStyle.FontSize,
			LineHeightPx:  n.TextStyle.LineHeightPx,
			LetterSpacing: n.TextStyle.LetterSpacing,
			TextAlign:     n.TextStyle.TextAlign.String(),
			Decoration:    n.TextStyle.Decoration,
			Case:          n.TextStyle.Case,
			ParagraphGap:  n.TextStyle.ParagraphGap,
			Compensated:   n.TextStyle.MetricsApplied,
		}
	}
	for _, c := range n.Children {
		out.Children = append(out.Children, encodeNode(c))
	}
	return out
}

func encodePaint(p Paint) paintJSON {
	out := paintJSON{
		Type:        p.Type.String(),
		Visible:     p.Visible,
		Opacity:     p.Opacity,
		Placeholder: p.Placeholder,
	}
	switch p.Type {
	case PaintSolid:
		c := encodeColor(p.Color)
		out.Color = &c
	case PaintGradientLinear, PaintGradientRadial:
		for _, s := range p.Stops {
			out.Stops = append(out.Stops, stopJSON{Color: encodeColor(s.Color), Position: s.Position})
		}
		out.Transform = matrixArray(p.GradientTransform)
	case PaintImage:
		if p.Image != nil {
			out.ImageHash = p.Image.Hash
		}
		out.ScaleMode = p.ScaleMode.String()
		out.ImageScale = p.ImageScale
	}
	return out
}
