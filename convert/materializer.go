package convert

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"hfc/assets"
	"hfc/capture"
	"hfc/css"
	"hfc/fonts"
	"hfc/layout"
	"hfc/scene"
	imgutil "hfc/utils/images"
)

// Materializer walks a captured element tree depth-first and produces the
// scene graph. It never fails on a bad node: unmappable features degrade to
// the closest native representation and are recorded in Diagnostics.
type Materializer struct {
	doc        *scene.Document
	classifier *layout.Classifier
	fonts      *fonts.Engine
	pipeline   *assets.Pipeline
	diag       *Diagnostics
	autoLayout bool
	log        *zap.Logger
}

// NewMaterializer wires a materializer for one conversion run.
func NewMaterializer(doc *scene.Document, cl *layout.Classifier, fe *fonts.Engine, pl *assets.Pipeline, autoLayout bool, log *zap.Logger) *Materializer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Materializer{
		doc:        doc,
		classifier: cl,
		fonts:      fe,
		pipeline:   pl,
		diag:       NewDiagnostics(),
		autoLayout: autoLayout,
		log:        log.Named("materialize"),
	}
}

// Diagnostics returns the degradations recorded so far.
func (m *Materializer) Diagnostics() *Diagnostics {
	return m.diag
}

// Materialize converts the captured tree into the document scene graph.
func (m *Materializer) Materialize(ctx context.Context, root *capture.ElementNode) error {
	if root == nil {
		return errors.New("capture has no root element")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	node := m.element(ctx, root)
	if node == nil {
		return errors.New("root element could not be materialized")
	}
	if root.Layout != nil {
		node.PlaceAbsolute(root.Layout.X, root.Layout.Y, scene.Constraints{})
	}
	m.doc.Root = node
	return nil
}

// nodeKind maps a captured element kind to a native node variant. Unknown
// kinds become frames - a frame can host anything.
func nodeKind(el *capture.ElementNode) scene.NodeKind {
	switch el.Kind {
	case capture.KindText:
		return scene.KindText
	case capture.KindImage, capture.KindRect:
		return scene.KindRectangle
	case capture.KindSVG:
		return scene.KindVector
	default:
		return scene.KindFrame
	}
}

func (m *Materializer) element(ctx context.Context, el *capture.ElementNode) *scene.Node {
	if err := ctx.Err(); err != nil {
		return nil
	}

	kind := nodeKind(el)
	name := scene.SlugName(el.Name, el.Classes)

	if kind == scene.KindText {
		return m.text(ctx, el, name)
	}

	node := scene.NewNode(kind, name)
	node.ID = el.ID
	if el.Layout != nil {
		node.Resize(el.Layout.Width, el.Layout.Height)
	}
	m.common(ctx, el, node)

	caps := kind.Caps()
	if caps.Fills {
		node.SetFills(m.paints(ctx, el, node))
	}
	if caps.Strokes {
		node.Stroke = m.stroke(el, node)
	}
	if caps.CornerRadii && el.Corners != nil {
		if r, ok := el.Corners.Uniform(); ok {
			node.CornerRadius = r
		} else {
			node.CornerRadii = &[4]float64{el.Corners.TopLeft, el.Corners.TopRight, el.Corners.BottomRight, el.Corners.BottomLeft}
		}
	}
	if kind == scene.KindVector {
		m.vector(ctx, el, node)
	}
	if caps.Children {
		m.children(ctx, el, node)
	}
	return node
}

// common applies the element properties every node variant shares: opacity,
// blend mode, effects, filters, transform and pass-through metadata.
func (m *Materializer) common(ctx context.Context, el *capture.ElementNode, node *scene.Node) {
	if el.Opacity != nil {
		node.Opacity = clampUnit(*el.Opacity)
	}
	m.blend(ctx, el, node)
	if node.Kind.Caps().Effects {
		node.AddEffects(m.effects(el, node)...)
	}
	m.filters(ctx, el, node)
	m.transform(el, node)
	for k, v := range el.Meta {
		node.SetMetadata(k, v)
	}
}

var blendModes = map[string]string{
	"normal": "NORMAL", "multiply": "MULTIPLY", "screen": "SCREEN",
	"overlay": "OVERLAY", "darken": "DARKEN", "lighten": "LIGHTEN",
	"color-dodge": "COLOR_DODGE", "color-burn": "COLOR_BURN",
	"hard-light": "HARD_LIGHT", "soft-light": "SOFT_LIGHT",
	"difference": "DIFFERENCE", "exclusion": "EXCLUSION",
	"hue": "HUE", "saturation": "SATURATION",
	"color": "COLOR", "luminosity": "LUMINOSITY",
}

func (m *Materializer) blend(ctx context.Context, el *capture.ElementNode, node *scene.Node) {
	raw := strings.ToLower(strings.TrimSpace(el.BlendMode))
	if raw == "" {
		return
	}
	if native, ok := blendModes[raw]; ok {
		node.BlendMode = native
		return
	}
	m.rasterize(ctx, el, node, fmt.Sprintf("blend mode %q has no native equivalent", raw))
}

// paints resolves the visual layers of an element tier by tier: background
// layers, explicit fills, then the primary image of image elements. A tier is
// consulted only when every previous tier produced nothing, so a background
// layer suppresses the fill list and both suppress the primary image. Layers
// that declare themselves invisible are dropped.
func (m *Materializer) paints(ctx context.Context, el *capture.ElementNode, node *scene.Node) []scene.Paint {
	var out []scene.Paint

	for _, bg := range el.Backgrounds {
		if p, ok := m.backgroundPaint(ctx, el, bg); ok {
			out = append(out, p)
		}
	}
	if len(out) > 0 {
		return out
	}
	for _, fill := range el.Fills {
		if p, ok := m.fillPaint(ctx, el, fill); ok {
			out = append(out, p)
		}
	}
	if len(out) > 0 {
		return out
	}
	if el.Kind == capture.KindImage && el.ImageHash != "" {
		out = append(out, m.imagePaint(ctx, el, node, el.ImageHash, "cover"))
	}
	return out
}

func (m *Materializer) fillPaint(ctx context.Context, el *capture.ElementNode, fill capture.Fill) (scene.Paint, bool) {
	if fill.Visible != nil && !*fill.Visible {
		return scene.Paint{}, false
	}
	opacity := 1.0
	if fill.Opacity != nil {
		opacity = clampUnit(*fill.Opacity)
	}
	if opacity == 0 {
		// Author explicitly zeroed the layer; nothing to paint.
		m.log.Debug("Skipping zero-opacity fill", zap.String("id", el.ID))
		return scene.Paint{}, false
	}

	switch fill.Type {
	case "solid", "":
		c, ok := css.ParseColor(fill.Color)
		if !ok {
			m.diag.Add(DiagPaint, nodeLabel(el), "unparsable fill color %q", fill.Color)
			return scene.Paint{}, false
		}
		return solidPaint(c, opacity), true
	case "gradient-linear":
		return gradientPaint(scene.PaintGradientLinear, fill.Stops, fill.Angle, opacity), true
	case "gradient-radial":
		return gradientPaint(scene.PaintGradientRadial, fill.Stops, 0, opacity), true
	case "image":
		p := m.imagePaint(ctx, el, nil, fill.ImageHash, fill.ScaleMode)
		p.Opacity = opacity
		return p, true
	default:
		m.diag.Add(DiagPaint, nodeLabel(el), "unrecognized fill type %q", fill.Type)
		return scene.Paint{}, false
	}
}

func (m *Materializer) backgroundPaint(ctx context.Context, el *capture.ElementNode, bg capture.Background) (scene.Paint, bool) {
	switch {
	case bg.Gradient != "":
		pt := scene.PaintGradientLinear
		if bg.Gradient == "radial" {
			pt = scene.PaintGradientRadial
		}
		return gradientPaint(pt, bg.Stops, bg.Angle, 1), true
	case bg.ImageHash != "" || bg.ImageURL != "":
		var res *assets.Resolved
		ref := bg.ImageHash
		if ref != "" {
			res = m.pipeline.Resolve(ctx, ref)
		} else {
			ref = bg.ImageURL
			res = m.pipeline.ResolveURL(ctx, ref)
		}
		if res.Failed() {
			m.diag.Add(DiagAsset, nodeLabel(el), "background image %q failed, placeholder substituted", ref)
			return placeholderPaint(res.Placeholder), true
		}
		p := scene.Paint{Type: scene.PaintImage, Visible: true, Opacity: 1, Image: res.Ref, ScaleMode: backgroundScaleMode(bg)}
		if p.ScaleMode == scene.ScaleModeTile {
			p.ImageScale = 1
		}
		return p, true
	case bg.Color != "":
		c, ok := css.ParseColor(bg.Color)
		if !ok {
			m.diag.Add(DiagPaint, nodeLabel(el), "unparsable background color %q", bg.Color)
			return scene.Paint{}, false
		}
		if c.A == 0 {
			return scene.Paint{}, false
		}
		return solidPaint(c, 1), true
	default:
		return scene.Paint{}, false
	}
}

// backgroundScaleMode maps CSS background sizing to a native image fit.
func backgroundScaleMode(bg capture.Background) scene.ScaleMode {
	if strings.HasPrefix(bg.Repeat, "repeat") {
		return scene.ScaleModeTile
	}
	switch bg.Size {
	case "contain":
		return scene.ScaleModeFit
	case "cover", "":
		return scene.ScaleModeFill
	default:
		// explicit lengths or auto keep the bitmap's own geometry
		return scene.ScaleModeCrop
	}
}

func (m *Materializer) imagePaint(ctx context.Context, el *capture.ElementNode, node *scene.Node, hash, scaleMode string) scene.Paint {
	res := m.pipeline.Resolve(ctx, hash)
	if res.Failed() {
		m.diag.Add(DiagAsset, nodeLabel(el), "image %q failed every strategy, placeholder substituted", hash)
		if node != nil {
			node.PlaceholderFor = hash
		}
		return placeholderPaint(res.Placeholder)
	}
	p := scene.Paint{Type: scene.PaintImage, Visible: true, Opacity: 1, Image: res.Ref}
	switch scaleMode {
	case "fit", "contain":
		p.ScaleMode = scene.ScaleModeFit
	case "tile", "repeat":
		p.ScaleMode = scene.ScaleModeTile
		p.ImageScale = 1
	case "crop":
		p.ScaleMode = scene.ScaleModeCrop
	default:
		p.ScaleMode = scene.ScaleModeFill
	}
	return p
}

func solidPaint(c css.Color, opacity float64) scene.Paint {
	return scene.Paint{Type: scene.PaintSolid, Visible: true, Opacity: opacity, Color: c}
}

func placeholderPaint(c css.Color) scene.Paint {
	return scene.Paint{Type: scene.PaintSolid, Visible: true, Opacity: 1, Color: c, Placeholder: true}
}

func gradientPaint(pt scene.PaintType, stops []capture.ColorStop, angle, opacity float64) scene.Paint {
	p := scene.Paint{Type: pt, Visible: true, Opacity: opacity, GradientTransform: css.Identity()}
	for _, s := range stops {
		c, ok := css.ParseColor(s.Color)
		if !ok {
			continue
		}
		p.Stops = append(p.Stops, scene.ColorStop{Color: c, Position: clampUnit(s.Position)})
	}
	if pt == scene.PaintGradientLinear && angle != 0 {
		p.GradientTransform = css.Recompose(css.Decomposed{Rotate: angle, ScaleX: 1, ScaleY: 1})
	}
	return p
}

// stroke folds the captured per-side border into one stroke record. Sides
// that disagree on color keep the first active color and set MixedColor so
// the disagreement is visible downstream instead of silently averaged.
func (m *Materializer) stroke(el *capture.ElementNode, node *scene.Node) *scene.Stroke {
	b := el.Border
	if b == nil {
		return nil
	}
	sides := []capture.BorderSide{b.Top, b.Right, b.Bottom, b.Left}
	active := false
	for _, s := range sides {
		if s.Active() {
			active = true
			break
		}
	}
	if !active {
		return nil
	}

	st := &scene.Stroke{}
	var firstColor string
	widths := [4]*float64{&st.Top, &st.Right, &st.Bottom, &st.Left}
	for i, s := range sides {
		if !s.Active() {
			continue
		}
		*widths[i] = s.Width
		if firstColor == "" {
			firstColor = s.Color
		} else if s.Color != firstColor {
			st.MixedColor = true
		}
	}
	if c, ok := css.ParseColor(firstColor); ok {
		st.Color = c
	} else {
		m.diag.Add(DiagPaint, nodeLabel(el), "unparsable border color %q", firstColor)
	}
	if st.MixedColor {
		m.diag.Add(DiagPaint, nodeLabel(el), "border sides disagree on color, kept %q", firstColor)
	}
	st.Uniform = st.Top == st.Right && st.Right == st.Bottom && st.Bottom == st.Left && st.Top > 0
	return st
}

var effectTypes = map[string]scene.EffectType{
	"drop-shadow":     scene.EffectDropShadow,
	"inner-shadow":    scene.EffectInnerShadow,
	"layer-blur":      scene.EffectLayerBlur,
	"background-blur": scene.EffectBackgroundBlur,
}

func (m *Materializer) effects(el *capture.ElementNode, node *scene.Node) []scene.Effect {
	var out []scene.Effect
	for _, e := range el.Effects {
		et, ok := effectTypes[e.Type]
		if !ok {
			m.diag.Add(DiagFilter, nodeLabel(el), "unrecognized effect type %q dropped", e.Type)
			continue
		}
		eff := scene.Effect{
			Type: et, OffsetX: e.OffsetX, OffsetY: e.OffsetY,
			Radius: e.Radius, Spread: e.Spread,
			BlendMode: e.BlendMode, Visible: true,
		}
		if c, ok := css.ParseColor(e.Color); ok {
			eff.Color = c
		} else {
			eff.Color = css.Color{A: 0.25} // shadow default when color is absent
		}
		out = append(out, eff)
	}
	return out
}

// filters applies the CSS filter chain with a map-or-rasterize policy: every
// function either maps to a native effect or metadata adjustment, or the
// whole node is flagged for rasterization (with the captured snapshot bitmap
// substituted when available).
func (m *Materializer) filters(ctx context.Context, el *capture.ElementNode, node *scene.Node) {
	chain := css.ParseFilters(el.Filter)
	if len(chain) == 0 {
		return
	}
	if css.HasUnknownFilter(chain) {
		// One unknown function poisons the whole chain: the rasterized
		// substitute already renders the representable filters, so mapping
		// them to native effects on top would apply them twice.
		m.rasterize(ctx, el, node, fmt.Sprintf("filter %q has no native equivalent", unknownFilterName(chain)))
		return
	}
	for _, f := range chain {
		switch f.Kind {
		case css.FilterBlur:
			node.AddEffects(scene.Effect{Type: scene.EffectLayerBlur, Radius: f.Radius, Visible: true})
		case css.FilterDropShadow:
			eff := scene.Effect{Type: scene.EffectDropShadow, OffsetX: f.OffsetX, OffsetY: f.OffsetY, Radius: f.Radius, Visible: true}
			if f.HasColor {
				eff.Color = f.Color
			} else {
				eff.Color = css.Color{A: 0.25}
			}
			node.AddEffects(eff)
		case css.FilterOpacity:
			node.Opacity = clampUnit(node.Opacity * f.Amount)
		case css.FilterBrightness, css.FilterContrast, css.FilterSaturate:
			// Recorded as adjustment metadata; hosts with tone controls can
			// re-apply them, everyone else at least sees the intent.
			node.SetMetadata("filter."+f.Kind.String(), fmt.Sprintf("%.3f", f.Amount))
			m.diag.Add(DiagFilter, nodeLabel(el), "%s(%.2f) recorded as metadata adjustment", f.Kind, f.Amount)
		default:
			name := f.Name
			if name == "" {
				name = f.Kind.String()
			}
			m.rasterize(ctx, el, node, fmt.Sprintf("filter %q has no native equivalent", name))
			return
		}
	}
}

// unknownFilterName returns the first unrecognized function name in the chain.
func unknownFilterName(chain []css.Filter) string {
	for _, f := range chain {
		if f.Kind == css.FilterUnknown {
			return f.Name
		}
	}
	return "unknown"
}

// rasterize flags the node subtree as pre-rendered and substitutes the
// captured snapshot bitmap when the extraction layer supplied one.
func (m *Materializer) rasterize(ctx context.Context, el *capture.ElementNode, node *scene.Node, why string) {
	node.Rasterized = true
	m.diag.Add(DiagFilter, nodeLabel(el), "%s, subtree rasterized", why)
	if el.SnapshotHash == "" {
		return
	}
	res := m.pipeline.Resolve(ctx, el.SnapshotHash)
	if res.Failed() {
		m.diag.Add(DiagAsset, nodeLabel(el), "snapshot %q unavailable for rasterized subtree", el.SnapshotHash)
		return
	}
	node.SetFills([]scene.Paint{{Type: scene.PaintImage, Visible: true, Opacity: 1, Image: res.Ref, ScaleMode: scene.ScaleModeFill}})
}

// transform converts the page-space CSS transform into a matrix relative to
// the node's own untransformed box: Mrel = T(origin) * M * T(-origin).
func (m *Materializer) transform(el *capture.ElementNode, node *scene.Node) {
	if el.Layout == nil || el.Layout.Transform == "" {
		return
	}
	mat := css.ParseTransform(el.Layout.Transform)
	if mat.IsIdentity() {
		return
	}
	if mat.IsDegenerate() {
		m.diag.Add(DiagNode, nodeLabel(el), "degenerate transform %q dropped", el.Layout.Transform)
		return
	}
	ox, oy := css.ParseTransformOrigin(el.Layout.TransformOrigin, el.Layout.Width, el.Layout.Height)
	rel := css.Identity().Translated(ox, oy).Mul(mat).Mul(css.Identity().Translated(-ox, -oy))

	node.Transform = &rel
	node.Rotation = rel.Decompose().Rotate
}

// text materializes a text element. When no usable font exists at all the
// node degrades to a bordered placeholder rectangle that preserves geometry.
func (m *Materializer) text(ctx context.Context, el *capture.ElementNode, name string) *scene.Node {
	ts := el.TextStyle
	if ts == nil {
		ts = &capture.TextStyle{}
	}

	res, err := m.fonts.Resolve(ts.FontFamily, ts.FontStyle)
	if err != nil {
		m.diag.Add(DiagFont, nodeLabel(el), "no usable font for %q, placeholder substituted", ts.FontFamily)
		return m.textPlaceholder(ctx, el, name)
	}
	if res.MetricsRatio != 1 {
		m.diag.Add(DiagFont, nodeLabel(el), "substituted %q with %q, size compensated by %.3f", ts.FontFamily, res.Family, res.MetricsRatio)
	}

	node := scene.NewNode(scene.KindText, name)
	node.ID = el.ID
	node.Text = el.Text

	fontSize := ts.FontSize
	if fontSize <= 0 {
		fontSize = 16
	}
	style := &scene.TextStyle{
		FontFamily:     res.Family,
		FontStyle:      res.Style,
		FontSize:       fontSize * res.MetricsRatio,
		LineHeightPx:   lineHeightPx(ts.LineHeight, fontSize),
		LetterSpacing:  css.ParseValue(ts.LetterSpacing).Px(fontSize, 0),
		TextAlign:      mapTextAlign(ts.TextAlign),
		Decoration:     mapDecoration(ts.TextDecoration),
		Case:           mapTextCase(ts.TextTransform),
		ParagraphGap:   ts.ParagraphGap,
		MetricsApplied: res.MetricsRatio != 1,
	}
	node.TextStyle = style

	if c, ok := css.ParseColor(ts.Color); ok {
		node.SetFills([]scene.Paint{solidPaint(c, 1)})
	} else {
		node.SetFills([]scene.Paint{solidPaint(css.Color{A: 1}, 1)})
	}

	w, h := textExtent(el, ts, style)
	node.Resize(w, h)
	m.common(ctx, el, node)
	return node
}

// textExtent picks the text box size: measured metrics from the extraction
// layer win, then the captured layout box, then an estimate from the type
// size. Resize enforces the 1-unit floor either way.
func textExtent(el *capture.ElementNode, ts *capture.TextStyle, style *scene.TextStyle) (float64, float64) {
	if ts.MeasuredWidth > 0 && ts.MeasuredHeight > 0 {
		return ts.MeasuredWidth, ts.MeasuredHeight
	}
	if el.Layout != nil && el.Layout.Width > 0 && el.Layout.Height > 0 {
		return el.Layout.Width, el.Layout.Height
	}
	lh := style.LineHeightPx
	if lh <= 0 {
		lh = style.FontSize * 1.2
	}
	return style.FontSize * 0.6 * float64(len([]rune(el.Text))), lh
}

func (m *Materializer) textPlaceholder(ctx context.Context, el *capture.ElementNode, name string) *scene.Node {
	node := scene.NewNode(scene.KindRectangle, name)
	node.ID = el.ID
	node.PlaceholderFor = el.ID
	if node.PlaceholderFor == "" {
		node.PlaceholderFor = el.Text
	}
	if el.Layout != nil {
		node.Resize(el.Layout.Width, el.Layout.Height)
	}
	node.Stroke = &scene.Stroke{
		Color: css.Color{R: 0.6, G: 0.6, B: 0.6, A: 1},
		Top:   1, Right: 1, Bottom: 1, Left: 1,
		Uniform: true,
	}
	m.common(ctx, el, node)
	return node
}

func lineHeightPx(raw string, fontSize float64) float64 {
	v := css.ParseValue(raw)
	if v.IsKeyword() || raw == "" {
		return fontSize * 1.2
	}
	if v.IsNumeric() {
		// unitless multiplier vs explicit length
		px := v.Px(fontSize, fontSize)
		if px > 0 {
			return px
		}
	}
	return fontSize * 1.2
}

func mapTextAlign(v string) scene.AxisAlign {
	switch v {
	case "center":
		return scene.AlignCenter
	case "right", "end":
		return scene.AlignMax
	case "justify":
		return scene.AlignSpaceBetween
	default:
		return scene.AlignMin
	}
}

func mapDecoration(v string) string {
	switch {
	case strings.Contains(v, "underline"):
		return "UNDERLINE"
	case strings.Contains(v, "line-through"):
		return "STRIKETHROUGH"
	default:
		return "NONE"
	}
}

func mapTextCase(v string) string {
	switch v {
	case "uppercase":
		return "UPPER"
	case "lowercase":
		return "LOWER"
	case "capitalize":
		return "TITLE"
	default:
		return "ORIGINAL"
	}
}

// vector attaches inline SVG markup to a vector node, registering a raster
// companion so hosts without a vector importer still see the artwork.
func (m *Materializer) vector(ctx context.Context, el *capture.ElementNode, node *scene.Node) {
	switch {
	case el.ImageHash != "":
		res := m.pipeline.Resolve(ctx, el.ImageHash)
		if res.Failed() {
			m.diag.Add(DiagAsset, nodeLabel(el), "vector asset %q failed, placeholder substituted", el.ImageHash)
			node.PlaceholderFor = el.ImageHash
			node.SetFills([]scene.Paint{placeholderPaint(res.Placeholder)})
			return
		}
		if len(res.SVGMarkup) > 0 {
			node.SetMetadata("svg", string(res.SVGMarkup))
		}
		node.SetFills([]scene.Paint{{Type: scene.PaintImage, Visible: true, Opacity: 1, Image: res.Ref, ScaleMode: scene.ScaleModeFill}})
	case el.SVGContent != "":
		node.SetMetadata("svg", el.SVGContent)
		markup := []byte(el.SVGContent)
		w, h, err := assets.SVGSize(markup)
		if err == nil {
			if img, rerr := imgutil.RasterizeSVGToImage(markup, w, h); rerr == nil {
				if data, eerr := imgutil.EncodePNG(img); eerr == nil {
					ref := m.doc.RegisterImage("svg:"+nodeLabel(el), "png", data, img.Bounds().Dx(), img.Bounds().Dy())
					node.SetFills([]scene.Paint{{Type: scene.PaintImage, Visible: true, Opacity: 1, Image: ref, ScaleMode: scene.ScaleModeFill}})
					return
				}
			}
		}
		m.diag.Add(DiagAsset, nodeLabel(el), "inline vector could not be rasterized, markup preserved")
	}
}

// children classifies the container and places every child either in flow or
// absolutely, per the hybrid decision.
func (m *Materializer) children(ctx context.Context, el *capture.ElementNode, node *scene.Node) {
	if len(el.Children) == 0 || el.Layout == nil {
		return
	}

	intel := m.classifier.Classify(el)
	useFlow := m.autoLayout && intel.CanAutoLayout() && node.Kind.Caps().AutoLayout
	if useFlow {
		flow := intel.Flow
		node.Layout = &flow
	} else if m.autoLayout && strings.Contains(el.Layout.Display, "flex") {
		m.diag.Add(DiagLayout, nodeLabel(el), "flex container kept absolute: %s", intel.Reason)
	}

	for i, child := range el.Children {
		if child.Layout == nil {
			m.diag.Add(DiagNode, nodeLabel(child), "child without geometry skipped")
			continue
		}
		cn := m.element(ctx, child)
		if cn == nil {
			continue
		}

		var plan *layout.ChildPlan
		if i < len(intel.Children) {
			plan = &intel.Children[i]
		}

		if useFlow && plan != nil && !plan.Absolute {
			cn.PlaceInFlow(scene.FlowChild{Align: plan.Align, Grow: plan.Grow})
		} else {
			rx := child.Layout.X - el.Layout.X
			ry := child.Layout.Y - el.Layout.Y
			if cn.Transform != nil {
				// captured geometry is post-transform; shift back by the
				// displacement of the untransformed box origin
				dx, dy := cn.Transform.Apply(0, 0)
				rx -= dx
				ry -= dy
			}
			var cons scene.Constraints
			if plan != nil && plan.Absolute {
				cons = plan.Constraints
			} else {
				cons = m.classifier.AnchorConstraints(el, child)
			}
			cn.PlaceAbsolute(rx, ry, cons)
		}
		node.AppendChild(cn)
	}
}

func nodeLabel(el *capture.ElementNode) string {
	if el.ID != "" {
		return el.ID
	}
	return scene.SlugName(el.Name, el.Classes)
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
