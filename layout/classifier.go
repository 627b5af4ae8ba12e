// Package layout infers flow-container ("auto layout") configuration from a
// captured element and its children's geometry, scoring how well the children
// fit a flow model and planning which children keep flow semantics versus
// absolute placement with anchoring constraints.
package layout

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"hfc/capture"
	"hfc/css"
	"hfc/scene"
)

// Thresholds are the empirically chosen heuristic constants. They are
// configurable and internally consistent, not individually meaningful.
type Thresholds struct {
	AnchorTolerance float64 `yaml:"anchor_tolerance"` // px, center/edge snapping
	LinearTolerance float64 `yaml:"linear_tolerance"` // px, linear arrangement detection
	StretchCoverage float64 `yaml:"stretch_coverage"` // fraction of parent extent
	AutoCutoff      float64 `yaml:"auto_cutoff"`      // confidence above which pure flow applies
	AbsoluteCutoff  float64 `yaml:"absolute_cutoff"`  // confidence below which everything is absolute
	OverlapPenalty  float64 `yaml:"overlap_penalty"`
	FlexBonus       float64 `yaml:"flex_bonus"`
	GridBonus       float64 `yaml:"grid_bonus"`
	LinearBonus     float64 `yaml:"linear_bonus"`
	BaseConfidence  float64 `yaml:"base_confidence"`
}

// DefaultThresholds returns the values observed to behave well in practice.
func DefaultThresholds() Thresholds {
	return Thresholds{
		AnchorTolerance: 20,
		LinearTolerance: 10,
		StretchCoverage: 0.7,
		AutoCutoff:      0.7,
		AbsoluteCutoff:  0.3,
		OverlapPenalty:  0.3,
		FlexBonus:       0.3,
		GridBonus:       0.2,
		LinearBonus:     0.2,
		BaseConfidence:  0.5,
	}
}

// Fallback labels the advisory positioning strategy for a container.
type Fallback int

const (
	FallbackAbsolute Fallback = iota
	FallbackMixed
	FallbackAuto
)

// String returns the strategy label.
func (f Fallback) String() string {
	switch f {
	case FallbackMixed:
		return "MIXED"
	case FallbackAuto:
		return "AUTO"
	default:
		return "ABSOLUTE"
	}
}

// ChildPlan is the per-child placement decision of the hybrid strategy.
type ChildPlan struct {
	Index       int
	Absolute    bool
	Constraints scene.Constraints // meaningful when Absolute
	Align       scene.AxisAlign   // cross-axis alignment when in flow
	Grow        float64           // flex-grow when in flow
	Reason      string
}

// Intelligence is the classifier result for one container. Ephemeral:
// consumed by the materializer for the same container, never cached.
type Intelligence struct {
	Flow       scene.FlowLayout
	Confidence float64
	Children   []ChildPlan
	Fallback   Fallback
	Reason     string
}

// CanAutoLayout reports whether the container maps to pure flow layout.
func (i Intelligence) CanAutoLayout() bool {
	return i.Fallback == FallbackAuto
}

// Classifier turns captured CSS layout snapshots into flow decisions.
type Classifier struct {
	th  Thresholds
	log *zap.Logger
}

// NewClassifier creates a classifier with the given thresholds.
func NewClassifier(th Thresholds, log *zap.Logger) *Classifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &Classifier{th: th, log: log.Named("layout")}
}

// Classify computes the layout intelligence for one container. The element is
// expected to be normalized (capture.Normalize) so CSS fields carry their
// initial values instead of being empty.
func (c *Classifier) Classify(el *capture.ElementNode) Intelligence {
	l := el.Layout
	out := Intelligence{}

	out.Flow = c.inferFlow(l)
	out.Confidence = c.score(l, el.Children, &out)
	out.Children = c.planChildren(el)

	absCount := 0
	for _, cp := range out.Children {
		if cp.Absolute {
			absCount++
		}
	}

	switch {
	case out.Confidence < c.th.AbsoluteCutoff:
		out.Fallback = FallbackAbsolute
		out.Reason = fmt.Sprintf("confidence %.2f below absolute cutoff", out.Confidence)
	case out.Confidence <= c.th.AutoCutoff && len(el.Children) >= 1:
		out.Fallback = FallbackMixed
		out.Reason = fmt.Sprintf("confidence %.2f in hybrid range, %d/%d children absolute", out.Confidence, absCount, len(el.Children))
	case out.Confidence > c.th.AutoCutoff:
		out.Fallback = FallbackAuto
		out.Reason = fmt.Sprintf("confidence %.2f above auto cutoff", out.Confidence)
	default:
		out.Fallback = FallbackAbsolute
		out.Reason = "no children to lay out"
	}

	c.log.Debug("Container classified",
		zap.String("id", el.ID),
		zap.Stringer("mode", out.Flow.Mode),
		zap.Float64("confidence", out.Confidence),
		zap.Stringer("fallback", out.Fallback))
	return out
}

// inferFlow derives the flow configuration from the CSS snapshot.
func (c *Classifier) inferFlow(l *capture.Layout) scene.FlowLayout {
	flow := scene.FlowLayout{
		PrimaryAlign: scene.AlignMin,
		CounterAlign: scene.AlignStretch,
	}

	switch {
	case strings.Contains(l.Display, "flex"):
		if strings.HasPrefix(l.FlexDirection, "column") {
			flow.Mode = scene.LayoutVertical
		} else {
			flow.Mode = scene.LayoutHorizontal
		}
	case strings.Contains(l.Display, "grid"):
		flow.Mode = scene.LayoutGrid
	default:
		flow.Mode = scene.LayoutNone
		return flow
	}

	flow.PrimaryAlign = mapJustify(l.JustifyContent)
	flow.CounterAlign = mapAlignItems(l.AlignItems)
	flow.Wrap = strings.HasPrefix(l.FlexWrap, "wrap")

	// FIXED sizing only for an author-specified positive dimension on the
	// relevant axis.
	primaryCSS, counterCSS := l.CSSWidth, l.CSSHeight
	if flow.Mode == scene.LayoutVertical {
		primaryCSS, counterCSS = l.CSSHeight, l.CSSWidth
	}
	if _, ok := css.ParsePositiveLength(primaryCSS); ok {
		flow.PrimarySizing = scene.SizingFixed
	}
	if _, ok := css.ParsePositiveLength(counterCSS); ok {
		flow.CounterSizing = scene.SizingFixed
	}

	flow.PaddingTop = css.ParseValue(l.PaddingTop).Px(16, 0)
	flow.PaddingRight = css.ParseValue(l.PaddingRight).Px(16, 0)
	flow.PaddingBottom = css.ParseValue(l.PaddingBottom).Px(16, 0)
	flow.PaddingLeft = css.ParseValue(l.PaddingLeft).Px(16, 0)
	if gap := css.ParseValue(l.Gap); gap.IsNumeric() {
		flow.ItemSpacing = gap.Px(16, 0)
	}
	return flow
}

// score computes the flow-fit confidence: base, display bonuses, linear
// arrangement bonus, overlap penalty; clamped to [0,1].
func (c *Classifier) score(l *capture.Layout, children []*capture.ElementNode, out *Intelligence) float64 {
	conf := c.th.BaseConfidence
	if strings.Contains(l.Display, "flex") {
		conf += c.th.FlexBonus
	} else if strings.Contains(l.Display, "grid") {
		conf += c.th.GridBonus
	}
	if linearlyArranged(children, c.th.LinearTolerance) {
		conf += c.th.LinearBonus
	}
	if anyOverlap(children) {
		conf -= c.th.OverlapPenalty
	}
	if conf < 0 {
		conf = 0
	}
	if conf > 1 {
		conf = 1
	}
	return conf
}

// linearlyArranged reports whether children form a monotonic run along one
// axis while staying aligned on the other within tolerance.
func linearlyArranged(children []*capture.ElementNode, tol float64) bool {
	boxes := childBoxes(children)
	if len(boxes) < 2 {
		return false
	}

	horizontal, vertical := true, true
	for i := 1; i < len(boxes); i++ {
		prev, cur := boxes[i-1], boxes[i]
		if cur.x < prev.x+prev.w-tol {
			horizontal = false
		}
		if cur.y < prev.y+prev.h-tol {
			vertical = false
		}
	}
	if !horizontal && !vertical {
		return false
	}

	// Cross-axis alignment check: tops (horizontal run) or lefts (vertical
	// run) within tolerance of each other.
	if horizontal {
		aligned := true
		for i := 1; i < len(boxes); i++ {
			if abs(boxes[i].y-boxes[0].y) > tol {
				aligned = false
				break
			}
		}
		if aligned {
			return true
		}
	}
	if vertical {
		for i := 1; i < len(boxes); i++ {
			if abs(boxes[i].x-boxes[0].x) > tol {
				return false
			}
		}
		return true
	}
	return false
}

// anyOverlap reports whether any two child boxes intersect with positive
// area. Applied once, not per pair, so the penalty is a fixed step.
func anyOverlap(children []*capture.ElementNode) bool {
	boxes := childBoxes(children)
	for i := 0; i < len(boxes); i++ {
		for j := i + 1; j < len(boxes); j++ {
			a, b := boxes[i], boxes[j]
			if a.x < b.x+b.w && b.x < a.x+a.w && a.y < b.y+b.h && b.y < a.y+a.h {
				return true
			}
		}
	}
	return false
}

type box struct{ x, y, w, h float64 }

func childBoxes(children []*capture.ElementNode) []box {
	boxes := make([]box, 0, len(children))
	for _, c := range children {
		if c.Layout == nil || c.Layout.Width <= 0 || c.Layout.Height <= 0 {
			continue
		}
		boxes = append(boxes, box{c.Layout.X, c.Layout.Y, c.Layout.Width, c.Layout.Height})
	}
	return boxes
}

// planChildren splits children between flow and absolute placement.
func (c *Classifier) planChildren(parent *capture.ElementNode) []ChildPlan {
	plans := make([]ChildPlan, 0, len(parent.Children))
	for i, child := range parent.Children {
		plan := ChildPlan{Index: i, Align: scene.AlignStretch}

		switch {
		case child.Layout.Position == "absolute" || child.Layout.Position == "fixed":
			plan.Absolute = true
			plan.Reason = "position: " + child.Layout.Position
		case !css.ParseTransform(child.Layout.Transform).IsIdentity():
			plan.Absolute = true
			plan.Reason = "non-identity transform"
		case child.Kind == capture.KindImage || child.Kind == capture.KindSVG:
			// Media keeps its captured geometry regardless of how confident
			// the flow score is.
			plan.Absolute = true
			plan.Reason = "media element"
		case outsideNormalFlow(parent, child, c.th.LinearTolerance):
			plan.Absolute = true
			plan.Reason = "outside parent flow"
		}

		if plan.Absolute {
			plan.Constraints = c.AnchorConstraints(parent, child)
		} else {
			plan.Align = mapAlignSelf(child.Layout.AlignSelf)
			plan.Grow = child.Layout.FlexGrowValue()
		}
		plans = append(plans, plan)
	}
	return plans
}

// outsideNormalFlow detects geometry that escapes the parent box by more than
// the tolerance (negative offsets, overflow past the far edges).
func outsideNormalFlow(parent, child *capture.ElementNode, tol float64) bool {
	p, ch := parent.Layout, child.Layout
	rx, ry := ch.X-p.X, ch.Y-p.Y
	return rx < -tol || ry < -tol || rx > p.Width+tol || ry > p.Height+tol
}

// AnchorConstraints computes per-axis anchoring for an absolutely placed
// child. CENTER is checked first: a child centered within tolerance always
// anchors to the center, even when it is also flush to both edges. Then
// MAX/MIN when flush to an edge, STRETCH when covering most of the extent,
// SCALE otherwise. Axes are independent.
func (c *Classifier) AnchorConstraints(parent, child *capture.ElementNode) scene.Constraints {
	p, ch := parent.Layout, child.Layout
	return scene.Constraints{
		Horizontal: c.anchorAxis(ch.X-p.X, ch.Width, p.Width),
		Vertical:   c.anchorAxis(ch.Y-p.Y, ch.Height, p.Height),
	}
}

func (c *Classifier) anchorAxis(offset, extent, parentExtent float64) scene.ConstraintType {
	if parentExtent <= 0 {
		return scene.ConstraintMin
	}
	tol := c.th.AnchorTolerance

	switch {
	case abs(offset+extent/2-parentExtent/2) <= tol:
		return scene.ConstraintCenter
	case abs(parentExtent-(offset+extent)) <= tol:
		return scene.ConstraintMax
	case abs(offset) <= tol:
		return scene.ConstraintMin
	case extent/parentExtent > c.th.StretchCoverage:
		return scene.ConstraintStretch
	default:
		return scene.ConstraintScale
	}
}

func mapJustify(v string) scene.AxisAlign {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "center":
		return scene.AlignCenter
	case "flex-end", "end", "right":
		return scene.AlignMax
	case "space-between", "space-around", "space-evenly":
		return scene.AlignSpaceBetween
	default:
		return scene.AlignMin
	}
}

func mapAlignItems(v string) scene.AxisAlign {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "flex-start", "start":
		return scene.AlignMin
	case "center":
		return scene.AlignCenter
	case "flex-end", "end":
		return scene.AlignMax
	case "baseline":
		return scene.AlignBaseline
	default:
		return scene.AlignStretch
	}
}

func mapAlignSelf(v string) scene.AxisAlign {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "flex-start", "start":
		return scene.AlignMin
	case "center":
		return scene.AlignCenter
	case "flex-end", "end":
		return scene.AlignMax
	case "baseline":
		return scene.AlignBaseline
	default:
		return scene.AlignStretch
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
