package scene

import (
	"strings"
	"testing"

	"hfc/css"
)

func TestOrderPaints_SolidFirst(t *testing.T) {
	paints := []Paint{
		{Type: PaintImage, Opacity: 1, Visible: true},
		{Type: PaintSolid, Color: css.Color{R: 1, A: 1}, Opacity: 1, Visible: true},
		{Type: PaintGradientLinear, Opacity: 1, Visible: true},
		{Type: PaintSolid, Color: css.Color{G: 1, A: 1}, Opacity: 1, Visible: true},
	}
	out := OrderPaints(paints)
	if len(out) != 4 {
		t.Fatalf("paint count changed: %d", len(out))
	}
	if out[0].Type != PaintSolid || out[1].Type != PaintSolid {
		t.Fatalf("solids must come first: %v %v", out[0].Type, out[1].Type)
	}
	// stable within groups
	if out[0].Color.R != 1 || out[1].Color.G != 1 {
		t.Fatal("solid relative order not preserved")
	}
	if out[2].Type != PaintImage || out[3].Type != PaintGradientLinear {
		t.Fatal("non-solid relative order not preserved")
	}
}

func TestNode_ResizeMinimum(t *testing.T) {
	n := NewNode(KindRectangle, "r")
	n.Resize(0, -5)
	if n.Width < 1 || n.Height < 1 {
		t.Fatalf("degenerate size allowed: %v x %v", n.Width, n.Height)
	}
}

func TestNode_PlacementExclusive(t *testing.T) {
	n := NewNode(KindFrame, "f")

	n.PlaceAbsolute(10, 20, Constraints{Horizontal: ConstraintCenter, Vertical: ConstraintStretch})
	if n.Flow != nil || !n.Positioned || n.Constraints == nil {
		t.Fatalf("absolute placement state wrong: %+v", n)
	}

	n.PlaceInFlow(FlowChild{Align: AlignCenter, Grow: 1})
	if n.Constraints != nil || n.Positioned || n.Flow == nil {
		t.Fatalf("flow placement must clear absolute state: %+v", n)
	}
	if n.X != 0 || n.Y != 0 {
		t.Fatal("flow children never carry explicit coordinates")
	}
}

func TestCapabilities(t *testing.T) {
	if !KindFrame.Caps().AutoLayout || !KindFrame.Caps().Children {
		t.Fatal("frames support auto layout and children")
	}
	if KindText.Caps().Children {
		t.Fatal("text nodes cannot hold children")
	}
	if KindGroup.Caps().Fills {
		t.Fatal("groups have no fills")
	}

	group := NewNode(KindGroup, "g")
	if group.SetFills([]Paint{{Type: PaintSolid}}) {
		t.Fatal("fill write on group must be refused")
	}
	text := NewNode(KindText, "t")
	if text.AppendChild(NewNode(KindRectangle, "r")) {
		t.Fatal("child attach on text must be refused")
	}
}

func TestMetadata_CapabilityChecked(t *testing.T) {
	n := NewNode(KindFrame, "f")
	if !n.SetMetadata("sourceId", "n1") {
		t.Fatal("frame supports metadata")
	}
	if v, ok := n.Metadata("sourceId"); !ok || v != "n1" {
		t.Fatalf("metadata lost: %q %v", v, ok)
	}
	if n.SetMetadata("", "x") {
		t.Fatal("empty key must be refused")
	}
}

func TestDocument_IdempotentImageRegistration(t *testing.T) {
	d := NewDocument(nil)
	a := d.RegisterImage("h1", "png", []byte{1, 2, 3}, 10, 10)
	b := d.RegisterImage("h1", "jpg", []byte{9, 9}, 99, 99)
	if a != b {
		t.Fatal("same hash must yield the same native handle")
	}
	if b.Format != "png" || len(b.Data) != 3 {
		t.Fatal("first writer must win")
	}
	if len(d.Images()) != 1 {
		t.Fatalf("one handle expected, got %d", len(d.Images()))
	}
}

func TestDocument_Encode(t *testing.T) {
	d := NewDocument(nil)
	root := NewNode(KindFrame, "root")
	root.Layout = &FlowLayout{Mode: LayoutHorizontal, PrimaryAlign: AlignCenter, CounterAlign: AlignCenter, PrimarySizing: SizingFixed, CounterSizing: SizingAuto}
	child := NewNode(KindText, "caption")
	child.Text = "hello"
	child.PlaceInFlow(FlowChild{Align: AlignCenter})
	root.AppendChild(child)
	d.Root = root
	d.RegisterImage("cafe", "png", []byte{0x89}, 1, 1)

	data, err := d.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	s := string(data)
	for _, want := range []string{`"HORIZONTAL"`, `"CENTER"`, `"characters": "hello"`, `"assets/cafe.png"`} {
		if !strings.Contains(s, want) {
			t.Fatalf("encoded document missing %s:\n%s", want, s)
		}
	}
	// flow child never serializes explicit coordinates
	if strings.Contains(s, `"x":`) {
		t.Fatal("flow child leaked explicit coordinates")
	}
}

func TestDocument_EncodeStrokeWeight(t *testing.T) {
	d := NewDocument(nil)
	root := NewNode(KindRectangle, "box")
	root.Stroke = &Stroke{Top: 1, Right: 3, Bottom: 1, Left: 1}
	d.Root = root

	data, err := d.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	// uneven sides collapse to the maximum for single-weight consumers
	if !strings.Contains(string(data), `"weight": 3`) {
		t.Fatalf("stroke weight not serialized:\n%s", data)
	}
}
