package convert

import (
	"strings"
	"testing"
	"time"

	"hfc/scene"
)

func TestSummary_Clean(t *testing.T) {
	doc := scene.NewDocument(nil)
	doc.Root = scene.NewNode(scene.KindFrame, "page")
	doc.Root.AppendChild(scene.NewNode(scene.KindRectangle, "box"))

	out, err := Summary("in/page.json", "out/page.scene.zip", 1234*time.Millisecond, doc,
		map[string]int{"embedded": 2, "failed": 0}, NewDiagnostics())
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}

	for _, want := range []string{"in/page.json", "out/page.scene.zip", "1.234s", "nodes:    2", "degradations: none", "embedded"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "failed") {
		t.Error("zero counts must be dropped from the report")
	}
}

func TestSummary_WithDegradations(t *testing.T) {
	doc := scene.NewDocument(nil)
	doc.Root = scene.NewNode(scene.KindFrame, "page")

	diag := NewDiagnostics()
	diag.Add(DiagFont, "title", "substituted Arial for Futura")
	diag.Add(DiagAsset, "hero", "image abc failed every strategy")

	out, err := Summary("a.json", "a.scene.zip", time.Second, doc, nil, diag)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}

	if !strings.Contains(out, "degradations: 2") {
		t.Errorf("missing degradation count:\n%s", out)
	}
	if !strings.Contains(out, "[font] title: substituted Arial for Futura") {
		t.Errorf("missing diagnostic line:\n%s", out)
	}
	// asset sorts before font
	if strings.Index(out, "[asset]") > strings.Index(out, "[font]") {
		t.Error("diagnostics not ordered by category")
	}
}
