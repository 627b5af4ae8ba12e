package convert

import (
	"testing"
)

func TestDiagnostics_Empty(t *testing.T) {
	d := NewDiagnostics()
	if d.Len() != 0 {
		t.Errorf("Len = %d, want 0", d.Len())
	}
	if len(d.Entries()) != 0 {
		t.Error("empty accumulator returned entries")
	}
}

func TestDiagnostics_CountsByCategory(t *testing.T) {
	d := NewDiagnostics()
	d.Add(DiagAsset, "hero", "image %s failed", "abc")
	d.Add(DiagAsset, "logo", "image %s failed", "def")
	d.Add(DiagFont, "title", "no usable font")

	counts := d.Counts()
	if counts[DiagAsset] != 2 || counts[DiagFont] != 1 {
		t.Errorf("counts = %v", counts)
	}
	if d.Len() != 3 {
		t.Errorf("Len = %d, want 3", d.Len())
	}
}

func TestDiagnostics_EntriesNaturalOrder(t *testing.T) {
	d := NewDiagnostics()
	d.Add(DiagNode, "item10", "dropped")
	d.Add(DiagAsset, "zzz", "failed")
	d.Add(DiagNode, "item2", "dropped")

	got := d.Entries()
	if got[0].Category != DiagAsset {
		t.Fatalf("first category = %s, want %s", got[0].Category, DiagAsset)
	}
	if got[1].Node != "item2" || got[2].Node != "item10" {
		t.Errorf("node order = %s, %s; want item2 before item10", got[1].Node, got[2].Node)
	}
}

func TestDiagnostics_EntriesDetached(t *testing.T) {
	d := NewDiagnostics()
	d.Add(DiagPaint, "a", "x")
	got := d.Entries()
	got[0].Node = "mutated"
	if d.Entries()[0].Node != "a" {
		t.Error("Entries must return a copy")
	}
}
