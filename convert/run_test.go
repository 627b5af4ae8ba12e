package convert

import (
	"archive/zip"
	"context"
	"encoding/base64"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"hfc/capture"
	"hfc/config"
	"hfc/state"
)

func captureJSON(t *testing.T, imageData []byte) []byte {
	t.Helper()
	payload := map[string]any{
		"root": map[string]any{
			"type": "frame",
			"id":   "page",
			"layout": map[string]any{
				"x": 0, "y": 0, "width": 400, "height": 300,
			},
			"children": []any{
				map[string]any{
					"type": "text",
					"id":   "title",
					"text": "Hello",
					"layout": map[string]any{
						"x": 20, "y": 20, "width": 200, "height": 30,
					},
					"textStyle": map[string]any{
						"fontFamily": "Arial",
						"fontSize":   24,
						"color":      "#000000",
					},
				},
				map[string]any{
					"type":      "image",
					"id":        "hero",
					"imageHash": "img1",
					"layout": map[string]any{
						"x": 20, "y": 70, "width": 360, "height": 200,
					},
				},
			},
		},
		"assets": map[string]any{
			"images": map[string]any{
				"img1": map[string]any{
					"base64": base64.StdEncoding.EncodeToString(imageData),
				},
			},
		},
	}
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal capture: %v", err)
	}
	return data
}

func runContext(t *testing.T) (context.Context, *state.LocalEnv) {
	t.Helper()
	cfg, err := config.LoadConfiguration("")
	if err != nil {
		t.Fatalf("default configuration: %v", err)
	}
	ctx := state.ContextWithEnv(context.Background())
	env := state.EnvFromContext(ctx)
	env.Cfg = cfg
	env.Log = zap.NewNop()
	return ctx, env
}

func assertBundle(t *testing.T, path string) {
	t.Helper()
	r, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("bundle %s unreadable: %v", path, err)
	}
	defer r.Close()
	found := false
	for _, f := range r.File {
		if f.Name == sceneFileName {
			found = true
		}
	}
	if !found {
		t.Fatalf("bundle %s has no %s", path, sceneFileName)
	}
}

func TestProcess_SingleFile(t *testing.T) {
	ctx, env := runContext(t)
	srcDir, dstDir := t.TempDir(), t.TempDir()

	src := filepath.Join(srcDir, "page.json")
	if err := os.WriteFile(src, captureJSON(t, pngPayload(t, 8, 8)), 0644); err != nil {
		t.Fatal(err)
	}

	if err := process(ctx, src, dstDir, env.Log); err != nil {
		t.Fatalf("process: %v", err)
	}
	assertBundle(t, filepath.Join(dstDir, "page.scene.zip"))
}

func TestProcess_ExistingOutput(t *testing.T) {
	ctx, env := runContext(t)
	srcDir, dstDir := t.TempDir(), t.TempDir()

	src := filepath.Join(srcDir, "page.json")
	if err := os.WriteFile(src, captureJSON(t, pngPayload(t, 8, 8)), 0644); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dstDir, "page.scene.zip")
	if err := os.WriteFile(out, []byte("occupied"), 0644); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(src)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := processCapture(ctx, f, "page.json", dstDir, env.Log); err == nil {
		t.Fatal("existing output without overwrite must fail")
	}

	env.Overwrite = true
	if _, err := f.Seek(0, 0); err != nil {
		t.Fatal(err)
	}
	if err := processCapture(ctx, f, "page.json", dstDir, env.Log); err != nil {
		t.Fatalf("overwrite run failed: %v", err)
	}
	assertBundle(t, out)
}

func TestProcess_Directory(t *testing.T) {
	ctx, env := runContext(t)
	srcDir, dstDir := t.TempDir(), t.TempDir()

	nested := filepath.Join(srcDir, "site", "pages")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(nested, "home.json"), captureJSON(t, pngPayload(t, 8, 8)), 0644); err != nil {
		t.Fatal(err)
	}
	// noise the walker must skip
	if err := os.WriteFile(filepath.Join(srcDir, "readme.txt"), []byte("ignore me"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := process(ctx, srcDir, dstDir, env.Log); err != nil {
		t.Fatalf("process: %v", err)
	}
	assertBundle(t, filepath.Join(dstDir, "site", "pages", "home.scene.zip"))
}

func TestProcess_DirectoryNoDirs(t *testing.T) {
	ctx, env := runContext(t)
	env.NoDirs = true
	srcDir, dstDir := t.TempDir(), t.TempDir()

	nested := filepath.Join(srcDir, "deep", "path")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(nested, "home.json"), captureJSON(t, pngPayload(t, 8, 8)), 0644); err != nil {
		t.Fatal(err)
	}

	if err := process(ctx, srcDir, dstDir, env.Log); err != nil {
		t.Fatalf("process: %v", err)
	}
	assertBundle(t, filepath.Join(dstDir, "home.scene.zip"))
}

func TestProcess_Archive(t *testing.T) {
	ctx, env := runContext(t)
	dstDir := t.TempDir()

	archivePath := writeTempZip(t, map[string][]byte{
		"pages/home.json": captureJSON(t, pngPayload(t, 8, 8)),
		"pages/style.css": []byte("body {}"),
	})

	if err := process(ctx, archivePath, dstDir, env.Log); err != nil {
		t.Fatalf("process: %v", err)
	}
	assertBundle(t, filepath.Join(dstDir, "pages", "home.scene.zip"))
}

func TestProcess_ArchiveInnerPath(t *testing.T) {
	ctx, env := runContext(t)
	dstDir := t.TempDir()

	archivePath := writeTempZip(t, map[string][]byte{
		"a/home.json":  captureJSON(t, pngPayload(t, 8, 8)),
		"b/other.json": captureJSON(t, pngPayload(t, 8, 8)),
	})

	src := filepath.Join(archivePath, "a")
	if err := process(ctx, src, dstDir, env.Log); err != nil {
		t.Fatalf("process: %v", err)
	}
	assertBundle(t, filepath.Join(dstDir, "a", "home.scene.zip"))
	if _, err := os.Stat(filepath.Join(dstDir, "b", "other.scene.zip")); !os.IsNotExist(err) {
		t.Error("path-scoped archive walk must not process other directories")
	}
}

func TestProcess_Unrecognized(t *testing.T) {
	ctx, env := runContext(t)
	dstDir := t.TempDir()

	src := writeTemp(t, "data.txt", []byte("not a capture"))
	if err := process(ctx, src, dstDir, env.Log); err == nil {
		t.Fatal("unrecognized input must fail")
	}
}

func TestProcess_MissingSource(t *testing.T) {
	ctx, env := runContext(t)
	if err := process(ctx, filepath.Join(t.TempDir(), "ghost.json"), t.TempDir(), env.Log); err == nil {
		t.Fatal("missing source must fail")
	}
}

func TestMaterializeCapture_Options(t *testing.T) {
	ctx, env := runContext(t)

	data := captureJSON(t, pngPayload(t, 8, 8))
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	raw["options"] = map[string]any{"applyAutoLayout": false, "sourceUrl": "https://example.com"}
	data, err := json.Marshal(raw)
	if err != nil {
		t.Fatal(err)
	}

	capDoc, err := capture.Parse(data, nil)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	doc, _, diag, err := materializeCapture(ctx, capDoc, env, env.Log)
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}
	if doc.Root == nil {
		t.Fatal("no root node")
	}
	if doc.Meta["sourceUrl"] != "https://example.com" {
		t.Errorf("unrecognized option not passed through: %v", doc.Meta)
	}
	if diag == nil {
		t.Fatal("diagnostics missing")
	}
}
