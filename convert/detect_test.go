package convert

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"
)

func writeTemp(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func writeTempZip(t *testing.T, entries map[string][]byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.zip")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create zip: %v", err)
	}
	defer f.Close()
	w := zip.NewWriter(f)
	for name, data := range entries {
		out, err := w.Create(name)
		if err != nil {
			t.Fatalf("create entry %s: %v", name, err)
		}
		if _, err := out.Write(data); err != nil {
			t.Fatalf("write entry %s: %v", name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return path
}

func TestIsArchiveFile(t *testing.T) {
	path := writeTempZip(t, map[string][]byte{"a.json": []byte(`{"root":{}}`)})

	ok, err := isArchiveFile(path)
	if err != nil {
		t.Fatalf("isArchiveFile: %v", err)
	}
	if !ok {
		t.Error("real zip not recognized")
	}
}

func TestIsArchiveFile_WrongExtension(t *testing.T) {
	path := writeTemp(t, "data.bin", []byte("PK\x03\x04 whatever"))
	ok, err := isArchiveFile(path)
	if err != nil || ok {
		t.Errorf("non-.zip name must not be treated as archive: %v %v", ok, err)
	}
}

func TestIsArchiveFile_FakeContent(t *testing.T) {
	path := writeTemp(t, "fake.zip", []byte("this is just text"))
	ok, err := isArchiveFile(path)
	if err != nil || ok {
		t.Errorf("text named .zip must not be treated as archive: %v %v", ok, err)
	}
}

func TestIsArchiveFile_Missing(t *testing.T) {
	if _, err := isArchiveFile(filepath.Join(t.TempDir(), "missing.zip")); err == nil {
		t.Error("missing file must surface an error")
	}
}

func TestIsCaptureFile(t *testing.T) {
	cases := []struct {
		name string
		data []byte
		want bool
	}{
		{"capture.json", []byte(`{"root":{"type":"frame"}}`), true},
		{"spaced.json", []byte("  \n\t{\"root\":{}}"), true},
		{"bom.json", append([]byte{0xEF, 0xBB, 0xBF}, []byte(`{"root":{}}`)...), true},
		{"array.json", []byte(`[1,2,3]`), false},
		{"empty.json", nil, false},
		{"capture.txt", []byte(`{"root":{}}`), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeTemp(t, tc.name, tc.data)
			got, err := isCaptureFile(path)
			if err != nil {
				t.Fatalf("isCaptureFile: %v", err)
			}
			if got != tc.want {
				t.Errorf("isCaptureFile = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestIsCaptureInArchive(t *testing.T) {
	path := writeTempZip(t, map[string][]byte{
		"page.json":  []byte(`{"root":{"type":"frame"}}`),
		"notes.json": []byte(`"just a string"`),
		"image.png":  {0x89, 'P', 'N', 'G'},
	})

	r, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer r.Close()

	want := map[string]bool{"page.json": true, "notes.json": false, "image.png": false}
	for _, f := range r.File {
		got, err := isCaptureInArchive(f)
		if err != nil {
			t.Fatalf("isCaptureInArchive(%s): %v", f.Name, err)
		}
		if got != want[f.Name] {
			t.Errorf("isCaptureInArchive(%s) = %v, want %v", f.Name, got, want[f.Name])
		}
	}
}
