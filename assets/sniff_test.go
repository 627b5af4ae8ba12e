package assets

import (
	"bytes"
	"image"
	"testing"

	"github.com/disintegration/imaging"

	"hfc/utils/images"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	data, err := images.EncodePNG(image.NewRGBA(image.Rect(0, 0, w, h)))
	if err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return data
}

func bmpBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h)), imaging.BMP); err != nil {
		t.Fatalf("encode bmp: %v", err)
	}
	return buf.Bytes()
}

func TestSniff(t *testing.T) {
	if got := Sniff(pngBytes(t, 2, 2), ""); got != FormatPNG {
		t.Fatalf("png sniffed as %v", got)
	}
	if got := Sniff(bmpBytes(t, 2, 2), "image/png"); got != FormatTranscode {
		t.Fatal("mislabeled bmp must still route to transcoding")
	}
	if got := Sniff([]byte(`<svg xmlns="http://www.w3.org/2000/svg"/>`), ""); got != FormatSVG {
		t.Fatalf("svg content sniffed as %v", got)
	}
	if got := Sniff([]byte("whatever"), "image/svg+xml"); got != FormatSVG {
		t.Fatal("declared svg mime must win")
	}
	if got := Sniff([]byte{0xef, 0xbb, 0xbf, '<', '?', 'x', 'm', 'l', ' '}, ""); got == FormatSVG {
		t.Fatal("xml prolog without svg root is not svg")
	}
	if got := Sniff([]byte("plain text"), ""); got != FormatUnknown {
		t.Fatalf("garbage sniffed as %v", got)
	}
}

func TestSVGSize(t *testing.T) {
	cases := []struct {
		name   string
		markup string
		w, h   int
	}{
		{"attributes", `<svg width="120" height="60"></svg>`, 120, 60},
		{"px units", `<svg width="120px" height="60px"></svg>`, 120, 60},
		{"viewBox", `<svg viewBox="0 0 300 150"></svg>`, 300, 150},
		{"attributes win", `<svg width="10" height="20" viewBox="0 0 300 150"></svg>`, 10, 20},
		{"percent has no size", `<svg width="100%" height="100%"></svg>`, 0, 0},
		{"nothing declared", `<svg></svg>`, 0, 0},
	}
	for _, tc := range cases {
		w, h, err := SVGSize([]byte(tc.markup))
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if w != tc.w || h != tc.h {
			t.Errorf("%s: size = %dx%d, want %dx%d", tc.name, w, h, tc.w, tc.h)
		}
	}

	if _, _, err := SVGSize([]byte("<svg")); err == nil {
		t.Fatal("broken markup must error")
	}
}
