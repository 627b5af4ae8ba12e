// Package assets resolves captured asset references (content hashes) to
// native image handles: registry lookup with fuzzy recovery, embedded payload
// decode, direct and proxy-routed fetch, cross-context format transcoding and
// the flagged-placeholder failure policy.
package assets

import (
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"github.com/h2non/filetype"
	"github.com/h2non/filetype/matchers"
)

// Format classifies payload bytes for routing.
type Format int

const (
	FormatUnknown Format = iota
	FormatPNG
	FormatJPEG
	FormatGIF
	FormatSVG
	FormatTranscode // decodable but not natively supported (webp, tiff, bmp, ...)
)

// Ext returns the asset file extension for the format.
func (f Format) Ext() string {
	switch f {
	case FormatPNG:
		return "png"
	case FormatJPEG:
		return "jpg"
	case FormatGIF:
		return "gif"
	case FormatSVG:
		return "svg"
	default:
		return "bin"
	}
}

// Sniff classifies payload bytes by signature. The declared mime type is
// consulted only for SVG, which has no magic bytes; everything else goes by
// content so a mislabeled webp is still routed to transcoding.
func Sniff(data []byte, declaredMime string) Format {
	if LooksLikeSVG(data, declaredMime) {
		return FormatSVG
	}
	t, err := filetype.Match(data)
	if err != nil || t == filetype.Unknown {
		return FormatUnknown
	}
	switch t {
	case matchers.TypePng:
		return FormatPNG
	case matchers.TypeJpeg:
		return FormatJPEG
	case matchers.TypeGif:
		return FormatGIF
	case matchers.TypeWebp, matchers.TypeTiff, matchers.TypeBmp, matchers.TypeIco, matchers.TypeHeif:
		return FormatTranscode
	default:
		return FormatUnknown
	}
}

// LooksLikeSVG detects SVG by declared mime or by content prefix.
func LooksLikeSVG(data []byte, declaredMime string) bool {
	if strings.Contains(strings.ToLower(declaredMime), "svg") {
		return true
	}
	head := strings.TrimLeft(string(trimBOM(data, 256)), " \t\r\n")
	if strings.HasPrefix(head, "<svg") {
		return true
	}
	return strings.HasPrefix(head, "<?xml") && strings.Contains(head, "<svg")
}

func trimBOM(data []byte, limit int) []byte {
	if len(data) > limit {
		data = data[:limit]
	}
	if len(data) >= 3 && data[0] == 0xef && data[1] == 0xbb && data[2] == 0xbf {
		data = data[3:]
	}
	return data
}

// SVGSize extracts intrinsic pixel dimensions from SVG markup: explicit
// width/height attributes first, viewBox second. Returns zeros when the
// markup declares neither.
func SVGSize(markup []byte) (w, h int, err error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(markup); err != nil {
		return 0, 0, err
	}
	root := doc.SelectElement("svg")
	if root == nil {
		return 0, 0, nil
	}

	w = svgLength(root.SelectAttrValue("width", ""))
	h = svgLength(root.SelectAttrValue("height", ""))
	if w > 0 && h > 0 {
		return w, h, nil
	}

	if vb := root.SelectAttrValue("viewBox", ""); vb != "" {
		parts := strings.FieldsFunc(vb, func(r rune) bool { return r == ' ' || r == ',' })
		if len(parts) == 4 {
			vw, err1 := strconv.ParseFloat(parts[2], 64)
			vh, err2 := strconv.ParseFloat(parts[3], 64)
			if err1 == nil && err2 == nil && vw > 0 && vh > 0 {
				return int(vw + 0.5), int(vh + 0.5), nil
			}
		}
	}
	return w, h, nil
}

// svgLength parses a unitless or px length attribute; percentages and other
// units carry no intrinsic pixel size.
func svgLength(v string) int {
	v = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(v), "px"))
	if v == "" || strings.HasSuffix(v, "%") {
		return 0
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		return 0
	}
	return int(f + 0.5)
}
