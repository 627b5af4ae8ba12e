package assets

import (
	"context"
	"encoding/base64"
	"strings"

	"go.uber.org/zap"

	"hfc/capture"
	"hfc/css"
	"hfc/scene"
	"hfc/utils/images"
)

// Outcome records which resolution tier produced an asset.
type Outcome int

const (
	OutcomeFailed Outcome = iota
	OutcomeCached
	OutcomeEmbedded
	OutcomeFetched
	OutcomeProxied
	OutcomeTranscoded
	OutcomeRasterized
)

// String returns the summary label of the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeCached:
		return "cached"
	case OutcomeEmbedded:
		return "embedded"
	case OutcomeFetched:
		return "fetched"
	case OutcomeProxied:
		return "proxied"
	case OutcomeTranscoded:
		return "transcoded"
	case OutcomeRasterized:
		return "rasterized"
	default:
		return "failed"
	}
}

// placeholderGray is the flagged placeholder fill when the capture supplied
// no placeholder color.
var placeholderGray = css.Color{R: 0.8, G: 0.8, B: 0.8, A: 1}

// Resolved is the pipeline answer for one hash. A nil Ref means the asset
// failed every strategy; Placeholder then carries the stand-in fill color.
type Resolved struct {
	Ref         *scene.ImageRef
	SVGMarkup   []byte // set when the source was vector; Ref holds the raster
	Outcome     Outcome
	Placeholder css.Color
	Attempts    int
}

// Failed reports whether the asset must render as a flagged placeholder.
func (r *Resolved) Failed() bool {
	return r.Ref == nil
}

// Pipeline resolves content hashes against the capture registry. All caches
// are scoped to one conversion run and are not safe for concurrent use.
type Pipeline struct {
	registry   capture.AssetRegistry
	doc        *scene.Document
	fetcher    Fetcher
	transcoder *Transcoder
	cache      map[string]*Resolved
	stats      map[Outcome]int
	log        *zap.Logger
}

// NewPipeline wires a pipeline for one run. Fetcher and transcoder may be nil
// when network fetch / transcoding are unavailable; those tiers then fail
// over to the next strategy.
func NewPipeline(registry capture.AssetRegistry, doc *scene.Document, fetcher Fetcher, transcoder *Transcoder, log *zap.Logger) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{
		registry:   registry,
		doc:        doc,
		fetcher:    fetcher,
		transcoder: transcoder,
		cache:      make(map[string]*Resolved),
		stats:      make(map[Outcome]int),
		log:        log.Named("assets"),
	}
}

// Stats returns resolution counts by outcome label.
func (p *Pipeline) Stats() map[string]int {
	out := make(map[string]int, len(p.stats))
	for o, n := range p.stats {
		out[o.String()] = n
	}
	return out
}

// Resolve maps a content hash to a native image handle. Idempotent within
// the run: the same hash always returns the same Resolved, failures included.
func (p *Pipeline) Resolve(ctx context.Context, hash string) *Resolved {
	key := strings.TrimSpace(hash)
	if hit, ok := p.cache[key]; ok {
		p.stats[OutcomeCached]++
		return hit
	}

	res := p.resolve(ctx, key)
	p.cache[key] = res
	p.stats[res.Outcome]++
	if res.Failed() {
		p.log.Warn("Asset failed every strategy",
			zap.String("hash", hash),
			zap.Int("attempts", res.Attempts))
	}
	return res
}

// ResolveURL resolves a bare URL reference that never entered the capture
// registry (background images captured by URL only). Cached under a separate
// key space so a URL can never shadow a registry hash.
func (p *Pipeline) ResolveURL(ctx context.Context, url string) *Resolved {
	key := "url:" + strings.TrimSpace(url)
	if hit, ok := p.cache[key]; ok {
		p.stats[OutcomeCached]++
		return hit
	}

	res := &Resolved{Placeholder: placeholderGray}
	if url != "" && p.fetcher != nil {
		res.Attempts++
		if data, err := p.fetcher.Fetch(ctx, url); err == nil {
			p.admit(ctx, key, data, DataURLMime(url), OutcomeFetched, res)
		} else {
			p.log.Debug("Background fetch failed", zap.String("url", url), zap.Error(err))
		}
	}
	p.cache[key] = res
	p.stats[res.Outcome]++
	if res.Failed() {
		p.log.Warn("Background asset failed", zap.String("url", url), zap.Int("attempts", res.Attempts))
	}
	return res
}

func (p *Pipeline) resolve(ctx context.Context, hash string) *Resolved {
	res := &Resolved{Placeholder: placeholderGray}

	if key, ok := matchKey(p.registry.SVGs, hash); ok {
		p.resolveSVG(ctx, key, p.registry.SVGs[key], res)
		return res
	}
	key, ok := matchKey(p.registry.Images, hash)
	if !ok {
		res.Attempts++
		return res
	}
	asset := p.registry.Images[key]
	if c, ok := css.ParseColor(asset.PlaceholderColor); ok {
		res.Placeholder = c
	}

	if asset.Base64 != "" {
		res.Attempts++
		if data, err := base64.StdEncoding.DecodeString(asset.Base64); err == nil {
			if p.admit(ctx, key, data, asset.Mime, OutcomeEmbedded, res) {
				return res
			}
		} else {
			p.log.Debug("Embedded payload undecodable", zap.String("hash", key), zap.Error(err))
		}
	}

	if asset.URL != "" && p.fetcher != nil {
		res.Attempts++
		if data, err := p.fetcher.Fetch(ctx, asset.URL); err == nil {
			mime := asset.Mime
			if m := DataURLMime(asset.URL); m != "" {
				mime = m
			}
			if p.admit(ctx, key, data, mime, OutcomeFetched, res) {
				return res
			}
		} else {
			p.log.Debug("Asset fetch failed", zap.String("hash", key), zap.Error(err))
		}
	}
	return res
}

// admit routes payload bytes by sniffed format into the document image table.
func (p *Pipeline) admit(ctx context.Context, hash string, data []byte, mime string, tier Outcome, res *Resolved) bool {
	switch f := Sniff(data, mime); f {
	case FormatSVG:
		p.resolveSVG(ctx, hash, capture.SVGAsset{SVG: string(data)}, res)
		return !res.Failed()
	case FormatPNG, FormatJPEG, FormatGIF:
		w, h := bitmapSize(data)
		res.Ref = p.doc.RegisterImage(hash, f.Ext(), data, w, h)
		res.Outcome = tier
		return true
	default:
		// Unsupported or unrecognized: the companion context gets a shot.
		if p.transcoder == nil {
			return false
		}
		res.Attempts++
		resp, err := p.transcoder.Transcode(ctx, data)
		if err != nil {
			p.log.Debug("Transcode failed", zap.String("hash", hash), zap.Error(err))
			return false
		}
		res.Ref = p.doc.RegisterImage(hash, resp.Format, resp.Data, resp.Width, resp.Height)
		res.Outcome = OutcomeTranscoded
		return true
	}
}

// resolveSVG turns vector markup into a vector-capable Resolved: the markup
// is preserved for vector node creation and a raster companion is registered
// for image fills.
func (p *Pipeline) resolveSVG(ctx context.Context, hash string, asset capture.SVGAsset, res *Resolved) {
	markup := []byte(asset.SVG)
	if len(markup) == 0 && asset.URL != "" && p.fetcher != nil {
		res.Attempts++
		data, err := p.fetcher.Fetch(ctx, asset.URL)
		if err != nil {
			p.log.Debug("SVG fetch failed", zap.String("hash", hash), zap.Error(err))
			return
		}
		markup = data
	}
	if len(markup) == 0 {
		res.Attempts++
		return
	}

	res.Attempts++
	w, h, err := SVGSize(markup)
	if err != nil {
		p.log.Debug("SVG markup unparsable", zap.String("hash", hash), zap.Error(err))
		return
	}
	img, err := images.RasterizeSVGToImage(markup, w, h)
	if err != nil {
		p.log.Debug("SVG rasterization failed", zap.String("hash", hash), zap.Error(err))
		return
	}
	data, err := images.EncodePNG(img)
	if err != nil {
		p.log.Debug("SVG raster encode failed", zap.String("hash", hash), zap.Error(err))
		return
	}
	res.SVGMarkup = markup
	res.Ref = p.doc.RegisterImage(hash, "png", data, img.Bounds().Dx(), img.Bounds().Dy())
	res.Outcome = OutcomeRasterized
}

// bitmapSize reads dimensions of a natively supported bitmap; zeros when the
// header cannot be parsed.
func bitmapSize(data []byte) (int, int) {
	w, h, err := images.DecodeSize(data)
	if err != nil {
		return 0, 0
	}
	return w, h
}

// matchKey finds the registry key for a hash: exact, trimmed, then
// case-insensitive, then an 8-character suffix match. Fuzzy tiers are only
// accepted when they yield exactly one candidate; ambiguity is rejected so
// the wrong image is never silently picked.
func matchKey[V any](m map[string]V, hash string) (string, bool) {
	if m == nil {
		return "", false
	}
	if _, ok := m[hash]; ok {
		return hash, true
	}
	norm := strings.TrimSpace(hash)
	if _, ok := m[norm]; ok {
		return norm, true
	}
	if norm == "" {
		return "", false
	}

	var ci []string
	for k := range m {
		if strings.EqualFold(k, norm) {
			ci = append(ci, k)
		}
	}
	if len(ci) == 1 {
		return ci[0], true
	}
	if len(ci) > 1 {
		return "", false
	}

	if len(norm) < 8 {
		return "", false
	}
	suffix := strings.ToLower(norm[len(norm)-8:])
	var fuzzy []string
	for k := range m {
		if strings.HasSuffix(strings.ToLower(k), suffix) {
			fuzzy = append(fuzzy, k)
		}
	}
	if len(fuzzy) == 1 {
		return fuzzy[0], true
	}
	return "", false
}
