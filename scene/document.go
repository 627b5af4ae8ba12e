package scene

import (
	"fmt"

	"go.uber.org/zap"
)

// ImageRef is a native image handle: one registered bitmap in the document
// image table. Exactly one handle exists per content hash within a run.
type ImageRef struct {
	Hash   string
	Format string // png, jpg, gif, svg (rasterized)
	Data   []byte
	Width  int
	Height int
}

// FileName returns the bundle-relative asset file name of the handle.
func (r *ImageRef) FileName() string {
	return fmt.Sprintf("assets/%s.%s", r.Hash, r.Format)
}

// Document owns one materialized scene tree plus the run-scoped image table.
// Not safe for concurrent use - one document belongs to one conversion run.
type Document struct {
	Root *Node
	Meta map[string]string

	images map[string]*ImageRef
	order  []string // registration order for deterministic serialization
	log    *zap.Logger
}

// NewDocument creates an empty document for one conversion run.
func NewDocument(log *zap.Logger) *Document {
	if log == nil {
		log = zap.NewNop()
	}
	return &Document{
		Meta:   make(map[string]string),
		images: make(map[string]*ImageRef),
		log:    log.Named("scene"),
	}
}

// RegisterImage resolves a content hash to a native image handle, creating it
// on first use. Idempotent: a second registration of the same hash returns
// the existing handle untouched (first-writer-wins), which keeps asset
// resolution idempotent per run.
func (d *Document) RegisterImage(hash, format string, data []byte, width, height int) *ImageRef {
	if ref, ok := d.images[hash]; ok {
		return ref
	}
	ref := &ImageRef{Hash: hash, Format: format, Data: data, Width: width, Height: height}
	d.images[hash] = ref
	d.order = append(d.order, hash)
	d.log.Debug("Image handle created", zap.String("hash", hash), zap.String("format", format), zap.Int("bytes", len(data)))
	return ref
}

// LookupImage returns the handle for hash if one was registered.
func (d *Document) LookupImage(hash string) (*ImageRef, bool) {
	ref, ok := d.images[hash]
	return ref, ok
}

// Images returns all handles in registration order.
func (d *Document) Images() []*ImageRef {
	out := make([]*ImageRef, 0, len(d.order))
	for _, h := range d.order {
		out = append(out, d.images[h])
	}
	return out
}
