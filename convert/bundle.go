package convert

import (
	"archive/zip"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	fixzip "github.com/hidez8891/zip"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"hfc/jpegquality"
	"hfc/scene"
	imgutil "hfc/utils/images"
)

// sceneFileName is the document entry inside the bundle.
const sceneFileName = "scene.json"

// WriteBundle serializes the document into a zip bundle at path: scene.json
// plus one assets/<hash>.<format> entry per registered image. JPEG assets
// already encoded at or below jpegQuality are stored untouched; re-encoding
// those would only lose fidelity. The finished archive is rewritten without
// data descriptors so strict consumers can read entries without scanning.
func WriteBundle(path string, doc *scene.Document, jpegQuality int, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("bundle")

	tmp, err := os.CreateTemp(filepath.Dir(path), ".bundle-*.zip")
	if err != nil {
		return fmt.Errorf("unable to create temporary bundle file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := writeBundleTo(tmp, doc, jpegQuality, log); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("unable to finalize temporary bundle file: %w", err)
	}
	return copyZipWithoutDataDescriptors(tmpName, path)
}

func writeBundleTo(f *os.File, doc *scene.Document, jpegQuality int, log *zap.Logger) (rerr error) {
	data, err := doc.Encode()
	if err != nil {
		return fmt.Errorf("unable to serialize scene document: %w", err)
	}

	w := zip.NewWriter(f)
	defer func() {
		if err := w.Close(); err != nil {
			rerr = multierr.Append(rerr, err)
		}
	}()

	out, err := w.Create(sceneFileName)
	if err != nil {
		return fmt.Errorf("unable to create scene entry: %w", err)
	}
	if _, err := out.Write(data); err != nil {
		return fmt.Errorf("unable to write scene entry: %w", err)
	}

	for _, ref := range doc.Images() {
		payload := prepareAsset(ref, jpegQuality, log)
		out, err := w.Create(ref.FileName())
		if err != nil {
			return fmt.Errorf("unable to create asset entry %s: %w", ref.FileName(), err)
		}
		if _, err := out.Write(payload); err != nil {
			return fmt.Errorf("unable to write asset entry %s: %w", ref.FileName(), err)
		}
	}
	return nil
}

func copyZipWithoutDataDescriptors(from, to string) error {
	out, err := os.Create(to)
	if err != nil {
		return fmt.Errorf("unable to create target file (%s): %w", to, err)
	}
	defer out.Close()

	r, err := fixzip.OpenReader(from)
	if err != nil {
		return fmt.Errorf("unable to read archive file (%s): %w", from, err)
	}
	defer r.Close()

	w := fixzip.NewWriter(out)
	defer w.Close()

	for _, file := range r.File {
		// unset data descriptor flag.
		file.Flags &= ^fixzip.FlagDataDescriptor

		// copy zip entry
		if err := w.CopyFile(file); err != nil {
			return fmt.Errorf("unable to write target file (%s): %w", to, err)
		}
	}
	return nil
}

// prepareAsset returns the bytes to store for one image handle, re-encoding
// JPEG payloads whose detected quality exceeds the configured level. Any
// analysis or re-encode failure keeps the original bytes - bundling never
// fails over an optimization.
func prepareAsset(ref *scene.ImageRef, jpegQuality int, log *zap.Logger) []byte {
	if ref.Format != "jpg" || jpegQuality <= 0 {
		return ref.Data
	}

	jr, err := jpegquality.NewWithBytes(ref.Data)
	if err != nil {
		if !errors.Is(err, jpegquality.ErrNoDQT) {
			log.Debug("JPEG quality estimation failed", zap.String("hash", ref.Hash), zap.Error(err))
		}
		return ref.Data
	}
	if jr.Quality() <= jpegQuality {
		return ref.Data
	}

	img, _, err := imgutil.DecodeAny(ref.Data)
	if err != nil {
		log.Debug("JPEG decode failed, storing as is", zap.String("hash", ref.Hash), zap.Error(err))
		return ref.Data
	}
	data, err := imgutil.EncodeJPEG(img, jpegQuality)
	if err != nil || len(data) >= len(ref.Data) {
		return ref.Data
	}
	log.Debug("JPEG asset re-encoded",
		zap.String("hash", ref.Hash),
		zap.Int("from_quality", jr.Quality()),
		zap.Int("to_quality", jpegQuality),
		zap.Int("saved_bytes", len(ref.Data)-len(data)))
	return data
}
