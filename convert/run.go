package convert

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"hfc/archive"
	"hfc/assets"
	"hfc/capture"
	"hfc/config"
	"hfc/fonts"
	"hfc/layout"
	"hfc/scene"
	"hfc/state"
)

func Run(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("convert")

	src := cmd.Args().Get(0)
	if len(src) == 0 {
		return errors.New("no input source has been specified")
	}
	src, err = filepath.Abs(src)
	if err != nil {
		return err
	}

	dst := cmd.Args().Get(1)
	if len(dst) == 0 {
		if dst, err = os.Getwd(); err != nil {
			return fmt.Errorf("unable to get working directory: %w", err)
		}
	}
	if dst, err = filepath.Abs(dst); err != nil {
		return err
	}
	if cmd.Args().Len() > 2 {
		log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}

	env.NoDirs, env.Overwrite = cmd.Bool("nodirs"), cmd.Bool("overwrite")

	log.Info("Processing starting", zap.String("source", src), zap.String("destination", dst))
	defer func(start time.Time) {
		log.Info("Processing completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	return process(ctx, src, dst, log)
}

// process handles the core conversion logic independently of CLI framework. It
// determines the input type (directory, archive, or single file) and processes
// accordingly.
func process(ctx context.Context, src, dst string, log *zap.Logger) error {
	var head, tail string
	for head = src; len(head) != 0; head, tail = filepath.Split(head) {
		if err := ctx.Err(); err != nil {
			return err
		}

		head = strings.TrimSuffix(head, string(filepath.Separator))

		fi, err := os.Stat(head)
		if err != nil {
			// does not exists - probably path in archive
			continue
		}

		if fi.Mode().IsDir() {
			if len(tail) != 0 {
				// directory cannot have tail - it would be simple file
				return fmt.Errorf("input source was not found (%s) => (%s)", head, strings.TrimPrefix(src, head))
			}
			if err := processDir(ctx, head, dst, log); err != nil {
				return errors.New("unable to process directory")
			}
			break
		}

		if !fi.Mode().IsRegular() {
			return fmt.Errorf("unexpected path mode for (%s) => (%s)", head, strings.TrimPrefix(src, head))
		}

		isArchive, err := isArchiveFile(head)
		if err != nil {
			// checking format - but cannot open target file
			return fmt.Errorf("unable to check archive type: %w", err)
		}
		if isArchive {
			// we need to look inside to see if path makes sense
			tail = strings.TrimPrefix(strings.TrimPrefix(src, head), string(filepath.Separator))
			if err := processArchive(ctx, head, tail, "", dst, log); err != nil {
				return fmt.Errorf("unable to process archive: %w", err)
			}
			break
		}

		ok, err := isCaptureFile(head)
		if err != nil {
			return fmt.Errorf("unable to check file type: %w", err)
		}
		if ok && len(tail) == 0 {
			// we have a capture file, it cannot have tail
			if file, err := os.Open(head); err != nil {
				log.Error("Unable to process file", zap.String("file", head), zap.Error(err))
			} else {
				defer file.Close()
				keepSourceCopy(ctx, head, log)
				if err := processCapture(ctx, file, filepath.Base(head), dst, log); err != nil {
					log.Error("Unable to process file", zap.String("file", head), zap.Error(err))
				}
			}
			break
		}
		return fmt.Errorf("input was not recognized as a layout capture (%s)", head)
	}
	if len(head) == 0 {
		return fmt.Errorf("input source was not found (%s)", src)
	}
	return nil
}

// processDir walks directory tree finding capture files and processes them.
func processDir(ctx context.Context, dir, dst string, log *zap.Logger) (err error) {
	count := 0
	defer func() {
		if err == nil && count == 0 {
			log.Debug("Nothing to process", zap.String("dir", dir))
		}
	}()

	err = filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err != nil {
			log.Warn("Skipping path", zap.String("path", path), zap.Error(err))
			return nil
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		isArchive, err := isArchiveFile(path)
		if err != nil {
			log.Warn("Skipping file", zap.String("file", path), zap.Error(err))
			return nil
		}
		if isArchive {
			if err := processArchive(ctx, path, "", filepath.Dir(strings.TrimPrefix(path, dir)), dst, log); err != nil {
				log.Error("Unable to process archive", zap.String("file", path), zap.Error(err))
			}
			return nil
		}

		ok, err := isCaptureFile(path)
		if err != nil {
			log.Warn("Skipping file", zap.String("file", path), zap.Error(err))
			return nil
		}
		if !ok {
			log.Debug("Skipping file, not recognized as capture or archive", zap.String("file", path))
			return nil
		}

		count++

		file, err := os.Open(path)
		if err != nil {
			log.Error("Unable to process file", zap.String("file", path), zap.Error(err))
			return nil
		}
		defer file.Close()

		keepSourceCopy(ctx, path, log)

		src := strings.TrimPrefix(strings.TrimPrefix(path, dir), string(filepath.Separator))
		if err := processCapture(ctx, file, src, dst, log); err != nil {
			log.Error("Unable to process file", zap.String("file", path), zap.Error(err))
		}
		return nil
	})
	return err
}

// processArchive walks all files inside archive, finds capture files under
// "pathIn" and processes them.
func processArchive(ctx context.Context, path, pathIn, pathOut, dst string, log *zap.Logger) (err error) {
	count := 0
	defer func() {
		if err == nil && count == 0 {
			log.Debug("Nothing to process", zap.String("archive", path))
		}
	}()

	err = archive.Walk(path, pathIn, func(arc string, f *zip.File) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		ok, err := isCaptureInArchive(f)
		if err != nil {
			log.Warn("Skipping file in archive",
				zap.String("archive", arc), zap.String("path", f.FileHeader.Name), zap.Error(err))
			return nil
		}
		if !ok {
			log.Debug("Skipping file, not recognized as capture", zap.String("archive", arc), zap.String("file", f.FileHeader.Name))
			return nil
		}

		count++

		r, err := f.Open()
		if err != nil {
			log.Error("Unable to process file in archive",
				zap.String("archive", arc), zap.String("file", f.FileHeader.Name), zap.Error(err))
			return nil
		}
		defer r.Close()

		if err := processCapture(ctx, r, filepath.Join(pathOut, f.FileHeader.Name), dst, log); err != nil {
			log.Error("Unable to process file in archive",
				zap.String("archive", arc), zap.String("file", f.FileHeader.Name), zap.Error(err))
		}
		return nil
	})
	return err
}

// keepSourceCopy preserves the original capture file in the debug report so a
// failed conversion can be replayed from the report alone.
func keepSourceCopy(ctx context.Context, path string, log *zap.Logger) {
	env := state.EnvFromContext(ctx)
	if env.Rpt == nil {
		return
	}
	name := fmt.Sprintf("source-%s", config.CleanFileName(filepath.Base(path)))
	if err := env.Rpt.StoreCopy(name, path); err != nil {
		log.Warn("Unable to preserve source capture in report", zap.String("file", path), zap.Error(err))
	}
}

// processCapture converts a single capture payload. "src" is the source path
// relative to the original input (just the base name when a file was given
// directly), "dst" is the destination directory for the bundle.
func processCapture(ctx context.Context, r io.Reader, src, dst string, log *zap.Logger) (rerr error) {
	env := state.EnvFromContext(ctx)

	var outputName string

	log.Info("Conversion starting", zap.String("from", src))
	defer func(start time.Time) {
		// NOTE: some of golang graphic processing libraries are not mature
		// enough; if multiple captures are being processed we do not want to stop.
		if r := recover(); r != nil {
			log.Error("Conversion ended with panic",
				zap.Any("panic", r), zap.Duration("elapsed", time.Since(start)), zap.String("to", outputName), zap.ByteString("stack", debug.Stack()))
			rerr = fmt.Errorf("conversion panic: %v", r)
		} else {
			log.Info("Conversion completed", zap.Duration("elapsed", time.Since(start)), zap.String("to", outputName))
		}
	}(time.Now())

	start := time.Now()

	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("unable to read capture source (%s): %w", src, err)
	}
	capDoc, err := capture.Parse(data, log)
	if err != nil {
		return fmt.Errorf("unable to parse capture source (%s): %w", src, err)
	}

	outputName = buildOutputPath(src, dst, env)

	// Check if output file already exists
	if _, err := os.Stat(outputName); err == nil {
		if !env.Overwrite {
			return fmt.Errorf("output file already exists: %s", outputName)
		}
		log.Warn("Overwriting existing file", zap.String("file", outputName))
		if err = os.Remove(outputName); err != nil {
			return err
		}
	} else if !os.IsNotExist(err) {
		return err
	} else if err := os.MkdirAll(filepath.Dir(outputName), 0755); err != nil {
		return fmt.Errorf("unable to create output directory: %w", err)
	}

	doc, pipeline, diag, err := materializeCapture(ctx, capDoc, env, log)
	if err != nil {
		return err
	}

	if env.Rpt != nil || capDoc.Options.EnableDebugMode {
		dump := dumpSceneTree(doc)
		if env.Rpt != nil {
			env.Rpt.StoreData(fmt.Sprintf("scene-%s.txt", config.CleanFileName(filepath.Base(src))), []byte(dump))
		}
		if capDoc.Options.EnableDebugMode {
			log.Debug("Scene tree", zap.String("dump", dump))
		}
	}

	if err := WriteBundle(outputName, doc, env.Cfg.Assets.JPEGQuality, log); err != nil {
		return fmt.Errorf("unable to write bundle: %w", err)
	}

	summary, err := Summary(src, outputName, time.Since(start), doc, pipeline.Stats(), diag)
	if err != nil {
		log.Warn("Unable to render conversion summary", zap.Error(err))
	} else {
		fmt.Fprint(os.Stdout, summary)
		if env.Rpt != nil {
			env.Rpt.StoreData(fmt.Sprintf("summary-%s.txt", config.CleanFileName(filepath.Base(src))), []byte(summary))
		}
	}

	// Store conversion result for debugging
	if env.Rpt != nil {
		env.Rpt.Store(fmt.Sprintf("result-%s", filepath.Base(outputName)), outputName)
	}
	return nil
}

// materializeCapture assembles the per-run machinery and produces the scene
// document for one parsed capture.
func materializeCapture(ctx context.Context, capDoc *capture.Document, env *state.LocalEnv, log *zap.Logger) (*scene.Document, *assets.Pipeline, *Diagnostics, error) {
	cfg := env.Cfg

	catalog := fonts.DefaultCatalog()
	if len(cfg.Fonts.Catalog) > 0 {
		catalog = fonts.NewStaticCatalog(cfg.Fonts.Catalog)
	}
	engine := fonts.NewEngine(catalog, log)

	fetcher := assets.NewHTTPFetcher(assets.FetchOptions{
		Timeout:        time.Duration(cfg.Assets.FetchTimeoutSec) * time.Second,
		DirectOrigins:  cfg.Assets.DirectOrigins,
		ProxyEndpoints: cfg.Assets.ProxyEndpoints,
		AuthToken:      string(cfg.Assets.ProxyAuthToken),
	}, log)

	transcoder := assets.NewTranscoder(assets.TranscodeOptions{
		Timeout: time.Duration(cfg.Assets.TranscodeTimeout) * time.Second,
		Retries: cfg.Assets.TranscodeRetries,
		Backoff: 500 * time.Millisecond,
	}, log)
	defer transcoder.Close()

	doc := scene.NewDocument(log)
	for k, v := range capDoc.Options.Extra {
		doc.Meta[k] = v
	}

	pipeline := assets.NewPipeline(capDoc.Assets, doc, fetcher, transcoder, log)
	classifier := layout.NewClassifier(cfg.Document.Layout, log)

	autoLayout := cfg.Document.ApplyAutoLayout && capDoc.Options.ApplyAutoLayout
	mat := NewMaterializer(doc, classifier, engine, pipeline, autoLayout, log)
	if err := mat.Materialize(ctx, capDoc.Root); err != nil {
		return nil, nil, nil, fmt.Errorf("unable to materialize scene: %w", err)
	}
	return doc, pipeline, mat.Diagnostics(), nil
}
