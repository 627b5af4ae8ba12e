package convert

import (
	"path/filepath"
	"strings"

	"github.com/gosimple/slug"

	"hfc/config"
	"hfc/state"
)

// bundleExt is the extension of produced scene bundles.
const bundleExt = ".scene.zip"

// buildOutputPath constructs the output bundle path from the relative source
// path. Source directory structure is preserved unless nodirs was requested;
// the base name is optionally transliterated and always cleaned of characters
// the host filesystem rejects.
func buildOutputPath(src, dst string, env *state.LocalEnv) string {
	outDir := dst
	if !env.NoDirs {
		outDir = filepath.Join(dst, filepath.Dir(src))
	}

	baseName := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	if env.Cfg.Document.FileNameTransliterate {
		baseName = slug.Make(baseName)
	}
	return filepath.Join(outDir, config.CleanFileName(baseName)+bundleExt)
}
