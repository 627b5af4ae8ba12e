// Package archive builds a Walk abstraction on top of "archive/zip" for
// batches of capture files shipped as a single zip.
package archive

import (
	"archive/zip"
	"fmt"
	"path"
	"strings"
)

// WalkFunc is called by Walk for each archive entry under the requested
// inner path. The archive argument is the path passed to Walk, the file
// argument is the matching entry (typically a capture to convert). A returned
// error stops the walk.
type WalkFunc func(archive string, file *zip.File) error

// Walk visits every regular file in the archive whose name starts with
// pattern, calling walkFn for each. An empty pattern visits the whole
// archive; a non-empty one scopes the walk to an inner path, the way a
// directory argument scopes a filesystem walk. Entries with path traversal
// components ("..") or absolute paths abort the walk to prevent Zip Slip.
func Walk(archive, pattern string, walkFn WalkFunc) error {

	r, err := zip.OpenReader(archive)
	if err != nil {
		return err
	}
	defer r.Close()

	for _, f := range r.File {
		name := f.FileHeader.Name
		if !isSafePath(name) {
			return fmt.Errorf("zip entry %q: unsafe path (absolute or contains path traversal)", name)
		}
		if !f.FileInfo().IsDir() && strings.HasPrefix(name, pattern) {
			if err := walkFn(archive, f); err != nil {
				return err
			}
		}
	}
	return nil
}

// isSafePath returns false for paths that could escape the extraction
// directory: absolute paths and those containing ".." components.
func isSafePath(name string) bool {
	if path.IsAbs(name) || strings.HasPrefix(name, "/") || strings.HasPrefix(name, `\`) {
		return false
	}
	for _, part := range strings.Split(name, "/") {
		if part == ".." {
			return false
		}
	}
	return true
}
