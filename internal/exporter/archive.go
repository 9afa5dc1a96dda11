package exporter

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// BuildArchive packages every file in instancePaths into a zip written to
// w, one entry per file named by its base filename. Spec §4.7 names the
// archive "<pseudo_study_uid>.zip"; naming is the caller's concern (it
// names the file at the destination), this just does the packaging. No
// zip/archive library appears anywhere in the retrieval pack, so this
// uses the standard library's own archive/zip rather than reaching for an
// ecosystem dependency to do what archive/zip already does directly.
func BuildArchive(w io.Writer, instancePaths []string) error {
	zw := zip.NewWriter(w)
	for _, path := range instancePaths {
		if err := addFile(zw, path); err != nil {
			return err
		}
	}
	return zw.Close()
}

func addFile(zw *zip.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("exporter: opening %s: %w", path, err)
	}
	defer f.Close()

	entry, err := zw.Create(filepath.Base(path))
	if err != nil {
		return fmt.Errorf("exporter: creating zip entry for %s: %w", path, err)
	}
	if _, err := io.Copy(entry, f); err != nil {
		return fmt.Errorf("exporter: writing %s into archive: %w", path, err)
	}
	return nil
}
