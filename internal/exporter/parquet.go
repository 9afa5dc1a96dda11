package exporter

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/UCLH-Foundry/PIXL/internal/slug"
)

// RadiologyRow is one linker record in radiology.parquet (spec §4.7):
// procedure_occurrence_id, hashed_identifier, pseudo_study_uid.
type RadiologyRow struct {
	ProcedureOccurrenceID int64  `parquet:"procedure_occurrence_id"`
	HashedIdentifier      string `parquet:"hashed_identifier"`
	PseudoStudyUID        string `parquet:"pseudo_study_uid"`
}

// ParquetLayout reproduces original_source/pixl_core/src/core/exports.py's
// ParquetExport directory tree: a per-project, per-extract working area
// under all_extracts/omop, with a latest/omop symlink kept current by
// unlinking the stale entry and relinking rather than overwriting it.
type ParquetLayout struct {
	ProjectSlug     string
	ExtractTimeSlug string

	exportBase      string
	publicOutput    string
	radiologyOutput string
	latestParentDir string
}

// NewParquetLayout builds the layout for one project/extract pair under
// exportDir.
func NewParquetLayout(exportDir, projectName string, extractDatetime time.Time) ParquetLayout {
	projectSlug := slug.Slugify(projectName)
	extractTimeSlug := slug.Slugify(extractDatetime.Format(time.RFC3339))

	exportBase := filepath.Join(exportDir, projectSlug)
	currentExtract := filepath.Join(exportBase, "all_extracts", "omop", extractTimeSlug)

	return ParquetLayout{
		ProjectSlug:     projectSlug,
		ExtractTimeSlug: extractTimeSlug,
		exportBase:      exportBase,
		publicOutput:    filepath.Join(currentExtract, "public"),
		radiologyOutput: filepath.Join(currentExtract, "radiology"),
		latestParentDir: filepath.Join(exportBase, "latest", "omop"),
	}
}

// CopyToExports copies omopDir's "public" subdirectory into this extract's
// working area and atomically repoints latest/omop/public at it.
func (l ParquetLayout) CopyToExports(omopDir string) error {
	src := filepath.Join(omopDir, "public")
	if _, err := os.Stat(src); err != nil {
		return fmt.Errorf("exporter: omop public dir %s: %w", src, err)
	}
	if err := os.MkdirAll(l.publicOutput, 0o755); err != nil {
		return fmt.Errorf("exporter: creating %s: %w", l.publicOutput, err)
	}
	if err := copyTree(src, l.publicOutput); err != nil {
		return fmt.Errorf("exporter: copying %s: %w", src, err)
	}
	return l.relinkLatest("public", l.publicOutput)
}

// ExportRadiology writes rows to radiology.parquet in this extract's
// working area and atomically repoints latest/omop/radiology.parquet at
// it. Returns the path written.
func (l ParquetLayout) ExportRadiology(rows []RadiologyRow) (string, error) {
	if err := os.MkdirAll(l.radiologyOutput, 0o755); err != nil {
		return "", fmt.Errorf("exporter: creating %s: %w", l.radiologyOutput, err)
	}
	path := filepath.Join(l.radiologyOutput, "radiology.parquet")

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("exporter: creating %s: %w", path, err)
	}
	defer f.Close()

	if err := parquet.Write[RadiologyRow](f, rows); err != nil {
		return "", fmt.Errorf("exporter: writing %s: %w", path, err)
	}

	if err := l.relinkLatest("radiology.parquet", path); err != nil {
		return "", err
	}
	return path, nil
}

// relinkLatest atomically repoints latestParentDir/name at target:
// unlink the existing entry (if any), then relink. Mirrors exports.py's
// unlink-then-symlink sequence — os.Rename isn't used because target may
// be a directory (the "public" case) as well as a file.
func (l ParquetLayout) relinkLatest(name, target string) error {
	if err := os.MkdirAll(l.latestParentDir, 0o755); err != nil {
		return fmt.Errorf("exporter: creating %s: %w", l.latestParentDir, err)
	}
	link := filepath.Join(l.latestParentDir, name)
	if err := os.Remove(link); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("exporter: removing stale symlink %s: %w", link, err)
	}
	if err := os.Symlink(target, link); err != nil {
		return fmt.Errorf("exporter: linking %s to %s: %w", link, target, err)
	}
	return nil
}

func copyTree(src, dst string) error {
	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if info.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		return copyFile(path, target)
	})
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}
