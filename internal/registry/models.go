package registry

import (
	"time"

	"github.com/UCLH-Foundry/PIXL/internal/slug"
)

// ProjectSlug is the URL/filesystem-safe form of a project name, used as
// the private-tag value and as the top-level folder at the export
// destination (spec GLOSSARY).
type ProjectSlug string

// SlugifyProject converts a raw project_name into its ProjectSlug.
func SlugifyProject(projectName string) ProjectSlug {
	return ProjectSlug(slug.Slugify(projectName))
}

// Extract is the per-project row (spec §3). Lifecycle: created on first
// sighting of a project, never deleted.
type Extract struct {
	ExtractID int64
	Slug      ProjectSlug
}

// ImageKey is the natural key of an Image row (spec §3 invariant).
type ImageKey struct {
	ProjectSlug     ProjectSlug
	MRN             string
	AccessionNumber string
	StudyDate       string
}

// Image is the per-study export record (spec §3). Invariants:
//   - (ExtractID, MRN, AccessionNumber, StudyDate) is unique.
//   - PseudoStudyUID, once set, is globally unique and immutable.
//   - ExportedAt is set exactly once, monotonically.
type Image struct {
	ImageID               int64
	ExtractID             int64
	MRN                   string
	AccessionNumber       string
	StudyDate             string
	StudyUID              string
	PseudoStudyUID        string
	HashedIdentifier      string // linker key for the radiology report pipeline, SPEC_FULL.md §C.1
	ProcedureOccurrenceID int64
	ExportedAt            *time.Time
}

// Exported reports whether this Image has already been exported for its
// project, per spec §3's "already exported" definition.
func (i Image) Exported() bool {
	return i.ExportedAt != nil
}
