package registry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// Querier is the data-access surface consumed by Repository. Production
// code binds it to *Queries (backed by a pool or an open tx); tests bind it
// to registry/mock.MockQuerier.
type Querier interface {
	InsertExtract(ctx context.Context, slug ProjectSlug) (Extract, error)
	GetExtractBySlug(ctx context.Context, slug ProjectSlug) (Extract, error)
	InsertImage(ctx context.Context, arg InsertImageParams) (Image, error)
	GetImageByKey(ctx context.Context, key ImageKey, extractID int64) (Image, error)
	GetImageByStudyUID(ctx context.Context, extractID int64, studyUID string) (Image, error)
	GetImageByPseudoUID(ctx context.Context, pseudoUID string) (Image, error)
	SetImagePseudoUID(ctx context.Context, imageID int64, pseudoUID string) (Image, error)
	PseudoUIDExists(ctx context.Context, pseudoUID string) (bool, error)
	SetExportedAt(ctx context.Context, imageID int64, when time.Time) error
	ListImagesByExtract(ctx context.Context, extractID int64) ([]Image, error)
}

// ErrNotFound mirrors pgx.ErrNoRows at the registry-API boundary so callers
// don't need to import pgx directly.
var ErrNotFound = errors.New("registry: not found")

// InsertImageParams is the argument bundle for a fresh Image row, created
// either at cohort-intake time (no study_uid yet) or during anonymisation
// if absent.
type InsertImageParams struct {
	ExtractID             int64
	MRN                   string
	AccessionNumber       string
	StudyDate             string
	StudyUID              string
	ProcedureOccurrenceID int64
	HashedIdentifier      string
}

func wrapNoRows(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (q *Queries) InsertExtract(ctx context.Context, slug ProjectSlug) (Extract, error) {
	const query = `INSERT INTO extracts (slug) VALUES ($1) RETURNING extract_id, slug`
	var e Extract
	row := q.db.QueryRow(ctx, query, string(slug))
	if err := row.Scan(&e.ExtractID, &e.Slug); err != nil {
		return Extract{}, fmt.Errorf("InsertExtract: %w", err)
	}
	return e, nil
}

func (q *Queries) GetExtractBySlug(ctx context.Context, slug ProjectSlug) (Extract, error) {
	const query = `SELECT extract_id, slug FROM extracts WHERE slug = $1`
	var e Extract
	row := q.db.QueryRow(ctx, query, string(slug))
	if err := row.Scan(&e.ExtractID, &e.Slug); err != nil {
		return Extract{}, wrapNoRows(err)
	}
	return e, nil
}

func (q *Queries) InsertImage(ctx context.Context, arg InsertImageParams) (Image, error) {
	const query = `
		INSERT INTO images (extract_id, mrn, accession_number, study_date, study_uid, procedure_occurrence_id, hashed_identifier)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, NULLIF($7, ''))
		RETURNING image_id, extract_id, mrn, accession_number, study_date,
		          COALESCE(study_uid, ''), COALESCE(pseudo_study_uid, ''),
		          COALESCE(hashed_identifier, ''), procedure_occurrence_id, exported_at`
	var img Image
	row := q.db.QueryRow(ctx, query, arg.ExtractID, arg.MRN, arg.AccessionNumber, arg.StudyDate, arg.StudyUID, arg.ProcedureOccurrenceID, arg.HashedIdentifier)
	if err := scanImage(row, &img); err != nil {
		return Image{}, fmt.Errorf("InsertImage: %w", err)
	}
	return img, nil
}

func (q *Queries) GetImageByKey(ctx context.Context, key ImageKey, extractID int64) (Image, error) {
	const query = `
		SELECT image_id, extract_id, mrn, accession_number, study_date,
		       COALESCE(study_uid, ''), COALESCE(pseudo_study_uid, ''),
		       COALESCE(hashed_identifier, ''), procedure_occurrence_id, exported_at
		FROM images
		WHERE extract_id = $1 AND mrn = $2 AND accession_number = $3 AND study_date = $4`
	var img Image
	row := q.db.QueryRow(ctx, query, extractID, key.MRN, key.AccessionNumber, key.StudyDate)
	if err := scanImage(row, &img); err != nil {
		return Image{}, wrapNoRows(err)
	}
	return img, nil
}

func (q *Queries) GetImageByStudyUID(ctx context.Context, extractID int64, studyUID string) (Image, error) {
	const query = `
		SELECT image_id, extract_id, mrn, accession_number, study_date,
		       COALESCE(study_uid, ''), COALESCE(pseudo_study_uid, ''),
		       COALESCE(hashed_identifier, ''), procedure_occurrence_id, exported_at
		FROM images
		WHERE extract_id = $1 AND study_uid = $2 AND exported_at IS NULL`
	var img Image
	row := q.db.QueryRow(ctx, query, extractID, studyUID)
	if err := scanImage(row, &img); err != nil {
		return Image{}, wrapNoRows(err)
	}
	return img, nil
}

func (q *Queries) GetImageByPseudoUID(ctx context.Context, pseudoUID string) (Image, error) {
	const query = `
		SELECT image_id, extract_id, mrn, accession_number, study_date,
		       COALESCE(study_uid, ''), COALESCE(pseudo_study_uid, ''),
		       COALESCE(hashed_identifier, ''), procedure_occurrence_id, exported_at
		FROM images
		WHERE pseudo_study_uid = $1`
	var img Image
	row := q.db.QueryRow(ctx, query, pseudoUID)
	if err := scanImage(row, &img); err != nil {
		return Image{}, wrapNoRows(err)
	}
	return img, nil
}

// SetImagePseudoUID assigns pseudoUID to imageID only if no pseudo study
// uid has been set yet, atomically: concurrent instances of the same
// multi-instance study race this call, and the row's existing value (the
// first racer's committed write), not the caller's own candidate, always
// wins. The WHERE guard plus the fallback arm of the UNION ALL make this a
// single round-trip compare-and-swap, so no explicit transaction/row lock
// is needed around it.
func (q *Queries) SetImagePseudoUID(ctx context.Context, imageID int64, pseudoUID string) (Image, error) {
	const query = `
		WITH updated AS (
			UPDATE images SET pseudo_study_uid = $2
			WHERE image_id = $1 AND pseudo_study_uid IS NULL
			RETURNING image_id, extract_id, mrn, accession_number, study_date,
			          study_uid, pseudo_study_uid, hashed_identifier, procedure_occurrence_id, exported_at
		)
		SELECT image_id, extract_id, mrn, accession_number, study_date,
		       COALESCE(study_uid, ''), COALESCE(pseudo_study_uid, ''),
		       COALESCE(hashed_identifier, ''), procedure_occurrence_id, exported_at
		FROM updated
		UNION ALL
		SELECT image_id, extract_id, mrn, accession_number, study_date,
		       COALESCE(study_uid, ''), COALESCE(pseudo_study_uid, ''),
		       COALESCE(hashed_identifier, ''), procedure_occurrence_id, exported_at
		FROM images
		WHERE image_id = $1 AND NOT EXISTS (SELECT 1 FROM updated)`
	var img Image
	row := q.db.QueryRow(ctx, query, imageID, pseudoUID)
	if err := scanImage(row, &img); err != nil {
		return Image{}, fmt.Errorf("SetImagePseudoUID: %w", err)
	}
	return img, nil
}

func (q *Queries) PseudoUIDExists(ctx context.Context, pseudoUID string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM images WHERE pseudo_study_uid = $1)`
	var exists bool
	row := q.db.QueryRow(ctx, query, pseudoUID)
	if err := row.Scan(&exists); err != nil {
		return false, fmt.Errorf("PseudoUIDExists: %w", err)
	}
	return exists, nil
}

// SetExportedAt sets exported_at exactly once. Rewriting an already-set
// value is rejected (spec §3 Image invariant), surfaced to the caller as
// ErrAlreadyExported so it can be translated to the errkind.AlreadyExported
// taxonomy.
func (q *Queries) SetExportedAt(ctx context.Context, imageID int64, when time.Time) error {
	const query = `UPDATE images SET exported_at = $2 WHERE image_id = $1 AND exported_at IS NULL`
	tag, err := q.db.Exec(ctx, query, imageID, when)
	if err != nil {
		return fmt.Errorf("SetExportedAt: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadyExported
	}
	return nil
}

// ErrAlreadyExported is returned by SetExportedAt when exported_at is
// already non-null for the given image.
var ErrAlreadyExported = errors.New("registry: exported_at already set")

// ListImagesByExtract returns every Image row belonging to extractID,
// backing the Exporter's per-project parquet "linker" export (spec §4.7):
// each row with a minted pseudo_study_uid contributes one radiology.parquet
// row, whether or not it has been exported.
func (q *Queries) ListImagesByExtract(ctx context.Context, extractID int64) ([]Image, error) {
	const query = `
		SELECT image_id, extract_id, mrn, accession_number, study_date,
		       COALESCE(study_uid, ''), COALESCE(pseudo_study_uid, ''),
		       COALESCE(hashed_identifier, ''), procedure_occurrence_id, exported_at
		FROM images
		WHERE extract_id = $1`
	rows, err := q.db.Query(ctx, query, extractID)
	if err != nil {
		return nil, fmt.Errorf("ListImagesByExtract: %w", err)
	}
	defer rows.Close()

	var images []Image
	for rows.Next() {
		var img Image
		if err := scanImage(rows, &img); err != nil {
			return nil, fmt.Errorf("ListImagesByExtract: %w", err)
		}
		images = append(images, img)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListImagesByExtract: %w", err)
	}
	return images, nil
}

func scanImage(row pgx.Row, img *Image) error {
	var exportedAt *time.Time
	if err := row.Scan(
		&img.ImageID, &img.ExtractID, &img.MRN, &img.AccessionNumber, &img.StudyDate,
		&img.StudyUID, &img.PseudoStudyUID, &img.HashedIdentifier, &img.ProcedureOccurrenceID, &exportedAt,
	); err != nil {
		return err
	}
	img.ExportedAt = exportedAt
	return nil
}
