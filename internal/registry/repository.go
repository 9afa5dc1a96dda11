package registry

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/UCLH-Foundry/PIXL/internal/errkind"
)

// SecureHasher resolves the radiology-report linker hash against the
// external Hashing Service (spec §6, SPEC_FULL.md §C.1), the same
// GET /hash?project_slug=&message=&length= surface
// internal/anonymise.SecureHasher calls for tag-level secure-hash ops.
type SecureHasher interface {
	Hash(ctx context.Context, projectSlug, message string, length int) (string, error)
}

// Repository is the Durable Registry (spec §4.1): the single source of
// truth for which studies have been seen and which have been exported,
// shared by every PIXL binary via a pooled Postgres connection.
type Repository struct {
	pool   *pgxpool.Pool
	q      Querier
	hasher SecureHasher
}

// NewRepository wraps pool with the default pgx-backed Querier.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool, q: New(pool)}
}

// NewRepositoryWithQuerier builds a Repository over a caller-supplied
// Querier, bypassing the pgxpool-backed default. EnsureProject needs a
// real transaction and will panic against a nil pool; every other method
// only touches q, so this is the seam other packages' tests use to drive
// Repository behaviour against registry/mock.MockQuerier.
func NewRepositoryWithQuerier(q Querier) *Repository {
	return &Repository{q: q}
}

// WithHasher attaches the Hashing Service client FilterUnexported uses to
// compute each new Image's hashed_identifier linker key. Left unset, new
// Image rows carry no hashed_identifier (only the binary that runs cohort
// intake, pixlctl, has a reason to wire one).
func (r *Repository) WithHasher(h SecureHasher) *Repository {
	r.hasher = h
	return r
}

// EnsureProject returns the Extract row for slug, creating it if this is
// the first time the project has been seen. The bool return reports
// whether the Extract was just created, which FilterUnexported uses to
// decide whether to skip filtering entirely.
func (r *Repository) EnsureProject(ctx context.Context, slug ProjectSlug) (Extract, bool, error) {
	extract, err := r.q.GetExtractBySlug(ctx, slug)
	if err == nil {
		return extract, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return Extract{}, false, fmt.Errorf("EnsureProject: %w", err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Extract{}, false, fmt.Errorf("EnsureProject: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	txq := New(tx)
	extract, err = txq.GetExtractBySlug(ctx, slug)
	if err == nil {
		return extract, false, tx.Commit(ctx)
	}
	if !errors.Is(err, ErrNotFound) {
		return Extract{}, false, fmt.Errorf("EnsureProject: %w", err)
	}

	extract, err = txq.InsertExtract(ctx, slug)
	if err != nil {
		return Extract{}, false, fmt.Errorf("EnsureProject: insert: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return Extract{}, false, fmt.Errorf("EnsureProject: commit: %w", err)
	}
	return extract, true, nil
}

// FilterUnexported records every message's Image row (creating it if this
// is the first time the study has been queued for this project) and drops
// the ones already exported, so the queue is never re-populated with stale
// work.
//
// Mirrors cli/src/pixl_cli/_database.py: filter_exported_or_add_to_db
// creates the Image row up front for a brand new project (nothing can be
// exported yet) and otherwise looks each one up, adding it when absent and
// dropping it only once its exported_at is set.
func (r *Repository) FilterUnexported(ctx context.Context, extract Extract, justCreated bool, messages []StudyMessage) ([]StudyMessage, error) {
	kept := make([]StudyMessage, 0, len(messages))
	for _, msg := range messages {
		if justCreated {
			if _, err := r.insertImageForMessage(ctx, extract, msg); err != nil {
				return nil, fmt.Errorf("FilterUnexported: %w", err)
			}
			kept = append(kept, msg)
			continue
		}

		img, err := r.q.GetImageByKey(ctx, msg.Key(), extract.ExtractID)
		switch {
		case errors.Is(err, ErrNotFound):
			if _, err := r.insertImageForMessage(ctx, extract, msg); err != nil {
				return nil, fmt.Errorf("FilterUnexported: %w", err)
			}
			kept = append(kept, msg)
		case err != nil:
			return nil, fmt.Errorf("FilterUnexported: %w", err)
		case !img.Exported():
			kept = append(kept, msg)
		}
	}
	return kept, nil
}

// hashedIdentifierLength is the radiology-report linker hash's truncated
// length (spec §8 Scenario 1, SPEC_FULL.md §C.1): hash(project_slug,
// mrn+accession_number, 64).
const hashedIdentifierLength = 64

// insertImageForMessage creates msg's Image row, computing its
// hashed_identifier linker key at first-sighting time (cohort intake) via
// r.hasher when one is wired, per SPEC_FULL.md §C.1's radiology-report
// de-identification pipeline. Left unset, the row is created without one.
func (r *Repository) insertImageForMessage(ctx context.Context, extract Extract, msg StudyMessage) (Image, error) {
	var hashedIdentifier string
	if r.hasher != nil {
		h, err := r.hasher.Hash(ctx, string(extract.Slug), msg.MRN+msg.AccessionNumber, hashedIdentifierLength)
		if err != nil {
			return Image{}, fmt.Errorf("hashing linker identifier: %w", err)
		}
		hashedIdentifier = h
	}

	return r.q.InsertImage(ctx, InsertImageParams{
		ExtractID:             extract.ExtractID,
		MRN:                   msg.MRN,
		AccessionNumber:       msg.AccessionNumber,
		StudyDate:             msg.StudyDate,
		StudyUID:              msg.StudyUID,
		ProcedureOccurrenceID: msg.ProcedureOccurrenceID,
		HashedIdentifier:      hashedIdentifier,
	})
}

// AlreadyExported reports whether the Image identified by pseudoStudyUID
// has already completed export.
func (r *Repository) AlreadyExported(ctx context.Context, pseudoStudyUID string) (bool, error) {
	img, err := r.q.GetImageByPseudoUID(ctx, pseudoStudyUID)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("AlreadyExported: %w", err)
	}
	return img.Exported(), nil
}

// RecordExport stamps exported_at for the Image identified by
// pseudoStudyUID. Recording twice returns an errkind.AlreadyExported error;
// the Exporter treats that as a concurrent exporter having recorded first.
func (r *Repository) RecordExport(ctx context.Context, pseudoStudyUID string, when time.Time) error {
	img, err := r.q.GetImageByPseudoUID(ctx, pseudoStudyUID)
	if err != nil {
		return fmt.Errorf("RecordExport: lookup: %w", err)
	}
	if err := r.q.SetExportedAt(ctx, img.ImageID, when); err != nil {
		if errors.Is(err, ErrAlreadyExported) {
			return errkind.New(errkind.AlreadyExported, "pseudo study uid already exported", err)
		}
		return fmt.Errorf("RecordExport: %w", err)
	}
	return nil
}

// ListImagesByProject returns every Image row recorded for slug, for the
// Exporter's cohort-wide parquet export (spec §4.7/§4.8).
func (r *Repository) ListImagesByProject(ctx context.Context, slug ProjectSlug) ([]Image, error) {
	extract, err := r.q.GetExtractBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("ListImagesByProject: %w", err)
	}
	images, err := r.q.ListImagesByExtract(ctx, extract.ExtractID)
	if err != nil {
		return nil, fmt.Errorf("ListImagesByProject: %w", err)
	}
	return images, nil
}

// StudyInfo is the identifying information available to the anonymisation
// handler when it needs a pseudo study UID: the StudyUID if DICOM returned one,
// always the MRN/AccessionNumber/StudyDate fallback key.
type StudyInfo struct {
	ProjectSlug     ProjectSlug
	StudyUID        string
	MRN             string
	AccessionNumber string
	StudyDate       string
}

// AssignOrFetchPseudoUID resolves a StudyInfo to its pseudonymised study
// UID, minting and persisting a fresh pseudo UID when the matched Image row
// has none. It never creates an Image row.
//
// Lookup order mirrors pixl_dcmd/src/pixl_dcmd/_database.py's
// get_pseudo_patient_id: try StudyUID first (unexported Images only), then
// fall back to MRN+AccessionNumber+StudyDate (exported or not). If neither
// matches, the study was never queued for this project — a Discard-kind
// error, since retrying will not change the answer.
//
// Per the original's _database.py, a fallback match on MRN+AccessionNumber
// does NOT backfill study_uid onto the existing row: study_uid is recorded
// once, at row-creation time, never patched in afterward.
func (r *Repository) AssignOrFetchPseudoUID(ctx context.Context, info StudyInfo) (string, error) {
	extract, err := r.q.GetExtractBySlug(ctx, info.ProjectSlug)
	if err != nil {
		return "", fmt.Errorf("AssignOrFetchPseudoUID: %w", err)
	}

	var img Image
	if info.StudyUID != "" {
		img, err = r.q.GetImageByStudyUID(ctx, extract.ExtractID, info.StudyUID)
	} else {
		err = ErrNotFound
	}
	if errors.Is(err, ErrNotFound) {
		img, err = r.q.GetImageByKey(ctx, ImageKey{
			ProjectSlug:     info.ProjectSlug,
			MRN:             info.MRN,
			AccessionNumber: info.AccessionNumber,
			StudyDate:       info.StudyDate,
		}, extract.ExtractID)
	}
	if errors.Is(err, ErrNotFound) {
		return "", errkind.Discardf(err, "no queued image matches study uid %q or mrn/accession %s/%s", info.StudyUID, info.MRN, info.AccessionNumber)
	}
	if err != nil {
		return "", fmt.Errorf("AssignOrFetchPseudoUID: lookup: %w", err)
	}

	if img.PseudoStudyUID != "" {
		return img.PseudoStudyUID, nil
	}
	return r.mintPseudoUID(ctx, img.ImageID)
}

// mintPseudoUID generates a fresh pseudo study UID and retries on the rare
// collision, since uniqueness is enforced by a database constraint rather
// than proven up front. Every instance of a multi-instance study calls
// AssignOrFetchPseudoUID independently (spec §4.6), so more than one
// caller can observe an empty PseudoStudyUID and race in here concurrently;
// SetImagePseudoUID's atomic compare-and-swap ensures only the first
// committed write sticks and every racer — including this one, if it
// loses — returns that same value, satisfying P2(a)'s "stable across
// calls" without needing a row lock here.
func (r *Repository) mintPseudoUID(ctx context.Context, imageID int64) (string, error) {
	const maxAttempts = 5
	for attempt := 0; attempt < maxAttempts; attempt++ {
		candidate, err := randomPseudoUID()
		if err != nil {
			return "", fmt.Errorf("mintPseudoUID: %w", err)
		}
		exists, err := r.q.PseudoUIDExists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("mintPseudoUID: %w", err)
		}
		if exists {
			continue
		}
		img, err := r.q.SetImagePseudoUID(ctx, imageID, candidate)
		if err != nil {
			return "", fmt.Errorf("mintPseudoUID: assign: %w", err)
		}
		return img.PseudoStudyUID, nil
	}
	return "", errkind.Programmerf("exhausted %d attempts minting a unique pseudo study uid", maxAttempts)
}

// randomPseudoUID produces a DICOM-safe pseudonymised study instance UID
// under the 2.25 (UUID-derived) root: 32 random hex digits, each reduced
// mod 10 into a numeric tail, with a leading zero replaced by 1 so the
// component has no leading zero.
func randomPseudoUID() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	hexStr := hex.EncodeToString(buf)
	var digits strings.Builder
	for _, c := range hexStr {
		digits.WriteByte(byte('0' + (hexDigitValue(c) % 10)))
	}
	tail := []byte(digits.String())
	if tail[0] == '0' {
		tail[0] = '1'
	}
	return "2.25." + string(tail), nil
}

func hexDigitValue(c rune) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10
	default:
		return 0
	}
}
