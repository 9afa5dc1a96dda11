// Package exporter implements the Exporter (spec §4.7): packaging an
// anonymised study into an archive, uploading it to the project's
// configured destination, and recording the export in the Durable
// Registry — plus the per-project parquet linker/OMOP export the CLI
// triggers on demand, grounded on
// original_source/pixl_core/src/core/exports.py.
package exporter

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/UCLH-Foundry/PIXL/internal/errkind"
	"github.com/UCLH-Foundry/PIXL/internal/exporter/uploader"
	"github.com/UCLH-Foundry/PIXL/internal/projectconfig"
	"github.com/UCLH-Foundry/PIXL/internal/registry"
)

// UploaderFactory resolves the Uploader for a project's configured
// destination, binding in Vault-sourced credentials without the Exporter
// itself touching secrets.
type UploaderFactory func(dest projectconfig.Destination) (uploader.Uploader, error)

// Exporter packages, uploads, and records exports for stable anonymised
// studies.
type Exporter struct {
	repo     *registry.Repository
	projects *projectconfig.Store
	factory  UploaderFactory
	logger   *zap.Logger
}

// New constructs an Exporter.
func New(repo *registry.Repository, projects *projectconfig.Store, factory UploaderFactory, logger *zap.Logger) *Exporter {
	return &Exporter{repo: repo, projects: projects, factory: factory, logger: logger}
}

// ExportStudy packages msg's anonymised instances, uploads them to the
// project's configured destination, and records the export. Per spec
// §4.7, an export attempted for an already-exported study is a recoverable
// no-op: the study is not re-uploaded.
func (e *Exporter) ExportStudy(ctx context.Context, msg ExportMessage) error {
	slug := msg.ProjectSlug()

	already, err := e.repo.AlreadyExported(ctx, msg.PseudoStudyUID)
	if err != nil {
		return fmt.Errorf("exporter: checking export status for %s: %w", msg.PseudoStudyUID, err)
	}
	if already {
		return errkind.New(errkind.AlreadyExported, "study already exported, skipping re-upload", nil)
	}

	project, err := e.projects.Load(slug)
	if err != nil {
		return errkind.Configurationf(err, "exporter: loading project config for %s", slug)
	}

	up, err := e.factory(project.Destination)
	if err != nil {
		return errkind.Configurationf(err, "exporter: resolving uploader for destination %q", project.Destination.Kind)
	}

	var archive bytes.Buffer
	if err := BuildArchive(&archive, msg.InstancePaths); err != nil {
		return fmt.Errorf("exporter: packaging %s: %w", msg.PseudoStudyUID, err)
	}

	if err := up.Upload(ctx, string(slug), msg.PseudoStudyUID, &archive, int64(archive.Len())); err != nil {
		return err
	}

	if err := e.repo.RecordExport(ctx, msg.PseudoStudyUID, time.Now()); err != nil {
		if errkind.Is(err, errkind.AlreadyExported) {
			e.logger.Warn("upload succeeded but record_export lost a race to a concurrent exporter",
				zap.String("pseudo_study_uid", msg.PseudoStudyUID))
			return nil
		}
		return fmt.Errorf("exporter: recording export for %s: %w", msg.PseudoStudyUID, err)
	}

	e.logger.Info("study exported",
		zap.String("project", string(slug)),
		zap.String("pseudo_study_uid", msg.PseudoStudyUID),
	)
	return nil
}

// ExportCohortParquet implements the Control API's cohort-wide trigger
// (spec §4.8): copies omopDir's public OMOP tables into the project's
// extract directory and writes radiology.parquet, the linker table mapping
// procedure_occurrence_id/hashed_identifier to the pseudo_study_uid of
// every Image row that has one minted (whether or not it has been exported), atomically repointing latest/omop at both.
func (e *Exporter) ExportCohortParquet(ctx context.Context, exportDir, omopDir, projectName string, extractDatetime time.Time) error {
	slug := registry.SlugifyProject(projectName)

	images, err := e.repo.ListImagesByProject(ctx, slug)
	if err != nil {
		return fmt.Errorf("exporter: listing images for %s: %w", slug, err)
	}

	layout := NewParquetLayout(exportDir, projectName, extractDatetime)
	if err := layout.CopyToExports(omopDir); err != nil {
		return err
	}

	rows := make([]RadiologyRow, 0, len(images))
	for _, img := range images {
		if img.PseudoStudyUID == "" {
			continue
		}
		rows = append(rows, RadiologyRow{
			ProcedureOccurrenceID: img.ProcedureOccurrenceID,
			HashedIdentifier:      img.HashedIdentifier,
			PseudoStudyUID:        img.PseudoStudyUID,
		})
	}
	if _, err := layout.ExportRadiology(rows); err != nil {
		return err
	}

	e.logger.Info("cohort parquet export complete",
		zap.String("project", string(slug)),
		zap.Int("linked_studies", len(rows)),
	)
	return nil
}
