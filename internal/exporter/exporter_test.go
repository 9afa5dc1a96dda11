package exporter

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	"github.com/UCLH-Foundry/PIXL/internal/errkind"
	exportmock "github.com/UCLH-Foundry/PIXL/internal/exporter/mock"
	"github.com/UCLH-Foundry/PIXL/internal/exporter/uploader"
	"github.com/UCLH-Foundry/PIXL/internal/projectconfig"
	"github.com/UCLH-Foundry/PIXL/internal/registry"
	registrymock "github.com/UCLH-Foundry/PIXL/internal/registry/mock"
)

func newTestExporter(t *testing.T, q registry.Querier, up uploader.Uploader) *Exporter {
	t.Helper()
	dir := t.TempDir()
	slug := registry.SlugifyProject("Proj A")
	content := "project_name: Proj A\ndestination:\n  kind: ftps\n  host: dest.example\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, string(slug)+".yaml"), []byte(content), 0o644))

	store := projectconfig.NewStore(dir)
	factory := func(dest projectconfig.Destination) (uploader.Uploader, error) {
		return up, nil
	}
	repo := registry.NewRepositoryWithQuerier(q)
	return New(repo, store, factory, zap.NewNop())
}

func TestExportStudy_SkipsUploadWhenAlreadyExported(t *testing.T) {
	ctrl := gomock.NewController(t)
	q := registrymock.NewMockQuerier(ctrl)
	up := exportmock.NewMockUploader(ctrl)

	exportedAt := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	q.EXPECT().GetImageByPseudoUID(gomock.Any(), "2.25.123").
		Return(registry.Image{ImageID: 1, PseudoStudyUID: "2.25.123", ExportedAt: &exportedAt}, nil)

	e := newTestExporter(t, q, up)

	err := e.ExportStudy(context.Background(), ExportMessage{
		ProjectName:    "Proj A",
		PseudoStudyUID: "2.25.123",
	})
	require.Error(t, err)
	assert.True(t, errkind.Is(err, errkind.AlreadyExported))
}

func TestExportStudy_UploadsAndRecords(t *testing.T) {
	ctrl := gomock.NewController(t)
	q := registrymock.NewMockQuerier(ctrl)
	up := exportmock.NewMockUploader(ctrl)

	q.EXPECT().GetImageByPseudoUID(gomock.Any(), "2.25.456").
		Return(registry.Image{}, registry.ErrNotFound)

	up.EXPECT().Upload(gomock.Any(), "proj-a", "2.25.456", gomock.Any(), gomock.Any()).Return(nil)

	q.EXPECT().GetImageByPseudoUID(gomock.Any(), "2.25.456").
		Return(registry.Image{ImageID: 7, PseudoStudyUID: "2.25.456"}, nil)
	q.EXPECT().SetExportedAt(gomock.Any(), int64(7), gomock.Any()).Return(nil)

	e := newTestExporter(t, q, up)

	err := e.ExportStudy(context.Background(), ExportMessage{
		ProjectName:    "Proj A",
		PseudoStudyUID: "2.25.456",
	})
	require.NoError(t, err)
}

func TestExportCohortParquet_WritesLinkerRowsForImagesWithPseudoUID(t *testing.T) {
	ctrl := gomock.NewController(t)
	q := registrymock.NewMockQuerier(ctrl)
	up := exportmock.NewMockUploader(ctrl)

	slug := registry.SlugifyProject("Proj A")
	extract := registry.Extract{ExtractID: 3, Slug: slug}
	q.EXPECT().GetExtractBySlug(gomock.Any(), slug).Return(extract, nil)
	q.EXPECT().ListImagesByExtract(gomock.Any(), extract.ExtractID).Return([]registry.Image{
		{ImageID: 1, ProcedureOccurrenceID: 10, HashedIdentifier: "hash-1", PseudoStudyUID: "2.25.1"},
		{ImageID: 2, ProcedureOccurrenceID: 11, HashedIdentifier: "hash-2", PseudoStudyUID: ""},
	}, nil)

	e := newTestExporter(t, q, up)

	omopDir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(omopDir, "public"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(omopDir, "public", "PROCEDURE_OCCURRENCE.parquet"), []byte("x"), 0o644))

	exportDir := t.TempDir()
	extractTime := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	err := e.ExportCohortParquet(context.Background(), exportDir, omopDir, "Proj A", extractTime)
	require.NoError(t, err)

	latestPath := filepath.Join(exportDir, "proj-a", "latest", "omop", "radiology.parquet")
	rows, err := parquet.ReadFile[RadiologyRow](latestPath)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "hash-1", rows[0].HashedIdentifier)
	assert.Equal(t, int64(10), rows[0].ProcedureOccurrenceID)
}
