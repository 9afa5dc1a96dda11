package exporter

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParquetLayout_CopyToExportsSymlinksLatest(t *testing.T) {
	exportDir := t.TempDir()
	omopDir := t.TempDir()

	publicDir := filepath.Join(omopDir, "public")
	require.NoError(t, os.MkdirAll(publicDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(publicDir, "person.parquet"), []byte("data"), 0o644))

	extractTime := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)
	layout := NewParquetLayout(exportDir, "Proj A", extractTime)

	require.NoError(t, layout.CopyToExports(omopDir))

	latestPublic := filepath.Join(exportDir, "proj-a", "latest", "omop", "public")
	target, err := os.Readlink(latestPublic)
	require.NoError(t, err)
	assert.Equal(t, layout.publicOutput, target)

	copiedFile := filepath.Join(latestPublic, "person.parquet")
	content, err := os.ReadFile(copiedFile)
	require.NoError(t, err)
	assert.Equal(t, "data", string(content))
}

func TestParquetLayout_CopyToExportsRelinksOverStalePointer(t *testing.T) {
	exportDir := t.TempDir()
	omopDir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(omopDir, "public"), 0o755))

	layout := NewParquetLayout(exportDir, "Proj A", time.Now().UTC())

	latestParent := filepath.Join(exportDir, "proj-a", "latest", "omop")
	require.NoError(t, os.MkdirAll(latestParent, 0o755))
	stalePath := filepath.Join(exportDir, "stale-target")
	require.NoError(t, os.MkdirAll(stalePath, 0o755))
	require.NoError(t, os.Symlink(stalePath, filepath.Join(latestParent, "public")))

	require.NoError(t, layout.CopyToExports(omopDir))

	target, err := os.Readlink(filepath.Join(latestParent, "public"))
	require.NoError(t, err)
	assert.NotEqual(t, stalePath, target)
}

func TestParquetLayout_ExportRadiologyWritesRowsAndSymlinks(t *testing.T) {
	exportDir := t.TempDir()
	layout := NewParquetLayout(exportDir, "Proj A", time.Now().UTC())

	rows := []RadiologyRow{
		{ProcedureOccurrenceID: 1, HashedIdentifier: "abc123", PseudoStudyUID: "2.25.1"},
		{ProcedureOccurrenceID: 2, HashedIdentifier: "def456", PseudoStudyUID: "2.25.2"},
	}
	path, err := layout.ExportRadiology(rows)
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))

	latestLink := filepath.Join(exportDir, "proj-a", "latest", "omop", "radiology.parquet")
	target, err := os.Readlink(latestLink)
	require.NoError(t, err)
	assert.Equal(t, path, target)
}
