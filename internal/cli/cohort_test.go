package cli

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCohortCSV_ParsesRows(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cohort.csv")
	content := "VAL_ID,ACCESSION_NUMBER,STUDY_INSTANCE_UID,STUDY_DATE\n" +
		"mrn-1,acc-1,1.2.3,2026-01-01\n" +
		"mrn-2,acc-2,1.2.4,2026-01-02\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	extractTime := time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC)
	messages, err := ReadCohortCSV(path, "Proj A", extractTime)
	require.NoError(t, err)
	require.Len(t, messages, 2)

	assert.Equal(t, "mrn-1", messages[0].MRN)
	assert.Equal(t, "acc-1", messages[0].AccessionNumber)
	assert.Equal(t, "1.2.3", messages[0].StudyUID)
	assert.Equal(t, "2026-01-01", messages[0].StudyDate)
	assert.Equal(t, "Proj A", messages[0].ProjectName)
	assert.True(t, extractTime.Equal(messages[0].ExtractDatetime))
}

func TestReadCohortCSV_MissingColumnErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cohort.csv")
	require.NoError(t, os.WriteFile(path, []byte("VAL_ID,STUDY_DATE\nmrn-1,2026-01-01\n"), 0o644))

	_, err := ReadCohortCSV(path, "Proj A", time.Now())
	assert.Error(t, err)
}

func TestReadCohortCSV_EmptyFileErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cohort.csv")
	require.NoError(t, os.WriteFile(path, []byte("VAL_ID,ACCESSION_NUMBER,STUDY_INSTANCE_UID,STUDY_DATE\n"), 0o644))

	_, err := ReadCohortCSV(path, "Proj A", time.Now())
	assert.Error(t, err)
}

func writeParquet[T any](t *testing.T, path string, rows []T) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, parquet.Write[T](f, rows))
}

func TestReadCohortParquet_JoinsAcrossFiles(t *testing.T) {
	dir := t.TempDir()
	privateDir := filepath.Join(dir, "private")
	publicDir := filepath.Join(dir, "public")
	require.NoError(t, os.MkdirAll(privateDir, 0o755))
	require.NoError(t, os.MkdirAll(publicDir, 0o755))

	writeParquet(t, filepath.Join(privateDir, "PERSON_LINKS.parquet"), []personLinkRow{
		{PersonID: 1, PrimaryMrn: "mrn-1"},
		{PersonID: 2, PrimaryMrn: "mrn-2"},
	})
	writeParquet(t, filepath.Join(privateDir, "PROCEDURE_OCCURRENCE_LINKS.parquet"), []procedureLinkRow{
		{ProcedureOccurrenceID: 10, AccessionNumber: "acc-1"},
		{ProcedureOccurrenceID: 20, AccessionNumber: "acc-2"},
	})
	writeParquet(t, filepath.Join(publicDir, "PROCEDURE_OCCURRENCE.parquet"), []procedureOccurrenceRow{
		{ProcedureOccurrenceID: 10, PersonID: 1, ProcedureDate: "2026-01-01"},
		{ProcedureOccurrenceID: 20, PersonID: 2, ProcedureDate: "2026-01-02"},
		{ProcedureOccurrenceID: 30, PersonID: 99, ProcedureDate: "2026-01-03"}, // unmatched person
	})

	extractTime := time.Date(2026, 1, 4, 0, 0, 0, 0, time.UTC)
	messages, err := ReadCohortParquet(dir, "Proj A", extractTime)
	require.NoError(t, err)
	require.Len(t, messages, 2)

	assert.Equal(t, "mrn-1", messages[0].MRN)
	assert.Equal(t, "acc-1", messages[0].AccessionNumber)
	assert.Equal(t, int64(10), messages[0].ProcedureOccurrenceID)
	assert.Equal(t, "Proj A", messages[1].ProjectName)
}

func TestReadCohortParquet_MissingDirectoryErrors(t *testing.T) {
	_, err := ReadCohortParquet(t.TempDir(), "Proj A", time.Now())
	assert.Error(t, err)
}
