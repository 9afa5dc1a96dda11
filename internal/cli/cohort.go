package cli

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/UCLH-Foundry/PIXL/internal/registry"
)

// personLinkRow is one row of private/PERSON_LINKS.parquet.
type personLinkRow struct {
	PersonID   int64  `parquet:"person_id"`
	PrimaryMrn string `parquet:"PrimaryMrn"`
}

// procedureLinkRow is one row of private/PROCEDURE_OCCURRENCE_LINKS.parquet.
type procedureLinkRow struct {
	ProcedureOccurrenceID int64  `parquet:"procedure_occurrence_id"`
	AccessionNumber       string `parquet:"AccessionNumber"`
}

// procedureOccurrenceRow is one row of public/PROCEDURE_OCCURRENCE.parquet.
type procedureOccurrenceRow struct {
	ProcedureOccurrenceID int64  `parquet:"procedure_occurrence_id"`
	PersonID              int64  `parquet:"person_id"`
	ProcedureDate         string `parquet:"procedure_date"`
}

// ReadCohortParquet reads an OMOP ES extract directory — "private" and
// "public" subdirectories of linked parquet files — and builds one
// registry.StudyMessage per joined row, matching
// pixl_cli/_io.py's messages_from_parquet: PERSON_LINKS joined to
// PROCEDURE_OCCURRENCE on person_id, then to PROCEDURE_OCCURRENCE_LINKS on
// procedure_occurrence_id.
func ReadCohortParquet(dir, projectName string, extractDatetime time.Time) ([]registry.StudyMessage, error) {
	privateDir := filepath.Join(dir, "private")
	publicDir := filepath.Join(dir, "public")
	for _, d := range []string{privateDir, publicDir} {
		if info, err := os.Stat(d); err != nil || !info.IsDir() {
			return nil, fmt.Errorf("cli: %s must exist and be a directory", d)
		}
	}

	people, err := parquet.ReadFile[personLinkRow](filepath.Join(privateDir, "PERSON_LINKS.parquet"))
	if err != nil {
		return nil, fmt.Errorf("cli: reading PERSON_LINKS.parquet: %w", err)
	}
	accessions, err := parquet.ReadFile[procedureLinkRow](filepath.Join(privateDir, "PROCEDURE_OCCURRENCE_LINKS.parquet"))
	if err != nil {
		return nil, fmt.Errorf("cli: reading PROCEDURE_OCCURRENCE_LINKS.parquet: %w", err)
	}
	procedures, err := parquet.ReadFile[procedureOccurrenceRow](filepath.Join(publicDir, "PROCEDURE_OCCURRENCE.parquet"))
	if err != nil {
		return nil, fmt.Errorf("cli: reading PROCEDURE_OCCURRENCE.parquet: %w", err)
	}

	mrnByPerson := make(map[int64]string, len(people))
	for _, p := range people {
		mrnByPerson[p.PersonID] = p.PrimaryMrn
	}
	accessionByProcedure := make(map[int64]string, len(accessions))
	for _, a := range accessions {
		accessionByProcedure[a.ProcedureOccurrenceID] = a.AccessionNumber
	}

	var messages []registry.StudyMessage
	for _, proc := range procedures {
		mrn, ok := mrnByPerson[proc.PersonID]
		if !ok {
			continue
		}
		accession, ok := accessionByProcedure[proc.ProcedureOccurrenceID]
		if !ok {
			continue
		}
		messages = append(messages, registry.StudyMessage{
			MRN:                   mrn,
			AccessionNumber:       accession,
			StudyDate:             proc.ProcedureDate,
			ProcedureOccurrenceID: proc.ProcedureOccurrenceID,
			ProjectName:           projectName,
			ExtractDatetime:       extractDatetime,
		})
	}

	if len(messages) == 0 {
		return nil, fmt.Errorf("cli: failed to find any messages in %s", dir)
	}
	return messages, nil
}

// csvColumns is the header pixl_cli/main.py's messages_from_csv requires, in
// order: VAL_ID (MRN), ACCESSION_NUMBER, STUDY_INSTANCE_UID, STUDY_DATE.
var csvColumns = []string{"VAL_ID", "ACCESSION_NUMBER", "STUDY_INSTANCE_UID", "STUDY_DATE"}

// ReadCohortCSV reads a flat cohort CSV, the CLI's simpler intake path for
// manually curated lists rather than a full OMOP ES extract. Uses
// encoding/csv directly: no CSV-parsing library appears anywhere in the
// retrieval pack, and this format is exactly four known, fixed columns with
// no quoting/dialect complexity that would justify pulling one in.
func ReadCohortCSV(path, projectName string, extractDatetime time.Time) ([]registry.StudyMessage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cli: opening %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("cli: reading header of %s: %w", path, err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[name] = i
	}
	for _, want := range csvColumns {
		if _, ok := cols[want]; !ok {
			return nil, fmt.Errorf("cli: %s expected to have at least %v as column names", path, csvColumns)
		}
	}

	var messages []registry.StudyMessage
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("cli: reading %s: %w", path, err)
		}
		messages = append(messages, registry.StudyMessage{
			MRN:             row[cols["VAL_ID"]],
			AccessionNumber: row[cols["ACCESSION_NUMBER"]],
			StudyUID:        row[cols["STUDY_INSTANCE_UID"]],
			StudyDate:       row[cols["STUDY_DATE"]],
			ProjectName:     projectName,
			ExtractDatetime: extractDatetime,
		})
	}

	if len(messages) == 0 {
		return nil, fmt.Errorf("cli: failed to find any messages in %s", path)
	}
	return messages, nil
}
