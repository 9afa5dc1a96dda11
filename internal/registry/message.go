package registry

import "time"

// StudyMessage is the queue payload published by the CLI's populate
// command and consumed by the Study Coordinator (spec §3). It is uniquely
// identified by (ProjectName, MRN, AccessionNumber, StudyDate); the
// coordinator treats duplicates as idempotent retries.
type StudyMessage struct {
	MRN                   string    `json:"mrn"`
	AccessionNumber       string    `json:"accession_number"`
	StudyUID              string    `json:"study_uid,omitempty"`
	StudyDate             string    `json:"study_date"`
	ProcedureOccurrenceID int64     `json:"procedure_occurrence_id"`
	ProjectName           string    `json:"project_name"`
	ExtractDatetime       time.Time `json:"extract_datetime"`
}

// Key returns the tuple that uniquely identifies this message within a
// project, per spec §3's invariant.
func (m StudyMessage) Key() ImageKey {
	return ImageKey{
		ProjectSlug:     SlugifyProject(m.ProjectName),
		MRN:             m.MRN,
		AccessionNumber: m.AccessionNumber,
		StudyDate:       m.StudyDate,
	}
}
