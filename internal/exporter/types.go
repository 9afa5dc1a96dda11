package exporter

import "github.com/UCLH-Foundry/PIXL/internal/registry"

// ExportMessage is the queue payload published once a study's
// anonymisation is stable (spec §4.7's "for each anonymised, stable
// study"). InstancePaths point at the anonymised DICOM instances sitting
// in the anonymising store's local export staging area.
type ExportMessage struct {
	ProjectName           string   `json:"project_name"`
	PseudoStudyUID         string   `json:"pseudo_study_uid"`
	ProcedureOccurrenceID  int64    `json:"procedure_occurrence_id"`
	InstancePaths          []string `json:"instance_paths"`
}

// ProjectSlug returns the registry.ProjectSlug this message's project
// resolves to.
func (m ExportMessage) ProjectSlug() registry.ProjectSlug {
	return registry.SlugifyProject(m.ProjectName)
}
