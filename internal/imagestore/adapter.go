// Package imagestore is the Image Store Adapter (spec §4.4): a thin HTTP
// facade over the raw-study PACS image store (Orthanc in the original
// deployment), translating its REST job-queue API into the coordinator's
// blocking operation calls.
package imagestore

import "context"

// QueryResult is the resourceId (local) or query ID (remote) returned by a
// find/query call.
type QueryResult struct {
	ID      string
	Matched bool
}

// LocalMatch is one study already present in the raw store, along with the
// project-name private tag it currently carries (if any) — the
// RequestedTags expansion in the original's orthanc_dict_with_project_name
// query.
type LocalMatch struct {
	StudyID       string
	ProjectTag    string
	HasProjectTag bool
	LastUpdate    string
}

// Adapter is the interface the Study Coordinator depends on, mirroring
// apps/discovery-service/internal/client/scanner_client.go's facade shape:
// a narrow interface over a third-party REST surface so the coordinator
// can be tested against a fake.
type Adapter interface {
	// QueryLocal searches the raw store's own database for a study
	// matching the given DICOM query keys.
	QueryLocal(ctx context.Context, query map[string]string) (QueryResult, error)

	// QueryLocalWithProjectTag searches the raw store for studies matching
	// mrn/accessionNumber and expands the project-name private tag on each
	// match, for the coordinator's inspect step (spec §4.5).
	QueryLocalWithProjectTag(ctx context.Context, mrn, accessionNumber string) ([]LocalMatch, error)

	// QueryRemote asks a named modality whether it holds a study matching
	// query, returning the query ID to retrieve it by.
	QueryRemote(ctx context.Context, modality string, query map[string]string) (QueryResult, error)

	// Retrieve issues a C-MOVE for a previously-run remote query and
	// blocks (subject to ctx) until the transfer job reaches a terminal
	// state, returning an errkind.Requeue or errkind.Discard error on
	// failure/timeout.
	Retrieve(ctx context.Context, queryID string) error

	// PendingJobs reports whether the raw store currently has jobs in the
	// "Pending" state — used to back pressure new retrievals.
	PendingJobs(ctx context.Context) (bool, error)

	// ModifyPrivateTag stamps the project-slug private tag onto a study
	// in place, via the studies/{id}/modify endpoint.
	ModifyPrivateTag(ctx context.Context, studyID string, group uint16, creator, value string) error

	// ForwardToAnon sends a fully-tagged study from the raw store to the
	// anonymiser's inbound store.
	ForwardToAnon(ctx context.Context, studyID string) error

	// Delete removes a study from the raw store, used to drop duplicate
	// local matches before tag modification (spec §4.4 ordering note).
	Delete(ctx context.Context, studyID string) error

	// ListRecentByProject returns up to n studies tagged for projectTag,
	// most-recently-updated first. Backs the Control API's supplemented
	// GET /studies/recent (SPEC_FULL.md §C.5), itself an operational
	// wrapper around QueryLocalWithProjectTag-style tag expansion rather
	// than a standalone script.
	ListRecentByProject(ctx context.Context, projectTag string, n int) ([]LocalMatch, error)
}
