// Package uploader implements the destination transports the Exporter can
// hand a packaged study archive to. Grounded on the teacher's dispatcher
// pair apps/notification-service/internal/dispatcher/{email,webhook}.go —
// one interface, several concrete senders chosen by a factory — and on
// original_source/pixl_core/src/core/uploader/__init__.py's get_uploader,
// which selects FTPSUploader/DicomWebUploader by project_config.destination.
package uploader

import (
	"context"
	"io"
)

// Uploader delivers a packaged study archive to a research destination.
// projectSlug and pseudoStudyUID determine the per-project, per-study
// layout at the destination (spec §4.7: "<project_slug>/<pseudo_study_uid>.zip"
// for FTPS, or an equivalent by-project container on other transports).
type Uploader interface {
	Upload(ctx context.Context, projectSlug, pseudoStudyUID string, archive io.Reader, size int64) error
}

// Kind is the closed set of destinations a project config may select.
type Kind string

const (
	KindFTPS     Kind = "ftps"
	KindDICOMweb Kind = "dicomweb"
	KindXNAT     Kind = "xnat"
)

// Credentials holds the secrets a destination needs, loaded by the caller
// from internal/secrets and passed in rather than fetched here — uploader
// implementations never talk to Vault directly.
type Credentials struct {
	Username string
	Password string
	APIToken string
}
