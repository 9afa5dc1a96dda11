package uploader

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/cenkalti/backoff/v4"

	"github.com/UCLH-Foundry/PIXL/internal/errkind"
)

// XNATUploader imports the archive into an XNAT project via its REST
// image-upload endpoint (PUT .../data/services/import). XNAT has no
// Python counterpart in original_source — spec.md §4.7 names it alongside
// ftps/dicomweb as a valid destination.Kind without detailing its wire
// shape, so this follows the same newRequest/backoff.Retry shape as
// DicomWebUploader rather than inventing a separate client style.
type XNATUploader struct {
	baseURL string
	creds   Credentials
	client  *http.Client
}

// NewXNATUploader returns an Uploader targeting an XNAT server at baseURL.
func NewXNATUploader(baseURL string, creds Credentials) *XNATUploader {
	return &XNATUploader{baseURL: baseURL, creds: creds, client: &http.Client{}}
}

func (u *XNATUploader) Upload(ctx context.Context, projectSlug, pseudoStudyUID string, archive io.Reader, size int64) error {
	buf, err := io.ReadAll(archive)
	if err != nil {
		return errkind.Requeuef(err, "xnat: buffering archive")
	}

	url := fmt.Sprintf("%s/data/services/import?PROJECT_ID=%s&import-handler=DICOM-zip&Direct-Archive=true",
		u.baseURL, projectSlug)

	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(buf))
		if err != nil {
			return backoff.Permanent(fmt.Errorf("xnat: build request: %w", err))
		}
		req.Header.Set("Content-Type", "application/zip")
		req.ContentLength = size
		req.SetBasicAuth(u.creds.Username, u.creds.Password)

		resp, err := u.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
			return nil
		case resp.StatusCode >= 500:
			return fmt.Errorf("xnat: import returned %d", resp.StatusCode)
		default:
			return backoff.Permanent(fmt.Errorf("xnat: import returned %d", resp.StatusCode))
		}
	}

	if err := backoff.Retry(operation, backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3)); err != nil {
		return errkind.Requeuef(err, "xnat: upload to %s", url)
	}
	return nil
}
