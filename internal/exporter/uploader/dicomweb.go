package uploader

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/cenkalti/backoff/v4"

	"github.com/UCLH-Foundry/PIXL/internal/errkind"
)

// DicomWebUploader POSTs the study archive to a DICOMweb STOW-RS endpoint,
// mirroring original_source/pixl_core/src/core/uploader/_dicomweb.py's
// DicomWebUploader. Request/retry shape follows
// apps/discovery-service/internal/client/scanner_client.go's newRequest/
// backoff-wrapped-Do pattern.
type DicomWebUploader struct {
	baseURL string
	creds   Credentials
	client  *http.Client
}

// NewDicomWebUploader returns an Uploader posting to baseURL's STOW-RS
// studies endpoint.
func NewDicomWebUploader(baseURL string, creds Credentials) *DicomWebUploader {
	return &DicomWebUploader{baseURL: baseURL, creds: creds, client: &http.Client{}}
}

func (u *DicomWebUploader) Upload(ctx context.Context, projectSlug, pseudoStudyUID string, archive io.Reader, size int64) error {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", pseudoStudyUID+".zip")
	if err != nil {
		return errkind.Programmerf("dicomweb: creating multipart part: %v", err)
	}
	if _, err := io.Copy(part, archive); err != nil {
		return errkind.Requeuef(err, "dicomweb: buffering archive")
	}
	if err := mw.Close(); err != nil {
		return errkind.Programmerf("dicomweb: closing multipart writer: %v", err)
	}

	url := fmt.Sprintf("%s/projects/%s/studies", u.baseURL, projectSlug)

	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body.Bytes()))
		if err != nil {
			return backoff.Permanent(fmt.Errorf("dicomweb: build request: %w", err))
		}
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.Header.Set("Accept", "application/dicom+json")
		if u.creds.APIToken != "" {
			req.Header.Set("Authorization", "Bearer "+u.creds.APIToken)
		} else if u.creds.Username != "" {
			req.SetBasicAuth(u.creds.Username, u.creds.Password)
		}

		resp, err := u.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusAccepted:
			return nil
		case resp.StatusCode >= 500:
			return fmt.Errorf("dicomweb: stow-rs returned %d", resp.StatusCode)
		default:
			return backoff.Permanent(fmt.Errorf("dicomweb: stow-rs returned %d", resp.StatusCode))
		}
	}

	if err := backoff.Retry(operation, backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3)); err != nil {
		return errkind.Requeuef(err, "dicomweb: upload to %s", url)
	}
	return nil
}
