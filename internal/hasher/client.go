// Package hasher is the HTTP client for the external Hashing Service
// (spec §6): GET /hash?project_slug=&message=&length= → the raw hash
// bytes, truncated server-side if length is given.
package hasher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Client calls the Hashing Service, retrying transient failures with
// exponential backoff — the same shape as
// apps/discovery-service/internal/client/scanner_client.go's doJSON,
// reduced to this service's single GET endpoint.
type Client struct {
	baseURL string
	http    *http.Client
}

// New constructs a Client pointed at baseURL (e.g. "http://hasher:8000").
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Hash resolves a project-scoped secure-hash request. An empty length asks
// for the full digest.
func (c *Client) Hash(ctx context.Context, projectSlug, message string, length int) (string, error) {
	q := url.Values{}
	q.Set("project_slug", projectSlug)
	q.Set("message", message)
	if length > 0 {
		q.Set("length", fmt.Sprintf("%d", length))
	}
	reqURL := c.baseURL + "/hash?" + q.Encode()

	var result string
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("hasher: building request: %w", err))
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return fmt.Errorf("hasher: request failed: %w", err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("hasher: reading response: %w", err)
		}
		if resp.StatusCode >= 500 {
			return fmt.Errorf("hasher: server error %d", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			return backoff.Permanent(fmt.Errorf("hasher: unexpected status %d", resp.StatusCode))
		}
		result = string(body)
		return nil
	}

	policy := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3)
	if err := backoff.Retry(op, backoff.WithContext(policy, ctx)); err != nil {
		return "", err
	}
	return result, nil
}
