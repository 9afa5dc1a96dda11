package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ControlClient is the CLI-side facade over the Control API (spec §4.8),
// following apps/discovery-service/internal/client/scanner_client.go's
// newRequest/doJSON shape, reduced to the three endpoints the CLI drives.
type ControlClient struct {
	baseURL string
	client  *http.Client
}

// NewControlClient returns a client against baseURL (e.g.
// "http://imaging-worker:8080").
func NewControlClient(baseURL string) *ControlClient {
	return &ControlClient{baseURL: baseURL, client: &http.Client{Timeout: 10 * time.Second}}
}

func (c *ControlClient) do(ctx context.Context, method, path string, body, out interface{}) (int, error) {
	var buf io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("cli: marshal request body: %w", err)
		}
		buf = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, buf)
	if err != nil {
		return 0, fmt.Errorf("cli: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("cli: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("cli: decoding response from %s: %w", path, err)
		}
	}
	return resp.StatusCode, nil
}

// GetRate reads the current token-bucket refill rate for queue.
func (c *ControlClient) GetRate(ctx context.Context, queue string) (int, error) {
	var out struct {
		Rate int `json:"rate"`
	}
	status, err := c.do(ctx, http.MethodGet, "/"+queue+"/token-bucket-refresh-rate", nil, &out)
	if err != nil {
		return 0, err
	}
	if status != http.StatusOK {
		return 0, fmt.Errorf("cli: get rate for %s: unexpected status %d", queue, status)
	}
	return out.Rate, nil
}

// SetRate updates the token-bucket refill rate for queue.
func (c *ControlClient) SetRate(ctx context.Context, queue string, rate int) error {
	status, err := c.do(ctx, http.MethodPost, "/"+queue+"/token-bucket-refresh-rate", map[string]int{"rate": rate}, nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("cli: set rate for %s: unexpected status %d", queue, status)
	}
	return nil
}

// TriggerExport POSTs /export-patient-data for projectName.
func (c *ControlClient) TriggerExport(ctx context.Context, projectName string, extractDatetime time.Time) error {
	body := map[string]interface{}{
		"project_name":     projectName,
		"extract_datetime": extractDatetime,
	}
	status, err := c.do(ctx, http.MethodPost, "/export-patient-data", body, nil)
	if err != nil {
		return err
	}
	if status != http.StatusAccepted {
		return fmt.Errorf("cli: trigger export for %s: unexpected status %d", projectName, status)
	}
	return nil
}

// HeartBeat calls GET /heart-beat, returning nil only on a 200 response.
func (c *ControlClient) HeartBeat(ctx context.Context) error {
	status, err := c.do(ctx, http.MethodGet, "/heart-beat", nil, nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("cli: heart-beat: unexpected status %d", status)
	}
	return nil
}
