package imagestore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/UCLH-Foundry/PIXL/internal/errkind"
)

// httpAdapter is the production Adapter, backed by the raw image store's
// REST job-queue API. Request construction follows
// apps/discovery-service/internal/client/scanner_client.go's
// newRequest/doJSON split; basic-auth generalises that client's
// X-Tenant-ID header injection to this store's auth model.
type httpAdapter struct {
	baseURL  string
	username string
	password string
	aet      string
	client   *http.Client

	pollInterval time.Duration
	jobTimeout   time.Duration
}

// Config carries the connection details for one raw image store instance.
type Config struct {
	BaseURL      string
	Username     string
	Password     string
	AET          string // application entity title used as C-MOVE target
	PollInterval time.Duration
	JobTimeout   time.Duration
}

// NewHTTPAdapter constructs an Adapter against cfg.
func NewHTTPAdapter(cfg Config) Adapter {
	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = time.Second
	}
	jobTimeout := cfg.JobTimeout
	if jobTimeout <= 0 {
		jobTimeout = 2 * time.Minute
	}
	return &httpAdapter{
		baseURL:      cfg.BaseURL,
		username:     cfg.Username,
		password:     cfg.Password,
		aet:          cfg.AET,
		client:       &http.Client{Timeout: 30 * time.Second},
		pollInterval: pollInterval,
		jobTimeout:   jobTimeout,
	}
}

func (a *httpAdapter) newRequest(ctx context.Context, method, path string, body interface{}) (*http.Request, error) {
	var buf io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("imagestore: marshal request body: %w", err)
		}
		buf = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, buf)
	if err != nil {
		return nil, fmt.Errorf("imagestore: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if a.username != "" {
		req.SetBasicAuth(a.username, a.password)
	}
	return req, nil
}

func (a *httpAdapter) doJSON(req *http.Request, dest interface{}) error {
	resp, err := a.client.Do(req)
	if err != nil {
		return errkind.Requeuef(err, "imagestore: http do")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return errkind.Requeuef(err, "imagestore: read body")
	}
	if resp.StatusCode >= 500 {
		return errkind.Requeuef(fmt.Errorf("status %d: %s", resp.StatusCode, raw), "imagestore: server error")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errkind.Discardf(fmt.Errorf("status %d: %s", resp.StatusCode, raw), "imagestore: unexpected status")
	}
	if dest != nil {
		if err := json.Unmarshal(raw, dest); err != nil {
			return fmt.Errorf("imagestore: unmarshal response: %w", err)
		}
	}
	return nil
}

func (a *httpAdapter) QueryLocal(ctx context.Context, query map[string]string) (QueryResult, error) {
	req, err := a.newRequest(ctx, http.MethodPost, "/tools/find", query)
	if err != nil {
		return QueryResult{}, err
	}
	var ids []string
	if err := a.doJSON(req, &ids); err != nil {
		return QueryResult{}, err
	}
	if len(ids) == 0 {
		return QueryResult{Matched: false}, nil
	}
	return QueryResult{ID: ids[0], Matched: true}, nil
}

func (a *httpAdapter) QueryLocalWithProjectTag(ctx context.Context, mrn, accessionNumber string) ([]LocalMatch, error) {
	req, err := a.newRequest(ctx, http.MethodPost, "/tools/find", map[string]interface{}{
		"Level": "Study",
		"Query": map[string]string{
			"PatientID":       mrn,
			"AccessionNumber": accessionNumber,
		},
		"RequestedTags": []string{"PIXLProjectName"},
		"Expand":        true,
	})
	if err != nil {
		return nil, err
	}

	var resources []struct {
		ID            string            `json:"ID"`
		LastUpdate    string            `json:"LastUpdate"`
		RequestedTags map[string]string `json:"RequestedTags"`
	}
	if err := a.doJSON(req, &resources); err != nil {
		return nil, err
	}

	matches := make([]LocalMatch, 0, len(resources))
	for _, r := range resources {
		tag, ok := r.RequestedTags["PIXLProjectName"]
		matches = append(matches, LocalMatch{
			StudyID:       r.ID,
			ProjectTag:    tag,
			HasProjectTag: ok,
			LastUpdate:    r.LastUpdate,
		})
	}
	return matches, nil
}

func (a *httpAdapter) QueryRemote(ctx context.Context, modality string, query map[string]string) (QueryResult, error) {
	req, err := a.newRequest(ctx, http.MethodPost, "/modalities/"+modality+"/query", query)
	if err != nil {
		return QueryResult{}, err
	}
	var resp struct {
		ID string `json:"ID"`
	}
	if err := a.doJSON(req, &resp); err != nil {
		return QueryResult{}, err
	}

	answersReq, err := a.newRequest(ctx, http.MethodGet, "/queries/"+resp.ID+"/answers", nil)
	if err != nil {
		return QueryResult{}, err
	}
	var answers []json.RawMessage
	if err := a.doJSON(answersReq, &answers); err != nil {
		return QueryResult{}, err
	}
	if len(answers) == 0 {
		return QueryResult{Matched: false}, nil
	}
	return QueryResult{ID: resp.ID, Matched: true}, nil
}

func (a *httpAdapter) Retrieve(ctx context.Context, queryID string) error {
	req, err := a.newRequest(ctx, http.MethodPost, "/queries/"+queryID+"/retrieve", map[string]interface{}{
		"TargetAet":  a.aet,
		"Synchronous": false,
	})
	if err != nil {
		return err
	}
	var resp struct {
		ID string `json:"ID"`
	}
	if err := a.doJSON(req, &resp); err != nil {
		return err
	}
	return a.waitForJobSuccess(ctx, resp.ID)
}

// waitForJobSuccess polls /jobs/{id} until it reaches a terminal state,
// grounded on _orthanc.py's wait_for_job_success_or_raise. Failure and
// timeout both discard the message (a C-MOVE doesn't usefully retry
// without operator intervention); per-poll transport errors are retried
// with backoff.
func (a *httpAdapter) waitForJobSuccess(ctx context.Context, jobID string) error {
	deadline := time.Now().Add(a.jobTimeout)
	for {
		if time.Now().After(deadline) {
			return errkind.Discardf(nil, "imagestore: job %s did not complete within %s", jobID, a.jobTimeout)
		}

		state, err := a.jobState(ctx, jobID)
		if err != nil {
			return err
		}
		switch state {
		case "Success":
			return nil
		case "Failure":
			return errkind.Discardf(nil, "imagestore: job %s failed", jobID)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(a.pollInterval):
		}
	}
}

func (a *httpAdapter) jobState(ctx context.Context, jobID string) (string, error) {
	var state string
	op := func() error {
		req, err := a.newRequest(ctx, http.MethodGet, "/jobs/"+jobID, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		var resp struct {
			State string `json:"State"`
		}
		if err := a.doJSON(req, &resp); err != nil {
			if errkind.Is(err, errkind.Requeue) {
				return err
			}
			return backoff.Permanent(err)
		}
		state = resp.State
		return nil
	}
	policy := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3)
	if err := backoff.Retry(op, backoff.WithContext(policy, ctx)); err != nil {
		return "", err
	}
	return state, nil
}

func (a *httpAdapter) PendingJobs(ctx context.Context) (bool, error) {
	req, err := a.newRequest(ctx, http.MethodGet, "/jobs?expand", nil)
	if err != nil {
		return false, err
	}
	var jobs []struct {
		State string `json:"State"`
	}
	if err := a.doJSON(req, &jobs); err != nil {
		return false, err
	}
	for _, job := range jobs {
		if job.State == "Pending" {
			return true, nil
		}
	}
	return false, nil
}

func (a *httpAdapter) ModifyPrivateTag(ctx context.Context, studyID string, group uint16, creator, value string) error {
	req, err := a.newRequest(ctx, http.MethodPost, "/studies/"+studyID+"/modify", map[string]interface{}{
		"PrivateCreator": creator,
		"Permissive":     false,
		"KeepSource":     false,
		"Replace": map[string]string{
			fmt.Sprintf("%04x,00", group): value,
		},
	})
	if err != nil {
		return err
	}
	return a.doJSON(req, nil)
}

func (a *httpAdapter) ForwardToAnon(ctx context.Context, studyID string) error {
	req, err := a.newRequest(ctx, http.MethodPost, "/send-to-anon", map[string]string{"ResourceId": studyID})
	if err != nil {
		return err
	}
	return a.doJSON(req, nil)
}

func (a *httpAdapter) Delete(ctx context.Context, studyID string) error {
	req, err := a.newRequest(ctx, http.MethodDelete, "/studies/"+studyID, nil)
	if err != nil {
		return err
	}
	return a.doJSON(req, nil)
}

func (a *httpAdapter) ListRecentByProject(ctx context.Context, projectTag string, n int) ([]LocalMatch, error) {
	req, err := a.newRequest(ctx, http.MethodPost, "/tools/find", map[string]interface{}{
		"Level": "Study",
		"Query": map[string]string{
			"PIXLProjectName": projectTag,
		},
		"RequestedTags": []string{"PIXLProjectName"},
		"Expand":        true,
		"Limit":         n,
	})
	if err != nil {
		return nil, err
	}

	var resources []struct {
		ID            string            `json:"ID"`
		LastUpdate    string            `json:"LastUpdate"`
		RequestedTags map[string]string `json:"RequestedTags"`
	}
	if err := a.doJSON(req, &resources); err != nil {
		return nil, err
	}

	matches := make([]LocalMatch, 0, len(resources))
	for _, r := range resources {
		tag, ok := r.RequestedTags["PIXLProjectName"]
		matches = append(matches, LocalMatch{
			StudyID:       r.ID,
			ProjectTag:    tag,
			HasProjectTag: ok,
			LastUpdate:    r.LastUpdate,
		})
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].LastUpdate > matches[j].LastUpdate
	})
	if len(matches) > n {
		matches = matches[:n]
	}
	return matches, nil
}
