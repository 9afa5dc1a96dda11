package imagestore

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPAdapter_Retrieve_WaitsForSuccess(t *testing.T) {
	var jobPolls int
	mux := http.NewServeMux()
	mux.HandleFunc("/queries/q1/retrieve", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ID":"job1"}`))
	})
	mux.HandleFunc("/jobs/job1", func(w http.ResponseWriter, r *http.Request) {
		jobPolls++
		if jobPolls < 2 {
			w.Write([]byte(`{"State":"Running"}`))
			return
		}
		w.Write([]byte(`{"State":"Success"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	adapter := NewHTTPAdapter(Config{BaseURL: srv.URL, AET: "PIXL", PollInterval: 10 * time.Millisecond, JobTimeout: time.Second})
	err := adapter.Retrieve(context.Background(), "q1")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, jobPolls, 2)
}

func TestHTTPAdapter_Retrieve_DiscardsOnFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/queries/q1/retrieve", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ID":"job1"}`))
	})
	mux.HandleFunc("/jobs/job1", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"State":"Failure"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	adapter := NewHTTPAdapter(Config{BaseURL: srv.URL, AET: "PIXL", PollInterval: 10 * time.Millisecond, JobTimeout: time.Second})
	err := adapter.Retrieve(context.Background(), "q1")
	require.Error(t, err)
}

func TestHTTPAdapter_PendingJobs(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/jobs", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"State":"Pending"},{"State":"Success"}]`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	adapter := NewHTTPAdapter(Config{BaseURL: srv.URL})
	pending, err := adapter.PendingJobs(context.Background())
	require.NoError(t, err)
	assert.True(t, pending)
}

func TestHTTPAdapter_QueryLocal_NoMatch(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/tools/find", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	adapter := NewHTTPAdapter(Config{BaseURL: srv.URL})
	result, err := adapter.QueryLocal(context.Background(), map[string]string{"MRN": "123"})
	require.NoError(t, err)
	assert.False(t, result.Matched)
}

func TestHTTPAdapter_ListRecentByProject_OrdersByLastUpdateAndTruncates(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/tools/find", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"ID":"s1","LastUpdate":"20240101T000000","RequestedTags":{"PIXLProjectName":"Proj A"}},
			{"ID":"s2","LastUpdate":"20250101T000000","RequestedTags":{"PIXLProjectName":"Proj A"}},
			{"ID":"s3","LastUpdate":"20230101T000000","RequestedTags":{"PIXLProjectName":"Proj A"}}
		]`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	adapter := NewHTTPAdapter(Config{BaseURL: srv.URL})
	matches, err := adapter.ListRecentByProject(context.Background(), "Proj A", 2)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "s2", matches[0].StudyID)
	assert.Equal(t, "s1", matches[1].StudyID)
}
