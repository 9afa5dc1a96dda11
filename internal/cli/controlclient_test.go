package cli

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestControlClient_GetAndSetRate(t *testing.T) {
	var lastBody map[string]int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/imaging/token-bucket-refresh-rate", r.URL.Path)
		if r.Method == http.MethodPost {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&lastBody))
			w.WriteHeader(http.StatusOK)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"rate":5}`))
	}))
	defer srv.Close()

	client := NewControlClient(srv.URL)

	rate, err := client.GetRate(context.Background(), "imaging")
	require.NoError(t, err)
	assert.Equal(t, 5, rate)

	require.NoError(t, client.SetRate(context.Background(), "imaging", 7))
	assert.Equal(t, 7, lastBody["rate"])
}

func TestControlClient_TriggerExport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/export-patient-data", r.URL.Path)
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Proj A", body["project_name"])
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	client := NewControlClient(srv.URL)
	err := client.TriggerExport(context.Background(), "Proj A", time.Now())
	require.NoError(t, err)
}

func TestControlClient_HeartBeat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewControlClient(srv.URL)
	assert.NoError(t, client.HeartBeat(context.Background()))
}

func TestControlClient_HeartBeatFailsOnNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewControlClient(srv.URL)
	assert.Error(t, client.HeartBeat(context.Background()))
}
