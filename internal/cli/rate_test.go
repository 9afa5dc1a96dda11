package cli

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartQueue_RejectsZeroRate(t *testing.T) {
	client := NewControlClient("http://unused.invalid")
	err := StartQueue(context.Background(), client, "imaging", 0)
	assert.Error(t, err)
}

func TestStartQueue_DelegatesNonZeroRate(t *testing.T) {
	var gotRate int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct{ Rate int }
		_ = json.NewDecoder(r.Body).Decode(&body)
		gotRate = body.Rate
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewControlClient(srv.URL)
	require.NoError(t, StartQueue(context.Background(), client, "imaging", 5))
	assert.Equal(t, 5, gotRate)
}

func TestUpdateRate_AllowsZero(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewControlClient(srv.URL)
	assert.NoError(t, UpdateRate(context.Background(), client, "imaging", 0))
}
