package uploader

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestXNATUploader_PutsArchiveToImportEndpoint(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		assert.Equal(t, http.MethodPut, r.Method)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	u := NewXNATUploader(srv.URL, Credentials{Username: "u", Password: "p"})
	err := u.Upload(context.Background(), "proj-a", "2.25.1", strings.NewReader("zip-bytes"), 9)
	require.NoError(t, err)
	assert.Contains(t, gotQuery, "PROJECT_ID=proj-a")
}

func TestXNATUploader_ServerErrorIsRetried(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	u := NewXNATUploader(srv.URL, Credentials{})
	err := u.Upload(context.Background(), "proj-a", "2.25.1", strings.NewReader("zip-bytes"), 9)
	require.Error(t, err)
	assert.Greater(t, attempts, 1)
}
