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

func TestDicomWebUploader_PostsMultipartArchive(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, r.ParseMultipartForm(1<<20))
		_, _, err := r.FormFile("file")
		require.NoError(t, err)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	u := NewDicomWebUploader(srv.URL, Credentials{APIToken: "token"})
	err := u.Upload(context.Background(), "proj-a", "2.25.1", strings.NewReader("zip-bytes"), 9)
	require.NoError(t, err)
	assert.Equal(t, "/projects/proj-a/studies", gotPath)
}

func TestDicomWebUploader_NonRetryableStatusFailsImmediately(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	u := NewDicomWebUploader(srv.URL, Credentials{})
	err := u.Upload(context.Background(), "proj-a", "2.25.1", strings.NewReader("zip-bytes"), 9)
	require.Error(t, err)
}
