package hasher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClient_Hash(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("project_slug") != "proj-a" {
			t.Errorf("missing project_slug param")
		}
		if r.URL.Query().Get("message") != "hello" {
			t.Errorf("missing message param")
		}
		w.Write([]byte("deadbeef"))
	}))
	defer srv.Close()

	c := New(srv.URL)
	got, err := c.Hash(context.Background(), "proj-a", "hello", 0)
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if got != "deadbeef" {
		t.Errorf("Hash() = %q, want deadbeef", got)
	}
}

func TestClient_HashBadRequestErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := New(srv.URL)
	if _, err := c.Hash(context.Background(), "proj-a", "hello", 0); err == nil {
		t.Fatalf("expected error for 400 response")
	}
}
