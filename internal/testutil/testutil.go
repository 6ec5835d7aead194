// Package testutil provides shared test helpers for setting up datasets and override stores.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/starford/raido/internal/compliance"
	"github.com/starford/raido/internal/override"
)

// FileStore creates an override store backed by a temporary JSON file that
// is automatically cleaned up.
func FileStore(t *testing.T) *override.Store {
	t.Helper()
	repo, err := override.NewFileRepository(filepath.Join(t.TempDir(), "overrides.json"))
	if err != nil {
		t.Fatal(err)
	}
	store, err := override.NewStore(repo)
	if err != nil {
		t.Fatal(err)
	}
	return store
}

// Dataset writes the given records into a temporary dataset directory and
// returns a provider over it.
func Dataset(t *testing.T, records ...compliance.Record) *compliance.DirProvider {
	t.Helper()
	dir := t.TempDir()
	for _, rec := range records {
		data, err := json.Marshal(rec)
		if err != nil {
			t.Fatal(err)
		}
		name := strings.ToLower(rec.ID) + ".json"
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	provider, err := compliance.NewDirProvider(dir)
	if err != nil {
		t.Fatal(err)
	}
	return provider
}

// LinkServer starts an HTTP server that answers 404 on /dead and 200
// everywhere else, for probing reference links in tests.
func LinkServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/dead" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)
	return srv
}
