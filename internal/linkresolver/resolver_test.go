package linkresolver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/starford/raido/internal/compliance"
	"github.com/starford/raido/internal/linkhealth"
	"github.com/starford/raido/internal/override"
)

func testResolver(t *testing.T) (*Resolver, *override.Store, *linkhealth.Cache) {
	t.Helper()
	repo, err := override.NewFileRepository(filepath.Join(t.TempDir(), "overrides.json"))
	if err != nil {
		t.Fatal(err)
	}
	store, err := override.NewStore(repo)
	if err != nil {
		t.Fatal(err)
	}
	cache := linkhealth.NewCache(linkhealth.NewChecker(2*time.Second, ""), 4)
	return New(store, cache), store, cache
}

func TestResolve_NoOverrideNoStatus(t *testing.T) {
	r, _, _ := testResolver(t)
	ref := compliance.Reference{Kind: override.KindLegislation, Title: "Act", URL: "https://law.example/act"}

	got := r.Resolve("ESP", ref, time.Time{})
	if got.EffectiveURL != ref.URL || got.Overridden {
		t.Errorf("plain reference mangled: %+v", got)
	}
	if got.Classification != "" || got.CheckedAt != nil {
		t.Errorf("unchecked link must carry no classification: %+v", got)
	}
}

func TestResolve_OverrideWinsWithoutSignal(t *testing.T) {
	r, store, _ := testResolver(t)
	_, err := store.CreateOrUpdate(override.CreateRequest{
		CountryCode: "ESP",
		Kind:        override.KindLegislation,
		OriginalURL: "https://old.example/act",
		CustomURL:   "https://new.example/act",
		Title:       "Act (new portal)",
	})
	if err != nil {
		t.Fatal(err)
	}

	ref := compliance.Reference{Kind: override.KindLegislation, URL: "https://old.example/act"}
	got := r.Resolve("ESP", ref, time.Time{})
	if !got.Overridden || got.EffectiveURL != "https://new.example/act" {
		t.Errorf("override not applied: %+v", got)
	}
	if got.OriginalURL != "https://old.example/act" {
		t.Errorf("original URL lost: %+v", got)
	}
}

func TestResolve_StaleOverrideFallsBack(t *testing.T) {
	r, store, _ := testResolver(t)
	entry, err := store.CreateOrUpdate(override.CreateRequest{
		CountryCode: "ESP",
		Kind:        override.KindLegislation,
		OriginalURL: "https://old.example/act",
		CustomURL:   "https://new.example/act",
		Title:       "Act",
	})
	if err != nil {
		t.Fatal(err)
	}

	ref := compliance.Reference{Kind: override.KindLegislation, URL: "https://old.example/act"}

	// Source changed after the curation date: show the original again.
	got := r.Resolve("ESP", ref, entry.DateProvided.Add(time.Hour))
	if got.Overridden || got.EffectiveURL != ref.URL {
		t.Errorf("stale override still applied: %+v", got)
	}

	// Source older than the curation date: override stands.
	got = r.Resolve("ESP", ref, entry.DateProvided.Add(-time.Hour))
	if !got.Overridden {
		t.Errorf("fresh override rejected: %+v", got)
	}
}

func TestResolve_ClassificationForEffectiveURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	r, store, cache := testResolver(t)
	_, err := store.CreateOrUpdate(override.CreateRequest{
		CountryCode: "ESP",
		Kind:        override.KindFormatSpec,
		OriginalURL: "https://dead.example/spec",
		CustomURL:   srv.URL + "/spec",
		Title:       "Spec mirror",
	})
	if err != nil {
		t.Fatal(err)
	}
	cache.CheckOne(context.Background(), srv.URL+"/spec")

	ref := compliance.Reference{Kind: override.KindFormatSpec, URL: "https://dead.example/spec"}
	got := r.Resolve("ESP", ref, time.Time{})
	if got.Classification != string(linkhealth.ClassOK) {
		t.Errorf("classification = %q, want ok for effective URL", got.Classification)
	}
	if got.CheckedAt == nil {
		t.Error("CheckedAt missing")
	}
}

func TestResolveRecord(t *testing.T) {
	r, _, _ := testResolver(t)
	rec := &compliance.Record{
		ID: "ESP",
		References: []compliance.Reference{
			{Kind: override.KindLegislation, URL: "https://a.example"},
			{Kind: override.KindNews, URL: "https://b.example"},
		},
	}
	out := r.ResolveRecord(rec)
	if len(out) != 2 {
		t.Fatalf("resolved %d references, want 2", len(out))
	}
}
