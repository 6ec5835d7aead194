package override

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatch_ReloadsOnExternalEdit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "overrides.json")

	repo, err := NewFileRepository(path)
	if err != nil {
		t.Fatal(err)
	}
	store, err := NewStore(repo)
	if err != nil {
		t.Fatal(err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan struct{}, 4)
	done := make(chan struct{})
	go func() {
		_ = Watch(ctx, store, path, logger, func() { reloaded <- struct{}{} })
		close(done)
	}()

	// Give the watcher time to register.
	time.Sleep(100 * time.Millisecond)

	// Simulate a curator editing the file out-of-band.
	entries := []Entry{{
		ID:           "ext-1",
		CountryCode:  "DEU",
		Kind:         KindLegislation,
		OriginalURL:  "https://old.example/de",
		CustomURL:    "https://new.example/de",
		Title:        "UStG",
		DateProvided: time.Now().UTC(),
		LastUpdated:  time.Now().UTC(),
		Active:       true,
	}}
	data, _ := json.Marshal(entries)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-reloaded:
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for reload")
	}

	if got, ok := store.Resolve("DEU", "https://old.example/de", KindLegislation); !ok || got != "https://new.example/de" {
		t.Errorf("external edit not visible: %q %v", got, ok)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop on cancel")
	}
}
