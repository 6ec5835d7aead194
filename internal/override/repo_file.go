package override

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// FileRepository persists the override collection as a single JSON document.
// Writes go through a temp file, fsync, and rename so a crash never leaves a
// half-written collection behind.
type FileRepository struct {
	path string
}

// NewFileRepository creates a repository at path. The file does not need to
// exist yet; the parent directory does.
func NewFileRepository(path string) (*FileRepository, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("override: resolve path: %w", err)
	}
	if info, err := os.Stat(filepath.Dir(abs)); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("override: parent directory missing: %s", filepath.Dir(abs))
	}
	return &FileRepository{path: abs}, nil
}

// Path returns the absolute path of the backing file.
func (r *FileRepository) Path() string { return r.path }

// Load reads the full collection. A missing file is an empty collection.
func (r *FileRepository) Load() ([]Entry, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []Entry{}, nil
		}
		return nil, fmt.Errorf("override: read %s: %w", r.path, err)
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("override: parse %s: %w", r.path, err)
	}
	return entries, nil
}

// Save atomically replaces the collection on disk.
func (r *FileRepository) Save(entries []Entry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("override: marshal: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(r.path)
	tmp, err := os.CreateTemp(dir, ".raido-overrides-*")
	if err != nil {
		return fmt.Errorf("override: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("override: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("override: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("override: close temp: %w", err)
	}
	if err := os.Rename(tmpName, r.path); err != nil {
		return fmt.Errorf("override: rename: %w", err)
	}
	success = true
	return nil
}
