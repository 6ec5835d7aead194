package override

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"

	"github.com/starford/raido/internal/apperr"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS overrides (
	id            TEXT PRIMARY KEY,
	country_code  TEXT NOT NULL,
	kind          TEXT NOT NULL,
	original_url  TEXT NOT NULL,
	custom_url    TEXT NOT NULL,
	title         TEXT NOT NULL DEFAULT '',
	notes         TEXT NOT NULL DEFAULT '',
	date_provided DATETIME NOT NULL,
	last_updated  DATETIME NOT NULL,
	active        INTEGER NOT NULL DEFAULT 1
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_overrides_active_tuple
	ON overrides(country_code, original_url, kind) WHERE active = 1;
`

// SQLiteRepository is the relational backend for the override collection.
// The partial unique index enforces the one-active-entry-per-tuple invariant
// at the storage layer as well.
type SQLiteRepository struct {
	conn *sql.DB
}

// OpenSQLite opens (or creates) the overrides database and applies the schema.
func OpenSQLite(dsn string) (*SQLiteRepository, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("override: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("override: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("override: apply schema: %w", err)
	}
	return &SQLiteRepository{conn: conn}, nil
}

// Close closes the underlying database connection.
func (r *SQLiteRepository) Close() error {
	return r.conn.Close()
}

// Load reads the full collection.
func (r *SQLiteRepository) Load() ([]Entry, error) {
	rows, err := r.conn.Query(`
		SELECT id, country_code, kind, original_url, custom_url, title, notes,
		       date_provided, last_updated, active
		FROM overrides
		ORDER BY date_provided
	`)
	if err != nil {
		return nil, fmt.Errorf("override: load: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		var active int
		if err := rows.Scan(&e.ID, &e.CountryCode, &e.Kind, &e.OriginalURL, &e.CustomURL,
			&e.Title, &e.Notes, &e.DateProvided, &e.LastUpdated, &active); err != nil {
			return nil, fmt.Errorf("override: scan: %w", err)
		}
		e.Active = active == 1
		e.DateProvided = e.DateProvided.UTC()
		e.LastUpdated = e.LastUpdated.UTC()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Save replaces the stored collection within one transaction.
func (r *SQLiteRepository) Save(entries []Entry) error {
	tx, err := r.conn.Begin()
	if err != nil {
		return fmt.Errorf("override: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if _, err := tx.Exec(`DELETE FROM overrides`); err != nil {
		return fmt.Errorf("override: clear: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO overrides (id, country_code, kind, original_url, custom_url,
		                       title, notes, date_provided, last_updated, active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("override: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		active := 0
		if e.Active {
			active = 1
		}
		if _, err := stmt.Exec(e.ID, e.CountryCode, e.Kind, e.OriginalURL, e.CustomURL,
			e.Title, e.Notes, e.DateProvided.UTC(), e.LastUpdated.UTC(), active); err != nil {
			var sqlErr sqlite3.Error
			if errors.As(err, &sqlErr) && sqlErr.Code == sqlite3.ErrConstraint {
				return fmt.Errorf("override: insert %s: %w", e.ID, apperr.ErrConflict)
			}
			return fmt.Errorf("override: insert %s: %w", e.ID, err)
		}
	}

	return tx.Commit()
}
