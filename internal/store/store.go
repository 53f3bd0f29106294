// Package store is the local database: imported translations, their verses,
// user collections and notes, kept in a single SQLite file.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"verse-rotator/internal/bible"
)

// ErrNotFound is returned for a missing collection or note.
var ErrNotFound = errors.New("not found")

const schema = `
CREATE TABLE IF NOT EXISTS translations (
	id   TEXT PRIMARY KEY,
	name TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS verses (
	translation_id TEXT    NOT NULL REFERENCES translations(id) ON DELETE CASCADE,
	book           TEXT    NOT NULL,
	chapter        INTEGER NOT NULL,
	verse          INTEGER NOT NULL,
	text           TEXT    NOT NULL,
	ordinal        INTEGER NOT NULL,
	PRIMARY KEY (translation_id, book, chapter, verse)
);
CREATE INDEX IF NOT EXISTS idx_verses_order ON verses(translation_id, ordinal);
CREATE TABLE IF NOT EXISTS collections (
	name    TEXT PRIMARY KEY,
	entries TEXT NOT NULL DEFAULT '[]'
);
CREATE TABLE IF NOT EXISTS notes (
	name          TEXT PRIMARY KEY,
	content       TEXT    NOT NULL DEFAULT '',
	last_modified INTEGER NOT NULL
);
`

// Store is the SQLite-backed database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and applies the
// schema. ":memory:" gives a private in-memory database.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection keeps ":memory:" databases shared and serializes writes.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA foreign_keys = ON", "PRAGMA busy_timeout = 5000"} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set %q: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Translations lists imported translations, unsorted.
func (s *Store) Translations(ctx context.Context) ([]bible.Translation, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM translations`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []bible.Translation
	for rows.Next() {
		var t bible.Translation
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// SaveTranslation replaces a translation and all of its verses.
func (s *Store) SaveTranslation(ctx context.Context, t bible.Translation, verses []bible.VerseRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM verses WHERE translation_id = ?`, t.ID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO translations (id, name) VALUES (?, ?) ON CONFLICT(id) DO UPDATE SET name = excluded.name`,
		t.ID, t.Name); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO verses (translation_id, book, chapter, verse, text, ordinal) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i, v := range verses {
		if _, err := stmt.ExecContext(ctx, t.ID, v.Book, v.Chapter, v.Verse, v.Text, i); err != nil {
			return fmt.Errorf("failed to insert %s: %w", v.ID(), err)
		}
	}
	return tx.Commit()
}

// DeleteTranslation removes a translation and its verses.
func (s *Store) DeleteTranslation(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM translations WHERE id = ?`, id)
	return err
}

// VersesByTranslation returns every verse of a translation in import order.
// An unknown id yields an empty list.
func (s *Store) VersesByTranslation(ctx context.Context, id string) ([]bible.VerseRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT book, chapter, verse, text FROM verses WHERE translation_id = ? ORDER BY ordinal`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []bible.VerseRecord
	for rows.Next() {
		var v bible.VerseRecord
		if err := rows.Scan(&v.Book, &v.Chapter, &v.Verse, &v.Text); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// Collections returns every collection with normalized entries.
func (s *Store) Collections(ctx context.Context) ([]bible.Collection, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, entries FROM collections ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []bible.Collection
	for rows.Next() {
		var (
			c   bible.Collection
			raw string
		)
		if err := rows.Scan(&c.Name, &raw); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(raw), &c.Entries); err != nil {
			return nil, fmt.Errorf("collection %q: %w", c.Name, err)
		}
		out = append(out, c.Normalized())
	}
	return out, rows.Err()
}

// SaveCollection inserts or replaces a collection.
func (s *Store) SaveCollection(ctx context.Context, c bible.Collection) error {
	if c.Name == "" {
		return errors.New("collection name is required")
	}
	c = c.Normalized()
	data, err := json.Marshal(c.Entries)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO collections (name, entries) VALUES (?, ?) ON CONFLICT(name) DO UPDATE SET entries = excluded.entries`,
		c.Name, string(data))
	return err
}

// DeleteCollection removes a collection.
func (s *Store) DeleteCollection(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM collections WHERE name = ?`, name)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("collection %q: %w", name, ErrNotFound)
	}
	return nil
}

// Notes returns every note.
func (s *Store) Notes(ctx context.Context) ([]bible.Note, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, content, last_modified FROM notes`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []bible.Note
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// Note returns the named note or ErrNotFound.
func (s *Store) Note(ctx context.Context, name string) (bible.Note, error) {
	row := s.db.QueryRowContext(ctx, `SELECT name, content, last_modified FROM notes WHERE name = ?`, name)
	n, err := scanNote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return bible.Note{}, fmt.Errorf("note %q: %w", name, ErrNotFound)
	}
	return n, err
}

// SaveNote inserts or replaces a note.
func (s *Store) SaveNote(ctx context.Context, n bible.Note) error {
	if n.Name == "" {
		return errors.New("note name is required")
	}
	if n.LastModified.IsZero() {
		n.LastModified = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO notes (name, content, last_modified) VALUES (?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET content = excluded.content, last_modified = excluded.last_modified`,
		n.Name, n.Content, n.LastModified.UnixMilli())
	return err
}

// DeleteNote removes the named note.
func (s *Store) DeleteNote(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM notes WHERE name = ?`, name)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("note %q: %w", name, ErrNotFound)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanNote(sc scanner) (bible.Note, error) {
	var (
		n  bible.Note
		ms int64
	)
	if err := sc.Scan(&n.Name, &n.Content, &ms); err != nil {
		return bible.Note{}, err
	}
	n.LastModified = time.UnixMilli(ms)
	return n, nil
}
