// Package notes provides SQLite-backed note storage for askd.
package notes

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// Schema for the note store.
const schema = `
CREATE TABLE IF NOT EXISTS notes (
    id               TEXT PRIMARY KEY,
    title            TEXT NOT NULL,
    content          TEXT NOT NULL,
    related_question TEXT,
    created_ns       INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_notes_created ON notes(created_ns);
`

// Note is a saved note.
type Note struct {
	ID              string
	Title           string
	Content         string
	RelatedQuestion string
	CreatedAt       time.Time
}

// Store is the SQLite note store. Safe for concurrent use.
type Store struct {
	db *sql.DB
}

// Open opens or creates the note database at the given path.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Add inserts a note. relatedQuestion is the user question that
// produced the note and may be empty.
func (s *Store) Add(ctx context.Context, title, content, relatedQuestion string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notes (id, title, content, related_question, created_ns)
		VALUES (?, ?, ?, ?, ?)`,
		uuid.NewString(), title, content, relatedQuestion, time.Now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("insert note: %w", err)
	}
	return nil
}

// Recent returns the most recent notes, newest first. limit <= 0 means
// no limit.
func (s *Store) Recent(ctx context.Context, limit int) ([]Note, error) {
	q := `SELECT id, title, content, related_question, created_ns
		FROM notes ORDER BY created_ns DESC`
	args := []any{}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query notes: %w", err)
	}
	defer rows.Close()

	var out []Note
	for rows.Next() {
		var n Note
		var related sql.NullString
		var createdNs int64
		if err := rows.Scan(&n.ID, &n.Title, &n.Content, &related, &createdNs); err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		n.RelatedQuestion = related.String
		n.CreatedAt = time.Unix(0, createdNs)
		out = append(out, n)
	}
	return out, rows.Err()
}

// Count returns the total number of notes.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM notes`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count notes: %w", err)
	}
	return n, nil
}
