// Package history keeps a local journal of scrobbles that were
// acknowledged as submitted and removed from the pending cache.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/scrobz/scrobz/internal/logging"
	"github.com/scrobz/scrobz/internal/scrobble"
	_ "modernc.org/sqlite"
)

// Store persists the submission journal to SQLite.
type Store struct {
	db *sql.DB
}

// Entry is one journaled submission.
type Entry struct {
	Track       scrobble.Track
	SubmittedAt time.Time
}

// Open creates a journal store at the given path. If dbPath is empty,
// the default location under the state directory is used.
func Open(dbPath string) (*Store, error) {
	if dbPath == "" {
		stateDir, err := logging.StateDir()
		if err != nil {
			return nil, fmt.Errorf("resolve history db path: %w", err)
		}
		dbPath = filepath.Join(stateDir, "history.db")
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}

	store := &Store{db: db}
	if err := store.ensureSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

func (s *Store) ensureSchema(ctx context.Context) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS submissions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			track_json TEXT NOT NULL,
			submitted_at INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_submissions_at ON submissions(submitted_at);`,
	}
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate history schema: %w", err)
		}
	}
	return nil
}

// Record journals tracks as submitted now.
func (s *Store) Record(ctx context.Context, tracks []scrobble.Track) error {
	if len(tracks) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO submissions (track_json, submitted_at) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().Unix()
	for _, t := range tracks {
		trackJSON, err := json.Marshal(t)
		if err != nil {
			return fmt.Errorf("marshal track %q: %w", t.Title, err)
		}
		if _, err := stmt.ExecContext(ctx, string(trackJSON), now); err != nil {
			return fmt.Errorf("insert track %q: %w", t.Title, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// List returns up to limit journal entries, newest first. limit <= 0
// means no limit.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT track_json, submitted_at FROM submissions ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var trackJSON string
		var submittedAt int64
		if err := rows.Scan(&trackJSON, &submittedAt); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}

		var t scrobble.Track
		if err := json.Unmarshal([]byte(trackJSON), &t); err != nil {
			// Skip corrupted entries
			continue
		}
		entries = append(entries, Entry{Track: t, SubmittedAt: time.Unix(submittedAt, 0)})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return entries, nil
}

// Count returns the number of journaled submissions.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM submissions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count history: %w", err)
	}
	return n, nil
}

// Clear removes all journal entries.
func (s *Store) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM submissions`)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
