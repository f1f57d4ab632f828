package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/verte-zerg/koch/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// SQLite stores one row per practice result.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens or creates the SQLite database and applies migrations.
func OpenSQLite(path string) (*SQLite, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create statistics directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	store := &SQLite{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, fmt.Errorf("failed to migrate sqlite: %w", err)
	}
	return store, nil
}

// Close closes the underlying database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS results (
			id TEXT PRIMARY KEY,
			lesson INTEGER NOT NULL,
			text_index INTEGER NOT NULL,
			started_at TEXT NOT NULL,
			ended_at TEXT NOT NULL,
			expected TEXT NOT NULL,
			typed TEXT NOT NULL,
			accuracy REAL NOT NULL,
			duration_ms INTEGER NOT NULL,
			correct INTEGER NOT NULL,
			incorrect INTEGER NOT NULL,
			missing INTEGER NOT NULL,
			extra INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_results_lesson ON results(lesson);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Append inserts the batch in one transaction.
func (s *SQLite) Append(ctx context.Context, results []model.PracticeResult) (err error) {
	if len(results) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO results (id, lesson, text_index, started_at, ended_at, expected, typed, accuracy, duration_ms, correct, incorrect, missing, extra)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := stmt.Close(); cerr != nil {
			// Best-effort statement close.
			_ = cerr
		}
	}()
	for _, r := range results {
		if _, err = stmt.ExecContext(ctx,
			r.ID,
			r.Lesson,
			r.Text,
			r.StartedAt.Format(time.RFC3339Nano),
			r.EndedAt.Format(time.RFC3339Nano),
			r.Expected,
			r.Typed,
			r.Accuracy,
			r.DurationMs,
			r.Correct,
			r.Incorrect,
			r.Missing,
			r.Extra,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Load returns every stored result in insertion order. Rows that cannot be
// decoded are skipped and reported together with ErrMalformed.
func (s *SQLite) Load(ctx context.Context) ([]model.PracticeResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, lesson, text_index, started_at, ended_at, expected, typed, accuracy, duration_ms, correct, incorrect, missing, extra
		FROM results
		ORDER BY rowid ASC`)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var results []model.PracticeResult
	var bad []string
	for n := 1; rows.Next(); n++ {
		var r model.PracticeResult
		var startedAt, endedAt string
		if err := rows.Scan(&r.ID, &r.Lesson, &r.Text, &startedAt, &endedAt, &r.Expected, &r.Typed,
			&r.Accuracy, &r.DurationMs, &r.Correct, &r.Incorrect, &r.Missing, &r.Extra); err != nil {
			bad = append(bad, fmt.Sprintf("row %d", n))
			continue
		}
		var perr error
		if r.StartedAt, perr = time.Parse(time.RFC3339Nano, startedAt); perr != nil {
			bad = append(bad, r.ID)
			continue
		}
		if r.EndedAt, perr = time.Parse(time.RFC3339Nano, endedAt); perr != nil {
			bad = append(bad, r.ID)
			continue
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(bad) > 0 {
		return results, fmt.Errorf("%w: skipped %d result(s): %s", ErrMalformed, len(bad), strings.Join(bad, ", "))
	}
	return results, nil
}
