// Package storage provides SQLite persistence for completed research runs.
//
// Information Hiding:
// - SQLite connection management hidden behind the store type
// - Schema and migration details encapsulated
// - Thread-safe via sql.DB's built-in connection pooling

package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/quarrylabs/quarry/model"
	"github.com/quarrylabs/quarry/research"
)

// SessionStore persists research reports to SQLite.
type SessionStore struct {
	db *sql.DB
}

// Open opens or creates a SQLite database at the given path.
// Creates parent directories if they don't exist.
func Open(path string) (*SessionStore, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	store := &SessionStore{db: db}
	if err := store.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// NewInMemory creates an in-memory store (useful for testing).
func NewInMemory() (*SessionStore, error) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory SQLite: %w", err)
	}

	store := &SessionStore{db: db}
	if err := store.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *SessionStore) Close() error {
	return s.db.Close()
}

func (s *SessionStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS research_sessions (
			session_id TEXT PRIMARY KEY,
			query TEXT NOT NULL,
			file_hint TEXT,
			stop_reason TEXT NOT NULL,
			elapsed_ms INTEGER NOT NULL,
			bundle_json TEXT,
			error_message TEXT,
			created_at TEXT NOT NULL DEFAULT (datetime('now'))
		);

		CREATE TABLE IF NOT EXISTS research_iterations (
			session_id TEXT NOT NULL,
			iteration_index INTEGER NOT NULL,
			keywords TEXT NOT NULL,
			result_count INTEGER NOT NULL,
			confidence TEXT NOT NULL,
			PRIMARY KEY (session_id, iteration_index),
			FOREIGN KEY (session_id) REFERENCES research_sessions(session_id) ON DELETE CASCADE
		);

		CREATE INDEX IF NOT EXISTS idx_research_sessions_created
		ON research_sessions(created_at DESC);
	`

	_, err := s.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// SaveReport persists a completed research run with its iteration stats.
func (s *SessionStore) SaveReport(ctx context.Context, report research.Report) error {
	var bundleJSON interface{}
	if report.Bundle != nil {
		data, err := json.Marshal(report.Bundle)
		if err != nil {
			return fmt.Errorf("failed to encode bundle: %w", err)
		}
		bundleJSON = string(data)
	}
	var errorMessage interface{}
	if report.Error != nil {
		errorMessage = report.Error.ErrorMessage
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	// safe even after Commit() - it becomes a no-op
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO research_sessions
		(session_id, query, file_hint, stop_reason, elapsed_ms, bundle_json, error_message)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		report.SessionID,
		report.Query,
		report.FileHint,
		report.StopReason.String(),
		report.Elapsed.Milliseconds(),
		bundleJSON,
		errorMessage,
	)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO research_iterations
		(session_id, iteration_index, keywords, result_count, confidence)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare iteration insert: %w", err)
	}
	defer stmt.Close()

	for _, it := range report.Iterations {
		keywords, err := json.Marshal(it.Keywords)
		if err != nil {
			return fmt.Errorf("failed to encode keywords: %w", err)
		}
		_, err = stmt.ExecContext(ctx,
			report.SessionID, it.Index, string(keywords), it.ResultCount, string(it.Confidence))
		if err != nil {
			return fmt.Errorf("failed to insert iteration: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// SessionSummary is one row of the session listing.
type SessionSummary struct {
	SessionID  string
	Query      string
	FileHint   string
	StopReason string
	ElapsedMS  int64
	Iterations int
	Failed     bool
	CreatedAt  string
}

// ListSessions lists stored sessions, newest first. A limit of 0 lists all.
func (s *SessionStore) ListSessions(ctx context.Context, limit int) ([]SessionSummary, error) {
	query := `
		SELECT s.session_id, s.query, COALESCE(s.file_hint, ''), s.stop_reason,
		       s.elapsed_ms, s.error_message IS NOT NULL, s.created_at,
		       COUNT(i.session_id)
		FROM research_sessions s
		LEFT JOIN research_iterations i ON i.session_id = s.session_id
		GROUP BY s.session_id
		ORDER BY s.created_at DESC`
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []SessionSummary{} // Start with empty slice, not nil
	for rows.Next() {
		var sum SessionSummary
		if err := rows.Scan(&sum.SessionID, &sum.Query, &sum.FileHint, &sum.StopReason,
			&sum.ElapsedMS, &sum.Failed, &sum.CreatedAt, &sum.Iterations); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, sum)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sessions: %w", err)
	}
	return sessions, nil
}

// LoadBundle loads the stored context bundle for a session.
// Returns sql.ErrNoRows when the session does not exist and nil when the
// session failed without producing a bundle.
func (s *SessionStore) LoadBundle(ctx context.Context, sessionID string) (*model.ContextBundle, error) {
	var bundleJSON sql.NullString
	err := s.db.QueryRowContext(ctx,
		"SELECT bundle_json FROM research_sessions WHERE session_id = ?",
		sessionID).Scan(&bundleJSON)
	if err != nil {
		return nil, fmt.Errorf("failed to load session %s: %w", sessionID, err)
	}
	if !bundleJSON.Valid {
		return nil, nil
	}

	var bundle model.ContextBundle
	if err := json.Unmarshal([]byte(bundleJSON.String), &bundle); err != nil {
		return nil, fmt.Errorf("failed to decode bundle: %w", err)
	}
	return &bundle, nil
}

// Delete removes a session and its iterations.
func (s *SessionStore) Delete(ctx context.Context, sessionID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM research_iterations WHERE session_id = ?", sessionID); err != nil {
		return fmt.Errorf("failed to delete iterations: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM research_sessions WHERE session_id = ?", sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return tx.Commit()
}

// Exists checks whether a session is stored.
func (s *SessionStore) Exists(ctx context.Context, sessionID string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM research_sessions WHERE session_id = ?",
		sessionID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check session existence: %w", err)
	}
	return count > 0, nil
}
