// Copyright File2Knowledge Authors
// SPDX-License-Identifier: Apache-2.0

package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/zumbarq/file2knowledge/pkg/core/state"

	_ "modernc.org/sqlite"
)

func init() {
	state.Providers.Register("sqlite", func(_ context.Context, params map[string]string) (state.SessionStore, error) {
		return New(params["dsn"])
	})
}

// compile-time check
var _ state.SessionStore = (*Store)(nil)

// Store is a SQLite-backed implementation of SessionStore. Turns are
// stored as a JSON column; the session row carries the queryable fields.
type Store struct {
	db *sql.DB
}

// New creates a SQLite store. The dsn is a file path or ":memory:".
func New(dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("sqlite session store: dsn is required")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite ping: %w", err)
	}

	s := &Store{db: db}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) createTables() error {
	stmt := `CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL DEFAULT '',
		turns TEXT NOT NULL DEFAULT '[]',
		created_at TIMESTAMP NOT NULL,
		modified_at TIMESTAMP NOT NULL
	)`
	if _, err := s.db.Exec(stmt); err != nil {
		return fmt.Errorf("sqlite create tables: %w", err)
	}
	return nil
}

// SaveSession inserts or replaces the session row.
func (s *Store) SaveSession(ctx context.Context, session *state.ChatSession) error {
	turns, err := json.Marshal(session.Turns)
	if err != nil {
		return fmt.Errorf("marshal turns: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, title, turns, created_at, modified_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			title = excluded.title,
			turns = excluded.turns,
			modified_at = excluded.modified_at`,
		session.ID, session.Title, string(turns), session.CreatedAt, session.ModifiedAt)
	if err != nil {
		return fmt.Errorf("sqlite save session: %w", err)
	}
	return nil
}

func scanSession(row interface {
	Scan(dest ...interface{}) error
}) (*state.ChatSession, error) {
	var session state.ChatSession
	var turns string
	if err := row.Scan(&session.ID, &session.Title, &turns, &session.CreatedAt, &session.ModifiedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(turns), &session.Turns); err != nil {
		return nil, fmt.Errorf("unmarshal turns: %w", err)
	}
	return &session, nil
}

// GetSession retrieves a session by ID.
func (s *Store) GetSession(ctx context.Context, sessionID string) (*state.ChatSession, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, turns, created_at, modified_at
		FROM sessions WHERE id = ?`, sessionID)

	session, err := scanSession(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("session %s not found", sessionID)
		}
		return nil, fmt.Errorf("sqlite get session: %w", err)
	}
	return session, nil
}

// ListSessions returns all sessions ordered by creation time.
func (s *Store) ListSessions(ctx context.Context) ([]*state.ChatSession, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, turns, created_at, modified_at
		FROM sessions ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("sqlite list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*state.ChatSession
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite list sessions: %w", err)
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

// DeleteSession removes the session row.
func (s *Store) DeleteSession(ctx context.Context, sessionID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, sessionID); err != nil {
		return fmt.Errorf("sqlite delete session: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *Store) Close(_ context.Context) error {
	return s.db.Close()
}
