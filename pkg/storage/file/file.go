// Copyright File2Knowledge Authors
// SPDX-License-Identifier: Apache-2.0

package file

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/zumbarq/file2knowledge/pkg/core/state"
)

func init() {
	state.Providers.Register("file", func(_ context.Context, params map[string]string) (state.SessionStore, error) {
		return New(params["path"])
	})
}

// compile-time check
var _ state.SessionStore = (*Store)(nil)

// historyFile is the on-disk representation: the full session list in
// one pretty-printed JSON document, reloadable to the exact object graph.
type historyFile struct {
	Sessions []*state.ChatSession `json:"sessions"`
}

// Store implements SessionStore backed by a single JSON file. The whole
// history is rewritten on every save; writes are atomic (temp + rename).
type Store struct {
	mu   sync.Mutex
	path string
}

// New creates a file-backed Store, creating the parent directory if it
// does not exist. A missing history file is not an error.
func New(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("file session store: path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	return &Store{path: path}, nil
}

func (s *Store) load() (*historyFile, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return &historyFile{}, nil
		}
		return nil, fmt.Errorf("read history: %w", err)
	}

	var hist historyFile
	if err := json.Unmarshal(data, &hist); err != nil {
		return nil, fmt.Errorf("parse history: %w", err)
	}
	for _, session := range hist.Sessions {
		compactSnapshots(session)
	}
	return &hist, nil
}

// compactSnapshots undoes the pretty-printing MarshalIndent applies to
// raw turn snapshots, so a reloaded turn carries the same compact bytes
// it was saved with.
func compactSnapshots(session *state.ChatSession) {
	for _, turn := range session.Turns {
		for _, raw := range []*json.RawMessage{
			&turn.JSONRequest,
			&turn.JSONResponse,
			&turn.JSONFileSearch,
			&turn.JSONWebSearch,
			&turn.JSONFuncCall,
		} {
			if len(*raw) == 0 {
				continue
			}
			var buf bytes.Buffer
			if err := json.Compact(&buf, *raw); err == nil {
				*raw = buf.Bytes()
			}
		}
	}
}

func (s *Store) write(hist *historyFile) error {
	data, err := json.MarshalIndent(hist, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write history: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("rename history: %w", err)
	}
	return nil
}

// SaveSession inserts or replaces the session and rewrites the file.
func (s *Store) SaveSession(_ context.Context, session *state.ChatSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	hist, err := s.load()
	if err != nil {
		return err
	}

	replaced := false
	for i, existing := range hist.Sessions {
		if existing.ID == session.ID {
			hist.Sessions[i] = session
			replaced = true
			break
		}
	}
	if !replaced {
		hist.Sessions = append(hist.Sessions, session)
	}

	return s.write(hist)
}

// GetSession retrieves a session by ID.
func (s *Store) GetSession(_ context.Context, sessionID string) (*state.ChatSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	hist, err := s.load()
	if err != nil {
		return nil, err
	}
	for _, session := range hist.Sessions {
		if session.ID == sessionID {
			return session, nil
		}
	}
	return nil, fmt.Errorf("session %s not found", sessionID)
}

// ListSessions returns all sessions ordered by creation time.
func (s *Store) ListSessions(_ context.Context) ([]*state.ChatSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	hist, err := s.load()
	if err != nil {
		return nil, err
	}
	sort.Slice(hist.Sessions, func(i, j int) bool {
		return hist.Sessions[i].CreatedAt.Before(hist.Sessions[j].CreatedAt)
	})
	return hist.Sessions, nil
}

// DeleteSession removes the session and rewrites the file.
func (s *Store) DeleteSession(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	hist, err := s.load()
	if err != nil {
		return err
	}

	kept := hist.Sessions[:0]
	for _, session := range hist.Sessions {
		if session.ID != sessionID {
			kept = append(kept, session)
		}
	}
	hist.Sessions = kept

	return s.write(hist)
}

// Close is a no-op; every save already hits disk.
func (s *Store) Close(_ context.Context) error {
	return nil
}
