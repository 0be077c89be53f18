// Copyright File2Knowledge Authors
// SPDX-License-Identifier: Apache-2.0

package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/zumbarq/file2knowledge/pkg/core/state"
)

func init() {
	state.Providers.Register("memory", func(_ context.Context, _ map[string]string) (state.SessionStore, error) {
		return New(), nil
	})
}

// compile-time check
var _ state.SessionStore = (*Store)(nil)

// Store is an in-memory implementation of SessionStore. Sessions are
// deep-copied on the way in and out so callers can keep mutating their
// own instances.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*state.ChatSession
}

// New creates a new in-memory store
func New() *Store {
	return &Store{
		sessions: make(map[string]*state.ChatSession),
	}
}

func cloneSession(s *state.ChatSession) (*state.ChatSession, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("clone session: %w", err)
	}
	var out state.ChatSession
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("clone session: %w", err)
	}
	return &out, nil
}

// SaveSession stores a snapshot of the session.
func (s *Store) SaveSession(_ context.Context, session *state.ChatSession) error {
	copied, err := cloneSession(session)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = copied
	return nil
}

// GetSession retrieves a session by ID
func (s *Store) GetSession(_ context.Context, sessionID string) (*state.ChatSession, error) {
	s.mu.RLock()
	session, exists := s.sessions[sessionID]
	s.mu.RUnlock()
	if !exists {
		return nil, fmt.Errorf("session %s not found", sessionID)
	}
	return cloneSession(session)
}

// ListSessions returns all sessions ordered by creation time.
func (s *Store) ListSessions(_ context.Context) ([]*state.ChatSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := make([]*state.ChatSession, 0, len(s.sessions))
	for _, session := range s.sessions {
		copied, err := cloneSession(session)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, copied)
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.Before(sessions[j].CreatedAt)
	})
	return sessions, nil
}

// DeleteSession deletes a session
func (s *Store) DeleteSession(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, sessionID)
	return nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close(_ context.Context) error {
	return nil
}
