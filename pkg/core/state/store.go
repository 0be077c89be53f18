// Copyright File2Knowledge Authors
// SPDX-License-Identifier: Apache-2.0

package state

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/zumbarq/file2knowledge/pkg/provider"
)

// Providers is the registry of session store backend implementations.
// Import implementation packages with blank imports to register them:
//
//	import _ "github.com/zumbarq/file2knowledge/pkg/storage/file"
//	import _ "github.com/zumbarq/file2knowledge/pkg/storage/sqlite"
var Providers = provider.NewRegistry[SessionStore]("session_store")

// ChatTurn is one prompt/response exchange. ID is server-assigned and
// empty until the stream's created event arrives. The JSON* fields are
// raw snapshots captured during the turn for inspection and replay.
type ChatTurn struct {
	ID      string `json:"id"`
	Storage bool   `json:"storage"` // persist and chain this turn

	Prompt     string `json:"prompt"`
	Response   string `json:"response"`
	FileSearch string `json:"file_search,omitempty"`
	WebSearch  string `json:"web_search,omitempty"`
	Reasoning  string `json:"reasoning,omitempty"`

	JSONRequest    json.RawMessage `json:"json_request,omitempty"`
	JSONResponse   json.RawMessage `json:"json_response,omitempty"`
	JSONFileSearch json.RawMessage `json:"json_file_search,omitempty"`
	JSONWebSearch  json.RawMessage `json:"json_web_search,omitempty"`
	JSONFuncCall   json.RawMessage `json:"json_func_call,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// ChatSession is an ordered, append-only sequence of turns.
type ChatSession struct {
	ID         string      `json:"id"`
	Title      string      `json:"title"`
	Turns      []*ChatTurn `json:"turns"`
	CreatedAt  time.Time   `json:"created_at"`
	ModifiedAt time.Time   `json:"modified_at"`
}

// AddTurn appends a turn. The first turn stamps CreatedAt and derives a
// default title from the prompt.
func (s *ChatSession) AddTurn(turn *ChatTurn) {
	now := time.Now()
	if len(s.Turns) == 0 {
		if s.CreatedAt.IsZero() {
			s.CreatedAt = now
		}
		if s.Title == "" {
			s.Title = DefaultTitle(turn.Prompt)
		}
	}
	s.Turns = append(s.Turns, turn)
	s.ModifiedAt = now
}

// ResponseIDs returns the non-empty server-assigned ids of all turns.
func (s *ChatSession) ResponseIDs() []string {
	var ids []string
	for _, t := range s.Turns {
		if t.ID != "" {
			ids = append(ids, t.ID)
		}
	}
	return ids
}

// DefaultTitle derives a session title from the first prompt: the first
// line, truncated to 48 runes.
func DefaultTitle(prompt string) string {
	title := strings.TrimSpace(prompt)
	if i := strings.IndexByte(title, '\n'); i >= 0 {
		title = title[:i]
	}
	runes := []rune(title)
	if len(runes) > 48 {
		title = string(runes[:48])
	}
	if title == "" {
		title = "New chat"
	}
	return title
}

// SessionStore persists the full chat history. Implementations must
// reconstruct the exact session/turn graph on Load.
type SessionStore interface {
	SaveSession(ctx context.Context, session *ChatSession) error
	GetSession(ctx context.Context, sessionID string) (*ChatSession, error)
	ListSessions(ctx context.Context) ([]*ChatSession, error)
	DeleteSession(ctx context.Context, sessionID string) error
	Close(ctx context.Context) error
}

// ReferencedResponseIDs collects every response id referenced by the
// given sessions. Used to detect orphans in the durable id log.
func ReferencedResponseIDs(sessions []*ChatSession) []string {
	var ids []string
	for _, s := range sessions {
		ids = append(ids, s.ResponseIDs()...)
	}
	return ids
}
