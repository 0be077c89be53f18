// Copyright File2Knowledge Authors
// SPDX-License-Identifier: Apache-2.0

package file

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/zumbarq/file2knowledge/pkg/core/state"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "nested", "sessions.json"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func sampleSession(id string) *state.ChatSession {
	return &state.ChatSession{
		ID:    id,
		Title: "sample",
		Turns: []*state.ChatTurn{{
			ID:          "resp_1",
			Prompt:      "what is this",
			Response:    "an answer",
			JSONRequest: json.RawMessage(`{"model":"gpt-4o","tools":[{"type":"file_search"}]}`),
			CreatedAt:   time.Now().UTC(),
		}},
		CreatedAt: time.Now().UTC(),
	}
}

func TestSaveAndGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	saved := sampleSession("sess_1")
	if err := s.SaveSession(ctx, saved); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := s.GetSession(ctx, "sess_1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != "sample" || len(got.Turns) != 1 {
		t.Errorf("session = %+v", got)
	}
	turn := got.Turns[0]
	if turn.ID != "resp_1" || turn.Response != "an answer" {
		t.Errorf("turn = %+v", turn)
	}
	// The pretty-printed file must not leak indentation into the
	// snapshot bytes handed back to callers.
	if string(turn.JSONRequest) != `{"model":"gpt-4o","tools":[{"type":"file_search"}]}` {
		t.Errorf("request snapshot = %s", turn.JSONRequest)
	}
}

func TestSaveReplacesExistingSession(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	session := sampleSession("sess_1")
	if err := s.SaveSession(ctx, session); err != nil {
		t.Fatalf("save: %v", err)
	}
	session.Title = "renamed"
	if err := s.SaveSession(ctx, session); err != nil {
		t.Fatalf("resave: %v", err)
	}

	sessions, err := s.ListSessions(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(sessions) != 1 || sessions[0].Title != "renamed" {
		t.Errorf("sessions = %+v", sessions)
	}
}

func TestListOrdersByCreation(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	older := sampleSession("sess_old")
	older.CreatedAt = time.Now().Add(-time.Hour)
	newer := sampleSession("sess_new")

	if err := s.SaveSession(ctx, newer); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveSession(ctx, older); err != nil {
		t.Fatal(err)
	}

	sessions, err := s.ListSessions(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if sessions[0].ID != "sess_old" || sessions[1].ID != "sess_new" {
		t.Errorf("order = %s, %s", sessions[0].ID, sessions[1].ID)
	}
}

func TestDeleteSession(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if err := s.SaveSession(ctx, sampleSession("sess_1")); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteSession(ctx, "sess_1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.GetSession(ctx, "sess_1"); err == nil {
		t.Error("deleted session still retrievable")
	}
}

func TestMissingHistoryFileIsEmpty(t *testing.T) {
	s := newTestStore(t)
	sessions, err := s.ListSessions(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(sessions) != 0 {
		t.Errorf("sessions = %v, want empty", sessions)
	}
}

func TestStoreSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "sessions.json")

	s, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.SaveSession(ctx, sampleSession("sess_1")); err != nil {
		t.Fatal(err)
	}

	reopened, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	got, err := reopened.GetSession(ctx, "sess_1")
	if err != nil {
		t.Fatalf("session lost across reopen: %v", err)
	}
	if string(got.Turns[0].JSONRequest) != `{"model":"gpt-4o","tools":[{"type":"file_search"}]}` {
		t.Errorf("request snapshot = %s", got.Turns[0].JSONRequest)
	}

	// A resave of reloaded history must not drift the snapshot either.
	if err := reopened.SaveSession(ctx, got); err != nil {
		t.Fatal(err)
	}
	again, err := reopened.GetSession(ctx, "sess_1")
	if err != nil {
		t.Fatal(err)
	}
	if string(again.Turns[0].JSONRequest) != `{"model":"gpt-4o","tools":[{"type":"file_search"}]}` {
		t.Errorf("request snapshot after resave = %s", again.Turns[0].JSONRequest)
	}
}
