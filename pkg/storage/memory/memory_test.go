// Copyright File2Knowledge Authors
// SPDX-License-Identifier: Apache-2.0

package memory

import (
	"context"
	"testing"

	"github.com/zumbarq/file2knowledge/pkg/core/state"
)

func TestRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := New()

	session := &state.ChatSession{ID: "sess_1", Title: "hello"}
	session.AddTurn(&state.ChatTurn{Prompt: "hi", Response: "there"})
	if err := s.SaveSession(ctx, session); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := s.GetSession(ctx, "sess_1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != "hello" || len(got.Turns) != 1 {
		t.Errorf("session = %+v", got)
	}
}

func TestGetMissingSession(t *testing.T) {
	s := New()
	if _, err := s.GetSession(context.Background(), "nope"); err == nil {
		t.Error("expected error for missing session")
	}
}

func TestStoreIsolatesCallers(t *testing.T) {
	ctx := context.Background()
	s := New()

	session := &state.ChatSession{ID: "sess_1", Title: "original"}
	if err := s.SaveSession(ctx, session); err != nil {
		t.Fatal(err)
	}

	// Mutating the caller's instance after save must not leak in.
	session.Title = "mutated"
	got, err := s.GetSession(ctx, "sess_1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "original" {
		t.Errorf("title = %q, caller mutation leaked into store", got.Title)
	}

	// Mutating a retrieved copy must not leak back either.
	got.Title = "tampered"
	again, err := s.GetSession(ctx, "sess_1")
	if err != nil {
		t.Fatal(err)
	}
	if again.Title != "original" {
		t.Errorf("title = %q, reader mutation leaked into store", again.Title)
	}
}

func TestDeleteSession(t *testing.T) {
	ctx := context.Background()
	s := New()
	if err := s.SaveSession(ctx, &state.ChatSession{ID: "sess_1"}); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteSession(ctx, "sess_1"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetSession(ctx, "sess_1"); err == nil {
		t.Error("deleted session still retrievable")
	}
}
