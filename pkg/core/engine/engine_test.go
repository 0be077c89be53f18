// Copyright File2Knowledge Authors
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/zumbarq/file2knowledge/pkg/core/api"
	"github.com/zumbarq/file2knowledge/pkg/core/schema"
	"github.com/zumbarq/file2knowledge/pkg/core/state"
	"github.com/zumbarq/file2knowledge/pkg/core/tracker"
)

func newTestTracker(t *testing.T) *tracker.ResponseIDTracker {
	t.Helper()
	return tracker.New(filepath.Join(t.TempDir(), "ids.log"))
}

// recordingStore counts saves and keeps the last state of each session.
type recordingStore struct {
	mu       sync.Mutex
	saves    int
	sessions map[string]*state.ChatSession
}

func newRecordingStore() *recordingStore {
	return &recordingStore{sessions: make(map[string]*state.ChatSession)}
}

func (s *recordingStore) SaveSession(_ context.Context, session *state.ChatSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	s.sessions[session.ID] = session
	return nil
}

func (s *recordingStore) GetSession(_ context.Context, id string) (*state.ChatSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[id], nil
}

func (s *recordingStore) ListSessions(context.Context) ([]*state.ChatSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*state.ChatSession
	for _, session := range s.sessions {
		out = append(out, session)
	}
	return out, nil
}

func (s *recordingStore) DeleteSession(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

func (s *recordingStore) Close(context.Context) error { return nil }

func (s *recordingStore) saveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

// scriptedClient feeds a scripted event sequence through an unbuffered
// channel so test code can interleave with the engine's consume loop.
type scriptedClient struct {
	mu        sync.Mutex
	streamErr error
	feed      func(ch chan<- api.StreamItem)
	lastReq   *schema.ResponseRequest
}

func (c *scriptedClient) CreateResponse(context.Context, *schema.ResponseRequest) (*schema.ResponseEnvelope, error) {
	return nil, errors.New("not used")
}

func (c *scriptedClient) CreateResponseStream(_ context.Context, req *schema.ResponseRequest) (<-chan api.StreamItem, error) {
	c.mu.Lock()
	c.lastReq = req
	c.mu.Unlock()
	if c.streamErr != nil {
		return nil, c.streamErr
	}
	ch := make(chan api.StreamItem)
	go func() {
		defer close(ch)
		c.feed(ch)
	}()
	return ch, nil
}

func (c *scriptedClient) request() *schema.ResponseRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastReq
}

func evCreated(id string) api.StreamItem {
	return api.StreamItem{Event: &schema.StreamEvent{Kind: schema.EventCreated, ResponseID: id}}
}

func evDelta(text string) api.StreamItem {
	return api.StreamItem{Event: &schema.StreamEvent{Kind: schema.EventOutputTextDelta, Delta: text}}
}

func evKind(kind schema.EventKind) api.StreamItem {
	return api.StreamItem{Event: &schema.StreamEvent{Kind: kind}}
}

func evError(code, message string) api.StreamItem {
	return api.StreamItem{Event: &schema.StreamEvent{Kind: schema.EventError, Code: code, Message: message}}
}

func newTestEngine(t *testing.T, client api.ResponsesClient, store state.SessionStore) *Engine {
	t.Helper()
	return New(Options{
		Client:  client,
		Store:   store,
		Tracker: newTestTracker(t),
		Builder: NewRequestBuilder(testModels, ""),
	})
}

func TestExecuteHappyPath(t *testing.T) {
	client := &scriptedClient{feed: func(ch chan<- api.StreamItem) {
		ch <- evCreated("resp_1")
		ch <- evDelta("Hi ")
		ch <- evDelta("there")
		ch <- evKind(schema.EventCompleted)
	}}
	store := newRecordingStore()
	eng := newTestEngine(t, client, store)

	answer, err := eng.Execute(context.Background(), "greet me", FeatureModes{}, "")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if answer != "Hi there" {
		t.Errorf("answer = %q, want %q", answer, "Hi there")
	}

	session := eng.Session()
	if len(session.Turns) != 1 {
		t.Fatalf("turns = %d, want 1", len(session.Turns))
	}
	turn := session.Turns[0]
	if turn.ID != "resp_1" || turn.Prompt != "greet me" || turn.Response != "Hi there" {
		t.Errorf("turn = %+v", turn)
	}
	if len(turn.JSONRequest) == 0 {
		t.Error("request snapshot missing")
	}
	// Empty auxiliary views get their placeholders on finalize.
	if turn.FileSearch != noFileSearchResult || turn.WebSearch != noWebSearchResult || turn.Reasoning != noReasoningSummary {
		t.Errorf("placeholders not applied: %+v", turn)
	}
	// One save before the stream, one at finalize.
	if store.saveCount() != 2 {
		t.Errorf("saves = %d, want 2", store.saveCount())
	}
	if saved, _ := store.GetSession(context.Background(), session.ID); saved == nil {
		t.Error("session not persisted")
	}

	// The next turn chains to resp_1.
	client.feed = func(ch chan<- api.StreamItem) {
		ch <- evCreated("resp_2")
		ch <- evDelta("again")
		ch <- evKind(schema.EventCompleted)
	}
	if _, err := eng.Execute(context.Background(), "again", FeatureModes{}, ""); err != nil {
		t.Fatalf("second Execute: %v", err)
	}
	req := client.request()
	if req.PreviousResponseID == nil || *req.PreviousResponseID != "resp_1" {
		t.Errorf("previous response id = %v, want resp_1", req.PreviousResponseID)
	}
}

func TestExecuteStreamErrorEvent(t *testing.T) {
	client := &scriptedClient{feed: func(ch chan<- api.StreamItem) {
		ch <- evCreated("resp_1")
		ch <- evDelta("Partial")
		ch <- evError("boom", "backend exploded")
	}}
	store := newRecordingStore()
	eng := newTestEngine(t, client, store)

	answer, err := eng.Execute(context.Background(), "q", FeatureModes{}, "")
	if err == nil || !strings.Contains(err.Error(), "backend exploded") {
		t.Fatalf("err = %v, want stream error", err)
	}
	if answer != "Partial" {
		t.Errorf("answer = %q, want the partial buffer", answer)
	}

	turn := eng.Session().Turns[0]
	if turn.Response != "Partial" {
		t.Errorf("turn response = %q", turn.Response)
	}
	// The failed turn rolls the chain cursor back; with only one entry
	// the cursor clears entirely.
	if got := eng.tracker.LastID(); got != "" {
		t.Errorf("chain cursor = %q, want empty", got)
	}
	// Failure still finalizes and persists.
	if turn.FileSearch != noFileSearchResult {
		t.Error("finalize skipped on error path")
	}
	if store.saveCount() != 2 {
		t.Errorf("saves = %d, want 2", store.saveCount())
	}
}

func TestExecuteTransportFailure(t *testing.T) {
	client := &scriptedClient{feed: func(ch chan<- api.StreamItem) {
		ch <- evCreated("resp_1")
		ch <- api.StreamItem{Err: errors.New("connection reset")}
	}}
	store := newRecordingStore()
	eng := newTestEngine(t, client, store)

	_, err := eng.Execute(context.Background(), "q", FeatureModes{}, "")
	if err == nil || !strings.Contains(err.Error(), "connection reset") {
		t.Fatalf("err = %v", err)
	}
	if store.saveCount() != 2 {
		t.Errorf("saves = %d, want 2", store.saveCount())
	}
}

func TestExecuteCreateStreamFailure(t *testing.T) {
	client := &scriptedClient{streamErr: errors.New("dial tcp: refused")}
	store := newRecordingStore()
	eng := newTestEngine(t, client, store)

	_, err := eng.Execute(context.Background(), "q", FeatureModes{}, "")
	if err == nil || !strings.Contains(err.Error(), "refused") {
		t.Fatalf("err = %v", err)
	}
	// The turn is still on record with placeholders.
	turn := eng.Session().Turns[0]
	if turn.Reasoning != noReasoningSummary {
		t.Error("finalize skipped when the stream never opened")
	}
}

func TestExecuteCancellation(t *testing.T) {
	var eng *Engine
	client := &scriptedClient{feed: func(ch chan<- api.StreamItem) {
		ch <- evCreated("resp_1")
		eng.RequestCancel()
		ch <- evDelta("never rendered")
	}}
	store := newRecordingStore()
	eng = newTestEngine(t, client, store)

	answer, err := eng.Execute(context.Background(), "q", FeatureModes{}, "")
	if !errors.Is(err, ErrCancelled) {
		t.Fatalf("err = %v, want ErrCancelled", err)
	}
	if !strings.HasSuffix(answer, "Aborted") {
		t.Errorf("answer = %q, want Aborted suffix", answer)
	}

	turn := eng.Session().Turns[0]
	if turn.ID != "resp_1" {
		t.Errorf("turn id = %q", turn.ID)
	}
	if !strings.HasSuffix(turn.Response, "Aborted") {
		t.Errorf("turn response = %q", turn.Response)
	}
	// Cancelled turn does not chain.
	if got := eng.tracker.LastID(); got != "" {
		t.Errorf("chain cursor = %q, want empty", got)
	}
	if store.saveCount() != 2 {
		t.Errorf("saves = %d, want 2", store.saveCount())
	}
}

func TestExecuteRejectsConcurrentTurn(t *testing.T) {
	release := make(chan struct{})
	client := &scriptedClient{feed: func(ch chan<- api.StreamItem) {
		<-release
	}}
	eng := newTestEngine(t, client, newRecordingStore())

	done := make(chan error, 1)
	go func() {
		_, err := eng.Execute(context.Background(), "first", FeatureModes{}, "")
		done <- err
	}()

	deadline := time.After(5 * time.Second)
	for !eng.InFlight() {
		select {
		case <-deadline:
			t.Fatal("first turn never started")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	if _, err := eng.Execute(context.Background(), "second", FeatureModes{}, ""); !errors.Is(err, ErrTurnInFlight) {
		t.Errorf("err = %v, want ErrTurnInFlight", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Errorf("first turn failed: %v", err)
	}

	// Only the first turn made it into the session.
	if got := len(eng.Session().Turns); got != 1 {
		t.Errorf("turns = %d, want 1", got)
	}
}

func TestExecuteAsyncSettlesResult(t *testing.T) {
	client := &scriptedClient{feed: func(ch chan<- api.StreamItem) {
		ch <- evCreated("resp_1")
		ch <- evDelta("async answer")
		ch <- evKind(schema.EventCompleted)
	}}
	eng := newTestEngine(t, client, newRecordingStore())

	result := <-eng.ExecuteAsync(context.Background(), "q", FeatureModes{}, "")
	if result.Err != nil {
		t.Fatalf("err = %v", result.Err)
	}
	if result.Answer != "async answer" {
		t.Errorf("answer = %q", result.Answer)
	}
}

func TestRequestCancelWithoutTurnIsNoop(t *testing.T) {
	client := &scriptedClient{feed: func(ch chan<- api.StreamItem) {
		ch <- evCreated("resp_1")
		ch <- evDelta("ok")
		ch <- evKind(schema.EventCompleted)
	}}
	eng := newTestEngine(t, client, newRecordingStore())

	// A stale cancel before any turn must not abort the next one.
	eng.RequestCancel()

	answer, err := eng.Execute(context.Background(), "q", FeatureModes{}, "")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if answer != "ok" {
		t.Errorf("answer = %q", answer)
	}
}
