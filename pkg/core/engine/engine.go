// Copyright File2Knowledge Authors
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/zumbarq/file2knowledge/pkg/core/api"
	"github.com/zumbarq/file2knowledge/pkg/core/state"
	"github.com/zumbarq/file2knowledge/pkg/core/tracker"
	"github.com/zumbarq/file2knowledge/pkg/display"
	"github.com/zumbarq/file2knowledge/pkg/observability/logging"
)

var (
	// ErrTurnInFlight is returned when Execute is called while another
	// turn is still streaming.
	ErrTurnInFlight = errors.New("a turn is already in flight")

	// ErrCancelled is returned when the user aborts a streaming turn.
	ErrCancelled = errors.New("operation canceled")
)

// Options wires an Engine. Client, Store, Tracker, Builder and Logger
// are required; Sinks defaults to a discarding set and Router to the
// default handler chain.
type Options struct {
	Client  api.ResponsesClient
	Store   state.SessionStore
	Tracker *tracker.ResponseIDTracker
	Sinks   *display.Set
	Builder *RequestBuilder
	Logger  *logging.Logger
	Router  *Router

	// Timeout bounds one full turn, stream included. Zero disables it.
	Timeout time.Duration

	// OnHistoryChanged fires after every finalized turn, whatever the
	// outcome, so views tracking the session list stay current.
	OnHistoryChanged func()
}

// Engine runs prompt turns. At most one turn streams at a time; a second
// Execute while one is in flight fails fast with ErrTurnInFlight.
type Engine struct {
	client  api.ResponsesClient
	store   state.SessionStore
	tracker *tracker.ResponseIDTracker
	sinks   *display.Set
	builder *RequestBuilder
	logger  *logging.Logger
	router  *Router
	timeout time.Duration

	onHistoryChanged func()

	inFlight  atomic.Bool
	cancelReq atomic.Bool

	mu      sync.Mutex
	session *state.ChatSession
}

// New creates an engine from opts.
func New(opts Options) *Engine {
	sinks := opts.Sinks
	if sinks == nil {
		sinks = display.NopSet()
	}
	router := opts.Router
	if router == nil {
		router = NewRouter(DefaultHandlers()...)
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &Engine{
		client:           opts.Client,
		store:            opts.Store,
		tracker:          opts.Tracker,
		sinks:            sinks,
		builder:          opts.Builder,
		logger:           logger,
		router:           router,
		timeout:          opts.Timeout,
		onHistoryChanged: opts.OnHistoryChanged,
	}
}

// Session returns the current session, creating an empty one on first
// use.
func (e *Engine) Session() *state.ChatSession {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		e.session = &state.ChatSession{ID: uuid.NewString()}
	}
	return e.session
}

// SetSession switches the engine to an existing session and realigns the
// chain cursor with the session's last turn.
func (e *Engine) SetSession(session *state.ChatSession) {
	e.mu.Lock()
	e.session = session
	e.mu.Unlock()

	if session != nil {
		if ids := session.ResponseIDs(); len(ids) > 0 {
			e.tracker.Add(ids[len(ids)-1])
		}
	}
}

// NewSession starts a fresh session and returns it. The previous
// session's chain cursor no longer applies.
func (e *Engine) NewSession() *state.ChatSession {
	session := &state.ChatSession{ID: uuid.NewString()}
	e.mu.Lock()
	e.session = session
	e.mu.Unlock()
	return session
}

// RequestCancel asks the in-flight turn to stop. The request is observed
// at the next stream chunk; there is no hard kill of the network call.
// Calling this with no turn in flight is a no-op.
func (e *Engine) RequestCancel() {
	if e.inFlight.Load() {
		e.cancelReq.Store(true)
	}
}

// InFlight reports whether a turn is currently streaming.
func (e *Engine) InFlight() bool {
	return e.inFlight.Load()
}

// Execute runs one streaming prompt turn and returns the final answer
// text. Every terminal path, success, stream error, transport failure or
// cancellation, finalizes the turn into the session store exactly once.
func (e *Engine) Execute(ctx context.Context, prompt string, modes FeatureModes, vectorStoreID string) (string, error) {
	if !e.inFlight.CompareAndSwap(false, true) {
		return "", ErrTurnInFlight
	}
	defer e.inFlight.Store(false)
	e.cancelReq.Store(false)

	// A cancelable context in every case, so the transport goroutine is
	// released on each terminal path.
	var cancel context.CancelFunc
	if e.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	session := e.Session()
	turn := &state.ChatTurn{
		Prompt:    prompt,
		Storage:   true,
		CreatedAt: time.Now(),
	}
	session.AddTurn(turn)

	e.sinks.ClearAll()
	e.sinks.Show(display.PageAnswer)
	e.sinks.Busy(true)

	req := e.builder.Build(prompt, modes, vectorStoreID, e.tracker.LastID(), turn.Storage)
	if raw, err := json.Marshal(req); err == nil {
		turn.JSONRequest = raw
	}
	// Snapshot the request before the call so a crash mid-stream still
	// leaves the turn on record.
	e.persist(ctx, session)

	st := &TurnState{Turn: turn, Sinks: e.sinks, Tracker: e.tracker, busyShown: true}

	stream, err := e.client.CreateResponseStream(ctx, req)
	if err != nil {
		e.logger.Error("create response stream", "error", err)
		e.tracker.Cancel()
		e.finalize(ctx, st)
		return "", fmt.Errorf("create response stream: %w", err)
	}

	for item := range stream {
		if e.cancelReq.Load() {
			return e.finishCancelled(ctx, st)
		}
		if item.Err != nil {
			e.logger.Error("response stream failed", "error", item.Err)
			turn.Response = st.Buffer()
			e.tracker.Cancel()
			e.finalize(ctx, st)
			return turn.Response, fmt.Errorf("stream: %w", item.Err)
		}
		if !e.router.Route(item.Event, st) {
			failure := st.failure
			if failure == nil {
				failure = errors.New("stream aborted by handler")
			}
			e.logger.Error("turn aborted", "error", failure)
			e.tracker.Cancel()
			e.finalize(ctx, st)
			return turn.Response, failure
		}
	}
	if e.cancelReq.Load() {
		return e.finishCancelled(ctx, st)
	}

	if turn.Response == "" {
		turn.Response = st.Buffer()
	}
	e.sinks.Answer.Flush()
	e.finalize(ctx, st)
	return turn.Response, nil
}

// TurnResult is the settled outcome of an asynchronous turn.
type TurnResult struct {
	Answer string
	Err    error
}

// ExecuteAsync runs Execute on its own goroutine and delivers the
// settled result on the returned channel. The channel is buffered, so
// the result never blocks on a slow reader.
func (e *Engine) ExecuteAsync(ctx context.Context, prompt string, modes FeatureModes, vectorStoreID string) <-chan TurnResult {
	ch := make(chan TurnResult, 1)
	go func() {
		defer close(ch)
		answer, err := e.Execute(ctx, prompt, modes, vectorStoreID)
		ch <- TurnResult{Answer: answer, Err: err}
	}()
	return ch
}

func (e *Engine) finishCancelled(ctx context.Context, st *TurnState) (string, error) {
	st.buffer.WriteString("\nAborted")
	st.Turn.Response = st.Buffer()
	e.sinks.Answer.Append("\nOperation canceled")
	e.sinks.Answer.Flush()
	e.tracker.Cancel()
	e.finalize(ctx, st)
	return st.Turn.Response, ErrCancelled
}

// finalize substitutes placeholders for empty auxiliary views, clears
// the busy indicator, persists the session and notifies history views.
// Each terminal path calls it exactly once.
func (e *Engine) finalize(ctx context.Context, st *TurnState) {
	turn := st.Turn
	if turn.FileSearch == "" {
		turn.FileSearch = noFileSearchResult
		e.sinks.FileSearch.Append(noFileSearchResult)
	}
	if turn.WebSearch == "" {
		turn.WebSearch = noWebSearchResult
		e.sinks.WebSearch.Append(noWebSearchResult)
	}
	if turn.Reasoning == "" {
		turn.Reasoning = noReasoningSummary
		e.sinks.Reasoning.Append(noReasoningSummary)
	}
	e.sinks.Busy(false)

	e.mu.Lock()
	session := e.session
	e.mu.Unlock()
	e.persist(ctx, session)

	if e.onHistoryChanged != nil {
		e.onHistoryChanged()
	}
}

// persist saves the session, tolerating a canceled turn context.
func (e *Engine) persist(ctx context.Context, session *state.ChatSession) {
	if session == nil || e.store == nil {
		return
	}
	if ctx.Err() != nil {
		ctx = context.WithoutCancel(ctx)
	}
	if err := e.store.SaveSession(ctx, session); err != nil {
		e.logger.Error("persist session", "session_id", session.ID, "error", err)
	}
}
