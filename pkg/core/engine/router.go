// Copyright File2Knowledge Authors
// SPDX-License-Identifier: Apache-2.0

// Package engine executes prompt turns against the Responses API: it
// builds requests, consumes the event stream through an ordered handler
// chain, and finalizes each turn into the session store exactly once.
package engine

import (
	"github.com/zumbarq/file2knowledge/pkg/core/schema"
)

// Handler processes stream events it declares interest in. Handle
// returns false to abort the turn; every other outcome continues it.
type Handler interface {
	CanHandle(kind schema.EventKind) bool
	Handle(ev *schema.StreamEvent, st *TurnState) bool
}

// Router dispatches each event to the first handler whose CanHandle
// matches. Events no handler claims continue the turn unchanged.
type Router struct {
	handlers []Handler
}

// NewRouter builds a router over an ordered handler chain.
func NewRouter(handlers ...Handler) *Router {
	return &Router{handlers: handlers}
}

// Route dispatches one event and reports whether the turn continues.
func (r *Router) Route(ev *schema.StreamEvent, st *TurnState) bool {
	for _, h := range r.handlers {
		if h.CanHandle(ev.Kind) {
			return h.Handle(ev, st)
		}
	}
	return true
}

// kindHandler binds a handler function to a fixed set of event kinds.
type kindHandler struct {
	kinds map[schema.EventKind]bool
	fn    func(ev *schema.StreamEvent, st *TurnState) bool
}

func on(fn func(ev *schema.StreamEvent, st *TurnState) bool, kinds ...schema.EventKind) *kindHandler {
	set := make(map[schema.EventKind]bool, len(kinds))
	for _, k := range kinds {
		set[k] = true
	}
	return &kindHandler{kinds: set, fn: fn}
}

func (h *kindHandler) CanHandle(kind schema.EventKind) bool {
	return h.kinds[kind]
}

func (h *kindHandler) Handle(ev *schema.StreamEvent, st *TurnState) bool {
	return h.fn(ev, st)
}
