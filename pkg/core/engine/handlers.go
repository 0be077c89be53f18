// Copyright File2Knowledge Authors
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"fmt"
	"strings"

	"github.com/zumbarq/file2knowledge/pkg/core/schema"
	"github.com/zumbarq/file2knowledge/pkg/display"
)

// Placeholder text substituted for auxiliary views that stayed empty.
const (
	noFileSearchResult = "No file search performed."
	noWebSearchResult  = "No web search performed."
	noReasoningSummary = "No reasoning summary provided."
)

// DefaultHandlers returns the ordered handler chain for a streaming
// turn. Order matters only in that the error handler must be reachable;
// each kind is claimed by exactly one handler.
func DefaultHandlers() []Handler {
	return []Handler{
		on(handleCreated, schema.EventCreated),
		on(handleTextDelta, schema.EventOutputTextDelta),
		on(handleTextDone, schema.EventOutputTextDone),
		on(handleItemDone, schema.EventOutputItemDone),
		on(handleAnnotation, schema.EventOutputTextAnnotationAdded),
		on(handleReasoningDelta, schema.EventReasoningSummaryTextDelta),
		on(handleReasoningDone, schema.EventReasoningSummaryTextDone),
		on(handleFuncArgsDone, schema.EventFunctionCallArgumentsDone),
		on(handleRefusalDone, schema.EventRefusalDone),
		on(handleError, schema.EventError),
		// Lifecycle and progress kinds carry nothing the turn records.
		// They are claimed explicitly so a future handler has a slot.
		on(handleIgnored,
			schema.EventInProgress,
			schema.EventCompleted,
			schema.EventFailed,
			schema.EventIncomplete,
			schema.EventOutputItemAdded,
			schema.EventContentPartAdded,
			schema.EventContentPartDone,
			schema.EventRefusalDelta,
			schema.EventFunctionCallArgumentsDelta,
			schema.EventFileSearchCallInProgress,
			schema.EventFileSearchCallSearching,
			schema.EventFileSearchCallCompleted,
			schema.EventWebSearchCallInProgress,
			schema.EventWebSearchCallSearching,
			schema.EventWebSearchCallCompleted,
			schema.EventReasoningSummaryPartAdded,
			schema.EventReasoningSummaryPartDone,
		),
	}
}

// handleCreated records the server-assigned response id. Add is
// idempotent for consecutive duplicates, so repeated created events for
// the same response are harmless.
func handleCreated(ev *schema.StreamEvent, st *TurnState) bool {
	if ev.ResponseID == "" {
		return true
	}
	st.Tracker.Add(ev.ResponseID)
	st.Turn.ID = ev.ResponseID
	return true
}

// handleTextDelta appends one sanitized answer chunk. The first chunks
// flush straight through so the answer starts appearing immediately;
// after that the sink's own throttling takes over.
func handleTextDelta(ev *schema.StreamEvent, st *TurnState) bool {
	clean := SanitizeText(ev.Delta)
	if clean == "" {
		return true
	}
	st.hideBusy()
	st.buffer.WriteString(clean)
	st.Sinks.Answer.Append(clean)
	if st.displayed < fastPathChunks {
		st.Sinks.Answer.Flush()
	}
	st.displayed++
	return true
}

// handleTextDone fills the turn response from the consolidated text when
// no message item supplied it first.
func handleTextDone(ev *schema.StreamEvent, st *TurnState) bool {
	if st.Turn.Response == "" && ev.Text != "" {
		st.Turn.Response = SanitizeText(ev.Text)
	}
	return true
}

// handleItemDone classifies a completed output item by its id prefix and
// captures the raw payload for the matching snapshot slot.
func handleItemDone(ev *schema.StreamEvent, st *TurnState) bool {
	item := ev.Item
	if item == nil {
		return true
	}

	switch {
	case strings.HasPrefix(item.ID, "msg"), item.Type == "message":
		st.Turn.JSONResponse = ev.Raw
		if st.Turn.Response == "" {
			st.Turn.Response = SanitizeText(item.TextContent())
		}
	case strings.HasPrefix(item.ID, "fs"), item.Type == "file_search_call":
		st.Turn.JSONFileSearch = ev.Raw
		block := formatFileSearch(item)
		st.Turn.FileSearch = block
		st.Sinks.FileSearch.Append(block)
		st.Sinks.Show(display.PageFileSearch)
	case strings.HasPrefix(item.ID, "ws"), item.Type == "web_search_call":
		st.Turn.JSONWebSearch = ev.Raw
	case item.Type == "function_call":
		st.Turn.JSONFuncCall = ev.Raw
	}
	return true
}

// handleAnnotation appends one citation block. URL annotations are web
// citations, file-id annotations are file citations.
func handleAnnotation(ev *schema.StreamEvent, st *TurnState) bool {
	ann := ev.Annotation
	if ann == nil {
		return true
	}

	switch {
	case ann.URL != "":
		block := formatWebCitation(ann)
		st.Turn.WebSearch += block
		st.Sinks.WebSearch.Append(block)
		st.Sinks.Show(display.PageWebSearch)
	case ann.FileID != "":
		block := formatFileCitation(ann)
		st.Turn.FileSearch += block
		st.Sinks.FileSearch.Append(block)
		st.Sinks.Show(display.PageFileSearch)
	}
	return true
}

// handleReasoningDelta streams a reasoning summary fragment.
func handleReasoningDelta(ev *schema.StreamEvent, st *TurnState) bool {
	clean := SanitizeText(ev.Delta)
	if clean == "" {
		return true
	}
	if st.Turn.Reasoning == "" {
		st.Sinks.Show(display.PageReasoning)
	}
	st.Turn.Reasoning += clean
	st.Sinks.Reasoning.Append(clean)
	return true
}

// handleReasoningDone keeps the consolidated summary when nothing was
// streamed incrementally.
func handleReasoningDone(ev *schema.StreamEvent, st *TurnState) bool {
	if st.Turn.Reasoning == "" && ev.Text != "" {
		st.Turn.Reasoning = SanitizeText(ev.Text)
	}
	return true
}

// handleFuncArgsDone snapshots completed function-call arguments.
func handleFuncArgsDone(ev *schema.StreamEvent, st *TurnState) bool {
	st.Turn.JSONFuncCall = ev.Raw
	return true
}

// handleRefusalDone surfaces a refusal as the answer text.
func handleRefusalDone(ev *schema.StreamEvent, st *TurnState) bool {
	if ev.Text == "" {
		return true
	}
	clean := SanitizeText(ev.Text)
	st.buffer.WriteString(clean)
	st.Sinks.Answer.Append(clean)
	if st.Turn.Response == "" {
		st.Turn.Response = clean
	}
	return true
}

// handleError freezes the partial answer and aborts the turn.
func handleError(ev *schema.StreamEvent, st *TurnState) bool {
	st.Turn.Response = st.Buffer()
	msg := SanitizeText(ev.Message)
	if msg == "" {
		msg = "unknown stream error"
	}
	if ev.Code != "" {
		st.failure = fmt.Errorf("stream error %s: %s", ev.Code, msg)
	} else {
		st.failure = fmt.Errorf("stream error: %s", msg)
	}
	st.Sinks.Answer.Append("\nError: " + msg)
	st.Sinks.Answer.Flush()
	return false
}

func handleIgnored(ev *schema.StreamEvent, st *TurnState) bool {
	return true
}

func formatFileSearch(item *schema.EventItem) string {
	var b strings.Builder
	if len(item.Queries) > 0 {
		fmt.Fprintf(&b, "Queries: %s\n", strings.Join(item.Queries, ", "))
	}
	for i, r := range item.Results {
		fmt.Fprintf(&b, "%d. %s (%s, score %.2f)\n", i+1, r.Filename, r.FileID, r.Score)
		if snippet := strings.TrimSpace(r.Text); snippet != "" {
			fmt.Fprintf(&b, "   %s\n", SanitizeText(snippet))
		}
	}
	if b.Len() == 0 {
		b.WriteString("File search returned no results.\n")
	}
	return b.String()
}

func formatWebCitation(ann *schema.EventAnnotation) string {
	title := ann.Title
	if title == "" {
		title = ann.URL
	}
	return fmt.Sprintf("- %s\n  %s\n", SanitizeText(title), ann.URL)
}

func formatFileCitation(ann *schema.EventAnnotation) string {
	name := ann.Filename
	if name == "" {
		name = ann.FileID
	}
	return fmt.Sprintf("- [%d] %s (%s)\n", ann.Index, SanitizeText(name), ann.FileID)
}
