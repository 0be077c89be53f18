// Copyright File2Knowledge Authors
// SPDX-License-Identifier: Apache-2.0

package schema

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnknownEventType is returned when a wire type string is not part of
// the closed event enumeration. This is fatal at the decode layer: it
// signals a protocol surface the client has no model for at all.
var ErrUnknownEventType = errors.New("unknown stream event type")

// EventKind identifies one kind of Responses API stream event.
type EventKind int

// The closed enumeration of stream event kinds (27 wire types).
const (
	EventCreated EventKind = iota
	EventInProgress
	EventCompleted
	EventFailed
	EventIncomplete
	EventOutputItemAdded
	EventOutputItemDone
	EventContentPartAdded
	EventContentPartDone
	EventOutputTextDelta
	EventOutputTextAnnotationAdded
	EventOutputTextDone
	EventRefusalDelta
	EventRefusalDone
	EventFunctionCallArgumentsDelta
	EventFunctionCallArgumentsDone
	EventFileSearchCallInProgress
	EventFileSearchCallSearching
	EventFileSearchCallCompleted
	EventWebSearchCallInProgress
	EventWebSearchCallSearching
	EventWebSearchCallCompleted
	EventReasoningSummaryPartAdded
	EventReasoningSummaryPartDone
	EventReasoningSummaryTextDelta
	EventReasoningSummaryTextDone
	EventError
)

// eventKindByWire maps wire type strings 1:1 to enum values.
var eventKindByWire = map[string]EventKind{
	"response.created":                          EventCreated,
	"response.in_progress":                      EventInProgress,
	"response.completed":                        EventCompleted,
	"response.failed":                           EventFailed,
	"response.incomplete":                       EventIncomplete,
	"response.output_item.added":                EventOutputItemAdded,
	"response.output_item.done":                 EventOutputItemDone,
	"response.content_part.added":               EventContentPartAdded,
	"response.content_part.done":                EventContentPartDone,
	"response.output_text.delta":                EventOutputTextDelta,
	"response.output_text.annotation.added":     EventOutputTextAnnotationAdded,
	"response.output_text.done":                 EventOutputTextDone,
	"response.refusal.delta":                    EventRefusalDelta,
	"response.refusal.done":                     EventRefusalDone,
	"response.function_call_arguments.delta":    EventFunctionCallArgumentsDelta,
	"response.function_call_arguments.done":     EventFunctionCallArgumentsDone,
	"response.file_search_call.in_progress":     EventFileSearchCallInProgress,
	"response.file_search_call.searching":       EventFileSearchCallSearching,
	"response.file_search_call.completed":       EventFileSearchCallCompleted,
	"response.web_search_call.in_progress":      EventWebSearchCallInProgress,
	"response.web_search_call.searching":        EventWebSearchCallSearching,
	"response.web_search_call.completed":        EventWebSearchCallCompleted,
	"response.reasoning_summary_part.added":     EventReasoningSummaryPartAdded,
	"response.reasoning_summary_part.done":      EventReasoningSummaryPartDone,
	"response.reasoning_summary_text.delta":     EventReasoningSummaryTextDelta,
	"response.reasoning_summary_text.done":      EventReasoningSummaryTextDone,
	"error":                                     EventError,
}

var wireByEventKind = func() map[EventKind]string {
	m := make(map[EventKind]string, len(eventKindByWire))
	for wire, kind := range eventKindByWire {
		m[kind] = wire
	}
	return m
}()

// ParseEventKind maps a wire type string to its EventKind.
func ParseEventKind(wire string) (EventKind, error) {
	kind, ok := eventKindByWire[wire]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownEventType, wire)
	}
	return kind, nil
}

// String returns the wire type string for the kind.
func (k EventKind) String() string {
	if wire, ok := wireByEventKind[k]; ok {
		return wire
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}

// SearchResult is one ranked hit from a file_search call item.
type SearchResult struct {
	FileID   string  `json:"file_id"`
	Filename string  `json:"filename"`
	Score    float64 `json:"score"`
	Text     string  `json:"text,omitempty"`
}

// EventItem is the output item carried by output_item events.
type EventItem struct {
	ID      string         `json:"id"`
	Type    string         `json:"type,omitempty"`
	Status  string         `json:"status,omitempty"`
	Queries []string       `json:"queries,omitempty"`
	Results []SearchResult `json:"results,omitempty"`
	Content []ContentPart  `json:"content,omitempty"`
}

// ContentPart is a piece of an output item's content.
type ContentPart struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// Text returns the concatenated text of all content parts.
func (i *EventItem) TextContent() string {
	var out string
	for _, p := range i.Content {
		out += p.Text
	}
	return out
}

// EventAnnotation is a citation attached via output_text.annotation.added.
// URL/Title are set for web-search citations, FileID/Filename for
// file-search citations.
type EventAnnotation struct {
	Type       string `json:"type,omitempty"`
	URL        string `json:"url,omitempty"`
	Title      string `json:"title,omitempty"`
	StartIndex int    `json:"start_index,omitempty"`
	EndIndex   int    `json:"end_index,omitempty"`
	FileID     string `json:"file_id,omitempty"`
	Filename   string `json:"filename,omitempty"`
	Index      int    `json:"index,omitempty"`
}

// StreamEvent is one decoded stream event.
type StreamEvent struct {
	Kind       EventKind
	WireType   string
	ResponseID string           // response.id, set on lifecycle events
	Delta      string           // incremental text
	Text       string           // consolidated text on *.done events
	Item       *EventItem       // output_item events
	Annotation *EventAnnotation // annotation events
	Code       string           // error events
	Message    string           // error events
	Raw        json.RawMessage  // the undecoded wire payload
}

// eventWire is the wire shape a stream event payload decodes from.
type eventWire struct {
	Type     string `json:"type"`
	Response *struct {
		ID string `json:"id"`
	} `json:"response,omitempty"`
	Delta      string           `json:"delta,omitempty"`
	Text       string           `json:"text,omitempty"`
	Item       *EventItem       `json:"item,omitempty"`
	Annotation *EventAnnotation `json:"annotation,omitempty"`
	Code       string           `json:"code,omitempty"`
	Message    string           `json:"message,omitempty"`
	Error      *struct {
		Code    string `json:"code,omitempty"`
		Message string `json:"message,omitempty"`
	} `json:"error,omitempty"`
}

// DecodeStreamEvent decodes one SSE data payload into a StreamEvent.
// An unrecognized wire type string yields ErrUnknownEventType.
func DecodeStreamEvent(data json.RawMessage) (*StreamEvent, error) {
	var wire eventWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("decode stream event: %w", err)
	}

	kind, err := ParseEventKind(wire.Type)
	if err != nil {
		return nil, err
	}

	ev := &StreamEvent{
		Kind:       kind,
		WireType:   wire.Type,
		Delta:      wire.Delta,
		Text:       wire.Text,
		Item:       wire.Item,
		Annotation: wire.Annotation,
		Code:       wire.Code,
		Message:    wire.Message,
		Raw:        data,
	}
	if wire.Response != nil {
		ev.ResponseID = wire.Response.ID
	}
	// Some backends nest error details under "error" instead of top level.
	if wire.Error != nil {
		if ev.Code == "" {
			ev.Code = wire.Error.Code
		}
		if ev.Message == "" {
			ev.Message = wire.Error.Message
		}
	}
	return ev, nil
}
