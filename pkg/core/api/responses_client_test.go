// Copyright File2Knowledge Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/zumbarq/file2knowledge/pkg/core/schema"
)

func sseServer(t *testing.T, lines []string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/responses" {
			t.Errorf("path = %q, want /responses", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("authorization = %q", got)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		for _, line := range lines {
			fmt.Fprintf(w, "%s\n", line)
		}
	}))
}

func collect(t *testing.T, items <-chan StreamItem) ([]*schema.StreamEvent, error) {
	t.Helper()
	var events []*schema.StreamEvent
	for item := range items {
		if item.Err != nil {
			return events, item.Err
		}
		events = append(events, item.Event)
	}
	return events, nil
}

func TestCreateResponseStream(t *testing.T) {
	srv := sseServer(t, []string{
		`event: response.created`,
		`data: {"type":"response.created","response":{"id":"resp_1"}}`,
		``,
		`data: {"type":"response.output_text.delta","delta":"Hi"}`,
		``,
		`data: {"type":"response.completed","response":{"id":"resp_1"}}`,
		``,
		`data: [DONE]`,
	})
	defer srv.Close()

	client := NewHTTPResponsesClient(srv.URL, "test-key")
	items, err := client.CreateResponseStream(context.Background(), &schema.ResponseRequest{
		Model: "gpt-4o",
		Input: "hello",
	})
	if err != nil {
		t.Fatalf("CreateResponseStream: %v", err)
	}

	events, err := collect(t, items)
	if err != nil {
		t.Fatalf("stream error: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("events = %d, want 3", len(events))
	}
	if events[0].Kind != schema.EventCreated || events[0].ResponseID != "resp_1" {
		t.Errorf("first event = %+v", events[0])
	}
	if events[1].Kind != schema.EventOutputTextDelta || events[1].Delta != "Hi" {
		t.Errorf("second event = %+v", events[1])
	}
	if events[2].Kind != schema.EventCompleted {
		t.Errorf("third event = %+v", events[2])
	}
}

func TestCreateResponseStreamUnknownEventType(t *testing.T) {
	srv := sseServer(t, []string{
		`data: {"type":"response.created","response":{"id":"resp_1"}}`,
		`data: {"type":"response.brand_new.thing"}`,
		`data: {"type":"response.output_text.delta","delta":"never delivered"}`,
	})
	defer srv.Close()

	client := NewHTTPResponsesClient(srv.URL, "test-key")
	items, err := client.CreateResponseStream(context.Background(), &schema.ResponseRequest{})
	if err != nil {
		t.Fatal(err)
	}

	events, err := collect(t, items)
	if !errors.Is(err, schema.ErrUnknownEventType) {
		t.Fatalf("err = %v, want ErrUnknownEventType", err)
	}
	// The stream stops at the unknown type; nothing after it arrives.
	if len(events) != 1 {
		t.Errorf("events before error = %d, want 1", len(events))
	}
}

func TestCreateResponseStreamNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"bad key"}}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewHTTPResponsesClient(srv.URL, "test-key")
	if _, err := client.CreateResponseStream(context.Background(), &schema.ResponseRequest{}); err == nil {
		t.Fatal("expected error for non-200 response")
	}
}

func TestCreateResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"resp_9","status":"completed","output":[{"id":"msg_1","type":"message","content":[{"type":"output_text","text":"the answer"}]}]}`)
	}))
	defer srv.Close()

	client := NewHTTPResponsesClient(srv.URL, "test-key")
	env, err := client.CreateResponse(context.Background(), &schema.ResponseRequest{
		Model: "gpt-4o",
		Input: "question",
	})
	if err != nil {
		t.Fatalf("CreateResponse: %v", err)
	}
	if env.ID != "resp_9" || env.Status != "completed" {
		t.Errorf("envelope = %+v", env)
	}
	if got := env.OutputText(); got != "the answer" {
		t.Errorf("output text = %q", got)
	}
}
