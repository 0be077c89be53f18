// Copyright File2Knowledge Authors
// SPDX-License-Identifier: Apache-2.0

package facade

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/zumbarq/file2knowledge/pkg/core/api"
	"github.com/zumbarq/file2knowledge/pkg/core/config"
	"github.com/zumbarq/file2knowledge/pkg/core/engine"
	"github.com/zumbarq/file2knowledge/pkg/core/schema"
)

// silentClient serves canned non-streaming responses and records the
// request it saw.
type silentClient struct {
	envelope *schema.ResponseEnvelope
	err      error
	lastReq  *schema.ResponseRequest
}

func (c *silentClient) CreateResponse(_ context.Context, req *schema.ResponseRequest) (*schema.ResponseEnvelope, error) {
	c.lastReq = req
	return c.envelope, c.err
}

func (c *silentClient) CreateResponseStream(context.Context, *schema.ResponseRequest) (<-chan api.StreamItem, error) {
	return nil, errors.New("not used")
}

// deleteRecorder tracks deletions for the confirmation-string tests.
type deleteRecorder struct {
	api.ResourceClient
	calls []string
	err   error
}

func (d *deleteRecorder) DeleteResponse(_ context.Context, id string) error {
	d.calls = append(d.calls, "response:"+id)
	return d.err
}

func (d *deleteRecorder) DeleteFile(_ context.Context, id string) error {
	d.calls = append(d.calls, "file:"+id)
	return d.err
}

func (d *deleteRecorder) DeleteVectorStore(_ context.Context, id string) error {
	d.calls = append(d.calls, "vector_store:"+id)
	return d.err
}

func (d *deleteRecorder) DeleteVectorStoreFileLink(_ context.Context, vsID, fileID string) error {
	d.calls = append(d.calls, "link:"+vsID+"/"+fileID)
	return d.err
}

var testModels = config.ModelsConfig{
	Search:          "gpt-4o",
	Reasoning:       "o4-mini",
	ReasoningEffort: "low",
}

func TestExecuteSilently(t *testing.T) {
	client := &silentClient{envelope: &schema.ResponseEnvelope{
		ID:     "resp_1",
		Status: "completed",
		Output: []schema.EventItem{{
			Type:    "message",
			Content: []schema.ContentPart{{Type: "output_text", Text: "quiet answer\u00a0here"}},
		}},
	}}

	f := New(Options{
		Builder:   engine.NewRequestBuilder(testModels, ""),
		Responses: client,
	})

	got, err := f.ExecuteSilently(context.Background(), "p", engine.FeatureModes{}, "")
	if err != nil {
		t.Fatalf("ExecuteSilently: %v", err)
	}
	if got != "quiet answer here" {
		t.Errorf("answer = %q, want sanitized text", got)
	}

	req := client.lastReq
	if req.Stream {
		t.Error("silent execution must not stream")
	}
	if req.Store == nil || *req.Store {
		t.Error("silent execution must not store the response")
	}
	if req.PreviousResponseID != nil {
		t.Error("silent execution must not chain")
	}
}

func TestExecuteSilentlyErrorEnvelope(t *testing.T) {
	client := &silentClient{envelope: &schema.ResponseEnvelope{
		ID:    "resp_1",
		Error: &schema.ErrorField{Message: "model overloaded"},
	}}
	f := New(Options{
		Builder:   engine.NewRequestBuilder(testModels, ""),
		Responses: client,
	})

	_, err := f.ExecuteSilently(context.Background(), "p", engine.FeatureModes{}, "")
	if err == nil || !strings.Contains(err.Error(), "model overloaded") {
		t.Errorf("err = %v", err)
	}
}

func TestDeleteConfirmations(t *testing.T) {
	rec := &deleteRecorder{}
	f := New(Options{Resources: rec})
	ctx := context.Background()

	tests := []struct {
		name     string
		call     func() (string, error)
		wantMsg  string
		wantCall string
	}{
		{
			name:     "response",
			call:     func() (string, error) { return f.DeleteResponse(ctx, "resp_1") },
			wantMsg:  "response resp_1 deleted",
			wantCall: "response:resp_1",
		},
		{
			name:     "file",
			call:     func() (string, error) { return f.DeleteFile(ctx, "file_1") },
			wantMsg:  "file file_1 deleted",
			wantCall: "file:file_1",
		},
		{
			name:     "vector store",
			call:     func() (string, error) { return f.DeleteVectorStore(ctx, "vs_1") },
			wantMsg:  "vector store vs_1 deleted",
			wantCall: "vector_store:vs_1",
		},
		{
			name:     "link",
			call:     func() (string, error) { return f.DeleteVectorStoreFileLink(ctx, "vs_1", "file_1") },
			wantMsg:  "file file_1 unlinked from vector store vs_1",
			wantCall: "link:vs_1/file_1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec.calls = nil
			msg, err := tt.call()
			if err != nil {
				t.Fatalf("call: %v", err)
			}
			if msg != tt.wantMsg {
				t.Errorf("msg = %q, want %q", msg, tt.wantMsg)
			}
			if len(rec.calls) != 1 || rec.calls[0] != tt.wantCall {
				t.Errorf("calls = %v, want [%s]", rec.calls, tt.wantCall)
			}
		})
	}
}

func TestDeleteFailurePropagates(t *testing.T) {
	rec := &deleteRecorder{err: errors.New("backend down")}
	f := New(Options{Resources: rec})

	if _, err := f.DeleteFile(context.Background(), "file_1"); err == nil {
		t.Error("expected delete error to propagate")
	}
}
