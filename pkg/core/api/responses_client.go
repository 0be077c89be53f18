// Copyright File2Knowledge Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/zumbarq/file2knowledge/pkg/core/schema"
)

// HTTPResponsesClient implements ResponsesClient using net/http.
// It calls the backend's /v1/responses endpoint directly.
type HTTPResponsesClient struct {
	baseURL    string // e.g. "https://api.openai.com/v1"
	apiKey     string
	httpClient *http.Client
}

// NewHTTPResponsesClient creates a new Responses API client.
// baseURL should include the /v1 prefix.
func NewHTTPResponsesClient(baseURL, apiKey string) *HTTPResponsesClient {
	return &HTTPResponsesClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{},
	}
}

var _ ResponsesClient = (*HTTPResponsesClient)(nil)

// CreateResponse sends a non-streaming request to the backend.
func (c *HTTPResponsesClient) CreateResponse(ctx context.Context, req *schema.ResponseRequest) (*schema.ResponseEnvelope, error) {
	req.Stream = false

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/responses", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	c.setHeaders(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request to backend failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("backend returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var result schema.ResponseEnvelope
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return &result, nil
}

// CreateResponseStream sends a streaming request to the backend and
// returns a channel of decoded SSE events. The channel is closed when
// the stream ends or after a decode/transport error has been delivered.
func (c *HTTPResponsesClient) CreateResponseStream(ctx context.Context, req *schema.ResponseRequest) (<-chan StreamItem, error) {
	req.Stream = true

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/responses", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	c.setHeaders(httpReq)
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request to backend failed: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("backend returned status %d: %s", resp.StatusCode, string(respBody))
	}

	items := make(chan StreamItem, 10)

	go func() {
		defer close(items)
		defer resp.Body.Close()

		scanner := bufio.NewScanner(resp.Body)
		// Increase max token size for large SSE payloads
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

		for scanner.Scan() {
			line := scanner.Text()

			// Only data lines carry payloads; the "event:" line repeats
			// the type field already present in the JSON.
			if !strings.HasPrefix(line, "data: ") {
				continue
			}
			data := strings.TrimPrefix(line, "data: ")

			// [DONE] signals end of stream
			if data == "[DONE]" {
				return
			}

			ev, decodeErr := schema.DecodeStreamEvent(json.RawMessage(data))
			if decodeErr != nil {
				select {
				case items <- StreamItem{Err: decodeErr}:
				case <-ctx.Done():
				}
				return
			}

			select {
			case items <- StreamItem{Event: ev}:
			case <-ctx.Done():
				return
			}
		}

		if err := scanner.Err(); err != nil {
			select {
			case items <- StreamItem{Err: fmt.Errorf("read stream: %w", err)}:
			case <-ctx.Done():
			}
		}
	}()

	return items, nil
}

func (c *HTTPResponsesClient) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}
