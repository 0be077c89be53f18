// Copyright File2Knowledge Authors
// SPDX-License-Identifier: Apache-2.0

package schema

// ResponseRequest is the outbound payload for the /v1/responses endpoint,
// limited to the fields this client sends.
type ResponseRequest struct {
	Model string `json:"model"`

	// Input is the prompt text for this turn.
	Input string `json:"input"`

	// Previous response ID for conversation chaining.
	PreviousResponseID *string `json:"previous_response_id,omitempty"`

	// Instructions (system message).
	Instructions *string `json:"instructions,omitempty"`

	// Tools available for the model to use.
	Tools []ToolParam `json:"tools,omitempty"`

	// Reasoning configuration for reasoning models.
	Reasoning *ReasoningParam `json:"reasoning,omitempty"`

	// Controls what to include in the response.
	Include []string `json:"include,omitempty"`

	// Whether the server should persist the response.
	Store *bool `json:"store,omitempty"`

	// Whether to stream the response.
	Stream bool `json:"stream,omitempty"`
}

// ToolParam is a tool definition (request side).
type ToolParam struct {
	Type string `json:"type"` // "web_search" or "file_search"

	// File search fields (type="file_search")
	VectorStoreIDs []string `json:"vector_store_ids,omitempty"`
	MaxNumResults  *int     `json:"max_num_results,omitempty"`
}

// ReasoningParam configures reasoning effort and summary emission.
type ReasoningParam struct {
	Effort  string  `json:"effort"`            // "low", "medium", "high"
	Summary *string `json:"summary,omitempty"` // "auto", "concise", "detailed"
}

// IncludeFileSearchResults asks the server to attach ranked file-search
// results to file_search_call output items.
const IncludeFileSearchResults = "file_search_call.results"

// ResponseEnvelope is the non-streaming response body, limited to the
// fields the silent execution path consumes.
type ResponseEnvelope struct {
	ID     string      `json:"id"`
	Status string      `json:"status"`
	Output []EventItem `json:"output"`
	Error  *ErrorField `json:"error"`
}

// ErrorField carries error details on a failed response.
type ErrorField struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// OutputText returns the concatenated text of all message output items.
func (r *ResponseEnvelope) OutputText() string {
	var out string
	for i := range r.Output {
		if r.Output[i].Type == "message" {
			out += r.Output[i].TextContent()
		}
	}
	return out
}
