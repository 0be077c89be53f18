// Copyright File2Knowledge Authors
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"github.com/zumbarq/file2knowledge/pkg/core/config"
	"github.com/zumbarq/file2knowledge/pkg/core/schema"
)

// RequestBuilder assembles Responses API payloads from the feature
// toggles in effect for a turn.
type RequestBuilder struct {
	models       config.ModelsConfig
	instructions string
}

// NewRequestBuilder creates a builder. instructions, when non-empty, is
// sent as the system message on every request.
func NewRequestBuilder(models config.ModelsConfig, instructions string) *RequestBuilder {
	return &RequestBuilder{models: models, instructions: instructions}
}

// Build assembles one streaming request.
//
// Reasoning mode selects the reasoning model with the configured effort
// and summary settings and never attaches tools. Otherwise the search
// model runs with tools picked from the toggles: disabling file search
// while web search is on yields web search only, both enabled with a
// vector store yields both tools, a vector store alone yields file
// search, web search alone yields web search, and nothing otherwise.
//
// previousID chains the conversation only when the turn is stored.
func (b *RequestBuilder) Build(prompt string, modes FeatureModes, vectorStoreID, previousID string, store bool) *schema.ResponseRequest {
	req := &schema.ResponseRequest{
		Input:  prompt,
		Store:  &store,
		Stream: true,
	}
	if b.instructions != "" {
		instructions := b.instructions
		req.Instructions = &instructions
	}
	if store && previousID != "" {
		prev := previousID
		req.PreviousResponseID = &prev
	}

	if modes.Reasoning {
		req.Model = b.models.Reasoning
		reasoning := &schema.ReasoningParam{Effort: b.models.ReasoningEffort}
		if b.models.ReasoningSummary != "" {
			summary := b.models.ReasoningSummary
			reasoning.Summary = &summary
		}
		req.Reasoning = reasoning
		return req
	}

	req.Model = b.models.Search
	req.Tools = selectTools(modes, vectorStoreID)
	for _, tool := range req.Tools {
		if tool.Type == "file_search" {
			req.Include = []string{schema.IncludeFileSearchResults}
			break
		}
	}
	return req
}

func selectTools(modes FeatureModes, vectorStoreID string) []schema.ToolParam {
	fileSearch := schema.ToolParam{
		Type:           "file_search",
		VectorStoreIDs: []string{vectorStoreID},
	}
	webSearch := schema.ToolParam{Type: "web_search"}

	switch {
	case modes.FileSearchDisabled && modes.WebSearch:
		return []schema.ToolParam{webSearch}
	case !modes.FileSearchDisabled && modes.WebSearch && vectorStoreID != "":
		return []schema.ToolParam{fileSearch, webSearch}
	case !modes.FileSearchDisabled && vectorStoreID != "":
		return []schema.ToolParam{fileSearch}
	case modes.WebSearch:
		return []schema.ToolParam{webSearch}
	default:
		return nil
	}
}
