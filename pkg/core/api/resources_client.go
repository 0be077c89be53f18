// Copyright File2Knowledge Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIResourceClient implements ResourceClient using the official
// OpenAI Go SDK. It manages uploaded files, vector stores, and the links
// between them, plus server-side response deletion.
type OpenAIResourceClient struct {
	client openai.Client
}

// NewOpenAIResourceClient creates a resource client. baseURL may point at
// any OpenAI-compatible backend; empty means the SDK default.
func NewOpenAIResourceClient(baseURL, apiKey string) *OpenAIResourceClient {
	opts := []option.RequestOption{}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	} else {
		// Dummy key for local backends that don't require authentication
		opts = append(opts, option.WithAPIKey("dummy"))
	}
	return &OpenAIResourceClient{client: openai.NewClient(opts...)}
}

var _ ResourceClient = (*OpenAIResourceClient)(nil)

// notFound maps SDK 404 errors onto ErrNotFound so callers can test with
// errors.Is without importing the SDK.
func notFound(err error) error {
	var apierr *openai.Error
	if errors.As(err, &apierr) && apierr.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	return err
}

// UploadFile uploads content to the remote file store with purpose
// "assistants" and returns the server-assigned file id.
func (c *OpenAIResourceClient) UploadFile(ctx context.Context, filename string, content []byte) (string, error) {
	f, err := c.client.Files.New(ctx, openai.FileNewParams{
		File:    openai.File(bytes.NewReader(content), filename, "application/octet-stream"),
		Purpose: openai.FilePurposeAssistants,
	})
	if err != nil {
		return "", fmt.Errorf("upload file %s: %w", filename, err)
	}
	return f.ID, nil
}

// RetrieveFile fetches file metadata by id.
func (c *OpenAIResourceClient) RetrieveFile(ctx context.Context, fileID string) (*RemoteFile, error) {
	f, err := c.client.Files.Get(ctx, fileID)
	if err != nil {
		return nil, notFound(err)
	}
	return &RemoteFile{ID: f.ID, Filename: f.Filename, Bytes: f.Bytes}, nil
}

// DeleteFile removes an uploaded file.
func (c *OpenAIResourceClient) DeleteFile(ctx context.Context, fileID string) error {
	if _, err := c.client.Files.Delete(ctx, fileID); err != nil {
		return notFound(err)
	}
	return nil
}

// CreateVectorStore provisions a new vector store and returns its id.
func (c *OpenAIResourceClient) CreateVectorStore(ctx context.Context, name string) (string, error) {
	vs, err := c.client.VectorStores.New(ctx, openai.VectorStoreNewParams{
		Name: openai.String(name),
	})
	if err != nil {
		return "", fmt.Errorf("create vector store %q: %w", name, err)
	}
	return vs.ID, nil
}

// RetrieveVectorStore fetches a vector store by id, returning its id.
func (c *OpenAIResourceClient) RetrieveVectorStore(ctx context.Context, vectorStoreID string) (string, error) {
	vs, err := c.client.VectorStores.Get(ctx, vectorStoreID)
	if err != nil {
		return "", notFound(err)
	}
	return vs.ID, nil
}

// DeleteVectorStore removes a vector store.
func (c *OpenAIResourceClient) DeleteVectorStore(ctx context.Context, vectorStoreID string) error {
	if _, err := c.client.VectorStores.Delete(ctx, vectorStoreID); err != nil {
		return notFound(err)
	}
	return nil
}

// CreateVectorStoreFileLink attaches an uploaded file to a vector store.
func (c *OpenAIResourceClient) CreateVectorStoreFileLink(ctx context.Context, vectorStoreID, fileID string) error {
	_, err := c.client.VectorStores.Files.New(ctx, vectorStoreID, openai.VectorStoreFileNewParams{
		FileID: fileID,
	})
	if err != nil {
		return fmt.Errorf("link file %s to vector store %s: %w", fileID, vectorStoreID, err)
	}
	return nil
}

// RetrieveVectorStoreFileLink reports whether the file is attached to the
// vector store. A missing link is not an error.
func (c *OpenAIResourceClient) RetrieveVectorStoreFileLink(ctx context.Context, vectorStoreID, fileID string) (bool, error) {
	_, err := c.client.VectorStores.Files.Get(ctx, vectorStoreID, fileID)
	if err != nil {
		if errors.Is(notFound(err), ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// DeleteVectorStoreFileLink detaches a file from a vector store.
func (c *OpenAIResourceClient) DeleteVectorStoreFileLink(ctx context.Context, vectorStoreID, fileID string) error {
	_, err := c.client.VectorStores.Files.Delete(ctx, vectorStoreID, fileID)
	if err != nil {
		return notFound(err)
	}
	return nil
}

// DeleteResponse removes a stored response from the server, dropping the
// conversation state chained to it.
func (c *OpenAIResourceClient) DeleteResponse(ctx context.Context, responseID string) error {
	if err := c.client.Responses.Delete(ctx, responseID); err != nil {
		return notFound(err)
	}
	return nil
}
