// Copyright File2Knowledge Authors
// SPDX-License-Identifier: Apache-2.0

// Package services holds the orchestration services that sit between the
// facade and the API clients: remote resource provisioning and orphaned
// response cleanup.
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/zumbarq/file2knowledge/pkg/core/api"
	"github.com/zumbarq/file2knowledge/pkg/observability/logging"
	"github.com/zumbarq/file2knowledge/pkg/source"
	"github.com/zumbarq/file2knowledge/pkg/source/extractor"
)

// Resource is a local document and its remote provisioning state. FileID
// and VectorStoreID start empty and are filled in as the ensure chain
// runs; stale ids are replaced when the remote objects no longer exist.
type Resource struct {
	Name          string `json:"name"`     // vector store display name
	Document      string `json:"document"` // path within the document source
	FileID        string `json:"file_id,omitempty"`
	VectorStoreID string `json:"vector_store_id,omitempty"`
}

// Linker provisions the remote file, vector store and link backing a
// resource. Each ensure step verifies before creating, so repeated calls
// converge without duplicating remote objects.
type Linker struct {
	client api.ResourceClient
	source source.Source
	logger *logging.Logger
}

// NewLinker creates a linker reading documents from src.
func NewLinker(client api.ResourceClient, src source.Source, logger *logging.Logger) *Linker {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Linker{client: client, source: src, logger: logger}
}

// EnsureFileID guarantees res.FileID names an existing remote file,
// uploading the extracted document text when the id is empty or stale.
func (l *Linker) EnsureFileID(ctx context.Context, res *Resource) (string, error) {
	if res.FileID != "" {
		_, err := l.client.RetrieveFile(ctx, res.FileID)
		if err == nil {
			return res.FileID, nil
		}
		if !errors.Is(err, api.ErrNotFound) {
			return "", fmt.Errorf("verify file %s: %w", res.FileID, err)
		}
		l.logger.Warn("remote file vanished, re-uploading",
			"file_id", res.FileID, "document", res.Document)
		res.FileID = ""
	}

	content, err := l.source.Read(ctx, res.Document)
	if err != nil {
		return "", fmt.Errorf("read document %s: %w", res.Document, err)
	}
	text, err := extractor.Extract(content, res.Document)
	if err != nil {
		return "", fmt.Errorf("extract %s: %w", res.Document, err)
	}

	fileID, err := l.client.UploadFile(ctx, extractor.UploadName(res.Document), []byte(text))
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", res.Document, err)
	}
	res.FileID = fileID
	l.logger.Info("uploaded document", "document", res.Document, "file_id", fileID)
	return fileID, nil
}

// EnsureVectorStoreID guarantees res.VectorStoreID names an existing
// vector store, creating one under the resource name when needed.
func (l *Linker) EnsureVectorStoreID(ctx context.Context, res *Resource) (string, error) {
	if res.VectorStoreID != "" {
		_, err := l.client.RetrieveVectorStore(ctx, res.VectorStoreID)
		if err == nil {
			return res.VectorStoreID, nil
		}
		if !errors.Is(err, api.ErrNotFound) {
			return "", fmt.Errorf("verify vector store %s: %w", res.VectorStoreID, err)
		}
		l.logger.Warn("vector store vanished, recreating",
			"vector_store_id", res.VectorStoreID, "name", res.Name)
		res.VectorStoreID = ""
	}

	name := res.Name
	if name == "" {
		name = res.Document
	}
	vectorStoreID, err := l.client.CreateVectorStore(ctx, name)
	if err != nil {
		return "", fmt.Errorf("create vector store %q: %w", name, err)
	}
	res.VectorStoreID = vectorStoreID
	l.logger.Info("created vector store", "name", name, "vector_store_id", vectorStoreID)
	return vectorStoreID, nil
}

// EnsureLink guarantees the resource's file is attached to its vector
// store. Both ids must already be ensured.
func (l *Linker) EnsureLink(ctx context.Context, res *Resource) error {
	linked, err := l.client.RetrieveVectorStoreFileLink(ctx, res.VectorStoreID, res.FileID)
	if err != nil && !errors.Is(err, api.ErrNotFound) {
		return fmt.Errorf("verify link %s/%s: %w", res.VectorStoreID, res.FileID, err)
	}
	if linked {
		return nil
	}
	if err := l.client.CreateVectorStoreFileLink(ctx, res.VectorStoreID, res.FileID); err != nil {
		return fmt.Errorf("link %s/%s: %w", res.VectorStoreID, res.FileID, err)
	}
	l.logger.Info("linked file to vector store",
		"vector_store_id", res.VectorStoreID, "file_id", res.FileID)
	return nil
}

// EnsureVectorStoreFileLinked runs the full ensure chain for one
// resource. Steps run sequentially and the first failure short-circuits.
// On success it returns the vector store id and file id joined by a
// newline.
func (l *Linker) EnsureVectorStoreFileLinked(ctx context.Context, res *Resource) (string, error) {
	fileID, err := l.EnsureFileID(ctx, res)
	if err != nil {
		return "", err
	}
	vectorStoreID, err := l.EnsureVectorStoreID(ctx, res)
	if err != nil {
		return "", err
	}
	if err := l.EnsureLink(ctx, res); err != nil {
		return "", err
	}
	return vectorStoreID + "\n" + fileID, nil
}

// EnsureBatch runs the ensure chain for every resource in order,
// stopping at the first failure.
func (l *Linker) EnsureBatch(ctx context.Context, resources []*Resource) error {
	for _, res := range resources {
		if _, err := l.EnsureVectorStoreFileLinked(ctx, res); err != nil {
			return fmt.Errorf("resource %s: %w", res.Document, err)
		}
	}
	return nil
}
