// Copyright File2Knowledge Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"context"
	"errors"

	"github.com/zumbarq/file2knowledge/pkg/core/schema"
)

// ErrNotFound is returned by resource lookups when the remote object
// does not exist.
var ErrNotFound = errors.New("remote resource not found")

// StreamItem is one element of a streaming response: either a decoded
// event or a terminal transport/decode error. The channel closes after
// an error or the end of the stream.
type StreamItem struct {
	Event *schema.StreamEvent
	Err   error
}

// ResponsesClient talks to a /v1/responses endpoint.
type ResponsesClient interface {
	// CreateResponse issues a non-streaming request and returns the
	// final envelope.
	CreateResponse(ctx context.Context, req *schema.ResponseRequest) (*schema.ResponseEnvelope, error)

	// CreateResponseStream issues a streaming request. Events arrive in
	// server order, one at a time.
	CreateResponseStream(ctx context.Context, req *schema.ResponseRequest) (<-chan StreamItem, error)
}

// RemoteFile describes an uploaded file on the remote store.
type RemoteFile struct {
	ID       string
	Filename string
	Bytes    int64
}

// ResourceClient manages remote files, vector stores, and stored
// responses. Lookups return ErrNotFound (wrapped) when the resource does
// not exist; any other failure propagates as-is.
type ResourceClient interface {
	UploadFile(ctx context.Context, filename string, content []byte) (string, error)
	RetrieveFile(ctx context.Context, fileID string) (*RemoteFile, error)
	DeleteFile(ctx context.Context, fileID string) error

	CreateVectorStore(ctx context.Context, name string) (string, error)
	RetrieveVectorStore(ctx context.Context, vectorStoreID string) (string, error)
	DeleteVectorStore(ctx context.Context, vectorStoreID string) error

	CreateVectorStoreFileLink(ctx context.Context, vectorStoreID, fileID string) error
	RetrieveVectorStoreFileLink(ctx context.Context, vectorStoreID, fileID string) (bool, error)
	DeleteVectorStoreFileLink(ctx context.Context, vectorStoreID, fileID string) error

	DeleteResponse(ctx context.Context, responseID string) error
}
