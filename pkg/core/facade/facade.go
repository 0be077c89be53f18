// Copyright File2Knowledge Authors
// SPDX-License-Identifier: Apache-2.0

// Package facade is the single entry point callers use. It hides the
// engine, the resource linker and the cleaner behind one flat API so a
// UI or CLI never touches the lower layers directly.
package facade

import (
	"context"
	"fmt"

	"github.com/zumbarq/file2knowledge/pkg/core/api"
	"github.com/zumbarq/file2knowledge/pkg/core/engine"
	"github.com/zumbarq/file2knowledge/pkg/core/services"
	"github.com/zumbarq/file2knowledge/pkg/core/state"
	"github.com/zumbarq/file2knowledge/pkg/observability/logging"
)

// Facade bundles every user-facing operation of the application core.
type Facade struct {
	engine    *engine.Engine
	builder   *engine.RequestBuilder
	responses api.ResponsesClient
	resources api.ResourceClient
	linker    *services.Linker
	cleaner   *services.Cleaner
	store     state.SessionStore
	logger    *logging.Logger
}

// Options wires a Facade. All fields are required except Logger.
type Options struct {
	Engine    *engine.Engine
	Builder   *engine.RequestBuilder
	Responses api.ResponsesClient
	Resources api.ResourceClient
	Linker    *services.Linker
	Cleaner   *services.Cleaner
	Store     state.SessionStore
	Logger    *logging.Logger
}

// New creates a facade from opts.
func New(opts Options) *Facade {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &Facade{
		engine:    opts.Engine,
		builder:   opts.Builder,
		responses: opts.Responses,
		resources: opts.Resources,
		linker:    opts.Linker,
		cleaner:   opts.Cleaner,
		store:     opts.Store,
		logger:    logger,
	}
}

// Execute runs one streaming prompt turn in the current session.
func (f *Facade) Execute(ctx context.Context, prompt string, modes engine.FeatureModes, vectorStoreID string) (string, error) {
	return f.engine.Execute(ctx, prompt, modes, vectorStoreID)
}

// ExecuteSilently runs one prompt without streaming, without touching
// the session store, the chain cursor or any display sink. Used for
// utility prompts like title generation.
func (f *Facade) ExecuteSilently(ctx context.Context, prompt string, modes engine.FeatureModes, vectorStoreID string) (string, error) {
	req := f.builder.Build(prompt, modes, vectorStoreID, "", false)
	req.Stream = false

	envelope, err := f.responses.CreateResponse(ctx, req)
	if err != nil {
		return "", fmt.Errorf("create response: %w", err)
	}
	if envelope.Error != nil {
		return "", fmt.Errorf("response %s failed: %s", envelope.ID, envelope.Error.Message)
	}
	return engine.SanitizeText(envelope.OutputText()), nil
}

// RequestCancel asks the in-flight turn to stop.
func (f *Facade) RequestCancel() {
	f.engine.RequestCancel()
}

// EnsureVectorStoreFileLinked provisions the remote file, vector store
// and link for one resource. Returns "vectorStoreID\nfileID".
func (f *Facade) EnsureVectorStoreFileLinked(ctx context.Context, res *services.Resource) (string, error) {
	return f.linker.EnsureVectorStoreFileLinked(ctx, res)
}

// EnsureResources provisions a batch of resources in order.
func (f *Facade) EnsureResources(ctx context.Context, resources []*services.Resource) error {
	return f.linker.EnsureBatch(ctx, resources)
}

// DeleteResponse removes a stored response server-side.
func (f *Facade) DeleteResponse(ctx context.Context, responseID string) (string, error) {
	if err := f.resources.DeleteResponse(ctx, responseID); err != nil {
		return "", fmt.Errorf("delete response %s: %w", responseID, err)
	}
	return fmt.Sprintf("response %s deleted", responseID), nil
}

// DeleteFile removes an uploaded file server-side.
func (f *Facade) DeleteFile(ctx context.Context, fileID string) (string, error) {
	if err := f.resources.DeleteFile(ctx, fileID); err != nil {
		return "", fmt.Errorf("delete file %s: %w", fileID, err)
	}
	return fmt.Sprintf("file %s deleted", fileID), nil
}

// DeleteVectorStore removes a vector store server-side.
func (f *Facade) DeleteVectorStore(ctx context.Context, vectorStoreID string) (string, error) {
	if err := f.resources.DeleteVectorStore(ctx, vectorStoreID); err != nil {
		return "", fmt.Errorf("delete vector store %s: %w", vectorStoreID, err)
	}
	return fmt.Sprintf("vector store %s deleted", vectorStoreID), nil
}

// DeleteVectorStoreFileLink detaches a file from a vector store.
func (f *Facade) DeleteVectorStoreFileLink(ctx context.Context, vectorStoreID, fileID string) (string, error) {
	if err := f.resources.DeleteVectorStoreFileLink(ctx, vectorStoreID, fileID); err != nil {
		return "", fmt.Errorf("unlink %s from %s: %w", fileID, vectorStoreID, err)
	}
	return fmt.Sprintf("file %s unlinked from vector store %s", fileID, vectorStoreID), nil
}

// CleanupOrphans removes responses no stored session references.
func (f *Facade) CleanupOrphans(ctx context.Context) ([]string, error) {
	return f.cleaner.CleanupOrphans(ctx)
}

// Session returns the engine's current session.
func (f *Facade) Session() *state.ChatSession {
	return f.engine.Session()
}

// NewSession starts a fresh session.
func (f *Facade) NewSession() *state.ChatSession {
	return f.engine.NewSession()
}

// LoadSession switches to a stored session.
func (f *Facade) LoadSession(ctx context.Context, sessionID string) (*state.ChatSession, error) {
	session, err := f.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", sessionID, err)
	}
	f.engine.SetSession(session)
	return session, nil
}

// ListSessions returns every stored session.
func (f *Facade) ListSessions(ctx context.Context) ([]*state.ChatSession, error) {
	return f.store.ListSessions(ctx)
}

// DeleteSession removes a stored session. Its response ids stay in the
// durable log until CleanupOrphans runs.
func (f *Facade) DeleteSession(ctx context.Context, sessionID string) error {
	return f.store.DeleteSession(ctx, sessionID)
}

// RetrieveFile looks up an uploaded file.
func (f *Facade) RetrieveFile(ctx context.Context, fileID string) (*api.RemoteFile, error) {
	return f.resources.RetrieveFile(ctx, fileID)
}
