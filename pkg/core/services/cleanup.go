// Copyright File2Knowledge Authors
// SPDX-License-Identifier: Apache-2.0

package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/zumbarq/file2knowledge/pkg/core/api"
	"github.com/zumbarq/file2knowledge/pkg/core/state"
	"github.com/zumbarq/file2knowledge/pkg/core/tracker"
	"github.com/zumbarq/file2knowledge/pkg/observability/logging"
)

// Cleaner deletes server-side responses whose sessions are gone. The
// durable id log outlives session deletion, which is what makes these
// orphans findable at all.
type Cleaner struct {
	client  api.ResourceClient
	store   state.SessionStore
	tracker *tracker.ResponseIDTracker
	logger  *logging.Logger
}

// NewCleaner creates a cleaner.
func NewCleaner(client api.ResourceClient, store state.SessionStore, t *tracker.ResponseIDTracker, logger *logging.Logger) *Cleaner {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Cleaner{client: client, store: store, tracker: t, logger: logger}
}

// CleanupOrphans deletes every logged response id that no stored session
// references anymore. Remote deletion is best-effort per id: a response
// already gone upstream still counts as cleaned, any other failure
// leaves the id in the log for the next run. Returns the ids removed.
func (c *Cleaner) CleanupOrphans(ctx context.Context) ([]string, error) {
	sessions, err := c.store.ListSessions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	orphans := c.tracker.Orphans(state.ReferencedResponseIDs(sessions))
	if len(orphans) == 0 {
		return nil, nil
	}

	var removed []string
	for _, id := range orphans {
		err := c.client.DeleteResponse(ctx, id)
		if err != nil && !errors.Is(err, api.ErrNotFound) {
			c.logger.Warn("orphan delete failed, keeping id for next run",
				"response_id", id, "error", err)
			continue
		}
		c.tracker.RemoveID(id)
		removed = append(removed, id)
		c.logger.Info("removed orphaned response", "response_id", id)
	}
	return removed, nil
}
