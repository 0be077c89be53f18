// Copyright File2Knowledge Authors
// SPDX-License-Identifier: Apache-2.0

// Package tracker maintains the server-issued response identifiers for
// the active session plus a durable log of every identifier ever seen.
// The active list drives conversation chaining; the durable log supports
// orphan detection after sessions are deleted.
package tracker

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// ResponseIDTracker tracks turn identifiers. All operations are
// best-effort with respect to the durable log: a missing or unwritable
// log never fails the caller.
type ResponseIDTracker struct {
	mu      sync.Mutex
	logPath string
	active  []string
	log     []string
	lastID  string
}

// New creates a tracker and loads the durable log. A missing log file
// silently yields an empty log.
func New(logPath string) *ResponseIDTracker {
	t := &ResponseIDTracker{logPath: logPath}
	t.loadLog()
	return t
}

func (t *ResponseIDTracker) loadLog() {
	data, err := os.ReadFile(t.logPath)
	if err != nil {
		return
	}
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			t.log = append(t.log, line)
		}
	}
}

func (t *ResponseIDTracker) persistLog() {
	if t.logPath == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(t.logPath), 0o755); err != nil {
		return
	}
	data := strings.Join(t.log, "\n")
	_ = os.WriteFile(t.logPath, []byte(data), 0o644)
}

// Add records a new identifier. Empty ids and consecutive duplicates are
// ignored. The durable log is appended and persisted.
func (t *ResponseIDTracker) Add(id string) {
	if id == "" {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.active) > 0 && t.active[len(t.active)-1] == id {
		return
	}
	t.active = append(t.active, id)
	t.log = append(t.log, id)
	t.lastID = id
	t.persistLog()
}

// LastID returns the identifier the next turn should chain to, or empty.
func (t *ResponseIDTracker) LastID() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastID
}

// Cancel moves the chain cursor back one position without removing the
// underlying entry, so history stays intact. With one or zero entries
// the cursor becomes empty.
func (t *ResponseIDTracker) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.active) <= 1 {
		t.lastID = ""
		return
	}
	t.lastID = t.active[len(t.active)-2]
}

// Clear invokes del for every active identifier, then empties the cursor
// and the active list. The durable log is untouched.
func (t *ResponseIDTracker) Clear(ctx context.Context, del func(ctx context.Context, id string)) {
	t.mu.Lock()
	active := make([]string, len(t.active))
	copy(active, t.active)
	t.active = nil
	t.lastID = ""
	t.mu.Unlock()

	if del == nil {
		return
	}
	for _, id := range active {
		del(ctx, id)
	}
}

// RemoveID removes an identifier from the durable log only, persisting
// when something changed.
func (t *ResponseIDTracker) RemoveID(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	kept := t.log[:0]
	changed := false
	for _, entry := range t.log {
		if entry == id {
			changed = true
			continue
		}
		kept = append(kept, entry)
	}
	t.log = kept
	if changed {
		t.persistLog()
	}
}

// Orphans returns durable-log entries absent from sessionIDs, in log
// order. These are responses whose sessions were deleted without
// deleting the corresponding remote conversation state.
func (t *ResponseIDTracker) Orphans(sessionIDs []string) []string {
	referenced := make(map[string]struct{}, len(sessionIDs))
	for _, id := range sessionIDs {
		referenced[id] = struct{}{}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	var orphans []string
	for _, id := range t.log {
		if _, ok := referenced[id]; !ok {
			orphans = append(orphans, id)
		}
	}
	return orphans
}

// ActiveIDs returns a copy of the active identifier list.
func (t *ResponseIDTracker) ActiveIDs() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, len(t.active))
	copy(out, t.active)
	return out
}
