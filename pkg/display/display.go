// Copyright File2Knowledge Authors
// SPDX-License-Identifier: Apache-2.0

// Package display defines the output sinks the execution engine writes
// to. A GUI, a TUI, and the tests all implement the same interfaces.
package display

import (
	"strings"
	"sync"
)

// Page identifies which auxiliary view is frontmost.
type Page int

const (
	PageAnswer Page = iota
	PageFileSearch
	PageWebSearch
	PageReasoning
)

// Sink receives incremental text for one view.
type Sink interface {
	// Append adds text to the view.
	Append(text string)
	// Flush forces any buffered output to render immediately.
	Flush()
	// Clear empties the view.
	Clear()
}

// Set groups the four sinks a turn writes to, plus cross-view controls.
type Set struct {
	Answer     Sink
	FileSearch Sink
	WebSearch  Sink
	Reasoning  Sink

	// ShowPage brings an auxiliary view frontmost; nil means no paging.
	ShowPage func(Page)
	// SetBusy toggles the "generating" indicator; nil means none.
	SetBusy func(busy bool)
}

// ClearAll empties every sink.
func (s *Set) ClearAll() {
	for _, sink := range []Sink{s.Answer, s.FileSearch, s.WebSearch, s.Reasoning} {
		if sink != nil {
			sink.Clear()
		}
	}
}

// Show switches the frontmost page if paging is wired.
func (s *Set) Show(page Page) {
	if s.ShowPage != nil {
		s.ShowPage(page)
	}
}

// Busy toggles the generating indicator if wired.
func (s *Set) Busy(busy bool) {
	if s.SetBusy != nil {
		s.SetBusy(busy)
	}
}

// Buffer is a thread-safe in-memory Sink. Used by tests and by the
// silent execution path.
type Buffer struct {
	mu sync.Mutex
	sb strings.Builder
}

// Append implements Sink.
func (b *Buffer) Append(text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sb.WriteString(text)
}

// Flush implements Sink.
func (b *Buffer) Flush() {}

// Clear implements Sink.
func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sb.Reset()
}

// String returns the accumulated text.
func (b *Buffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sb.String()
}

// NopSet returns a Set whose sinks discard everything.
func NopSet() *Set {
	return &Set{
		Answer:     &Buffer{},
		FileSearch: &Buffer{},
		WebSearch:  &Buffer{},
		Reasoning:  &Buffer{},
	}
}
