// Copyright File2Knowledge Authors
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"strings"

	"github.com/zumbarq/file2knowledge/pkg/core/state"
	"github.com/zumbarq/file2knowledge/pkg/core/tracker"
	"github.com/zumbarq/file2knowledge/pkg/display"
)

// FeatureModes are the independent feature toggles for one turn.
// Reasoning mode suppresses tool availability entirely; web-search and
// file-search combine freely when reasoning is off.
type FeatureModes struct {
	WebSearch          bool
	FileSearchDisabled bool
	Reasoning          bool
}

// fastPathChunks is the number of leading text deltas flushed to the
// display immediately before output switches to throttled rendering.
const fastPathChunks = 20

// TurnState is the ephemeral state of one streaming turn. It is only
// mutated from the single goroutine consuming the event stream.
type TurnState struct {
	Turn    *state.ChatTurn
	Sinks   *display.Set
	Tracker *tracker.ResponseIDTracker

	buffer    strings.Builder
	displayed int
	busyShown bool
	failure   error
}

// Buffer returns the accumulated answer text so far.
func (st *TurnState) Buffer() string {
	return st.buffer.String()
}

// DisplayedCount returns how many text chunks have been rendered.
func (st *TurnState) DisplayedCount() int {
	return st.displayed
}

// hideBusy hides the generating indicator the first time output arrives.
func (st *TurnState) hideBusy() {
	if st.busyShown {
		st.Sinks.Busy(false)
		st.busyShown = false
	}
}
