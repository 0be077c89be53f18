// Copyright File2Knowledge Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/zumbarq/file2knowledge/pkg/display"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	dimStyle    = lipgloss.NewStyle().Faint(true)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// streamSink writes answer text straight to the terminal as it arrives.
type streamSink struct {
	out io.Writer
}

func (s *streamSink) Append(text string) { fmt.Fprint(s.out, text) }
func (s *streamSink) Flush()             {}
func (s *streamSink) Clear()             {}

// terminalSinks routes the answer to stdout live and buffers the
// auxiliary views for printing after the turn.
type terminalSinks struct {
	out        io.Writer
	set        *display.Set
	fileSearch *display.Buffer
	webSearch  *display.Buffer
	reasoning  *display.Buffer
}

func newTerminalSinks(out io.Writer) *terminalSinks {
	t := &terminalSinks{
		out:        out,
		fileSearch: &display.Buffer{},
		webSearch:  &display.Buffer{},
		reasoning:  &display.Buffer{},
	}
	t.set = &display.Set{
		Answer:     &streamSink{out: out},
		FileSearch: t.fileSearch,
		WebSearch:  t.webSearch,
		Reasoning:  t.reasoning,
		SetBusy: func(busy bool) {
			if busy {
				fmt.Fprintln(out, dimStyle.Render("thinking..."))
			}
		},
	}
	return t
}

// printAux prints every auxiliary view that holds more than its empty
// placeholder.
func (t *terminalSinks) printAux() {
	t.printSection("Reasoning", t.reasoning.String())
	t.printSection("File search", t.fileSearch.String())
	t.printSection("Web search", t.webSearch.String())
}

func (t *terminalSinks) printSection(title, content string) {
	content = strings.TrimSpace(content)
	if content == "" || strings.HasPrefix(content, "No ") {
		return
	}
	fmt.Fprintf(t.out, "\n%s\n%s\n", headerStyle.Render(title), content)
}
