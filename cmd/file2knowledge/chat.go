// Copyright File2Knowledge Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/zumbarq/file2knowledge/pkg/core/engine"
	"github.com/zumbarq/file2knowledge/pkg/core/services"
)

func newChatCmd(cfgPath *string) *cobra.Command {
	var (
		document     string
		name         string
		sessionID    string
		webSearch    bool
		noFileSearch bool
		reasoning    bool
	)

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Interactive chat session",
		Long: "Starts an interactive chat. With --document the file is uploaded " +
			"and indexed first, and file search runs against it. Ctrl-C aborts " +
			"the current turn without leaving the chat.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, *cfgPath)
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			var vectorStoreID string
			if document != "" {
				res := &services.Resource{Name: name, Document: document}
				if _, err := a.facade.EnsureVectorStoreFileLinked(ctx, res); err != nil {
					return err
				}
				vectorStoreID = res.VectorStoreID
				fmt.Fprintf(os.Stdout, "%s %s\n",
					dimStyle.Render("indexed"), document)
			}

			if sessionID != "" {
				if _, err := a.facade.LoadSession(ctx, sessionID); err != nil {
					return err
				}
			}

			// Ctrl-C aborts the in-flight turn; the chat loop keeps going.
			sigs := make(chan os.Signal, 1)
			signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(sigs)
			go func() {
				for range sigs {
					a.facade.RequestCancel()
				}
			}()

			modes := a.modes(webSearch, noFileSearch, reasoning)
			return chatLoop(cmd, a, modes, vectorStoreID)
		},
	}

	cmd.Flags().StringVar(&document, "document", "", "document to index before chatting")
	cmd.Flags().StringVar(&name, "name", "", "vector store name for --document")
	cmd.Flags().StringVar(&sessionID, "session", "", "resume a stored session")
	cmd.Flags().BoolVar(&webSearch, "web-search", false, "enable web search")
	cmd.Flags().BoolVar(&noFileSearch, "no-file-search", false, "disable file search")
	cmd.Flags().BoolVar(&reasoning, "reasoning", false, "use the reasoning model (no tools)")
	return cmd
}

func chatLoop(cmd *cobra.Command, a *app, modes engine.FeatureModes, vectorStoreID string) error {
	ctx := cmd.Context()
	scanner := bufio.NewScanner(os.Stdin)
	out := os.Stdout

	fmt.Fprintln(out, dimStyle.Render("type a prompt, /new for a new session, /quit to exit"))
	for {
		fmt.Fprint(out, headerStyle.Render("> "))
		if !scanner.Scan() {
			return scanner.Err()
		}
		prompt := strings.TrimSpace(scanner.Text())
		switch {
		case prompt == "":
			continue
		case prompt == "/quit", prompt == "/exit":
			return nil
		case prompt == "/new":
			session := a.facade.NewSession()
			fmt.Fprintf(out, "%s %s\n", dimStyle.Render("new session"), session.ID)
			continue
		}

		_, err := a.facade.Execute(ctx, prompt, modes, vectorStoreID)
		switch {
		case errors.Is(err, engine.ErrCancelled):
			// The engine already printed the cancellation notice.
		case err != nil:
			fmt.Fprintln(out, errorStyle.Render(err.Error()))
		}
		fmt.Fprintln(out)
		a.sinks.printAux()
	}
}
