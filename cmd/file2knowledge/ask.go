// Copyright File2Knowledge Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zumbarq/file2knowledge/pkg/core/services"
)

func newAskCmd(cfgPath *string) *cobra.Command {
	var (
		document     string
		name         string
		silent       bool
		webSearch    bool
		noFileSearch bool
		reasoning    bool
	)

	cmd := &cobra.Command{
		Use:   "ask <prompt>",
		Short: "Run a single prompt and exit",
		Args:  cobra.MinimumNArgs(1),
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
			}

			prompt := strings.Join(args, " ")
			modes := a.modes(webSearch, noFileSearch, reasoning)

			if silent {
				answer, err := a.facade.ExecuteSilently(ctx, prompt, modes, vectorStoreID)
				if err != nil {
					return err
				}
				fmt.Fprintln(os.Stdout, answer)
				return nil
			}

			if _, err := a.facade.Execute(ctx, prompt, modes, vectorStoreID); err != nil {
				return err
			}
			fmt.Fprintln(os.Stdout)
			a.sinks.printAux()
			return nil
		},
	}

	cmd.Flags().StringVar(&document, "document", "", "document to index before asking")
	cmd.Flags().StringVar(&name, "name", "", "vector store name for --document")
	cmd.Flags().BoolVar(&silent, "silent", false, "non-streaming, no session persistence")
	cmd.Flags().BoolVar(&webSearch, "web-search", false, "enable web search")
	cmd.Flags().BoolVar(&noFileSearch, "no-file-search", false, "disable file search")
	cmd.Flags().BoolVar(&reasoning, "reasoning", false, "use the reasoning model (no tools)")
	return cmd
}
