// Copyright File2Knowledge Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newDeleteCmd(cfgPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete remote resources",
	}

	run := func(fn func(cmd *cobra.Command, a *app, args []string) (string, error)) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, *cfgPath)
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			msg, err := fn(cmd, a, args)
			if err != nil {
				return err
			}
			fmt.Fprintln(os.Stdout, msg)
			return nil
		}
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "response <response-id>",
			Short: "Delete a stored response",
			Args:  cobra.ExactArgs(1),
			RunE: run(func(cmd *cobra.Command, a *app, args []string) (string, error) {
				return a.facade.DeleteResponse(cmd.Context(), args[0])
			}),
		},
		&cobra.Command{
			Use:   "file <file-id>",
			Short: "Delete an uploaded file",
			Args:  cobra.ExactArgs(1),
			RunE: run(func(cmd *cobra.Command, a *app, args []string) (string, error) {
				return a.facade.DeleteFile(cmd.Context(), args[0])
			}),
		},
		&cobra.Command{
			Use:   "vector-store <vector-store-id>",
			Short: "Delete a vector store",
			Args:  cobra.ExactArgs(1),
			RunE: run(func(cmd *cobra.Command, a *app, args []string) (string, error) {
				return a.facade.DeleteVectorStore(cmd.Context(), args[0])
			}),
		},
		&cobra.Command{
			Use:   "link <vector-store-id> <file-id>",
			Short: "Detach a file from a vector store",
			Args:  cobra.ExactArgs(2),
			RunE: run(func(cmd *cobra.Command, a *app, args []string) (string, error) {
				return a.facade.DeleteVectorStoreFileLink(cmd.Context(), args[0], args[1])
			}),
		},
	)
	return cmd
}
