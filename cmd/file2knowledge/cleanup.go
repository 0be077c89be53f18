// Copyright File2Knowledge Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newCleanupCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Delete server-side responses no session references",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, *cfgPath)
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			removed, err := a.facade.CleanupOrphans(ctx)
			if err != nil {
				return err
			}
			if len(removed) == 0 {
				fmt.Fprintln(os.Stdout, "no orphaned responses")
				return nil
			}
			for _, id := range removed {
				fmt.Fprintf(os.Stdout, "removed %s\n", id)
			}
			return nil
		},
	}
}
