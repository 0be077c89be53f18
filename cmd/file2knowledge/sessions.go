// Copyright File2Knowledge Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newSessionsCmd(cfgPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Inspect stored chat sessions",
	}
	cmd.AddCommand(
		newSessionsListCmd(cfgPath),
		newSessionsShowCmd(cfgPath),
		newSessionsDeleteCmd(cfgPath),
	)
	return cmd
}

func newSessionsListCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, *cfgPath)
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			sessions, err := a.facade.ListSessions(ctx)
			if err != nil {
				return err
			}
			for _, s := range sessions {
				fmt.Fprintf(os.Stdout, "%s  %s  (%d turns, %s)\n",
					s.ID, s.Title, len(s.Turns), s.ModifiedAt.Format("2006-01-02 15:04"))
			}
			return nil
		},
	}
}

func newSessionsShowCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "show <session-id>",
		Short: "Print a session's turns",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, *cfgPath)
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			session, err := a.facade.LoadSession(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(os.Stdout, headerStyle.Render(session.Title))
			for _, turn := range session.Turns {
				fmt.Fprintf(os.Stdout, "\n%s %s\n%s\n",
					headerStyle.Render(">"), turn.Prompt, turn.Response)
			}
			return nil
		},
	}
}

func newSessionsDeleteCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <session-id>",
		Short: "Delete a stored session",
		Long: "Deletes the session locally. The server-side responses it " +
			"referenced become orphans; run cleanup to delete them remotely.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, *cfgPath)
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			if err := a.facade.DeleteSession(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "session %s deleted\n", args[0])
			return nil
		},
	}
}
