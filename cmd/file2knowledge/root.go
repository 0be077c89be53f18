// Copyright File2Knowledge Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	var cfgPath string

	cmd := &cobra.Command{
		Use:           "file2knowledge",
		Short:         "Chat over your documents via the Responses API",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	cmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to config file (YAML)")

	cmd.AddCommand(
		newChatCmd(&cfgPath),
		newAskCmd(&cfgPath),
		newLinkCmd(&cfgPath),
		newSessionsCmd(&cfgPath),
		newCleanupCmd(&cfgPath),
		newDeleteCmd(&cfgPath),
	)
	return cmd
}
