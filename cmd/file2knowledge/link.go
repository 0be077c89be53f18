// Copyright File2Knowledge Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zumbarq/file2knowledge/pkg/core/services"
)

func newLinkCmd(cfgPath *string) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "link <document>...",
		Short: "Upload documents and attach them to vector stores",
		Long: "Runs the full provisioning chain per document: upload the " +
			"extracted text, create a vector store, link the file. Existing " +
			"remote objects are reused; the chain stops at the first failure.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, *cfgPath)
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			for _, document := range args {
				res := &services.Resource{Name: name, Document: document}
				ids, err := a.facade.EnsureVectorStoreFileLinked(ctx, res)
				if err != nil {
					return err
				}
				fmt.Fprintf(os.Stdout, "%s\n%s\n", document, ids)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "vector store name (defaults to the document path)")
	return cmd
}
