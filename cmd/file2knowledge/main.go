// Copyright File2Knowledge Authors
// SPDX-License-Identifier: Apache-2.0

// Command file2knowledge chats with an OpenAI-compatible Responses API
// backend over a knowledge base of uploaded documents.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
