// Copyright File2Knowledge Authors
// SPDX-License-Identifier: Apache-2.0

// Package extractor converts documents to plain text before upload, so
// the remote vector store indexes readable content instead of raw bytes.
package extractor

import (
	"path/filepath"
	"strings"
)

// Extract converts document content to plain text based on the file
// extension. Unsupported formats pass through as-is.
func Extract(content []byte, filename string) (string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return extractPDF(content)
	case ".html", ".htm":
		return extractHTML(content)
	case ".csv":
		return extractCSV(content)
	case ".json":
		return extractJSON(content)
	default:
		return string(content), nil
	}
}

// UploadName returns the filename the extracted text is uploaded under.
// Formats that were converted get a .txt suffix so the remote store
// treats them as text.
func UploadName(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf", ".html", ".htm", ".csv":
		return filepath.Base(filename) + ".txt"
	default:
		return filepath.Base(filename)
	}
}
