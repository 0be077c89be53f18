// Copyright File2Knowledge Authors
// SPDX-License-Identifier: Apache-2.0

package extractor

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"io"
	"strings"
)

// extractCSV rewrites CSV content as tab-separated text, one row per
// line. Malformed CSV falls back to the raw bytes.
func extractCSV(content []byte) (string, error) {
	reader := csv.NewReader(bytes.NewReader(content))
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1 // allow variable field counts

	var sb strings.Builder
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return string(content), nil
		}
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(strings.Join(record, "\t"))
	}

	return sb.String(), nil
}

// extractJSON pretty-prints a JSON document. Invalid JSON passes
// through unchanged.
func extractJSON(content []byte) (string, error) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, content, "", "  "); err != nil {
		return string(content), nil
	}
	return buf.String(), nil
}
