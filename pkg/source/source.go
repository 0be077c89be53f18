// Copyright File2Knowledge Authors
// SPDX-License-Identifier: Apache-2.0

// Package source reads local documents destined for the remote file
// store. Backends self-register in the provider registry; the filesystem
// backend lives here, the S3 backend in the s3 subpackage.
package source

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/zumbarq/file2knowledge/pkg/provider"
)

// ErrNotFound is returned when a document does not exist in the source.
var ErrNotFound = errors.New("document not found")

// Source reads document bytes by name.
type Source interface {
	Read(ctx context.Context, name string) ([]byte, error)
}

// Providers is the registry of document source implementations.
var Providers = provider.NewRegistry[Source]("document_source")

func init() {
	Providers.Register("filesystem", func(_ context.Context, params map[string]string) (Source, error) {
		return NewFilesystem(params["base_dir"])
	})
}

// Filesystem reads documents from a local directory tree.
type Filesystem struct {
	baseDir string
}

// NewFilesystem creates a filesystem source rooted at baseDir.
func NewFilesystem(baseDir string) (*Filesystem, error) {
	if baseDir == "" {
		baseDir = "."
	}
	info, err := os.Stat(baseDir)
	if err != nil {
		return nil, fmt.Errorf("source dir %s: %w", baseDir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("source dir %s: not a directory", baseDir)
	}
	return &Filesystem{baseDir: baseDir}, nil
}

// Read returns the document bytes. Absolute names are read as-is,
// relative names resolve against the base directory.
func (f *Filesystem) Read(_ context.Context, name string) ([]byte, error) {
	path := name
	if !filepath.IsAbs(path) {
		path = filepath.Join(f.baseDir, name)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
		}
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return data, nil
}
