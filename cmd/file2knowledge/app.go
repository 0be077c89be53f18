// Copyright File2Knowledge Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/zumbarq/file2knowledge/pkg/core/api"
	"github.com/zumbarq/file2knowledge/pkg/core/config"
	"github.com/zumbarq/file2knowledge/pkg/core/engine"
	"github.com/zumbarq/file2knowledge/pkg/core/facade"
	"github.com/zumbarq/file2knowledge/pkg/core/services"
	"github.com/zumbarq/file2knowledge/pkg/core/state"
	"github.com/zumbarq/file2knowledge/pkg/core/tracker"
	"github.com/zumbarq/file2knowledge/pkg/observability/logging"
	"github.com/zumbarq/file2knowledge/pkg/source"

	// Session store backends self-register on import.
	_ "github.com/zumbarq/file2knowledge/pkg/storage/file"
	_ "github.com/zumbarq/file2knowledge/pkg/storage/memory"
	_ "github.com/zumbarq/file2knowledge/pkg/storage/postgres"
	_ "github.com/zumbarq/file2knowledge/pkg/storage/sqlite"

	// Document source backends self-register on import.
	_ "github.com/zumbarq/file2knowledge/pkg/source/s3"
)

// defaultInstructions is the system message sent on every turn.
const defaultInstructions = "You are a helpful assistant. Answer using the " +
	"provided documents when relevant and cite your sources."

// app holds the fully wired application core plus the terminal sinks.
type app struct {
	cfg    *config.Config
	logger *logging.Logger
	store  state.SessionStore
	facade *facade.Facade
	sinks  *terminalSinks
}

// newApp loads configuration and wires every component. Any failure here
// is fatal to the command.
func newApp(ctx context.Context, cfgPath string) (*app, error) {
	var cfg *config.Config
	if cfgPath != "" {
		loaded, err := config.Load(cfgPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		cfg = config.Default()
	}

	logger, err := logging.New(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		File:   cfg.Logging.File,
	})
	if err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}

	store, err := state.Providers.New(ctx, cfg.Storage.Type, map[string]string{
		"path": cfg.Storage.Path,
		"dsn":  cfg.Storage.DSN,
	})
	if err != nil {
		return nil, fmt.Errorf("init session store: %w", err)
	}

	src, err := source.Providers.New(ctx, cfg.Source.Type, map[string]string{
		"base_dir": cfg.Source.BaseDir,
		"bucket":   cfg.Source.Bucket,
		"region":   cfg.Source.Region,
		"prefix":   cfg.Source.Prefix,
		"endpoint": cfg.Source.Endpoint,
	})
	if err != nil {
		return nil, fmt.Errorf("init document source: %w", err)
	}

	trk := tracker.New(cfg.Storage.TrackerLog)
	responses := api.NewHTTPResponsesClient(cfg.API.Endpoint, cfg.API.APIKey)
	resources := api.NewOpenAIResourceClient(cfg.API.Endpoint, cfg.API.APIKey)
	builder := engine.NewRequestBuilder(cfg.Models, defaultInstructions)
	sinks := newTerminalSinks(os.Stdout)

	eng := engine.New(engine.Options{
		Client:  responses,
		Store:   store,
		Tracker: trk,
		Sinks:   sinks.set,
		Builder: builder,
		Logger:  logger,
		Timeout: cfg.API.Timeout,
	})

	fac := facade.New(facade.Options{
		Engine:    eng,
		Builder:   builder,
		Responses: responses,
		Resources: resources,
		Linker:    services.NewLinker(resources, src, logger),
		Cleaner:   services.NewCleaner(resources, store, trk, logger),
		Store:     store,
		Logger:    logger,
	})

	return &app{cfg: cfg, logger: logger, store: store, facade: fac, sinks: sinks}, nil
}

// Close releases the store and the log file.
func (a *app) Close(ctx context.Context) {
	if err := a.store.Close(ctx); err != nil {
		a.logger.Error("close session store", "error", err)
	}
	_ = a.logger.Close()
}

// modes merges the configured feature defaults with command-line
// overrides.
func (a *app) modes(webSearch, noFileSearch, reasoning bool) engine.FeatureModes {
	m := engine.FeatureModes{
		WebSearch:          a.cfg.Features.WebSearch,
		FileSearchDisabled: a.cfg.Features.FileSearchDisabled,
		Reasoning:          a.cfg.Features.Reasoning,
	}
	if webSearch {
		m.WebSearch = true
	}
	if noFileSearch {
		m.FileSearchDisabled = true
	}
	if reasoning {
		m.Reasoning = true
	}
	return m
}
