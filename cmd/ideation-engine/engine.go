// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/pdiddy/ideation-engine/internal/classify"
	"github.com/pdiddy/ideation-engine/internal/files"
	"github.com/pdiddy/ideation-engine/internal/pipeline"
	"github.com/pdiddy/ideation-engine/internal/store"
	"github.com/pdiddy/ideation-engine/internal/transform"
	"github.com/pdiddy/ideation-engine/pkg/types"
)

// engine bundles the wired component stack behind the CLI commands.
// The AI caller is nil: generative strategies report the missing
// backend as failed results, everything else runs locally.
type engine struct {
	cfg         types.PipelineConfig
	manager     *store.Manager
	db          *store.IdeationDatabase
	files       *files.Manager
	classifier  *classify.Classifier
	transformer *transform.Transformer
	pipeline    *pipeline.Pipeline
}

func openEngine() (*engine, error) {
	cfg := loadConfig()

	manager, err := store.NewManager(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	fm, err := files.NewManager(cfg.Files)
	if err != nil {
		manager.Close()
		return nil, fmt.Errorf("opening file tree: %w", err)
	}

	db := store.NewIdeationDatabase(manager)
	classifier := classify.New(nil, cfg.Classifier)
	transformer := transform.New(nil, classifier, cfg.Transformer)

	return &engine{
		cfg:         cfg,
		manager:     manager,
		db:          db,
		files:       fm,
		classifier:  classifier,
		transformer: transformer,
		pipeline:    pipeline.New(classifier, transformer, db, fm, cfg.Batch),
	}, nil
}

func (e *engine) close() {
	e.manager.Close()
}

// readContent loads free text from a file path, or stdin when the path
// is "-" or empty.
func readContent(path string) (string, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(data), nil
}

// printJSON writes v as indented JSON to stdout.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
