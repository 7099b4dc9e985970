// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// AIConfig holds shared settings for components that call a Generative
// AI API.
type AIConfig struct {
	// Model is the AI model identifier (e.g. "claude-sonnet-4-5-20250929").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the AI API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxRetries is the number of retry attempts for failed API calls
	// (default 3). Retries apply at the calling shim, never inside the
	// classifier or transformer.
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// ClassifierConfig holds settings for the content classifier.
type ClassifierConfig struct {
	AIConfig `yaml:",inline"`

	// EnableLLM controls whether the LLM pass runs in addition to the
	// word-count heuristic.
	EnableLLM bool `json:"enable_llm" yaml:"enable_llm"`
}

// TransformerConfig holds settings for the content transformer.
type TransformerConfig struct {
	AIConfig `yaml:",inline"`
}

// DatabaseConfig holds settings for the SQLite storage layer.
type DatabaseConfig struct {
	// Path is the SQLite database file (e.g. "ideation/ideation.db").
	Path string `json:"path" yaml:"path"`

	// PoolSize caps concurrent connections (default 5).
	PoolSize int `json:"pool_size" yaml:"pool_size"`

	// AcquireTimeout bounds the wait for a free connection (default 10s).
	AcquireTimeout time.Duration `json:"acquire_timeout" yaml:"acquire_timeout"`
}

// FilesConfig holds settings for the file-tree persistence mirror.
type FilesConfig struct {
	// BaseDir is the root of the file tree (contains objects/,
	// tournaments/, series/, exports/, backups/, temp/).
	BaseDir string `json:"base_dir" yaml:"base_dir"`
}

// BatchConfig holds settings for the batch orchestration layer.
type BatchConfig struct {
	// MaxWorkers caps concurrent transformations in a parallel batch
	// (default 4).
	MaxWorkers int `json:"max_workers" yaml:"max_workers"`
}

// PipelineConfig groups all component configurations.
type PipelineConfig struct {
	Classifier  ClassifierConfig  `json:"classifier" yaml:"classifier"`
	Transformer TransformerConfig `json:"transformer" yaml:"transformer"`
	Database    DatabaseConfig    `json:"database" yaml:"database"`
	Files       FilesConfig       `json:"files" yaml:"files"`
	Batch       BatchConfig       `json:"batch" yaml:"batch"`
}
