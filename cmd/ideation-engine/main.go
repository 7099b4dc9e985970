// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the ideation-engine CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/ideation-engine/internal/secrets"
	"github.com/pdiddy/ideation-engine/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// secretDefault returns the secret value for key if it exists, or fallback otherwise.
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	if v, ok := loadedSecrets[key]; ok {
		return v
	}
	return ""
}

// rootCmd is the base command for the ideation-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "ideation-engine",
	Short: "Content classification, transformation, and storage for story ideation",
	Long: `ideation-engine manages creative content through a typed development
pipeline. Free text is classified into a content taxonomy (idea, logline,
summary, synopsis, treatment, outline, draft, manuscript), transformed
between taxonomy positions, and persisted to twin mirrors: a SQLite
database and a JSON file tree.

Each concern is a subcommand: classify, transform, db, files, and lineage.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./ideation-engine.yaml or ~/.config/ideation-engine/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("ideation-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "ideation-engine"))
		}
	}

	viper.SetEnvPrefix("IDEATION_ENGINE")
	viper.AutomaticEnv()

	viper.SetDefault("database.path", filepath.Join("ideation", "ideation.db"))
	viper.SetDefault("database.pool_size", 5)
	viper.SetDefault("database.acquire_timeout", "10s")
	viper.SetDefault("files.base_dir", filepath.Join("ideation", "files"))
	viper.SetDefault("batch.max_workers", 4)
	viper.SetDefault("ai.model", "claude-sonnet-4-5-20250929")
	viper.SetDefault("ai.max_retries", 3)

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadConfig resolves the full pipeline configuration from viper.
func loadConfig() types.PipelineConfig {
	ai := types.AIConfig{
		Model:      viper.GetString("ai.model"),
		APIKey:     secretDefault("anthropic-api-key", viper.GetString("ai.api_key")),
		MaxRetries: viper.GetInt("ai.max_retries"),
	}

	acquireTimeout, err := time.ParseDuration(viper.GetString("database.acquire_timeout"))
	if err != nil {
		acquireTimeout = 0
	}

	return types.PipelineConfig{
		Classifier: types.ClassifierConfig{
			AIConfig:  ai,
			EnableLLM: viper.GetBool("classifier.enable_llm"),
		},
		Transformer: types.TransformerConfig{AIConfig: ai},
		Database: types.DatabaseConfig{
			Path:           viper.GetString("database.path"),
			PoolSize:       viper.GetInt("database.pool_size"),
			AcquireTimeout: acquireTimeout,
		},
		Files: types.FilesConfig{
			BaseDir: viper.GetString("files.base_dir"),
		},
		Batch: types.BatchConfig{
			MaxWorkers: viper.GetInt("batch.max_workers"),
		},
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
