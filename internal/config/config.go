// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config loads the repofacts project configuration.
//
// The configuration lives in .repofacts/project.yaml at the repository root
// and is created by `repofacts init`. Values are resolved with the highest
// precedence winning:
//
//	flag > environment > project.yaml > DefaultConfig
//
// Flags are applied by the CLI after Load returns. A .env file next to
// project.yaml is loaded before the environment is read; it never overrides
// variables that are already set.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/kraklabs/repofacts/pkg/ingestion"
	"github.com/kraklabs/repofacts/pkg/llm"
)

const (
	// DirName is the configuration directory under the repository root.
	DirName = ".repofacts"

	// FileName is the project configuration file inside DirName.
	FileName = "project.yaml"

	// CurrentVersion is written to new configuration files.
	CurrentVersion = "1"
)

// Environment variables read by ApplyEnv.
const (
	EnvParserMode    = "REPOFACTS_PARSER_MODE"
	EnvWorkers       = "REPOFACTS_WORKERS"
	EnvLLMProvider   = "LLM_PROVIDER"
	EnvOllamaHost    = "OLLAMA_HOST"
	EnvOllamaModel   = "OLLAMA_MODEL"
	EnvOpenAIKey     = "OPENAI_API_KEY"
	EnvOpenAIBaseURL = "OPENAI_BASE_URL"
	EnvOpenAIModel   = "OPENAI_MODEL"
)

// Config is the content of .repofacts/project.yaml.
type Config struct {
	Version     string         `yaml:"version"`
	ProjectName string         `yaml:"project_name,omitempty"`
	Analysis    AnalysisConfig `yaml:"analysis"`
	Describe    DescribeConfig `yaml:"describe"`
	Output      OutputConfig   `yaml:"output"`

	// LLM selects the provider used by the describer.
	LLM llm.ProviderConfig `yaml:"llm"`
}

// AnalysisConfig controls repository loading and symbol extraction.
type AnalysisConfig struct {
	// ParserMode is auto, treesitter or simplified.
	ParserMode string `yaml:"parser_mode"`

	Workers int `yaml:"workers"`

	// Exclude holds gitignore-style patterns added to the built-in excludes.
	Exclude []string `yaml:"exclude,omitempty"`

	MaxFileSize     int64 `yaml:"max_file_size"`
	IgnoreGitignore bool  `yaml:"ignore_gitignore,omitempty"`
}

// DescribeConfig controls LLM descriptions of undocumented symbols.
type DescribeConfig struct {
	Enabled           bool    `yaml:"enabled"`
	Temperature       float64 `yaml:"temperature"`
	RequestsPerMinute int     `yaml:"requests_per_minute"`
	CacheSize         int     `yaml:"cache_size"`
}

// OutputConfig sets the default document format.
type OutputConfig struct {
	Format string `yaml:"format"`
}

// DefaultMaxFileSize skips files over 1 MiB.
const DefaultMaxFileSize = 1 << 20

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig(projectName string) *Config {
	return &Config{
		Version:     CurrentVersion,
		ProjectName: projectName,
		Analysis: AnalysisConfig{
			ParserMode:  string(ingestion.DefaultParserMode),
			Workers:     ingestion.DefaultWorkers,
			MaxFileSize: DefaultMaxFileSize,
		},
		Describe: DescribeConfig{
			Temperature:       0.2,
			RequestsPerMinute: 60,
		},
		Output: OutputConfig{Format: "json"},
	}
}

// Dir returns the configuration directory for root.
func Dir(root string) string {
	return filepath.Join(root, DirName)
}

// Path returns the configuration file path for root.
func Path(root string) string {
	return filepath.Join(root, DirName, FileName)
}

// LoadConfig reads path and merges it over DefaultConfig. A missing file
// yields an error matching fs.ErrNotExist.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is the user's config file
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := DefaultConfig("")
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Load resolves the configuration for a repository. An explicit path must
// exist; otherwise root's project.yaml is used when present and defaults
// when not. The .env next to the file and the environment are applied last.
func Load(root, explicit string) (*Config, error) {
	path := explicit
	if path == "" {
		path = Path(root)
	}
	if err := LoadEnvFile(filepath.Join(filepath.Dir(path), ".env")); err != nil {
		return nil, err
	}

	cfg, err := LoadConfig(path)
	switch {
	case err == nil:
	case explicit == "" && errors.Is(err, fs.ErrNotExist):
		cfg = DefaultConfig("")
	default:
		return nil, err
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadEnvFile loads variables from a .env file without overriding the
// environment. A missing file is not an error.
func LoadEnvFile(path string) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides cfg with the REPOFACTS_* and LLM variables.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv(EnvParserMode); v != "" {
		c.Analysis.ParserMode = v
	}
	if v := os.Getenv(EnvWorkers); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return fmt.Errorf("%s must be a positive integer, got %q", EnvWorkers, v)
		}
		c.Analysis.Workers = n
	}

	if v := os.Getenv(EnvLLMProvider); v != "" {
		c.LLM.Type = v
	}
	if c.LLM.Type == "" {
		switch {
		case os.Getenv(EnvOllamaHost) != "" || os.Getenv(EnvOllamaModel) != "":
			c.LLM.Type = "ollama"
		case os.Getenv(EnvOpenAIKey) != "":
			c.LLM.Type = "openai"
		}
	}

	switch strings.ToLower(c.LLM.Type) {
	case "ollama", "local":
		setFromEnv(&c.LLM.BaseURL, EnvOllamaHost)
		setFromEnv(&c.LLM.DefaultModel, EnvOllamaModel)
	case "openai", "openai-compatible":
		setFromEnv(&c.LLM.APIKey, EnvOpenAIKey)
		setFromEnv(&c.LLM.BaseURL, EnvOpenAIBaseURL)
		setFromEnv(&c.LLM.DefaultModel, EnvOpenAIModel)
	}
	return c.Validate()
}

func setFromEnv(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// Validate checks values that would otherwise fail deep inside a run.
func (c *Config) Validate() error {
	if _, err := ingestion.ParseParserMode(c.Analysis.ParserMode); err != nil {
		return err
	}
	if c.Analysis.Workers < 0 {
		return fmt.Errorf("analysis.workers must not be negative")
	}
	switch strings.ToLower(c.Output.Format) {
	case "", "json", "yaml", "yml":
	default:
		return fmt.Errorf("output.format %q is not json or yaml", c.Output.Format)
	}
	return nil
}

// HasLLM reports whether a provider has been selected.
func (c *Config) HasLLM() bool {
	return c.LLM.Type != ""
}

// LoadOptions converts the analysis section for the repository loader.
func (c *Config) LoadOptions() ingestion.LoadOptions {
	return ingestion.LoadOptions{
		Excludes:        c.Analysis.Exclude,
		MaxFileSize:     c.Analysis.MaxFileSize,
		IgnoreGitignore: c.Analysis.IgnoreGitignore,
	}
}

// SaveConfig writes cfg to path, creating its directory.
func SaveConfig(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
