// Package config provides configuration management for the sqllineage CLI.
//
// Values are layered from defaults, a sqllineage.yaml file, SQLLINEAGE_
// environment variables and explicitly set flags, in increasing priority.
package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/leapstack-labs/sqllineage/pkg/metadata"
)

// Config holds all CLI configuration options.
type Config struct {
	Dialect       string `koanf:"dialect"`
	DefaultSchema string `koanf:"default_schema"`
	// Level is "table" or "column".
	Level        string `koanf:"level"`
	OutputFormat string `koanf:"output"`
	Intermediate bool   `koanf:"intermediate"`
	Verbose      bool   `koanf:"verbose"`
	LogLevel     string `koanf:"log_level"`
	LogFormat    string `koanf:"log_format"`
	// Concurrency bounds how many files are analyzed at once.
	Concurrency int `koanf:"concurrency"`
	// Extensions selects the files analyzed when a directory is given.
	Extensions []string `koanf:"extensions"`
	// SearchPath is the schema metadata lookups use for unqualified tables.
	SearchPath string          `koanf:"search_path"`
	Metadata   metadata.Config `koanf:"metadata"`
}

// Default configuration values.
const (
	DefaultConfigName  = "sqllineage"
	DefaultDialect     = "ansi"
	DefaultLevel       = LevelTable
	DefaultOutput      = "auto" // Auto-detect: TTY=text, non-TTY=markdown
	DefaultLogLevel    = "warn"
	DefaultLogFormat   = "text"
	DefaultConcurrency = 4
	DefaultExtensions  = "sql"
	EnvPrefix          = "SQLLINEAGE_"
)

// Lineage levels.
const (
	LevelTable  = "table"
	LevelColumn = "column"
)

// Levels lists the accepted lineage levels.
var Levels = []string{LevelTable, LevelColumn}

// LogFormats lists the accepted log formats.
var LogFormats = []string{"text", "json"}

// Validate checks the configuration for values the commands cannot use.
func (c *Config) Validate() error {
	if !slices.Contains(Levels, c.Level) {
		return fmt.Errorf("invalid level %q: expected one of %s", c.Level, strings.Join(Levels, ", "))
	}
	if !slices.Contains(LogFormats, c.LogFormat) {
		return fmt.Errorf("invalid log_format %q: expected one of %s", c.LogFormat, strings.Join(LogFormats, ", "))
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency)
	}
	if c.Metadata.Type != "" && !metadata.IsRegistered(c.Metadata.Type) {
		return &metadata.UnknownProviderError{Type: c.Metadata.Type, Available: metadata.List()}
	}
	return nil
}

// ColumnLevel reports whether column lineage was requested.
func (c *Config) ColumnLevel() bool {
	return c.Level == LevelColumn
}

// MetadataConfig returns the metadata settings with the search path applied.
func (c *Config) MetadataConfig() metadata.Config {
	m := c.Metadata
	if m.SearchPath == "" {
		m.SearchPath = c.SearchPath
	}
	return m
}

// Default returns a Config populated with default values.
func Default() *Config {
	return &Config{
		Dialect:      DefaultDialect,
		Level:        DefaultLevel,
		OutputFormat: DefaultOutput,
		LogLevel:     DefaultLogLevel,
		LogFormat:    DefaultLogFormat,
		Concurrency:  DefaultConcurrency,
		Extensions:   []string{DefaultExtensions},
	}
}
