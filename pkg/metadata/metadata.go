// Package metadata provides schema providers used to expand * into column
// names during lineage analysis.
//
// Providers are looked up by type in a registry. The static provider reads a
// YAML schema file and is always registered; database providers live in
// subpackages and register themselves when imported:
//
//	import _ "github.com/leapstack-labs/sqllineage/pkg/metadata/sqlite"
//
// Metadata is only ever used to name columns. Providers never execute the
// analyzed SQL.
package metadata

import (
	"context"
	"errors"

	"github.com/leapstack-labs/sqllineage/pkg/lineage"
)

// ErrTableNotFound is returned when a provider has no columns for a table.
var ErrTableNotFound = errors.New("table not found")

// ErrNotConnected is returned by providers used before Connect.
var ErrNotConnected = errors.New("metadata provider not connected")

// Config selects and configures a provider.
type Config struct {
	// Type is the registered provider name, e.g. "static" or "postgres".
	Type string `koanf:"type"`
	// DSN is the connection string of database providers.
	DSN string `koanf:"dsn"`
	// SchemaFile is the YAML file of the static provider.
	SchemaFile string `koanf:"schema_file"`
	// SearchPath is the schema used for unqualified tables. Empty means the
	// provider default (public, main).
	SearchPath string `koanf:"search_path"`
}

// Provider supplies the column names of tables.
type Provider interface {
	// Connect prepares the provider for lookups.
	Connect(ctx context.Context, cfg Config) error

	// Columns returns the columns of t in ordinal order, or an error
	// wrapping ErrTableNotFound.
	Columns(ctx context.Context, t lineage.Table) ([]string, error)

	// Close releases resources.
	Close() error
}
