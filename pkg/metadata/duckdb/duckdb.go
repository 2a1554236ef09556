// Package duckdb provides a DuckDB metadata provider backed by
// information_schema.
//
// Import this package with a blank identifier to register the provider:
//
//	import _ "github.com/leapstack-labs/sqllineage/pkg/metadata/duckdb"
package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/sqllineage/pkg/lineage"
	"github.com/leapstack-labs/sqllineage/pkg/metadata"

	_ "github.com/marcboeker/go-duckdb" // duckdb driver
)

// Type is the registry name of the provider.
const Type = "duckdb"

func init() {
	metadata.Register(Type, func(logger *slog.Logger) metadata.Provider { return New(logger) })
}

// Provider reads columns from information_schema.columns.
type Provider struct {
	metadata.BaseSQLProvider
}

// New creates a new DuckDB provider instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Provider {
	return &Provider{BaseSQLProvider: metadata.NewBase(logger)}
}

// Connect opens the database file named by cfg.DSN.
// Use ":memory:" or an empty DSN for an in-memory database.
func (p *Provider) Connect(ctx context.Context, cfg metadata.Config) error {
	path := cfg.DSN
	if path == "" {
		path = ":memory:"
	}
	p.Logger.Debug("connecting to duckdb", slog.String("path", path))

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return fmt.Errorf("failed to open duckdb database: %w", err)
	}
	return p.Attach(ctx, db, cfg)
}

const columnsQuery = `
	SELECT column_name
	FROM information_schema.columns
	WHERE lower(table_schema) = lower(?) AND lower(table_name) = lower(?)
	ORDER BY ordinal_position`

// Columns returns the columns of t. The schema defaults to main.
func (p *Provider) Columns(ctx context.Context, t lineage.Table) ([]string, error) {
	return p.QueryColumns(ctx, t.Key(), columnsQuery, p.SchemaOr(t.Schema, "main"), t.Name)
}
