// Package sqlite provides a SQLite metadata provider.
//
// Import this package with a blank identifier to register the provider:
//
//	import _ "github.com/leapstack-labs/sqllineage/pkg/metadata/sqlite"
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/sqllineage/pkg/lineage"
	"github.com/leapstack-labs/sqllineage/pkg/metadata"

	_ "modernc.org/sqlite" // sqlite driver
)

// Type is the registry name of the provider.
const Type = "sqlite"

func init() {
	metadata.Register(Type, func(logger *slog.Logger) metadata.Provider { return New(logger) })
}

// Provider reads columns through pragma_table_info.
type Provider struct {
	metadata.BaseSQLProvider
}

// New creates a new SQLite provider instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Provider {
	return &Provider{BaseSQLProvider: metadata.NewBase(logger)}
}

// Connect opens the database file named by cfg.DSN. An empty DSN opens an
// in-memory database.
func (p *Provider) Connect(ctx context.Context, cfg metadata.Config) error {
	path := cfg.DSN
	if path == "" {
		path = ":memory:"
	}
	p.Logger.Debug("connecting to sqlite", slog.String("path", path))

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}
	return p.Attach(ctx, db, cfg)
}

const columnsQuery = `SELECT name FROM pragma_table_info(?, ?) ORDER BY cid`

// Columns returns the columns of t. The schema defaults to main.
func (p *Provider) Columns(ctx context.Context, t lineage.Table) ([]string, error) {
	return p.QueryColumns(ctx, t.Key(), columnsQuery, t.Name, p.SchemaOr(t.Schema, "main"))
}
