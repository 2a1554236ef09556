// Package postgres provides a PostgreSQL metadata provider backed by
// information_schema.
//
// Import this package with a blank identifier to register the provider:
//
//	import _ "github.com/leapstack-labs/sqllineage/pkg/metadata/postgres"
package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/leapstack-labs/sqllineage/pkg/lineage"
	"github.com/leapstack-labs/sqllineage/pkg/metadata"
)

// Type is the registry name of the provider.
const Type = "postgres"

func init() {
	metadata.Register(Type, func(logger *slog.Logger) metadata.Provider { return New(logger) })
}

// Provider reads columns from information_schema.columns.
type Provider struct {
	metadata.BaseSQLProvider
}

// New creates a new PostgreSQL provider instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Provider {
	return &Provider{BaseSQLProvider: metadata.NewBase(logger)}
}

// Connect opens a connection pool for cfg.DSN, a URL or key=value string.
func (p *Provider) Connect(ctx context.Context, cfg metadata.Config) error {
	connCfg, err := pgx.ParseConfig(cfg.DSN)
	if err != nil {
		return fmt.Errorf("failed to parse postgres dsn: %w", err)
	}
	p.Logger.Debug("connecting to postgres",
		slog.String("host", connCfg.Host),
		slog.String("database", connCfg.Database),
	)
	return p.Attach(ctx, stdlib.OpenDB(*connCfg), cfg)
}

const columnsQuery = `
	SELECT column_name
	FROM information_schema.columns
	WHERE table_schema = $1 AND table_name = $2
	ORDER BY ordinal_position`

// Columns returns the columns of t. The schema defaults to public.
func (p *Provider) Columns(ctx context.Context, t lineage.Table) ([]string, error) {
	return p.QueryColumns(ctx, t.Key(), columnsQuery, p.SchemaOr(t.Schema, "public"), t.Name)
}
