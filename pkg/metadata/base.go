package metadata

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// BaseSQLProvider provides common database/sql functionality for providers.
// Embed it in concrete providers to get Close and column queries.
type BaseSQLProvider struct {
	DB     *sql.DB
	Cfg    Config
	Logger *slog.Logger
}

// NewBase returns a base with a logger. A nil logger discards output.
func NewBase(logger *slog.Logger) BaseSQLProvider {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return BaseSQLProvider{Logger: logger}
}

// Close closes the database connection.
func (b *BaseSQLProvider) Close() error {
	if b.DB != nil {
		b.Logger.Debug("closing metadata connection")
		return b.DB.Close()
	}
	return nil
}

// IsConnected returns true if the database connection is established.
func (b *BaseSQLProvider) IsConnected() bool {
	return b.DB != nil
}

// Attach takes ownership of an open database and pings it.
func (b *BaseSQLProvider) Attach(ctx context.Context, db *sql.DB, cfg Config) error {
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}
	b.DB = db
	b.Cfg = cfg
	return nil
}

// QueryColumns runs a query whose first result column is a column name and
// collects the names. No rows means the table does not exist.
func (b *BaseSQLProvider) QueryColumns(ctx context.Context, table, query string, args ...any) ([]string, error) {
	if b.DB == nil {
		return nil, ErrNotConnected
	}

	rows, err := b.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query column metadata: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var columns []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan column metadata: %w", err)
		}
		columns = append(columns, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating column metadata: %w", err)
	}

	if len(columns) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, table)
	}
	b.Logger.Debug("columns loaded", slog.String("table", table), slog.Int("columns", len(columns)))
	return columns, nil
}

// SchemaOr returns schema, or the configured search path, or def.
func (b *BaseSQLProvider) SchemaOr(schema, def string) string {
	switch {
	case schema != "":
		return schema
	case b.Cfg.SearchPath != "":
		return b.Cfg.SearchPath
	}
	return def
}
