package runner

import (
	"context"
	"log/slog"

	"github.com/leapstack-labs/sqllineage/pkg/dialect"
	"github.com/leapstack-labs/sqllineage/pkg/lineage"
	"github.com/leapstack-labs/sqllineage/pkg/metadata"
	"github.com/leapstack-labs/sqllineage/pkg/syntax"
)

// DefaultDialect is used when no dialect is configured.
const DefaultDialect = "ansi"

// Option configures a Runner.
type Option func(*Runner)

// WithDialect selects a registered dialect by name.
func WithDialect(name string) Option {
	return func(r *Runner) {
		r.dialectName = name
	}
}

// WithDialectValue uses d directly, bypassing the registry.
func WithDialectValue(d *dialect.Dialect) Option {
	return func(r *Runner) {
		r.dialect = d
	}
}

// WithDefaultSchema qualifies unqualified tables with schema.
func WithDefaultSchema(schema string) Option {
	return func(r *Runner) {
		r.defaultSchema = schema
	}
}

// WithColumnLookup expands * through l.
func WithColumnLookup(l lineage.ColumnLookup) Option {
	return func(r *Runner) {
		r.lookup = l
	}
}

// WithMetadata expands * through a metadata provider. Lookups use the
// runner's context.
func WithMetadata(p metadata.Provider) Option {
	return func(r *Runner) {
		r.provider = p
	}
}

// WithBackend overrides the syntax backend chosen from the dialect.
func WithBackend(b syntax.Backend) Option {
	return func(r *Runner) {
		r.backend = b
	}
}

// WithLogger sets the logger. A nil logger discards output.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithContext sets the context handed to metadata lookups.
func WithContext(ctx context.Context) Option {
	return func(r *Runner) {
		r.ctx = ctx
	}
}
