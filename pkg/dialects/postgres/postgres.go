// Package postgres provides the PostgreSQL dialect.
package postgres

import (
	"github.com/leapstack-labs/sqllineage/pkg/dialect"
	"github.com/leapstack-labs/sqllineage/pkg/dialects/ansi"
)

func init() {
	dialect.Register(Postgres)
}

// Postgres is the PostgreSQL dialect.
var Postgres = dialect.Extend(ansi.ANSI, "postgres").
	Describe("PostgreSQL, ILIKE and :: casts").
	DefaultSchema("public").
	AddInfixKeyword("ILIKE", dialect.PrecedenceComparison).
	Operators(dialect.PostgresCastOperators).
	Aggregates("jsonb_agg", "json_agg", "jsonb_object_agg", "json_object_agg", "bit_and", "bit_or").
	Generators("clock_timestamp", "statement_timestamp", "transaction_timestamp", "timeofday").
	TableFunctions("generate_series", "unnest", "jsonb_each", "json_each", "jsonb_array_elements", "regexp_split_to_table").
	Build()
