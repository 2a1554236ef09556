// Package duckdb provides the DuckDB dialect.
package duckdb

import (
	"github.com/leapstack-labs/sqllineage/pkg/ast"
	"github.com/leapstack-labs/sqllineage/pkg/dialect"
	"github.com/leapstack-labs/sqllineage/pkg/dialects/ansi"
	"github.com/leapstack-labs/sqllineage/pkg/token"
)

func init() {
	dialect.Register(DuckDB)
}

// DuckDB-specific join tokens
var (
	TokenSemi       = token.Register("SEMI")
	TokenAnti       = token.Register("ANTI")
	TokenAsof       = token.Register("ASOF")
	TokenPositional = token.Register("POSITIONAL")
)

var duckdbJoinTypes = []dialect.JoinTypeDef{
	{Token: TokenSemi, Type: ast.JoinType("SEMI"), RequiresOn: true, AllowsUsing: true},
	{Token: TokenAnti, Type: ast.JoinType("ANTI"), RequiresOn: true, AllowsUsing: true},
	{Token: TokenAsof, Type: ast.JoinType("ASOF"), RequiresOn: true, AllowsUsing: true},
	{Token: TokenPositional, Type: ast.JoinType("POSITIONAL")},
}

// DuckDB is the DuckDB dialect.
var DuckDB = dialect.Extend(ansi.ANSI, "duckdb").
	Describe("DuckDB, QUALIFY, ILIKE, :: casts and file table functions").
	Identifiers(dialect.NormCaseInsensitive).
	DefaultSchema("main").
	Clause("QUALIFY").
	AddInfixKeyword("ILIKE", dialect.PrecedenceComparison).
	Operators(dialect.PostgresCastOperators).
	Keyword("SEMI").Keyword("ANTI").Keyword("ASOF").Keyword("POSITIONAL").Keyword("EXCLUDE").
	JoinTypes(duckdbJoinTypes).
	Aggregates("list", "histogram", "arg_max", "arg_min", "first", "last", "product", "quantile").
	TableFunctions(
		"read_csv", "read_csv_auto", "read_parquet", "read_json", "read_json_auto",
		"generate_series", "range", "unnest", "glob",
	).
	Build()
