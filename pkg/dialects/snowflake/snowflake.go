// Package snowflake provides the Snowflake SQL dialect definition.
package snowflake

import (
	"github.com/leapstack-labs/sqllineage/pkg/dialect"
	"github.com/leapstack-labs/sqllineage/pkg/dialects/ansi"
)

func init() {
	dialect.Register(Snowflake)
}

// Snowflake is the Snowflake SQL dialect. Unquoted identifiers fold to
// uppercase.
var Snowflake = dialect.Extend(ansi.ANSI, "snowflake").
	Describe("Snowflake, QUALIFY, ILIKE, RLIKE and :: casts").
	Identifiers(dialect.NormUppercase).
	DefaultSchema("PUBLIC").
	Clause("QUALIFY").
	AddInfixKeyword("ILIKE", dialect.PrecedenceComparison).
	AddInfixKeyword("RLIKE", dialect.PrecedenceComparison).
	AddInfixKeyword("REGEXP", dialect.PrecedenceComparison).
	Operators(dialect.PostgresCastOperators).
	Keyword("EXCLUDE").
	Aggregates("array_unique_agg", "object_agg", "approx_top_k", "hll", "kurtosis", "skew").
	Generators("sysdate", "uuid_string", "seq4", "seq8").
	TableFunctions("flatten", "generator", "split_to_table", "result_scan").
	Build()
