// Package databricks provides the Databricks / Spark SQL dialect definition.
package databricks

import (
	"github.com/leapstack-labs/sqllineage/pkg/ast"
	"github.com/leapstack-labs/sqllineage/pkg/dialect"
	"github.com/leapstack-labs/sqllineage/pkg/dialects/ansi"
	"github.com/leapstack-labs/sqllineage/pkg/token"
)

func init() {
	dialect.Register(Databricks)
}

// Databricks is the Databricks SQL dialect.
var Databricks = dialect.Extend(ansi.ANSI, "databricks").
	Describe("Databricks / Spark SQL, backtick identifiers, INSERT OVERWRITE").
	Identifiers(dialect.NormCaseInsensitive, dialect.QuotePair{Open: '`', Close: '`'}).
	DefaultSchema("default").
	Clause("QUALIFY").
	AddInfixKeyword("ILIKE", dialect.PrecedenceComparison).
	AddInfixKeyword("RLIKE", dialect.PrecedenceComparison).
	Operators(dialect.PostgresCastOperators).
	Keyword("SEMI").Keyword("ANTI").Keyword("EXCLUDE").
	JoinTypes([]dialect.JoinTypeDef{
		{Token: token.Register("SEMI"), Type: ast.JoinType("SEMI"), RequiresOn: true, AllowsUsing: true},
		{Token: token.Register("ANTI"), Type: ast.JoinType("ANTI"), RequiresOn: true, AllowsUsing: true},
	}).
	Aggregates("collect_list", "collect_set", "first", "last", "max_by", "min_by", "count_if").
	Generators("current_user", "monotonically_increasing_id", "rand").
	TableFunctions("explode", "posexplode", "inline", "range", "read_files").
	Build()
