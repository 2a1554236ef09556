// Package tsql provides the Transact-SQL dialect (SQL Server, Synapse).
//
// Statements may follow each other without a terminator and batches are
// separated by GO on its own line.
package tsql

import (
	"github.com/leapstack-labs/sqllineage/pkg/dialect"
	"github.com/leapstack-labs/sqllineage/pkg/dialects/ansi"
)

func init() {
	dialect.Register(TSQL)
}

// TSQL is the Transact-SQL dialect.
var TSQL = dialect.Extend(ansi.ANSI, "tsql").
	Describe("Transact-SQL, GO batches, implicit statement boundaries").
	Identifiers(dialect.NormCaseInsensitive,
		dialect.QuotePair{Open: '"', Close: '"'},
		dialect.QuotePair{Open: '[', Close: ']'},
	).
	DefaultSchema("dbo").
	BatchSeparator("GO").
	Clause("TOP").
	Aggregates("count_big", "checksum_agg", "stdev", "stdevp", "var", "varp", "grouping_id").
	Generators("getdate", "getutcdate", "sysdatetime", "newid", "newsequentialid").
	TableFunctions("openjson", "string_split", "openrowset", "openquery").
	Build()
