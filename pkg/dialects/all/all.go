// Package all registers every built-in dialect.
package all

import (
	// Register dialects.
	_ "github.com/leapstack-labs/sqllineage/pkg/dialects/ansi"
	_ "github.com/leapstack-labs/sqllineage/pkg/dialects/databricks"
	_ "github.com/leapstack-labs/sqllineage/pkg/dialects/duckdb"
	_ "github.com/leapstack-labs/sqllineage/pkg/dialects/nonvalidating"
	_ "github.com/leapstack-labs/sqllineage/pkg/dialects/postgres"
	_ "github.com/leapstack-labs/sqllineage/pkg/dialects/snowflake"
	_ "github.com/leapstack-labs/sqllineage/pkg/dialects/tsql"
)
