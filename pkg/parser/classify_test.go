package parser_test

import (
	"testing"

	"github.com/leapstack-labs/sqllineage/pkg/ast"
	"github.com/leapstack-labs/sqllineage/pkg/dialects/ansi"
	"github.com/leapstack-labs/sqllineage/pkg/dialects/tsql"
	"github.com/leapstack-labs/sqllineage/pkg/parser"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		sql  string
		want ast.Kind
	}{
		{"", ast.KindUnknown},
		{"-- only a comment", ast.KindUnknown},
		{"SELECT a FROM t", ast.KindQuery},
		{"select * into tgt from src", ast.KindSelectInto},
		{"SELECT (SELECT x INTO y) FROM t", ast.KindQuery},
		{"WITH c AS (SELECT 1) INSERT INTO t SELECT * FROM c", ast.KindInsert},
		{"WITH c AS (SELECT 1) SELECT * FROM c", ast.KindQuery},
		{"INSERT INTO t VALUES (1)", ast.KindInsert},
		{"UPDATE t SET a = 1", ast.KindUpdate},
		{"DELETE FROM t", ast.KindDelete},
		{"MERGE INTO t USING s ON 1 = 1", ast.KindMerge},
		{"CREATE TABLE t (a INT)", ast.KindCreateTable},
		{"CREATE OR REPLACE TABLE t AS SELECT 1", ast.KindCreateTableAs},
		{"CREATE TEMPORARY TABLE t LIKE s", ast.KindCreateTableAs},
		{"CREATE VIEW v AS SELECT 1", ast.KindCreateView},
		{"CREATE MATERIALIZED VIEW v AS SELECT 1", ast.KindCreateView},
		{"CREATE UNIQUE INDEX i ON t (a)", ast.KindCreateIndex},
		{"CREATE SCHEMA s", ast.KindCreateSchema},
		{"CREATE FUNCTION f() RETURNS INT", ast.KindCreateOther},
		{"ALTER TABLE a RENAME TO b", ast.KindAlterRename},
		{"ALTER TABLE a ADD COLUMN b INT", ast.KindAlter},
		{"DROP TABLE t", ast.KindDrop},
		{"TRUNCATE TABLE t", ast.KindTruncate},
		{"COMMIT", ast.KindTransaction},
		{"GRANT SELECT ON t TO r", ast.KindGrant},
		{"WRONG SELECT FROM t", ast.KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.sql, func(t *testing.T) {
			assert.Equal(t, tt.want, parser.Classify(tt.sql, ansi.ANSI))
		})
	}
}

func TestClassifyDialectWords(t *testing.T) {
	assert.Equal(t, ast.KindUse, parser.Classify("USE analytics", tsql.TSQL))
	assert.Equal(t, ast.KindSetVar, parser.Classify("DECLARE @n INT", tsql.TSQL))
}

func TestClassifyStopsAtTerminator(t *testing.T) {
	assert.Equal(t, ast.KindQuery, parser.Classify("SELECT 1; SELECT 2 INTO x", ansi.ANSI))
}
