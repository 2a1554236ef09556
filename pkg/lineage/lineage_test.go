package lineage_test

import (
	"testing"

	"github.com/leapstack-labs/sqllineage/internal/testutil"
	"github.com/leapstack-labs/sqllineage/pkg/ast"
	"github.com/leapstack-labs/sqllineage/pkg/diag"
	"github.com/leapstack-labs/sqllineage/pkg/dialect"
	"github.com/leapstack-labs/sqllineage/pkg/dialects/ansi"
	"github.com/leapstack-labs/sqllineage/pkg/dialects/postgres"
	"github.com/leapstack-labs/sqllineage/pkg/dialects/tsql"
	"github.com/leapstack-labs/sqllineage/pkg/lineage"
	"github.com/leapstack-labs/sqllineage/pkg/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func analyze(t *testing.T, sql string, d *dialect.Dialect, opts ...lineage.Option) *lineage.Fact {
	t.Helper()
	stmt, err := parser.ParseWithDialect(sql, d)
	require.NoError(t, err)

	opts = append([]lineage.Option{
		lineage.WithDialect(d),
		lineage.WithLogger(testutil.NewTestLogger(t)),
	}, opts...)
	fact, err := lineage.Analyze(stmt, stmt.Kind(), opts...)
	require.NoError(t, err)
	return fact
}

func schema(tables map[string][]string) lineage.ColumnLookup {
	return lineage.ColumnLookupFunc(func(t lineage.Table) ([]string, bool) {
		cols, ok := tables[t.Key()]
		return cols, ok
	})
}

func refs(pairs ...string) []lineage.ColumnRef {
	out := make([]lineage.ColumnRef, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, lineage.ColumnRef{Table: pairs[i], Column: pairs[i+1]})
	}
	return out
}

func column(t *testing.T, f *lineage.Fact, name string) *lineage.Column {
	t.Helper()
	c, ok := f.Column(name)
	require.True(t, ok, "missing column %q, have %v", name, f.ColumnNames())
	return c
}

func TestReadsAndWrites(t *testing.T) {
	tests := []struct {
		name   string
		sql    string
		d      *dialect.Dialect
		reads  []string
		writes []string
	}{
		{"select", "SELECT a FROM t", ansi.ANSI, []string{"t"}, []string{}},
		{"insert select", "INSERT INTO tgt SELECT * FROM src", ansi.ANSI, []string{"src"}, []string{"tgt"}},
		{"insert self", "INSERT INTO t SELECT * FROM t", ansi.ANSI, []string{"t"}, []string{"t"}},
		{"insert values", "INSERT INTO t (a) VALUES (1)", ansi.ANSI, []string{}, []string{"t"}},
		{"insert values subquery", "INSERT INTO t (a) VALUES ((SELECT max(a) FROM s))", ansi.ANSI, []string{"s"}, []string{"t"}},
		{"insert overwrite directory", "INSERT OVERWRITE DIRECTORY 's3://b/out' SELECT * FROM src", ansi.ANSI, []string{"src"}, []string{}},
		{"with insert", "WITH c AS (SELECT a FROM src) INSERT INTO tgt SELECT a FROM c", ansi.ANSI, []string{"src"}, []string{"tgt"}},
		{"cte shadows table", "WITH orders AS (SELECT * FROM raw.orders) SELECT * FROM orders", ansi.ANSI, []string{"raw.orders"}, []string{}},
		{"cte sees earlier cte", "WITH a AS (SELECT x FROM t1), b AS (SELECT x FROM a JOIN t2 ON a.x = t2.x) SELECT * FROM b", ansi.ANSI, []string{"t1", "t2"}, []string{}},
		{"derived table", "SELECT x.a FROM (SELECT a FROM s1 JOIN s2 ON s1.id = s2.id) x", ansi.ANSI, []string{"s1", "s2"}, []string{}},
		{"nested join", "SELECT * FROM (a JOIN b ON a.id = b.id)", ansi.ANSI, []string{"a", "b"}, []string{}},
		{"lateral", "SELECT l.b FROM t, LATERAL (SELECT b FROM u WHERE u.id = t.id) l", postgres.Postgres, []string{"t", "u"}, []string{}},
		{"filter subqueries", "SELECT a FROM t WHERE b IN (SELECT b FROM u) AND EXISTS (SELECT 1 FROM v WHERE v.x = t.x)", ansi.ANSI, []string{"t", "u", "v"}, []string{}},
		{"scalar subquery", "SELECT (SELECT max(b) FROM u) AS m FROM t", ansi.ANSI, []string{"t", "u"}, []string{}},
		{"join condition subquery", "SELECT * FROM a JOIN b ON b.id = (SELECT min(id) FROM c)", ansi.ANSI, []string{"a", "b", "c"}, []string{}},
		{"union", "SELECT a FROM x UNION ALL SELECT a FROM y", ansi.ANSI, []string{"x", "y"}, []string{}},
		{"create table as", "CREATE TABLE tgt AS SELECT a FROM s", ansi.ANSI, []string{"s"}, []string{"tgt"}},
		{"create table like", "CREATE TABLE t LIKE s", ansi.ANSI, []string{"s"}, []string{"t"}},
		{"create table", "CREATE TABLE t (id INT)", ansi.ANSI, []string{}, []string{"t"}},
		{"create view", "CREATE VIEW v AS SELECT a FROM t", ansi.ANSI, []string{"t"}, []string{"v"}},
		{"select into", "SELECT * INTO tgt FROM src", tsql.TSQL, []string{"src"}, []string{"tgt"}},
		{"update from", "UPDATE t SET a = s.a FROM s WHERE t.id = s.id", postgres.Postgres, []string{"s"}, []string{"t"}},
		{"update subquery", "UPDATE t SET a = 1 WHERE id IN (SELECT id FROM s)", ansi.ANSI, []string{"s"}, []string{"t"}},
		{"merge", "MERGE INTO tgt t USING src s ON t.id = s.id WHEN MATCHED THEN UPDATE SET v = s.v", ansi.ANSI, []string{"src"}, []string{"tgt"}},
		{"merge derived source", "MERGE INTO tgt t USING (SELECT id, v FROM src) s ON t.id = s.id WHEN MATCHED THEN DELETE", ansi.ANSI, []string{"src"}, []string{"tgt"}},
		{"alter rename", "ALTER TABLE s.a RENAME TO s.b", ansi.ANSI, []string{"s.a"}, []string{"s.b"}},
		{"normalized names", "SELECT A FROM Sales.Orders JOIN sales.orders o2 ON 1 = 1", ansi.ANSI, []string{"sales.orders"}, []string{}},
		{"recursive cte", `WITH RECURSIVE r AS (
				SELECT id FROM nodes
				UNION ALL
				SELECT n.id FROM nodes n JOIN r ON n.parent = r.id
			) SELECT id FROM r`, ansi.ANSI, []string{"nodes"}, []string{}},
		{"table function", "SELECT * FROM generate_series(1, 10) g", postgres.Postgres, []string{}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := analyze(t, tt.sql, tt.d)
			assert.Equal(t, tt.reads, f.ReadKeys())
			assert.Equal(t, tt.writes, f.WriteKeys())
		})
	}
}

func TestColumnTransforms(t *testing.T) {
	f := analyze(t, `SELECT o.id, o.amount * 2 AS doubled, SUM(o.amount) AS total,
		now() AS ts, row_number() OVER (ORDER BY o.id) AS rn, 'x' AS lit
		FROM orders o GROUP BY o.id`, postgres.Postgres)

	assert.Equal(t, []string{"id", "doubled", "total", "ts", "rn", "lit"}, f.ColumnNames())

	id := column(t, f, "id")
	assert.Equal(t, lineage.TransformDirect, id.Transform)
	assert.Equal(t, refs("orders", "id"), id.Sources)

	doubled := column(t, f, "doubled")
	assert.Equal(t, lineage.TransformExpression, doubled.Transform)
	assert.Equal(t, refs("orders", "amount"), doubled.Sources)

	total := column(t, f, "total")
	assert.Equal(t, lineage.TransformAggregate, total.Transform)
	assert.Equal(t, "sum", total.Function)
	assert.Equal(t, refs("orders", "amount"), total.Sources)

	ts := column(t, f, "ts")
	assert.Equal(t, lineage.TransformGenerator, ts.Transform)
	assert.Empty(t, ts.Sources)

	rn := column(t, f, "rn")
	assert.Equal(t, "row_number", rn.Function)
	assert.Equal(t, refs("orders", "id"), rn.Sources)

	assert.Empty(t, column(t, f, "lit").Sources)
}

func TestColumnLineageThroughSubQueries(t *testing.T) {
	tests := []struct {
		name   string
		sql    string
		column string
		want   []lineage.ColumnRef
	}{
		{
			name:   "cte with insert column list",
			sql:    "WITH c AS (SELECT id, amount * 2 AS amt FROM orders) INSERT INTO tgt (order_id, value) SELECT id, amt FROM c",
			column: "value",
			want:   refs("orders", "amount"),
		},
		{
			name:   "cte column list",
			sql:    "WITH c (x) AS (SELECT a FROM t) SELECT x FROM c",
			column: "x",
			want:   refs("t", "a"),
		},
		{
			name:   "derived table",
			sql:    "SELECT d.c FROM (SELECT a, b + 1 AS c FROM t) d",
			column: "c",
			want:   refs("t", "b"),
		},
		{
			name:   "derived wildcard",
			sql:    "SELECT d.x FROM (SELECT * FROM t) d",
			column: "x",
			want:   refs("t", "x"),
		},
		{
			name:   "scalar subquery",
			sql:    "SELECT (SELECT max(b) FROM u) AS m FROM t",
			column: "m",
			want:   refs("u", "b"),
		},
		{
			name:   "union merges positionally",
			sql:    "SELECT a FROM x UNION SELECT b FROM y",
			column: "a",
			want:   refs("x", "a", "y", "b"),
		},
		{
			name:   "recursive cte",
			sql:    "WITH RECURSIVE r AS (SELECT id FROM nodes UNION ALL SELECT n.id FROM nodes n JOIN r ON n.parent = r.id) SELECT id FROM r",
			column: "id",
			want:   refs("nodes", "id"),
		},
		{
			name:   "create view column list",
			sql:    "CREATE VIEW v (total) AS SELECT sum(amount) FROM orders",
			column: "total",
			want:   refs("orders", "amount"),
		},
		{
			name:   "update assignment",
			sql:    "UPDATE t SET a = s.a FROM s WHERE t.id = s.id",
			column: "a",
			want:   refs("s", "a"),
		},
		{
			name:   "merge insert",
			sql:    "MERGE INTO tgt t USING src s ON t.id = s.id WHEN MATCHED THEN UPDATE SET v = s.v WHEN NOT MATCHED THEN INSERT (id, v) VALUES (s.id, s.v)",
			column: "id",
			want:   refs("src", "id"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := analyze(t, tt.sql, postgres.Postgres)
			assert.Equal(t, tt.want, column(t, f, tt.column).Sources)
		})
	}
}

func TestMergeColumnsUnion(t *testing.T) {
	f := analyze(t, `MERGE INTO tgt t USING src s ON t.id = s.id
		WHEN MATCHED THEN UPDATE SET v = s.v
		WHEN NOT MATCHED THEN INSERT (id, v) VALUES (s.id, s.v)`, ansi.ANSI)

	assert.Equal(t, []string{"v", "id"}, f.ColumnNames())
	v := column(t, f, "v")
	assert.Equal(t, refs("src", "v"), v.Sources)
	assert.Equal(t, lineage.TransformDirect, v.Transform)
}

func TestDuplicateOutputNamesMerge(t *testing.T) {
	f := analyze(t, "SELECT a AS x, b AS x FROM t", ansi.ANSI)
	assert.Equal(t, 1, f.Columns.Len())
	x := column(t, f, "x")
	assert.Equal(t, refs("t", "a", "t", "b"), x.Sources)
	assert.Equal(t, lineage.TransformExpression, x.Transform)
}

func TestWildcards(t *testing.T) {
	t.Run("unexpanded", func(t *testing.T) {
		f := analyze(t, "INSERT INTO tgt SELECT * FROM src", ansi.ANSI)
		star := column(t, f, lineage.Wildcard)
		assert.Equal(t, lineage.TransformWildcard, star.Transform)
		assert.Equal(t, refs("src", "*"), star.Sources)
	})

	t.Run("several tables", func(t *testing.T) {
		f := analyze(t, "SELECT * FROM a JOIN b ON a.id = b.id", ansi.ANSI)
		assert.Equal(t, 1, f.Columns.Len())
		assert.Equal(t, refs("a", "*", "b", "*"), column(t, f, lineage.Wildcard).Sources)
	})

	t.Run("expanded with lookup", func(t *testing.T) {
		lookup := schema(map[string][]string{"src": {"ID", "name"}})
		f := analyze(t, "INSERT INTO tgt (a, b) SELECT * FROM src", ansi.ANSI, lineage.WithColumnLookup(lookup))
		assert.Equal(t, []string{"a", "b"}, f.ColumnNames())
		assert.Equal(t, refs("src", "id"), column(t, f, "a").Sources)
		assert.Equal(t, refs("src", "name"), column(t, f, "b").Sources)
	})

	t.Run("qualified star", func(t *testing.T) {
		lookup := schema(map[string][]string{"a": {"id"}, "b": {"id", "v"}})
		f := analyze(t, "SELECT b.* FROM a JOIN b ON a.id = b.id", ansi.ANSI, lineage.WithColumnLookup(lookup))
		assert.Equal(t, []string{"id", "v"}, f.ColumnNames())
		assert.Equal(t, refs("b", "v"), column(t, f, "v").Sources)
	})

	t.Run("column list ignored for unexpanded star", func(t *testing.T) {
		f := analyze(t, "INSERT INTO tgt (a, b) SELECT * FROM src", ansi.ANSI)
		assert.Equal(t, []string{lineage.Wildcard}, f.ColumnNames())
	})
}

func TestUnqualifiedColumns(t *testing.T) {
	sql := "SELECT name FROM a JOIN b ON a.id = b.id"

	f := analyze(t, sql, ansi.ANSI)
	assert.Equal(t, refs("", "name"), column(t, f, "name").Sources)

	lookup := schema(map[string][]string{"a": {"id"}, "b": {"id", "name"}})
	f = analyze(t, sql, ansi.ANSI, lineage.WithColumnLookup(lookup))
	assert.Equal(t, refs("b", "name"), column(t, f, "name").Sources)

	f = analyze(t, "SELECT name FROM a", ansi.ANSI)
	assert.Equal(t, refs("a", "name"), column(t, f, "name").Sources)
}

func TestDefaultSchema(t *testing.T) {
	f := analyze(t, "INSERT INTO tgt SELECT a FROM t JOIN sales.o ON t.id = o.id", ansi.ANSI,
		lineage.WithDefaultSchema("DBO"))
	assert.Equal(t, []string{"dbo.t", "sales.o"}, f.ReadKeys())
	assert.Equal(t, []string{"dbo.tgt"}, f.WriteKeys())
}

func TestSubQueryArena(t *testing.T) {
	f := analyze(t, "WITH c AS (SELECT a FROM t) SELECT d.a FROM (SELECT a FROM c) d", ansi.ANSI)
	require.Len(t, f.SubQueries, 2)
	assert.Equal(t, "<c>", f.SubQueries[0].ID)
	assert.Equal(t, "<subquery_1>", f.SubQueries[1].ID)
	assert.Equal(t, "d", f.SubQueries[1].Name)
	assert.Equal(t, []string{"t"}, keys(f.SubQueries[1].Reads))
}

func keys(tables []lineage.Table) []string {
	out := make([]string, len(tables))
	for i, t := range tables {
		out[i] = t.Key()
	}
	return out
}

func TestNoLineageKinds(t *testing.T) {
	tests := []struct {
		sql  string
		d    *dialect.Dialect
		kind ast.Kind
	}{
		{"DROP TABLE IF EXISTS a", ansi.ANSI, ast.KindDrop},
		{"TRUNCATE TABLE a", ansi.ANSI, ast.KindTruncate},
		{"USE analytics", tsql.TSQL, ast.KindUse},
		{"DELETE FROM t WHERE a IN (SELECT a FROM s)", ansi.ANSI, ast.KindDelete},
		{"CREATE SCHEMA staging", ansi.ANSI, ast.KindCreateSchema},
		{"COMMIT", ansi.ANSI, ast.KindTransaction},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			f := analyze(t, tt.sql, tt.d)
			assert.Equal(t, tt.kind, f.Kind)
			assert.True(t, f.Empty())
			assert.Zero(t, f.Columns.Len())
		})
	}
}

func TestUnsupportedStatement(t *testing.T) {
	stmt := &ast.OpaqueStmt{StmtKind: ast.KindCreateView}
	_, err := lineage.Analyze(stmt, stmt.Kind(), lineage.WithDialect(ansi.ANSI))
	assert.ErrorIs(t, err, diag.ErrUnsupportedStatement)
}

func TestDialectRequired(t *testing.T) {
	_, err := lineage.NewAnalyzer()
	assert.ErrorIs(t, err, dialect.ErrDialectRequired)
}
