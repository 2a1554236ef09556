package graph_test

import (
	"errors"
	"testing"

	"github.com/leapstack-labs/sqllineage/internal/testutil"
	"github.com/leapstack-labs/sqllineage/pkg/diag"
	"github.com/leapstack-labs/sqllineage/pkg/dialects/ansi"
	"github.com/leapstack-labs/sqllineage/pkg/graph"
	"github.com/leapstack-labs/sqllineage/pkg/lineage"
	"github.com/leapstack-labs/sqllineage/pkg/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func facts(t *testing.T, sqls ...string) []*lineage.Fact {
	t.Helper()
	out := make([]*lineage.Fact, 0, len(sqls))
	for _, sql := range sqls {
		stmt, err := parser.ParseWithDialect(sql, ansi.ANSI)
		require.NoError(t, err, sql)
		fact, err := lineage.Analyze(stmt, stmt.Kind(),
			lineage.WithDialect(ansi.ANSI),
			lineage.WithLogger(testutil.NewTestLogger(t)),
		)
		require.NoError(t, err, sql)
		out = append(out, fact)
	}
	return out
}

func build(t *testing.T, sqls ...string) *graph.Graph {
	t.Helper()
	var g *graph.Graph
	for i, f := range facts(t, sqls...) {
		g = graph.Fold(g, f, i)
	}
	return g
}

func keys(tables []lineage.Table) []string {
	out := make([]string, len(tables))
	for i, tb := range tables {
		out[i] = tb.Key()
	}
	return out
}

func TestBoundaries(t *testing.T) {
	tests := []struct {
		name         string
		sqls         []string
		sources      []string
		targets      []string
		intermediate []string
	}{
		{
			name:         "read only",
			sqls:         []string{"SELECT a FROM t1 JOIN t2 ON t1.id = t2.id"},
			sources:      []string{"t1", "t2"},
			targets:      []string{},
			intermediate: []string{},
		},
		{
			name:         "single insert",
			sqls:         []string{"INSERT INTO tgt SELECT a FROM src"},
			sources:      []string{"src"},
			targets:      []string{"tgt"},
			intermediate: []string{},
		},
		{
			name: "write then read is interior",
			sqls: []string{
				"INSERT INTO tmp SELECT a FROM src",
				"INSERT INTO tgt SELECT a FROM tmp",
			},
			sources:      []string{"src"},
			targets:      []string{"tgt"},
			intermediate: []string{"tmp"},
		},
		{
			name:         "self loop is source and target",
			sqls:         []string{"INSERT INTO t SELECT * FROM t"},
			sources:      []string{"t"},
			targets:      []string{"t"},
			intermediate: []string{},
		},
		{
			name: "read before write stays a source",
			sqls: []string{
				"INSERT INTO b SELECT x FROM a",
				"INSERT INTO a SELECT x FROM c",
			},
			sources:      []string{"a", "c"},
			targets:      []string{"a", "b"},
			intermediate: []string{},
		},
		{
			name: "write then plain select is a target",
			sqls: []string{
				"INSERT INTO t SELECT a FROM src",
				"SELECT a FROM t",
			},
			sources:      []string{"src"},
			targets:      []string{"t"},
			intermediate: []string{},
		},
		{
			name: "self loop after load",
			sqls: []string{
				"INSERT INTO t SELECT a FROM src",
				"INSERT INTO t SELECT * FROM t",
			},
			sources:      []string{"src"},
			targets:      []string{"t"},
			intermediate: []string{},
		},
		{
			name: "create without reads is only a target",
			sqls: []string{
				"CREATE TABLE t (a INT)",
				"SELECT a FROM u",
			},
			sources:      []string{"u"},
			targets:      []string{"t"},
			intermediate: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := build(t, tt.sqls...)
			b := g.Boundaries(graph.BoundaryOptions{IncludeIntermediate: true})
			assert.Equal(t, tt.sources, keys(b.Sources))
			assert.Equal(t, tt.targets, keys(b.Targets))
			assert.Equal(t, tt.intermediate, keys(b.Intermediate))
		})
	}
}

func TestBoundariesWithoutIntermediate(t *testing.T) {
	g := build(t,
		"INSERT INTO tmp SELECT a FROM src",
		"INSERT INTO tgt SELECT a FROM tmp",
	)
	b := g.Boundaries(graph.BoundaryOptions{})
	assert.Nil(t, b.Intermediate)
	assert.Equal(t, []string{"tmp"}, keys(g.IntermediateTables()))
}

func TestReadOnlyHasNoEdges(t *testing.T) {
	g := build(t, "SELECT a FROM t1 JOIN t2 ON t1.id = t2.id")
	assert.Equal(t, 0, g.EdgeCount())
	assert.Equal(t, 2, g.NodeCount())
	assert.Empty(t, g.Edges())
}

func TestSelfLoop(t *testing.T) {
	g := build(t, "INSERT INTO t SELECT * FROM t")
	assert.Equal(t, 1, g.NodeCount())
	assert.Equal(t, 1, g.EdgeCount())

	e, ok := g.Edge("t", "t")
	require.True(t, ok)
	assert.True(t, e.SelfLoop())
	assert.Equal(t, []int{0}, e.Statements)
}

func TestFoldIsPure(t *testing.T) {
	fs := facts(t,
		"INSERT INTO b SELECT x FROM a",
		"INSERT INTO c SELECT x FROM b",
		"INSERT INTO b SELECT y FROM a",
	)
	g1 := graph.Fold(nil, fs[0], 0)
	g2 := graph.Fold(g1, fs[1], 1)
	g3 := graph.Fold(g2, fs[2], 2)

	assert.Equal(t, 2, g1.NodeCount())
	assert.Equal(t, 1, g1.EdgeCount())
	assert.Equal(t, 3, g2.NodeCount())

	e1, _ := g1.Edge("a", "b")
	assert.Equal(t, []int{0}, e1.Statements)
	assert.Len(t, e1.Columns, 1)

	e3, _ := g3.Edge("a", "b")
	assert.Equal(t, []int{0, 2}, e3.Statements)
	assert.Equal(t, []graph.ColumnMapping{
		{Target: "x", Sources: []string{"x"}},
		{Target: "y", Sources: []string{"y"}},
	}, e3.Columns)

	// Accessors return copies.
	e3.Columns[0].Sources[0] = "changed"
	assert.Equal(t, []string{"x"}, g3.ColumnMapping("a", "b")[0].Sources)
}

func TestColumnMappingPerReadTable(t *testing.T) {
	g := build(t, "INSERT INTO c (p, q) SELECT a.x, b.y FROM a JOIN b ON a.id = b.id")

	assert.Equal(t, []graph.ColumnMapping{{Target: "p", Sources: []string{"x"}}}, g.ColumnMapping("a", "c"))
	assert.Equal(t, []graph.ColumnMapping{{Target: "q", Sources: []string{"y"}}}, g.ColumnMapping("b", "c"))
	assert.Nil(t, g.ColumnMapping("a", "b"))
}

func TestUpstreamDownstream(t *testing.T) {
	g := build(t,
		"INSERT INTO tmp SELECT a FROM src",
		"INSERT INTO tgt SELECT a FROM tmp",
		"INSERT INTO other SELECT a FROM tmp",
	)
	assert.Equal(t, []string{"tmp", "src"}, g.Upstream("tgt"))
	assert.Equal(t, []string{"tmp", "tgt", "other"}, g.Downstream("src"))
	assert.Empty(t, g.Upstream("src"))
}

func TestEdgeEndpointsMatchFacts(t *testing.T) {
	sqls := []string{
		"INSERT INTO tmp SELECT a FROM src JOIN dim ON src.id = dim.id",
		"CREATE TABLE report AS SELECT a FROM tmp",
		"MERGE INTO report r USING stage s ON r.id = s.id WHEN MATCHED THEN UPDATE SET a = s.a",
		"SELECT * FROM unrelated",
	}
	fs := facts(t, sqls...)
	var g *graph.Graph
	want := map[string]bool{}
	for i, f := range fs {
		g = graph.Fold(g, f, i)
		if len(f.Reads) > 0 && len(f.Writes) > 0 {
			for _, k := range f.ReadKeys() {
				want[k] = true
			}
			for _, k := range f.WriteKeys() {
				want[k] = true
			}
		}
	}

	got := map[string]bool{}
	for _, e := range g.Edges() {
		got[e.From] = true
		got[e.To] = true
	}
	assert.Equal(t, want, got)
}

func TestResolveColumns(t *testing.T) {
	g := build(t,
		"INSERT INTO tmp SELECT a + b AS s, c FROM src",
		"INSERT INTO tgt SELECT s AS total, c FROM tmp",
	)
	cl, err := graph.ResolveColumns(g)
	require.NoError(t, err)

	assert.Equal(t, []lineage.ColumnRef{{Table: "src", Column: "a"}, {Table: "src", Column: "b"}}, cl.For("tgt", "total"))
	assert.Equal(t, []lineage.ColumnRef{{Table: "src", Column: "c"}}, cl.For("tgt", "c"))
	assert.Equal(t, []lineage.ColumnRef{{Table: "src", Column: "c"}}, cl.For("tmp", "c"))
	assert.Nil(t, cl.For("src", "a"))

	paths := cl.Paths()
	require.Len(t, paths, 3)
	assert.Equal(t, graph.Path{
		{Table: "src", Column: "a"},
		{Table: "tmp", Column: "s"},
		{Table: "tgt", Column: "total"},
	}, paths[0])
	assert.Equal(t, lineage.ColumnRef{Table: "tgt", Column: "c"}, paths[2].Target())
	assert.Equal(t, []lineage.ColumnRef{
		{Table: "tgt", Column: "total"},
		{Table: "tgt", Column: "c"},
	}, cl.Targets())
}

func TestResolveConvergingPaths(t *testing.T) {
	g := build(t,
		"INSERT INTO tgt SELECT x AS v FROM a",
		"INSERT INTO tgt SELECT y AS v FROM b",
	)
	cl, err := graph.ResolveColumns(g)
	require.NoError(t, err)
	assert.Equal(t, []lineage.ColumnRef{{Table: "a", Column: "x"}, {Table: "b", Column: "y"}}, cl.For("tgt", "v"))
}

func TestResolveThroughWildcard(t *testing.T) {
	g := build(t,
		"INSERT INTO tmp SELECT * FROM src",
		"INSERT INTO tgt SELECT id FROM tmp",
	)
	cl, err := graph.ResolveColumns(g)
	require.NoError(t, err)
	assert.Equal(t, []lineage.ColumnRef{{Table: "src", Column: "id"}}, cl.For("tgt", "id"))
}

func TestResolveFollowsStatementOrder(t *testing.T) {
	tests := []struct {
		name   string
		sqls   []string
		table  string
		column string
		want   []lineage.ColumnRef
	}{
		{
			name:   "read before write keeps its own origin",
			sqls:   []string{"INSERT INTO b SELECT x FROM a", "INSERT INTO a SELECT x FROM c"},
			table:  "b",
			column: "x",
			want:   []lineage.ColumnRef{{Table: "a", Column: "x"}},
		},
		{
			name:   "later write still resolves",
			sqls:   []string{"INSERT INTO b SELECT x FROM a", "INSERT INTO a SELECT x FROM c"},
			table:  "a",
			column: "x",
			want:   []lineage.ColumnRef{{Table: "c", Column: "x"}},
		},
		{
			name:   "write before read composes",
			sqls:   []string{"INSERT INTO a SELECT x FROM c", "INSERT INTO b SELECT x FROM a"},
			table:  "b",
			column: "x",
			want:   []lineage.ColumnRef{{Table: "c", Column: "x"}},
		},
		{
			name: "only earlier loads are composed",
			sqls: []string{
				"INSERT INTO a SELECT x FROM c",
				"INSERT INTO b SELECT x FROM a",
				"INSERT INTO a SELECT x FROM d",
			},
			table:  "b",
			column: "x",
			want:   []lineage.ColumnRef{{Table: "c", Column: "x"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cl, err := graph.ResolveColumns(build(t, tt.sqls...))
			require.NoError(t, err)
			assert.Equal(t, tt.want, cl.For(tt.table, tt.column))
		})
	}
}

func TestResolveIgnoresSelfLoops(t *testing.T) {
	g := build(t, "INSERT INTO t SELECT * FROM t")
	cl, err := graph.ResolveColumns(g)
	require.NoError(t, err)
	assert.Empty(t, cl.Paths())
}

func TestResolveCycle(t *testing.T) {
	g := build(t,
		"INSERT INTO b SELECT x FROM a",
		"INSERT INTO a SELECT x FROM b",
	)
	_, err := graph.ResolveColumns(g)
	require.Error(t, err)
	assert.ErrorIs(t, err, diag.ErrCyclicLineage)

	var cycle *graph.CycleError
	require.True(t, errors.As(err, &cycle))
	assert.Equal(t, []string{"a", "b", "a"}, cycle.Path)
	assert.Contains(t, err.Error(), "a -> b -> a")
}
