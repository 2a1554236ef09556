package syntax_test

import (
	"testing"

	"github.com/leapstack-labs/sqllineage/internal/testutil"
	"github.com/leapstack-labs/sqllineage/pkg/ast"
	"github.com/leapstack-labs/sqllineage/pkg/diag"
	"github.com/leapstack-labs/sqllineage/pkg/dialect"
	"github.com/leapstack-labs/sqllineage/pkg/dialects/ansi"
	"github.com/leapstack-labs/sqllineage/pkg/dialects/nonvalidating"
	"github.com/leapstack-labs/sqllineage/pkg/dialects/tsql"
	"github.com/leapstack-labs/sqllineage/pkg/split"
	"github.com/leapstack-labs/sqllineage/pkg/syntax"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAdapter(t *testing.T, d *dialect.Dialect) (*syntax.Adapter, *diag.Collector) {
	t.Helper()
	diags := diag.NewCollector(testutil.NewTestLogger(t))
	a, err := syntax.NewAdapter(d, diags, syntax.WithLogger(testutil.NewTestLogger(t)))
	require.NoError(t, err)
	return a, diags
}

func firstUnit(t *testing.T, sql string, d *dialect.Dialect) split.Unit {
	t.Helper()
	units := split.Split(sql, d).Units()
	require.NotEmpty(t, units)
	return units[0]
}

func TestBackendSelection(t *testing.T) {
	assert.Equal(t, "strict", syntax.BackendFor(ansi.ANSI).Name())
	assert.Equal(t, "strict", syntax.BackendFor(tsql.TSQL).Name())
	assert.Equal(t, "lenient", syntax.BackendFor(nonvalidating.NonValidating).Name())

	a, _ := newAdapter(t, nonvalidating.NonValidating)
	_, ok := a.Backend().(syntax.TolerantBackend)
	assert.True(t, ok)
}

func TestNewAdapterRequiresDialect(t *testing.T) {
	_, err := syntax.NewAdapter(nil, nil)
	assert.ErrorIs(t, err, dialect.ErrDialectRequired)
}

func TestAnalyzeSyntaxOutcomes(t *testing.T) {
	tests := []struct {
		name      string
		sql       string
		d         *dialect.Dialect
		want      string // parsed, failure, unsupported
		kind      ast.Kind
		fatalKind diag.Kind
	}{
		{
			name: "select",
			sql:  "SELECT a FROM t",
			d:    ansi.ANSI,
			want: "parsed",
			kind: ast.KindQuery,
		},
		{
			name: "insert select",
			sql:  "INSERT INTO tgt SELECT * FROM src",
			d:    ansi.ANSI,
			want: "parsed",
			kind: ast.KindInsert,
		},
		{
			name:      "from without table",
			sql:       "select * from where foo='bar'",
			d:         ansi.ANSI,
			want:      "failure",
			kind:      ast.KindQuery,
			fatalKind: diag.KindGenericLineage,
		},
		{
			name:      "join without table",
			sql:       "SELECT * FROM tab1 JOIN",
			d:         ansi.ANSI,
			want:      "failure",
			kind:      ast.KindQuery,
			fatalKind: diag.KindInvalidSyntax,
		},
		{
			name:      "unknown leading keyword",
			sql:       "WRONG SELECT FROM tab1",
			d:         ansi.ANSI,
			want:      "failure",
			kind:      ast.KindUnknown,
			fatalKind: diag.KindInvalidSyntax,
		},
		{
			name:      "keyword used as alias",
			sql:       "SELECT * FROM tab1 AS FULL FULL OUTER JOIN tab2",
			d:         ansi.ANSI,
			want:      "failure",
			kind:      ast.KindQuery,
			fatalKind: diag.KindInvalidSyntax,
		},
		{
			name:      "leftover alias",
			sql:       "SELECT * INTO tgt FROM tab1 src1 AS src1 CROSS JOIN tab2 AS src2",
			d:         tsql.TSQL,
			want:      "failure",
			kind:      ast.KindSelectInto,
			fatalKind: diag.KindInvalidSyntax,
		},
		{
			name:      "index ddl",
			sql:       "CREATE UNIQUE INDEX title_idx ON films (title)",
			d:         ansi.ANSI,
			want:      "unsupported",
			kind:      ast.KindCreateIndex,
			fatalKind: diag.KindUnsupportedStatement,
		},
		{
			name: "index ddl under non-validating",
			sql:  "CREATE UNIQUE INDEX title_idx ON films (title)",
			d:    nonvalidating.NonValidating,
			want: "parsed",
			kind: ast.KindCreateIndex,
		},
		{
			name: "dual",
			sql:  "SELECT * FROM DUAL",
			d:    nonvalidating.NonValidating,
			want: "parsed",
			kind: ast.KindQuery,
		},
		{
			name:      "lenient failure is generic",
			sql:       "WRONG SELECT FROM tab1",
			d:         nonvalidating.NonValidating,
			want:      "failure",
			kind:      ast.KindUnknown,
			fatalKind: diag.KindGenericLineage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, _ := newAdapter(t, tt.d)
			u := firstUnit(t, tt.sql, tt.d)
			out := a.AnalyzeSyntax(u)

			switch o := out.(type) {
			case syntax.Parsed:
				require.Equal(t, "parsed", tt.want, "unexpected parse: %s", tt.sql)
				assert.Equal(t, tt.kind, o.Kind)
				assert.NotNil(t, o.Tree)
				assert.NoError(t, a.Fatal(u, out))
				return
			case syntax.SyntaxFailure:
				require.Equal(t, "failure", tt.want, "unexpected failure: %v", o.Reason)
				assert.Equal(t, tt.kind, o.Kind)
				assert.Equal(t, tt.kind != ast.KindUnknown, o.Partial)
			case syntax.UnsupportedKind:
				require.Equal(t, "unsupported", tt.want)
				assert.Equal(t, tt.kind, o.Kind)
			default:
				t.Fatalf("unexpected outcome %T", out)
			}

			err := a.Fatal(u, out)
			require.Error(t, err)
			kind, ok := diag.KindOf(err)
			require.True(t, ok)
			assert.Equal(t, tt.fatalKind, kind)
			assert.ErrorIs(t, err, tt.fatalKind.Sentinel())
		})
	}
}

func TestSyntaxFailurePosition(t *testing.T) {
	script := "SELECT 1;\nSELECT * FROM t WHERE"
	units := split.Split(script, ansi.ANSI).Units()
	require.Len(t, units, 2)

	a, _ := newAdapter(t, ansi.ANSI)
	out, ok := a.AnalyzeSyntax(units[1]).(syntax.SyntaxFailure)
	require.True(t, ok)
	assert.Equal(t, 2, out.Pos.Line)
	assert.GreaterOrEqual(t, out.Pos.Offset, units[1].Span.Start.Offset)
	assert.False(t, out.MissingTable)
}

func TestLenientTrailingTokens(t *testing.T) {
	a, _ := newAdapter(t, nonvalidating.NonValidating)
	out, ok := a.AnalyzeSyntax(firstUnit(t, "SELECT * FROM tab1 src1 AS src1", nonvalidating.NonValidating)).(syntax.Parsed)
	require.True(t, ok)
	assert.True(t, out.Partial())
	assert.Len(t, out.Trailing, 2)
}

func TestDeprecationWarnedOnce(t *testing.T) {
	a, diags := newAdapter(t, nonvalidating.NonValidating)
	for u := range split.Split("SELECT * FROM DUAL; SELECT 1; SELECT 2", nonvalidating.NonValidating).All() {
		a.AnalyzeSyntax(u)
	}
	assert.Equal(t, 1, diags.Count(diag.KindDeprecation))
	assert.Equal(t, -1, diags.Diagnostics()[0].Statement)

	a, diags = newAdapter(t, ansi.ANSI)
	a.AnalyzeSyntax(firstUnit(t, "SELECT 1", ansi.ANSI))
	assert.Zero(t, diags.Len())
}

type fixedBackend struct {
	syntax.Strict
	caps ast.KindSet
}

func (b fixedBackend) Name() string                              { return "fixed" }
func (b fixedBackend) Capabilities(*dialect.Dialect) ast.KindSet { return b.caps }

func TestCustomBackendCapabilities(t *testing.T) {
	diags := diag.NewCollector(nil)
	a, err := syntax.NewAdapter(ansi.ANSI, diags,
		syntax.WithBackend(fixedBackend{caps: ast.NewKindSet(ast.KindQuery)}))
	require.NoError(t, err)

	_, ok := a.AnalyzeSyntax(firstUnit(t, "SELECT a FROM t", ansi.ANSI)).(syntax.Parsed)
	assert.True(t, ok)

	out, ok := a.AnalyzeSyntax(firstUnit(t, "INSERT INTO t SELECT a FROM s", ansi.ANSI)).(syntax.UnsupportedKind)
	require.True(t, ok)
	assert.Equal(t, ast.KindInsert, out.Kind)
}
