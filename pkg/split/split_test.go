package split_test

import (
	"testing"

	"github.com/leapstack-labs/sqllineage/pkg/dialect"
	"github.com/leapstack-labs/sqllineage/pkg/dialects/ansi"
	"github.com/leapstack-labs/sqllineage/pkg/dialects/tsql"
	"github.com/leapstack-labs/sqllineage/pkg/split"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func texts(units []split.Unit) []string {
	out := make([]string, len(units))
	for i, u := range units {
		out[i] = u.Text
	}
	return out
}

func boundaries(units []split.Unit) []split.Boundary {
	out := make([]split.Boundary, len(units))
	for i, u := range units {
		out[i] = u.Boundary
	}
	return out
}

func TestSplitTerminators(t *testing.T) {
	tests := []struct {
		name   string
		script string
		d      *dialect.Dialect
		want   []string
	}{
		{
			name:   "single statement without terminator",
			script: "SELECT * FROM t",
			d:      ansi.ANSI,
			want:   []string{"SELECT * FROM t"},
		},
		{
			name:   "two statements",
			script: "INSERT INTO a SELECT * FROM b;\nINSERT INTO c SELECT * FROM a;",
			d:      ansi.ANSI,
			want:   []string{"INSERT INTO a SELECT * FROM b", "INSERT INTO c SELECT * FROM a"},
		},
		{
			name:   "semicolon inside string",
			script: "SELECT ';' AS s FROM t; SELECT 1",
			d:      ansi.ANSI,
			want:   []string{"SELECT ';' AS s FROM t", "SELECT 1"},
		},
		{
			name:   "semicolon inside comment",
			script: "SELECT a -- not; a split\nFROM t;",
			d:      ansi.ANSI,
			want:   []string{"SELECT a -- not; a split\nFROM t"},
		},
		{
			name:   "semicolon inside quoted identifier",
			script: `SELECT "a;b" FROM t`,
			d:      ansi.ANSI,
			want:   []string{`SELECT "a;b" FROM t`},
		},
		{
			name:   "empty units skipped",
			script: ";;  \n-- comment only\n; SELECT 1;;",
			d:      ansi.ANSI,
			want:   []string{"SELECT 1"},
		},
		{
			name:   "empty script",
			script: "   \n",
			d:      ansi.ANSI,
			want:   []string{},
		},
		{
			name:   "no inference without implicit terminators",
			script: "SELECT * FROM foo\nSELECT * FROM bar",
			d:      ansi.ANSI,
			want:   []string{"SELECT * FROM foo\nSELECT * FROM bar"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := split.Split(tt.script, tt.d).Units()
			assert.Equal(t, tt.want, texts(got))
		})
	}
}

func TestSplitBatchSeparator(t *testing.T) {
	script := "SELECT 1\nGO\nSELECT 2\ngo 3\nSELECT go FROM t\n"
	units := split.Split(script, tsql.TSQL).Units()

	require.Len(t, units, 3)
	assert.Equal(t, []string{"SELECT 1", "SELECT 2", "SELECT go FROM t"}, texts(units))
	assert.Equal(t, []split.Boundary{
		split.BoundaryBatchSeparator,
		split.BoundaryBatchSeparator,
		split.BoundaryEOF,
	}, boundaries(units))
}

func TestSplitInferredBoundaries(t *testing.T) {
	tests := []struct {
		name     string
		script   string
		want     []string
		inferred int
	}{
		{
			name:     "two selects",
			script:   "SELECT * FROM foo\nSELECT * FROM bar",
			want:     []string{"SELECT * FROM foo", "SELECT * FROM bar"},
			inferred: 1,
		},
		{
			name:     "select then insert",
			script:   "SELECT * INTO #t FROM a\nINSERT INTO b SELECT * FROM #t",
			want:     []string{"SELECT * INTO #t FROM a", "INSERT INTO b SELECT * FROM #t"},
			inferred: 1,
		},
		{
			name:     "insert select is one statement",
			script:   "INSERT INTO t\nSELECT a FROM s",
			want:     []string{"INSERT INTO t\nSELECT a FROM s"},
			inferred: 0,
		},
		{
			name:     "union is one statement",
			script:   "SELECT a FROM x\nUNION ALL\nSELECT a FROM y",
			want:     []string{"SELECT a FROM x\nUNION ALL\nSELECT a FROM y"},
			inferred: 0,
		},
		{
			name:     "merge actions are one statement",
			script:   "MERGE t USING s ON t.id = s.id WHEN MATCHED THEN UPDATE SET a = s.a WHEN NOT MATCHED THEN INSERT (a) VALUES (s.a);",
			want:     []string{"MERGE t USING s ON t.id = s.id WHEN MATCHED THEN UPDATE SET a = s.a WHEN NOT MATCHED THEN INSERT (a) VALUES (s.a)"},
			inferred: 0,
		},
		{
			name:     "alter with drop is one statement",
			script:   "ALTER TABLE t DROP COLUMN a",
			want:     []string{"ALTER TABLE t DROP COLUMN a"},
			inferred: 0,
		},
		{
			name:     "session statement then query",
			script:   "USE sales\nSELECT * FROM orders",
			want:     []string{"USE sales", "SELECT * FROM orders"},
			inferred: 1,
		},
		{
			name:     "subquery select is nested",
			script:   "SELECT * FROM (SELECT a FROM t) x WHERE a IN (SELECT b FROM u)",
			want:     []string{"SELECT * FROM (SELECT a FROM t) x WHERE a IN (SELECT b FROM u)"},
			inferred: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			units := split.Split(tt.script, tsql.TSQL).Units()
			assert.Equal(t, tt.want, texts(units))

			n := 0
			for _, u := range units {
				if u.Boundary == split.BoundaryInferred {
					n++
				}
			}
			assert.Equal(t, tt.inferred, n)
		})
	}
}

func TestSplitSpans(t *testing.T) {
	script := "SELECT 1;\n  SELECT 2 FROM t;"
	units := split.Split(script, ansi.ANSI).Units()
	require.Len(t, units, 2)

	assert.Equal(t, 0, units[0].Index)
	assert.Equal(t, 1, units[1].Index)

	second := units[1].Span
	assert.Equal(t, 2, second.Start.Line)
	assert.Equal(t, 3, second.Start.Column)
	assert.Equal(t, 12, second.Start.Offset)
	assert.Equal(t, script[second.Start.Offset:second.End.Offset], units[1].Text)
}

func TestSequenceIsRestartable(t *testing.T) {
	seq := split.Split("SELECT 1; SELECT 2; SELECT 3", ansi.ANSI)

	first := seq.Units()
	second := seq.Units()
	assert.Equal(t, first, second)

	// Early exit leaves the sequence reusable.
	for u := range seq.All() {
		assert.Equal(t, 0, u.Index)
		break
	}
	assert.Len(t, seq.Units(), 3)
}

func TestBoundaryString(t *testing.T) {
	assert.Equal(t, "terminator", split.BoundaryTerminator.String())
	assert.Equal(t, "batch_separator", split.BoundaryBatchSeparator.String())
	assert.Equal(t, "inferred", split.BoundaryInferred.String())
	assert.Equal(t, "eof", split.BoundaryEOF.String())
}
