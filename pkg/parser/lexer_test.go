package parser_test

import (
	"testing"

	"github.com/leapstack-labs/sqllineage/pkg/dialects/ansi"
	"github.com/leapstack-labs/sqllineage/pkg/dialects/duckdb"
	"github.com/leapstack-labs/sqllineage/pkg/dialects/tsql"
	"github.com/leapstack-labs/sqllineage/pkg/parser"
	"github.com/leapstack-labs/sqllineage/pkg/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tokenTypes(toks []parser.Token) []parser.TokenType {
	types := make([]parser.TokenType, len(toks))
	for i, tok := range toks {
		types[i] = tok.Type
	}
	return types
}

func TestLexerBasicTokens(t *testing.T) {
	toks := parser.TokenizeWithDialect("SELECT a, b::int FROM t WHERE x <> 1.5e3;", duckdb.DuckDB)
	assert.Equal(t, []parser.TokenType{
		parser.TOKEN_SELECT, parser.TOKEN_IDENT, parser.TOKEN_COMMA,
		parser.TOKEN_IDENT, parser.TOKEN_DCOLON, parser.TOKEN_IDENT,
		parser.TOKEN_FROM, parser.TOKEN_IDENT, parser.TOKEN_WHERE,
		parser.TOKEN_IDENT, parser.TOKEN_NE, parser.TOKEN_NUMBER,
		parser.TOKEN_SEMICOLON, parser.TOKEN_EOF,
	}, tokenTypes(toks))
	assert.Equal(t, "1.5e3", toks[11].Literal)
}

func TestLexerQuoting(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		quoted  bool
		literal string
		typ     parser.TokenType
	}{
		{"string with escape", "'it''s'", false, "it's", parser.TOKEN_STRING},
		{"double quoted ident", `"Order Id"`, true, "Order Id", parser.TOKEN_IDENT},
		{"keyword as quoted ident", `"select"`, true, "select", parser.TOKEN_IDENT},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks := parser.TokenizeWithDialect(tt.input, ansi.ANSI)
			require.Len(t, toks, 2)
			assert.Equal(t, tt.typ, toks[0].Type)
			assert.Equal(t, tt.literal, toks[0].Literal)
			assert.Equal(t, tt.quoted, toks[0].Quoted)
		})
	}
}

func TestLexerBracketIdentifiers(t *testing.T) {
	toks := parser.TokenizeWithDialect("[dbo].[My Table]", tsql.TSQL)
	require.Len(t, toks, 4)
	assert.Equal(t, "dbo", toks[0].Literal)
	assert.True(t, toks[0].Quoted)
	assert.Equal(t, parser.TOKEN_DOT, toks[1].Type)
	assert.Equal(t, "My Table", toks[2].Literal)

	// Without bracket quoting, "[" is an operator token.
	toks = parser.TokenizeWithDialect("[dbo]", ansi.ANSI)
	assert.Equal(t, parser.TOKEN_LBRACKET, toks[0].Type)
}

func TestLexerVariables(t *testing.T) {
	toks := parser.TokenizeWithDialect("@total #tmp", tsql.TSQL)
	require.Len(t, toks, 3)
	assert.Equal(t, "@total", toks[0].Literal)
	assert.Equal(t, "#tmp", toks[1].Literal)
}

func TestLexerDialectKeywords(t *testing.T) {
	toks := parser.TokenizeWithDialect("qualify", duckdb.DuckDB)
	assert.Equal(t, "QUALIFY", toks[0].Type.String())

	toks = parser.TokenizeWithDialect("qualify", ansi.ANSI)
	assert.Equal(t, parser.TOKEN_IDENT, toks[0].Type)
}

func TestLexerUnterminated(t *testing.T) {
	toks := parser.TokenizeWithDialect("SELECT 'abc", ansi.ANSI)
	require.Len(t, toks, 3)
	assert.Equal(t, parser.TOKEN_ILLEGAL, toks[1].Type)
	assert.Equal(t, "'abc", toks[1].Literal)
}

func TestLexerComments(t *testing.T) {
	l := parser.NewLexerWithDialect("-- head\nSELECT /* inline */ 1", ansi.ANSI)
	for tok := l.NextToken(); tok.Type != parser.TOKEN_EOF; tok = l.NextToken() {
	}
	require.Len(t, l.Comments, 2)
	assert.Equal(t, token.LineComment, l.Comments[0].Kind)
	assert.Equal(t, "-- head", l.Comments[0].Text)
	assert.Equal(t, "/* inline */", l.Comments[1].Text)
	assert.Equal(t, "head", l.Comments[0].Body())
	assert.Equal(t, "inline", l.Comments[1].Body())
	assert.False(t, l.Comments[1].Unterminated)

	l = parser.NewLexerWithDialect("SELECT 1 /* open", ansi.ANSI)
	for tok := l.NextToken(); tok.Type != parser.TOKEN_EOF; tok = l.NextToken() {
	}
	require.Len(t, l.Comments, 1)
	assert.Equal(t, token.BlockComment, l.Comments[0].Kind)
	assert.True(t, l.Comments[0].Unterminated)
	assert.Equal(t, "open", l.Comments[0].Body())
}

func TestLexerPositions(t *testing.T) {
	toks := parser.TokenizeWithDialect("SELECT\n  a", ansi.ANSI)
	require.Len(t, toks, 3)
	assert.Equal(t, token.Position{Line: 1, Column: 1, Offset: 0}, toks[0].Pos)
	assert.Equal(t, token.Position{Line: 2, Column: 3, Offset: 9}, toks[1].Pos)
	assert.Equal(t, 10, toks[1].End().Offset)
}
