package parser

import (
	"github.com/leapstack-labs/sqllineage/pkg/ast"
	"github.com/leapstack-labs/sqllineage/pkg/dialect"
)

// classifyWindow is how many leading tokens Classify inspects.
const classifyWindow = 64

// Classify returns the statement kind implied by the leading keywords of
// sql without parsing the statement. It is used where a statement failed to
// parse but its kind is still reported, and by the splitter preview.
func Classify(sql string, d *dialect.Dialect) ast.Kind {
	toks := leadingTokens(sql, d)
	if len(toks) == 0 {
		return ast.KindUnknown
	}

	// WITH ... INSERT / WITH ... SELECT
	if toks[0].Type == TOKEN_WITH {
		depth := 0
		for _, t := range toks[1:] {
			switch t.Type {
			case TOKEN_LPAREN:
				depth++
			case TOKEN_RPAREN:
				depth--
			case TOKEN_INSERT:
				if depth == 0 {
					return ast.KindInsert
				}
			case TOKEN_SELECT:
				if depth == 0 {
					return classifySelect(toks)
				}
			}
		}
		return ast.KindQuery
	}

	switch toks[0].Type {
	case TOKEN_SELECT, TOKEN_LPAREN:
		return classifySelect(toks)
	case TOKEN_INSERT:
		return ast.KindInsert
	case TOKEN_UPDATE:
		return ast.KindUpdate
	case TOKEN_DELETE:
		return ast.KindDelete
	case TOKEN_MERGE:
		return ast.KindMerge
	case TOKEN_DROP:
		return ast.KindDrop
	case TOKEN_TRUNCATE:
		return ast.KindTruncate
	case TOKEN_USE:
		return ast.KindUse
	case TOKEN_SET:
		return ast.KindSetVar
	case TOKEN_BEGIN, TOKEN_COMMIT, TOKEN_ROLLBACK, TOKEN_END:
		return ast.KindTransaction
	case TOKEN_ALTER:
		return classifyAlter(toks)
	case TOKEN_CREATE:
		return classifyCreate(toks)
	}

	switch {
	case isWord(toks[0], "declare"):
		return ast.KindSetVar
	case isWord(toks[0], "start"):
		return ast.KindTransaction
	case isWord(toks[0], "grant"), isWord(toks[0], "revoke"):
		return ast.KindGrant
	}
	return ast.KindUnknown
}

// leadingTokens lexes up to classifyWindow tokens of the first statement.
func leadingTokens(sql string, d *dialect.Dialect) []Token {
	l := NewLexerWithDialect(sql, d)
	var toks []Token
	for len(toks) < classifyWindow {
		tok := l.NextToken()
		if tok.Type == TOKEN_EOF || tok.Type == TOKEN_SEMICOLON {
			break
		}
		toks = append(toks, tok)
	}
	return toks
}

// classifySelect distinguishes SELECT ... INTO from a plain query.
func classifySelect(toks []Token) ast.Kind {
	depth := 0
	for _, t := range toks {
		switch t.Type {
		case TOKEN_LPAREN:
			depth++
		case TOKEN_RPAREN:
			depth--
		case TOKEN_INTO:
			if depth == 0 {
				return ast.KindSelectInto
			}
		case TOKEN_FROM:
			if depth == 0 {
				return ast.KindQuery
			}
		}
	}
	return ast.KindQuery
}

func classifyAlter(toks []Token) ast.Kind {
	for i := 1; i+1 < len(toks); i++ {
		if toks[i].Type == TOKEN_RENAME && toks[i+1].Type == TOKEN_TO {
			return ast.KindAlterRename
		}
	}
	return ast.KindAlter
}

func classifyCreate(toks []Token) ast.Kind {
	for i, t := range toks[1:] {
		switch {
		case t.Type == TOKEN_TABLE:
			for _, rest := range toks[i+2:] {
				if rest.Type == TOKEN_AS || rest.Type == TOKEN_LIKE || isWord(rest, "clone") {
					return ast.KindCreateTableAs
				}
			}
			return ast.KindCreateTable
		case t.Type == TOKEN_VIEW:
			return ast.KindCreateView
		case t.Type == TOKEN_INDEX:
			return ast.KindCreateIndex
		case t.Type == TOKEN_SCHEMA, isWord(t, "database"):
			return ast.KindCreateSchema
		case t.Type == TOKEN_OR, t.Type == TOKEN_REPLACE, t.Type == TOKEN_TEMPORARY,
			t.Type == TOKEN_UNIQUE, t.Type == TOKEN_IDENT && tableModifiers[lowerWord(t.Literal)],
			isWord(t, "materialized"), isWord(t, "secure"),
			isWord(t, "clustered"), isWord(t, "nonclustered"):
			continue
		default:
			return ast.KindCreateOther
		}
	}
	return ast.KindCreateOther
}

// lowerWord lower-cases an ASCII word.
func lowerWord(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + 'a' - 'A'
		}
	}
	return string(b)
}
