// Package parser provides SQL parsing with dialect-aware syntax validation.
//
// # Usage
//
//	stmt, err := parser.ParseWithDialect("INSERT INTO t SELECT a FROM s", d)
//	if err != nil {
//	    // handle error
//	}
//
// The dialect decides identifier quoting, optional clauses, operators and
// join types. A parser in lenient mode tolerates trailing tokens that cannot
// be assigned to the statement and reports them through Trailing.
//
// # Grammar Overview
//
//	script_stmt   → statement [";"] EOF
//	statement     → query | insert | create | update | delete | merge
//	              | alter | drop | truncate | use | set | transaction | grant
//	query         → [WITH cte_list] select_body
//	select_body   → select_core [(UNION|INTERSECT|EXCEPT) [ALL] select_body]
//	select_core   → SELECT [DISTINCT] [TOP expr] select_list [INTO table]
//	                [FROM from_clause] [WHERE expr] [GROUP BY expr_list]
//	                [HAVING expr] [WINDOW ...] [QUALIFY expr]
//	                [ORDER BY order_list] [LIMIT expr] [OFFSET expr]
//
// See each file for detailed grammar rules for that section.
package parser

import (
	"fmt"

	"github.com/leapstack-labs/sqllineage/pkg/ast"
	"github.com/leapstack-labs/sqllineage/pkg/dialect"
	"github.com/leapstack-labs/sqllineage/pkg/token"
)

// Parser parses SQL into an AST.
type Parser struct {
	lexer   *Lexer
	token   Token // current token
	peek    Token // lookahead token
	peek2   Token // second lookahead token
	prev    Token // last consumed token
	errors  []error
	dialect *dialect.Dialect // required

	lenient  bool
	trailing []Token

	sawTable bool // some table reference was parsed
}

// Option configures a Parser.
type Option func(*Parser)

// WithLenient makes the parser tolerate trailing tokens after a complete
// statement instead of failing.
func WithLenient() Option {
	return func(p *Parser) {
		p.lenient = true
	}
}

// NewParser creates a new parser for the given SQL input with dialect support.
func NewParser(sql string, d *dialect.Dialect, opts ...Option) *Parser {
	p := &Parser{
		lexer:   NewLexerWithDialect(sql, d),
		dialect: d,
	}
	for _, opt := range opts {
		opt(p)
	}
	// Read three tokens to initialize current, peek, and peek2
	p.nextToken()
	p.nextToken()
	p.nextToken()
	return p
}

// ParseWithDialect parses a single statement with a specific dialect.
func ParseWithDialect(sql string, d *dialect.Dialect) (ast.Statement, error) {
	return NewParser(sql, d).ParseStatement()
}

// ParseStatement parses exactly one statement, optionally terminated by ";".
func (p *Parser) ParseStatement() (ast.Statement, error) {
	if p.dialect == nil {
		return nil, dialect.ErrDialectRequired
	}

	stmt := p.parseStatement()
	p.match(TOKEN_SEMICOLON)

	if !p.check(TOKEN_EOF) && len(p.errors) == 0 {
		if p.lenient {
			for !p.check(TOKEN_EOF) {
				p.trailing = append(p.trailing, p.token)
				p.nextToken()
			}
		} else {
			p.addError(fmt.Sprintf(ErrTrailingToken, describe(p.token)))
		}
	}

	if len(p.errors) > 0 {
		return nil, p.errors[0]
	}
	return stmt, nil
}

// Trailing returns the tokens a lenient parser skipped after the statement.
func (p *Parser) Trailing() []Token {
	return p.trailing
}

// Comments returns the comments seen so far.
func (p *Parser) Comments() []*token.Comment {
	return p.lexer.Comments
}

// Dialect returns the parser's dialect.
func (p *Parser) Dialect() *dialect.Dialect {
	return p.dialect
}

// ---------- Token Helpers ----------

// nextToken advances to the next token.
func (p *Parser) nextToken() {
	p.prev = p.token
	p.token = p.peek
	p.peek = p.peek2
	p.peek2 = p.lexer.NextToken()
}

// check returns true if the current token is of the given type.
func (p *Parser) check(t TokenType) bool {
	return p.token.Type == t
}

// checkPeek returns true if the peek token is of the given type.
func (p *Parser) checkPeek(t TokenType) bool {
	return p.peek.Type == t
}

// checkPeek2 returns true if the peek2 token is of the given type.
func (p *Parser) checkPeek2(t TokenType) bool {
	return p.peek2.Type == t
}

// checkWord returns true if the current token is an unquoted identifier
// with the given (case-insensitive) spelling.
func (p *Parser) checkWord(word string) bool {
	return isWord(p.token, word)
}

// matchWord consumes the current token if it is the given word.
func (p *Parser) matchWord(word string) bool {
	if p.checkWord(word) {
		p.nextToken()
		return true
	}
	return false
}

// match consumes the current token if it matches and returns true.
func (p *Parser) match(t TokenType) bool {
	if p.check(t) {
		p.nextToken()
		return true
	}
	return false
}

// matchAny consumes the current token if it matches any of the given types.
func (p *Parser) matchAny(types ...TokenType) bool {
	for _, t := range types {
		if p.check(t) {
			p.nextToken()
			return true
		}
	}
	return false
}

// expect consumes the current token if it matches, otherwise adds an error.
func (p *Parser) expect(t TokenType) bool {
	if p.check(t) {
		p.nextToken()
		return true
	}
	p.addError(fmt.Sprintf(ErrUnexpectedToken, describe(p.token), t))
	return false
}

// addError adds a parse error.
func (p *Parser) addError(msg string) {
	if p.token.Type == TOKEN_ILLEGAL && len(p.errors) == 0 && p.token.Literal != "" && isQuoteChar(p.token.Literal[0]) {
		msg = ErrUnterminatedString
	}
	p.errors = append(p.errors, &ParseError{
		Pos:     p.token.Pos,
		Message: msg,
	})
}

// addMissingTable records that a table argument is absent. The error is
// only marked MissingTable when no other table reference was parsed.
func (p *Parser) addMissingTable(after string) {
	p.errors = append(p.errors, &ParseError{
		Pos:          p.token.Pos,
		Message:      fmt.Sprintf(ErrMissingTable, after, describe(p.token)),
		MissingTable: !p.sawTable,
	})
}

// failed returns true once any error has been recorded.
func (p *Parser) failed() bool {
	return len(p.errors) > 0
}

// span returns the span from start to the end of the last consumed token.
func (p *Parser) span(start Position) token.Span {
	return token.Span{Start: start, End: p.prev.End()}
}

// describe renders a token for error messages.
func describe(tok Token) string {
	switch tok.Type {
	case TOKEN_EOF:
		return "end of input"
	case TOKEN_IDENT, TOKEN_NUMBER, TOKEN_ILLEGAL:
		return fmt.Sprintf("%q", tok.Literal)
	case TOKEN_STRING:
		return fmt.Sprintf("'%s'", tok.Literal)
	default:
		return tok.Type.String()
	}
}

func isQuoteChar(ch byte) bool {
	return ch == '\'' || ch == '"' || ch == '`' || ch == '['
}

// ---------- Keyword Helpers ----------

// softKeywords are keywords that may also be used as identifiers.
var softKeywords = map[TokenType]bool{
	TOKEN_FIRST:     true,
	TOKEN_LAST:      true,
	TOKEN_ROW:       true,
	TOKEN_ROWS:      true,
	TOKEN_RANGE:     true,
	TOKEN_GROUPS:    true,
	TOKEN_FILTER:    true,
	TOKEN_INDEX:     true,
	TOKEN_SCHEMA:    true,
	TOKEN_VIEW:      true,
	TOKEN_TEMPORARY: true,
	TOKEN_MATCHED:   true,
	TOKEN_OVERWRITE: true,
	TOKEN_RENAME:    true,
	TOKEN_REPLACE:   true,
	TOKEN_UNBOUNDED: true,
	TOKEN_PRECEDING: true,
	TOKEN_FOLLOWING: true,
	TOKEN_NULLS:     true,
	TOKEN_IF:        true,
	TOKEN_BEGIN:     true,
	TOKEN_COMMIT:    true,
	TOKEN_ROLLBACK:  true,
	TOKEN_TRUNCATE:  true,
	TOKEN_USE:       true,
	TOKEN_WITHIN:    true,
	TOKEN_CURRENT:   true,
}

// isIdent returns true if the token can be used as a name.
func (p *Parser) isIdent(tok Token) bool {
	return tok.Type == TOKEN_IDENT || softKeywords[tok.Type]
}

// parseIdent consumes a name, recording an error if the current token is not one.
func (p *Parser) parseIdent(what string) string {
	if !p.isIdent(p.token) {
		p.addError(fmt.Sprintf("expected %s, got %s", what, describe(p.token)))
		return ""
	}
	name := p.token.Literal
	p.nextToken()
	return name
}

// isForeignClause returns true if the token is an identifier spelled like a
// clause keyword that some other dialect registers (e.g. QUALIFY under ANSI).
func (p *Parser) isForeignClause(tok Token) bool {
	if tok.Type != TOKEN_IDENT || tok.Quoted {
		return false
	}
	t, ok := token.LookupDynamicKeyword(tok.Literal)
	if !ok {
		return false
	}
	_, known := dialect.IsKnownClause(t)
	return known
}

// isJoinKeyword returns true if token is a JOIN-related keyword.
func (p *Parser) isJoinKeyword(tok Token) bool {
	switch tok.Type {
	case TOKEN_JOIN, TOKEN_LEFT, TOKEN_RIGHT, TOKEN_INNER, TOKEN_OUTER,
		TOKEN_FULL, TOKEN_CROSS, TOKEN_ON, TOKEN_LATERAL, TOKEN_NATURAL, TOKEN_USING:
		return true
	}
	return p.dialect.IsJoinTypeToken(tok.Type)
}

// canAlias returns true if an identifier at the current position may be
// taken as an alias written without AS.
func (p *Parser) canAlias(tok Token) bool {
	return tok.Type == TOKEN_IDENT && !p.isForeignClause(tok)
}

// parseAlias parses [AS] alias. Soft keywords are allowed after AS.
func (p *Parser) parseAlias() string {
	if p.match(TOKEN_AS) {
		if p.isIdent(p.token) || p.check(TOKEN_STRING) {
			alias := p.token.Literal
			p.nextToken()
			return alias
		}
		p.addError(fmt.Sprintf("expected alias after AS, got %s", describe(p.token)))
		return ""
	}
	if p.canAlias(p.token) {
		alias := p.token.Literal
		p.nextToken()
		return alias
	}
	return ""
}

// isWord reports whether tok is the unquoted identifier word.
func isWord(tok Token, word string) bool {
	return tok.Type == TOKEN_IDENT && !tok.Quoted && equalFold(tok.Literal, word)
}

// equalFold is an ASCII case-insensitive comparison.
func equalFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if ca >= 'A' && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if cb >= 'A' && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}

// skipBalanced consumes tokens until one of the stop tokens is found at
// parenthesis depth 0 or input ends.
func (p *Parser) skipBalanced(stop ...TokenType) []Token {
	var skipped []Token
	depth := 0
	for !p.check(TOKEN_EOF) {
		if depth == 0 {
			if p.check(TOKEN_SEMICOLON) {
				break
			}
			for _, s := range stop {
				if p.check(s) {
					return skipped
				}
			}
		}
		switch p.token.Type {
		case TOKEN_LPAREN:
			depth++
		case TOKEN_RPAREN:
			if depth == 0 {
				return skipped
			}
			depth--
		case TOKEN_ILLEGAL:
			p.addError(fmt.Sprintf("unexpected character %s", describe(p.token)))
			return skipped
		}
		skipped = append(skipped, p.token)
		p.nextToken()
	}
	return skipped
}
