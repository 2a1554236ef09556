package parser

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/sqllineage/pkg/ast"
	"github.com/leapstack-labs/sqllineage/pkg/dialect"
)

// Primary expression parsing: literals, column refs, function calls.
//
// Grammar:
//
//	primary       → literal | column_ref | func_call | paren_expr | case_expr | cast_expr
//	              | exists_expr | list_literal | parameter
//	literal       → NUMBER | STRING | TRUE | FALSE | NULL
//	              | (DATE|TIME|TIMESTAMP) STRING | INTERVAL (STRING | NUMBER unit)
//	column_ref    → [table "."] column | [schema "." table "."] column
//	func_call     → name "(" [DISTINCT|ALL] [expr_list | "*"] [ORDER BY order_list] ")"
//	                [WITHIN GROUP "(" ORDER BY order_list ")"]
//	                [FILTER "(" WHERE expr ")"] [OVER window_spec]
//	list_literal  → "[" [expr_list] "]" | ARRAY "[" [expr_list] "]"
//	parameter     → ":" identifier | "?"

// typedLiteralPrefixes introduce a literal of the named type: DATE '2024-01-01'.
var typedLiteralPrefixes = map[string]bool{
	"date":      true,
	"time":      true,
	"timestamp": true,
	"datetime":  true,
	"interval":  true,
}

// niladicFunctions are functions called without parentheses.
var niladicFunctions = map[string]bool{
	"current_date":      true,
	"current_time":      true,
	"current_timestamp": true,
	"current_user":      true,
	"current_role":      true,
	"current_schema":    true,
	"current_catalog":   true,
	"session_user":      true,
	"system_user":       true,
	"localtime":         true,
	"localtimestamp":    true,
	"sysdate":           true,
	"systimestamp":      true,
}

// keywordFunctions are keywords that name a function when followed by "(".
var keywordFunctions = map[TokenType]bool{
	TOKEN_LEFT:    true,
	TOKEN_RIGHT:   true,
	TOKEN_REPLACE: true,
	TOKEN_IF:      true,
	TOKEN_ROW:     true,
	TOKEN_FIRST:   true,
	TOKEN_LAST:    true,
}

// parsePrimary parses primary expressions. It returns nil after recording
// an error.
func (p *Parser) parsePrimary() ast.Expr {
	start := p.token.Pos

	switch p.token.Type {
	case TOKEN_NUMBER:
		return p.literal(ast.LiteralNumber, p.token.Literal)

	case TOKEN_STRING:
		return p.literal(ast.LiteralString, p.token.Literal)

	case TOKEN_TRUE:
		return p.literal(ast.LiteralBool, "true")

	case TOKEN_FALSE:
		return p.literal(ast.LiteralBool, "false")

	case TOKEN_NULL:
		return p.literal(ast.LiteralNull, "null")

	case TOKEN_CASE:
		return p.parseCaseExpr()

	case TOKEN_CAST:
		return p.parseCastExpr()

	case TOKEN_NOT:
		// NOT EXISTS
		if p.checkPeek(TOKEN_EXISTS) {
			p.nextToken() // consume NOT
			return p.parseExistsExpr(start, true)
		}
		p.nextToken()
		return p.unary(start, TOKEN_NOT, p.parsePrimary())

	case TOKEN_EXISTS:
		return p.parseExistsExpr(start, false)

	case TOKEN_LPAREN:
		return p.parseParenExpr()

	case TOKEN_LBRACKET:
		return p.parseListLiteral(start)

	case TOKEN_STAR:
		// SELECT * context
		p.nextToken()
		star := &ast.StarExpr{}
		star.Span = p.span(start)
		return star

	case TOKEN_COLON:
		// Named bind parameter
		if p.checkPeek(TOKEN_IDENT) {
			p.nextToken()
			name := p.token.Literal
			return p.literal(ast.LiteralString, ":"+name)
		}

	case TOKEN_ILLEGAL:
		if p.token.Literal == "?" {
			return p.literal(ast.LiteralString, "?")
		}
	}

	if p.isIdent(p.token) || (keywordFunctions[p.token.Type] && p.checkPeek(TOKEN_LPAREN)) {
		return p.parseIdentifierExpr()
	}

	p.addError(fmt.Sprintf(ErrUnexpectedToken, describe(p.token), "expression"))
	return nil
}

// literal consumes the current token as a literal of the given type.
func (p *Parser) literal(t ast.LiteralType, value string) ast.Expr {
	start := p.token.Pos
	p.nextToken()
	lit := &ast.Literal{Type: t, Value: value}
	lit.Span = p.span(start)
	return lit
}

// parseIdentifierExpr parses an identifier which could be a column ref or function call.
func (p *Parser) parseIdentifierExpr() ast.Expr {
	start := p.token.Pos
	tok := p.token
	name := tok.Literal
	lower := strings.ToLower(name)
	p.nextToken()

	if !tok.Quoted {
		// DATE '2024-01-01', INTERVAL '1' DAY, INTERVAL 3 DAYS
		if typedLiteralPrefixes[lower] && (p.check(TOKEN_STRING) || (lower == "interval" && p.check(TOKEN_NUMBER))) {
			value := p.token.Literal
			p.nextToken()
			if lower == "interval" && p.check(TOKEN_IDENT) {
				value += " " + p.token.Literal
				p.nextToken()
			}
			lit := &ast.Literal{Type: ast.LiteralString, Value: value}
			lit.Span = p.span(start)
			return lit
		}

		if niladicFunctions[lower] && !p.check(TOKEN_LPAREN) && !p.check(TOKEN_DOT) {
			fn := &ast.FuncCall{Name: strings.ToUpper(name)}
			fn.Span = p.span(start)
			return fn
		}

		if lower == "array" && p.check(TOKEN_LBRACKET) {
			return p.parseListLiteral(start)
		}
	}

	// Check if it's a function call
	if p.check(TOKEN_LPAREN) {
		return p.parseFuncCall(name, start)
	}

	// Qualified column reference: table.column or schema.table.column
	if p.check(TOKEN_DOT) {
		return p.parseQualifiedColumnRef(name, start)
	}

	// Simple column reference
	ref := &ast.ColumnRef{Column: name}
	ref.Span = p.span(start)
	return ref
}

// parseQualifiedColumnRef parses a qualified column reference or a
// schema-qualified function call.
func (p *Parser) parseQualifiedColumnRef(firstPart string, start Position) ast.Expr {
	parts := []string{firstPart}

	for p.match(TOKEN_DOT) {
		// Check for table.*
		if p.check(TOKEN_STAR) {
			p.nextToken()
			star := &ast.StarExpr{Table: parts[len(parts)-1]}
			star.Span = p.span(start)
			return star
		}

		parts = append(parts, p.parseIdent("column name"))
		if p.failed() {
			return nil
		}
	}

	// schema.func(...)
	if p.check(TOKEN_LPAREN) {
		return p.parseFuncCall(strings.Join(parts, "."), start)
	}

	// Build column reference; catalog and schema qualifiers are dropped
	// in favor of table.column.
	ref := &ast.ColumnRef{
		Table:  parts[len(parts)-2],
		Column: parts[len(parts)-1],
	}
	ref.Span = p.span(start)
	return ref
}

// parseListLiteral parses [a, b] or ARRAY[a, b].
func (p *Parser) parseListLiteral(start Position) ast.Expr {
	p.expect(TOKEN_LBRACKET)
	list := &ast.ListExpr{}
	if !p.check(TOKEN_RBRACKET) {
		list.Items = p.parseExpressionList()
	}
	p.expect(TOKEN_RBRACKET)
	list.Span = p.span(start)
	return list
}

// parseFuncCall parses a function call. The current token is "(".
func (p *Parser) parseFuncCall(name string, start Position) ast.Expr {
	fn := &ast.FuncCall{Name: strings.ToUpper(name)}

	p.expect(TOKEN_LPAREN)

	switch fn.Name {
	case "EXTRACT", "DATE_PART", "DATEPART", "DATEADD", "DATEDIFF", "DATE_TRUNC", "DATETRUNC":
		p.parseDatePartArgs(fn)
	case "CONVERT", "TRY_CONVERT":
		p.parseConvertArgs(fn)
	case "TRY_CAST", "SAFE_CAST":
		cast := &ast.CastExpr{Expr: p.parseExpression()}
		p.expect(TOKEN_AS)
		cast.TypeName = p.parseTypeName()
		fn.Args = append(fn.Args, cast)
	case "TRIM":
		if p.checkWord("both") || p.checkWord("leading") || p.checkWord("trailing") {
			p.nextToken()
		}
		p.parseFuncArgs(fn)
	default:
		p.parseFuncArgs(fn)
	}

	p.expect(TOKEN_RPAREN)
	p.parseFuncSuffix(fn)

	fn.Span = p.span(start)
	return fn
}

// parseFuncArgs parses the argument list of a regular call.
func (p *Parser) parseFuncArgs(fn *ast.FuncCall) {
	// Handle COUNT(*) or other aggregate(*)
	if p.check(TOKEN_STAR) {
		fn.Star = true
		p.nextToken()
		return
	}
	if p.check(TOKEN_RPAREN) {
		return
	}

	// Check for DISTINCT
	if p.match(TOKEN_DISTINCT) {
		fn.Distinct = true
	} else {
		p.match(TOKEN_ALL)
	}

	// Parse arguments. FROM, FOR and IN separate arguments in
	// SUBSTRING(x FROM 1 FOR 2) and POSITION(a IN b).
	for !p.failed() {
		var arg ast.Expr
		if fn.Name == "POSITION" && len(fn.Args) == 0 {
			arg = p.parseExpressionWithPrecedence(dialect.PrecedenceAddition)
		} else {
			arg = p.parseExpression()
		}
		if arg != nil {
			fn.Args = append(fn.Args, arg)
		}

		if p.match(TOKEN_COMMA) || p.match(TOKEN_FROM) || p.matchWord("for") || p.match(TOKEN_IN) {
			continue
		}
		break
	}

	// string_agg(x, ',' ORDER BY y)
	if p.match(TOKEN_ORDER) {
		p.expect(TOKEN_BY)
		fn.OrderBy = p.parseOrderByList()
	}

	// array_agg(x IGNORE NULLS), LIMIT n inside aggregates
	p.parseNullTreatment()
	if p.match(TOKEN_LIMIT) {
		p.parseExpression()
	}
}

// parseDatePartArgs parses EXTRACT(part FROM expr) and the date functions
// whose first argument is a date part keyword rather than a column.
func (p *Parser) parseDatePartArgs(fn *ast.FuncCall) {
	if p.isIdent(p.token) && !p.checkPeek(TOKEN_LPAREN) && !p.checkPeek(TOKEN_DOT) {
		part := p.literal(ast.LiteralString, p.token.Literal)
		fn.Args = append(fn.Args, part)
		if !p.match(TOKEN_FROM) && !p.match(TOKEN_COMMA) {
			return
		}
	}
	for !p.failed() && !p.check(TOKEN_RPAREN) {
		fn.Args = append(fn.Args, p.parseExpression())
		if !p.match(TOKEN_COMMA) {
			break
		}
	}
}

// parseConvertArgs parses CONVERT(type, expr [, style]).
func (p *Parser) parseConvertArgs(fn *ast.FuncCall) {
	start := p.token.Pos
	typeName := p.parseTypeName()
	if !p.match(TOKEN_COMMA) {
		return
	}
	cast := &ast.CastExpr{Expr: p.parseExpression(), TypeName: typeName}
	cast.Span = p.span(start)
	fn.Args = append(fn.Args, cast)
	for !p.failed() && p.match(TOKEN_COMMA) {
		fn.Args = append(fn.Args, p.parseExpression())
	}
}

// parseNullTreatment skips IGNORE NULLS / RESPECT NULLS.
func (p *Parser) parseNullTreatment() {
	if (p.checkWord("ignore") || p.checkWord("respect")) && p.checkPeek(TOKEN_NULLS) {
		p.nextToken()
		p.nextToken()
	}
}

// parseFuncSuffix parses WITHIN GROUP, FILTER and OVER after the argument list.
func (p *Parser) parseFuncSuffix(fn *ast.FuncCall) {
	if p.failed() {
		return
	}

	// WITHIN GROUP (ORDER BY ...) for ordered-set aggregates
	if p.match(TOKEN_WITHIN) {
		p.expect(TOKEN_GROUP)
		p.expect(TOKEN_LPAREN)
		p.expect(TOKEN_ORDER)
		p.expect(TOKEN_BY)
		fn.OrderBy = append(fn.OrderBy, p.parseOrderByList()...)
		p.expect(TOKEN_RPAREN)
	}

	// FILTER clause (for aggregates)
	if p.check(TOKEN_FILTER) && p.checkPeek(TOKEN_LPAREN) {
		p.nextToken()
		p.expect(TOKEN_LPAREN)
		p.expect(TOKEN_WHERE)
		fn.Filter = p.parseExpression()
		p.expect(TOKEN_RPAREN)
	}

	p.parseNullTreatment()

	// OVER clause (window function)
	if p.match(TOKEN_OVER) {
		fn.Window = p.parseWindowSpec()
	}
}
