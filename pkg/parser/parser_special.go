package parser

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/sqllineage/pkg/ast"
)

// Special expression parsing: CASE, CAST, EXISTS, parenthesized expressions, subqueries.
//
// Grammar:
//
//	case_expr     → CASE [expr] (WHEN expr THEN expr)+ [ELSE expr] END
//	cast_expr     → CAST "(" expr AS type_name ")"
//	exists_expr   → [NOT] EXISTS "(" query ")"
//	paren_expr    → "(" expression ")" | "(" expr_list ")" | "(" query ")"
//	type_name     → identifier [identifier] ["(" params ")"] [WITH[OUT] TIME ZONE] ["[" "]"]

// parseCaseExpr parses a CASE expression.
func (p *Parser) parseCaseExpr() ast.Expr {
	start := p.token.Pos
	p.expect(TOKEN_CASE)
	caseExpr := &ast.CaseExpr{}

	// Simple CASE: CASE expr WHEN ...
	if !p.check(TOKEN_WHEN) {
		caseExpr.Operand = p.parseExpression()
	}

	// WHEN clauses
	for !p.failed() && p.match(TOKEN_WHEN) {
		when := ast.WhenClause{}
		when.Condition = p.parseExpression()
		p.expect(TOKEN_THEN)
		when.Result = p.parseExpression()
		caseExpr.Whens = append(caseExpr.Whens, when)
	}
	if len(caseExpr.Whens) == 0 && !p.failed() {
		p.addError(fmt.Sprintf(ErrUnexpectedToken, describe(p.token), "WHEN"))
	}

	// ELSE clause
	if p.match(TOKEN_ELSE) {
		caseExpr.Else = p.parseExpression()
	}

	p.expect(TOKEN_END)
	caseExpr.Span = p.span(start)
	return caseExpr
}

// parseCastExpr parses a CAST expression.
func (p *Parser) parseCastExpr() ast.Expr {
	start := p.token.Pos
	p.expect(TOKEN_CAST)
	p.expect(TOKEN_LPAREN)

	cast := &ast.CastExpr{}
	cast.Expr = p.parseExpression()

	p.expect(TOKEN_AS)

	// Parse type name (can be qualified with parameters like VARCHAR(255))
	cast.TypeName = p.parseTypeName()

	p.expect(TOKEN_RPAREN)
	cast.Span = p.span(start)
	return cast
}

// parseTypeName parses a type name with optional parameters.
func (p *Parser) parseTypeName() string {
	if !p.isIdent(p.token) {
		p.addError(fmt.Sprintf(ErrUnexpectedToken, describe(p.token), "type name"))
		return ""
	}

	var b strings.Builder
	first := strings.ToLower(p.token.Literal)
	b.WriteString(p.token.Literal)
	p.nextToken()

	// Two-word types
	switch {
	case first == "double" && p.checkWord("precision"),
		(first == "character" || first == "char") && p.checkWord("varying"):
		b.WriteString(" " + p.token.Literal)
		p.nextToken()
	}

	// Type parameters like VARCHAR(255), DECIMAL(10, 2) or VARCHAR(MAX)
	if p.match(TOKEN_LPAREN) {
		b.WriteString("(")
		for _, tok := range p.skipBalanced() {
			b.WriteString(tok.Literal)
		}
		p.expect(TOKEN_RPAREN)
		b.WriteString(")")
	}

	// TIMESTAMP WITH TIME ZONE / WITHOUT TIME ZONE
	if (p.check(TOKEN_WITH) && isWord(p.peek, "time")) || (p.checkWord("without") && isWord(p.peek, "time")) {
		b.WriteString(" " + strings.ToUpper(p.token.Literal) + " TIME ZONE")
		p.nextToken()
		p.nextToken()
		if !p.matchWord("zone") {
			p.addError(fmt.Sprintf(ErrUnexpectedToken, describe(p.token), "ZONE"))
		}
	}

	// Array types: INT[]
	for p.check(TOKEN_LBRACKET) && p.checkPeek(TOKEN_RBRACKET) {
		p.nextToken()
		p.nextToken()
		b.WriteString("[]")
	}

	return b.String()
}

// parseParenExpr parses a parenthesized expression, tuple, or subquery.
func (p *Parser) parseParenExpr() ast.Expr {
	start := p.token.Pos
	p.expect(TOKEN_LPAREN)

	// Check if this is a subquery
	if p.check(TOKEN_SELECT) || p.check(TOKEN_WITH) ||
		(p.check(TOKEN_LPAREN) && (p.checkPeek(TOKEN_SELECT) || p.checkPeek(TOKEN_WITH))) {
		// Subquery expression (scalar subquery in SELECT, or in WHERE/HAVING)
		subquery := &ast.SubqueryExpr{Select: p.parseQuery()}
		p.expect(TOKEN_RPAREN)
		subquery.Span = p.span(start)
		return subquery
	}

	// Parse the first expression
	expr := p.parseExpression()

	// Comma-separated tuple: (a, b) or GROUPING SETS ((a), (b))
	if p.check(TOKEN_COMMA) {
		list := &ast.ListExpr{Items: []ast.Expr{expr}}
		for !p.failed() && p.match(TOKEN_COMMA) {
			list.Items = append(list.Items, p.parseExpression())
		}
		p.expect(TOKEN_RPAREN)
		list.Span = p.span(start)
		return list
	}

	p.expect(TOKEN_RPAREN)
	paren := &ast.ParenExpr{Expr: expr}
	paren.Span = p.span(start)
	return paren
}

// parseExistsExpr parses an EXISTS expression. start is the position of
// NOT when present.
func (p *Parser) parseExistsExpr(start Position, not bool) ast.Expr {
	// Consume EXISTS keyword
	p.nextToken()

	exists := &ast.ExistsExpr{Not: not}
	p.expect(TOKEN_LPAREN)
	exists.Select = p.parseQuery()
	p.expect(TOKEN_RPAREN)

	exists.Span = p.span(start)
	return exists
}
