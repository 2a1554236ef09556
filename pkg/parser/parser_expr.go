package parser

import (
	"fmt"

	"github.com/leapstack-labs/sqllineage/pkg/ast"
	"github.com/leapstack-labs/sqllineage/pkg/dialect"
)

// Expression precedence parsing using Pratt parser with dialect-aware precedence.
//
// Precedence levels (from dialect package):
//
//	PrecedenceNone       = 0
//	PrecedenceOr         = 1
//	PrecedenceAnd        = 2
//	PrecedenceNot        = 3
//	PrecedenceComparison = 4  (=, !=, <, >, <=, >=, IS, IN, BETWEEN, LIKE, ILIKE)
//	PrecedenceAddition   = 5  (+, -, ||)
//	PrecedenceMultiply   = 6  (*, /, %)
//	PrecedenceUnary      = 7  (-, +, NOT)
//	PrecedencePostfix    = 8  (::, [])
//
// The parser uses dialect.Precedence() to look up operator precedence, so an
// operator a dialect does not register (ILIKE under ANSI, :: under T-SQL)
// ends the expression and surfaces as a syntax error further up.

// parseExpression parses an expression using precedence climbing.
func (p *Parser) parseExpression() ast.Expr {
	return p.parseExpressionWithPrecedence(dialect.PrecedenceNone + 1)
}

// parseExpressionWithPrecedence implements Pratt parsing with dialect-aware precedence.
func (p *Parser) parseExpressionWithPrecedence(minPrecedence int) ast.Expr {
	// Parse prefix (unary operators and primary expressions)
	left := p.parsePrefixExpr()
	if left == nil {
		return nil
	}

	// Parse infix operators while their precedence is >= minPrecedence
	for !p.failed() {
		prec := p.getInfixPrecedence()
		if prec == dialect.PrecedenceNone || prec < minPrecedence {
			break
		}

		left = p.parseInfixExpr(left, prec)
		if left == nil {
			break
		}
	}

	return left
}

// parsePrefixExpr parses prefix expressions (unary operators and primary expressions).
func (p *Parser) parsePrefixExpr() ast.Expr {
	start := p.token.Pos
	switch p.token.Type {
	case TOKEN_NOT:
		if p.checkPeek(TOKEN_EXISTS) {
			return p.parsePrimary()
		}
		p.nextToken()
		expr := p.parseExpressionWithPrecedence(dialect.PrecedenceNot)
		return p.unary(start, TOKEN_NOT, expr)

	case TOKEN_MINUS:
		p.nextToken()
		expr := p.parseExpressionWithPrecedence(dialect.PrecedenceUnary)
		return p.unary(start, TOKEN_MINUS, expr)

	case TOKEN_PLUS:
		p.nextToken()
		expr := p.parseExpressionWithPrecedence(dialect.PrecedenceUnary)
		return p.unary(start, TOKEN_PLUS, expr)

	default:
		return p.parsePrimary()
	}
}

func (p *Parser) unary(start Position, op TokenType, expr ast.Expr) ast.Expr {
	u := &ast.UnaryExpr{Op: op, Expr: expr}
	u.Span = p.span(start)
	return u
}

// getInfixPrecedence returns the precedence of the current token as an infix
// or postfix operator. Returns 0 if the token is not one.
func (p *Parser) getInfixPrecedence() int {
	if p.check(TOKEN_LBRACKET) {
		return dialect.PrecedencePostfix
	}
	return p.dialect.Precedence(p.token.Type)
}

// parseInfixExpr parses an infix expression given the left operand and current precedence.
func (p *Parser) parseInfixExpr(left ast.Expr, prec int) ast.Expr {
	start := left.Pos()

	// Handle special infix operators first
	switch p.token.Type {
	case TOKEN_NOT:
		// NOT IN, NOT BETWEEN, NOT LIKE, NOT ILIKE
		return p.parseNotInfixExpr(left)

	case TOKEN_IS:
		return p.parseIsExpr(left)

	case TOKEN_IN:
		p.nextToken()
		return p.parseInExpr(left, false)

	case TOKEN_BETWEEN:
		p.nextToken()
		return p.parseBetweenExpr(left, false)

	case TOKEN_LIKE:
		op := p.token.Type
		p.nextToken()
		return p.parseLikeExpr(left, false, op)

	case TOKEN_DCOLON:
		p.nextToken()
		cast := &ast.CastExpr{Expr: left, TypeName: p.parseTypeName()}
		cast.Span = p.span(start)
		return cast

	case TOKEN_LBRACKET:
		p.nextToken()
		idx := &ast.IndexExpr{Expr: left}
		idx.Index = p.parseExpression()
		if p.match(TOKEN_COLON) { // slice arr[1:2]
			p.parseExpression()
		}
		p.expect(TOKEN_RBRACKET)
		idx.Span = p.span(start)
		return idx
	}

	// ILIKE is registered by dialects, so it is matched by name.
	if p.isLikeVariant(p.token) {
		op := p.token.Type
		p.nextToken()
		return p.parseLikeExpr(left, false, op)
	}

	// Standard binary operators
	op := p.token
	p.nextToken()

	// Parse right operand with higher precedence (left-associative)
	right := p.parseExpressionWithPrecedence(prec + 1)

	bin := &ast.BinaryExpr{Left: left, Op: op.Type, Right: right}
	bin.Span = p.span(start)
	return bin
}

// isLikeVariant returns true for dialect pattern-matching keywords that take
// the LIKE form.
func (p *Parser) isLikeVariant(tok Token) bool {
	return tok.Type.String() == "ILIKE"
}

// parseNotInfixExpr handles NOT as an infix modifier (NOT IN, NOT BETWEEN, NOT LIKE).
func (p *Parser) parseNotInfixExpr(left ast.Expr) ast.Expr {
	p.nextToken() // consume NOT

	switch p.token.Type {
	case TOKEN_IN:
		p.nextToken()
		return p.parseInExpr(left, true)

	case TOKEN_BETWEEN:
		p.nextToken()
		return p.parseBetweenExpr(left, true)

	case TOKEN_LIKE:
		op := p.token.Type
		p.nextToken()
		return p.parseLikeExpr(left, true, op)

	default:
		if p.isLikeVariant(p.token) {
			op := p.token.Type
			p.nextToken()
			return p.parseLikeExpr(left, true, op)
		}

		// NOT without a recognized following keyword - treat as error
		p.addError(fmt.Sprintf(ErrUnexpectedToken, describe(p.token), "IN, BETWEEN, or LIKE after NOT"))
		return left
	}
}

// parseIsExpr parses IS [NOT] NULL / IS [NOT] TRUE / IS [NOT] FALSE /
// IS [NOT] DISTINCT FROM expr.
func (p *Parser) parseIsExpr(left ast.Expr) ast.Expr {
	start := left.Pos()
	p.nextToken() // consume IS

	isNot := p.match(TOKEN_NOT)

	switch p.token.Type {
	case TOKEN_NULL:
		p.nextToken()
		e := &ast.IsNullExpr{Expr: left, Not: isNot}
		e.Span = p.span(start)
		return e

	case TOKEN_TRUE, TOKEN_FALSE:
		value := p.check(TOKEN_TRUE)
		p.nextToken()
		e := &ast.IsBoolExpr{Expr: left, Not: isNot, Value: value}
		e.Span = p.span(start)
		return e

	case TOKEN_DISTINCT:
		p.nextToken()
		p.expect(TOKEN_FROM)
		right := p.parseExpressionWithPrecedence(dialect.PrecedenceAddition)
		e := &ast.BinaryExpr{Left: left, Op: TOKEN_IS, Right: right}
		e.Span = p.span(start)
		return e

	default:
		p.addError(fmt.Sprintf(ErrUnexpectedToken, describe(p.token), "NULL, TRUE, or FALSE after IS"))
		return left
	}
}

// parseInExpr parses an IN expression.
func (p *Parser) parseInExpr(left ast.Expr, not bool) ast.Expr {
	start := left.Pos()
	in := &ast.InExpr{Expr: left, Not: not}
	if !p.expect(TOKEN_LPAREN) {
		return in
	}

	// Check if it's a subquery
	if p.check(TOKEN_SELECT) || p.check(TOKEN_WITH) {
		in.Query = p.parseQuery()
	} else {
		// List of values
		in.Values = p.parseExpressionList()
	}

	p.expect(TOKEN_RPAREN)
	in.Span = p.span(start)
	return in
}

// parseBetweenExpr parses a BETWEEN expression.
func (p *Parser) parseBetweenExpr(left ast.Expr, not bool) ast.Expr {
	start := left.Pos()
	between := &ast.BetweenExpr{Expr: left, Not: not}
	// Parse low bound at addition precedence to avoid capturing AND
	between.Low = p.parseExpressionWithPrecedence(dialect.PrecedenceAddition)
	p.expect(TOKEN_AND)
	// Parse high bound at addition precedence
	between.High = p.parseExpressionWithPrecedence(dialect.PrecedenceAddition)
	between.Span = p.span(start)
	return between
}

// parseLikeExpr parses a LIKE/ILIKE expression.
func (p *Parser) parseLikeExpr(left ast.Expr, not bool, op TokenType) ast.Expr {
	start := left.Pos()
	like := &ast.LikeExpr{Expr: left, Not: not, Op: op}
	// Parse pattern at addition precedence
	like.Pattern = p.parseExpressionWithPrecedence(dialect.PrecedenceAddition)
	if p.matchWord("escape") {
		p.parsePrimary()
	}
	like.Span = p.span(start)
	return like
}
