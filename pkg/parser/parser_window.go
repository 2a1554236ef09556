package parser

import (
	"strings"

	"github.com/leapstack-labs/sqllineage/pkg/ast"
)

// Window specification parsing: OVER clauses, PARTITION BY, ORDER BY, frame specs.
//
// Grammar:
//
//	window_spec   → identifier | "(" [base_window] [PARTITION BY expr_list] [ORDER BY order_list] [frame_spec] ")"
//	frame_spec    → (ROWS|RANGE|GROUPS) frame_extent [EXCLUDE ...]
//	frame_extent  → BETWEEN frame_bound AND frame_bound | frame_bound
//	frame_bound   → UNBOUNDED PRECEDING | UNBOUNDED FOLLOWING | CURRENT ROW | expr PRECEDING | expr FOLLOWING
//
// Frames never affect lineage and are kept as their normalized text.

// parseWindowSpec parses a window specification.
func (p *Parser) parseWindowSpec() *ast.WindowSpec {
	spec := &ast.WindowSpec{}

	// Named window reference
	if p.isIdent(p.token) {
		spec.Name = p.token.Literal
		p.nextToken()
		return spec
	}

	if !p.expect(TOKEN_LPAREN) {
		return spec
	}

	// Base window: OVER (w ORDER BY x)
	if p.check(TOKEN_IDENT) {
		spec.Name = p.token.Literal
		p.nextToken()
	}

	// PARTITION BY
	if p.match(TOKEN_PARTITION) {
		p.expect(TOKEN_BY)
		spec.PartitionBy = p.parseExpressionList()
	}

	// ORDER BY
	if p.match(TOKEN_ORDER) {
		p.expect(TOKEN_BY)
		spec.OrderBy = p.parseOrderByList()
	}

	// Frame specification
	if p.check(TOKEN_ROWS) || p.check(TOKEN_RANGE) || p.check(TOKEN_GROUPS) {
		spec.Frame = p.parseFrameSpec()
	}

	p.expect(TOKEN_RPAREN)
	return spec
}

// parseFrameSpec consumes a window frame specification and returns its
// upper-cased text.
func (p *Parser) parseFrameSpec() string {
	words := make([]string, 0, 8)
	for _, tok := range p.skipBalanced() {
		lit := tok.Literal
		if tok.Type != TOKEN_STRING && tok.Type != TOKEN_NUMBER {
			lit = strings.ToUpper(lit)
		}
		words = append(words, lit)
	}
	return strings.Join(words, " ")
}
