package parser

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/sqllineage/pkg/ast"
)

// FROM clause parsing: table references, derived tables, lateral joins, JOINs.
//
// Grammar:
//
//	from_clause   → table_ref (join)*
//	table_ref     → table_name | derived_table | lateral_table | table_func | values_table
//	table_name    → [catalog "."] [schema "."] identifier [[AS] identifier] [table_hints]
//	derived_table → "(" query ")" [AS] identifier ["(" ident_list ")"]
//	nested_join   → "(" from_clause ")" [[AS] identifier]
//	lateral_table → LATERAL ("(" query ")" | table_func) [AS] identifier
//	table_func    → name "(" [expr_list] ")" [[AS] identifier ["(" ident_list ")"]]
//	values_table  → "(" VALUES row ("," row)* ")" [AS] identifier ["(" ident_list ")"]
//	join          → [NATURAL] join_type JOIN table_ref [ON expr | USING "(" ident_list ")"]
//	              | "," table_ref
//	join_type     → [INNER] | LEFT [OUTER] | RIGHT [OUTER] | FULL [OUTER] | CROSS | dialect types
//	table_hints   → WITH "(" ... ")"        (tsql)

// parseFromClause parses a FROM-like clause. keyword names the clause for
// error messages.
func (p *Parser) parseFromClause(keyword string) *ast.FromClause {
	start := p.token.Pos
	from := &ast.FromClause{}
	from.Source = p.parseTableRef(keyword)

	// Parse JOINs
	for !p.failed() {
		join := p.parseJoin()
		if join == nil {
			break
		}
		from.Joins = append(from.Joins, join)
	}

	from.Span = p.span(start)
	return from
}

// parseTableRef parses a table reference.
func (p *Parser) parseTableRef(after string) ast.TableRef {
	if !p.check(TOKEN_LATERAL) && !p.check(TOKEN_LPAREN) && !p.check(TOKEN_VALUES) && !p.isIdent(p.token) {
		p.addMissingTable(after)
		return nil
	}
	p.sawTable = true

	// LATERAL subquery or function
	if p.match(TOKEN_LATERAL) {
		return p.parseLateralTable()
	}

	// Derived table (subquery) or VALUES list
	if p.check(TOKEN_LPAREN) {
		if p.checkPeek(TOKEN_VALUES) {
			return p.parseValuesTable()
		}
		return p.parseDerivedTable()
	}

	if p.check(TOKEN_VALUES) {
		return p.parseValuesTable()
	}

	// Table-valued function
	if p.isTableFunctionStart() {
		return p.parseTableFunction()
	}

	// Simple table name
	return p.parseTableName(true)
}

// isTableFunctionStart returns true if the current position holds name "(".
func (p *Parser) isTableFunctionStart() bool {
	if p.checkPeek(TOKEN_LPAREN) {
		return true
	}
	// schema.func(
	return p.checkPeek(TOKEN_DOT) && p.isIdent(p.peek2) && p.lookaheadParenAfterName()
}

// lookaheadParenAfterName scans a dotted name from a cloned lexer state.
// The parser keeps only two tokens of lookahead, so qualified table
// functions are detected by the token after the dotted name.
func (p *Parser) lookaheadParenAfterName() bool {
	clone := *p.lexer
	clone.Comments = nil
	tok := clone.NextToken()
	for tok.Type == TOKEN_DOT {
		tok = clone.NextToken() // name
		tok = clone.NextToken()
	}
	return tok.Type == TOKEN_LPAREN
}

// parseTableName parses a table name with optional schema/catalog. When
// allowAlias is set an alias and tsql table hints may follow.
func (p *Parser) parseTableName(allowAlias bool) *ast.TableName {
	start := p.token.Pos
	table := &ast.TableName{}

	parts := p.parseQualifiedName("table name")
	if p.failed() {
		return table
	}
	p.sawTable = true

	switch len(parts) {
	case 1:
		table.Name = parts[0]
	case 2:
		table.Schema = parts[0]
		table.Name = parts[1]
	default:
		table.Catalog = strings.Join(parts[:len(parts)-2], ".")
		table.Schema = parts[len(parts)-2]
		table.Name = parts[len(parts)-1]
	}

	if allowAlias {
		table.Alias = p.parseAlias()
		p.parseTableHints()
	}

	table.Span = p.span(start)
	return table
}

// parseQualifiedName parses ident ("." ident)*. Empty parts (a..b in tsql)
// are kept as empty strings.
func (p *Parser) parseQualifiedName(what string) []string {
	parts := []string{p.parseIdent(what)}
	for !p.failed() && p.check(TOKEN_DOT) {
		p.nextToken()
		if p.check(TOKEN_DOT) {
			parts = append(parts, "")
			continue
		}
		parts = append(parts, p.parseIdent(what))
	}
	return parts
}

// parseTableHints skips tsql table hints: WITH (NOLOCK, INDEX(ix)).
func (p *Parser) parseTableHints() {
	if !p.dialect.ImplicitTerminators || !p.check(TOKEN_WITH) || !p.checkPeek(TOKEN_LPAREN) {
		return
	}
	p.nextToken()
	p.nextToken()
	p.skipBalanced()
	p.expect(TOKEN_RPAREN)
}

// parseDerivedTable parses a derived table (subquery in FROM).
func (p *Parser) parseDerivedTable() ast.TableRef {
	start := p.token.Pos
	if !p.checkPeek(TOKEN_SELECT) && !p.checkPeek(TOKEN_WITH) && !p.checkPeek(TOKEN_LPAREN) {
		return p.parseNestedJoin()
	}
	p.expect(TOKEN_LPAREN)
	derived := &ast.DerivedTable{}
	derived.Select = p.parseQuery()
	p.expect(TOKEN_RPAREN)

	derived.Alias = p.parseAlias()
	if p.check(TOKEN_LPAREN) && derived.Alias != "" {
		p.parseIdentList() // column aliases
	}

	derived.Span = p.span(start)
	return derived
}

// parseNestedJoin parses a parenthesized join tree.
func (p *Parser) parseNestedJoin() *ast.NestedJoin {
	start := p.token.Pos
	p.expect(TOKEN_LPAREN)
	nested := &ast.NestedJoin{}
	nested.From = p.parseFromClause("(")
	p.expect(TOKEN_RPAREN)
	nested.Alias = p.parseAlias()
	nested.Span = p.span(start)
	return nested
}

// parseLateralTable parses a LATERAL subquery or function.
func (p *Parser) parseLateralTable() ast.TableRef {
	start := p.token.Pos
	if !p.check(TOKEN_LPAREN) {
		return p.parseTableFunction()
	}

	p.expect(TOKEN_LPAREN)
	lateral := &ast.LateralTable{}
	lateral.Select = p.parseQuery()
	p.expect(TOKEN_RPAREN)

	lateral.Alias = p.parseAlias()
	if p.check(TOKEN_LPAREN) && lateral.Alias != "" {
		p.parseIdentList()
	}

	lateral.Span = p.span(start)
	return lateral
}

// parseTableFunction parses a table-valued function call in FROM.
func (p *Parser) parseTableFunction() *ast.TableFunction {
	start := p.token.Pos
	parts := p.parseQualifiedName("function name")
	tf := &ast.TableFunction{}
	if p.failed() {
		return tf
	}

	call, _ := p.parseFuncCall(strings.Join(parts, "."), start).(*ast.FuncCall)
	tf.Func = call
	tf.Alias = p.parseAlias()
	if p.check(TOKEN_LPAREN) && tf.Alias != "" {
		p.parseIdentList()
	}

	tf.Span = p.span(start)
	return tf
}

// parseValuesTable parses an inline VALUES list used as a table.
func (p *Parser) parseValuesTable() *ast.ValuesTable {
	start := p.token.Pos
	values := &ast.ValuesTable{}

	paren := p.match(TOKEN_LPAREN)
	p.expect(TOKEN_VALUES)
	values.Rows = p.parseValueRows()
	if paren {
		p.expect(TOKEN_RPAREN)
	}

	values.Alias = p.parseAlias()
	if p.check(TOKEN_LPAREN) && values.Alias != "" {
		values.Columns = p.parseIdentList()
	}

	values.Span = p.span(start)
	return values
}

// parseValueRows parses row ("," row)* where row → "(" expr_list ")".
func (p *Parser) parseValueRows() [][]ast.Expr {
	var rows [][]ast.Expr
	for {
		p.expect(TOKEN_LPAREN)
		rows = append(rows, p.parseExpressionList())
		p.expect(TOKEN_RPAREN)
		if p.failed() || !p.match(TOKEN_COMMA) {
			break
		}
	}
	return rows
}

// parseJoin parses a JOIN clause.
func (p *Parser) parseJoin() *ast.Join {
	start := p.token.Pos
	join := &ast.Join{}

	// Comma join (implicit cross join) - hardcoded special case
	if p.match(TOKEN_COMMA) {
		join.Type = ast.JoinComma
		join.Right = p.parseTableRef(",")
		join.Span = p.span(start)
		return join
	}

	// Check for NATURAL modifier first
	if p.match(TOKEN_NATURAL) {
		join.Natural = true
	}

	requiresOn := true

	// Try dialect join type lookup (covers standard + extensions)
	if def, ok := p.dialect.JoinTypeDef(p.token.Type); ok {
		join.Type = def.Type
		requiresOn = def.RequiresOn
		p.nextToken()

		// Handle optional modifier (OUTER for LEFT/RIGHT/FULL)
		if def.OptionalToken != 0 {
			p.match(def.OptionalToken)
		}

		// Check for compound syntax (LEFT SEMI, LEFT ANTI)
		if subDef, ok := p.dialect.JoinTypeDef(p.token.Type); ok && subDef.Type != def.Type {
			join.Type = subDef.Type
			requiresOn = subDef.RequiresOn
			p.nextToken()
		}
	} else if !p.check(TOKEN_JOIN) {
		// Plain JOIN (no type keyword) = INNER JOIN
		if join.Natural {
			p.addError(fmt.Sprintf(ErrUnexpectedToken, describe(p.token), "JOIN"))
		}
		return nil
	} else {
		join.Type = ast.JoinInner
	}

	if !p.expect(TOKEN_JOIN) {
		return nil
	}

	join.Right = p.parseTableRef("JOIN")
	p.parseJoinCondition(join, requiresOn)
	join.Span = p.span(start)
	return join
}

// parseJoinCondition handles ON/USING/NATURAL validation.
func (p *Parser) parseJoinCondition(join *ast.Join, requiresOn bool) {
	if p.failed() {
		return
	}
	switch {
	case join.Natural:
		// NATURAL JOIN cannot have ON or USING
		if p.check(TOKEN_ON) {
			p.addError("NATURAL JOIN cannot have ON clause")
		}
		if p.check(TOKEN_USING) {
			p.addError("NATURAL JOIN cannot have USING clause")
		}
	case p.match(TOKEN_ON):
		join.Condition = p.parseExpression()
	case p.match(TOKEN_USING):
		join.Using = p.parseIdentList()
	case requiresOn:
		p.addError(fmt.Sprintf(ErrUnexpectedToken, describe(p.token), "ON or USING"))
	}
}
