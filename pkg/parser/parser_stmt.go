package parser

import (
	"fmt"

	"github.com/leapstack-labs/sqllineage/pkg/ast"
)

// Statement dispatch and query parsing: WITH clause, CTEs, SELECT body,
// SELECT list, ORDER BY.
//
// Grammar:
//
//	query         → [WITH cte_list] select_body
//	cte_list      → cte ("," cte)*
//	cte           → identifier ["(" ident_list ")"] AS "(" query ")"
//	select_body   → select_term [(UNION|INTERSECT|EXCEPT) [ALL|DISTINCT] select_body]
//	select_term   → select_core | "(" query ")"
//	select_core   → SELECT [DISTINCT|ALL] [TOP expr [PERCENT]] select_list
//	                [INTO table_name]
//	                [FROM from_clause]
//	                [WHERE expr] [GROUP BY expr_list] [HAVING expr]
//	                [WINDOW window_list] [QUALIFY expr]
//	                [ORDER BY order_list] [LIMIT expr] [OFFSET expr [ROWS]]
//	select_list   → select_item ("," select_item)*
//	select_item   → "*" | table "." "*" | expr [[AS] identifier]
//	order_list    → order_item ("," order_item)*
//	order_item    → expr [ASC|DESC] [NULLS FIRST|LAST]
//
// Optional clauses registered by dialects (QUALIFY, TOP) are only accepted
// when the current dialect supports them.

// parseStatement parses one statement of any supported kind.
func (p *Parser) parseStatement() ast.Statement {
	switch {
	case p.check(TOKEN_SELECT), p.check(TOKEN_LPAREN):
		return p.parseQuery()
	case p.check(TOKEN_WITH):
		return p.parseWithStatement()
	case p.check(TOKEN_INSERT):
		return p.parseInsert(nil)
	case p.check(TOKEN_CREATE):
		return p.parseCreate()
	case p.check(TOKEN_UPDATE):
		return p.parseUpdate()
	case p.check(TOKEN_DELETE):
		return p.parseDelete()
	case p.check(TOKEN_MERGE):
		return p.parseMerge()
	case p.check(TOKEN_ALTER):
		return p.parseAlter()
	case p.check(TOKEN_DROP):
		return p.parseDrop()
	case p.check(TOKEN_TRUNCATE):
		return p.parseTruncate()
	case p.check(TOKEN_USE):
		return p.parseUse()
	case p.check(TOKEN_SET), p.checkWord("declare"):
		return p.parseSet()
	case p.check(TOKEN_BEGIN), p.check(TOKEN_COMMIT), p.check(TOKEN_ROLLBACK),
		p.check(TOKEN_END), p.checkWord("start"):
		return p.parseTransaction()
	case p.checkWord("grant"), p.checkWord("revoke"):
		return p.parseOpaque(ast.KindGrant)
	default:
		p.addError(fmt.Sprintf(ErrUnknownStatement, describe(p.token)))
		return nil
	}
}

// parseWithStatement parses WITH ... followed by a query or an INSERT.
func (p *Parser) parseWithStatement() ast.Statement {
	start := p.token.Pos
	with := p.parseWithClause()
	if p.check(TOKEN_INSERT) {
		return p.parseInsert(with)
	}
	stmt := &ast.SelectStmt{With: with}
	stmt.Body = p.parseSelectBody()
	stmt.Span = p.span(start)
	return stmt
}

// parseQuery parses a complete query with optional WITH clause.
func (p *Parser) parseQuery() *ast.SelectStmt {
	start := p.token.Pos
	stmt := &ast.SelectStmt{}

	// Optional WITH clause
	if p.check(TOKEN_WITH) {
		stmt.With = p.parseWithClause()
	}

	// Required SELECT body
	stmt.Body = p.parseSelectBody()
	stmt.Span = p.span(start)

	// A fully parenthesized query is the query itself.
	if stmt.With == nil && stmt.Body != nil && stmt.Body.Op == ast.SetOpNone &&
		stmt.Body.Left != nil && stmt.Body.Left.Nested != nil {
		return stmt.Body.Left.Nested
	}
	return stmt
}

// isQueryStart returns true if the current token can start a query.
func (p *Parser) isQueryStart() bool {
	switch p.token.Type {
	case TOKEN_SELECT, TOKEN_WITH:
		return true
	case TOKEN_LPAREN:
		return p.checkPeek(TOKEN_SELECT) || p.checkPeek(TOKEN_WITH) || p.checkPeek(TOKEN_LPAREN)
	}
	return false
}

// parseWithClause parses a WITH clause with CTEs.
func (p *Parser) parseWithClause() *ast.WithClause {
	start := p.token.Pos
	p.expect(TOKEN_WITH)
	with := &ast.WithClause{}

	// Optional RECURSIVE
	if p.match(TOKEN_RECURSIVE) {
		with.Recursive = true
	}

	// Parse CTE list
	for {
		cte := p.parseCTE()
		with.CTEs = append(with.CTEs, cte)

		if p.failed() || !p.match(TOKEN_COMMA) {
			break
		}
	}

	with.Span = p.span(start)
	return with
}

// parseCTE parses a single CTE.
func (p *Parser) parseCTE() *ast.CTE {
	start := p.token.Pos
	cte := &ast.CTE{}

	// CTE name
	cte.Name = p.parseIdent("CTE name")
	if p.failed() {
		return cte
	}

	// Optional column list
	if p.check(TOKEN_LPAREN) {
		cte.Columns = p.parseIdentList()
	}

	// AS
	p.expect(TOKEN_AS)

	// ( query )
	p.expect(TOKEN_LPAREN)
	cte.Select = p.parseQuery()
	p.expect(TOKEN_RPAREN)

	cte.Span = p.span(start)
	return cte
}

// parseSelectBody parses a SELECT body with possible set operations.
func (p *Parser) parseSelectBody() *ast.SelectBody {
	start := p.token.Pos
	body := &ast.SelectBody{}
	body.Left = p.parseSelectTerm()

	// Check for set operations
	if !p.failed() && (p.check(TOKEN_UNION) || p.check(TOKEN_INTERSECT) || p.check(TOKEN_EXCEPT)) {
		switch p.token.Type {
		case TOKEN_UNION:
			p.nextToken()
			if p.match(TOKEN_ALL) {
				body.Op = ast.SetOpUnionAll
				body.All = true
			} else {
				body.Op = ast.SetOpUnion
				p.match(TOKEN_DISTINCT) // optional
			}
		case TOKEN_INTERSECT:
			p.nextToken()
			body.Op = ast.SetOpIntersect
			body.All = p.match(TOKEN_ALL)
		case TOKEN_EXCEPT:
			p.nextToken()
			body.Op = ast.SetOpExcept
			body.All = p.match(TOKEN_ALL)
		}

		// Parse the right side (recursively for chained operations)
		body.Right = p.parseSelectBody()
	}

	body.Span = p.span(start)
	return body
}

// parseSelectTerm parses a SELECT core or a parenthesized query.
func (p *Parser) parseSelectTerm() *ast.SelectCore {
	if p.check(TOKEN_LPAREN) {
		start := p.token.Pos
		p.nextToken()
		nested := p.parseQuery()
		p.expect(TOKEN_RPAREN)
		core := &ast.SelectCore{Nested: nested}
		core.Span = p.span(start)
		return core
	}
	return p.parseSelectCore()
}

// parseSelectCore parses a single SELECT clause.
func (p *Parser) parseSelectCore() *ast.SelectCore {
	start := p.token.Pos
	core := &ast.SelectCore{}
	if !p.expect(TOKEN_SELECT) {
		return core
	}

	// DISTINCT / ALL
	if p.match(TOKEN_DISTINCT) {
		core.Distinct = true
		if p.match(TOKEN_ON) { // DISTINCT ON (expr, ...)
			p.expect(TOKEN_LPAREN)
			core.GroupBy = p.parseExpressionList()
			p.expect(TOKEN_RPAREN)
		}
	} else {
		p.match(TOKEN_ALL) // optional, consume if present
	}

	// TOP n [PERCENT] [WITH TIES]
	if p.checkClause("TOP") {
		p.nextToken()
		if p.match(TOKEN_LPAREN) {
			core.Top = p.parseExpression()
			p.expect(TOKEN_RPAREN)
		} else {
			core.Top = p.parsePrimary()
		}
		p.matchWord("percent")
		if p.check(TOKEN_WITH) && isWord(p.peek, "ties") {
			p.nextToken()
			p.nextToken()
		}
	}

	// SELECT list
	core.Columns = p.parseSelectList()

	// SELECT ... INTO target
	if p.match(TOKEN_INTO) {
		p.matchAny(TOKEN_TEMPORARY)
		p.match(TOKEN_TABLE)
		core.Into = p.parseTableName(false)
	}

	// FROM clause
	if p.match(TOKEN_FROM) {
		core.From = p.parseFromClause("FROM")
	}

	// Optional clauses in their fixed order
	p.parseClauses(core)

	core.Span = p.span(start)
	return core
}

// checkClause returns true if the current token is the dialect clause with
// the given name.
func (p *Parser) checkClause(name string) bool {
	if p.token.Type.String() != name {
		return false
	}
	return p.dialect.SupportsClause(p.token.Type)
}

// parseClauses parses the optional clauses that follow FROM.
func (p *Parser) parseClauses(core *ast.SelectCore) {
	if p.failed() {
		return
	}

	if p.match(TOKEN_WHERE) {
		core.Where = p.parseExpression()
	}

	if p.match(TOKEN_GROUP) {
		p.expect(TOKEN_BY)
		if p.check(TOKEN_ALL) {
			p.nextToken() // GROUP BY ALL
		} else {
			core.GroupBy = append(core.GroupBy, p.parseGroupingList()...)
		}
	}

	if p.match(TOKEN_HAVING) {
		core.Having = p.parseExpression()
	}

	if p.match(TOKEN_WINDOW) {
		core.Windows = p.parseWindowDefs()
	}

	if p.checkClause("QUALIFY") {
		p.nextToken()
		core.Qualify = p.parseExpression()
	}

	if p.match(TOKEN_ORDER) {
		p.expect(TOKEN_BY)
		core.OrderBy = p.parseOrderByList()
	}

	if p.match(TOKEN_LIMIT) {
		if !p.match(TOKEN_ALL) {
			core.Limit = p.parseExpression()
		}
		if p.match(TOKEN_COMMA) { // LIMIT offset, count
			core.Offset = core.Limit
			core.Limit = p.parseExpression()
		}
	}

	if p.match(TOKEN_OFFSET) {
		core.Offset = p.parseExpression()
		if !p.match(TOKEN_ROWS) {
			p.match(TOKEN_ROW)
		}
	}

	// FETCH FIRST n ROWS ONLY
	if p.matchWord("fetch") {
		if !p.match(TOKEN_FIRST) {
			p.matchWord("next")
		}
		if !p.check(TOKEN_ROW) && !p.check(TOKEN_ROWS) {
			core.Limit = p.parseExpression()
		}
		if !p.match(TOKEN_ROWS) {
			p.expect(TOKEN_ROW)
		}
		if !p.matchWord("only") {
			p.expect(TOKEN_WITH)
			if !p.matchWord("ties") {
				p.addError(fmt.Sprintf(ErrUnexpectedToken, describe(p.token), "TIES"))
			}
		}
	}

	// A clause known from another dialect but not supported here.
	if !p.failed() && p.isForeignClause(p.token) {
		p.addError(fmt.Sprintf(ErrUnsupportedClause, upperWord(p.token.Literal), p.dialect.Name))
	}
}

// parseGroupingList parses GROUP BY items including ROLLUP/CUBE/GROUPING SETS.
func (p *Parser) parseGroupingList() []ast.Expr {
	var exprs []ast.Expr
	for {
		switch {
		case p.checkWord("grouping") && isWord(p.peek, "sets"):
			p.nextToken()
			p.nextToken()
			exprs = append(exprs, p.parseParenExpr())
		default:
			exprs = append(exprs, p.parseExpression())
		}
		if p.failed() || !p.match(TOKEN_COMMA) {
			break
		}
	}
	return exprs
}

// parseWindowDefs parses WINDOW w AS (...), ...
func (p *Parser) parseWindowDefs() []ast.WindowDef {
	var defs []ast.WindowDef
	for {
		def := ast.WindowDef{}
		def.Name = p.parseIdent("window name")
		p.expect(TOKEN_AS)
		def.Spec = p.parseWindowSpec()
		defs = append(defs, def)
		if p.failed() || !p.match(TOKEN_COMMA) {
			break
		}
	}
	return defs
}

// parseSelectList parses the list of SELECT items.
func (p *Parser) parseSelectList() []ast.SelectItem {
	var items []ast.SelectItem

	for {
		item := p.parseSelectItem()
		items = append(items, item)

		if p.failed() || !p.match(TOKEN_COMMA) {
			break
		}
	}

	return items
}

// parseSelectItem parses a single SELECT item.
func (p *Parser) parseSelectItem() ast.SelectItem {
	item := ast.SelectItem{}

	// Check for * or table.*
	if p.check(TOKEN_STAR) {
		item.Star = true
		p.nextToken()
		p.parseStarModifiers()
		return item
	}

	// Check for table.* pattern using 3-token lookahead (no rollback needed)
	if p.isIdent(p.token) && p.checkPeek(TOKEN_DOT) && p.checkPeek2(TOKEN_STAR) {
		tableName := p.token.Literal
		p.nextToken() // consume identifier
		p.nextToken() // consume DOT
		p.nextToken() // consume STAR
		item.TableStar = tableName
		p.parseStarModifiers()
		return item
	}

	// tsql: alias = expr
	if p.dialect.ImplicitTerminators && p.check(TOKEN_IDENT) && p.checkPeek(TOKEN_EQ) {
		item.Alias = p.token.Literal
		p.nextToken()
		p.nextToken()
		item.Expr = p.parseExpression()
		return item
	}

	// Regular expression
	item.Expr = p.parseExpression()

	// Optional alias
	item.Alias = p.parseAlias()

	return item
}

// parseStarModifiers accepts EXCLUDE/EXCEPT/REPLACE lists after a star in
// dialects that register the EXCLUDE keyword. The lists do not change which
// tables are read.
func (p *Parser) parseStarModifiers() {
	if _, ok := p.dialect.LookupKeyword("exclude"); !ok {
		return
	}
	for p.token.Type.String() == "EXCLUDE" || (p.check(TOKEN_EXCEPT) && p.checkPeek(TOKEN_LPAREN)) ||
		(p.check(TOKEN_REPLACE) && p.checkPeek(TOKEN_LPAREN)) {
		p.nextToken()
		if p.match(TOKEN_LPAREN) {
			p.skipBalanced()
			p.expect(TOKEN_RPAREN)
		} else {
			p.parseIdent("column name")
		}
	}
}

// parseOrderByList parses a list of ORDER BY items.
func (p *Parser) parseOrderByList() []ast.OrderByItem {
	var items []ast.OrderByItem

	for {
		item := p.parseOrderByItem()
		items = append(items, item)

		if p.failed() || !p.match(TOKEN_COMMA) {
			break
		}
	}

	return items
}

// parseOrderByItem parses a single ORDER BY item.
func (p *Parser) parseOrderByItem() ast.OrderByItem {
	item := ast.OrderByItem{}
	item.Expr = p.parseExpression()

	// ASC / DESC
	if p.match(TOKEN_ASC) {
		item.Desc = false
	} else if p.match(TOKEN_DESC) {
		item.Desc = true
	}

	// NULLS FIRST / LAST
	if p.match(TOKEN_NULLS) {
		if p.match(TOKEN_FIRST) {
			b := true
			item.NullsFirst = &b
		} else if p.match(TOKEN_LAST) {
			b := false
			item.NullsFirst = &b
		} else {
			p.addError(fmt.Sprintf(ErrUnexpectedToken, describe(p.token), "FIRST or LAST"))
		}
	}

	return item
}

// parseExpressionList parses a comma-separated list of expressions.
func (p *Parser) parseExpressionList() []ast.Expr {
	var exprs []ast.Expr

	for {
		expr := p.parseExpression()
		exprs = append(exprs, expr)

		if p.failed() || !p.match(TOKEN_COMMA) {
			break
		}
	}

	return exprs
}

// parseIdentList parses "(" ident ("," ident)* ")".
func (p *Parser) parseIdentList() []string {
	p.expect(TOKEN_LPAREN)
	var names []string
	for {
		names = append(names, p.parseIdent("column name"))
		if p.failed() || !p.match(TOKEN_COMMA) {
			break
		}
	}
	p.expect(TOKEN_RPAREN)
	return names
}

// upperWord upper-cases an ASCII word for messages.
func upperWord(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			b[i] = c - 'a' + 'A'
		}
	}
	return string(b)
}
