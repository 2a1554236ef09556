package parser

import (
	"fmt"

	"github.com/leapstack-labs/sqllineage/pkg/ast"
)

// Data-modifying statements: INSERT, UPDATE, DELETE, MERGE.
//
// Grammar:
//
//	insert        → [WITH cte_list] INSERT (INTO | OVERWRITE) [TABLE] table_name
//	                [PARTITION "(" ... ")"] ["(" ident_list ")"]
//	                (query | VALUES row ("," row)* | DEFAULT VALUES) [on_conflict] [RETURNING ...]
//	              | INSERT OVERWRITE [LOCAL] DIRECTORY STRING ... query
//	update        → UPDATE table_name [[AS] alias] SET assignment ("," assignment)*
//	                [FROM from_clause] [WHERE expr]
//	delete        → DELETE [FROM] table_name [[AS] alias] [USING from_clause | FROM from_clause] [WHERE expr]
//	merge         → MERGE [INTO] table_name [[AS] alias] USING table_ref ON expr merge_when+
//	merge_when    → WHEN [NOT] MATCHED [BY (TARGET|SOURCE)] [AND expr] THEN merge_action
//	merge_action  → UPDATE SET assignment_list | DELETE | INSERT ["(" ident_list ")"] VALUES row
//	              | INSERT ROW | DO NOTHING
//	assignment    → column_path "=" expr

// parseInsert parses an INSERT statement. with is a preceding WITH clause.
func (p *Parser) parseInsert(with *ast.WithClause) ast.Statement {
	start := p.token.Pos
	if with != nil {
		start = with.Pos()
	}
	p.expect(TOKEN_INSERT)
	stmt := &ast.InsertStmt{With: with}

	switch {
	case p.match(TOKEN_INTO):
	case p.match(TOKEN_OVERWRITE):
		stmt.Overwrite = true
		if p.checkWord("local") || p.checkWord("directory") {
			p.parseOverwriteDirectory(stmt)
			stmt.Span = p.span(start)
			return stmt
		}
	}
	p.match(TOKEN_TABLE)

	stmt.Table = p.parseTableName(false)
	if p.failed() {
		return stmt
	}

	// Hive/Spark static partitions
	if p.match(TOKEN_PARTITION) {
		p.expect(TOKEN_LPAREN)
		p.skipBalanced()
		p.expect(TOKEN_RPAREN)
	}

	// Column list. "(" SELECT ...) is the source query, not a column list.
	if p.check(TOKEN_LPAREN) && !p.checkPeek(TOKEN_SELECT) && !p.checkPeek(TOKEN_WITH) {
		stmt.Columns = p.parseIdentList()
	}

	switch {
	case p.match(TOKEN_VALUES):
		stmt.Values = p.parseValueRows()
	case p.checkWord("default") && p.checkPeek(TOKEN_VALUES):
		p.nextToken()
		p.nextToken()
	case p.isQueryStart():
		stmt.Query = p.parseQuery()
	default:
		p.addError(fmt.Sprintf(ErrUnexpectedToken, describe(p.token), "SELECT or VALUES"))
		return stmt
	}

	// ON CONFLICT ... / RETURNING ... do not change lineage.
	if p.check(TOKEN_ON) && isWord(p.peek, "conflict") {
		p.skipBalanced()
	}
	if p.matchWord("returning") {
		p.skipBalanced()
	}

	stmt.Span = p.span(start)
	return stmt
}

// parseOverwriteDirectory parses INSERT OVERWRITE [LOCAL] DIRECTORY 'path'
// [ROW FORMAT ...] query. The target is a file location, not a table.
func (p *Parser) parseOverwriteDirectory(stmt *ast.InsertStmt) {
	p.matchWord("local")
	if !p.matchWord("directory") {
		p.addError(fmt.Sprintf(ErrUnexpectedToken, describe(p.token), "DIRECTORY"))
		return
	}
	if !p.match(TOKEN_STRING) {
		p.addError(fmt.Sprintf(ErrUnexpectedToken, describe(p.token), "directory path"))
		return
	}
	for !p.failed() && !p.isQueryStart() && !p.check(TOKEN_EOF) && !p.check(TOKEN_SEMICOLON) {
		p.nextToken()
	}
	if p.isQueryStart() {
		stmt.Query = p.parseQuery()
	}
}

// parseUpdate parses an UPDATE statement.
func (p *Parser) parseUpdate() ast.Statement {
	start := p.token.Pos
	p.expect(TOKEN_UPDATE)
	stmt := &ast.UpdateStmt{}

	stmt.Table = p.parseTableName(true)
	if p.failed() {
		return stmt
	}

	if !p.expect(TOKEN_SET) {
		return stmt
	}
	stmt.Set = p.parseAssignments()

	if p.match(TOKEN_FROM) {
		stmt.From = p.parseFromClause("FROM")
	}

	if p.match(TOKEN_WHERE) {
		stmt.Where = p.parseExpression()
	}

	if p.matchWord("returning") {
		p.skipBalanced()
	}

	stmt.Span = p.span(start)
	return stmt
}

// parseAssignments parses col = expr ("," col = expr)*.
func (p *Parser) parseAssignments() []ast.Assignment {
	var set []ast.Assignment
	for !p.failed() {
		parts := p.parseQualifiedName("column name")
		if p.failed() {
			break
		}
		p.expect(TOKEN_EQ)
		set = append(set, ast.Assignment{
			Column: parts[len(parts)-1],
			Value:  p.parseExpression(),
		})
		if !p.match(TOKEN_COMMA) {
			break
		}
	}
	return set
}

// parseDelete parses a DELETE statement.
func (p *Parser) parseDelete() ast.Statement {
	start := p.token.Pos
	p.expect(TOKEN_DELETE)
	stmt := &ast.DeleteStmt{}

	p.match(TOKEN_FROM)
	stmt.Table = p.parseTableName(true)
	if p.failed() {
		return stmt
	}

	// postgres: USING list; tsql: DELETE t FROM t JOIN s ...
	if p.match(TOKEN_USING) {
		stmt.Using = p.parseFromClause("USING")
	} else if p.match(TOKEN_FROM) {
		stmt.Using = p.parseFromClause("FROM")
	}

	if p.match(TOKEN_WHERE) {
		stmt.Where = p.parseExpression()
	}

	if p.matchWord("returning") {
		p.skipBalanced()
	}

	stmt.Span = p.span(start)
	return stmt
}

// parseMerge parses a MERGE statement.
func (p *Parser) parseMerge() ast.Statement {
	start := p.token.Pos
	p.expect(TOKEN_MERGE)
	stmt := &ast.MergeStmt{}

	p.match(TOKEN_INTO)
	stmt.Target = p.parseTableName(true)
	if p.failed() {
		return stmt
	}

	if !p.expect(TOKEN_USING) {
		return stmt
	}
	stmt.Source = p.parseTableRef("USING")
	if p.failed() {
		return stmt
	}

	if !p.expect(TOKEN_ON) {
		return stmt
	}
	stmt.On = p.parseExpression()

	for !p.failed() && p.match(TOKEN_WHEN) {
		stmt.Clauses = append(stmt.Clauses, p.parseMergeClause())
	}
	if len(stmt.Clauses) == 0 && !p.failed() {
		p.addError(fmt.Sprintf(ErrUnexpectedToken, describe(p.token), "WHEN"))
	}

	stmt.Span = p.span(start)
	return stmt
}

// parseMergeClause parses one WHEN branch after WHEN.
func (p *Parser) parseMergeClause() ast.MergeClause {
	clause := ast.MergeClause{Matched: true}
	if p.match(TOKEN_NOT) {
		clause.Matched = false
	}
	p.expect(TOKEN_MATCHED)

	// BY TARGET / BY SOURCE
	if p.match(TOKEN_BY) {
		if !p.matchWord("target") && !p.matchWord("source") {
			p.addError(fmt.Sprintf(ErrUnexpectedToken, describe(p.token), "TARGET or SOURCE"))
			return clause
		}
	}

	if p.match(TOKEN_AND) {
		clause.Condition = p.parseExpression()
	}
	p.expect(TOKEN_THEN)

	switch {
	case p.match(TOKEN_UPDATE):
		clause.Action = ast.MergeUpdate
		p.expect(TOKEN_SET)
		if p.check(TOKEN_STAR) { // UPDATE SET *
			p.nextToken()
			break
		}
		clause.Set = p.parseAssignments()
	case p.match(TOKEN_DELETE):
		clause.Action = ast.MergeDelete
	case p.match(TOKEN_INSERT):
		clause.Action = ast.MergeInsert
		if p.match(TOKEN_ROW) || p.match(TOKEN_STAR) {
			break
		}
		if p.check(TOKEN_LPAREN) {
			clause.Columns = p.parseIdentList()
		}
		p.expect(TOKEN_VALUES)
		p.expect(TOKEN_LPAREN)
		clause.Values = p.parseExpressionList()
		p.expect(TOKEN_RPAREN)
	case p.matchWord("do"):
		if !p.matchWord("nothing") {
			p.addError(fmt.Sprintf(ErrUnexpectedToken, describe(p.token), "NOTHING"))
		}
	default:
		p.addError(fmt.Sprintf(ErrUnexpectedToken, describe(p.token), "UPDATE, DELETE or INSERT"))
	}
	return clause
}
