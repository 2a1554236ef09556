package parser

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/sqllineage/pkg/ast"
	"github.com/leapstack-labs/sqllineage/pkg/token"
)

// Schema and session statements: CREATE, ALTER, DROP, TRUNCATE, USE, SET,
// transaction control and statements whose body is not modeled.
//
// Grammar:
//
//	create_table  → CREATE [OR REPLACE] [modifiers] TABLE [IF NOT EXISTS] table_name
//	                ["(" column_def ("," column_def)* ")"] [options]
//	                [AS query | LIKE table_name | CLONE table_name]
//	create_view   → CREATE [OR REPLACE] [MATERIALIZED|SECURE] VIEW [IF NOT EXISTS] table_name
//	                ["(" ident_list ")"] [options] AS query
//	create_index  → CREATE [UNIQUE] [CLUSTERED|NONCLUSTERED] INDEX [CONCURRENTLY] [IF NOT EXISTS]
//	                [name] ON table_name ...
//	create_schema → CREATE SCHEMA [IF NOT EXISTS] name ...
//	alter_rename  → ALTER TABLE [IF EXISTS] table_name RENAME TO table_name
//	drop          → DROP [object] [IF EXISTS] name ("," name)* [CASCADE|RESTRICT]
//	truncate      → TRUNCATE [TABLE] table_name
//	use           → USE name
//	set           → (SET | DECLARE) name ...
//	transaction   → (BEGIN | START | COMMIT | ROLLBACK | END) ...

// tableModifiers may appear between CREATE [OR REPLACE] and TABLE.
var tableModifiers = map[string]bool{
	"temp":      true,
	"temporary": true,
	"global":    true,
	"local":     true,
	"transient": true,
	"volatile":  true,
	"unlogged":  true,
	"external":  true,
}

// parseCreate parses a CREATE statement.
func (p *Parser) parseCreate() ast.Statement {
	start := p.token.Pos
	p.expect(TOKEN_CREATE)

	orReplace := false
	if p.match(TOKEN_OR) {
		if !p.expect(TOKEN_REPLACE) {
			return nil
		}
		orReplace = true
	}

	temporary := false
	for p.check(TOKEN_TEMPORARY) || (p.check(TOKEN_IDENT) && tableModifiers[strings.ToLower(p.token.Literal)]) {
		lower := strings.ToLower(p.token.Literal)
		if lower == "temp" || lower == "temporary" {
			temporary = true
		}
		p.nextToken()
	}

	switch {
	case p.match(TOKEN_TABLE):
		return p.parseCreateTable(start, orReplace, temporary)
	case p.matchWord("materialized"), p.matchWord("secure"), p.matchWord("recursive"):
		if !p.check(TOKEN_VIEW) {
			p.addError(fmt.Sprintf(ErrUnexpectedToken, describe(p.token), "VIEW"))
			return nil
		}
		return p.parseCreateView(start, orReplace)
	case p.check(TOKEN_VIEW):
		return p.parseCreateView(start, orReplace)
	case p.check(TOKEN_UNIQUE), p.check(TOKEN_INDEX),
		p.checkWord("clustered"), p.checkWord("nonclustered"):
		return p.parseCreateIndex(start)
	case p.check(TOKEN_SCHEMA), p.checkWord("database"):
		return p.parseCreateSchema(start)
	default:
		return p.parseOpaqueFrom(start, ast.KindCreateOther, "CREATE")
	}
}

// parseCreateTable parses CREATE TABLE after the TABLE keyword.
func (p *Parser) parseCreateTable(start Position, orReplace, temporary bool) ast.Statement {
	stmt := &ast.CreateTableStmt{OrReplace: orReplace, Temporary: temporary}
	stmt.IfNotExists = p.parseIfNotExists()

	stmt.Table = p.parseTableName(false)
	if p.failed() {
		return stmt
	}

	// Column definitions. "(" SELECT ...) is the source query.
	if p.check(TOKEN_LPAREN) && !p.checkPeek(TOKEN_SELECT) && !p.checkPeek(TOKEN_WITH) {
		stmt.Columns = p.parseColumnDefs()
	}

	switch {
	case p.match(TOKEN_LIKE), p.matchWord("clone"):
		stmt.Like = p.parseTableName(false)
	case p.check(TOKEN_LPAREN) && p.checkPeek(TOKEN_LIKE): // (LIKE source)
		p.nextToken()
		p.nextToken()
		stmt.Like = p.parseTableName(false)
		p.skipBalanced()
		p.expect(TOKEN_RPAREN)
	default:
		stmt.Query = p.parseCreateOptions()
	}

	stmt.Span = p.span(start)
	return stmt
}

// parseCreateOptions skips storage options (WITH (...), USING delta,
// STORED AS parquet, PARTITIONED BY (...), ...) up to an optional AS query.
func (p *Parser) parseCreateOptions() *ast.SelectStmt {
	for !p.failed() {
		p.skipBalanced(TOKEN_AS)
		if !p.check(TOKEN_AS) {
			return nil
		}
		p.nextToken()
		if p.isQueryStart() {
			return p.parseQuery()
		}
	}
	return nil
}

// parseColumnDefs parses "(" column_def | table_constraint, ... ")".
func (p *Parser) parseColumnDefs() []ast.ColumnDef {
	p.expect(TOKEN_LPAREN)
	var cols []ast.ColumnDef
	for !p.failed() {
		if p.isTableConstraint() {
			p.skipBalanced(TOKEN_COMMA)
		} else {
			col := ast.ColumnDef{Name: p.parseIdent("column name")}
			if p.isIdent(p.token) && !p.isTableConstraint() {
				col.TypeName = p.parseTypeName()
			}
			// Column constraints: NOT NULL, DEFAULT ..., REFERENCES ...
			p.skipBalanced(TOKEN_COMMA)
			cols = append(cols, col)
		}
		if !p.match(TOKEN_COMMA) {
			break
		}
	}
	p.expect(TOKEN_RPAREN)
	return cols
}

// isTableConstraint returns true at the start of a table-level constraint.
func (p *Parser) isTableConstraint() bool {
	if p.check(TOKEN_UNIQUE) || p.check(TOKEN_INDEX) {
		return true
	}
	for _, w := range []string{"primary", "constraint", "foreign", "check", "key"} {
		if p.checkWord(w) {
			return true
		}
	}
	return false
}

// parseIfNotExists consumes IF NOT EXISTS.
func (p *Parser) parseIfNotExists() bool {
	if p.check(TOKEN_IF) && p.checkPeek(TOKEN_NOT) && p.checkPeek2(TOKEN_EXISTS) {
		p.nextToken()
		p.nextToken()
		p.nextToken()
		return true
	}
	return false
}

// parseIfExists consumes IF EXISTS.
func (p *Parser) parseIfExists() bool {
	if p.check(TOKEN_IF) && p.checkPeek(TOKEN_EXISTS) {
		p.nextToken()
		p.nextToken()
		return true
	}
	return false
}

// parseCreateView parses CREATE VIEW starting at VIEW.
func (p *Parser) parseCreateView(start Position, orReplace bool) ast.Statement {
	p.expect(TOKEN_VIEW)
	stmt := &ast.CreateViewStmt{OrReplace: orReplace}
	p.parseIfNotExists()

	stmt.View = p.parseTableName(false)
	if p.failed() {
		return stmt
	}

	if p.check(TOKEN_LPAREN) {
		stmt.Columns = p.parseIdentList()
	}

	stmt.Query = p.parseCreateOptions()
	if stmt.Query == nil && !p.failed() {
		p.addError(fmt.Sprintf(ErrUnexpectedToken, describe(p.token), "AS"))
		return stmt
	}

	stmt.Span = p.span(start)
	return stmt
}

// parseCreateIndex parses CREATE [UNIQUE] INDEX.
func (p *Parser) parseCreateIndex(start Position) ast.Statement {
	stmt := &ast.CreateIndexStmt{}
	stmt.Unique = p.match(TOKEN_UNIQUE)
	if !p.matchWord("clustered") {
		p.matchWord("nonclustered")
	}
	if !p.expect(TOKEN_INDEX) {
		return stmt
	}
	p.matchWord("concurrently")
	p.parseIfNotExists()

	if !p.check(TOKEN_ON) {
		stmt.Name = p.parseIdent("index name")
	}
	if !p.expect(TOKEN_ON) {
		return stmt
	}
	stmt.Table = p.parseTableName(false)
	if p.failed() {
		return stmt
	}

	if p.match(TOKEN_USING) {
		p.parseIdent("index method")
	}
	if p.match(TOKEN_LPAREN) {
		for _, tok := range p.skipBalanced() {
			if tok.Type == TOKEN_IDENT {
				stmt.Columns = append(stmt.Columns, tok.Literal)
			}
		}
		p.expect(TOKEN_RPAREN)
	}
	// INCLUDE (...), WHERE ..., WITH (...)
	p.skipBalanced()

	stmt.Span = p.span(start)
	return stmt
}

// parseCreateSchema parses CREATE SCHEMA / CREATE DATABASE.
func (p *Parser) parseCreateSchema(start Position) ast.Statement {
	p.nextToken() // SCHEMA or DATABASE
	stmt := &ast.CreateSchemaStmt{}
	stmt.IfNotExists = p.parseIfNotExists()
	stmt.Name = strings.Join(p.parseQualifiedName("schema name"), ".")
	p.skipBalanced()
	stmt.Span = p.span(start)
	return stmt
}

// parseAlter parses ALTER TABLE ... RENAME TO and records every other ALTER
// as an opaque statement.
func (p *Parser) parseAlter() ast.Statement {
	start := p.token.Pos
	p.expect(TOKEN_ALTER)

	if !p.check(TOKEN_TABLE) {
		return p.parseOpaqueFrom(start, ast.KindAlter, "ALTER")
	}
	p.nextToken()
	p.parseIfExists()

	table := p.parseTableName(false)
	if p.failed() {
		return nil
	}

	if p.check(TOKEN_RENAME) && p.checkPeek(TOKEN_TO) {
		p.nextToken()
		p.nextToken()
		stmt := &ast.AlterRenameStmt{Table: table}
		stmt.NewName = p.parseTableName(false)
		stmt.Span = p.span(start)
		return stmt
	}

	return p.parseOpaqueFrom(start, ast.KindAlter, "ALTER TABLE")
}

// parseDrop parses DROP statements.
func (p *Parser) parseDrop() ast.Statement {
	start := p.token.Pos
	p.expect(TOKEN_DROP)
	stmt := &ast.DropStmt{}

	p.match(TOKEN_TEMPORARY)
	if p.matchWord("materialized") {
		stmt.Object = "MATERIALIZED "
	}
	switch {
	case p.check(TOKEN_TABLE), p.check(TOKEN_VIEW), p.check(TOKEN_SCHEMA), p.check(TOKEN_INDEX):
		stmt.Object += p.token.Type.String()
		p.nextToken()
	case p.isIdent(p.token):
		stmt.Object += upperWord(p.token.Literal)
		p.nextToken()
	default:
		p.addError(fmt.Sprintf(ErrUnexpectedToken, describe(p.token), "object type"))
		return stmt
	}

	stmt.IfExists = p.parseIfExists()

	switch stmt.Object {
	case "TABLE", "VIEW", "MATERIALIZED VIEW":
		for !p.failed() {
			stmt.Names = append(stmt.Names, p.parseTableName(false))
			if !p.match(TOKEN_COMMA) {
				break
			}
		}
		if !p.matchWord("cascade") {
			p.matchWord("restrict")
		}
	default:
		p.skipBalanced()
	}

	stmt.Span = p.span(start)
	return stmt
}

// parseTruncate parses TRUNCATE [TABLE] name.
func (p *Parser) parseTruncate() ast.Statement {
	start := p.token.Pos
	p.expect(TOKEN_TRUNCATE)
	p.match(TOKEN_TABLE)
	stmt := &ast.TruncateStmt{}
	stmt.Table = p.parseTableName(false)
	stmt.Span = p.span(start)
	return stmt
}

// parseUse parses USE name.
func (p *Parser) parseUse() ast.Statement {
	start := p.token.Pos
	p.expect(TOKEN_USE)
	p.matchWord("database")
	p.match(TOKEN_SCHEMA)
	stmt := &ast.UseStmt{}
	stmt.Name = strings.Join(p.parseQualifiedName("database name"), ".")
	stmt.Span = p.span(start)
	return stmt
}

// parseSet parses SET and DECLARE statements. Only the assigned name and,
// for name = expr forms, the value are kept.
func (p *Parser) parseSet() ast.Statement {
	start := p.token.Pos
	p.nextToken() // SET or DECLARE
	stmt := &ast.SetStmt{}

	// SET SESSION / SET LOCAL
	if p.checkWord("session") || p.checkWord("local") {
		if p.isIdent(p.peek) {
			p.nextToken()
		}
	}

	if !p.isIdent(p.token) && !token.IsKeyword(p.token.Type) {
		p.addError(fmt.Sprintf(ErrUnexpectedToken, describe(p.token), "variable name"))
		return stmt
	}
	stmt.Name = strings.Join(p.parseSetName(), ".")

	if p.match(TOKEN_EQ) {
		stmt.Value = p.parseExpression()
	}
	p.skipBalanced()

	stmt.Span = p.span(start)
	return stmt
}

// parseSetName parses a possibly dotted setting name, which may be spelled
// like a keyword (SET ROWCOUNT, SET search_path).
func (p *Parser) parseSetName() []string {
	parts := []string{p.token.Literal}
	p.nextToken()
	for p.check(TOKEN_DOT) {
		p.nextToken()
		parts = append(parts, p.token.Literal)
		p.nextToken()
	}
	return parts
}

// parseTransaction parses BEGIN/START/COMMIT/ROLLBACK/END.
func (p *Parser) parseTransaction() ast.Statement {
	start := p.token.Pos
	stmt := &ast.TransactionStmt{Action: upperWord(p.token.Literal)}
	p.nextToken()
	p.skipBalanced()
	stmt.Span = p.span(start)
	return stmt
}

// parseOpaque consumes a statement whose body is not modeled.
func (p *Parser) parseOpaque(kind ast.Kind) ast.Statement {
	start := p.token.Pos
	lead := upperWord(p.token.Literal)
	p.nextToken()
	return p.parseOpaqueFrom(start, kind, lead)
}

// parseOpaqueFrom consumes the rest of the statement. lead holds the
// keywords already consumed.
func (p *Parser) parseOpaqueFrom(start Position, kind ast.Kind, lead string) ast.Statement {
	words := []string{lead}
	for i, tok := range p.skipBalanced() {
		if i >= 2 || tok.Type == TOKEN_STRING || tok.Type == TOKEN_LPAREN {
			continue
		}
		words = append(words, upperWord(tok.Literal))
	}
	if p.failed() {
		return nil
	}
	stmt := &ast.OpaqueStmt{StmtKind: kind, Keywords: strings.Join(words, " ")}
	stmt.Span = p.span(start)
	return stmt
}
