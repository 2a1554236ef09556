package ast

import "strings"

// ---------- Table Reference Types ----------

// TableName represents a table name reference.
type TableName struct {
	NodeInfo
	Catalog string
	Schema  string
	Name    string
	Alias   string
}

func (*TableName) tableRefNode() {}

// Qualified returns the dotted name without the alias.
func (t *TableName) Qualified() string {
	parts := make([]string, 0, 3)
	if t.Catalog != "" {
		parts = append(parts, t.Catalog)
	}
	if t.Schema != "" {
		parts = append(parts, t.Schema)
	}
	parts = append(parts, t.Name)
	return strings.Join(parts, ".")
}

// EffectiveName returns the alias if present, else the table name.
func (t *TableName) EffectiveName() string {
	if t.Alias != "" {
		return t.Alias
	}
	return t.Name
}

// DerivedTable represents a subquery in FROM clause.
type DerivedTable struct {
	NodeInfo
	Select *SelectStmt
	Alias  string
}

func (*DerivedTable) tableRefNode() {}

// LateralTable represents a LATERAL subquery.
type LateralTable struct {
	NodeInfo
	Select *SelectStmt
	Alias  string
}

func (*LateralTable) tableRefNode() {}

// TableFunction represents a table-valued function call in FROM,
// e.g. generate_series(1, 10) or read_csv('f.csv').
type TableFunction struct {
	NodeInfo
	Func  *FuncCall
	Alias string
}

func (*TableFunction) tableRefNode() {}

// ValuesTable represents an inline VALUES list used as a table.
type ValuesTable struct {
	NodeInfo
	Rows    [][]Expr
	Alias   string
	Columns []string
}

func (*ValuesTable) tableRefNode() {}

// NestedJoin represents a parenthesized join tree in FROM, e.g.
// (a JOIN b ON a.id = b.id).
type NestedJoin struct {
	NodeInfo
	From  *FromClause
	Alias string
}

func (*NestedJoin) tableRefNode() {}
