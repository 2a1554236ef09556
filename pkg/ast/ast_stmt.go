package ast

// ---------- Query Statements ----------

// SelectStmt represents a complete SELECT statement with optional WITH clause.
// It is also used as the body of subqueries, CTEs and INSERT ... SELECT.
type SelectStmt struct {
	NodeInfo
	With *WithClause
	Body *SelectBody
}

func (*SelectStmt) stmtNode() {}

// Kind implements Statement. A SELECT carrying an INTO target is a SELECT INTO.
func (s *SelectStmt) Kind() Kind {
	if s.Into() != nil {
		return KindSelectInto
	}
	return KindQuery
}

// Into returns the SELECT INTO target of the first branch, if any.
func (s *SelectStmt) Into() *TableName {
	if s == nil || s.Body == nil || s.Body.Left == nil {
		return nil
	}
	return s.Body.Left.Into
}

// WithClause represents a WITH clause with CTEs.
type WithClause struct {
	NodeInfo
	Recursive bool
	CTEs      []*CTE
}

// CTE represents a Common Table Expression.
type CTE struct {
	NodeInfo
	Name    string
	Columns []string // optional column list: name (a, b) AS (...)
	Select  *SelectStmt
}

// SelectBody represents the body of a SELECT with possible set operations.
type SelectBody struct {
	NodeInfo
	Left  *SelectCore
	Op    SetOpType   // UNION, INTERSECT, EXCEPT, or empty
	All   bool        // UNION ALL
	Right *SelectBody // For chained set operations
}

// SetOpType represents the type of set operation.
type SetOpType string

// SetOpType constants for set operations in queries.
const (
	SetOpNone      SetOpType = ""
	SetOpUnion     SetOpType = "UNION"
	SetOpUnionAll  SetOpType = "UNION ALL"
	SetOpIntersect SetOpType = "INTERSECT"
	SetOpExcept    SetOpType = "EXCEPT"
)

// SelectCore represents the core SELECT clause.
type SelectCore struct {
	NodeInfo
	Distinct bool
	Top      Expr // tsql: SELECT TOP n
	Columns  []SelectItem
	Into     *TableName // tsql/postgres: SELECT ... INTO target
	From     *FromClause
	Where    Expr
	GroupBy  []Expr
	Having   Expr
	Windows  []WindowDef
	Qualify  Expr
	OrderBy  []OrderByItem
	Limit    Expr
	Offset   Expr

	// Nested is set when the branch is a parenthesized query:
	// (SELECT ...) UNION (SELECT ...). The other fields are empty.
	Nested *SelectStmt
}

// WindowDef represents a named window definition in the WINDOW clause.
type WindowDef struct {
	Name string
	Spec *WindowSpec
}

// SelectItem represents an item in the SELECT list.
type SelectItem struct {
	Star      bool   // SELECT *
	TableStar string // SELECT t.*
	Expr      Expr
	Alias     string
}

// OrderByItem represents an item in ORDER BY.
type OrderByItem struct {
	Expr       Expr
	Desc       bool
	NullsFirst *bool
}

// FromClause represents the FROM clause.
type FromClause struct {
	NodeInfo
	Source TableRef
	Joins  []*Join
}

// Join represents a JOIN clause.
type Join struct {
	NodeInfo
	Type      JoinType
	Natural   bool
	Right     TableRef
	Condition Expr     // ON clause
	Using     []string // USING (col1, col2)
}

// JoinType is the normalized join kind.
type JoinType string

// Join types.
const (
	JoinInner JoinType = "INNER"
	JoinLeft  JoinType = "LEFT"
	JoinRight JoinType = "RIGHT"
	JoinFull  JoinType = "FULL"
	JoinCross JoinType = "CROSS"
	JoinComma JoinType = ","
)

// ---------- Write Statements ----------

// InsertStmt represents INSERT INTO / INSERT OVERWRITE.
type InsertStmt struct {
	NodeInfo
	With      *WithClause
	Table     *TableName
	Overwrite bool
	Columns   []string
	Query     *SelectStmt // INSERT ... SELECT
	Values    [][]Expr    // INSERT ... VALUES
}

func (*InsertStmt) stmtNode() {}

// Kind implements Statement.
func (*InsertStmt) Kind() Kind { return KindInsert }

// ColumnDef is a column definition in CREATE TABLE.
type ColumnDef struct {
	Name     string
	TypeName string
}

// CreateTableStmt represents CREATE TABLE, with or without AS SELECT.
type CreateTableStmt struct {
	NodeInfo
	Table       *TableName
	OrReplace   bool
	Temporary   bool
	IfNotExists bool
	Columns     []ColumnDef
	Query       *SelectStmt // CREATE TABLE ... AS SELECT
	Like        *TableName  // CREATE TABLE ... LIKE source
}

func (*CreateTableStmt) stmtNode() {}

// Kind implements Statement.
func (c *CreateTableStmt) Kind() Kind {
	if c.Query != nil || c.Like != nil {
		return KindCreateTableAs
	}
	return KindCreateTable
}

// CreateViewStmt represents CREATE [OR REPLACE] VIEW ... AS SELECT.
type CreateViewStmt struct {
	NodeInfo
	View      *TableName
	OrReplace bool
	Columns   []string
	Query     *SelectStmt
}

func (*CreateViewStmt) stmtNode() {}

// Kind implements Statement.
func (*CreateViewStmt) Kind() Kind { return KindCreateView }

// Assignment is a SET target = value pair.
type Assignment struct {
	Column string
	Value  Expr
}

// UpdateStmt represents UPDATE target SET ... [FROM ...] [WHERE ...].
type UpdateStmt struct {
	NodeInfo
	Table *TableName
	Set   []Assignment
	From  *FromClause
	Where Expr
}

func (*UpdateStmt) stmtNode() {}

// Kind implements Statement.
func (*UpdateStmt) Kind() Kind { return KindUpdate }

// DeleteStmt represents DELETE FROM target [USING ...] [WHERE ...].
type DeleteStmt struct {
	NodeInfo
	Table *TableName
	Using *FromClause
	Where Expr
}

func (*DeleteStmt) stmtNode() {}

// Kind implements Statement.
func (*DeleteStmt) Kind() Kind { return KindDelete }

// MergeAction is what a WHEN branch of MERGE does.
type MergeAction string

// Merge actions.
const (
	MergeUpdate MergeAction = "UPDATE"
	MergeDelete MergeAction = "DELETE"
	MergeInsert MergeAction = "INSERT"
)

// MergeClause is one WHEN [NOT] MATCHED branch.
type MergeClause struct {
	Matched   bool
	Condition Expr
	Action    MergeAction
	Set       []Assignment
	Columns   []string
	Values    []Expr
}

// MergeStmt represents MERGE INTO target USING source ON cond WHEN ...
type MergeStmt struct {
	NodeInfo
	Target  *TableName
	Source  TableRef
	On      Expr
	Clauses []MergeClause
}

func (*MergeStmt) stmtNode() {}

// Kind implements Statement.
func (*MergeStmt) Kind() Kind { return KindMerge }

// AlterRenameStmt represents ALTER TABLE old RENAME TO new.
type AlterRenameStmt struct {
	NodeInfo
	Table   *TableName
	NewName *TableName
}

func (*AlterRenameStmt) stmtNode() {}

// Kind implements Statement.
func (*AlterRenameStmt) Kind() Kind { return KindAlterRename }

// ---------- Statements without lineage ----------

// DropStmt represents DROP TABLE/VIEW/SCHEMA/INDEX.
type DropStmt struct {
	NodeInfo
	Object   string // TABLE, VIEW, ...
	IfExists bool
	Names    []*TableName
}

func (*DropStmt) stmtNode() {}

// Kind implements Statement.
func (*DropStmt) Kind() Kind { return KindDrop }

// TruncateStmt represents TRUNCATE [TABLE] name.
type TruncateStmt struct {
	NodeInfo
	Table *TableName
}

func (*TruncateStmt) stmtNode() {}

// Kind implements Statement.
func (*TruncateStmt) Kind() Kind { return KindTruncate }

// CreateIndexStmt represents CREATE [UNIQUE] INDEX name ON table (columns).
type CreateIndexStmt struct {
	NodeInfo
	Unique  bool
	Name    string
	Table   *TableName
	Columns []string
}

func (*CreateIndexStmt) stmtNode() {}

// Kind implements Statement.
func (*CreateIndexStmt) Kind() Kind { return KindCreateIndex }

// CreateSchemaStmt represents CREATE SCHEMA [IF NOT EXISTS] name.
type CreateSchemaStmt struct {
	NodeInfo
	Name        string
	IfNotExists bool
}

func (*CreateSchemaStmt) stmtNode() {}

// Kind implements Statement.
func (*CreateSchemaStmt) Kind() Kind { return KindCreateSchema }

// UseStmt represents USE database.
type UseStmt struct {
	NodeInfo
	Name string
}

func (*UseStmt) stmtNode() {}

// Kind implements Statement.
func (*UseStmt) Kind() Kind { return KindUse }

// SetStmt represents a session SET statement.
type SetStmt struct {
	NodeInfo
	Name  string
	Value Expr
}

func (*SetStmt) stmtNode() {}

// Kind implements Statement.
func (*SetStmt) Kind() Kind { return KindSetVar }

// TransactionStmt represents BEGIN, COMMIT or ROLLBACK.
type TransactionStmt struct {
	NodeInfo
	Action string
}

func (*TransactionStmt) stmtNode() {}

// Kind implements Statement.
func (*TransactionStmt) Kind() Kind { return KindTransaction }

// OpaqueStmt is a statement whose kind was recognized from its leading
// keywords but whose body is not modeled (ALTER TABLE ... ADD COLUMN,
// CREATE FUNCTION, GRANT, ...).
type OpaqueStmt struct {
	NodeInfo
	StmtKind Kind
	Keywords string
}

func (*OpaqueStmt) stmtNode() {}

// Kind implements Statement.
func (o *OpaqueStmt) Kind() Kind { return o.StmtKind }
