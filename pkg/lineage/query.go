package lineage

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/sqllineage/pkg/ast"
)

// extractor walks one statement. It owns the scope stack and the SubQuery
// arena for that statement.
type extractor struct {
	*Analyzer

	scope scopeStack
	reads *tableSet
	subs  []*SubQuery
	// collectors receive every physical read while the corresponding
	// subquery is being analyzed.
	collectors []*tableSet
	anon       int
}

func newExtractor(a *Analyzer) *extractor {
	return &extractor{Analyzer: a, reads: newTableSet()}
}

func (x *extractor) normalize(name string) string {
	return x.dialect.NormalizeName(name)
}

// physical converts a table name to a normalized Table.
func (x *extractor) physical(t *ast.TableName) Table {
	tbl := Table{
		Catalog: x.normalize(t.Catalog),
		Schema:  x.normalize(t.Schema),
		Name:    x.normalize(t.Name),
		Alias:   x.normalize(t.Alias),
	}
	if tbl.Schema == "" && tbl.Catalog == "" {
		tbl.Schema = x.defaultSchema
	}
	return tbl
}

// read records a physical read for the statement and every subquery being
// analyzed.
func (x *extractor) read(t Table) {
	x.reads.add(t)
	for _, c := range x.collectors {
		c.add(t)
	}
}

// newSubQuery allocates an arena record. Anonymous relations get a
// sequential id.
func (x *extractor) newSubQuery(name string, cte bool) *SubQuery {
	sub := &SubQuery{Name: name}
	if cte {
		sub.ID = "<" + name + ">"
	} else {
		x.anon++
		sub.ID = fmt.Sprintf("<subquery_%d>", x.anon)
	}
	x.subs = append(x.subs, sub)
	return sub
}

// subquery analyzes stmt as the body of sub and fills its reads and columns.
func (x *extractor) subquery(sub *SubQuery, stmt *ast.SelectStmt) {
	reads := newTableSet()
	x.collectors = append(x.collectors, reads)
	cols := x.query(stmt)
	x.collectors = x.collectors[:len(x.collectors)-1]

	sub.Reads = reads.tables
	sub.Columns = cols
}

// query analyzes a SELECT statement and returns its output columns in
// order.
func (x *extractor) query(stmt *ast.SelectStmt) []*Column {
	if stmt == nil {
		return nil
	}
	x.scope.push()
	defer x.scope.pop()

	x.with(stmt.With)
	return x.body(stmt.Body)
}

// with registers the CTEs of a WITH clause in the current frame. A CTE sees
// the CTEs defined before it; under RECURSIVE it also sees itself, and the
// self-reference contributes no reads.
func (x *extractor) with(w *ast.WithClause) {
	if w == nil {
		return
	}
	for _, cte := range w.CTEs {
		name := x.normalize(cte.Name)
		sub := x.newSubQuery(name, true)
		if w.Recursive {
			x.scope.defineCTE(name, sub)
		}
		x.subquery(sub, cte.Select)
		sub.Columns = x.rename(sub.Columns, cte.Columns)
		x.scope.defineCTE(name, sub)
	}
}

// body analyzes a set operation tree. Output names come from the first
// branch; sources merge positionally.
func (x *extractor) body(body *ast.SelectBody) []*Column {
	if body == nil {
		return nil
	}
	columns := x.core(body.Left)
	if body.Right == nil {
		return columns
	}

	right := x.body(body.Right)
	for i, col := range columns {
		if i >= len(right) {
			break
		}
		col.Sources = mergeSources(col.Sources, right[i].Sources)
		if col.Transform == TransformDirect {
			col.Transform = TransformExpression
		}
	}
	return columns
}

// core analyzes one SELECT.
func (x *extractor) core(core *ast.SelectCore) []*Column {
	if core == nil {
		return nil
	}
	if core.Nested != nil {
		return x.query(core.Nested)
	}

	x.scope.push()
	defer x.scope.pop()

	if core.From != nil {
		x.from(core.From)
	}

	var columns []*Column
	for i, item := range core.Columns {
		columns = append(columns, x.selectItem(item, i)...)
	}

	// Filtering clauses contribute reads through their subqueries only.
	x.filter(core.Top, core.Where, core.Having, core.Qualify, core.Limit, core.Offset)
	x.filter(core.GroupBy...)
	for _, o := range core.OrderBy {
		x.filter(o.Expr)
	}
	return columns
}

// filter analyzes the subqueries of expressions that do not produce output
// columns.
func (x *extractor) filter(exprs ...ast.Expr) {
	for _, e := range exprs {
		for _, sq := range ast.Subqueries(e) {
			x.subquery(x.newSubQuery("", false), sq)
		}
	}
}

// from registers the relations of a FROM clause in the current frame.
func (x *extractor) from(from *ast.FromClause) {
	x.tableRef(from.Source)
	for _, join := range from.Joins {
		x.tableRef(join.Right)
		x.filter(join.Condition)
	}
}

// tableRef registers one relation.
func (x *extractor) tableRef(ref ast.TableRef) {
	switch t := ref.(type) {
	case *ast.TableName:
		name := x.normalize(t.Name)
		alias := x.normalize(t.Alias)
		if t.Schema == "" && t.Catalog == "" {
			if sub, ok := x.scope.lookupCTE(name); ok {
				for _, r := range sub.Reads {
					x.read(r)
				}
				x.scope.add(&scopeEntry{name: name, alias: alias, sub: sub})
				return
			}
		}
		tbl := x.physical(t)
		x.read(tbl)
		x.scope.add(&scopeEntry{name: name, alias: alias, table: tbl})

	case *ast.DerivedTable:
		x.derived(t.Alias, t.Select)

	case *ast.LateralTable:
		x.derived(t.Alias, t.Select)

	case *ast.TableFunction:
		alias := x.normalize(t.Alias)
		if alias == "" && t.Func != nil {
			alias = strings.ToLower(t.Func.Name)
		}
		sub := x.newSubQuery(alias, false)
		if t.Func != nil {
			for _, arg := range t.Func.Args {
				x.filter(arg)
			}
		}
		x.scope.add(&scopeEntry{name: alias, sub: sub})

	case *ast.ValuesTable:
		alias := x.normalize(t.Alias)
		sub := x.newSubQuery(alias, false)
		for _, c := range t.Columns {
			sub.Columns = append(sub.Columns, &Column{Name: x.normalize(c), Transform: TransformExpression})
		}
		for _, row := range t.Rows {
			x.filter(row...)
		}
		x.scope.add(&scopeEntry{name: alias, sub: sub})

	case *ast.NestedJoin:
		if t.From != nil {
			x.from(t.From)
		}
	}
}

// derived analyzes a subquery in FROM and registers it under alias.
func (x *extractor) derived(alias string, stmt *ast.SelectStmt) {
	alias = x.normalize(alias)
	sub := x.newSubQuery(alias, false)
	x.subquery(sub, stmt)
	x.scope.add(&scopeEntry{name: alias, sub: sub})
}

// selectItem returns the output columns of one select-list item.
func (x *extractor) selectItem(item ast.SelectItem, index int) []*Column {
	if item.Star {
		return x.star("")
	}
	if item.TableStar != "" {
		return x.star(x.normalize(item.TableStar))
	}

	col := x.expr(item.Expr)
	if item.Alias != "" {
		col.Name = x.normalize(item.Alias)
	} else {
		col.Name = x.inferColumnName(item.Expr, index)
	}
	return []*Column{col}
}

// star expands * or t.* into columns. Tables whose columns are unknown
// yield a single wildcard column.
func (x *extractor) star(qualifier string) []*Column {
	var entries []*scopeEntry
	if qualifier == "" {
		entries = x.scope.current()
	} else if e, ok := x.scope.lookup(qualifier); ok {
		entries = []*scopeEntry{e}
	}

	var columns []*Column
	for _, e := range entries {
		if e.sub != nil {
			for _, c := range e.sub.Columns {
				columns = append(columns, &Column{
					Name:      c.Name,
					Sources:   c.Sources,
					Transform: c.Transform,
					Function:  c.Function,
				})
			}
			if len(e.sub.Columns) == 0 {
				columns = append(columns, wildcardOf(e.sub.Reads...))
			}
			continue
		}

		names, ok := x.columnsOf(e.table)
		if !ok {
			columns = append(columns, wildcardOf(e.table))
			continue
		}
		for _, n := range names {
			columns = append(columns, &Column{
				Name:      n,
				Sources:   []ColumnRef{{Table: e.table.Key(), Column: n}},
				Transform: TransformDirect,
			})
		}
	}
	return columns
}

func wildcardOf(tables ...Table) *Column {
	col := &Column{Name: Wildcard, Transform: TransformWildcard}
	for _, t := range tables {
		col.Sources = append(col.Sources, ColumnRef{Table: t.Key(), Column: Wildcard})
	}
	return col
}

// columnsOf returns the normalized known columns of a physical table.
func (x *extractor) columnsOf(t Table) ([]string, bool) {
	if x.lookup == nil {
		return nil, false
	}
	names, ok := x.lookup.LookupColumns(t)
	if !ok || len(names) == 0 {
		return nil, false
	}
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = x.normalize(n)
	}
	return out, true
}

// rename assigns names positionally. Lists that cannot be matched to
// columns, because * stayed unexpanded, are ignored.
func (x *extractor) rename(cols []*Column, names []string) []*Column {
	if len(names) == 0 {
		return cols
	}
	for _, c := range cols {
		if c.Transform == TransformWildcard {
			return cols
		}
	}
	for i, c := range cols {
		if i < len(names) {
			c.Name = x.normalize(names[i])
		}
	}
	return cols
}

// inferColumnName infers an output name from an expression.
func (x *extractor) inferColumnName(expr ast.Expr, index int) string {
	switch e := expr.(type) {
	case *ast.ColumnRef:
		return x.normalize(e.Column)
	case *ast.FuncCall:
		return strings.ToLower(e.Name)
	case *ast.CastExpr:
		return x.inferColumnName(e.Expr, index)
	case *ast.ParenExpr:
		return x.inferColumnName(e.Expr, index)
	}
	return fmt.Sprintf("column%d", index)
}
