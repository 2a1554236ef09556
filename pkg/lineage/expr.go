package lineage

import (
	"slices"
	"strings"

	"github.com/leapstack-labs/sqllineage/pkg/ast"
	"github.com/leapstack-labs/sqllineage/pkg/dialect"
)

// expr returns the lineage of an expression. The caller names the column.
func (x *extractor) expr(e ast.Expr) *Column {
	col := &Column{Transform: TransformExpression}

	switch ex := e.(type) {
	case nil:
		return col

	case *ast.ColumnRef:
		col.Sources = x.resolve(ex)
		col.Transform = TransformDirect

	case *ast.Literal:
		// no sources

	case *ast.ParenExpr:
		return x.expr(ex.Expr)

	case *ast.FuncCall:
		col.Sources = x.collect(e)
		switch x.dialect.FunctionLineageType(ex.Name) {
		case dialect.LineageAggregate:
			col.Transform = TransformAggregate
			col.Function = strings.ToLower(ex.Name)
		case dialect.LineageWindow:
			col.Function = strings.ToLower(ex.Name)
		case dialect.LineageGenerator:
			col.Sources = nil
			col.Transform = TransformGenerator
			col.Function = strings.ToLower(ex.Name)
		}
		if ex.Window != nil && col.Function == "" {
			col.Function = strings.ToLower(ex.Name)
		}

	case *ast.SubqueryExpr:
		cols := x.scalar(ex.Select)
		if len(cols) > 0 {
			col.Sources = cols[0].Sources
		}

	default:
		col.Sources = x.collect(e)
	}
	return col
}

// scalar analyzes a subquery used as a value and returns its columns.
func (x *extractor) scalar(stmt *ast.SelectStmt) []*Column {
	sub := x.newSubQuery("", false)
	x.subquery(sub, stmt)
	return sub.Columns
}

// collect returns the deduplicated source columns referenced anywhere in an
// expression. Subqueries add their reads; a scalar subquery also adds the
// sources of its first column.
func (x *extractor) collect(e ast.Expr) []ColumnRef {
	var sources []ColumnRef
	ast.Inspect(e, func(n ast.Expr) bool {
		switch ex := n.(type) {
		case *ast.ColumnRef:
			sources = mergeSources(sources, x.resolve(ex))
		case *ast.SubqueryExpr:
			if cols := x.scalar(ex.Select); len(cols) > 0 {
				sources = mergeSources(sources, cols[0].Sources)
			}
		case *ast.ExistsExpr:
			x.scalar(ex.Select)
		case *ast.InExpr:
			if ex.Query != nil {
				x.scalar(ex.Query)
			}
		}
		return true
	})
	return sources
}

// resolve maps a column reference to the physical columns behind it.
func (x *extractor) resolve(ref *ast.ColumnRef) []ColumnRef {
	column := x.normalize(ref.Column)

	if ref.Table != "" {
		qualifier := x.normalize(ref.Table)
		e, ok := x.scope.lookup(qualifier)
		if !ok {
			return []ColumnRef{{Table: qualifier, Column: column}}
		}
		return x.resolveIn(e, column)
	}

	for _, f := range slices.Backward(x.scope.frames) {
		if len(f.entries) == 0 {
			continue
		}
		if e, ok := x.owner(f.entries, column); ok {
			return x.resolveIn(e, column)
		}
		if len(f.entries) == 1 && !x.known(f.entries[0]) {
			return x.resolveIn(f.entries[0], column)
		}
		if len(f.entries) > 1 {
			for _, e := range f.entries {
				if !x.known(e) {
					// Several candidates and at least one with unknown
					// columns: the owner cannot be decided.
					return []ColumnRef{{Column: column}}
				}
			}
		}
	}
	return []ColumnRef{{Column: column}}
}

// owner returns the first entry known to have column.
func (x *extractor) owner(entries []*scopeEntry, column string) (*scopeEntry, bool) {
	for _, e := range entries {
		if e.sub != nil {
			if _, ok := e.sub.column(column); ok {
				return e, true
			}
			continue
		}
		if names, ok := x.columnsOf(e.table); ok {
			for _, n := range names {
				if n == column {
					return e, true
				}
			}
		}
	}
	return nil, false
}

// known reports whether the column names of an entry are known.
func (x *extractor) known(e *scopeEntry) bool {
	if e.sub != nil {
		for _, c := range e.sub.Columns {
			if c.Transform == TransformWildcard {
				return false
			}
		}
		return len(e.sub.Columns) > 0
	}
	_, ok := x.columnsOf(e.table)
	return ok
}

// resolveIn maps column of a specific entry to physical columns.
func (x *extractor) resolveIn(e *scopeEntry, column string) []ColumnRef {
	if e.sub == nil {
		return []ColumnRef{{Table: e.table.Key(), Column: column}}
	}
	if c, ok := e.sub.column(column); ok {
		return c.Sources
	}

	var out []ColumnRef
	for _, c := range e.sub.Columns {
		if c.Transform != TransformWildcard {
			continue
		}
		for _, s := range c.Sources {
			out = append(out, ColumnRef{Table: s.Table, Column: column})
		}
	}
	if len(out) == 0 && len(e.sub.Reads) == 1 {
		out = append(out, ColumnRef{Table: e.sub.Reads[0].Key(), Column: column})
	}
	return out
}
