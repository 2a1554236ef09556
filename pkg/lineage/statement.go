package lineage

import "github.com/leapstack-labs/sqllineage/pkg/ast"

// statement applies the read/write rule of the statement type.
func (x *extractor) statement(stmt ast.Statement, fact *Fact) error {
	switch s := stmt.(type) {
	case *ast.SelectStmt:
		fact.setColumns(x.query(s))
		if into := s.Into(); into != nil {
			fact.Writes = append(fact.Writes, x.physical(into))
		}

	case *ast.InsertStmt:
		x.insert(s, fact)

	case *ast.CreateTableStmt:
		target := x.physical(s.Table)
		switch {
		case s.Query != nil:
			names := make([]string, len(s.Columns))
			for i, c := range s.Columns {
				names[i] = c.Name
			}
			fact.setColumns(x.rename(x.query(s.Query), names))
		case s.Like != nil:
			x.read(x.physical(s.Like))
		}
		fact.Writes = append(fact.Writes, target)

	case *ast.CreateViewStmt:
		fact.setColumns(x.rename(x.query(s.Query), s.Columns))
		fact.Writes = append(fact.Writes, x.physical(s.View))

	case *ast.UpdateStmt:
		x.update(s, fact)

	case *ast.MergeStmt:
		x.merge(s, fact)

	case *ast.AlterRenameStmt:
		x.read(x.physical(s.Table))
		fact.Writes = append(fact.Writes, x.physical(s.NewName))

	default:
		return unsupported(stmt)
	}
	return nil
}

// insert handles INSERT [OVERWRITE] INTO ... SELECT and VALUES. A column
// list renames the query's outputs positionally. OVERWRITE DIRECTORY has no
// table to write.
func (x *extractor) insert(s *ast.InsertStmt, fact *Fact) {
	x.scope.push()
	defer x.scope.pop()
	x.with(s.With)

	switch {
	case s.Query != nil:
		fact.setColumns(x.rename(x.query(s.Query), s.Columns))
	default:
		for _, row := range s.Values {
			x.filter(row...)
		}
	}
	if s.Table != nil {
		fact.Writes = append(fact.Writes, x.physical(s.Table))
	}
}

// update writes the target from the SET expressions. The target itself is
// in scope for column resolution but is not a read.
func (x *extractor) update(s *ast.UpdateStmt, fact *Fact) {
	target := x.physical(s.Table)

	x.scope.push()
	defer x.scope.pop()
	x.scope.add(&scopeEntry{name: target.Name, alias: target.Alias, table: target})
	if s.From != nil {
		x.from(s.From)
	}

	cols := make([]*Column, 0, len(s.Set))
	for _, a := range s.Set {
		col := x.expr(a.Value)
		col.Name = x.normalize(a.Column)
		cols = append(cols, col)
	}
	fact.setColumns(cols)
	x.filter(s.Where)
	fact.Writes = append(fact.Writes, target)
}

// merge writes the target from the source of MERGE ... USING. Output
// columns come from WHEN MATCHED UPDATE SET and WHEN NOT MATCHED INSERT.
func (x *extractor) merge(s *ast.MergeStmt, fact *Fact) {
	target := x.physical(s.Target)

	x.scope.push()
	defer x.scope.pop()
	x.scope.add(&scopeEntry{name: target.Name, alias: target.Alias, table: target})
	x.tableRef(s.Source)
	x.filter(s.On)

	var cols []*Column
	for _, c := range s.Clauses {
		x.filter(c.Condition)
		switch c.Action {
		case ast.MergeUpdate:
			for _, a := range c.Set {
				col := x.expr(a.Value)
				col.Name = x.normalize(a.Column)
				cols = append(cols, col)
			}
		case ast.MergeInsert:
			for i, v := range c.Values {
				if i >= len(c.Columns) {
					break
				}
				col := x.expr(v)
				col.Name = x.normalize(c.Columns[i])
				cols = append(cols, col)
			}
		}
	}
	fact.setColumns(cols)
	fact.Writes = append(fact.Writes, target)
}
