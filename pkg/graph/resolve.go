package graph

import (
	"errors"
	"math"
	"slices"

	"github.com/elliotchance/orderedmap/v2"
	"github.com/leapstack-labs/sqllineage/internal/dag"
	"github.com/leapstack-labs/sqllineage/pkg/diag"
	"github.com/leapstack-labs/sqllineage/pkg/lineage"
	"github.com/leapstack-labs/sqllineage/pkg/token"
)

// CycleError carries the table path of a cycle found by ResolveColumns.
type CycleError = dag.CycleError

// Path is one column-level route through the graph, origin first and the
// resolved column last.
type Path []lineage.ColumnRef

// Source returns the origin of the path.
func (p Path) Source() lineage.ColumnRef { return p[0] }

// Target returns the column the path ends at.
func (p Path) Target() lineage.ColumnRef { return p[len(p)-1] }

// ColumnLineage is the resolved column provenance of a graph. It is
// immutable and safe for concurrent reads.
type ColumnLineage struct {
	paths   *orderedmap.OrderedMap[lineage.ColumnRef, []Path]
	targets []lineage.ColumnRef
}

// For returns the origin columns of table.column, in first-seen order.
// Columns of tables without incoming edges have no origins.
func (c *ColumnLineage) For(table, column string) []lineage.ColumnRef {
	paths, ok := c.paths.Get(lineage.ColumnRef{Table: table, Column: column})
	if !ok {
		return nil
	}
	var out []lineage.ColumnRef
	for _, p := range paths {
		if src := p.Source(); !slices.Contains(out, src) {
			out = append(out, src)
		}
	}
	return out
}

// Paths returns every path that ends at a column of a target table.
func (c *ColumnLineage) Paths() []Path {
	var out []Path
	for _, t := range c.targets {
		paths, _ := c.paths.Get(t)
		for _, p := range paths {
			out = append(out, slices.Clone(p))
		}
	}
	return out
}

// Targets returns the columns of the target tables that have lineage.
func (c *ColumnLineage) Targets() []lineage.ColumnRef {
	return slices.Clone(c.targets)
}

// ResolveColumns composes the column mappings of g along every path. When
// paths converge on a column their origins are unioned. An edge is only
// followed into a table for the statements that ran before the table was
// read downstream. Self-loops are ignored; any other cycle fails with an
// error wrapping diag.ErrCyclicLineage and a *CycleError.
func ResolveColumns(g *Graph) (*ColumnLineage, error) {
	order, err := g.dag.TopologicalSort()
	var ce *CycleError
	if errors.As(err, &ce) {
		return nil, diag.NewError(diag.KindCyclicLineage, -1, token.Span{}, ce)
	}

	r := &resolver{g: g, memo: make(map[bound][]Path)}
	cl := &ColumnLineage{paths: orderedmap.NewOrderedMap[lineage.ColumnRef, []Path]()}

	for _, key := range order {
		for _, col := range g.columnsOf(key) {
			ref := lineage.ColumnRef{Table: key, Column: col}
			cl.paths.Set(ref, r.pathsTo(ref, math.MaxInt))
		}
	}

	for _, t := range g.TargetTables() {
		for _, col := range g.columnsOf(t.Key()) {
			cl.targets = append(cl.targets, lineage.ColumnRef{Table: t.Key(), Column: col})
		}
	}
	return cl, nil
}

// columnsOf returns the columns written into key along its incoming edges.
func (g *Graph) columnsOf(key string) []string {
	var cols []string
	for _, e := range g.incoming(key) {
		for _, m := range e.Columns {
			if !slices.Contains(cols, m.Target) {
				cols = append(cols, m.Target)
			}
		}
	}
	return cols
}

type resolver struct {
	g    *Graph
	memo map[bound][]Path
}

// bound is a column as seen by statements before stmt.
type bound struct {
	ref  lineage.ColumnRef
	stmt int
}

// pathsTo returns every path ending at ref that was written by a statement
// before stmt. The graph is acyclic apart from self-loops, which incoming
// skips.
func (r *resolver) pathsTo(ref lineage.ColumnRef, stmt int) []Path {
	k := bound{ref, stmt}
	if paths, ok := r.memo[k]; ok {
		return paths
	}

	var out []Path
	for _, e := range r.g.incoming(ref.Table) {
		last, ok := lastBefore(e.Statements, stmt)
		if !ok {
			continue
		}
		for _, src := range sourcesAlong(*e, ref.Column) {
			from := lineage.ColumnRef{Table: e.From, Column: src}
			up := r.pathsTo(from, last)
			if len(up) == 0 {
				out = append(out, Path{from, ref})
				continue
			}
			for _, p := range up {
				out = append(out, append(slices.Clone(p), ref))
			}
		}
	}
	r.memo[k] = out
	return out
}

// lastBefore returns the latest statement in stmts that precedes stmt.
func lastBefore(stmts []int, stmt int) (int, bool) {
	last, ok := -1, false
	for _, s := range stmts {
		if s < stmt && s > last {
			last, ok = s, true
		}
	}
	return last, ok
}

// sourcesAlong returns the columns of e.From that feed column. A wildcard
// mapping passes columns through by name.
func sourcesAlong(e Edge, column string) []string {
	if srcs, ok := e.mapping(column); ok {
		return srcs
	}
	if _, ok := e.mapping(lineage.Wildcard); ok {
		return []string{column}
	}
	return nil
}
