// Package graph accumulates statement lineage facts into a table-level
// lineage graph and resolves column lineage across statements.
//
// Nodes are table keys. An edge source -> target exists when some statement
// read source and wrote target; it carries the column mappings that flowed
// along it and the indexes of the statements that produced it. Self-loops
// (INSERT INTO t SELECT ... FROM t) are kept. A table written by one
// statement and read into another table by a later one is an interior
// node. Boundaries and column lineage follow statement order: a read that
// happens before a write does not see the written data.
//
// Graphs are immutable once built: Fold returns a new graph and never
// modifies its input.
package graph

import (
	"slices"

	"github.com/leapstack-labs/sqllineage/internal/dag"
	"github.com/leapstack-labs/sqllineage/pkg/lineage"
)

// ColumnMapping lists the source columns that feed one target column
// along an edge.
type ColumnMapping struct {
	Target  string
	Sources []string
}

// Edge is a source -> target table edge.
type Edge struct {
	From string
	To   string
	// Columns holds mappings in first-seen order.
	Columns []ColumnMapping
	// Statements are the indexes of the statements that produced the edge.
	Statements []int
}

// SelfLoop reports whether the edge reads and writes the same table.
func (e Edge) SelfLoop() bool {
	return e.From == e.To
}

func (e Edge) clone() Edge {
	cols := make([]ColumnMapping, len(e.Columns))
	for i, m := range e.Columns {
		cols[i] = ColumnMapping{Target: m.Target, Sources: slices.Clone(m.Sources)}
	}
	e.Columns = cols
	e.Statements = slices.Clone(e.Statements)
	return e
}

// mapping returns the sources of target, if recorded.
func (e Edge) mapping(target string) ([]string, bool) {
	for _, m := range e.Columns {
		if m.Target == target {
			return m.Sources, true
		}
	}
	return nil, false
}

func (e *Edge) addMapping(target, source string) {
	for i := range e.Columns {
		if e.Columns[i].Target == target {
			if !slices.Contains(e.Columns[i].Sources, source) {
				e.Columns[i].Sources = append(e.Columns[i].Sources, source)
			}
			return
		}
	}
	e.Columns = append(e.Columns, ColumnMapping{Target: target, Sources: []string{source}})
}

// nodeInfo is stored by value in the dag so clones never share it.
type nodeInfo struct {
	table  lineage.Table
	reads  []int
	writes []int
}

type edgeKey struct{ from, to string }

// Graph is a table lineage graph.
type Graph struct {
	dag       *dag.Graph
	edges     map[edgeKey]*Edge
	edgeOrder []edgeKey
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{
		dag:   dag.NewGraph(),
		edges: make(map[edgeKey]*Edge),
	}
}

func (g *Graph) clone() *Graph {
	c := &Graph{
		dag:       g.dag.Clone(),
		edges:     make(map[edgeKey]*Edge, len(g.edges)),
		edgeOrder: slices.Clone(g.edgeOrder),
	}
	for k, e := range g.edges {
		ce := e.clone()
		c.edges[k] = &ce
	}
	return c
}

// Fold returns g extended with the fact of statement stmt. A nil g is an
// empty graph. g is not modified.
func Fold(g *Graph, fact *lineage.Fact, stmt int) *Graph {
	if g == nil {
		g = New()
	}
	ng := g.clone()
	if fact == nil {
		return ng
	}

	for _, r := range fact.Reads {
		ng.touch(r, stmt, false)
	}
	for _, w := range fact.Writes {
		ng.touch(w, stmt, true)
	}

	for _, r := range fact.Reads {
		for _, w := range fact.Writes {
			ng.link(r.Key(), w.Key(), fact, stmt)
		}
	}
	return ng
}

// touch adds or updates the node of t.
func (g *Graph) touch(t lineage.Table, stmt int, write bool) {
	key := t.Key()
	info := nodeInfo{table: t}
	if n, ok := g.dag.GetNode(key); ok {
		info = n.Data.(nodeInfo)
	}
	if write {
		info.writes = append(slices.Clip(info.writes), stmt)
	} else {
		info.reads = append(slices.Clip(info.reads), stmt)
	}
	g.dag.AddNode(key, info)
}

// link adds or merges the edge from -> to with the column mappings of fact
// that originate from the from table.
func (g *Graph) link(from, to string, fact *lineage.Fact, stmt int) {
	k := edgeKey{from, to}
	e, ok := g.edges[k]
	if !ok {
		e = &Edge{From: from, To: to}
		g.edges[k] = e
		g.edgeOrder = append(g.edgeOrder, k)
		_ = g.dag.AddEdge(from, to) // both nodes were just touched
	}
	if !slices.Contains(e.Statements, stmt) {
		e.Statements = append(e.Statements, stmt)
	}

	for el := fact.Columns.Front(); el != nil; el = el.Next() {
		for _, src := range el.Value.Sources {
			if src.Table == from {
				e.addMapping(el.Key, src.Column)
			}
		}
	}
}

// Nodes returns every table in first-seen order.
func (g *Graph) Nodes() []lineage.Table {
	nodes := g.dag.GetAllNodes()
	out := make([]lineage.Table, len(nodes))
	for i, n := range nodes {
		out[i] = n.Data.(nodeInfo).table
	}
	return out
}

// Edges returns copies of every edge in creation order.
func (g *Graph) Edges() []Edge {
	out := make([]Edge, 0, len(g.edgeOrder))
	for _, k := range g.edgeOrder {
		out = append(out, g.edges[k].clone())
	}
	return out
}

// Edge returns a copy of the edge from -> to.
func (g *Graph) Edge(from, to string) (Edge, bool) {
	e, ok := g.edges[edgeKey{from, to}]
	if !ok {
		return Edge{}, false
	}
	return e.clone(), true
}

// ColumnMapping returns the column mappings of the edge from -> to.
func (g *Graph) ColumnMapping(from, to string) []ColumnMapping {
	e, ok := g.Edge(from, to)
	if !ok {
		return nil
	}
	return e.Columns
}

// HasTable reports whether key is a node of g.
func (g *Graph) HasTable(key string) bool {
	return g.dag.HasNode(key)
}

// Upstream returns the keys of every table that data in t came from,
// nearest first.
func (g *Graph) Upstream(t string) []string {
	return g.dag.Ancestors(t)
}

// Downstream returns the keys of every table that data in t flows into,
// nearest first.
func (g *Graph) Downstream(t string) []string {
	return g.dag.Descendants(t)
}

// NodeCount returns the number of tables.
func (g *Graph) NodeCount() int {
	return g.dag.NodeCount()
}

// EdgeCount returns the number of edges, self-loops included.
func (g *Graph) EdgeCount() int {
	return g.dag.EdgeCount()
}

// incoming returns the edges into key other than a self-loop.
func (g *Graph) incoming(key string) []*Edge {
	parents := g.dag.GetParents(key)
	out := make([]*Edge, 0, len(parents))
	for _, p := range parents {
		out = append(out, g.edges[edgeKey{p, key}])
	}
	return out
}

// outgoing returns the edges out of key other than a self-loop.
func (g *Graph) outgoing(key string) []*Edge {
	children := g.dag.GetChildren(key)
	out := make([]*Edge, 0, len(children))
	for _, c := range children {
		out = append(out, g.edges[edgeKey{key, c}])
	}
	return out
}
