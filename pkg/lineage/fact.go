package lineage

import (
	"strings"

	"github.com/elliotchance/orderedmap/v2"
	"github.com/leapstack-labs/sqllineage/pkg/ast"
)

// Transform describes how source columns become an output column.
type Transform string

const (
	// TransformDirect means the column is a copy of one input column.
	TransformDirect Transform = "direct"
	// TransformExpression means the column is computed from its sources.
	TransformExpression Transform = "expression"
	// TransformWildcard means the column stands for every column of its
	// source tables because * could not be expanded.
	TransformWildcard Transform = "wildcard"
	// TransformAggregate means many input rows fold into one value.
	TransformAggregate Transform = "aggregate"
	// TransformGenerator means the value is produced without input columns.
	TransformGenerator Transform = "generator"
)

// Wildcard is the column name used for an unexpanded *.
const Wildcard = "*"

// Table is a table reference. Physical tables are keyed by their
// normalized qualified name; references to the same table collapse.
type Table struct {
	Catalog string
	Schema  string
	Name    string
	// Alias is the first alias the table was referenced under, if any.
	Alias string
}

// Key returns the normalized qualified name.
func (t Table) Key() string {
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

func (t Table) String() string {
	return t.Key()
}

// ColumnRef names one column of a table by table key.
type ColumnRef struct {
	Table  string
	Column string
}

func (c ColumnRef) String() string {
	if c.Table == "" {
		return c.Column
	}
	return c.Table + "." + c.Column
}

// Column describes the lineage of a single output column.
type Column struct {
	Name      string
	Sources   []ColumnRef
	Transform Transform
	// Function is the aggregate, window or generator function that produced
	// the column, lower-cased.
	Function string
}

// SubQuery is a CTE, derived table or other statement-scoped relation.
// Its reads are the physical tables it resolves to.
type SubQuery struct {
	// ID is unique within a statement: <subquery_N> for anonymous relations,
	// <name> for CTEs.
	ID      string
	Name    string
	Reads   []Table
	Columns []*Column
}

// column returns the subquery column with the given normalized name.
func (s *SubQuery) column(name string) (*Column, bool) {
	for _, c := range s.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// Fact is the lineage of one statement.
type Fact struct {
	Kind   ast.Kind
	Reads  []Table
	Writes []Table
	// Columns maps output column name to its lineage, in output order.
	Columns *orderedmap.OrderedMap[string, *Column]
	// SubQueries lists the statement-scoped relations that were resolved.
	SubQueries []*SubQuery
}

func newFact(kind ast.Kind) *Fact {
	return &Fact{
		Kind:    kind,
		Columns: orderedmap.NewOrderedMap[string, *Column](),
	}
}

// Column returns the lineage of an output column.
func (f *Fact) Column(name string) (*Column, bool) {
	return f.Columns.Get(name)
}

// ColumnList returns the output columns in order.
func (f *Fact) ColumnList() []*Column {
	out := make([]*Column, 0, f.Columns.Len())
	for el := f.Columns.Front(); el != nil; el = el.Next() {
		out = append(out, el.Value)
	}
	return out
}

// ColumnNames returns the output column names in order.
func (f *Fact) ColumnNames() []string {
	out := make([]string, 0, f.Columns.Len())
	for el := f.Columns.Front(); el != nil; el = el.Next() {
		out = append(out, el.Key)
	}
	return out
}

// ReadKeys returns the keys of the read tables.
func (f *Fact) ReadKeys() []string {
	return keys(f.Reads)
}

// WriteKeys returns the keys of the written tables.
func (f *Fact) WriteKeys() []string {
	return keys(f.Writes)
}

// Empty reports whether the statement neither reads nor writes.
func (f *Fact) Empty() bool {
	return len(f.Reads) == 0 && len(f.Writes) == 0
}

// setColumns stores cols, merging the sources of duplicate names.
func (f *Fact) setColumns(cols []*Column) {
	for _, c := range cols {
		if prev, ok := f.Columns.Get(c.Name); ok {
			n := len(prev.Sources)
			prev.Sources = mergeSources(prev.Sources, c.Sources)
			if prev.Transform != c.Transform || (prev.Transform == TransformDirect && len(prev.Sources) > n) {
				prev.Transform = TransformExpression
			}
			continue
		}
		f.Columns.Set(c.Name, c)
	}
}

func keys(tables []Table) []string {
	out := make([]string, len(tables))
	for i, t := range tables {
		out[i] = t.Key()
	}
	return out
}

// tableSet is an insertion-ordered set of tables keyed by Key.
type tableSet struct {
	tables []Table
	seen   map[string]struct{}
}

func newTableSet() *tableSet {
	return &tableSet{seen: make(map[string]struct{})}
}

func (s *tableSet) add(t Table) {
	k := t.Key()
	if _, ok := s.seen[k]; ok {
		return
	}
	s.seen[k] = struct{}{}
	s.tables = append(s.tables, t)
}

// mergeSources merges two source lists, removing duplicates.
func mergeSources(a, b []ColumnRef) []ColumnRef {
	seen := make(map[ColumnRef]struct{}, len(a)+len(b))
	var result []ColumnRef
	for _, list := range [][]ColumnRef{a, b} {
		for _, s := range list {
			if _, ok := seen[s]; !ok {
				seen[s] = struct{}{}
				result = append(result, s)
			}
		}
	}
	return result
}
