package graph

import (
	"slices"

	"github.com/leapstack-labs/sqllineage/pkg/lineage"
)

// BoundaryOptions controls which sets Boundaries reports.
type BoundaryOptions struct {
	// IncludeIntermediate fills Boundaries.Intermediate.
	IncludeIntermediate bool
}

// Boundaries are the table sets at the edges of a script.
type Boundaries struct {
	Sources      []lineage.Table
	Targets      []lineage.Table
	Intermediate []lineage.Table
}

// Boundaries returns the source and target tables, plus the intermediate
// tables when requested. Each set is in first-seen order.
func (g *Graph) Boundaries(opts BoundaryOptions) Boundaries {
	b := Boundaries{
		Sources: g.SourceTables(),
		Targets: g.TargetTables(),
	}
	if opts.IncludeIntermediate {
		b.Intermediate = g.IntermediateTables()
	}
	return b
}

// SourceTables returns the tables that are read before any statement
// writes them and are not intermediate. A read in the statement that
// writes the table, as in a self-loop, comes first. In a read-only script
// these are all its reads.
func (g *Graph) SourceTables() []lineage.Table {
	return g.filter(func(key string, info nodeInfo) bool {
		if len(info.reads) == 0 || g.interior(key, info) {
			return false
		}
		return len(info.writes) == 0 || slices.Min(info.reads) <= slices.Min(info.writes)
	})
}

// TargetTables returns the written tables that are not intermediate.
func (g *Graph) TargetTables() []lineage.Table {
	return g.filter(func(key string, info nodeInfo) bool {
		return len(info.writes) > 0 && !g.interior(key, info)
	})
}

// IntermediateTables returns the tables written by one statement and read
// by a later statement that feeds another table.
func (g *Graph) IntermediateTables() []lineage.Table {
	return g.filter(g.interior)
}

// interior reports whether some write of key precedes a statement that
// carries key's data into another table. Self-loops do not count.
func (g *Graph) interior(key string, info nodeInfo) bool {
	if len(info.writes) == 0 {
		return false
	}
	first := slices.Min(info.writes)
	for _, e := range g.outgoing(key) {
		if slices.Max(e.Statements) > first {
			return true
		}
	}
	return false
}

func (g *Graph) filter(keep func(key string, info nodeInfo) bool) []lineage.Table {
	out := []lineage.Table{}
	for _, n := range g.dag.GetAllNodes() {
		info := n.Data.(nodeInfo)
		if keep(n.ID, info) {
			out = append(out, info.table)
		}
	}
	return out
}
