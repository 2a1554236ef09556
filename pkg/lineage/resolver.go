package lineage

import "slices"

// scopeEntry is a relation visible by name in a FROM clause: a physical
// table or a statement-scoped subquery.
type scopeEntry struct {
	name  string // normalized table or relation name
	alias string // normalized alias, if any
	table Table
	sub   *SubQuery // nil for physical tables
}

// effectiveName returns the name used to reference this entry.
func (e *scopeEntry) effectiveName() string {
	if e.alias != "" {
		return e.alias
	}
	return e.name
}

// frame is one level of the scope stack. Query frames hold CTEs; core frames
// hold the relations of one FROM clause.
type frame struct {
	entries []*scopeEntry
	ctes    map[string]*SubQuery
}

// scopeStack resolves names from the innermost frame outward, so correlated
// subqueries see the relations of enclosing queries.
type scopeStack struct {
	frames []*frame
}

func (s *scopeStack) push() *frame {
	f := &frame{}
	s.frames = append(s.frames, f)
	return f
}

func (s *scopeStack) pop() {
	s.frames = s.frames[:len(s.frames)-1]
}

func (s *scopeStack) top() *frame {
	return s.frames[len(s.frames)-1]
}

// add registers an entry in the innermost frame.
func (s *scopeStack) add(e *scopeEntry) {
	f := s.top()
	f.entries = append(f.entries, e)
}

// defineCTE registers a CTE in the innermost frame.
func (s *scopeStack) defineCTE(name string, sub *SubQuery) {
	f := s.top()
	if f.ctes == nil {
		f.ctes = make(map[string]*SubQuery)
	}
	f.ctes[name] = sub
}

// lookupCTE finds the nearest CTE with the given normalized name.
func (s *scopeStack) lookupCTE(name string) (*SubQuery, bool) {
	for _, f := range slices.Backward(s.frames) {
		if sub, ok := f.ctes[name]; ok {
			return sub, true
		}
	}
	return nil, false
}

// lookup finds the nearest entry referenced as name. Aliases take
// precedence over table names within a frame.
func (s *scopeStack) lookup(name string) (*scopeEntry, bool) {
	for _, f := range slices.Backward(s.frames) {
		for _, e := range f.entries {
			if e.effectiveName() == name {
				return e, true
			}
		}
		for _, e := range f.entries {
			if e.name == name {
				return e, true
			}
		}
	}
	return nil, false
}

// current returns the entries of the innermost frame.
func (s *scopeStack) current() []*scopeEntry {
	return s.top().entries
}
