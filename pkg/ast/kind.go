package ast

import (
	"sort"
	"strings"
)

// Kind is the syntactic category of a statement. It decides which lineage
// rule applies.
type Kind int

// Statement kinds.
const (
	KindUnknown Kind = iota
	KindQuery
	KindInsert
	KindCreateTable
	KindCreateTableAs
	KindCreateView
	KindSelectInto
	KindUpdate
	KindDelete
	KindMerge
	KindAlterRename
	KindAlter
	KindDrop
	KindTruncate
	KindCreateIndex
	KindCreateSchema
	KindCreateOther
	KindUse
	KindSetVar
	KindTransaction
	KindGrant

	kindCount
)

var kindNames = [...]string{
	KindUnknown:       "unknown",
	KindQuery:         "query",
	KindInsert:        "insert",
	KindCreateTable:   "create_table",
	KindCreateTableAs: "create_table_as",
	KindCreateView:    "create_view",
	KindSelectInto:    "select_into",
	KindUpdate:        "update",
	KindDelete:        "delete",
	KindMerge:         "merge",
	KindAlterRename:   "alter_rename",
	KindAlter:         "alter",
	KindDrop:          "drop",
	KindTruncate:      "truncate",
	KindCreateIndex:   "create_index",
	KindCreateSchema:  "create_schema",
	KindCreateOther:   "create_other",
	KindUse:           "use",
	KindSetVar:        "set",
	KindTransaction:   "transaction",
	KindGrant:         "grant",
}

// String returns the snake_case name of the kind.
func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// ParseKind returns the kind with the given name.
func ParseKind(name string) (Kind, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for k, n := range kindNames {
		if n == name {
			return Kind(k), true
		}
	}
	return KindUnknown, false
}

// KindSet is a set of statement kinds.
type KindSet uint64

// NewKindSet returns a set containing the given kinds.
func NewKindSet(kinds ...Kind) KindSet {
	var s KindSet
	for _, k := range kinds {
		s = s.With(k)
	}
	return s
}

// AllKinds returns a set containing every known kind except KindUnknown.
func AllKinds() KindSet {
	var s KindSet
	for k := KindQuery; k < kindCount; k++ {
		s = s.With(k)
	}
	return s
}

// Has reports whether k is in the set.
func (s KindSet) Has(k Kind) bool {
	return s&(1<<uint(k)) != 0
}

// With returns a copy of the set with k added.
func (s KindSet) With(k Kind) KindSet {
	return s | 1<<uint(k)
}

// Without returns a copy of the set with k removed.
func (s KindSet) Without(k Kind) KindSet {
	return s &^ (1 << uint(k))
}

// Kinds returns the members sorted by name.
func (s KindSet) Kinds() []Kind {
	var kinds []Kind
	for k := KindUnknown; k < kindCount; k++ {
		if s.Has(k) {
			kinds = append(kinds, k)
		}
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i].String() < kinds[j].String() })
	return kinds
}

// NoLineage reports whether statements of this kind never contribute reads
// or writes.
func (k Kind) NoLineage() bool {
	switch k {
	case KindDrop, KindTruncate, KindCreateSchema, KindUse, KindSetVar,
		KindTransaction, KindDelete, KindCreateIndex, KindAlter,
		KindCreateOther, KindGrant:
		return true
	}
	return false
}
