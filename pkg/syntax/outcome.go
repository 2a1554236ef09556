package syntax

import (
	"github.com/leapstack-labs/sqllineage/pkg/ast"
	"github.com/leapstack-labs/sqllineage/pkg/token"
)

// Outcome is the result of analyzing one unit: Parsed, SyntaxFailure or
// UnsupportedKind.
type Outcome interface {
	outcome()
}

// Parsed is a unit whose statement was fully recognized.
type Parsed struct {
	Tree ast.Statement
	Kind ast.Kind
	// Trailing holds tokens a tolerant backend skipped after the statement.
	Trailing []token.Token
}

// Partial reports whether tokens were left over after the statement.
func (p Parsed) Partial() bool { return len(p.Trailing) > 0 }

// SyntaxFailure is a unit the backend rejected.
type SyntaxFailure struct {
	Reason error
	// Kind is the kind implied by the leading keywords, KindUnknown if none.
	Kind ast.Kind
	// Partial is set when the statement kind was recognized before the
	// failure.
	Partial bool
	// Pos is the failure position in script coordinates.
	Pos token.Position
	// MissingTable is set when a FROM-like clause lacks its table, which
	// leaves no table reference to report.
	MissingTable bool
}

// UnsupportedKind is a unit that parsed but whose kind has no lineage rule
// in the dialect.
type UnsupportedKind struct {
	Kind ast.Kind
	Tree ast.Statement
}

func (Parsed) outcome()          {}
func (SyntaxFailure) outcome()   {}
func (UnsupportedKind) outcome() {}
