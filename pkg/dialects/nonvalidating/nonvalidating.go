// Package nonvalidating provides the lenient legacy dialect.
//
// Statements are parsed best effort: trailing tokens that cannot be assigned
// a role are tolerated and statements of kinds without lineage rules are
// reported as having no lineage. The dialect is deprecated.
package nonvalidating

import (
	"github.com/leapstack-labs/sqllineage/pkg/ast"
	"github.com/leapstack-labs/sqllineage/pkg/dialect"
	"github.com/leapstack-labs/sqllineage/pkg/dialects/ansi"
)

// Name is the registry name of the dialect.
const Name = "non-validating"

func init() {
	dialect.Register(NonValidating)
}

// NonValidating is the lenient legacy dialect.
var NonValidating = dialect.Extend(ansi.ANSI, Name).
	Describe("lenient legacy parsing without validation").
	Identifiers(dialect.NormLowercase,
		dialect.QuotePair{Open: '"', Close: '"'},
		dialect.QuotePair{Open: '`', Close: '`'},
		dialect.QuotePair{Open: '[', Close: ']'},
	).
	NonValidating().
	Deprecated("the non-validating dialect is deprecated; choose a validating dialect such as ansi").
	Operators(dialect.PostgresCastOperators).
	Statements(ast.AllKinds()).
	Build()
