// Package syntax turns statement units into syntax trees.
//
// A Backend does the actual parsing. The Adapter picks the backend that fits
// the run's dialect, classifies each unit and reports the result as an
// Outcome, so later stages never see parser specifics.
package syntax

import (
	"github.com/leapstack-labs/sqllineage/pkg/ast"
	"github.com/leapstack-labs/sqllineage/pkg/dialect"
	"github.com/leapstack-labs/sqllineage/pkg/parser"
	"github.com/leapstack-labs/sqllineage/pkg/token"
)

// Backend parses one statement under a dialect.
type Backend interface {
	// Name identifies the backend in logs.
	Name() string

	// Parse parses exactly one statement.
	Parse(text string, d *dialect.Dialect) (ast.Statement, error)

	// Capabilities returns the statement kinds the backend has lineage
	// rules for under d.
	Capabilities(d *dialect.Dialect) ast.KindSet
}

// TolerantBackend is a Backend that can stop at the end of a statement and
// hand back the tokens it could not assign.
type TolerantBackend interface {
	Backend
	ParseTolerant(text string, d *dialect.Dialect) (ast.Statement, []token.Token, error)
}

// Strict parses with the full grammar. Any token that cannot be placed in
// the statement fails the whole unit.
type Strict struct{}

// Name implements Backend.
func (Strict) Name() string { return "strict" }

// Parse implements Backend.
func (Strict) Parse(text string, d *dialect.Dialect) (ast.Statement, error) {
	return parser.ParseWithDialect(text, d)
}

// Capabilities implements Backend.
func (Strict) Capabilities(d *dialect.Dialect) ast.KindSet {
	return d.Statements()
}

// Lenient tolerates trailing tokens and accepts every recognized statement
// kind; kinds without a lineage rule analyze to an empty fact.
type Lenient struct{}

// Name implements Backend.
func (Lenient) Name() string { return "lenient" }

// Parse implements Backend.
func (l Lenient) Parse(text string, d *dialect.Dialect) (ast.Statement, error) {
	stmt, _, err := l.ParseTolerant(text, d)
	return stmt, err
}

// ParseTolerant implements TolerantBackend.
func (Lenient) ParseTolerant(text string, d *dialect.Dialect) (ast.Statement, []token.Token, error) {
	p := parser.NewParser(text, d, parser.WithLenient())
	stmt, err := p.ParseStatement()
	if err != nil {
		return nil, nil, err
	}
	return stmt, p.Trailing(), nil
}

// Capabilities implements Backend.
func (Lenient) Capabilities(*dialect.Dialect) ast.KindSet {
	return ast.AllKinds()
}

// BackendFor returns the backend matching the dialect's grammar mode.
func BackendFor(d *dialect.Dialect) Backend {
	if d.Validating {
		return Strict{}
	}
	return Lenient{}
}
