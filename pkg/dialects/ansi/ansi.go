// Package ansi provides the base ANSI SQL dialect.
//
// This dialect is the default and serves as the foundation for the other
// dialects, which extend it and add or override specific behaviors.
package ansi

import (
	"github.com/leapstack-labs/sqllineage/pkg/dialect"
)

func init() {
	dialect.Register(ANSI)
}

// ANSI is the base ANSI SQL dialect. It validates strictly.
var ANSI = dialect.NewDialect("ansi").
	Describe("ANSI SQL, strict validation").
	Identifiers(dialect.NormLowercase, dialect.QuotePair{Open: '"', Close: '"'}).
	Aggregates(dialect.StandardAggregates...).
	Generators(dialect.StandardGenerators...).
	Windows(dialect.StandardWindows...).
	Build()
