// Package dialect provides SQL dialect configuration and function classification.
//
// This package contains the public contract for dialect definitions used by the
// splitter, the parser backends and the lineage analyzer. Concrete dialect
// profiles are registered from pkg/dialects/*/ packages.
package dialect

import (
	"strings"

	"github.com/leapstack-labs/sqllineage/pkg/ast"
	"github.com/leapstack-labs/sqllineage/pkg/token"
)

// Type classifies how a function affects lineage.
type Type int

const (
	// LineagePassthrough means all input columns pass through (default for unknown functions).
	LineagePassthrough Type = iota
	// LineageAggregate means many rows aggregate to one value (SUM, COUNT, etc.).
	LineageAggregate
	// LineageGenerator means function generates values with no upstream columns (NOW, UUID, etc.).
	LineageGenerator
	// LineageWindow means function requires OVER clause (ROW_NUMBER, LAG, etc.).
	LineageWindow
	// LineageTable means function returns rows and acts as a table source (read_csv, generate_series, etc.).
	LineageTable
)

// String returns the string representation of Type.
func (t Type) String() string {
	switch t {
	case LineagePassthrough:
		return "passthrough"
	case LineageAggregate:
		return "aggregate"
	case LineageGenerator:
		return "generator"
	case LineageWindow:
		return "window"
	case LineageTable:
		return "table"
	default:
		return "unknown"
	}
}

// Normalization is how unquoted identifiers are folded.
type Normalization int

// Normalization strategies.
const (
	NormLowercase Normalization = iota
	NormUppercase
	NormCaseInsensitive
	NormCaseSensitive
)

// QuotePair is an identifier quoting convention, e.g. "x", [x] or `x`.
type QuotePair struct {
	Open  byte
	Close byte
}

// Dialect represents a SQL dialect configuration.
type Dialect struct {
	Name          string
	Description   string
	Normalization Normalization
	Quotes        []QuotePair
	DefaultSchema string

	// Validating dialects reject any statement containing a token that cannot
	// be assigned a grammatical role. Non-validating dialects parse leniently.
	Validating bool

	// Deprecated dialects still work but produce a deprecation warning once per run.
	Deprecated      bool
	DeprecationNote string

	// BatchSeparator is a line-level batch terminator such as GO.
	BatchSeparator string
	// ImplicitTerminators allows statements to follow each other without ";".
	ImplicitTerminators bool

	// Function classifications (normalized to lowercase)
	aggregates     map[string]struct{}
	generators     map[string]struct{}
	windows        map[string]struct{}
	tableFunctions map[string]struct{}

	// Parsing behavior
	clauses    map[token.TokenType]string // optional clauses: QUALIFY, TOP, ...
	keywords   map[string]token.TokenType // dialect keywords: ILIKE, ...
	precedence map[token.TokenType]int    // infix operator precedence
	joinTypes  map[token.TokenType]JoinTypeDef
	statements ast.KindSet
}

// FunctionLineageType returns how a function affects lineage.
func (d *Dialect) FunctionLineageType(name string) Type {
	normalized := normalizeFunc(name)

	// Table functions have the highest priority
	if _, ok := d.tableFunctions[normalized]; ok {
		return LineageTable
	}
	if _, ok := d.aggregates[normalized]; ok {
		return LineageAggregate
	}
	if _, ok := d.generators[normalized]; ok {
		return LineageGenerator
	}
	if _, ok := d.windows[normalized]; ok {
		return LineageWindow
	}
	return LineagePassthrough
}

// normalizeFunc folds a function name; function names are case-insensitive
// in every supported dialect.
func normalizeFunc(name string) string {
	return strings.ToLower(name)
}

// NormalizeName normalizes an identifier according to dialect rules.
func (d *Dialect) NormalizeName(name string) string {
	switch d.Normalization {
	case NormUppercase:
		return strings.ToUpper(name)
	case NormLowercase, NormCaseInsensitive:
		return strings.ToLower(name)
	default: // NormCaseSensitive
		return name
	}
}

// IsAggregate returns true if the function is an aggregate.
func (d *Dialect) IsAggregate(name string) bool {
	_, ok := d.aggregates[normalizeFunc(name)]
	return ok
}

// IsGenerator returns true if the function generates values without inputs.
func (d *Dialect) IsGenerator(name string) bool {
	_, ok := d.generators[normalizeFunc(name)]
	return ok
}

// IsWindow returns true if the function is a window function.
func (d *Dialect) IsWindow(name string) bool {
	_, ok := d.windows[normalizeFunc(name)]
	return ok
}

// IsTableFunction returns true if the function is table-valued.
func (d *Dialect) IsTableFunction(name string) bool {
	_, ok := d.tableFunctions[normalizeFunc(name)]
	return ok
}

// GetName returns the dialect name.
func (d *Dialect) GetName() string {
	return d.Name
}

// SupportsClause reports whether an optional clause keyword is valid in this dialect.
func (d *Dialect) SupportsClause(t token.TokenType) bool {
	_, ok := d.clauses[t]
	return ok
}

// LookupKeyword returns the dialect-specific keyword token for an identifier.
func (d *Dialect) LookupKeyword(name string) (token.TokenType, bool) {
	if t, ok := d.keywords[strings.ToLower(name)]; ok {
		return t, true
	}
	return token.IDENT, false
}

// Precedence returns the infix precedence for an operator token (0 if not an operator).
func (d *Dialect) Precedence(t token.TokenType) int {
	return d.precedence[t]
}

// JoinTypeDef returns the join type definition triggered by a token.
func (d *Dialect) JoinTypeDef(t token.TokenType) (JoinTypeDef, bool) {
	def, ok := d.joinTypes[t]
	return def, ok
}

// IsJoinTypeToken returns true if the token starts a join type in this dialect.
func (d *Dialect) IsJoinTypeToken(t token.TokenType) bool {
	_, ok := d.joinTypes[t]
	return ok
}

// Statements returns the statement kinds the lineage analyzer supports for
// this dialect.
func (d *Dialect) Statements() ast.KindSet {
	return d.statements
}

// QuoteFor returns the closing quote for an opening identifier quote character.
func (d *Dialect) QuoteFor(open byte) (byte, bool) {
	for _, q := range d.Quotes {
		if q.Open == open {
			return q.Close, true
		}
	}
	return 0, false
}

// Builder provides a fluent API for constructing dialects.
type Builder struct {
	dialect *Dialect
}

// NewDialect creates a new dialect builder with ANSI defaults: lowercase
// normalization, double-quoted identifiers, ANSI operators and joins, and the
// standard lineage statement kinds.
func NewDialect(name string) *Builder {
	b := &Builder{
		dialect: &Dialect{
			Name:           name,
			Normalization:  NormLowercase,
			Quotes:         []QuotePair{{'"', '"'}},
			Validating:     true,
			aggregates:     make(map[string]struct{}),
			generators:     make(map[string]struct{}),
			windows:        make(map[string]struct{}),
			tableFunctions: make(map[string]struct{}),
			clauses:        make(map[token.TokenType]string),
			keywords:       make(map[string]token.TokenType),
			precedence:     make(map[token.TokenType]int),
			joinTypes:      make(map[token.TokenType]JoinTypeDef),
			statements:     LineageStatements,
		},
	}
	return b.Operators(ANSIOperators).JoinTypes(ANSIJoinTypes)
}

// Extend creates a builder that starts from a copy of an existing dialect.
func Extend(base *Dialect, name string) *Builder {
	d := *base
	d.Name = name
	d.Description = ""
	d.Quotes = append([]QuotePair(nil), base.Quotes...)
	d.aggregates = copySet(base.aggregates)
	d.generators = copySet(base.generators)
	d.windows = copySet(base.windows)
	d.tableFunctions = copySet(base.tableFunctions)
	d.clauses = copyMap(base.clauses)
	d.keywords = copyMap(base.keywords)
	d.precedence = copyMap(base.precedence)
	d.joinTypes = copyMap(base.joinTypes)
	return &Builder{dialect: &d}
}

func copySet(m map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{}, len(m))
	for k := range m {
		out[k] = struct{}{}
	}
	return out
}

func copyMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Describe sets a one-line description shown by the CLI.
func (b *Builder) Describe(text string) *Builder {
	b.dialect.Description = text
	return b
}

// Identifiers sets identifier normalization and quoting conventions.
func (b *Builder) Identifiers(norm Normalization, quotes ...QuotePair) *Builder {
	b.dialect.Normalization = norm
	if len(quotes) > 0 {
		b.dialect.Quotes = quotes
	}
	return b
}

// DefaultSchema sets the schema assumed for unqualified tables.
func (b *Builder) DefaultSchema(schema string) *Builder {
	b.dialect.DefaultSchema = schema
	return b
}

// NonValidating switches the dialect to lenient parsing.
func (b *Builder) NonValidating() *Builder {
	b.dialect.Validating = false
	return b
}

// Deprecated marks the dialect as deprecated with a note for the warning.
func (b *Builder) Deprecated(note string) *Builder {
	b.dialect.Deprecated = true
	b.dialect.DeprecationNote = note
	return b
}

// BatchSeparator sets a line-level batch separator (e.g. GO) and allows
// statements without terminators.
func (b *Builder) BatchSeparator(sep string) *Builder {
	b.dialect.BatchSeparator = sep
	b.dialect.ImplicitTerminators = true
	return b
}

// Aggregates registers aggregate functions.
func (b *Builder) Aggregates(funcs ...string) *Builder {
	for _, f := range funcs {
		b.dialect.aggregates[normalizeFunc(f)] = struct{}{}
	}
	return b
}

// Generators registers value-generating functions.
func (b *Builder) Generators(funcs ...string) *Builder {
	for _, f := range funcs {
		b.dialect.generators[normalizeFunc(f)] = struct{}{}
	}
	return b
}

// Windows registers window functions.
func (b *Builder) Windows(funcs ...string) *Builder {
	for _, f := range funcs {
		b.dialect.windows[normalizeFunc(f)] = struct{}{}
	}
	return b
}

// TableFunctions registers table-valued functions.
func (b *Builder) TableFunctions(funcs ...string) *Builder {
	for _, f := range funcs {
		b.dialect.tableFunctions[normalizeFunc(f)] = struct{}{}
	}
	return b
}

// Clause enables an optional dialect clause such as QUALIFY or TOP. The
// keyword is registered as a dynamic token and recorded globally so other
// dialects can report it as unsupported.
func (b *Builder) Clause(name string) *Builder {
	t := token.Register(strings.ToUpper(name))
	b.dialect.clauses[t] = strings.ToUpper(name)
	b.dialect.keywords[strings.ToLower(name)] = t
	recordClause(t, strings.ToUpper(name))
	return b
}

// Keyword registers a dialect keyword that is not a clause (e.g. ILIKE).
func (b *Builder) Keyword(name string) *Builder {
	t := token.Register(strings.ToUpper(name))
	b.dialect.keywords[strings.ToLower(name)] = t
	return b
}

// AddInfix registers an infix operator with a precedence.
func (b *Builder) AddInfix(t token.TokenType, precedence int) *Builder {
	b.dialect.precedence[t] = precedence
	return b
}

// AddInfixKeyword registers a keyword operator (e.g. ILIKE) with a precedence.
func (b *Builder) AddInfixKeyword(name string, precedence int) *Builder {
	b.Keyword(name)
	return b.AddInfix(b.dialect.keywords[strings.ToLower(name)], precedence)
}

// Operators registers operator definitions.
func (b *Builder) Operators(sets ...[]OperatorDef) *Builder {
	for _, set := range sets {
		for _, op := range set {
			b.dialect.precedence[op.Token] = op.Precedence
		}
	}
	return b
}

// JoinTypes registers join type definitions.
func (b *Builder) JoinTypes(sets ...[]JoinTypeDef) *Builder {
	for _, set := range sets {
		for _, def := range set {
			b.dialect.joinTypes[def.Token] = def
		}
	}
	return b
}

// AddJoinType registers a single join type definition.
func (b *Builder) AddJoinType(def JoinTypeDef) *Builder {
	b.dialect.joinTypes[def.Token] = def
	return b
}

// Statements replaces the supported statement kinds.
func (b *Builder) Statements(kinds ast.KindSet) *Builder {
	b.dialect.statements = kinds
	return b
}

// Build returns the constructed dialect.
func (b *Builder) Build() *Dialect {
	return b.dialect
}
