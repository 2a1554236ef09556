package dialect

import "github.com/leapstack-labs/sqllineage/pkg/token"

// Operator precedence levels used by the expression parser.
const (
	PrecedenceNone       = 0
	PrecedenceOr         = 1
	PrecedenceAnd        = 2
	PrecedenceNot        = 3
	PrecedenceComparison = 4 // =, !=, <, >, <=, >=, IS, IN, BETWEEN, LIKE, ILIKE
	PrecedenceAddition   = 5 // +, -, ||
	PrecedenceMultiply   = 6 // *, /, %
	PrecedenceUnary      = 7 // -, +, NOT
	PrecedencePostfix    = 8 // ::, []
)

// OperatorDef binds an operator token to its precedence.
type OperatorDef struct {
	Token      token.TokenType
	Precedence int
}

// ANSIOperators contains standard SQL operators with their precedence.
var ANSIOperators = []OperatorDef{
	// Logical operators (lowest precedence)
	{Token: token.OR, Precedence: PrecedenceOr},
	{Token: token.AND, Precedence: PrecedenceAnd},

	// Comparison operators
	{Token: token.EQ, Precedence: PrecedenceComparison},
	{Token: token.NE, Precedence: PrecedenceComparison},
	{Token: token.LT, Precedence: PrecedenceComparison},
	{Token: token.GT, Precedence: PrecedenceComparison},
	{Token: token.LE, Precedence: PrecedenceComparison},
	{Token: token.GE, Precedence: PrecedenceComparison},
	{Token: token.LIKE, Precedence: PrecedenceComparison},
	{Token: token.IN, Precedence: PrecedenceComparison},
	{Token: token.BETWEEN, Precedence: PrecedenceComparison},
	{Token: token.IS, Precedence: PrecedenceComparison},
	{Token: token.NOT, Precedence: PrecedenceComparison}, // NOT IN, NOT LIKE, NOT BETWEEN

	// Arithmetic operators
	{Token: token.PLUS, Precedence: PrecedenceAddition},
	{Token: token.MINUS, Precedence: PrecedenceAddition},
	{Token: token.DPIPE, Precedence: PrecedenceAddition}, // || string concatenation

	// Multiplicative operators (highest precedence for binary ops)
	{Token: token.STAR, Precedence: PrecedenceMultiply},
	{Token: token.SLASH, Precedence: PrecedenceMultiply},
	{Token: token.PERCENT, Precedence: PrecedenceMultiply},
}

// PostgresCastOperators adds the :: cast operator.
var PostgresCastOperators = []OperatorDef{
	{Token: token.DCOLON, Precedence: PrecedencePostfix},
}
