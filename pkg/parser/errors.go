package parser

import "fmt"

// ParseError represents a parsing error with position information.
type ParseError struct {
	Pos     Position
	Message string
	// MissingTable is set when a FROM-like clause has no table argument, so
	// no table reference can be identified at all.
	MissingTable bool
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at line %d, column %d: %s", e.Pos.Line, e.Pos.Column, e.Message)
}

// Common error messages
const (
	ErrUnexpectedToken    = "unexpected token %s, expected %s"
	ErrUnterminatedString = "unterminated string literal or quoted identifier"
	ErrTrailingToken      = "unexpected token %s after end of statement"
	ErrUnknownStatement   = "unexpected token %s at start of statement"
	ErrMissingTable       = "expected table name after %s, got %s"

	// Dialect-specific error messages
	ErrUnsupportedClause = "%s is not supported in %s dialect"
)
