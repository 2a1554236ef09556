// Package diag defines the error and warning taxonomy of a lineage run.
//
// Fatal problems are returned as *AnalysisError values wrapping one of the
// sentinel errors below, so callers can branch with errors.Is. Warnings are
// never returned as errors; they are recorded in a Collector and handed back
// alongside the result.
package diag

import (
	"errors"
	"fmt"
	"strings"

	"github.com/leapstack-labs/sqllineage/pkg/token"
)

// Sentinel errors, one per fatal kind.
var (
	// ErrGenericLineage means table references could not be identified at all.
	ErrGenericLineage = errors.New("generic lineage error")
	// ErrInvalidSyntax means a validating dialect rejected the statement.
	ErrInvalidSyntax = errors.New("invalid syntax")
	// ErrUnsupportedStatement means the statement parsed but has no lineage rule.
	ErrUnsupportedStatement = errors.New("unsupported statement")
	// ErrCyclicLineage means column resolution found a cycle across statements.
	ErrCyclicLineage = errors.New("cyclic lineage")
)

// Kind names a diagnostic category.
type Kind string

// Diagnostic kinds.
const (
	KindGenericLineage       Kind = "generic_lineage"
	KindInvalidSyntax        Kind = "invalid_syntax"
	KindUnsupportedStatement Kind = "unsupported_statement"
	KindCyclicLineage        Kind = "cyclic_lineage"
	KindDeprecation          Kind = "deprecation"
	KindAmbiguousBoundary    Kind = "ambiguous_boundary"
)

// Sentinel returns the sentinel error for a fatal kind, or nil for warnings.
func (k Kind) Sentinel() error {
	switch k {
	case KindGenericLineage:
		return ErrGenericLineage
	case KindInvalidSyntax:
		return ErrInvalidSyntax
	case KindUnsupportedStatement:
		return ErrUnsupportedStatement
	case KindCyclicLineage:
		return ErrCyclicLineage
	}
	return nil
}

// Fatal reports whether diagnostics of this kind abort a run.
func (k Kind) Fatal() bool {
	return k.Sentinel() != nil
}

// Severity indicates the importance of a diagnostic.
type Severity int

// Severity levels.
const (
	SeverityError Severity = iota
	SeverityWarning
)

// String returns the string representation of the severity.
func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return "unknown"
	}
}

// Diagnostic is one finding of a run.
type Diagnostic struct {
	Severity Severity
	Kind     Kind
	// Span locates the statement in the script. Zero for run-level warnings.
	Span token.Span
	// Statement is the zero-based unit index, or -1 for run-level findings.
	Statement int
	Message   string
}

// String formats the diagnostic for logs and plain-text output.
func (d Diagnostic) String() string {
	var b strings.Builder
	b.WriteString(d.Severity.String())
	b.WriteString(" [")
	b.WriteString(string(d.Kind))
	b.WriteString("]")
	if d.Span.IsValid() {
		fmt.Fprintf(&b, " at %s", d.Span.Start)
	}
	b.WriteString(": ")
	b.WriteString(d.Message)
	return b.String()
}

// AnalysisError is the single fatal error of a failed run.
type AnalysisError struct {
	Kind Kind
	// Span of the originating statement within the script.
	Span token.Span
	// Statement is the zero-based unit index, or -1 when no unit is involved.
	Statement int
	// Err is the underlying cause, e.g. a *parser.ParseError.
	Err error
}

// NewError builds an AnalysisError for a statement.
func NewError(kind Kind, statement int, span token.Span, err error) *AnalysisError {
	return &AnalysisError{Kind: kind, Span: span, Statement: statement, Err: err}
}

func (e *AnalysisError) Error() string {
	msg := string(e.Kind)
	if s := e.Kind.Sentinel(); s != nil {
		msg = s.Error()
	}
	if e.Statement >= 0 {
		msg = fmt.Sprintf("%s in statement %d", msg, e.Statement+1)
		if e.Span.IsValid() {
			msg += fmt.Sprintf(" (%s)", e.Span)
		}
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the kind sentinel and the underlying cause.
func (e *AnalysisError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if s := e.Kind.Sentinel(); s != nil {
		errs = append(errs, s)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// Diagnostic renders the error as a diagnostic record.
func (e *AnalysisError) Diagnostic() Diagnostic {
	msg := ""
	if e.Err != nil {
		msg = e.Err.Error()
	}
	return Diagnostic{
		Severity:  SeverityError,
		Kind:      e.Kind,
		Span:      e.Span,
		Statement: e.Statement,
		Message:   msg,
	}
}

// KindOf returns the kind of an AnalysisError anywhere in err's chain.
func KindOf(err error) (Kind, bool) {
	var ae *AnalysisError
	if errors.As(err, &ae) {
		return ae.Kind, true
	}
	return "", false
}
