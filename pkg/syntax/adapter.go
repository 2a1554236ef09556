package syntax

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/leapstack-labs/sqllineage/pkg/ast"
	"github.com/leapstack-labs/sqllineage/pkg/diag"
	"github.com/leapstack-labs/sqllineage/pkg/dialect"
	"github.com/leapstack-labs/sqllineage/pkg/parser"
	"github.com/leapstack-labs/sqllineage/pkg/split"
	"github.com/leapstack-labs/sqllineage/pkg/token"
)

// Adapter parses the units of one run under a fixed dialect.
type Adapter struct {
	dialect *dialect.Dialect
	backend Backend
	diags   *diag.Collector
	logger  *slog.Logger

	deprecation sync.Once
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithBackend overrides the backend chosen from the dialect.
func WithBackend(b Backend) Option {
	return func(a *Adapter) {
		a.backend = b
	}
}

// WithLogger sets the logger. A nil logger discards output.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Adapter) {
		a.logger = logger
	}
}

// NewAdapter returns an adapter for d that records warnings in diags.
func NewAdapter(d *dialect.Dialect, diags *diag.Collector, opts ...Option) (*Adapter, error) {
	if d == nil {
		return nil, dialect.ErrDialectRequired
	}
	a := &Adapter{dialect: d, diags: diags}
	for _, opt := range opts {
		opt(a)
	}
	if a.backend == nil {
		a.backend = BackendFor(d)
	}
	if a.logger == nil {
		a.logger = slog.New(slog.DiscardHandler)
	}
	if a.diags == nil {
		a.diags = diag.NewCollector(a.logger)
	}
	return a, nil
}

// Dialect returns the adapter's dialect.
func (a *Adapter) Dialect() *dialect.Dialect {
	return a.dialect
}

// Backend returns the backend in use.
func (a *Adapter) Backend() Backend {
	return a.backend
}

// AnalyzeSyntax parses a unit. The first call warns once if the dialect is
// deprecated.
func (a *Adapter) AnalyzeSyntax(u split.Unit) Outcome {
	a.deprecation.Do(a.warnDeprecated)

	stmt, trailing, err := a.parse(u.Text)
	if err != nil {
		f := SyntaxFailure{
			Reason: err,
			Kind:   parser.Classify(u.Text, a.dialect),
			Pos:    u.Span.Start,
		}
		f.Partial = f.Kind != ast.KindUnknown
		var pe *parser.ParseError
		if errors.As(err, &pe) {
			f.Pos = pe.Pos.Shift(u.Span.Start)
			f.MissingTable = pe.MissingTable
		}
		a.logger.Debug("syntax failure",
			slog.Int("statement", u.Index),
			slog.String("backend", a.backend.Name()),
			slog.String("error", err.Error()),
		)
		return f
	}

	kind := stmt.Kind()
	if !a.backend.Capabilities(a.dialect).Has(kind) {
		return UnsupportedKind{Kind: kind, Tree: stmt}
	}

	a.logger.Debug("statement parsed",
		slog.Int("statement", u.Index),
		slog.String("kind", kind.String()),
		slog.Int("trailing", len(trailing)),
	)
	return Parsed{Tree: stmt, Kind: kind, Trailing: trailing}
}

func (a *Adapter) parse(text string) (ast.Statement, []token.Token, error) {
	if tb, ok := a.backend.(TolerantBackend); ok {
		return tb.ParseTolerant(text, a.dialect)
	}
	stmt, err := a.backend.Parse(text, a.dialect)
	return stmt, nil, err
}

func (a *Adapter) warnDeprecated() {
	if !a.dialect.Deprecated {
		return
	}
	msg := a.dialect.DeprecationNote
	if msg == "" {
		msg = fmt.Sprintf("dialect %q is deprecated", a.dialect.Name)
	}
	a.diags.Warn(diag.KindDeprecation, -1, token.Span{}, msg)
}

// Fatal maps an outcome to the error that aborts the run, or nil for a
// parsed unit. A statement without any table reference, or any failure
// under a non-validating dialect, is a generic lineage error; other
// failures are invalid syntax.
func (a *Adapter) Fatal(u split.Unit, o Outcome) error {
	switch o := o.(type) {
	case SyntaxFailure:
		kind := diag.KindInvalidSyntax
		if o.MissingTable || !a.dialect.Validating {
			kind = diag.KindGenericLineage
		}
		return diag.NewError(kind, u.Index, u.Span, o.Reason)
	case UnsupportedKind:
		return diag.NewError(diag.KindUnsupportedStatement, u.Index, u.Span,
			fmt.Errorf("%s statements are not supported in %s dialect", o.Kind, a.dialect.Name))
	}
	return nil
}
