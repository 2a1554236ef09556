// Package runner wires the lineage pipeline for one script: split, parse,
// analyze, fold and, on request, column resolution.
//
// A Runner is created cheaply and evaluated at most once. The first call to
// Evaluate or any accessor runs the pipeline; later calls, concurrent ones
// included, return the same result.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/leapstack-labs/sqllineage/pkg/ast"
	"github.com/leapstack-labs/sqllineage/pkg/diag"
	"github.com/leapstack-labs/sqllineage/pkg/dialect"
	"github.com/leapstack-labs/sqllineage/pkg/graph"
	"github.com/leapstack-labs/sqllineage/pkg/lineage"
	"github.com/leapstack-labs/sqllineage/pkg/metadata"
	"github.com/leapstack-labs/sqllineage/pkg/split"
	"github.com/leapstack-labs/sqllineage/pkg/syntax"

	// Register the built-in dialects so they resolve by name.
	_ "github.com/leapstack-labs/sqllineage/pkg/dialects/all"
)

// Statement is one analyzed unit of the script.
type Statement struct {
	Unit split.Unit
	Kind ast.Kind
	Fact *lineage.Fact
	// Partial is set when a tolerant backend skipped trailing tokens.
	Partial bool
}

// Result is the outcome of a successful evaluation.
type Result struct {
	RunID      string
	Dialect    *dialect.Dialect
	Statements []Statement
	Graph      *graph.Graph
	// Diagnostics holds the warnings of the run.
	Diagnostics []diag.Diagnostic
}

// Runner analyzes one script.
type Runner struct {
	script        string
	dialectName   string
	dialect       *dialect.Dialect
	defaultSchema string
	lookup        lineage.ColumnLookup
	provider      metadata.Provider
	backend       syntax.Backend
	logger        *slog.Logger
	ctx           context.Context

	once      sync.Once
	evaluated atomic.Bool
	result    *Result
	err       error
	diags     []diag.Diagnostic

	columnsOnce sync.Once
	columns     *graph.ColumnLineage
	columnsErr  error
}

// New returns a runner for script. Nothing is parsed until the runner is
// evaluated.
func New(script string, opts ...Option) *Runner {
	r := &Runner{script: script}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.New(slog.DiscardHandler)
	}
	if r.ctx == nil {
		r.ctx = context.Background()
	}
	if r.dialectName == "" {
		r.dialectName = DefaultDialect
	}
	return r
}

// Evaluated reports whether the pipeline has run.
func (r *Runner) Evaluated() bool {
	return r.evaluated.Load()
}

// Evaluate runs the pipeline once. On failure the error is an
// *diag.AnalysisError for the first failing statement and no graph is
// returned.
func (r *Runner) Evaluate() (*Result, error) {
	r.once.Do(func() {
		r.result, r.err = r.evaluate()
		r.evaluated.Store(true)
	})
	return r.result, r.err
}

func (r *Runner) evaluate() (*Result, error) {
	runID := uuid.NewString()
	logger := r.logger.With(slog.String("run_id", runID))

	d, err := r.resolveDialect()
	if err != nil {
		return nil, err
	}
	logger = logger.With(slog.String("dialect", d.Name))
	logger.Debug("evaluating script", slog.Int("bytes", len(r.script)))

	diags := diag.NewCollector(logger)
	defer func() { r.diags = diags.Diagnostics() }()

	var adapterOpts []syntax.Option
	adapterOpts = append(adapterOpts, syntax.WithLogger(logger))
	if r.backend != nil {
		adapterOpts = append(adapterOpts, syntax.WithBackend(r.backend))
	}
	adapter, err := syntax.NewAdapter(d, diags, adapterOpts...)
	if err != nil {
		return nil, err
	}

	analyzerOpts := []lineage.Option{
		lineage.WithDialect(d),
		lineage.WithDefaultSchema(r.defaultSchema),
		lineage.WithLogger(logger),
	}
	switch {
	case r.lookup != nil:
		analyzerOpts = append(analyzerOpts, lineage.WithColumnLookup(r.lookup))
	case r.provider != nil:
		analyzerOpts = append(analyzerOpts, lineage.WithColumnLookup(metadata.Lookup(r.ctx, r.provider, logger)))
	}
	analyzer, err := lineage.NewAnalyzer(analyzerOpts...)
	if err != nil {
		return nil, err
	}

	res := &Result{RunID: runID, Dialect: d, Graph: graph.New()}
	for u := range split.Split(r.script, d).All() {
		if u.Boundary == split.BoundaryInferred {
			diags.Warn(diag.KindAmbiguousBoundary, u.Index, u.Span,
				"statement boundary inferred without a terminator; end statements with ';'")
		}

		o := adapter.AnalyzeSyntax(u)
		if err := adapter.Fatal(u, o); err != nil {
			logger.Debug("run aborted", slog.Int("statement", u.Index), slog.String("error", err.Error()))
			return nil, err
		}
		parsed := o.(syntax.Parsed)

		fact, err := analyzer.Analyze(parsed.Tree, parsed.Kind)
		if err != nil {
			err = statementError(u, err)
			logger.Debug("run aborted", slog.Int("statement", u.Index), slog.String("error", err.Error()))
			return nil, err
		}

		res.Graph = graph.Fold(res.Graph, fact, u.Index)
		res.Statements = append(res.Statements, Statement{
			Unit:    u,
			Kind:    parsed.Kind,
			Fact:    fact,
			Partial: parsed.Partial(),
		})
	}

	res.Diagnostics = diags.Diagnostics()
	logger.Info("script analyzed",
		slog.Int("statements", len(res.Statements)),
		slog.Int("tables", res.Graph.NodeCount()),
		slog.Int("edges", res.Graph.EdgeCount()),
		slog.Int("warnings", diags.Len()),
		slog.Int("inferred_boundaries", diags.Count(diag.KindAmbiguousBoundary)),
	)
	return res, nil
}

func (r *Runner) resolveDialect() (*dialect.Dialect, error) {
	if r.dialect != nil {
		return r.dialect, nil
	}
	d, err := dialect.Lookup(r.dialectName)
	if err != nil {
		return nil, fmt.Errorf("resolve dialect: %w", err)
	}
	return d, nil
}

// statementError attaches the unit to an analyzer error.
func statementError(u split.Unit, err error) error {
	var ae *diag.AnalysisError
	if errors.As(err, &ae) {
		return err
	}
	kind := diag.KindGenericLineage
	if errors.Is(err, diag.ErrUnsupportedStatement) {
		kind = diag.KindUnsupportedStatement
	}
	return diag.NewError(kind, u.Index, u.Span, err)
}
