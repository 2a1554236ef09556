package runner

import (
	"errors"

	"github.com/leapstack-labs/sqllineage/pkg/diag"
	"github.com/leapstack-labs/sqllineage/pkg/graph"
	"github.com/leapstack-labs/sqllineage/pkg/lineage"
)

// Graph returns the table lineage graph.
func (r *Runner) Graph() (*graph.Graph, error) {
	res, err := r.Evaluate()
	if err != nil {
		return nil, err
	}
	return res.Graph, nil
}

// Statements returns the analyzed statements in script order.
func (r *Runner) Statements() ([]Statement, error) {
	res, err := r.Evaluate()
	if err != nil {
		return nil, err
	}
	return res.Statements, nil
}

// SourceTables returns the tables data enters the script from.
func (r *Runner) SourceTables() ([]lineage.Table, error) {
	g, err := r.Graph()
	if err != nil {
		return nil, err
	}
	return g.SourceTables(), nil
}

// TargetTables returns the tables data ends up in.
func (r *Runner) TargetTables() ([]lineage.Table, error) {
	g, err := r.Graph()
	if err != nil {
		return nil, err
	}
	return g.TargetTables(), nil
}

// IntermediateTables returns the tables written and then read by the script.
func (r *Runner) IntermediateTables() ([]lineage.Table, error) {
	g, err := r.Graph()
	if err != nil {
		return nil, err
	}
	return g.IntermediateTables(), nil
}

// ColumnLineage resolves column lineage across statements. The result is
// computed once.
func (r *Runner) ColumnLineage() (*graph.ColumnLineage, error) {
	g, err := r.Graph()
	if err != nil {
		return nil, err
	}
	r.columnsOnce.Do(func() {
		r.columns, r.columnsErr = graph.ResolveColumns(g)
	})
	return r.columns, r.columnsErr
}

// Diagnostics returns the warnings of the run, followed by the fatal error
// when evaluation failed.
func (r *Runner) Diagnostics() []diag.Diagnostic {
	_, err := r.Evaluate()
	out := make([]diag.Diagnostic, len(r.diags), len(r.diags)+1)
	copy(out, r.diags)

	var ae *diag.AnalysisError
	if errors.As(err, &ae) {
		out = append(out, ae.Diagnostic())
	}
	return out
}
