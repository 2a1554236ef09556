package commands

import (
	"errors"
	"fmt"

	"github.com/leapstack-labs/sqllineage/internal/cli/output"
	"github.com/leapstack-labs/sqllineage/pkg/diag"
	"github.com/leapstack-labs/sqllineage/pkg/graph"
	"github.com/leapstack-labs/sqllineage/pkg/lineage"
	"github.com/leapstack-labs/sqllineage/pkg/runner"
)

// reportOptions selects the optional parts of a lineage report.
type reportOptions struct {
	Columns      bool
	Intermediate bool
	Focus        string
}

// buildReport evaluates r and converts the result for rendering. A failed
// run yields a report carrying the error, along with the error itself.
func buildReport(name, dialectName string, r *runner.Runner, opts reportOptions) (output.LineageReport, error) {
	rep := output.LineageReport{File: name, Dialect: dialectName}

	res, err := r.Evaluate()
	if err != nil {
		rep.Error = err.Error()
		rep.Diagnostics = diagnosticReports(r.Diagnostics())
		return rep, err
	}

	rep.Dialect = res.Dialect.Name
	rep.RunID = res.RunID
	rep.Statements = len(res.Statements)

	b := res.Graph.Boundaries(graph.BoundaryOptions{IncludeIntermediate: opts.Intermediate})
	rep.Sources = tableKeys(b.Sources)
	rep.Targets = tableKeys(b.Targets)
	if opts.Intermediate {
		rep.Intermediate = tableKeys(b.Intermediate)
	}

	rep.Edges = make([]output.EdgeReport, 0, res.Graph.EdgeCount())
	for _, e := range res.Graph.Edges() {
		rep.Edges = append(rep.Edges, edgeReport(e))
	}

	if opts.Focus != "" {
		if !res.Graph.HasTable(opts.Focus) {
			err := fmt.Errorf("table %q does not appear in the script", opts.Focus)
			rep.Error = err.Error()
			return rep, err
		}
		rep.Focus = opts.Focus
		rep.Upstream = res.Graph.Upstream(opts.Focus)
		rep.Downstream = res.Graph.Downstream(opts.Focus)
	}

	if opts.Columns {
		cl, err := r.ColumnLineage()
		if err != nil {
			rep.Error = err.Error()
			rep.Diagnostics = diagnosticReports(append(r.Diagnostics(), columnDiagnostic(err)...))
			return rep, err
		}
		for _, p := range cl.Paths() {
			rep.Columns = append(rep.Columns, columnReport(p))
		}
	}

	rep.Diagnostics = diagnosticReports(r.Diagnostics())
	return rep, nil
}

// columnDiagnostic converts a column resolution error, which the runner does
// not record, into a diagnostic.
func columnDiagnostic(err error) []diag.Diagnostic {
	var ae *diag.AnalysisError
	if errors.As(err, &ae) {
		return []diag.Diagnostic{ae.Diagnostic()}
	}
	return nil
}

func tableKeys(tables []lineage.Table) []string {
	keys := make([]string, len(tables))
	for i, t := range tables {
		keys[i] = t.Key()
	}
	return keys
}

func edgeReport(e graph.Edge) output.EdgeReport {
	rep := output.EdgeReport{From: e.From, To: e.To}
	for _, m := range e.Columns {
		rep.Columns = append(rep.Columns, m.Target)
	}
	// Statements are numbered from 1 for display.
	rep.Statements = make([]int, len(e.Statements))
	for i, s := range e.Statements {
		rep.Statements[i] = s + 1
	}
	return rep
}

func columnReport(p graph.Path) output.ColumnReport {
	rep := output.ColumnReport{
		Target: p.Target().String(),
		Source: p.Source().String(),
		Path:   make([]string, len(p)),
	}
	// Path runs from target back to source.
	for i := range p {
		rep.Path[i] = p[len(p)-1-i].String()
	}
	return rep
}

func diagnosticReports(diags []diag.Diagnostic) []output.DiagnosticReport {
	if len(diags) == 0 {
		return nil
	}
	out := make([]output.DiagnosticReport, len(diags))
	for i, d := range diags {
		out[i] = output.DiagnosticReport{
			Severity: d.Severity.String(),
			Kind:     string(d.Kind),
			Message:  d.Message,
		}
		if d.Statement >= 0 {
			out[i].Statement = d.Statement + 1
		}
		if d.Span.IsValid() {
			out[i].Line = d.Span.Start.Line
			out[i].Column = d.Span.Start.Column
		}
	}
	return out
}
