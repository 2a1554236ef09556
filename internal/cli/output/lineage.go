package output

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
)

// LineageReport is the result of analyzing one script.
type LineageReport struct {
	File         string             `json:"file,omitempty"`
	Dialect      string             `json:"dialect"`
	RunID        string             `json:"run_id,omitempty"`
	Statements   int                `json:"statements"`
	Sources      []string           `json:"sources"`
	Targets      []string           `json:"targets"`
	Intermediate []string           `json:"intermediate,omitempty"`
	Edges        []EdgeReport       `json:"edges"`
	Columns      []ColumnReport     `json:"columns,omitempty"`
	Focus        string             `json:"focus,omitempty"`
	Upstream     []string           `json:"upstream,omitempty"`
	Downstream   []string           `json:"downstream,omitempty"`
	Diagnostics  []DiagnosticReport `json:"diagnostics,omitempty"`
	Error        string             `json:"error,omitempty"`
}

// EdgeReport is one table-level lineage edge.
type EdgeReport struct {
	From       string   `json:"from"`
	To         string   `json:"to"`
	Columns    []string `json:"columns,omitempty"`
	Statements []int    `json:"statements"`
}

// ColumnReport is one source-to-target column path.
type ColumnReport struct {
	Target string   `json:"target"`
	Source string   `json:"source"`
	Path   []string `json:"path"`
}

// DiagnosticReport is a warning or error of a run.
type DiagnosticReport struct {
	Severity  string `json:"severity"`
	Kind      string `json:"kind"`
	Statement int    `json:"statement,omitempty"`
	Line      int    `json:"line,omitempty"`
	Column    int    `json:"column,omitempty"`
	Message   string `json:"message"`
}

func (d DiagnosticReport) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s [%s]", d.Severity, d.Kind)
	if d.Line > 0 {
		fmt.Fprintf(&b, " at %d:%d", d.Line, d.Column)
	}
	b.WriteString(": ")
	b.WriteString(d.Message)
	return b.String()
}

// RenderLineage writes lineage reports. JSON output is a single object for
// one report and an array otherwise.
func (r *Renderer) RenderLineage(reports []LineageReport) error {
	if r.EffectiveMode() == ModeJSON {
		if len(reports) == 1 {
			return r.JSON(reports[0])
		}
		return r.JSON(reports)
	}

	for i, rep := range reports {
		if i > 0 {
			r.Println()
		}
		r.renderLineage(rep)
	}
	return nil
}

func (r *Renderer) renderLineage(rep LineageReport) {
	md := r.EffectiveMode() == ModeMarkdown
	s := r.styles

	title := rep.File
	if title == "" {
		title = "<stdin>"
	}
	r.Header(1, fmt.Sprintf("%s (%s)", title, rep.Dialect))
	if !md {
		r.Println()
	}

	if rep.Error != "" {
		r.Println(s.Error.Render("error: " + rep.Error))
		r.renderDiagnostics(rep.Diagnostics)
		return
	}

	r.Printf("%s %d\n", s.Bold.Render(Title("statements:")), rep.Statements)
	r.tableList("source tables", rep.Sources)
	r.tableList("target tables", rep.Targets)
	if rep.Intermediate != nil {
		r.tableList("intermediate tables", rep.Intermediate)
	}

	if len(rep.Edges) > 0 {
		r.Println()
		r.Header(2, Title("edges"))
		rows := make([]table.Row, len(rep.Edges))
		for i, e := range rep.Edges {
			rows[i] = table.Row{e.From, e.To, strings.Join(e.Columns, ", "), joinInts(e.Statements)}
		}
		r.Table(table.Row{"From", "To", "Columns", "Statements"}, rows)
	}

	if len(rep.Columns) > 0 {
		r.Println()
		r.Header(2, Title("column lineage"))
		rows := make([]table.Row, len(rep.Columns))
		for i, c := range rep.Columns {
			rows[i] = table.Row{c.Target, c.Source, strings.Join(c.Path, " <- ")}
		}
		r.Table(table.Row{"Target", "Source", "Path"}, rows)
	}

	if rep.Focus != "" {
		r.Println()
		r.Header(2, rep.Focus)
		r.tableList("upstream", rep.Upstream)
		r.tableList("downstream", rep.Downstream)
	}

	r.renderDiagnostics(rep.Diagnostics)
}

// tableList writes a labeled list of table names on one line.
func (r *Renderer) tableList(label string, tables []string) {
	names := make([]string, len(tables))
	for i, t := range tables {
		names[i] = r.styles.Table.Render(t)
	}
	value := strings.Join(names, ", ")
	if len(tables) == 0 {
		value = r.styles.Muted.Render("(none)")
	}
	if r.EffectiveMode() == ModeMarkdown {
		r.Printf("**%s:** %s\n\n", Title(label), value)
		return
	}
	r.Printf("%s %s\n", r.styles.Bold.Render(Title(label)+":"), value)
}

func (r *Renderer) renderDiagnostics(diags []DiagnosticReport) {
	if len(diags) == 0 {
		return
	}
	r.Println()
	r.Header(2, Title("diagnostics"))
	for _, d := range diags {
		style := r.styles.Warning
		if d.Severity == "error" {
			style = r.styles.Error
		}
		if r.EffectiveMode() == ModeMarkdown {
			r.Printf("- %s\n", d)
			continue
		}
		r.Println(style.Render(d.String()))
	}
}

func joinInts(xs []int) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = fmt.Sprint(x)
	}
	return strings.Join(parts, ", ")
}
