package output

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
)

// previewWidth caps the statement preview in text and markdown output.
const previewWidth = 60

// UnitReport describes one statement unit of a script.
type UnitReport struct {
	Index    int    `json:"index"`
	Start    string `json:"start"`
	End      string `json:"end"`
	Boundary string `json:"boundary"`
	Text     string `json:"text"`
}

// SplitReport lists the units of one script.
type SplitReport struct {
	File    string       `json:"file,omitempty"`
	Dialect string       `json:"dialect"`
	Units   []UnitReport `json:"units"`
}

// RenderSplit writes split reports.
func (r *Renderer) RenderSplit(reports []SplitReport) error {
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
		title := rep.File
		if title == "" {
			title = "<stdin>"
		}
		r.Header(1, fmt.Sprintf("%s (%s)", title, rep.Dialect))
		if len(rep.Units) == 0 {
			r.Muted("no statements")
			continue
		}
		rows := make([]table.Row, len(rep.Units))
		for j, u := range rep.Units {
			rows[j] = table.Row{u.Index, u.Start, u.End, u.Boundary, preview(u.Text)}
		}
		r.Table(table.Row{"#", "Start", "End", "Boundary", "Statement"}, rows)
	}
	return nil
}

// preview collapses whitespace and truncates s for one-line display.
func preview(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) <= previewWidth {
		return s
	}
	return s[:previewWidth-3] + "..."
}

// DialectReport describes a registered dialect.
type DialectReport struct {
	Name                string `json:"name"`
	Description         string `json:"description,omitempty"`
	Validating          bool   `json:"validating"`
	Deprecated          bool   `json:"deprecated"`
	BatchSeparator      string `json:"batch_separator,omitempty"`
	ImplicitTerminators bool   `json:"implicit_terminators"`
}

// RenderDialects writes the dialect listing.
func (r *Renderer) RenderDialects(dialects []DialectReport) error {
	if r.EffectiveMode() == ModeJSON {
		return r.JSON(dialects)
	}

	rows := make([]table.Row, len(dialects))
	for i, d := range dialects {
		var flags []string
		if d.Validating {
			flags = append(flags, "validating")
		} else {
			flags = append(flags, "lenient")
		}
		if d.Deprecated {
			flags = append(flags, "deprecated")
		}
		if d.ImplicitTerminators {
			flags = append(flags, "implicit terminators")
		}
		if d.BatchSeparator != "" {
			flags = append(flags, "batch separator "+d.BatchSeparator)
		}
		rows[i] = table.Row{d.Name, strings.Join(flags, ", "), d.Description}
	}
	r.Table(table.Row{"Dialect", "Flags", "Description"}, rows)
	return nil
}
