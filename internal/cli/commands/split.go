package commands

import (
	"github.com/leapstack-labs/sqllineage/internal/cli/output"
	"github.com/leapstack-labs/sqllineage/pkg/dialect"
	"github.com/leapstack-labs/sqllineage/pkg/split"
	"github.com/spf13/cobra"
)

// NewSplitCommand creates the split command.
func NewSplitCommand() *cobra.Command {
	var execute string

	cmd := &cobra.Command{
		Use:   "split [files...]",
		Short: "Show how scripts are divided into statements",
		Long: `Split SQL scripts into statements without analyzing them.

Each statement is listed with its position in the script and how it ended:
a terminator, a batch separator such as GO, an inferred boundary between
statements written without ";", or the end of input.`,
		Example: `  # Preview statements of a T-SQL script
  sqllineage split --dialect tsql proc.sql

  # As JSON
  sqllineage split -o json etl.sql`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSplit(cmd, args, execute)
		},
	}

	cmd.Flags().StringVarP(&execute, "execute", "e", "", "Split inline SQL instead of files")

	return cmd
}

func runSplit(cmd *cobra.Command, args []string, execute string) error {
	cc := newCommandContext(cmd)

	d, err := dialect.Lookup(cc.Cfg.Dialect)
	if err != nil {
		return err
	}

	scripts, err := readScripts(cmd.InOrStdin(), args, execute, cc.Cfg.Extensions)
	if err != nil {
		return err
	}

	reports := make([]output.SplitReport, len(scripts))
	for i, s := range scripts {
		reports[i] = splitReport(s, d)
	}
	return cc.Renderer.RenderSplit(reports)
}

func splitReport(s script, d *dialect.Dialect) output.SplitReport {
	rep := output.SplitReport{File: s.Name, Dialect: d.Name, Units: []output.UnitReport{}}
	for u := range split.Split(s.Text, d).All() {
		rep.Units = append(rep.Units, output.UnitReport{
			Index:    u.Index,
			Start:    u.Span.Start.String(),
			End:      u.Span.End.String(),
			Boundary: u.Boundary.String(),
			Text:     u.Text,
		})
	}
	return rep
}
