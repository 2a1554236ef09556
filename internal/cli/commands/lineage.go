package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/sqllineage/internal/cli/config"
	"github.com/leapstack-labs/sqllineage/internal/cli/output"
	"github.com/leapstack-labs/sqllineage/pkg/runner"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// ErrAnalysisFailed is returned when at least one script failed to analyze.
// The failures themselves have already been rendered.
var ErrAnalysisFailed = errors.New("lineage analysis failed")

// LineageOptions holds options for the lineage command.
type LineageOptions struct {
	Execute    string
	Focus      string
	Watch      bool
	KeepGoing  bool
	Extensions []string
}

// NewLineageCommand creates the lineage command.
func NewLineageCommand() *cobra.Command {
	opts := &LineageOptions{}

	cmd := &cobra.Command{
		Use:   "lineage [files...]",
		Short: "Show table and column lineage of SQL scripts",
		Long: `Analyze SQL scripts and report where data comes from and where it goes.

Each file is analyzed as one script: statements are split, parsed with the
selected dialect and folded into a lineage graph. The report lists the source
tables data enters from, the target tables it ends up in and, with
--level column, the column-level paths between them.

Directories are searched for files with the configured extensions. With no
files, the script is read from stdin.`,
		Example: `  # Table lineage of a script
  sqllineage lineage etl.sql

  # Column lineage with T-SQL batch separators
  sqllineage lineage --dialect tsql --level column procs/

  # Inline SQL
  sqllineage lineage -e "INSERT INTO tgt SELECT * FROM src"

  # Expand SELECT * from a schema file
  sqllineage lineage --metadata-type static --schema-file schema.yaml etl.sql

  # Re-run whenever the files change
  sqllineage lineage --watch models/`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLineage(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Execute, "execute", "e", "", "Analyze inline SQL instead of files")
	cmd.Flags().String("level", config.DefaultLevel, "Lineage level (table|column)")
	cmd.Flags().Bool("intermediate", false, "Report intermediate tables")
	cmd.Flags().StringVar(&opts.Focus, "table", "", "Show upstream and downstream tables of this table")
	cmd.Flags().BoolVarP(&opts.Watch, "watch", "w", false, "Re-analyze files when they change")
	cmd.Flags().BoolVar(&opts.KeepGoing, "keep-going", false, "Report every file even when some fail")
	cmd.Flags().Int("concurrency", config.DefaultConcurrency, "Number of files analyzed at once")
	cmd.Flags().StringSlice("extensions", []string{config.DefaultExtensions}, "File extensions searched in directories")

	_ = cmd.RegisterFlagCompletionFunc("level", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return config.Levels, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func runLineage(cmd *cobra.Command, args []string, opts *LineageOptions) error {
	cc, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	scripts, err := readScripts(cmd.InOrStdin(), args, opts.Execute, cc.Cfg.Extensions)
	if err != nil {
		return err
	}
	if len(scripts) == 0 {
		cc.Renderer.Warning("No SQL files found")
		return nil
	}

	if opts.Watch {
		if opts.Execute != "" || scripts[0].Name == "" {
			return errors.New("--watch requires files or directories")
		}
		return watchLineage(cmd.Context(), cc, args, opts)
	}

	reports, err := analyzeScripts(cmd.Context(), cc, scripts, opts)
	if renderErr := cc.Renderer.RenderLineage(reports); renderErr != nil {
		return renderErr
	}
	return err
}

// analyzeScripts analyzes scripts concurrently and returns their reports in
// input order. Unless KeepGoing is set, the first failure cancels scripts
// that have not started yet.
func analyzeScripts(ctx context.Context, cc *CommandContext, scripts []script, opts *LineageOptions) ([]output.LineageReport, error) {
	reports := make([]output.LineageReport, len(scripts))
	done := make([]bool, len(scripts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cc.Cfg.Concurrency)

	for i, s := range scripts {
		g.Go(func() error {
			if !opts.KeepGoing && gctx.Err() != nil {
				return nil
			}
			rep, err := analyzeScript(gctx, cc, s, opts)
			reports[i] = rep
			done[i] = true
			if err != nil {
				cc.Logger.Debug("script failed", slog.String("file", s.Name), slog.String("error", err.Error()))
				if !opts.KeepGoing {
					return fmt.Errorf("%s: %w", displayName(s.Name), err)
				}
			}
			return nil
		})
	}
	err := g.Wait()

	// Drop scripts skipped after a failure.
	out := reports[:0]
	failed := false
	for i, rep := range reports {
		if !done[i] {
			continue
		}
		failed = failed || rep.Error != ""
		out = append(out, rep)
	}

	if err == nil && failed {
		err = ErrAnalysisFailed
	}
	return out, err
}

func analyzeScript(ctx context.Context, cc *CommandContext, s script, opts *LineageOptions) (output.LineageReport, error) {
	r := runner.New(s.Text, cc.RunnerOptions(ctx, s.Name)...)
	return buildReport(s.Name, cc.Cfg.Dialect, r, reportOptions{
		Columns:      cc.Cfg.ColumnLevel(),
		Intermediate: cc.Cfg.Intermediate,
		Focus:        opts.Focus,
	})
}

func displayName(name string) string {
	if name == "" {
		return "<stdin>"
	}
	return name
}
