package commands

import (
	"github.com/leapstack-labs/sqllineage/internal/cli/output"
	"github.com/leapstack-labs/sqllineage/pkg/dialect"
	"github.com/spf13/cobra"
)

// NewDialectsCommand creates the dialects command.
func NewDialectsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "dialects",
		Short: "List the supported SQL dialects",
		Long: `List every registered SQL dialect and how it parses scripts.

Validating dialects reject statements they cannot fully parse. Lenient
dialects accept them and report what they could identify.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := newCommandContext(cmd)
			return cc.Renderer.RenderDialects(dialectReports())
		},
	}
}

func dialectReports() []output.DialectReport {
	names := dialect.List()
	out := make([]output.DialectReport, 0, len(names))
	for _, name := range names {
		d, ok := dialect.Get(name)
		if !ok {
			continue
		}
		out = append(out, output.DialectReport{
			Name:                d.Name,
			Description:         d.Description,
			Validating:          d.Validating,
			Deprecated:          d.Deprecated,
			BatchSeparator:      d.BatchSeparator,
			ImplicitTerminators: d.ImplicitTerminators,
		})
	}
	return out
}
