package commands

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/leapstack-labs/sqllineage/pkg/dialect"
	"github.com/leapstack-labs/sqllineage/pkg/metadata"
	"github.com/spf13/cobra"
)

// NewVersionCommand creates the version command.
func NewVersionCommand(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display the sqllineage version, the Go runtime it was built with and the registered dialects and metadata providers.`,
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			w := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(w, "sqllineage v%s\n", version)
			_, _ = fmt.Fprintf(w, "SQL lineage analyzer built with %s\n", runtime.Version())
			_, _ = fmt.Fprintf(w, "Dialects: %s\n", strings.Join(dialect.List(), ", "))
			_, _ = fmt.Fprintf(w, "Metadata providers: %s\n", strings.Join(metadata.List(), ", "))
		},
	}
}
