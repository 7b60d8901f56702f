package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapedit/pkg/dialect"
)

// NewVersionCommand creates the version command.
func NewVersionCommand(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display the LeapEdit version and the SQL dialects this build can edit.`,
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			w := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(w, "LeapEdit v%s\n", version)
			_, _ = fmt.Fprintln(w, "Change reconciliation and statement synthesis for database consoles")
			if names := dialect.List(); len(names) > 0 {
				_, _ = fmt.Fprintf(w, "Dialects: %s\n", strings.Join(names, ", "))
			}
		},
	}
}
