package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	configPath string
	verbose    bool
	jsonOutput bool
)

// Execute runs the root command
func Execute(ctx context.Context, version, commit, buildDate string) error {
	rootCmd := newRootCommand(version, commit, buildDate)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "fieldgate",
		Short: "Fieldgate - Stability Governance Engine",
		Long: `Fieldgate runs a governed entity: an oscillation field whose
stability and turbulence are continuously measured and regulated.

Features:
  - Seven-criterion transition gate with fixed evaluation order
  - Self-tuning homeostasis loop over the containment ratio
  - Opportunistic peer handshakes over HTTP
  - Irreversible emergency containment
  - Append-only audit log with optional SQLite persistence`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
	}

	// Persistent flags available to all commands
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")

	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newAuditCommand())
	rootCmd.AddCommand(newValidateCommand())

	return rootCmd
}
