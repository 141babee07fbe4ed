package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/fieldgate/fieldgate/pkg/config"
	"github.com/fieldgate/fieldgate/pkg/stores"
)

func newAuditCommand() *cobra.Command {
	var (
		entityID string
		limit    int
		offset   int
	)

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "List persisted audit entries",
		Long: `List audit entries from the SQLite audit store. The store path
comes from the config file; a node must have run with store_path set
for entries to exist.`,
		Example: `  # Last 50 entries across all entities
  fieldgate audit --config ./fieldgate.yaml

  # Entries for one entity
  fieldgate audit --config ./fieldgate.yaml --entity 2f3a...`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if cfg.StorePath == "" {
				return fmt.Errorf("no store_path configured: the audit log was in-memory only")
			}

			store, err := stores.NewSQLiteStore(stores.Config{Path: cfg.StorePath})
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if err := store.Init(ctx); err != nil {
				return fmt.Errorf("failed to open audit store: %w", err)
			}
			defer store.Close()

			entries, err := store.ListAudit(ctx, entityID, limit, offset)
			if err != nil {
				return err
			}

			if jsonOutput {
				return json.NewEncoder(os.Stdout).Encode(entries)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TIMESTAMP\tENTITY\tSTABILITY\tRATIO\tMESSAGE")
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%s\t%.4f\t%.4f\t%s\n",
					e.Timestamp.Format("2006-01-02 15:04:05"), e.EntityID, e.Stability, e.ContainmentRatio, e.Message)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&entityID, "entity", "", "filter by entity ID")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum entries to list")
	cmd.Flags().IntVar(&offset, "offset", 0, "entries to skip")

	return cmd
}
