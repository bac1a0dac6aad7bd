package commands

import (
	"github.com/spf13/cobra"

	"github.com/sqlpp-io/sqlpp/cli/internal/config"
	"github.com/sqlpp-io/sqlpp/cli/internal/ui"
	"github.com/sqlpp-io/sqlpp/schema"
)

// NewPullCommand creates the pull command: introspect the live database
// and write the snapshot file.
func NewPullCommand() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "pull",
		Short: "Introspect the database into a schema snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if out != "" {
				cfg.SnapshotPath = out
			}

			db, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			stop := ui.Spinner("Introspecting schema")
			live, err := introspectLive(cmd.Context(), cfg, db)
			stop()
			if err != nil {
				return err
			}

			data, err := schema.Serialize(live)
			if err != nil {
				return err
			}
			if err := config.WriteFile(cfg.SnapshotPath, data); err != nil {
				return err
			}
			ui.Success("wrote %s (%d tables, %d procs)", cfg.SnapshotPath, len(live.Tables), len(live.Procs))
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "snapshot file to write")
	return cmd
}
