package commands

import (
	"github.com/spf13/cobra"

	"github.com/sqlpp-io/sqlpp/cli/internal/config"
	"github.com/sqlpp-io/sqlpp/cli/internal/ui"
	"github.com/sqlpp-io/sqlpp/cli/internal/watch"
)

// NewWatchCommand creates the watch command: re-diff whenever the snapshot
// file changes.
func NewWatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-diff against the snapshot whenever it changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			w, err := watch.New(cfg.SnapshotPath, func() error {
				d, _, err := planAgainstSnapshot(cmd.Context(), cfg)
				if err != nil {
					ui.Error("%v", err)
					return nil
				}
				printDiff(d)
				return nil
			})
			if err != nil {
				return err
			}
			defer w.Stop()

			ui.Title("Watching " + cfg.SnapshotPath)
			return w.Start()
		},
	}
	return cmd
}
