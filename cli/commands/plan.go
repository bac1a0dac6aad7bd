package commands

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/sqlpp-io/sqlpp/cli/internal/config"
	"github.com/sqlpp-io/sqlpp/cli/internal/ui"
)

// NewPlanCommand creates the plan command: write the ordered DDL script
// that brings the database to the snapshot state.
func NewPlanCommand() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Plan the DDL that reconciles the database with the snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if out != "" {
				cfg.PlanPath = out
			}

			d, stmts, err := planAgainstSnapshot(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			if d.Empty() {
				ui.Success("nothing to do")
				return nil
			}

			ui.PlanTable(stmts)
			script := strings.Join(stmts, ";\n\n") + ";\n"
			if err := config.WriteFile(cfg.PlanPath, []byte(script)); err != nil {
				return err
			}
			ui.Success("wrote %s (%d statements)", cfg.PlanPath, len(stmts))
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "plan file to write")
	return cmd
}
