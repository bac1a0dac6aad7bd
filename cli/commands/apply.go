package commands

import (
	"fmt"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"github.com/sqlpp-io/sqlpp/cli/internal/config"
	"github.com/sqlpp-io/sqlpp/cli/internal/ui"
	"github.com/sqlpp-io/sqlpp/client"
)

// NewApplyCommand creates the apply command: plan against the snapshot and
// execute the statements. Every non-empty plan is confirmed first unless
// --yes is given; plans that drop tables also print a warning.
func NewApplyCommand() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Apply the planned DDL to the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
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
			if destructive := len(d.Tables.Remove); destructive > 0 {
				ui.Warn("%d table(s) will be dropped", destructive)
			}
			if !yes {
				confirmed := false
				prompt := &survey.Confirm{
					Message: fmt.Sprintf("Apply %d statement(s)?", len(stmts)),
				}
				if err := survey.AskOne(prompt, &confirmed); err != nil {
					return err
				}
				if !confirmed {
					ui.Warn("aborted")
					return nil
				}
			}

			c, err := client.Open(cmd.Context(), cfg.Engine, cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer c.Close()

			for i, stmt := range stmts {
				if _, err := c.Exec(cmd.Context(), stmt, &client.Options{NoParse: true}); err != nil {
					return fmt.Errorf("statement %d failed: %w", i+1, err)
				}
			}
			ui.Success("applied %d statement(s)", len(stmts))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "apply without confirmation")
	return cmd
}
