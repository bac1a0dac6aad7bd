package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sqlpp-io/sqlpp/cli/internal/config"
	"github.com/sqlpp-io/sqlpp/cli/internal/ui"
	"github.com/sqlpp-io/sqlpp/diff"
)

// NewDiffCommand creates the diff command: show how the live schema
// differs from the snapshot.
func NewDiffCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diff",
		Short: "Diff the live schema against the snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			d, _, err := planAgainstSnapshot(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			printDiff(d)
			return nil
		},
	}
	return cmd
}

func printDiff(d *diff.SchemaDiff) {
	if d.Empty() {
		ui.Success("schemas are identical")
		return
	}

	ui.Title("Schema changes")
	for _, t := range d.Tables.Add {
		fmt.Println(ui.Added("+ table %s", t.Key()))
	}
	for _, t := range d.Tables.Remove {
		fmt.Println(ui.Removed("- table %s", t.Key()))
	}
	for _, td := range d.Tables.Update {
		fmt.Println(ui.Changed("~ table %s", td.Key()))
		for _, f := range td.Fields.Add {
			fmt.Println(ui.Added("    + column %s", f.Col))
		}
		for _, f := range td.Fields.Remove {
			fmt.Println(ui.Removed("    - column %s", f.Col))
		}
		for _, ch := range td.Fields.Update {
			fmt.Println(ui.Changed("    ~ column %s", ch.Next.Col))
		}
		for _, fk := range td.FKAdd {
			fmt.Println(ui.Added("    + fk %s", fk.Name))
		}
		for _, fk := range td.FKRemove {
			fmt.Println(ui.Removed("    - fk %s", fk.Name))
		}
		for _, uk := range td.UKAdd {
			fmt.Println(ui.Added("    + uk %s", uk.Name))
		}
		for _, uk := range td.UKRemove {
			fmt.Println(ui.Removed("    - uk %s", uk.Name))
		}
		for _, ix := range td.IXAdd {
			fmt.Println(ui.Added("    + ix %s", ix.Name))
		}
		for _, ix := range td.IXRemove {
			fmt.Println(ui.Removed("    - ix %s", ix.Name))
		}
	}
	for _, p := range d.Procs.Add {
		fmt.Println(ui.Added("+ proc %s", p.Name))
	}
	for _, p := range d.Procs.Remove {
		fmt.Println(ui.Removed("- proc %s", p.Name))
	}
}
