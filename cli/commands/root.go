// Package commands implements the sqlpp CLI command tree.
package commands

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sqlpp-io/sqlpp/cli/internal/config"
	"github.com/sqlpp-io/sqlpp/diff"
	"github.com/sqlpp-io/sqlpp/introspect"
	"github.com/sqlpp-io/sqlpp/planner"
	"github.com/sqlpp-io/sqlpp/quote"
	"github.com/sqlpp-io/sqlpp/schema"
	"github.com/sqlpp-io/sqlpp/sqlgen"
	"github.com/sqlpp-io/sqlpp/telemetry"

	_ "github.com/go-sql-driver/mysql"
)

// NewRootCommand builds the sqlpp command tree.
func NewRootCommand(version string) *cobra.Command {
	root := &cobra.Command{
		Use:     "sqlpp",
		Short:   "SQL preprocessing and schema management",
		Long:    "sqlpp introspects MySQL-compatible schemas, diffs them against snapshots,\nand plans the DDL that reconciles the two.",
		Version: version,
	}

	root.AddCommand(NewPullCommand())
	root.AddCommand(NewDiffCommand())
	root.AddCommand(NewPlanCommand())
	root.AddCommand(NewApplyCommand())
	root.AddCommand(NewWatchCommand())

	for _, sub := range root.Commands() {
		if sub.RunE != nil {
			sub.RunE = instrument(sub.Name(), sub.RunE)
		}
	}
	return root
}

// instrument records command duration and outcome to telemetry.
func instrument(name string, fn func(*cobra.Command, []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		start := time.Now()
		err := fn(cmd, args)
		telemetry.RecordCommand(name, "mysql", time.Since(start), err)
		return err
	}
}

// openDB connects using the configured DATABASE_URL.
func openDB(cfg *config.Config) (*sql.DB, error) {
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}
	db, err := sql.Open("mysql", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// introspectLive reads the current live schema.
func introspectLive(ctx context.Context, cfg *config.Config, db *sql.DB) (*schema.Schema, error) {
	ins, err := introspect.New(db, cfg.Engine, nil)
	if err != nil {
		return nil, err
	}
	return ins.Introspect(ctx)
}

// loadSnapshot reads the stored snapshot file.
func loadSnapshot(cfg *config.Config) (*schema.Schema, error) {
	data, err := config.ReadFile(cfg.SnapshotPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot %s: %w", cfg.SnapshotPath, err)
	}
	return schema.Deserialize(data)
}

// planAgainstSnapshot diffs the snapshot against the live schema and plans
// the DDL that brings the database to the snapshot state.
func planAgainstSnapshot(ctx context.Context, cfg *config.Config) (*diff.SchemaDiff, []string, error) {
	db, err := openDB(cfg)
	if err != nil {
		return nil, nil, err
	}
	defer db.Close()

	live, err := introspectLive(ctx, cfg, db)
	if err != nil {
		return nil, nil, err
	}
	want, err := loadSnapshot(cfg)
	if err != nil {
		return nil, nil, err
	}

	d, err := diff.NewDiffer().Compare(live, want)
	if err != nil {
		return nil, nil, err
	}
	gen, err := sqlgen.New(cfg.Engine, quote.New(cfg.Engine))
	if err != nil {
		return nil, nil, err
	}
	stmts, err := planner.New(gen).Plan(d)
	if err != nil {
		return nil, nil, err
	}
	return d, stmts, nil
}
