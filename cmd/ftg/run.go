package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/josh987123/ftg-foundation-data/internal/pipeline"
	"github.com/josh987123/ftg-foundation-data/internal/store"
)

func newRunCmd(a *app) *cobra.Command {
	var force, csv bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Reconcile the exports and publish the dashboard files",
		Example: `  # Age everything as of today
  ftg run

  # Re-run a date even if the inputs are unchanged
  ftg run --as-of 2025-12-31 --force`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := a.pipelineOptions(time.Now())
			opts.Force = force
			opts.WriteCSV = opts.WriteCSV || csv
			return runPipeline(cmd, a, opts)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Reprocess inputs that already had a successful run")
	cmd.Flags().BoolVar(&csv, "csv", false, "Also write ar_aging.csv and ap_aging.csv")
	return cmd
}

func runPipeline(cmd *cobra.Command, a *app, opts pipeline.Options) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	var db *sql.DB
	if a.cfg.Database.Enabled() {
		var err error
		db, err = openStore(ctx, a.cfg.Database.Driver, a.cfg.Database.URL)
		if err != nil {
			return err
		}
		defer db.Close()
	}

	fmt.Fprintln(out, "Starting run...")
	fmt.Fprintf(out, "  Data dir:   %s\n", opts.DataDir)
	fmt.Fprintf(out, "  Output dir: %s\n", opts.OutputDir)
	fmt.Fprintf(out, "  As of:      %s\n", opts.AsOf.Format("2006-01-02"))
	fmt.Fprintln(out)

	result, err := pipeline.NewRunner(db, a.cfg.Database.Driver, opts).Run(ctx)
	if err != nil {
		fmt.Fprintf(out, "❌ Run failed: %v\n", err)
		return err
	}

	if result.AlreadyProcessed {
		fmt.Fprintln(out, "ℹ️  These inputs have already been processed")
		fmt.Fprintf(out, "   Run ID: %s\n", result.RunID)
		fmt.Fprintln(out, "   Use --force to publish them again")
		return nil
	}

	fmt.Fprintln(out, "✅ Run successful!")
	fmt.Fprintln(out)
	if result.RunID != "" {
		fmt.Fprintf(out, "Run ID:          %s\n", result.RunID)
	}
	fmt.Fprintf(out, "Open AR:         %d\n", result.ARCount)
	fmt.Fprintf(out, "Open AP:         %d\n", result.APCount)
	fmt.Fprintf(out, "Jobs:            %d\n", result.JobCount)
	fmt.Fprintf(out, "Files written:   %d\n", len(result.Files))
	fmt.Fprintf(out, "Duration:        %v\n", result.Duration.Round(time.Millisecond))

	warnings := append([]string{}, result.Warnings...)
	if result.Validation != nil {
		warnings = append(warnings, result.Validation.Warnings...)
	}
	if len(warnings) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "⚠️  Warnings:")
		for _, warning := range warnings {
			fmt.Fprintf(out, "   - %s\n", warning)
		}
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "💡 Next steps:")
	fmt.Fprintln(out, "   ftg report     # View the aging and job summary")
	fmt.Fprintln(out, "   ftg list       # View run history")
	return nil
}

// openStore connects and brings the schema up to date
func openStore(ctx context.Context, driver, url string) (*sql.DB, error) {
	db, err := store.Open(ctx, driver, url)
	if err != nil {
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}
	if err := store.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("error migrating database: %w", err)
	}
	return db, nil
}
