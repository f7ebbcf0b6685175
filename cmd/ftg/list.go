package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/josh987123/ftg-foundation-data/internal/store"
)

func newListCmd(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.cfg.Database.Enabled() {
				return fmt.Errorf("no database configured, set FTG_DATABASE_URL")
			}
			ctx := cmd.Context()

			db, err := openStore(ctx, a.cfg.Database.Driver, a.cfg.Database.URL)
			if err != nil {
				return err
			}
			defer db.Close()

			runs, err := store.New(db, a.cfg.Database.Driver).ListRuns(ctx, limit)
			if err != nil {
				return fmt.Errorf("error listing runs: %w", err)
			}
			printRuns(cmd, runs)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to show")
	return cmd
}

func printRuns(cmd *cobra.Command, runs []store.Run) {
	out := cmd.OutOrStdout()

	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs found")
		fmt.Fprintln(out)
		fmt.Fprintln(out, "💡 Publish your first run with:")
		fmt.Fprintln(out, "   ftg run")
		return
	}

	fmt.Fprintln(out, "Run History")
	fmt.Fprintln(out, "══════════════════════════════════════════════════════════════════════════════")
	fmt.Fprintf(out, "%-8s  %-19s  %-10s  %-9s  %6s  %6s  %6s\n",
		"ID", "Started", "As Of", "Status", "AR", "AP", "Jobs")
	fmt.Fprintln(out, "──────────────────────────────────────────────────────────────────────────────")

	for _, run := range runs {
		statusIcon := "✅"
		if run.Status == store.StatusFailed {
			statusIcon = "❌"
		} else if run.Status == store.StatusRunning {
			statusIcon = "⏳"
		}

		fmt.Fprintf(out, "%-8s  %s  %-10s  %s %-7s  %6d  %6d  %6d\n",
			run.ID[:8],
			run.StartedAt.Format("2006-01-02 15:04:05"),
			run.AsOfDate,
			statusIcon,
			run.Status,
			run.ARCount,
			run.APCount,
			run.JobCount,
		)
		if run.ErrorMessage.Valid {
			fmt.Fprintf(out, "          %s\n", run.ErrorMessage.String)
		}
	}
	fmt.Fprintln(out, "══════════════════════════════════════════════════════════════════════════════")
}
