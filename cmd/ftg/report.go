package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/josh987123/ftg-foundation-data/internal/pipeline"
	"github.com/josh987123/ftg-foundation-data/internal/report"
)

func newReportCmd(a *app) *cobra.Command {
	var htmlPath string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the aging and job summary without publishing",
		Example: `  ftg report
  ftg report --as-of 2025-12-31 --html aging-2025-12-31.html`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			now := time.Now()
			opts := a.pipelineOptions(now)

			in, err := pipeline.LoadInputs(opts.DataDir)
			if err != nil {
				return err
			}
			res, err := pipeline.Compute(in, opts, now)
			if err != nil {
				return err
			}

			if err := report.RenderText(cmd.OutOrStdout(), res.Summary); err != nil {
				return err
			}

			if htmlPath == "" {
				return nil
			}
			return writeHTML(htmlPath, res.Summary, cmd)
		},
	}

	cmd.Flags().StringVar(&htmlPath, "html", "", "Also write an HTML report to this file")
	return cmd
}

func writeHTML(path string, summary *report.SummaryReport, cmd *cobra.Command) error {
	renderer, err := report.NewRenderer()
	if err != nil {
		return fmt.Errorf("error loading templates: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating output file: %w", err)
	}
	defer f.Close()

	if err := renderer.RenderSummary(f, summary); err != nil {
		return fmt.Errorf("error rendering report: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\n✅ Report written to %s\n", path)
	return nil
}
