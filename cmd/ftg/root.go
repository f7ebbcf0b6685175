package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/josh987123/ftg-foundation-data/internal/config"
	"github.com/josh987123/ftg-foundation-data/internal/logger"
	"github.com/josh987123/ftg-foundation-data/internal/pipeline"
)

// app carries the loaded configuration from the root command to its children
type app struct {
	configFile string
	cfg        *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "ftg",
		Short: "AR/AP aging and job metrics for FTG Builders",
		Long: `ftg reconciles the accounts receivable and accounts payable exports against
their cash ledgers, buckets every open invoice by age and computes per-job
financial metrics. Results are published as JSON files for the dashboard.

Configuration is read from ftg.yaml, FTG_* environment variables and flags.
Set FTG_DATABASE_URL (or DATABASE_URL) to record runs in a database.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "Config file (default: ./ftg.yaml if present)")
	flags.String("as-of", "", "Aging reference date YYYY-MM-DD (default: today)")
	flags.String("data-dir", "", "Directory holding the input CSV exports")
	flags.String("output-dir", "", "Directory the JSON outputs are written to")
	flags.Int("workers", 0, "Parallel workers for reconciliation")
	flags.String("log-level", "", "Log level (debug, info, warn, error)")

	root.AddCommand(newRunCmd(a), newReportCmd(a), newListCmd(a))
	return root
}

// load reads the configuration, applies flag overrides and sets up logging
func (a *app) load(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configFile)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("as-of") {
		cfg.AsOfDate, _ = flags.GetString("as-of")
	}
	if flags.Changed("data-dir") {
		cfg.DataDir, _ = flags.GetString("data-dir")
	}
	if flags.Changed("output-dir") {
		cfg.OutputDir, _ = flags.GetString("output-dir")
	}
	if flags.Changed("workers") {
		cfg.Workers, _ = flags.GetInt("workers")
	}
	if flags.Changed("log-level") {
		cfg.LogLevel, _ = flags.GetString("log-level")
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}

	if err := logger.Setup(cfg.GetLoggerConfig()); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	a.cfg = cfg
	return nil
}

func (a *app) pipelineOptions(now time.Time) pipeline.Options {
	return pipeline.Options{
		DataDir:         a.cfg.DataDir,
		OutputDir:       a.cfg.OutputDir,
		AsOf:            a.cfg.AsOf(now),
		Workers:         a.cfg.Workers,
		ExcludedVendors: a.cfg.ExcludedVendors,
		WriteCSV:        a.cfg.WriteCSV,
	}
}
