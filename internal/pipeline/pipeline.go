// Package pipeline runs one reconciliation end to end: fingerprint the
// inputs, parse, reconcile both ledgers, compute job metrics, publish the
// outputs and record the run.
package pipeline

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/josh987123/ftg-foundation-data/internal/export"
	"github.com/josh987123/ftg-foundation-data/internal/logger"
	"github.com/josh987123/ftg-foundation-data/internal/metrics"
	"github.com/josh987123/ftg-foundation-data/internal/reconcile"
	"github.com/josh987123/ftg-foundation-data/internal/report"
	"github.com/josh987123/ftg-foundation-data/internal/store"
)

// Options configure a run
type Options struct {
	DataDir         string
	OutputDir       string
	AsOf            time.Time
	Workers         int
	ExcludedVendors []string
	WriteCSV        bool

	// Force reprocesses inputs that already had a successful run
	Force bool
}

// Results are the calculator outputs of a run
type Results struct {
	AR         []reconcile.ReconciledInvoice
	AP         []reconcile.ReconciledInvoice
	Jobs       []metrics.JobMetric
	Summary    *report.SummaryReport
	Validation *ValidationResult
}

// Compute runs the reconcilers and the job metrics calculator over loaded
// inputs. Any systemic error aborts the whole computation.
func Compute(in *Inputs, opts Options, now time.Time) (*Results, error) {
	ropts := reconcile.Options{
		AsOf:            opts.AsOf,
		ExcludedVendors: opts.ExcludedVendors,
		Workers:         opts.Workers,
	}

	ar, err := reconcile.ReconcileARBatch(in.ARInvoices, in.Ledger, ropts)
	if err != nil {
		return nil, err
	}

	ap, err := reconcile.ReconcileAPBatch(in.APInvoices, ropts)
	if err != nil {
		return nil, err
	}

	jobs, err := metrics.CalculateJobMetrics(in.Jobs, in.Aggregates, opts.Workers)
	if err != nil {
		return nil, err
	}

	return &Results{
		AR:         ar,
		AP:         ap,
		Jobs:       jobs,
		Summary:    report.GenerateSummary(opts.AsOf, ar, ap, jobs, now),
		Validation: ValidateInputs(in),
	}, nil
}

// Runner executes pipeline runs
type Runner struct {
	db      *sql.DB
	queries *store.Queries
	writer  *export.Writer
	opts    Options
	log     zerolog.Logger
	now     func() time.Time
}

// NewRunner creates a runner. A nil db runs without persistence.
func NewRunner(db *sql.DB, driver string, opts Options) *Runner {
	r := &Runner{
		db:     db,
		writer: export.NewWriter(opts.OutputDir, opts.WriteCSV),
		opts:   opts,
		log:    logger.WithComponent("pipeline"),
		now:    time.Now,
	}
	if db != nil {
		r.queries = store.New(db, driver)
	}
	return r
}

// RunResult contains the results of a run
type RunResult struct {
	RunID            string
	Fingerprint      string
	ARCount          int
	APCount          int
	JobCount         int
	Files            []string
	Validation       *ValidationResult
	Warnings         []string
	Duration         time.Duration
	AlreadyProcessed bool
}

// Run executes one full run
func (r *Runner) Run(ctx context.Context) (*RunResult, error) {
	startTime := r.now()
	asOf := r.opts.AsOf.Format(reconcile.DateLayout)

	// Step 1: Fingerprint inputs
	fingerprint, _, err := Fingerprint(r.opts.DataDir, r.opts.AsOf)
	if err != nil {
		return nil, r.fail(ctx, "", nil, fmt.Errorf("failed to fingerprint inputs: %w", err))
	}
	log := r.log.With().Str("fingerprint", fingerprint[:12]).Str("as_of", asOf).Logger()

	// Step 2: Check if already processed
	if r.queries != nil && !r.opts.Force {
		existing, err := r.queries.FindSuccessfulRun(ctx, fingerprint)
		if err == nil {
			log.Info().Str("run_id", existing.ID).Msg("inputs unchanged since last successful run, skipping")
			return &RunResult{
				RunID:            existing.ID,
				Fingerprint:      fingerprint,
				ARCount:          existing.ARCount,
				APCount:          existing.APCount,
				JobCount:         existing.JobCount,
				Duration:         time.Since(startTime),
				AlreadyProcessed: true,
			}, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("failed to check for existing run: %w", err)
		}
	}

	// Step 3: Parse files
	in, err := LoadInputs(r.opts.DataDir)
	if err != nil {
		return nil, r.fail(ctx, "", nil, fmt.Errorf("failed to load inputs: %w", err))
	}
	for _, w := range in.Warnings {
		log.Warn().Msg(w)
	}

	// Step 4: Reconcile and compute metrics
	res, err := Compute(in, r.opts, startTime)
	if err != nil {
		return nil, r.fail(ctx, "", in.RowCounts, err)
	}
	for _, w := range res.Validation.Warnings {
		log.Warn().Msg(w)
	}

	// Step 5: Record the run
	var runID string
	if r.queries != nil {
		run, err := r.queries.CreateRun(ctx, store.CreateRunParams{
			Fingerprint: fingerprint,
			AsOfDate:    asOf,
			StartedAt:   startTime,
		})
		if err != nil {
			return nil, r.fail(ctx, "", in.RowCounts, fmt.Errorf("failed to create run: %w", err))
		}
		runID = run.ID
		log = log.With().Str("run_id", runID).Logger()
	}

	// Step 6: Persist and publish
	files, err := r.publish(ctx, runID, res)
	if err != nil {
		return nil, r.fail(ctx, runID, in.RowCounts, err)
	}

	counts := outputCounts(res)
	err = r.writer.WriteHealth(export.Health{
		Status:      export.HealthOK,
		RunID:       runID,
		RefreshedAt: r.now(),
		AsOfDate:    asOf,
		Inputs:      in.RowCounts,
		Outputs:     counts,
		Warnings:    len(in.Warnings) + len(res.Validation.Warnings),
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to write health file")
	}

	log.Info().
		Int("ar", len(res.AR)).
		Int("ap", len(res.AP)).
		Int("jobs", len(res.Jobs)).
		Dur("took", time.Since(startTime)).
		Msg("run complete")

	return &RunResult{
		RunID:       runID,
		Fingerprint: fingerprint,
		ARCount:     len(res.AR),
		APCount:     len(res.AP),
		JobCount:    len(res.Jobs),
		Files:       files,
		Validation:  res.Validation,
		Warnings:    in.Warnings,
		Duration:    time.Since(startTime),
	}, nil
}

// publish saves the results and writes the output files inside one
// transaction, so a failed write leaves no partial run behind
func (r *Runner) publish(ctx context.Context, runID string, res *Results) ([]string, error) {
	bundle := export.Bundle{
		AR:          res.AR,
		AP:          res.AP,
		Jobs:        res.Jobs,
		Summary:     res.Summary,
		GeneratedAt: res.Summary.GeneratedAt,
		AsOf:        r.opts.AsOf,
	}

	if r.queries == nil {
		files, err := r.writer.WriteBundle(bundle)
		if err != nil {
			return nil, fmt.Errorf("failed to write outputs: %w", err)
		}
		return files, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback() // Rollback if not committed

	txQueries := r.queries.WithTx(tx)

	if err := txQueries.SaveInvoices(ctx, runID, res.AR); err != nil {
		return nil, err
	}
	if err := txQueries.SaveInvoices(ctx, runID, res.AP); err != nil {
		return nil, err
	}
	if err := txQueries.SaveJobMetrics(ctx, runID, res.Jobs); err != nil {
		return nil, err
	}

	files, err := r.writer.WriteBundle(bundle)
	if err != nil {
		return nil, fmt.Errorf("failed to write outputs: %w", err)
	}

	err = txQueries.FinishRun(ctx, store.FinishRunParams{
		ID:         runID,
		Status:     store.StatusSuccess,
		ARCount:    len(res.AR),
		APCount:    len(res.AP),
		JobCount:   len(res.Jobs),
		FinishedAt: r.now(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update run status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return files, nil
}

// fail records a failed run and a failed health file, then returns err
func (r *Runner) fail(ctx context.Context, runID string, inputs map[string]int, err error) error {
	log := logger.WithRun("pipeline", runID)
	log.Error().Err(err).Msg("run failed")

	if r.queries != nil && runID != "" {
		ferr := r.queries.FinishRun(ctx, store.FinishRunParams{
			ID:           runID,
			Status:       store.StatusFailed,
			ErrorMessage: sql.NullString{String: err.Error(), Valid: true},
			FinishedAt:   r.now(),
		})
		if ferr != nil {
			log.Error().Err(ferr).Msg("failed to mark run as failed")
		}
	}

	if inputs == nil {
		inputs = map[string]int{}
	}
	herr := r.writer.WriteHealth(export.Health{
		Status:      export.HealthFailed,
		RunID:       runID,
		RefreshedAt: r.now(),
		AsOfDate:    r.opts.AsOf.Format(reconcile.DateLayout),
		Inputs:      inputs,
		Outputs:     map[string]int{},
		Error:       err.Error(),
	})
	if herr != nil {
		log.Error().Err(herr).Msg("failed to write health file")
	}

	return err
}

func outputCounts(res *Results) map[string]int {
	return map[string]int{
		export.FileAR:   len(res.AR),
		export.FileAP:   len(res.AP),
		export.FileJobs: len(res.Jobs),
	}
}
