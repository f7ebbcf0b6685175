package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Run statuses
const (
	StatusRunning = "running"
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// Run is one row of reconciliation_runs
type Run struct {
	ID           string
	Fingerprint  string
	AsOfDate     string
	Status       string
	ErrorMessage sql.NullString
	ARCount      int
	APCount      int
	JobCount     int
	StartedAt    time.Time
	FinishedAt   sql.NullTime
}

type CreateRunParams struct {
	Fingerprint string
	AsOfDate    string
	StartedAt   time.Time
}

const createRun = `
INSERT INTO reconciliation_runs (id, fingerprint, as_of_date, status, started_at)
VALUES (?, ?, ?, ?, ?)`

// CreateRun records a new run in the running state
func (q *Queries) CreateRun(ctx context.Context, arg CreateRunParams) (Run, error) {
	run := Run{
		ID:          uuid.NewString(),
		Fingerprint: arg.Fingerprint,
		AsOfDate:    arg.AsOfDate,
		Status:      StatusRunning,
		StartedAt:   arg.StartedAt.UTC(),
	}

	_, err := q.db.ExecContext(ctx, q.rebind(createRun),
		run.ID, run.Fingerprint, run.AsOfDate, run.Status, run.StartedAt)
	if err != nil {
		return Run{}, fmt.Errorf("insert run: %w", err)
	}
	return run, nil
}

const runColumns = `id, fingerprint, as_of_date, status, error_message,
	ar_count, ap_count, job_count, started_at, finished_at`

const findSuccessfulRun = `
SELECT ` + runColumns + `
FROM reconciliation_runs
WHERE fingerprint = ? AND status = ?
ORDER BY started_at DESC
LIMIT 1`

// FindSuccessfulRun returns the latest successful run with the given input
// fingerprint, or sql.ErrNoRows
func (q *Queries) FindSuccessfulRun(ctx context.Context, fingerprint string) (Run, error) {
	row := q.db.QueryRowContext(ctx, q.rebind(findSuccessfulRun), fingerprint, StatusSuccess)
	return scanRun(row)
}

type FinishRunParams struct {
	ID           string
	Status       string
	ErrorMessage sql.NullString
	ARCount      int
	APCount      int
	JobCount     int
	FinishedAt   time.Time
}

const finishRun = `
UPDATE reconciliation_runs
SET status = ?, error_message = ?, ar_count = ?, ap_count = ?, job_count = ?, finished_at = ?
WHERE id = ?`

// FinishRun sets the terminal status and record counts of a run
func (q *Queries) FinishRun(ctx context.Context, arg FinishRunParams) error {
	res, err := q.db.ExecContext(ctx, q.rebind(finishRun),
		arg.Status, arg.ErrorMessage, arg.ARCount, arg.APCount, arg.JobCount,
		arg.FinishedAt.UTC(), arg.ID)
	if err != nil {
		return fmt.Errorf("update run %s: %w", arg.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update run %s: %w", arg.ID, sql.ErrNoRows)
	}
	return nil
}

const listRuns = `
SELECT ` + runColumns + `
FROM reconciliation_runs
ORDER BY started_at DESC
LIMIT ?`

// ListRuns returns the most recent runs, newest first
func (q *Queries) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	rows, err := q.db.QueryContext(ctx, q.rebind(listRuns), limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (Run, error) {
	var r Run
	err := row.Scan(
		&r.ID,
		&r.Fingerprint,
		&r.AsOfDate,
		&r.Status,
		&r.ErrorMessage,
		&r.ARCount,
		&r.APCount,
		&r.JobCount,
		&r.StartedAt,
		&r.FinishedAt,
	)
	return r, err
}
