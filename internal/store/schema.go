package store

import (
	"context"
	"fmt"
)

// schema is portable between Postgres and SQLite. Money is NUMERIC, dates
// are ISO strings.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS reconciliation_runs (
		id TEXT PRIMARY KEY,
		fingerprint TEXT NOT NULL,
		as_of_date TEXT NOT NULL,
		status TEXT NOT NULL,
		error_message TEXT,
		ar_count INTEGER NOT NULL DEFAULT 0,
		ap_count INTEGER NOT NULL DEFAULT 0,
		job_count INTEGER NOT NULL DEFAULT 0,
		started_at TIMESTAMP NOT NULL,
		finished_at TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_runs_fingerprint
		ON reconciliation_runs(fingerprint, status)`,
	`CREATE TABLE IF NOT EXISTS open_invoices (
		run_id TEXT NOT NULL REFERENCES reconciliation_runs(id),
		ledger TEXT NOT NULL,
		invoice_no TEXT NOT NULL,
		counterparty_no TEXT NOT NULL DEFAULT '',
		counterparty_name TEXT NOT NULL DEFAULT '',
		job_no TEXT NOT NULL DEFAULT '',
		job_description TEXT NOT NULL DEFAULT '',
		project_manager TEXT NOT NULL DEFAULT '',
		invoice_date TEXT NOT NULL DEFAULT '',
		aging_date TEXT NOT NULL DEFAULT '',
		invoice_amount NUMERIC(14,2) NOT NULL,
		cash_applied NUMERIC(14,2) NOT NULL,
		total_due NUMERIC(14,2) NOT NULL,
		retainage NUMERIC(14,2) NOT NULL,
		collectible NUMERIC(14,2) NOT NULL,
		days_outstanding INTEGER NOT NULL,
		aging_bucket TEXT NOT NULL,
		PRIMARY KEY (run_id, ledger, invoice_no, counterparty_name, job_no)
	)`,
	`CREATE TABLE IF NOT EXISTS job_metrics (
		run_id TEXT NOT NULL REFERENCES reconciliation_runs(id),
		job_no TEXT NOT NULL,
		job_description TEXT NOT NULL DEFAULT '',
		customer_name TEXT NOT NULL DEFAULT '',
		project_manager TEXT NOT NULL DEFAULT '',
		job_status TEXT NOT NULL,
		revised_contract NUMERIC(14,2) NOT NULL,
		revised_cost NUMERIC(14,2) NOT NULL,
		actual_cost NUMERIC(14,2) NOT NULL,
		billed NUMERIC(14,2) NOT NULL,
		percent_complete NUMERIC(7,2) NOT NULL,
		earned_revenue NUMERIC(14,2) NOT NULL,
		backlog NUMERIC(14,2) NOT NULL,
		over_under_billing NUMERIC(14,2) NOT NULL,
		profit NUMERIC(14,2) NOT NULL,
		margin NUMERIC(9,2) NOT NULL,
		profit_basis TEXT NOT NULL,
		PRIMARY KEY (run_id, job_no)
	)`,
}

// Migrate creates the tables if they do not exist
func Migrate(ctx context.Context, db DBTX) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration step %d: %w", i+1, err)
		}
	}
	return nil
}
