package store

import (
	"context"
	"fmt"

	"github.com/josh987123/ftg-foundation-data/internal/metrics"
	"github.com/josh987123/ftg-foundation-data/internal/reconcile"
)

const saveInvoice = `
INSERT INTO open_invoices (
	run_id, ledger, invoice_no, counterparty_no, counterparty_name, job_no,
	job_description, project_manager, invoice_date, aging_date,
	invoice_amount, cash_applied, total_due, retainage, collectible,
	days_outstanding, aging_bucket
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (run_id, ledger, invoice_no, counterparty_name, job_no) DO UPDATE SET
	counterparty_no = excluded.counterparty_no,
	job_description = excluded.job_description,
	project_manager = excluded.project_manager,
	invoice_date = excluded.invoice_date,
	aging_date = excluded.aging_date,
	invoice_amount = excluded.invoice_amount,
	cash_applied = excluded.cash_applied,
	total_due = excluded.total_due,
	retainage = excluded.retainage,
	collectible = excluded.collectible,
	days_outstanding = excluded.days_outstanding,
	aging_bucket = excluded.aging_bucket`

// SaveInvoices writes the open invoices of a run
func (q *Queries) SaveInvoices(ctx context.Context, runID string, rows []reconcile.ReconciledInvoice) error {
	stmt := q.rebind(saveInvoice)
	for _, r := range rows {
		_, err := q.db.ExecContext(ctx, stmt,
			runID,
			string(r.Ledger),
			r.InvoiceNo,
			r.CounterpartyNo,
			r.CounterpartyName,
			r.JobNo,
			r.JobDescription,
			r.ProjectManager,
			r.InvoiceDate,
			r.AgingDate,
			r.InvoiceAmount,
			r.CashApplied,
			r.TotalDue,
			r.Retainage,
			r.Collectible,
			r.DaysOutstanding,
			string(r.AgingBucket),
		)
		if err != nil {
			return fmt.Errorf("failed to save %s invoice %s: %w", r.Ledger, r.InvoiceNo, err)
		}
	}
	return nil
}

const saveJobMetric = `
INSERT INTO job_metrics (
	run_id, job_no, job_description, customer_name, project_manager, job_status,
	revised_contract, revised_cost, actual_cost, billed, percent_complete,
	earned_revenue, backlog, over_under_billing, profit, margin, profit_basis
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (run_id, job_no) DO UPDATE SET
	job_description = excluded.job_description,
	customer_name = excluded.customer_name,
	project_manager = excluded.project_manager,
	job_status = excluded.job_status,
	revised_contract = excluded.revised_contract,
	revised_cost = excluded.revised_cost,
	actual_cost = excluded.actual_cost,
	billed = excluded.billed,
	percent_complete = excluded.percent_complete,
	earned_revenue = excluded.earned_revenue,
	backlog = excluded.backlog,
	over_under_billing = excluded.over_under_billing,
	profit = excluded.profit,
	margin = excluded.margin,
	profit_basis = excluded.profit_basis`

// SaveJobMetrics upserts the job metrics of a run. A job number repeated in
// the budgets keeps its last row.
func (q *Queries) SaveJobMetrics(ctx context.Context, runID string, rows []metrics.JobMetric) error {
	stmt := q.rebind(saveJobMetric)
	for _, m := range rows {
		_, err := q.db.ExecContext(ctx, stmt,
			runID,
			m.JobNo,
			m.Description,
			m.CustomerName,
			m.ProjectManager,
			string(m.Status),
			m.RevisedContract,
			m.RevisedCost,
			m.ActualCost,
			m.Billed,
			m.PercentComplete,
			m.EarnedRevenue,
			m.Backlog,
			m.OverUnderBilling,
			m.Profit,
			m.MarginPct,
			string(m.ProfitBasis),
		)
		if err != nil {
			return fmt.Errorf("failed to save metrics for job %s: %w", m.JobNo, err)
		}
	}
	return nil
}

const countInvoices = `SELECT COUNT(*) FROM open_invoices WHERE run_id = ? AND ledger = ?`

// CountInvoices returns how many open invoices a run stored for a ledger
func (q *Queries) CountInvoices(ctx context.Context, runID string, ledger reconcile.Ledger) (int, error) {
	var n int
	err := q.db.QueryRowContext(ctx, q.rebind(countInvoices), runID, string(ledger)).Scan(&n)
	return n, err
}
