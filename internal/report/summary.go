package report

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/josh987123/ftg-foundation-data/internal/aging"
	"github.com/josh987123/ftg-foundation-data/internal/metrics"
	"github.com/josh987123/ftg-foundation-data/internal/reconcile"
)

// topListSize bounds the past-due and loss-job lists
const topListSize = 10

// SummaryReport contains all data for the summary report
type SummaryReport struct {
	GeneratedAt time.Time `json:"generated_at"`
	AsOfDate    string    `json:"as_of_date"`

	AR   LedgerSummary `json:"ar"`
	AP   LedgerSummary `json:"ap"`
	Jobs JobRollup     `json:"jobs"`

	// Watch lists
	TopPastDue []reconcile.ReconciledInvoice `json:"top_past_due"`
	LossJobs   []metrics.JobMetric           `json:"loss_jobs"`
}

// BucketTotals aggregates the open invoices in one aging bucket
type BucketTotals struct {
	Bucket      aging.Bucket    `json:"bucket"`
	Count       int             `json:"count"`
	TotalDue    decimal.Decimal `json:"total_due"`
	Retainage   decimal.Decimal `json:"retainage"`
	Collectible decimal.Decimal `json:"collectible"`
}

func (b *BucketTotals) add(r reconcile.ReconciledInvoice) {
	b.Count++
	b.TotalDue = b.TotalDue.Add(r.TotalDue)
	b.Retainage = b.Retainage.Add(r.Retainage)
	b.Collectible = b.Collectible.Add(r.Collectible)
}

// LedgerSummary is the aging of one ledger. Buckets are always listed in
// aging order, empty ones included.
type LedgerSummary struct {
	Ledger  reconcile.Ledger `json:"ledger"`
	Buckets []BucketTotals   `json:"buckets"`
	Total   BucketTotals     `json:"total"`
}

// JobRollup totals the job metrics
type JobRollup struct {
	Jobs             int                         `json:"jobs"`
	Open             int                         `json:"open"`
	Closed           int                         `json:"closed"`
	ByBasis          map[metrics.ProfitBasis]int `json:"by_profit_basis"`
	RevisedContract  decimal.Decimal             `json:"revised_contract"`
	EarnedRevenue    decimal.Decimal             `json:"earned_revenue"`
	Billed           decimal.Decimal             `json:"billed"`
	Backlog          decimal.Decimal             `json:"backlog"`
	OverUnderBilling decimal.Decimal             `json:"over_under_billing"`
	Profit           decimal.Decimal             `json:"profit"`
	JobsWithLoss     int                         `json:"jobs_with_loss"`
}

// GenerateSummary builds the complete summary report from a run's results
func GenerateSummary(asOf time.Time, ar, ap []reconcile.ReconciledInvoice, jobs []metrics.JobMetric, generatedAt time.Time) *SummaryReport {
	return &SummaryReport{
		GeneratedAt: generatedAt,
		AsOfDate:    asOf.Format(reconcile.DateLayout),
		AR:          SummarizeLedger(reconcile.LedgerAR, ar),
		AP:          SummarizeLedger(reconcile.LedgerAP, ap),
		Jobs:        RollupJobs(jobs),
		TopPastDue:  topPastDue(ar, topListSize),
		LossJobs:    lossJobs(jobs, topListSize),
	}
}

// SummarizeLedger groups rows by aging bucket
func SummarizeLedger(ledger reconcile.Ledger, rows []reconcile.ReconciledInvoice) LedgerSummary {
	idx := make(map[aging.Bucket]int, len(aging.Buckets))
	s := LedgerSummary{
		Ledger:  ledger,
		Buckets: make([]BucketTotals, len(aging.Buckets)),
		Total:   BucketTotals{Bucket: "total"},
	}
	for i, b := range aging.Buckets {
		s.Buckets[i].Bucket = b
		idx[b] = i
	}

	for _, r := range rows {
		if i, ok := idx[r.AgingBucket]; ok {
			s.Buckets[i].add(r)
		}
		s.Total.add(r)
	}
	return s
}

// RollupJobs totals the job metrics and counts jobs per profit basis
func RollupJobs(rows []metrics.JobMetric) JobRollup {
	r := JobRollup{
		Jobs:    len(rows),
		ByBasis: make(map[metrics.ProfitBasis]int),
	}
	for _, m := range rows {
		if m.Status == metrics.StatusClosed {
			r.Closed++
		} else {
			r.Open++
		}
		r.ByBasis[m.ProfitBasis]++
		r.RevisedContract = r.RevisedContract.Add(m.RevisedContract)
		r.EarnedRevenue = r.EarnedRevenue.Add(m.EarnedRevenue)
		r.Billed = r.Billed.Add(m.Billed)
		r.Backlog = r.Backlog.Add(m.Backlog)
		r.OverUnderBilling = r.OverUnderBilling.Add(m.OverUnderBilling)
		r.Profit = r.Profit.Add(m.Profit)
		if m.Profit.IsNegative() {
			r.JobsWithLoss++
		}
	}
	return r
}

// topPastDue returns the largest 90+ day invoices by collectible amount
func topPastDue(rows []reconcile.ReconciledInvoice, n int) []reconcile.ReconciledInvoice {
	out := make([]reconcile.ReconciledInvoice, 0, n)
	for _, r := range rows {
		if r.AgingBucket == aging.Over90 {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Collectible.GreaterThan(out[j].Collectible)
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// lossJobs returns the jobs with the largest losses, worst first
func lossJobs(rows []metrics.JobMetric, n int) []metrics.JobMetric {
	out := make([]metrics.JobMetric, 0, n)
	for _, m := range rows {
		if m.Profit.IsNegative() {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Profit.LessThan(out[j].Profit)
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
