package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh987123/ftg-foundation-data/internal/aging"
	"github.com/josh987123/ftg-foundation-data/internal/metrics"
	"github.com/josh987123/ftg-foundation-data/internal/reconcile"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func open(no string, bucket aging.Bucket, due, ret string) reconcile.ReconciledInvoice {
	d := dec(due)
	r := dec(ret)
	return reconcile.ReconciledInvoice{
		Ledger:           reconcile.LedgerAR,
		InvoiceNo:        no,
		CounterpartyName: "Acme Owner LLC",
		TotalDue:         d,
		Retainage:        r,
		Collectible:      d.Sub(r),
		AgingBucket:      bucket,
	}
}

func sampleReport() *SummaryReport {
	ar := []reconcile.ReconciledInvoice{
		open("1", aging.Current, "100", "10"),
		open("2", aging.Over90, "500", "0"),
		open("3", aging.Over90, "900", "100"),
		open("4", aging.Days31To60, "-50", "0"),
	}
	jobs := []metrics.JobMetric{
		{JobNo: "A", Status: metrics.StatusOpen, ProfitBasis: metrics.BasisProjected, Profit: dec("1000"), RevisedContract: dec("5000")},
		{JobNo: "B", Status: metrics.StatusClosed, ProfitBasis: metrics.BasisActual, Profit: dec("-250"), Description: "Roof"},
		{JobNo: "C", Status: metrics.StatusOpen, ProfitBasis: metrics.BasisActualFallback, Profit: dec("-10")},
	}
	asOf := time.Date(2026, 1, 7, 0, 0, 0, 0, time.UTC)
	return GenerateSummary(asOf, ar, nil, jobs, asOf.Add(8*time.Hour))
}

func TestSummarizeLedger(t *testing.T) {
	s := sampleReport().AR

	require.Len(t, s.Buckets, len(aging.Buckets))
	assert.Equal(t, aging.Current, s.Buckets[0].Bucket)
	assert.Equal(t, 1, s.Buckets[0].Count)
	assert.Equal(t, 0, s.Buckets[2].Count, "empty buckets are listed")
	assert.Equal(t, 2, s.Buckets[3].Count)
	assert.True(t, dec("1300").Equal(s.Buckets[3].Collectible))

	assert.Equal(t, 4, s.Total.Count)
	assert.True(t, dec("1450").Equal(s.Total.TotalDue))
	assert.True(t, dec("110").Equal(s.Total.Retainage))
	assert.True(t, s.Total.TotalDue.Equal(s.Total.Retainage.Add(s.Total.Collectible)))
}

func TestSummarizeLedger_Empty(t *testing.T) {
	s := sampleReport().AP
	assert.Equal(t, reconcile.LedgerAP, s.Ledger)
	assert.Equal(t, 0, s.Total.Count)
	assert.True(t, s.Total.TotalDue.IsZero())
}

func TestRollupJobs(t *testing.T) {
	r := sampleReport().Jobs

	assert.Equal(t, 3, r.Jobs)
	assert.Equal(t, 2, r.Open)
	assert.Equal(t, 1, r.Closed)
	assert.Equal(t, 1, r.ByBasis[metrics.BasisActual])
	assert.Equal(t, 1, r.ByBasis[metrics.BasisActualFallback])
	assert.Equal(t, 1, r.ByBasis[metrics.BasisProjected])
	assert.True(t, dec("740").Equal(r.Profit))
	assert.Equal(t, 2, r.JobsWithLoss)
}

func TestWatchLists(t *testing.T) {
	rep := sampleReport()

	require.Len(t, rep.TopPastDue, 2)
	assert.Equal(t, "3", rep.TopPastDue[0].InvoiceNo, "largest collectible first")

	require.Len(t, rep.LossJobs, 2)
	assert.Equal(t, "B", rep.LossJobs[0].JobNo, "worst loss first")
}

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "$0.00"},
		{"5.5", "$5.50"},
		{"999.999", "$1,000.00"},
		{"1234567.891", "$1,234,567.89"},
		{"-5517.95", "($5,517.95)"},
		{"-0.001", "$0.00"},
		{"100000", "$100,000.00"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatMoney(dec(tt.in)), tt.in)
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "Acme Ow...", truncate("Acme Owner LLC", 10))
}

func TestRenderText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderText(&buf, sampleReport()))

	out := buf.String()
	assert.Contains(t, out, "As of 2026-01-07")
	assert.Contains(t, out, "AR aging")
	assert.Contains(t, out, "AP aging")
	assert.Contains(t, out, "90+")
	assert.Contains(t, out, "$1,300.00")
	assert.Contains(t, out, "($50.00)")
}

func TestRenderSummaryHTML(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, r.RenderSummary(&buf, sampleReport()))

	out := buf.String()
	assert.Contains(t, out, "Accounts Receivable")
	assert.Contains(t, out, "Largest 90+ Day Receivables")
	assert.Contains(t, out, "Jobs With Losses")
	assert.Contains(t, out, "($250.00)")
}
