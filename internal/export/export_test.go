package export

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh987123/ftg-foundation-data/internal/aging"
	"github.com/josh987123/ftg-foundation-data/internal/metrics"
	"github.com/josh987123/ftg-foundation-data/internal/reconcile"
	"github.com/josh987123/ftg-foundation-data/internal/report"
)

var asOf = time.Date(2026, 1, 7, 0, 0, 0, 0, time.UTC)

func sampleBundle() Bundle {
	ar := []reconcile.ReconciledInvoice{{
		Ledger:        reconcile.LedgerAR,
		InvoiceNo:     "1001",
		InvoiceDate:   "2025-11-01",
		AgingDate:     "2025-11-01",
		InvoiceAmount: decimal.RequireFromString("1000"),
		CashApplied:   decimal.RequireFromString("400"),
		TotalDue:      decimal.RequireFromString("600"),
		Retainage:     decimal.RequireFromString("100"),
		Collectible:   decimal.RequireFromString("500"),
		AgingBucket:   aging.Days61To90,
	}}
	jobs := []metrics.JobMetric{{JobNo: "2301", Status: metrics.StatusOpen, ProfitBasis: metrics.BasisProjected}}
	generated := asOf.Add(6 * time.Hour)

	return Bundle{
		AR:          ar,
		Jobs:        jobs,
		Summary:     report.GenerateSummary(asOf, ar, nil, jobs, generated),
		GeneratedAt: generated,
		AsOf:        asOf,
	}
}

func readJSON(t *testing.T, path string, v any) {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, v))
}

func TestWriteBundle(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "public", "data")
	w := NewWriter(dir, false)

	written, err := w.WriteBundle(sampleBundle())
	require.NoError(t, err)
	assert.Equal(t, []string{FileAR, FileAP, FileJobs, FileSummary, FileGeneratedAt}, written)

	var ar []map[string]any
	readJSON(t, filepath.Join(dir, FileAR), &ar)
	require.Len(t, ar, 1)
	assert.Equal(t, "1001", ar[0]["invoice_no"])
	assert.Equal(t, 500.0, ar[0]["collectible"], "amounts are JSON numbers")
	assert.Equal(t, "61-90", ar[0]["aging_bucket"])

	raw, err := os.ReadFile(filepath.Join(dir, FileAP))
	require.NoError(t, err)
	assert.JSONEq(t, "[]", string(raw), "empty ledger is an empty list")

	var gen map[string]string
	readJSON(t, filepath.Join(dir, FileGeneratedAt), &gen)
	assert.Equal(t, "2026-01-07", gen["as_of_date"])
	assert.Equal(t, "2026-01-07T06:00:00Z", gen["generated_at"])

	assert.NoFileExists(t, filepath.Join(dir, FileARCSV))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 5, "no temp files left behind")
}

func TestWriteBundle_CSV(t *testing.T) {
	dir := t.TempDir()
	written, err := NewWriter(dir, true).WriteBundle(sampleBundle())
	require.NoError(t, err)
	assert.Contains(t, written, FileARCSV)
	assert.Contains(t, written, FileAPCSV)

	f, err := os.Open(filepath.Join(dir, FileARCSV))
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, agingCSVHeader, records[0])
	assert.Equal(t, "600.00", records[1][11])
	assert.Equal(t, "61-90", records[1][15])
}

func TestWriteHealth(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, false)

	err := w.WriteHealth(Health{
		Status:      HealthFailed,
		RefreshedAt: asOf,
		AsOfDate:    "2026-01-07",
		Inputs:      map[string]int{"ar_invoices.csv": 0},
		Error:       "ar: 0 invoices in: empty result",
	})
	require.NoError(t, err)

	var h Health
	readJSON(t, filepath.Join(dir, FileHealth), &h)
	assert.Equal(t, HealthFailed, h.Status)
	assert.Equal(t, 0, h.Inputs["ar_invoices.csv"])
	assert.NotEmpty(t, h.Error)
}

func TestWriteBundle_OverwritesPreviousOutput(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, false)

	_, err := w.WriteBundle(sampleBundle())
	require.NoError(t, err)

	b := sampleBundle()
	b.AR = nil
	_, err = w.WriteBundle(b)
	require.NoError(t, err)

	var ar []map[string]any
	readJSON(t, filepath.Join(dir, FileAR), &ar)
	assert.Empty(t, ar)
}
