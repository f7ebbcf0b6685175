// Package export publishes run results as the JSON (and optional CSV) files
// the dashboard reads. Every file is written to a temporary name and renamed
// into place, so a reader never sees a half-written file.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/josh987123/ftg-foundation-data/internal/metrics"
	"github.com/josh987123/ftg-foundation-data/internal/reconcile"
	"github.com/josh987123/ftg-foundation-data/internal/report"
)

// Output file names
const (
	FileAR          = "metrics_ar.json"
	FileAP          = "metrics_ap.json"
	FileJobs        = "metrics_jobs.json"
	FileSummary     = "metrics_summary.json"
	FileGeneratedAt = "metrics_generated_at.json"
	FileHealth      = "pipeline_health.json"
	FileARCSV       = "ar_aging.csv"
	FileAPCSV       = "ap_aging.csv"
)

// Health statuses
const (
	HealthOK      = "ok"
	HealthFailed  = "failed"
	HealthSkipped = "skipped"
)

func init() {
	// dashboards read amounts as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true
}

// Bundle is everything a successful run publishes
type Bundle struct {
	AR          []reconcile.ReconciledInvoice
	AP          []reconcile.ReconciledInvoice
	Jobs        []metrics.JobMetric
	Summary     *report.SummaryReport
	GeneratedAt time.Time
	AsOf        time.Time
}

// Health describes the outcome of the latest run
type Health struct {
	Status      string         `json:"status"`
	RunID       string         `json:"run_id,omitempty"`
	RefreshedAt time.Time      `json:"refreshed_at"`
	AsOfDate    string         `json:"as_of_date"`
	Inputs      map[string]int `json:"inputs"`
	Outputs     map[string]int `json:"outputs"`
	Warnings    int            `json:"warnings"`
	Error       string         `json:"error,omitempty"`
}

type generatedAt struct {
	GeneratedAt time.Time `json:"generated_at"`
	AsOfDate    string    `json:"as_of_date"`
}

// Writer writes outputs into Dir
type Writer struct {
	Dir string
	CSV bool
}

// NewWriter creates a writer for dir
func NewWriter(dir string, writeCSV bool) *Writer {
	return &Writer{Dir: dir, CSV: writeCSV}
}

// WriteBundle writes every output file of a successful run and returns the
// written file names. Empty ledgers are written as [] rather than null.
func (w *Writer) WriteBundle(b Bundle) ([]string, error) {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}

	asOf := b.AsOf.Format(reconcile.DateLayout)
	files := []struct {
		name string
		v    any
	}{
		{FileAR, nonNil(b.AR)},
		{FileAP, nonNil(b.AP)},
		{FileJobs, nonNil(b.Jobs)},
		{FileSummary, b.Summary},
		{FileGeneratedAt, generatedAt{GeneratedAt: b.GeneratedAt.UTC(), AsOfDate: asOf}},
	}

	written := make([]string, 0, len(files)+2)
	for _, f := range files {
		if err := writeJSON(filepath.Join(w.Dir, f.name), f.v); err != nil {
			return written, err
		}
		written = append(written, f.name)
	}

	if w.CSV {
		for _, f := range []struct {
			name string
			rows []reconcile.ReconciledInvoice
		}{{FileARCSV, b.AR}, {FileAPCSV, b.AP}} {
			if err := writeAgingCSV(filepath.Join(w.Dir, f.name), f.rows); err != nil {
				return written, err
			}
			written = append(written, f.name)
		}
	}

	return written, nil
}

// WriteHealth writes pipeline_health.json
func (w *Writer) WriteHealth(h Health) error {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}
	h.RefreshedAt = h.RefreshedAt.UTC()
	return writeJSON(filepath.Join(w.Dir, FileHealth), h)
}

func nonNil[T any](rows []T) []T {
	if rows == nil {
		return []T{}
	}
	return rows
}

func writeJSON(path string, v any) error {
	return writeAtomic(path, func(f *os.File) error {
		enc := json.NewEncoder(f)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	})
}

var agingCSVHeader = []string{
	"ledger", "invoice_no", "counterparty_no", "counterparty_name", "job_no",
	"job_description", "project_manager", "invoice_date", "aging_date",
	"invoice_amount", "cash_applied", "total_due", "retainage", "collectible",
	"days_outstanding", "aging_bucket",
}

func writeAgingCSV(path string, rows []reconcile.ReconciledInvoice) error {
	return writeAtomic(path, func(f *os.File) error {
		cw := csv.NewWriter(f)
		if err := cw.Write(agingCSVHeader); err != nil {
			return err
		}
		for _, r := range rows {
			record := []string{
				string(r.Ledger),
				r.InvoiceNo,
				r.CounterpartyNo,
				r.CounterpartyName,
				r.JobNo,
				r.JobDescription,
				r.ProjectManager,
				r.InvoiceDate,
				r.AgingDate,
				r.InvoiceAmount.StringFixed(2),
				r.CashApplied.StringFixed(2),
				r.TotalDue.StringFixed(2),
				r.Retainage.StringFixed(2),
				r.Collectible.StringFixed(2),
				strconv.Itoa(r.DaysOutstanding),
				string(r.AgingBucket),
			}
			if err := cw.Write(record); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	})
}

// writeAtomic writes through a temp file in the target directory and renames
// it over path
func writeAtomic(path string, write func(*os.File) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", filepath.Base(path), err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := write(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", filepath.Base(path), err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("failed to chmod %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to publish %s: %w", filepath.Base(path), err)
	}
	return nil
}
