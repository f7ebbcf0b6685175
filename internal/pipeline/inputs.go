package pipeline

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/josh987123/ftg-foundation-data/internal/metrics"
	"github.com/josh987123/ftg-foundation-data/internal/parser"
	"github.com/josh987123/ftg-foundation-data/internal/reconcile"
)

// Input file names inside the data directory
const (
	FileARInvoices       = "ar_invoices.csv"
	FileCashApplications = "ar_cash_applications.csv"
	FileAPPayments       = "payments.csv"
	FileJobBudgets       = "job_budgets.csv"
	FileJobActuals       = "job_actuals.csv"
	FileJobBilled        = "job_billed_revenue.csv"
)

type inputFile struct {
	Name string
	// Required files abort the run when absent. The cash application ledger
	// is not required here; its absence surfaces as a missing ledger.
	Required bool
}

var inputFiles = []inputFile{
	{FileARInvoices, true},
	{FileCashApplications, false},
	{FileAPPayments, true},
	{FileJobBudgets, true},
	{FileJobActuals, true},
	{FileJobBilled, true},
}

// Inputs are the converted datasets of one run
type Inputs struct {
	ARInvoices []reconcile.Invoice
	Ledger     reconcile.CashLedger // nil when the ledger file is missing
	APInvoices []reconcile.APInvoice
	Jobs       []metrics.JobData
	Aggregates metrics.Aggregates

	// RowCounts are parsed rows per input file
	RowCounts map[string]int
	Warnings  []string
}

// LoadInputs parses every input file in dataDir
func LoadInputs(dataDir string) (*Inputs, error) {
	p := parser.NewCSVParser()
	in := &Inputs{RowCounts: make(map[string]int, len(inputFiles))}

	ar, err := parseFile(dataDir, FileARInvoices, in, p.ParseARInvoices)
	if err != nil {
		return nil, err
	}
	in.ARInvoices = convertARInvoices(ar)

	cash, err := parseFile(dataDir, FileCashApplications, in, p.ParseCashApplications)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		in.Warnings = append(in.Warnings, FileCashApplications+": file not found")
	case err != nil:
		return nil, err
	default:
		in.Ledger = reconcile.NewCashLedger(convertCashApplications(cash))
	}

	ap, err := parseFile(dataDir, FileAPPayments, in, p.ParseAPPayments)
	if err != nil {
		return nil, err
	}
	in.APInvoices = reconcile.GroupAPLines(convertAPLines(ap))

	budgets, err := parseFile(dataDir, FileJobBudgets, in, p.ParseJobBudgets)
	if err != nil {
		return nil, err
	}
	in.Jobs = convertJobs(budgets)

	actuals, err := parseFile(dataDir, FileJobActuals, in, func(r io.Reader) (*parser.Result[parser.JobAmountRow], error) {
		return p.ParseJobAmounts(r, "actual_cost")
	})
	if err != nil {
		return nil, err
	}

	billed, err := parseFile(dataDir, FileJobBilled, in, func(r io.Reader) (*parser.Result[parser.JobAmountRow], error) {
		return p.ParseJobAmounts(r, "billed_revenue", "billed_amount")
	})
	if err != nil {
		return nil, err
	}

	in.Aggregates = metrics.Aggregates{
		ActualCost: metrics.SumByJob(convertJobAmounts(actuals)),
		Billed:     metrics.SumByJob(convertJobAmounts(billed)),
	}

	return in, nil
}

// parseFile opens name in dataDir and runs parse over it, recording the row
// count and prefixed warnings on in
func parseFile[T any](dataDir, name string, in *Inputs, parse func(io.Reader) (*parser.Result[T], error)) ([]T, error) {
	f, err := os.Open(filepath.Join(dataDir, name))
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", name, err)
	}
	defer f.Close()

	res, err := parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", name, err)
	}

	in.RowCounts[name] = len(res.Rows)
	for _, w := range res.WarningStrings() {
		in.Warnings = append(in.Warnings, name+": "+w)
	}
	return res.Rows, nil
}

func convertARInvoices(rows []parser.ARInvoiceRow) []reconcile.Invoice {
	out := make([]reconcile.Invoice, 0, len(rows))
	for _, r := range rows {
		out = append(out, reconcile.Invoice{
			InvoiceNo:        r.InvoiceNo,
			CounterpartyNo:   r.CustomerNo,
			CounterpartyName: r.CustomerName,
			JobNo:            r.JobNo,
			JobDescription:   r.JobDescription,
			ProjectManager:   r.ProjectManager,
			Amount:           decimalOrZero(r.InvoiceAmount),
			InvoiceDate:      timeOrZero(r.InvoiceDate),
			Retainage:        retainageBasis(r.RetainageAmount, r.RetainagePercent),
			HeaderAmountDue:  r.AmountDue,
		})
	}
	return out
}

func convertCashApplications(rows []parser.CashApplicationRow) []reconcile.CashApplication {
	out := make([]reconcile.CashApplication, 0, len(rows))
	for _, r := range rows {
		out = append(out, reconcile.CashApplication{
			InvoiceNo: r.InvoiceNo,
			Amount:    decimalOrZero(r.AppliedAmount),
			Voided:    r.Reversed,
		})
	}
	return out
}

func convertAPLines(rows []parser.APPaymentRow) []reconcile.APLine {
	out := make([]reconcile.APLine, 0, len(rows))
	for _, r := range rows {
		line := reconcile.APLine{
			Invoice: reconcile.Invoice{
				InvoiceNo:        r.InvoiceNo,
				CounterpartyName: r.VendorName,
				JobNo:            r.JobNo,
				JobDescription:   r.JobDescription,
				ProjectManager:   r.ProjectManager,
				Amount:           decimalOrZero(r.InvoiceAmount),
				InvoiceDate:      timeOrZero(r.InvoiceDate),
				Retainage:        retainageBasis(r.RetainageAmount, r.RetainagePercent),
			},
		}
		if r.CashAmount != nil {
			line.Payment = &reconcile.CashApplication{
				InvoiceNo:       r.InvoiceNo,
				Amount:          *r.CashAmount,
				Voided:          r.Voided,
				TransactionDate: timeOrZero(r.TransactionDate),
			}
		}
		out = append(out, line)
	}
	return out
}

func convertJobs(rows []parser.JobBudgetRow) []metrics.JobData {
	out := make([]metrics.JobData, 0, len(rows))
	for _, r := range rows {
		out = append(out, metrics.JobData{
			JobNo:               r.JobNo,
			Description:         r.Description,
			CustomerNo:          r.CustomerNo,
			CustomerName:        r.CustomerName,
			ProjectManager:      r.ProjectManager,
			Status:              jobStatus(r.Status),
			OriginalContract:    decimalOrZero(r.OriginalContract),
			ContractAdjustments: decimalOrZero(r.IncomeAdjustments),
			OriginalCost:        decimalOrZero(r.OriginalCost),
			CostAdjustments:     decimalOrZero(r.CostAdjustments),
		})
	}
	return out
}

func convertJobAmounts(rows []parser.JobAmountRow) []metrics.JobAmount {
	out := make([]metrics.JobAmount, 0, len(rows))
	for _, r := range rows {
		out = append(out, metrics.JobAmount{JobNo: r.JobNo, Amount: decimalOrZero(r.Amount)})
	}
	return out
}

// jobStatus maps the accounting system status code; "C" (or "Closed") is
// closed, anything else open
func jobStatus(s string) metrics.JobStatus {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "C", "CLOSED":
		return metrics.StatusClosed
	}
	return metrics.StatusOpen
}

// retainageBasis prefers an explicit amount and falls back to a percentage
func retainageBasis(amount, percent *decimal.Decimal) reconcile.Retainage {
	switch {
	case amount != nil:
		return reconcile.RetainageOfAmount(*amount)
	case percent != nil:
		return reconcile.RetainageOfPercent(*percent)
	}
	return reconcile.RetainageOfAmount(decimal.Zero)
}

// Helper functions for converting types

func decimalOrZero(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}

func timeOrZero(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
