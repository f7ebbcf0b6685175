package parser

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ErrMissingColumn is returned when a required column is absent from the
// header row
var ErrMissingColumn = errors.New("required column missing")

type CSVParser struct {
	TrimWhitespace bool
	SkipEmptyRows  bool
}

func NewCSVParser() *CSVParser {
	return &CSVParser{
		TrimWhitespace: true,
		SkipEmptyRows:  true,
	}
}

var _ Parser = (*CSVParser)(nil)

// ParseARInvoices reads the AR invoice header export
func (p *CSVParser) ParseARInvoices(r io.Reader) (*Result[ARInvoiceRow], error) {
	return parseRows(p, r, []string{"invoice_no"}, func(row *rowReader) (ARInvoiceRow, bool) {
		inv := ARInvoiceRow{
			InvoiceNo:      row.id("invoice_no", "invoice_number"),
			CustomerNo:     row.id("customer_no", "customer_number"),
			CustomerName:   row.str("customer_name"),
			JobNo:          row.id("job_no", "job_number"),
			JobDescription: row.str("job_description"),
			ProjectManager: row.str("project_manager_name", "project_manager"),
		}
		if inv.InvoiceNo == "" {
			return inv, false
		}

		inv.InvoiceDate = row.date("invoice_date")
		inv.InvoiceAmount = row.decimal("invoice_amount")
		inv.RetainagePercent = row.decimal("retainage_percent")
		inv.RetainageAmount = row.decimal("retainage_amount")
		inv.AmountDue = row.decimal("amount_due", "calculated_amount_due")
		return inv, true
	})
}

// ParseCashApplications reads the AR cash application ledger
func (p *CSVParser) ParseCashApplications(r io.Reader) (*Result[CashApplicationRow], error) {
	return parseRows(p, r, []string{"invoice_no"}, func(row *rowReader) (CashApplicationRow, bool) {
		app := CashApplicationRow{
			InvoiceNo: row.id("invoice_no", "invoice_number"),
			ReceiptNo: row.id("receipt_no", "receipt_number"),
		}
		if app.InvoiceNo == "" {
			return app, false
		}

		app.AppliedAmount = row.decimal("applied_amount", "cash_amount")
		app.Reversed = row.flag("reversal", "void_flag")
		return app, true
	})
}

// ParseAPPayments reads the denormalized AP payments export
func (p *CSVParser) ParseAPPayments(r io.Reader) (*Result[APPaymentRow], error) {
	return parseRows(p, r, []string{"invoice_no", "vendor_name"}, func(row *rowReader) (APPaymentRow, bool) {
		pay := APPaymentRow{
			InvoiceNo:      row.id("invoice_no", "invoice_number"),
			VendorName:     row.str("vendor_name"),
			JobNo:          row.id("job_no", "job_number"),
			JobDescription: row.str("job_description"),
			ProjectManager: row.str("project_manager_name", "project_manager"),
		}
		if pay.InvoiceNo == "" {
			return pay, false
		}

		pay.InvoiceDate = row.date("invoice_date")
		pay.TransactionDate = row.date("transaction_date", "payment_date")
		pay.InvoiceAmount = row.decimal("invoice_amount")
		pay.RetainagePercent = row.decimal("retainage_percent")
		pay.RetainageAmount = row.decimal("retainage_amount")
		pay.CashAmount = row.decimal("cash_amount", "amount_paid")
		pay.Voided = row.flag("void_flag", "reversal")
		return pay, true
	})
}

// ParseJobBudgets reads the job budgets export
func (p *CSVParser) ParseJobBudgets(r io.Reader) (*Result[JobBudgetRow], error) {
	return parseRows(p, r, []string{"job_no"}, func(row *rowReader) (JobBudgetRow, bool) {
		job := JobBudgetRow{
			JobNo:          row.id("job_no", "job_number"),
			Description:    row.str("job_description"),
			CustomerNo:     row.id("customer_no", "customer_number"),
			CustomerName:   row.str("customer_name"),
			Status:         row.str("job_status", "status"),
			ProjectManager: row.str("project_manager_name", "project_manager"),
		}
		if job.JobNo == "" {
			return job, false
		}

		job.OriginalContract = row.decimal("original_contract")
		job.IncomeAdjustments = row.decimal("tot_income_adj", "contract_adjustments")
		job.OriginalCost = row.decimal("original_cost")
		job.CostAdjustments = row.decimal("tot_cost_adj", "cost_adjustments")
		return job, true
	})
}

// ParseJobAmounts reads a job-keyed amount export. amountColumns lists the
// accepted names of the amount column, first match wins.
func (p *CSVParser) ParseJobAmounts(r io.Reader, amountColumns ...string) (*Result[JobAmountRow], error) {
	if len(amountColumns) == 0 {
		return nil, fmt.Errorf("no amount column given")
	}
	return parseRows(p, r, []string{"job_no", amountColumns[0]}, func(row *rowReader) (JobAmountRow, bool) {
		amt := JobAmountRow{JobNo: row.id("job_no", "job_number")}
		if amt.JobNo == "" {
			return amt, false
		}
		amt.Amount = row.decimal(amountColumns...)
		return amt, true
	})
}

// parseRows is the shared read loop. Rows for which build reports false are
// counted as skipped and produce a warning.
func parseRows[T any](p *CSVParser, r io.Reader, required []string, build func(*rowReader) (T, bool)) (*Result[T], error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = p.TrimWhitespace
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("CSV file is empty")
	}

	headers := records[0]
	colMap := buildColumnMap(headers)
	for _, col := range required {
		if _, ok := colMap[normalizeHeader(col)]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, col)
		}
	}

	result := &Result[T]{Rows: make([]T, 0, len(records)-1)}
	for i, record := range records[1:] {
		rowNum := i + 2

		if p.SkipEmptyRows && isEmptyRecord(record) {
			continue
		}

		row := &rowReader{record: record, colMap: colMap, rowNum: rowNum}
		parsed, ok := build(row)
		result.Warnings = append(result.Warnings, row.warnings...)
		if !ok {
			result.Skipped++
			result.Warnings = append(result.Warnings, &ValidationError{
				Row:    rowNum,
				Column: required[0],
				Err:    fmt.Errorf("required field is empty, row skipped"),
			})
			continue
		}

		result.Rows = append(result.Rows, parsed)
	}

	return result, nil
}

// normalizeHeader lowercases a header and folds spaces to underscores so
// "Job No", "job_no" and "JOB_NO" all match
func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.TrimPrefix(h, "\ufeff")
	return strings.ReplaceAll(h, " ", "_")
}

// buildColumnMap creates a case-insensitive map of column name → index
func buildColumnMap(headers []string) map[string]int {
	m := make(map[string]int)
	for i, header := range headers {
		normalized := normalizeHeader(header)
		if _, dup := m[normalized]; !dup {
			m[normalized] = i
		}
	}
	return m
}

// getField returns the first non-blank value among the given column names
func getField(record []string, colMap map[string]int, names ...string) (string, string) {
	for _, name := range names {
		idx, ok := colMap[normalizeHeader(name)]
		if !ok || idx >= len(record) {
			continue
		}
		if v := strings.TrimSpace(record[idx]); v != "" {
			return v, name
		}
	}
	if len(names) > 0 {
		return "", names[0]
	}
	return "", ""
}

func isEmptyRecord(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// rowReader wraps one record and collects the warnings produced while
// coercing its cells
type rowReader struct {
	record   []string
	colMap   map[string]int
	rowNum   int
	warnings []*ValidationError
}

func (r *rowReader) str(names ...string) string {
	v, _ := getField(r.record, r.colMap, names...)
	return parseNullableString(v)
}

func (r *rowReader) id(names ...string) string {
	v, _ := getField(r.record, r.colMap, names...)
	return normalizeID(v)
}

func (r *rowReader) flag(names ...string) bool {
	v, _ := getField(r.record, r.colMap, names...)
	return parseBool(v)
}

func (r *rowReader) decimal(names ...string) *decimal.Decimal {
	v, col := getField(r.record, r.colMap, names...)
	d, err := parseNullableDecimal(v, r.rowNum, col)
	if err != nil {
		r.warn(err)
	}
	return d
}

func (r *rowReader) date(names ...string) *time.Time {
	v, col := getField(r.record, r.colMap, names...)
	t, err := parseNullableDate(v, r.rowNum, col)
	if err != nil {
		r.warn(err)
	}
	return t
}

func (r *rowReader) warn(err error) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		r.warnings = append(r.warnings, ve)
	}
}
