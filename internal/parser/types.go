package parser

import (
	"time"

	"github.com/shopspring/decimal"
)

// ARInvoiceRow represents a parsed row from the AR invoice header export
type ARInvoiceRow struct {
	// Core identifiers
	InvoiceNo  string
	CustomerNo string
	JobNo      string

	// Context carried through to the aging report
	CustomerName   string
	JobDescription string
	ProjectManager string

	InvoiceDate *time.Time

	// Amounts
	InvoiceAmount    *decimal.Decimal
	RetainagePercent *decimal.Decimal
	RetainageAmount  *decimal.Decimal
	AmountDue        *decimal.Decimal // header field, may be stale
}

// CashApplicationRow represents one receipt line applied to an AR invoice
type CashApplicationRow struct {
	InvoiceNo     string
	ReceiptNo     string
	AppliedAmount *decimal.Decimal
	Reversed      bool
}

// APPaymentRow represents a parsed row from the AP payments export. The
// invoice header repeats on every payment row.
type APPaymentRow struct {
	InvoiceNo  string
	VendorName string
	JobNo      string

	JobDescription string
	ProjectManager string

	InvoiceDate     *time.Time
	TransactionDate *time.Time

	InvoiceAmount    *decimal.Decimal
	RetainagePercent *decimal.Decimal
	RetainageAmount  *decimal.Decimal

	// Payment
	CashAmount *decimal.Decimal // nil when the row has no payment
	Voided     bool
}

// JobBudgetRow represents a parsed row from the job budgets export
type JobBudgetRow struct {
	JobNo          string
	Description    string
	CustomerNo     string
	CustomerName   string
	Status         string
	ProjectManager string

	// Contract and cost
	OriginalContract  *decimal.Decimal
	IncomeAdjustments *decimal.Decimal
	OriginalCost      *decimal.Decimal
	CostAdjustments   *decimal.Decimal
}

// JobAmountRow is a job-keyed amount from the actuals or billed revenue
// exports
type JobAmountRow struct {
	JobNo  string
	Amount *decimal.Decimal
}
