package reconcile

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/josh987123/ftg-foundation-data/internal/aging"
	"github.com/josh987123/ftg-foundation-data/internal/money"
)

// Ledger identifies which side of the books an invoice belongs to
type Ledger string

const (
	LedgerAR Ledger = "ar"
	LedgerAP Ledger = "ap"
)

// DateLayout is the output format for invoice and aging dates
const DateLayout = "2006-01-02"

// RetainageKind says how a retainage basis is expressed
type RetainageKind int

const (
	RetainageAmount RetainageKind = iota
	RetainagePercent
)

// Retainage is either a pre-computed amount or a percentage of the gross
// invoice amount
type Retainage struct {
	Kind  RetainageKind
	Value decimal.Decimal
}

// RetainageOfAmount builds a basis from a pre-computed amount
func RetainageOfAmount(v decimal.Decimal) Retainage {
	return Retainage{Kind: RetainageAmount, Value: v}
}

// RetainageOfPercent builds a basis from a percentage (10 means 10%)
func RetainageOfPercent(v decimal.Decimal) Retainage {
	return Retainage{Kind: RetainagePercent, Value: v}
}

// Resolve returns the retainage amount for an invoice of the given gross amount
func (r Retainage) Resolve(invoiceAmount decimal.Decimal) decimal.Decimal {
	if r.Kind == RetainagePercent {
		return money.PercentOf(invoiceAmount, r.Value)
	}
	return r.Value
}

// Invoice is one AR or AP invoice header
type Invoice struct {
	InvoiceNo        string
	CounterpartyNo   string
	CounterpartyName string
	JobNo            string
	JobDescription   string
	ProjectManager   string

	// Amount is the gross amount; negative for credit memos
	Amount      decimal.Decimal
	InvoiceDate time.Time // zero when unknown
	Retainage   Retainage

	// HeaderAmountDue is the header's own amount-due field. It can lag the
	// allocation ledger and is never used to decide what is open.
	HeaderAmountDue *decimal.Decimal
}

// CashApplication is a payment, receipt or credit applied to an invoice
type CashApplication struct {
	InvoiceNo       string
	Amount          decimal.Decimal
	Voided          bool
	TransactionDate time.Time // AP posting date; zero when unknown
}

// APInvoice is an AP invoice together with the payments made against it
type APInvoice struct {
	Invoice
	Payments []CashApplication
}

// ReconciledInvoice is an invoice that is still open as of the run date
type ReconciledInvoice struct {
	Ledger           Ledger          `json:"ledger"`
	InvoiceNo        string          `json:"invoice_no"`
	CounterpartyNo   string          `json:"counterparty_no"`
	CounterpartyName string          `json:"counterparty_name"`
	JobNo            string          `json:"job_no"`
	JobDescription   string          `json:"job_description"`
	ProjectManager   string          `json:"project_manager"`
	InvoiceDate      string          `json:"invoice_date"`
	AgingDate        string          `json:"aging_date"`
	InvoiceAmount    decimal.Decimal `json:"invoice_amount"`
	CashApplied      decimal.Decimal `json:"cash_applied"`
	TotalDue         decimal.Decimal `json:"total_due"`
	Retainage        decimal.Decimal `json:"retainage"`
	Collectible      decimal.Decimal `json:"collectible"`
	DaysOutstanding  int             `json:"days_outstanding"`
	AgingBucket      aging.Bucket    `json:"aging_bucket"`
}

// Options are the run-wide inputs shared by every invoice in a batch
type Options struct {
	// AsOf is the aging reference date, fixed once per run
	AsOf time.Time

	// ExcludedVendors lists AP vendor names dropped before reconciliation
	ExcludedVendors []string

	// Workers bounds batch fan-out; values below 1 mean sequential
	Workers int
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}
