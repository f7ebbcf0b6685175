package reconcile

import (
	"errors"
	"fmt"
	"strings"

	"github.com/josh987123/ftg-foundation-data/internal/batch"
)

var (
	// ErrEmptyResult means a whole dataset reconciled to nothing, which points
	// at an upstream extraction failure rather than a clean ledger
	ErrEmptyResult = errors.New("reconciliation produced no open invoices")

	// ErrMissingLedger means the allocation ledger needed to settle invoices
	// was not supplied at all
	ErrMissingLedger = errors.New("allocation ledger is missing")
)

// CashLedger indexes cash applications by invoice number. A nil CashLedger
// means the ledger was never loaded; an empty one means no cash was applied.
type CashLedger map[string][]CashApplication

// NewCashLedger groups applications by their trimmed invoice number
func NewCashLedger(apps []CashApplication) CashLedger {
	ledger := make(CashLedger)
	for _, app := range apps {
		key := strings.TrimSpace(app.InvoiceNo)
		ledger[key] = append(ledger[key], app)
	}
	return ledger
}

// ReconcileARBatch reconciles every receivable against the ledger. Output
// order follows input order.
func ReconcileARBatch(invoices []Invoice, ledger CashLedger, opts Options) ([]ReconciledInvoice, error) {
	if ledger == nil {
		return nil, fmt.Errorf("ar: %w", ErrMissingLedger)
	}

	results := batch.Map(len(invoices), opts.Workers, func(i int) (ReconciledInvoice, bool) {
		inv := invoices[i]
		row := ReconcileAR(inv, ledger[strings.TrimSpace(inv.InvoiceNo)], opts.AsOf)
		if row == nil {
			return ReconciledInvoice{}, false
		}
		return *row, true
	})

	if len(results) == 0 {
		return nil, fmt.Errorf("ar: %d invoices in: %w", len(invoices), ErrEmptyResult)
	}
	return results, nil
}

// ReconcileAPBatch drops deny-listed vendors and reconciles the remaining
// payables. Output order follows input order.
func ReconcileAPBatch(invoices []APInvoice, opts Options) ([]ReconciledInvoice, error) {
	filter := NewVendorFilter(opts.ExcludedVendors)

	results := batch.Map(len(invoices), opts.Workers, func(i int) (ReconciledInvoice, bool) {
		inv := invoices[i]
		if filter.Excluded(inv.CounterpartyName) {
			return ReconciledInvoice{}, false
		}
		row := ReconcileAP(inv.Invoice, inv.Payments, opts.AsOf)
		if row == nil {
			return ReconciledInvoice{}, false
		}
		return *row, true
	})

	if len(results) == 0 {
		return nil, fmt.Errorf("ap: %d invoices in: %w", len(invoices), ErrEmptyResult)
	}
	return results, nil
}

// VendorFilter matches vendor names against a deny-list
type VendorFilter struct {
	names map[string]struct{}
}

// NewVendorFilter builds a filter from exact vendor names. Surrounding
// whitespace is ignored on both sides.
func NewVendorFilter(names []string) VendorFilter {
	f := VendorFilter{names: make(map[string]struct{}, len(names))}
	for _, n := range names {
		f.names[strings.TrimSpace(n)] = struct{}{}
	}
	return f
}

// Excluded reports whether the vendor is deny-listed
func (f VendorFilter) Excluded(vendor string) bool {
	_, ok := f.names[strings.TrimSpace(vendor)]
	return ok
}

// APLine is one row of the denormalized AP payments export: the invoice
// header repeated next to a single payment
type APLine struct {
	Invoice Invoice
	Payment *CashApplication // nil when the row carries no payment
}

type apKey struct {
	invoiceNo string
	vendor    string
	jobNo     string
}

// GroupAPLines folds payment rows into one APInvoice per (invoice, vendor,
// job). The earliest known invoice date and the largest amount and retainage
// seen win. Groups come out in first-seen order.
func GroupAPLines(lines []APLine) []APInvoice {
	index := make(map[apKey]int)
	var grouped []APInvoice

	for _, line := range lines {
		inv := line.Invoice
		key := apKey{
			invoiceNo: strings.TrimSpace(inv.InvoiceNo),
			vendor:    strings.TrimSpace(inv.CounterpartyName),
			jobNo:     strings.TrimSpace(inv.JobNo),
		}

		pos, ok := index[key]
		if !ok {
			pos = len(grouped)
			index[key] = pos
			grouped = append(grouped, APInvoice{Invoice: inv})
		} else {
			mergeHeader(&grouped[pos].Invoice, inv)
		}

		if line.Payment != nil {
			grouped[pos].Payments = append(grouped[pos].Payments, *line.Payment)
		}
	}

	return grouped
}

func mergeHeader(dst *Invoice, src Invoice) {
	if !src.InvoiceDate.IsZero() && (dst.InvoiceDate.IsZero() || src.InvoiceDate.Before(dst.InvoiceDate)) {
		dst.InvoiceDate = src.InvoiceDate
	}
	if src.Amount.GreaterThan(dst.Amount) {
		dst.Amount = src.Amount
	}
	dst.Retainage = largerRetainage(dst.Retainage, src.Retainage)

	if dst.JobDescription == "" {
		dst.JobDescription = src.JobDescription
	}
	if dst.ProjectManager == "" {
		dst.ProjectManager = src.ProjectManager
	}
}

// largerRetainage keeps a pre-computed amount over a percentage, otherwise
// the larger value
func largerRetainage(a, b Retainage) Retainage {
	if a.Kind != b.Kind {
		if a.Kind == RetainageAmount {
			return a
		}
		return b
	}
	if b.Value.GreaterThan(a.Value) {
		return b
	}
	return a
}
