// Package reconcile decides which AR and AP invoices are still open and
// computes their balance, capped retainage, collectible amount and aging.
//
// Rule order for every invoice:
//  1. sum non-voided cash
//  2. total_due = round(amount - cash, 2)
//  3. total_due == 0 means the invoice does not exist in the open universe,
//     whatever retainage it still shows
//  4. retainage = round(clamp(basis, 0, max(total_due, 0)), 2)
//  5. collectible = total_due - retainage
//  6. days outstanding and bucket from the aging date
package reconcile

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/josh987123/ftg-foundation-data/internal/aging"
	"github.com/josh987123/ftg-foundation-data/internal/money"
)

// AppliedCash sums the cash applications, skipping voided ones
func AppliedCash(cash []CashApplication) decimal.Decimal {
	total := decimal.Zero
	for _, c := range cash {
		if c.Voided {
			continue
		}
		total = total.Add(c.Amount)
	}
	return total
}

// ReconcileAR reconciles one receivable against its cash applications.
// It returns nil when the invoice is settled.
func ReconcileAR(inv Invoice, cash []CashApplication, asOf time.Time) *ReconciledInvoice {
	applied := AppliedCash(cash)

	// The allocation ledger wins over a stale header amount due
	if settledByAllocation(inv.Amount, applied) {
		return nil
	}

	totalDue := money.Round(inv.Amount.Sub(applied))
	if totalDue.IsZero() {
		return nil
	}

	basis := inv.Retainage.Resolve(inv.Amount)
	return newReconciled(LedgerAR, inv, applied, totalDue, basis, inv.InvoiceDate, asOf)
}

// settledByAllocation reports whether cumulative applied cash covers a
// positive invoice in full
func settledByAllocation(amount, applied decimal.Decimal) bool {
	return amount.IsPositive() && applied.GreaterThanOrEqual(amount)
}

// ReconcileAP reconciles one payable against its payments. Aging runs from
// the most recent payment posting, or the invoice date when nothing has
// posted. Retainage is released last: payments satisfy the non-retainage
// portion first. Returns nil unless a positive balance remains.
func ReconcileAP(inv Invoice, payments []CashApplication, asOf time.Time) *ReconciledInvoice {
	applied := AppliedCash(payments)

	totalDue := money.Round(inv.Amount.Sub(applied))
	if !totalDue.IsPositive() {
		return nil
	}

	original := inv.Retainage.Resolve(inv.Amount)
	remaining := RemainingRetainage(inv.Amount, original, applied)

	agingDate := LastPostingDate(payments)
	if agingDate.IsZero() {
		agingDate = inv.InvoiceDate
	}

	return newReconciled(LedgerAP, inv, applied, totalDue, remaining, agingDate, asOf)
}

// RemainingRetainage returns how much of the original retainage is still
// withheld once applied cash has first covered amount - original.
func RemainingRetainage(amount, original, applied decimal.Decimal) decimal.Decimal {
	nonRetainage := amount.Sub(original)
	intoRetainage := money.Max(applied.Sub(nonRetainage), decimal.Zero)
	return money.Max(original.Sub(intoRetainage), decimal.Zero)
}

// LastPostingDate returns the latest transaction date among non-voided
// payments, or the zero time
func LastPostingDate(payments []CashApplication) time.Time {
	var last time.Time
	for _, p := range payments {
		if p.Voided || p.TransactionDate.IsZero() {
			continue
		}
		if p.TransactionDate.After(last) {
			last = p.TransactionDate
		}
	}
	return last
}

func newReconciled(
	ledger Ledger,
	inv Invoice,
	applied, totalDue, retainageBasis decimal.Decimal,
	agingDate, asOf time.Time,
) *ReconciledInvoice {
	retainage := money.Round(money.Clamp(retainageBasis, decimal.Zero, money.Max(totalDue, decimal.Zero)))
	days := aging.DaysOutstanding(agingDate, asOf)

	return &ReconciledInvoice{
		Ledger:           ledger,
		InvoiceNo:        inv.InvoiceNo,
		CounterpartyNo:   inv.CounterpartyNo,
		CounterpartyName: inv.CounterpartyName,
		JobNo:            inv.JobNo,
		JobDescription:   inv.JobDescription,
		ProjectManager:   inv.ProjectManager,
		InvoiceDate:      formatDate(inv.InvoiceDate),
		AgingDate:        formatDate(agingDate),
		InvoiceAmount:    money.Round(inv.Amount),
		CashApplied:      money.Round(applied),
		TotalDue:         totalDue,
		Retainage:        retainage,
		Collectible:      totalDue.Sub(retainage),
		DaysOutstanding:  days,
		AgingBucket:      aging.Classify(days),
	}
}
