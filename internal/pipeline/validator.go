package pipeline

import (
	"fmt"
	"sort"
	"strings"

	"github.com/josh987123/ftg-foundation-data/internal/money"
	"github.com/josh987123/ftg-foundation-data/internal/reconcile"
)

// ValidationResult contains data quality warnings. None of them stop a run.
type ValidationResult struct {
	// AR invoices whose header amount due disagrees with the ledger
	StaleHeaders []string
	// Ledger entries for invoice numbers not in the AR export
	UnmatchedCash []string
	// Jobs with actuals or billings but no budget row
	OrphanJobs []string

	Warnings []string
}

// ValidateInputs cross-checks the parsed datasets
func ValidateInputs(in *Inputs) *ValidationResult {
	result := &ValidationResult{
		StaleHeaders:  make([]string, 0),
		UnmatchedCash: make([]string, 0),
		OrphanJobs:    make([]string, 0),
		Warnings:      make([]string, 0),
	}

	// Check for stale header amounts
	known := make(map[string]bool, len(in.ARInvoices))
	for _, inv := range in.ARInvoices {
		no := strings.TrimSpace(inv.InvoiceNo)
		known[no] = true
		if inv.HeaderAmountDue == nil || in.Ledger == nil {
			continue
		}
		due := money.Round(inv.Amount.Sub(reconcile.AppliedCash(in.Ledger[no])))
		if !money.Round(*inv.HeaderAmountDue).Equal(due) {
			result.StaleHeaders = append(result.StaleHeaders, no)
		}
	}
	if len(result.StaleHeaders) > 0 {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Found %d AR invoices whose header amount due disagrees with the cash ledger", len(result.StaleHeaders)))
	}

	// Check for cash applied to unknown invoices
	for no := range in.Ledger {
		if !known[no] {
			result.UnmatchedCash = append(result.UnmatchedCash, no)
		}
	}
	sort.Strings(result.UnmatchedCash)
	if len(result.UnmatchedCash) > 0 {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Found %d cash applications for invoices not in the AR export", len(result.UnmatchedCash)))
	}

	// Check for aggregates without a budget
	jobs := make(map[string]bool, len(in.Jobs))
	for _, j := range in.Jobs {
		jobs[strings.TrimSpace(j.JobNo)] = true
	}
	orphans := make(map[string]bool)
	for no := range in.Aggregates.ActualCost {
		if !jobs[no] {
			orphans[no] = true
		}
	}
	for no := range in.Aggregates.Billed {
		if !jobs[no] {
			orphans[no] = true
		}
	}
	for no := range orphans {
		result.OrphanJobs = append(result.OrphanJobs, no)
	}
	sort.Strings(result.OrphanJobs)
	if len(result.OrphanJobs) > 0 {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Found %d jobs with costs or billings but no budget", len(result.OrphanJobs)))
	}

	return result
}
