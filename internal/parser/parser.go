package parser

import (
	"fmt"
	"io"
)

// Parser defines the interface for parsing accounting export files
type Parser interface {
	ParseARInvoices(r io.Reader) (*Result[ARInvoiceRow], error)
	ParseCashApplications(r io.Reader) (*Result[CashApplicationRow], error)
	ParseAPPayments(r io.Reader) (*Result[APPaymentRow], error)
	ParseJobBudgets(r io.Reader) (*Result[JobBudgetRow], error)
	ParseJobAmounts(r io.Reader, amountColumns ...string) (*Result[JobAmountRow], error)
}

// Result contains the parsed rows and any row-level warnings. Warnings never
// abort a parse; the offending value is treated as blank.
type Result[T any] struct {
	Rows     []T
	Warnings []*ValidationError
	Skipped  int
}

// WarningStrings renders the warnings for logs and health output
func (r *Result[T]) WarningStrings() []string {
	out := make([]string, 0, len(r.Warnings))
	for _, w := range r.Warnings {
		out = append(out, w.Error())
	}
	return out
}

// ValidationError represents a parsing error with context
type ValidationError struct {
	Row    int
	Column string
	Value  string
	Err    error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("row %d, column %s: failed to parse '%s': %v",
		e.Row, e.Column, e.Value, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}
