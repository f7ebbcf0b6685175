package metrics

import (
	"github.com/shopspring/decimal"

	"github.com/josh987123/ftg-foundation-data/internal/money"
)

// ProfitBasis records which formula produced a job's profit
type ProfitBasis string

const (
	BasisActual         ProfitBasis = "actual"
	BasisActualFallback ProfitBasis = "actual_fallback"
	BasisProjected      ProfitBasis = "projected"
)

// ProfitInput is everything the profit rules look at
type ProfitInput struct {
	Closed          bool
	RevisedContract decimal.Decimal
	RevisedCost     decimal.Decimal
	ActualCost      decimal.Decimal
	Billed          decimal.Decimal
	EarnedRevenue   decimal.Decimal
}

// ProfitResult is the unrounded outcome of the first matching rule
type ProfitResult struct {
	Profit decimal.Decimal
	Margin decimal.Decimal
	Basis  ProfitBasis
}

// ProfitRule pairs a guard with the formula applied when it matches
type ProfitRule struct {
	Basis   ProfitBasis
	Applies func(ProfitInput) bool
	Compute func(ProfitInput) (profit, margin decimal.Decimal)
}

// profitRules are evaluated in order; the first match wins. The last rule
// always applies.
var profitRules = []ProfitRule{
	{
		Basis:   BasisActual,
		Applies: func(in ProfitInput) bool { return in.Closed },
		Compute: actualProfit,
	},
	{
		// billed before any budget-based earning has accrued
		Basis: BasisActualFallback,
		Applies: func(in ProfitInput) bool {
			return in.EarnedRevenue.IsZero() && in.Billed.IsPositive()
		},
		Compute: actualProfit,
	},
	{
		Basis:   BasisProjected,
		Applies: func(ProfitInput) bool { return true },
		Compute: projectedProfit,
	},
}

// SelectProfit runs the profit rules against in
func SelectProfit(in ProfitInput) ProfitResult {
	for _, rule := range profitRules {
		if rule.Applies(in) {
			profit, margin := rule.Compute(in)
			return ProfitResult{Profit: profit, Margin: margin, Basis: rule.Basis}
		}
	}
	// unreachable while the last rule is unconditional
	profit, margin := projectedProfit(in)
	return ProfitResult{Profit: profit, Margin: margin, Basis: BasisProjected}
}

func actualProfit(in ProfitInput) (decimal.Decimal, decimal.Decimal) {
	profit := in.Billed.Sub(in.ActualCost)
	return profit, money.Percent(profit, in.Billed)
}

func projectedProfit(in ProfitInput) (decimal.Decimal, decimal.Decimal) {
	profit := in.RevisedContract.Sub(in.RevisedCost)
	return profit, money.Percent(profit, in.RevisedContract)
}
