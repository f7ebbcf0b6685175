package money

import (
	"github.com/shopspring/decimal"
)

// Places is the number of decimal places reported for currency values
const Places = 2

var hundred = decimal.NewFromInt(100)

// Round rounds to cents, half away from zero
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Places)
}

// IsZeroCents reports whether d is zero once rounded to cents
func IsZeroCents(d decimal.Decimal) bool {
	return Round(d).IsZero()
}

// Max returns the larger of a and b
func Max(a, b decimal.Decimal) decimal.Decimal {
	if a.GreaterThan(b) {
		return a
	}
	return b
}

// Min returns the smaller of a and b
func Min(a, b decimal.Decimal) decimal.Decimal {
	if a.LessThan(b) {
		return a
	}
	return b
}

// Clamp bounds d to [lo, hi]. When hi < lo the result is lo.
func Clamp(d, lo, hi decimal.Decimal) decimal.Decimal {
	return Max(Min(d, hi), lo)
}

// Ratio returns num / den, or zero when den is not positive.
// Callers never see a division by zero.
func Ratio(num, den decimal.Decimal) decimal.Decimal {
	if !den.IsPositive() {
		return decimal.Zero
	}
	return num.Div(den)
}

// Percent returns num / den * 100, or zero when den is not positive
func Percent(num, den decimal.Decimal) decimal.Decimal {
	return Ratio(num, den).Mul(hundred)
}

// PercentOf resolves pct percent of amount, rounded to cents
func PercentOf(amount, pct decimal.Decimal) decimal.Decimal {
	return Round(amount.Mul(pct).Div(hundred))
}

// Sum adds all values
func Sum(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}
