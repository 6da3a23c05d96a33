package model

import "github.com/shopspring/decimal"

// TotalsTolerance bounds accepted rounding differences in order arithmetic.
var TotalsTolerance = decimal.RequireFromString("0.01")

// Subtotal sums line item amounts.
func Subtotal(items []LineItem) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(it.Amount())
	}
	return sum
}

// WithinTolerance reports whether a and b differ by no more than TotalsTolerance.
func WithinTolerance(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(TotalsTolerance)
}
