package handler

import "github.com/shopspring/decimal"

// TaxRate is the VAT applied to every order subtotal.
var TaxRate = decimal.NewFromFloat(0.19)

// MaxSubtotal bounds an order subtotal so that subtotal, tax and total all fit in int64.
const MaxSubtotal int64 = 1_000_000_000_000_000

type Totals struct {
	Subtotal int64 `json:"subtotal"`
	Tax      int64 `json:"tax"`
	Total    int64 `json:"total"`
}

type LineAmount struct {
	Quantity  int64
	UnitPrice int64
}

// lineSubtotals sums quantity times unit price without overflowing.
func lineSubtotals(lines []LineAmount) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(decimal.NewFromInt(l.Quantity).Mul(decimal.NewFromInt(l.UnitPrice)))
	}
	return sum
}

// WithinLimit reports whether the subtotal of lines stays at or below MaxSubtotal.
func WithinLimit(lines []LineAmount) bool {
	return lineSubtotals(lines).LessThanOrEqual(decimal.NewFromInt(MaxSubtotal))
}

// ComputeTotals rounds tax half away from zero to whole minor units.
func ComputeTotals(lines []LineAmount) Totals {
	var subtotal int64
	for _, l := range lines {
		subtotal += l.Quantity * l.UnitPrice
	}
	tax := Tax(subtotal)
	return Totals{Subtotal: subtotal, Tax: tax, Total: subtotal + tax}
}

func Tax(subtotal int64) int64 {
	return decimal.NewFromInt(subtotal).Mul(TaxRate).Round(0).IntPart()
}
