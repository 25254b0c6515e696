package service

// PricedLine is a line with its final unit price and clamped quantity.
type PricedLine struct {
	Quantity       int
	UnitPriceCents int64
}

// Totals are the monetary sums of a quote, all in cents.
type Totals struct {
	SubtotalCents int64
	TaxCents      int64
	TotalCents    int64
}

// LineTotal returns quantity times unit price.
func LineTotal(quantity int, unitPriceCents int64) int64 {
	return int64(quantity) * unitPriceCents
}

// ComputeTax rounds subtotal*bps/10000 half up.
func ComputeTax(subtotalCents, taxRateBps int64) int64 {
	if subtotalCents <= 0 || taxRateBps <= 0 {
		return 0
	}
	return (subtotalCents*taxRateBps + 5000) / 10000
}

// CalculateTotals sums the lines and applies a single tax rate to the subtotal.
func CalculateTotals(lines []PricedLine, taxRateBps int64) Totals {
	var subtotal int64
	for _, line := range lines {
		subtotal += LineTotal(line.Quantity, line.UnitPriceCents)
	}
	tax := ComputeTax(subtotal, taxRateBps)
	return Totals{
		SubtotalCents: subtotal,
		TaxCents:      tax,
		TotalCents:    subtotal + tax,
	}
}
