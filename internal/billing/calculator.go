package billing

import "github.com/shopspring/decimal"

// Totals is the full breakdown derived from an invoice subtotal.
// DiscountPercent reports the rate actually applied: it is zero when the
// subtotal did not reach the threshold, even though the nominal rate is not.
type Totals struct {
	Subtotal        decimal.Decimal `json:"subtotal"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	DiscountValue   decimal.Decimal `json:"discount_value"`
	TaxableBase     decimal.Decimal `json:"taxable_base"`
	TaxPercent      decimal.Decimal `json:"tax_percent"`
	TaxValue        decimal.Decimal `json:"tax_value"`
	Total           decimal.Decimal `json:"total"`
}

var hundred = decimal.NewFromInt(100)

// ComputeDiscount returns the discount for a subtotal, rounded to 2 decimal
// places (half away from zero). Subtotals below the threshold earn nothing.
func ComputeDiscount(subtotal, percent, threshold decimal.Decimal) decimal.Decimal {
	if subtotal.LessThan(threshold) {
		return decimal.Zero
	}
	return subtotal.Mul(percent).Div(hundred).Round(2)
}

// ComputeTax returns the tax on a taxable base, rounded to 2 decimal places.
func ComputeTax(base, percent decimal.Decimal) decimal.Decimal {
	return base.Mul(percent).Div(hundred).Round(2)
}

// ComputeTotal combines the already-rounded parts: subtotal - discount + tax.
func ComputeTotal(subtotal, discount, tax decimal.Decimal) decimal.Decimal {
	return subtotal.Sub(discount).Add(tax)
}

// ComputeTotals derives the whole breakdown from a subtotal under the given
// parameters. Pure and deterministic, no I/O.
func ComputeTotals(subtotal decimal.Decimal, p Params) Totals {
	discount := ComputeDiscount(subtotal, p.DiscountPercent, p.DiscountThreshold)
	appliedPercent := p.DiscountPercent
	if discount.IsZero() {
		appliedPercent = decimal.Zero
	}
	base := subtotal.Sub(discount)
	tax := ComputeTax(base, p.TaxPercent)
	return Totals{
		Subtotal:        subtotal,
		DiscountPercent: appliedPercent,
		DiscountValue:   discount,
		TaxableBase:     base,
		TaxPercent:      p.TaxPercent,
		TaxValue:        tax,
		Total:           ComputeTotal(subtotal, discount, tax),
	}
}
