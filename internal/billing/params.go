package billing

import "github.com/shopspring/decimal"

// Params carries the billing configuration used by the calculator and the
// validator. It is always passed explicitly so the core stays testable; the
// values are sourced from the environment in internal/config, never read as
// ambient state here.
type Params struct {
	// DiscountPercent applies when an invoice subtotal reaches DiscountThreshold.
	DiscountPercent   decimal.Decimal
	DiscountThreshold decimal.Decimal
	TaxPercent        decimal.Decimal

	// Business limits checked by the validator.
	MaxLineItems int
	MaxQuantity  int
	MaxUnitPrice decimal.Decimal
	MaxTotal     decimal.Decimal

	// PriceDriftPercent is the deviation from the article's current price
	// beyond which a non-blocking warning is emitted.
	PriceDriftPercent decimal.Decimal
}

// DefaultParams returns the stock configuration: 5% discount above 500000,
// 19% tax, and the standard business limits.
func DefaultParams() Params {
	return Params{
		DiscountPercent:   decimal.NewFromInt(5),
		DiscountThreshold: decimal.NewFromInt(500000),
		TaxPercent:        decimal.NewFromInt(19),
		MaxLineItems:      50,
		MaxQuantity:       1000,
		MaxUnitPrice:      decimal.NewFromInt(50_000_000),
		MaxTotal:          decimal.NewFromInt(100_000_000),
		PriceDriftPercent: decimal.NewFromInt(20),
	}
}
