package billing

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/diewo77/facturacion-backend/internal/models"
)

// LineInput is one candidate invoice line as submitted by the client.
type LineInput struct {
	ArticleID uint            `json:"article_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// CreateInvoiceInput is the candidate invoice submitted for validation/creation.
type CreateInvoiceInput struct {
	CustomerID uint        `json:"customer_id"`
	Items      []LineInput `json:"items"`
	Notes      string      `json:"notes"`
}

// ValidationResult accumulates blocking errors and non-blocking warnings.
// Totals is attached only when no errors were produced.
type ValidationResult struct {
	IsValid  bool     `json:"is_valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
	Totals   *Totals  `json:"totals,omitempty"`
}

// Validator runs read-only checks against current entity state. It never
// mutates anything; the stock ledger re-checks sufficiency at commit time as
// the last-line guard.
type Validator struct {
	db     *gorm.DB
	params Params
}

func NewValidator(db *gorm.DB, params Params) *Validator {
	return &Validator{db: db, params: params}
}

// ValidateCreate checks a candidate invoice. The returned error is reserved
// for storage failures; business problems land in the result's Errors slice.
func (v *Validator) ValidateCreate(input CreateInvoiceInput) (ValidationResult, error) {
	var res ValidationResult
	addErr := func(format string, args ...any) {
		res.Errors = append(res.Errors, fmt.Sprintf(format, args...))
	}
	addWarn := func(format string, args ...any) {
		res.Warnings = append(res.Warnings, fmt.Sprintf(format, args...))
	}

	var customer models.Customer
	switch err := v.db.First(&customer, input.CustomerID).Error; {
	case errors.Is(err, gorm.ErrRecordNotFound):
		addErr("customer %d not found", input.CustomerID)
	case err != nil:
		return res, err
	case !customer.Active:
		addErr("customer %d is inactive", input.CustomerID)
	}

	// A customer problem does not stop line-item validation, but an empty
	// item list makes every per-item check moot.
	if len(input.Items) == 0 {
		addErr("invoice requires at least one line item")
		return res, nil
	}

	if len(input.Items) > v.params.MaxLineItems {
		addErr("invoice has %d line items; the maximum is %d", len(input.Items), v.params.MaxLineItems)
	}

	seen := make(map[uint]bool, len(input.Items))
	subtotal := decimal.Zero
	for i, it := range input.Items {
		n := i + 1
		if seen[it.ArticleID] {
			addErr("item %d: article %d appears more than once on the invoice", n, it.ArticleID)
		}
		seen[it.ArticleID] = true

		if it.Quantity > v.params.MaxQuantity {
			addErr("item %d: quantity %d exceeds the maximum of %d", n, it.Quantity, v.params.MaxQuantity)
		}
		if it.UnitPrice.GreaterThan(v.params.MaxUnitPrice) {
			addErr("item %d: unit price %s exceeds the maximum of %s", n, it.UnitPrice, v.params.MaxUnitPrice)
		}

		var art models.Article
		switch err := v.db.First(&art, it.ArticleID).Error; {
		case errors.Is(err, gorm.ErrRecordNotFound):
			addErr("item %d: article %d not found", n, it.ArticleID)
			continue
		case err != nil:
			return res, err
		case !art.Active:
			addErr("item %d: article %s is inactive", n, art.Code)
			continue
		}

		validQty := it.Quantity > 0
		validPrice := it.UnitPrice.IsPositive()
		if !validQty {
			addErr("item %d: quantity must be greater than zero", n)
		}
		if !validPrice {
			addErr("item %d: unit price must be greater than zero", n)
		}
		if validQty && it.Quantity > art.Stock {
			addErr("item %d: insufficient stock for article %s: requested %d, available %d",
				n, art.Code, it.Quantity, art.Stock)
		}
		if validPrice && art.UnitPrice.IsPositive() {
			drift := it.UnitPrice.Sub(art.UnitPrice).Abs().Div(art.UnitPrice).Mul(hundred)
			if drift.GreaterThan(v.params.PriceDriftPercent) {
				addWarn("item %d: unit price %s deviates %s%% from current price %s of article %s",
					n, it.UnitPrice, drift.Round(1), art.UnitPrice, art.Code)
			}
		}
		if validQty && validPrice {
			subtotal = subtotal.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
		}
	}

	totals := ComputeTotals(subtotal, v.params)
	if totals.Total.GreaterThan(v.params.MaxTotal) {
		addErr("invoice total %s exceeds the maximum of %s", totals.Total, v.params.MaxTotal)
	}

	if len(res.Errors) == 0 {
		res.IsValid = true
		res.Totals = &totals
	}
	return res, nil
}
