package billing

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/diewo77/facturacion-backend/internal/models"
)

// InvoiceService is the aggregate manager: it owns the invoice state machine
// (active -> voided, one-way) and guarantees that line items, stock deltas
// and totals always commit or roll back together.
type InvoiceService struct {
	db        *gorm.DB
	params    Params
	validator *Validator
	ledger    StockLedger
}

func NewInvoiceService(db *gorm.DB, params Params) *InvoiceService {
	return &InvoiceService{db: db, params: params, validator: NewValidator(db, params)}
}

// Validator exposes the service's validator for read-only pre-checks.
func (s *InvoiceService) Validator() *Validator { return s.validator }

// CreateResult is a successful creation plus any non-blocking warnings the
// validator produced (e.g. price drift).
type CreateResult struct {
	Invoice  *models.Invoice
	Warnings []string
}

// Create validates the candidate invoice and, if valid, persists the invoice,
// its lines, the stock reservations and the computed totals in one
// transaction. A validation failure returns *Rejection and mutates nothing.
func (s *InvoiceService) Create(input CreateInvoiceInput, userID uint) (*CreateResult, error) {
	res, err := s.validator.ValidateCreate(input)
	if err != nil {
		return nil, err
	}
	if !res.IsValid {
		return nil, &Rejection{Errors: res.Errors, Warnings: res.Warnings}
	}

	var customer models.Customer
	if err := s.db.First(&customer, input.CustomerID).Error; err != nil {
		return nil, err
	}

	inv := models.Invoice{
		Date:   time.Now(),
		Status: models.InvoiceStatusActive,
		// Snapshot: historical invoices stay stable even if the customer
		// record changes later.
		CustomerID:       customer.ID,
		CustomerDocument: customer.Document,
		CustomerName:     customer.Name,
		CustomerAddress:  customer.Address,
		CustomerPhone:    customer.Phone,
		Notes:            input.Notes,
		Active:           true,
		CreatedBy:        userID,
		UpdatedBy:        userID,
	}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&inv).Error; err != nil {
			return err
		}
		inv.Number = FormatInvoiceNumber(inv.ID)
		if err := tx.Model(&inv).Update("number", inv.Number).Error; err != nil {
			return err
		}
		for _, it := range input.Items {
			var art models.Article
			if err := tx.First(&art, it.ArticleID).Error; err != nil {
				return err
			}
			line := models.InvoiceLine{
				InvoiceID:          inv.ID,
				ArticleID:          art.ID,
				ArticleCode:        art.Code,
				ArticleName:        art.Name,
				ArticleDescription: art.Description,
				Quantity:           it.Quantity,
				UnitPrice:          it.UnitPrice,
				Subtotal:           lineSubtotal(it.Quantity, it.UnitPrice),
				Active:             true,
			}
			if err := tx.Create(&line).Error; err != nil {
				return err
			}
			if err := s.ledger.Reserve(tx, art.ID, it.Quantity); err != nil {
				return err
			}
		}
		return s.recalcTotals(tx, &inv, userID)
	})
	if err != nil {
		return nil, rejectStock(err)
	}
	return &CreateResult{Invoice: &inv, Warnings: res.Warnings}, nil
}

// AddLine appends a line to an active invoice, reserving stock and
// recalculating totals in one transaction.
func (s *InvoiceService) AddLine(invoiceID uint, item LineInput, userID uint) (*models.Invoice, error) {
	var inv models.Invoice
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.loadActiveInvoice(tx, invoiceID, &inv); err != nil {
			return err
		}
		if item.Quantity <= 0 {
			return reject("quantity must be greater than zero")
		}
		if !item.UnitPrice.IsPositive() {
			return reject("unit price must be greater than zero")
		}
		var art models.Article
		switch err := tx.First(&art, item.ArticleID).Error; {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return reject("article %d not found", item.ArticleID)
		case err != nil:
			return err
		case !art.Active:
			return reject("article %s is inactive", art.Code)
		}
		var dup int64
		if err := tx.Model(&models.InvoiceLine{}).
			Where("invoice_id = ? AND article_id = ? AND active = ?", inv.ID, art.ID, true).
			Count(&dup).Error; err != nil {
			return err
		}
		if dup > 0 {
			return reject("article %s is already on the invoice", art.Code)
		}
		if err := s.ledger.Reserve(tx, art.ID, item.Quantity); err != nil {
			return err
		}
		line := models.InvoiceLine{
			InvoiceID:          inv.ID,
			ArticleID:          art.ID,
			ArticleCode:        art.Code,
			ArticleName:        art.Name,
			ArticleDescription: art.Description,
			Quantity:           item.Quantity,
			UnitPrice:          item.UnitPrice,
			Subtotal:           lineSubtotal(item.Quantity, item.UnitPrice),
			Active:             true,
		}
		if err := tx.Create(&line).Error; err != nil {
			return err
		}
		return s.recalcTotals(tx, &inv, userID)
	})
	if err != nil {
		return nil, rejectStock(err)
	}
	return &inv, nil
}

// UpdateLine changes quantity and/or unit price of an active line. The stock
// delta is newQuantity-oldQuantity: increases must be covered by stock,
// decreases give stock back.
func (s *InvoiceService) UpdateLine(invoiceID, lineID uint, quantity int, unitPrice decimal.Decimal, userID uint) (*models.Invoice, error) {
	var inv models.Invoice
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.loadActiveInvoice(tx, invoiceID, &inv); err != nil {
			return err
		}
		if quantity <= 0 {
			return reject("quantity must be greater than zero")
		}
		if !unitPrice.IsPositive() {
			return reject("unit price must be greater than zero")
		}
		var line models.InvoiceLine
		if err := tx.Where("id = ? AND invoice_id = ? AND active = ?", lineID, invoiceID, true).
			First(&line).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if delta := quantity - line.Quantity; delta != 0 {
			if err := s.ledger.Adjust(tx, line.ArticleID, delta); err != nil {
				return err
			}
		}
		if err := tx.Model(&line).Updates(map[string]any{
			"quantity":   quantity,
			"unit_price": unitPrice,
			"subtotal":   lineSubtotal(quantity, unitPrice),
		}).Error; err != nil {
			return err
		}
		return s.recalcTotals(tx, &inv, userID)
	})
	if err != nil {
		return nil, rejectStock(err)
	}
	return &inv, nil
}

// RemoveLine soft-deletes a line, restoring its full quantity to stock.
func (s *InvoiceService) RemoveLine(invoiceID, lineID uint, userID uint) (*models.Invoice, error) {
	var inv models.Invoice
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.loadActiveInvoice(tx, invoiceID, &inv); err != nil {
			return err
		}
		var line models.InvoiceLine
		if err := tx.Where("id = ? AND invoice_id = ? AND active = ?", lineID, invoiceID, true).
			First(&line).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if err := s.ledger.Restore(tx, line.ArticleID, line.Quantity); err != nil {
			return err
		}
		if err := tx.Model(&line).Update("active", false).Error; err != nil {
			return err
		}
		return s.recalcTotals(tx, &inv, userID)
	})
	if err != nil {
		return nil, rejectStock(err)
	}
	return &inv, nil
}

// Void terminates an invoice: stock of every active line is restored once,
// the reason is appended to the notes with a timestamp, and the state flips
// to voided. Monetary fields and lines are left untouched so the invoice
// stays historically readable. Voiding twice fails with ErrAlreadyVoided.
func (s *InvoiceService) Void(invoiceID uint, reason string, userID uint) (*models.Invoice, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, reject("void reason is required")
	}
	var inv models.Invoice
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&inv, invoiceID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if inv.Status == models.InvoiceStatusVoided {
			return ErrAlreadyVoided
		}
		var lines []models.InvoiceLine
		if err := tx.Where("invoice_id = ? AND active = ?", inv.ID, true).Find(&lines).Error; err != nil {
			return err
		}
		for _, line := range lines {
			if err := s.ledger.Restore(tx, line.ArticleID, line.Quantity); err != nil {
				return err
			}
		}
		note := fmt.Sprintf("[%s] voided: %s", time.Now().Format(time.RFC3339), strings.TrimSpace(reason))
		if inv.Notes != "" {
			inv.Notes += "\n"
		}
		inv.Notes += note
		inv.Status = models.InvoiceStatusVoided
		inv.UpdatedBy = userID
		inv.Lines = lines
		return tx.Model(&models.Invoice{}).Where("id = ?", inv.ID).Updates(map[string]any{
			"status":     inv.Status,
			"notes":      inv.Notes,
			"updated_by": userID,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// PreviewTotals computes the totals a candidate line set would produce,
// without touching the database. Non-positive quantities or prices
// contribute nothing, mirroring how totals treat invalid lines.
func (s *InvoiceService) PreviewTotals(items []LineInput) Totals {
	subtotal := decimal.Zero
	for _, it := range items {
		if it.Quantity > 0 && it.UnitPrice.IsPositive() {
			subtotal = subtotal.Add(lineSubtotal(it.Quantity, it.UnitPrice))
		}
	}
	return ComputeTotals(subtotal, s.params)
}

// recalcTotals recomputes the invoice breakdown from its live active lines
// and writes the derived fields back, updating the in-memory copy too.
func (s *InvoiceService) recalcTotals(tx *gorm.DB, inv *models.Invoice, userID uint) error {
	var lines []models.InvoiceLine
	if err := tx.Where("invoice_id = ? AND active = ?", inv.ID, true).Find(&lines).Error; err != nil {
		return err
	}
	subtotal := decimal.Zero
	for _, line := range lines {
		subtotal = subtotal.Add(line.Subtotal)
	}
	t := ComputeTotals(subtotal, s.params)
	if err := tx.Model(&models.Invoice{}).Where("id = ?", inv.ID).Updates(map[string]any{
		"subtotal":         t.Subtotal,
		"discount_percent": t.DiscountPercent,
		"discount_value":   t.DiscountValue,
		"taxable_base":     t.TaxableBase,
		"tax_percent":      t.TaxPercent,
		"tax_value":        t.TaxValue,
		"total":            t.Total,
		"updated_by":       userID,
	}).Error; err != nil {
		return err
	}
	inv.Subtotal = t.Subtotal
	inv.DiscountPercent = t.DiscountPercent
	inv.DiscountValue = t.DiscountValue
	inv.TaxableBase = t.TaxableBase
	inv.TaxPercent = t.TaxPercent
	inv.TaxValue = t.TaxValue
	inv.Total = t.Total
	inv.UpdatedBy = userID
	inv.Lines = lines
	return nil
}

// loadActiveInvoice fetches the invoice and enforces the state machine:
// only active invoices accept line-item mutations.
func (s *InvoiceService) loadActiveInvoice(tx *gorm.DB, invoiceID uint, inv *models.Invoice) error {
	if err := tx.First(inv, invoiceID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if inv.Status == models.InvoiceStatusVoided {
		return ErrInvoiceVoided
	}
	return nil
}

// FormatInvoiceNumber derives the immutable display number from the row id.
func FormatInvoiceNumber(id uint) string {
	return fmt.Sprintf("FV-%06d", id)
}

func lineSubtotal(quantity int, unitPrice decimal.Decimal) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
}
