package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Invoice lifecycle states. The transition is one-way: active -> voided.
const (
	InvoiceStatusActive = "active"
	InvoiceStatusVoided = "voided"
)

// Invoicing models.
// Customer fields are denormalized copies captured when the invoice is
// created; they must never be refreshed from the customers table afterwards.
type Invoice struct {
	ID     uint      `gorm:"primaryKey" json:"id"`
	Number string    `gorm:"size:20;uniqueIndex" json:"number"` // derived from ID, immutable once assigned
	Date   time.Time `gorm:"not null" json:"date"`
	Status string    `gorm:"size:10;not null;default:'active';index" json:"status"`

	CustomerID       uint   `gorm:"not null;index" json:"customer_id"`
	CustomerDocument string `gorm:"size:40;not null" json:"customer_document"`
	CustomerName     string `gorm:"not null" json:"customer_name"`
	CustomerAddress  string `json:"customer_address"`
	CustomerPhone    string `json:"customer_phone"`

	Subtotal        decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"subtotal"`
	DiscountPercent decimal.Decimal `gorm:"type:decimal(5,2);not null" json:"discount_percent"`
	DiscountValue   decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"discount_value"`
	TaxableBase     decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"taxable_base"`
	TaxPercent      decimal.Decimal `gorm:"type:decimal(5,2);not null" json:"tax_percent"`
	TaxValue        decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"tax_value"`
	Total           decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"total"`

	Notes string        `json:"notes"`
	Lines []InvoiceLine `gorm:"foreignKey:InvoiceID" json:"lines,omitempty"`

	Active    bool      `gorm:"not null;default:true" json:"active"`
	CreatedBy uint      `json:"created_by"`
	UpdatedBy uint      `json:"updated_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// InvoiceLine carries a snapshot of the article (code/name/description) taken
// at line creation. UnitPrice may legitimately differ from the article's
// current price. Soft-deleting a line (Active=false) reverses its stock
// effect and excludes it from totals.
type InvoiceLine struct {
	ID        uint `gorm:"primaryKey" json:"id"`
	InvoiceID uint `gorm:"not null;index" json:"invoice_id"`
	ArticleID uint `gorm:"not null;index" json:"article_id"`

	ArticleCode        string `gorm:"size:40;not null" json:"article_code"`
	ArticleName        string `gorm:"not null" json:"article_name"`
	ArticleDescription string `json:"article_description"`

	Quantity  int             `gorm:"not null" json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"unit_price"`
	Subtotal  decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"subtotal"`

	Active    bool      `gorm:"not null;default:true" json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
