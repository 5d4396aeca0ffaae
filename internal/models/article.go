package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Article is an inventory item sellable on invoices.
// Stock is mutated exclusively by billing.StockLedger; every other write path
// (handlers, seeds) must leave it alone so the on-hand count stays consistent
// with the sum of active invoice lines.
type Article struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	Code        string          `gorm:"size:40;unique;not null;index" json:"code"` // immutable business key
	Name        string          `gorm:"not null;index" json:"name"`
	Description string          `json:"description"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"unit_price"`
	Stock       int             `gorm:"not null;default:0" json:"stock"`
	MinStock    int             `gorm:"not null;default:0" json:"min_stock"`
	CategoryID  *uint           `gorm:"index" json:"category_id"`
	Category    *Category       `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Active      bool            `gorm:"not null;default:true" json:"active"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
