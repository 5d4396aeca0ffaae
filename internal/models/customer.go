package models

import "time"

// Customer entity. Invoices copy the document/name/address/phone fields at
// creation time, so later edits here never rewrite invoicing history.
type Customer struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Document  string    `gorm:"size:40;unique;not null;index" json:"document"`
	Name      string    `gorm:"not null;index" json:"name"`
	Address   string    `json:"address"`
	Phone     string    `json:"phone"`
	Email     string    `gorm:"index" json:"email"`
	Active    bool      `gorm:"not null;default:true" json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
