package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// InvoiceStatus represents the lifecycle state of an invoice.
type InvoiceStatus string

const (
	InvoiceStatusDraft   InvoiceStatus = "draft"
	InvoiceStatusSent    InvoiceStatus = "sent"
	InvoiceStatusPaid    InvoiceStatus = "paid"
	InvoiceStatusOverdue InvoiceStatus = "overdue"
)

// ValidStatus reports whether s is one of the known invoice statuses.
func ValidStatus(s InvoiceStatus) bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusSent, InvoiceStatusPaid, InvoiceStatusOverdue:
		return true
	}
	return false
}

// Invoice represents a billing invoice with its stored totals.
// Subtotal, TaxAmount and Total are always derived from the items plus
// DiscountPct and TaxRate; they are never edited independently.
type Invoice struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// UserID is the owner of this invoice (multi-tenant isolation).
	UserID uint `gorm:"uniqueIndex:idx_invoices_user_number;index;not null" json:"user_id"`
	User   User `gorm:"foreignKey:UserID" json:"-"`

	// Number is unique per user, not globally: every user starts their
	// own INV-<year>-0001 sequence.
	Number string `gorm:"size:50;uniqueIndex:idx_invoices_user_number;not null" json:"number"`

	ClientID uint    `gorm:"index;not null" json:"client_id"`
	Client   *Client `gorm:"foreignKey:ClientID" json:"client,omitempty"`

	Status InvoiceStatus `gorm:"size:20;default:'draft'" json:"status"`

	Subtotal    float64 `gorm:"not null" json:"subtotal"`
	DiscountPct float64 `gorm:"not null;default:0" json:"discount_pct"`
	TaxRate     float64 `gorm:"not null;default:0" json:"tax_rate"`
	TaxAmount   float64 `gorm:"not null" json:"tax_amount"`
	Total       float64 `gorm:"not null" json:"total"`

	Currency string `gorm:"size:3;not null;default:'USD'" json:"currency"`

	IssueDate time.Time `gorm:"not null" json:"issue_date"`
	DueDate   time.Time `gorm:"not null" json:"due_date"`

	Notes       string `gorm:"type:text" json:"notes,omitempty"`
	Terms       string `gorm:"type:text" json:"terms,omitempty"`
	PaymentLink string `gorm:"size:500" json:"payment_link,omitempty"`

	Items []InvoiceItem `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
}

// GetUserID implements the Ownable convention used for ownership checks.
func (i *Invoice) GetUserID() uint {
	return i.UserID
}

// IsDraft returns true if the invoice has not been sent yet.
func (i *Invoice) IsDraft() bool {
	return i.Status == InvoiceStatusDraft
}

// IsPaid returns true once the invoice has been settled.
func (i *Invoice) IsPaid() bool {
	return i.Status == InvoiceStatusPaid
}

// InvoiceItem is a single billable line on an invoice.
type InvoiceItem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	InvoiceID uint     `gorm:"index;not null" json:"invoice_id"`
	Invoice   *Invoice `gorm:"foreignKey:InvoiceID" json:"-"`

	Name        string `gorm:"size:255;not null" json:"name"`
	Description string `gorm:"size:500" json:"description,omitempty"`

	Quantity    int     `gorm:"not null;default:1" json:"quantity"`
	UnitPrice   float64 `gorm:"not null" json:"unit_price"`
	DiscountPct float64 `gorm:"not null;default:0" json:"discount_pct"`

	// Amount is the stored line amount: quantity * price * (1 - discount/100).
	Amount float64 `gorm:"not null" json:"amount"`
}

// FormatNumber builds an invoice number in the INV-YYYY-NNNN form.
// seq is the per-user sequence, 1-based.
func FormatNumber(year int, seq int64) string {
	return fmt.Sprintf("INV-%d-%04d", year, seq)
}

// NextNumber computes the next sequential invoice number for a user:
// existing invoice count + 1. Best effort only; two concurrent calls for
// the same user can observe the same count, and the unique index on
// (user_id, number) is what rejects the duplicate at write time.
func NextNumber(db *gorm.DB, userID uint, year int) (string, error) {
	var count int64
	if err := db.Model(&Invoice{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return "", err
	}
	return FormatNumber(year, count+1), nil
}
