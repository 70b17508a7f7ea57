package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/mitgajera/InvoicePro/internal/models"

	"gorm.io/gorm"
)

// ErrNoItems is returned when creating an invoice without line items.
var ErrNoItems = errors.New("invoice requires at least one item")

// ErrInvalidTransition is returned for a disallowed status change,
// e.g. sending an invoice that was already paid.
var ErrInvalidTransition = errors.New("invalid status transition")

// InvoiceService coordinates invoice + item persistence as a unit:
// number generation, total derivation through the calculator, ownership
// scoping, and status transitions. Store errors surface unchanged.
type InvoiceService struct {
	db *gorm.DB

	// paymentBaseURL is the prefix stamped onto payment links when an
	// invoice is sent, e.g. https://pay.invoicepro.com.
	paymentBaseURL string
}

func NewInvoiceService(db *gorm.DB, paymentBaseURL string) *InvoiceService {
	return &InvoiceService{db: db, paymentBaseURL: paymentBaseURL}
}

// List returns all invoices owned by the user, newest-created-first,
// with client and items eagerly attached.
func (s *InvoiceService) List(userID uint) ([]models.Invoice, error) {
	var invoices []models.Invoice
	err := s.db.Where("user_id = ?", userID).
		Preload("Client").
		Preload("Items").
		Order("created_at desc, id desc").
		Find(&invoices).Error
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	return invoices, nil
}

// Get fetches a single invoice owned by the user with client and items.
func (s *InvoiceService) Get(invoiceID, userID uint) (*models.Invoice, error) {
	var inv models.Invoice
	err := s.db.Where("id = ? AND user_id = ?", invoiceID, userID).
		Preload("Client").
		Preload("Items").
		First(&inv).Error
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// GenerateNumber computes the next sequential invoice number for the
// user. Best effort: not atomic against concurrent calls, the unique
// index on number is the backstop.
func (s *InvoiceService) GenerateNumber(userID uint) (string, error) {
	return models.NextNumber(s.db, userID, time.Now().Year())
}

// InvoiceFields are the caller-supplied invoice attributes for Create.
type InvoiceFields struct {
	DiscountPct float64
	TaxRate     float64
	Currency    string
	IssueDate   time.Time
	DueDate     time.Time
	Notes       string
	Terms       string
}

// Create validates that at least one item is present, checks the client
// belongs to the user, derives all totals through the calculator, and
// writes the invoice row plus its item rows in one transaction, so an
// item-write failure cannot leave an orphaned invoice behind.
func (s *InvoiceService) Create(userID, clientID uint, items []models.InvoiceItem, fields InvoiceFields) (*models.Invoice, error) {
	if len(items) == 0 {
		return nil, ErrNoItems
	}
	var client models.Client
	if err := s.db.Where("id = ? AND user_id = ?", clientID, userID).First(&client).Error; err != nil {
		return nil, err
	}

	currency := fields.Currency
	if currency == "" {
		currency = "USD"
	}
	issueDate := fields.IssueDate
	if issueDate.IsZero() {
		issueDate = time.Now()
	}
	dueDate := fields.DueDate
	if dueDate.IsZero() {
		dueDate = issueDate.AddDate(0, 1, 0)
	}

	for i := range items {
		items[i].ID = 0
		items[i].Amount = ItemAmount(items[i])
	}
	subtotal := Subtotal(items)
	totals := ComputeTotals(subtotal, fields.DiscountPct, fields.TaxRate)

	inv := models.Invoice{
		UserID:      userID,
		ClientID:    clientID,
		Status:      models.InvoiceStatusDraft,
		Subtotal:    subtotal,
		DiscountPct: fields.DiscountPct,
		TaxRate:     fields.TaxRate,
		TaxAmount:   totals.TaxAmount,
		Total:       totals.Total,
		Currency:    currency,
		IssueDate:   issueDate,
		DueDate:     dueDate,
		Notes:       fields.Notes,
		Terms:       fields.Terms,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		// Numbered by creation year, not issue year, so a back-dated
		// issue date cannot diverge from the GenerateNumber preview.
		number, err := models.NextNumber(tx, userID, time.Now().Year())
		if err != nil {
			return err
		}
		inv.Number = number
		if err := tx.Create(&inv).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].InvoiceID = inv.ID
		}
		if err := tx.Create(&items).Error; err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("create invoice: %w", err)
	}
	inv.Items = items
	inv.Client = &client
	return &inv, nil
}

// InvoicePatch carries partial invoice updates. Totals are not
// re-derived here: a caller changing discount or tax supplies the
// recomputed subtotal/tax/total alongside, or replaces items through
// UpdateItems which recomputes everything.
type InvoicePatch struct {
	ClientID    *uint                 `json:"client_id"`
	Status      *models.InvoiceStatus `json:"status"`
	Subtotal    *float64              `json:"subtotal"`
	DiscountPct *float64              `json:"discount_pct"`
	TaxRate     *float64              `json:"tax_rate"`
	TaxAmount   *float64              `json:"tax_amount"`
	Total       *float64              `json:"total"`
	Currency    *string               `json:"currency"`
	IssueDate   *time.Time            `json:"issue_date"`
	DueDate     *time.Time            `json:"due_date"`
	Notes       *string               `json:"notes"`
	Terms       *string               `json:"terms"`
}

// Update applies a partial field update after the ownership check.
func (s *InvoiceService) Update(invoiceID, userID uint, patch InvoicePatch) (*models.Invoice, error) {
	inv, err := s.Get(invoiceID, userID)
	if err != nil {
		return nil, err
	}
	if patch.ClientID != nil {
		var client models.Client
		if err := s.db.Where("id = ? AND user_id = ?", *patch.ClientID, userID).First(&client).Error; err != nil {
			return nil, err
		}
		inv.ClientID = *patch.ClientID
		inv.Client = &client
	}
	if patch.Status != nil {
		if !models.ValidStatus(*patch.Status) {
			return nil, ErrInvalidTransition
		}
		// Paid invoices never revert, and nothing goes back to draft.
		if inv.Status == models.InvoiceStatusPaid && *patch.Status != models.InvoiceStatusPaid {
			return nil, ErrInvalidTransition
		}
		if *patch.Status == models.InvoiceStatusDraft && inv.Status != models.InvoiceStatusDraft {
			return nil, ErrInvalidTransition
		}
		inv.Status = *patch.Status
	}
	if patch.Subtotal != nil {
		inv.Subtotal = *patch.Subtotal
	}
	if patch.DiscountPct != nil {
		inv.DiscountPct = *patch.DiscountPct
	}
	if patch.TaxRate != nil {
		inv.TaxRate = *patch.TaxRate
	}
	if patch.TaxAmount != nil {
		inv.TaxAmount = *patch.TaxAmount
	}
	if patch.Total != nil {
		inv.Total = *patch.Total
	}
	if patch.Currency != nil {
		inv.Currency = *patch.Currency
	}
	if patch.IssueDate != nil {
		inv.IssueDate = *patch.IssueDate
	}
	if patch.DueDate != nil {
		inv.DueDate = *patch.DueDate
	}
	if patch.Notes != nil {
		inv.Notes = *patch.Notes
	}
	if patch.Terms != nil {
		inv.Terms = *patch.Terms
	}
	if err := s.db.Omit("Items", "Client").Save(inv).Error; err != nil {
		return nil, fmt.Errorf("update invoice: %w", err)
	}
	return inv, nil
}

// UpdateItems replaces the invoice's line items wholesale and re-derives
// subtotal, tax and total from the new items, transactionally.
func (s *InvoiceService) UpdateItems(invoiceID, userID uint, items []models.InvoiceItem) (*models.Invoice, error) {
	if len(items) == 0 {
		return nil, ErrNoItems
	}
	inv, err := s.Get(invoiceID, userID)
	if err != nil {
		return nil, err
	}
	for i := range items {
		items[i].ID = 0
		items[i].InvoiceID = inv.ID
		items[i].Amount = ItemAmount(items[i])
	}
	subtotal := Subtotal(items)
	totals := ComputeTotals(subtotal, inv.DiscountPct, inv.TaxRate)

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("invoice_id = ?", inv.ID).Delete(&models.InvoiceItem{}).Error; err != nil {
			return err
		}
		if err := tx.Create(&items).Error; err != nil {
			return err
		}
		return tx.Model(&models.Invoice{}).Where("id = ?", inv.ID).Updates(map[string]any{
			"subtotal":   subtotal,
			"tax_amount": totals.TaxAmount,
			"total":      totals.Total,
		}).Error
	})
	if err != nil {
		return nil, fmt.Errorf("update invoice items: %w", err)
	}
	return s.Get(invoiceID, userID)
}

// Delete removes an invoice owned by the user; items go with it via the
// cascading relationship.
func (s *InvoiceService) Delete(invoiceID, userID uint) error {
	inv, err := s.Get(invoiceID, userID)
	if err != nil {
		return err
	}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		// sqlite builds may run without foreign_keys pragma, so clear
		// items explicitly alongside the cascade constraint.
		if err := tx.Where("invoice_id = ?", inv.ID).Delete(&models.InvoiceItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Invoice{}, inv.ID).Error
	})
	if err != nil {
		return fmt.Errorf("delete invoice: %w", err)
	}
	return nil
}

// MarkPaid transitions an invoice to paid from any status. Idempotent:
// marking a paid invoice paid again is a no-op, not an error.
func (s *InvoiceService) MarkPaid(invoiceID, userID uint) (*models.Invoice, error) {
	inv, err := s.Get(invoiceID, userID)
	if err != nil {
		return nil, err
	}
	if inv.Status == models.InvoiceStatusPaid {
		return inv, nil
	}
	if err := s.db.Model(inv).Update("status", models.InvoiceStatusPaid).Error; err != nil {
		return nil, fmt.Errorf("mark paid: %w", err)
	}
	inv.Status = models.InvoiceStatusPaid
	return inv, nil
}

// Send transitions draft -> sent and stamps the payment link. Sending
// an already-sent invoice refreshes the link; paid and overdue invoices
// cannot be sent.
func (s *InvoiceService) Send(invoiceID, userID uint) (*models.Invoice, error) {
	inv, err := s.Get(invoiceID, userID)
	if err != nil {
		return nil, err
	}
	if inv.Status != models.InvoiceStatusDraft && inv.Status != models.InvoiceStatusSent {
		return nil, ErrInvalidTransition
	}
	link := fmt.Sprintf("%s/pay/%d", s.paymentBaseURL, inv.ID)
	updates := map[string]any{
		"status":       models.InvoiceStatusSent,
		"payment_link": link,
	}
	if err := s.db.Model(inv).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("send invoice: %w", err)
	}
	inv.Status = models.InvoiceStatusSent
	inv.PaymentLink = link
	return inv, nil
}

// MarkOverdue transitions sent -> overdue. Stored status is the single
// source of truth for overdue-ness; callers reconciling against due
// dates invoke this explicitly rather than deriving it at query time.
func (s *InvoiceService) MarkOverdue(invoiceID, userID uint) (*models.Invoice, error) {
	inv, err := s.Get(invoiceID, userID)
	if err != nil {
		return nil, err
	}
	if inv.Status == models.InvoiceStatusOverdue {
		return inv, nil
	}
	if inv.Status != models.InvoiceStatusSent {
		return nil, ErrInvalidTransition
	}
	if err := s.db.Model(inv).Update("status", models.InvoiceStatusOverdue).Error; err != nil {
		return nil, fmt.Errorf("mark overdue: %w", err)
	}
	inv.Status = models.InvoiceStatusOverdue
	return inv, nil
}

// FilterByStatus is a pure in-memory filter over an already-loaded
// collection; it looks only at the stored status field.
func FilterByStatus(invoices []models.Invoice, status models.InvoiceStatus) []models.Invoice {
	out := make([]models.Invoice, 0, len(invoices))
	for _, inv := range invoices {
		if inv.Status == status {
			out = append(out, inv)
		}
	}
	return out
}
