package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/mitgajera/InvoicePro/auth"
	"github.com/mitgajera/InvoicePro/httpx"
	"github.com/mitgajera/InvoicePro/internal/models"
	pdfgen "github.com/mitgajera/InvoicePro/internal/pdf"
	"github.com/mitgajera/InvoicePro/internal/services"
	"github.com/mitgajera/InvoicePro/validation"

	"gorm.io/gorm"
)

// InvoiceHandler is the HTTP boundary over the invoice record manager.
type InvoiceHandler struct {
	DB  *gorm.DB
	Svc *services.InvoiceService
}

func NewInvoiceHandler(db *gorm.DB, svc *services.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{DB: db, Svc: svc}
}

// List: GET /invoices, optionally narrowed with ?status=.
func (h *InvoiceHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	invoices, err := h.Svc.List(userID)
	if err != nil {
		log.Printf("list invoices: %v", err)
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_invoices", nil)
		return
	}
	if status := r.URL.Query().Get("status"); status != "" {
		if !models.ValidStatus(models.InvoiceStatus(status)) {
			httpx.JSONError(w, http.StatusBadRequest, "invalid_status", nil)
			return
		}
		invoices = services.FilterByStatus(invoices, models.InvoiceStatus(status))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": invoices, "total": len(invoices)})
}

func (h *InvoiceHandler) Get(w http.ResponseWriter, r *http.Request) {
	inv, ok := h.load(w, r)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

type itemReq struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	DiscountPct float64 `json:"discount_pct"`
}

type createInvoiceReq struct {
	ClientID    uint       `json:"client_id"`
	Items       []itemReq  `json:"items"`
	DiscountPct float64    `json:"discount_pct"`
	TaxRate     float64    `json:"tax_rate"`
	Currency    string     `json:"currency"`
	IssueDate   *time.Time `json:"issue_date"`
	DueDate     *time.Time `json:"due_date"`
	Notes       string     `json:"notes"`
	Terms       string     `json:"terms"`
}

func validateItems(items []itemReq, v validation.Violations) []models.InvoiceItem {
	out := make([]models.InvoiceItem, 0, len(items))
	for i, it := range items {
		field := func(name string) string { return fmt.Sprintf("items[%d].%s", i, name) }
		validation.Required(field("name"), it.Name, v)
		validation.MinInt(field("quantity"), it.Quantity, 1, v)
		validation.NonNegative(field("unit_price"), it.UnitPrice, v)
		validation.Percent(field("discount_pct"), it.DiscountPct, v)
		out = append(out, models.InvoiceItem{
			Name:        it.Name,
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			DiscountPct: it.DiscountPct,
		})
	}
	return out
}

// Create: POST /invoices.
func (h *InvoiceHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	var req createInvoiceReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	v := make(validation.Violations)
	if req.ClientID == 0 {
		v["client_id"] = "required"
	}
	if len(req.Items) == 0 {
		v["items"] = "required"
	}
	validation.Percent("discount_pct", req.DiscountPct, v)
	validation.Percent("tax_rate", req.TaxRate, v)
	items := validateItems(req.Items, v)
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}

	fields := services.InvoiceFields{
		DiscountPct: req.DiscountPct,
		TaxRate:     req.TaxRate,
		Currency:    req.Currency,
		Notes:       req.Notes,
		Terms:       req.Terms,
	}
	if req.IssueDate != nil {
		fields.IssueDate = *req.IssueDate
	}
	if req.DueDate != nil {
		fields.DueDate = *req.DueDate
	}

	inv, err := h.Svc.Create(userID, req.ClientID, items, fields)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.JSONError(w, http.StatusBadRequest, "unknown_client", nil)
			return
		}
		log.Printf("create invoice: %v", err)
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_create_invoice", nil)
		return
	}
	httpx.JSON(w, http.StatusCreated, inv)
}

// Update: PUT /invoices/{id}. A body carrying "items" replaces the line
// items and re-derives totals; other fields patch as given.
func (h *InvoiceHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	id, ok := pathID(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	var req struct {
		services.InvoicePatch
		Items []itemReq `json:"items"`
	}
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	v := make(validation.Violations)
	if req.DiscountPct != nil {
		validation.Percent("discount_pct", *req.DiscountPct, v)
	}
	if req.TaxRate != nil {
		validation.Percent("tax_rate", *req.TaxRate, v)
	}
	items := validateItems(req.Items, v)
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}

	inv, err := h.Svc.Update(id, userID, req.InvoicePatch)
	if err == nil && len(items) > 0 {
		inv, err = h.Svc.UpdateItems(id, userID, items)
	}
	if err != nil {
		h.writeSvcError(w, err, "failed_to_update_invoice")
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

// Delete: DELETE /invoices/{id}. Items go via cascade.
func (h *InvoiceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	id, ok := pathID(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	if err := h.Svc.Delete(id, userID); err != nil {
		h.writeSvcError(w, err, "failed_to_delete_invoice")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// Send: POST /invoices/{id}/send.
func (h *InvoiceHandler) Send(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	id, ok := pathID(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	inv, err := h.Svc.Send(id, userID)
	if err != nil {
		h.writeSvcError(w, err, "failed_to_send_invoice")
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

// MarkPaid: POST /invoices/{id}/pay.
func (h *InvoiceHandler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	id, ok := pathID(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	inv, err := h.Svc.MarkPaid(id, userID)
	if err != nil {
		h.writeSvcError(w, err, "failed_to_mark_paid")
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

// MarkOverdue: POST /invoices/{id}/overdue.
func (h *InvoiceHandler) MarkOverdue(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	id, ok := pathID(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	inv, err := h.Svc.MarkOverdue(id, userID)
	if err != nil {
		h.writeSvcError(w, err, "failed_to_mark_overdue")
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

// PDF: GET /invoices/{id}/pdf streams the rendered document as
// Invoice-<number>.pdf.
func (h *InvoiceHandler) PDF(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	inv, ok := h.load(w, r)
	if !ok {
		return
	}
	var seller pdfgen.Seller
	var user models.User
	if err := h.DB.First(&user, userID).Error; err == nil {
		seller = pdfgen.Seller{Name: user.Name, Company: user.Company, Address: user.Address, Phone: user.Phone, Email: user.Email}
	}
	data, err := pdfgen.Render(inv, seller)
	if err != nil {
		log.Printf("render invoice pdf: %v", err)
		httpx.JSONError(w, http.StatusInternalServerError, "pdf_generation_failed", nil)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", pdfgen.Filename(inv.Number)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *InvoiceHandler) load(w http.ResponseWriter, r *http.Request) (*models.Invoice, bool) {
	userID, _ := auth.UserIDFromContext(r.Context())
	id, ok := pathID(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return nil, false
	}
	inv, err := h.Svc.Get(id, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
			return nil, false
		}
		log.Printf("load invoice: %v", err)
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_load_invoice", nil)
		return nil, false
	}
	return inv, true
}

func (h *InvoiceHandler) writeSvcError(w http.ResponseWriter, err error, generic string) {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
	case errors.Is(err, services.ErrNoItems):
		httpx.JSONError(w, http.StatusBadRequest, "items_required", nil)
	case errors.Is(err, services.ErrInvalidTransition):
		httpx.JSONError(w, http.StatusConflict, "invalid_transition", nil)
	default:
		log.Printf("invoice operation: %v", err)
		httpx.JSONError(w, http.StatusInternalServerError, generic, nil)
	}
}
