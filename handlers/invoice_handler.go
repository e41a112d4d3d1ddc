package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"p9e.in/garage/config"
	"p9e.in/garage/middleware"
	"p9e.in/garage/models"
)

// InvoiceHandler manages billing documents and keeps their totals consistent.
// Every mutation that touches items or payments recalculates inside the same
// transaction, so totals are never stale.
type InvoiceHandler struct {
	db *gorm.DB
}

func NewInvoiceHandler() *InvoiceHandler {
	return &InvoiceHandler{db: config.DB}
}

// CreateInvoiceRequest opens a draft invoice for a session
type CreateInvoiceRequest struct {
	DiscountAmount decimal.Decimal      `json:"discount_amount"`
	DueDate        *time.Time           `json:"due_date"`
	Notes          string               `json:"notes"`
	Items          []InvoiceItemRequest `json:"items"`
}

type InvoiceItemRequest struct {
	Description string           `json:"description"`
	Quantity    decimal.Decimal  `json:"quantity"`
	UnitPrice   decimal.Decimal  `json:"unit_price"`
	TaxRate     *decimal.Decimal `json:"tax_rate"`
}

// CreateInvoice opens a draft invoice for a session with initial line items.
func (h *InvoiceHandler) CreateInvoice(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	companyID := middleware.GetCompanyID(r)

	var req CreateInvoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON", err)
		return
	}
	if req.DiscountAmount.IsNegative() {
		writeError(w, http.StatusBadRequest, "discount_amount cannot be negative", nil)
		return
	}

	var session models.GarageSession
	if err := h.db.First(&session, "id = ? AND company_id = ?", vars["id"], companyID).Error; err != nil {
		writeServiceError(w, err)
		return
	}

	var existing models.Invoice
	if err := h.db.First(&existing, "session_id = ?", session.ID).Error; err == nil {
		writeError(w, http.StatusConflict, "session already has an invoice", nil)
		return
	}

	invoice := models.Invoice{
		CompanyID:      companyID,
		SessionID:      session.ID,
		ClientID:       session.ClientID,
		Status:         models.InvoiceDraft,
		DiscountAmount: req.DiscountAmount,
		DueDate:        req.DueDate,
		Notes:          req.Notes,
	}
	for _, item := range req.Items {
		invoice.Items = append(invoice.Items, buildInvoiceItem(item))
	}

	tx := h.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	number, err := nextInvoiceNumber(tx, companyID)
	if err != nil {
		tx.Rollback()
		writeError(w, http.StatusInternalServerError, "failed to allocate invoice number", err)
		return
	}
	invoice.InvoiceNumber = number
	invoice.Recalculate()

	if err := tx.Create(&invoice).Error; err != nil {
		tx.Rollback()
		log.Printf("❌ Failed to create invoice: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to create invoice", err)
		return
	}
	if err := tx.Commit().Error; err != nil {
		writeError(w, http.StatusInternalServerError, "failed to commit transaction", err)
		return
	}

	log.Printf("✅ Invoice %s opened for session %s (total %s)", invoice.InvoiceNumber, session.SessionNumber, invoice.Total)
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Invoice created successfully",
		"invoice": invoice,
	})
}

func buildInvoiceItem(req InvoiceItemRequest) models.InvoiceItem {
	qty := req.Quantity
	if qty.IsZero() {
		qty = decimal.NewFromInt(1)
	}
	rate := models.DefaultTaxRate
	if req.TaxRate != nil {
		rate = *req.TaxRate
	}
	return models.InvoiceItem{
		Description: req.Description,
		Quantity:    qty,
		UnitPrice:   req.UnitPrice,
		TaxRate:     rate,
	}
}

// nextInvoiceNumber allocates INV-<YYYYMM>-<seq> within the company and month.
func nextInvoiceNumber(tx *gorm.DB, companyID uuid.UUID) (string, error) {
	month := time.Now().Format("200601")
	prefix := fmt.Sprintf("INV-%s-", month)
	var count int64
	if err := tx.Model(&models.Invoice{}).
		Where("company_id = ? AND invoice_number LIKE ?", companyID, prefix+"%").
		Count(&count).Error; err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%04d", prefix, count+1), nil
}

// GetInvoice returns an invoice with items and payments.
func (h *InvoiceHandler) GetInvoice(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	companyID := middleware.GetCompanyID(r)

	var invoice models.Invoice
	if err := h.db.Preload("Items").Preload("Payments").
		First(&invoice, "id = ? AND company_id = ?", vars["id"], companyID).Error; err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, invoice)
}

// ListInvoices lists the company's invoices. ?overdue=true derives overdue at
// read time from due_date and balance; the stored status column is not consulted
// for that filter.
func (h *InvoiceHandler) ListInvoices(w http.ResponseWriter, r *http.Request) {
	companyID := middleware.GetCompanyID(r)

	query := h.db.Model(&models.Invoice{}).Where("company_id = ?", companyID)

	if status := r.URL.Query().Get("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if clientID := r.URL.Query().Get("client_id"); clientID != "" {
		query = query.Where("client_id = ?", clientID)
	}
	if r.URL.Query().Get("overdue") == "true" {
		query = query.Where("due_date < ? AND balance_due > 0 AND status NOT IN ?",
			time.Now(), []models.InvoiceStatus{models.InvoicePaid, models.InvoiceVoided})
	}

	var invoices []models.Invoice
	if err := query.Order("created_at DESC").Limit(100).Find(&invoices).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "failed to fetch invoices", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"invoices": invoices,
		"count":    len(invoices),
	})
}

// AddInvoiceItem appends a line item and recalculates in one transaction.
// Items can only be added while the invoice is a draft.
func (h *InvoiceHandler) AddInvoiceItem(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	companyID := middleware.GetCompanyID(r)

	var req InvoiceItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON", err)
		return
	}
	if req.Description == "" {
		writeError(w, http.StatusBadRequest, "description is required", nil)
		return
	}
	if req.UnitPrice.IsNegative() {
		writeError(w, http.StatusBadRequest, "unit_price cannot be negative", nil)
		return
	}

	var invoice models.Invoice
	if err := h.db.Preload("Items").Preload("Payments").
		First(&invoice, "id = ? AND company_id = ?", vars["id"], companyID).Error; err != nil {
		writeServiceError(w, err)
		return
	}
	if invoice.Status != models.InvoiceDraft {
		writeError(w, http.StatusConflict, "items can only be added to draft invoices", nil)
		return
	}

	item := buildInvoiceItem(req)
	item.InvoiceID = invoice.ID

	tx := h.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Create(&item).Error; err != nil {
		tx.Rollback()
		writeError(w, http.StatusInternalServerError, "failed to add item", err)
		return
	}

	invoice.Items = append(invoice.Items, item)
	invoice.Recalculate()
	if err := h.saveTotals(tx, &invoice); err != nil {
		tx.Rollback()
		writeError(w, http.StatusInternalServerError, "failed to recalculate invoice", err)
		return
	}
	if err := tx.Commit().Error; err != nil {
		writeError(w, http.StatusInternalServerError, "failed to commit transaction", err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Item added successfully",
		"invoice": invoice,
	})
}

// AddPaymentRequest records a payment against the invoice
type AddPaymentRequest struct {
	Amount    decimal.Decimal `json:"amount"`
	Method    string          `json:"method"`
	Reference string          `json:"reference"`
}

// AddPayment appends a payment and recalculates in one transaction. When the
// balance reaches zero the invoice moves to paid, otherwise to partially paid.
func (h *InvoiceHandler) AddPayment(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	companyID := middleware.GetCompanyID(r)

	var req AddPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON", err)
		return
	}
	if !req.Amount.IsPositive() {
		writeError(w, http.StatusBadRequest, "amount must be positive", nil)
		return
	}
	if req.Method == "" {
		writeError(w, http.StatusBadRequest, "method is required", nil)
		return
	}

	var invoice models.Invoice
	if err := h.db.Preload("Items").Preload("Payments").
		First(&invoice, "id = ? AND company_id = ?", vars["id"], companyID).Error; err != nil {
		writeServiceError(w, err)
		return
	}
	if invoice.Status == models.InvoiceVoided || invoice.Status == models.InvoicePaid {
		writeError(w, http.StatusConflict, "invoice does not accept payments", nil)
		return
	}

	payment := models.Payment{
		InvoiceID: invoice.ID,
		Amount:    req.Amount,
		Method:    req.Method,
		Reference: req.Reference,
		PaidAt:    time.Now(),
	}

	tx := h.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Create(&payment).Error; err != nil {
		tx.Rollback()
		writeError(w, http.StatusInternalServerError, "failed to record payment", err)
		return
	}

	invoice.Payments = append(invoice.Payments, payment)
	invoice.Recalculate()

	if !invoice.BalanceDue.IsPositive() {
		if invoice.Status.CanTransition(models.InvoicePaid) {
			invoice.Status = models.InvoicePaid
		}
	} else if invoice.Status.CanTransition(models.InvoicePartiallyPaid) {
		invoice.Status = models.InvoicePartiallyPaid
	}

	if err := h.saveTotals(tx, &invoice); err != nil {
		tx.Rollback()
		writeError(w, http.StatusInternalServerError, "failed to recalculate invoice", err)
		return
	}
	if err := tx.Commit().Error; err != nil {
		writeError(w, http.StatusInternalServerError, "failed to commit transaction", err)
		return
	}

	log.Printf("✅ Payment of %s recorded on invoice %s (balance %s)", req.Amount, invoice.InvoiceNumber, invoice.BalanceDue)
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Payment recorded successfully",
		"invoice": invoice,
	})
}

// UpdateInvoiceStatusRequest moves the invoice through its lifecycle
type UpdateInvoiceStatusRequest struct {
	Status models.InvoiceStatus `json:"status"`
}

// UpdateInvoiceStatus transitions the invoice status explicitly.
func (h *InvoiceHandler) UpdateInvoiceStatus(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	companyID := middleware.GetCompanyID(r)

	var req UpdateInvoiceStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON", err)
		return
	}
	if req.Status == "" {
		writeError(w, http.StatusBadRequest, "status is required", nil)
		return
	}

	var invoice models.Invoice
	if err := h.db.First(&invoice, "id = ? AND company_id = ?", vars["id"], companyID).Error; err != nil {
		writeServiceError(w, err)
		return
	}

	oldStatus := invoice.Status
	if err := invoice.Transition(req.Status); err != nil {
		writeServiceError(w, err)
		return
	}

	if err := h.db.Save(&invoice).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update invoice", err)
		return
	}

	log.Printf("✅ Invoice %s: %s -> %s", invoice.InvoiceNumber, oldStatus, invoice.Status)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Invoice status updated successfully",
		"invoice": invoice,
	})
}

// RecalculateInvoice forces a full recompute from stored items and payments.
func (h *InvoiceHandler) RecalculateInvoice(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	companyID := middleware.GetCompanyID(r)

	var invoice models.Invoice
	if err := h.db.Preload("Items").Preload("Payments").
		First(&invoice, "id = ? AND company_id = ?", vars["id"], companyID).Error; err != nil {
		writeServiceError(w, err)
		return
	}

	invoice.Recalculate()
	if err := h.saveTotals(h.db, &invoice); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to recalculate invoice", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Invoice recalculated successfully",
		"invoice": invoice,
	})
}

// saveTotals persists the derived monetary columns and refreshed line totals.
func (h *InvoiceHandler) saveTotals(tx *gorm.DB, invoice *models.Invoice) error {
	for i := range invoice.Items {
		item := &invoice.Items[i]
		if err := tx.Model(&models.InvoiceItem{}).
			Where("id = ?", item.ID).
			Update("line_total", item.LineTotal).Error; err != nil {
			return err
		}
	}
	return tx.Model(&models.Invoice{}).
		Where("id = ?", invoice.ID).
		Updates(map[string]interface{}{
			"subtotal":        invoice.Subtotal,
			"tax_amount":      invoice.TaxAmount,
			"discount_amount": invoice.DiscountAmount,
			"total":           invoice.Total,
			"paid_amount":     invoice.PaidAmount,
			"balance_due":     invoice.BalanceDue,
			"status":          invoice.Status,
		}).Error
}
