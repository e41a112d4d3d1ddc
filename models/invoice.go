package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// InvoiceStatus is the billing document state. "overdue" is never assigned by
// a background process; it is either set explicitly or derived at read time by
// filtering on due_date.
type InvoiceStatus string

const (
	InvoiceDraft         InvoiceStatus = "draft"
	InvoiceSent          InvoiceStatus = "sent"
	InvoicePartiallyPaid InvoiceStatus = "partially_paid"
	InvoicePaid          InvoiceStatus = "paid"
	InvoiceOverdue       InvoiceStatus = "overdue"
	InvoiceVoided        InvoiceStatus = "voided"
)

var invoiceTransitions = map[InvoiceStatus][]InvoiceStatus{
	InvoiceDraft:         {InvoiceSent, InvoiceVoided},
	InvoiceSent:          {InvoicePartiallyPaid, InvoicePaid, InvoiceOverdue, InvoiceVoided},
	InvoicePartiallyPaid: {InvoicePaid, InvoiceOverdue, InvoiceVoided},
	InvoiceOverdue:       {InvoicePartiallyPaid, InvoicePaid, InvoiceVoided},
	InvoicePaid:          {},
	InvoiceVoided:        {},
}

func (s InvoiceStatus) CanTransition(next InvoiceStatus) bool {
	for _, allowed := range invoiceTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// DefaultTaxRate applies to invoice items created without an explicit rate.
var DefaultTaxRate = decimal.NewFromFloat(0.16)

// Invoice is the billing document for a session. All monetary columns are
// numeric(12,2); arithmetic goes through shopspring/decimal, never float64.
type Invoice struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	InvoiceNumber string    `gorm:"size:30;uniqueIndex;not null" json:"invoice_number"`
	CompanyID     uuid.UUID `gorm:"type:uuid;not null;index" json:"company_id"`
	SessionID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"session_id"`
	ClientID      uuid.UUID `gorm:"type:uuid;not null;index" json:"client_id"`

	Status         InvoiceStatus   `gorm:"size:20;not null;default:'draft'" json:"status"`
	Subtotal       decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"subtotal"`
	TaxAmount      decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"tax_amount"`
	DiscountAmount decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"discount_amount"`
	Total          decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"total"`
	PaidAmount     decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"paid_amount"`
	BalanceDue     decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"balance_due"`

	IssuedAt *time.Time `json:"issued_at,omitempty"`
	DueDate  *time.Time `json:"due_date,omitempty"`
	Notes    string     `gorm:"type:text" json:"notes"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Items    []InvoiceItem `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
	Payments []Payment     `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE" json:"payments,omitempty"`
}

// InvoiceItem is one billed line: a job card task, a part, or a fee.
type InvoiceItem struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	InvoiceID uuid.UUID `gorm:"type:uuid;not null;index" json:"invoice_id"`

	Description string          `gorm:"size:255;not null" json:"description"`
	Quantity    decimal.Decimal `gorm:"type:numeric(10,2);not null;default:1" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"unit_price"`
	TaxRate     decimal.Decimal `gorm:"type:numeric(5,4);not null;default:0.16" json:"tax_rate"`
	LineTotal   decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"line_total"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Amount returns quantity × unit price, before tax.
func (it *InvoiceItem) Amount() decimal.Decimal {
	return it.Quantity.Mul(it.UnitPrice)
}

// Tax returns the item-level tax at the item's own rate.
func (it *InvoiceItem) Tax() decimal.Decimal {
	return it.Amount().Mul(it.TaxRate)
}

// Payment is one recorded payment against an invoice.
type Payment struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	InvoiceID uuid.UUID `gorm:"type:uuid;not null;index" json:"invoice_id"`

	Amount    decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`
	Method    string          `gorm:"size:30;not null" json:"method"` // cash, card, transfer, mobile_money
	Reference string          `gorm:"size:100" json:"reference"`
	PaidAt    time.Time       `gorm:"not null" json:"paid_at"`

	CreatedAt time.Time `json:"created_at"`
}

// Recalculate recomputes every derived monetary column from the loaded items
// and payments. It is a full recompute, not incremental maintenance, so
// running it twice is a no-op. Call it inside the same transaction that
// changed the items or payments.
func (inv *Invoice) Recalculate() {
	subtotal := decimal.Zero
	tax := decimal.Zero
	for i := range inv.Items {
		it := &inv.Items[i]
		it.LineTotal = it.Amount()
		subtotal = subtotal.Add(it.LineTotal)
		tax = tax.Add(it.Tax())
	}
	paid := decimal.Zero
	for i := range inv.Payments {
		paid = paid.Add(inv.Payments[i].Amount)
	}

	inv.Subtotal = subtotal
	inv.TaxAmount = tax.Round(2)
	inv.Total = inv.Subtotal.Add(inv.TaxAmount).Sub(inv.DiscountAmount)
	inv.PaidAmount = paid
	inv.BalanceDue = inv.Total.Sub(inv.PaidAmount)
}

// Transition moves the invoice to next after checking the transition table.
func (inv *Invoice) Transition(next InvoiceStatus) error {
	if !inv.Status.CanTransition(next) {
		return &InvalidTransitionError{Entity: "invoice", From: string(inv.Status), To: string(next)}
	}
	inv.Status = next
	if next == InvoiceSent && inv.IssuedAt == nil {
		now := time.Now()
		inv.IssuedAt = &now
	}
	return nil
}

// IsOverdue reports whether the invoice is past due with a balance remaining.
// Used by read-time query filters; the stored status is not flipped here.
func (inv *Invoice) IsOverdue(now time.Time) bool {
	if inv.DueDate == nil || inv.Status == InvoicePaid || inv.Status == InvoiceVoided {
		return false
	}
	return now.After(*inv.DueDate) && inv.BalanceDue.IsPositive()
}

func (inv *Invoice) BeforeCreate(tx *gorm.DB) (err error) {
	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
	}
	return
}

func (it *InvoiceItem) BeforeCreate(tx *gorm.DB) (err error) {
	if it.ID == uuid.Nil {
		it.ID = uuid.New()
	}
	return
}

func (p *Payment) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return
}
