package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestRecalculateTotals(t *testing.T) {
	inv := &Invoice{
		Items: []InvoiceItem{
			{Description: "Brake pads", Quantity: d("2"), UnitPrice: d("100.00"), TaxRate: d("0.16")},
		},
	}

	inv.Recalculate()

	if !inv.Subtotal.Equal(d("200.00")) {
		t.Errorf("subtotal = %s, expected 200.00", inv.Subtotal)
	}
	if !inv.TaxAmount.Equal(d("32.00")) {
		t.Errorf("tax = %s, expected 32.00", inv.TaxAmount)
	}
	if !inv.Total.Equal(d("232.00")) {
		t.Errorf("total = %s, expected 232.00", inv.Total)
	}
	if !inv.BalanceDue.Equal(d("232.00")) {
		t.Errorf("balance = %s, expected 232.00", inv.BalanceDue)
	}
	if !inv.Items[0].LineTotal.Equal(d("200.00")) {
		t.Errorf("line total = %s, expected 200.00", inv.Items[0].LineTotal)
	}
}

func TestRecalculateWithPaymentAndDiscount(t *testing.T) {
	inv := &Invoice{
		DiscountAmount: d("10.00"),
		Items: []InvoiceItem{
			{Description: "Oil change", Quantity: d("1"), UnitPrice: d("50.00"), TaxRate: d("0.16")},
			{Description: "Oil filter", Quantity: d("1"), UnitPrice: d("150.00"), TaxRate: d("0.16")},
		},
		Payments: []Payment{
			{Amount: d("100.00"), Method: "cash"},
		},
	}

	inv.Recalculate()

	if !inv.Subtotal.Equal(d("200.00")) {
		t.Errorf("subtotal = %s, expected 200.00", inv.Subtotal)
	}
	if !inv.Total.Equal(d("222.00")) {
		t.Errorf("total = %s, expected 222.00", inv.Total)
	}
	if !inv.PaidAmount.Equal(d("100.00")) {
		t.Errorf("paid = %s, expected 100.00", inv.PaidAmount)
	}
	if !inv.BalanceDue.Equal(d("122.00")) {
		t.Errorf("balance = %s, expected 122.00", inv.BalanceDue)
	}
}

func TestRecalculateIsIdempotent(t *testing.T) {
	inv := &Invoice{
		Items: []InvoiceItem{
			{Description: "Diagnostics", Quantity: d("3"), UnitPrice: d("33.33"), TaxRate: d("0.16")},
		},
		Payments: []Payment{{Amount: d("50.00")}},
	}

	inv.Recalculate()
	total, balance := inv.Total, inv.BalanceDue
	inv.Recalculate()

	if !inv.Total.Equal(total) || !inv.BalanceDue.Equal(balance) {
		t.Errorf("second recalculate changed totals: %s/%s vs %s/%s", inv.Total, inv.BalanceDue, total, balance)
	}
}

func TestRecalculateFractionalTaxRounding(t *testing.T) {
	inv := &Invoice{
		Items: []InvoiceItem{
			{Description: "Wiper blade", Quantity: d("1"), UnitPrice: d("15.55"), TaxRate: d("0.16")},
		},
	}

	inv.Recalculate()

	// 15.55 * 0.16 = 2.488, rounds to 2.49
	if !inv.TaxAmount.Equal(d("2.49")) {
		t.Errorf("tax = %s, expected 2.49", inv.TaxAmount)
	}
}

func TestInvoiceTransitions(t *testing.T) {
	tests := []struct {
		name     string
		from     InvoiceStatus
		to       InvoiceStatus
		expected bool
	}{
		{"draft to sent", InvoiceDraft, InvoiceSent, true},
		{"draft to paid", InvoiceDraft, InvoicePaid, false},
		{"draft to voided", InvoiceDraft, InvoiceVoided, true},
		{"sent to partially paid", InvoiceSent, InvoicePartiallyPaid, true},
		{"sent to paid", InvoiceSent, InvoicePaid, true},
		{"partially paid to paid", InvoicePartiallyPaid, InvoicePaid, true},
		{"overdue accepts payment", InvoiceOverdue, InvoicePartiallyPaid, true},
		{"paid is terminal", InvoicePaid, InvoiceVoided, false},
		{"voided is terminal", InvoiceVoided, InvoiceSent, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.from.CanTransition(tt.to); got != tt.expected {
				t.Errorf("CanTransition(%s -> %s) = %v, expected %v", tt.from, tt.to, got, tt.expected)
			}
		})
	}
}

func TestTransitionToSentStampsIssuedAt(t *testing.T) {
	inv := &Invoice{Status: InvoiceDraft}
	if err := inv.Transition(InvoiceSent); err != nil {
		t.Fatalf("transition failed: %v", err)
	}
	if inv.IssuedAt == nil {
		t.Error("expected issued_at to be stamped on send")
	}
}

func TestIsOverdue(t *testing.T) {
	now := time.Now()
	yesterday := now.Add(-24 * time.Hour)
	tomorrow := now.Add(24 * time.Hour)

	tests := []struct {
		name     string
		invoice  Invoice
		expected bool
	}{
		{"past due with balance", Invoice{Status: InvoiceSent, DueDate: &yesterday, BalanceDue: d("10.00")}, true},
		{"past due fully paid", Invoice{Status: InvoicePaid, DueDate: &yesterday, BalanceDue: decimal.Zero}, false},
		{"not yet due", Invoice{Status: InvoiceSent, DueDate: &tomorrow, BalanceDue: d("10.00")}, false},
		{"no due date", Invoice{Status: InvoiceSent, BalanceDue: d("10.00")}, false},
		{"voided never overdue", Invoice{Status: InvoiceVoided, DueDate: &yesterday, BalanceDue: d("10.00")}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.invoice.IsOverdue(now); got != tt.expected {
				t.Errorf("IsOverdue = %v, expected %v", got, tt.expected)
			}
		})
	}
}
