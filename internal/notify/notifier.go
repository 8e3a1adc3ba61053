// Package notify delivers best-effort desktop notifications for invoice
// lifecycle events. Delivery failures never propagate to the operation that
// triggered them.
package notify

import (
	"fmt"
	"time"
)

// Notifier receives lifecycle events after the triggering transaction has
// committed. Implementations must be safe to call from multiple goroutines
// and must not return delivery errors to the caller.
type Notifier interface {
	InvoiceCreated(invoiceNumber, customerName string, amount float64)
	InvoicePaid(invoiceNumber, customerName string, amount float64)
	InvoiceDueSoon(invoiceNumber, customerName, dueDate string, amount float64)
	InvoiceOverdue(invoiceNumber, customerName, dueDate string, amount float64)
	ExportCompleted(kind, fileName string)
}

// Nop is a Notifier that silently drops every event, for platforms without
// notification support or when notifications are disabled.
type Nop struct{}

func (Nop) InvoiceCreated(string, string, float64)         {}
func (Nop) InvoicePaid(string, string, float64)            {}
func (Nop) InvoiceDueSoon(string, string, string, float64) {}
func (Nop) InvoiceOverdue(string, string, string, float64) {}
func (Nop) ExportCompleted(string, string)                 {}

func formatAmount(amount float64) string {
	return fmt.Sprintf("$%.2f", amount)
}

// formatDate renders an ISO date string for display. Unparseable input is
// shown as-is.
func formatDate(isoDate string) string {
	t, err := time.Parse("2006-01-02", isoDate)
	if err != nil {
		return isoDate
	}
	return t.Format("Jan 2, 2006")
}
