package notify

import (
	"fmt"

	"github.com/gen2brain/beeep"
	"go.uber.org/zap"
)

// Desktop delivers events as OS notifications. Errors from the platform
// notification facility are logged and discarded.
type Desktop struct {
	logger *zap.Logger
}

// NewDesktop creates a desktop notifier. appName is shown as the
// notification source on platforms that support it.
func NewDesktop(appName string, logger *zap.Logger) *Desktop {
	if appName != "" {
		beeep.AppName = appName
	}
	return &Desktop{logger: logger}
}

// InvoiceCreated announces a newly created invoice
func (d *Desktop) InvoiceCreated(invoiceNumber, customerName string, amount float64) {
	d.send("Invoice Created",
		fmt.Sprintf("Invoice #%s for %s has been created.\nAmount: %s",
			invoiceNumber, customerName, formatAmount(amount)))
}

// InvoicePaid announces an invoice transitioning to Paid
func (d *Desktop) InvoicePaid(invoiceNumber, customerName string, amount float64) {
	d.send("Payment Received",
		fmt.Sprintf("Invoice #%s for %s has been marked as paid.\nAmount: %s",
			invoiceNumber, customerName, formatAmount(amount)))
}

// InvoiceDueSoon announces a pending invoice due within the scan window
func (d *Desktop) InvoiceDueSoon(invoiceNumber, customerName, dueDate string, amount float64) {
	d.send("Invoice Due Soon",
		fmt.Sprintf("Invoice #%s for %s is due on %s.\nAmount: %s",
			invoiceNumber, customerName, formatDate(dueDate), formatAmount(amount)))
}

// InvoiceOverdue announces a pending invoice past its due date
func (d *Desktop) InvoiceOverdue(invoiceNumber, customerName, dueDate string, amount float64) {
	d.send("Invoice Overdue",
		fmt.Sprintf("Invoice #%s for %s was due on %s.\nAmount: %s",
			invoiceNumber, customerName, formatDate(dueDate), formatAmount(amount)))
}

// ExportCompleted announces a finished export
func (d *Desktop) ExportCompleted(kind, fileName string) {
	d.send("Export Completed",
		fmt.Sprintf("Your %s export has been saved as %s", kind, fileName))
}

func (d *Desktop) send(title, body string) {
	if err := beeep.Notify(title, body, ""); err != nil {
		d.logger.Warn("Failed to deliver desktop notification",
			zap.String("title", title),
			zap.Error(err))
	}
}

var _ Notifier = (*Desktop)(nil)
