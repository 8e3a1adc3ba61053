package models

import "time"

// Invoice status values. Overdue is a stored status only when the user sets
// it; the due-date scan classifies invoices without rewriting their status.
const (
	StatusPending   = "Pending"
	StatusPaid      = "Paid"
	StatusOverdue   = "Overdue"
	StatusCancelled = "Cancelled"
)

// Invoice is the scalar part of the invoice aggregate. Dates are ISO 8601
// date strings (YYYY-MM-DD). Subtotal, tax and total are derived from the
// line items and the tax rate; the service recomputes them on every write.
type Invoice struct {
	ID            int64     `json:"invoice_id"`
	CustomerID    int64     `json:"customer_id"`
	InvoiceNumber string    `json:"invoice_number"`
	IssueDate     string    `json:"issue_date"`
	DueDate       string    `json:"due_date"`
	Status        string    `json:"status"`
	Notes         string    `json:"notes"`
	Subtotal      float64   `json:"subtotal"`
	TaxRate       float64   `json:"tax_rate"`
	TaxAmount     float64   `json:"tax_amount"`
	TotalAmount   float64   `json:"total_amount"`
	CreatedAt     time.Time `json:"created_at"`
}

// InvoiceItem is a line item owned by exactly one invoice. Amount is the
// caller-computed quantity x unit price.
type InvoiceItem struct {
	ID          int64   `json:"item_id"`
	InvoiceID   int64   `json:"invoice_id"`
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	Amount      float64 `json:"amount"`
}

// InvoiceWithItems bundles an invoice with its items for the detail view.
type InvoiceWithItems struct {
	Invoice
	Items []InvoiceItem `json:"items"`
}

// InvoiceSummary is a list-view row with the customer name joined in.
type InvoiceSummary struct {
	ID            int64   `json:"invoice_id"`
	InvoiceNumber string  `json:"invoice_number"`
	IssueDate     string  `json:"issue_date"`
	DueDate       string  `json:"due_date"`
	Status        string  `json:"status"`
	TotalAmount   float64 `json:"total_amount"`
	CustomerName  string  `json:"customer_name"`
}

// InvoiceExportRow is the flattened invoice-plus-customer row the register
// exports (CSV, XLSX) are built from.
type InvoiceExportRow struct {
	InvoiceNumber string
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	IssueDate     string
	DueDate       string
	Status        string
	Subtotal      float64
	TaxRate       float64
	TaxAmount     float64
	TotalAmount   float64
	Notes         string
}

// ComputeTotals derives subtotal, tax amount and total from the given items
// and the invoice's tax rate, overwriting whatever the caller submitted.
func (inv *Invoice) ComputeTotals(items []InvoiceItem) {
	var subtotal float64
	for _, item := range items {
		subtotal += item.Amount
	}
	inv.Subtotal = subtotal
	inv.TaxAmount = subtotal * inv.TaxRate / 100
	inv.TotalAmount = inv.Subtotal + inv.TaxAmount
}
