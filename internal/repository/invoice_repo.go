package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/invoicedesk/invoice-manager/internal/models"
	"github.com/invoicedesk/invoice-manager/pkg/database"
	"go.uber.org/zap"
)

// InvoiceRepository persists the scalar part of the invoice aggregate.
// Mutations are expected to run inside a transaction opened by the service;
// the repository picks the transaction up from the context.
type InvoiceRepository struct {
	db     *database.DB
	logger *zap.Logger
}

// NewInvoiceRepository creates a new invoice repository
func NewInvoiceRepository(db *database.DB, logger *zap.Logger) *InvoiceRepository {
	return &InvoiceRepository{
		db:     db,
		logger: logger,
	}
}

// Insert creates a new invoice row and sets invoice.ID
func (r *InvoiceRepository) Insert(ctx context.Context, invoice *models.Invoice) error {
	query := `
		INSERT INTO invoices (
			customer_id, invoice_number, issue_date, due_date, status,
			notes, subtotal, tax_rate, tax_amount, total_amount
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.Executor(ctx).ExecContext(ctx, query,
		nullableID(invoice.CustomerID),
		invoice.InvoiceNumber,
		invoice.IssueDate,
		invoice.DueDate,
		invoice.Status,
		invoice.Notes,
		invoice.Subtotal,
		invoice.TaxRate,
		invoice.TaxAmount,
		invoice.TotalAmount,
	)
	if err != nil {
		r.logger.Error("Failed to insert invoice", zap.Error(err))
		return fmt.Errorf("failed to insert invoice: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	invoice.ID = id
	return nil
}

// Update overwrites all scalar fields of an invoice row. Returns the number
// of rows affected so the caller can distinguish a missing id from success.
func (r *InvoiceRepository) Update(ctx context.Context, invoice *models.Invoice) (int64, error) {
	query := `
		UPDATE invoices SET
			customer_id = ?, invoice_number = ?, issue_date = ?, due_date = ?,
			status = ?, notes = ?, subtotal = ?, tax_rate = ?,
			tax_amount = ?, total_amount = ?
		WHERE invoice_id = ?
	`

	result, err := r.db.Executor(ctx).ExecContext(ctx, query,
		nullableID(invoice.CustomerID),
		invoice.InvoiceNumber,
		invoice.IssueDate,
		invoice.DueDate,
		invoice.Status,
		invoice.Notes,
		invoice.Subtotal,
		invoice.TaxRate,
		invoice.TaxAmount,
		invoice.TotalAmount,
		invoice.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update invoice", zap.Int64("invoice_id", invoice.ID), zap.Error(err))
		return 0, fmt.Errorf("failed to update invoice: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return affected, nil
}

// GetByID retrieves an invoice by id, or nil when it does not exist
func (r *InvoiceRepository) GetByID(ctx context.Context, id int64) (*models.Invoice, error) {
	query := `
		SELECT invoice_id, customer_id, invoice_number, issue_date, due_date,
			status, notes, subtotal, tax_rate, tax_amount, total_amount, created_at
		FROM invoices
		WHERE invoice_id = ?
	`

	var invoice models.Invoice
	var customerID sql.NullInt64
	var notes sql.NullString

	err := r.db.Executor(ctx).QueryRowContext(ctx, query, id).Scan(
		&invoice.ID,
		&customerID,
		&invoice.InvoiceNumber,
		&invoice.IssueDate,
		&invoice.DueDate,
		&invoice.Status,
		&notes,
		&invoice.Subtotal,
		&invoice.TaxRate,
		&invoice.TaxAmount,
		&invoice.TotalAmount,
		&invoice.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get invoice by ID", zap.Int64("invoice_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}

	invoice.CustomerID = customerID.Int64
	invoice.Notes = notes.String
	return &invoice, nil
}

// Delete removes an invoice row. Deleting a missing id is not an error.
func (r *InvoiceRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.db.Executor(ctx).ExecContext(ctx, "DELETE FROM invoices WHERE invoice_id = ?", id)
	if err != nil {
		r.logger.Error("Failed to delete invoice", zap.Int64("invoice_id", id), zap.Error(err))
		return fmt.Errorf("failed to delete invoice: %w", err)
	}
	return nil
}

// ListWithCustomer returns all invoices with the customer name joined in,
// newest issue date first.
func (r *InvoiceRepository) ListWithCustomer(ctx context.Context) ([]models.InvoiceSummary, error) {
	query := `
		SELECT i.invoice_id, i.invoice_number, i.issue_date, i.due_date,
			i.status, i.total_amount, COALESCE(c.name, '')
		FROM invoices i
		LEFT JOIN customers c ON i.customer_id = c.customer_id
		ORDER BY i.issue_date DESC
	`

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list invoices", zap.Error(err))
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	defer rows.Close()

	var summaries []models.InvoiceSummary
	for rows.Next() {
		var s models.InvoiceSummary
		if err := rows.Scan(&s.ID, &s.InvoiceNumber, &s.IssueDate, &s.DueDate,
			&s.Status, &s.TotalAmount, &s.CustomerName); err != nil {
			return nil, fmt.Errorf("failed to scan invoice row: %w", err)
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// ListPendingDueBetween returns pending invoices whose due date falls in
// [from, to], both ISO date strings inclusive. Invoices without a customer
// row are skipped, matching the scan's join semantics.
func (r *InvoiceRepository) ListPendingDueBetween(ctx context.Context, from, to string) ([]models.InvoiceSummary, error) {
	query := `
		SELECT i.invoice_id, i.invoice_number, i.issue_date, i.due_date,
			i.status, i.total_amount, c.name
		FROM invoices i
		JOIN customers c ON i.customer_id = c.customer_id
		WHERE i.status = ? AND i.due_date BETWEEN ? AND ?
	`
	return r.queryDue(ctx, query, models.StatusPending, from, to)
}

// ListPendingDueBefore returns pending invoices due strictly before the
// given ISO date string.
func (r *InvoiceRepository) ListPendingDueBefore(ctx context.Context, before string) ([]models.InvoiceSummary, error) {
	query := `
		SELECT i.invoice_id, i.invoice_number, i.issue_date, i.due_date,
			i.status, i.total_amount, c.name
		FROM invoices i
		JOIN customers c ON i.customer_id = c.customer_id
		WHERE i.status = ? AND i.due_date < ?
	`
	return r.queryDue(ctx, query, models.StatusPending, before)
}

// ListForExport returns every invoice joined with its customer's contact
// details, newest issue date first, for the register exports.
func (r *InvoiceRepository) ListForExport(ctx context.Context) ([]models.InvoiceExportRow, error) {
	query := `
		SELECT i.invoice_number, COALESCE(c.name, ''), COALESCE(c.email, ''),
			COALESCE(c.phone, ''), i.issue_date, i.due_date, i.status,
			i.subtotal, i.tax_rate, i.tax_amount, i.total_amount,
			COALESCE(i.notes, '')
		FROM invoices i
		LEFT JOIN customers c ON i.customer_id = c.customer_id
		ORDER BY i.issue_date DESC
	`

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("Failed to query invoices for export", zap.Error(err))
		return nil, fmt.Errorf("failed to query invoices for export: %w", err)
	}
	defer rows.Close()

	var exportRows []models.InvoiceExportRow
	for rows.Next() {
		var row models.InvoiceExportRow
		if err := rows.Scan(&row.InvoiceNumber, &row.CustomerName, &row.CustomerEmail,
			&row.CustomerPhone, &row.IssueDate, &row.DueDate, &row.Status,
			&row.Subtotal, &row.TaxRate, &row.TaxAmount, &row.TotalAmount,
			&row.Notes); err != nil {
			return nil, fmt.Errorf("failed to scan export row: %w", err)
		}
		exportRows = append(exportRows, row)
	}
	return exportRows, rows.Err()
}

// nullableID maps the zero id to NULL so unassigned references do not trip
// foreign key enforcement.
func nullableID(id int64) interface{} {
	if id == 0 {
		return nil
	}
	return id
}

func (r *InvoiceRepository) queryDue(ctx context.Context, query string, args ...interface{}) ([]models.InvoiceSummary, error) {
	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to query due invoices", zap.Error(err))
		return nil, fmt.Errorf("failed to query due invoices: %w", err)
	}
	defer rows.Close()

	var summaries []models.InvoiceSummary
	for rows.Next() {
		var s models.InvoiceSummary
		if err := rows.Scan(&s.ID, &s.InvoiceNumber, &s.IssueDate, &s.DueDate,
			&s.Status, &s.TotalAmount, &s.CustomerName); err != nil {
			return nil, fmt.Errorf("failed to scan invoice row: %w", err)
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}
