package repository

import (
	"context"
	"fmt"

	"github.com/invoicedesk/invoice-manager/internal/models"
	"github.com/invoicedesk/invoice-manager/pkg/database"
	"go.uber.org/zap"
)

// ItemRepository persists invoice line items. Items only exist inside an
// invoice's transaction boundary; updates replace the whole set.
type ItemRepository struct {
	db     *database.DB
	logger *zap.Logger
}

// NewItemRepository creates a new invoice item repository
func NewItemRepository(db *database.DB, logger *zap.Logger) *ItemRepository {
	return &ItemRepository{
		db:     db,
		logger: logger,
	}
}

// Insert creates a single line item and sets item.ID
func (r *ItemRepository) Insert(ctx context.Context, item *models.InvoiceItem) error {
	query := `
		INSERT INTO invoice_items (
			invoice_id, description, quantity, unit_price, amount
		) VALUES (?, ?, ?, ?, ?)
	`

	result, err := r.db.Executor(ctx).ExecContext(ctx, query,
		item.InvoiceID,
		item.Description,
		item.Quantity,
		item.UnitPrice,
		item.Amount,
	)
	if err != nil {
		r.logger.Error("Failed to insert invoice item",
			zap.Int64("invoice_id", item.InvoiceID),
			zap.Error(err))
		return fmt.Errorf("failed to insert invoice item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	item.ID = id
	return nil
}

// ListByInvoice returns an invoice's items in insertion order
func (r *ItemRepository) ListByInvoice(ctx context.Context, invoiceID int64) ([]models.InvoiceItem, error) {
	query := `
		SELECT item_id, invoice_id, description, quantity, unit_price, amount
		FROM invoice_items
		WHERE invoice_id = ?
		ORDER BY item_id
	`

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, invoiceID)
	if err != nil {
		r.logger.Error("Failed to list invoice items",
			zap.Int64("invoice_id", invoiceID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to list invoice items: %w", err)
	}
	defer rows.Close()

	var items []models.InvoiceItem
	for rows.Next() {
		var item models.InvoiceItem
		if err := rows.Scan(&item.ID, &item.InvoiceID, &item.Description,
			&item.Quantity, &item.UnitPrice, &item.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan invoice item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// DeleteByInvoice removes every item belonging to an invoice
func (r *ItemRepository) DeleteByInvoice(ctx context.Context, invoiceID int64) error {
	_, err := r.db.Executor(ctx).ExecContext(ctx,
		"DELETE FROM invoice_items WHERE invoice_id = ?", invoiceID)
	if err != nil {
		r.logger.Error("Failed to delete invoice items",
			zap.Int64("invoice_id", invoiceID),
			zap.Error(err))
		return fmt.Errorf("failed to delete invoice items: %w", err)
	}
	return nil
}
