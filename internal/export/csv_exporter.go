package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/invoicedesk/invoice-manager/internal/notify"
	"github.com/invoicedesk/invoice-manager/internal/repository"
	"go.uber.org/zap"
)

// CSVExporter writes the invoice register and per-invoice item lists as CSV
type CSVExporter struct {
	invoices  *repository.InvoiceRepository
	items     *repository.ItemRepository
	outputDir string
	notifier  notify.Notifier
	logger    *zap.Logger
}

// NewCSVExporter creates a new CSV exporter
func NewCSVExporter(
	invoices *repository.InvoiceRepository,
	items *repository.ItemRepository,
	outputDir string,
	notifier notify.Notifier,
	logger *zap.Logger,
) *CSVExporter {
	return &CSVExporter{
		invoices:  invoices,
		items:     items,
		outputDir: outputDir,
		notifier:  notifier,
		logger:    logger,
	}
}

// ExportInvoices writes all invoices with customer contact details to path.
// An empty path picks Invoices_Export_YYYYMMDD.csv under the configured
// output directory. Returns the written path.
func (e *CSVExporter) ExportInvoices(ctx context.Context, path string) (string, error) {
	rows, err := e.invoices.ListForExport(ctx)
	if err != nil {
		return "", fmt.Errorf("export invoices: %w", err)
	}
	if len(rows) == 0 {
		return "", fmt.Errorf("export invoices: %w", ErrNothingToExport)
	}

	if path == "" {
		path = filepath.Join(e.outputDir, registerFileName(time.Now(), "csv"))
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{
		"Invoice Number", "Customer Name", "Customer Email", "Customer Phone",
		"Issue Date", "Due Date", "Status", "Subtotal", "Tax Rate (%)",
		"Tax Amount", "Total Amount", "Notes",
	}
	if err := w.Write(header); err != nil {
		return "", fmt.Errorf("export invoices: %w", err)
	}

	for _, row := range rows {
		record := []string{
			row.InvoiceNumber,
			row.CustomerName,
			row.CustomerEmail,
			row.CustomerPhone,
			row.IssueDate,
			row.DueDate,
			row.Status,
			money(row.Subtotal),
			strconv.FormatFloat(row.TaxRate, 'f', -1, 64),
			money(row.TaxAmount),
			money(row.TotalAmount),
			row.Notes,
		}
		if err := w.Write(record); err != nil {
			return "", fmt.Errorf("export invoices: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("export invoices: %w", err)
	}

	if err := writeAtomic(path, buf.Bytes()); err != nil {
		return "", fmt.Errorf("export invoices: %w", err)
	}

	e.logger.Info("Invoices exported to CSV",
		zap.String("path", path),
		zap.Int("count", len(rows)))
	e.notifier.ExportCompleted("CSV", filepath.Base(path))

	return path, nil
}

// ExportInvoiceItems writes one invoice's line items to path. An empty path
// picks Invoice_<number>_Items.csv under the configured output directory.
func (e *CSVExporter) ExportInvoiceItems(ctx context.Context, invoiceID int64, path string) (string, error) {
	invoice, err := e.invoices.GetByID(ctx, invoiceID)
	if err != nil {
		return "", fmt.Errorf("export invoice items: %w", err)
	}
	if invoice == nil {
		return "", fmt.Errorf("export invoice items: %w", ErrInvoiceNotFound)
	}

	items, err := e.items.ListByInvoice(ctx, invoiceID)
	if err != nil {
		return "", fmt.Errorf("export invoice items: %w", err)
	}
	if len(items) == 0 {
		return "", fmt.Errorf("export invoice items: %w", ErrNothingToExport)
	}

	if path == "" {
		path = filepath.Join(e.outputDir, itemsFileName(invoice.InvoiceNumber))
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"Invoice Number", "Description", "Quantity", "Unit Price", "Amount"}
	if err := w.Write(header); err != nil {
		return "", fmt.Errorf("export invoice items: %w", err)
	}

	for _, item := range items {
		record := []string{
			invoice.InvoiceNumber,
			item.Description,
			strconv.FormatFloat(item.Quantity, 'f', -1, 64),
			money(item.UnitPrice),
			money(item.Amount),
		}
		if err := w.Write(record); err != nil {
			return "", fmt.Errorf("export invoice items: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("export invoice items: %w", err)
	}

	if err := writeAtomic(path, buf.Bytes()); err != nil {
		return "", fmt.Errorf("export invoice items: %w", err)
	}

	e.logger.Info("Invoice items exported to CSV",
		zap.Int64("invoice_id", invoiceID),
		zap.String("path", path),
		zap.Int("count", len(items)))
	e.notifier.ExportCompleted("CSV", filepath.Base(path))

	return path, nil
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
