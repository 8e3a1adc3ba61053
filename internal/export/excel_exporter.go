package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/invoicedesk/invoice-manager/internal/notify"
	"github.com/invoicedesk/invoice-manager/internal/repository"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const excelSheetName = "Invoices"

// ExcelExporter writes the invoice register as an XLSX workbook, same
// columns as the CSV register.
type ExcelExporter struct {
	invoices  *repository.InvoiceRepository
	outputDir string
	notifier  notify.Notifier
	logger    *zap.Logger
}

// NewExcelExporter creates a new XLSX exporter
func NewExcelExporter(
	invoices *repository.InvoiceRepository,
	outputDir string,
	notifier notify.Notifier,
	logger *zap.Logger,
) *ExcelExporter {
	return &ExcelExporter{
		invoices:  invoices,
		outputDir: outputDir,
		notifier:  notifier,
		logger:    logger,
	}
}

// ExportInvoices writes all invoices to path. An empty path picks
// Invoices_Export_YYYYMMDD.xlsx under the configured output directory.
func (e *ExcelExporter) ExportInvoices(ctx context.Context, path string) (string, error) {
	rows, err := e.invoices.ListForExport(ctx)
	if err != nil {
		return "", fmt.Errorf("export invoices xlsx: %w", err)
	}
	if len(rows) == 0 {
		return "", fmt.Errorf("export invoices xlsx: %w", ErrNothingToExport)
	}

	if path == "" {
		path = filepath.Join(e.outputDir, registerFileName(time.Now(), "xlsx"))
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("export invoices xlsx: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(excelSheetName)
	if err != nil {
		return "", fmt.Errorf("export invoices xlsx: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return "", fmt.Errorf("export invoices xlsx: %w", err)
	}

	header := []interface{}{
		"Invoice Number", "Customer Name", "Customer Email", "Customer Phone",
		"Issue Date", "Due Date", "Status", "Subtotal", "Tax Rate (%)",
		"Tax Amount", "Total Amount", "Notes",
	}
	if err := e.writeRow(f, 1, header); err != nil {
		return "", fmt.Errorf("export invoices xlsx: %w", err)
	}

	for i, row := range rows {
		values := []interface{}{
			row.InvoiceNumber, row.CustomerName, row.CustomerEmail,
			row.CustomerPhone, row.IssueDate, row.DueDate, row.Status,
			row.Subtotal, row.TaxRate, row.TaxAmount, row.TotalAmount,
			row.Notes,
		}
		if err := e.writeRow(f, i+2, values); err != nil {
			return "", fmt.Errorf("export invoices xlsx: %w", err)
		}
	}

	// excelize rejects non-xlsx target names, so serialize to memory and let
	// writeAtomic handle the temp-file-plus-rename dance.
	buf, err := f.WriteToBuffer()
	if err != nil {
		return "", fmt.Errorf("export invoices xlsx: %w", err)
	}
	if err := writeAtomic(path, buf.Bytes()); err != nil {
		return "", fmt.Errorf("export invoices xlsx: %w", err)
	}

	e.logger.Info("Invoices exported to XLSX",
		zap.String("path", path),
		zap.Int("count", len(rows)))
	e.notifier.ExportCompleted("Excel", filepath.Base(path))

	return path, nil
}

func (e *ExcelExporter) writeRow(f *excelize.File, row int, values []interface{}) error {
	for col, value := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(excelSheetName, cell, value); err != nil {
			return err
		}
	}
	return nil
}
