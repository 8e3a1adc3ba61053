package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/invoicedesk/invoice-manager/internal/models"
	"github.com/invoicedesk/invoice-manager/internal/notify"
	"github.com/invoicedesk/invoice-manager/internal/repository"
	"go.uber.org/zap"
)

// PDFExporter renders a single invoice as an A4 PDF: header, invoice and
// bill-to blocks, item table, totals box, notes.
type PDFExporter struct {
	invoices  *repository.InvoiceRepository
	items     *repository.ItemRepository
	customers *repository.CustomerRepository
	outputDir string
	notifier  notify.Notifier
	logger    *zap.Logger
}

// NewPDFExporter creates a new PDF exporter
func NewPDFExporter(
	invoices *repository.InvoiceRepository,
	items *repository.ItemRepository,
	customers *repository.CustomerRepository,
	outputDir string,
	notifier notify.Notifier,
	logger *zap.Logger,
) *PDFExporter {
	return &PDFExporter{
		invoices:  invoices,
		items:     items,
		customers: customers,
		outputDir: outputDir,
		notifier:  notifier,
		logger:    logger,
	}
}

// ExportInvoice writes the invoice with the given id to path. An empty path
// picks Invoice_<number>.pdf under the configured output directory.
func (e *PDFExporter) ExportInvoice(ctx context.Context, invoiceID int64, path string) (string, error) {
	invoice, err := e.invoices.GetByID(ctx, invoiceID)
	if err != nil {
		return "", fmt.Errorf("export invoice pdf: %w", err)
	}
	if invoice == nil {
		return "", fmt.Errorf("export invoice pdf: %w", ErrInvoiceNotFound)
	}

	items, err := e.items.ListByInvoice(ctx, invoiceID)
	if err != nil {
		return "", fmt.Errorf("export invoice pdf: %w", err)
	}

	customer, err := e.customers.GetByID(ctx, invoice.CustomerID)
	if err != nil {
		return "", fmt.Errorf("export invoice pdf: %w", err)
	}

	if path == "" {
		path = filepath.Join(e.outputDir, invoicePDFFileName(invoice.InvoiceNumber))
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("export invoice pdf: %w", err)
	}

	pdf := e.render(invoice, items, customer)

	tmp := path + ".tmp"
	if err := pdf.OutputFileAndClose(tmp); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("export invoice pdf: %w", err)
	}
	if err := finalizeTemp(tmp, path); err != nil {
		return "", fmt.Errorf("export invoice pdf: %w", err)
	}

	e.logger.Info("Invoice exported to PDF",
		zap.Int64("invoice_id", invoiceID),
		zap.String("path", path))
	e.notifier.ExportCompleted("PDF", filepath.Base(path))

	return path, nil
}

func (e *PDFExporter) render(invoice *models.Invoice, items []models.InvoiceItem, customer *models.Customer) *fpdf.Fpdf {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	// Header
	pdf.SetFont("Helvetica", "B", 20)
	pdf.CellFormat(0, 12, "Personal Invoice Manager", "", 1, "C", false, 0, "")
	pdf.Ln(6)

	// Invoice block (left) and bill-to block (right)
	top := pdf.GetY()
	pdf.SetFont("Helvetica", "", 11)
	pdf.SetXY(15, top)
	pdf.CellFormat(90, 6, "Invoice #: "+invoice.InvoiceNumber, "", 1, "L", false, 0, "")
	pdf.SetX(15)
	pdf.CellFormat(90, 6, "Issue Date: "+invoice.IssueDate, "", 1, "L", false, 0, "")
	pdf.SetX(15)
	pdf.CellFormat(90, 6, "Due Date: "+invoice.DueDate, "", 1, "L", false, 0, "")
	pdf.SetX(15)
	pdf.CellFormat(90, 6, "Status: "+invoice.Status, "", 1, "L", false, 0, "")

	pdf.SetXY(120, top)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(75, 6, "Bill To:", "", 2, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	if customer != nil {
		pdf.CellFormat(75, 6, customer.Name, "", 2, "L", false, 0, "")
		for _, line := range strings.Split(customer.Address, "\n") {
			if line == "" {
				continue
			}
			pdf.CellFormat(75, 6, line, "", 2, "L", false, 0, "")
		}
		if customer.Email != "" {
			pdf.CellFormat(75, 6, customer.Email, "", 2, "L", false, 0, "")
		}
		if customer.Phone != "" {
			pdf.CellFormat(75, 6, customer.Phone, "", 2, "L", false, 0, "")
		}
	} else {
		pdf.CellFormat(75, 6, "N/A", "", 2, "L", false, 0, "")
	}

	pdf.Ln(12)

	// Item table
	pdf.SetX(15)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.SetFillColor(240, 240, 240)
	pdf.CellFormat(85, 8, "Description", "1", 0, "L", true, 0, "")
	pdf.CellFormat(25, 8, "Quantity", "1", 0, "R", true, 0, "")
	pdf.CellFormat(35, 8, "Unit Price", "1", 0, "R", true, 0, "")
	pdf.CellFormat(35, 8, "Amount", "1", 1, "R", true, 0, "")

	pdf.SetFont("Helvetica", "", 11)
	for _, item := range items {
		pdf.SetX(15)
		pdf.CellFormat(85, 8, item.Description, "1", 0, "L", false, 0, "")
		pdf.CellFormat(25, 8, strconv.FormatFloat(item.Quantity, 'f', -1, 64), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 8, money(item.UnitPrice), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 8, money(item.Amount), "1", 1, "R", false, 0, "")
	}

	// Totals box
	pdf.Ln(4)
	pdf.SetX(110)
	pdf.CellFormat(45, 7, "Subtotal:", "", 0, "R", false, 0, "")
	pdf.CellFormat(35, 7, money(invoice.Subtotal), "", 1, "R", false, 0, "")
	pdf.SetX(110)
	pdf.CellFormat(45, 7, fmt.Sprintf("Tax (%s%%):", strconv.FormatFloat(invoice.TaxRate, 'f', -1, 64)), "", 0, "R", false, 0, "")
	pdf.CellFormat(35, 7, money(invoice.TaxAmount), "", 1, "R", false, 0, "")
	pdf.SetX(110)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(45, 7, "Total:", "T", 0, "R", false, 0, "")
	pdf.CellFormat(35, 7, money(invoice.TotalAmount), "T", 1, "R", false, 0, "")

	// Notes
	if invoice.Notes != "" {
		pdf.Ln(8)
		pdf.SetX(15)
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(0, 6, "Notes:", "", 1, "L", false, 0, "")
		pdf.SetX(15)
		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(180, 5, invoice.Notes, "", "L", false)
	}

	return pdf
}
