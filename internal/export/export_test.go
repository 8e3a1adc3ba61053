package export

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/invoicedesk/invoice-manager/internal/models"
	"github.com/invoicedesk/invoice-manager/internal/notify"
	"github.com/invoicedesk/invoice-manager/internal/repository"
	"github.com/invoicedesk/invoice-manager/migrations"
	"github.com/invoicedesk/invoice-manager/pkg/database"
)

type exportFixture struct {
	invoices  *repository.InvoiceRepository
	items     *repository.ItemRepository
	customers *repository.CustomerRepository
	outputDir string
	logger    *zap.Logger
}

func newExportFixture(t *testing.T) *exportFixture {
	t.Helper()

	logger := zap.NewNop()
	db, err := database.New(database.Config{
		Path:         filepath.Join(t.TempDir(), "test.db"),
		MaxOpenConns: 1,
	}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, database.NewMigrator(db, logger).Run(context.Background(), migrations.FS))

	return &exportFixture{
		invoices:  repository.NewInvoiceRepository(db, logger),
		items:     repository.NewItemRepository(db, logger),
		customers: repository.NewCustomerRepository(db, logger),
		outputDir: t.TempDir(),
		logger:    logger,
	}
}

func (f *exportFixture) seedInvoice(t *testing.T, number string) int64 {
	t.Helper()
	ctx := context.Background()

	customer := &models.Customer{
		Name:  "Acme Corp",
		Email: "billing@acme.example",
		Phone: "555-0100",
	}
	require.NoError(t, f.customers.Insert(ctx, customer))

	invoice := &models.Invoice{
		CustomerID:    customer.ID,
		InvoiceNumber: number,
		IssueDate:     "2024-01-01",
		DueDate:       "2024-01-31",
		Status:        models.StatusPending,
		Notes:         "net 30",
		Subtotal:      520,
		TaxRate:       10,
		TaxAmount:     52,
		TotalAmount:   572,
	}
	require.NoError(t, f.invoices.Insert(ctx, invoice))

	for _, item := range []models.InvoiceItem{
		{InvoiceID: invoice.ID, Description: "Design work", Quantity: 10, UnitPrice: 50, Amount: 500},
		{InvoiceID: invoice.ID, Description: "Hosting", Quantity: 1, UnitPrice: 20, Amount: 20},
	} {
		item := item
		require.NoError(t, f.items.Insert(ctx, &item))
	}

	return invoice.ID
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	return records
}

func TestCSVExporter_ExportInvoices(t *testing.T) {
	ctx := context.Background()

	t.Run("writes the register with customer details", func(t *testing.T) {
		f := newExportFixture(t)
		f.seedInvoice(t, "INV-001")
		exporter := NewCSVExporter(f.invoices, f.items, f.outputDir, notify.Nop{}, f.logger)

		path, err := exporter.ExportInvoices(ctx, "")
		require.NoError(t, err)
		assert.Equal(t, registerFileName(time.Now(), "csv"), filepath.Base(path))

		records := readCSV(t, path)
		require.Len(t, records, 2)
		assert.Equal(t, "Invoice Number", records[0][0])
		assert.Equal(t, []string{
			"INV-001", "Acme Corp", "billing@acme.example", "555-0100",
			"2024-01-01", "2024-01-31", "Pending", "520.00", "10",
			"52.00", "572.00", "net 30",
		}, records[1])
	})

	t.Run("empty register fails with ErrNothingToExport", func(t *testing.T) {
		f := newExportFixture(t)
		exporter := NewCSVExporter(f.invoices, f.items, f.outputDir, notify.Nop{}, f.logger)

		_, err := exporter.ExportInvoices(ctx, "")
		assert.ErrorIs(t, err, ErrNothingToExport)

		entries, readErr := os.ReadDir(f.outputDir)
		require.NoError(t, readErr)
		assert.Empty(t, entries, "no partial file should be left behind")
	})

	t.Run("explicit path overrides the default", func(t *testing.T) {
		f := newExportFixture(t)
		f.seedInvoice(t, "INV-002")
		exporter := NewCSVExporter(f.invoices, f.items, f.outputDir, notify.Nop{}, f.logger)

		target := filepath.Join(f.outputDir, "custom", "register.csv")
		path, err := exporter.ExportInvoices(ctx, target)
		require.NoError(t, err)
		assert.Equal(t, target, path)
		assert.FileExists(t, target)
	})
}

func TestCSVExporter_ExportInvoiceItems(t *testing.T) {
	ctx := context.Background()

	t.Run("writes the item rows", func(t *testing.T) {
		f := newExportFixture(t)
		id := f.seedInvoice(t, "INV 100")
		exporter := NewCSVExporter(f.invoices, f.items, f.outputDir, notify.Nop{}, f.logger)

		path, err := exporter.ExportInvoiceItems(ctx, id, "")
		require.NoError(t, err)

		// Spaces in the invoice number become underscores in the file name
		assert.Equal(t, "Invoice_INV_100_Items.csv", filepath.Base(path))

		records := readCSV(t, path)
		require.Len(t, records, 3)
		assert.Equal(t, []string{"Invoice Number", "Description", "Quantity", "Unit Price", "Amount"}, records[0])
		assert.Equal(t, []string{"INV 100", "Design work", "10", "50.00", "500.00"}, records[1])
		assert.Equal(t, []string{"INV 100", "Hosting", "1", "20.00", "20.00"}, records[2])
	})

	t.Run("missing invoice fails with ErrInvoiceNotFound", func(t *testing.T) {
		f := newExportFixture(t)
		exporter := NewCSVExporter(f.invoices, f.items, f.outputDir, notify.Nop{}, f.logger)

		_, err := exporter.ExportInvoiceItems(ctx, 99999, "")
		assert.ErrorIs(t, err, ErrInvoiceNotFound)
	})
}

func TestExcelExporter_ExportInvoices(t *testing.T) {
	ctx := context.Background()

	t.Run("workbook opens and holds the register", func(t *testing.T) {
		f := newExportFixture(t)
		f.seedInvoice(t, "INV-XL")
		exporter := NewExcelExporter(f.invoices, f.outputDir, notify.Nop{}, f.logger)

		path, err := exporter.ExportInvoices(ctx, "")
		require.NoError(t, err)
		assert.Equal(t, registerFileName(time.Now(), "xlsx"), filepath.Base(path))

		wb, err := excelize.OpenFile(path)
		require.NoError(t, err)
		defer wb.Close()

		rows, err := wb.GetRows("Invoices")
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, "Invoice Number", rows[0][0])
		assert.Equal(t, "INV-XL", rows[1][0])
		assert.Equal(t, "Acme Corp", rows[1][1])

		// Only the finished workbook remains, no temp file
		entries, err := os.ReadDir(f.outputDir)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, filepath.Base(path), entries[0].Name())
	})

	t.Run("empty register fails with ErrNothingToExport", func(t *testing.T) {
		f := newExportFixture(t)
		exporter := NewExcelExporter(f.invoices, f.outputDir, notify.Nop{}, f.logger)

		_, err := exporter.ExportInvoices(ctx, "")
		assert.ErrorIs(t, err, ErrNothingToExport)
	})
}

func TestPDFExporter_ExportInvoice(t *testing.T) {
	ctx := context.Background()

	t.Run("writes a PDF file", func(t *testing.T) {
		f := newExportFixture(t)
		id := f.seedInvoice(t, "INV-PDF")
		exporter := NewPDFExporter(f.invoices, f.items, f.customers, f.outputDir, notify.Nop{}, f.logger)

		path, err := exporter.ExportInvoice(ctx, id, "")
		require.NoError(t, err)
		assert.Equal(t, "Invoice_INV-PDF.pdf", filepath.Base(path))

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		require.Greater(t, len(content), 4)
		assert.Equal(t, "%PDF", string(content[:4]))
	})

	t.Run("missing invoice fails with ErrInvoiceNotFound", func(t *testing.T) {
		f := newExportFixture(t)
		exporter := NewPDFExporter(f.invoices, f.items, f.customers, f.outputDir, notify.Nop{}, f.logger)

		_, err := exporter.ExportInvoice(ctx, 99999, "")
		assert.ErrorIs(t, err, ErrInvoiceNotFound)
	})
}

func TestFileNames(t *testing.T) {
	stamp := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "Invoices_Export_20240315.csv", registerFileName(stamp, "csv"))
	assert.Equal(t, "Invoices_Export_20240315.xlsx", registerFileName(stamp, "xlsx"))
	assert.Equal(t, "Invoice_INV_2024_03_Items.csv", itemsFileName("INV 2024 03"))
	assert.Equal(t, "Invoice_INV-7.pdf", invoicePDFFileName("INV-7"))
}
