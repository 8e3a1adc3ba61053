// Package export holds the read-only export adapters. Adapters query the
// store, own all file-format concerns, and report completion to the
// notification dispatcher. A failed export leaves no partial file behind:
// output is written to a temporary file and renamed into place.
package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

var (
	// ErrNothingToExport is returned when there are no rows to write
	ErrNothingToExport = errors.New("nothing to export")

	// ErrInvoiceNotFound is returned when the requested invoice does not exist
	ErrInvoiceNotFound = errors.New("invoice not found")
)

func registerFileName(t time.Time, ext string) string {
	return fmt.Sprintf("Invoices_Export_%s.%s", t.Format("20060102"), ext)
}

func itemsFileName(invoiceNumber string) string {
	return fmt.Sprintf("Invoice_%s_Items.csv", sanitizeNumber(invoiceNumber))
}

func invoicePDFFileName(invoiceNumber string) string {
	return fmt.Sprintf("Invoice_%s.pdf", sanitizeNumber(invoiceNumber))
}

func sanitizeNumber(number string) string {
	return strings.Join(strings.Fields(number), "_")
}

// writeAtomic writes data next to the target and renames it into place
func writeAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write export file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to finalize export file: %w", err)
	}
	return nil
}

// finalizeTemp renames a file the formatting library already wrote
func finalizeTemp(tmp, path string) error {
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to finalize export file: %w", err)
	}
	return nil
}
