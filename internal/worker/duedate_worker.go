package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/invoicedesk/invoice-manager/internal/notify"
	"github.com/invoicedesk/invoice-manager/internal/repository"
	"go.uber.org/zap"
)

const isoDate = "2006-01-02"

// DueDateScannerConfig holds the scan schedule parameters
type DueDateScannerConfig struct {
	Interval   time.Duration
	WindowDays int
}

// DefaultDueDateScannerConfig returns the default schedule: one scan per
// day, flagging pending invoices due within the next 3 days.
func DefaultDueDateScannerConfig() DueDateScannerConfig {
	return DueDateScannerConfig{
		Interval:   24 * time.Hour,
		WindowDays: 3,
	}
}

// DueDateScanner periodically classifies pending invoices as due-soon or
// overdue and raises the matching lifecycle events. It never mutates
// invoice status, runs once at startup and then on its interval, and keeps
// a persisted notified-set so an invoice is flagged once per condition.
// Scan failures are logged and swallowed; the scanner runs unattended.
type DueDateScanner struct {
	config   DueDateScannerConfig
	invoices *repository.InvoiceRepository
	log      *repository.NotificationLogRepository
	notifier notify.Notifier
	logger   *zap.Logger

	// now is replaceable in tests
	now func() time.Time

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
}

// NewDueDateScanner creates a new due-date scanner
func NewDueDateScanner(
	config DueDateScannerConfig,
	invoices *repository.InvoiceRepository,
	log *repository.NotificationLogRepository,
	notifier notify.Notifier,
	logger *zap.Logger,
) *DueDateScanner {
	return &DueDateScanner{
		config:   config,
		invoices: invoices,
		log:      log,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// Name implements Worker
func (w *DueDateScanner) Name() string { return "due-date-scanner" }

// Start launches the scan loop: one immediate scan, then one per interval
func (w *DueDateScanner) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("due-date scanner already running")
	}
	ctx, w.cancel = context.WithCancel(ctx)
	w.running = true
	w.mu.Unlock()

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()

		if err := w.Scan(ctx); err != nil {
			w.logger.Error("Due-date scan failed", zap.Error(err))
		}

		ticker := time.NewTicker(w.config.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := w.Scan(ctx); err != nil {
					w.logger.Error("Due-date scan failed", zap.Error(err))
				}
			}
		}
	}()

	return nil
}

// Stop signals the loop to exit and waits for it
func (w *DueDateScanner) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	cancel := w.cancel
	w.mu.Unlock()

	cancel()
	w.wg.Wait()
}

// Scan performs a single read-only sweep. Pending invoices due between
// today and today+window raise InvoiceDueSoon; pending invoices due before
// today raise InvoiceOverdue. Paid, cancelled and already-notified invoices
// raise nothing.
func (w *DueDateScanner) Scan(ctx context.Context) error {
	today := w.now().Format(isoDate)
	windowEnd := w.now().AddDate(0, 0, w.config.WindowDays).Format(isoDate)

	dueSoon, err := w.invoices.ListPendingDueBetween(ctx, today, windowEnd)
	if err != nil {
		return err
	}
	for _, inv := range dueSoon {
		w.emit(ctx, inv.ID, repository.NotificationKindDueSoon, func() {
			w.notifier.InvoiceDueSoon(inv.InvoiceNumber, inv.CustomerName, inv.DueDate, inv.TotalAmount)
		})
	}

	overdue, err := w.invoices.ListPendingDueBefore(ctx, today)
	if err != nil {
		return err
	}
	for _, inv := range overdue {
		w.emit(ctx, inv.ID, repository.NotificationKindOverdue, func() {
			w.notifier.InvoiceOverdue(inv.InvoiceNumber, inv.CustomerName, inv.DueDate, inv.TotalAmount)
		})
	}

	return nil
}

// emit raises the event unless this (invoice, condition) pair was already
// surfaced, then records it.
func (w *DueDateScanner) emit(ctx context.Context, invoiceID int64, kind string, send func()) {
	seen, err := w.log.WasNotified(ctx, invoiceID, kind)
	if err != nil {
		w.logger.Warn("Failed to check notification log, skipping",
			zap.Int64("invoice_id", invoiceID),
			zap.String("kind", kind),
			zap.Error(err))
		return
	}
	if seen {
		return
	}

	send()

	if err := w.log.Record(ctx, invoiceID, kind); err != nil {
		w.logger.Warn("Failed to record notification",
			zap.Int64("invoice_id", invoiceID),
			zap.String("kind", kind),
			zap.Error(err))
	}
}

var _ Worker = (*DueDateScanner)(nil)
