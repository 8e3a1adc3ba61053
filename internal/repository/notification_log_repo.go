package repository

import (
	"context"
	"fmt"

	"github.com/invoicedesk/invoice-manager/pkg/database"
	"go.uber.org/zap"
)

// Notification log kinds recorded by the due-date scan.
const (
	NotificationKindDueSoon = "due_soon"
	NotificationKindOverdue = "overdue"
)

// NotificationLogRepository tracks which (invoice, condition) pairs have
// already been surfaced, so the periodic scan does not re-notify.
type NotificationLogRepository struct {
	db     *database.DB
	logger *zap.Logger
}

// NewNotificationLogRepository creates a new notification log repository
func NewNotificationLogRepository(db *database.DB, logger *zap.Logger) *NotificationLogRepository {
	return &NotificationLogRepository{
		db:     db,
		logger: logger,
	}
}

// WasNotified reports whether the given condition was already surfaced for
// the invoice.
func (r *NotificationLogRepository) WasNotified(ctx context.Context, invoiceID int64, kind string) (bool, error) {
	var count int
	err := r.db.Executor(ctx).QueryRowContext(ctx,
		"SELECT COUNT(*) FROM notification_log WHERE invoice_id = ? AND kind = ?",
		invoiceID, kind,
	).Scan(&count)
	if err != nil {
		r.logger.Error("Failed to query notification log",
			zap.Int64("invoice_id", invoiceID),
			zap.String("kind", kind),
			zap.Error(err))
		return false, fmt.Errorf("failed to query notification log: %w", err)
	}
	return count > 0, nil
}

// Record marks a condition as surfaced. Recording the same pair twice is a
// no-op.
func (r *NotificationLogRepository) Record(ctx context.Context, invoiceID int64, kind string) error {
	_, err := r.db.Executor(ctx).ExecContext(ctx,
		"INSERT OR IGNORE INTO notification_log (invoice_id, kind) VALUES (?, ?)",
		invoiceID, kind,
	)
	if err != nil {
		r.logger.Error("Failed to record notification",
			zap.Int64("invoice_id", invoiceID),
			zap.String("kind", kind),
			zap.Error(err))
		return fmt.Errorf("failed to record notification: %w", err)
	}
	return nil
}
