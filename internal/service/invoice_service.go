// Package service implements the invoice aggregate: the only component
// allowed to mutate invoices and their line items. Every write runs as one
// transaction; lifecycle notifications fire after commit and never affect
// the outcome of the operation that raised them.
package service

import (
	"context"
	"fmt"

	"github.com/invoicedesk/invoice-manager/internal/models"
	"github.com/invoicedesk/invoice-manager/internal/notify"
	"github.com/invoicedesk/invoice-manager/internal/repository"
	"github.com/invoicedesk/invoice-manager/pkg/database"
	"go.uber.org/zap"
)

// fallbackCustomerName labels notifications when the referenced customer
// row is missing. A failed lookup must not undo a committed write.
const fallbackCustomerName = "Customer"

// InvoiceService coordinates transactional writes of the invoice aggregate
// and raises lifecycle events on qualifying transitions.
type InvoiceService struct {
	db        *database.DB
	invoices  *repository.InvoiceRepository
	items     *repository.ItemRepository
	customers *repository.CustomerRepository
	notifier  notify.Notifier
	logger    *zap.Logger
}

// NewInvoiceService creates a new invoice service
func NewInvoiceService(
	db *database.DB,
	invoices *repository.InvoiceRepository,
	items *repository.ItemRepository,
	customers *repository.CustomerRepository,
	notifier notify.Notifier,
	logger *zap.Logger,
) *InvoiceService {
	return &InvoiceService{
		db:        db,
		invoices:  invoices,
		items:     items,
		customers: customers,
		notifier:  notifier,
		logger:    logger,
	}
}

// CreateCustomer stores a new customer and returns its id
func (s *InvoiceService) CreateCustomer(ctx context.Context, customer *models.Customer) (int64, error) {
	if err := s.customers.Insert(ctx, customer); err != nil {
		return 0, err
	}
	s.logger.Info("Customer created",
		zap.Int64("customer_id", customer.ID),
		zap.String("name", customer.Name))
	return customer.ID, nil
}

// ListCustomers returns all customers ordered by name
func (s *InvoiceService) ListCustomers(ctx context.Context) ([]models.Customer, error) {
	return s.customers.List(ctx)
}

// CreateInvoice inserts the invoice and its items atomically. Totals are
// recomputed from the submitted items and tax rate; caller-submitted
// subtotal, tax amount and total are overwritten. The items are stored in
// the order given. Returns the new invoice id.
func (s *InvoiceService) CreateInvoice(ctx context.Context, invoice *models.Invoice, items []models.InvoiceItem) (int64, error) {
	invoice.ComputeTotals(items)

	err := s.db.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.invoices.Insert(ctx, invoice); err != nil {
			return err
		}
		for i := range items {
			items[i].InvoiceID = invoice.ID
			if err := s.items.Insert(ctx, &items[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("create invoice %q: %w", invoice.InvoiceNumber, err)
	}

	s.logger.Info("Invoice created",
		zap.Int64("invoice_id", invoice.ID),
		zap.String("invoice_number", invoice.InvoiceNumber),
		zap.Float64("total_amount", invoice.TotalAmount))

	s.notifier.InvoiceCreated(invoice.InvoiceNumber,
		s.customerDisplayName(ctx, invoice.CustomerID), invoice.TotalAmount)

	return invoice.ID, nil
}

// UpdateInvoice overwrites the invoice's scalar fields and replaces its
// entire item set in one transaction. Updating a nonexistent id fails with
// ErrInvoiceNotFound before any row is touched. A transition from any
// non-Paid status to Paid raises an InvoicePaid event after commit.
func (s *InvoiceService) UpdateInvoice(ctx context.Context, id int64, invoice *models.Invoice, items []models.InvoiceItem) error {
	invoice.ID = id
	invoice.ComputeTotals(items)

	var prevStatus string
	err := s.db.WithTransaction(ctx, func(ctx context.Context) error {
		prev, err := s.invoices.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if prev == nil {
			return ErrInvoiceNotFound
		}
		prevStatus = prev.Status

		affected, err := s.invoices.Update(ctx, invoice)
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrInvoiceNotFound
		}

		if err := s.items.DeleteByInvoice(ctx, id); err != nil {
			return err
		}
		for i := range items {
			items[i].InvoiceID = id
			if err := s.items.Insert(ctx, &items[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("update invoice %d: %w", id, err)
	}

	s.logger.Info("Invoice updated",
		zap.Int64("invoice_id", id),
		zap.String("status", invoice.Status))

	if prevStatus != models.StatusPaid && invoice.Status == models.StatusPaid {
		s.notifier.InvoicePaid(invoice.InvoiceNumber,
			s.customerDisplayName(ctx, invoice.CustomerID), invoice.TotalAmount)
	}

	return nil
}

// DeleteInvoice removes the invoice and its items in one transaction.
// Items go first so no orphan rows remain even with foreign-key enforcement
// off. Deleting a nonexistent id succeeds.
func (s *InvoiceService) DeleteInvoice(ctx context.Context, id int64) error {
	err := s.db.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.items.DeleteByInvoice(ctx, id); err != nil {
			return err
		}
		return s.invoices.Delete(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("delete invoice %d: %w", id, err)
	}

	s.logger.Info("Invoice deleted", zap.Int64("invoice_id", id))
	return nil
}

// GetInvoiceWithItems returns the invoice and its items in insertion order,
// or ErrInvoiceNotFound.
func (s *InvoiceService) GetInvoiceWithItems(ctx context.Context, id int64) (*models.InvoiceWithItems, error) {
	invoice, err := s.invoices.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, fmt.Errorf("get invoice %d: %w", id, ErrInvoiceNotFound)
	}

	items, err := s.items.ListByInvoice(ctx, id)
	if err != nil {
		return nil, err
	}

	return &models.InvoiceWithItems{Invoice: *invoice, Items: items}, nil
}

// ListInvoices returns all invoices with customer names, newest issue date
// first.
func (s *InvoiceService) ListInvoices(ctx context.Context) ([]models.InvoiceSummary, error) {
	return s.invoices.ListWithCustomer(ctx)
}

func (s *InvoiceService) customerDisplayName(ctx context.Context, customerID int64) string {
	customer, err := s.customers.GetByID(ctx, customerID)
	if err != nil {
		s.logger.Warn("Failed to look up customer for notification",
			zap.Int64("customer_id", customerID),
			zap.Error(err))
		return fallbackCustomerName
	}
	if customer == nil {
		return fallbackCustomerName
	}
	return customer.Name
}
