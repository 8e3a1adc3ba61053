package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/invoicedesk/invoice-manager/internal/models"
	"github.com/invoicedesk/invoice-manager/pkg/database"
	"go.uber.org/zap"
)

// CustomerRepository persists customers. Customers are create-only in this
// application; invoices reference them but never own them.
type CustomerRepository struct {
	db     *database.DB
	logger *zap.Logger
}

// NewCustomerRepository creates a new customer repository
func NewCustomerRepository(db *database.DB, logger *zap.Logger) *CustomerRepository {
	return &CustomerRepository{
		db:     db,
		logger: logger,
	}
}

// Insert creates a new customer row and sets customer.ID. Optional fields
// are stored as NULL when empty.
func (r *CustomerRepository) Insert(ctx context.Context, customer *models.Customer) error {
	query := `
		INSERT INTO customers (name, email, phone, address)
		VALUES (?, ?, ?, ?)
	`

	result, err := r.db.Executor(ctx).ExecContext(ctx, query,
		customer.Name,
		nullable(customer.Email),
		nullable(customer.Phone),
		nullable(customer.Address),
	)
	if err != nil {
		r.logger.Error("Failed to insert customer", zap.Error(err))
		return fmt.Errorf("failed to insert customer: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	customer.ID = id
	return nil
}

// GetByID retrieves a customer by id, or nil when it does not exist
func (r *CustomerRepository) GetByID(ctx context.Context, id int64) (*models.Customer, error) {
	query := `
		SELECT customer_id, name, email, phone, address, created_at
		FROM customers
		WHERE customer_id = ?
	`

	customer, err := r.scanCustomer(r.db.Executor(ctx).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get customer by ID", zap.Int64("customer_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}
	return customer, nil
}

// List returns all customers ordered by name
func (r *CustomerRepository) List(ctx context.Context) ([]models.Customer, error) {
	query := `
		SELECT customer_id, name, email, phone, address, created_at
		FROM customers
		ORDER BY name
	`

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list customers", zap.Error(err))
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	defer rows.Close()

	var customers []models.Customer
	for rows.Next() {
		customer, err := r.scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan customer: %w", err)
		}
		customers = append(customers, *customer)
	}
	return customers, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *CustomerRepository) scanCustomer(row rowScanner) (*models.Customer, error) {
	var customer models.Customer
	var email, phone, address sql.NullString

	if err := row.Scan(&customer.ID, &customer.Name, &email, &phone,
		&address, &customer.CreatedAt); err != nil {
		return nil, err
	}

	customer.Email = email.String
	customer.Phone = phone.String
	customer.Address = address.String
	return &customer, nil
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
