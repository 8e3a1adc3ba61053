package models

import "time"

// Customer is referenced by invoices but outlives any particular one.
// Email, phone and address are optional; address may span multiple lines.
type Customer struct {
	ID        int64     `json:"customer_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Address   string    `json:"address,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
