package service

import "errors"

// ErrInvoiceNotFound is returned when an operation targets an invoice id
// that does not exist.
var ErrInvoiceNotFound = errors.New("invoice not found")
