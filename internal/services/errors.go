package services

import "errors"

var (
	// ErrTransactionNotFound is returned when no transaction matches the invoice id.
	ErrTransactionNotFound = errors.New("transaction not found")
	// ErrInvalidTransaction is returned when initiation parameters are rejected.
	ErrInvalidTransaction = errors.New("invalid transaction parameters")
	// ErrInvoiceAlreadyExists is returned when the invoice id is already used.
	ErrInvoiceAlreadyExists = errors.New("invoice already exists")
	// ErrInvalidTransition is returned for a status change the state machine forbids.
	ErrInvalidTransition = errors.New("invalid status transition")
)
