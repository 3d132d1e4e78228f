package models

// InitiateTransactionRequest represents the JSON body for starting a transfer
// swagger:model InitiateTransactionRequest
type InitiateTransactionRequest struct {
	// Invoice id shared with the payment front-end
	// required: true
	// example: INV-1001
	InvoiceID string `json:"invoiceId"`

	// Service type
	// required: true
	// example: airtime
	ServiceType string `json:"serviceType"`

	// Receiver address
	// required: true
	// example: 0551234567
	AddressReceiver string `json:"addressReceiver"`

	// Requested volume
	// required: true
	// example: 50
	Volume string `json:"volume"`
}

// InitiateTransactionResponse represents a successful initiation response
// swagger:model InitiateTransactionResponse
type InitiateTransactionResponse struct {
	// Success message
	// example: Transaction initiated
	Message string `json:"message"`

	// Created transaction
	Transaction TransactionDetails `json:"transaction"`
}

// TransactionErrorResponse represents an error response for transaction endpoints
// swagger:model TransactionErrorResponse
type TransactionErrorResponse struct {
	// Error message
	// example: Invalid transaction parameters
	Error string `json:"error"`
}
