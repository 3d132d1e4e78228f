package models

// TransactionHistoryResponse represents the transactions owned by an account
// swagger:model TransactionHistoryResponse
type TransactionHistoryResponse struct {
	// Transactions ordered by creation time
	Transactions []TransactionDetails `json:"transactions"`
}
