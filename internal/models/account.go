package models

// AccountDB represents the account fields read for notification addressing
type AccountDB struct {
	ID        int64  `json:"id" db:"id"`                 // Primary key
	Email     string `json:"email" db:"email"`           // Notification address
	FirstName string `json:"first_name" db:"first_name"` // Given name
	LastName  string `json:"last_name" db:"last_name"`   // Family name
}
