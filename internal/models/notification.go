package models

import (
	"time"

	"github.com/google/uuid"
)

// Notification kinds emitted for transaction milestones
const (
	NotificationTransactionInitiated           = "transaction.initiated"
	NotificationTransactionCompleted           = "transaction.completed"
	NotificationTransactionFailed              = "transaction.failed"
	NotificationTransactionNeedsReconciliation = "transaction.needs_reconciliation"
)

// Account domain kinds delivered by the same mailer. The coordinator never emits them.
const (
	NotificationEmailAlreadyRegistered = "account.email_already_registered"
	NotificationVerifyEmail            = "account.verify_email"
	NotificationResetPassword          = "account.reset_password"
)

var notificationSubjects = map[string]string{
	NotificationTransactionInitiated:           "Trust Remit - Transaction Initiated",
	NotificationTransactionCompleted:           "Trust Remit - Transaction Completed",
	NotificationTransactionFailed:              "Trust Remit - Transaction Failed",
	NotificationTransactionNeedsReconciliation: "Trust Remit - Transaction Needs Reconciliation",
	NotificationEmailAlreadyRegistered:         "Trust Remit - Email Already Registered",
	NotificationVerifyEmail:                    "Trust Remit Sign-up - Verify Email",
	NotificationResetPassword:                  "Trust Remit  - Reset Password",
}

// NotificationSubject returns the mail subject for a notification kind.
func NotificationSubject(kind string) string {
	return notificationSubjects[kind]
}

// Notification is the event handed to the external mailer.
type Notification struct {
	EventID    string    `json:"event_id"`
	Kind       string    `json:"kind"`
	Subject    string    `json:"subject"`
	AccountID  int64     `json:"account_id,omitempty"`
	Email      string    `json:"email,omitempty"`
	FirstName  string    `json:"first_name,omitempty"`
	LastName   string    `json:"last_name,omitempty"`
	InvoiceID  string    `json:"invoice_id"`
	Status     string    `json:"status"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewNotification builds a notification for a transaction milestone.
// account may be nil for operator alerts.
func NewNotification(kind string, account *AccountDB, txn *TransactionDB, at time.Time) Notification {
	n := Notification{
		EventID:    uuid.NewString(),
		Kind:       kind,
		Subject:    NotificationSubject(kind),
		OccurredAt: at.UTC(),
	}
	if txn != nil {
		n.InvoiceID = txn.InvoiceID
		n.Status = txn.Status
		n.AccountID = txn.AccountID
	}
	if account != nil {
		n.AccountID = account.ID
		n.Email = account.Email
		n.FirstName = account.FirstName
		n.LastName = account.LastName
	}
	return n
}
