package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// TransactionDB represents a transfer record in the database
type TransactionDB struct {
	ID              int64              `json:"id" db:"id"`                            // Internal identifier
	InvoiceID       string             `json:"invoiceID" db:"invoice_id"`             // Caller supplied correlation id
	OrderID         *string            `json:"orderID" db:"order_id"`                 // Assigned by the gateway once processing begins
	ServiceType     string             `json:"serviceType" db:"service_type"`         // Product, e.g. airtime or mtn-momo
	AddressReceiver string             `json:"addressReceiver" db:"address_receiver"` // Destination wallet or phone number
	AmountPaid      float64            `json:"amountPaid" db:"amount_paid"`           // Cash charged by the gateway
	VolumeReceived  float64            `json:"volumeReceived" db:"volume_received"`   // Volume delivered to the receiver
	Fees            float64            `json:"fees" db:"fees"`                        // Gateway fee
	PaymentResponds types.NullJSONText `json:"paymentResponds" db:"payment_responds"` // Raw payment front-end callback
	SendResponds    types.NullJSONText `json:"sendResponds" db:"send_responds"`       // Raw transfer execution response
	Status          string             `json:"status" db:"status"`                    // Lifecycle status
	CreatedByIP     string             `json:"createdByIP" db:"created_by_ip"`        // Address of the initiating client
	CreatedAt       time.Time          `json:"createdAt" db:"created_at"`             // Creation timestamp
	UpdatedAt       *time.Time         `json:"updatedAt" db:"updated_at"`             // Last status change
	AccountID       int64              `json:"accountId" db:"account_id"`             // Owning account
}

// HasOrderID reports whether the gateway already assigned an order id.
func (t *TransactionDB) HasOrderID() bool {
	return t.OrderID != nil && *t.OrderID != ""
}

// TransactionDetails is the public projection of a transaction
// swagger:model TransactionDetails
type TransactionDetails struct {
	ID              int64              `json:"id" example:"1"`
	InvoiceID       string             `json:"invoiceID" example:"INV-1001"`
	OrderID         *string            `json:"orderID" example:"O1"`
	ServiceType     string             `json:"serviceType" example:"airtime"`
	AddressReceiver string             `json:"addressReceiver" example:"0551234567"`
	AmountPaid      float64            `json:"amountPaid" example:"50"`
	VolumeReceived  float64            `json:"volumeReceived" example:"50"`
	Fees            float64            `json:"fees" example:"1"`
	PaymentResponds types.NullJSONText `json:"paymentResponds" swaggertype:"object"`
	SendResponds    types.NullJSONText `json:"sendResponds" swaggertype:"object"`
	Status          string             `json:"status" example:"Completed"`
	CreatedByIP     string             `json:"createdByIP" example:"1.2.3.4"`
	CreatedAt       time.Time          `json:"createdAt"`
	UpdatedAt       *time.Time         `json:"updatedAt"`
	AccountID       int64              `json:"accountId" example:"7"`
}

// NewTransactionDetails projects a database record to its public view.
func NewTransactionDetails(t *TransactionDB) TransactionDetails {
	return TransactionDetails{
		ID:              t.ID,
		InvoiceID:       t.InvoiceID,
		OrderID:         t.OrderID,
		ServiceType:     t.ServiceType,
		AddressReceiver: t.AddressReceiver,
		AmountPaid:      t.AmountPaid,
		VolumeReceived:  t.VolumeReceived,
		Fees:            t.Fees,
		PaymentResponds: t.PaymentResponds,
		SendResponds:    t.SendResponds,
		Status:          t.Status,
		CreatedByIP:     t.CreatedByIP,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
		AccountID:       t.AccountID,
	}
}
