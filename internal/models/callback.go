package models

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Payment front-end result codes
const (
	PaymentResultSuccess = "Y"
)

// PaymentCallback is the opaque payload posted back by the payment front-end.
// Only invoiceNo and result are interpreted; everything is stored verbatim.
type PaymentCallback map[string]any

// InvoiceNo returns the invoice the callback refers to.
func (p PaymentCallback) InvoiceNo() string {
	return stringField(p, "invoiceNo")
}

// Result returns the raw result code.
func (p PaymentCallback) Result() string {
	return stringField(p, "result")
}

// Succeeded reports whether the payment front-end accepted the payment.
func (p PaymentCallback) Succeeded() bool {
	return p.Result() == PaymentResultSuccess
}

func stringField(p PaymentCallback, key string) string {
	v, ok := p[key]
	if !ok || v == nil {
		return ""
	}
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case []string:
		if len(val) > 0 {
			return val[0]
		}
		return ""
	default:
		return fmt.Sprint(val)
	}
}

// PaymentCallbackResponse acknowledges a payment callback
// swagger:model PaymentCallbackResponse
type PaymentCallbackResponse struct {
	// Acknowledgement message
	// example: Callback received
	Message string `json:"message"`
}
