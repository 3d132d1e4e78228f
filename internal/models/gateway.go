package models

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// TransferAccepted is the gateway status code that marks a transfer as accepted.
const TransferAccepted = 202

// Amount is a gateway number that may be encoded as a JSON number or a string.
type Amount float64

// UnmarshalJSON accepts 12.5, "12.5", "" and null.
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*a = 0
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*a = 0
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		*a = Amount(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*a = Amount(v)
	return nil
}

// GatewayStatus is a gateway statuscode that may be encoded as a JSON number or a string.
type GatewayStatus int

// UnmarshalJSON accepts 202 and "202".
func (s *GatewayStatus) UnmarshalJSON(data []byte) error {
	var a Amount
	if err := a.UnmarshalJSON(data); err != nil {
		return err
	}
	*s = GatewayStatus(a)
	return nil
}

// InitiateOrderRequest is posted to the gateway to obtain an order id.
type InitiateOrderRequest struct {
	APIToken string `json:"api_token"`
	Service  string `json:"service"`
}

// InitiateOrderResponse carries the gateway order id.
type InitiateOrderResponse struct {
	StatusCode GatewayStatus `json:"statuscode"`
	Data       struct {
		OrderID string `json:"orderid"`
	} `json:"data"`
}

// ExecuteTransferRequest is posted to the gateway to move money to the receiver.
type ExecuteTransferRequest struct {
	APIToken    string `json:"api_token"`
	Service     string `json:"service"`
	Destination string `json:"destination"`
	CashAmount  string `json:"cashAmount"`
	OrderID     string `json:"orderid"`
}

// ExecuteTransferResponse is the gateway answer to a transfer. Raw keeps the
// body exactly as received so it can be persisted for audit.
type ExecuteTransferResponse struct {
	StatusCode GatewayStatus `json:"statuscode"`
	Data       struct {
		Cash   Amount `json:"cash"`
		Volume Amount `json:"volume"`
		Fee    Amount `json:"fee"`
	} `json:"data"`
	Raw json.RawMessage `json:"-"`
}

// Accepted reports whether the gateway accepted the transfer.
func (r *ExecuteTransferResponse) Accepted() bool {
	return r.StatusCode == TransferAccepted
}
