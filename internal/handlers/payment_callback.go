package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/sbilibin2017/gw-remit/internal/logger"
	"github.com/sbilibin2017/gw-remit/internal/models"
	"github.com/sbilibin2017/gw-remit/internal/services"
)

//go:generate mockgen -source=payment_callback.go -destination=payment_callback_mock.go -package=handlers

// PaymentCallbackProcessor records payment front-end results.
type PaymentCallbackProcessor interface {
	HandlePaymentCallback(ctx context.Context, payload models.PaymentCallback) error
}

// NewPaymentCallbackHandler returns the public endpoint the payment front-end
// calls back. The payload arrives as query parameters, a form or a JSON body.
// @Summary Payment callback
// @Description Records the payment result for an invoice and continues processing on success
// @Tags payments
// @Accept json
// @Produce json
// @Param invoiceNo query string false "Invoice number"
// @Param result query string false "Payment result, Y on success"
// @Success 200 {object} models.PaymentCallbackResponse "Callback received"
// @Failure 400 {object} models.TransactionErrorResponse "Invalid callback"
// @Failure 404 {object} models.TransactionErrorResponse "Transaction not found"
// @Failure 500 {object} models.TransactionErrorResponse "Internal server error"
// @Router /payments/callback [post]
// @Router /payments/callback [get]
func NewPaymentCallbackHandler(processor PaymentCallbackProcessor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, err := readPaymentCallback(r)
		if err != nil {
			logger.Log.Warnw("invalid payment callback", "error", err)
			writeJSON(w, http.StatusBadRequest, models.TransactionErrorResponse{Error: "Invalid callback payload"})
			return
		}

		err = processor.HandlePaymentCallback(r.Context(), payload)
		switch {
		case errors.Is(err, services.ErrInvalidTransaction):
			writeJSON(w, http.StatusBadRequest, models.TransactionErrorResponse{Error: err.Error()})
			return
		case errors.Is(err, services.ErrTransactionNotFound):
			writeJSON(w, http.StatusNotFound, models.TransactionErrorResponse{Error: "Transaction not found"})
			return
		case err != nil:
			logger.Log.Errorw("failed to handle payment callback", "invoice_id", payload.InvoiceNo(), "error", err)
			writeJSON(w, http.StatusInternalServerError, models.TransactionErrorResponse{Error: "Internal server error"})
			return
		}

		writeJSON(w, http.StatusOK, models.PaymentCallbackResponse{Message: "Callback received"})
	}
}

// RegisterPaymentCallbackHandler registers the callback route for GET and POST
func RegisterPaymentCallbackHandler(r chi.Router, h http.HandlerFunc) {
	r.Get("/payments/callback", h)
	r.Post("/payments/callback", h)
}

func readPaymentCallback(r *http.Request) (models.PaymentCallback, error) {
	if r.Method == http.MethodGet {
		return fromValues(r.URL.Query()), nil
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/x-www-form-urlencoded" || mediaType == "multipart/form-data" {
		if err := r.ParseForm(); err != nil {
			return nil, err
		}
		return fromValues(r.Form), nil
	}

	payload := models.PaymentCallback{}
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&payload); err != nil {
		return nil, err
	}
	return payload, nil
}

func fromValues(values url.Values) models.PaymentCallback {
	payload := make(models.PaymentCallback, len(values))
	for k := range values {
		payload[k] = values.Get(k)
	}
	return payload
}
